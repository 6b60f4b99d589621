package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mikael-devkh/sistema/internal/model"
)

const (
	testEmail = "tecnico@example.com"
	testToken = "secret-token"
)

// fakeSearch serves POST /rest/api/3/search/jql from a fixed list of pages.
// Page n is requested with the cursor "page-n".
type fakeSearch struct {
	pages      []model.JiraSearchPage
	failPage   int
	failStatus int
	failBody   string

	mu     sync.Mutex
	bodies  []model.JiraSearchPageRequest
	auth    []string
	headers []http.Header
}

func (f *fakeSearch) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rest/api/3/search/jql" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var body model.JiraSearchPageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	user, pass, _ := r.BasicAuth()

	f.mu.Lock()
	f.bodies = append(f.bodies, body)
	f.auth = append(f.auth, user+":"+pass)
	f.headers = append(f.headers, r.Header.Clone())
	f.mu.Unlock()

	idx := 0
	if body.NextPageToken != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(body.NextPageToken, "page-"))
		if err != nil || n < 1 || n > len(f.pages) {
			http.Error(w, "bad cursor", http.StatusBadRequest)
			return
		}
		idx = n - 1
	}

	if f.failPage == idx+1 {
		w.WriteHeader(f.failStatus)
		_, _ = w.Write([]byte(f.failBody))
		return
	}

	page := f.pages[idx]
	if idx < len(f.pages)-1 {
		page.NextPageToken = fmt.Sprintf("page-%d", idx+2)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(page)
}

func (f *fakeSearch) requestHeaders() []http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]http.Header(nil), f.headers...)
}

func (f *fakeSearch) requests() []model.JiraSearchPageRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.JiraSearchPageRequest(nil), f.bodies...)
}

// newTestSession returns a session talking to srv through the site URL form
func newTestSession(t testing.TB, srv *httptest.Server, opts Options) *Session {
	client := NewClientWithHTTP(srv.Client(), opts)
	sess, err := client.NewSession(context.Background(), Settings{
		Email:       testEmail,
		APIToken:    testToken,
		BaseSiteURL: srv.URL + "/",
	})
	require.NoError(t, err)
	return sess
}

func keysOf(issues []model.JiraIssue) []string {
	keys := make([]string, len(issues))
	for i, issue := range issues {
		keys[i] = issue.Key
	}
	return keys
}

func issuesNamed(prefix string, n int) []model.JiraIssue {
	out := make([]model.JiraIssue, n)
	for i := range out {
		out[i] = model.JiraIssue{
			ID:     strconv.Itoa(10000 + i),
			Key:    fmt.Sprintf("%s-%d", prefix, i+1),
			Fields: map[string]any{"summary": fmt.Sprintf("issue %d", i+1)},
		}
	}
	return out
}

package jira

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transitionsBody = `{"transitions": [
	{"id": "11", "name": "Em andamento", "to": {"id": "3", "name": "Em andamento"}},
	{"id": "31", "name": "Concluído", "to": {"id": "10001", "name": "Concluído"}}
]}`

type fakeIssues struct {
	posted []map[string]any
}

func (f *fakeIssues) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/rest/api/3/issue/FSA-1234/transitions" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(transitionsBody))
	case http.MethodPost:
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.posted = append(f.posted, body)
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestTransitions(t *testing.T) {
	srv := httptest.NewServer(&fakeIssues{})
	defer srv.Close()

	got, err := newTestSession(t, srv, Options{}).Transitions(context.Background(), "FSA-1234")
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "31", got[1].ID)
	assert.Equal(t, "Concluído", got[1].To.Name)
}

func TestTransitionTo_MatchesByName(t *testing.T) {
	fake := &fakeIssues{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	err := newTestSession(t, srv, Options{}).TransitionTo(context.Background(), "FSA-1234", StateDone)
	require.NoError(t, err)

	require.Len(t, fake.posted, 1)
	assert.Equal(t, map[string]any{"transition": map[string]any{"id": "31"}}, fake.posted[0])
}

func TestTransitionTo_Unavailable(t *testing.T) {
	fake := &fakeIssues{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	err := newTestSession(t, srv, Options{}).TransitionTo(context.Background(), "FSA-1234", StateWaiting)

	assert.True(t, errors.Is(err, ErrTransitionUnavailable))
	assert.Empty(t, fake.posted)
}

func TestDoTransition_Validation(t *testing.T) {
	srv := httptest.NewServer(&fakeIssues{})
	defer srv.Close()

	err := newTestSession(t, srv, Options{}).DoTransition(context.Background(), "FSA-1234", "")

	var valErr *ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestDoTransition_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["Transition id '99' is not valid for this issue."]}`))
	}))
	defer srv.Close()

	err := newTestSession(t, srv, Options{}).DoTransition(context.Background(), "FSA-1234", "99")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestAddAttachment(t *testing.T) {
	var (
		gotToken, gotName, gotType string
		gotContent                 []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/3/issue/FSA-1234/attachments", r.URL.Path)
		gotToken = r.Header.Get("X-Atlassian-Token")

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			gotName = header.Filename
			gotType = header.Header.Get("Content-Type")
			gotContent, _ = io.ReadAll(file)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	err := newTestSession(t, srv, Options{}).AddAttachment(context.Background(), "FSA-1234", "RAT-1234.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	assert.Equal(t, "no-check", gotToken)
	assert.Equal(t, "RAT-1234.pdf", gotName)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, []byte("%PDF-1.4"), gotContent)
}

func TestMapStatusToWorkflow(t *testing.T) {
	tests := map[string]WorkflowState{
		"In Progress":          StateInProgress,
		"Em andamento":         StateInProgress,
		"Aguardando peça":      StateWaiting,
		"Waiting for customer": StateWaiting,
		"Done":                 StateDone,
		"Concluído":            StateDone,
		"Aberto":               StateOpen,
		"":                     StateOpen,
	}
	for status, want := range tests {
		assert.Equal(t, want, MapStatusToWorkflow(status), status)
	}
}

func TestParseWorkflowState(t *testing.T) {
	st, ok := ParseWorkflowState(" DONE ")
	assert.True(t, ok)
	assert.Equal(t, StateDone, st)

	_, ok = ParseWorkflowState("open")
	assert.False(t, ok)
}

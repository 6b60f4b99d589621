package fsa

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikael-devkh/sistema/internal/model"
	"github.com/mikael-devkh/sistema/internal/storage"
)

type fakeSearcher struct {
	issues   []model.JiraIssue
	err      error
	requests []model.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req model.SearchRequest) (*model.JiraSearchResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &model.JiraSearchResponse{Issues: f.issues, Total: len(f.issues), IsLast: true}, nil
}

func (f *fakeSearcher) FirstPage(_ context.Context, req model.SearchRequest) (*model.JiraSearchPage, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	n := len(f.issues)
	if req.MaxResults > 0 && n > req.MaxResults {
		n = req.MaxResults
	}
	return &model.JiraSearchPage{Issues: f.issues[:n]}, nil
}

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*model.FsaRecord
	getErr  error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]*model.FsaRecord{}}
}

func (s *memoryStore) GetFsa(_ context.Context, id string) (*model.FsaRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	r, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r, nil
}

func (s *memoryStore) PutFsa(_ context.Context, r *model.FsaRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[r.ID] = r
	return nil
}

var ticket = model.JiraIssue{
	Key: "FSA-1234",
	Fields: map[string]any{
		"summary":           "Loja 0451 - PDV parado",
		"customfield_12271": "Av. Paulista, 1000",
		"customfield_11994": "São Paulo",
		"customfield_11948": "SP",
	},
}

func TestLookup_FromJiraPersistsAndCaches(t *testing.T) {
	searcher := &fakeSearcher{issues: []model.JiraIssue{ticket}}
	store := newMemoryStore()
	svc := NewService(searcher, store, Options{CacheTTL: time.Minute, CacheSize: 10})

	d, err := svc.Lookup(context.Background(), "FSA-1234", "")
	require.NoError(t, err)

	assert.Equal(t, "jira", d.Source)
	assert.Equal(t, "1234", d.FsaID)
	assert.Equal(t, "0451", d.StoreCode)
	assert.Equal(t, "Av. Paulista, 1000", d.Address)

	require.Len(t, searcher.requests, 1)
	assert.Equal(t, 1, searcher.requests[0].MaxResults)
	assert.Equal(t, RequestedFields, searcher.requests[0].Fields)
	assert.Contains(t, searcher.requests[0].JQL, `key = "FSA-1234"`)

	require.Contains(t, store.records, "1234")
	assert.Equal(t, "SP", store.records["1234"].State)

	d, err = svc.Lookup(context.Background(), "1234", "")
	require.NoError(t, err)
	assert.Equal(t, "cache", d.Source)
	assert.Len(t, searcher.requests, 1)
}

func TestLookup_FromStore(t *testing.T) {
	searcher := &fakeSearcher{}
	store := newMemoryStore()
	store.records["77"] = &model.FsaRecord{ID: "77", StoreCode: "1001", City: "Recife", State: "PE"}
	svc := NewService(searcher, store, Options{})

	d, err := svc.Lookup(context.Background(), "FSA 77", "")
	require.NoError(t, err)

	assert.Equal(t, "store", d.Source)
	assert.Equal(t, "Recife", d.City)
	assert.Empty(t, searcher.requests)
}

func TestLookup_StoreFailureFallsThrough(t *testing.T) {
	searcher := &fakeSearcher{issues: []model.JiraIssue{ticket}}
	store := newMemoryStore()
	store.getErr = errors.New("bucket unavailable")
	svc := NewService(searcher, store, Options{})

	d, err := svc.Lookup(context.Background(), "1234", "")
	require.NoError(t, err)
	assert.Equal(t, "jira", d.Source)
}

func TestLookup_StoreHint(t *testing.T) {
	searcher := &fakeSearcher{issues: []model.JiraIssue{{Key: "FSA-55", Fields: map[string]any{"summary": "sem loja"}}}}
	svc := NewService(searcher, nil, Options{})

	d, err := svc.Lookup(context.Background(), "55", "Loja 2020")
	require.NoError(t, err)
	assert.Equal(t, "2020", d.StoreCode)
}

func TestLookup_NotFound(t *testing.T) {
	svc := NewService(&fakeSearcher{}, nil, Options{})

	_, err := svc.Lookup(context.Background(), "9999", "")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLookup_InvalidNumber(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := NewService(searcher, nil, Options{})

	_, err := svc.Lookup(context.Background(), "abc", "")
	assert.True(t, errors.Is(err, ErrInvalidNumber))
	assert.Empty(t, searcher.requests)
}

func TestLookup_SearchError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewService(&fakeSearcher{err: boom}, nil, Options{})

	_, err := svc.Lookup(context.Background(), "1234", "")
	assert.True(t, errors.Is(err, boom))
}

func TestListAll(t *testing.T) {
	searcher := &fakeSearcher{issues: []model.JiraIssue{ticket, ticket}}
	svc := NewService(searcher, nil, Options{})

	issues, err := svc.ListAll(context.Background(), 25)
	require.NoError(t, err)

	assert.Len(t, issues, 2)
	assert.Equal(t, AllFsaJQL, searcher.requests[0].JQL)
	assert.Equal(t, 25, searcher.requests[0].MaxResults)
}

func TestClearCache(t *testing.T) {
	searcher := &fakeSearcher{issues: []model.JiraIssue{ticket}}
	svc := NewService(searcher, nil, Options{CacheTTL: time.Minute, CacheSize: 10})

	_, err := svc.Lookup(context.Background(), "1234", "")
	require.NoError(t, err)
	svc.ClearCache()
	_, err = svc.Lookup(context.Background(), "1234", "")
	require.NoError(t, err)

	assert.Len(t, searcher.requests, 2)
}

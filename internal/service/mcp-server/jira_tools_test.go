package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikael-devkh/sistema/internal/fsa"
	"github.com/mikael-devkh/sistema/internal/model"
)

type fakeSearcher struct {
	last model.SearchRequest
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, req model.SearchRequest) (*model.JiraSearchResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	issues := []model.JiraIssue{{Key: "FSA-1234", Fields: map[string]any{"summary": "Loja 0451"}}}
	return &model.JiraSearchResponse{Issues: issues, Total: 1, IsLast: true}, nil
}

func (f *fakeSearcher) FirstPage(ctx context.Context, req model.SearchRequest) (*model.JiraSearchPage, error) {
	resp, err := f.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	return &model.JiraSearchPage{Issues: resp.Issues}, nil
}

func newTools(s *fakeSearcher) *tools {
	return &tools{deps: Dependencies{
		Searcher:          s,
		Fsa:               fsa.NewService(s, nil, fsa.Options{}),
		DefaultMaxResults: 50,
	}}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestSearchJiraTool(t *testing.T) {
	s := &fakeSearcher{}
	result, err := newTools(s).handleSearchJira(context.Background(), callRequest("search_jira", map[string]any{
		"jql":         "project = FSA",
		"fields":      "summary, status",
		"max_results": float64(10),
	}))
	require.NoError(t, err)

	var resp model.JiraSearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, []string{"summary", "status"}, s.last.Fields)
	assert.Equal(t, 10, s.last.MaxResults)
}

func TestSearchJiraTool_Defaults(t *testing.T) {
	s := &fakeSearcher{}
	_, err := newTools(s).handleSearchJira(context.Background(), callRequest("search_jira", map[string]any{"jql": "project = FSA"}))
	require.NoError(t, err)

	assert.Nil(t, s.last.Fields)
	assert.Equal(t, 50, s.last.MaxResults)
}

func TestSearchJiraTool_Errors(t *testing.T) {
	_, err := newTools(&fakeSearcher{}).handleSearchJira(context.Background(), callRequest("search_jira", map[string]any{}))
	assert.Error(t, err)

	result, err := newTools(&fakeSearcher{err: errors.New("Jira API error (401)")}).handleSearchJira(context.Background(),
		callRequest("search_jira", map[string]any{"jql": "project = FSA"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "401")
}

func TestGetFsaTool(t *testing.T) {
	result, err := newTools(&fakeSearcher{}).handleGetFsa(context.Background(), callRequest("get_fsa", map[string]any{"fsa": "FSA-1234"}))
	require.NoError(t, err)

	var d fsa.Details
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &d))
	assert.Equal(t, "1234", d.FsaID)
	assert.Equal(t, "0451", d.StoreCode)
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(Dependencies{})
	assert.Error(t, err)

	s := &fakeSearcher{}
	srv, err := NewServer(Dependencies{Searcher: s, Fsa: fsa.NewService(s, nil, fsa.Options{})})
	require.NoError(t, err)
	assert.NotNil(t, srv)
}

package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/fsa"
	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
)

type tools struct {
	deps Dependencies
}

// registerJiraTools registers all Jira-related tools with the server
func registerJiraTools(s *server.MCPServer, deps Dependencies) error {
	if deps.Searcher == nil || deps.Fsa == nil {
		return errors.New("mcp server needs a searcher and an fsa service")
	}
	t := &tools{deps: deps}

	searchJiraTool := mcp.NewTool("search_jira",
		mcp.WithDescription("Search Jira issues using JQL. Every page is fetched."),
		mcp.WithString("jql",
			mcp.Required(),
			mcp.Description("JQL query string"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma-separated fields to return in the results"),
		),
		mcp.WithNumber("max_results",
			mcp.Description("Page size used for each upstream request"),
		),
	)

	getFsaTool := mcp.NewTool("get_fsa",
		mcp.WithDescription("Get the store details (address, city, state, PDV) of an FSA ticket"),
		mcp.WithString("fsa",
			mcp.Required(),
			mcp.Description("FSA ticket number (e.g., '1234', 'FSA-1234')"),
		),
		mcp.WithString("store",
			mcp.Description("Store code to use when the ticket carries none"),
		),
	)

	s.AddTool(searchJiraTool, t.handleSearchJira)
	s.AddTool(getFsaTool, t.handleGetFsa)

	return nil
}

func (t *tools) handleSearchJira(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	jql, ok := args["jql"].(string)
	if !ok || strings.TrimSpace(jql) == "" {
		return nil, fmt.Errorf("invalid jql parameter")
	}

	req := model.SearchRequest{JQL: jql, MaxResults: t.deps.DefaultMaxResults}
	if fields, ok := args["fields"].(string); ok && fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				req.Fields = append(req.Fields, f)
			}
		}
	}
	if maxResults, ok := args["max_results"].(float64); ok && maxResults > 0 {
		req.MaxResults = int(maxResults)
	}

	resp, err := t.deps.Searcher.Search(ctx, req)
	if err != nil {
		logger.GetLogger().Warn("search_jira failed", zap.String("jql", jql), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

func (t *tools) handleGetFsa(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments
	number, ok := args["fsa"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid fsa parameter")
	}
	store, _ := args["store"].(string)

	details, err := t.deps.Fsa.Lookup(ctx, number, store)
	if err != nil {
		if errors.Is(err, fsa.ErrNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("FSA %s not found", number)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(details)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %v", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

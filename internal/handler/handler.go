package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/jira"
	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
)

const missingJQLMessage = "Missing required body parameter: jql"

// searchBody is the inbound search payload. Unknown keys are ignored.
type searchBody struct {
	JQL        string   `json:"jql"`
	Fields     []string `json:"fields"`
	MaxResults int      `json:"maxResults"`
}

// HandleSearch proxies one JQL search and returns every matching issue
func (h *ProxyHandler) HandleSearch(c *gin.Context) {
	req, err := h.bindSearchRequest(c)
	if err != nil {
		h.writeError(c, err, "")
		return
	}

	ctx := c.Request.Context()
	sess, err := h.jira.NewSession(ctx, h.cfg.JiraSettings())
	if err != nil {
		h.writeError(c, err, req.JQL)
		return
	}

	resp, err := sess.Search(ctx, req)
	if err != nil {
		h.writeError(c, err, req.JQL)
		return
	}

	logger.GetLogger().Info("search served",
		zap.String("jql", req.JQL),
		zap.Int("total", resp.Total))
	c.JSON(http.StatusOK, resp)
}

func (h *ProxyHandler) bindSearchRequest(c *gin.Context) (model.SearchRequest, error) {
	var body searchBody

	switch c.Request.Method {
	case http.MethodPost:
		if err := c.ShouldBindJSON(&body); err != nil {
			logger.GetLogger().Debug("invalid search body", zap.Error(err))
			return model.SearchRequest{}, &jira.ValidationError{Message: missingJQLMessage}
		}
	case http.MethodGet:
		body.JQL = c.Query("jql")
		if f := c.Query("fields"); f != "" {
			body.Fields = strings.Split(f, ",")
		}
		if m := c.Query("maxResults"); m != "" {
			n, err := strconv.Atoi(m)
			if err != nil {
				return model.SearchRequest{}, &jira.ValidationError{Message: "maxResults must be an integer"}
			}
			body.MaxResults = n
		}
	}

	if strings.TrimSpace(body.JQL) == "" {
		return model.SearchRequest{}, &jira.ValidationError{Message: missingJQLMessage}
	}

	req := model.SearchRequest{
		JQL:        body.JQL,
		Fields:     cleanFields(body.Fields),
		MaxResults: body.MaxResults,
	}
	if req.MaxResults <= 0 {
		req.MaxResults = h.cfg.Search.DefaultMaxResults
	}
	return req, nil
}

// cleanFields drops blank entries. An empty result lets the client apply its defaults.
func cleanFields(fields []string) []string {
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

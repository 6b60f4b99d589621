package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/fsa"
	"github.com/mikael-devkh/sistema/internal/jira"
	"github.com/mikael-devkh/sistema/internal/logger"
)

// parseDetailsLimit bounds the upstream body echoed back on a parse failure
const parseDetailsLimit = 512

// writeError maps a failure to its HTTP status and JSON body. jql is echoed for search failures.
func (h *ProxyHandler) writeError(c *gin.Context, err error, jql string) {
	var (
		cfgErr     *jira.ConfigurationError
		valErr     *jira.ValidationError
		apiErr     *jira.APIError
		parseErr   *jira.ParseError
		timeoutErr *jira.TimeoutError
		pageErr    *jira.PaginationExceededError
	)

	log := logger.GetLogger().With(zap.String("path", c.FullPath()), zap.Error(err))

	switch {
	case errors.As(err, &valErr):
		log.Info("rejected request")
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Message})
	case errors.As(err, &cfgErr):
		log.Error("jira is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": cfgErr.Message})
	case errors.As(err, &apiErr):
		log.Warn("jira rejected the call", zap.Int("status", apiErr.Status))
		c.JSON(apiErr.Status, h.apiErrorBody(apiErr, jql))
	case errors.As(err, &parseErr):
		log.Error("unreadable jira response")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to parse Jira response",
			"details": truncate(parseErr.Body, parseDetailsLimit),
		})
	case errors.As(err, &timeoutErr):
		log.Warn("jira timed out")
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": timeoutErr.Error()})
	case errors.As(err, &pageErr):
		log.Error("search did not terminate", zap.Int("max_pages", pageErr.MaxPages))
		c.JSON(http.StatusBadGateway, gin.H{"error": pageErr.Error()})
	case errors.Is(err, fsa.ErrInvalidNumber):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, fsa.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, jira.ErrTransitionUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *ProxyHandler) apiErrorBody(apiErr *jira.APIError, jql string) gin.H {
	details := gin.H{}
	if !h.cfg.Search.RedactUpstreamErrors {
		details["upstream"] = upstreamPayload(apiErr.Body)
	}
	body := gin.H{
		"error":   fmt.Sprintf("Jira API error (%d)", apiErr.Status),
		"details": details,
	}
	if jql != "" {
		details["jql"] = jql
		body["jql"] = jql
	}
	return body
}

// upstreamPayload keeps JSON error bodies structured and passes anything else through as text
func upstreamPayload(body string) any {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	return v
}

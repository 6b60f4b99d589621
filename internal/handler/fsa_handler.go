package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mikael-devkh/sistema/internal/jira"
)

// HandleFsaLookup handles GET /api/fsa/:number. The optional loja query
// parameter supplies the store code when the ticket carries none.
func (h *ProxyHandler) HandleFsaLookup(c *gin.Context) {
	details, err := h.fsa.Lookup(c.Request.Context(), c.Param("number"), c.Query("loja"))
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, details)
}

// HandleFsaList handles GET /api/fsas
func (h *ProxyHandler) HandleFsaList(c *gin.Context) {
	pageSize := h.cfg.Search.DefaultMaxResults
	if m := c.Query("maxResults"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || n <= 0 {
			h.writeError(c, &jira.ValidationError{Message: "maxResults must be a positive integer"}, "")
			return
		}
		pageSize = n
	}

	issues, err := h.fsa.ListAll(c.Request.Context(), pageSize)
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "total": len(issues)})
}

// HandleFsaCacheClear handles DELETE /api/fsa/cache
func (h *ProxyHandler) HandleFsaCacheClear(c *gin.Context) {
	h.fsa.ClearCache()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

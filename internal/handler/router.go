package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mikael-devkh/sistema/internal/logger"
)

// SearchPaths are the routes serving the search proxy
var SearchPaths = []string{"/api/buscar-fsa", "/search"}

// NewRouter builds the gin engine for both the Lambda adapter and the local server
func NewRouter(h *ProxyHandler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), logger.GinLogMiddleware(), CORS())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed. Use POST."})
	})

	for _, p := range SearchPaths {
		r.POST(p, h.HandleSearch)
		if h.cfg.Search.AllowGet {
			r.GET(p, h.HandleSearch)
		}
	}

	api := r.Group("/api")
	{
		api.GET("/fsa/:number", h.HandleFsaLookup)
		api.DELETE("/fsa/cache", h.HandleFsaCacheClear)
		api.GET("/fsas", h.HandleFsaList)
		api.GET("/jira/transitions", h.HandleTransitions)
		api.POST("/jira/transition", h.HandleTransition)
		api.POST("/jira/attach", h.HandleAttach)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

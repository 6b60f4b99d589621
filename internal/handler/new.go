package handler

import (
	"github.com/mikael-devkh/sistema/internal/config"
	"github.com/mikael-devkh/sistema/internal/fsa"
	"github.com/mikael-devkh/sistema/internal/jira"
	"github.com/mikael-devkh/sistema/internal/notify"
)

// ProxyHandler serves the Jira proxy endpoints. It holds no per-request state;
// every request opens its own Jira session from the process configuration.
type ProxyHandler struct {
	cfg      *config.Config
	jira     *jira.Client
	fsa      *fsa.Service
	notifier notify.Notifier
}

// NewProxyHandler wires the handler. notifier may be nil.
func NewProxyHandler(cfg *config.Config, client *jira.Client, fsaService *fsa.Service, notifier notify.Notifier) *ProxyHandler {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &ProxyHandler{
		cfg:      cfg,
		jira:     client,
		fsa:      fsaService,
		notifier: notifier,
	}
}

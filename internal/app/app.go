package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/config"
	"github.com/mikael-devkh/sistema/internal/fsa"
	"github.com/mikael-devkh/sistema/internal/handler"
	"github.com/mikael-devkh/sistema/internal/jira"
	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/notify"
	"github.com/mikael-devkh/sistema/internal/storage"
)

// App holds the long-lived collaborators shared by every entry point
type App struct {
	Config   *config.Config
	Jira     *jira.Client
	Fsa      *fsa.Service
	Notifier notify.Notifier
	Handler  *handler.ProxyHandler

	closers []func() error
}

// New wires the application from cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStore, err := OpenStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}

	client := jira.NewClient(cfg.JiraOptions())
	searcher := jira.Bound{Client: client, Settings: cfg.JiraSettings()}
	fsaService := fsa.NewService(searcher, store, cfg.FsaOptions())
	notifier := notify.NewSlackNotifier(cfg.Slack.BotToken, cfg.Slack.Channel)

	a := &App{
		Config:   cfg,
		Jira:     client,
		Fsa:      fsaService,
		Notifier: notifier,
		Handler:  handler.NewProxyHandler(cfg, client, fsaService, notifier),
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	logger.GetLogger().Info("application initialized",
		zap.String("storage", cfg.Storage.Backend),
		zap.Bool("slack", cfg.Slack.BotToken != ""),
		zap.Bool("allow_get", cfg.Search.AllowGet))
	return a, nil
}

// Searcher returns the Jira search bound to the configured credentials
func (a *App) Searcher() jira.Bound {
	return jira.Bound{Client: a.Jira, Settings: a.Config.JiraSettings()}
}

// Router returns the HTTP routes of the proxy
func (a *App) Router() *gin.Engine {
	return handler.NewRouter(a.Handler)
}

// Close releases the resources opened by New
func (a *App) Close() error {
	var firstErr error
	for _, c := range a.closers {
		if err := c(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenStore opens the configured FSA store. The returned store is nil for the
// "none" backend; the close func is nil when there is nothing to release.
func OpenStore(ctx context.Context, cfg config.StorageConfig) (storage.FsaStore, func() error, error) {
	var key []byte
	if cfg.EncryptKey != "" {
		k, err := storage.ParseKey(cfg.EncryptKey)
		if err != nil {
			return nil, nil, err
		}
		key = k
	}

	switch cfg.Backend {
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		return storage.NewS3FsaStore(s3.NewFromConfig(awsCfg), cfg.Bucket, key), nil, nil
	case "bolt":
		store, err := storage.NewBoltFsaStore(cfg.BoltPath, key)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, nil
	}
}

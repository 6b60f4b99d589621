package jira

import (
	"context"
	"strings"
	"sync"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
)

// cloudIDDiscovery asks accessible-resources which cloud id belongs to the configured site.
// The answer, including an empty one, is kept for the life of the process.
type cloudIDDiscovery struct {
	endpoint string

	once    sync.Once
	cloudID string
}

func (d *cloudIDDiscovery) resolve(ctx context.Context, rc *resty.Client, creds Credentials) string {
	d.once.Do(func() {
		d.cloudID = d.lookup(ctx, rc, creds)
	})
	return d.cloudID
}

func (d *cloudIDDiscovery) lookup(ctx context.Context, rc *resty.Client, creds Credentials) string {
	log := logger.GetLogger()

	var sites []model.JiraSite
	resp, err := rc.R().
		SetContext(ctx).
		SetBasicAuth(creds.Email, creds.APIToken).
		SetHeader("Accept", "application/json").
		SetResult(&sites).
		Get(d.endpoint)
	if err != nil {
		log.Warn("cloud id discovery failed", zap.Error(err))
		return ""
	}
	if resp.IsError() {
		log.Warn("cloud id discovery rejected", zap.Int("status", resp.StatusCode()), zap.String("body", resp.String()))
		return ""
	}

	id := matchSite(sites, creds.BaseSiteURL)
	if id == "" {
		log.Warn("no accessible resource matches the configured site", zap.String("site", creds.BaseSiteURL), zap.Int("sites", len(sites)))
		return ""
	}
	log.Info("discovered Jira cloud id", zap.String("site", creds.BaseSiteURL))
	return id
}

func matchSite(sites []model.JiraSite, siteURL string) string {
	want := normalizeSite(siteURL)
	for _, s := range sites {
		if normalizeSite(s.URL) == want {
			return s.ID
		}
	}
	return ""
}

func normalizeSite(u string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(u), "/"))
}

package fsa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
	"github.com/mikael-devkh/sistema/internal/storage"
)

var (
	// ErrNotFound is returned when neither the store nor Jira know the ticket
	ErrNotFound = errors.New("fsa not found")
	// ErrInvalidNumber is returned when the input holds no ticket number
	ErrInvalidNumber = errors.New("invalid fsa number")
)

// Searcher is the part of the Jira client the lookup needs
type Searcher interface {
	Search(ctx context.Context, req model.SearchRequest) (*model.JiraSearchResponse, error)
	FirstPage(ctx context.Context, req model.SearchRequest) (*model.JiraSearchPage, error)
}

// Options configure the lookup service
type Options struct {
	Mapping   FieldMapping
	CacheTTL  time.Duration
	CacheSize int
}

// Service resolves FSA tickets to store details: memory cache, then the
// document store, then Jira. Results found in Jira are written back to the store.
type Service struct {
	searcher Searcher
	store    storage.FsaStore
	mapping  FieldMapping
	cache    *cache
}

// NewService creates a lookup service. store may be nil.
func NewService(searcher Searcher, store storage.FsaStore, opts Options) *Service {
	s := &Service{
		searcher: searcher,
		store:    store,
		mapping:  opts.Mapping,
	}
	if opts.CacheTTL > 0 && opts.CacheSize > 0 {
		s.cache = newCache(opts.CacheTTL, opts.CacheSize)
	}
	return s
}

// Lookup resolves a ticket number. storeHint is used as the store code when the ticket carries none.
func (s *Service) Lookup(ctx context.Context, input, storeHint string) (*Details, error) {
	n := Normalize(input)
	if n == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNumber, input)
	}
	log := logger.GetLogger().With(zap.String("fsa", n))

	if d, ok := s.cache.get(n); ok {
		d.Source = "cache"
		return &d, nil
	}

	if s.store != nil {
		record, err := s.store.GetFsa(ctx, n)
		switch {
		case err == nil:
			d := detailsFromRecord(record)
			s.cache.set(n, d)
			return &d, nil
		case errors.Is(err, storage.ErrNotFound):
		default:
			log.Warn("fsa store lookup failed", zap.Error(err))
		}
	}

	jql, err := BuildJQLByNumber(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNumber, err)
	}
	page, err := s.searcher.FirstPage(ctx, model.SearchRequest{
		JQL:        jql,
		Fields:     RequestedFields,
		MaxResults: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(page.Issues) == 0 {
		log.Info("no issue matches fsa", zap.String("jql", jql))
		return nil, ErrNotFound
	}

	d := ParseDetails(page.Issues[0], s.mapping)
	d.FsaID = n
	if d.StoreCode == "" {
		d.StoreCode = ExtractStoreCode(storeHint)
	}
	d.Source = "jira"

	if s.store != nil && d.StoreCode != "" {
		if err := s.store.PutFsa(ctx, recordFromDetails(d)); err != nil {
			log.Warn("failed to persist fsa", zap.Error(err))
		}
	}
	s.cache.set(n, d)
	return &d, nil
}

// ListAll returns every ticket of the FSA project, pageSize issues per upstream call
func (s *Service) ListAll(ctx context.Context, pageSize int) ([]model.JiraIssue, error) {
	resp, err := s.searcher.Search(ctx, model.SearchRequest{
		JQL:        AllFsaJQL,
		Fields:     RequestedFields,
		MaxResults: pageSize,
	})
	if err != nil {
		return nil, err
	}
	return resp.Issues, nil
}

// ClearCache drops every in-memory entry
func (s *Service) ClearCache() {
	s.cache.clear()
}

func detailsFromRecord(r *model.FsaRecord) Details {
	return Details{
		FsaID:     r.ID,
		StoreCode: r.StoreCode,
		Address:   r.Address,
		City:      r.City,
		State:     r.State,
		PDV:       r.PDV,
		Source:    "store",
	}
}

func recordFromDetails(d Details) *model.FsaRecord {
	return &model.FsaRecord{
		ID:        d.FsaID,
		StoreCode: d.StoreCode,
		Address:   d.Address,
		City:      d.City,
		State:     strings.ToUpper(d.State),
		PDV:       d.PDV,
		Status:    "open",
		UpdatedAt: time.Now().UTC(),
	}
}

package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
)

const (
	// DefaultPageSize is the page size used when a search names none
	DefaultPageSize = 50

	accessibleResourcesURL = "https://api.atlassian.com/oauth/token/accessible-resources"
)

// Options tune the shared client
type Options struct {
	// RequestTimeout bounds every single upstream call
	RequestTimeout time.Duration
	// SearchDeadline bounds a whole multi-page search
	SearchDeadline time.Duration
	// MaxPages caps the number of pages one search may fetch. Zero disables the cap.
	MaxPages int
	// DiscoverCloudID enables the accessible-resources lookup when only a site URL is configured
	DiscoverCloudID bool
	// AccessibleResourcesURL overrides the discovery endpoint
	AccessibleResourcesURL string
}

// Client owns the outbound connection pool. It carries no per-request state
// and is safe for concurrent use.
type Client struct {
	http      *resty.Client
	opts      Options
	discovery *cloudIDDiscovery
}

// NewClient creates a client with its own resty instance
func NewClient(opts Options) *Client {
	return NewClientWithHTTP(&http.Client{}, opts)
}

// NewClientWithHTTP creates a client on top of the given http.Client
func NewClientWithHTTP(hc *http.Client, opts Options) *Client {
	rc := resty.NewWithClient(hc).
		SetHeader("Accept", "application/json").
		SetLogger(logger.RestyLogger{}).
		SetRetryCount(0)
	if opts.RequestTimeout > 0 {
		rc.SetTimeout(opts.RequestTimeout)
	}
	if opts.AccessibleResourcesURL == "" {
		opts.AccessibleResourcesURL = accessibleResourcesURL
	}
	return &Client{
		http:      rc,
		opts:      opts,
		discovery: &cloudIDDiscovery{endpoint: opts.AccessibleResourcesURL},
	}
}

// Session binds the shared client to one set of credentials for the duration of a request
type Session struct {
	client  *Client
	creds   Credentials
	baseURL string
}

// NewSession resolves credentials and the base URL. Cloud id discovery runs at most once per client.
func (c *Client) NewSession(ctx context.Context, s Settings) (*Session, error) {
	creds, err := ResolveCredentials(s)
	if err != nil {
		return nil, err
	}

	cloudID := creds.CloudID
	if cloudID == "" && s.PreferExGateway && c.opts.DiscoverCloudID {
		cloudID = c.discovery.resolve(ctx, c.http, creds)
	}

	baseURL, err := BuildBaseURL(cloudID, creds.BaseSiteURL, s.PreferExGateway)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Debug("jira session",
		zap.String("base_url", baseURL),
		zap.Bool("ex_gateway", strings.HasPrefix(baseURL, exGatewayBase)),
		zap.String("email", creds.MaskedEmail()),
		zap.Int("token_length", len(creds.APIToken)))

	return &Session{client: c, creds: creds, baseURL: baseURL}, nil
}

// BaseURL returns the REST base this session talks to
func (s *Session) BaseURL() string {
	return s.baseURL
}

// Bound pairs the shared client with one set of settings. Every call opens a fresh session.
type Bound struct {
	Client   *Client
	Settings Settings
}

// Search opens a session and runs a full paginated search
func (b Bound) Search(ctx context.Context, req model.SearchRequest) (*model.JiraSearchResponse, error) {
	sess, err := b.Client.NewSession(ctx, b.Settings)
	if err != nil {
		return nil, err
	}
	return sess.Search(ctx, req)
}

// FirstPage opens a session and fetches the first page only
func (b Bound) FirstPage(ctx context.Context, req model.SearchRequest) (*model.JiraSearchPage, error) {
	sess, err := b.Client.NewSession(ctx, b.Settings)
	if err != nil {
		return nil, err
	}
	return sess.FirstPage(ctx, req)
}

// Search runs the JQL query and follows nextPageToken until Jira reports no more pages.
// Any failure discards the pages fetched so far.
func (s *Session) Search(ctx context.Context, req model.SearchRequest) (*model.JiraSearchResponse, error) {
	body, err := pageRequest(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	log := logger.GetLogger()
	issues := make([]model.JiraIssue, 0)
	maxPages := s.client.opts.MaxPages

	for page := 1; ; page++ {
		if maxPages > 0 && page > maxPages {
			log.Error("search exceeded page limit", zap.String("jql", req.JQL), zap.Int("max_pages", maxPages))
			return nil, &PaginationExceededError{MaxPages: maxPages}
		}

		result, err := s.searchPage(ctx, body)
		if err != nil {
			log.Error("search page failed", zap.Int("page", page), zap.String("jql", req.JQL), zap.Error(err))
			return nil, err
		}

		issues = append(issues, result.Issues...)
		log.Debug("search page processed",
			zap.Int("page", page),
			zap.Int("issues_in_page", len(result.Issues)),
			zap.Bool("has_next_page_token", result.NextPageToken != ""))

		if result.NextPageToken == "" {
			break
		}
		body.NextPageToken = result.NextPageToken
	}

	return &model.JiraSearchResponse{
		Issues: issues,
		Total:  len(issues),
		IsLast: true,
	}, nil
}

// FirstPage fetches only the first page of the query. It is meant for
// "most recent match" lookups and never follows the cursor.
func (s *Session) FirstPage(ctx context.Context, req model.SearchRequest) (*model.JiraSearchPage, error) {
	body, err := pageRequest(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()
	return s.searchPage(ctx, body)
}

func (s *Session) searchPage(ctx context.Context, body model.JiraSearchPageRequest) (*model.JiraSearchPage, error) {
	var result model.JiraSearchPage
	if err := s.doJSON(ctx, http.MethodPost, "/search/jql", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// pageRequest validates req and fills in the default fields and page size
func pageRequest(req model.SearchRequest) (model.JiraSearchPageRequest, error) {
	if strings.TrimSpace(req.JQL) == "" {
		return model.JiraSearchPageRequest{}, &ValidationError{Message: "Missing required body parameter: jql"}
	}
	fields := req.Fields
	if len(fields) == 0 {
		fields = append([]string(nil), model.DefaultSearchFields...)
	}
	pageSize := req.MaxResults
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return model.JiraSearchPageRequest{
		JQL:        req.JQL,
		Fields:     fields,
		MaxResults: pageSize,
	}, nil
}

func (s *Session) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.client.opts.SearchDeadline > 0 {
		return context.WithTimeout(ctx, s.client.opts.SearchDeadline)
	}
	return context.WithCancel(ctx)
}

// doJSON sends body as JSON and decodes a 2xx answer into out. out may be nil.
func (s *Session) doJSON(ctx context.Context, method, path string, body any, out any) error {
	r := s.request(ctx)
	if body != nil {
		r.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := r.Execute(method, s.baseURL+path)
	if err != nil {
		return s.transportError(ctx, err)
	}
	return decodeResponse(resp, out)
}

func (s *Session) request(ctx context.Context) *resty.Request {
	return s.client.http.R().
		SetContext(ctx).
		SetBasicAuth(s.creds.Email, s.creds.APIToken).
		SetHeader("Accept", "application/json")
}

func (s *Session) transportError(ctx context.Context, err error) error {
	if !isTimeout(err) {
		return fmt.Errorf("failed to call Jira: %w", err)
	}
	after := s.client.opts.RequestTimeout
	if ctx.Err() != nil {
		after = s.client.opts.SearchDeadline
	}
	return &TimeoutError{After: after, Err: err}
}

func decodeResponse(resp *resty.Response, out any) error {
	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return &APIError{Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &ParseError{Body: string(resp.Body()), Err: err}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

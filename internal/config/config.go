package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/mikael-devkh/sistema/internal/fsa"
	"github.com/mikael-devkh/sistema/internal/jira"
)

// Config holds all configuration for the application
type Config struct {
	// Jira connection. Credentials are validated per request, not at load time.
	Jira JiraConfig `toml:"jira"`

	// Search proxy behaviour
	Search SearchConfig `toml:"search"`

	// FSA document store
	Storage StorageConfig `toml:"storage"`

	// Slack notifications, disabled when BotToken is empty
	Slack SlackConfig `toml:"slack"`

	LogLevel   string `toml:"log_level"`
	ListenAddr string `toml:"listen_addr"`
}

type JiraConfig struct {
	Email           string   `toml:"email"`
	APIToken        string   `toml:"api_token"`
	CloudID         string   `toml:"cloud_id"`
	BaseURL         string   `toml:"base_url"`
	PreferExGateway bool     `toml:"prefer_ex_gateway"`
	DiscoverCloudID bool     `toml:"discover_cloud_id"`
	RequestTimeout  Duration `toml:"request_timeout"`

	// Fields maps FSA attributes to site-specific custom field ids
	Fields FieldsConfig `toml:"fields"`
}

type FieldsConfig struct {
	Address string `toml:"address"`
	City    string `toml:"city"`
	State   string `toml:"state"`
	Store   string `toml:"store"`
	PDV     string `toml:"pdv"`
}

type SearchConfig struct {
	DefaultMaxResults    int      `toml:"default_max_results"`
	AllowGet             bool     `toml:"allow_get"`
	Deadline             Duration `toml:"deadline"`
	MaxPages             int      `toml:"max_pages"`
	RedactUpstreamErrors bool     `toml:"redact_upstream_errors"`
}

type StorageConfig struct {
	// Backend is one of "none", "s3", "bolt"
	Backend    string   `toml:"backend"`
	Bucket     string   `toml:"bucket"`
	BoltPath   string   `toml:"bolt_path"`
	EncryptKey string   `toml:"encrypt_key"` // base64, 32 bytes once decoded
	CacheTTL   Duration `toml:"cache_ttl"`
	CacheSize  int      `toml:"cache_size"`
}

type SlackConfig struct {
	BotToken string `toml:"bot_token"`
	Channel  string `toml:"channel"`
}

// Duration lets TOML files carry "20s" style values
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		Jira: JiraConfig{
			PreferExGateway: true,
			RequestTimeout:  Duration{20 * time.Second},
		},
		Search: SearchConfig{
			DefaultMaxResults: jira.DefaultPageSize,
			Deadline:          Duration{55 * time.Second},
			MaxPages:          100,
		},
		Storage: StorageConfig{
			Backend:   "none",
			BoltPath:  "data/fsa.db",
			CacheTTL:  Duration{5 * time.Minute},
			CacheSize: 100,
		},
		LogLevel:   "info",
		ListenAddr: ":8080",
	}
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and the environment.
// Every call returns a new Config; callers pass it down explicitly.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strVars := map[*string][]string{
		&cfg.Jira.Email:          {"JIRA_USER_EMAIL", "JIRA_EMAIL"},
		&cfg.Jira.APIToken:       {"JIRA_API_TOKEN", "JIRA_TOKEN"},
		&cfg.Jira.CloudID:        {"JIRA_CLOUD_ID"},
		&cfg.Jira.BaseURL:        {"JIRA_BASE_URL", "JIRA_URL"},
		&cfg.Jira.Fields.Address: {"JIRA_FIELD_ADDRESS"},
		&cfg.Jira.Fields.City:    {"JIRA_FIELD_CITY"},
		&cfg.Jira.Fields.State:   {"JIRA_FIELD_STATE"},
		&cfg.Jira.Fields.Store:   {"JIRA_FIELD_STORE"},
		&cfg.Jira.Fields.PDV:     {"JIRA_FIELD_PDV"},
		&cfg.Storage.Backend:     {"STORAGE_BACKEND"},
		&cfg.Storage.Bucket:      {"FSA_BUCKET_NAME"},
		&cfg.Storage.BoltPath:    {"FSA_BOLT_PATH"},
		&cfg.Storage.EncryptKey:  {"FSA_STORE_KEY"},
		&cfg.Slack.BotToken:      {"SLACK_BOT_TOKEN"},
		&cfg.Slack.Channel:       {"SLACK_CHANNEL"},
		&cfg.LogLevel:            {"LOG_LEVEL"},
		&cfg.ListenAddr:          {"LISTEN_ADDR"},
	}
	for ptr, names := range strVars {
		if v := lookup(names...); v != "" {
			*ptr = v
		}
	}

	boolVars := map[string]*bool{
		"JIRA_PREFER_EX_GATEWAY": &cfg.Jira.PreferExGateway,
		"JIRA_DISCOVER_CLOUD_ID": &cfg.Jira.DiscoverCloudID,
		"SEARCH_ALLOW_GET":       &cfg.Search.AllowGet,
		"REDACT_UPSTREAM_ERRORS": &cfg.Search.RedactUpstreamErrors,
	}
	intVars := map[string]*int{
		"SEARCH_DEFAULT_MAX_RESULTS": &cfg.Search.DefaultMaxResults,
		"SEARCH_MAX_PAGES":           &cfg.Search.MaxPages,
		"FSA_CACHE_SIZE":             &cfg.Storage.CacheSize,
	}
	durationVars := map[string]*Duration{
		"JIRA_REQUEST_TIMEOUT": &cfg.Jira.RequestTimeout,
		"SEARCH_DEADLINE":      &cfg.Search.Deadline,
		"FSA_CACHE_TTL":        &cfg.Storage.CacheTTL,
	}

	var invalid []string
	for env, ptr := range boolVars {
		if v := os.Getenv(env); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				invalid = append(invalid, env)
				continue
			}
			*ptr = b
		}
	}
	for env, ptr := range intVars {
		if v := os.Getenv(env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				invalid = append(invalid, env)
				continue
			}
			*ptr = n
		}
	}
	for env, ptr := range durationVars {
		if v := os.Getenv(env); v != "" {
			if err := ptr.UnmarshalText([]byte(v)); err != nil {
				invalid = append(invalid, env)
			}
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// lookup returns the first non-empty value among the given variable names
func lookup(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the non-credential settings
func (c *Config) Validate() error {
	if c.Search.DefaultMaxResults <= 0 {
		return fmt.Errorf("search default_max_results must be positive, got %d", c.Search.DefaultMaxResults)
	}
	if c.Search.MaxPages < 0 {
		return fmt.Errorf("search max_pages must not be negative, got %d", c.Search.MaxPages)
	}
	switch c.Storage.Backend {
	case "", "none":
		c.Storage.Backend = "none"
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for the s3 backend")
		}
	case "bolt":
		if c.Storage.BoltPath == "" {
			return fmt.Errorf("storage bolt_path is required for the bolt backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Slack.BotToken != "" && c.Slack.Channel == "" {
		return fmt.Errorf("SLACK_CHANNEL is required when SLACK_BOT_TOKEN is set")
	}
	return nil
}

// JiraSettings returns the raw settings handed to the credential resolver
func (c *Config) JiraSettings() jira.Settings {
	return jira.Settings{
		Email:           c.Jira.Email,
		APIToken:        c.Jira.APIToken,
		CloudID:         c.Jira.CloudID,
		BaseSiteURL:     c.Jira.BaseURL,
		PreferExGateway: c.Jira.PreferExGateway,
	}
}

// JiraOptions returns the options for the shared Jira client
func (c *Config) JiraOptions() jira.Options {
	return jira.Options{
		RequestTimeout:  c.Jira.RequestTimeout.Duration,
		SearchDeadline:  c.Search.Deadline.Duration,
		MaxPages:        c.Search.MaxPages,
		DiscoverCloudID: c.Jira.DiscoverCloudID,
	}
}

// FsaOptions returns the options for the FSA lookup service
func (c *Config) FsaOptions() fsa.Options {
	return fsa.Options{
		Mapping: fsa.FieldMapping{
			Address: c.Jira.Fields.Address,
			City:    c.Jira.Fields.City,
			State:   c.Jira.Fields.State,
			Store:   c.Jira.Fields.Store,
			PDV:     c.Jira.Fields.PDV,
		},
		CacheTTL:  c.Storage.CacheTTL.Duration,
		CacheSize: c.Storage.CacheSize,
	}
}

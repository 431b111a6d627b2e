package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/spf13/viper"
)

// Config holds all configuration for the assistant
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Listing    ListingConfig    `mapstructure:"listing"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Dispatch   DispatchConfig   `mapstructure:"dispatch"`
	Capability CapabilityConfig `mapstructure:"capability"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug       bool   `mapstructure:"debug"`
	Environment string `mapstructure:"environment"` // development or production
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
}

func (g GeneralConfig) IsProduction() bool { return g.Environment == "production" }

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address        string        `mapstructure:"address"`
	JWTSecret      string        `mapstructure:"jwt_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func (s ServerConfig) Normalize() ServerConfig {
	if strings.TrimSpace(s.Address) == "" {
		s.Address = ":8080"
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = 2 * time.Hour
	}
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 10 * time.Minute
	}
	return s
}

// LLMConfig configures the OpenAI compatible chat backend.
type LLMConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Temperature   float64       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	MaxToolRounds int           `mapstructure:"max_tool_rounds"`
}

func (l LLMConfig) Normalize() LLMConfig {
	if strings.TrimSpace(l.Model) == "" {
		l.Model = "gpt-4o-mini"
	}
	if l.MaxTokens <= 0 {
		l.MaxTokens = 4096
	}
	if l.Timeout <= 0 {
		l.Timeout = 60 * time.Second
	}
	if l.MaxRetries < 0 {
		l.MaxRetries = 0
	}
	if l.MaxToolRounds <= 0 {
		l.MaxToolRounds = 6
	}
	return l
}

func (l LLMConfig) Validate() error {
	if l.Temperature < 0 || l.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be within [0, 2]")
	}
	return nil
}

// ListingConfig selects and tunes the job listing backend.
type ListingConfig struct {
	Backend       string        `mapstructure:"backend"` // scrape or linkedin_api
	Email         string        `mapstructure:"email"`
	Password      string        `mapstructure:"password"`
	SearchTimeout time.Duration `mapstructure:"search_timeout"`
	DetailTimeout time.Duration `mapstructure:"detail_timeout"`
	Concurrency   int           `mapstructure:"concurrency"`
}

func (l ListingConfig) Normalize() ListingConfig {
	if l.SearchTimeout <= 0 {
		l.SearchTimeout = 30 * time.Second
	}
	if l.DetailTimeout <= 0 {
		l.DetailTimeout = 30 * time.Second
	}
	if l.Concurrency <= 0 {
		l.Concurrency = 5
	}
	return l
}

// Validate only requires credentials when the API backend is selected.
func (l ListingConfig) Validate() error {
	if job_search.ParseBackend(l.Backend) != job_search.APIBackend {
		return nil
	}
	if strings.TrimSpace(l.Email) == "" || l.Password == "" {
		return fmt.Errorf("listing.email and listing.password required when listing.backend is %s", job_search.APIBackend)
	}
	return nil
}

// ToolsConfig configures the handler tools.
type ToolsConfig struct {
	SearchProvider string        `mapstructure:"search_provider"`
	SerperAPIKey   string        `mapstructure:"serper_api_key"`
	BraveAPIKey    string        `mapstructure:"brave_api_key"`
	SearchResults  int           `mapstructure:"search_results"`
	SearchTimeout  time.Duration `mapstructure:"search_timeout"`
	Fetcher        string        `mapstructure:"fetcher"`
	ScrapeTimeout  time.Duration `mapstructure:"scrape_timeout"`
	ScrapeMaxChars int           `mapstructure:"scrape_max_chars"`
	ResumePath     string        `mapstructure:"resume_path"`
	Pdftotext      string        `mapstructure:"pdftotext"`
	LettersDir     string        `mapstructure:"letters_dir"`
}

func (t ToolsConfig) Normalize() ToolsConfig {
	if strings.TrimSpace(t.SearchProvider) == "" {
		t.SearchProvider = "serper"
	}
	if t.SearchResults <= 0 {
		t.SearchResults = 5
	}
	if t.SearchTimeout <= 0 {
		t.SearchTimeout = 15 * time.Second
	}
	if strings.TrimSpace(t.Fetcher) == "" {
		t.Fetcher = "chromedp"
	}
	if t.ScrapeTimeout <= 0 {
		t.ScrapeTimeout = 30 * time.Second
	}
	if t.ScrapeMaxChars <= 0 {
		t.ScrapeMaxChars = 10000
	}
	if strings.TrimSpace(t.ResumePath) == "" {
		t.ResumePath = "temp/resume.pdf"
	}
	if strings.TrimSpace(t.Pdftotext) == "" {
		t.Pdftotext = "pdftotext"
	}
	if strings.TrimSpace(t.LettersDir) == "" {
		t.LettersDir = "temp"
	}
	return t
}

// SearchAPIKey returns the key of the selected search provider.
func (t ToolsConfig) SearchAPIKey() string {
	if t.SearchProvider == "brave" {
		return t.BraveAPIKey
	}
	return t.SerperAPIKey
}

// DispatchConfig bounds the supervisor loop.
type DispatchConfig struct {
	MaxIterations   int           `mapstructure:"max_iterations"`
	DecisionTimeout time.Duration `mapstructure:"decision_timeout"`
}

func (d DispatchConfig) Normalize() DispatchConfig {
	if d.MaxIterations <= 0 {
		d.MaxIterations = 30
	}
	if d.DecisionTimeout <= 0 {
		d.DecisionTimeout = 60 * time.Second
	}
	return d
}

// CapabilityConfig controls the ToolCard registry behaviour.
type CapabilityConfig struct {
	SigningSecret string   `mapstructure:"signing_secret"`
	RequiredTools []string `mapstructure:"required_tools"`
}

// TelemetryConfig contains tracing, log export and fault sink settings
type TelemetryConfig struct {
	OTLPEndpoint   string        `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string        `mapstructure:"otlp_headers"`
	EventBuffer    int           `mapstructure:"event_buffer"`
	ForwardTimeout time.Duration `mapstructure:"forward_timeout"`
	StreamEnabled  bool          `mapstructure:"stream_enabled"`
	FaultStream    string        `mapstructure:"fault_stream"`
}

func (t TelemetryConfig) OTelEnabled() bool { return strings.TrimSpace(t.OTLPEndpoint) != "" }

func (t TelemetryConfig) Normalize() TelemetryConfig {
	t.OTLPEndpoint = strings.TrimRight(strings.TrimSpace(t.OTLPEndpoint), "/")
	if t.EventBuffer <= 0 {
		t.EventBuffer = 256
	}
	if t.ForwardTimeout <= 0 {
		t.ForwardTimeout = 5 * time.Second
	}
	if strings.TrimSpace(t.FaultStream) == "" {
		t.FaultStream = "careerdesk:faults"
	}
	return t
}

// StorageConfig contains storage settings
type StorageConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if r.DB < 0 {
		return fmt.Errorf("storage.redis.db cannot be negative")
	}
	return nil
}

// Validate checks that the stream sink has somewhere to write.
func (t TelemetryConfig) Validate(redis RedisConfig) error {
	if t.StreamEnabled && strings.TrimSpace(redis.Addr) == "" {
		return fmt.Errorf("storage.redis.addr required when telemetry.stream_enabled is set")
	}
	return nil
}

// ListingOptions builds the backend options for one search. Call it per
// search so a backend toggle change applies to the next call.
func (c *Config) ListingOptions() job_search.Options {
	return job_search.Options{
		Backend:       job_search.ParseBackend(c.Listing.Backend),
		Email:         c.Listing.Email,
		Password:      c.Listing.Password,
		SearchTimeout: c.Listing.SearchTimeout,
		DetailTimeout: c.Listing.DetailTimeout,
		Concurrency:   c.Listing.Concurrency,
	}
}

// legacyEnv maps the environment names the assistant historically read to
// config keys. The prefixed name wins when both are set.
var legacyEnv = map[string]string{
	"llm.api_key":          "OPENAI_API_KEY",
	"tools.serper_api_key": "SERPER_API_KEY",
	"tools.brave_api_key":  "BRAVE_API_KEY",
	"listing.backend":      "LINKEDIN_SEARCH",
	"listing.email":        "LINKEDIN_EMAIL",
	"listing.password":     "LINKEDIN_PASS",
	"storage.redis.addr":   "REDIS_ADDR",
}

// defaults registers every key so AutomaticEnv can fill keys absent from the
// config file.
var defaults = map[string]any{
	"general.debug":              false,
	"general.environment":        "development",
	"general.service_name":       "careerdesk",
	"general.version":            "dev",
	"server.address":             ":8080",
	"server.jwt_secret":          "",
	"server.session_ttl":         "2h",
	"server.request_timeout":     "10m",
	"llm.base_url":               "",
	"llm.model":                  "gpt-4o-mini",
	"llm.temperature":            0.0,
	"llm.max_tokens":             4096,
	"llm.timeout":                "60s",
	"llm.max_retries":            2,
	"llm.max_tool_rounds":        6,
	"listing.search_timeout":     "30s",
	"listing.detail_timeout":     "30s",
	"listing.concurrency":        5,
	"tools.search_provider":      "serper",
	"tools.search_results":       5,
	"tools.search_timeout":       "15s",
	"tools.fetcher":              "chromedp",
	"tools.scrape_timeout":       "30s",
	"tools.scrape_max_chars":     10000,
	"tools.resume_path":          "temp/resume.pdf",
	"tools.pdftotext":            "pdftotext",
	"tools.letters_dir":          "temp",
	"dispatch.max_iterations":    30,
	"dispatch.decision_timeout":  "60s",
	"capability.signing_secret":  "",
	"telemetry.otlp_endpoint":    "",
	"telemetry.otlp_headers":     "",
	"telemetry.event_buffer":     256,
	"telemetry.forward_timeout":  "5s",
	"telemetry.stream_enabled":   false,
	"telemetry.fault_stream":     "careerdesk:faults",
	"storage.redis.password":     "",
	"storage.redis.db":           0,
	"storage.redis.timeout":      "5s",
}

// Load reads .env, the optional config file and the environment. A missing
// config file is fine; a malformed one is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		if exe, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(exe))
		}
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("CAREERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		prefixed := "CAREERDESK_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Server = cfg.Server.Normalize()
	cfg.LLM = cfg.LLM.Normalize()
	cfg.Listing = cfg.Listing.Normalize()
	cfg.Tools = cfg.Tools.Normalize()
	cfg.Dispatch = cfg.Dispatch.Normalize()
	cfg.Telemetry = cfg.Telemetry.Normalize()

	if err := cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Listing.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.Redis.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Telemetry.Validate(cfg.Storage.Redis); err != nil {
		return nil, err
	}
	return &cfg, nil
}

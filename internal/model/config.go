package model

import (
	"runtime"
	"time"
)

// Config is the complete gateway configuration
type Config struct {
	Server       ServerConfig      `yaml:"server" mapstructure:"server"`
	LLM          LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Policy       PolicyConfig      `yaml:"policy" mapstructure:"policy"`
	Rules        RulesConfig       `yaml:"rules" mapstructure:"rules"`
	Evidence     EvidenceConfig    `yaml:"evidence" mapstructure:"evidence"`
	Audit        AuditConfig       `yaml:"audit" mapstructure:"audit"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Telemetry    TelemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins" mapstructure:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// LLMConfig configures the upstream model
type LLMConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider"` // openrouter, openai, gemini, ollama, mock
	Mock           bool          `yaml:"mock" mapstructure:"mock"`         // Force canned responses
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries     int           `yaml:"max_retries" mapstructure:"max_retries"`
	FallbackToMock bool          `yaml:"fallback_to_mock" mapstructure:"fallback_to_mock"`
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature    float32       `yaml:"temperature" mapstructure:"temperature"`
	HTTPProxy      string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// PolicyConfig locates the threshold table
type PolicyConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Watch bool   `yaml:"watch" mapstructure:"watch"` // Reload on file change
}

// RulesConfig optionally replaces the embedded detection tables
type RulesConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// EvidenceConfig configures retrieval of grounding documents
type EvidenceConfig struct {
	Dir          string          `yaml:"dir,omitempty" mapstructure:"dir"`
	URLs         []string        `yaml:"urls,omitempty" mapstructure:"urls"`
	TopK         int             `yaml:"top_k" mapstructure:"top_k"`
	UserAgent    string          `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout      time.Duration   `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes int64           `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Authority    AuthorityConfig `yaml:"authority" mapstructure:"authority"`
}

// AuthorityConfig classifies evidence sources by host
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`     // Regulators, official bodies
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"` // Encyclopedias, major publishers
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`     // Exact host overrides
}

// AuditConfig configures the audit log
type AuditConfig struct {
	Path       string `yaml:"path" mapstructure:"path"`
	SafetyMode string `yaml:"safety_mode" mapstructure:"safety_mode"`
}

// CacheConfig configures LLM answer and evidence caching
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir,omitempty" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig sizes the worker pool used for batch analysis
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig paces outbound calls per upstream host
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// TelemetryConfig configures tracing
type TelemetryConfig struct {
	Tracing     bool   `yaml:"tracing" mapstructure:"tracing"` // Export spans to stdout
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"*"},
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		LLM: LLMConfig{
			Provider:       "openrouter",
			Mock:           true,
			Timeout:        30 * time.Second,
			MaxRetries:     2,
			FallbackToMock: true,
			MaxTokens:      500,
			Temperature:    0.7,
		},
		Evidence: EvidenceConfig{
			TopK:         3,
			UserAgent:    "Watchdog/1.0 (+https://github.com/ppiankov/watchdog)",
			Timeout:      10 * time.Second,
			MaxBodyBytes: 2 * 1024 * 1024,
			Authority: AuthorityConfig{
				PrimaryDomains:   []string{"who.int", "nih.gov", "cdc.gov", "fda.gov", "ema.europa.eu", "sec.gov", "nhs.uk", "gov.uk"},
				SecondaryDomains: []string{"wikipedia.org", "britannica.com", "mayoclinic.org", "reuters.com", "apnews.com"},
			},
		},
		Audit: AuditConfig{
			Path:       "audit_log.jsonl",
			SafetyMode: "balanced",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "watchdog",
		},
	}
}

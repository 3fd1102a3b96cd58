// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes server timeouts,
// logging, storage, rate limiting, observability and the Discord and GitHub
// credentials the bot runs with.
package config

import (
	"encoding/hex"
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// DiscordConfig holds the application credentials and outbound client tuning.
type DiscordConfig struct {
	APIURL    string // DISCORD_API_URL
	Token     string // DISCORD_APP_TOKEN (bot token)
	AppID     string // DISCORD_APP_ID
	PublicKey string // DISCORD_APP_PUBLIC_KEY, hex encoded ed25519 key

	MaxRetries   int           // DISCORD_MAX_RETRIES, rate-limit retries per request
	MaxRetryWait time.Duration // DISCORD_MAX_RETRY_WAIT, ceiling for a single wait
	GlobalRPS    float64       // DISCORD_GLOBAL_RPS, outbound requests per second
}

// GitHubConfig holds GitHub API and OAuth app settings.
type GitHubConfig struct {
	APIURL       string // GITHUB_API_URL, empty for github.com
	ClientID     string // GITHUB_CLIENT_ID
	ClientSecret string // GITHUB_CLIENT_SECRET
}

// OAuthEnabled reports whether the web sign-in flow can be offered.
func (g GitHubConfig) OAuthEnabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// InteractionConfig tunes how inbound interactions are answered and how long
// multi-step flows stay alive.
type InteractionConfig struct {
	DeferAfter time.Duration // INTERACTION_DEFER_AFTER
	Timeout    time.Duration // INTERACTION_TIMEOUT
	ReceiptTTL time.Duration // INTERACTION_RECEIPT_TTL
	FlowTTL    time.Duration // FLOW_TTL
	LinkTTL    time.Duration // LINK_TTL
	PageTTL    time.Duration // PAGE_TTL
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route

	// App
	DBPath          string        // SQLite path
	SiteURL         string        // public base URL, used for sign-in links
	EncryptionKey   string        // ENCRYPTION_KEY, seals GitHub tokens at rest
	AutocompleteTTL time.Duration // staleness window of the autocomplete cache

	// AutocompleteConcurrency bounds parallel per-repository fetches in a refresh.
	AutocompleteConcurrency int

	// Rate limiting (inbound, per Discord user)
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	Discord      DiscordConfig
	GitHub       GitHubConfig
	Interactions InteractionConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),

		// App
		DBPath:          getenv("DB_PATH", "gitcord.db"),
		SiteURL:         strings.TrimRight(getenv("SITE_URL", "http://localhost:8080"), "/"),
		EncryptionKey:   getenv("ENCRYPTION_KEY", ""),
		AutocompleteTTL: getdur("AUTOCOMPLETE_TTL", time.Hour),

		AutocompleteConcurrency: getint("AUTOCOMPLETE_CONCURRENCY", 4),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Discord: DiscordConfig{
			APIURL:       strings.TrimRight(getenv("DISCORD_API_URL", "https://discord.com/api/v10"), "/"),
			Token:        getenv("DISCORD_APP_TOKEN", ""),
			AppID:        getenv("DISCORD_APP_ID", ""),
			PublicKey:    strings.TrimSpace(getenv("DISCORD_APP_PUBLIC_KEY", "")),
			MaxRetries:   getint("DISCORD_MAX_RETRIES", 5),
			MaxRetryWait: getdur("DISCORD_MAX_RETRY_WAIT", time.Minute),
			GlobalRPS:    getfloat("DISCORD_GLOBAL_RPS", 50),
		},
		GitHub: GitHubConfig{
			APIURL:       getenv("GITHUB_API_URL", ""),
			ClientID:     getenv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getenv("GITHUB_CLIENT_SECRET", ""),
		},
		Interactions: InteractionConfig{
			DeferAfter: getdur("INTERACTION_DEFER_AFTER", 2500*time.Millisecond),
			Timeout:    getdur("INTERACTION_TIMEOUT", 15*time.Minute),
			ReceiptTTL: getdur("INTERACTION_RECEIPT_TTL", time.Hour),
			FlowTTL:    getdur("FLOW_TTL", 30*time.Minute),
			LinkTTL:    getdur("LINK_TTL", 10*time.Minute),
			PageTTL:    getdur("PAGE_TTL", 15*time.Minute),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "gitcord"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if u, err := url.Parse(cfg.SiteURL); err != nil || u.Scheme == "" || u.Host == "" {
		return cfg, errors.New("SITE_URL must be an absolute URL")
	}
	if strings.TrimSpace(cfg.EncryptionKey) == "" {
		return cfg, errors.New("ENCRYPTION_KEY must not be empty")
	}
	if cfg.AutocompleteTTL <= 0 {
		return cfg, errors.New("AUTOCOMPLETE_TTL must be > 0")
	}
	if cfg.AutocompleteConcurrency < 1 {
		return cfg, errors.New("AUTOCOMPLETE_CONCURRENCY must be >= 1")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.Discord.Token == "" || cfg.Discord.AppID == "" {
		return cfg, errors.New("DISCORD_APP_TOKEN and DISCORD_APP_ID must be set")
	}
	if k, err := hex.DecodeString(cfg.Discord.PublicKey); err != nil || len(k) != 32 {
		return cfg, errors.New("DISCORD_APP_PUBLIC_KEY must be a 32-byte hex encoded key")
	}
	if cfg.Discord.MaxRetries < 0 {
		return cfg, errors.New("DISCORD_MAX_RETRIES must be >= 0")
	}
	if cfg.Discord.MaxRetryWait <= 0 {
		return cfg, errors.New("DISCORD_MAX_RETRY_WAIT must be > 0")
	}
	if cfg.Discord.GlobalRPS <= 0 {
		return cfg, errors.New("DISCORD_GLOBAL_RPS must be > 0")
	}
	if (cfg.GitHub.ClientID == "") != (cfg.GitHub.ClientSecret == "") {
		return cfg, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET must be set together")
	}
	in := cfg.Interactions
	if in.DeferAfter <= 0 || in.Timeout <= 0 || in.ReceiptTTL <= 0 || in.FlowTTL <= 0 || in.LinkTTL <= 0 || in.PageTTL <= 0 {
		return cfg, errors.New("interaction durations must be positive")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

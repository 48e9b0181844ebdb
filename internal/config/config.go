package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/adscope/adscope/internal/analysis"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Advisor  AdvisorConfig
	Analysis analysis.Config
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// DatabaseConfig holds audit persistence settings. An empty URL disables
// persistence; audits are still served from the in-process run and cache.
type DatabaseConfig struct {
	URL string
}

// CacheConfig holds the on-disk audit cache settings. RetentionDays bounds
// how long cached results stay on disk; 0 disables the retention sweep.
type CacheConfig struct {
	Dir           string
	LookbackDays  int
	RetentionDays int
}

// AdvisorConfig selects the AI advisory backend. An empty provider disables
// the advisory pass.
type AdvisorConfig struct {
	Provider string // "openai", "anthropic" or ""
	APIKey   string
	Model    string
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat     = "json"
	defaultCacheDir      = "./audit_cache"
	defaultLookbackDays  = 0
	defaultRetentionDays = 30

	defaultOpenAIModel    = "gpt-4o-mini"
	defaultAnthropicModel = "claude-3-5-sonnet-20240620"
)

// Load reads configuration from environment variables, applying defaults
// when values are not provided. Invalid values fail loading rather than
// falling back silently; in particular the analysis thresholds are
// validated here so a misconfigured analyzer never starts.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Cache: CacheConfig{
			Dir:           getEnv("AUDIT_CACHE_DIR", defaultCacheDir),
			LookbackDays:  defaultLookbackDays,
			RetentionDays: defaultRetentionDays,
		},
		Advisor: AdvisorConfig{
			Provider: os.Getenv("ADVISOR_PROVIDER"),
		},
		Analysis: analysis.DefaultConfig(),
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("AUDIT_CACHE_LOOKBACK_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid AUDIT_CACHE_LOOKBACK_DAYS: must be a non-negative integer")
		}
		cfg.Cache.LookbackDays = n
	}

	if v := os.Getenv("AUDIT_CACHE_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid AUDIT_CACHE_RETENTION_DAYS: must be a non-negative integer")
		}
		cfg.Cache.RetentionDays = n
	}

	switch cfg.Advisor.Provider {
	case "":
	case "openai":
		cfg.Advisor.APIKey = os.Getenv("OPENAI_API_KEY")
		cfg.Advisor.Model = getEnv("ADVISOR_MODEL", defaultOpenAIModel)
		if cfg.Advisor.APIKey == "" {
			return Config{}, fmt.Errorf("ADVISOR_PROVIDER=openai requires OPENAI_API_KEY")
		}
	case "anthropic":
		cfg.Advisor.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		cfg.Advisor.Model = getEnv("ADVISOR_MODEL", defaultAnthropicModel)
		if cfg.Advisor.APIKey == "" {
			return Config{}, fmt.Errorf("ADVISOR_PROVIDER=anthropic requires ANTHROPIC_API_KEY")
		}
	default:
		return Config{}, fmt.Errorf("invalid ADVISOR_PROVIDER: must be 'openai' or 'anthropic'")
	}

	if err := loadAnalysis(&cfg.Analysis); err != nil {
		return Config{}, err
	}
	if err := cfg.Analysis.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadAnalysis applies environment overrides to the analysis thresholds.
func loadAnalysis(cfg *analysis.Config) error {
	if v := os.Getenv("ANALYSIS_FATIGUE_MIN_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_FATIGUE_MIN_DAYS: %w", err)
		}
		cfg.FatigueMinDays = n
	}
	if v := os.Getenv("ANALYSIS_FATIGUE_CONFIDENCE_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_FATIGUE_CONFIDENCE_THRESHOLD: %w", err)
		}
		cfg.FatigueConfidenceThreshold = f
	}
	if v := os.Getenv("ANALYSIS_MIN_SEGMENT_SIZE"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_MIN_SEGMENT_SIZE: %w", err)
		}
		cfg.MinSegmentSize = n
	}
	if v := os.Getenv("ANALYSIS_CONFIDENCE_LEVEL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_CONFIDENCE_LEVEL: %w", err)
		}
		cfg.ConfidenceLevel = f
	}
	if v := os.Getenv("ANALYSIS_MIN_CAMPAIGN_SPEND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_MIN_CAMPAIGN_SPEND: %w", err)
		}
		cfg.MinCampaignSpend = f
	}
	if v := os.Getenv("ANALYSIS_MIN_ADSET_SPEND"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_MIN_ADSET_SPEND: %w", err)
		}
		cfg.MinAdSetSpend = f
	}
	if v := os.Getenv("ANALYSIS_MIN_DATA_THRESHOLD"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ANALYSIS_MIN_DATA_THRESHOLD: %w", err)
		}
		cfg.MinDataThreshold = n
	}
	return nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}

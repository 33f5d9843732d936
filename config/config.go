package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DateLayout is the calendar-date format accepted by every date setting.
const DateLayout = "2006-01-02"

// DefaultSymbolSources are the public S&P 500 constituent mirrors, tried in order.
var DefaultSymbolSources = []string{
	"https://raw.githubusercontent.com/datasets/s-and-p-500-companies/master/data/constituents.csv",
	"https://datahub.io/core/s-and-p-500-companies/r/constituents.csv",
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is composed of smaller structs that represent different concerns of the system:
// the read API, the acquisition pipeline, the symbol sources, the market-data provider
// and the optional metrics export.
//
// Example ENV equivalent:
//
//	SERVER_PORT=8080
//	PIPELINE_CHUNK_SIZE=100
//	PIPELINE_START_DATE=2020-01-01
//	PIPELINE_END_DATE=2025-01-01
//	PIPELINE_WINDOW_START=2024-01-01
//	PIPELINE_WINDOW_END=2024-12-31
//	PIPELINE_OUTPUT_PATH=combined_monthly_sp500_2024.csv
//	PROVIDER_RATE_LIMIT=2
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Pipeline PipelineConfig // Acquisition-and-reduction pipeline settings
	Symbols  SymbolsConfig  // Ticker universe sources
	Provider ProviderConfig // Market-data provider client
	Metrics  MetricsConfig  // Telemetry export
}

// ServerConfig holds HTTP server settings such as the port to listen on.
type ServerConfig struct {
	Port               string // The TCP port the HTTP server will listen on (e.g., "8080")
	RateLimitPerMinute int    // Requests allowed per client IP per minute
}

// PipelineConfig defines one pipeline run.
//
// Fields:
//   - MaxTickers: cap on the resolved universe (0 = no cap).
//   - ChunkSize: tickers per batched provider request.
//   - Parallel: chunks fetched concurrently (1 = sequential).
//   - StartDate / EndDate: download range; EndDate is exclusive at the provider.
//   - Interval: bar interval requested from the provider ("1d").
//   - WindowStart / WindowEnd: inclusive analysis window for the monthly statistics.
//   - OutputPath: where the combined CSV is written.
//   - TickersFile: optional local universe; used instead of the remote sources when set.
type PipelineConfig struct {
	MaxTickers  int
	ChunkSize   int
	Parallel    int
	StartDate   time.Time
	EndDate     time.Time
	Interval    string
	WindowStart time.Time
	WindowEnd   time.Time
	OutputPath  string
	TickersFile string
}

// SymbolsConfig lists the remote symbol documents and how to fetch them.
type SymbolsConfig struct {
	URLs      []string
	Timeout   time.Duration
	UserAgent string
}

// ProviderConfig configures the market-data provider client.
type ProviderConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // requests per second
	UserAgent string
}

// MetricsConfig configures the Prometheus textfile export of run telemetry.
type MetricsConfig struct {
	TextfilePath string // "" disables the export
}

// AppConfig is the globally accessible configuration instance.
//
// It is populated once via LoadConfig() and used throughout the application.
// CLI flags in cmd/ may override individual fields after loading.
var AppConfig Config

// LoadConfig initializes the global AppConfig by reading from .env file
// or directly from environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present).
//  3. Environment variables.
//
// Behavior:
//   - Sets defaults for all fields.
//   - Reads environment variables automatically with viper.AutomaticEnv().
//   - Parses dates (YYYY-MM-DD), durations and the comma-separated source list.
//   - Calls validateConfig() to ensure required fields are present and consistent.
//
// Fatal exit:
//   - If required variables are missing or invalid, validateConfig() will terminate the app
//     with a descriptive log message.
func LoadConfig() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_RATE_LIMIT_PER_MINUTE", 60)

	viper.SetDefault("PIPELINE_MAX_TICKERS", 0)
	viper.SetDefault("PIPELINE_CHUNK_SIZE", 100)
	viper.SetDefault("PIPELINE_PARALLEL_CHUNKS", 1)
	viper.SetDefault("PIPELINE_START_DATE", "2020-01-01")
	viper.SetDefault("PIPELINE_END_DATE", "2025-01-01")
	viper.SetDefault("PIPELINE_INTERVAL", "1d")
	viper.SetDefault("PIPELINE_WINDOW_START", "2024-01-01")
	viper.SetDefault("PIPELINE_WINDOW_END", "2024-12-31")
	viper.SetDefault("PIPELINE_OUTPUT_PATH", "combined_monthly_sp500_2024.csv")
	viper.SetDefault("PIPELINE_TICKERS_FILE", "")

	viper.SetDefault("SYMBOL_SOURCE_URLS", strings.Join(DefaultSymbolSources, ","))
	viper.SetDefault("SYMBOL_SOURCE_TIMEOUT", "15s")
	viper.SetDefault("SYMBOL_SOURCE_USER_AGENT", browserUserAgent)

	viper.SetDefault("PROVIDER_BASE_URL", "https://query1.finance.yahoo.com")
	viper.SetDefault("PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("PROVIDER_RATE_LIMIT", 2.0)
	viper.SetDefault("PROVIDER_USER_AGENT", browserUserAgent)

	viper.SetDefault("METRICS_TEXTFILE", "")

	// Optionally read from .env if present (common in local dev)
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig() // ignore error if no .env

	viper.AutomaticEnv()

	AppConfig = Config{
		Server: ServerConfig{
			Port:               viper.GetString("SERVER_PORT"),
			RateLimitPerMinute: viper.GetInt("SERVER_RATE_LIMIT_PER_MINUTE"),
		},
		Pipeline: PipelineConfig{
			MaxTickers:  viper.GetInt("PIPELINE_MAX_TICKERS"),
			ChunkSize:   viper.GetInt("PIPELINE_CHUNK_SIZE"),
			Parallel:    viper.GetInt("PIPELINE_PARALLEL_CHUNKS"),
			StartDate:   parseDate(viper.GetString("PIPELINE_START_DATE")),
			EndDate:     parseDate(viper.GetString("PIPELINE_END_DATE")),
			Interval:    strings.TrimSpace(viper.GetString("PIPELINE_INTERVAL")),
			WindowStart: parseDate(viper.GetString("PIPELINE_WINDOW_START")),
			WindowEnd:   parseDate(viper.GetString("PIPELINE_WINDOW_END")),
			OutputPath:  strings.TrimSpace(viper.GetString("PIPELINE_OUTPUT_PATH")),
			TickersFile: strings.TrimSpace(viper.GetString("PIPELINE_TICKERS_FILE")),
		},
		Symbols: SymbolsConfig{
			URLs:      splitList(viper.GetString("SYMBOL_SOURCE_URLS")),
			Timeout:   viper.GetDuration("SYMBOL_SOURCE_TIMEOUT"),
			UserAgent: viper.GetString("SYMBOL_SOURCE_USER_AGENT"),
		},
		Provider: ProviderConfig{
			BaseURL:   strings.TrimRight(viper.GetString("PROVIDER_BASE_URL"), "/"),
			Timeout:   viper.GetDuration("PROVIDER_TIMEOUT"),
			RateLimit: viper.GetFloat64("PROVIDER_RATE_LIMIT"),
			UserAgent: viper.GetString("PROVIDER_USER_AGENT"),
		},
		Metrics: MetricsConfig{
			TextfilePath: strings.TrimSpace(viper.GetString("METRICS_TEXTFILE")),
		},
	}

	validateConfig()
}

// parseDate returns the zero time for unparsable input; validateConfig reports it.
func parseDate(s string) time.Time {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// problems lists every missing or inconsistent setting of cfg by env var name.
func problems(cfg Config) []string {
	var bad []string

	if cfg.Server.Port == "" {
		bad = append(bad, "SERVER_PORT")
	}
	if cfg.Pipeline.ChunkSize < 1 {
		bad = append(bad, "PIPELINE_CHUNK_SIZE")
	}
	if cfg.Pipeline.MaxTickers < 0 {
		bad = append(bad, "PIPELINE_MAX_TICKERS")
	}
	if cfg.Pipeline.StartDate.IsZero() {
		bad = append(bad, "PIPELINE_START_DATE")
	}
	if cfg.Pipeline.EndDate.IsZero() || !cfg.Pipeline.EndDate.After(cfg.Pipeline.StartDate) {
		bad = append(bad, "PIPELINE_END_DATE")
	}
	if cfg.Pipeline.Interval == "" {
		bad = append(bad, "PIPELINE_INTERVAL")
	}
	if cfg.Pipeline.WindowStart.IsZero() {
		bad = append(bad, "PIPELINE_WINDOW_START")
	}
	if cfg.Pipeline.WindowEnd.IsZero() || cfg.Pipeline.WindowEnd.Before(cfg.Pipeline.WindowStart) {
		bad = append(bad, "PIPELINE_WINDOW_END")
	}
	if cfg.Pipeline.OutputPath == "" {
		bad = append(bad, "PIPELINE_OUTPUT_PATH")
	}
	if len(cfg.Symbols.URLs) == 0 && cfg.Pipeline.TickersFile == "" {
		bad = append(bad, "SYMBOL_SOURCE_URLS")
	}
	if cfg.Provider.BaseURL == "" {
		bad = append(bad, "PROVIDER_BASE_URL")
	}
	if cfg.Provider.RateLimit <= 0 {
		bad = append(bad, "PROVIDER_RATE_LIMIT")
	}

	return bad
}

// validateConfig ensures required variables are present and terminates
// the application if they are missing or invalid.
//
// This avoids unexpected runtime failures (e.g., a window that ends before it starts)
// deep inside a long download.
func validateConfig() {
	if bad := problems(AppConfig); len(bad) > 0 {
		log.Fatalf("❌ Missing or invalid configuration: %v\n", bad)
	}
}

// Validate reports the same problems as LoadConfig without exiting.
// cmd/ calls it after applying CLI overrides.
func Validate(cfg Config) error {
	if bad := problems(cfg); len(bad) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(bad, ", "))
	}
	return nil
}

package config

import (
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"SERVER_PORT",
	"PIPELINE_MAX_TICKERS",
	"PIPELINE_CHUNK_SIZE",
	"PIPELINE_PARALLEL_CHUNKS",
	"PIPELINE_START_DATE",
	"PIPELINE_END_DATE",
	"PIPELINE_INTERVAL",
	"PIPELINE_WINDOW_START",
	"PIPELINE_WINDOW_END",
	"PIPELINE_OUTPUT_PATH",
	"PIPELINE_TICKERS_FILE",
	"SYMBOL_SOURCE_URLS",
	"PROVIDER_BASE_URL",
	"PROVIDER_RATE_LIMIT",
	"METRICS_TEXTFILE",
}

// TestLoadConfig_Defaults verifies that defaults are loaded and parsed.
func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range envKeys {
		_ = os.Unsetenv(k)
	}

	LoadConfig()

	if AppConfig.Server.Port != "8080" {
		t.Fatalf("expected default SERVER_PORT=8080, got %q", AppConfig.Server.Port)
	}
	p := AppConfig.Pipeline
	if p.ChunkSize != 100 || p.Parallel != 1 || p.MaxTickers != 0 || p.Interval != "1d" {
		t.Fatalf("unexpected pipeline defaults: %+v", p)
	}
	if !p.WindowStart.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) || !p.WindowEnd.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected window: %v..%v", p.WindowStart, p.WindowEnd)
	}
	if p.OutputPath != "combined_monthly_sp500_2024.csv" {
		t.Fatalf("unexpected output path %q", p.OutputPath)
	}
	if len(AppConfig.Symbols.URLs) != 2 || !strings.Contains(AppConfig.Symbols.URLs[0], "s-and-p-500-companies") {
		t.Fatalf("unexpected symbol sources: %v", AppConfig.Symbols.URLs)
	}
	if AppConfig.Symbols.Timeout != 15*time.Second || AppConfig.Provider.Timeout != 30*time.Second {
		t.Fatalf("unexpected timeouts: %v %v", AppConfig.Symbols.Timeout, AppConfig.Provider.Timeout)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PIPELINE_CHUNK_SIZE", "25")
	t.Setenv("PIPELINE_WINDOW_START", "2023-01-01")
	t.Setenv("SYMBOL_SOURCE_URLS", " http://a/x.csv , ,http://b/y.csv")
	t.Setenv("PROVIDER_BASE_URL", "http://localhost:9999/")

	LoadConfig()

	if AppConfig.Pipeline.ChunkSize != 25 {
		t.Fatalf("chunk size = %d, want 25", AppConfig.Pipeline.ChunkSize)
	}
	if AppConfig.Pipeline.WindowStart.Year() != 2023 {
		t.Fatalf("window start = %v", AppConfig.Pipeline.WindowStart)
	}
	if got := AppConfig.Symbols.URLs; len(got) != 2 || got[0] != "http://a/x.csv" || got[1] != "http://b/y.csv" {
		t.Fatalf("urls = %v", got)
	}
	if AppConfig.Provider.BaseURL != "http://localhost:9999" {
		t.Fatalf("base url = %q", AppConfig.Provider.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	good := Config{
		Server: ServerConfig{Port: "8080"},
		Pipeline: PipelineConfig{
			ChunkSize:   10,
			StartDate:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			Interval:    "1d",
			WindowStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			WindowEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			OutputPath:  "out.csv",
		},
		Symbols:  SymbolsConfig{URLs: []string{"http://x"}},
		Provider: ProviderConfig{BaseURL: "http://p", RateLimit: 1},
	}
	if err := Validate(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "chunk size", mutate: func(c *Config) { c.Pipeline.ChunkSize = 0 }, want: "PIPELINE_CHUNK_SIZE"},
		{name: "window inverted", mutate: func(c *Config) { c.Pipeline.WindowEnd = c.Pipeline.WindowStart.AddDate(0, 0, -1) }, want: "PIPELINE_WINDOW_END"},
		{name: "range inverted", mutate: func(c *Config) { c.Pipeline.EndDate = c.Pipeline.StartDate }, want: "PIPELINE_END_DATE"},
		{name: "no universe", mutate: func(c *Config) { c.Symbols.URLs = nil }, want: "SYMBOL_SOURCE_URLS"},
		{name: "rate limit", mutate: func(c *Config) { c.Provider.RateLimit = 0 }, want: "PROVIDER_RATE_LIMIT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := good
			tc.mutate(&c)
			err := Validate(c)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}

	// A local file universe makes the remote sources optional.
	c := good
	c.Symbols.URLs = nil
	c.Pipeline.TickersFile = "tickers.txt"
	if err := Validate(c); err != nil {
		t.Fatalf("file universe should be valid: %v", err)
	}
}

// TestValidateConfig_Fatal uses a subprocess to assert that validateConfig triggers a fatal exit
// when required fields are missing.
func TestValidateConfig_Fatal(t *testing.T) {
	if os.Getenv("RUN_VALIDATE_FATAL") == "1" {
		AppConfig = Config{}
		validateConfig()
		t.Fatalf("validateConfig should have exited the process")
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run", "TestValidateConfig_Fatal")
	cmd.Env = append(os.Environ(), "RUN_VALIDATE_FATAL=1")
	err := cmd.Run()
	if err == nil {
		t.Fatalf("expected process to exit with error, got nil")
	}
}

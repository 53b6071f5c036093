package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// isolate runs the test from an empty directory with no ShelfLens variables set
func isolate(t *testing.T) {
	t.Helper()
	testChdir(t, t.TempDir())
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "SHELFLENS_") || name == "SEARCHAPI_API_KEY" {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "test-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.SearchAPI.BaseURL != "https://www.searchapi.io/api/v1/search" {
			t.Errorf("SearchAPI.BaseURL = %s", cfg.SearchAPI.BaseURL)
		}
		if cfg.SearchAPI.AmazonDomain != "amazon.com.br" || cfg.SearchAPI.Language != "pt_BR" {
			t.Errorf("SearchAPI domain/language = %s/%s, want amazon.com.br/pt_BR", cfg.SearchAPI.AmazonDomain, cfg.SearchAPI.Language)
		}
		if cfg.SearchAPI.Pages != 3 {
			t.Errorf("SearchAPI.Pages = %d, want 3", cfg.SearchAPI.Pages)
		}
		if cfg.SearchAPI.Timeout != 30*time.Second {
			t.Errorf("SearchAPI.Timeout = %v, want 30s", cfg.SearchAPI.Timeout)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 6*time.Hour {
			t.Errorf("Cache.TTL = %v, want 6h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 60 || cfg.RateLimit.SearchAPI != 120 {
			t.Errorf("RateLimit = %+v, want 60/120", cfg.RateLimit)
		}
		if cfg.Matching.FuzzyThreshold != 88.0 || !cfg.Matching.EnableFuzzy {
			t.Errorf("Matching = %+v, want threshold 88 with fuzzy on", cfg.Matching)
		}
		if cfg.Audit.Type != "file" {
			t.Errorf("Audit.Type = %s, want file", cfg.Audit.Type)
		}
		if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
			t.Errorf("Log = %+v, want info/text", cfg.Log)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SERVER_PORT", "9090")
		t.Setenv("SHELFLENS_SERVER_ENVIRONMENT", "production")
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "custom-api-key")
		t.Setenv("SHELFLENS_SEARCHAPI_AMAZON_DOMAIN", "amazon.com")
		t.Setenv("SHELFLENS_SEARCHAPI_PAGES", "5")
		t.Setenv("SHELFLENS_CACHE_TYPE", "redis")
		t.Setenv("SHELFLENS_CACHE_REDIS_URL", "redis://localhost:6379")
		t.Setenv("SHELFLENS_CACHE_TTL", "24h")
		t.Setenv("SHELFLENS_RATELIMIT_PER_IP", "200")
		t.Setenv("SHELFLENS_MATCHING_FUZZY_THRESHOLD", "90")
		t.Setenv("SHELFLENS_AUDIT_TYPE", "sqlite")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.SearchAPI.APIKey != "custom-api-key" {
			t.Errorf("SearchAPI.APIKey = %s, want custom-api-key", cfg.SearchAPI.APIKey)
		}
		if cfg.SearchAPI.AmazonDomain != "amazon.com" {
			t.Errorf("SearchAPI.AmazonDomain = %s, want amazon.com", cfg.SearchAPI.AmazonDomain)
		}
		if cfg.SearchAPI.Pages != 5 {
			t.Errorf("SearchAPI.Pages = %d, want 5", cfg.SearchAPI.Pages)
		}
		if cfg.Cache.Type != "redis" || cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache = %+v", cfg.Cache)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Matching.FuzzyThreshold != 90 {
			t.Errorf("Matching.FuzzyThreshold = %v, want 90", cfg.Matching.FuzzyThreshold)
		}
		if cfg.Audit.Type != "sqlite" {
			t.Errorf("Audit.Type = %s, want sqlite", cfg.Audit.Type)
		}
	})

	t.Run("accepts the plain SearchAPI key variable", func(t *testing.T) {
		isolate(t)
		t.Setenv("SEARCHAPI_API_KEY", "plain-key")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.SearchAPI.APIKey != "plain-key" {
			t.Errorf("SearchAPI.APIKey = %s, want plain-key", cfg.SearchAPI.APIKey)
		}
	})

	t.Run("reads the key from .env", func(t *testing.T) {
		isolate(t)
		if err := os.WriteFile(".env", []byte("SEARCHAPI_API_KEY=from-dotenv\n"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		t.Cleanup(func() { os.Unsetenv("SEARCHAPI_API_KEY") })

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.SearchAPI.APIKey != "from-dotenv" {
			t.Errorf("SearchAPI.APIKey = %s, want from-dotenv", cfg.SearchAPI.APIKey)
		}
	})

	t.Run("reads config.yaml", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "test-key")
		yaml := "searchapi:\n  pages: 7\nmatching:\n  brands_file: ./marcas.yaml\n"
		if err := os.WriteFile("config.yaml", []byte(yaml), 0644); err != nil {
			t.Fatalf("Failed to write config.yaml: %v", err)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}
		if cfg.SearchAPI.Pages != 7 || cfg.Matching.BrandsFile != "./marcas.yaml" {
			t.Errorf("config file values not applied: %+v %+v", cfg.SearchAPI, cfg.Matching)
		}
	})

	t.Run("fails validation when API key is missing", func(t *testing.T) {
		isolate(t)

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing API key")
		}
		if !strings.Contains(err.Error(), "SearchAPI key is required") {
			t.Errorf("Load() error = %v, want 'SearchAPI key is required'", err)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "test-key")
		t.Setenv("SHELFLENS_CACHE_TYPE", "invalid")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "test-key")
		t.Setenv("SHELFLENS_CACHE_TYPE", "redis")

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestLoadWithFlags(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("shelflens", pflag.ContinueOnError)
		fs.Int("pages", 3, "")
		fs.String("domain", "", "")
		fs.String("out", "", "")
		fs.Bool("no-fuzzy", false, "")
		return fs
	}

	t.Run("set flags override environment", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "test-key")
		t.Setenv("SHELFLENS_SEARCHAPI_PAGES", "4")

		fs := newFlags()
		if err := fs.Parse([]string{"--pages", "2", "--out", "/tmp/relatorios", "--no-fuzzy"}); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		cfg, err := LoadWithFlags(fs)
		if err != nil {
			t.Fatalf("LoadWithFlags() error = %v, want nil", err)
		}
		if cfg.SearchAPI.Pages != 2 {
			t.Errorf("SearchAPI.Pages = %d, want 2", cfg.SearchAPI.Pages)
		}
		if cfg.Output.Dir != "/tmp/relatorios" {
			t.Errorf("Output.Dir = %s, want /tmp/relatorios", cfg.Output.Dir)
		}
		if cfg.Matching.EnableFuzzy {
			t.Error("Matching.EnableFuzzy = true, want false with --no-fuzzy")
		}
	})

	t.Run("unset flags keep other sources", func(t *testing.T) {
		isolate(t)
		t.Setenv("SHELFLENS_SEARCHAPI_API_KEY", "test-key")
		t.Setenv("SHELFLENS_SEARCHAPI_PAGES", "4")

		fs := newFlags()
		if err := fs.Parse(nil); err != nil {
			t.Fatalf("Parse() error = %v", err)
		}

		cfg, err := LoadWithFlags(fs)
		if err != nil {
			t.Fatalf("LoadWithFlags() error = %v, want nil", err)
		}
		if cfg.SearchAPI.Pages != 4 {
			t.Errorf("SearchAPI.Pages = %d, want 4", cfg.SearchAPI.Pages)
		}
		if cfg.SearchAPI.AmazonDomain != "amazon.com.br" {
			t.Errorf("SearchAPI.AmazonDomain = %s, want default", cfg.SearchAPI.AmazonDomain)
		}
		if !cfg.Matching.EnableFuzzy {
			t.Error("Matching.EnableFuzzy = false, want default true")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		testChdir(t, t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("skips comments and keeps existing variables", func(t *testing.T) {
		testChdir(t, t.TempDir())

		envContent := `
# This is a comment
TEST_SKIP_1=value1

TEST_OVERRIDE=new-value
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_SKIP_1")
		os.Unsetenv("TEST_COMMENTED")
		t.Setenv("TEST_OVERRIDE", "existing-value")
		t.Cleanup(func() { os.Unsetenv("TEST_SKIP_1") })

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_SKIP_1") != "value1" {
			t.Errorf("TEST_SKIP_1 not loaded correctly")
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			SearchAPI: SearchAPIConfig{APIKey: "test-key", Pages: 3},
			Cache:     CacheConfig{Type: "memory"},
			Audit:     AuditConfig{Type: "file"},
			Matching:  MatchingConfig{FuzzyThreshold: 88},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"all required fields", func(*Config) {}, false},
		{"empty API key", func(c *Config) { c.SearchAPI.APIKey = "" }, true},
		{"zero pages", func(c *Config) { c.SearchAPI.Pages = 0 }, true},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "invalid-type" }, true},
		{"redis with URL", func(c *Config) { c.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"} }, false},
		{"redis without URL", func(c *Config) { c.Cache.Type = "redis" }, true},
		{"sqlite audit", func(c *Config) { c.Audit.Type = "sqlite" }, false},
		{"unknown audit", func(c *Config) { c.Audit.Type = "s3" }, true},
		{"threshold at 100", func(c *Config) { c.Matching.FuzzyThreshold = 100 }, false},
		{"threshold above 100", func(c *Config) { c.Matching.FuzzyThreshold = 100.5 }, true},
		{"zero threshold", func(c *Config) { c.Matching.FuzzyThreshold = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

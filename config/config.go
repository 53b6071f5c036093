package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	SearchAPI SearchAPIConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Matching  MatchingConfig
	Audit     AuditConfig
	Output    OutputConfig
	Log       LogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SearchAPIConfig holds SearchAPI configuration
type SearchAPIConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Engine       string        `mapstructure:"engine"`
	AmazonDomain string        `mapstructure:"amazon_domain"`
	Language     string        `mapstructure:"language"`
	Pages        int           `mapstructure:"pages"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP     int `mapstructure:"per_ip"`    // HTTP requests per minute per client IP
	SearchAPI int `mapstructure:"searchapi"` // outbound requests per hour
}

// MatchingConfig holds brand matching configuration
type MatchingConfig struct {
	BrandsFile     string  `mapstructure:"brands_file"`
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`
	EnableFuzzy    bool    `mapstructure:"enable_fuzzy"`
	Debug          bool    `mapstructure:"debug"`
}

// AuditConfig selects where unmatched titles are kept
type AuditConfig struct {
	Type string `mapstructure:"type"` // "file" or "sqlite"
	Path string `mapstructure:"path"`
}

// OutputConfig holds report export configuration
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

// flagKeys maps command line flag names onto config keys
var flagKeys = map[string]string{
	"pages":     "searchapi.pages",
	"domain":    "searchapi.amazon_domain",
	"language":  "searchapi.language",
	"out":       "output.dir",
	"brands":    "matching.brands_file",
	"threshold": "matching.fuzzy_threshold",
	"cache":     "cache.type",
	"audit":     "audit.type",
	"log-level": "log.level",
	"debug":     "matching.debug",
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	return LoadWithFlags(nil)
}

// LoadWithFlags is Load with command line flags layered on top. Only flags the user
// actually set override other sources.
func LoadWithFlags(flags *pflag.FlagSet) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shelflens/")

	// Environment variable settings
	v.SetEnvPrefix("SHELFLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("searchapi.api_key", "SHELFLENS_SEARCHAPI_API_KEY", "SEARCHAPI_API_KEY"); err != nil {
		return nil, fmt.Errorf("unable to bind api key env: %w", err)
	}

	// Set default values
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if flags != nil {
		if f := flags.Lookup("no-fuzzy"); f != nil && f.Changed {
			noFuzzy, _ := flags.GetBool("no-fuzzy")
			config.Matching.EnableFuzzy = !noFuzzy
		}
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment. Variables already set win,
// and a missing file is not an error.
func loadEnvFile() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WithField("component", "config").Debug(".env not found, using process environment")
			return nil
		}
		return err
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("unable to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// SearchAPI defaults
	v.SetDefault("searchapi.api_key", "")
	v.SetDefault("searchapi.base_url", "https://www.searchapi.io/api/v1/search")
	v.SetDefault("searchapi.engine", "amazon_search")
	v.SetDefault("searchapi.amazon_domain", "amazon.com.br")
	v.SetDefault("searchapi.language", "pt_BR")
	v.SetDefault("searchapi.pages", 3)
	v.SetDefault("searchapi.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "6h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.searchapi", 120)

	// Matching defaults
	v.SetDefault("matching.brands_file", "./referenciais/marcas_conhecidas.py")
	v.SetDefault("matching.fuzzy_threshold", 88.0)
	v.SetDefault("matching.enable_fuzzy", true)
	v.SetDefault("matching.debug", false)

	// Audit and output defaults
	v.SetDefault("audit.type", "file")
	v.SetDefault("audit.path", "./outputs/marcas_nao_encontradas.csv")
	v.SetDefault("output.dir", "./outputs")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.SearchAPI.APIKey == "" {
		return fmt.Errorf("SearchAPI key is required (set SHELFLENS_SEARCHAPI_API_KEY or SEARCHAPI_API_KEY)")
	}

	if config.SearchAPI.Pages < 1 {
		return fmt.Errorf("searchapi pages must be at least 1, got: %d", config.SearchAPI.Pages)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Audit.Type != "file" && config.Audit.Type != "sqlite" {
		return fmt.Errorf("audit type must be 'file' or 'sqlite', got: %s", config.Audit.Type)
	}

	if config.Matching.FuzzyThreshold <= 0 || config.Matching.FuzzyThreshold > 100 {
		return fmt.Errorf("fuzzy threshold must be in (0, 100], got: %v", config.Matching.FuzzyThreshold)
	}

	return nil
}

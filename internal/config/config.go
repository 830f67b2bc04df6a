package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/cardex/internal/domain"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds the cardex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	Search    SearchConfig    `yaml:"search"`
	Chat      ChatConfig      `yaml:"chat"`
	Reindex   ReindexConfig   `yaml:"reindex"`
	Auth      AuthConfig      `yaml:"auth"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	// File enables a rotated log file next to stderr output.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds API authentication settings. Empty keys disable auth.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// CORSConfig holds browser access settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds record store settings.
type DatabaseConfig struct {
	Driver             string `yaml:"driver"` // postgres, memory (default: postgres)
	DSN                string `yaml:"dsn"`
	MaxConns           int32  `yaml:"max_conns"`
	MinConns           int32  `yaml:"min_conns"`
	MaxConnLifetimeMin int    `yaml:"max_conn_lifetime_min"`
	ReadinessTimeout   int    `yaml:"readiness_timeout_sec"`
	// SeedFile is loaded into the memory driver at startup.
	SeedFile string `yaml:"seed_file"`
}

// CacheConfig holds the query embedding cache settings. No addrs disables the cache.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// DailyTokenBudget caps provider tokens per UTC day; 0 = unlimited.
	DailyTokenBudget int64 `yaml:"daily_token_budget"`
}

// LLMConfig holds chat completion settings.
type LLMConfig struct {
	Provider       string  `yaml:"provider"`
	APIKey         string  `yaml:"api_key"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	MaxAttempts    int     `yaml:"max_attempts"`
	BackoffMS      int     `yaml:"backoff_ms"`
	RequestsPerSec float64 `yaml:"requests_per_sec"` // 0 = unlimited
	Burst          int     `yaml:"burst"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSec     int     `yaml:"timeout_sec"` // per attempt
	// TotalTimeoutSec bounds one completion across all attempts and backoff.
	TotalTimeoutSec int `yaml:"total_timeout_sec"`
}

// CallBudget returns the longest one completion can take: every attempt
// timing out plus the exponential backoff between them, capped by TotalTimeoutSec.
func (c LLMConfig) CallBudget() time.Duration {
	attempt := time.Duration(c.TimeoutSec) * time.Second
	backoff := time.Duration(c.BackoffMS) * time.Millisecond
	var budget time.Duration
	for i := 0; i < c.MaxAttempts; i++ {
		budget += attempt
		if i < c.MaxAttempts-1 {
			budget += backoff << i
		}
	}
	if total := time.Duration(c.TotalTimeoutSec) * time.Second; total > 0 && total < budget {
		return total
	}
	return budget
}

// SearchConfig holds hybrid search settings.
type SearchConfig struct {
	EmbedTimeoutMS   int     `yaml:"embed_timeout_ms"`
	DefaultLimit     int     `yaml:"default_limit"`
	DefaultThreshold float64 `yaml:"default_threshold"`
	BrowseLimit      int     `yaml:"browse_limit"`
	BrowseThreshold  float64 `yaml:"browse_threshold"`
}

// ChatConfig holds chat settings.
type ChatConfig struct {
	ContextCards int `yaml:"context_cards"`
	PromptCards  int `yaml:"prompt_cards"`
}

// ReindexConfig holds offline embedding settings.
type ReindexConfig struct {
	Workers   int `yaml:"workers"`
	BatchSize int `yaml:"batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML with ${VAR} substitution, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// loadDotEnv sets variables from path without overriding the real environment.
func loadDotEnv(path string) error {
	if !fileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.MaxConnLifetimeMin <= 0 {
		c.Database.MaxConnLifetimeMin = 30
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 7
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 5
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "gemini"
	}
	if c.Embedding.Model == "" {
		def := domain.DefaultVectorConfig()
		c.Embedding.Model = def.Model
		if c.Embedding.Dimensions == 0 {
			c.Embedding.Dimensions = def.Dimensions
		}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = c.Embedding.Provider
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.Embedding.APIKey
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = c.Embedding.BaseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.0-flash-lite"
	}
	if c.LLM.MaxAttempts <= 0 {
		c.LLM.MaxAttempts = 3
	}
	if c.LLM.BackoffMS <= 0 {
		c.LLM.BackoffMS = 1000
	}
	if c.LLM.TimeoutSec <= 0 {
		c.LLM.TimeoutSec = 15
	}
	if c.LLM.TotalTimeoutSec <= 0 {
		// Leave room to write the fallback answer before the server drops the connection.
		c.LLM.TotalTimeoutSec = c.HTTP.WriteTimeoutSec * 3 / 4
	}
	if c.Search.EmbedTimeoutMS <= 0 {
		c.Search.EmbedTimeoutMS = 3000
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.DefaultThreshold == 0 {
		c.Search.DefaultThreshold = 0.7
	}
	if c.Search.BrowseLimit <= 0 {
		c.Search.BrowseLimit = 20
	}
	if c.Search.BrowseThreshold == 0 {
		c.Search.BrowseThreshold = 0.6
	}
	if c.Chat.ContextCards <= 0 {
		c.Chat.ContextCards = 50
	}
	if c.Chat.PromptCards <= 0 {
		c.Chat.PromptCards = 20
	}
	if c.Reindex.Workers <= 0 {
		c.Reindex.Workers = 4
	}
	if c.Reindex.BatchSize <= 0 {
		c.Reindex.BatchSize = 16
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 28
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the %s driver", DriverPostgres)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds max_conns (%d)", c.Database.MinConns, c.Database.MaxConns)
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}
	if c.Embedding.DailyTokenBudget < 0 {
		return fmt.Errorf("embedding.daily_token_budget must not be negative, got %d", c.Embedding.DailyTokenBudget)
	}
	if err := checkThreshold("search.default_threshold", c.Search.DefaultThreshold); err != nil {
		return err
	}
	if err := checkThreshold("search.browse_threshold", c.Search.BrowseThreshold); err != nil {
		return err
	}
	if c.LLM.RequestsPerSec < 0 {
		return fmt.Errorf("llm.requests_per_sec must not be negative, got %v", c.LLM.RequestsPerSec)
	}
	if budget, write := c.LLM.CallBudget(), time.Duration(c.HTTP.WriteTimeoutSec)*time.Second; budget >= write {
		return fmt.Errorf("llm call budget %s (attempts, timeouts, backoff and total_timeout_sec) must be below http.write_timeout_sec %s",
			budget, write)
	}
	return nil
}

func checkThreshold(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", name, v)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

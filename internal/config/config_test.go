package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{DSN: "postgres://localhost/cardex"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing postgres dsn")
	}
	expected := "database.dsn is required for the postgres driver"
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_MemoryDriverNeedsNoDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = DriverMemory
	cfg.Database.DSN = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Driver = "mysql"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestValidate_Thresholds(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*Config)
	}{
		{"default above 1", func(c *Config) { c.Search.DefaultThreshold = 1.5 }},
		{"browse negative", func(c *Config) { c.Search.BrowseThreshold = -0.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.apply(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected threshold error")
			}
		})
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := validConfig()
	cfg.Database.MinConns = 20

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when min_conns exceeds max_conns")
	}
}

func TestLLMConfig_CallBudget(t *testing.T) {
	tests := []struct {
		name string
		cfg  LLMConfig
		want time.Duration
	}{
		{"retries uncapped", LLMConfig{MaxAttempts: 3, TimeoutSec: 30, BackoffMS: 2000}, 96 * time.Second},
		{"capped by total", LLMConfig{MaxAttempts: 3, TimeoutSec: 30, BackoffMS: 2000, TotalTimeoutSec: 40}, 40 * time.Second},
		{"single attempt under total", LLMConfig{MaxAttempts: 1, TimeoutSec: 10, BackoffMS: 2000, TotalTimeoutSec: 40}, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.CallBudget(); got != tt.want {
				t.Errorf("CallBudget() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidate_LLMBudgetBelowWriteTimeout(t *testing.T) {
	cfg := validConfig()
	if got, write := cfg.LLM.CallBudget(), time.Duration(cfg.HTTP.WriteTimeoutSec)*time.Second; got >= write {
		t.Fatalf("default budget %s not below write timeout %s", got, write)
	}

	// Three 30s attempts with 2s/4s backoff and no overall cap outlive a 60s write timeout.
	cfg.LLM.TimeoutSec = 30
	cfg.LLM.BackoffMS = 2000
	cfg.LLM.TotalTimeoutSec = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "write_timeout_sec") {
		t.Fatalf("expected write timeout error, got %v", err)
	}

	cfg.LLM.TotalTimeoutSec = cfg.HTTP.WriteTimeoutSec
	if err := cfg.Validate(); err == nil {
		t.Fatal("total timeout equal to the write timeout must be rejected")
	}

	cfg.LLM.TotalTimeoutSec = 40
	if err := cfg.Validate(); err != nil {
		t.Fatalf("capped budget: %v", err)
	}
}

func TestValidate_NegativeTokenBudget(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.DailyTokenBudget = -1

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "daily_token_budget") {
		t.Fatalf("expected daily_token_budget error, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.Driver != DriverPostgres {
		t.Errorf("expected driver %q, got %q", DriverPostgres, cfg.Database.Driver)
	}
	if cfg.Search.DefaultLimit != 10 || cfg.Search.DefaultThreshold != 0.7 {
		t.Errorf("expected search defaults 10/0.7, got %d/%v", cfg.Search.DefaultLimit, cfg.Search.DefaultThreshold)
	}
	if cfg.Search.BrowseLimit != 20 || cfg.Search.BrowseThreshold != 0.6 {
		t.Errorf("expected browse defaults 20/0.6, got %d/%v", cfg.Search.BrowseLimit, cfg.Search.BrowseThreshold)
	}
	if cfg.Search.EmbedTimeoutMS != 3000 {
		t.Errorf("expected EmbedTimeoutMS=3000, got %d", cfg.Search.EmbedTimeoutMS)
	}
	if cfg.LLM.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts=3, got %d", cfg.LLM.MaxAttempts)
	}
	if cfg.LLM.TimeoutSec != 15 || cfg.LLM.TotalTimeoutSec != 45 {
		t.Errorf("expected llm timeouts 15/45, got %d/%d", cfg.LLM.TimeoutSec, cfg.LLM.TotalTimeoutSec)
	}
	if cfg.Chat.ContextCards != 50 || cfg.Chat.PromptCards != 20 {
		t.Errorf("expected chat cards 50/20, got %d/%d", cfg.Chat.ContextCards, cfg.Chat.PromptCards)
	}
	if cfg.Cache.Enabled() {
		t.Error("cache must be disabled without addrs")
	}
}

func TestApplyDefaults_EmbeddingModel(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Embedding.Model != "text-embedding-004" || cfg.Embedding.Dimensions != 768 {
		t.Errorf("default embedding = %s/%d", cfg.Embedding.Model, cfg.Embedding.Dimensions)
	}

	// A custom model keeps its unset dimensions: nothing is enforced.
	cfg = Config{Embedding: EmbeddingConfig{Model: "text-embedding-3-small"}}
	cfg.ApplyDefaults()
	if cfg.Embedding.Dimensions != 0 {
		t.Errorf("dimensions = %d, want 0 for a custom model", cfg.Embedding.Dimensions)
	}
}

func TestShippedConfigsParse(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/cards")
	for _, env := range []string{"local", "prod"} {
		t.Run(env, func(t *testing.T) {
			data, err := os.ReadFile(findConfigPath(env))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if _, err := Parse(data); err != nil {
				t.Errorf("Parse: %v", err)
			}
		})
	}
}

func TestApplyDefaults_LLMInheritsEmbeddingProvider(t *testing.T) {
	cfg := Config{Embedding: EmbeddingConfig{Provider: "openai", APIKey: "k", BaseURL: "https://x/v1"}}
	cfg.ApplyDefaults()

	if cfg.LLM.Provider != "openai" || cfg.LLM.APIKey != "k" || cfg.LLM.BaseURL != "https://x/v1" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 90, ShutdownSec: 5},
		Search: SearchConfig{DefaultLimit: 5, DefaultThreshold: 0.8},
		LLM:    LLMConfig{Model: "gpt-4o-mini"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 90 {
		t.Errorf("expected WriteTimeoutSec=90, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Search.DefaultLimit != 5 || cfg.Search.DefaultThreshold != 0.8 {
		t.Errorf("search overridden: %+v", cfg.Search)
	}
	if cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("expected model to stay, got %q", cfg.LLM.Model)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("CARDEX_TEST_DSN", "postgres://db/cards")

	cfg, err := Parse([]byte(`
http:
  port: ${CARDEX_TEST_PORT:-9090}
database:
  dsn: ${CARDEX_TEST_DSN}
cache:
  addrs: ["localhost:6379"]
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port from default, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.DSN != "postgres://db/cards" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if !cfg.Cache.Enabled() {
		t.Error("expected cache enabled")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil || !strings.Contains(err.Error(), "parse") {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := Parse([]byte("http:\n  port: 80\n")); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CARDEX_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CARDEX_DOTENV_TEST", "")
	os.Unsetenv("CARDEX_DOTENV_TEST")

	if err := loadDotEnv(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("CARDEX_DOTENV_TEST"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if err := loadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file must be ignored: %v", err)
	}
}

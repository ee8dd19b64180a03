package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var envKeys = []string{
	"CONFIG_FILE", "LLM_PROVIDER", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY", "LLM_BASE_URL", "LLM_MODEL",
	"LLM_MAX_TOKENS", "LLM_TIMEOUT_SECONDS", "LLM_PROGRESS_INTERVAL_MS", "PORTFOLIO_OUTPUT_DIR",
	"PORTFOLIO_TEMP_DIR", "PORTFOLIO_LOG_DIR", "DB_URL", "RABBITMQ_URL", "R2_ACCOUNT_ID", "R2_BUCKET",
	"R2_ACCESS_KEY", "R2_SECRET_KEY", "WORKER_COUNT",
}

// isolate runs the test in an empty directory with none of the config variables set.
func isolate(t *testing.T) string {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != ProviderGemini {
		t.Fatalf("provider = %q", cfg.LLM.Provider)
	}
	if cfg.Paths.OutputDir != "./portfolio" || cfg.Paths.TempDir != "./tmp" || cfg.Paths.LogDir != "./logs" {
		t.Fatalf("paths = %+v", cfg.Paths)
	}
	if cfg.Worker.Count != 3 || cfg.LLM.MaxTokens != 8000 {
		t.Fatalf("defaults = %+v", cfg)
	}
	if cfg.ProgressInterval() != 2*time.Second || cfg.Timeout() != 10*time.Minute {
		t.Fatalf("durations = %s %s", cfg.ProgressInterval(), cfg.Timeout())
	}
}

func TestLoadLayering(t *testing.T) {
	dir := isolate(t)
	file := `
[llm]
provider = "DeepSeek"
model = "from-file"
max_tokens = 4000

[paths]
output_dir = "./site"

[worker]
count = 5
`
	if err := os.WriteFile(filepath.Join(dir, "resumefolio.toml"), []byte(file), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("DEEPSEEK_API_KEY=from-dotenv\nLLM_MODEL=dotenv-model\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("LLM_MODEL", "from-env")
	t.Setenv("WORKER_COUNT", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != ProviderDeepSeek {
		t.Fatalf("provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Model != "from-env" {
		t.Fatalf("env did not win over file and .env: %q", cfg.LLM.Model)
	}
	if cfg.LLM.DeepSeekAPIKey != "from-dotenv" {
		t.Fatalf(".env not loaded: %q", cfg.LLM.DeepSeekAPIKey)
	}
	if cfg.LLM.MaxTokens != 4000 || cfg.Paths.OutputDir != "./site" || cfg.Paths.TempDir != "./tmp" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Worker.Count != 5 {
		t.Fatalf("bad int env should keep file value, got %d", cfg.Worker.Count)
	}
	if err := cfg.ValidateLLM(); err != nil {
		t.Fatalf("ValidateLLM: %v", err)
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[r2]\nbucket = \"portfolios\"\n"), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.R2.Bucket != "portfolios" {
		t.Fatalf("bucket = %q", cfg.R2.Bucket)
	}

	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "resumefolio.toml"), []byte("[llm\nprovider="), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "decode config file failed") {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestValidateLLM(t *testing.T) {
	tests := []struct {
		name    string
		llm     LLMConfig
		wantErr string
	}{
		{name: "gemini ok", llm: LLMConfig{Provider: ProviderGemini, GoogleAPIKey: "k"}},
		{name: "gemini missing", llm: LLMConfig{Provider: ProviderGemini}, wantErr: "GOOGLE_API_KEY"},
		{name: "deepseek ok", llm: LLMConfig{Provider: ProviderDeepSeek, DeepSeekAPIKey: "k"}},
		{name: "deepseek missing", llm: LLMConfig{Provider: ProviderDeepSeek, GoogleAPIKey: "k"}, wantErr: "DEEPSEEK_API_KEY"},
		{name: "unknown", llm: LLMConfig{Provider: "claude"}, wantErr: "unknown LLM_PROVIDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Config{LLM: tt.llm}).ValidateLLM()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateWorkerListsMissing(t *testing.T) {
	cfg := defaultConfig()
	cfg.LLM.GoogleAPIKey = "k"
	cfg.Database.URL = "postgres://localhost/db"
	err := cfg.ValidateWorker()
	if err == nil || !strings.Contains(err.Error(), "RABBITMQ_URL") {
		t.Fatalf("expected RABBITMQ_URL error, got %v", err)
	}

	cfg.RabbitMQ.URL = "amqp://localhost"
	err = cfg.ValidateWorker()
	if err == nil || err.Error() != "empty R2_ACCOUNT_ID, R2_BUCKET, R2_ACCESS_KEY, R2_SECRET_KEY in environment" {
		t.Fatalf("unexpected error %v", err)
	}

	cfg.R2 = R2Config{AccountID: "a", Bucket: "b", AccessKey: "c", SecretKey: "d"}
	if err := cfg.ValidateWorker(); err != nil {
		t.Fatalf("ValidateWorker: %v", err)
	}
	cfg.Worker.Count = 0
	if err := cfg.ValidateWorker(); err == nil {
		t.Fatal("expected WORKER_COUNT error")
	}
}

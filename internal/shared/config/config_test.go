package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("RESUME_MAX_WORDS", "")
	t.Setenv("UPCOMING_WINDOW_DAYS", "")
	t.Setenv("DB_AUTO_MIGRATE", "")
	t.Setenv("RA_SQS_VISIBILITY_TIMEOUT_SECONDS", "")
	t.Setenv("RA_SHUTDOWN_TIMEOUT_SECONDS", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.LLMProvider != "openai" || cfg.LLMModel != "gpt-4" {
		t.Fatalf("unexpected llm defaults: %s/%s", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.MaxResumeWords != 1500 {
		t.Fatalf("expected 1500 max words, got %d", cfg.MaxResumeWords)
	}
	if cfg.UpcomingWindowDays != 120 {
		t.Fatalf("expected 120 day window, got %d", cfg.UpcomingWindowDays)
	}
	if !cfg.IsDevLike() {
		t.Fatalf("expected dev config to be dev-like")
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto-migrate outside production")
	}
	if cfg.VisibilitySeconds != 1200 || cfg.ShutdownSeconds != 30 {
		t.Fatalf("unexpected worker defaults: %d/%d", cfg.VisibilitySeconds, cfg.ShutdownSeconds)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("RESUME_MAX_WORDS", "200")
	t.Setenv("RA_WORKER_CONCURRENCY", "not-a-number")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("DB_AUTO_MIGRATE", "")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.IsDevLike() {
		t.Fatalf("production must not be dev-like")
	}
	if cfg.LLMProvider != "gemini" || cfg.LLMModel != "gemini-2.5-flash" {
		t.Fatalf("unexpected llm config: %s/%s", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.MaxResumeWords != 200 {
		t.Fatalf("expected 200 max words, got %d", cfg.MaxResumeWords)
	}
	if cfg.WorkerConcurrency != defaultWorkerConcurrency {
		t.Fatalf("expected fallback concurrency, got %d", cfg.WorkerConcurrency)
	}
	if cfg.AutoMigrate {
		t.Fatalf("production must not auto-migrate by default")
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSAllowOrigin)
	}
}

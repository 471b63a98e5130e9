package config

import (
	"os"
	"testing"
)

func tassert(t *testing.T, cond bool, txt string, args ...interface{}) {
	t.Helper()
	if !cond {
		t.Fatalf(txt, args...)
	}
}

func TestFromEnvDefaults(t *testing.T) {
	os.Unsetenv("DIRTABASE_DEFAULT")
	os.Unsetenv("DIRTABASE_CACHE")
	os.Unsetenv("DIRTABASE_RETRIES")

	cfg := FromEnv()
	tassert(t, cfg.CacheEnabled, "cache must default to enabled")
	tassert(t, cfg.Retries == DefaultRetries, "expected default retries %d, got %d", DefaultRetries, cfg.Retries)
	tassert(t, cfg.DefaultEngineURL != "", "expected a non-empty fallback default engine URL")
}

func TestFromEnvOverrides(t *testing.T) {
	os.Setenv("DIRTABASE_DEFAULT", "memory://")
	os.Setenv("DIRTABASE_CACHE", "false")
	os.Setenv("DIRTABASE_RETRIES", "7")
	defer os.Unsetenv("DIRTABASE_DEFAULT")
	defer os.Unsetenv("DIRTABASE_CACHE")
	defer os.Unsetenv("DIRTABASE_RETRIES")

	cfg := FromEnv()
	tassert(t, cfg.DefaultEngineURL == "memory://", "expected memory://, got %s", cfg.DefaultEngineURL)
	tassert(t, !cfg.CacheEnabled, "expected cache disabled")
	tassert(t, cfg.Retries == 7, "expected retries 7, got %d", cfg.Retries)
}

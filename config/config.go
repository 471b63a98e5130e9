// Package config derives process-wide dirtabase configuration from
// the environment once, at pipeline construction, and threads it
// explicitly rather than keeping mutable globals — spec.md §9's
// "Global default engine" design note.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config is the environment-derived configuration of a dirtabase
// process, per spec.md §6 "Environment variables".
type Config struct {
	// DefaultEngineURL is the canonical URL prefix substituted for the
	// "default:" scheme, from DIRTABASE_DEFAULT.
	DefaultEngineURL string
	// CacheEnabled disables the build cache when false, from
	// DIRTABASE_CACHE.
	CacheEnabled bool
	// Retries is the CAS retry cap before RootContention, from
	// DIRTABASE_RETRIES.
	Retries int
}

// DefaultRetries is the default 32 CAS-loop iterations of spec.md §5.
const DefaultRetries = 32

// FromEnv reads the three environment variables of spec.md §6 into a
// Config, falling back to "${HOME}/.dirtabase_db/" for the default
// engine when DIRTABASE_DEFAULT is unset.
func FromEnv() Config {
	c := Config{
		CacheEnabled: true,
		Retries:      DefaultRetries,
	}

	c.DefaultEngineURL = os.Getenv("DIRTABASE_DEFAULT")
	if c.DefaultEngineURL == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.DefaultEngineURL = "file://" + filepath.Join(home, ".dirtabase_db") + "/"
	}

	if v := os.Getenv("DIRTABASE_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CacheEnabled = b
		}
	}

	if v := os.Getenv("DIRTABASE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retries = n
		}
	}

	return c
}

package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"sync"

	"github.com/spf13/cast"
)

type Config struct {
	Port        int
	DatabaseURL string
	RedisAddr   string
	JWTSecret   string

	// Tunables are merged from the settings table at startup and again
	// whenever the settings API writes new values. Import workers read them
	// mid-batch, so access goes through the lock.
	mu                sync.RWMutex
	tmdbAPIKey        string
	autoMatchMinScore int
	importConcurrency int
	tmdbCacheTTLHours int
}

func Load() *Config {
	return &Config{
		Port:              envInt("PORT", 8080),
		DatabaseURL:       env("DATABASE_URL", "postgres://reelkeep:reelkeep@db:5432/reelkeep?sslmode=disable"),
		RedisAddr:         env("REDIS_ADDR", "redis:6379"),
		JWTSecret:         env("JWT_SECRET", "change-me-in-production"),
		tmdbAPIKey:        env("TMDB_API_KEY", ""),
		autoMatchMinScore: envInt("AUTOMATCH_MIN_SCORE", 70),
		importConcurrency: envInt("IMPORT_CONCURRENCY", 4),
		tmdbCacheTTLHours: envInt("TMDB_CACHE_TTL_HOURS", 24),
	}
}

// MergeFromDB overlays persisted settings onto the env-derived config.
// Missing table or rows are not an error; env defaults stand.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		c.apply(key, value)
	}
}

// apply validates one persisted setting and stores it under the write lock.
// Unknown keys and out-of-range values are ignored.
func (c *Config) apply(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch key {
	case "tmdb_api_key":
		if value != "" {
			c.tmdbAPIKey = value
		}
	case "automatch_min_score":
		if v, err := cast.ToIntE(value); err == nil && v >= 0 && v <= 100 {
			c.autoMatchMinScore = v
		}
	case "import_concurrency":
		if v, err := cast.ToIntE(value); err == nil && v > 0 {
			c.importConcurrency = v
		}
	case "tmdb_cache_ttl_hours":
		if v, err := cast.ToIntE(value); err == nil && v > 0 {
			c.tmdbCacheTTLHours = v
		}
	}
}

func (c *Config) TMDBAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tmdbAPIKey
}

func (c *Config) TMDBEnabled() bool {
	return c.TMDBAPIKey() != ""
}

func (c *Config) AutoMatchMinScore() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.autoMatchMinScore
}

func (c *Config) ImportConcurrency() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.importConcurrency
}

func (c *Config) TMDBCacheTTLHours() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tmdbCacheTTLHours
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

package config

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testConfig() *Config {
	return &Config{autoMatchMinScore: 70, importConcurrency: 4, tmdbCacheTTLHours: 24}
}

func TestApplyUpdatesTunables(t *testing.T) {
	c := testConfig()

	c.apply("automatch_min_score", "85")
	c.apply("import_concurrency", "8")
	c.apply("tmdb_cache_ttl_hours", "48")
	c.apply("tmdb_api_key", "abc123")

	assert.Equal(t, 85, c.AutoMatchMinScore())
	assert.Equal(t, 8, c.ImportConcurrency())
	assert.Equal(t, 48, c.TMDBCacheTTLHours())
	assert.Equal(t, "abc123", c.TMDBAPIKey())
	assert.True(t, c.TMDBEnabled())
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	c := testConfig()
	before := c.AutoMatchMinScore()

	c.apply("automatch_min_score", "101")
	c.apply("automatch_min_score", "-1")
	c.apply("automatch_min_score", "not a number")
	c.apply("import_concurrency", "0")
	c.apply("unknown_key", "7")
	c.apply("tmdb_api_key", "")

	assert.Equal(t, before, c.AutoMatchMinScore())
	assert.Equal(t, 4, c.ImportConcurrency())
	assert.False(t, c.TMDBEnabled())
}

// Settings can be rewritten through the API while import workers are reading
// them. Run writers against readers so the race detector has something to
// catch if the locking ever regresses.
func TestTunablesConcurrentReadWrite(t *testing.T) {
	c := testConfig()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.apply("automatch_min_score", strconv.Itoa(40+(n+j)%60))
				c.apply("import_concurrency", strconv.Itoa(1+(n+j)%8))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				score := c.AutoMatchMinScore()
				assert.GreaterOrEqual(t, score, 0)
				assert.LessOrEqual(t, score, 100)
				assert.Greater(t, c.ImportConcurrency(), 0)
				c.TMDBEnabled()
			}
		}()
	}
	wg.Wait()
}

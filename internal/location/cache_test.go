package location

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.json")
	return LoadCacheFrom(path)
}

func TestCachePutGet(t *testing.T) {
	c := testCache(t)
	loc := ResolvedLocation{
		Name: "Stockholm", Lat: 59.3293, Lon: 18.0686, TZ: "Europe/Stockholm",
		Source: SourceNominatim, DisplayName: "Stockholm, Sweden",
		CountryCode: "SE", ResolverConfidence: 0.92,
	}
	c.Put(loc)

	result, ok := c.Get("stockholm")
	assert.True(t, ok)
	assert.Equal(t, "Stockholm", result.Name)
	assert.Equal(t, SourceCache, result.Source)
	assert.InDelta(t, 59.3293, result.Lat, 0.001)
	assert.Equal(t, "SE", result.CountryCode)
	assert.InDelta(t, 0.92, result.ResolverConfidence, 0.01)
}

func TestCacheCaseInsensitive(t *testing.T) {
	c := testCache(t)
	c.Put(ResolvedLocation{Name: "New York", Lat: 40.7128, Lon: -74.006, TZ: "America/New_York", CountryCode: "US", ResolverConfidence: 0.95})

	_, ok := c.Get("NEW YORK")
	assert.True(t, ok)
	_, ok = c.Get("new york")
	assert.True(t, ok)
}

func TestCacheMiss(t *testing.T) {
	c := testCache(t)
	_, ok := c.Get("nonexistent")
	assert.False(t, ok)
}

func TestCachePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	c := LoadCacheFrom(path)
	c.Put(ResolvedLocation{Name: "Tokyo", Lat: 35.6762, Lon: 139.6503, TZ: "Asia/Tokyo", CountryCode: "JP", ResolverConfidence: 0.9})

	c2 := LoadCacheFrom(path)
	result, ok := c2.Get("tokyo")
	assert.True(t, ok)
	assert.Equal(t, "Tokyo", result.Name)
}

func TestCacheMostRecent(t *testing.T) {
	c := testCache(t)
	c.Put(ResolvedLocation{Name: "First", ResolverConfidence: 0.5})
	time.Sleep(10 * time.Millisecond)
	c.Put(ResolvedLocation{Name: "Second", ResolverConfidence: 0.8})

	recent, ok := c.MostRecent()
	assert.True(t, ok)
	assert.Equal(t, "Second", recent.Name)
}

func TestCacheBackwardCompatible(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	v1JSON := `{
		"stockholm": {
			"lat": 59.3293,
			"lon": 18.0686,
			"tz": "Europe/Stockholm",
			"name": "Stockholm",
			"timestamp": "2099-01-01T00:00:00Z"
		}
	}`
	assert.NoError(t, os.WriteFile(path, []byte(v1JSON), 0o644))

	c := LoadCacheFrom(path)
	result, ok := c.Get("stockholm")
	assert.True(t, ok)
	assert.Equal(t, "Stockholm", result.Name)
	assert.Equal(t, "", result.CountryCode)
	assert.InDelta(t, 1.0, result.ResolverConfidence, 0.01)
}

func TestCachePutWithKey(t *testing.T) {
	c := testCache(t)
	loc := ResolvedLocation{
		Name: "Al Madinah Al Munawwarah", Lat: 24.47, Lon: 39.61, TZ: "Asia/Riyadh",
		DisplayName: "Medina, Saudi Arabia", CountryCode: "SA", ResolverConfidence: 0.9,
	}
	c.PutWithKey("medina", loc)

	_, ok := c.Get("medina")
	assert.True(t, ok)
	_, ok = c.Get("al madinah al munawwarah")
	assert.True(t, ok)
}

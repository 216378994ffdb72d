package location

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// cacheTTL is how long a cached resolution stays valid.
const cacheTTL = 30 * 24 * time.Hour

// cacheEntry is the on-disk representation of one cached resolution.
// Schema v2: display_name/country_code/source_name/confidence were
// added after v1 shipped; all are optional so v1 files still load.
type cacheEntry struct {
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	TZ          string    `json:"tz"`
	Name        string    `json:"name"`
	Timestamp   time.Time `json:"timestamp"`
	DisplayName string    `json:"display_name,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	SourceName  string    `json:"source_name,omitempty"`
	Confidence  float64   `json:"confidence"`
}

// Cache is a file-backed, case-insensitive location cache with a
// 30-day TTL, persisted as JSON at ~/.waqt/location_cache.json.
type Cache struct {
	path    string
	entries map[string]cacheEntry
}

// LoadCache loads the cache from its default path.
func LoadCache() *Cache {
	return LoadCacheFrom(defaultCachePath())
}

// LoadCacheFrom loads the cache from a specific path (for tests, or a
// configured override).
func LoadCacheFrom(path string) *Cache {
	entries, _ := readCacheFile(path)
	if entries == nil {
		entries = map[string]cacheEntry{}
	}
	return &Cache{path: path, entries: entries}
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".waqt", "location_cache.json")
}

func readCacheFile(path string) (map[string]cacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries map[string]cacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Get looks up a city in the cache. Returns false if missing or
// expired.
func (c *Cache) Get(query string) (ResolvedLocation, bool) {
	key := strings.ToLower(query)
	entry, ok := c.entries[key]
	if !ok {
		return ResolvedLocation{}, false
	}
	if time.Since(entry.Timestamp) > cacheTTL {
		return ResolvedLocation{}, false
	}
	return entryToResolved(entry), true
}

// MostRecent returns the most recently cached, non-expired location
// (used for --auto's offline fallback).
func (c *Cache) MostRecent() (ResolvedLocation, bool) {
	var best *cacheEntry
	for k := range c.entries {
		e := c.entries[k]
		if time.Since(e.Timestamp) > cacheTTL {
			continue
		}
		if best == nil || e.Timestamp.After(best.Timestamp) {
			ec := e
			best = &ec
		}
	}
	if best == nil {
		return ResolvedLocation{}, false
	}
	return entryToResolved(*best), true
}

func entryToResolved(e cacheEntry) ResolvedLocation {
	confidence := e.Confidence
	if confidence == 0 {
		confidence = 1.0
	}
	return ResolvedLocation{
		Name: e.Name, Lat: e.Lat, Lon: e.Lon, TZ: e.TZ,
		Source: SourceCache, DisplayName: e.DisplayName,
		CountryCode: e.CountryCode, ResolverConfidence: confidence,
	}
}

func toCacheEntry(resolved ResolvedLocation) cacheEntry {
	return cacheEntry{
		Lat: resolved.Lat, Lon: resolved.Lon, TZ: resolved.TZ, Name: resolved.Name,
		Timestamp: time.Now(), DisplayName: resolved.DisplayName,
		CountryCode: resolved.CountryCode, SourceName: resolved.Source.String(),
		Confidence: resolved.ResolverConfidence,
	}
}

// Put stores a resolved location under its own name.
func (c *Cache) Put(resolved ResolvedLocation) {
	c.entries[strings.ToLower(resolved.Name)] = toCacheEntry(resolved)
	c.persist()
}

// PutWithKey stores a resolved location under the original query (so
// a future identical query hits cache) and, if different, under the
// resolved canonical name too.
func (c *Cache) PutWithKey(query string, resolved ResolvedLocation) {
	entry := toCacheEntry(resolved)
	key := strings.ToLower(query)
	c.entries[key] = entry

	nameKey := strings.ToLower(resolved.Name)
	if nameKey != key {
		c.entries[nameKey] = entry
	}
	c.persist()
}

// Len reports the number of cached entries.
func (c *Cache) Len() int { return len(c.entries) }

func (c *Cache) persist() {
	if dir := filepath.Dir(c.path); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(c.path, data, 0o644)
}

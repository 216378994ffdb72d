package location

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinExact(t *testing.T) {
	loc, ok := builtinLookup("Mecca")
	assert.True(t, ok)
	assert.Equal(t, "mecca", loc.Name)
	assert.InDelta(t, 21.4225, loc.Lat, 0.01)
	assert.Equal(t, "Asia/Riyadh", loc.TZ)
	assert.Equal(t, SourceFallback, loc.Source)
	assert.Equal(t, "SA", loc.CountryCode)
}

func TestBuiltinCaseInsensitive(t *testing.T) {
	loc, ok := builtinLookup("STOCKHOLM")
	assert.True(t, ok)
	assert.Equal(t, "stockholm", loc.Name)
}

func TestBuiltinAlias(t *testing.T) {
	loc, ok := builtinLookup("mekka")
	assert.True(t, ok)
	assert.Equal(t, "mecca", loc.Name)
}

func TestBuiltinFuzzy(t *testing.T) {
	loc, ok := builtinLookup("stockholn")
	assert.True(t, ok)
	assert.Equal(t, "stockholm", loc.Name)
}

func TestBuiltinMultiWord(t *testing.T) {
	loc, ok := builtinLookup("new york")
	assert.True(t, ok)
	assert.Equal(t, "new york", loc.Name)
	assert.Equal(t, "America/New_York", loc.TZ)
}

func TestBuiltinAliasNYC(t *testing.T) {
	loc, ok := builtinLookup("NYC")
	assert.True(t, ok)
	assert.Equal(t, "new york", loc.Name)
}

func TestBuiltinNotFound(t *testing.T) {
	_, ok := builtinLookup("xyznonexistent")
	assert.False(t, ok)
}

func TestBuiltinWithCountryFilter(t *testing.T) {
	loc, ok := builtinLookupWithCountry("medina", "SA")
	assert.True(t, ok)
	assert.Equal(t, "SA", loc.CountryCode)
	assert.Equal(t, "Asia/Riyadh", loc.TZ)
}

func TestEditDistance(t *testing.T) {
	assert.Equal(t, 3, editDistance("kitten", "sitting"))
	assert.Equal(t, 1, editDistance("stockholm", "stokholm"))
	assert.Equal(t, 2, editDistance("mecca", "mekka"))
	assert.Equal(t, 0, editDistance("abc", "abc"))
}

func TestCountryNameToCode(t *testing.T) {
	assert.Equal(t, "SA", countryNameToCode("Saudi Arabia"))
	assert.Equal(t, "FR", countryNameToCode("France"))
	assert.Equal(t, "", countryNameToCode("Unknown Land"))
}

func TestCountryDisplayName(t *testing.T) {
	assert.Equal(t, "Saudi Arabia", countryDisplayName("SA"))
	assert.Equal(t, "Saudi Arabia", countryDisplayName("sa"))
}

func TestFormatCoords(t *testing.T) {
	assert.Equal(t, "21.4225°N, 39.8262°E", formatCoords(21.4225, 39.8262))
	assert.Equal(t, "33.8688°S, 70.6693°W", formatCoords(-33.8688, -70.6693))
}

func TestTypeRank(t *testing.T) {
	assert.Greater(t, typeRank("city", "place"), typeRank("village", "place"))
	assert.Greater(t, typeRank("town", "place"), typeRank("hamlet", "place"))
}

func TestNameSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, nameSimilarity("paris", "Paris, Île-de-France, France"))
	assert.Greater(t, nameSimilarity("paris", "Paris, TX, US"), 0.5)
}

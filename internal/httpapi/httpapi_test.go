package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufkaya/waqt/internal/cache"
	"github.com/yusufkaya/waqt/internal/config"
	"github.com/yusufkaya/waqt/internal/location"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	resolver := location.NewResolverWithCache(location.LoadCacheFrom(t.TempDir() + "/cache.json"))
	resolver.SetOffline(true)
	scheduleCache := cache.New(100, time.Hour)
	return NewServer(resolver, scheduleCache, config.DefaultConfig())
}

func TestHandleTimesManualCoords(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/times?lat=21.4225&lon=39.8262&date=2026-02-14", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2026-02-14", body["date"])
	assert.Contains(t, body, "events")
	assert.Contains(t, body, "gap_strategy")
}

func TestHandleTimesNoLocationIs400(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/times", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "NO_LOCATION_SPECIFIED", body.Error.Code)
}

func TestHandleTimesInvalidLatitudeIs400(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/times?lat=200&lon=10", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestHandleTimesUnknownCityIs404(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/times?city=NoSuchPlaceAnywhere", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "LOCATION_NOT_FOUND", body.Error.Code)
}

func TestHandleMonthReturnsAllDays(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/month?lat=21.4225&lon=39.8262&year=2026&month=2", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 28)
}

func TestHandleCities(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/cities", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body)
}

func TestHealthCheck(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAmbiguousLocationMapsTo300(t *testing.T) {
	err := &location.AmbiguousError{
		Query: "Springfield",
		Candidates: []location.AmbiguousCandidate{
			{Name: "Springfield", Country: "US", CountryName: "United States", Lat: 39.8, Lon: -89.6, TZ: "America/Chicago"},
		},
	}
	status, code, candidates := statusAndCode(err)
	assert.Equal(t, http.StatusMultipleChoices, status)
	assert.Equal(t, "AMBIGUOUS_LOCATION", code)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Springfield", candidates[0].Name)
}

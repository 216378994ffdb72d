package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeccaNormalSchedule(t *testing.T) {
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 21.4225, 39.8262, Strict)

	assert.Equal(t, Normal, s.State)
	assert.Equal(t, MethodStandard, s.Events.Sunrise.Method)
	assert.Equal(t, MethodStandard, s.Events.Maghrib.Method)
	require.NotNil(t, s.Events.Sunrise.Time)
	require.NotNil(t, s.Events.Maghrib.Time)

	e := s.Events
	assert.Less(t, *e.Fajr.Time, *e.Sunrise.Time)
	assert.Less(t, *e.Sunrise.Time, *e.Dhuhr.Time)
	assert.Less(t, *e.Dhuhr.Time, *e.Asr.Time)
	assert.Less(t, *e.Asr.Time, *e.Maghrib.Time)
	assert.Less(t, *e.Maghrib.Time, *e.Isha.Time)
}

func TestTromsoEdgeCase(t *testing.T) {
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 69.6492, 18.9553, Strict)

	assert.Equal(t, Normal, s.State)
	assert.Greater(t, s.Solar.MaxAltitude, 0.0)
	assert.Less(t, s.Solar.MaxAltitude, 10.0)
}

func TestSvalbardPolarNightTruthful(t *testing.T) {
	date := time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 78.2232, 15.6267, Strict)

	assert.Equal(t, PolarNight, s.State)
	assert.Less(t, s.Solar.MaxAltitude, 0.0)

	assert.Equal(t, MethodNone, s.Events.Sunrise.Method)
	assert.Nil(t, s.Events.Sunrise.Time, "polar night must not have sunrise")
	assert.Equal(t, MethodNone, s.Events.Maghrib.Method)
	assert.Nil(t, s.Events.Maghrib.Time, "polar night must not have maghrib")

	assert.Equal(t, MethodVirtual, s.Events.Dhuhr.Method)
	require.NotNil(t, s.Events.Dhuhr.Time)
	assert.Equal(t, MethodVirtual, s.Events.Asr.Method)
	require.NotNil(t, s.Events.Asr.Time)
	assert.Equal(t, MethodVirtual, s.Events.Fajr.Method)
	require.NotNil(t, s.Events.Fajr.Time)

	e := s.Events
	assert.Less(t, *e.Fajr.Time, *e.Dhuhr.Time)
	assert.Less(t, *e.Dhuhr.Time, *e.Asr.Time)
	assert.Less(t, *e.Asr.Time, *e.Isha.Time)
}

func TestMidnightSunTruthful(t *testing.T) {
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 69.6492, 18.9553, Strict)

	assert.Equal(t, MidnightSun, s.State)
	assert.Equal(t, MethodNone, s.Events.Sunrise.Method)
	assert.Nil(t, s.Events.Sunrise.Time, "midnight sun must not have sunrise")
	assert.Equal(t, MethodNone, s.Events.Maghrib.Method)
	assert.Nil(t, s.Events.Maghrib.Time, "midnight sun must not have maghrib")
	assert.Equal(t, MethodStandard, s.Events.Dhuhr.Method)
}

func TestStandardAsrAltitude(t *testing.T) {
	assert.InDelta(t, 32.37, standardAsrAltitude(60.0), 0.5)
	assert.InDelta(t, 45.0, standardAsrAltitude(90.0), 0.1)
}

func TestTromsoJun21StrictNoMaghrib(t *testing.T) {
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 69.6492, 18.9553, Strict)
	assert.Equal(t, MidnightSun, s.State)
	assert.Nil(t, s.Events.Maghrib.Time)
	assert.Equal(t, MethodNone, s.Events.Maghrib.Method)
}

func TestTromsoJun21Projected45HasMaghrib(t *testing.T) {
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 69.6492, 18.9553, Projected45)
	assert.Equal(t, MidnightSun, s.State)

	require.NotNil(t, s.Events.Maghrib.Time, "Projected45 must fill maghrib")
	assert.Equal(t, MethodProjected, s.Events.Maghrib.Method)
	require.NotNil(t, s.Events.Maghrib.Note, "projected event must have note")

	require.NotNil(t, s.Events.Sunrise.Time, "Projected45 must fill sunrise")
	assert.Equal(t, MethodProjected, s.Events.Sunrise.Method)

	maghribSecs, err := hmsToSeconds(*s.Events.Maghrib.Time)
	require.NoError(t, err)
	assert.Greater(t, maghribSecs, 14.0*3600.0)
	assert.Less(t, maghribSecs, 23.0*3600.0)
}

func TestSvalbardDec21Projected45FullSchedule(t *testing.T) {
	date := time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 78.2232, 15.6267, Projected45)
	assert.Equal(t, PolarNight, s.State)

	require.NotNil(t, s.Events.Sunrise.Time, "Projected45 must fill sunrise in polar night")
	require.NotNil(t, s.Events.Maghrib.Time, "Projected45 must fill maghrib in polar night")
	assert.Equal(t, MethodProjected, s.Events.Sunrise.Method)
	assert.Equal(t, MethodProjected, s.Events.Maghrib.Method)

	sr, err := hmsToSeconds(*s.Events.Sunrise.Time)
	require.NoError(t, err)
	noon, err := hmsToSeconds(*s.Events.Dhuhr.Time)
	require.NoError(t, err)
	mg, err := hmsToSeconds(*s.Events.Maghrib.Time)
	require.NoError(t, err)

	assert.Less(t, sr, noon)
	assert.Less(t, noon, mg)
}

func TestMeccaNormalUnaffectedByStrategy(t *testing.T) {
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	strict := Compute(date, 21.4225, 39.8262, Strict)
	projected := Compute(date, 21.4225, 39.8262, Projected45)

	assert.Equal(t, Normal, strict.State)
	assert.Equal(t, Normal, projected.State)
	assert.Equal(t, *strict.Events.Sunrise.Time, *projected.Events.Sunrise.Time)
	assert.Equal(t, *strict.Events.Maghrib.Time, *projected.Events.Maghrib.Time)
	assert.Equal(t, strict.Events.Sunrise.Method, projected.Events.Sunrise.Method)
	assert.Equal(t, strict.Events.Maghrib.Method, projected.Events.Maghrib.Method)
}

func TestConfidenceStandardEvents(t *testing.T) {
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 21.4225, 39.8262, Strict)
	assert.Equal(t, 1.0, s.Events.Sunrise.Confidence)
	assert.Equal(t, 1.0, s.Events.Dhuhr.Confidence)
	assert.Equal(t, 1.0, s.Events.Asr.Confidence)
	assert.Equal(t, 1.0, s.Events.Maghrib.Confidence)
}

func TestConfidenceVirtualEvents(t *testing.T) {
	date := time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 78.2232, 15.6267, Strict)
	assert.Equal(t, 0.7, s.Events.Fajr.Confidence)
	assert.Equal(t, 0.7, s.Events.Dhuhr.Confidence)
	assert.Equal(t, 0.7, s.Events.Asr.Confidence)
	assert.Equal(t, 0.7, s.Events.Isha.Confidence)
}

func TestConfidenceProjectedEvents(t *testing.T) {
	date := time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 78.2232, 15.6267, Projected45)
	assert.Equal(t, 0.5, s.Events.Sunrise.Confidence)
	assert.Equal(t, 0.5, s.Events.Maghrib.Confidence)
}

func TestConfidenceNoneEvents(t *testing.T) {
	date := time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 78.2232, 15.6267, Strict)
	assert.Equal(t, 0.0, s.Events.Sunrise.Confidence)
	assert.Equal(t, 0.0, s.Events.Maghrib.Confidence)
}

func TestDynamicRefLatTromso(t *testing.T) {
	refLat := ComputeReferenceLat(69.6492)
	assert.InDelta(t, 54.6, refLat, 0.1)
	assert.NotEqual(t, 45.0, refLat)
}

func TestDynamicRefLatSvalbard(t *testing.T) {
	refLat := ComputeReferenceLat(78.2232)
	assert.InDelta(t, 63.2, refLat, 0.1)
	assert.NotEqual(t, 45.0, refLat)
}

func TestDynamicRefLatSouthernHemisphere(t *testing.T) {
	refLat := ComputeReferenceLat(-70.0)
	assert.InDelta(t, -55.0, refLat, 0.1)
	assert.Less(t, refLat, 0.0)
}

func TestDynamicRefLatTropical(t *testing.T) {
	refLat := ComputeReferenceLat(21.4225)
	assert.Equal(t, 45.0, refLat)
}

func TestDynamicRefLatTemperate(t *testing.T) {
	refLat := ComputeReferenceLat(59.3)
	assert.InDelta(t, 59.3, refLat, 0.1)
}

func TestProjectionNoteReflectsDynamicLat(t *testing.T) {
	date := time.Date(2026, 6, 21, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 69.6492, 18.9553, Projected45)
	require.NotNil(t, s.Events.Maghrib.Note)
	assert.Contains(t, *s.Events.Maghrib.Note, "54.")
}

func TestMeccaRegressionUnchanged(t *testing.T) {
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	s := Compute(date, 21.4225, 39.8262, Strict)

	assert.Equal(t, Normal, s.State)
	assert.Equal(t, MethodStandard, s.Events.Sunrise.Method)
	assert.Equal(t, MethodStandard, s.Events.Maghrib.Method)
	assert.Equal(t, 1.0, s.Events.Sunrise.Confidence)
	assert.Equal(t, 1.0, s.Events.Maghrib.Confidence)
	assert.False(t, s.Events.Sunrise.NextDay)
	assert.False(t, s.Events.Maghrib.NextDay)
	assert.Nil(t, s.Events.Sunrise.Note)
	assert.Nil(t, s.Events.Maghrib.Note)

	e := s.Events
	assert.Less(t, *e.Fajr.Time, *e.Sunrise.Time)
	assert.Less(t, *e.Sunrise.Time, *e.Dhuhr.Time)
	assert.Less(t, *e.Dhuhr.Time, *e.Asr.Time)
	assert.Less(t, *e.Asr.Time, *e.Maghrib.Time)
	assert.Less(t, *e.Maghrib.Time, *e.Isha.Time)
}

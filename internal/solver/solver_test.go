package solver

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yusufkaya/waqt/internal/schedule"
)

func utcSolver(lat, lon float64) *Solver {
	loc, err := NewLocation(lat, lon)
	if err != nil {
		panic(err)
	}
	return WithUTC(loc)
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestSolverMeccaNormal(t *testing.T) {
	s := utcSolver(21.4225, 39.8262)
	out := s.Solve(mustDate(t, "2026-02-14"), false, false)

	assert.Equal(t, schedule.Normal, out.State)
	assert.NotNil(t, out.Events.Sunrise.Time)
	assert.NotNil(t, out.Events.Maghrib.Time)
	assert.Equal(t, schedule.MethodStandard, out.Events.Sunrise.Method)
}

func TestSolverPolarNightTruthful(t *testing.T) {
	s := utcSolver(78.2232, 15.6267).WithStrategy(schedule.Strict)
	out := s.Solve(mustDate(t, "2025-12-21"), false, false)

	assert.Equal(t, schedule.PolarNight, out.State)
	assert.Nil(t, out.Events.Sunrise.Time, "PolarNight: sunrise must be nil")
	assert.Nil(t, out.Events.Maghrib.Time, "PolarNight: maghrib must be nil")
	assert.Equal(t, schedule.MethodNone, out.Events.Sunrise.Method)
	assert.Equal(t, schedule.MethodNone, out.Events.Maghrib.Method)
}

func TestSolverMidnightSunTruthful(t *testing.T) {
	s := utcSolver(69.6492, 18.9553).WithStrategy(schedule.Strict)
	out := s.Solve(mustDate(t, "2026-06-21"), false, false)

	assert.Equal(t, schedule.MidnightSun, out.State)
	assert.Nil(t, out.Events.Sunrise.Time, "MidnightSun: sunrise must be nil")
	assert.Nil(t, out.Events.Maghrib.Time, "MidnightSun: maghrib must be nil")
}

func TestTimezoneConversion(t *testing.T) {
	tz, err := time.LoadLocation("Asia/Riyadh")
	require.NoError(t, err)

	loc, err := NewLocation(21.4225, 39.8262)
	require.NoError(t, err)
	s := New(loc, tz)
	out := s.Solve(mustDate(t, "2026-02-14"), false, false)

	assert.Equal(t, "Asia/Riyadh", out.Location.Timezone)

	require.NotNil(t, out.Events.Dhuhr.Time)
	assert.True(t, strings.HasPrefix(*out.Events.Dhuhr.Time, "12:"),
		"Dhuhr in Riyadh should be around 12:xx, got %s", *out.Events.Dhuhr.Time)
}

func TestWaveDebug(t *testing.T) {
	s := utcSolver(78.2232, 15.6267)
	out := s.Solve(mustDate(t, "2025-12-21"), false, true)

	require.NotNil(t, out.WaveDebug)
	assert.Greater(t, out.WaveDebug.SampleCount, 1000)
	assert.NotEmpty(t, out.WaveDebug.Altitudes)
	for _, a := range out.WaveDebug.Altitudes {
		assert.Less(t, a, 0.0)
	}
}

func TestAsciiTimeline(t *testing.T) {
	s := utcSolver(21.4225, 39.8262)
	out := s.Solve(mustDate(t, "2026-02-14"), false, false)
	ascii := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, false)

	assert.Contains(t, ascii, "Fajr")
	assert.Contains(t, ascii, "Dhuhr")
	assert.Contains(t, ascii, "Isha")
}

func TestAsciiTimelinePolarNight(t *testing.T) {
	s := utcSolver(78.2232, 15.6267).WithStrategy(schedule.Strict)
	out := s.Solve(mustDate(t, "2025-12-21"), false, false)
	ascii := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, false)

	assert.Contains(t, ascii, "[N/A]")
	assert.Contains(t, ascii, "[V]")
}

func TestInvalidLatitude(t *testing.T) {
	_, err := NewLocation(91.0, 0.0)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "latitude must be between")
}

func TestThreeCitiesIntegration(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		date     string
		expected schedule.DayState
	}{
		{"Mecca", 21.4225, 39.8262, "2026-02-14", schedule.Normal},
		{"Tromso", 69.6492, 18.9553, "2026-02-14", schedule.Normal},
		{"Svalbard", 78.2232, 15.6267, "2025-12-21", schedule.PolarNight},
	}

	for _, c := range cases {
		s := utcSolver(c.lat, c.lon).WithStrategy(schedule.Strict)
		out := s.Solve(mustDate(t, c.date), false, false)

		assert.Equal(t, c.expected, out.State, "%s state mismatch", c.name)

		switch c.expected {
		case schedule.PolarNight, schedule.MidnightSun:
			assert.Nil(t, out.Events.Sunrise.Time, "%s: sunrise must be nil in %v", c.name, c.expected)
			assert.Nil(t, out.Events.Maghrib.Time, "%s: maghrib must be nil in %v", c.name, c.expected)
		case schedule.Normal:
			assert.NotNil(t, out.Events.Sunrise.Time)
			assert.NotNil(t, out.Events.Maghrib.Time)
		}
	}
}

func TestSolverProjectedOutputHasStrategy(t *testing.T) {
	s := utcSolver(69.6492, 18.9553) // default Projected45
	out := s.Solve(mustDate(t, "2026-06-21"), false, false)

	j, err := json.Marshal(out)
	require.NoError(t, err)
	json := string(j)
	assert.Contains(t, json, "gap_strategy")
	assert.Contains(t, json, "Projected45")
}

func TestSolverStrictMode(t *testing.T) {
	s := utcSolver(78.2232, 15.6267).WithStrategy(schedule.Strict)
	out := s.Solve(mustDate(t, "2025-12-21"), false, false)

	assert.Equal(t, schedule.Strict, out.GapStrategy)
	assert.Nil(t, out.Events.Sunrise.Time)
	assert.Nil(t, out.Events.Maghrib.Time)
}

func TestAsciiTimelineShowsProjected(t *testing.T) {
	s := utcSolver(69.6492, 18.9553) // default Projected45
	out := s.Solve(mustDate(t, "2026-06-21"), false, false)
	ascii := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, false)

	assert.Contains(t, ascii, "[P]", "Timeline must show [P] tag")
	assert.Contains(t, ascii, "Projected45", "Header must show strategy name")
}

func TestConfidenceInJsonOutput(t *testing.T) {
	s := utcSolver(78.2232, 15.6267)
	out := s.Solve(mustDate(t, "2025-12-21"), false, false)

	j, err := json.Marshal(out)
	require.NoError(t, err)
	body := string(j)
	assert.Contains(t, body, "\"confidence\"")
	assert.Contains(t, body, "0.5")
	assert.Contains(t, body, "0.7")
}

func TestDateWrappingNextDay(t *testing.T) {
	tz, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	loc, err := NewLocation(21.4225, 39.8262)
	require.NoError(t, err)
	s := New(loc, tz)
	out := s.Solve(mustDate(t, "2026-02-14"), false, false)

	isha := out.Events.Isha
	assert.True(t, isha.NextDay, "Isha in Auckland TZ should wrap to next day")
	require.NotNil(t, isha.Note)
	assert.Contains(t, *isha.Note, "next day")
}

func TestDateWrappingCliDisplay(t *testing.T) {
	tz, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)

	loc, err := NewLocation(21.4225, 39.8262)
	require.NoError(t, err)
	s := New(loc, tz)
	out := s.Solve(mustDate(t, "2026-02-14"), false, false)
	ascii := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, false)

	assert.Contains(t, ascii, "(+1d)", "CLI must show (+1d) for wrapped events")
}

func TestShowConfidenceFlag(t *testing.T) {
	s := utcSolver(78.2232, 15.6267)
	out := s.Solve(mustDate(t, "2025-12-21"), false, false)

	asciiNo := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, false)
	assert.NotContains(t, asciiNo, "(0.7)", "Should NOT show confidence without flag")

	asciiYes := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, true)
	assert.Contains(t, asciiYes, "(0.7)", "Should show confidence with flag")
	assert.Contains(t, asciiYes, "(0.5)", "Should show projected confidence")
}

func TestShortTagsInTimeline(t *testing.T) {
	s := utcSolver(78.2232, 15.6267).WithStrategy(schedule.Strict)
	out := s.Solve(mustDate(t, "2025-12-21"), false, false)
	ascii := RenderASCIITimeline(out.Events, out.State, out.GapStrategy, false)

	assert.Contains(t, ascii, "[V]", "Virtual events should use [V] short tag")
	assert.Contains(t, ascii, "[N/A]", "None events should still show [N/A]")
	assert.NotContains(t, ascii, "[Virtual]", "[Virtual] long tag should not appear")
}

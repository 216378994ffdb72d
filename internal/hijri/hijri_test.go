package hijri

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGregorianToHijriKnownDate(t *testing.T) {
	date := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	h := GregorianToHijri(date)
	assert.Equal(t, 1447, h.Year)
	assert.True(t, h.Month == 8 || h.Month == 9, "expected month 8 or 9, got %d", h.Month)
}

func TestHijriRoundtrip(t *testing.T) {
	original := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	h := GregorianToHijri(original)
	back := HijriToGregorian(h)
	diff := int(math.Abs(original.Sub(back).Hours() / 24))
	assert.LessOrEqual(t, diff, 1, "roundtrip error: %d days", diff)
}

func TestConjunctionFeb2026(t *testing.T) {
	near := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	conj := FindConjunction(near)
	assert.Equal(t, time.February, conj.Month())
	assert.True(t, conj.Day() >= 16 && conj.Day() <= 18, "conjunction date: %v", conj)
}

func TestFeb17MeccaNotVisible(t *testing.T) {
	conjDate := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	conjunction := FindConjunction(conjDate)
	vis := EvaluateVisibility(conjDate, 21.4225, 39.8262, conjunction)
	assert.Equal(t, ZoneD, vis.Zone, "Feb 17 evening Mecca should be Zone D, got %v (q=%.3f, age=%.1fh)", vis.Zone, vis.QValue, vis.MoonAgeHours)
}

func TestFeb18MeccaVisible(t *testing.T) {
	conjDate := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	conjunction := FindConjunction(conjDate)
	checkDate := time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC)
	vis := EvaluateVisibility(checkDate, 21.4225, 39.8262, conjunction)
	assert.True(t, vis.Zone == ZoneA || vis.Zone == ZoneB, "Feb 18 evening Mecca should be Zone A or B, got %v (q=%.3f, age=%.1fh)", vis.Zone, vis.QValue, vis.MoonAgeHours)
}

func TestRamadan1447Mecca(t *testing.T) {
	info := FindRamadan(1447, 21.4225, 39.8262)
	assert.Equal(t, "2026-02-19", info.Start, "Ramadan 1447 from Mecca should start Feb 19, got %s", info.Start)
	assert.True(t, info.Days == 29 || info.Days == 30, "Ramadan should be 29 or 30 days, got %d", info.Days)
}

func TestOdehQFormula(t *testing.T) {
	w := 15.0 * (1.0 - math.Cos(10.0*deg))
	q := 5.0 - (-0.1018*math.Pow(w, 3) + 0.7319*math.Pow(w, 2) - 6.3226*w + 7.1814)
	assert.False(t, math.IsInf(q, 0) || math.IsNaN(q), "q-value should be finite, got %v", q)
}

func TestRamadan1447Tromso(t *testing.T) {
	info := FindRamadan(1447, 69.6492, 18.9553)
	startDate, err := time.Parse("2006-01-02", info.Start)
	assert.NoError(t, err)
	feb19 := time.Date(2026, 2, 19, 0, 0, 0, 0, time.UTC)
	assert.True(t, !startDate.Before(feb19), "Tromso Ramadan start should be >= Feb 19, got %s", info.Start)
}

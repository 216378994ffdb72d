package hijri

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/yusufkaya/waqt/internal/astro/lunar"
	"github.com/yusufkaya/waqt/internal/astro/solar"
	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

const deg = math.Pi / 180.0

// CrescentZone classifies how visible the new crescent is, per Odeh
// (2004).
type CrescentZone int

const (
	// ZoneA is naked-eye visible.
	ZoneA CrescentZone = iota
	// ZoneB may be visible to the naked eye, optical aid helps.
	ZoneB
	// ZoneC needs optical aid.
	ZoneC
	// ZoneD is not visible.
	ZoneD
)

func (z CrescentZone) String() string {
	switch z {
	case ZoneA:
		return "A (naked eye)"
	case ZoneB:
		return "B (may need optical aid)"
	case ZoneC:
		return "C (optical aid required)"
	case ZoneD:
		return "D (not visible)"
	default:
		return "unknown"
	}
}

// MarshalJSON renders a CrescentZone as its display name rather than
// its ordinal, matching the rest of the engine's enum JSON contract.
func (z CrescentZone) MarshalJSON() ([]byte, error) {
	return json.Marshal(z.String())
}

// CrescentVisibility is the Odeh visibility assessment for one evening.
type CrescentVisibility struct {
	Zone          CrescentZone `json:"zone"`
	QValue        float64      `json:"q_value"`
	MoonAgeHours  float64      `json:"moon_age_hours"`
	MoonAltitude  float64      `json:"moon_altitude"`
	Elongation    float64      `json:"elongation"`
	ArcOfVision   float64      `json:"arc_of_vision"`
	CrescentWidth float64      `json:"crescent_width"`
}

// findSunset returns the UTC sunset instant for a date and location, or
// false if the sun does not set that day.
func findSunset(date time.Time, lat, lon float64) (time.Time, bool) {
	samples := solar.DayScan(date, lat, lon, 60)
	sunsetSecs, ok := solar.FindCrossing(samples, solar.HorizonAngle, false)
	if !ok {
		return time.Time{}, false
	}

	h := int(math.Floor(sunsetSecs / 3600.0))
	m := int(math.Floor(math.Mod(sunsetSecs, 3600.0) / 60.0))
	s := int(math.Floor(math.Mod(sunsetSecs, 60.0)))
	if h > 23 {
		h = 23
	}
	if m > 59 {
		m = 59
	}
	if s > 59 {
		s = 59
	}

	return time.Date(date.Year(), date.Month(), date.Day(), h, m, s, 0, time.UTC), true
}

// notVisible is the zero-confidence Zone D result used whenever
// visibility cannot be meaningfully evaluated.
func notVisible(moonAgeHours float64) CrescentVisibility {
	return CrescentVisibility{Zone: ZoneD, QValue: -999.0, MoonAgeHours: moonAgeHours}
}

// EvaluateVisibility scores crescent visibility on a given evening using
// the Odeh (2004) q-value criterion.
func EvaluateVisibility(date time.Time, lat, lon float64, conjunction time.Time) CrescentVisibility {
	return EvaluateVisibilityWithContext(context.Background(), date, lat, lon, conjunction)
}

// EvaluateVisibilityWithContext is EvaluateVisibility with OpenTelemetry
// span instrumentation.
func EvaluateVisibilityWithContext(ctx context.Context, date time.Time, lat, lon float64, conjunction time.Time) CrescentVisibility {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "hijri.EvaluateVisibility")
	defer span.End()

	sunset, ok := findSunset(date, lat, lon)
	if !ok {
		return notVisible(0)
	}

	moonAgeHours := sunset.Sub(conjunction).Seconds() / 3600.0
	if moonAgeHours < 0 {
		return notVisible(moonAgeHours)
	}

	moon := lunar.At(sunset, lat, lon)
	moonAltitude := moon.Altitude
	elongation := lunar.Elongation(sunset)

	arcv := moonAltitude
	w := 15.0 * (1.0 - math.Cos(elongation*deg))

	q := arcv - (-0.1018*math.Pow(w, 3) + 0.7319*math.Pow(w, 2) - 6.3226*w + 7.1814)

	var zone CrescentZone
	switch {
	case q >= 0:
		zone = ZoneA
	case q >= -0.014:
		zone = ZoneB
	case q >= -0.232:
		zone = ZoneC
	default:
		zone = ZoneD
	}

	span.SetAttributes(
		attribute.String("hijri.crescent_zone", zone.String()),
		attribute.Float64("hijri.q_value", q),
		attribute.Float64("hijri.moon_age_hours", moonAgeHours),
	)

	return CrescentVisibility{
		Zone:          zone,
		QValue:        q,
		MoonAgeHours:  moonAgeHours,
		MoonAltitude:  moonAltitude,
		Elongation:    elongation,
		ArcOfVision:   arcv,
		CrescentWidth: w,
	}
}

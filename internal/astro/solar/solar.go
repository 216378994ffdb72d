// Package solar implements the solar position model: ecliptic, equatorial,
// and horizontal coordinates for any UTC instant, plus the 24-hour altitude
// scan that the schedule builder classifies days and locates prayer events
// from.
package solar

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// DegToRad and RadToDeg convert between degrees and radians.
const (
	DegToRad = math.Pi / 180
	RadToDeg = 180 / math.Pi
)

// HorizonAngle is the refraction-adjusted horizon, in degrees, used for
// sunrise/sunset crossings.
const HorizonAngle = -0.833

// Position is the instantaneous solar position for a given UTC instant and
// observer location.
type Position struct {
	Altitude       float64
	Azimuth        float64
	Declination    float64
	EquationOfTime float64
}

// AltitudeSample is one (seconds-from-midnight-UTC, altitude-degrees) pair
// from a day scan.
type AltitudeSample struct {
	Seconds  float64
	Altitude float64
}

// JulianDate converts a UTC time.Time to the Julian Date.
func JulianDate(t time.Time) float64 {
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0

	if m <= 2 {
		y--
		m += 12
	}

	a := math.Floor(y / 100.0)
	b := 2.0 - a + math.Floor(a/4.0)

	return math.Floor(365.25*(y+4716.0)) +
		math.Floor(30.6001*(m+1.0)) +
		d + h/24.0 + b - 1524.5
}

func julianCentury(jd float64) float64 {
	return (jd - 2451545.0) / 36525.0
}

// JulianCentury converts a Julian Date to the Julian century referenced from
// epoch J2000.0. Exported so the lunar model can share the same time base.
func JulianCentury(jd float64) float64 {
	return julianCentury(jd)
}

func normalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// NormalizeDegrees wraps deg into [0, 360).
func NormalizeDegrees(deg float64) float64 {
	return normalizeDegrees(deg)
}

// ClampAsin and ClampAcos guard against floating-point domain errors from
// inputs that drift marginally outside [-1, 1].
func ClampAsin(x float64) float64 { return clampAsin(x) }
func ClampAcos(x float64) float64 { return clampAcos(x) }

func meanLongitude(t float64) float64 {
	return normalizeDegrees(280.46646 + t*(36000.76983+t*0.0003032))
}

func meanAnomaly(t float64) float64 {
	return normalizeDegrees(357.52911 + t*(35999.05029-t*0.0001537))
}

func eccentricity(t float64) float64 {
	return 0.016708634 - t*(0.000042037+t*0.0000001267)
}

func equationOfCenter(t float64) float64 {
	m := meanAnomaly(t) * DegToRad
	return math.Sin(m)*(1.914602-t*(0.004817+t*0.000014)) +
		math.Sin(2*m)*(0.019993-t*0.000101) +
		math.Sin(3*m)*0.000289
}

func trueLongitude(t float64) float64 {
	return meanLongitude(t) + equationOfCenter(t)
}

func apparentLongitude(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return trueLongitude(t) - 0.00569 - 0.00478*math.Sin(omega*DegToRad)
}

func meanObliquity(t float64) float64 {
	return 23.0 + (26.0+(21.448-t*(46.815+t*(0.00059-t*0.001813)))/60.0)/60.0
}

func obliquityCorrected(t float64) float64 {
	omega := 125.04 - 1934.136*t
	return meanObliquity(t) + 0.00256*math.Cos(omega*DegToRad)
}

// ObliquityCorrected is the nutation-corrected obliquity of the ecliptic, in
// degrees, for Julian century t. Exported for the lunar model, which applies
// the same correction when projecting the Moon's ecliptic coordinates onto
// the equator.
func ObliquityCorrected(t float64) float64 {
	return obliquityCorrected(t)
}

// ApparentLongitude is the Sun's apparent ecliptic longitude, in degrees, for
// Julian century t.
func ApparentLongitude(t float64) float64 {
	return apparentLongitude(t)
}

// EclipticLongitude returns the Sun's apparent ecliptic longitude, in
// degrees, at the given UTC instant. Used by the lunar model to compute the
// Moon-Sun elongation.
func EclipticLongitude(dt time.Time) float64 {
	tc := julianCentury(JulianDate(dt))
	return apparentLongitude(tc)
}

func declination(t float64) float64 {
	e := obliquityCorrected(t) * DegToRad
	lambda := apparentLongitude(t) * DegToRad
	return clampAsin(math.Sin(e)*math.Sin(lambda)) * RadToDeg
}

func equationOfTime(t float64) float64 {
	e := obliquityCorrected(t) * DegToRad
	l0 := meanLongitude(t) * DegToRad
	ecc := eccentricity(t)
	m := meanAnomaly(t) * DegToRad

	y := math.Pow(math.Tan(e/2.0), 2)

	eq := y*math.Sin(2*l0) - 2*ecc*math.Sin(m) +
		4*ecc*y*math.Sin(m)*math.Cos(2*l0) -
		0.5*y*y*math.Sin(4*l0) -
		1.25*ecc*ecc*math.Sin(2*m)

	return 4 * eq / DegToRad
}

func clampAsin(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Asin(x)
}

func clampAcos(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Acos(x)
}

// At computes the solar position for a UTC instant and observer location.
func At(t time.Time, lat, lon float64) Position {
	return AtWithContext(context.Background(), t, lat, lon)
}

// AtWithContext is At with OpenTelemetry span instrumentation.
func AtWithContext(ctx context.Context, t time.Time, lat, lon float64) Position {
	observer := observability.Observer()
	ctx, span := observer.CreateSpan(ctx, "solar.At")
	defer span.End()

	jd := JulianDate(t)
	tc := julianCentury(jd)

	decl := declination(tc)
	eqt := equationOfTime(tc)

	span.SetAttributes(
		attribute.Float64("solar.julian_date", jd),
		attribute.Float64("solar.julian_century", tc),
		attribute.Float64("solar.declination", decl),
		attribute.Float64("solar.equation_of_time", eqt),
	)

	hour := float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
	solarTime := hour*60.0 + eqt + 4.0*lon
	hourAngle := solarTime/4.0 - 180.0

	latR := lat * DegToRad
	declR := decl * DegToRad
	haR := hourAngle * DegToRad

	sinAlt := math.Sin(latR)*math.Sin(declR) + math.Cos(latR)*math.Cos(declR)*math.Cos(haR)
	altitude := clampAsin(sinAlt) * RadToDeg

	zenith := clampAsin(sinAlt)
	var azimuth float64
	if math.Abs(math.Cos(latR)) > 1e-10 {
		cosAz := (math.Sin(declR) - math.Sin(zenith)*math.Sin(latR)) / (math.Cos(zenith) * math.Cos(latR))
		az := clampAcos(cosAz) * RadToDeg
		if hourAngle > 0 {
			azimuth = 360.0 - az
		} else {
			azimuth = az
		}
	} else if decl > 0 {
		azimuth = 180.0
	} else {
		azimuth = 0.0
	}
	azimuth = normalizeDegrees(azimuth)

	span.SetAttributes(
		attribute.Float64("solar.altitude", altitude),
		attribute.Float64("solar.azimuth", azimuth),
	)

	return Position{Altitude: altitude, Azimuth: azimuth, Declination: decl, EquationOfTime: eqt}
}

// DayScan scans the full 24-hour solar altitude curve for a civil date at
// the given resolution, returning 86400/resolutionSeconds samples.
func DayScan(date time.Time, lat, lon float64, resolutionSeconds int) []AltitudeSample {
	return DayScanWithContext(context.Background(), date, lat, lon, resolutionSeconds)
}

// DayScanWithContext is DayScan with OpenTelemetry span instrumentation.
func DayScanWithContext(ctx context.Context, date time.Time, lat, lon float64, resolutionSeconds int) []AltitudeSample {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "solar.DayScan")
	defer span.End()

	span.SetAttributes(
		attribute.Float64("location.latitude", lat),
		attribute.Float64("location.longitude", lon),
		attribute.Int("resolution_seconds", resolutionSeconds),
	)

	year, month, day := date.Date()
	base := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)

	samples := make([]AltitudeSample, 0, 86400/resolutionSeconds+1)
	for sec := 0; sec < 86400; sec += resolutionSeconds {
		instant := base.Add(time.Duration(sec) * time.Second)
		pos := At(instant, lat, lon)
		samples = append(samples, AltitudeSample{Seconds: float64(sec), Altitude: pos.Altitude})
	}

	span.SetAttributes(attribute.Int("sample_count", len(samples)))
	return samples
}

// FindPeak returns the sample with maximum altitude.
func FindPeak(samples []AltitudeSample) AltitudeSample {
	peak := samples[0]
	for _, s := range samples[1:] {
		if s.Altitude > peak.Altitude {
			peak = s
		}
	}
	return peak
}

// FindNadir returns the sample with minimum altitude.
func FindNadir(samples []AltitudeSample) AltitudeSample {
	nadir := samples[0]
	for _, s := range samples[1:] {
		if s.Altitude < nadir.Altitude {
			nadir = s
		}
	}
	return nadir
}

// FindCrossing finds the first interpolated crossing of target altitude in
// the requested direction. ok is false if no such crossing exists.
func FindCrossing(samples []AltitudeSample, target float64, ascending bool) (seconds float64, ok bool) {
	for i := 0; i < len(samples)-1; i++ {
		a, b := samples[i], samples[i+1]
		var crosses bool
		if ascending {
			crosses = a.Altitude <= target && b.Altitude > target
		} else {
			crosses = a.Altitude >= target && b.Altitude < target
		}
		if crosses {
			frac := (target - a.Altitude) / (b.Altitude - a.Altitude)
			return a.Seconds + frac*(b.Seconds-a.Seconds), true
		}
	}
	return 0, false
}

// SecondsToHMS formats seconds-from-midnight as "HH:MM:SS", wrapping
// negative or overflowing values into [0, 86400).
func SecondsToHMS(secs float64) string {
	total := int64(math.Round(secs))
	total = ((total % 86400) + 86400) % 86400
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// NormalizeWave maps an altitude into [0, 1] relative to the day's nadir and
// peak, where 0 = nadir, 1 = peak.
func NormalizeWave(altitude, minAlt, maxAlt float64) float64 {
	amplitude := maxAlt - minAlt
	if math.Abs(amplitude) < 1e-10 {
		return 0.5
	}
	v := (altitude - minAlt) / amplitude
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

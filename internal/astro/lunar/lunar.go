// Package lunar implements the lunar position model from Meeus,
// "Astronomical Algorithms" ch. 47, truncated to the leading terms of
// Tables 47.A and 47.B. This gives roughly 0.3 degree accuracy, which is
// sufficient for crescent visibility scoring and Moon-Sun elongation.
package lunar

import (
	"context"
	"math"
	"time"

	"github.com/yusufkaya/waqt/internal/astro/solar"
	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

const deg = math.Pi / 180.0

// Position is the Moon's ecliptic, equatorial, and horizontal coordinates
// at a specific instant and observer location.
type Position struct {
	Longitude      float64
	Latitude       float64
	DistanceKm     float64
	RightAscension float64
	Declination    float64
	Altitude       float64
	Azimuth        float64
}

// termLR is one row of Table 47.A: coefficients of D, M, M', F and the
// longitude (0.000001 deg) and distance (0.001 km) coefficients.
type termLR struct {
	d, m, mp, f, coeffL, coeffR float64
}

// termB is one row of Table 47.B: coefficients of D, M, M', F and the
// latitude (0.000001 deg) coefficient.
type termB struct {
	d, m, mp, f, coeffB float64
}

var termsLR = [20]termLR{
	{0, 0, 1, 0, 6288774, -20905355},
	{2, 0, -1, 0, 1274027, -3699111},
	{2, 0, 0, 0, 658314, -2955968},
	{0, 0, 2, 0, 213618, -569925},
	{0, 1, 0, 0, -185116, 48888},
	{0, 0, 0, 2, -114332, -3149},
	{2, 0, -2, 0, 58793, 246158},
	{2, -1, -1, 0, 57066, -152138},
	{2, 0, 1, 0, 53322, -170733},
	{2, -1, 0, 0, 45758, -204586},
	{0, 1, -1, 0, -40923, -129620},
	{1, 0, 0, 0, -34720, 108743},
	{0, 1, 1, 0, -30383, 104755},
	{2, 0, 0, -2, 15327, 10321},
	{0, 0, 1, 2, -12528, 0},
	{0, 0, 1, -2, 10980, 79661},
	{4, 0, -1, 0, 10675, -34782},
	{0, 0, 3, 0, 10034, -23210},
	{4, 0, -2, 0, 8548, -21636},
	{2, 1, -1, 0, -7888, 24208},
}

var termsB = [20]termB{
	{0, 0, 0, 1, 5128122},
	{0, 0, 1, 1, 280602},
	{0, 0, 1, -1, 277693},
	{2, 0, 0, -1, 173237},
	{2, 0, -1, 1, 55413},
	{2, 0, -1, -1, 46271},
	{2, 0, 0, 1, 32573},
	{0, 0, 2, 1, 17198},
	{2, 0, 1, -1, 9266},
	{0, 0, 2, -1, 8822},
	{2, -1, 0, -1, 8216},
	{2, 0, -2, -1, 4324},
	{2, 0, 1, 1, 4200},
	{2, 1, 0, -1, -3359},
	{2, -1, -1, 1, 2463},
	{2, -1, 0, 1, 2211},
	{2, -1, -1, -1, 2065},
	{0, 1, -1, -1, -1870},
	{4, 0, -1, -1, 1828},
	{0, 1, 0, 1, -1794},
}

// moonMeanLongitude is L', the Moon's mean longitude, in degrees.
func moonMeanLongitude(t float64) float64 {
	return solar.NormalizeDegrees(218.3164477 + 481267.88123421*t -
		0.0015786*t*t + t*t*t/538841.0 - t*t*t*t/65194000.0)
}

// moonMeanElongation is D, the Moon's mean elongation from the Sun, in
// degrees.
func moonMeanElongation(t float64) float64 {
	return solar.NormalizeDegrees(297.8501921 + 445267.1114034*t -
		0.0018819*t*t + t*t*t/545868.0 - t*t*t*t/113065000.0)
}

// sunMeanAnomaly is M, the Sun's mean anomaly, in degrees. This is the
// higher-precision four-term form Meeus gives for the lunar series; it is
// not the same polynomial the solar package uses for its own equation of
// the center, so it is kept private to this package rather than shared.
func sunMeanAnomaly(t float64) float64 {
	return solar.NormalizeDegrees(357.5291092 + 35999.0502909*t -
		0.0001536*t*t + t*t*t/24490000.0)
}

// moonMeanAnomaly is M', the Moon's mean anomaly, in degrees.
func moonMeanAnomaly(t float64) float64 {
	return solar.NormalizeDegrees(134.9633964 + 477198.8675055*t +
		0.0087414*t*t + t*t*t/69699.0 - t*t*t*t/14712000.0)
}

// moonArgumentOfLatitude is F, the Moon's argument of latitude, in degrees.
func moonArgumentOfLatitude(t float64) float64 {
	return solar.NormalizeDegrees(93.2720950 + 483202.0175233*t -
		0.0036539*t*t - t*t*t/3526000.0 + t*t*t*t/863310000.0)
}

// moonEcliptic sums the truncated Tables 47.A and 47.B series to produce
// the Moon's geocentric ecliptic longitude and latitude, in degrees, and
// its distance from Earth, in km.
func moonEcliptic(t float64) (longitude, latitude, distanceKm float64) {
	lp := moonMeanLongitude(t)
	d := moonMeanElongation(t)
	m := sunMeanAnomaly(t)
	mp := moonMeanAnomaly(t)
	f := moonArgumentOfLatitude(t)

	e := 1.0 - 0.002516*t - 0.0000074*t*t
	e2 := e * e

	var sumL, sumR float64
	for _, term := range termsLR {
		arg := (term.d*d + term.m*m + term.mp*mp + term.f*f) * deg
		eFactor := eFactorFor(term.m, e, e2)
		sumL += term.coeffL * eFactor * math.Sin(arg)
		sumR += term.coeffR * eFactor * math.Cos(arg)
	}

	var sumB float64
	for _, term := range termsB {
		arg := (term.d*d + term.m*m + term.mp*mp + term.f*f) * deg
		eFactor := eFactorFor(term.m, e, e2)
		sumB += term.coeffB * eFactor * math.Sin(arg)
	}

	a1 := solar.NormalizeDegrees(119.75 + 131.849*t)
	a2 := solar.NormalizeDegrees(53.09 + 479264.290*t)
	a3 := solar.NormalizeDegrees(313.45 + 481266.484*t)

	sumL += 3958.0 * math.Sin(a1*deg)
	sumL += 1962.0 * math.Sin((lp-f)*deg)
	sumL += 318.0 * math.Sin(a2*deg)

	sumB += -2235.0 * math.Sin(lp*deg)
	sumB += 382.0 * math.Sin(a3*deg)
	sumB += 175.0 * math.Sin((a1-f)*deg)
	sumB += 175.0 * math.Sin((a1+f)*deg)
	sumB += 127.0 * math.Sin((lp-mp)*deg)
	sumB += -115.0 * math.Sin((lp+mp)*deg)

	longitude = solar.NormalizeDegrees(lp + sumL/1_000_000.0)
	latitude = sumB / 1_000_000.0
	distanceKm = 385000.56 + sumR/1000.0
	return longitude, latitude, distanceKm
}

// eFactorFor returns the Earth-eccentricity correction power appropriate to
// a term's M coefficient: 1 for terms not involving M, e for |M|=1, e^2 for
// |M|=2.
func eFactorFor(mCoeff, e, e2 float64) float64 {
	switch math.Abs(mCoeff) {
	case 1:
		return e
	case 2:
		return e2
	default:
		return 1.0
	}
}

// localSiderealTime returns the local sidereal time, in degrees, for a
// Julian Date and observer longitude.
func localSiderealTime(jd, lon float64) float64 {
	t := solar.JulianCentury(jd)
	gmst := solar.NormalizeDegrees(280.46061837 + 360.98564736629*(jd-2451545.0) +
		0.000387933*t*t - t*t*t/38710000.0)
	return solar.NormalizeDegrees(gmst + lon)
}

// eclipticToEquatorial converts ecliptic longitude/latitude to right
// ascension/declination, all in degrees, given the obliquity of the
// ecliptic.
func eclipticToEquatorial(lon, lat, obliquity float64) (ra, dec float64) {
	lonR := lon * deg
	latR := lat * deg
	oblR := obliquity * deg

	sinRA := math.Sin(lonR)*math.Cos(oblR) - math.Tan(latR)*math.Sin(oblR)
	cosRA := math.Cos(lonR)
	ra = solar.NormalizeDegrees(math.Atan2(sinRA, cosRA) / deg)

	sinDec := math.Sin(latR)*math.Cos(oblR) + math.Cos(latR)*math.Sin(oblR)*math.Sin(lonR)
	dec = solar.ClampAsin(sinDec) / deg

	return ra, dec
}

// equatorialToHorizontal converts right ascension/declination to
// altitude/azimuth, all in degrees, given the observer latitude and local
// sidereal time.
func equatorialToHorizontal(ra, dec, lat, lst float64) (altitude, azimuth float64) {
	ha := solar.NormalizeDegrees(lst-ra) * deg
	decR := dec * deg
	latR := lat * deg

	sinAlt := math.Sin(latR)*math.Sin(decR) + math.Cos(latR)*math.Cos(decR)*math.Cos(ha)
	altR := solar.ClampAsin(sinAlt)
	altitude = altR / deg

	cosAz := (math.Sin(decR) - sinAlt*math.Sin(latR)) / (math.Cos(altR) * math.Cos(latR))
	az := solar.ClampAcos(cosAz) / deg
	if math.Sin(ha) > 0 {
		azimuth = 360.0 - az
	} else {
		azimuth = az
	}

	return altitude, azimuth
}

// topocentricCorrection converts the Moon's geocentric altitude to
// topocentric altitude, using the horizontal parallax implied by its
// geocentric distance. The Moon's parallax is large enough (~1 degree) that
// ignoring it materially shifts rise/set and crescent visibility timing.
func topocentricCorrection(geoAlt, distanceKm float64) float64 {
	hp := math.Asin(6378.14 / distanceKm)
	altR := geoAlt * deg
	parallax := hp * math.Cos(altR)
	return geoAlt - parallax/deg
}

// refractionCorrection applies Bennett's atmospheric refraction formula.
// Below -1 degree apparent altitude the formula is unreliable and skipped,
// matching the day-state scan's treatment of near-horizon samples.
func refractionCorrection(apparentAlt float64) float64 {
	if apparentAlt < -1.0 {
		return apparentAlt
	}
	r := 1.02 / math.Tan((apparentAlt+10.3/(apparentAlt+5.11))*deg)
	return apparentAlt + r/60.0
}

// At computes the full lunar position for a UTC instant and observer
// location.
func At(dt time.Time, lat, lon float64) Position {
	return AtWithContext(context.Background(), dt, lat, lon)
}

// AtWithContext is At with OpenTelemetry span instrumentation.
func AtWithContext(ctx context.Context, dt time.Time, lat, lon float64) Position {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "lunar.At")
	defer span.End()

	jd := solar.JulianDate(dt)
	t := solar.JulianCentury(jd)

	moonLon, moonLat, distance := moonEcliptic(t)
	obliquity := solar.ObliquityCorrected(t)
	ra, dec := eclipticToEquatorial(moonLon, moonLat, obliquity)

	lst := localSiderealTime(jd, lon)
	geoAlt, azimuth := equatorialToHorizontal(ra, dec, lat, lst)

	topoAlt := topocentricCorrection(geoAlt, distance)
	altitude := refractionCorrection(topoAlt)

	span.SetAttributes(
		attribute.Float64("lunar.longitude", moonLon),
		attribute.Float64("lunar.latitude", moonLat),
		attribute.Float64("lunar.distance_km", distance),
		attribute.Float64("lunar.altitude", altitude),
		attribute.Float64("lunar.azimuth", azimuth),
	)

	return Position{
		Longitude:      moonLon,
		Latitude:       moonLat,
		DistanceKm:     distance,
		RightAscension: ra,
		Declination:    dec,
		Altitude:       altitude,
		Azimuth:        azimuth,
	}
}

// Elongation computes the Moon-Sun angular separation at a UTC instant: 0
// degrees at conjunction (new moon), approaching 180 degrees at full moon.
func Elongation(dt time.Time) float64 {
	return ElongationWithContext(context.Background(), dt)
}

// ElongationWithContext is Elongation with OpenTelemetry span
// instrumentation.
func ElongationWithContext(ctx context.Context, dt time.Time) float64 {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "lunar.Elongation")
	defer span.End()

	jd := solar.JulianDate(dt)
	t := solar.JulianCentury(jd)

	moonLon, moonLat, _ := moonEcliptic(t)
	sunLon := solar.EclipticLongitude(dt)

	dLon := (moonLon - sunLon) * deg
	moonLatR := moonLat * deg

	cosElong := math.Cos(moonLatR) * math.Cos(dLon)
	elong := solar.ClampAcos(cosElong) / deg

	span.SetAttributes(attribute.Float64("lunar.elongation", elong))
	return elong
}

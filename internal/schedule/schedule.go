// Package schedule builds a day's prayer schedule from the solar altitude
// curve, classifying the day as Normal, MidnightSun, or PolarNight and
// labeling each event with the method used to derive it. The core rule is
// never to fake a physical event: if the sun does not cross the horizon,
// sunrise and maghrib are None unless the caller opts into projection.
package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/yusufkaya/waqt/internal/astro/solar"
	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

const deg = math.Pi / 180.0

// FajrAngle is the Fajr (astronomical twilight) depression angle, per the
// Muslim World League convention.
const FajrAngle = -18.0

// IshaAngle is the Isha twilight depression angle.
const IshaAngle = -17.0

// GapStrategy controls how missing events in polar states are reported.
type GapStrategy int

const (
	// Strict returns None for events that do not physically occur
	// (science mode).
	Strict GapStrategy = iota
	// Projected45 fills missing sunrise/maghrib by projecting durations
	// from an adaptive reference latitude (user mode; the default).
	Projected45
)

func (g GapStrategy) String() string {
	switch g {
	case Strict:
		return "Strict"
	case Projected45:
		return "Projected45"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders a GapStrategy as its bare name, matching the
// serde tagged-enum JSON the CLI and API consumers expect.
func (g GapStrategy) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// EventMethod records how a PrayerEvent's time was derived.
type EventMethod int

const (
	// MethodStandard is a real horizon crossing or standard angular
	// formula.
	MethodStandard EventMethod = iota
	// MethodVirtual is derived from angular dynamics with no physical
	// horizon crossing.
	MethodVirtual
	// MethodProjected is projected from an adaptive reference latitude
	// (Aqrab al-Bilad).
	MethodProjected
	// MethodNone means the event does not exist physically for this day
	// state.
	MethodNone
)

func (m EventMethod) String() string {
	switch m {
	case MethodStandard:
		return "Standard"
	case MethodVirtual:
		return "Virtual"
	case MethodProjected:
		return "Projected"
	case MethodNone:
		return "None"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders an EventMethod as its bare name.
func (m EventMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// confidence returns the confidence score associated with a method: 1.0
// real, 0.7 virtual, 0.5 projected, 0.0 none.
func (m EventMethod) confidence() float64 {
	switch m {
	case MethodStandard:
		return 1.0
	case MethodVirtual:
		return 0.7
	case MethodProjected:
		return 0.5
	default:
		return 0.0
	}
}

// PrayerEvent is a single prayer event: an optional local time and the
// method used to derive it.
type PrayerEvent struct {
	Time       *string     `json:"time"`
	Method     EventMethod `json:"method"`
	Confidence float64     `json:"confidence"`
	Note       *string     `json:"note,omitempty"`
	NextDay    bool        `json:"next_day,omitempty"`
}

func standardEvent(secs float64) PrayerEvent {
	t := solar.SecondsToHMS(secs)
	return PrayerEvent{Time: &t, Method: MethodStandard, Confidence: MethodStandard.confidence()}
}

func virtualEvent(secs float64) PrayerEvent {
	t := solar.SecondsToHMS(secs)
	return PrayerEvent{Time: &t, Method: MethodVirtual, Confidence: MethodVirtual.confidence()}
}

func noneEvent() PrayerEvent {
	return PrayerEvent{Method: MethodNone, Confidence: MethodNone.confidence()}
}

func projectedEvent(secs float64, note string) PrayerEvent {
	t := solar.SecondsToHMS(secs)
	return PrayerEvent{Time: &t, Method: MethodProjected, Confidence: MethodProjected.confidence(), Note: &note}
}

// SecondsOr returns the event's time in seconds-from-midnight, or def if
// the event has no time.
func (e PrayerEvent) SecondsOr(def float64) float64 {
	if e.Time == nil {
		return def
	}
	s, err := hmsToSeconds(*e.Time)
	if err != nil {
		return def
	}
	return s
}

func hmsToSeconds(hms string) (float64, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(hms, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0, err
	}
	return float64(h)*3600 + float64(m)*60 + float64(s), nil
}

// DayState classifies how the sun behaves over a civil day at a given
// latitude.
type DayState int

const (
	// Normal is a day where the sun both rises and sets.
	Normal DayState = iota
	// MidnightSun is a day where the sun never sets.
	MidnightSun
	// PolarNight is a day where the sun never rises.
	PolarNight
)

func (s DayState) String() string {
	switch s {
	case Normal:
		return "Normal"
	case MidnightSun:
		return "MidnightSun"
	case PolarNight:
		return "PolarNight"
	default:
		return "Unknown"
	}
}

// MarshalJSON renders a DayState the way serde renders a Rust unit
// enum variant: as its bare name, not its ordinal.
func (s DayState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Events holds the six daily prayer events.
type Events struct {
	Fajr    PrayerEvent `json:"fajr"`
	Sunrise PrayerEvent `json:"sunrise"`
	Dhuhr   PrayerEvent `json:"dhuhr"`
	Asr     PrayerEvent `json:"asr"`
	Maghrib PrayerEvent `json:"maghrib"`
	Isha    PrayerEvent `json:"isha"`
}

// SolarInfo summarizes the day's altitude extremes.
type SolarInfo struct {
	MaxAltitude float64 `json:"max_altitude"`
	MinAltitude float64 `json:"min_altitude"`
	PeakUTC     string  `json:"peak_utc"`
	NadirUTC    string  `json:"nadir_utc"`
}

// Schedule is a complete day's prayer schedule with method metadata.
type Schedule struct {
	State  DayState `json:"state"`
	Events Events   `json:"events"`
	Solar  SolarInfo `json:"solar"`
}

// ClassifyDay determines the DayState from a day's altitude samples.
func ClassifyDay(samples []solar.AltitudeSample) DayState {
	hasAbove, hasBelow := false, false
	for _, s := range samples {
		if s.Altitude > solar.HorizonAngle {
			hasAbove = true
		}
		if s.Altitude < solar.HorizonAngle {
			hasBelow = true
		}
	}
	switch {
	case hasAbove && hasBelow:
		return Normal
	case hasAbove:
		return MidnightSun
	default:
		return PolarNight
	}
}

// standardAsrAltitude is the geometric shadow-of-object-plus-one Asr
// altitude, derived from the solar noon zenith angle via
// alt_asr = atan(1 / (1 + tan(90 - peak))).
func standardAsrAltitude(peakAltitude float64) float64 {
	zNoon := (90.0 - peakAltitude) * deg
	denom := 1.0 + math.Tan(zNoon)
	if denom <= 0 {
		return 0
	}
	return math.Atan(1.0/denom) / deg
}

// virtualAsrSeconds computes Asr when the standard altitude is never
// reached, by descending the normalized wave to the ratio a 55-degree peak
// day (the Mecca baseline) would place Asr at.
func virtualAsrSeconds(samples []solar.AltitudeSample, peak, nadir solar.AltitudeSample) float64 {
	const referencePeak = 55.0
	referenceAsr := standardAsrAltitude(referencePeak)
	asrRatio := referenceAsr / referencePeak

	target := nadir.Altitude + (peak.Altitude-nadir.Altitude)*asrRatio

	afterPeak := make([]solar.AltitudeSample, 0, len(samples))
	for _, s := range samples {
		if s.Seconds >= peak.Seconds {
			afterPeak = append(afterPeak, s)
		}
	}

	for i := 0; i < len(afterPeak)-1; i++ {
		a, b := afterPeak[i], afterPeak[i+1]
		if a.Altitude >= target && b.Altitude < target {
			frac := (target - a.Altitude) / (b.Altitude - a.Altitude)
			return a.Seconds + frac*(b.Seconds-a.Seconds)
		}
	}

	halfCycle := wrappedDuration(peak.Seconds, nadir.Seconds)
	return math.Mod(peak.Seconds+halfCycle*0.55, 86400.0)
}

// waveMappedTime maps a twilight angle to a time using the day's
// altitude wave normalized to [0, 1], so the mapping preserves the
// sinusoidal shape instead of interpolating linearly in time.
func waveMappedTime(samples []solar.AltitudeSample, peak, nadir solar.AltitudeSample, targetAngle float64, ascending bool) float64 {
	if secs, ok := solar.FindCrossing(samples, targetAngle, ascending); ok {
		return secs
	}

	normTarget := solar.NormalizeWave(targetAngle, nadir.Altitude, peak.Altitude)
	mappedAlt := nadir.Altitude + normTarget*(peak.Altitude-nadir.Altitude)

	if ascending {
		start := nadir.Seconds
		var candidates []solar.AltitudeSample
		if peak.Seconds > nadir.Seconds {
			for _, s := range samples {
				if s.Seconds >= start && s.Seconds <= peak.Seconds {
					candidates = append(candidates, s)
				}
			}
		} else {
			for _, s := range samples {
				if s.Seconds >= start || s.Seconds <= peak.Seconds {
					candidates = append(candidates, s)
				}
			}
		}
		for i := 0; i < len(candidates)-1; i++ {
			a, b := candidates[i], candidates[i+1]
			if a.Altitude <= mappedAlt && b.Altitude > mappedAlt {
				frac := (mappedAlt - a.Altitude) / (b.Altitude - a.Altitude)
				return a.Seconds + frac*(b.Seconds-a.Seconds)
			}
		}
	} else {
		var candidates []solar.AltitudeSample
		if nadir.Seconds > peak.Seconds {
			for _, s := range samples {
				if s.Seconds >= peak.Seconds && s.Seconds <= nadir.Seconds {
					candidates = append(candidates, s)
				}
			}
		} else {
			for _, s := range samples {
				if s.Seconds >= peak.Seconds || s.Seconds <= nadir.Seconds {
					candidates = append(candidates, s)
				}
			}
		}
		for i := 0; i < len(candidates)-1; i++ {
			a, b := candidates[i], candidates[i+1]
			if a.Altitude >= mappedAlt && b.Altitude < mappedAlt {
				frac := (mappedAlt - a.Altitude) / (b.Altitude - a.Altitude)
				return a.Seconds + frac*(b.Seconds-a.Seconds)
			}
		}
	}

	half := wrappedDuration(nadir.Seconds, peak.Seconds)
	if ascending {
		return math.Mod(nadir.Seconds+half*normTarget, 86400.0)
	}
	return math.Mod(peak.Seconds+half*(1.0-normTarget), 86400.0)
}

func wrappedDuration(from, to float64) float64 {
	if to > from {
		return to - from
	}
	return to + 86400.0 - from
}

// ComputeReferenceLat computes the adaptive Aqrab al-Bilad reference
// latitude used to project sunrise/maghrib when they don't physically
// occur: tropical latitudes (<30 deg) fall back to a fixed 45 deg,
// temperate latitudes (30-60 deg) use the observer's own latitude, and
// polar latitudes (>60 deg) step back 15 deg toward the temperate zone.
func ComputeReferenceLat(lat float64) float64 {
	absLat := math.Abs(lat)
	var refAbs float64
	switch {
	case absLat < 30.0:
		refAbs = 45.0
	case absLat < 60.0:
		refAbs = absLat
	default:
		refAbs = absLat - 15.0
	}
	if lat >= 0 {
		return refAbs
	}
	return -refAbs
}

func applyProjection(events *Events, date time.Time, lat, lon float64) {
	refLat := ComputeReferenceLat(lat)

	refSamples := solar.DayScan(date, refLat, lon, 30)
	refPeak := solar.FindPeak(refSamples)

	refSunrise, srOK := solar.FindCrossing(refSamples, solar.HorizonAngle, true)
	refSunset, ssOK := solar.FindCrossing(refSamples, solar.HorizonAngle, false)
	if !srOK || !ssOK {
		return
	}

	refNoon := refPeak.Seconds
	morningDuration := wrappedDuration(refSunrise, refNoon)
	eveningDuration := wrappedDuration(refNoon, refSunset)

	localSamples := solar.DayScan(date, lat, lon, 30)
	localPeak := solar.FindPeak(localSamples)
	localNoon := localPeak.Seconds

	note := fmt.Sprintf("Adaptive projection anchored to %.1f° reference latitude", refLat)

	if events.Sunrise.Method == MethodNone {
		projectedSunrise := math.Mod(math.Mod(localNoon-morningDuration, 86400.0)+86400.0, 86400.0)
		events.Sunrise = projectedEvent(projectedSunrise, note)
	}
	if events.Maghrib.Method == MethodNone {
		projectedMaghrib := math.Mod(localNoon+eveningDuration, 86400.0)
		events.Maghrib = projectedEvent(projectedMaghrib, note)
	}
}

func buildNormal(samples []solar.AltitudeSample, peak, nadir solar.AltitudeSample) Events {
	sunriseSecs, ok := solar.FindCrossing(samples, solar.HorizonAngle, true)
	if !ok {
		sunriseSecs = peak.Seconds - 6.0*3600.0
	}
	sunsetSecs, ok := solar.FindCrossing(samples, solar.HorizonAngle, false)
	if !ok {
		sunsetSecs = peak.Seconds + 6.0*3600.0
	}

	dhuhrSecs := peak.Seconds

	asrAlt := standardAsrAltitude(peak.Altitude)
	asrSecs, ok := solar.FindCrossing(samples, asrAlt, false)
	if !ok {
		asrSecs = virtualAsrSeconds(samples, peak, nadir)
	}

	fajrSecs := waveMappedTime(samples, peak, nadir, FajrAngle, true)
	ishaSecs := waveMappedTime(samples, peak, nadir, IshaAngle, false)

	_, fajrStandard := solar.FindCrossing(samples, FajrAngle, true)
	_, ishaStandard := solar.FindCrossing(samples, IshaAngle, false)

	fajrMethod := MethodVirtual
	if fajrStandard {
		fajrMethod = MethodStandard
	}
	ishaMethod := MethodVirtual
	if ishaStandard {
		ishaMethod = MethodStandard
	}

	fajrTime := solar.SecondsToHMS(fajrSecs)
	ishaTime := solar.SecondsToHMS(ishaSecs)

	return Events{
		Fajr:    PrayerEvent{Time: &fajrTime, Method: fajrMethod, Confidence: fajrMethod.confidence()},
		Sunrise: standardEvent(sunriseSecs),
		Dhuhr:   standardEvent(dhuhrSecs),
		Asr:     standardEvent(asrSecs),
		Maghrib: standardEvent(sunsetSecs),
		Isha:    PrayerEvent{Time: &ishaTime, Method: ishaMethod, Confidence: ishaMethod.confidence()},
	}
}

func buildMidnightSun(samples []solar.AltitudeSample, peak, nadir solar.AltitudeSample) Events {
	dhuhrSecs := peak.Seconds

	asrAlt := standardAsrAltitude(peak.Altitude)
	asrSecs, asrStandard := solar.FindCrossing(samples, asrAlt, false)
	if !asrStandard {
		asrSecs = virtualAsrSeconds(samples, peak, nadir)
	}
	asrMethod := MethodVirtual
	if asrStandard {
		asrMethod = MethodStandard
	}

	fajrSecs := waveMappedTime(samples, peak, nadir, FajrAngle, true)
	ishaSecs := waveMappedTime(samples, peak, nadir, IshaAngle, false)

	asrTime := solar.SecondsToHMS(asrSecs)

	return Events{
		Fajr:    virtualEvent(fajrSecs),
		Sunrise: noneEvent(),
		Dhuhr:   standardEvent(dhuhrSecs),
		Asr:     PrayerEvent{Time: &asrTime, Method: asrMethod, Confidence: asrMethod.confidence()},
		Maghrib: noneEvent(),
		Isha:    virtualEvent(ishaSecs),
	}
}

func buildPolarNight(samples []solar.AltitudeSample, peak, nadir solar.AltitudeSample) Events {
	dhuhrSecs := peak.Seconds

	fajrSecs := waveMappedTime(samples, peak, nadir, FajrAngle, true)
	ishaSecs := waveMappedTime(samples, peak, nadir, IshaAngle, false)

	afternoon := wrappedDuration(dhuhrSecs, ishaSecs)
	asrSecs := math.Mod(dhuhrSecs+afternoon*0.55, 86400.0)

	return Events{
		Fajr:    virtualEvent(fajrSecs),
		Sunrise: noneEvent(),
		Dhuhr:   virtualEvent(dhuhrSecs),
		Asr:     virtualEvent(asrSecs),
		Maghrib: noneEvent(),
		Isha:    virtualEvent(ishaSecs),
	}
}

// DayScanSamples returns the raw altitude samples for a date, exposed for
// debug-wave rendering.
func DayScanSamples(date time.Time, lat, lon float64) []solar.AltitudeSample {
	return solar.DayScan(date, lat, lon, 30)
}

// Compute builds the full prayer schedule for a civil date and location.
func Compute(date time.Time, lat, lon float64, strategy GapStrategy) Schedule {
	return ComputeWithContext(context.Background(), date, lat, lon, strategy)
}

// ComputeWithContext is Compute with OpenTelemetry span instrumentation.
func ComputeWithContext(ctx context.Context, date time.Time, lat, lon float64, strategy GapStrategy) Schedule {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "schedule.Compute")
	defer span.End()

	samples := solar.DayScan(date, lat, lon, 30)
	peak := solar.FindPeak(samples)
	nadir := solar.FindNadir(samples)
	state := ClassifyDay(samples)

	solarInfo := SolarInfo{
		MaxAltitude: peak.Altitude,
		MinAltitude: nadir.Altitude,
		PeakUTC:     solar.SecondsToHMS(peak.Seconds),
		NadirUTC:    solar.SecondsToHMS(nadir.Seconds),
	}

	var events Events
	switch state {
	case Normal:
		events = buildNormal(samples, peak, nadir)
	case MidnightSun:
		events = buildMidnightSun(samples, peak, nadir)
	case PolarNight:
		events = buildPolarNight(samples, peak, nadir)
	}

	if strategy == Projected45 && state != Normal {
		applyProjection(&events, date, lat, lon)
	}

	span.SetAttributes(
		attribute.String("schedule.state", state.String()),
		attribute.String("schedule.strategy", strategy.String()),
		attribute.Float64("schedule.max_altitude", solarInfo.MaxAltitude),
		attribute.Float64("schedule.min_altitude", solarInfo.MinAltitude),
	)

	return Schedule{State: state, Events: events, Solar: solarInfo}
}

// Package solver is the primary façade over the rest of the engine: it
// wires location, timezone, and gap-strategy preferences together,
// converts the UTC schedule into local time, and renders both
// structured output and an ASCII timeline for CLI use.
package solver

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yusufkaya/waqt/internal/location"
	"github.com/yusufkaya/waqt/internal/observability"
	"github.com/yusufkaya/waqt/internal/schedule"
	"go.opentelemetry.io/otel/attribute"
)

// InvalidInputError marks a boundary-layer input that fails validation
// before any computation is attempted.
type InvalidInputError struct{ Msg string }

func (e *InvalidInputError) Error() string { return e.Msg }

// Location is a validated lat/lon pair.
type Location struct {
	Lat float64
	Lon float64
}

// NewLocation validates and constructs a Location. Latitude must be in
// [-90, 90] and longitude in [-180, 180].
func NewLocation(lat, lon float64) (Location, error) {
	if lat < -90.0 || lat > 90.0 {
		return Location{}, &InvalidInputError{Msg: "latitude must be between -90 and 90"}
	}
	if lon < -180.0 || lon > 180.0 {
		return Location{}, &InvalidInputError{Msg: "longitude must be between -180 and 180"}
	}
	return Location{Lat: lat, Lon: lon}, nil
}

// SolverOutput is the full structured result of a solve: resolved
// location metadata, the day's classification and events, and
// optional current-state/debug sections.
type SolverOutput struct {
	Location    LocationInfo        `json:"location"`
	Date        string              `json:"date"`
	State       schedule.DayState   `json:"state"`
	GapStrategy schedule.GapStrategy `json:"gap_strategy"`
	Events      schedule.Events     `json:"events"`
	Solar       schedule.SolarInfo  `json:"solar"`
	Current     *CurrentState       `json:"current,omitempty"`
	WaveDebug   *WaveDebug          `json:"wave_debug,omitempty"`
}

// LocationInfo is the resolved location metadata attached to a
// SolverOutput.
type LocationInfo struct {
	Name                string          `json:"name"`
	Latitude            float64         `json:"latitude"`
	Longitude           float64         `json:"longitude"`
	Timezone            string          `json:"timezone"`
	TZLabel             string          `json:"tz_label"`
	Source              location.Source `json:"source"`
	CountryCode         string          `json:"country_code,omitempty"`
	Country             string          `json:"country,omitempty"`
	FormattedCoords     string          `json:"formatted_coords"`
	ResolvedConfidence  float64         `json:"resolved_confidence"`
	Disambiguated       bool            `json:"disambiguated,omitempty"`
	DisambiguationNote  string          `json:"disambiguation_note,omitempty"`
}

// CurrentState is the current/next prayer, shown in --now mode.
type CurrentState struct {
	Prayer           string `json:"prayer"`
	Next             string `json:"next"`
	RemainingMinutes int64  `json:"remaining_minutes"`
}

// WaveDebug is the raw altitude curve, shown in --debug-wave mode.
type WaveDebug struct {
	SampleCount int       `json:"sample_count"`
	PeakIndex   int       `json:"peak_index"`
	NadirIndex  int       `json:"nadir_index"`
	Altitudes   []float64 `json:"altitudes"`
}

// Solver ties a location, timezone, and gap strategy together to
// produce local-time prayer schedules.
type Solver struct {
	location Location
	tz       *time.Location
	tzName   string
	strategy schedule.GapStrategy
}

// New builds a Solver for an explicit location and timezone.
func New(loc Location, tz *time.Location) *Solver {
	return &Solver{location: loc, tz: tz, tzName: tz.String(), strategy: schedule.Projected45}
}

// WithUTC builds a Solver that reports times in UTC.
func WithUTC(loc Location) *Solver {
	return New(loc, time.UTC)
}

// FromResolved builds a Solver from a resolved location, parsing its
// IANA timezone name; an unparseable timezone falls back to UTC rather
// than failing the whole resolution.
func FromResolved(resolved location.ResolvedLocation) *Solver {
	loc, err := NewLocation(resolved.Lat, resolved.Lon)
	if err != nil {
		loc = Location{Lat: resolved.Lat, Lon: resolved.Lon}
	}
	tz, err := time.LoadLocation(resolved.TZ)
	if err != nil {
		tz = time.UTC
	}
	return New(loc, tz)
}

// WithStrategy returns a copy of the Solver using the given gap
// strategy.
func (s *Solver) WithStrategy(strategy schedule.GapStrategy) *Solver {
	out := *s
	out.strategy = strategy
	return &out
}

// Solve computes a SolverOutput with no resolved-location metadata
// (the location is reported as bare coordinates).
func (s *Solver) Solve(date time.Time, nowMode, debugWave bool) SolverOutput {
	return s.SolveWithInfo(date, nowMode, debugWave, nil)
}

// SolveWithInfo computes a SolverOutput, attaching full location
// metadata when a ResolvedLocation is supplied.
func (s *Solver) SolveWithInfo(date time.Time, nowMode, debugWave bool, resolved *location.ResolvedLocation) SolverOutput {
	return s.SolveWithInfoContext(context.Background(), date, nowMode, debugWave, resolved)
}

// SolveWithInfoContext is SolveWithInfo with OpenTelemetry span
// instrumentation.
func (s *Solver) SolveWithInfoContext(ctx context.Context, date time.Time, nowMode, debugWave bool, resolved *location.ResolvedLocation) SolverOutput {
	observer := observability.Observer()
	ctx, span := observer.CreateSpan(ctx, "solver.Solve")
	defer span.End()

	sched := schedule.ComputeWithContext(ctx, date, s.location.Lat, s.location.Lon, s.strategy)

	span.SetAttributes(
		attribute.String("solver.date", date.Format("2006-01-02")),
		attribute.String("solver.timezone", s.tzName),
		attribute.Bool("solver.now_mode", nowMode),
	)

	return s.AssembleOutput(date, nowMode, debugWave, resolved, sched)
}

// AssembleOutput converts a precomputed UTC Schedule into local time
// and attaches location metadata, current-state, and wave-debug
// sections, the same post-processing SolveWithInfoContext does after
// calling schedule.ComputeWithContext, split out so a caller holding a
// cached Schedule (keyed on date/lat/lon/strategy, which is
// timezone-independent) can skip recomputation.
func (s *Solver) AssembleOutput(date time.Time, nowMode, debugWave bool, resolved *location.ResolvedLocation, sched schedule.Schedule) SolverOutput {
	offsetSecs := s.utcOffsetSeconds(date)
	events := s.convertEvents(sched.Events, offsetSecs)

	var current *CurrentState
	if nowMode {
		current = s.detectCurrent(events, offsetSecs)
	}

	var waveDebug *WaveDebug
	if debugWave {
		wd := s.buildWaveDebug(date)
		waveDebug = &wd
	}

	return SolverOutput{
		Location:    s.locationInfo(resolved),
		Date:        date.Format("2006-01-02"),
		State:       sched.State,
		GapStrategy: s.strategy,
		Events:      events,
		Solar:       sched.Solar,
		Current:     current,
		WaveDebug:   waveDebug,
	}
}

func (s *Solver) locationInfo(resolved *location.ResolvedLocation) LocationInfo {
	tzLabel := fmt.Sprintf("%s (Local Time)", s.tzName)

	if resolved == nil {
		return LocationInfo{
			Name:               fmt.Sprintf("%.4f, %.4f", s.location.Lat, s.location.Lon),
			Latitude:           s.location.Lat,
			Longitude:          s.location.Lon,
			Timezone:           s.tzName,
			TZLabel:            tzLabel,
			Source:             location.SourceManual,
			FormattedCoords:    location.FormatCoords(s.location.Lat, s.location.Lon),
			ResolvedConfidence: 1.0,
		}
	}

	country := ""
	if resolved.CountryCode != "" {
		if name := location.CountryDisplayName(resolved.CountryCode); name != resolved.CountryCode {
			country = name
		}
	}

	return LocationInfo{
		Name:               resolved.Name,
		Latitude:           resolved.Lat,
		Longitude:          resolved.Lon,
		Timezone:           s.tzName,
		TZLabel:            tzLabel,
		Source:             resolved.Source,
		CountryCode:        resolved.CountryCode,
		Country:            country,
		FormattedCoords:    location.FormatCoords(resolved.Lat, resolved.Lon),
		ResolvedConfidence: resolved.ResolverConfidence,
		Disambiguated:      resolved.Disambiguated,
		DisambiguationNote: resolved.DisambiguationNote,
	}
}

// utcOffsetSeconds is the UTC offset, in seconds, this solver's
// timezone observes at local noon on the given date (computed at
// noon rather than midnight so a DST transition at midnight doesn't
// pick the wrong side of the jump).
func (s *Solver) utcOffsetSeconds(date time.Time) int64 {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, s.tz)
	_, offset := noon.Zone()
	return int64(offset)
}

func (s *Solver) convertEvents(events schedule.Events, offsetSecs int64) schedule.Events {
	return schedule.Events{
		Fajr:    s.convertEvent(events.Fajr, offsetSecs),
		Sunrise: s.convertEvent(events.Sunrise, offsetSecs),
		Dhuhr:   s.convertEvent(events.Dhuhr, offsetSecs),
		Asr:     s.convertEvent(events.Asr, offsetSecs),
		Maghrib: s.convertEvent(events.Maghrib, offsetSecs),
		Isha:    s.convertEvent(events.Isha, offsetSecs),
	}
}

func (s *Solver) convertEvent(event schedule.PrayerEvent, offsetSecs int64) schedule.PrayerEvent {
	nextDay := false
	var localTime *string
	if event.Time != nil {
		utcSecs := hmsToSecs(*event.Time)
		localSecs := utcSecs + float64(offsetSecs)
		if localSecs >= 86400.0 {
			nextDay = true
		}
		t := wrapSecondsToHMS(localSecs)
		localTime = &t
	}

	note := event.Note
	if nextDay {
		if note != nil {
			combined := fmt.Sprintf("%s (next day)", *note)
			note = &combined
		} else {
			n := "next day"
			note = &n
		}
	}

	return schedule.PrayerEvent{
		Time:       localTime,
		Method:     event.Method,
		Confidence: event.Confidence,
		Note:       note,
		NextDay:    nextDay,
	}
}

// detectCurrent finds the prayer period the current UTC instant falls
// into, in this solver's local time, by a circular search over the
// day's timed events.
func (s *Solver) detectCurrent(localEvents schedule.Events, offsetSecs int64) *CurrentState {
	nowUTC := time.Now().UTC()
	nowLocalSecs := float64(nowUTC.Hour())*3600.0 + float64(nowUTC.Minute())*60.0 + float64(nowUTC.Second()) + float64(offsetSecs)
	nowLocalSecs = wrapSeconds(nowLocalSecs)

	type named struct {
		name string
		secs float64
	}
	prayerList := []struct {
		name  string
		event schedule.PrayerEvent
	}{
		{"Fajr", localEvents.Fajr},
		{"Sunrise", localEvents.Sunrise},
		{"Dhuhr", localEvents.Dhuhr},
		{"Asr", localEvents.Asr},
		{"Maghrib", localEvents.Maghrib},
		{"Isha", localEvents.Isha},
	}

	var timed []named
	for _, p := range prayerList {
		if p.event.Time != nil {
			timed = append(timed, named{p.name, hmsToSecs(*p.event.Time)})
		}
	}
	if len(timed) == 0 {
		return nil
	}

	currentPrayer := timed[len(timed)-1].name
	nextPrayer := timed[0].name
	nextSecs := timed[0].secs + 86400.0

	for i := range timed {
		if nowLocalSecs < timed[i].secs {
			nextPrayer = timed[i].name
			nextSecs = timed[i].secs
			if i > 0 {
				currentPrayer = timed[i-1].name
			} else {
				currentPrayer = timed[len(timed)-1].name
			}
			break
		}
		if i == len(timed)-1 {
			currentPrayer = timed[i].name
			nextPrayer = timed[0].name
			nextSecs = timed[0].secs + 86400.0
		}
	}

	remaining := int64((nextSecs - nowLocalSecs) / 60.0)
	if remaining < 0 {
		remaining = 0
	}

	return &CurrentState{Prayer: currentPrayer, Next: nextPrayer, RemainingMinutes: remaining}
}

func (s *Solver) buildWaveDebug(date time.Time) WaveDebug {
	samples := schedule.DayScanSamples(date, s.location.Lat, s.location.Lon)

	peakIdx, nadirIdx := 0, 0
	for i, sample := range samples {
		if sample.Altitude > samples[peakIdx].Altitude {
			peakIdx = i
		}
		if sample.Altitude < samples[nadirIdx].Altitude {
			nadirIdx = i
		}
	}

	// 30-second-resolution samples, compressed to ~10-minute intervals.
	altitudes := make([]float64, 0, len(samples)/20+1)
	for i := 0; i < len(samples); i += 20 {
		altitudes = append(altitudes, round2(samples[i].Altitude))
	}

	return WaveDebug{
		SampleCount: len(samples),
		PeakIndex:   peakIdx,
		NadirIndex:  nadirIdx,
		Altitudes:   altitudes,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func hmsToSecs(hms string) float64 {
	var h, m, sec int
	if _, err := fmt.Sscanf(hms, "%d:%d:%d", &h, &m, &sec); err != nil {
		return 0
	}
	return float64(h)*3600 + float64(m)*60 + float64(sec)
}

func wrapSeconds(secs float64) float64 {
	const day = 86400.0
	r := secs
	for r < 0 {
		r += day
	}
	for r >= day {
		r -= day
	}
	return r
}

// wrapSecondsToHMS formats seconds-since-midnight as HH:MM:SS,
// wrapping into the next day rather than overflowing the hour field.
func wrapSecondsToHMS(secs float64) string {
	wrapped := wrapSeconds(secs)
	h := int(wrapped) / 3600
	m := (int(wrapped) % 3600) / 60
	sec := int(wrapped) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
}

const timelineBarWidth = 60

type timelineItem struct {
	label string
	event schedule.PrayerEvent
}

// RenderASCIITimeline draws a 60-column box-drawing timeline bar for a
// day's events, with an event list below showing method tags ([V],
// [P], [N/A]) and, when requested, each event's confidence.
func RenderASCIITimeline(events schedule.Events, state schedule.DayState, strategy schedule.GapStrategy, showConfidence bool) string {
	var out string

	if state != schedule.Normal {
		out += fmt.Sprintf("  Solar Day: %s (Gap Strategy: %s)\n", state, strategy)
	} else {
		out += fmt.Sprintf("  Solar Day: %s\n", state)
	}
	out += "  ╔══════════════════════════════════════════════════════════════╗\n"

	items := []timelineItem{
		{"Fajr    ", events.Fajr},
		{"Sunrise ", events.Sunrise},
		{"Dhuhr   ", events.Dhuhr},
		{"Asr     ", events.Asr},
		{"Maghrib ", events.Maghrib},
		{"Isha    ", events.Isha},
	}

	type marker struct {
		pos   int
		label string
	}
	var markers []marker
	for _, item := range items {
		if item.event.Time != nil {
			secs := hmsToSecs(*item.event.Time)
			pos := int((secs / 86400.0) * float64(timelineBarWidth))
			if pos >= timelineBarWidth {
				pos = timelineBarWidth - 1
			}
			markers = append(markers, marker{pos, strings.TrimSpace(item.label)})
		}
	}

	bar := make([]rune, timelineBarWidth)
	for i := range bar {
		bar[i] = '─'
	}
	for _, mk := range markers {
		bar[mk.pos] = '│'
	}
	out += "  ║ " + string(bar) + " ║\n"

	labelLine := make([]rune, timelineBarWidth)
	for i := range labelLine {
		labelLine[i] = ' '
	}
	for _, mk := range markers {
		if len(mk.label) > 0 {
			labelLine[mk.pos] = rune(mk.label[0])
		}
	}
	out += "  ║ " + string(labelLine) + " ║\n"

	out += "  ╠══════════════════════════════════════════════════════════════╣\n"

	for _, item := range items {
		label := strings.TrimSpace(item.label)
		timeStr := "────────"
		if item.event.Time != nil {
			timeStr = *item.event.Time
			if item.event.NextDay {
				timeStr += " (+1d)"
			}
		}

		methodTag := ""
		switch item.event.Method {
		case schedule.MethodVirtual:
			methodTag = " [V]"
		case schedule.MethodProjected:
			methodTag = " [P]"
		case schedule.MethodNone:
			methodTag = " [N/A]"
		}

		confTag := ""
		if showConfidence && item.event.Method != schedule.MethodStandard {
			confTag = fmt.Sprintf(" (%.1f)", item.event.Confidence)
		}

		line := fmt.Sprintf("  ║  %s %s%s%s", label, timeStr, methodTag, confTag)
		lineLen := 4 + len(label) + 1 + len(timeStr) + len(methodTag) + len(confTag)
		pad := 1
		if 64 > lineLen {
			pad = 64 - lineLen
		}
		out += line + strings.Repeat(" ", pad) + "║\n"
	}

	out += "  ╚══════════════════════════════════════════════════════════════╝\n"
	out += "  00:00          06:00          12:00          18:00       23:59\n"

	return out
}


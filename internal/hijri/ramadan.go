package hijri

import (
	"context"
	"time"

	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// RamadanInfo is the resolved start/end of a Hijri year's Ramadan, the
// conjunction it was anchored on, and the crescent visibility that
// confirmed it.
type RamadanInfo struct {
	HijriYear    int                `json:"hijri_year"`
	Start        string             `json:"start"`
	End          string             `json:"end"`
	Days         int                `json:"days"`
	Conjunction  string             `json:"conjunction"`
	Visibility   CrescentVisibility `json:"visibility"`
	ShawwalStart string             `json:"shawwal_start"`
}

// FindRamadan determines Ramadan's start and end for a Hijri year and
// observer location: seed from the tabular calendar, locate the nearest
// astronomical conjunction, then scan up to 5 evenings for the first
// visible crescent (Zone A or B). Ramadan 1 is the day after the first
// such evening. Falls back to conjunction+2 days if no evening in the
// window is visible.
func FindRamadan(hijriYear int, lat, lon float64) RamadanInfo {
	return FindRamadanWithContext(context.Background(), hijriYear, lat, lon)
}

// FindRamadanWithContext is FindRamadan with OpenTelemetry span
// instrumentation.
func FindRamadanWithContext(ctx context.Context, hijriYear int, lat, lon float64) RamadanInfo {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "hijri.FindRamadan")
	defer span.End()

	tabularStart := HijriToGregorian(Date{Year: hijriYear, Month: 9, Day: 1})
	searchDate := tabularStart.AddDate(0, 0, -3)
	conjunction := FindConjunction(searchDate)

	conjDate := time.Date(conjunction.Year(), conjunction.Month(), conjunction.Day(), 0, 0, 0, 0, time.UTC)
	var ramadanStart time.Time
	found := false

	for dayOffset := 0; dayOffset < 5; dayOffset++ {
		checkDate := conjDate.AddDate(0, 0, dayOffset)
		vis := EvaluateVisibility(checkDate, lat, lon, conjunction)
		if vis.Zone == ZoneA || vis.Zone == ZoneB {
			ramadanStart = checkDate.AddDate(0, 0, 1)
			found = true
			break
		}
	}

	ramadan1 := ramadanStart
	if !found {
		ramadan1 = conjDate.AddDate(0, 0, 2)
	}

	shawwalSearch := ramadan1.AddDate(0, 0, 25)
	shawwalConjunction := FindConjunction(shawwalSearch)

	shawwalConjDate := time.Date(shawwalConjunction.Year(), shawwalConjunction.Month(), shawwalConjunction.Day(), 0, 0, 0, 0, time.UTC)
	var shawwalStart time.Time
	shawwalFound := false

	for dayOffset := 0; dayOffset < 5; dayOffset++ {
		checkDate := shawwalConjDate.AddDate(0, 0, dayOffset)
		vis := EvaluateVisibility(checkDate, lat, lon, shawwalConjunction)
		if vis.Zone == ZoneA || vis.Zone == ZoneB {
			shawwalStart = checkDate.AddDate(0, 0, 1)
			shawwalFound = true
			break
		}
	}

	shawwal1 := shawwalStart
	if !shawwalFound {
		shawwal1 = shawwalConjDate.AddDate(0, 0, 2)
	}

	ramadanDays := int(shawwal1.Sub(ramadan1).Hours() / 24)
	ramadanEnd := ramadan1.AddDate(0, 0, ramadanDays-1)

	visEvening := ramadan1.AddDate(0, 0, -1)
	visibility := EvaluateVisibility(visEvening, lat, lon, conjunction)

	span.SetAttributes(
		attribute.Int("hijri.year", hijriYear),
		attribute.String("hijri.ramadan_start", ramadan1.Format("2006-01-02")),
		attribute.Int("hijri.ramadan_days", ramadanDays),
	)

	return RamadanInfo{
		HijriYear:    hijriYear,
		Start:        ramadan1.Format("2006-01-02"),
		End:          ramadanEnd.Format("2006-01-02"),
		Days:         ramadanDays,
		Conjunction:  conjunction.Format("2006-01-02 15:04 UTC"),
		Visibility:   visibility,
		ShawwalStart: shawwal1.Format("2006-01-02"),
	}
}

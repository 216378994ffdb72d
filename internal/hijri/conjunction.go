package hijri

import (
	"context"
	"time"

	"github.com/yusufkaya/waqt/internal/astro/lunar"
	"github.com/yusufkaya/waqt/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// FindConjunction locates the new-moon conjunction nearest to a given
// date: a coarse +/-20-day scan for the sign change in the Moon-Sun
// elongation's descent, followed by a halving-step refinement around the
// minimum.
func FindConjunction(nearDate time.Time) time.Time {
	return FindConjunctionWithContext(context.Background(), nearDate)
}

// FindConjunctionWithContext is FindConjunction with OpenTelemetry span
// instrumentation.
func FindConjunctionWithContext(ctx context.Context, nearDate time.Time) time.Time {
	observer := observability.Observer()
	_, span := observer.CreateSpan(ctx, "hijri.FindConjunction")
	defer span.End()

	dt := time.Date(nearDate.Year(), nearDate.Month(), nearDate.Day(), 12, 0, 0, 0, time.UTC)

	prevElong := lunar.Elongation(dt)
	prevDt := dt

	for dayOffset := -20; dayOffset <= 20; dayOffset++ {
		checkDt := time.Date(nearDate.Year(), nearDate.Month(), nearDate.Day(), 12, 0, 0, 0, time.UTC).
			AddDate(0, 0, dayOffset)
		elong := lunar.Elongation(checkDt)

		if elong < prevElong && elong < 5.0 {
			dt = checkDt
			break
		}
		if elong > prevElong && prevElong < 5.0 {
			dt = prevDt
			break
		}
		prevElong = elong
		prevDt = checkDt
	}

	stepHours := 12.0
	for i := 0; i < 20; i++ {
		elongNow := lunar.Elongation(dt)

		dtFwd := dt.Add(time.Duration(stepHours*60) * time.Minute)
		dtBwd := dt.Add(-time.Duration(stepHours*60) * time.Minute)

		elongFwd := lunar.Elongation(dtFwd)
		elongBwd := lunar.Elongation(dtBwd)

		if elongFwd < elongNow {
			dt = dtFwd
		} else if elongBwd < elongNow {
			dt = dtBwd
		}

		stepHours *= 0.5
		if stepHours < 0.01 {
			break
		}
	}

	span.SetAttributes(attribute.String("hijri.conjunction", dt.Format(time.RFC3339)))
	return dt
}

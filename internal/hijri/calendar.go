// Package hijri implements the tabular Hijri calendar, astronomical
// conjunction search, Odeh (2004) crescent visibility scoring, and the
// Ramadan date locator that reconciles the two.
package hijri

import (
	"math"
	"time"

	"github.com/yusufkaya/waqt/internal/astro/solar"
)

// Date is a Hijri calendar date.
type Date struct {
	Year  int
	Month int
	Day   int
}

// epochJD is the Hijri epoch, July 16, 622 CE (Julian) = July 19, 622 CE
// (Gregorian proleptic), as a Julian Date.
const epochJD = 1948439.5

// leapYears lists which years, modulo 30, are leap years (355 days) in the
// tabular 30-year cycle. All other years are common (354 days).
var leapYears = map[int]bool{2: true, 5: true, 7: true, 10: true, 13: true, 16: true, 18: true, 21: true, 24: true, 26: true, 29: true}

func isHijriLeap(year int) bool {
	return leapYears[year%30]
}

func hijriYearDays(year int) int {
	if isHijriLeap(year) {
		return 355
	}
	return 354
}

// hijriMonthDays returns a month's length: odd months have 30 days, even
// months 29, except month 12 in a leap year, which has 30.
func hijriMonthDays(year, month int) int {
	if month%2 == 1 {
		return 30
	}
	if month == 12 && isHijriLeap(year) {
		return 30
	}
	return 29
}

// GregorianToHijri converts a Gregorian civil date to a tabular Hijri
// date.
func GregorianToHijri(date time.Time) Date {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	jd := solar.JulianDate(noon)

	daysSinceEpoch := int64(math.Floor(jd - epochJD))
	if daysSinceEpoch < 0 {
		return Date{Year: 1, Month: 1, Day: 1}
	}

	const cycleDays int64 = 10631 // 30 years
	cycles := daysSinceEpoch / cycleDays
	remaining := daysSinceEpoch % cycleDays

	year := int(cycles*30) + 1

	for {
		yd := int64(hijriYearDays(year))
		if remaining < yd {
			break
		}
		remaining -= yd
		year++
	}

	month := 1
	for {
		md := int64(hijriMonthDays(year, month))
		if remaining < md {
			break
		}
		remaining -= md
		month++
		if month > 12 {
			month = 12
			break
		}
	}

	day := int(remaining) + 1
	return Date{Year: year, Month: month, Day: day}
}

// HijriToGregorian converts a tabular Hijri date to a Gregorian civil
// date.
func HijriToGregorian(hijri Date) time.Time {
	var totalDays int64

	for y := 1; y < hijri.Year; y++ {
		totalDays += int64(hijriYearDays(y))
	}
	for m := 1; m < hijri.Month; m++ {
		totalDays += int64(hijriMonthDays(hijri.Year, m))
	}
	totalDays += int64(hijri.Day - 1)

	jd := epochJD + float64(totalDays)
	return jdToGregorian(jd)
}

func jdToGregorian(jd float64) time.Time {
	z := int64(math.Floor(jd + 0.5))
	var a int64
	if z < 2299161 {
		a = z
	} else {
		alpha := int64(math.Floor((float64(z) - 1867216.25) / 36524.25))
		a = z + 1 + alpha - alpha/4
	}

	b := a + 1524
	c := int64(math.Floor((float64(b) - 122.1) / 365.25))
	d := int64(math.Floor(365.25 * float64(c)))
	e := int64(math.Floor(float64(b-d) / 30.6001))

	day := b - d - int64(math.Floor(30.6001*float64(e)))
	var month int64
	if e < 14 {
		month = e - 1
	} else {
		month = e - 13
	}
	var year int64
	if month > 2 {
		year = c - 4716
	} else {
		year = c - 4715
	}

	t := time.Date(int(year), time.Month(month), int(day), 0, 0, 0, 0, time.UTC)
	if t.Year() == 0 && t.Month() == 0 {
		return time.Date(int(year), 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// CurrentHijriYearForRamadan returns the Hijri year whose Ramadan the
// caller should look up: if today is already past Ramadan for the
// current Hijri year, the next year's Ramadan is returned instead.
func CurrentHijriYearForRamadan(now time.Time) int {
	hijri := GregorianToHijri(now)
	if hijri.Month > 9 {
		return hijri.Year + 1
	}
	return hijri.Year
}

// internal/daily/daily.go
//
// Calendar and seed derivation for the Daily run.
//
// A daily seed is the local calendar date in a fixed timezone (not the host's
// zone and not UTC midnight), encoded as YYYYMMDD. Day numbers count from the
// 2026-02-09 epoch (day 1) and are derived from the seed itself, so the number
// shown for a stored result never depends on when it is recomputed.
package daily

import (
	"fmt"
	"time"
	_ "time/tzdata" // fixed zone must resolve on hosts without zoneinfo
)

// DefaultZone is the timezone whose midnight rolls the daily over.
const DefaultZone = "America/Los_Angeles"

var epoch = time.Date(2026, time.February, 9, 0, 0, 0, 0, time.UTC)

// Clock supplies the current instant. Tests inject FixedClock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// Zone loads the named location, falling back to DefaultZone on an empty name.
func Zone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("daily: load zone %q: %w", name, err)
	}
	return loc, nil
}

// DateKey returns YYYY-MM-DD for the local date of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Seed returns YYYY*10000 + MM*100 + DD for the local date of t in loc.
func Seed(t time.Time, loc *time.Location) int64 {
	y, m, d := t.In(loc).Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// SeedDate decodes a daily seed into its calendar date (as UTC midnight).
func SeedDate(seed int64) time.Time {
	y := int(seed / 10000)
	m := time.Month((seed % 10000) / 100)
	d := int(seed % 100)
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeedKey returns the YYYY-MM-DD form of a daily seed.
func SeedKey(seed int64) string {
	return SeedDate(seed).Format("2006-01-02")
}

// DayNumberForSeed counts days from the epoch; 2026-02-09 is day 1.
func DayNumberForSeed(seed int64) int {
	diff := SeedDate(seed).Sub(epoch)
	days := diff / (24 * time.Hour)
	if diff < 0 && diff%(24*time.Hour) != 0 {
		days--
	}
	return int(days) + 1
}

// UntilNextDay reports how long until the next local midnight in loc.
//
// The next local date is built as a wall-clock UTC guess and corrected by the
// zone offset until it stops moving, which keeps DST days exact.
func UntilNextDay(now time.Time, loc *time.Location) time.Duration {
	y, m, d := now.In(loc).Date()
	next := time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
	midnight := zonedToUTC(next, loc)
	if left := midnight.Sub(now); left > 0 {
		return left
	}
	return 0
}

// zonedToUTC interprets the wall-clock fields of guess (given in UTC) as a
// local time in loc and returns the matching instant.
func zonedToUTC(guess time.Time, loc *time.Location) time.Time {
	utc := guess
	for i := 0; i < 3; i++ {
		_, offset := utc.In(loc).Zone()
		next := guess.Add(-time.Duration(offset) * time.Second)
		if next.Equal(utc) {
			break
		}
		utc = next
	}
	return utc
}

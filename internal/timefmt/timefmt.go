// Package timefmt converts the timestamp encodings used by the travel app
// databases into wall-clock values and the string formats the CLI prints.
package timefmt

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// CoreDataOffset is the number of seconds between the Unix epoch and the
// Core Data reference date (2001-01-01T00:00:00Z).
const CoreDataOffset = 978307200

const (
	isoLayout     = "2006-01-02T15:04:05"
	dateLayout    = "2006-01-02"
	displayLayout = "Jan 02, 2006 03:04 PM"
	utcLayout     = "2006-01-02 15:04 UTC"
)

// FromUnix converts fractional Unix seconds to a time in loc.
func FromUnix(sec float64, loc *time.Location) time.Time {
	whole, frac := math.Modf(sec)
	t := time.Unix(int64(whole), int64(frac*1e9))
	if loc != nil {
		t = t.In(loc)
	}
	return t
}

// FromCoreData converts Core Data seconds (relative to 2001-01-01) to a time in loc.
func FromCoreData(sec float64, loc *time.Location) time.Time {
	return FromUnix(sec+CoreDataOffset, loc)
}

// ToCoreData is the inverse of FromCoreData.
func ToCoreData(t time.Time) float64 {
	return float64(t.UnixNano())/1e9 - CoreDataOffset
}

// ISO renders t without a zone suffix, matching the wall clock of t's location.
func ISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(isoLayout)
}

// Date renders the calendar date of t.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// Display renders t for humans, e.g. "Mar 04, 2025 07:15 AM".
func Display(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(displayLayout)
}

// UTCStamp renders t in UTC with minute precision.
func UTCStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(utcLayout)
}

// Duration formats the elapsed time between dep and arr as "Xh Ym".
// Returns "" when either side is unknown.
func Duration(dep, arr time.Time) string {
	if dep.IsZero() || arr.IsZero() {
		return ""
	}
	secs := int64(arr.Sub(dep) / time.Second)
	hours := floorDiv(secs, 3600)
	minutes := floorDiv(secs-hours*3600, 60)
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// DaysUntil returns the whole days from now until t, rounded toward
// negative infinity (a flight 2 hours ago is -1 days away).
func DaysUntil(t, now time.Time) int {
	secs := int64(t.Sub(now) / time.Second)
	return int(floorDiv(secs, 86400))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

var (
	zoneCache   = make(map[string]*time.Location)
	zoneCacheMu sync.Mutex
)

// Zone loads an IANA zone by name, caching lookups. Unknown or empty names
// return fallback.
func Zone(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	zoneCacheMu.Lock()
	defer zoneCacheMu.Unlock()
	if loc, ok := zoneCache[name]; ok {
		if loc == nil {
			return fallback
		}
		return loc
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		zoneCache[name] = nil
		return fallback
	}
	zoneCache[name] = loc
	return loc
}

// LocalDate returns the calendar date of t as seen in the named zone.
func LocalDate(t time.Time, tzName string, fallback *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if fallback == nil {
		fallback = time.Local
	}
	return t.In(Zone(tzName, fallback)).Format(dateLayout)
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

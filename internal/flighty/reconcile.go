package flighty

import (
	"sort"
	"strconv"
)

// KeyFunc maps a record to its deduplication key.
type KeyFunc func(Record) string

// RouteKey identifies a flown leg: local departure date plus airport codes.
// Two rows for the same leg on the same day collapse to one key.
func RouteKey(r Record) string {
	return r.LocalDate + "|" + r.Departure.Code() + "|" + r.Arrival.Code()
}

// FlightKey is RouteKey plus the flight number.
func FlightKey(r Record) string {
	return RouteKey(r) + "|" + r.Number
}

// Merge drops superseded tracked rows, then deduplicates tracked followed by
// manual rows by key. The first occurrence wins, so tracked rows beat manual
// ones and input order is preserved.
func Merge(tracked, manual []Record, superseded map[string]struct{}, key KeyFunc) []Record {
	out := make([]Record, 0, len(tracked)+len(manual))
	seen := make(map[string]struct{}, len(tracked)+len(manual))

	add := func(r Record) {
		k := key(r)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}

	for _, r := range tracked {
		if _, ok := superseded[r.ID]; ok {
			continue
		}
		add(r)
	}
	for _, r := range manual {
		add(r)
	}
	return out
}

// UniqueRouteKeys returns the set of route keys over records with a known
// departure date.
func UniqueRouteKeys(records []Record) map[string]struct{} {
	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.LocalDate == "" {
			continue
		}
		keys[RouteKey(r)] = struct{}{}
	}
	return keys
}

// CountByYear counts unique route keys per local departure year. A key
// carries its date, so each lands in exactly one year.
func CountByYear(records []Record) map[int]int {
	counts := make(map[int]int)
	for k := range UniqueRouteKeys(records) {
		year, err := strconv.Atoi(k[:4])
		if err != nil {
			continue
		}
		counts[year]++
	}
	return counts
}

func sortByDeparture(records []Record, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		if desc {
			return records[i].DepartureTime.After(records[j].DepartureTime)
		}
		return records[i].DepartureTime.Before(records[j].DepartureTime)
	})
}

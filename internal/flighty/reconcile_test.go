package flighty

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func rec(id string, src Source, date, from, to, number string) Record {
	return Record{
		ID: id, Source: src, LocalDate: date, Number: number,
		Departure: Airport{IATA: from}, Arrival: Airport{IATA: to},
	}
}

func TestRouteAndFlightKeys(t *testing.T) {
	r := rec("1", SourceTracked, "2024-03-05", "JFK", "LAX", "100")
	assert.Equal(t, "2024-03-05|JFK|LAX", RouteKey(r))
	assert.Equal(t, "2024-03-05|JFK|LAX|100", FlightKey(r))

	icaoOnly := Record{LocalDate: "2024-03-05", Departure: Airport{ICAO: "SPSF"}, Arrival: Airport{IATA: "SFO"}}
	assert.Equal(t, "2024-03-05|SPSF|SFO", RouteKey(icaoOnly))
}

func TestMerge(t *testing.T) {
	tracked := []Record{
		rec("t1", SourceTracked, "2024-01-01", "JFK", "LAX", "100"),
		rec("t2", SourceTracked, "2024-01-02", "LAX", "JFK", "200"),
		rec("t3", SourceTracked, "2024-01-03", "SFO", "SEA", "300"),
	}
	manual := []Record{
		rec("m1", SourceManual, "2024-01-01", "JFK", "LAX", "100"), // duplicate of t1
		rec("m2", SourceManual, "2024-01-03", "SFO", "SEA", "300"), // replaces t3
		rec("m3", SourceManual, "2024-01-04", "SEA", "HKG", "9"),
	}
	superseded := map[string]struct{}{"t3": {}}

	got := Merge(tracked, manual, superseded, FlightKey)
	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"t1", "t2", "m2", "m3"}, ids)
}

func TestMerge_RouteKeyCollapsesNumbers(t *testing.T) {
	tracked := []Record{rec("t1", SourceTracked, "2024-01-01", "JFK", "LAX", "100")}
	manual := []Record{rec("m1", SourceManual, "2024-01-01", "JFK", "LAX", "")}

	assert.Len(t, Merge(tracked, manual, nil, FlightKey), 2)
	assert.Len(t, Merge(tracked, manual, nil, RouteKey), 1)
}

func TestCountByYear(t *testing.T) {
	records := []Record{
		rec("a", SourceTracked, "2023-12-31", "SEA", "HKG", "1"),
		rec("b", SourceTracked, "2024-01-01", "HKG", "SEA", "2"),
		rec("c", SourceManual, "2024-01-01", "HKG", "SEA", "2"), // same key as b
		rec("d", SourceManual, "", "HKG", "SEA", "3"),           // no date
	}
	assert.Equal(t, map[int]int{2023: 1, 2024: 1}, CountByYear(records))
	assert.Len(t, UniqueRouteKeys(records), 2)
}

func TestCabinDisplay(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"economy":        "Economy",
		"premiumEconomy": "Premium Economy",
		"privateJet":     "Private Jet",
		"first":          "First",
	}
	for in, want := range tests {
		assert.Equal(t, want, CabinDisplay(in), in)
	}
}

func TestMiles(t *testing.T) {
	assert.Equal(t, 2474, Miles(3983))
	assert.Equal(t, 0, Miles(0))
}

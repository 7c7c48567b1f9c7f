package flighty

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"flightdeck/internal/flighty/flightytest"
)

var (
	nyc   = mustZone("America/New_York")
	la    = mustZone("America/Los_Angeles")
	tokyo = mustZone("Asia/Tokyo")

	fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

func mustZone(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// seedHistory builds a database covering every reconciliation edge case:
// upcoming and past flights, a friend's flight, a CONNECTED_FRIEND import,
// NULL import sources, a manual duplicate, a superseded flight, an archived
// flight, a deleted link and a late-night departure that changes year.
func seedHistory(t *testing.T) *flightytest.DB {
	t.Helper()
	fx := flightytest.New(t)

	// Upcoming
	fx.AddFlight(flightytest.Flight{
		ID: "flt-aa100", Airline: flightytest.AA, Number: "100",
		From: flightytest.JFK, To: flightytest.LAX,
		Departure: time.Date(2025, 6, 10, 14, 0, 0, 0, nyc),
		Arrival:   time.Date(2025, 6, 10, 17, 30, 0, 0, la),
		PNR:       "ABC123", Seat: "12A", Cabin: "premiumEconomy",
		Aircraft: "Airbus A321", Tail: "N101AA", DistanceKM: 3983,
		ImportSource: "EMAIL",
	})
	fx.AddFlight(flightytest.Flight{
		ID: "flt-ua837", Airline: flightytest.UA, Number: "837",
		From: flightytest.SFO, To: flightytest.NRT,
		Departure: time.Date(2025, 6, 20, 11, 0, 0, 0, la),
		Arrival:   time.Date(2025, 6, 21, 14, 0, 0, 0, tokyo),
		PNR:       "XYZ789", Cabin: "business", DistanceKM: 8200,
		ScheduleOnly: true,
	})
	fx.AddManual(flightytest.ManualFlight{
		Airline: flightytest.AA, Number: "100",
		From: flightytest.JFK, To: flightytest.LAX,
		Departure: time.Date(2025, 6, 10, 14, 0, 0, 0, nyc),
		Arrival:   time.Date(2025, 6, 10, 17, 30, 0, 0, la),
		DistanceKM: 3983,
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.UA, Number: "1",
		From: flightytest.SFO, To: flightytest.JFK,
		Departure: time.Date(2025, 6, 5, 8, 0, 0, 0, la),
		User:      flightytest.FriendUser,
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.JL, Number: "5",
		From: flightytest.NRT, To: flightytest.HKG,
		Departure:    time.Date(2025, 6, 7, 9, 0, 0, 0, tokyo),
		ImportSource: "CONNECTED_FRIEND",
	})

	// Past
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.AA, Number: "200",
		From: flightytest.LAX, To: flightytest.JFK,
		Departure:  time.Date(2025, 1, 15, 8, 0, 0, 0, la),
		Arrival:    time.Date(2025, 1, 15, 16, 30, 0, 0, nyc),
		DistanceKM: 3983,
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.UA, Number: "895",
		From: flightytest.SEA, To: flightytest.HKG,
		Departure:  time.Date(2024, 12, 31, 23, 30, 0, 0, la),
		DistanceKM: 10400,
	})
	fx.AddFlight(flightytest.Flight{
		ID: "flt-superseded", Airline: flightytest.AA, Number: "100",
		From: flightytest.JFK, To: flightytest.LAX,
		Departure:  time.Date(2024, 3, 5, 9, 0, 0, 0, nyc),
		DistanceKM: 3983,
	})
	fx.AddManual(flightytest.ManualFlight{
		Airline: flightytest.AA, Number: "100",
		From: flightytest.JFK, To: flightytest.LAX,
		Departure:  time.Date(2024, 3, 5, 9, 15, 0, 0, nyc),
		Original:   "flt-superseded",
		DistanceKM: 3983,
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.AA, Number: "300",
		From: flightytest.JFK, To: flightytest.SFO,
		Departure:  time.Date(2024, 7, 4, 10, 0, 0, 0, nyc),
		Archived:   true,
		DistanceKM: 4150,
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.UA, Number: "2",
		From: flightytest.SFO, To: flightytest.LAX,
		Departure: time.Date(2024, 8, 1, 7, 0, 0, 0, la),
		Deleted:   true,
	})
	fx.AddManual(flightytest.ManualFlight{
		Number: "9",
		From:   flightytest.Strip, To: flightytest.SFO,
		Departure:  time.Date(2023, 5, 5, 12, 0, 0, 0, time.UTC),
		DistanceKM: 100,
	})

	fx.Close()
	return fx
}

func openSeeded(t *testing.T) *Store {
	t.Helper()
	fx := seedHistory(t)
	s, err := Open(fx.Path, WithClock(func() time.Time { return fixedNow }), WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

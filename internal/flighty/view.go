package flighty

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"flightdeck/internal/timefmt"
)

// Endpoint is one end of an upcoming flight.
type Endpoint struct {
	AirportCode string `json:"airport_code"`
	AirportName string `json:"airport_name,omitempty"`
	City        string `json:"city,omitempty"`
	Datetime    string `json:"datetime,omitempty"`
	Display     string `json:"display,omitempty"`
	Terminal    string `json:"terminal,omitempty"`
	Gate        string `json:"gate,omitempty"`
}

// Flight is the full view of an upcoming flight.
type Flight struct {
	Flight        string   `json:"flight"`
	Airline       string   `json:"airline,omitempty"`
	FlightNumber  string   `json:"flight_number"`
	Route         string   `json:"route"`
	Departure     Endpoint `json:"departure"`
	Arrival       Endpoint `json:"arrival"`
	Confirmation  string   `json:"confirmation,omitempty"`
	Seat          string   `json:"seat,omitempty"`
	CabinClass    string   `json:"cabin_class,omitempty"`
	Aircraft      string   `json:"aircraft,omitempty"`
	Duration      string   `json:"duration,omitempty"`
	DistanceKM    float64  `json:"distance_km,omitempty"`
	DistanceMiles int      `json:"distance_miles,omitempty"`
	DaysUntil     int      `json:"days_until"`
	ImportSource  string   `json:"import_source,omitempty"`
	TailNumber    string   `json:"tail_number,omitempty"`
	Source        Source   `json:"source"`
}

// DayFlight is the compact view used by date and PNR lookups.
type DayFlight struct {
	Flight       string `json:"flight"`
	Route        string `json:"route"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
	Seat         string `json:"seat,omitempty"`
	CabinClass   string `json:"cabin_class,omitempty"`
	Aircraft     string `json:"aircraft,omitempty"`
	TailNumber   string `json:"tail_number,omitempty"`
	Source       Source `json:"source"`
}

// PastFlight is the compact view used by history listings.
type PastFlight struct {
	Flight     string  `json:"flight"`
	Route      string  `json:"route"`
	Date       string  `json:"date"`
	Aircraft   string  `json:"aircraft,omitempty"`
	DistanceKM float64 `json:"distance_km,omitempty"`
	TailNumber string  `json:"tail_number,omitempty"`
	Source     Source  `json:"source"`
}

var titleCaser = cases.Title(language.English)

// CabinDisplay prettifies Flighty's camelCase cabin names.
func CabinDisplay(cabin string) string {
	if cabin == "" {
		return ""
	}
	r := strings.NewReplacer("premiumEconomy", "Premium Economy", "privateJet", "Private Jet")
	return titleCaser.String(r.Replace(cabin))
}

// Miles converts kilometres to whole statute miles, truncating.
func Miles(km float64) int {
	return int(km * 0.621371)
}

func toFlight(r Record, now time.Time) Flight {
	return Flight{
		Flight:       r.Label(),
		Airline:      r.AirlineName,
		FlightNumber: r.Number,
		Route:        r.Route(),
		Departure: Endpoint{
			AirportCode: r.Departure.Code(),
			AirportName: r.Departure.Name,
			City:        r.Departure.City,
			Datetime:    timefmt.ISO(r.DepartureTime),
			Display:     timefmt.Display(r.DepartureTime),
			Terminal:    r.DepartureTerminal,
			Gate:        r.DepartureGate,
		},
		Arrival: Endpoint{
			AirportCode: r.Arrival.Code(),
			AirportName: r.Arrival.Name,
			City:        r.Arrival.City,
			Datetime:    timefmt.ISO(r.ArrivalTime),
			Display:     timefmt.Display(r.ArrivalTime),
			Terminal:    r.ArrivalTerminal,
			Gate:        r.ArrivalGate,
		},
		Confirmation:  r.Confirmation,
		Seat:          r.Seat,
		CabinClass:    CabinDisplay(r.CabinClass),
		Aircraft:      r.Aircraft,
		Duration:      timefmt.Duration(r.DepartureTime, r.ArrivalTime),
		DistanceKM:    r.DistanceKM,
		DistanceMiles: Miles(r.DistanceKM),
		DaysUntil:     timefmt.DaysUntil(r.DepartureTime, now),
		ImportSource:  r.ImportSource,
		TailNumber:    r.TailNumber,
		Source:        r.Source,
	}
}

func toDayFlight(r Record) DayFlight {
	return DayFlight{
		Flight:       r.Label(),
		Route:        r.Route(),
		Departure:    timefmt.Display(r.DepartureTime),
		Arrival:      timefmt.Display(r.ArrivalTime),
		Confirmation: r.Confirmation,
		Seat:         r.Seat,
		CabinClass:   CabinDisplay(r.CabinClass),
		Aircraft:     r.Aircraft,
		TailNumber:   r.TailNumber,
		Source:       r.Source,
	}
}

func toPastFlight(r Record) PastFlight {
	return PastFlight{
		Flight:     r.Label(),
		Route:      r.Route(),
		Date:       r.LocalDate,
		Aircraft:   r.Aircraft,
		DistanceKM: r.DistanceKM,
		TailNumber: r.TailNumber,
		Source:     r.Source,
	}
}

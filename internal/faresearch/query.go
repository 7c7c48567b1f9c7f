// Package faresearch searches Google Flights for fares.
package faresearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidLeg is returned for a malformed FROM,TO,DATE leg.
var ErrInvalidLeg = errors.New("invalid leg format")

// ErrInvalidQuery wraps query validation failures.
var ErrInvalidQuery = errors.New("invalid search")

// Trip types.
const (
	TripOneWay    = "one-way"
	TripRoundTrip = "round-trip"
	TripMultiCity = "multi-city"
)

// Seat classes.
const (
	SeatEconomy        = "economy"
	SeatPremiumEconomy = "premium-economy"
	SeatBusiness       = "business"
	SeatFirst          = "first"
)

// Seats lists the accepted seat classes.
var Seats = []string{SeatEconomy, SeatPremiumEconomy, SeatBusiness, SeatFirst}

// MaxPassengers is the booking limit Google Flights enforces.
const MaxPassengers = 9

var airportCode = regexp.MustCompile(`^[A-Z]{3,4}$`)

// Leg is one flight segment.
type Leg struct {
	From string `json:"from"`
	To   string `json:"to"`
	Date string `json:"date"`
}

// Passengers counts travellers by type.
type Passengers struct {
	Adults        int `json:"adults"`
	Children      int `json:"children"`
	InfantsInSeat int `json:"infants_in_seat"`
	InfantsOnLap  int `json:"infants_on_lap"`
}

// Total is the sum of every traveller.
func (p Passengers) Total() int {
	return p.Adults + p.Children + p.InfantsInSeat + p.InfantsOnLap
}

// MarshalJSON adds the total.
func (p Passengers) MarshalJSON() ([]byte, error) {
	type plain Passengers
	return json.Marshal(struct {
		plain
		Total int `json:"total"`
	}{plain(p), p.Total()})
}

// Query is a fare search.
type Query struct {
	Legs       []Leg
	Trip       string
	Seat       string
	Passengers Passengers
}

// OneWayOrReturn builds a query from a single origin/destination pair.
// A non-empty returnDate with trip round-trip adds the return leg;
// otherwise the search is one-way.
func OneWayOrReturn(from, to, date, returnDate, trip string) Query {
	from, to = strings.ToUpper(strings.TrimSpace(from)), strings.ToUpper(strings.TrimSpace(to))
	q := Query{Legs: []Leg{{From: from, To: to, Date: date}}, Trip: TripOneWay}
	if trip == TripRoundTrip && returnDate != "" {
		q.Legs = append(q.Legs, Leg{From: to, To: from, Date: returnDate})
		q.Trip = TripRoundTrip
	}
	return q
}

// ParseLegs parses "FROM,TO,DATE;FROM,TO,DATE;...".
func ParseLegs(s string) ([]Leg, error) {
	var legs []Leg
	for _, raw := range strings.Split(s, ";") {
		parts := strings.Split(strings.TrimSpace(raw), ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: %s. Expected 'FROM,TO,DATE'", ErrInvalidLeg, raw)
		}
		legs = append(legs, Leg{
			From: strings.ToUpper(strings.TrimSpace(parts[0])),
			To:   strings.ToUpper(strings.TrimSpace(parts[1])),
			Date: strings.TrimSpace(parts[2]),
		})
	}
	return legs, nil
}

// Validate checks legs, seat and passenger counts.
func (q Query) Validate() error {
	if len(q.Legs) == 0 {
		return fmt.Errorf("%w: at least one leg is required", ErrInvalidQuery)
	}
	switch q.Trip {
	case TripOneWay:
		if len(q.Legs) != 1 {
			return fmt.Errorf("%w: one-way searches take exactly one leg", ErrInvalidQuery)
		}
	case TripRoundTrip:
		if len(q.Legs) != 2 {
			return fmt.Errorf("%w: round-trip searches take exactly two legs", ErrInvalidQuery)
		}
	case TripMultiCity:
	default:
		return fmt.Errorf("%w: unknown trip type %q", ErrInvalidQuery, q.Trip)
	}
	if _, ok := seatCodes[q.Seat]; !ok {
		return fmt.Errorf("%w: unknown seat class %q (valid: %s)", ErrInvalidQuery, q.Seat, strings.Join(Seats, ", "))
	}

	for i, leg := range q.Legs {
		if !airportCode.MatchString(leg.From) || !airportCode.MatchString(leg.To) {
			return fmt.Errorf("%w: leg %d: airport codes must be 3-4 letters, got %q and %q",
				ErrInvalidQuery, i+1, leg.From, leg.To)
		}
		if leg.From == leg.To {
			return fmt.Errorf("%w: leg %d departs and arrives at %s", ErrInvalidQuery, i+1, leg.From)
		}
		if _, err := time.Parse("2006-01-02", leg.Date); err != nil {
			return fmt.Errorf("%w: leg %d: invalid date %q, use YYYY-MM-DD", ErrInvalidQuery, i+1, leg.Date)
		}
	}

	p := q.Passengers
	switch {
	case p.Adults < 1:
		return fmt.Errorf("%w: at least one adult is required", ErrInvalidQuery)
	case p.Children < 0 || p.InfantsInSeat < 0 || p.InfantsOnLap < 0:
		return fmt.Errorf("%w: passenger counts must not be negative", ErrInvalidQuery)
	case p.Total() > MaxPassengers:
		return fmt.Errorf("%w: at most %d passengers, got %d", ErrInvalidQuery, MaxPassengers, p.Total())
	case p.InfantsOnLap > p.Adults:
		return fmt.Errorf("%w: each lap infant needs an adult", ErrInvalidQuery)
	}
	return nil
}

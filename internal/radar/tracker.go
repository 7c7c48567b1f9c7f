package radar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"flightdeck/internal/logging"
	"flightdeck/internal/timefmt"
)

// Report statuses.
const (
	StatusTracked  = "tracked"
	StatusNotFound = "not_found"
)

// NotFoundMessage is reported for tails absent from the feed.
const NotFoundMessage = "Not currently airborne or not tracked"

// ErrNotFound is reported for tails absent from the live feed.
var ErrNotFound = errors.New("aircraft not found")

// Source is what the tracker needs from the FR24 client.
type Source interface {
	Flights(ctx context.Context, f Filter) ([]Flight, error)
	Details(ctx context.Context, id string) (*Details, error)
}

// Position is the live state of one aircraft.
type Position struct {
	Callsign       string  `json:"callsign"`
	Registration   string  `json:"registration"`
	AircraftType   string  `json:"aircraft_type"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AltitudeFt     int     `json:"altitude_ft"`
	GroundSpeedKts int     `json:"ground_speed_kts"`
	Heading        int     `json:"heading"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	OnGround       bool    `json:"on_ground"`
}

// HistoryEntry is one recent leg flown by the aircraft.
type HistoryEntry struct {
	Callsign        string `json:"callsign,omitempty"`
	Origin          string `json:"origin,omitempty"`
	OriginCity      string `json:"origin_city,omitempty"`
	Destination     string `json:"destination,omitempty"`
	DestinationCity string `json:"destination_city,omitempty"`
	Departure       string `json:"departure,omitempty"`
}

// Report is the tracking result for one tail number.
type Report struct {
	Tail    string `json:"tail,omitempty"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`

	*Position

	AircraftModel      string         `json:"aircraft_model,omitempty"`
	Hex                string         `json:"hex,omitempty"`
	Airline            string         `json:"airline,omitempty"`
	AirlineICAO        string         `json:"airline_icao,omitempty"`
	OriginName         string         `json:"origin_name,omitempty"`
	OriginCity         string         `json:"origin_city,omitempty"`
	DestinationName    string         `json:"destination_name,omitempty"`
	DestinationCity    string         `json:"destination_city,omitempty"`
	FlightStatus       string         `json:"flight_status,omitempty"`
	ScheduledDeparture string         `json:"scheduled_departure,omitempty"`
	ScheduledArrival   string         `json:"scheduled_arrival,omitempty"`
	ActualDeparture    string         `json:"actual_departure,omitempty"`
	ActualArrival      string         `json:"actual_arrival,omitempty"`
	ETA                string         `json:"eta,omitempty"`
	RecentFlights      []HistoryEntry `json:"recent_flights,omitempty"`
}

// Found reports whether the tail was in the feed.
func (r *Report) Found() bool {
	return r != nil && r.Status == StatusTracked && r.Position != nil
}

// Err returns an error wrapping ErrNotFound when the tail was not found.
func (r *Report) Err() error {
	if r.Found() {
		return nil
	}
	tail := ""
	if r != nil {
		tail = r.Tail
	}
	return fmt.Errorf("%w: %s: %s", ErrNotFound, tail, NotFoundMessage)
}

// Tracker resolves tail numbers to live reports.
type Tracker struct {
	src         Source
	concurrency int
}

// NewTracker returns a tracker issuing at most concurrency lookups at once.
func NewTracker(src Source, concurrency int) *Tracker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Tracker{src: src, concurrency: concurrency}
}

// Track looks up every tail concurrently. Results keep the input order.
func (t *Tracker) Track(ctx context.Context, tails ...string) ([]Report, error) {
	timer := logging.StartTimer(logging.CategoryRadar, "Track")
	defer timer.Stop()

	reports := make([]Report, len(tails))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	for i, tail := range tails {
		i, tail := i, tail
		g.Go(func() error {
			r, err := t.TrackOne(ctx, tail)
			if err != nil {
				return err
			}
			reports[i] = *r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// TrackOne looks up a single tail number.
func (t *Tracker) TrackOne(ctx context.Context, tail string) (*Report, error) {
	flights, err := t.src.Flights(ctx, Filter{Registration: strings.ToUpper(tail)})
	if err != nil {
		return nil, err
	}
	if len(flights) == 0 {
		logging.RadarDebug("%s not in feed", tail)
		return &Report{Tail: tail, Status: StatusNotFound, Message: NotFoundMessage}, nil
	}

	f := flights[0]
	pos := toPosition(f)
	r := &Report{Status: StatusTracked, Position: &pos}

	d, err := t.src.Details(ctx, f.ID)
	if err != nil {
		// The feed row is still useful on its own.
		logging.RadarWarn("details for %s (%s) failed: %v", tail, f.ID, err)
		return r, nil
	}
	enrich(r, d)
	return r, nil
}

// Fleet returns every active flight of an airline, by ICAO code.
func (t *Tracker) Fleet(ctx context.Context, icao string) ([]Position, error) {
	flights, err := t.src.Flights(ctx, Filter{Airline: strings.ToUpper(icao)})
	if err != nil {
		return nil, err
	}
	out := make([]Position, 0, len(flights))
	for _, f := range flights {
		out = append(out, toPosition(f))
	}
	logging.Radar("fleet %s: %d active", icao, len(out))
	return out, nil
}

func toPosition(f Flight) Position {
	return Position{
		Callsign:       f.Callsign,
		Registration:   f.Registration,
		AircraftType:   f.AircraftCode,
		Latitude:       f.Latitude,
		Longitude:      f.Longitude,
		AltitudeFt:     f.Altitude,
		GroundSpeedKts: f.GroundSpeed,
		Heading:        f.Heading,
		Origin:         f.Origin,
		Destination:    f.Destination,
		OnGround:       f.OnGround,
	}
}

func stamp(ts *int64) string {
	if ts == nil || *ts == 0 {
		return ""
	}
	return timefmt.UTCStamp(time.Unix(*ts, 0))
}

func enrich(r *Report, d *Details) {
	if d == nil {
		return
	}
	if ac := d.Aircraft; ac != nil {
		if ac.Model != nil {
			r.AircraftModel = ac.Model.Text
			if ac.Model.Code != "" {
				r.AircraftType = ac.Model.Code
			}
		}
		r.Hex = ac.Hex
	}
	if al := d.Airline; al != nil {
		r.Airline = al.Name
		r.AirlineICAO = al.Code.ICAO
	}
	if ap := d.Airport; ap != nil {
		if o := ap.Origin; o != nil {
			r.OriginName = o.Name
			r.OriginCity = o.Position.Region.City
		}
		if dst := ap.Destination; dst != nil {
			r.DestinationName = dst.Name
			r.DestinationCity = dst.Position.Region.City
		}
	}
	if d.Status != nil {
		r.FlightStatus = d.Status.Text
	}
	if tm := d.Time; tm != nil {
		if s := tm.Scheduled; s != nil {
			r.ScheduledDeparture = stamp(s.Departure)
			r.ScheduledArrival = stamp(s.Arrival)
		}
		if rt := tm.Real; rt != nil {
			r.ActualDeparture = stamp(rt.Departure)
			r.ActualArrival = stamp(rt.Arrival)
		}
		if o := tm.Other; o != nil {
			r.ETA = stamp(o.ETA)
		}
	}
	if fh := d.FlightHistory; fh != nil {
		history := make([]HistoryEntry, 0, len(fh.Aircraft))
		for _, h := range fh.Aircraft {
			e := HistoryEntry{
				Callsign:  h.Identification.Number.Default,
				Departure: stamp(h.Time.Real.Departure),
			}
			if o := h.Airport.Origin; o != nil {
				e.Origin = o.Code.IATA
				e.OriginCity = o.Position.Region.City
			}
			if dst := h.Airport.Destination; dst != nil {
				e.Destination = dst.Code.IATA
				e.DestinationCity = dst.Position.Region.City
			}
			history = append(history, e)
		}
		r.RecentFlights = history
	}
}

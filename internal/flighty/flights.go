package flighty

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"flightdeck/internal/logging"
	"flightdeck/internal/timefmt"
)

// DefaultLimit caps list queries when no limit is given.
const DefaultLimit = 20

const earthKM = 40075.0

// ListOptions controls ListUpcoming.
type ListOptions struct {
	Limit          int
	IncludeFriends bool
}

// UpcomingFlights is the result of ListUpcoming.
type UpcomingFlights struct {
	Flights []Flight `json:"flights"`
	Count   int      `json:"count"`
}

// NextFlight is the result of Next.
type NextFlight struct {
	NextFlight *Flight `json:"next_flight"`
	Message    string  `json:"message,omitempty"`
}

// DateFlights is the result of OnDate.
type DateFlights struct {
	Date    string      `json:"date"`
	Flights []DayFlight `json:"flights"`
	Count   int         `json:"count"`
}

// ConfirmationFlights is the result of ByConfirmation.
type ConfirmationFlights struct {
	Confirmation string      `json:"confirmation"`
	Flights      []DayFlight `json:"flights"`
	Count        int         `json:"count"`
}

// FlightStats is the result of Stats.
type FlightStats struct {
	TotalFlights        int     `json:"total_flights"`
	UpcomingFlights     int     `json:"upcoming_flights"`
	UniqueFlights       int     `json:"unique_flights"`
	TotalDistanceKM     float64 `json:"total_distance_km"`
	TotalDistanceMiles  int     `json:"total_distance_miles"`
	EarthCircumferences float64 `json:"earth_circumferences"`
	TrackedFlights      int     `json:"tracked_flights"`
	ManualFlights       int     `json:"manual_flights"`
}

// RecentFlights is the result of Recent.
type RecentFlights struct {
	RecentFlights []PastFlight `json:"recent_flights"`
	Count         int          `json:"count"`
}

// MonthCount is one month's flight count.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// YearFlights is the result of ByYear.
type YearFlights struct {
	Year    int          `json:"year"`
	Flights []PastFlight `json:"flights"`
	Count   int          `json:"count"`
	ByMonth []MonthCount `json:"by_month"`
}

// YearCount is one year's unique flight count.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// YearSummary is the result of Years.
type YearSummary struct {
	Years []YearCount `json:"years"`
	Total int         `json:"total"`
}

// ListUpcoming returns flights departing after now from both tables,
// deduplicated by FlightKey and sorted by departure.
func (s *Store) ListUpcoming(ctx context.Context, opts ListOptions) (*UpcomingFlights, error) {
	timer := logging.StartTimer(logging.CategoryFlighty, "ListUpcoming")
	defer timer.Stop()

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	now := s.now()

	// Ticket fan-out and superseded rows are dropped in Go, so the window
	// is trimmed only after merging.
	records, err := s.merged(ctx, Scope{
		From:           now,
		IncludeFriends: opts.IncludeFriends,
	}, FlightKey)
	if err != nil {
		return nil, err
	}

	sortByDeparture(records, false)
	if len(records) > limit {
		records = records[:limit]
	}

	flights := make([]Flight, 0, len(records))
	for _, r := range records {
		flights = append(flights, toFlight(r, now))
	}
	return &UpcomingFlights{Flights: flights, Count: len(flights)}, nil
}

// Next returns the next upcoming flight.
func (s *Store) Next(ctx context.Context) (*NextFlight, error) {
	res, err := s.ListUpcoming(ctx, ListOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(res.Flights) == 0 {
		return &NextFlight{Message: "No upcoming flights found"}, nil
	}
	return &NextFlight{NextFlight: &res.Flights[0]}, nil
}

// OnDate returns flights whose local departure date is date (YYYY-MM-DD).
func (s *Store) OnDate(ctx context.Context, date string) (*DateFlights, error) {
	day, err := timefmt.ParseDay(date, s.loc)
	if err != nil {
		return nil, &DateError{Value: date}
	}

	// Airport zones can shift the local date by up to a day either way.
	records, err := s.merged(ctx, Scope{
		From: day.AddDate(0, 0, -1),
		To:   day.AddDate(0, 0, 2),
	}, FlightKey)
	if err != nil {
		return nil, err
	}
	sortByDeparture(records, false)

	flights := make([]DayFlight, 0)
	for _, r := range records {
		if r.LocalDate == date {
			flights = append(flights, toDayFlight(r))
		}
	}
	return &DateFlights{Date: date, Flights: flights, Count: len(flights)}, nil
}

// ByConfirmation returns tracked flights whose ticket PNR contains pnr.
func (s *Store) ByConfirmation(ctx context.Context, pnr string) (*ConfirmationFlights, error) {
	if pnr == "" {
		return nil, errors.New("confirmation code required")
	}
	records, err := s.merged(ctx, Scope{PNR: pnr}, FlightKey)
	if err != nil {
		return nil, err
	}
	sortByDeparture(records, false)

	flights := make([]DayFlight, 0, len(records))
	for _, r := range records {
		flights = append(flights, toDayFlight(r))
	}
	return &ConfirmationFlights{Confirmation: pnr, Flights: flights, Count: len(flights)}, nil
}

// Stats summarises the main user's whole history.
func (s *Store) Stats(ctx context.Context) (*FlightStats, error) {
	tracked, err := s.TrackedRecords(ctx, Scope{})
	if err != nil {
		return nil, err
	}
	manual, err := s.ManualRecords(ctx, Scope{})
	if err != nil {
		return nil, err
	}
	superseded, err := s.SupersededIDs(ctx)
	if err != nil {
		return nil, err
	}

	st := &FlightStats{ManualFlights: len(manual)}
	for _, r := range tracked {
		if _, ok := superseded[r.ID]; !ok {
			st.TrackedFlights++
		}
	}
	st.TotalFlights = st.TrackedFlights + st.ManualFlights

	now := s.now()
	for _, r := range Merge(tracked, manual, superseded, RouteKey) {
		if r.LocalDate == "" {
			continue
		}
		st.UniqueFlights++
		st.TotalDistanceKM += r.DistanceKM
		if r.DepartureTime.After(now) {
			st.UpcomingFlights++
		}
	}
	st.TotalDistanceKM = math.Round(st.TotalDistanceKM*10) / 10
	st.TotalDistanceMiles = Miles(st.TotalDistanceKM)
	st.EarthCircumferences = math.Round(st.TotalDistanceKM/earthKM*100) / 100
	return st, nil
}

// Recent returns non-archived past flights, newest first.
func (s *Store) Recent(ctx context.Context, limit int) (*RecentFlights, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	records, err := s.merged(ctx, Scope{
		To:              s.now(),
		ExcludeArchived: true,
		Descending:      true,
	}, FlightKey)
	if err != nil {
		return nil, err
	}

	sortByDeparture(records, true)
	if len(records) > limit {
		records = records[:limit]
	}
	flights := make([]PastFlight, 0, len(records))
	for _, r := range records {
		flights = append(flights, toPastFlight(r))
	}
	return &RecentFlights{RecentFlights: flights, Count: len(flights)}, nil
}

// ByYear returns the unique flights whose local departure date falls in year.
func (s *Store) ByYear(ctx context.Context, year int) (*YearFlights, error) {
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("invalid year: %d", year)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	records, err := s.merged(ctx, Scope{
		From: start.AddDate(0, 0, -1),
		To:   start.AddDate(1, 0, 1),
	}, RouteKey)
	if err != nil {
		return nil, err
	}
	sortByDeparture(records, false)

	prefix := fmt.Sprintf("%04d-", year)
	months := make(map[time.Month]int)
	flights := make([]PastFlight, 0)
	for _, r := range records {
		if len(r.LocalDate) < 5 || r.LocalDate[:5] != prefix {
			continue
		}
		flights = append(flights, toPastFlight(r))
		months[r.DepartureTime.Month()]++
	}

	byMonth := make([]MonthCount, 0, len(months))
	for m := time.January; m <= time.December; m++ {
		if n := months[m]; n > 0 {
			byMonth = append(byMonth, MonthCount{Month: m.String()[:3], Count: n})
		}
	}
	return &YearFlights{Year: year, Flights: flights, Count: len(flights), ByMonth: byMonth}, nil
}

// Years counts unique flights per local departure year.
func (s *Store) Years(ctx context.Context) (*YearSummary, error) {
	records, err := s.merged(ctx, Scope{}, RouteKey)
	if err != nil {
		return nil, err
	}
	counts := CountByYear(records)

	out := &YearSummary{Years: make([]YearCount, 0, len(counts))}
	for y, n := range counts {
		out.Years = append(out.Years, YearCount{Year: y, Count: n})
		out.Total += n
	}
	sort.Slice(out.Years, func(i, j int) bool { return out.Years[i].Year < out.Years[j].Year })
	return out, nil
}

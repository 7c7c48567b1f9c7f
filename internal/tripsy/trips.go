package tripsy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"flightdeck/internal/logging"
	"flightdeck/internal/timefmt"
)

const tripColumns = `ZINTERNALIDENTIFIER, ZNAME, CAST(ZSTARTS AS REAL), CAST(ZENDS AS REAL), ZNOTES`

const transportColumns = `
	ZCOMPANY,
	ZTRANSPORTNUMBER,
	CAST(ZDEPARTURE AS REAL),
	CAST(ZARRIVAL AS REAL),
	ZDEPARTUREADDRESS,
	ZARRIVALADDRESS,
	ZRESERVATIONCODE,
	ZINTERNALTYPE`

const hostingColumns = `
	ZNAME,
	ZADDRESS,
	CAST(ZSTARTS AS REAL),
	CAST(ZENDS AS REAL),
	ZRESERVATIONCODE,
	ZROOMTYPE,
	ZPHONE`

// Trip is a trip summary.
type Trip struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Starts       string `json:"starts"`
	Ends         string `json:"ends"`
	DaysUntil    *int   `json:"days_until"`
	DurationDays *int   `json:"duration_days,omitempty"`
	Notes        string `json:"notes,omitempty"`

	StartsAt time.Time `json:"-"`
	EndsAt   time.Time `json:"-"`

	// Raw Core Data bounds, kept to window child queries without rounding.
	rawStart, rawEnd sql.NullFloat64
}

// Transport is a ZTRANSPORTATION row (flights, trains, ferries...).
type Transport struct {
	Airline      string `json:"airline,omitempty"`
	FlightNumber string `json:"flight_number,omitempty"`
	Departure    string `json:"departure,omitempty"`
	Arrival      string `json:"arrival,omitempty"`
	From         string `json:"from,omitempty"`
	To           string `json:"to,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
	Type         string `json:"type,omitempty"`

	DepartureAt time.Time `json:"-"`
	ArrivalAt   time.Time `json:"-"`
}

// Hotel is a ZHOSTING row.
type Hotel struct {
	Name         string `json:"name"`
	Address      string `json:"address,omitempty"`
	Checkin      string `json:"checkin,omitempty"`
	Checkout     string `json:"checkout,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
	RoomType     string `json:"room_type,omitempty"`
	Phone        string `json:"phone,omitempty"`
	DaysUntil    *int   `json:"days_until,omitempty"`

	CheckinAt  time.Time `json:"-"`
	CheckoutAt time.Time `json:"-"`
}

// Activity is a ZACTIVITY row.
type Activity struct {
	Name         string `json:"name"`
	Datetime     string `json:"datetime,omitempty"`
	Location     string `json:"location,omitempty"`
	Confirmation string `json:"confirmation,omitempty"`
	Type         string `json:"type,omitempty"`
	Notes        string `json:"notes,omitempty"`

	StartsAt time.Time `json:"-"`
}

// TripList is the result of ListUpcoming.
type TripList struct {
	Trips []Trip `json:"trips"`
	Count int    `json:"count"`
}

// YearTrips is the result of TripsInYear.
type YearTrips struct {
	Year  int    `json:"year"`
	Trips []Trip `json:"trips"`
	Count int    `json:"count"`
}

// TripDetails is a trip with everything booked inside its window.
type TripDetails struct {
	Trip       Trip        `json:"trip"`
	Flights    []Transport `json:"flights"`
	Hotels     []Hotel     `json:"hotels"`
	Activities []Activity  `json:"activities"`
}

// TransportList is the result of NextFlights.
type TransportList struct {
	Flights []Transport `json:"flights"`
	Count   int         `json:"count"`
}

// HotelList is the result of NextHotels.
type HotelList struct {
	Hotels []Hotel `json:"hotels"`
	Count  int     `json:"count"`
}

// TripOptions controls TripDetails.
type TripOptions struct {
	// IncludePast also matches trips that have already ended.
	IncludePast bool
}

func (s *Store) scanTrip(rs interface{ Scan(...interface{}) error }) (Trip, error) {
	var (
		id, name, notes sql.NullString
		starts, ends    sql.NullFloat64
	)
	if err := rs.Scan(&id, &name, &starts, &ends, &notes); err != nil {
		return Trip{}, err
	}
	t := Trip{
		ID:       id.String,
		Name:     name.String,
		Notes:    notes.String,
		StartsAt: s.toTime(starts),
		EndsAt:   s.toTime(ends),
		rawStart: starts,
		rawEnd:   ends,
	}
	t.Starts = timefmt.Date(t.StartsAt)
	t.Ends = timefmt.Date(t.EndsAt)
	t.DaysUntil = s.daysUntil(t.StartsAt)
	if starts.Valid && ends.Valid {
		d := timefmt.DaysUntil(t.EndsAt, t.StartsAt)
		t.DurationDays = &d
	}
	return t, nil
}

func (s *Store) queryTrips(ctx context.Context, query string, args ...interface{}) ([]Trip, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.TripsyError("query trips failed: %v", err)
		return nil, fmt.Errorf("failed to query trips: %w", err)
	}
	defer rows.Close()

	trips := make([]Trip, 0)
	for rows.Next() {
		t, err := s.scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}

// ListUpcoming lists trips that have not ended yet, soonest first.
func (s *Store) ListUpcoming(ctx context.Context, limit int) (*TripList, error) {
	if limit <= 0 {
		limit = 20
	}
	trips, err := s.queryTrips(ctx, `
		SELECT `+tripColumns+`
		FROM ZTRIP
		WHERE ZENDS > ?
		ORDER BY ZSTARTS
		LIMIT ?`, s.nowCoreData(), limit)
	if err != nil {
		return nil, err
	}
	return &TripList{Trips: trips, Count: len(trips)}, nil
}

// TripsInYear lists trips overlapping the calendar year.
func (s *Store) TripsInYear(ctx context.Context, year int) (*YearTrips, error) {
	if year < 1900 || year > 9999 {
		return nil, fmt.Errorf("invalid year: %d", year)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	end := start.AddDate(1, 0, 0)

	trips, err := s.queryTrips(ctx, `
		SELECT `+tripColumns+`
		FROM ZTRIP
		WHERE ZSTARTS < ? AND COALESCE(ZENDS, ZSTARTS) >= ?
		ORDER BY ZSTARTS`, timefmt.ToCoreData(end), timefmt.ToCoreData(start))
	if err != nil {
		return nil, err
	}
	return &YearTrips{Year: year, Trips: trips, Count: len(trips)}, nil
}

// TripDetails finds the first trip (by start) whose name contains name and
// gathers its transportation, hotels and activities.
func (s *Store) TripDetails(ctx context.Context, name string, opts TripOptions) (*TripDetails, error) {
	query := `SELECT ` + tripColumns + ` FROM ZTRIP WHERE ZNAME LIKE ?`
	args := []interface{}{"%" + name + "%"}
	if !opts.IncludePast {
		query += ` AND ZENDS > ?`
		args = append(args, s.nowCoreData())
	}
	query += ` ORDER BY ZSTARTS LIMIT 1`

	trip, err := s.scanTrip(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &TripNotFoundError{Name: name, IncludePast: opts.IncludePast}
		}
		return nil, fmt.Errorf("failed to query trip: %w", err)
	}
	logging.TripsyDebug("Trip %q matched %q", name, trip.Name)

	start, end := trip.rawStart.Float64, trip.rawEnd.Float64
	if !trip.rawEnd.Valid {
		end = start
	}

	details := &TripDetails{Trip: trip}

	details.Flights, err = s.queryTransport(ctx, `
		SELECT `+transportColumns+`
		FROM ZTRANSPORTATION
		WHERE ZDEPARTURE >= ? AND ZDEPARTURE <= ?
		ORDER BY ZDEPARTURE`, start-dayBuffer, end+dayBuffer)
	if err != nil {
		return nil, err
	}

	details.Hotels, err = s.queryHotels(ctx, false, `
		SELECT `+hostingColumns+`
		FROM ZHOSTING
		WHERE ZSTARTS >= ? AND ZSTARTS <= ?
		ORDER BY ZSTARTS`, start-dayBuffer, end+dayBuffer)
	if err != nil {
		return nil, err
	}

	details.Activities, err = s.queryActivities(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// NextFlights lists upcoming airplane transportation.
func (s *Store) NextFlights(ctx context.Context, limit int) (*TransportList, error) {
	if limit <= 0 {
		limit = 10
	}
	flights, err := s.queryTransport(ctx, `
		SELECT `+transportColumns+`
		FROM ZTRANSPORTATION
		WHERE ZINTERNALTYPE = 'airplane' AND ZDEPARTURE > ?
		ORDER BY ZDEPARTURE
		LIMIT ?`, s.nowCoreData(), limit)
	if err != nil {
		return nil, err
	}
	return &TransportList{Flights: flights, Count: len(flights)}, nil
}

// NextHotels lists upcoming check-ins.
func (s *Store) NextHotels(ctx context.Context, limit int) (*HotelList, error) {
	if limit <= 0 {
		limit = 5
	}
	hotels, err := s.queryHotels(ctx, true, `
		SELECT `+hostingColumns+`
		FROM ZHOSTING
		WHERE ZSTARTS > ?
		ORDER BY ZSTARTS
		LIMIT ?`, s.nowCoreData(), limit)
	if err != nil {
		return nil, err
	}
	return &HotelList{Hotels: hotels, Count: len(hotels)}, nil
}

func (s *Store) queryTransport(ctx context.Context, query string, args ...interface{}) ([]Transport, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.TripsyError("query transportation failed: %v", err)
		return nil, fmt.Errorf("failed to query transportation: %w", err)
	}
	defer rows.Close()

	out := make([]Transport, 0)
	for rows.Next() {
		var (
			company, number, from, to, code, kind sql.NullString
			dep, arr                              sql.NullFloat64
		)
		if err := rows.Scan(&company, &number, &dep, &arr, &from, &to, &code, &kind); err != nil {
			return nil, err
		}
		tr := Transport{
			Airline:      company.String,
			FlightNumber: number.String,
			From:         from.String,
			To:           to.String,
			Confirmation: code.String,
			Type:         kind.String,
			DepartureAt:  s.toTime(dep),
			ArrivalAt:    s.toTime(arr),
		}
		tr.Departure = timefmt.ISO(tr.DepartureAt)
		tr.Arrival = timefmt.ISO(tr.ArrivalAt)
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) queryHotels(ctx context.Context, withDays bool, query string, args ...interface{}) ([]Hotel, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logging.TripsyError("query hotels failed: %v", err)
		return nil, fmt.Errorf("failed to query hotels: %w", err)
	}
	defer rows.Close()

	out := make([]Hotel, 0)
	for rows.Next() {
		var (
			name, addr, code, room, phone sql.NullString
			in, outTS                     sql.NullFloat64
		)
		if err := rows.Scan(&name, &addr, &in, &outTS, &code, &room, &phone); err != nil {
			return nil, err
		}
		h := Hotel{
			Name:         name.String,
			Address:      addr.String,
			Confirmation: code.String,
			RoomType:     room.String,
			Phone:        phone.String,
			CheckinAt:    s.toTime(in),
			CheckoutAt:   s.toTime(outTS),
		}
		h.Checkin = timefmt.ISO(h.CheckinAt)
		h.Checkout = timefmt.ISO(h.CheckoutAt)
		if withDays {
			h.DaysUntil = s.daysUntil(h.CheckinAt)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) queryActivities(ctx context.Context, start, end float64) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ZNAME, CAST(ZSTARTS AS REAL), ZADDRESS, ZRESERVATIONCODE, ZINTERNALTYPE, ZNOTES
		FROM ZACTIVITY
		WHERE ZSTARTS >= ? AND ZSTARTS <= ?
		ORDER BY ZSTARTS`, start, end)
	if err != nil {
		logging.TripsyError("query activities failed: %v", err)
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	out := make([]Activity, 0)
	for rows.Next() {
		var (
			name, addr, code, kind, notes sql.NullString
			at                            sql.NullFloat64
		)
		if err := rows.Scan(&name, &at, &addr, &code, &kind, &notes); err != nil {
			return nil, err
		}
		a := Activity{
			Name:         name.String,
			Location:     addr.String,
			Confirmation: code.String,
			Type:         kind.String,
			Notes:        notes.String,
			StartsAt:     s.toTime(at),
		}
		a.Datetime = timefmt.ISO(a.StartsAt)
		out = append(out, a)
	}
	return out, rows.Err()
}

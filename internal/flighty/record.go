package flighty

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"flightdeck/internal/logging"
	"flightdeck/internal/timefmt"
)

// Source says which table a Record came from.
type Source string

const (
	SourceTracked Source = "tracked"
	SourceManual  Source = "manual"
)

// Airport is the airport side of a flight.
type Airport struct {
	IATA     string
	ICAO     string
	Name     string
	City     string
	TimeZone string
}

// Code returns the IATA code, falling back to ICAO.
func (a Airport) Code() string {
	if a.IATA != "" {
		return a.IATA
	}
	return a.ICAO
}

// Record is one flight row from either table, normalized.
type Record struct {
	ID          string
	Source      Source
	AirlineCode string
	AirlineName string
	Number      string

	Departure Airport
	Arrival   Airport

	// DepartureTime is in the departure airport's zone, ArrivalTime in the
	// arrival airport's. Zero when the row has no timestamp.
	DepartureTime time.Time
	ArrivalTime   time.Time
	// LocalDate is DepartureTime's calendar date (YYYY-MM-DD), "" if unknown.
	LocalDate string

	Confirmation string
	Seat         string
	CabinClass   string
	Aircraft     string

	DepartureTerminal string
	DepartureGate     string
	ArrivalTerminal   string
	ArrivalGate       string

	DistanceKM   float64
	ImportSource string
	TailNumber   string
}

// Label returns "AA 100" when both parts are known, else the bare number.
func (r Record) Label() string {
	if r.AirlineCode != "" && r.Number != "" {
		return r.AirlineCode + " " + r.Number
	}
	return r.Number
}

// Route returns "JFK → LAX".
func (r Record) Route() string {
	return r.Departure.Code() + " → " + r.Arrival.Code()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *Store) scanRecord(rs rowScanner) (Record, error) {
	var (
		id, source, alCode, alName, number        sql.NullString
		depIATA, depICAO, depName, depCity, depTZ sql.NullString
		arrIATA, arrICAO, arrName, arrCity, arrTZ sql.NullString
		depTS, arrTS, dist                        sql.NullFloat64
		pnr, seat, cabin, aircraft                sql.NullString
		depTerm, depGate, arrTerm, arrGate        sql.NullString
		importSrc, tail                           sql.NullString
	)
	err := rs.Scan(
		&id, &source, &alCode, &alName, &number,
		&depIATA, &depICAO, &depName, &depCity, &depTZ,
		&arrIATA, &arrICAO, &arrName, &arrCity, &arrTZ,
		&depTS, &arrTS,
		&pnr, &seat, &cabin, &aircraft,
		&depTerm, &depGate, &arrTerm, &arrGate,
		&dist, &importSrc, &tail,
	)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		ID:          id.String,
		Source:      Source(source.String),
		AirlineCode: alCode.String,
		AirlineName: alName.String,
		Number:      number.String,
		Departure: Airport{
			IATA: depIATA.String, ICAO: depICAO.String,
			Name: depName.String, City: depCity.String, TimeZone: depTZ.String,
		},
		Arrival: Airport{
			IATA: arrIATA.String, ICAO: arrICAO.String,
			Name: arrName.String, City: arrCity.String, TimeZone: arrTZ.String,
		},
		Confirmation:      pnr.String,
		Seat:              seat.String,
		CabinClass:        cabin.String,
		Aircraft:          aircraft.String,
		DepartureTerminal: depTerm.String,
		DepartureGate:     depGate.String,
		ArrivalTerminal:   arrTerm.String,
		ArrivalGate:       arrGate.String,
		DistanceKM:        dist.Float64,
		ImportSource:      importSrc.String,
		TailNumber:        tail.String,
	}
	if depTS.Valid {
		r.DepartureTime = timefmt.FromUnix(depTS.Float64, s.zone(r.Departure.TimeZone))
		r.LocalDate = timefmt.Date(r.DepartureTime)
	}
	if arrTS.Valid {
		r.ArrivalTime = timefmt.FromUnix(arrTS.Float64, s.zone(r.Arrival.TimeZone))
	}
	return r, nil
}

// badZones records unknown timeZoneIdentifier values already reported.
var badZones sync.Map

// zone resolves an airport's timeZoneIdentifier, falling back to the
// store location when the name is empty or unknown.
func (s *Store) zone(name string) *time.Location {
	if name == "" {
		return s.loc
	}
	if loc := timefmt.Zone(name, nil); loc != nil {
		return loc
	}
	if _, seen := badZones.LoadOrStore(name, struct{}{}); !seen {
		logging.FlightyWarn("unknown time zone %q, using %s", name, s.loc)
	}
	return s.loc
}

func (s *Store) queryRecords(ctx context.Context, query string, args []interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	seen := make(map[string]struct{})
	for rows.Next() {
		r, err := s.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		// Multiple Ticket rows can fan out one flight.
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TrackedRecords returns the main user's Flight rows within sc.
// Superseded rows are included; Merge removes them.
func (s *Store) TrackedRecords(ctx context.Context, sc Scope) ([]Record, error) {
	user, err := s.MainUserID(ctx)
	if err != nil {
		return nil, err
	}
	q, args := trackedQuery(sc, user)
	recs, err := s.queryRecords(ctx, q, args)
	if err != nil {
		logging.FlightyError("tracked query failed: %v", err)
		return nil, fmt.Errorf("failed to query tracked flights: %w", err)
	}
	return recs, nil
}

// ManualRecords returns the main user's ManualFlight rows within sc.
func (s *Store) ManualRecords(ctx context.Context, sc Scope) ([]Record, error) {
	if sc.PNR != "" {
		return nil, nil
	}
	user, err := s.MainUserID(ctx)
	if err != nil {
		return nil, err
	}
	q, args := manualQuery(sc, user)
	recs, err := s.queryRecords(ctx, q, args)
	if err != nil {
		logging.FlightyError("manual query failed: %v", err)
		return nil, fmt.Errorf("failed to query manual flights: %w", err)
	}
	return recs, nil
}

// SupersededIDs returns Flight ids that a ManualFlight replaces.
func (s *Store) SupersededIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, supersededQuery)
	if err != nil {
		logging.FlightyError("superseded query failed: %v", err)
		return nil, fmt.Errorf("failed to query superseded flights: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// merged fetches both tables within sc and merges them by key.
func (s *Store) merged(ctx context.Context, sc Scope, key KeyFunc) ([]Record, error) {
	tracked, err := s.TrackedRecords(ctx, sc)
	if err != nil {
		return nil, err
	}
	manual, err := s.ManualRecords(ctx, sc)
	if err != nil {
		return nil, err
	}
	superseded, err := s.SupersededIDs(ctx)
	if err != nil {
		return nil, err
	}
	return Merge(tracked, manual, superseded, key), nil
}

// Package tripsy reads trip itineraries from the Tripsy app's Core Data
// SQLite store. Timestamps are Core Data seconds (since 2001-01-01 UTC).
// Child records (transportation, hosting, activities) are matched to a trip
// by time window rather than by foreign key.
package tripsy

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"flightdeck/internal/logging"
	"flightdeck/internal/timefmt"
)

// ErrDatabaseNotFound is returned by Open when the file is missing.
var ErrDatabaseNotFound = errors.New("database not found")

// ErrTripNotFound matches any *TripNotFoundError.
var ErrTripNotFound = errors.New("trip not found")

// TripNotFoundError reports a trip name with no match.
type TripNotFoundError struct {
	Name        string
	IncludePast bool
}

func (e *TripNotFoundError) Error() string {
	if e.IncludePast {
		return fmt.Sprintf("No trip found matching '%s'", e.Name)
	}
	return fmt.Sprintf("No upcoming trip found matching '%s'", e.Name)
}

// Is lets errors.Is(err, ErrTripNotFound) match.
func (e *TripNotFoundError) Is(target error) bool { return target == ErrTripNotFound }

// dayBuffer widens the trip window for transport and hotels, which often
// start the day before a trip or end the day after.
const dayBuffer = 86400

// Store answers trip questions against one Tripsy database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
	loc  *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone used to render timestamps and dates.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Open opens the database at path read-only using the pure-Go driver.
func Open(path string, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := New(db, opts...)
	s.path = path
	logging.Tripsy("Opened %s (read-only)", path)
	return s, nil
}

// New wraps an existing handle.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database path, empty for injected handles.
func (s *Store) Path() string { return s.path }

func (s *Store) nowCoreData() float64 {
	return timefmt.ToCoreData(s.now())
}

func (s *Store) toTime(v sql.NullFloat64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return timefmt.FromCoreData(v.Float64, s.loc)
}

func (s *Store) daysUntil(t time.Time) *int {
	if t.IsZero() {
		return nil
	}
	d := timefmt.DaysUntil(t, s.now())
	return &d
}

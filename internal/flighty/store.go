// Package flighty reads the Flighty app's SQLite database.
//
// Flighty keeps flights in two overlapping tables: Flight (tracked via
// airline feeds, linked to users through UserFlight) and ManualFlight
// (entered by hand, linked through UserManualFlight). A manual entry may
// replace a tracked one (ManualFlight.originalFlightId). The store merges
// both into Records and deduplicates them by route and local departure
// date so that every aggregate agrees with every other.
//
// The database belongs to Flighty; it is only ever opened read-only.
package flighty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"flightdeck/internal/logging"
)

// ErrDatabaseNotFound is returned by Open when the database file is missing.
var ErrDatabaseNotFound = errors.New("database not found")

// ErrInvalidDate matches any *DateError.
var ErrInvalidDate = errors.New("invalid date")

// DateError reports a date argument that is not YYYY-MM-DD.
type DateError struct {
	Value string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", e.Value)
}

// Is lets errors.Is(err, ErrInvalidDate) match.
func (e *DateError) Is(target error) bool { return target == ErrInvalidDate }

// Store answers flight questions against one Flighty database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
	loc  *time.Location

	mu         sync.Mutex
	mainUser   string
	userLoaded bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the store's notion of "now".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone used for airports that carry no
// timeZoneIdentifier and for parsing date arguments.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Open opens the database at path read-only.
func Open(path string, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Single consumer; one connection keeps the read snapshot simple.
	db.SetMaxOpenConns(1)

	s := New(db, opts...)
	s.path = path
	logging.Flighty("Opened %s (read-only)", path)
	return s, nil
}

// New wraps an existing handle. The caller keeps ownership of db unless it
// calls Close.
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

// Location returns the fallback zone.
func (s *Store) Location() *time.Location { return s.loc }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// MainUserID returns the userId with the most non-deleted UserFlight rows.
// The result is cached for the life of the store. An empty database yields "".
func (s *Store) MainUserID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userLoaded {
		return s.mainUser, nil
	}

	var id sql.NullString
	err := s.db.QueryRowContext(ctx, mainUserQuery).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("failed to identify main user: %w", err)
	}
	s.mainUser = id.String
	s.userLoaded = true
	logging.FlightyDebug("Main user: %q", s.mainUser)
	return s.mainUser, nil
}

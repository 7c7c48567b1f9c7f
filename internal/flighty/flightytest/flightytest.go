// Package flightytest builds throwaway Flighty databases for tests.
package flightytest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Users seeded by fixtures.
const (
	MainUser   = "9f0c2a4e-main-user"
	FriendUser = "17b3d5c1-friend-user"
)

// Schema is the subset of Flighty's schema the store reads.
const Schema = `
CREATE TABLE Airline (id TEXT PRIMARY KEY, iata TEXT, icao TEXT, name TEXT);
CREATE TABLE Airport (
	id TEXT PRIMARY KEY, iata TEXT, icao TEXT, name TEXT, city TEXT, timeZoneIdentifier TEXT
);
CREATE TABLE Flight (
	id TEXT PRIMARY KEY,
	number TEXT,
	airlineId TEXT,
	departureAirportId TEXT,
	actualArrivalAirportId TEXT,
	scheduledArrivalAirportId TEXT,
	lastKnownDepartureDate REAL,
	departureScheduleGateOriginal REAL,
	lastKnownArrivalDate REAL,
	arrivalScheduleGateOriginal REAL,
	equipmentModelName TEXT,
	departureTerminal TEXT,
	departureGate TEXT,
	arrivalTerminal TEXT,
	arrivalGate TEXT,
	distance REAL,
	equipmentTailNumber TEXT
);
CREATE TABLE UserFlight (
	id TEXT PRIMARY KEY, flightId TEXT, userId TEXT, isMyFlight INTEGER,
	importSource TEXT, isArchived INTEGER DEFAULT 0, deleted REAL
);
CREATE TABLE Ticket (
	id TEXT PRIMARY KEY, flightId TEXT, userId TEXT, pnr TEXT, seatNumber TEXT, cabinClass TEXT
);
CREATE TABLE ManualFlight (
	id TEXT PRIMARY KEY,
	number TEXT,
	airlineId TEXT,
	departureAirportId TEXT,
	actualArrivalAirportId TEXT,
	scheduledArrivalAirportId TEXT,
	lastKnownDepartureDate REAL,
	lastKnownArrivalDate REAL,
	equipmentModelName TEXT,
	departureTerminal TEXT,
	departureGate TEXT,
	arrivalTerminal TEXT,
	arrivalGate TEXT,
	distance REAL,
	equipmentTailNumber TEXT,
	originalFlightId TEXT
);
CREATE TABLE UserManualFlight (
	id TEXT PRIMARY KEY, flightId TEXT, userId TEXT, isMyFlight INTEGER, deleted REAL
);
`

// Airport is a fixture airport.
type Airport struct {
	ID, IATA, ICAO, Name, City, TZ string
}

// Airline is a fixture airline.
type Airline struct {
	ID, IATA, ICAO, Name string
}

var (
	JFK = Airport{"apt-jfk", "JFK", "KJFK", "John F. Kennedy International", "New York", "America/New_York"}
	LAX = Airport{"apt-lax", "LAX", "KLAX", "Los Angeles International", "Los Angeles", "America/Los_Angeles"}
	SFO = Airport{"apt-sfo", "SFO", "KSFO", "San Francisco International", "San Francisco", "America/Los_Angeles"}
	SEA = Airport{"apt-sea", "SEA", "KSEA", "Seattle-Tacoma International", "Seattle", "America/Los_Angeles"}
	NRT = Airport{"apt-nrt", "NRT", "RJAA", "Narita International", "Tokyo", "Asia/Tokyo"}
	HKG = Airport{"apt-hkg", "HKG", "VHHH", "Hong Kong International", "Hong Kong", "Asia/Hong_Kong"}
	// Strip has no IATA code; its code falls back to ICAO.
	Strip = Airport{"apt-strip", "", "SPSF", "Private Strip", "Nowhere", ""}

	AA = Airline{"al-aa", "AA", "AAL", "American Airlines"}
	UA = Airline{"al-ua", "UA", "UAL", "United Airlines"}
	JL = Airline{"al-jl", "JL", "JAL", "Japan Airlines"}
)

// Flight describes a tracked flight and its UserFlight link.
type Flight struct {
	ID      string
	Airline Airline
	Number  string
	From    Airport
	To      Airport
	// DivertedTo, when set, becomes actualArrivalAirportId.
	DivertedTo *Airport

	Departure time.Time
	Arrival   time.Time
	// ScheduleOnly stores times in the *ScheduleGateOriginal columns only.
	ScheduleOnly bool

	User         string // default MainUser
	NotMine      bool   // isMyFlight = 0
	ImportSource string // "" stores NULL
	Archived     bool
	Deleted      bool

	PNR, Seat, Cabin string
	Aircraft, Tail   string
	DistanceKM       float64
}

// ManualFlight describes a ManualFlight row and its UserManualFlight link.
type ManualFlight struct {
	ID         string
	Airline    Airline
	Number     string
	From       Airport
	To         Airport
	Departure  time.Time
	Arrival    time.Time
	Original   string // originalFlightId
	User       string // default MainUser
	Deleted    bool
	Aircraft   string
	Tail       string
	DistanceKM float64
}

// DB is a writable fixture database on disk.
type DB struct {
	t    testing.TB
	db   *sql.DB
	Path string
}

// New creates an empty Flighty database under t.TempDir().
func New(t testing.TB) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "MainFlightyDatabase.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("create fixture schema: %v", err)
	}
	d := &DB{t: t, db: db, Path: path}
	t.Cleanup(func() { d.db.Close() })
	return d
}

// Exec runs arbitrary SQL against the fixture.
func (d *DB) Exec(query string, args ...interface{}) {
	d.t.Helper()
	if _, err := d.db.Exec(query, args...); err != nil {
		d.t.Fatalf("fixture exec %q: %v", query, err)
	}
}

func (d *DB) airport(a Airport) {
	d.Exec(`INSERT OR IGNORE INTO Airport (id, iata, icao, name, city, timeZoneIdentifier)
		VALUES (?, ?, ?, ?, ?, ?)`, a.ID, null(a.IATA), null(a.ICAO), a.Name, a.City, null(a.TZ))
}

func (d *DB) airline(a Airline) {
	if a.ID == "" {
		return
	}
	d.Exec(`INSERT OR IGNORE INTO Airline (id, iata, icao, name) VALUES (?, ?, ?, ?)`,
		a.ID, null(a.IATA), null(a.ICAO), a.Name)
}

// AddFlight inserts a tracked flight and returns its id.
func (d *DB) AddFlight(f Flight) string {
	d.t.Helper()
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.User == "" {
		f.User = MainUser
	}
	d.airport(f.From)
	d.airport(f.To)
	d.airline(f.Airline)

	actual := f.To
	if f.DivertedTo != nil {
		d.airport(*f.DivertedTo)
		actual = *f.DivertedTo
	}

	var lastDep, lastArr, schedDep, schedArr interface{}
	if f.ScheduleOnly {
		schedDep, schedArr = ts(f.Departure), ts(f.Arrival)
	} else {
		lastDep, lastArr = ts(f.Departure), ts(f.Arrival)
		schedDep, schedArr = ts(f.Departure), ts(f.Arrival)
	}

	d.Exec(`INSERT INTO Flight (id, number, airlineId, departureAirportId, actualArrivalAirportId,
		scheduledArrivalAirportId, lastKnownDepartureDate, departureScheduleGateOriginal,
		lastKnownArrivalDate, arrivalScheduleGateOriginal, equipmentModelName, departureTerminal,
		departureGate, arrivalTerminal, arrivalGate, distance, equipmentTailNumber)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'T1', 'A1', 'T2', 'B2', ?, ?)`,
		f.ID, f.Number, null(f.Airline.ID), f.From.ID, actual.ID, f.To.ID,
		lastDep, schedDep, lastArr, schedArr, null(f.Aircraft), f.DistanceKM, null(f.Tail))

	mine := 1
	if f.NotMine {
		mine = 0
	}
	archived := 0
	if f.Archived {
		archived = 1
	}
	var deleted interface{}
	if f.Deleted {
		deleted = 1.0
	}
	d.Exec(`INSERT INTO UserFlight (id, flightId, userId, isMyFlight, importSource, isArchived, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), f.ID, f.User, mine, null(f.ImportSource), archived, deleted)

	if f.PNR != "" || f.Seat != "" || f.Cabin != "" {
		d.Exec(`INSERT INTO Ticket (id, flightId, userId, pnr, seatNumber, cabinClass)
			VALUES (?, ?, ?, ?, ?, ?)`, uuid.NewString(), f.ID, f.User, null(f.PNR), null(f.Seat), null(f.Cabin))
	}
	return f.ID
}

// AddManual inserts a manual flight and returns its id.
func (d *DB) AddManual(m ManualFlight) string {
	d.t.Helper()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.User == "" {
		m.User = MainUser
	}
	d.airport(m.From)
	d.airport(m.To)
	d.airline(m.Airline)

	d.Exec(`INSERT INTO ManualFlight (id, number, airlineId, departureAirportId, actualArrivalAirportId,
		scheduledArrivalAirportId, lastKnownDepartureDate, lastKnownArrivalDate, equipmentModelName,
		distance, equipmentTailNumber, originalFlightId)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Number, null(m.Airline.ID), m.From.ID, m.To.ID, m.To.ID,
		ts(m.Departure), ts(m.Arrival), null(m.Aircraft), m.DistanceKM, null(m.Tail), null(m.Original))

	var deleted interface{}
	if m.Deleted {
		deleted = 1.0
	}
	d.Exec(`INSERT INTO UserManualFlight (id, flightId, userId, isMyFlight, deleted) VALUES (?, ?, ?, 1, ?)`,
		uuid.NewString(), m.ID, m.User, deleted)
	return m.ID
}

// Close closes the writer connection so the store can open the file read-only.
func (d *DB) Close() {
	d.db.Close()
}

func null(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func ts(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return float64(t.Unix())
}

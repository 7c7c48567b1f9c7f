// Package tripsytest builds throwaway Tripsy Core Data stores for tests.
package tripsytest

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// CoreDataOffset is the Unix time of 2001-01-01T00:00:00Z.
const CoreDataOffset = 978307200

// Schema mirrors the Core Data tables the store reads. Core Data declares
// dates as TIMESTAMP and stores seconds since 2001 as numbers.
const Schema = `
CREATE TABLE ZTRIP (
	Z_PK INTEGER PRIMARY KEY, Z_ENT INTEGER, Z_OPT INTEGER,
	ZINTERNALIDENTIFIER VARCHAR, ZNAME VARCHAR, ZSTARTS TIMESTAMP, ZENDS TIMESTAMP, ZNOTES VARCHAR
);
CREATE TABLE ZTRANSPORTATION (
	Z_PK INTEGER PRIMARY KEY, Z_ENT INTEGER, Z_OPT INTEGER, ZTRIP INTEGER,
	ZCOMPANY VARCHAR, ZTRANSPORTNUMBER VARCHAR, ZDEPARTURE TIMESTAMP, ZARRIVAL TIMESTAMP,
	ZDEPARTUREADDRESS VARCHAR, ZARRIVALADDRESS VARCHAR, ZRESERVATIONCODE VARCHAR, ZINTERNALTYPE VARCHAR
);
CREATE TABLE ZHOSTING (
	Z_PK INTEGER PRIMARY KEY, Z_ENT INTEGER, Z_OPT INTEGER, ZTRIP INTEGER,
	ZNAME VARCHAR, ZADDRESS VARCHAR, ZSTARTS TIMESTAMP, ZENDS TIMESTAMP,
	ZRESERVATIONCODE VARCHAR, ZROOMTYPE VARCHAR, ZPHONE VARCHAR
);
CREATE TABLE ZACTIVITY (
	Z_PK INTEGER PRIMARY KEY, Z_ENT INTEGER, Z_OPT INTEGER, ZTRIP INTEGER,
	ZNAME VARCHAR, ZSTARTS TIMESTAMP, ZADDRESS VARCHAR, ZRESERVATIONCODE VARCHAR,
	ZINTERNALTYPE VARCHAR, ZNOTES VARCHAR
);
`

// Trip is a ZTRIP row.
type Trip struct {
	Name   string
	Starts time.Time
	Ends   time.Time
	Notes  string
}

// Transport is a ZTRANSPORTATION row. Kind defaults to "airplane".
type Transport struct {
	Company, Number string
	Departure       time.Time
	Arrival         time.Time
	From, To        string
	Code            string
	Kind            string
}

// Hotel is a ZHOSTING row.
type Hotel struct {
	Name, Address string
	Checkin       time.Time
	Checkout      time.Time
	Code, Room    string
	Phone         string
}

// Activity is a ZACTIVITY row.
type Activity struct {
	Name    string
	Starts  time.Time
	Address string
	Code    string
	Kind    string
	Notes   string
}

// DB is a writable fixture store on disk.
type DB struct {
	t    testing.TB
	db   *sql.DB
	Path string
}

// New creates an empty store under t.TempDir().
func New(t testing.TB) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Tripsy.sqlite")
	db, err := sql.Open("sqlite", path)
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

func (d *DB) exec(query string, args ...interface{}) {
	d.t.Helper()
	if _, err := d.db.Exec(query, args...); err != nil {
		d.t.Fatalf("fixture exec: %v", err)
	}
}

// AddTrip inserts a trip and returns its identifier.
func (d *DB) AddTrip(tr Trip) string {
	d.t.Helper()
	id := uuid.NewString()
	d.exec(`INSERT INTO ZTRIP (Z_ENT, Z_OPT, ZINTERNALIDENTIFIER, ZNAME, ZSTARTS, ZENDS, ZNOTES)
		VALUES (1, 1, ?, ?, ?, ?, ?)`, id, tr.Name, coreData(tr.Starts), coreData(tr.Ends), null(tr.Notes))
	return id
}

// AddTransport inserts a transportation row.
func (d *DB) AddTransport(tr Transport) {
	d.t.Helper()
	if tr.Kind == "" {
		tr.Kind = "airplane"
	}
	d.exec(`INSERT INTO ZTRANSPORTATION (Z_ENT, Z_OPT, ZCOMPANY, ZTRANSPORTNUMBER, ZDEPARTURE, ZARRIVAL,
		ZDEPARTUREADDRESS, ZARRIVALADDRESS, ZRESERVATIONCODE, ZINTERNALTYPE)
		VALUES (2, 1, ?, ?, ?, ?, ?, ?, ?, ?)`,
		null(tr.Company), null(tr.Number), coreData(tr.Departure), coreData(tr.Arrival),
		null(tr.From), null(tr.To), null(tr.Code), tr.Kind)
}

// AddHotel inserts a hosting row.
func (d *DB) AddHotel(h Hotel) {
	d.t.Helper()
	d.exec(`INSERT INTO ZHOSTING (Z_ENT, Z_OPT, ZNAME, ZADDRESS, ZSTARTS, ZENDS, ZRESERVATIONCODE, ZROOMTYPE, ZPHONE)
		VALUES (3, 1, ?, ?, ?, ?, ?, ?, ?)`,
		h.Name, null(h.Address), coreData(h.Checkin), coreData(h.Checkout), null(h.Code), null(h.Room), null(h.Phone))
}

// AddActivity inserts an activity row.
func (d *DB) AddActivity(a Activity) {
	d.t.Helper()
	d.exec(`INSERT INTO ZACTIVITY (Z_ENT, Z_OPT, ZNAME, ZSTARTS, ZADDRESS, ZRESERVATIONCODE, ZINTERNALTYPE, ZNOTES)
		VALUES (4, 1, ?, ?, ?, ?, ?, ?)`,
		a.Name, coreData(a.Starts), null(a.Address), null(a.Code), null(a.Kind), null(a.Notes))
}

// Close closes the writer connection.
func (d *DB) Close() {
	d.db.Close()
}

func coreData(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return float64(t.Unix() - CoreDataOffset)
}

func null(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"flightdeck/internal/flighty"
	"flightdeck/internal/logging"
	"flightdeck/internal/radar"
	"flightdeck/internal/tripsy"
)

type fakeFlights struct {
	upcomingOpts flighty.ListOptions
	recentLimit  int
	err          error
}

func (f *fakeFlights) ListUpcoming(_ context.Context, opts flighty.ListOptions) (*flighty.UpcomingFlights, error) {
	f.upcomingOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &flighty.UpcomingFlights{
		Flights: []flighty.Flight{{Flight: "AA100", FlightNumber: "100", Route: "JFK → LAX", DaysUntil: 9}},
		Count:   1,
	}, nil
}

func (f *fakeFlights) Next(context.Context) (*flighty.NextFlight, error) {
	return &flighty.NextFlight{Message: "No upcoming flights found"}, nil
}

func (f *fakeFlights) OnDate(_ context.Context, date string) (*flighty.DateFlights, error) {
	if date != "2025-06-10" {
		return nil, &flighty.DateError{Value: date}
	}
	return &flighty.DateFlights{Date: date, Flights: []flighty.DayFlight{}}, nil
}

func (f *fakeFlights) ByConfirmation(_ context.Context, pnr string) (*flighty.ConfirmationFlights, error) {
	return &flighty.ConfirmationFlights{Confirmation: strings.ToUpper(pnr), Flights: []flighty.DayFlight{}}, nil
}

func (f *fakeFlights) Stats(context.Context) (*flighty.FlightStats, error) {
	return &flighty.FlightStats{TotalFlights: 3, UniqueFlights: 3}, nil
}

func (f *fakeFlights) Recent(_ context.Context, limit int) (*flighty.RecentFlights, error) {
	f.recentLimit = limit
	return &flighty.RecentFlights{RecentFlights: []flighty.PastFlight{}}, nil
}

func (f *fakeFlights) ByYear(_ context.Context, year int) (*flighty.YearFlights, error) {
	return &flighty.YearFlights{Year: year, Flights: []flighty.PastFlight{}}, nil
}

func (f *fakeFlights) Years(context.Context) (*flighty.YearSummary, error) {
	return &flighty.YearSummary{Years: []flighty.YearCount{{Year: 2025, Count: 2}}, Total: 2}, nil
}

type fakeTrips struct{}

func (fakeTrips) ListUpcoming(_ context.Context, limit int) (*tripsy.TripList, error) {
	return &tripsy.TripList{Trips: []tripsy.Trip{{Name: "Tokyo"}}, Count: 1}, nil
}

func (fakeTrips) TripDetails(_ context.Context, name string, _ tripsy.TripOptions) (*tripsy.TripDetails, error) {
	if !strings.EqualFold(name, "tokyo") {
		return nil, &tripsy.TripNotFoundError{Name: name}
	}
	return &tripsy.TripDetails{
		Trip:    tripsy.Trip{Name: "Tokyo", Starts: "2025-07-01", Ends: "2025-07-08"},
		Flights: []tripsy.Transport{{Airline: "JL", FlightNumber: "5", From: "SFO", To: "HND"}},
	}, nil
}

type fakeRadar struct{}

func (fakeRadar) TrackOne(_ context.Context, tail string) (*radar.Report, error) {
	if tail == "N12345" {
		return &radar.Report{
			Tail:   tail,
			Status: radar.StatusTracked,
			Position: &radar.Position{
				Registration: tail,
				Callsign:     "UAL1",
				Latitude:     37.6,
				Longitude:    -122.4,
				AltitudeFt:   35000,
				Origin:       "SFO",
				Destination:  "JFK",
			},
		}, nil
	}
	if tail == "BOOM" {
		return nil, errors.New("feed unavailable")
	}
	return &radar.Report{Tail: tail, Status: radar.StatusNotFound, Message: radar.NotFoundMessage}, nil
}

func (fakeRadar) Fleet(_ context.Context, icao string) ([]radar.Position, error) {
	return []radar.Position{{Callsign: icao + "1"}, {Callsign: icao + "2"}}, nil
}

func newTestServer(flights *fakeFlights) *Server {
	return New(Deps{
		Flights:        flights,
		Trips:          fakeTrips{},
		Radar:          fakeRadar{},
		CORSOrigins:    []string{"*"},
		RefreshSeconds: 30,
	})
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	s := newTestServer(&fakeFlights{})

	w := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestFlightRoutes(t *testing.T) {
	flights := &fakeFlights{}
	s := newTestServer(flights)

	w := get(t, s, "/api/flights/upcoming?limit=3&include_friends=true")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])
	assert.Equal(t, flighty.ListOptions{Limit: 3, IncludeFriends: true}, flights.upcomingOpts)

	w = get(t, s, "/api/flights/upcoming")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, flighty.ListOptions{Limit: 20}, flights.upcomingOpts)

	w = get(t, s, "/api/flights/next")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Nil(t, body["next_flight"])
	assert.Equal(t, "No upcoming flights found", body["message"])

	w = get(t, s, "/api/flights/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, flights.recentLimit)

	w = get(t, s, "/api/flights/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["unique_flights"])

	w = get(t, s, "/api/flights/years")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"])

	w = get(t, s, "/api/flights/date/2025-06-10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-06-10", decode(t, w)["date"])

	w = get(t, s, "/api/flights/pnr/abc123")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ABC123", decode(t, w)["confirmation"])

	w = get(t, s, "/api/flights/year/2024")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2024, decode(t, w)["year"])
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(&fakeFlights{})

	tests := []struct {
		path   string
		status int
		msg    string
	}{
		{"/api/flights/date/not-a-date", http.StatusBadRequest, "not-a-date"},
		{"/api/flights/year/abc", http.StatusBadRequest, "invalid year: abc"},
		{"/api/flights/year/1200", http.StatusBadRequest, "invalid year: 1200"},
		{"/api/flights/upcoming?limit=-1", http.StatusBadRequest, "invalid limit: -1"},
		{"/api/trips/nowhere", http.StatusNotFound, "nowhere"},
		{"/api/trips/nowhere/pdf", http.StatusNotFound, "nowhere"},
		{"/api/radar/N00000", http.StatusNotFound, radar.NotFoundMessage},
		{"/api/radar/BOOM", http.StatusInternalServerError, "feed unavailable"},
		{"/nope", http.StatusNotFound, "route not found"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, s, tt.path)
			assert.Equal(t, tt.status, w.Code)
			msg, _ := decode(t, w)["error"].(string)
			assert.Contains(t, msg, tt.msg)
		})
	}
}

func TestUpstreamErrorIs500(t *testing.T) {
	s := newTestServer(&fakeFlights{err: errors.New("database is locked")})
	w := get(t, s, "/api/flights/upcoming")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "database is locked", decode(t, w)["error"])
}

func TestUnconfiguredStores(t *testing.T) {
	s := New(Deps{})
	for _, path := range []string{"/api/flights/next", "/api/trips", "/api/radar/N1", "/map/N1"} {
		w := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestTripRoutes(t *testing.T) {
	s := newTestServer(&fakeFlights{})

	w := get(t, s, "/api/trips")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = get(t, s, "/api/trips/tokyo")
	require.Equal(t, http.StatusOK, w.Code)
	trip := decode(t, w)["trip"].(map[string]interface{})
	assert.Equal(t, "Tokyo", trip["name"])

	w = get(t, s, "/api/trips/tokyo/pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `filename="Tokyo.pdf"`)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF-"))
}

func TestRadarRoutes(t *testing.T) {
	s := newTestServer(&fakeFlights{})

	w := get(t, s, "/api/radar/N12345")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, radar.StatusTracked, body["status"])
	assert.Equal(t, "UAL1", body["callsign"])

	w = get(t, s, "/api/fleet/ual")
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, "UAL", body["airline"])
	assert.EqualValues(t, 2, body["count"])
}

func TestMapRoute(t *testing.T) {
	s := newTestServer(&fakeFlights{})

	w := get(t, s, "/map/n12345")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), `http-equiv="refresh" content="30"`)
	assert.Contains(t, w.Body.String(), "UAL1")

	w = get(t, s, "/map/N00000")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Not currently tracked")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(&fakeFlights{})
	get(t, s, "/api/flights/stats")
	get(t, s, "/api/flights/stats")

	w := get(t, s, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Contains(t, out, `flightdeck_http_requests_total{method="GET",route="/api/flights/stats",status="200"} 2`)
	assert.Contains(t, out, "flightdeck_http_request_duration_seconds_bucket")
}

func TestCORS(t *testing.T) {
	s := New(Deps{Flights: &fakeFlights{}, CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s := New(Deps{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunReportsListenFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, logging.Initialize(logging.Config{Dir: dir, DebugMode: true, Level: "debug"}))
	defer logging.Initialize(logging.Config{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = New(Deps{}).Run(context.Background(), ln.Addr().String())
	require.Error(t, err)

	logging.CloseAll()
	name := time.Now().Format("2006-01-02") + "_" + string(logging.CategoryServer) + ".log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Contains(t, string(data), "listen on "+ln.Addr().String())
}

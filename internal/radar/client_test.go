package radar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightdeck/internal/config"
)

const feedBody = `{
  "full_count": 12345,
  "version": 4,
  "2f9a1c3b": ["A1B2C3", 40.6413, -73.7781, 270, 35000, 480, "1234", "F-KJFK1", "C68A", "N464QS",
    1717243200, "TEB", "PBI", "", 0, 64, "EJA464", 0, "EJA"],
  "stats": {"total": {"ads-b": 1}}
}`

const detailsBody = `{
  "aircraft": {"model": {"code": "C68A", "text": "Cessna 680A Citation Latitude"}, "hex": "a5f3c1"},
  "airline": {"name": "NetJets", "code": {"iata": "1I", "icao": "EJA"}},
  "airport": {
    "origin": {"name": "Teterboro Airport", "code": {"iata": "TEB"}, "position": {"region": {"city": "Teterboro"}}},
    "destination": {"name": "Palm Beach International Airport", "code": {"iata": "PBI"}, "position": {"region": {"city": "West Palm Beach"}}}
  },
  "status": {"text": "Estimated- 15:42"},
  "time": {
    "scheduled": {"departure": 1717236000, "arrival": 1717245000},
    "real": {"departure": 1717236900, "arrival": null},
    "other": {"eta": 1717245720}
  },
  "flightHistory": {"aircraft": [
    {"identification": {"number": {"default": null}},
     "airport": {"origin": {"code": {"iata": "TEB"}, "position": {"region": {"city": "Teterboro"}}},
                 "destination": {"code": {"iata": "PBI"}, "position": {"region": {"city": "West Palm Beach"}}}},
     "time": {"real": {"departure": 1717236900}}}
  ]}
}`

func newTestServer(t *testing.T) (*httptest.Server, *Client) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/feed.js", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		http.SetCookie(w, &http.Cookie{Name: "fr24session", Value: "s1", Path: "/"})
		switch {
		case r.URL.Query().Get("reg") == "N464QS" || r.URL.Query().Get("airline") == "EJA":
			fmt.Fprint(w, feedBody)
		case r.URL.Query().Get("reg") == "BROKEN":
			w.WriteHeader(http.StatusBadGateway)
		default:
			fmt.Fprint(w, `{"full_count": 0, "version": 4}`)
		}
	})
	mux.HandleFunc("/clickhandler/", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("fr24session"); assert.NoError(t, err) {
			assert.Equal(t, "s1", c.Value)
		}
		if r.URL.Query().Get("flight") != "2f9a1c3b" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, detailsBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewClient(config.RadarConfig{
		FeedURL:    srv.URL + "/feed.js",
		DetailsURL: srv.URL + "/clickhandler/",
		UserAgent:  "test-agent",
	}, 5*time.Second)
	require.NoError(t, err)
	return srv, c
}

func TestClient_Flights(t *testing.T) {
	_, c := newTestServer(t)

	flights, err := c.Flights(context.Background(), Filter{Registration: "n464qs"})
	require.NoError(t, err)
	require.Len(t, flights, 1)

	f := flights[0]
	assert.Equal(t, "2f9a1c3b", f.ID)
	assert.Equal(t, "N464QS", f.Registration)
	assert.Equal(t, "EJA464", f.Callsign)
	assert.Equal(t, "C68A", f.AircraftCode)
	assert.Equal(t, 35000, f.Altitude)
	assert.Equal(t, 480, f.GroundSpeed)
	assert.Equal(t, "TEB", f.Origin)
	assert.Equal(t, "PBI", f.Destination)
	assert.Equal(t, "EJA", f.AirlineICAO)
	assert.False(t, f.OnGround)
	assert.InDelta(t, 40.6413, f.Latitude, 1e-9)
}

func TestClient_FlightsEmptyAndError(t *testing.T) {
	_, c := newTestServer(t)

	flights, err := c.Flights(context.Background(), Filter{Registration: "N000XX"})
	require.NoError(t, err)
	assert.Empty(t, flights)

	_, err = c.Flights(context.Background(), Filter{Registration: "BROKEN"})
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_DetailsSendsSessionCookie(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	_, err := c.Flights(ctx, Filter{Registration: "N464QS"})
	require.NoError(t, err)

	d, err := c.Details(ctx, "2f9a1c3b")
	require.NoError(t, err)
	require.NotNil(t, d.Airline)
	assert.Equal(t, "NetJets", d.Airline.Name)
}

func TestTracker_AgainstServer(t *testing.T) {
	_, c := newTestServer(t)
	tr := NewTracker(c, 2)

	reports, err := tr.Track(context.Background(), "N464QS", "N000XX")
	require.NoError(t, err)
	require.Len(t, reports, 2)

	r := reports[0]
	require.True(t, r.Found())
	assert.Equal(t, "Cessna 680A Citation Latitude", r.AircraftModel)
	assert.Equal(t, "a5f3c1", r.Hex)
	assert.Equal(t, "NetJets", r.Airline)
	assert.Equal(t, "EJA", r.AirlineICAO)
	assert.Equal(t, "Teterboro", r.OriginCity)
	assert.Equal(t, "West Palm Beach", r.DestinationCity)
	assert.Equal(t, "2024-06-01 10:00 UTC", r.ScheduledDeparture)
	assert.Equal(t, "2024-06-01 10:15 UTC", r.ActualDeparture)
	assert.Empty(t, r.ActualArrival)
	assert.Equal(t, "2024-06-01 12:42 UTC", r.ETA)
	require.Len(t, r.RecentFlights, 1)
	assert.Equal(t, HistoryEntry{
		Origin: "TEB", OriginCity: "Teterboro",
		Destination: "PBI", DestinationCity: "West Palm Beach",
		Departure: "2024-06-01 10:15 UTC",
	}, r.RecentFlights[0])

	assert.Equal(t, Report{Tail: "N000XX", Status: StatusNotFound, Message: NotFoundMessage}, reports[1])
}

package flightmap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightdeck/internal/radar"
)

func trackedReport(onGround bool, alt int) *radar.Report {
	return &radar.Report{
		Status: radar.StatusTracked,
		Position: &radar.Position{
			Callsign: "EJA464", Registration: "N464QS", AircraftType: "C68A",
			Latitude: 40.6413, Longitude: -73.7781, AltitudeFt: alt, GroundSpeedKts: 480,
			Heading: 270, Origin: "TEB", Destination: "PBI", OnGround: onGround,
		},
		AircraftModel:   "Cessna 680A Citation Latitude",
		Airline:         "NetJets",
		OriginCity:      "Teterboro",
		DestinationCity: "West Palm Beach",
		FlightStatus:    "Estimated- 15:42",
		ActualDeparture: "2024-06-01 10:15 UTC",
		ETA:             "2024-06-01 12:42 UTC",
		RecentFlights: []radar.HistoryEntry{
			{Origin: "PBI", OriginCity: "West Palm Beach", Destination: "TEB", DestinationCity: "Teterboro", Departure: "2024-05-30 14:00 UTC"},
		},
	}
}

func TestZoom(t *testing.T) {
	assert.Equal(t, 6, Zoom(false, 35000))
	assert.Equal(t, 10, Zoom(false, 10000))
	assert.Equal(t, 10, Zoom(false, 2500))
	assert.Equal(t, 13, Zoom(true, 0))
	assert.Equal(t, 13, Zoom(true, 12000))
}

func TestRender_Tracked(t *testing.T) {
	now := time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC)
	page, err := Render(trackedReport(false, 35000), "N464QS", Options{Now: now, RefreshSeconds: 30})
	require.NoError(t, err)
	out := string(page)

	assert.Contains(t, out, "<title>N464QS - Live Flight Tracker</title>")
	assert.Contains(t, out, `<meta http-equiv="refresh" content="30">`)
	assert.Contains(t, out, "Cessna 680A Citation Latitude - NetJets")
	assert.Contains(t, out, `<span class="badge air">IN FLIGHT</span>`)
	assert.Contains(t, out, "35,000 ft")
	assert.Contains(t, out, "<div class=\"info-label\">ETA</div>")
	assert.Contains(t, out, "2024-06-01 12:42 UTC")
	assert.Contains(t, out, "<td>PBI (West Palm Beach)</td>")
	assert.Contains(t, out, "Generated 2024-06-01 11:00 UTC")
	assert.Contains(t, out, "zoom:  6 ,")
	assert.Contains(t, out, "cartocdn.com")
	assert.Contains(t, out, "const onGround =  false ;")
}

func TestRender_OnGroundArrived(t *testing.T) {
	r := trackedReport(true, 0)
	r.ActualArrival = "2024-06-01 12:40 UTC"
	page, err := Render(r, "N464QS", Options{TileURL: "https://tiles.example/{z}/{x}/{y}.png"})
	require.NoError(t, err)
	out := string(page)

	assert.Contains(t, out, `<span class="badge ground">ON GROUND</span>`)
	assert.Contains(t, out, "<div class=\"info-label\">Arrived</div>")
	assert.Contains(t, out, "zoom:  13 ,")
	assert.Contains(t, out, "tiles.example")
	assert.NotContains(t, out, "http-equiv")
}

func TestRender_EscapesMarkup(t *testing.T) {
	r := trackedReport(false, 1000)
	r.Airline = "<script>alert(1)</script>"
	page, err := Render(r, "N464QS", Options{})
	require.NoError(t, err)
	assert.NotContains(t, string(page), "<script>alert(1)</script>")
}

func TestRender_NotFound(t *testing.T) {
	for _, r := range []*radar.Report{nil, {Tail: "N0", Status: radar.StatusNotFound}} {
		page, err := Render(r, "N0", Options{})
		require.NoError(t, err)
		out := string(page)
		assert.Contains(t, out, "<title>N0 - Not Found</title>")
		assert.Contains(t, out, "Not currently tracked on FlightRadar24.")
		assert.NotContains(t, out, "leaflet")
	}
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()

	explicit := filepath.Join(dir, "map.html")
	got, err := Write(explicit, "", "N1", []byte("<html></html>"))
	require.NoError(t, err)
	assert.Equal(t, explicit, got)

	temp, err := Write("", dir, "N1", []byte("<html>temp</html>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(temp), "flight-N1-"))
	assert.True(t, strings.HasSuffix(temp, ".html"))
	body, err := os.ReadFile(temp)
	require.NoError(t, err)
	assert.Equal(t, "<html>temp</html>", string(body))
}

// Package flightmap renders a self-contained Leaflet page for one aircraft.
package flightmap

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"

	"flightdeck/internal/logging"
	"flightdeck/internal/radar"
	"flightdeck/internal/timefmt"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html.tmpl"))

// DefaultTileURL is the CARTO dark basemap.
const DefaultTileURL = "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png"

// Options controls page generation.
type Options struct {
	// Now stamps the page; zero means time.Now.
	Now time.Time
	// RefreshSeconds adds a meta refresh when positive.
	RefreshSeconds int
	TileURL        string
}

// Zoom picks the initial map zoom: 6 cruising above 10,000 ft, 10 for a
// low airborne aircraft, 13 on the ground.
func Zoom(onGround bool, altitudeFt int) int {
	switch {
	case onGround:
		return 13
	case altitudeFt > 10000:
		return 6
	default:
		return 10
	}
}

type notFoundPage struct {
	Tail           string
	RefreshSeconds int
}

type trackerPage struct {
	RefreshSeconds  int
	Registration    string
	Callsign        string
	Model           string
	Airline         string
	Status          string
	OnGround        bool
	Origin          string
	OriginCity      string
	Destination     string
	DestinationCity string
	Altitude        string
	Speed           int
	Heading         int
	Departed        string
	ArrivalLabel    string
	ArrivalValue    string
	History         []radar.HistoryEntry
	Generated       string
	Lat, Lon        float64
	Zoom            int
	TileURL         string
	Popup           string
}

func or(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Render builds the page. A nil or not-found report yields a "not
// tracked" card.
func Render(report *radar.Report, tail string, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if !report.Found() {
		err := templates.ExecuteTemplate(&buf, "notfound.html.tmpl", notFoundPage{
			Tail:           tail,
			RefreshSeconds: opts.RefreshSeconds,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render map: %w", err)
		}
		return buf.Bytes(), nil
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	tiles := or(opts.TileURL, DefaultTileURL)

	r := report
	reg := or(r.Registration, tail)
	model := or(r.AircraftModel, r.AircraftType)
	origin := or(r.Origin, "???")
	dest := or(r.Destination, "???")

	page := trackerPage{
		RefreshSeconds:  opts.RefreshSeconds,
		Registration:    reg,
		Callsign:        r.Callsign,
		Model:           model,
		Airline:         r.Airline,
		Status:          r.FlightStatus,
		OnGround:        r.OnGround,
		Origin:          origin,
		OriginCity:      r.OriginCity,
		Destination:     dest,
		DestinationCity: r.DestinationCity,
		Altitude:        humanize.Comma(int64(r.AltitudeFt)),
		Speed:           r.GroundSpeedKts,
		Heading:         r.Heading,
		Departed:        or(r.ActualDeparture, "N/A"),
		ArrivalLabel:    "ETA",
		ArrivalValue:    or(r.ETA, "N/A"),
		History:         r.RecentFlights,
		Generated:       timefmt.UTCStamp(now),
		Lat:             r.Latitude,
		Lon:             r.Longitude,
		Zoom:            Zoom(r.OnGround, r.AltitudeFt),
		TileURL:         tiles,
		Popup: fmt.Sprintf("<b>%s</b><br>%s - %s<br>%s &rarr; %s",
			html.EscapeString(reg), html.EscapeString(r.Callsign), html.EscapeString(model),
			html.EscapeString(origin), html.EscapeString(dest)),
	}
	if r.ActualArrival != "" {
		page.ArrivalLabel = "Arrived"
		page.ArrivalValue = r.ActualArrival
	}

	if err := templates.ExecuteTemplate(&buf, "tracker.html.tmpl", page); err != nil {
		return nil, fmt.Errorf("failed to render map: %w", err)
	}
	logging.MapDebug("rendered %s map (%d bytes, zoom %d)", reg, buf.Len(), page.Zoom)
	return buf.Bytes(), nil
}

// Write saves page to path, or to a fresh temp file in dir when path is
// empty. It returns the absolute path written.
func Write(path, dir, tail string, page []byte) (string, error) {
	if path == "" {
		f, err := os.CreateTemp(dir, "flight-"+tail+"-*.html")
		if err != nil {
			return "", fmt.Errorf("failed to create map file: %w", err)
		}
		path = f.Name()
		if err := f.Close(); err != nil {
			return "", err
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, page, 0o644); err != nil {
		return "", fmt.Errorf("failed to write map: %w", err)
	}
	logging.Map("map saved to %s", abs)
	return abs, nil
}

// OpenBrowser opens a saved page with the platform's default handler.
func OpenBrowser(path string) error {
	target := "file://" + path
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", target)
	case "darwin":
		cmd = exec.Command("open", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	return cmd.Start()
}

package radar

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2196F3"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	groundStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107")).Bold(true)
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func label(name string) string {
	return labelStyle.Render(fmt.Sprintf("%-9s", name+":"))
}

// FormatReport renders one report as a text block.
func FormatReport(r Report) string {
	if !r.Found() {
		return fmt.Sprintf("%s: %s", r.Tail, orDefault(r.Message, NotFoundMessage))
	}

	var b strings.Builder
	model := orDefault(r.AircraftModel, orDefault(r.AircraftType, "?"))
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s) - %s", r.Registration, r.Callsign, model)))
	b.WriteString("\n")
	if r.Airline != "" {
		fmt.Fprintf(&b, "  %s %s\n", label("Airline"), r.Airline)
	}
	fmt.Fprintf(&b, "  %s %s (%s) -> %s (%s)\n", label("Route"),
		orDefault(r.Origin, "???"), r.OriginCity, orDefault(r.Destination, "???"), r.DestinationCity)
	fmt.Fprintf(&b, "  %s %.4f, %.4f  Heading: %d\n", label("Position"), r.Latitude, r.Longitude, r.Heading)
	ground := ""
	if r.OnGround {
		ground = groundStyle.Render(" (ON GROUND)")
	}
	fmt.Fprintf(&b, "  %s %s ft  Speed: %d kts%s\n", label("Altitude"),
		humanize.Comma(int64(r.AltitudeFt)), r.GroundSpeedKts, ground)
	if r.FlightStatus != "" {
		fmt.Fprintf(&b, "  %s %s\n", label("Status"), r.FlightStatus)
	}
	if r.ActualDeparture != "" {
		fmt.Fprintf(&b, "  %s %s\n", label("Departed"), r.ActualDeparture)
	}
	if r.ActualArrival != "" {
		fmt.Fprintf(&b, "  %s %s\n", label("Arrived"), r.ActualArrival)
	} else if r.ETA != "" {
		fmt.Fprintf(&b, "  %s %s\n", label("ETA"), r.ETA)
	}
	if len(r.RecentFlights) > 0 {
		b.WriteString("  Recent flights:\n")
		for _, h := range r.RecentFlights {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("    %s  %s (%s) -> %s (%s)",
				orDefault(h.Departure, "?"),
				orDefault(h.Origin, "???"), h.OriginCity,
				orDefault(h.Destination, "???"), h.DestinationCity)))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// WriteText prints every report, one block per tail.
func WriteText(w io.Writer, reports []Report) error {
	for _, r := range reports {
		if _, err := fmt.Fprintln(w, FormatReport(r)); err != nil {
			return err
		}
	}
	return nil
}

// FormatFleet renders an airline's active flights sorted by callsign.
func FormatFleet(icao string, fleet []Position) string {
	sorted := append([]Position(nil), fleet...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Callsign < sorted[j].Callsign })

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Active %s flights: %d", icao, len(sorted))))
	for _, f := range sorted {
		fmt.Fprintf(&b, "\n  %-10s %-8s %s->%s  %sft  %dkts  (%.2f, %.2f)",
			orDefault(f.Callsign, "N/A"), orDefault(f.Registration, "N/A"),
			orDefault(f.Origin, "???"), orDefault(f.Destination, "???"),
			humanize.Comma(int64(f.AltitudeFt)), f.GroundSpeedKts, f.Latitude, f.Longitude)
	}
	return b.String()
}

// WriteJSON writes a single object for one result and an array otherwise.
func WriteJSON(w io.Writer, reports []Report) error {
	var v interface{} = reports
	if len(reports) == 1 {
		v = reports[0]
	}
	return encode(w, v)
}

// WriteFleetJSON writes the fleet as an array.
func WriteFleetJSON(w io.Writer, fleet []Position) error {
	return encode(w, fleet)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Package itinerary renders a Tripsy trip as a printable A4 PDF.
package itinerary

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"flightdeck/internal/logging"
	"flightdeck/internal/timefmt"
	"flightdeck/internal/tripsy"
)

// Render writes details as a PDF to w.
func Render(w io.Writer, details *tripsy.TripDetails) error {
	if details == nil {
		return fmt.Errorf("no trip to render")
	}
	pdf := build(details)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to render PDF: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	logging.Itinerary("Rendered %q (%d bytes)", details.Trip.Name, buf.Len())
	return nil
}

func build(d *tripsy.TripDetails) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252; translate UTF-8 input.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr(d.Trip.Name), false)
	pdf.SetCreator("flightdeck", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(d.Trip.Name))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Dates: %s to %s", safe(d.Trip.Starts, "?"), safe(d.Trip.Ends, "?")))
	pdf.Ln(7)
	if d.Trip.DurationDays != nil {
		pdf.Cell(0, 7, fmt.Sprintf("Duration: %d days", *d.Trip.DurationDays))
		pdf.Ln(7)
	}
	if d.Trip.Notes != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, tr(d.Trip.Notes), "", "", false)
	}
	pdf.Ln(4)

	section(pdf, "Flights & transport", len(d.Flights))
	for _, f := range d.Flights {
		title := strings.TrimSpace(f.Airline + " " + f.FlightNumber)
		if f.Type != "" && f.Type != "airplane" {
			title += " (" + f.Type + ")"
		}
		lines := []string{
			fmt.Sprintf("%s - %s", safe(f.From, "?"), safe(f.To, "?")),
			fmt.Sprintf("Departs %s", when(f.DepartureAt)),
		}
		if !f.ArrivalAt.IsZero() {
			lines = append(lines, fmt.Sprintf("Arrives %s", when(f.ArrivalAt)))
		}
		if f.Confirmation != "" {
			lines = append(lines, "Confirmation: "+f.Confirmation)
		}
		entry(pdf, tr, title, lines)
	}

	section(pdf, "Hotels", len(d.Hotels))
	for _, h := range d.Hotels {
		var lines []string
		if h.Address != "" {
			lines = append(lines, h.Address)
		}
		lines = append(lines, fmt.Sprintf("Check-in %s", when(h.CheckinAt)))
		if !h.CheckoutAt.IsZero() {
			lines = append(lines, fmt.Sprintf("Check-out %s", when(h.CheckoutAt)))
		}
		if h.RoomType != "" {
			lines = append(lines, "Room: "+h.RoomType)
		}
		if h.Confirmation != "" {
			lines = append(lines, "Confirmation: "+h.Confirmation)
		}
		if h.Phone != "" {
			lines = append(lines, "Phone: "+h.Phone)
		}
		entry(pdf, tr, h.Name, lines)
	}

	section(pdf, "Activities", len(d.Activities))
	for _, a := range d.Activities {
		lines := []string{when(a.StartsAt)}
		if a.Location != "" {
			lines = append(lines, a.Location)
		}
		if a.Confirmation != "" {
			lines = append(lines, "Confirmation: "+a.Confirmation)
		}
		if a.Notes != "" {
			lines = append(lines, a.Notes)
		}
		entry(pdf, tr, a.Name, lines)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.Cell(0, 5, "Generated "+time.Now().Format("2006-01-02 15:04"))
	return pdf
}

func section(pdf *gofpdf.Fpdf, title string, n int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 9, fmt.Sprintf("%s (%d)", title, n))
	pdf.Ln(10)
	if n == 0 {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.Cell(0, 6, "None booked")
		pdf.Ln(9)
	}
}

func entry(pdf *gofpdf.Fpdf, tr func(string) string, title string, lines []string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, tr(safe(title, "-")))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 11)
	for _, l := range lines {
		pdf.MultiCell(0, 6, tr(l), "", "", false)
	}
	pdf.Ln(3)
}

func when(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return timefmt.Display(t)
}

func safe(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

package itinerary

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightdeck/internal/tripsy"
)

func sampleTrip() *tripsy.TripDetails {
	seven := 7
	dep := time.Date(2025, 6, 14, 10, 0, 0, 0, time.UTC)
	return &tripsy.TripDetails{
		Trip: tripsy.Trip{
			Name: "Hong Kong Summer", Starts: "2025-06-15", Ends: "2025-06-22",
			DurationDays: &seven, Notes: "Bring adapters",
		},
		Flights: []tripsy.Transport{{
			Airline: "United", FlightNumber: "UA 895", From: "SEA", To: "HKG",
			Confirmation: "XYZ789", Type: "airplane", DepartureAt: dep, ArrivalAt: dep.Add(14 * time.Hour),
		}},
		Hotels: []tripsy.Hotel{{
			Name: "The Peninsula Hong Kong", CheckinAt: dep.Add(30 * time.Hour), RoomType: "Deluxe",
		}},
	}
}

func TestRender_WritesPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleTrip()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "output must be a PDF")
	assert.Greater(t, buf.Len(), 500)
}

func TestRender_Contents(t *testing.T) {
	pdf := build(sampleTrip())
	pdf.SetCompression(false)

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	out := buf.String()

	for _, want := range []string{
		"Hong Kong Summer",
		"Dates: 2025-06-15 to 2025-06-22",
		"United UA 895",
		"Confirmation: XYZ789",
		"The Peninsula Hong Kong",
		"None booked",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRender_NilTrip(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Render(&buf, nil))
	assert.Zero(t, buf.Len())
}

package validate

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// csvDateLayouts are the date formats seen in Flighty exports.
var csvDateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"1/2/06",
	"Jan 2, 2006",
}

// maxUnmatchedListed caps the unmatched rows printed in a CSV detail.
const maxUnmatchedListed = 10

// CSVFlight is one usable row of a Flighty CSV export.
type CSVFlight struct {
	Date    time.Time
	From    string
	To      string
	Airline string
	Flight  string
}

// Label is "AIRLINE FLIGHT", or whichever half is present.
func (f CSVFlight) Label() string {
	return strings.TrimSpace(f.Airline + " " + f.Flight)
}

// ParseCSVDate parses a date in any of the export layouts.
func ParseCSVDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseCSV reads an export, skipping cancelled rows and rows without a
// parseable date or route.
func ParseCSV(r io.Reader) ([]CSVFlight, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.TrimSpace(h)] = i
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []CSVFlight
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		if strings.EqualFold(field(row, "Canceled"), "true") {
			continue
		}
		date, ok := ParseCSVDate(field(row, "Date"))
		if !ok {
			continue
		}
		from := strings.ToUpper(field(row, "From"))
		to := strings.ToUpper(field(row, "To"))
		if from == "" || to == "" {
			continue
		}
		out = append(out, CSVFlight{
			Date:    date,
			From:    from,
			To:      to,
			Airline: field(row, "Airline"),
			Flight:  field(row, "Flight"),
		})
	}
	return out, nil
}

// codesMatch treats an IATA code and the ICAO code that contains it as
// equal (e.g. "SFO" and "KSFO").
func codesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.HasPrefix(a, b) || strings.HasPrefix(b, a) ||
		strings.HasSuffix(a, b) || strings.HasSuffix(b, a)
}

func (h *harness) matches(f CSVFlight) bool {
	for _, e := range h.all {
		d, err := time.Parse("2006-01-02", e.date)
		if err != nil {
			continue
		}
		diff := d.Sub(f.Date)
		if diff < -24*time.Hour || diff > 24*time.Hour {
			continue
		}
		if codesMatch(e.dep, f.From) && codesMatch(e.arr, f.To) {
			return true
		}
	}
	return false
}

func (h *harness) csvComparison(path string) (Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return Result{CheckCSVComparison, false, fmt.Sprintf("cannot read CSV: %v", err)}, nil
	}
	defer file.Close()

	rows, err := ParseCSV(file)
	if err != nil {
		return Result{CheckCSVComparison, false, err.Error()}, nil
	}
	if len(rows) == 0 {
		return Result{CheckCSVComparison, false, "No usable rows in CSV"}, nil
	}

	var unmatched []CSVFlight
	for _, f := range rows {
		if !h.matches(f) {
			unmatched = append(unmatched, f)
		}
	}

	detail := fmt.Sprintf("CSV=%d, DB=%d, matched=%d, unmatched=%d",
		len(rows), len(h.allTimeKeys()), len(rows)-len(unmatched), len(unmatched))
	if len(unmatched) > 0 {
		var b strings.Builder
		b.WriteString(detail)
		b.WriteString("\nUnmatched CSV flights:")
		for i, f := range unmatched {
			if i == maxUnmatchedListed {
				fmt.Fprintf(&b, "\n... and %d more", len(unmatched)-maxUnmatchedListed)
				break
			}
			fmt.Fprintf(&b, "\n  %s %s->%s (%s)", f.Date.Format("2006-01-02"), f.From, f.To, f.Label())
		}
		detail = b.String()
	}
	return Result{CheckCSVComparison, len(unmatched) == 0, detail}, nil
}

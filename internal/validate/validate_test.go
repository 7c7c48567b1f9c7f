package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightdeck/internal/flighty"
	"flightdeck/internal/flighty/flightytest"
	"flightdeck/internal/logging"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func openSeeded(t *testing.T) *flighty.Store {
	t.Helper()
	fx := flightytest.New(t)
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.AA, Number: "200",
		From: flightytest.LAX, To: flightytest.JFK,
		Departure: time.Date(2025, 1, 15, 16, 0, 0, 0, time.UTC),
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.AA, Number: "100",
		From: flightytest.JFK, To: flightytest.LAX,
		Departure:    time.Date(2025, 6, 10, 18, 0, 0, 0, time.UTC),
		ImportSource: "EMAIL",
	})
	fx.AddFlight(flightytest.Flight{
		Airline: flightytest.JL, Number: "5",
		From: flightytest.NRT, To: flightytest.HKG,
		Departure:    time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC),
		ImportSource: "CONNECTED_FRIEND",
	})
	fx.AddManual(flightytest.ManualFlight{
		Airline: flightytest.UA, Number: "9",
		From: flightytest.SFO, To: flightytest.SEA,
		Departure: time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC),
	})
	fx.Close()

	s, err := flighty.Open(fx.Path,
		flighty.WithClock(func() time.Time { return fixedNow }),
		flighty.WithLocation(time.UTC))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func resultByName(t *testing.T, r *Report, name string) Result {
	t.Helper()
	for _, res := range r.Results {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("no result named %q", name)
	return Result{}
}

func TestRun_AllChecksPass(t *testing.T) {
	s := openSeeded(t)

	report, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)

	require.Len(t, report.Results, 5)
	assert.True(t, report.OK())
	assert.Equal(t, 0, report.ExitCode())
	assert.Equal(t, "9f0c2a4e...", report.PrimaryUser)
	assert.Equal(t, s.Path(), report.Database)
	assert.NotEmpty(t, report.RunID)

	assert.Equal(t, "correct=2, broken=1, NULL importSource rows=1, would-be-dropped=1",
		resultByName(t, report, CheckNullFilter).Detail)
	assert.Equal(t, "tracked_raw=3, tracked_filtered=2, friends=1, manual=1, raw==filtered+friends: true",
		resultByName(t, report, CheckTotalCount).Detail)
	assert.Equal(t, "year_sum=3, all_time=3, years=[2024:1, 2025:2]",
		resultByName(t, report, CheckYearSum).Detail)
	assert.Equal(t, "past=2, future=1, combined=3, overlap=0",
		resultByName(t, report, CheckCoverage).Detail)
	assert.Equal(t, "stats.unique_flights=3, all_time=3, stats.total_flights=3",
		resultByName(t, report, CheckStatsAgree).Detail)
}

func TestRun_NoPrimaryUser(t *testing.T) {
	fx := flightytest.New(t)
	fx.Close()
	s, err := flighty.Open(fx.Path)
	require.NoError(t, err)
	defer s.Close()

	_, err = Run(context.Background(), s, Options{})
	assert.ErrorIs(t, err, ErrNoPrimaryUser)
}

func TestRun_MissingCSVStopsBeforeChecks(t *testing.T) {
	// An empty database would fail with ErrNoPrimaryUser if any query ran.
	fx := flightytest.New(t)
	fx.Close()
	s, err := flighty.Open(fx.Path)
	require.NoError(t, err)
	defer s.Close()

	missing := filepath.Join(t.TempDir(), "export.csv")
	report, err := Run(context.Background(), s, Options{CSVPath: missing})
	assert.Nil(t, report)
	require.ErrorIs(t, err, ErrCSVNotFound)
	assert.NotErrorIs(t, err, ErrNoPrimaryUser)
	assert.Equal(t, "CSV file not found at "+missing, err.Error())

	assert.NoError(t, RequireCSV(""))
}

// skewedStats reports a unique count that disagrees with the records.
type skewedStats struct {
	*flighty.Store
}

func (s skewedStats) Stats(ctx context.Context) (*flighty.FlightStats, error) {
	st, err := s.Store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	st.UniqueFlights++
	return st, nil
}

func TestRun_FailingCheckSetsExitCode(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, logging.Initialize(logging.Config{Dir: dir, DebugMode: true, Level: "debug"}))
	defer logging.Initialize(logging.Config{})

	report, err := Run(context.Background(), skewedStats{openSeeded(t)}, Options{})
	require.NoError(t, err)

	logging.CloseAll()
	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02")+"_validate.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "FAIL "+CheckStatsAgree)
	assert.Contains(t, string(data), "loaded 2 tracked, 1 manual, 0 superseded")

	assert.False(t, resultByName(t, report, CheckStatsAgree).Passed)
	assert.Equal(t, 4, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.ExitCode())
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRun_CSVComparison(t *testing.T) {
	s := openSeeded(t)
	csvPath := writeFile(t, "export.csv", "\ufeffDate,Airline,Flight,From,To,Canceled\n"+
		"2025-01-15,AA,200,LAX,JFK,false\n"+
		"3/5/2024,UA,9,KSFO,KSEA,false\n"+
		"\"Jan 16, 2025\",AA,200,LAX,JFK,false\n"+
		"2025-02-01,DL,1,ATL,BOS,false\n"+
		"2025-02-02,DL,2,ATL,BOS,true\n"+
		"someday,DL,3,ATL,BOS,false\n")

	report, err := Run(context.Background(), s, Options{CSVPath: csvPath})
	require.NoError(t, err)
	require.Len(t, report.Results, 6)

	res := resultByName(t, report, CheckCSVComparison)
	assert.False(t, res.Passed)
	assert.True(t, strings.HasPrefix(res.Detail, "CSV=4, DB=3, matched=3, unmatched=1"), res.Detail)
	assert.Contains(t, res.Detail, "2025-02-01 ATL->BOS (DL 1)")
	assert.Equal(t, 1, report.ExitCode())
}

func TestCSVComparison_NoUsableRows(t *testing.T) {
	h := &harness{}
	path := writeFile(t, "empty.csv", "Date,From,To,Canceled\n2025-01-01,JFK,LAX,true\n")

	res, err := h.csvComparison(path)
	require.NoError(t, err)
	assert.False(t, res.Passed)
	assert.Equal(t, "No usable rows in CSV", res.Detail)
}

func TestCSVComparison_CapsUnmatchedList(t *testing.T) {
	h := &harness{}
	var b strings.Builder
	b.WriteString("Date,From,To\n")
	for i := 1; i <= 12; i++ {
		fmt.Fprintf(&b, "2025-01-%02d,AAA,BBB\n", i)
	}
	path := writeFile(t, "many.csv", b.String())

	res, err := h.csvComparison(path)
	require.NoError(t, err)
	assert.Contains(t, res.Detail, "unmatched=12")
	assert.Contains(t, res.Detail, "... and 2 more")
	assert.Equal(t, 10, strings.Count(res.Detail, "AAA->BBB"))
}

func TestParseCSVDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-03-05", "3/5/2024", "03/05/2024", "3/5/24", "Mar 5, 2024"} {
		got, ok := ParseCSVDate(in)
		assert.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}
	_, ok := ParseCSVDate("5 March")
	assert.False(t, ok)
}

func TestCodesMatch(t *testing.T) {
	assert.True(t, codesMatch("SFO", "SFO"))
	assert.True(t, codesMatch("SFO", "KSFO"))
	assert.True(t, codesMatch("SPSF", "SPS"))
	assert.False(t, codesMatch("SFO", "LAX"))
	assert.False(t, codesMatch("", "LAX"))
}

func TestReport_WriteText(t *testing.T) {
	report, err := Run(context.Background(), openSeeded(t), Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "VALIDATION RESULTS")
	assert.Contains(t, out, strings.Repeat("=", 70))
	assert.Contains(t, out, "  [+] PASS: NULL filter safety\n       correct=2")
	assert.Contains(t, out, "  5 passed, 0 failed, 5 total")
}

func TestReport_WriteTextMarksFailures(t *testing.T) {
	report, err := Run(context.Background(), skewedStats{openSeeded(t)}, Options{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "  [-] FAIL: "+CheckStatsAgree+"\n")
	assert.NotContains(t, out, "[!]")
	assert.Contains(t, out, "  4 passed, 1 failed, 5 total")
}

func TestReport_WritePrettyAndJSON(t *testing.T) {
	report, err := Run(context.Background(), openSeeded(t), Options{})
	require.NoError(t, err)

	var pretty bytes.Buffer
	require.NoError(t, report.WritePretty(&pretty, "notty"))
	assert.Contains(t, pretty.String(), "5 passed, 0 failed, 5 total")

	var raw bytes.Buffer
	require.NoError(t, report.WriteJSON(&raw))
	var decoded Report
	require.NoError(t, json.Unmarshal(raw.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Len(t, decoded.Results, 5)
	assert.Equal(t, 5, decoded.Passed)
}

// Package validate cross-checks the Flighty reconciliation layer by
// computing the same aggregates through independent paths and, optionally,
// against a Flighty CSV export.
package validate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"flightdeck/internal/flighty"
	"flightdeck/internal/logging"
)

// Check names, as printed in reports.
const (
	CheckNullFilter    = "NULL filter safety"
	CheckTotalCount    = "Total count consistency"
	CheckYearSum       = "Year sum matches all-time total"
	CheckCoverage      = "Recent + upcoming coverage"
	CheckStatsAgree    = "Stats agree with reconciliation"
	CheckCSVComparison = "CSV comparison"
)

// ErrNoPrimaryUser is returned when the database has no UserFlight rows.
var ErrNoPrimaryUser = errors.New("could not identify primary user in database")

// ErrCSVNotFound is returned before any check runs when Options.CSVPath
// does not exist.
var ErrCSVNotFound = errors.New("CSV file not found")

// RequireCSV returns ErrCSVNotFound when path is set but missing.
func RequireCSV(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w at %s", ErrCSVNotFound, path)
	}
	return nil
}

// Store is the subset of *flighty.Store the harness needs.
type Store interface {
	MainUserID(ctx context.Context) (string, error)
	CountUserFlightRows(ctx context.Context, user string, filter flighty.ImportFilter) (int, error)
	CountTracked(ctx context.Context, user string, filter flighty.ImportFilter) (int, error)
	CountManual(ctx context.Context, user string) (int, error)
	SupersededIDs(ctx context.Context) (map[string]struct{}, error)
	TrackedRecords(ctx context.Context, sc flighty.Scope) ([]flighty.Record, error)
	ManualRecords(ctx context.Context, sc flighty.Scope) ([]flighty.Record, error)
	DepartureRange(ctx context.Context) (first, last time.Time, ok bool, err error)
	ByYear(ctx context.Context, year int) (*flighty.YearFlights, error)
	Stats(ctx context.Context) (*flighty.FlightStats, error)
	Path() string
	Now() time.Time
}

// Result is the outcome of one check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Options controls Run.
type Options struct {
	// CSVPath enables the CSV comparison when set.
	CSVPath string
}

// Report collects all results of one run.
type Report struct {
	RunID       string    `json:"run_id"`
	Database    string    `json:"database"`
	PrimaryUser string    `json:"primary_user"`
	StartedAt   time.Time `json:"started_at"`
	Results     []Result  `json:"results"`
	Passed      int       `json:"passed"`
	Failed      int       `json:"failed"`
}

// OK reports whether every check passed.
func (r *Report) OK() bool { return r.Failed == 0 }

// ExitCode is 0 when every check passed, 1 otherwise.
func (r *Report) ExitCode() int {
	if r.OK() {
		return 0
	}
	return 1
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if res.Passed {
		r.Passed++
	} else {
		r.Failed++
	}
	status := "PASS"
	if !res.Passed {
		status = "FAIL"
	}
	detail := strings.ReplaceAll(res.Detail, "\n", " | ")
	if !res.Passed {
		logging.ValidateWarn("[%s] %s %s: %s", r.RunID, status, res.Name, detail)
		return
	}
	logging.Validate("[%s] %s %s: %s", r.RunID, status, res.Name, detail)
}

// entry is a deduplication input: one flight with a known local date.
type entry struct {
	date string
	dep  string
	arr  string
	key  string
	at   time.Time
}

// harness carries shared state between checks.
type harness struct {
	store Store
	user  string
	// all is every non-superseded tracked and manual flight of the user.
	all []entry
}

// Run executes every check against store.
func Run(ctx context.Context, store Store, opts Options) (*Report, error) {
	if err := RequireCSV(opts.CSVPath); err != nil {
		return nil, err
	}
	user, err := store.MainUserID(ctx)
	if err != nil {
		return nil, err
	}
	if user == "" {
		return nil, ErrNoPrimaryUser
	}

	h := &harness{store: store, user: user}
	if err := h.load(ctx); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:       uuid.NewString(),
		Database:    store.Path(),
		PrimaryUser: Abbrev(user),
		StartedAt:   store.Now(),
	}
	logging.Validate("[%s] Validating %s", report.RunID, report.Database)

	checks := []func(context.Context) (Result, error){
		h.nullFilter,
		h.totalCount,
		h.yearSum,
		h.coverage,
		h.statsAgree,
	}
	if opts.CSVPath != "" {
		checks = append(checks, func(context.Context) (Result, error) {
			return h.csvComparison(opts.CSVPath)
		})
	}
	for _, check := range checks {
		res, err := check(ctx)
		if err != nil {
			return nil, err
		}
		report.add(res)
	}
	return report, nil
}

// Abbrev shortens a user id to its first 8 characters plus "...".
func Abbrev(user string) string {
	if len(user) <= 8 {
		return user + "..."
	}
	return user[:8] + "..."
}

func (h *harness) load(ctx context.Context) error {
	superseded, err := h.store.SupersededIDs(ctx)
	if err != nil {
		return err
	}
	tracked, err := h.store.TrackedRecords(ctx, flighty.Scope{})
	if err != nil {
		return err
	}
	manual, err := h.store.ManualRecords(ctx, flighty.Scope{})
	if err != nil {
		return err
	}

	add := func(r flighty.Record) {
		if r.LocalDate == "" {
			return
		}
		h.all = append(h.all, entry{
			date: r.LocalDate,
			dep:  r.Departure.Code(),
			arr:  r.Arrival.Code(),
			key:  flighty.RouteKey(r),
			at:   r.DepartureTime,
		})
	}
	for _, r := range tracked {
		if _, ok := superseded[r.ID]; !ok {
			add(r)
		}
	}
	for _, r := range manual {
		add(r)
	}
	logging.ValidateDebug("loaded %d tracked, %d manual, %d superseded; %d dated flights",
		len(tracked), len(manual), len(superseded), len(h.all))
	return nil
}

func (h *harness) allTimeKeys() map[string]struct{} {
	keys := make(map[string]struct{}, len(h.all))
	for _, e := range h.all {
		keys[e.key] = struct{}{}
	}
	return keys
}

// nullFilter checks that the NULL-safe friend filter never returns fewer
// rows than the legacy one, which drops NULL importSource rows.
func (h *harness) nullFilter(ctx context.Context) (Result, error) {
	correct, err := h.store.CountUserFlightRows(ctx, h.user, flighty.ImportNullSafe)
	if err != nil {
		return Result{}, err
	}
	broken, err := h.store.CountUserFlightRows(ctx, h.user, flighty.ImportLegacy)
	if err != nil {
		return Result{}, err
	}
	nulls, err := h.store.CountUserFlightRows(ctx, h.user, flighty.ImportNull)
	if err != nil {
		return Result{}, err
	}

	switch {
	case correct == broken:
		return Result{CheckNullFilter, true, fmt.Sprintf(
			"correct=%d, broken=%d (no NULL rows exist; consider adding a row-level check if this changes)",
			correct, broken)}, nil
	case correct > broken:
		return Result{CheckNullFilter, true, fmt.Sprintf(
			"correct=%d, broken=%d, NULL importSource rows=%d, would-be-dropped=%d",
			correct, broken, nulls, correct-broken)}, nil
	default:
		return Result{CheckNullFilter, false, fmt.Sprintf(
			"UNEXPECTED: correct=%d < broken=%d", correct, broken)}, nil
	}
}

// totalCount checks raw tracked == NULL-safe filtered + CONNECTED_FRIEND.
func (h *harness) totalCount(ctx context.Context) (Result, error) {
	raw, err := h.store.CountTracked(ctx, h.user, flighty.ImportAny)
	if err != nil {
		return Result{}, err
	}
	filtered, err := h.store.CountTracked(ctx, h.user, flighty.ImportNullSafe)
	if err != nil {
		return Result{}, err
	}
	friends, err := h.store.CountUserFlightRows(ctx, h.user, flighty.ImportFriend)
	if err != nil {
		return Result{}, err
	}
	manual, err := h.store.CountManual(ctx, h.user)
	if err != nil {
		return Result{}, err
	}

	match := raw == filtered+friends
	return Result{CheckTotalCount, match, fmt.Sprintf(
		"tracked_raw=%d, tracked_filtered=%d, friends=%d, manual=%d, raw==filtered+friends: %t",
		raw, filtered, friends, manual, match)}, nil
}

// yearSum sums per-year bounded queries and compares with the all-time set.
func (h *harness) yearSum(ctx context.Context) (Result, error) {
	first, last, ok, err := h.store.DepartureRange(ctx)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{CheckYearSum, false, "No flights found"}, nil
	}

	// Local dates can fall a year either side of the UTC range.
	sum := 0
	var breakdown []string
	for y := first.Year() - 1; y <= last.Year()+1; y++ {
		res, err := h.store.ByYear(ctx, y)
		if err != nil {
			return Result{}, err
		}
		if res.Count > 0 {
			breakdown = append(breakdown, fmt.Sprintf("%d:%d", y, res.Count))
		}
		sum += res.Count
	}

	allTime := len(h.allTimeKeys())
	passed := sum == allTime
	detail := fmt.Sprintf("year_sum=%d, all_time=%d, years=[%s]", sum, allTime, strings.Join(breakdown, ", "))
	if !passed {
		detail += fmt.Sprintf(" | diff=%d", abs(sum-allTime))
	}
	return Result{CheckYearSum, passed, detail}, nil
}

// coverage partitions every flight into past and future around now.
func (h *harness) coverage(context.Context) (Result, error) {
	now := h.store.Now()
	past := make(map[string]struct{})
	future := make(map[string]struct{})
	for _, e := range h.all {
		if e.at.Before(now) {
			past[e.key] = struct{}{}
		} else {
			future[e.key] = struct{}{}
		}
	}

	combined := len(past)
	overlap := 0
	for k := range future {
		if _, ok := past[k]; ok {
			overlap++
		} else {
			combined++
		}
	}

	passed := combined > 0 && len(past) > 0
	detail := fmt.Sprintf("past=%d, future=%d, combined=%d, overlap=%d", len(past), len(future), combined, overlap)
	if !passed {
		detail += " | UNEXPECTED: no past flights found"
	}
	return Result{CheckCoverage, passed, detail}, nil
}

// statsAgree checks the Stats operation against the all-time set.
func (h *harness) statsAgree(ctx context.Context) (Result, error) {
	st, err := h.store.Stats(ctx)
	if err != nil {
		return Result{}, err
	}
	allTime := len(h.allTimeKeys())
	passed := st.UniqueFlights == allTime
	return Result{CheckStatsAgree, passed, fmt.Sprintf(
		"stats.unique_flights=%d, all_time=%d, stats.total_flights=%d",
		st.UniqueFlights, allTime, st.TotalFlights)}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package flighty

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"flightdeck/internal/timefmt"
)

// ImportFilter selects UserFlight rows by importSource.
type ImportFilter int

const (
	// ImportAny applies no importSource predicate.
	ImportAny ImportFilter = iota
	// ImportNullSafe excludes CONNECTED_FRIEND but keeps NULL sources.
	ImportNullSafe
	// ImportLegacy is the NULL-dropping "importSource != 'CONNECTED_FRIEND'".
	ImportLegacy
	// ImportNull keeps only rows with a NULL importSource.
	ImportNull
	// ImportFriend keeps only CONNECTED_FRIEND rows.
	ImportFriend
)

func (f ImportFilter) clause() string {
	switch f {
	case ImportNullSafe:
		return "\n  AND " + friendFilter
	case ImportLegacy:
		return "\n  AND " + legacyFriendFilter
	case ImportNull:
		return "\n  AND uf.importSource IS NULL"
	case ImportFriend:
		return "\n  AND uf.importSource = 'CONNECTED_FRIEND'"
	default:
		return ""
	}
}

const userFlightPredicate = `
WHERE uf.isMyFlight = 1
  AND uf.deleted IS NULL
  AND uf.userId = ?`

// CountUserFlightRows counts the user's own UserFlight rows under filter.
func (s *Store) CountUserFlightRows(ctx context.Context, user string, filter ImportFilter) (int, error) {
	q := "SELECT COUNT(*)\nFROM UserFlight uf" + userFlightPredicate + filter.clause()
	return s.count(ctx, q, user)
}

// CountTracked counts Flight rows joined to the user's UserFlight rows.
func (s *Store) CountTracked(ctx context.Context, user string, filter ImportFilter) (int, error) {
	q := "SELECT COUNT(*)\nFROM Flight f\nJOIN UserFlight uf ON f.id = uf.flightId" +
		userFlightPredicate + filter.clause()
	return s.count(ctx, q, user)
}

// CountManual counts the user's own ManualFlight rows.
func (s *Store) CountManual(ctx context.Context, user string) (int, error) {
	return s.count(ctx, countManualQuery, user)
}

func (s *Store) count(ctx context.Context, q string, args ...interface{}) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

// DepartureRange returns the earliest and latest departure (UTC) across the
// main user's tracked and manual flights. ok is false when there are none.
func (s *Store) DepartureRange(ctx context.Context) (first, last time.Time, ok bool, err error) {
	user, err := s.MainUserID(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}

	var lo, hi sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, departureRangeQuery, user, user).Scan(&lo, &hi); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to query departure range: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	return timefmt.FromUnix(lo.Float64, time.UTC), timefmt.FromUnix(hi.Float64, time.UTC), true, nil
}

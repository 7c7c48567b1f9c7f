package timefmt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreDataRoundTrip(t *testing.T) {
	ref := FromCoreData(0, time.UTC)
	assert.Equal(t, "2001-01-01T00:00:00", ISO(ref))

	ts := time.Date(2025, 3, 4, 7, 15, 0, 0, time.UTC)
	assert.Equal(t, ts, FromCoreData(ToCoreData(ts), time.UTC))
}

func TestFormats(t *testing.T) {
	ts := time.Date(2025, 3, 4, 19, 5, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-04", Date(ts))
	assert.Equal(t, "Mar 04, 2025 07:05 PM", Display(ts))
	assert.Equal(t, "2025-03-04 19:05 UTC", UTCStamp(ts))
	assert.Equal(t, "", Display(time.Time{}))
}

func TestDuration(t *testing.T) {
	dep := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "5h 35m", Duration(dep, dep.Add(5*time.Hour+35*time.Minute)))
	assert.Equal(t, "0h 0m", Duration(dep, dep))
	assert.Equal(t, "", Duration(time.Time{}, dep))
}

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		at   time.Time
		want int
	}{
		{"later today", now.Add(2 * time.Hour), 0},
		{"tomorrow", now.Add(25 * time.Hour), 1},
		{"two hours ago", now.Add(-2 * time.Hour), -1},
		{"exactly two days", now.Add(48 * time.Hour), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.at, now))
		})
	}
}

func TestLocalDate(t *testing.T) {
	// 03:30 UTC on Jan 2 is still Jan 1 in Los Angeles.
	ts := time.Date(2025, 1, 2, 3, 30, 0, 0, time.UTC)
	assert.Equal(t, "2025-01-01", LocalDate(ts, "America/Los_Angeles", time.UTC))
	assert.Equal(t, "2025-01-02", LocalDate(ts, "Asia/Tokyo", time.UTC))
	assert.Equal(t, "2025-01-02", LocalDate(ts, "Not/AZone", time.UTC))
	assert.Equal(t, "2025-01-02", LocalDate(ts, "", time.UTC))
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-02-29", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), day)

	_, err = ParseDay("29/02/2024", time.UTC)
	assert.Error(t, err)
}

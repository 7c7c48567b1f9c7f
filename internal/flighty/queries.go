package flighty

import (
	"strings"
	"time"
)

const mainUserQuery = `
SELECT userId
FROM UserFlight
WHERE deleted IS NULL
GROUP BY userId
ORDER BY COUNT(*) DESC, userId
LIMIT 1`

// friendFilter keeps rows whose importSource is NULL; a bare
// "importSource != 'CONNECTED_FRIEND'" silently drops them.
const friendFilter = `(uf.importSource IS NULL OR uf.importSource != 'CONNECTED_FRIEND')`

const legacyFriendFilter = `uf.importSource != 'CONNECTED_FRIEND'`

const trackedDeparture = `COALESCE(f.lastKnownDepartureDate, f.departureScheduleGateOriginal)`

const trackedSelect = `
SELECT
	f.id,
	'tracked',
	al.iata,
	al.name,
	f.number,
	dep.iata, dep.icao, dep.name, dep.city, dep.timeZoneIdentifier,
	arr.iata, arr.icao, arr.name, arr.city, arr.timeZoneIdentifier,
	` + trackedDeparture + ` AS departure,
	COALESCE(f.lastKnownArrivalDate, f.arrivalScheduleGateOriginal),
	t.pnr,
	t.seatNumber,
	t.cabinClass,
	f.equipmentModelName,
	f.departureTerminal, f.departureGate,
	f.arrivalTerminal, f.arrivalGate,
	f.distance,
	uf.importSource,
	f.equipmentTailNumber
FROM Flight f
JOIN UserFlight uf ON f.id = uf.flightId
LEFT JOIN Airline al ON f.airlineId = al.id
JOIN Airport dep ON f.departureAirportId = dep.id
JOIN Airport arr ON arr.id = COALESCE(f.actualArrivalAirportId, f.scheduledArrivalAirportId)
LEFT JOIN Ticket t ON f.id = t.flightId AND uf.userId = t.userId`

const manualSelect = `
SELECT
	mf.id,
	'manual',
	al.iata,
	al.name,
	mf.number,
	dep.iata, dep.icao, dep.name, dep.city, dep.timeZoneIdentifier,
	arr.iata, arr.icao, arr.name, arr.city, arr.timeZoneIdentifier,
	mf.lastKnownDepartureDate AS departure,
	mf.lastKnownArrivalDate,
	NULL,
	NULL,
	NULL,
	mf.equipmentModelName,
	mf.departureTerminal, mf.departureGate,
	mf.arrivalTerminal, mf.arrivalGate,
	mf.distance,
	'MANUAL',
	mf.equipmentTailNumber
FROM ManualFlight mf
JOIN UserManualFlight umf ON mf.id = umf.flightId
LEFT JOIN Airline al ON mf.airlineId = al.id
JOIN Airport dep ON mf.departureAirportId = dep.id
JOIN Airport arr ON arr.id = COALESCE(mf.actualArrivalAirportId, mf.scheduledArrivalAirportId)`

const supersededQuery = `
SELECT DISTINCT originalFlightId
FROM ManualFlight
WHERE originalFlightId IS NOT NULL AND originalFlightId != ''`

const departureRangeQuery = `
SELECT MIN(ts), MAX(ts) FROM (
	SELECT ` + trackedDeparture + ` AS ts
	FROM Flight f
	JOIN UserFlight uf ON f.id = uf.flightId
	WHERE uf.isMyFlight = 1
	  AND uf.deleted IS NULL
	  AND uf.userId = ?
	  AND ` + friendFilter + `
	UNION ALL
	SELECT mf.lastKnownDepartureDate AS ts
	FROM ManualFlight mf
	JOIN UserManualFlight umf ON mf.id = umf.flightId
	WHERE umf.isMyFlight = 1
	  AND umf.deleted IS NULL
	  AND umf.userId = ?
)`

const countManualQuery = `
SELECT COUNT(*)
FROM ManualFlight mf
JOIN UserManualFlight umf ON mf.id = umf.flightId
WHERE umf.isMyFlight = 1
  AND umf.deleted IS NULL
  AND umf.userId = ?`

// Scope narrows a record query. Zero values mean "unbounded".
type Scope struct {
	// From is inclusive, To exclusive.
	From time.Time
	To   time.Time
	// IncludeFriends drops the main-user and CONNECTED_FRIEND predicates.
	IncludeFriends bool
	// ExcludeArchived skips archived tracked rows.
	ExcludeArchived bool
	// PNR restricts tracked rows to tickets whose pnr contains it.
	// Manual rows never match a PNR.
	PNR        string
	Descending bool
}

func unix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func (sc Scope) tail(departure string, conds []string, args []interface{}) (string, []interface{}) {
	if !sc.From.IsZero() {
		conds = append(conds, departure+" >= ?")
		args = append(args, unix(sc.From))
	}
	if !sc.To.IsZero() {
		conds = append(conds, departure+" < ?")
		args = append(args, unix(sc.To))
	}

	var b strings.Builder
	b.WriteString("\nWHERE ")
	b.WriteString(strings.Join(conds, "\n  AND "))
	b.WriteString("\nORDER BY departure")
	if sc.Descending {
		b.WriteString(" DESC")
	}
	return b.String(), args
}

func trackedQuery(sc Scope, user string) (string, []interface{}) {
	conds := []string{"uf.isMyFlight = 1", "uf.deleted IS NULL"}
	var args []interface{}
	if !sc.IncludeFriends {
		conds = append(conds, "uf.userId = ?", friendFilter)
		args = append(args, user)
	}
	if sc.ExcludeArchived {
		conds = append(conds, "COALESCE(uf.isArchived, 0) = 0")
	}
	if sc.PNR != "" {
		conds = append(conds, "t.pnr LIKE ?")
		args = append(args, "%"+sc.PNR+"%")
	}
	where, args := sc.tail(trackedDeparture, conds, args)
	return trackedSelect + where, args
}

func manualQuery(sc Scope, user string) (string, []interface{}) {
	conds := []string{"umf.isMyFlight = 1", "umf.deleted IS NULL", "mf.lastKnownDepartureDate IS NOT NULL"}
	var args []interface{}
	if !sc.IncludeFriends {
		conds = append(conds, "umf.userId = ?")
		args = append(args, user)
	}
	where, args := sc.tail("mf.lastKnownDepartureDate", conds, args)
	return manualSelect + where, args
}

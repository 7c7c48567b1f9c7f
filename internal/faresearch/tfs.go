package faresearch

import (
	"encoding/base64"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the Google Flights "tfs" message.
const (
	infoData       protowire.Number = 3
	infoPassengers protowire.Number = 8
	infoSeat       protowire.Number = 9
	infoTrip       protowire.Number = 19

	legDate protowire.Number = 2
	legFrom protowire.Number = 13
	legTo   protowire.Number = 14

	airportCodeField protowire.Number = 2
)

var seatCodes = map[string]uint64{
	SeatEconomy:        1,
	SeatPremiumEconomy: 2,
	SeatBusiness:       3,
	SeatFirst:          4,
}

var tripCodes = map[string]uint64{
	TripRoundTrip: 1,
	TripOneWay:    2,
	TripMultiCity: 3,
}

const (
	passengerAdult        = 1
	passengerChild        = 2
	passengerInfantInSeat = 3
	passengerInfantOnLap  = 4
)

func appendAirport(b []byte, field protowire.Number, code string) []byte {
	var ap []byte
	ap = protowire.AppendTag(ap, airportCodeField, protowire.BytesType)
	ap = protowire.AppendString(ap, code)
	b = protowire.AppendTag(b, field, protowire.BytesType)
	return protowire.AppendBytes(b, ap)
}

// Marshal encodes q as the protobuf message behind the tfs parameter.
func (q Query) Marshal() []byte {
	var b []byte
	for _, leg := range q.Legs {
		var fd []byte
		fd = protowire.AppendTag(fd, legDate, protowire.BytesType)
		fd = protowire.AppendString(fd, leg.Date)
		fd = appendAirport(fd, legFrom, leg.From)
		fd = appendAirport(fd, legTo, leg.To)

		b = protowire.AppendTag(b, infoData, protowire.BytesType)
		b = protowire.AppendBytes(b, fd)
	}

	// Repeated enums are packed.
	var packed []byte
	for _, group := range []struct {
		n    int
		kind uint64
	}{
		{q.Passengers.Adults, passengerAdult},
		{q.Passengers.Children, passengerChild},
		{q.Passengers.InfantsInSeat, passengerInfantInSeat},
		{q.Passengers.InfantsOnLap, passengerInfantOnLap},
	} {
		for i := 0; i < group.n; i++ {
			packed = protowire.AppendVarint(packed, group.kind)
		}
	}
	if len(packed) > 0 {
		b = protowire.AppendTag(b, infoPassengers, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	if seat, ok := seatCodes[q.Seat]; ok {
		b = protowire.AppendTag(b, infoSeat, protowire.VarintType)
		b = protowire.AppendVarint(b, seat)
	}
	if trip, ok := tripCodes[q.Trip]; ok {
		b = protowire.AppendTag(b, infoTrip, protowire.VarintType)
		b = protowire.AppendVarint(b, trip)
	}
	return b
}

// EncodeTFS returns the base64 tfs URL parameter for q.
func EncodeTFS(q Query) string {
	return base64.StdEncoding.EncodeToString(q.Marshal())
}

package radar

// Details is the subset of the clickhandler document used for enrichment.
type Details struct {
	Aircraft *struct {
		Model *struct {
			Code string `json:"code"`
			Text string `json:"text"`
		} `json:"model"`
		Hex string `json:"hex"`
	} `json:"aircraft"`
	Airline *struct {
		Name string `json:"name"`
		Code struct {
			IATA string `json:"iata"`
			ICAO string `json:"icao"`
		} `json:"code"`
	} `json:"airline"`
	Airport *struct {
		Origin      *detailAirport `json:"origin"`
		Destination *detailAirport `json:"destination"`
	} `json:"airport"`
	Status *struct {
		Text string `json:"text"`
	} `json:"status"`
	Time *struct {
		Scheduled *timePair `json:"scheduled"`
		Real      *timePair `json:"real"`
		Other     *struct {
			ETA *int64 `json:"eta"`
		} `json:"other"`
	} `json:"time"`
	FlightHistory *struct {
		Aircraft []historyItem `json:"aircraft"`
	} `json:"flightHistory"`
}

type detailAirport struct {
	Name string `json:"name"`
	Code struct {
		IATA string `json:"iata"`
		ICAO string `json:"icao"`
	} `json:"code"`
	Position struct {
		Region struct {
			City string `json:"city"`
		} `json:"region"`
	} `json:"position"`
}

type timePair struct {
	Departure *int64 `json:"departure"`
	Arrival   *int64 `json:"arrival"`
}

type historyItem struct {
	Identification struct {
		Number struct {
			Default string `json:"default"`
		} `json:"number"`
	} `json:"identification"`
	Airport struct {
		Origin      *detailAirport `json:"origin"`
		Destination *detailAirport `json:"destination"`
	} `json:"airport"`
	Time struct {
		Real struct {
			Departure *int64 `json:"departure"`
		} `json:"real"`
	} `json:"time"`
}

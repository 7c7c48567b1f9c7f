package faresearch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"flightdeck/internal/config"
	"flightdeck/internal/logging"
)

// NetworkErrorMessage replaces transport failures in responses.
const NetworkErrorMessage = "Network connection failed. Check internet connectivity."

// tfu is the fixed "results" view parameter the web client sends.
const tfu = "EgQIABABIgA"

// SearchEcho describes the search in a response.
type SearchEcho struct {
	Type       string      `json:"type,omitempty"`
	From       string      `json:"from,omitempty"`
	To         string      `json:"to,omitempty"`
	Date       string      `json:"date,omitempty"`
	ReturnDate string      `json:"return_date,omitempty"`
	TripType   string      `json:"trip_type,omitempty"`
	Legs       []Leg       `json:"legs,omitempty"`
	SeatClass  string      `json:"seat_class,omitempty"`
	Passengers *Passengers `json:"passengers,omitempty"`
}

// Response is the JSON answer of a search. Error is set on failure, in
// which case only the search echo accompanies it.
type Response struct {
	Error      string     `json:"error,omitempty"`
	Search     SearchEcho `json:"search"`
	PriceLevel string     `json:"price_level,omitempty"`
	Flights    []Fare     `json:"flights,omitempty"`
	Count      *int       `json:"count,omitempty"`
}

// Echo describes q the way responses report it.
func Echo(q Query) SearchEcho {
	p := q.Passengers
	e := SearchEcho{SeatClass: q.Seat, Passengers: &p}
	if q.Trip == TripMultiCity {
		e.Type = TripMultiCity
		e.Legs = q.Legs
		return e
	}
	if len(q.Legs) > 0 {
		e.From, e.To, e.Date = q.Legs[0].From, q.Legs[0].To, q.Legs[0].Date
	}
	if q.Trip == TripRoundTrip && len(q.Legs) > 1 {
		e.ReturnDate = q.Legs[1].Date
	}
	e.TripType = q.Trip
	return e
}

// failureEcho is the reduced echo sent with errors.
func failureEcho(q Query) SearchEcho {
	e := Echo(q)
	e.SeatClass, e.Passengers, e.ReturnDate, e.TripType = "", nil, "", ""
	return e
}

// Searcher runs fare searches.
type Searcher struct {
	fetcher  Fetcher
	baseURL  string
	language string
	currency string
}

// NewSearcher builds a searcher around a fetcher.
func NewSearcher(f Fetcher, cfg config.SearchConfig) *Searcher {
	return &Searcher{
		fetcher:  f,
		baseURL:  cfg.BaseURL,
		language: cfg.Language,
		currency: cfg.Currency,
	}
}

// NewFetcher builds the fetcher for a fetch mode.
func NewFetcher(mode string, cfg config.SearchConfig, client *http.Client, userAgent string) (Fetcher, error) {
	if client == nil {
		client = &http.Client{}
	}
	plain := &HTTPFetcher{Client: client, UserAgent: userAgent, Language: cfg.Language}
	browser := &BrowserFetcher{Bin: cfg.BrowserBinary, Timeout: client.Timeout}
	switch mode {
	case "common":
		return plain, nil
	case "fallback":
		return &FallbackFetcher{Primary: plain, Secondary: browser, Retries: cfg.Retries}, nil
	case "local":
		return browser, nil
	default:
		return nil, fmt.Errorf("unknown fetch mode %q (valid: %s)", mode, strings.Join(config.FetchModes, ", "))
	}
}

// URL is the results page address for q.
func (s *Searcher) URL(q Query) string {
	v := url.Values{}
	v.Set("tfs", EncodeTFS(q))
	v.Set("tfu", tfu)
	if s.language != "" {
		v.Set("hl", s.language)
	}
	if s.currency != "" {
		v.Set("curr", s.currency)
	}
	return s.baseURL + "?" + v.Encode()
}

// Search validates q, fetches results and parses them. Failures are
// reported in the response, never as a Go error.
func (s *Searcher) Search(ctx context.Context, q Query) *Response {
	if err := q.Validate(); err != nil {
		return &Response{Error: err.Error(), Search: failureEcho(q)}
	}

	timer := logging.StartTimer(logging.CategorySearch, "Search")
	defer timer.Stop()

	page, err := s.fetcher.Fetch(ctx, s.URL(q))
	if err != nil {
		logging.SearchWarn("fetch failed: %v", err)
		return &Response{Error: errorMessage(err), Search: failureEcho(q)}
	}
	res, err := Parse(page)
	if err != nil {
		return &Response{Error: errorMessage(err), Search: failureEcho(q)}
	}

	n := len(res.Fares)
	logging.Search("%s search found %d fares (price level %q)", q.Trip, n, res.PriceLevel)
	return &Response{
		Search:     Echo(q),
		PriceLevel: res.PriceLevel,
		Flights:    res.Fares,
		Count:      &n,
	}
}

// errorMessage rewrites transport failures to a fixed message.
func errorMessage(err error) string {
	var netErr net.Error
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || (errors.As(err, &netErr) && !netErr.Timeout()) {
		return NetworkErrorMessage
	}
	msg := err.Error()
	if strings.Contains(msg, "Connect") || strings.Contains(msg, "tunnel") {
		return NetworkErrorMessage
	}
	return msg
}

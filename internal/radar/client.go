// Package radar tracks live aircraft through the FlightRadar24 public feed.
package radar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"flightdeck/internal/config"
	"flightdeck/internal/logging"
)

// ErrUnexpectedStatus is wrapped when FR24 answers with a non-200 status.
var ErrUnexpectedStatus = errors.New("unexpected status from flightradar24")

// Filter narrows a feed query. Empty fields are not sent.
type Filter struct {
	Registration string
	Airline      string
}

// Flight is one row of the live feed.
type Flight struct {
	ID            string
	ICAO24        string
	Latitude      float64
	Longitude     float64
	Heading       int
	Altitude      int
	GroundSpeed   int
	Squawk        string
	AircraftCode  string
	Registration  string
	Time          int64
	Origin        string
	Destination   string
	Number        string
	OnGround      bool
	VerticalSpeed int
	Callsign      string
	AirlineICAO   string
}

// Client talks to the FR24 feed and clickhandler endpoints.
type Client struct {
	http       *http.Client
	feedURL    string
	detailsURL string
	userAgent  string
}

// NewClient builds a client from the radar config section.
func NewClient(cfg config.RadarConfig, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		http:       &http.Client{Jar: jar, Timeout: timeout},
		feedURL:    cfg.FeedURL,
		detailsURL: cfg.DetailsURL,
		userAgent:  cfg.UserAgent,
	}, nil
}

// feedParams mirrors the parameters the FR24 web client sends.
var feedParams = map[string]string{
	"faa":       "1",
	"satellite": "1",
	"mlat":      "1",
	"flarm":     "1",
	"adsb":      "1",
	"gnd":       "1",
	"air":       "1",
	"vehicles":  "1",
	"estimated": "1",
	"maxage":    "14400",
	"gliders":   "1",
	"stats":     "1",
	"limit":     "5000",
}

// Flights queries the live feed.
func (c *Client) Flights(ctx context.Context, f Filter) ([]Flight, error) {
	q := url.Values{}
	for k, v := range feedParams {
		q.Set(k, v)
	}
	if f.Registration != "" {
		q.Set("reg", strings.ToUpper(f.Registration))
	}
	if f.Airline != "" {
		q.Set("airline", strings.ToUpper(f.Airline))
	}

	var raw map[string]json.RawMessage
	if err := c.getJSON(ctx, c.feedURL+"?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	flights := make([]Flight, 0, len(raw))
	for id, msg := range raw {
		var row []interface{}
		if err := json.Unmarshal(msg, &row); err != nil {
			// full_count, version, stats
			continue
		}
		flights = append(flights, parseFeedRow(id, row))
	}
	logging.RadarDebug("feed %+v returned %d flights", f, len(flights))
	return flights, nil
}

// Details fetches the clickhandler document for a feed id.
func (c *Client) Details(ctx context.Context, id string) (*Details, error) {
	u, err := url.Parse(c.detailsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid details url: %w", err)
	}
	q := u.Query()
	q.Set("flight", id)
	u.RawQuery = q.Encode()

	var d Details
	if err := c.getJSON(ctx, u.String(), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *Client) getJSON(ctx context.Context, target string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseFeedRow(id string, row []interface{}) Flight {
	str := func(i int) string {
		if i < len(row) {
			if s, ok := row[i].(string); ok {
				return s
			}
		}
		return ""
	}
	num := func(i int) float64 {
		if i < len(row) {
			if n, ok := row[i].(float64); ok {
				return n
			}
		}
		return 0
	}
	return Flight{
		ID:            id,
		ICAO24:        str(0),
		Latitude:      num(1),
		Longitude:     num(2),
		Heading:       int(num(3)),
		Altitude:      int(num(4)),
		GroundSpeed:   int(num(5)),
		Squawk:        str(6),
		AircraftCode:  str(8),
		Registration:  str(9),
		Time:          int64(num(10)),
		Origin:        str(11),
		Destination:   str(12),
		Number:        str(13),
		OnGround:      num(14) != 0,
		VerticalSpeed: int(num(15)),
		Callsign:      str(16),
		AirlineICAO:   str(18),
	}
}

package faresearch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ErrNoFlights is returned when a results page lists no fares.
var ErrNoFlights = errors.New("no flights found")

// Stops is a stop count, or StopsUnknown when the page text is unreadable.
type Stops int

// StopsUnknown marks an unparseable stop count.
const StopsUnknown Stops = -1

// MarshalJSON writes the count, or "Unknown".
func (s Stops) MarshalJSON() ([]byte, error) {
	if s == StopsUnknown {
		return []byte(`"Unknown"`), nil
	}
	return []byte(strconv.Itoa(int(s))), nil
}

// Fare is one itinerary listed on the results page.
type Fare struct {
	Airline          string `json:"airline"`
	Departure        string `json:"departure"`
	Arrival          string `json:"arrival"`
	ArrivalTimeAhead string `json:"arrival_time_ahead,omitempty"`
	Duration         string `json:"duration"`
	Stops            Stops  `json:"stops"`
	Delay            string `json:"delay,omitempty"`
	Price            string `json:"price"`
	IsBest           bool   `json:"is_best"`
}

// Results is a parsed results page.
type Results struct {
	PriceLevel string
	Fares      []Fare
}

// Parse extracts fares and the price level from a results page.
func Parse(page string) (*Results, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	res := &Results{}
	groups := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "div") && (attr(n, "jsname") == "IWWDBc" || attr(n, "jsname") == "YdtKid")
	})
	for i, group := range groups {
		var items []*html.Node
		for _, ul := range findAll(group, matches("ul", "Rk10dc")) {
			for c := ul.FirstChild; c != nil; c = c.NextSibling {
				if isElement(c, "li") {
					items = append(items, c)
				}
			}
		}
		// Groups after the best flights end with a "more flights" row.
		if i > 0 && len(items) > 0 {
			items = items[:len(items)-1]
		}
		for _, item := range items {
			res.Fares = append(res.Fares, parseFare(item, i == 0))
		}
	}
	res.PriceLevel = text(findFirst(doc, matches("span", "gOatQ")))

	if len(res.Fares) == 0 {
		return res, ErrNoFlights
	}
	return res, nil
}

func parseFare(item *html.Node, best bool) Fare {
	f := Fare{IsBest: best}

	f.Airline = "Unknown"
	if name := findFirst(item, matches("div", "sSHqwe", "tPgKwe", "ogfYpf")); name != nil {
		if s := text(findFirst(name, matches("span"))); s != "" {
			f.Airline = s
		}
	}

	if span := findFirst(item, matches("span", "mv1WYe")); span != nil {
		times := findAll(span, matches("div"))
		if len(times) >= 2 {
			f.Departure = squash(text(times[0]))
			f.Arrival = squash(text(times[1]))
		}
	}

	f.ArrivalTimeAhead = text(findFirst(item, matches("span", "bOzv6")))
	if box := findFirst(item, matches("div", "Ak5kof")); box != nil {
		f.Duration = text(findFirst(box, matches("div")))
	}

	f.Stops = StopsUnknown
	if box := findFirst(item, matches("", "BbR8Ec")); box != nil {
		f.Stops = parseStops(text(findFirst(box, matches("", "ogfYpf"))))
	}

	f.Delay = text(findFirst(item, matches("", "GsCCve")))
	f.Price = strings.ReplaceAll(text(findFirst(item, matches("", "YMlIz", "FpEdX"))), ",", "")
	if f.Price == "" {
		f.Price = "0"
	}
	return f
}

func parseStops(s string) Stops {
	if s == "Nonstop" {
		return 0
	}
	first, _, _ := strings.Cut(s, " ")
	n, err := strconv.Atoi(first)
	if err != nil {
		return StopsUnknown
	}
	return Stops(n)
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && (tag == "" || n.Data == tag)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// matches selects elements by tag (empty for any) carrying every class.
func matches(tag string, classes ...string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if !isElement(n, tag) {
			return false
		}
		have := strings.Fields(attr(n, "class"))
	next:
		for _, want := range classes {
			for _, c := range have {
				if c == want {
					continue next
				}
			}
			return false
		}
		return true
	}
}

// findAll returns matching descendants of n in document order.
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

func findFirst(n *html.Node, pred func(*html.Node) bool) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := findFirst(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// text is the trimmed concatenated text of n, "" for nil.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		if p.Type == html.TextNode {
			b.WriteString(p.Data)
		}
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

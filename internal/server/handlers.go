package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"flightdeck/internal/flighty"
	"flightdeck/internal/flightmap"
	"flightdeck/internal/itinerary"
	"flightdeck/internal/tripsy"
)

// List defaults match the CLI.
const (
	defaultUpcoming = flighty.DefaultLimit
	defaultRecent   = flighty.DefaultLimit
	defaultTrips    = 20
)

// queryInt reads a positive integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &badRequest{msg: fmt.Sprintf("invalid %s: %s", key, raw)}
	}
	return n, nil
}

func queryBool(c *gin.Context, key string) bool {
	b, _ := strconv.ParseBool(c.Query(key))
	return b
}

func (s *Server) upcoming(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultUpcoming)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := s.deps.Flights.ListUpcoming(c.Request.Context(), flighty.ListOptions{
		Limit:          limit,
		IncludeFriends: queryBool(c, "include_friends"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) next(c *gin.Context) {
	res, err := s.deps.Flights.Next(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) stats(c *gin.Context) {
	res, err := s.deps.Flights.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) recent(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultRecent)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := s.deps.Flights.Recent(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) years(c *gin.Context) {
	res, err := s.deps.Flights.Years(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) onDate(c *gin.Context) {
	res, err := s.deps.Flights.OnDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) byConfirmation(c *gin.Context) {
	res, err := s.deps.Flights.ByConfirmation(c.Request.Context(), c.Param("code"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) byYear(c *gin.Context) {
	raw := c.Param("year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < 1900 || year > 9999 {
		fail(c, &badRequest{msg: "invalid year: " + raw})
		return
	}
	res, err := s.deps.Flights.ByYear(c.Request.Context(), year)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) trips(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultTrips)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := s.deps.Trips.ListUpcoming(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) tripDetails(c *gin.Context) (*tripsy.TripDetails, error) {
	return s.deps.Trips.TripDetails(c.Request.Context(), c.Param("name"), tripsy.TripOptions{
		IncludePast: queryBool(c, "all"),
	})
}

func (s *Server) trip(c *gin.Context) {
	res, err := s.tripDetails(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) tripPDF(c *gin.Context) {
	details, err := s.tripDetails(c)
	if err != nil {
		fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := itinerary.Render(&buf, details); err != nil {
		fail(c, err)
		return
	}
	name := strings.ReplaceAll(details.Trip.Name, `"`, "")
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, name))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) track(c *gin.Context) {
	report, err := s.deps.Radar.TrackOne(c.Request.Context(), c.Param("tail"))
	if err != nil {
		fail(c, err)
		return
	}
	if !report.Found() {
		fail(c, report.Err())
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) fleet(c *gin.Context) {
	icao := strings.ToUpper(c.Param("icao"))
	fleet, err := s.deps.Radar.Fleet(c.Request.Context(), icao)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"airline": icao, "flights": fleet, "count": len(fleet)})
}

func (s *Server) flightMap(c *gin.Context) {
	tail := strings.ToUpper(c.Param("tail"))
	report, err := s.deps.Radar.TrackOne(c.Request.Context(), tail)
	if err != nil {
		fail(c, err)
		return
	}
	page, err := flightmap.Render(report, tail, flightmap.Options{
		RefreshSeconds: s.deps.RefreshSeconds,
		TileURL:        s.deps.TileURL,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Package server exposes the flight and trip stores over a local HTTP API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"flightdeck/internal/flighty"
	"flightdeck/internal/logging"
	"flightdeck/internal/radar"
	"flightdeck/internal/tripsy"
)

// FlightStore is the read side of the Flighty database.
type FlightStore interface {
	ListUpcoming(ctx context.Context, opts flighty.ListOptions) (*flighty.UpcomingFlights, error)
	Next(ctx context.Context) (*flighty.NextFlight, error)
	OnDate(ctx context.Context, date string) (*flighty.DateFlights, error)
	ByConfirmation(ctx context.Context, pnr string) (*flighty.ConfirmationFlights, error)
	Stats(ctx context.Context) (*flighty.FlightStats, error)
	Recent(ctx context.Context, limit int) (*flighty.RecentFlights, error)
	ByYear(ctx context.Context, year int) (*flighty.YearFlights, error)
	Years(ctx context.Context) (*flighty.YearSummary, error)
}

// TripStore is the read side of the Tripsy database.
type TripStore interface {
	ListUpcoming(ctx context.Context, limit int) (*tripsy.TripList, error)
	TripDetails(ctx context.Context, name string, opts tripsy.TripOptions) (*tripsy.TripDetails, error)
}

// Radar resolves live positions.
type Radar interface {
	TrackOne(ctx context.Context, tail string) (*radar.Report, error)
	Fleet(ctx context.Context, icao string) ([]radar.Position, error)
}

// Deps wires the server. Nil stores answer 503.
type Deps struct {
	Flights FlightStore
	Trips   TripStore
	Radar   Radar

	Logger   *zap.Logger
	Registry *prometheus.Registry

	CORSOrigins    []string
	RefreshSeconds int
	TileURL        string
}

// Server is the HTTP API.
type Server struct {
	deps   Deps
	engine *gin.Engine
}

// New builds the router.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	m := newMetrics(deps.Registry)
	r.Use(RequestID())
	r.Use(Logger(deps.Logger))
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(deps.CORSOrigins))
	r.Use(m.Metrics())

	s := &Server{deps: deps, engine: r}
	s.routes()
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		if len(origins) == 0 {
			cfg.AllowAllOrigins = true
		} else {
			cfg.AllowOrigins = origins
		}
	}
	return cors.New(cfg)
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		fl := api.Group("/flights")
		fl.Use(s.require(s.deps.Flights != nil, "flighty"))
		fl.GET("/upcoming", s.upcoming)
		fl.GET("/next", s.next)
		fl.GET("/stats", s.stats)
		fl.GET("/recent", s.recent)
		fl.GET("/years", s.years)
		fl.GET("/date/:date", s.onDate)
		fl.GET("/pnr/:code", s.byConfirmation)
		fl.GET("/year/:year", s.byYear)

		tr := api.Group("/trips")
		tr.Use(s.require(s.deps.Trips != nil, "tripsy"))
		tr.GET("", s.trips)
		tr.GET("/:name", s.trip)
		tr.GET("/:name/pdf", s.tripPDF)

		rd := api.Group("")
		rd.Use(s.require(s.deps.Radar != nil, "radar"))
		rd.GET("/radar/:tail", s.track)
		rd.GET("/fleet/:icao", s.fleet)
	}

	r.GET("/map/:tail", s.require(s.deps.Radar != nil, "radar"), s.flightMap)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
}

func (s *Server) require(ok bool, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ok {
			logging.ServerDebug("%s: %s store not configured", c.Request.URL.Path, name)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": name + " is not configured"})
			return
		}
		c.Next()
	}
}

// fail maps an error onto a status and writes {"error": msg}.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var bad *badRequest
	switch {
	case errors.As(err, &bad), errors.Is(err, flighty.ErrInvalidDate):
		status = http.StatusBadRequest
	case errors.Is(err, tripsy.ErrTripNotFound), errors.Is(err, radar.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		logging.WithRequestID(logging.CategoryServer, GetRequestID(c)).Error("%s: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Server("listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.ServerError("listen on %s: %v", addr, err)
		}
		return err
	case <-ctx.Done():
	}

	logging.Server("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/server"
)

var serveAddr string

// serveCmd runs the local HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve flights, trips and live tracking over a local HTTP API",
	Long: `Starts a JSON API over the Flighty and Tripsy databases plus live
radar lookups and tracker maps. Prometheus metrics are exposed at /metrics.

A missing database disables its routes (503) instead of failing startup.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd)
	defer cancel()

	deps := server.Deps{
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RefreshSeconds: cfg.Server.RefreshSeconds,
		TileURL:        cfg.Map.TileURL,
	}

	if fs, err := openFlighty(); err != nil {
		logger.Warn("flighty routes disabled", zap.Error(err))
	} else {
		defer fs.Close()
		deps.Flights = fs
	}
	if ts, err := openTripsy(); err != nil {
		logger.Warn("tripsy routes disabled", zap.Error(err))
	} else {
		defer ts.Close()
		deps.Trips = ts
	}
	tracker, err := newTracker()
	if err != nil {
		return fmt.Errorf("failed to create radar client: %w", err)
	}
	deps.Radar = tracker

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps.Registry = reg

	addr := cfg.Server.ListenAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	logger.Info("starting server", zap.String("addr", addr))
	return server.New(deps).Run(ctx, addr)
}

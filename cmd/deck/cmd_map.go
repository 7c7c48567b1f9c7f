package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/flightmap"
	"flightdeck/internal/radar"
)

var (
	mapOutput string
	mapNoOpen bool
)

// openBrowser is swapped in tests.
var openBrowser = flightmap.OpenBrowser

// mapCmd writes a Leaflet tracker page for one aircraft.
var mapCmd = &cobra.Command{
	Use:   "map TAIL",
	Short: "Generate a live tracker map for an aircraft",
	Args:  cobra.ExactArgs(1),
	RunE:  runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapOutput, "output", "o", "", "Output HTML file path (default: temp file)")
	mapCmd.Flags().BoolVar(&mapNoOpen, "no-open", false, "Don't open in browser")
}

func runMap(cmd *cobra.Command, args []string) error {
	tail := args[0]
	ctx, cancel := commandContext(cmd)
	defer cancel()

	var report *radar.Report
	tracker, err := newTracker()
	if err == nil {
		report, err = tracker.TrackOne(ctx, strings.ToUpper(tail))
	}
	if err != nil {
		// A failed lookup still produces the "not tracked" page.
		logger.Warn("radar lookup failed", zap.String("tail", tail), zap.Error(err))
		report = nil
	}

	page, err := flightmap.Render(report, tail, flightmap.Options{TileURL: cfg.Map.TileURL})
	if err != nil {
		return err
	}
	path, err := flightmap.Write(mapOutput, cfg.Map.OutputDir, tail, page)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Map saved to: %s\n", path)

	if !mapNoOpen {
		if err := openBrowser(path); err != nil {
			logger.Warn("failed to open browser", zap.Error(err))
		}
	}
	return nil
}

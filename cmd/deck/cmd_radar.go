package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/radar"
)

var (
	radarFleet string
	radarJSON  bool
	radarPoll  int
)

// newRadarSource is swapped in tests.
var newRadarSource = func() (radar.Source, error) {
	return radar.NewClient(cfg.Radar, cfg.GetRadarTimeout())
}

// radarCmd tracks aircraft on FlightRadar24.
var radarCmd = &cobra.Command{
	Use:   "radar [tails...]",
	Short: "Track aircraft live via FlightRadar24",
	Long: `Looks up tail numbers (and optionally a whole airline fleet) in the
FlightRadar24 live feed.

Examples:
  deck radar N464QS
  deck radar N464QS --poll 30
  deck radar --fleet EJA
  deck radar N464QS --json`,
	RunE: runRadar,
}

var radarWatchCmd = &cobra.Command{
	Use:   "watch TAIL...",
	Short: "Live-updating terminal view of one or more aircraft",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRadarWatch,
}

func init() {
	radarCmd.Flags().StringVar(&radarFleet, "fleet", "", "Show all active flights for an airline ICAO code (e.g. EJA, UAL)")
	radarCmd.Flags().BoolVar(&radarJSON, "json", false, "Output JSON")
	radarCmd.Flags().IntVar(&radarPoll, "poll", 0, "Poll interval in seconds (0 = once)")

	radarCmd.AddCommand(radarWatchCmd)
}

func newTracker() (*radar.Tracker, error) {
	src, err := newRadarSource()
	if err != nil {
		return nil, err
	}
	return radar.NewTracker(src, cfg.Radar.Concurrency), nil
}

func runRadar(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && radarFleet == "" {
		_ = cmd.Help()
		return exitCode(1)
	}
	tracker, err := newTracker()
	if err != nil {
		return err
	}

	if radarPoll <= 0 {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return radarOnce(ctx, cmd.OutOrStdout(), tracker, args)
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	ticker := time.NewTicker(time.Duration(radarPoll) * time.Second)
	defer ticker.Stop()
	for {
		if err := radarOnce(ctx, cmd.OutOrStdout(), tracker, args); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("radar poll failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// radarOnce prints one round of fleet and tail lookups.
func radarOnce(ctx context.Context, w io.Writer, tracker *radar.Tracker, tails []string) error {
	var fleet []radar.Position
	if radarFleet != "" {
		var err error
		fleet, err = tracker.Fleet(ctx, radarFleet)
		if err != nil {
			return err
		}
	}
	reports, err := tracker.Track(ctx, tails...)
	if err != nil {
		return err
	}

	if radarJSON {
		switch {
		case radarFleet == "":
			return radar.WriteJSON(w, reports)
		case len(tails) == 0:
			return radar.WriteFleetJSON(w, fleet)
		}
		combined := make([]interface{}, 0, len(fleet)+len(reports))
		for _, p := range fleet {
			combined = append(combined, p)
		}
		for _, r := range reports {
			combined = append(combined, r)
		}
		return printJSON(w, combined)
	}

	if radarFleet != "" {
		fmt.Fprintln(w, radar.FormatFleet(strings.ToUpper(radarFleet), fleet))
	}
	return radar.WriteText(w, reports)
}

func runRadarWatch(cmd *cobra.Command, args []string) error {
	tracker, err := newTracker()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext(cmd)
	defer cancel()

	model := radar.NewWatchModel(ctx, tracker, args, cfg.GetRefreshInterval())
	p := tea.NewProgram(model, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout()))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

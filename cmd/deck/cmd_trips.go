package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/itinerary"
	"flightdeck/internal/tripsy"
)

var (
	tripIncludePast bool
	tripsText       bool
	exportOutput    string
)

// tripsCmd groups the Tripsy queries.
var tripsCmd = &cobra.Command{
	Use:   "trips",
	Short: "Query the Tripsy database",
}

var tripsListCmd = &cobra.Command{
	Use:   "list [N]",
	Short: "List upcoming trips (default 20)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTripsList,
}

var tripsTripCmd = &cobra.Command{
	Use:   "trip NAME...",
	Short: "Show a trip with its flights, hotels and activities",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTripsTrip,
}

var tripsFlightsCmd = &cobra.Command{
	Use:   "flights [N]",
	Short: "Next booked flights (default 10)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTripsFlights,
}

var tripsHotelsCmd = &cobra.Command{
	Use:   "hotels [N]",
	Short: "Next hotel check-ins (default 5)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTripsHotels,
}

var tripsYearCmd = &cobra.Command{
	Use:   "year YYYY",
	Short: "Trips overlapping a calendar year",
	Args:  cobra.ExactArgs(1),
	RunE:  runTripsYear,
}

var tripsExportCmd = &cobra.Command{
	Use:   "export NAME...",
	Short: "Export a trip itinerary as PDF",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTripsExport,
}

func init() {
	tripsListCmd.Flags().BoolVar(&tripsText, "text", false, "Print a styled summary instead of JSON")
	tripsTripCmd.Flags().BoolVar(&tripIncludePast, "all", false, "Also match trips that have ended")
	tripsExportCmd.Flags().BoolVar(&tripIncludePast, "all", false, "Also match trips that have ended")
	tripsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output PDF path (default <name>.pdf)")

	tripsCmd.AddCommand(tripsListCmd)
	tripsCmd.AddCommand(tripsTripCmd)
	tripsCmd.AddCommand(tripsFlightsCmd)
	tripsCmd.AddCommand(tripsHotelsCmd)
	tripsCmd.AddCommand(tripsYearCmd)
	tripsCmd.AddCommand(tripsExportCmd)
}

// withTripsy opens the store, runs query and prints its result as JSON.
func withTripsy(cmd *cobra.Command, query func(ctx context.Context, s *tripsy.Store) (interface{}, error)) error {
	out := cmd.OutOrStdout()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := openTripsy()
	if err != nil {
		return reportError(out, err)
	}
	defer store.Close()

	res, err := query(ctx, store)
	if err != nil {
		return reportError(out, err)
	}
	return printJSON(out, res)
}

func runTripsList(cmd *cobra.Command, args []string) error {
	limit, err := optionalLimit(args, 0)
	if err != nil {
		return reportError(cmd.OutOrStdout(), err)
	}
	if !tripsText {
		return withTripsy(cmd, func(ctx context.Context, s *tripsy.Store) (interface{}, error) {
			return s.ListUpcoming(ctx, limit)
		})
	}

	out := cmd.OutOrStdout()
	ctx, cancel := commandContext(cmd)
	defer cancel()
	store, err := openTripsy()
	if err != nil {
		return reportError(out, err)
	}
	defer store.Close()
	list, err := store.ListUpcoming(ctx, limit)
	if err != nil {
		return reportError(out, err)
	}
	writeTripsText(out, list)
	return nil
}

var (
	tripNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tripDimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func writeTripsText(w io.Writer, list *tripsy.TripList) {
	if len(list.Trips) == 0 {
		fmt.Fprintln(w, tripDimStyle.Render("No upcoming trips"))
		return
	}
	for _, t := range list.Trips {
		when := t.Starts + " to " + t.Ends
		if t.DaysUntil != nil {
			switch d := *t.DaysUntil; {
			case d <= 0:
				when += " (underway)"
			case d == 1:
				when += " (tomorrow)"
			default:
				when += fmt.Sprintf(" (in %d days)", d)
			}
		}
		fmt.Fprintf(w, "%s  %s\n", tripNameStyle.Render(t.Name), tripDimStyle.Render(when))
	}
}

func runTripsTrip(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	return withTripsy(cmd, func(ctx context.Context, s *tripsy.Store) (interface{}, error) {
		return s.TripDetails(ctx, name, tripsy.TripOptions{IncludePast: tripIncludePast})
	})
}

func runTripsFlights(cmd *cobra.Command, args []string) error {
	limit, err := optionalLimit(args, 0)
	if err != nil {
		return reportError(cmd.OutOrStdout(), err)
	}
	return withTripsy(cmd, func(ctx context.Context, s *tripsy.Store) (interface{}, error) {
		return s.NextFlights(ctx, limit)
	})
}

func runTripsHotels(cmd *cobra.Command, args []string) error {
	limit, err := optionalLimit(args, 0)
	if err != nil {
		return reportError(cmd.OutOrStdout(), err)
	}
	return withTripsy(cmd, func(ctx context.Context, s *tripsy.Store) (interface{}, error) {
		return s.NextHotels(ctx, limit)
	})
}

func runTripsYear(cmd *cobra.Command, args []string) error {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return reportError(cmd.OutOrStdout(), fmt.Errorf("invalid year: %s", args[0]))
	}
	return withTripsy(cmd, func(ctx context.Context, s *tripsy.Store) (interface{}, error) {
		return s.TripsInYear(ctx, year)
	})
}

func runTripsExport(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")
	out := cmd.OutOrStdout()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := openTripsy()
	if err != nil {
		return reportError(out, err)
	}
	defer store.Close()

	details, err := store.TripDetails(ctx, name, tripsy.TripOptions{IncludePast: tripIncludePast})
	if err != nil {
		return reportError(out, err)
	}

	path := exportOutput
	if path == "" {
		path = strings.ReplaceAll(details.Trip.Name, "/", "-") + ".pdf"
	}
	f, err := os.Create(path)
	if err != nil {
		return reportError(out, fmt.Errorf("failed to create %s: %w", path, err))
	}
	if err := itinerary.Render(f, details); err != nil {
		f.Close()
		return reportError(out, err)
	}
	if err := f.Close(); err != nil {
		return reportError(out, err)
	}

	logger.Info("exported itinerary", zap.String("trip", details.Trip.Name), zap.String("path", path))
	fmt.Fprintf(out, "Itinerary saved to: %s\n", path)
	return nil
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/dbwatch"
	"flightdeck/internal/flighty"
	"flightdeck/internal/logging"
)

var includeFriends bool

// flightsCmd groups the Flighty queries.
var flightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "Query the Flighty database",
}

var flightsListCmd = &cobra.Command{
	Use:   "list [N]",
	Short: "List upcoming flights (default 20)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFlightsList,
}

var flightsNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next upcoming flight",
	Args:  cobra.NoArgs,
	RunE:  runFlightsNext,
}

var flightsDateCmd = &cobra.Command{
	Use:   "date YYYY-MM-DD",
	Short: "Flights departing on a local date",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlightsDate,
}

var flightsPNRCmd = &cobra.Command{
	Use:   "pnr CODE",
	Short: "Flights booked under a confirmation code",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlightsPNR,
}

var flightsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Lifetime flight statistics",
	Args:  cobra.NoArgs,
	RunE:  runFlightsStats,
}

var flightsRecentCmd = &cobra.Command{
	Use:   "recent [N]",
	Short: "Most recent past flights (default 20)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFlightsRecent,
}

var flightsYearCmd = &cobra.Command{
	Use:   "year YYYY",
	Short: "Flights taken in a calendar year",
	Args:  cobra.ExactArgs(1),
	RunE:  runFlightsYear,
}

var flightsYearsCmd = &cobra.Command{
	Use:   "years",
	Short: "Unique flights per year",
	Args:  cobra.NoArgs,
	RunE:  runFlightsYears,
}

var flightsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the next flight whenever Flighty updates its database",
	Args:  cobra.NoArgs,
	RunE:  runFlightsWatch,
}

func init() {
	flightsListCmd.Flags().BoolVar(&includeFriends, "include-friends", false, "Include flights shared by connected friends")

	flightsCmd.AddCommand(flightsListCmd)
	flightsCmd.AddCommand(flightsNextCmd)
	flightsCmd.AddCommand(flightsDateCmd)
	flightsCmd.AddCommand(flightsPNRCmd)
	flightsCmd.AddCommand(flightsStatsCmd)
	flightsCmd.AddCommand(flightsRecentCmd)
	flightsCmd.AddCommand(flightsYearCmd)
	flightsCmd.AddCommand(flightsYearsCmd)
	flightsCmd.AddCommand(flightsWatchCmd)
}

// optionalLimit parses an optional positive count argument.
func optionalLimit(args []string, def int) (int, error) {
	if len(args) == 0 {
		return def, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid count: %s", args[0])
	}
	return n, nil
}

// withFlighty opens the store, runs query and prints its result as JSON.
func withFlighty(cmd *cobra.Command, query func(ctx context.Context, s *flighty.Store) (interface{}, error)) error {
	out := cmd.OutOrStdout()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	store, err := openFlighty()
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

func runFlightsList(cmd *cobra.Command, args []string) error {
	limit, err := optionalLimit(args, flighty.DefaultLimit)
	if err != nil {
		return reportError(cmd.OutOrStdout(), err)
	}
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.ListUpcoming(ctx, flighty.ListOptions{Limit: limit, IncludeFriends: includeFriends})
	})
}

func runFlightsNext(cmd *cobra.Command, args []string) error {
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.Next(ctx)
	})
}

func runFlightsDate(cmd *cobra.Command, args []string) error {
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.OnDate(ctx, args[0])
	})
}

func runFlightsPNR(cmd *cobra.Command, args []string) error {
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.ByConfirmation(ctx, args[0])
	})
}

func runFlightsStats(cmd *cobra.Command, args []string) error {
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.Stats(ctx)
	})
}

func runFlightsRecent(cmd *cobra.Command, args []string) error {
	limit, err := optionalLimit(args, flighty.DefaultLimit)
	if err != nil {
		return reportError(cmd.OutOrStdout(), err)
	}
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.Recent(ctx, limit)
	})
}

func runFlightsYear(cmd *cobra.Command, args []string) error {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return reportError(cmd.OutOrStdout(), fmt.Errorf("invalid year: %s", args[0]))
	}
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.ByYear(ctx, year)
	})
}

func runFlightsYears(cmd *cobra.Command, args []string) error {
	return withFlighty(cmd, func(ctx context.Context, s *flighty.Store) (interface{}, error) {
		return s.Years(ctx)
	})
}

func runFlightsWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx, cancel := signalContext(cmd)
	defer cancel()

	store, err := openFlighty()
	if err != nil {
		return reportError(out, err)
	}
	defer store.Close()

	w, err := dbwatch.New(store.Path(), dbwatch.DefaultDebounce)
	if err != nil {
		return reportError(out, err)
	}

	show := func(ctx context.Context) {
		next, err := store.Next(ctx)
		if err != nil {
			logging.WatchWarn("next flight query failed: %v", err)
			_ = printJSON(out, map[string]string{"error": err.Error()})
			return
		}
		_ = printJSON(out, next)
	}

	show(ctx)
	logger.Info("watching Flighty database", zap.String("path", store.Path()))
	if err := w.Run(ctx, show); err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	logger.Debug("watch stopped", zap.Int64("changes", w.Fired()))
	return nil
}

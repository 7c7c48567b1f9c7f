package main

import (
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/faresearch"
)

var (
	searchFrom       string
	searchTo         string
	searchDate       string
	searchReturn     string
	searchTrip       string
	searchSeat       string
	searchAdults     int
	searchChildren   int
	searchInfantSeat int
	searchInfantLap  int
	searchFetchMode  string
	searchLegs       string
)

// newFetcher is swapped in tests.
var newFetcher = faresearch.NewFetcher

// searchCmd searches Google Flights.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search Google Flights for fares",
	Long: `Searches Google Flights and prints the fares as JSON.

Examples:
  deck search --from SEA --to HKG --date 2025-06-15
  deck search --from SEA --to HKG --date 2025-06-15 --trip round-trip --return-date 2025-06-30
  deck search multi --legs "SEA,HKG,2025-06-15;HKG,NRT,2025-06-20"`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

var searchMultiCmd = &cobra.Command{
	Use:   "multi",
	Short: "Multi-city search (--legs \"FROM,TO,DATE;FROM,TO,DATE\")",
	Args:  cobra.NoArgs,
	RunE:  runSearchMulti,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, searchMultiCmd} {
		c.Flags().StringVar(&searchSeat, "seat", faresearch.SeatEconomy, "Seat class: economy, premium-economy, business, first")
		c.Flags().IntVar(&searchAdults, "adults", 1, "Adult passengers")
		c.Flags().IntVar(&searchChildren, "children", 0, "Child passengers")
		c.Flags().IntVar(&searchInfantSeat, "infants-in-seat", 0, "Infants with their own seat")
		c.Flags().IntVar(&searchInfantLap, "infants-on-lap", 0, "Infants on lap")
		c.Flags().StringVar(&searchFetchMode, "fetch-mode", "", "common, fallback or local (default from config)")
	}

	searchCmd.Flags().StringVar(&searchFrom, "from", "", "Departure airport code")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "Arrival airport code")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "Departure date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchReturn, "return-date", "", "Return date for round trips")
	searchCmd.Flags().StringVar(&searchTrip, "trip", faresearch.TripOneWay, "one-way or round-trip")
	_ = searchCmd.MarkFlagRequired("from")
	_ = searchCmd.MarkFlagRequired("to")
	_ = searchCmd.MarkFlagRequired("date")

	searchMultiCmd.Flags().StringVar(&searchLegs, "legs", "", "Legs as FROM,TO,DATE separated by ';'")
	_ = searchMultiCmd.MarkFlagRequired("legs")

	searchCmd.AddCommand(searchMultiCmd)
}

func searchPassengers() faresearch.Passengers {
	return faresearch.Passengers{
		Adults:        searchAdults,
		Children:      searchChildren,
		InfantsInSeat: searchInfantSeat,
		InfantsOnLap:  searchInfantLap,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	q := faresearch.OneWayOrReturn(searchFrom, searchTo, searchDate, searchReturn, searchTrip)
	q.Seat = searchSeat
	q.Passengers = searchPassengers()
	return doSearch(cmd, q)
}

func runSearchMulti(cmd *cobra.Command, args []string) error {
	legs, err := faresearch.ParseLegs(searchLegs)
	if err != nil {
		return reportError(cmd.OutOrStdout(), err)
	}
	q := faresearch.Query{
		Legs:       legs,
		Trip:       faresearch.TripMultiCity,
		Seat:       searchSeat,
		Passengers: searchPassengers(),
	}
	return doSearch(cmd, q)
}

func doSearch(cmd *cobra.Command, q faresearch.Query) error {
	out := cmd.OutOrStdout()
	ctx, cancel := commandContext(cmd)
	defer cancel()

	mode := cfg.Search.FetchMode
	if searchFetchMode != "" {
		mode = searchFetchMode
	}
	client := &http.Client{Timeout: cfg.GetSearchTimeout()}
	fetcher, err := newFetcher(mode, cfg.Search, client, cfg.Radar.UserAgent)
	if err != nil {
		return reportError(out, err)
	}

	logger.Debug("searching fares", zap.String("trip", q.Trip), zap.Int("legs", len(q.Legs)), zap.String("mode", mode))
	resp := faresearch.NewSearcher(fetcher, cfg.Search).Search(ctx, q)
	if err := printJSON(out, resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errReported
	}
	return nil
}

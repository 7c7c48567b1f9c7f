package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightdeck/internal/flighty"
	"flightdeck/internal/validate"
)

var (
	validateCSV    string
	validateDB     string
	validatePretty bool
	validateJSON   bool
	validateStyle  string
)

// validateCmd cross-checks the Flighty queries against each other.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Cross-check flight counts across queries (and an optional CSV export)",
	Long: `Runs a set of consistency checks against the Flighty database:

  1. NULL filter safety        the friend filter keeps NULL importSource rows
  2. Total count consistency   raw rows == filtered + connected-friend rows
  3. Year sum                  per-year counts add up to the all-time count
  4. Recent + upcoming         past and future flights are both visible
  5. Stats agreement           stats match the reconciled flight set
  6. CSV comparison            every exported flight exists in the database

Exits non-zero when any check fails.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateCSV, "csv", "", "Flighty CSV export to compare against")
	validateCmd.Flags().StringVar(&validateDB, "db", "", "Flighty database to validate (default from config)")
	validateCmd.Flags().BoolVar(&validatePretty, "pretty", false, "Render the report as styled Markdown")
	validateCmd.Flags().StringVar(&validateStyle, "style", "", "glamour style for --pretty (default auto)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the report as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validatePretty && validateJSON {
		return fmt.Errorf("--pretty and --json are mutually exclusive")
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	if err := validate.RequireCSV(validateCSV); err != nil {
		return err
	}

	path := cfg.Flighty.DatabasePath
	if validateDB != "" {
		path = validateDB
	}
	store, err := flighty.Open(path, flighty.WithLocation(cfg.GetFlightyLocation()))
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := validate.Run(ctx, store, validate.Options{CSVPath: validateCSV})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case validateJSON:
		err = report.WriteJSON(out)
	case validatePretty:
		err = report.WritePretty(out, validateStyle)
	default:
		err = report.WriteText(out)
	}
	if err != nil {
		return err
	}

	logger.Info("validation finished",
		zap.String("run_id", report.RunID),
		zap.Int("passed", report.Passed),
		zap.Int("failed", report.Failed))
	if code := report.ExitCode(); code != 0 {
		return exitCode(code)
	}
	return nil
}

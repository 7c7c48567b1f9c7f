package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"flightdeck/internal/config"
	"flightdeck/internal/flighty"
	"flightdeck/internal/logging"
	"flightdeck/internal/tripsy"
)

var (
	// Global flags
	cfgPath   string
	verbose   bool
	timeout   time.Duration
	flightyDB string
	tripsyDB  string

	// Loaded in PersistentPreRunE
	cfg *config.Config

	// Logger
	logger *zap.Logger
)

// errReported marks a failure already written to stdout as JSON.
var errReported = errors.New("error reported")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "deck",
	Short: "flightdeck - personal travel data from Flighty and Tripsy",
	Long: `flightdeck reads the local Flighty and Tripsy databases, cross-checks
their flight history, tracks aircraft live on FlightRadar24 and searches
Google Flights for fares.

Query commands print JSON to stdout. Logs go to stderr and, in debug
mode, to per-category files under the configured log directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zc := zap.NewProductionConfig()
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := loadConfig(); err != nil {
			return err
		}
		if err := logging.Initialize(cfg.Logging.LoggerConfig()); err != nil {
			logger.Warn("file logging disabled", zap.Error(err))
		}
		logging.Boot("deck %s (config %s)", cmd.CommandPath(), cfgPath)
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			logging.BootWarn("config %s not found, using defaults", cfgPath)
		}
		if logging.IsDebugMode() {
			logging.BootDebug("flighty db %s, tripsy db %s", cfg.Flighty.DatabasePath, cfg.Tripsy.DatabasePath)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "Config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&flightyDB, "flighty-db", "", "Flighty database path (overrides config and FLIGHTY_DB)")
	rootCmd.PersistentFlags().StringVar(&tripsyDB, "tripsy-db", "", "Tripsy database path (overrides config and TRIPSY_DB)")

	rootCmd.AddCommand(flightsCmd)
	rootCmd.AddCommand(tripsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(radarCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ec exitCode
		switch {
		case errors.As(err, &ec):
			os.Exit(int(ec))
		case errors.Is(err, errReported):
		default:
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// exitCode ends the process with a specific status and no message.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// loadConfig reads the config file and applies flag overrides.
func loadConfig() error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if flightyDB != "" {
		c.Flighty.DatabasePath = flightyDB
	}
	if tripsyDB != "" {
		c.Tripsy.DatabasePath = tripsyDB
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c
	return nil
}

// commandContext bounds a command by --timeout and cancels on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	if timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

// signalContext cancels on SIGINT/SIGTERM only, for long-running commands.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func openFlighty() (*flighty.Store, error) {
	return flighty.Open(cfg.Flighty.DatabasePath, flighty.WithLocation(cfg.GetFlightyLocation()))
}

func openTripsy() (*tripsy.Store, error) {
	return tripsy.Open(cfg.Tripsy.DatabasePath)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// reportError writes {"error": msg} to w and marks the command failed.
func reportError(w io.Writer, err error) error {
	if logger != nil {
		logger.Debug("command failed", zap.Error(err))
	}
	if perr := printJSON(w, map[string]string{"error": err.Error()}); perr != nil {
		return err
	}
	return errReported
}

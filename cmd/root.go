// =============================================================================
// Revenue XML - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (revxml)
//   ├── daysCmd     (revxml days FILE)
//   ├── generateCmd (revxml generate FILE --outlet X)
//   ├── validateCmd (revxml validate)
//   ├── serveCmd    (revxml serve)
//   └── versionCmd  (revxml version)
//
// CONFIGURATION:
//   Persistent flags can also be set through REVXML_* environment variables,
//   e.g. REVXML_CONFIG=/etc/revxml.yaml or REVXML_LOG_FORMAT=json. Flags
//   given on the command line win over the environment.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/converter"
)

// =============================================================================
// GLOBAL STATE
// =============================================================================

// logger is set up before any subcommand runs.
var logger = slog.Default()

// logFile is the open --log-file, closed after the command finishes.
var logFile *os.File

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "revxml",
	Short: "Revenue XML - Turn monthly revenue workbooks into accounting import files",
	Long: `Revenue XML reads a monthly revenue workbook (XLSX or CSV export) and writes
one accounting import file per day, outlet and payment method:

  - Cash revenue becomes a cash voucher receipt
  - Card, voucher and cashless revenue become receivable invoices

Every file is a self-contained dataPack encoded in Windows-1250.

Example Usage:
  revxml days "Tržby Bistro 6_2025.xlsx"
  revxml generate "Tržby Bistro 6_2025.xlsx" --outlet Bistro --all
  revxml generate tržby.xlsx --outlet CDL --days 1-3,7 --month 6 --year 2025
  revxml validate --init`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.PersistentFlags()

	flags.String("config", "config.yaml", "Path to the settings file")
	flags.BoolP("verbose", "v", false, "Enable debug logging")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("log-file", "", "Append logs to this file as well as stderr")

	viper.SetEnvPrefix("REVXML")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
}

// =============================================================================
// LOGGING
// =============================================================================

// setupLogging builds the process logger from the persistent flags.
func setupLogging() error {
	var w io.Writer = os.Stderr
	if path := viper.GetString("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		w = io.MultiWriter(os.Stderr, f)
	}

	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}

	l, err := newLogger(w, viper.GetString("log-format"), level)
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(l)
	return nil
}

// newLogger returns a text or JSON logger writing to w.
func newLogger(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unknown log format %q (valid: text, json)", format)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the settings file named by --config. A missing file
// falls back to the built-in settings.
func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")

	cfg, err := config.Load(path)
	if errors.Is(err, config.ErrNotFound) {
		logger.Warn("settings file not found, using built-in settings", "path", path)
		return config.Default(), nil
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("settings loaded", "path", path, "outlets", len(cfg.Outlets))
	return cfg, nil
}

// newConverter loads the settings and builds a converter with its catalog.
func newConverter() (*config.Config, *catalog.Catalog, *converter.Converter, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	cat := catalog.New(cfg)
	conv, err := converter.New(cfg, cat, converter.WithLogger(logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, cat, conv, nil
}

// =============================================================================
// Revenue XML - Validate Command
// =============================================================================
//
// This file defines the 'validate' command, which checks the settings file
// without generating anything.
//
// COMMAND USAGE:
//   revxml validate          # Check the settings file
//   revxml validate --init   # Write the built-in settings to --config
//
// =============================================================================

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/revenue-xml/internal/config"
)

var validateInit bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings file",
	Long: `Check the settings file against its schema and cross-field rules.

With --init, the built-in settings are written to the --config path instead.
An existing file is never overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateInit, "init", false, "Write the built-in settings to the --config path")
}

func runValidate(cmd *cobra.Command) error {
	path := viper.GetString("config")
	out := cmd.OutOrStdout()

	if validateInit {
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote built-in settings to %s\n", path)
		return nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Settings %s are valid.\n", path)
	fmt.Fprintf(out, "  Outlets:    %s\n", strings.Join(cfg.OutletNames(), ", "))
	fmt.Fprintf(out, "  Encoding:   %s\n", cfg.Encoding)
	fmt.Fprintf(out, "  Output dir: %s\n", cfg.OutputDir)
	fmt.Fprintf(out, "  Key policy: %s\n", describeKeyPolicy(cfg.KeyPolicy()))
	return nil
}

func describeKeyPolicy(p config.KeyPolicy) string {
	switch p := p.(type) {
	case config.FixedKey:
		return "fixed"
	case config.PerOutletKey:
		return fmt.Sprintf("per outlet (%d outlets)", len(p.Keys))
	case config.HashKey:
		return "derived from day, outlet and document"
	}
	return "unknown"
}

// =============================================================================
// Revenue XML - Generate Command
// =============================================================================
//
// This file defines the 'generate' command, the main command of the tool.
//
// COMMAND USAGE:
//   revxml generate FILE --outlet X (--days LIST | --all | --weekends | --workdays)
//
// FLAGS:
//   --outlet    : Outlet name; defaults to the one suggested by the file name
//   --days      : Day list such as "1,2,5" or "1-3,7"
//   --all       : Every day the workbook lists
//   --weekends  : Saturdays and Sundays the workbook lists
//   --workdays  : Monday to Friday days the workbook lists
//   --month     : Month the days refer to; detected when omitted
//   --year      : Year the days refer to; detected when omitted
//   --out       : Output directory; defaults to output_dir of the settings
//   --summary   : Also write a generation summary file to the output directory
//
// Days are processed in the order given. Interrupting the command (Ctrl+C)
// stops it before the next day; files already written are kept.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/revenue-xml/internal/converter"
	"github.com/ginjaninja78/revenue-xml/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	genOutlet   string
	genDays     string
	genAll      bool
	genWeekends bool
	genWorkdays bool
	genMonth    int
	genYear     int
	genOut      string
	genSummary  bool
)

// =============================================================================
// GENERATE COMMAND DEFINITION
// =============================================================================

var generateCmd = &cobra.Command{
	Use:   "generate FILE",
	Short: "Generate accounting import files for selected days",
	Long: `Generate one accounting import file per day and payment method with revenue.

Cash revenue is written as a cash voucher receipt
("Pokladna D.M.YYYY - OUTLET - ID.xml"); card, voucher and cashless revenue as
receivable invoices ("OstatniPohledavky D.M.YYYY - LABEL - OUTLET - ID.xml").

A day that fails (missing row, rejected amounts) is reported and skipped;
the remaining days are still generated. The command exits with an error
when any day failed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenerate(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)

	f := generateCmd.Flags()
	f.StringVar(&genOutlet, "outlet", "", "Outlet name (default: suggested from the file name)")
	f.StringVar(&genDays, "days", "", `Days to generate, e.g. "1,2,5" or "1-3,7"`)
	f.BoolVar(&genAll, "all", false, "Generate every day the workbook lists")
	f.BoolVar(&genWeekends, "weekends", false, "Generate Saturdays and Sundays only")
	f.BoolVar(&genWorkdays, "workdays", false, "Generate Monday to Friday only")
	f.IntVar(&genMonth, "month", 0, "Month (1-12); detected when omitted")
	f.IntVar(&genYear, "year", 0, "Year; detected when omitted")
	f.StringVar(&genOut, "out", "", "Output directory (default: output_dir from the settings)")
	f.BoolVar(&genSummary, "summary", false, "Write a generation summary file to the output directory")

	generateCmd.MarkFlagsMutuallyExclusive("days", "all", "weekends", "workdays")
	generateCmd.MarkFlagsOneRequired("days", "all", "weekends", "workdays")
}

// =============================================================================
// MAIN GENERATION FUNCTION
// =============================================================================

func runGenerate(cmd *cobra.Command, file string) error {
	if genMonth < 0 || genMonth > 12 {
		return fmt.Errorf("invalid month %d", genMonth)
	}

	cfg, _, conv, err := newConverter()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: RESOLVE THE PERIOD, OUTLET AND DAYS
	// =========================================================================

	p, err := conv.ListDays(file, genMonth, genYear)
	if err != nil {
		return err
	}
	if p.Month == 0 {
		return errors.New("could not detect the period of the workbook; pass --month and --year")
	}

	outlet := genOutlet
	if outlet == "" {
		if p.SuggestedOutlet == "" {
			return errors.New("no outlet given and none can be suggested from the file name; pass --outlet")
		}
		outlet = p.SuggestedOutlet
		logger.Info("using outlet suggested by the file name", "outlet", outlet)
	}

	days, err := selectDays(p)
	if err != nil {
		return err
	}
	if len(days) == 0 {
		return fmt.Errorf("no days selected in %d/%d", p.Month, p.Year)
	}

	outDir := genOut
	if outDir == "" {
		outDir = cfg.OutputDir
	}

	// =========================================================================
	// STEP 2: GENERATE
	// =========================================================================

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result := conv.GenerateDays(ctx, file, outlet, p.Month, p.Year, days, outDir)
	if result.Err != nil {
		return result.Err
	}

	// =========================================================================
	// STEP 3: REPORT
	// =========================================================================

	out := cmd.OutOrStdout()
	for _, d := range result.Days {
		date := d.Day.Format("02.01.2006")
		for _, o := range d.Outputs {
			fmt.Fprintf(out, "  ✓ %s %-8s %s\n", date, o.Method, filepath.Base(o.Path))
		}
		switch {
		case d.Err != nil:
			fmt.Fprintf(out, "  ✗ %s %v\n", date, d.Err)
		case len(d.Outputs) == 0:
			fmt.Fprintf(out, "  - %s no revenue\n", date)
		}
	}

	fmt.Fprintln(out, "\n=== Generation Complete ===")
	fmt.Fprintln(out, result.Summary())

	if genSummary {
		path, err := utils.WriteSummaryLog(result.ProcessingSummary(), outDir)
		if err != nil {
			logger.Error("failed to write the summary file", "error", err)
		} else {
			fmt.Fprintf(out, "Summary: %s\n", path)
		}
	}

	if result.Failed() > 0 || result.Cancelled {
		return errors.New(result.Summary())
	}
	return nil
}

// selectDays applies the day selection flags to the period.
func selectDays(p *converter.Period) ([]int, error) {
	switch {
	case genDays != "":
		return converter.ParseDayList(genDays)
	case genWeekends:
		return p.Select(converter.SelectWeekends), nil
	case genWorkdays:
		return p.Select(converter.SelectWorkdays), nil
	}
	return p.Select(converter.SelectAll), nil
}

// =============================================================================
// Revenue XML - Days Command
// =============================================================================
//
// This file defines the 'days' command, which lists the days a workbook
// covers so that a caller can pick which ones to generate.
//
// COMMAND USAGE:
//   revxml days FILE [--month M --year YYYY]
//
// OUTPUT:
//   File:    Tržby Bistro 6_2025.xlsx
//   Sheet:   Přehled tržeb
//   Period:  6/2025
//   Outlet:  Bistro (suggested from the file name)
//   Days:    1 2 3 4 5 6 7 ...
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var (
	daysMonth int
	daysYear  int
)

var daysCmd = &cobra.Command{
	Use:   "days FILE",
	Short: "List the days available in a revenue workbook",
	Long: `List the days available in a revenue workbook.

When --month is omitted the period is detected from the day labels and the
file name. Only days that exist in the calendar month are listed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDays(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(daysCmd)

	daysCmd.Flags().IntVar(&daysMonth, "month", 0, "Month (1-12); detected when omitted")
	daysCmd.Flags().IntVar(&daysYear, "year", 0, "Year; detected when omitted")
}

func runDays(cmd *cobra.Command, file string) error {
	if daysMonth < 0 || daysMonth > 12 {
		return fmt.Errorf("invalid month %d", daysMonth)
	}

	_, _, conv, err := newConverter()
	if err != nil {
		return err
	}

	p, err := conv.ListDays(file, daysMonth, daysYear)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File:    %s\n", filepath.Base(file))
	fmt.Fprintf(out, "Sheet:   %s\n", p.Sheet)
	if p.Month == 0 {
		fmt.Fprintln(out, "Period:  unknown (pass --month and --year)")
		return nil
	}
	fmt.Fprintf(out, "Period:  %d/%d\n", p.Month, p.Year)
	if p.SuggestedOutlet != "" {
		fmt.Fprintf(out, "Outlet:  %s (suggested from the file name)\n", p.SuggestedOutlet)
	}

	if len(p.Days) == 0 {
		fmt.Fprintln(out, "Days:    none")
		return nil
	}
	days := make([]string, len(p.Days))
	for i, d := range p.Days {
		days[i] = strconv.Itoa(d)
	}
	fmt.Fprintf(out, "Days:    %s\n", strings.Join(days, " "))
	return nil
}

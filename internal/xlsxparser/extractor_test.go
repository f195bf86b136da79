package xlsxparser

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/types"
)

var cashHeaders = []any{
	"Den",
	"Základ 21% (Hotově)", "DPH 21% (Hotově)",
	"Základ 12% (Hotově)", "DPH 12% (Hotově)",
	"Základ 0% (Hotově)", "DPH 0% (Hotově)",
	"Základ 21% (Kartou)", "DPH 21% (Kartou)", "Tržby s DPH 21% (Kartou)",
	"Základ 21% (Faktura)",
}

// writeWorkbook saves a workbook with a decoy first sheet and the revenue
// overview as the second sheet.
func writeWorkbook(t *testing.T, name string, rows ...[]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Souhrn"); err != nil {
		t.Fatal(err)
	}
	if err := f.SetCellValue("Souhrn", "A1", "nothing here"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Přehled tržeb"); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Přehled tržeb", cell, &r); err != nil {
			t.Fatal(err)
		}
	}

	path := filepath.Join(t.TempDir(), name)
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func openSheet(t *testing.T, cfg *config.Config, path string) *Sheet {
	t.Helper()
	wb, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { wb.Close() })

	sheet, err := wb.Sheet()
	if err != nil {
		t.Fatalf("Sheet: %v", err)
	}
	return sheet
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPickSheetPrefersRevenueOverview(t *testing.T) {
	path := writeWorkbook(t, "Bistro 6_2025.xlsx", cashHeaders, []any{"1.6.", 1})

	wb, err := Open(path, config.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer wb.Close()

	if got := wb.PickSheet(); got != "Přehled tržeb" {
		t.Errorf("PickSheet() = %q, want %q", got, "Přehled tržeb")
	}
}

func TestReadDayCash(t *testing.T) {
	path := writeWorkbook(t, "Bistro 6_2025.xlsx",
		cashHeaders,
		[]any{"2.6.", 1, 1, 1, 1, 1, 1},
		[]any{"3.6.", 100, 21, 50, 6, 10, 0, "1 000,00 Kč", "210,00", "1 210,00", 999},
	)
	cfg := config.Default()
	x := NewExtractor(cfg, openSheet(t, cfg, path))

	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)
	amounts, report, err := x.ReadDay(day)
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}

	cash := amounts[types.Cash]
	checks := []struct {
		tier             types.Tier
		base, vat, gross string
	}{
		{types.High, "100", "21", "121"},
		{types.Low, "50", "6", "56"},
		{types.None, "10", "0", "10"},
	}
	for _, c := range checks {
		got := cash[c.tier]
		if !got.Base.Equal(dec(c.base)) || !got.VAT.Equal(dec(c.vat)) || !got.Gross.Equal(dec(c.gross)) {
			t.Errorf("cash %s = %v/%v/%v, want %s/%s/%s", c.tier, got.Base, got.VAT, got.Gross, c.base, c.vat, c.gross)
		}
		if got.GrossPresent {
			t.Errorf("cash %s gross should be derived", c.tier)
		}
	}

	card := amounts[types.Card][types.High]
	if !card.Base.Equal(dec("1000")) || !card.VAT.Equal(dec("210")) || !card.Gross.Equal(dec("1210")) || !card.GrossPresent {
		t.Errorf("card high = %+v", card)
	}

	if !amounts[types.Voucher].IsZero() {
		t.Error("voucher columns are absent and must read as zero")
	}

	if report.Clean() || len(report.Unparseable) != 0 {
		t.Errorf("report should list missing columns only: %+v", report)
	}
	if _, ok := x.Column(types.ColumnKey{Method: types.Cash, Tier: types.High, Field: types.Gross}); ok {
		t.Error("cash gross_high has no header and must not resolve")
	}
}

func TestReadDayMissingRow(t *testing.T) {
	path := writeWorkbook(t, "m.xlsx", cashHeaders, []any{"1.6.", 1})
	cfg := config.Default()
	x := NewExtractor(cfg, openSheet(t, cfg, path))

	_, _, err := x.ReadDay(time.Date(2025, time.June, 9, 0, 0, 0, 0, time.Local))

	var missing *MissingDateRowError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingDateRowError, got %v", err)
	}
	if missing.Day.Day() != 9 {
		t.Errorf("error day = %v", missing.Day)
	}
}

func TestFindDayRowAcceptedForms(t *testing.T) {
	sheet := &Sheet{
		Headers: []string{"Den"},
		Rows:    [][]string{{"Celkem"}, {"03.06."}, {"4.6"}, {"5.6."}, {"45814"}},
	}
	tests := []struct {
		day  int
		want int
	}{
		{3, 1},
		{4, 2},
		{5, 3},
		{6, 4}, // serial 45814 is 2025-06-06
	}
	for _, tt := range tests {
		got, err := sheet.FindDayRow(time.Date(2025, time.June, tt.day, 0, 0, 0, 0, time.UTC))
		if err != nil || got != tt.want {
			t.Errorf("FindDayRow(%d) = %d, %v; want %d", tt.day, got, err, tt.want)
		}
	}
}

func TestReadDayUnparseable(t *testing.T) {
	path := writeWorkbook(t, "u.xlsx", cashHeaders, []any{"3.6.", "n/a", 21})
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)

	t.Run("lenient", func(t *testing.T) {
		cfg := config.Default()
		amounts, report, err := NewExtractor(cfg, openSheet(t, cfg, path)).ReadDay(day)
		if err != nil {
			t.Fatalf("ReadDay: %v", err)
		}
		if !amounts[types.Cash][types.High].Base.IsZero() {
			t.Error("unparseable base should contribute zero")
		}
		if len(report.Unparseable) != 1 || report.Unparseable[0].Text != "n/a" {
			t.Errorf("report.Unparseable = %+v", report.Unparseable)
		}
	})

	t.Run("strict", func(t *testing.T) {
		data := bytes.Replace(config.DefaultYAML, []byte("strict: false"), []byte("strict: true"), 1)
		cfg, err := config.Parse(data)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		_, _, err = NewExtractor(cfg, openSheet(t, cfg, path)).ReadDay(day)
		var unparseable *UnparseableNumberError
		if !errors.As(err, &unparseable) {
			t.Fatalf("expected *UnparseableNumberError, got %v", err)
		}
		if unparseable.Header != "Základ 21% (Hotově)" {
			t.Errorf("header = %q", unparseable.Header)
		}
	})
}

func TestIgnoredHeadersAreSkipped(t *testing.T) {
	sheet := &Sheet{
		Headers: []string{"Den", "Základ 21% (Faktura)", "Základ 21% (Hotově)"},
		Rows:    [][]string{{"1.6.", "500", "100"}},
	}
	yaml := `
header_map:
  sections:
    cash:
      base_high: 'Základ 21% \(.*\)'
  ignore_patterns: ['\(Faktura\)']
outlets:
  Bistro:
    centre: "3"
    accounts:
      inv: {high: a, low: b, none: c}
      vch: {high: a, low: b, none: c}
    item_texts: {}
`
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	x := NewExtractor(cfg, sheet)
	amounts, _, err := x.ReadDay(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if got := amounts[types.Cash][types.High].Base; !got.Equal(dec("100")) {
		t.Errorf("base_high = %v, want 100 from the cash column", got)
	}
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Restaurace 6_2025.csv")
	content := "Den;Základ 21% (Hotově);DPH 21% (Hotově)\n1.6.;100;21\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	sheet := openSheet(t, cfg, path)
	if sheet.Name != "Restaurace 6_2025" {
		t.Errorf("sheet name = %q", sheet.Name)
	}
	amounts, _, err := NewExtractor(cfg, sheet).ReadDay(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ReadDay: %v", err)
	}
	if !amounts[types.Cash][types.High].Gross.Equal(dec("121")) {
		t.Errorf("gross = %v", amounts[types.Cash][types.High].Gross)
	}
}

func TestOpenErrors(t *testing.T) {
	cfg := config.Default()

	if _, err := Open("report.ods", cfg); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	path := writeWorkbook(t, "empty.xlsx", cashHeaders)
	wb, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer wb.Close()
	if _, err := wb.Sheet(); !errors.Is(err, ErrEmptySheet) {
		t.Errorf("expected ErrEmptySheet, got %v", err)
	}
}

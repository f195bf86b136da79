package xlsxparser

import (
	"fmt"
	"time"

	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// =============================================================================
// ERRORS
// =============================================================================

// MissingDateRowError is returned when the requested day has no row. It
// aborts that day only.
type MissingDateRowError struct {
	Day time.Time
}

func (e *MissingDateRowError) Error() string {
	return fmt.Sprintf("day %s not found in sheet", e.Day.Format("2006-01-02"))
}

// UnparseableNumberError is returned in strict mode for cell text that is
// not a number.
type UnparseableNumberError struct {
	Day    time.Time
	Header string
	Text   string
}

func (e *UnparseableNumberError) Error() string {
	return fmt.Sprintf("day %s, column %q: cannot parse %q as a number", e.Day.Format("2006-01-02"), e.Header, e.Text)
}

// =============================================================================
// REPORT
// =============================================================================

// CellIssue describes a cell that did not yield a number.
type CellIssue struct {
	Key    types.ColumnKey
	Header string
	Text   string
}

// Report lists what was lenient about one ReadDay call.
type Report struct {
	Day time.Time

	// Missing holds the pattern-table columns with no matching header.
	// They contribute zero.
	Missing []types.ColumnKey

	// Unparseable holds cells whose text could not be read as a number.
	// In lenient mode they contribute zero.
	Unparseable []CellIssue
}

// Clean reports whether nothing was defaulted.
func (r *Report) Clean() bool {
	return len(r.Missing) == 0 && len(r.Unparseable) == 0
}

// =============================================================================
// EXTRACTOR
// =============================================================================

// Extractor reads per-day amounts from one worksheet.
//
// Column discovery runs once in NewExtractor; ReadDay only looks cells up.
type Extractor struct {
	cfg     *config.Config
	sheet   *Sheet
	columns map[types.ColumnKey]int
	missing []types.ColumnKey
}

// NewExtractor resolves the pattern table against the sheet headers.
//
// For each (method, tier, field) the first header, in column order, that is
// not ignored and fully matches the declared pattern wins.
func NewExtractor(cfg *config.Config, sheet *Sheet) *Extractor {
	x := &Extractor{
		cfg:     cfg,
		sheet:   sheet,
		columns: make(map[types.ColumnKey]int),
	}

	for _, method := range types.Methods {
		for _, tier := range types.Tiers {
			for _, field := range types.Fields {
				key := types.ColumnKey{Method: method, Tier: tier, Field: field}
				re := cfg.Pattern(key)
				if re == nil {
					continue
				}
				col := -1
				for i, header := range sheet.Headers {
					if header == "" || cfg.Ignored(header) {
						continue
					}
					if re.MatchString(header) {
						col = i
						break
					}
				}
				if col < 0 {
					x.missing = append(x.missing, key)
					continue
				}
				x.columns[key] = col
			}
		}
	}

	return x
}

// Sheet returns the worksheet the extractor reads.
func (x *Extractor) Sheet() *Sheet {
	return x.sheet
}

// Column returns the column index discovered for key.
func (x *Extractor) Column(key types.ColumnKey) (int, bool) {
	col, ok := x.columns[key]
	return col, ok
}

// ReadDay extracts the amounts of one calendar day.
//
// PARAMETERS:
//   - day: The target day.
//
// RETURNS:
//   - The amounts of every method present in the pattern table.
//   - A report of missing columns and unparseable cells.
//   - *MissingDateRowError when the day has no row, or
//     *UnparseableNumberError in strict mode.
func (x *Extractor) ReadDay(day time.Time) (types.DayAmounts, *Report, error) {
	row, err := x.sheet.FindDayRow(day)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{Day: day, Missing: x.missing}
	tokens := x.cfg.Extraction.CurrencyTokens

	read := func(key types.ColumnKey) (types.Amount, error) {
		col, ok := x.columns[key]
		if !ok {
			return types.Amount{}, nil
		}
		text := x.sheet.Cell(row, col)
		amount := NormalizeNumber(text, tokens)
		if !amount.Present && amount.Raw != "" {
			if x.cfg.Extraction.Strict {
				return amount, &UnparseableNumberError{Day: day, Header: x.sheet.Headers[col], Text: text}
			}
			report.Unparseable = append(report.Unparseable, CellIssue{Key: key, Header: x.sheet.Headers[col], Text: text})
		}
		return amount, nil
	}

	amounts := make(types.DayAmounts, len(types.Methods))
	for _, method := range types.Methods {
		var m types.MethodAmounts
		for _, tier := range types.Tiers {
			var vals [3]types.Amount
			for i, field := range types.Fields {
				a, err := read(types.ColumnKey{Method: method, Tier: tier, Field: field})
				if err != nil {
					return nil, report, err
				}
				vals[i] = a
			}
			m[tier] = types.NewTriple(vals[0], vals[1], vals[2])
		}
		amounts[method] = m
	}

	return amounts, report, nil
}

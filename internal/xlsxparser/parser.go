// =============================================================================
// Revenue XML - Workbook Reader
// =============================================================================
//
// This module opens the monthly revenue overview and exposes the selected
// worksheet as a plain grid of strings.
//
// WORKBOOK STRUCTURE (Expected Layout):
//
//   | Column A | Column B             | Column C          | ... |
//   |----------|----------------------|-------------------|-----|
//   | Den      | Základ 21% (Hotově)  | DPH 21% (Hotově)  | ... |
//   | 1.6.     | 100                  | 21                | ... |
//   | 2.6.     | 80,50                | 16,91             | ... |
//
//   - Row 1 holds the column headers.
//   - Column A holds the day label of each row.
//   - Remaining columns are matched against the header pattern table; their
//     position does not matter.
//
// SUPPORTED FORMATS:
//   - .xlsx / .xlsm through excelize
//   - .csv through the csvparser package (one sheet named after the file)
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/csvparser"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnsupportedFormat is returned for file extensions other than
	// .xlsx, .xlsm and .csv.
	ErrUnsupportedFormat = errors.New("unsupported input format")

	// ErrEmptySheet is returned when the selected worksheet has no data rows.
	// It is fatal for the whole file.
	ErrEmptySheet = errors.New("selected worksheet has no rows")
)

// =============================================================================
// SHEET STRUCTURE
// =============================================================================

// Sheet is one worksheet as a grid of cell text.
type Sheet struct {
	// Name is the worksheet name.
	Name string

	// Headers holds the trimmed cells of the first row.
	Headers []string

	// Rows holds the data rows below the header row. Rows may be shorter
	// than Headers; missing cells read as "".
	Rows [][]string
}

// Cell returns the trimmed text of a data cell, or "" when out of range.
func (s *Sheet) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(s.Rows[row][col])
}

// =============================================================================
// WORKBOOK
// =============================================================================

// Workbook is an opened input file.
type Workbook struct {
	path     string
	cfg      *config.Config
	file     *excelize.File
	csv      *csvparser.CSVData
	sheets   []string
	selected string
}

// Open opens a revenue overview.
//
// PARAMETERS:
//   - path: The .xlsx, .xlsm or .csv file.
//   - cfg: The loaded settings (sheet keywords, CSV settings).
//
// RETURNS:
//   - The opened workbook; call Close when done.
//   - ErrUnsupportedFormat (wrapped) for other extensions, or an open error.
func Open(path string, cfg *config.Config) (*Workbook, error) {
	wb := &Workbook{path: path, cfg: cfg}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		wb.file = f
		wb.sheets = f.GetSheetList()
		if len(wb.sheets) == 0 {
			f.Close()
			return nil, fmt.Errorf("workbook %s: %w", filepath.Base(path), ErrEmptySheet)
		}

	case ".csv":
		data, err := csvparser.Parse(path, cfg.CSV)
		if err != nil {
			if errors.Is(err, csvparser.ErrEmpty) {
				return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmptySheet)
			}
			return nil, err
		}
		wb.csv = data
		wb.sheets = []string{strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	wb.selected = wb.PickSheet()
	return wb, nil
}

// Close releases the underlying workbook.
func (w *Workbook) Close() error {
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

// Path returns the file the workbook was opened from.
func (w *Workbook) Path() string {
	return w.path
}

// SheetNames returns the worksheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	return w.sheets
}

// PickSheet returns the first worksheet whose accent-folded, lower-cased
// name contains an "overview" keyword and a "revenue" keyword, falling back
// to the first worksheet.
func (w *Workbook) PickSheet() string {
	overview := foldAll(w.cfg.SheetSelection.OverviewKeywords)
	revenue := foldAll(w.cfg.SheetSelection.RevenueKeywords)

	for _, name := range w.sheets {
		folded := foldAccents(strings.ToLower(name))
		if containsAny(folded, overview) && containsAny(folded, revenue) {
			return name
		}
	}
	return w.sheets[0]
}

// Sheet reads the selected worksheet.
//
// RETURNS:
//   - The worksheet grid.
//   - ErrEmptySheet (wrapped) when there is no row below the header.
func (w *Workbook) Sheet() (*Sheet, error) {
	var rows [][]string

	if w.csv != nil {
		rows = append([][]string{w.csv.Headers}, w.csv.Rows...)
	} else {
		// Raw values keep amounts free of display formatting such as
		// currency suffixes or grouped thousands.
		var err error
		rows, err = w.file.GetRows(w.selected, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", w.selected, err)
		}
	}

	sheet := &Sheet{Name: w.selected}
	if len(rows) > 0 {
		sheet.Headers = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			sheet.Headers[i] = strings.TrimSpace(h)
		}
	}
	for _, row := range rows[min(1, len(rows)):] {
		if !isRowEmpty(row) {
			sheet.Rows = append(sheet.Rows, row)
		}
	}

	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("sheet %q: %w", w.selected, ErrEmptySheet)
	}
	return sheet, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// foldAccents strips combining marks after canonical decomposition, so
// "Přehled tržeb" folds to "Prehled trzeb". Transformers carry state, so a
// fresh chain is built per call.
func foldAccents(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(folder, s)
	if err != nil {
		return s
	}
	return out
}

func foldAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = foldAccents(strings.ToLower(strings.TrimSpace(k))); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

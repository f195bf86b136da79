// =============================================================================
// Revenue XML - CSV Parser Module
// =============================================================================
//
// This module reads revenue overviews exported as CSV instead of a workbook.
// Czech point-of-sale systems commonly export with a semicolon delimiter and
// in Windows-1250, so both are configurable.
//
// FEATURES:
//   - Configurable delimiter (";" by default, "tab" and "pipe" accepted)
//   - Input decoding through golang.org/x/text (UTF-8 with or without BOM,
//     Windows-1250, ISO-8859-2)
//   - Positional rows: the extractor addresses cells by column index, so
//     rows are kept as slices rather than header maps
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/revenue-xml/internal/config"
)

// ErrEmpty is returned when the file holds no records at all.
var ErrEmpty = errors.New("CSV file is empty")

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// CSVData represents the parsed CSV file.
type CSVData struct {
	// Headers contains the trimmed first record.
	Headers []string

	// Rows contains the non-empty data records with trimmed cells.
	Rows [][]string

	// SourceFile is the path to the source CSV file.
	SourceFile string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a CSV file and returns the parsed data.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding from the settings document.
//
// RETURNS:
//   - A pointer to the CSVData struct containing the parsed data.
//   - ErrEmpty when the file has no records, or a wrapped read error.
func Parse(filePath string, settings config.CSVSettings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := ParseReader(file, settings)
	if err != nil {
		return nil, err
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader parses CSV records from r.
func ParseReader(r io.Reader, settings config.CSVSettings) (*CSVData, error) {
	enc, err := config.EncodingByName(settings.Encoding)
	if err != nil {
		return nil, err
	}

	// A leading byte-order mark wins over the configured encoding.
	decoded := transform.NewReader(bufio.NewReader(r), unicode.BOMOverride(enc.NewDecoder()))

	csvReader := csv.NewReader(decoded)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, ErrEmpty
	}

	data := &CSVData{
		Headers: cleanHeaders(allRows[0]),
	}
	for _, row := range allRows[1:] {
		if isRowEmpty(row) {
			continue
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(cell)
		}
		data.Rows = append(data.Rows, cells)
	}

	return data, nil
}

// configureReader applies the delimiter and leniency settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ",", "comma":
		reader.Comma = ','
	default:
		if settings.Delimiter != "" {
			reader.Comma = []rune(settings.Delimiter)[0]
		} else {
			reader.Comma = ';'
		}
	}

	// Exports pad short rows inconsistently.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims header values. Empty headers stay empty so that they
// can never match a column pattern.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		cleaned[i] = strings.TrimSpace(strings.TrimPrefix(header, "\uFEFF"))
	}
	return cleaned
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// Revenue XML - Converter Module
// =============================================================================
//
// This module contains the generation pipeline. It orchestrates one run, from
// opening the revenue workbook to writing the encoded documents.
//
// GENERATION PIPELINE (per requested day):
//   1. Read the day's amounts from the worksheet
//   2. Resolve the outlet profile, numbers and texts through the catalog
//   3. Synthesize one document per payment method with revenue
//   4. Validate every document
//   5. Wrap each document in its envelope and encode it
//   6. Write one file per document
//
// ISOLATION:
//   Days are processed sequentially in the order given. A failing day is
//   logged and recorded; later days still run. Files already written stay on
//   disk. Cancellation of the context is honored between days.
//
// =============================================================================

package converter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/document"
	"github.com/ginjaninja78/revenue-xml/internal/envelope"
	"github.com/ginjaninja78/revenue-xml/internal/naming"
	"github.com/ginjaninja78/revenue-xml/internal/types"
	"github.com/ginjaninja78/revenue-xml/internal/validation"
	"github.com/ginjaninja78/revenue-xml/internal/xlsxparser"
	"github.com/ginjaninja78/revenue-xml/internal/xmlwriter"
	"github.com/ginjaninja78/revenue-xml/pkg/utils"
)

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs generations against one configuration. It holds no
// per-run state besides the file token allocator, so one Converter can serve
// many sequential runs.
type Converter struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	validator *validation.Validator
	alloc     *naming.Allocator
	xmlOpts   xmlwriter.Options
	logger    *slog.Logger
	now       func() time.Time
}

// Option customizes a Converter.
type Option func(*Converter)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the clock used for document numbers, file tokens and period
// detection. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Converter) {
		if now != nil {
			c.now = now
		}
	}
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a Converter.
//
// PARAMETERS:
//   - cfg: The loaded configuration.
//   - cat: The outlet catalog built from cfg.
//   - opts: Optional settings.
//
// RETURNS:
//   - A new Converter, or an error when the output encoding is unknown.
func New(cfg *config.Config, cat *catalog.Catalog, opts ...Option) (*Converter, error) {
	enc, err := config.EncodingByName(cfg.Encoding)
	if err != nil {
		return nil, fmt.Errorf("output encoding: %w", err)
	}

	c := &Converter{
		cfg:       cfg,
		catalog:   cat,
		validator: validation.NewValidator(cfg.Extraction),
		xmlOpts: xmlwriter.Options{
			Indent:           "  ",
			Encoding:         enc,
			DeclaredEncoding: config.DeclaredEncoding(cfg.Encoding),
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.alloc = naming.NewAllocator(c.now)
	return c, nil
}

// =============================================================================
// DAY LISTING
// =============================================================================

// Period describes what a workbook covers.
type Period struct {
	Month int
	Year  int

	// Days are the day numbers with a row in the selected sheet.
	Days []int

	// Sheet is the selected worksheet.
	Sheet string

	// SuggestedOutlet is guessed from the file name; "" when unknown.
	SuggestedOutlet string
}

// ListDays reports the days available in a workbook.
//
// PARAMETERS:
//   - file: The workbook or CSV export.
//   - month, year: The period to list. When month is 0 the period is
//     detected from the sheet and the file name.
//
// RETURNS:
//   - The period and its days. Days is empty when no period can be detected.
//   - An error when the file cannot be opened or the sheet is empty.
func (c *Converter) ListDays(file string, month, year int) (*Period, error) {
	wb, sheet, err := c.open(file)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	if month == 0 {
		var ok bool
		month, year, ok = sheet.DetectPeriod(filepath.Base(file), c.now())
		if !ok {
			c.logger.Warn("could not detect the period of the workbook", "file", file)
		}
	}
	if year == 0 {
		year = c.now().Year()
		if _, y, ok := xlsxparser.PeriodFromFileName(file); ok {
			year = y
		}
	}

	p := &Period{
		Month:           month,
		Year:            year,
		Sheet:           sheet.Name,
		SuggestedOutlet: c.catalog.SuggestOutlet(filepath.Base(file)),
	}
	if month >= 1 && month <= 12 {
		p.Days = sheet.AvailableDays(month, year)
	}
	return p, nil
}

// =============================================================================
// GENERATION
// =============================================================================

// Generate produces the documents of a single day.
//
// RETURNS:
//   - The files written, possibly fewer than the documents synthesized when a
//     write fails midway.
//   - The day's error, if any.
func (c *Converter) Generate(ctx context.Context, file, outlet string, day time.Time, outDir string) ([]Output, error) {
	result := c.GenerateDays(ctx, file, outlet, int(day.Month()), day.Year(), []int{day.Day()}, outDir)
	if result.Err != nil {
		return nil, result.Err
	}
	if len(result.Days) == 0 {
		return nil, ctx.Err()
	}
	return result.Days[0].Outputs, result.Days[0].Err
}

// GenerateDays produces the documents of several days of one month.
//
// PARAMETERS:
//   - ctx: Checked between days; a cancelled run stops before the next day.
//   - file: The workbook or CSV export.
//   - outlet: The outlet name.
//   - month, year: The period the day numbers refer to.
//   - days: Day numbers, processed in the given order.
//   - outDir: Target directory; "" uses the configured output_dir.
//
// RETURNS:
//   - The run result. File-level failures (invalid period, unreadable
//     workbook, unknown outlet) are reported in RunResult.Err with no days
//     processed.
func (c *Converter) GenerateDays(ctx context.Context, file, outlet string, month, year int, days []int, outDir string) *RunResult {
	result := &RunResult{
		File:      file,
		Outlet:    outlet,
		Requested: len(days),
		Started:   c.now(),
	}
	defer func() { result.Finished = c.now() }()

	log := c.logger.With("file", filepath.Base(file), "outlet", outlet)

	if month < 1 || month > 12 || year < 1 {
		result.Err = fmt.Errorf("invalid period %d/%d", month, year)
		log.Error("generation aborted", "error", result.Err)
		return result
	}

	profile, err := c.catalog.Outlet(outlet)
	if err != nil {
		result.Err = err
		log.Error("generation aborted", "error", err)
		return result
	}

	if outDir == "" {
		outDir = c.cfg.OutputDir
	}
	fm := utils.NewFileManager(outDir)
	if err := fm.EnsureDirectories(); err != nil {
		result.Err = err
		log.Error("generation aborted", "error", err)
		return result
	}

	wb, sheet, err := c.open(file)
	if err != nil {
		result.Err = err
		log.Error("generation aborted", "error", err)
		return result
	}
	defer wb.Close()

	extractor := xlsxparser.NewExtractor(c.cfg, sheet)
	log.Debug("workbook opened", "sheet", sheet.Name, "rows", len(sheet.Rows))

	for _, d := range days {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			log.Warn("generation cancelled", "remaining_days", len(days)-len(result.Days))
			break
		}

		day := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.Local)
		dr := DayResult{Day: day}

		if day.Day() != d || int(day.Month()) != month {
			dr.Err = fmt.Errorf("day %d does not exist in %d/%d", d, month, year)
		} else {
			dr.Outputs, dr.Err = c.generateDay(extractor, profile, day, fm)
		}

		if dr.Err != nil {
			log.Error("day failed", "day", day.Format("2006-01-02"), "files_written", len(dr.Outputs), "error", dr.Err)
		} else {
			log.Info("day generated", "day", day.Format("2006-01-02"), "files", len(dr.Outputs))
		}
		result.Days = append(result.Days, dr)
	}

	log.Info(result.Summary(), "status", string(result.Status()))
	return result
}

// rendered is an encoded document waiting to be written.
type rendered struct {
	method types.Method
	number string
	label  string
	data   []byte
}

// generateDay runs the pipeline for one day. All documents are synthesized,
// validated and encoded before the first file is written, so a day that
// fails validation leaves no files behind.
func (c *Converter) generateDay(x *xlsxparser.Extractor, profile catalog.OutletProfile, day time.Time, fm *utils.FileManager) ([]Output, error) {
	log := c.logger.With("outlet", profile.Name, "day", day.Format("2006-01-02"))

	amounts, report, err := x.ReadDay(day)
	if err != nil {
		return nil, err
	}
	c.logReport(log, report)

	now := c.now()

	var pending []rendered
	for _, method := range types.Methods {
		doc, ok := document.Synthesize(c.input(profile, method, amounts[method], day, now))
		if !ok {
			log.Debug("no revenue, document skipped", "method", string(method))
			continue
		}

		check := c.validator.Validate(doc)
		for _, w := range check.Warnings() {
			log.Warn("validation warning", "method", string(method), "detail", w.Error())
		}
		if !check.IsValid {
			log.Debug(validation.FormatErrors(check.Errors))
			return nil, fmt.Errorf("%s document: %w", method, check.Err())
		}

		var note *string
		if method.IsInvoice() {
			n := c.catalog.InvoiceNote(day, method)
			note = &n
		}
		env := envelope.Build(c.cfg, c.catalog, day, profile.Name, doc, note)

		data, err := env.Marshal(c.xmlOpts)
		if err != nil {
			return nil, fmt.Errorf("%s document: %w", method, err)
		}

		r := rendered{method: method, number: doc.Header.Number, data: data}
		if method.IsInvoice() {
			r.label = c.catalog.MethodLabel(method)
		}
		pending = append(pending, r)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	// One token per day with output; documents of the day differ by template
	// and method label.
	token := c.alloc.Token()

	var outputs []Output
	for _, r := range pending {
		name := naming.FileName(naming.Template(c.cfg.Naming, r.method), day, profile.Name, r.label, token)
		path, err := fm.WriteOutput(name, r.data)
		if err != nil {
			return outputs, fmt.Errorf("%s document: %w", r.method, err)
		}
		log.Info("document written", "method", string(r.method), "number", r.number, "path", path)
		outputs = append(outputs, Output{Day: day, Method: r.method, Number: r.number, Path: path})
	}
	return outputs, nil
}

// input resolves everything the synthesizer needs for one method.
func (c *Converter) input(p catalog.OutletProfile, method types.Method, amounts types.MethodAmounts, day, now time.Time) document.Input {
	in := document.Input{
		Day:        day,
		Method:     method,
		Amounts:    amounts,
		Profile:    p,
		Number:     c.catalog.DocumentNumber(p, method, day, now),
		HeaderText: c.catalog.HeaderText(p, method),
		Identity:   c.cfg.CompanyIdentity,
		Bank:       c.cfg.Bank,
		Payment:    c.cfg.PaymentIDs[string(method)],
		Labels:     c.cfg.Labels,
	}
	for _, tier := range types.Tiers {
		in.ItemTexts[tier] = c.catalog.ItemText(p, method, tier)
	}
	return in
}

func (c *Converter) logReport(log *slog.Logger, report *xlsxparser.Report) {
	if report == nil || report.Clean() {
		return
	}
	if len(report.Missing) > 0 {
		missing := make([]string, len(report.Missing))
		for i, k := range report.Missing {
			missing[i] = string(k.Method) + "." + k.String()
		}
		log.Debug("columns not found, read as zero", "columns", missing)
	}
	for _, issue := range report.Unparseable {
		log.Warn("cell is not a number, read as zero", "column", issue.Header, "text", issue.Text)
	}
}

// open opens the workbook and reads its selected sheet.
func (c *Converter) open(file string) (*xlsxparser.Workbook, *xlsxparser.Sheet, error) {
	wb, err := xlsxparser.Open(file, c.cfg)
	if err != nil {
		return nil, nil, err
	}
	sheet, err := wb.Sheet()
	if err != nil {
		wb.Close()
		return nil, nil, err
	}
	return wb, sheet, nil
}

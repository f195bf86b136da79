// =============================================================================
// Revenue XML - Configuration Module
// =============================================================================
//
// This module loads the settings document that drives a generation run: the
// outlet catalog, the header pattern table, naming templates, and the
// company/bank identity stamped into every document.
//
// LIFECYCLE:
//   1. Read the YAML file
//   2. Validate the raw document against the embedded JSON schema
//   3. Decode into Config and apply defaults
//   4. Compile the header pattern table and select the envelope key policy
//
// The resulting *Config is never mutated after Load returns. Every operation
// receives it explicitly; there is no package-level configuration state.
//
// =============================================================================

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// DefaultYAML is the built-in settings document. It is written out by
// `revxml validate --init` and is a complete, valid configuration.
//
//go:embed default.yaml
var DefaultYAML []byte

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole settings document.
type Config struct {
	// =========================================================================
	// ENVELOPE IDENTITY
	// =========================================================================

	// Version is the dataPack / dataPackItem version attribute.
	// Default: "2.0"
	Version string `yaml:"version"`

	// ICO is the organization id stamped on the envelope.
	ICO string `yaml:"ico"`

	// ProgramVersion and Application identify the generating program.
	// Defaults: "MoloXML 1.0" and "Molo XML Generator"
	ProgramVersion string `yaml:"program_version"`
	Application    string `yaml:"application"`

	// EnvelopeID is the dataPack id; the item id is derived as "<id> (001)".
	// Default: "Usr01"
	EnvelopeID string `yaml:"envelope_id"`

	// NoteText is the global default appended to the envelope note.
	NoteText string `yaml:"note_text"`

	// NoteTextByOutlet overrides NoteText per outlet.
	NoteTextByOutlet map[string]string `yaml:"note_text_by_outlet"`

	// EnvelopeKey controls how the dataPack key attribute is derived.
	EnvelopeKey EnvelopeKeyConfig `yaml:"envelope_key"`

	// =========================================================================
	// OUTPUT
	// =========================================================================

	// OutputDir is the default directory for generated files.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// Encoding is the output character set.
	// Valid values: "windows-1250" (default), "iso-8859-2", "utf-8"
	Encoding string `yaml:"encoding"`

	Naming    NamingConfig    `yaml:"naming"`
	Numbering NumberingConfig `yaml:"numbering"`

	// =========================================================================
	// DOCUMENT DEFAULTS
	// =========================================================================

	CompanyIdentity CompanyIdentity          `yaml:"company_identity"`
	Bank            BankConfig               `yaml:"bank"`
	PaymentIDs      map[string]PaymentConfig `yaml:"payment_ids"`

	// Labels are attached to voucher headers. A missing key defaults to
	// ["Zelená"]; an explicit empty list omits the labels block.
	Labels []string `yaml:"labels"`

	// =========================================================================
	// INPUT
	// =========================================================================

	SheetSelection SheetSelection   `yaml:"sheet_selection"`
	HeaderMap      HeaderMap        `yaml:"header_map"`
	Extraction     ExtractionConfig `yaml:"extraction"`
	CSV            CSVSettings      `yaml:"csv"`

	// =========================================================================
	// OUTLETS
	// =========================================================================

	// Outlets is the outlet catalog keyed by outlet name.
	Outlets map[string]OutletConfig `yaml:"outlets"`

	// OutletHints map file-name fragments to outlet names. First match wins.
	OutletHints []OutletHint `yaml:"outlet_hints"`

	Server ServerConfig `yaml:"server"`

	// patterns is the compiled header pattern table.
	patterns map[types.ColumnKey]*regexp.Regexp

	// ignore holds compiled patterns of columns excluded from discovery.
	ignore []*regexp.Regexp

	// keyPolicy is selected once at load time.
	keyPolicy KeyPolicy
}

// EnvelopeKeyConfig is the raw form of the key policy.
type EnvelopeKeyConfig struct {
	// Fixed, when set, is used for every envelope.
	Fixed string `yaml:"fixed"`

	// ByOutlet maps an outlet name to a fixed key.
	ByOutlet map[string]string `yaml:"by_outlet"`

	// Seed prefixes the name hashed into a version-5 identifier.
	// Default: "MoloXML-datapack-key"
	Seed string `yaml:"seed"`
}

// NamingConfig holds the output file-name templates.
//
// Placeholders:
//
//	{DD.M.YYYY} or {D.M.YYYY} - day without leading zeros, e.g. 3.6.2025
//	{OUTLET}                  - outlet name
//	{METHOD_LABEL}            - method label (invoices only)
//	{ID}                      - per-invocation timestamp token yymmdd_hhmmss
type NamingConfig struct {
	Pokladna string `yaml:"pokladna"`
	Ostatni  string `yaml:"ostatni"`

	// MethodLabels are used both for {METHOD_LABEL} and the invoice note.
	MethodLabels map[string]string `yaml:"method_labels"`

	// NoteLabels override MethodLabels for the envelope note text only.
	NoteLabels map[string]string `yaml:"note_labels"`
}

// NumberingConfig holds global document number overrides.
type NumberingConfig struct {
	// Voucher and Invoice are constant literals used when no outlet
	// override exists. Empty means "use the prefix convention".
	Voucher string `yaml:"voucher"`
	Invoice string `yaml:"invoice"`

	// VoucherByOutlet maps outlet names to voucher numbers.
	VoucherByOutlet map[string]string `yaml:"voucher_by_outlet"`
}

// CompanyIdentity is rendered into the myIdentity address block.
type CompanyIdentity struct {
	Company string `yaml:"company"`
	City    string `yaml:"city"`
	Street  string `yaml:"street"`
	Number  string `yaml:"number"`
	Zip     string `yaml:"zip"`
	ICO     string `yaml:"ico"`
	DIC     string `yaml:"dic"`
}

// BankConfig is rendered into the invoice account block.
type BankConfig struct {
	IDs       string `yaml:"ids"`
	AccountNo string `yaml:"account_no"`
	BankCode  string `yaml:"bank_code"`
	SymConst  string `yaml:"sym_const"`
}

// PaymentConfig is the paymentType reference of an invoice method.
// PaymentType may be empty, in which case only the identifier is emitted.
type PaymentConfig struct {
	IDs         string `yaml:"ids"`
	PaymentType string `yaml:"payment_type"`
}

// SheetSelection lists the keywords that identify the revenue overview
// worksheet. A sheet must contain one keyword of each list.
type SheetSelection struct {
	OverviewKeywords []string `yaml:"overview_keywords"`
	RevenueKeywords  []string `yaml:"revenue_keywords"`
}

// HeaderMap is the declared pattern table.
//
// Sections is keyed by method, then by "<field>_<tier>" (e.g. "base_high").
// Every pattern must match the whole header text.
type HeaderMap struct {
	Sections       map[string]map[string]string `yaml:"sections"`
	IgnorePatterns []string                     `yaml:"ignore_patterns"`
}

const defaultRoundingTolerance = 0.01

// ExtractionConfig controls numeric leniency.
type ExtractionConfig struct {
	// Strict turns unparseable cell text into an error for that day.
	Strict bool `yaml:"strict"`

	// GrossMismatch decides what happens when base+VAT differs from a
	// supplied gross value by more than RoundingTolerance.
	// Valid values: "trust" (default), "warn", "reject"
	GrossMismatch string `yaml:"gross_mismatch"`

	// RoundingTolerance is the allowed |base+VAT-gross|. 0 demands an exact
	// match. Default: 0.01
	RoundingTolerance float64 `yaml:"rounding_tolerance"`

	// CurrencyTokens are stripped from cell text before parsing.
	// Default: ["Kč", "CZK", "EUR", "€"]
	CurrencyTokens []string `yaml:"currency_tokens"`
}

// CSVSettings describe CSV exports used instead of a workbook.
type CSVSettings struct {
	// Delimiter default: ";"
	Delimiter string `yaml:"delimiter"`

	// Encoding default: "utf-8"; "windows-1250" is common for Czech exports.
	Encoding string `yaml:"encoding"`
}

// OutletHint maps a file-name fragment to an outlet.
type OutletHint struct {
	Contains string `yaml:"contains"`
	Outlet   string `yaml:"outlet"`
}

// ServerConfig configures `revxml serve`.
type ServerConfig struct {
	// Addr default: "127.0.0.1:8765"
	Addr string `yaml:"addr"`

	AllowedOrigins []string `yaml:"allowed_origins"`

	// GeneratePerMinute throttles the generate endpoint. Default: 30
	GeneratePerMinute int `yaml:"generate_per_minute"`
}

// =============================================================================
// OUTLET CONFIGURATION
// =============================================================================

// OutletConfig is the per-outlet accounting profile.
type OutletConfig struct {
	// Centre is the cost-center reference.
	Centre string `yaml:"centre"`

	// CashAccountIDs is the cash-book reference of voucher receipts.
	CashAccountIDs string `yaml:"cash_account_ids"`

	Accounts OutletAccounts `yaml:"accounts"`

	// ItemTexts maps method -> tier -> item label.
	ItemTexts map[string]map[string]string `yaml:"item_texts"`

	// VoucherHeaderText overrides the voucher text element.
	VoucherHeaderText string `yaml:"voucher_header_text"`

	// InvoiceHeaderTexts maps method -> invoice text element.
	InvoiceHeaderTexts map[string]string `yaml:"invoice_header_texts"`

	// InvoiceHeaderText is the invoice text used for any method without an
	// entry in InvoiceHeaderTexts.
	InvoiceHeaderText string `yaml:"invoice_header_text"`

	// VoucherNumber, InvoiceNumber, InvoiceNumberByMethod and Number are
	// number overrides; see catalog.DocumentNumber for precedence.
	VoucherNumber         string            `yaml:"voucher_number"`
	InvoiceNumber         string            `yaml:"invoice_number"`
	InvoiceNumberByMethod map[string]string `yaml:"invoice_number_by_method"`
	Number                string            `yaml:"number"`
}

// OutletAccounts holds the accounting codes per document type and tier.
type OutletAccounts struct {
	// Inv and Vch map tier -> account ids.
	Inv map[string]string `yaml:"inv"`
	Vch map[string]string `yaml:"vch"`

	// InvHeader overrides the invoice header account. Default: Inv["high"].
	InvHeader string `yaml:"inv_header"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned by Load when the settings file does not exist.
var ErrNotFound = errors.New("configuration file not found")

// ConfigError describes an invalid settings document.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := "invalid configuration"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load reads, validates and compiles a settings file.
//
// PARAMETERS:
//   - path: The path to the YAML settings file.
//
// RETURNS:
//   - The immutable configuration.
//   - ErrNotFound (wrapped) when the file is missing, *ConfigError when it is
//     invalid.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) && ce.Path == "" {
			ce.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse builds a Config from raw YAML bytes.
func Parse(data []byte) (*Config, error) {
	// Validate the raw document first so that schema errors point at the
	// user's keys rather than at Go field names.
	if err := validateSchema(data); err != nil {
		return nil, err
	}

	// Zero is a meaningful tolerance, so its default is set before decoding
	// instead of in applyDefaults.
	cfg := Config{Extraction: ExtractionConfig{RoundingTolerance: defaultRoundingTolerance}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Reason: "failed to parse YAML", Err: err}
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.compile(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := Parse(DefaultYAML)
	if err != nil {
		// The embedded document is covered by tests; failing here is a
		// build defect.
		panic(fmt.Sprintf("built-in configuration is invalid: %v", err))
	}
	return cfg
}

// WriteDefault writes the built-in settings document to path unless a file
// already exists there.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", path)
	}
	if err := os.WriteFile(path, DefaultYAML, 0644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "2.0"
	}
	if cfg.ProgramVersion == "" {
		cfg.ProgramVersion = "MoloXML 1.0"
	}
	if cfg.Application == "" {
		cfg.Application = "Molo XML Generator"
	}
	if cfg.EnvelopeID == "" {
		cfg.EnvelopeID = "Usr01"
	}
	if cfg.EnvelopeKey.Seed == "" {
		cfg.EnvelopeKey.Seed = "MoloXML-datapack-key"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "windows-1250"
	}

	if cfg.Naming.Pokladna == "" {
		cfg.Naming.Pokladna = "Pokladna {DD.M.YYYY} - {OUTLET} - {ID}.xml"
	}
	if cfg.Naming.Ostatni == "" {
		cfg.Naming.Ostatni = "OstatniPohledavky {DD.M.YYYY} - {METHOD_LABEL} - {OUTLET} - {ID}.xml"
	}
	cfg.Naming.MethodLabels = withDefaults(cfg.Naming.MethodLabels, map[string]string{
		string(types.Cash):     "hotově",
		string(types.Card):     "kartou",
		string(types.Voucher):  "voucherem",
		string(types.Cashless): "bezhotově",
	})
	cfg.Naming.NoteLabels = withDefaults(cfg.Naming.NoteLabels, map[string]string{
		string(types.Card):     "kartou",
		string(types.Voucher):  "voucher",
		string(types.Cashless): "bezhotově",
	})

	if cfg.PaymentIDs == nil {
		cfg.PaymentIDs = map[string]PaymentConfig{}
	}
	defaultPayments := map[string]PaymentConfig{
		string(types.Card):     {IDs: "Plat.kartou", PaymentType: "creditcard"},
		string(types.Voucher):  {IDs: "Šekem", PaymentType: "cheque"},
		string(types.Cashless): {IDs: "Bezhotovostně"},
	}
	for method, p := range defaultPayments {
		if _, ok := cfg.PaymentIDs[method]; !ok {
			cfg.PaymentIDs[method] = p
		}
	}

	if cfg.Bank.IDs == "" {
		cfg.Bank.IDs = "RBCZ"
	}
	if cfg.Bank.SymConst == "" {
		cfg.Bank.SymConst = "0308"
	}

	if cfg.Labels == nil {
		cfg.Labels = []string{"Zelená"}
	}

	if len(cfg.SheetSelection.OverviewKeywords) == 0 {
		cfg.SheetSelection.OverviewKeywords = []string{"přehled", "prehled"}
	}
	if len(cfg.SheetSelection.RevenueKeywords) == 0 {
		cfg.SheetSelection.RevenueKeywords = []string{"trž", "trz", "tržeb", "trzeb"}
	}

	if cfg.Extraction.GrossMismatch == "" {
		cfg.Extraction.GrossMismatch = "trust"
	}
	if len(cfg.Extraction.CurrencyTokens) == 0 {
		cfg.Extraction.CurrencyTokens = []string{"Kč", "CZK", "EUR", "€"}
	}

	if cfg.CSV.Delimiter == "" {
		cfg.CSV.Delimiter = ";"
	}
	if cfg.CSV.Encoding == "" {
		cfg.CSV.Encoding = "utf-8"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8765"
	}
	if cfg.Server.GeneratePerMinute == 0 {
		cfg.Server.GeneratePerMinute = 30
	}
}

// withDefaults returns m with every key of defaults that m lacks.
func withDefaults(m, defaults map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string, len(defaults))
	}
	for k, v := range defaults {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return m
}

// validate checks cross-field rules the JSON schema cannot express.
func validate(cfg *Config) error {
	if len(cfg.Outlets) == 0 {
		return &ConfigError{Reason: "no outlets configured"}
	}

	for name, o := range cfg.Outlets {
		for _, tier := range types.Tiers {
			if o.Accounts.Inv[tier.String()] == "" || o.Accounts.Vch[tier.String()] == "" {
				return &ConfigError{Reason: fmt.Sprintf("outlet %q: missing %s account", name, tier)}
			}
		}
		for method := range o.ItemTexts {
			if _, err := types.ParseMethod(method); err != nil {
				return &ConfigError{Reason: fmt.Sprintf("outlet %q item_texts", name), Err: err}
			}
		}
	}

	for _, h := range cfg.OutletHints {
		if _, ok := cfg.Outlets[h.Outlet]; !ok {
			return &ConfigError{Reason: fmt.Sprintf("outlet hint %q refers to unknown outlet %q", h.Contains, h.Outlet)}
		}
	}

	switch cfg.Extraction.GrossMismatch {
	case "trust", "warn", "reject":
	default:
		return &ConfigError{Reason: fmt.Sprintf("unknown gross_mismatch policy %q", cfg.Extraction.GrossMismatch)}
	}

	if _, err := EncodingByName(cfg.Encoding); err != nil {
		return &ConfigError{Reason: "output encoding", Err: err}
	}
	if _, err := EncodingByName(cfg.CSV.Encoding); err != nil {
		return &ConfigError{Reason: "csv encoding", Err: err}
	}

	return nil
}

// compile builds the pattern table and selects the key policy.
func (cfg *Config) compile() error {
	cfg.patterns = make(map[types.ColumnKey]*regexp.Regexp)

	for section, entries := range cfg.HeaderMap.Sections {
		method, err := types.ParseMethod(section)
		if err != nil {
			return &ConfigError{Reason: "header_map section", Err: err}
		}
		for key, pattern := range entries {
			ck, err := parseColumnKey(method, key)
			if err != nil {
				return &ConfigError{Reason: fmt.Sprintf("header_map.%s", section), Err: err}
			}
			re, err := compileFull(pattern)
			if err != nil {
				return &ConfigError{Reason: fmt.Sprintf("header_map.%s.%s", section, key), Err: err}
			}
			cfg.patterns[ck] = re
		}
	}

	for _, pattern := range cfg.HeaderMap.IgnorePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &ConfigError{Reason: "header_map.ignore_patterns", Err: err}
		}
		cfg.ignore = append(cfg.ignore, re)
	}

	cfg.keyPolicy = selectKeyPolicy(cfg.EnvelopeKey)
	return nil
}

// compileFull anchors a pattern so that it only matches a whole header.
func compileFull(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// parseColumnKey converts "base_high" into a ColumnKey.
func parseColumnKey(method types.Method, key string) (types.ColumnKey, error) {
	for _, f := range types.Fields {
		for _, t := range types.Tiers {
			ck := types.ColumnKey{Method: method, Tier: t, Field: f}
			if ck.String() == key {
				return ck, nil
			}
		}
	}
	return types.ColumnKey{}, fmt.Errorf("unknown column key %q", key)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Pattern returns the compiled matcher for a column, or nil when the pattern
// table does not declare it.
func (cfg *Config) Pattern(key types.ColumnKey) *regexp.Regexp {
	return cfg.patterns[key]
}

// Ignored reports whether a header is excluded from column discovery.
func (cfg *Config) Ignored(header string) bool {
	for _, re := range cfg.ignore {
		if re.MatchString(header) {
			return true
		}
	}
	return false
}

// KeyPolicy returns the envelope key policy selected at load time.
func (cfg *Config) KeyPolicy() KeyPolicy {
	return cfg.keyPolicy
}

// OutletNames returns the configured outlet names, sorted.
func (cfg *Config) OutletNames() []string {
	names := make([]string, 0, len(cfg.Outlets))
	for name := range cfg.Outlets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

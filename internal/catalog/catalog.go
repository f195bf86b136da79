// =============================================================================
// Revenue XML - Outlet Rule Catalog
// =============================================================================
//
// This module resolves everything that differs between outlets: accounting
// codes, item and header texts, document numbers, envelope keys and notes.
// All resolution is pure; the catalog is built once from the immutable
// configuration and never changes during a run.
//
// PRECEDENCE (first defined wins):
//   Voucher number:  outlet voucher_number -> outlet number ->
//                    numbering.voucher_by_outlet -> numbering.voucher ->
//                    "<cash account prefix>P<HHMMSS>"
//   Invoice number:  outlet invoice_number_by_method -> outlet invoice_number ->
//                    numbering.invoice -> "<YYMMDD><HHMMSS>"
//   Envelope key:    fixed -> per outlet -> name-based UUID
//   Envelope note:   call override -> note_text_by_outlet -> note_text ->
//                    "bar" for B&G
//
// =============================================================================

package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// =============================================================================
// OUTLET PROFILE
// =============================================================================

// OutletProfile is the resolved accounting profile of one outlet.
type OutletProfile struct {
	Name           string
	Centre         string
	CashAccountIDs string

	// VchAccounts and InvAccounts are indexed by types.Tier.
	VchAccounts [3]string
	InvAccounts [3]string

	// InvHeaderAccount is the invoice header account; defaults to the high
	// tier invoice account.
	InvHeaderAccount string

	// ItemTexts holds the configured item labels per method, by tier.
	ItemTexts map[types.Method][3]string

	VoucherHeaderText  string
	InvoiceHeaderTexts map[types.Method]string
	InvoiceHeaderText  string

	VoucherNumber         string
	InvoiceNumber         string
	InvoiceNumberByMethod map[types.Method]string
	Number                string
}

// Account returns the tier account of the document type the method
// produces: the voucher account for cash, the invoice account otherwise.
func (p OutletProfile) Account(method types.Method, tier types.Tier) string {
	if method.IsInvoice() {
		return p.InvAccounts[tier]
	}
	return p.VchAccounts[tier]
}

// HeaderAccount returns the document header account.
func (p OutletProfile) HeaderAccount(method types.Method) string {
	if method.IsInvoice() {
		return p.InvHeaderAccount
	}
	return p.VchAccounts[types.High]
}

// OutletNotFoundError indicates the outlet is not in the catalog.
type OutletNotFoundError struct {
	Name string
}

func (e *OutletNotFoundError) Error() string {
	return fmt.Sprintf("outlet %q not found in catalog", e.Name)
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog resolves outlet rules against one configuration.
type Catalog struct {
	cfg     *config.Config
	outlets map[string]OutletProfile
}

// New builds the catalog from the loaded configuration.
func New(cfg *config.Config) *Catalog {
	c := &Catalog{
		cfg:     cfg,
		outlets: make(map[string]OutletProfile, len(cfg.Outlets)),
	}
	for name, o := range cfg.Outlets {
		c.outlets[name] = buildProfile(name, o)
	}
	return c
}

func buildProfile(name string, o config.OutletConfig) OutletProfile {
	p := OutletProfile{
		Name:                  name,
		Centre:                o.Centre,
		CashAccountIDs:        o.CashAccountIDs,
		InvHeaderAccount:      o.Accounts.InvHeader,
		ItemTexts:             make(map[types.Method][3]string),
		VoucherHeaderText:     o.VoucherHeaderText,
		InvoiceHeaderTexts:    make(map[types.Method]string),
		InvoiceHeaderText:     o.InvoiceHeaderText,
		VoucherNumber:         o.VoucherNumber,
		InvoiceNumber:         o.InvoiceNumber,
		InvoiceNumberByMethod: make(map[types.Method]string),
		Number:                o.Number,
	}

	for _, tier := range types.Tiers {
		p.VchAccounts[tier] = o.Accounts.Vch[tier.String()]
		p.InvAccounts[tier] = o.Accounts.Inv[tier.String()]
	}
	if p.InvHeaderAccount == "" {
		p.InvHeaderAccount = p.InvAccounts[types.High]
	}

	// Keys were validated at load time, so unknown methods cannot occur.
	for method, texts := range o.ItemTexts {
		var byTier [3]string
		for _, tier := range types.Tiers {
			byTier[tier] = texts[tier.String()]
		}
		p.ItemTexts[types.Method(method)] = byTier
	}
	for method, text := range o.InvoiceHeaderTexts {
		p.InvoiceHeaderTexts[types.Method(method)] = text
	}
	for method, number := range o.InvoiceNumberByMethod {
		p.InvoiceNumberByMethod[types.Method(method)] = number
	}

	return p
}

// Outlet returns the profile of the named outlet.
func (c *Catalog) Outlet(name string) (OutletProfile, error) {
	if p, ok := c.outlets[name]; ok {
		return p, nil
	}
	return OutletProfile{}, &OutletNotFoundError{Name: name}
}

// Names returns the outlet names, sorted.
func (c *Catalog) Names() []string {
	return c.cfg.OutletNames()
}

// MethodLabel returns the Czech label of a method ("kartou", "hotově", ...).
func (c *Catalog) MethodLabel(method types.Method) string {
	if label := c.cfg.Naming.MethodLabels[string(method)]; label != "" {
		return label
	}
	return string(method)
}

// =============================================================================
// DOCUMENT NUMBERS
// =============================================================================

// DocumentNumber resolves the requested document number.
//
// PARAMETERS:
//   - p: The outlet profile.
//   - method: The payment method; cash yields a voucher number.
//   - day: The document day, used by the invoice convention.
//   - now: The generation time, used by both conventions.
func (c *Catalog) DocumentNumber(p OutletProfile, method types.Method, day, now time.Time) string {
	num := c.cfg.Numbering

	if !method.IsInvoice() {
		return firstOf(
			p.VoucherNumber,
			p.Number,
			num.VoucherByOutlet[p.Name],
			num.Voucher,
			voucherPrefix(p)+"P"+now.Format("150405"),
		)
	}

	return firstOf(
		p.InvoiceNumberByMethod[method],
		p.InvoiceNumber,
		num.Invoice,
		day.Format("060102")+now.Format("150405"),
	)
}

// voucherPrefix returns the first four characters of the cash account
// reference, or of the outlet name when the reference is empty.
func voucherPrefix(p OutletProfile) string {
	src := strings.TrimSpace(p.CashAccountIDs)
	if src == "" {
		src = strings.TrimSpace(p.Name)
	}
	if src == "" {
		return "UNK"
	}
	r := []rune(src)
	return string(r[:min(4, len(r))])
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// =============================================================================
// ENVELOPE IDENTITY
// =============================================================================

// EnvelopeKey evaluates the key policy selected when the configuration was
// loaded. The name-based form is stable: the same day, outlet and tag always
// give the same key.
func (c *Catalog) EnvelopeKey(day time.Time, outlet, docTag string) string {
	switch policy := c.cfg.KeyPolicy().(type) {
	case config.FixedKey:
		return policy.Key
	case config.PerOutletKey:
		if key, ok := policy.Keys[outlet]; ok {
			return key
		}
		return nameKey(policy.Seed, day, outlet, docTag)
	case config.HashKey:
		return nameKey(policy.Seed, day, outlet, docTag)
	}
	return nameKey("", day, outlet, docTag)
}

// nameKey is the version-5 UUID of "seed|YYYY-MM-DD|outlet|tag" in the URL
// namespace.
func nameKey(seed string, day time.Time, outlet, docTag string) string {
	name := strings.Join([]string{seed, day.Format("2006-01-02"), outlet, docTag}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// NoteText builds the envelope note.
//
// A non-nil override is used verbatim. Otherwise the note is
// "Uživatelský export, Datum = DD.MM.YYYY" followed by ", Text = X" when a
// text is configured for the outlet.
func (c *Catalog) NoteText(day time.Time, outlet string, override *string) string {
	if override != nil {
		return *override
	}

	note := noteBase(day)
	extra := firstOf(c.cfg.NoteTextByOutlet[outlet], c.cfg.NoteText)
	if extra == "" && outlet == "B&G" {
		extra = "bar"
	}
	if extra != "" {
		note += ", Text = " + extra
	}
	return note
}

// InvoiceNote is the note override used for invoice envelopes:
// the base note with the method's note label.
func (c *Catalog) InvoiceNote(day time.Time, method types.Method) string {
	label := c.cfg.Naming.NoteLabels[string(method)]
	if label == "" {
		label = c.MethodLabel(method)
	}
	return noteBase(day) + ", Text = " + label
}

func noteBase(day time.Time) string {
	return "Uživatelský export, Datum = " + day.Format("02.01.2006")
}

// =============================================================================
// TEXTS
// =============================================================================

// ItemText returns the detail item label.
//
// An outlet without labels for the method reuses its cash labels with the
// method label in place of the cash one; with no cash labels either, the
// label is "<rate>% <method label>".
func (c *Catalog) ItemText(p OutletProfile, method types.Method, tier types.Tier) string {
	if texts, ok := p.ItemTexts[method]; ok && texts[tier] != "" {
		return texts[tier]
	}

	label := c.MethodLabel(method)
	if cash, ok := p.ItemTexts[types.Cash]; ok && cash[tier] != "" {
		stem := strings.TrimSuffix(cash[tier], " - "+c.MethodLabel(types.Cash))
		return stem + " - " + label
	}
	return fmt.Sprintf("%d%% %s", tier.Rate(), label)
}

// HeaderText returns the document header text.
func (c *Catalog) HeaderText(p OutletProfile, method types.Method) string {
	if !method.IsInvoice() {
		return firstOf(p.VoucherHeaderText, "Tržby hotově")
	}
	return firstOf(p.InvoiceHeaderTexts[method], p.InvoiceHeaderText, "Tržby "+c.MethodLabel(method))
}

// =============================================================================
// OUTLET SUGGESTION
// =============================================================================

// SuggestOutlet guesses the outlet from an input file name using the
// configured hints. It returns "" when no hint matches.
func (c *Catalog) SuggestOutlet(fileName string) string {
	name := strings.ToLower(fileName)
	for _, hint := range c.cfg.OutletHints {
		if strings.Contains(name, strings.ToLower(hint.Contains)) {
			return hint.Outlet
		}
	}
	return ""
}

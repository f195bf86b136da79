// =============================================================================
// Revenue XML - Document Synthesizer
// =============================================================================
//
// This module turns the amounts of one day, one outlet and one payment method
// into an accounting document value. Rendering lives in render.go.
//
// DOCUMENT KINDS:
//   - VoucherReceipt: cash takings, booked into the outlet's cash book
//   - Invoice:        card, voucher and cashless takings, booked as a
//                     receivable invoice
//
// EMISSION LAW:
//   A document is produced only when at least one of the six base/VAT fields
//   of the method is non-zero. Every produced document carries exactly three
//   items in the order high, low, none, including zero-value tiers.
//
// =============================================================================

package document

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// =============================================================================
// DOCUMENT STRUCTURE
// =============================================================================

// Kind tags the document variant.
type Kind int

const (
	VoucherReceipt Kind = iota
	Invoice
)

func (k Kind) String() string {
	if k == Invoice {
		return "invoice"
	}
	return "voucher"
}

// Fixed classification and calculation codes.
const (
	classificationVoucher = "UD"
	classificationInvoice = "UDA5"
	classificationNone    = "UN"
	classificationNoneTyp = "nonSubsume"

	roundingMath2One = "math2one"
	roundingNone     = "none"
	calculationMode  = "VATNewMethod"
)

// Header holds the header block of either document kind. Fields that only
// one kind renders are marked.
type Header struct {
	Number            string
	Date              time.Time
	Accounting        string
	ClassificationVAT string
	Text              string
	Identity          config.CompanyIdentity
	Centre            string

	// Voucher receipts only.
	CashAccount string
	Labels      []string

	// Invoices only.
	Payment     config.PaymentConfig
	Bank        config.BankConfig
	Liquidation time.Time
}

// Item is one detail line. A document has one item per VAT tier.
type Item struct {
	Tier    types.Tier
	Text    string
	Amounts types.AmountTriple
	Account string
}

// Summary is the document totals block.
type Summary struct {
	RoundingDocument string
	RoundingVAT      string
	CalculationMode  string

	// Totals is indexed by types.Tier and equals the item amounts.
	Totals [3]types.AmountTriple
}

// Document is one voucher receipt or invoice.
type Document struct {
	Kind    Kind
	Method  types.Method
	Header  Header
	Items   []Item
	Summary Summary
}

// =============================================================================
// SYNTHESIS
// =============================================================================

// Input is everything needed to synthesize one document. Number, HeaderText
// and ItemTexts are resolved by the catalog beforehand.
type Input struct {
	Day     time.Time
	Method  types.Method
	Amounts types.MethodAmounts
	Profile catalog.OutletProfile

	Number     string
	HeaderText string
	ItemTexts  [3]string

	Identity config.CompanyIdentity
	Bank     config.BankConfig
	Payment  config.PaymentConfig
	Labels   []string
}

// Synthesize builds the document for one method of one day.
//
// PARAMETERS:
//   - in: The resolved inputs.
//
// RETURNS:
//   - The document, or nil and false when every base and VAT field of the
//     method is zero.
func Synthesize(in Input) (*Document, bool) {
	if in.Amounts.IsZero() {
		return nil, false
	}

	doc := &Document{
		Method: in.Method,
		Header: Header{
			Number:     in.Number,
			Date:       in.Day,
			Accounting: in.Profile.HeaderAccount(in.Method),
			Text:       in.HeaderText,
			Identity:   in.Identity,
			Centre:     in.Profile.Centre,
		},
		Summary: Summary{
			RoundingDocument: roundingFor(in.Method),
			RoundingVAT:      roundingNone,
			CalculationMode:  calculationMode,
		},
	}

	if in.Method.IsInvoice() {
		doc.Kind = Invoice
		doc.Header.ClassificationVAT = classificationInvoice
		doc.Header.Payment = in.Payment
		doc.Header.Bank = in.Bank
		doc.Header.Liquidation = in.Day
		if in.Method == types.Card {
			doc.Header.Liquidation = NextBusinessDay(in.Day)
		}
	} else {
		doc.Kind = VoucherReceipt
		doc.Header.ClassificationVAT = classificationVoucher
		doc.Header.CashAccount = in.Profile.CashAccountIDs
		doc.Header.Labels = in.Labels
	}

	doc.Items = make([]Item, 0, len(types.Tiers))
	for _, tier := range types.Tiers {
		doc.Items = append(doc.Items, Item{
			Tier:    tier,
			Text:    in.ItemTexts[tier],
			Amounts: in.Amounts[tier],
			Account: in.Profile.Account(in.Method, tier),
		})
		doc.Summary.Totals[tier] = in.Amounts[tier]
	}

	return doc, true
}

// roundingFor returns the document rounding policy. Cash and voucher
// takings round to whole crowns; card and cashless takings do not round.
func roundingFor(method types.Method) string {
	switch method {
	case types.Cash, types.Voucher:
		return roundingMath2One
	}
	return roundingNone
}

// =============================================================================
// CALENDAR AND NUMBER HELPERS
// =============================================================================

// NextBusinessDay returns the day after day, moved forward to Monday when it
// falls on a weekend. Public holidays are not considered.
func NextBusinessDay(day time.Time) time.Time {
	next := day.AddDate(0, 0, 1)
	switch next.Weekday() {
	case time.Saturday:
		return next.AddDate(0, 0, 2)
	case time.Sunday:
		return next.AddDate(0, 0, 1)
	}
	return next
}

var halfCent = decimal.RequireFromString("0.005")

// FormatAmount renders a monetary value the way the importer's reference
// files do: an integer when the value is within 0.005 of one, otherwise
// exactly two decimals.
//
// EXAMPLES:
//
//	21.00  -> "21"
//	21.005 -> "21"
//	21.01  -> "21.01"
//	0      -> "0"
func FormatAmount(d decimal.Decimal) string {
	whole := d.Round(0)
	if d.Sub(whole).Abs().LessThanOrEqual(halfCent) {
		return whole.String()
	}
	return d.StringFixed(2)
}

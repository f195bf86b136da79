// =============================================================================
// Revenue XML - Shared Types
// =============================================================================
//
// This package contains the revenue model shared by the extractor, the
// document synthesizer and the validation layer. Keeping it here avoids
// import cycles between those packages.
//
// MODEL:
//   Method  - payment method (cash, card, voucher, cashless)
//   Tier    - VAT rate bucket (high=21%, low=12%, none=0%)
//   Field   - base, VAT or gross
//   Amount  - an optional decimal value read from one spreadsheet cell
//
// =============================================================================

package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT METHODS
// =============================================================================

// Method is a payment method column group in the revenue export.
type Method string

const (
	Cash     Method = "cash"
	Card     Method = "card"
	Voucher  Method = "voucher"
	Cashless Method = "cashless"
)

// Methods lists all recognized methods in processing order.
var Methods = []Method{Cash, Card, Voucher, Cashless}

// ParseMethod converts a configuration or CLI string to a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Cash, Card, Voucher, Cashless:
		return m, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// IsInvoice reports whether the method settles through a receivable invoice.
// Only cash produces a voucher receipt.
func (m Method) IsInvoice() bool {
	return m != Cash
}

// =============================================================================
// VAT TIERS
// =============================================================================

// Tier is a VAT rate bucket. The numeric order is the fixed document order.
type Tier int

const (
	High Tier = iota
	Low
	None
)

// Tiers lists the tiers in the order every document must emit them.
var Tiers = [3]Tier{High, Low, None}

// String returns the tier tag used in configuration keys and rateVAT elements.
func (t Tier) String() string {
	switch t {
	case High:
		return "high"
	case Low:
		return "low"
	case None:
		return "none"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Rate returns the VAT percentage of the tier.
func (t Tier) Rate() int {
	switch t {
	case High:
		return 21
	case Low:
		return 12
	}
	return 0
}

// ParseTier converts a configuration key ("high", "low", "none").
func ParseTier(s string) (Tier, error) {
	for _, t := range Tiers {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown VAT tier %q", s)
}

// =============================================================================
// FIELDS
// =============================================================================

// Field is one of the three monetary columns per method and tier.
type Field string

const (
	Base  Field = "base"
	VAT   Field = "vat"
	Gross Field = "gross"
)

// Fields lists the fields in pattern-table order.
var Fields = []Field{Base, VAT, Gross}

// ColumnKey identifies one column of the header pattern table.
type ColumnKey struct {
	Method Method
	Tier   Tier
	Field  Field
}

// String renders the key the way the configuration spells it ("base_high").
func (k ColumnKey) String() string {
	return string(k.Field) + "_" + k.Tier.String()
}

// =============================================================================
// AMOUNTS
// =============================================================================

// Amount is a value read from a single cell.
//
// Present is false when the column is missing or the cell text could not be
// parsed. Raw keeps the original cell text for diagnostics.
type Amount struct {
	Value   decimal.Decimal
	Present bool
	Raw     string
}

// Known wraps a parsed value.
func Known(d decimal.Decimal) Amount {
	return Amount{Value: d, Present: true}
}

// Or0 returns the value, or zero when the amount is absent.
func (a Amount) Or0() decimal.Decimal {
	if !a.Present {
		return decimal.Zero
	}
	return a.Value
}

// AmountTriple holds the base, VAT and gross values of one tier.
type AmountTriple struct {
	Base  decimal.Decimal
	VAT   decimal.Decimal
	Gross decimal.Decimal

	// GrossPresent is true when Gross came from its own column rather than
	// being derived from Base+VAT.
	GrossPresent bool
}

// NewTriple rounds the inputs to two places and derives the gross value when
// it is absent.
func NewTriple(base, vat, gross Amount) AmountTriple {
	t := AmountTriple{
		Base: base.Or0().Round(2),
		VAT:  vat.Or0().Round(2),
	}
	if gross.Present {
		t.Gross = gross.Value.Round(2)
		t.GrossPresent = true
	} else {
		t.Gross = t.Base.Add(t.VAT).Round(2)
	}
	return t
}

// Sum returns base+VAT, the value rendered as priceSum.
func (t AmountTriple) Sum() decimal.Decimal {
	return t.Base.Add(t.VAT)
}

// MethodAmounts holds the three tiers of one payment method, indexed by Tier.
type MethodAmounts [3]AmountTriple

// IsZero reports whether all six base and VAT fields are zero. Gross values
// do not count towards emission.
func (m MethodAmounts) IsZero() bool {
	for _, t := range m {
		if !t.Base.IsZero() || !t.VAT.IsZero() {
			return false
		}
	}
	return true
}

// DayAmounts holds the extracted amounts of one calendar day.
type DayAmounts map[Method]MethodAmounts

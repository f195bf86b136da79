package xlsxparser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// DefaultCurrencyTokens are stripped when no tokens are configured.
var DefaultCurrencyTokens = []string{"Kč", "CZK", "EUR", "€"}

// NormalizeNumber parses spreadsheet cell text into an amount.
//
// Spaces (including no-break spaces), apostrophes and currency tokens are
// removed. When both "," and "." appear, the one that comes last is the
// decimal separator and the other is a thousands separator. A single kind
// of separator is decimal unless it appears more than once.
//
// RETURNS:
//   - Known(value) on success; a lone dash reads as zero.
//   - An absent Amount with Raw == "" for empty text.
//   - An absent Amount with Raw set when the text cannot be parsed.
func NormalizeNumber(text string, currencyTokens []string) types.Amount {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return types.Amount{}
	}
	if currencyTokens == nil {
		currencyTokens = DefaultCurrencyTokens
	}

	s := raw
	for _, tok := range currencyTokens {
		if tok != "" {
			s = strings.ReplaceAll(s, tok, "")
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '\t', '\'':
			return -1
		}
		return r
	}, s)

	switch s {
	case "-", "–":
		return types.Amount{Value: decimal.Zero, Present: true, Raw: raw}
	case "":
		return types.Amount{Raw: raw}
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return types.Amount{Raw: raw}
	}
	if neg {
		d = d.Neg()
	}
	return types.Amount{Value: d, Present: true, Raw: raw}
}

// =============================================================================
// Revenue XML - Output Naming
// =============================================================================
//
// This module names the generated files.
//
// TEMPLATE PLACEHOLDERS:
//   {DD.M.YYYY} / {D.M.YYYY} - document day without leading zeros (3.6.2025)
//   {OUTLET}                 - outlet name, path separators replaced by "_"
//   {METHOD_LABEL}           - method label, e.g. "kartou"
//   {ID}                     - per-invocation token yymmdd_hhmmss
//
// EXAMPLE:
//   "Pokladna {DD.M.YYYY} - {OUTLET} - {ID}.xml"
//     -> "Pokladna 3.6.2025 - Bistro - 250620_140509.xml"
//
// =============================================================================

package naming

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/types"
)

// TokenLayout is the time layout of the {ID} token.
const TokenLayout = "060102_150405"

// Allocator hands out file tokens. Tokens are strictly increasing within one
// Allocator: when the clock has not moved past the last issued second, the
// token advances by one second instead.
type Allocator struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// NewAllocator returns an Allocator reading the given clock. A nil clock
// means time.Now.
func NewAllocator(now func() time.Time) *Allocator {
	if now == nil {
		now = time.Now
	}
	return &Allocator{now: now}
}

// Token returns the next unique token.
func (a *Allocator) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	t := a.now().Truncate(time.Second)
	if !a.last.IsZero() && !t.After(a.last) {
		t = a.last.Add(time.Second)
	}
	a.last = t
	return t.Format(TokenLayout)
}

// Template selects the naming template for a method: cash documents use the
// cash-book template, all others the receivables template.
func Template(cfg config.NamingConfig, method types.Method) string {
	if method.IsInvoice() {
		return cfg.Ostatni
	}
	return cfg.Pokladna
}

var pathSeparators = strings.NewReplacer("/", "_", "\\", "_")

// FileName substitutes the template placeholders.
//
// PARAMETERS:
//   - template: The naming template.
//   - day: The document day.
//   - outlet: The outlet name.
//   - methodLabel: The method label ("" for cash documents).
//   - token: The allocator token.
//
// RETURNS:
//   - The file name, always ending in ".xml".
func FileName(template string, day time.Time, outlet, methodLabel, token string) string {
	date := fmt.Sprintf("%d.%d.%d", day.Day(), int(day.Month()), day.Year())

	name := strings.NewReplacer(
		"{DD.M.YYYY}", date,
		"{D.M.YYYY}", date,
		"{OUTLET}", pathSeparators.Replace(outlet),
		"{METHOD_LABEL}", methodLabel,
		"{ID}", token,
	).Replace(template)

	if !strings.HasSuffix(strings.ToLower(name), ".xml") {
		name += ".xml"
	}
	return name
}

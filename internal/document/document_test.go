package document

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/types"
	"github.com/ginjaninja78/revenue-xml/internal/xmlwriter"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func triple(base, vat, gross string) types.AmountTriple {
	return types.NewTriple(
		types.Known(d(base)),
		types.Known(d(vat)),
		types.Known(d(gross)),
	)
}

// bistroCash is the worked example: one day of cash takings at Bistro.
func bistroCash() types.MethodAmounts {
	var m types.MethodAmounts
	m[types.High] = triple("100", "21", "121")
	m[types.Low] = triple("50", "6", "56")
	m[types.None] = triple("10", "0", "10")
	return m
}

func input(t *testing.T, method types.Method, amounts types.MethodAmounts, day time.Time) Input {
	t.Helper()
	cfg := config.Default()
	cat := catalog.New(cfg)
	p, err := cat.Outlet("Bistro")
	if err != nil {
		t.Fatalf("Outlet: %v", err)
	}

	in := Input{
		Day:        day,
		Method:     method,
		Amounts:    amounts,
		Profile:    p,
		Number:     "TEST-1",
		HeaderText: cat.HeaderText(p, method),
		Identity:   cfg.CompanyIdentity,
		Bank:       cfg.Bank,
		Payment:    cfg.PaymentIDs[string(method)],
		Labels:     cfg.Labels,
	}
	for _, tier := range types.Tiers {
		in.ItemTexts[tier] = cat.ItemText(p, method, tier)
	}
	return in
}

func names(e *xmlwriter.Element) []string {
	out := make([]string, 0, len(e.Children))
	for _, c := range e.Children {
		out = append(out, c.Name())
	}
	return out
}

func text(t *testing.T, e *xmlwriter.Element, path ...string) string {
	t.Helper()
	for _, p := range path {
		next := e.Find(p)
		if next == nil {
			t.Fatalf("element %s has no child %s", e.Name(), p)
		}
		e = next
	}
	return e.Text
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"21.0":    "21",
		"21.005":  "21",
		"21.01":   "21.01",
		"0":       "0",
		"20.996":  "21",
		"1234.5":  "1234.50",
		"-3.20":   "-3.20",
		"-0.001":  "0",
		"99.9999": "100",
	}
	for in, want := range tests {
		if got := FormatAmount(d(in)); got != want {
			t.Errorf("FormatAmount(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestNextBusinessDay(t *testing.T) {
	tests := []struct {
		day  string
		want string
	}{
		{"2025-06-06", "2025-06-09"}, // Friday
		{"2025-06-04", "2025-06-05"}, // Wednesday
		{"2025-06-07", "2025-06-09"}, // Saturday
		{"2025-06-08", "2025-06-09"}, // Sunday
		{"2025-06-30", "2025-07-01"},
	}
	for _, tt := range tests {
		day, _ := time.Parse(dateLayout, tt.day)
		if got := NextBusinessDay(day).Format(dateLayout); got != tt.want {
			t.Errorf("NextBusinessDay(%s) = %s, want %s", tt.day, got, tt.want)
		}
	}
}

func TestSynthesizeEmission(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)

	var zero types.MethodAmounts
	if doc, ok := Synthesize(input(t, types.Card, zero, day)); ok || doc != nil {
		t.Fatalf("all-zero method produced a document")
	}

	// Gross alone does not count towards emission.
	var grossOnly types.MethodAmounts
	grossOnly[types.High] = types.NewTriple(types.Amount{}, types.Amount{}, types.Known(d("5")))
	if _, ok := Synthesize(input(t, types.Card, grossOnly, day)); ok {
		t.Errorf("gross-only amounts produced a document")
	}

	var one types.MethodAmounts
	one[types.None].VAT = d("0.01")
	doc, ok := Synthesize(input(t, types.Card, one, day))
	if !ok {
		t.Fatalf("single non-zero field produced no document")
	}
	if len(doc.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(doc.Items))
	}
	for i, tier := range types.Tiers {
		if doc.Items[i].Tier != tier {
			t.Errorf("item %d has tier %s, want %s", i, doc.Items[i].Tier, tier)
		}
	}
}

func TestBistroCashVoucher(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)
	doc, ok := Synthesize(input(t, types.Cash, bistroCash(), day))
	if !ok {
		t.Fatal("no document")
	}
	if doc.Kind != VoucherReceipt {
		t.Fatalf("kind = %s", doc.Kind)
	}

	root := doc.Element()
	if root.Name() != "vch:voucher" {
		t.Fatalf("root = %s", root.Name())
	}
	if got := names(root); !reflect.DeepEqual(got, []string{"vch:voucherHeader", "vch:voucherDetail", "vch:voucherSummary"}) {
		t.Errorf("sections = %v", got)
	}

	header := root.Find("vch:voucherHeader")
	wantHeader := []string{
		"vch:voucherType", "vch:cashAccount", "vch:number", "vch:date", "vch:datePayment",
		"vch:dateTax", "vch:accounting", "vch:classificationVAT", "vch:text", "vch:myIdentity",
		"vch:centre", "vch:lock2", "vch:markRecord", "vch:labels",
	}
	if got := names(header); !reflect.DeepEqual(got, wantHeader) {
		t.Errorf("header order = %v", got)
	}
	if got := text(t, header, "vch:cashAccount", "typ:ids"); got != "Bistro" {
		t.Errorf("cashAccount = %q", got)
	}
	if got := text(t, header, "vch:accounting", "typ:ids"); got != "211000/602116" {
		t.Errorf("accounting = %q", got)
	}
	if got := text(t, header, "vch:classificationVAT", "typ:ids"); got != "UD" {
		t.Errorf("classificationVAT = %q", got)
	}
	if got := text(t, header, "vch:labels", "typ:label", "typ:ids"); got != "Zelená" {
		t.Errorf("label = %q", got)
	}
	if got := text(t, header, "vch:datePayment"); got != "2025-06-03" {
		t.Errorf("datePayment = %q", got)
	}

	summary := root.Find("vch:voucherSummary")
	if got := text(t, summary, "vch:roundingDocument"); got != "math2one" {
		t.Errorf("roundingDocument = %q", got)
	}
	home := summary.Find("vch:homeCurrency")
	wantTotals := map[string]string{
		"typ:priceNone":    "10",
		"typ:priceLow":     "50",
		"typ:priceLowVAT":  "6",
		"typ:priceLowSum":  "56",
		"typ:priceHigh":    "100",
		"typ:priceHighVAT": "21",
		"typ:priceHighSum": "121",
	}
	for name, want := range wantTotals {
		if got := text(t, home, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if got := text(t, home, "typ:round", "typ:priceRound"); got != "0" {
		t.Errorf("priceRound = %q", got)
	}
}

func TestItemLayout(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)
	doc, _ := Synthesize(input(t, types.Cash, bistroCash(), day))
	detail := doc.Element().Find("vch:voucherDetail")

	if len(detail.Children) != 3 {
		t.Fatalf("got %d items", len(detail.Children))
	}

	common := []string{
		"vch:text", "vch:quantity", "vch:coefficient", "vch:payVAT", "vch:rateVAT",
		"vch:discountPercentage", "vch:homeCurrency", "vch:accounting",
	}
	high, none := detail.Children[0], detail.Children[2]

	if got := names(high); !reflect.DeepEqual(got, append(append([]string{}, common...), "vch:PDP")) {
		t.Errorf("high item order = %v", got)
	}
	if got := names(none); !reflect.DeepEqual(got, append(append([]string{}, common...), "vch:classificationVAT", "vch:PDP")) {
		t.Errorf("none item order = %v", got)
	}

	if got := text(t, high, "vch:rateVAT"); got != "high" {
		t.Errorf("rateVAT = %q", got)
	}
	if got := text(t, high, "vch:quantity"); got != "1.0" {
		t.Errorf("quantity = %q", got)
	}
	if got := text(t, high, "vch:homeCurrency", "typ:priceSum"); got != "121" {
		t.Errorf("priceSum = %q", got)
	}
	if got := text(t, none, "vch:accounting", "typ:ids"); got != "211000/602117" {
		t.Errorf("none account = %q", got)
	}
	if got := text(t, none, "vch:classificationVAT", "typ:classificationVATType"); got != "nonSubsume" {
		t.Errorf("classificationVATType = %q", got)
	}
	if got := text(t, high, "vch:text"); got != "21% Beverage - hotově" {
		t.Errorf("item text = %q", got)
	}
}

func TestCardInvoice(t *testing.T) {
	friday := time.Date(2025, time.June, 6, 0, 0, 0, 0, time.Local)
	var amounts types.MethodAmounts
	amounts[types.High] = triple("1000", "210", "1210")

	doc, ok := Synthesize(input(t, types.Card, amounts, friday))
	if !ok || doc.Kind != Invoice {
		t.Fatalf("expected an invoice, got %v %v", doc, ok)
	}

	root := doc.Element()
	if root.Name() != "inv:invoice" {
		t.Fatalf("root = %s", root.Name())
	}
	header := root.Find("inv:invoiceHeader")
	wantHeader := []string{
		"inv:invoiceType", "inv:number", "inv:symVar", "inv:date", "inv:dateTax",
		"inv:dateAccounting", "inv:dateDue", "inv:accounting", "inv:classificationVAT",
		"inv:text", "inv:myIdentity", "inv:paymentType", "inv:account", "inv:symConst",
		"inv:centre", "inv:liquidation", "inv:lock2", "inv:markRecord",
	}
	if got := names(header); !reflect.DeepEqual(got, wantHeader) {
		t.Errorf("header order = %v", got)
	}

	if got := text(t, header, "inv:liquidation", "typ:date"); got != "2025-06-09" {
		t.Errorf("card liquidation = %q", got)
	}
	if got := text(t, header, "inv:dateDue"); got != "2025-06-06" {
		t.Errorf("dateDue = %q", got)
	}
	if got := text(t, header, "inv:symVar"); got != "TEST-1" {
		t.Errorf("symVar = %q", got)
	}
	if got := text(t, header, "inv:classificationVAT", "typ:ids"); got != "UDA5" {
		t.Errorf("classificationVAT = %q", got)
	}
	if got := text(t, header, "inv:accounting", "typ:ids"); got != "315000/602116" {
		t.Errorf("header accounting = %q", got)
	}
	if got := names(header.Find("inv:paymentType")); !reflect.DeepEqual(got, []string{"typ:ids", "typ:paymentType"}) {
		t.Errorf("paymentType children = %v", got)
	}
	if got := text(t, header, "inv:paymentType", "typ:paymentType"); got != "creditcard" {
		t.Errorf("paymentType = %q", got)
	}
	if got := names(header.Find("inv:account")); !reflect.DeepEqual(got, []string{"typ:ids", "typ:accountNo", "typ:bankCode"}) {
		t.Errorf("account children = %v", got)
	}
	if got := text(t, header, "inv:text"); got != "Tržby kartou" {
		t.Errorf("text = %q", got)
	}

	summary := root.Find("inv:invoiceSummary")
	if got := text(t, summary, "inv:roundingDocument"); got != "none" {
		t.Errorf("card roundingDocument = %q", got)
	}
	if got := text(t, summary, "inv:homeCurrency", "typ:priceNone"); got != "0" {
		t.Errorf("priceNone = %q", got)
	}

	item := root.Find("inv:invoiceDetail").Children[1]
	if got := text(t, item, "inv:accounting", "typ:ids"); got != "315000/602114" {
		t.Errorf("low item account = %q", got)
	}
}

func TestInvoiceVariants(t *testing.T) {
	wednesday := time.Date(2025, time.June, 4, 0, 0, 0, 0, time.Local)
	var amounts types.MethodAmounts
	amounts[types.Low] = triple("100", "12", "112")

	card, _ := Synthesize(input(t, types.Card, amounts, wednesday))
	if got := card.Header.Liquidation.Format(dateLayout); got != "2025-06-05" {
		t.Errorf("card liquidation = %s", got)
	}

	voucher, _ := Synthesize(input(t, types.Voucher, amounts, wednesday))
	if voucher.Summary.RoundingDocument != "math2one" {
		t.Errorf("voucher rounding = %s", voucher.Summary.RoundingDocument)
	}
	if got := voucher.Header.Liquidation.Format(dateLayout); got != "2025-06-04" {
		t.Errorf("voucher liquidation = %s", got)
	}

	cashless, _ := Synthesize(input(t, types.Cashless, amounts, wednesday))
	if cashless.Summary.RoundingDocument != "none" {
		t.Errorf("cashless rounding = %s", cashless.Summary.RoundingDocument)
	}
	pay := cashless.Element().Find("inv:invoiceHeader").Find("inv:paymentType")
	if got := names(pay); !reflect.DeepEqual(got, []string{"typ:ids"}) {
		t.Errorf("cashless paymentType children = %v", got)
	}
}

func TestVoucherWithoutLabels(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)
	in := input(t, types.Cash, bistroCash(), day)
	in.Labels = nil

	doc, _ := Synthesize(in)
	if doc.Element().Find("vch:voucherHeader").Find("vch:labels") != nil {
		t.Errorf("labels block rendered without labels")
	}
}

func TestRenderedNamespaces(t *testing.T) {
	day := time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)
	doc, _ := Synthesize(input(t, types.Cash, bistroCash(), day))

	out, err := xmlwriter.Marshal(doc.Element(), xmlwriter.Options{Encoding: unicode.UTF8, DeclaredEncoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)

	for _, want := range []string{
		`<vch:voucher xmlns:vch="http://www.stormware.cz/schema/version_2/voucher.xsd" version="2.0">`,
		`<vch:voucherDetail xmlns:rsp="http://www.stormware.cz/schema/version_2/response.xsd"`,
		`<typ:priceHighSum>121</typ:priceHighSum>`,
		`<vch:text>Tržby hotově Molo Bistro</vch:text>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output lacks %s", want)
		}
	}
}

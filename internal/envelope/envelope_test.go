package envelope

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/document"
	"github.com/ginjaninja78/revenue-xml/internal/types"
	"github.com/ginjaninja78/revenue-xml/internal/xmlwriter"
)

var day = time.Date(2025, time.June, 3, 0, 0, 0, 0, time.Local)

func bistroDocument(t *testing.T, cfg *config.Config, method types.Method) *document.Document {
	t.Helper()
	cat := catalog.New(cfg)
	p, err := cat.Outlet("Bistro")
	if err != nil {
		t.Fatalf("Outlet: %v", err)
	}
	var amounts types.MethodAmounts
	amounts[types.High] = types.NewTriple(
		types.Known(decimal.NewFromInt(100)),
		types.Known(decimal.NewFromInt(21)),
		types.Amount{},
	)
	doc, ok := document.Synthesize(document.Input{
		Day:        day,
		Method:     method,
		Amounts:    amounts,
		Profile:    p,
		Number:     "BistP120000",
		HeaderText: cat.HeaderText(p, method),
		Identity:   cfg.CompanyIdentity,
		Bank:       cfg.Bank,
		Payment:    cfg.PaymentIDs[string(method)],
		Labels:     cfg.Labels,
	})
	if !ok {
		t.Fatal("no document")
	}
	return doc
}

func TestDocTag(t *testing.T) {
	tests := map[types.Method]string{
		types.Cash:     "voucher",
		types.Card:     "invoice_card",
		types.Voucher:  "invoice_voucher",
		types.Cashless: "invoice_cashless",
	}
	for method, want := range tests {
		if got := DocTag(method); got != want {
			t.Errorf("DocTag(%s) = %q, want %q", method, got, want)
		}
	}
}

func TestBuildIdentity(t *testing.T) {
	cfg := config.Default()
	cat := catalog.New(cfg)

	env := Build(cfg, cat, day, "Bistro", bistroDocument(t, cfg, types.Cash), nil)
	if env.Key != "a92e2444-f2c5-5341-9467-61219345648d" {
		t.Errorf("Key = %s", env.Key)
	}
	if env.ID != "Usr01" || env.ItemID != "Usr01 (001)" || env.Version != "2.0" || env.ItemVersion != "2.0" {
		t.Errorf("identity = %+v", env)
	}
	if env.Note != "Uživatelský export, Datum = 03.06.2025, Text = tržby" {
		t.Errorf("Note = %q", env.Note)
	}

	note := cat.InvoiceNote(day, types.Card)
	inv := Build(cfg, cat, day, "Bistro", bistroDocument(t, cfg, types.Card), &note)
	if inv.Note != "Uživatelský export, Datum = 03.06.2025, Text = kartou" {
		t.Errorf("invoice Note = %q", inv.Note)
	}
	if inv.Key == env.Key {
		t.Errorf("voucher and card invoice share a key")
	}
}

func TestMarshalWindows1250(t *testing.T) {
	cfg := config.Default()
	env := Build(cfg, catalog.New(cfg), day, "Bistro", bistroDocument(t, cfg, types.Cash), nil)

	raw, err := env.Marshal(xmlwriter.DefaultOptions())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	decoded, err := charmap.Windows1250.NewDecoder().Bytes(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := string(decoded)

	wantRoot := `<dat:dataPack xmlns:dat="http://www.stormware.cz/schema/version_2/data.xsd"` +
		` version="2.0" id="Usr01" ico="17126240" key="a92e2444-f2c5-5341-9467-61219345648d"` +
		` programVersion="14005.6 SQL (14.7.2025)" application="Transformace"` +
		` note="Uživatelský export, Datum = 03.06.2025, Text = tržby">`

	lines := strings.Split(out, "\n")
	if lines[0] != `<?xml version="1.0" encoding="Windows-1250"?>` {
		t.Errorf("declaration = %q", lines[0])
	}
	if lines[1] != wantRoot {
		t.Errorf("root = %q\nwant %q", lines[1], wantRoot)
	}
	if lines[2] != `  <dat:dataPackItem version="2.0" id="Usr01 (001)">` {
		t.Errorf("item = %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], `    <vch:voucher xmlns:vch=`) {
		t.Errorf("document = %q", lines[3])
	}
	if !strings.HasSuffix(out, "</dat:dataPack>\n") {
		t.Errorf("missing closing tag")
	}
}

func TestMarshalRejectsUnencodableText(t *testing.T) {
	cfg := config.Default()
	doc := bistroDocument(t, cfg, types.Cash)
	doc.Header.Text = "Tržby ✓"

	_, err := Build(cfg, catalog.New(cfg), day, "Bistro", doc, nil).Marshal(xmlwriter.DefaultOptions())
	if _, ok := err.(*xmlwriter.EncodingError); !ok {
		t.Errorf("expected *EncodingError, got %v", err)
	}
}

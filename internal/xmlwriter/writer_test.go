package xmlwriter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func sampleTree() *Element {
	root := New(Data, "dataPack").Declare(Data).Attr("version", "2.0").Attr("note", `a "b" & c`)
	item := root.Child(Data, "dataPackItem").Attr("id", "Usr01 (001)")
	hdr := item.Child(Voucher, "voucherHeader").Declare(SectionNamespaces...)
	hdr.Leaf(Voucher, "text", "Tržby hotově <1>")
	hdr.Child(Type, "round").Leaf(Type, "priceRound", "0")
	hdr.Leaf(Voucher, "empty", "")
	return root
}

func TestMarshalUTF8Layout(t *testing.T) {
	out, err := Marshal(sampleTree(), Options{Encoding: unicode.UTF8, DeclaredEncoding: "UTF-8"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := strings.Join([]string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<dat:dataPack xmlns:dat="http://www.stormware.cz/schema/version_2/data.xsd" version="2.0" note="a &quot;b&quot; &amp; c">`,
		`  <dat:dataPackItem id="Usr01 (001)">`,
		`    <vch:voucherHeader xmlns:rsp="http://www.stormware.cz/schema/version_2/response.xsd" xmlns:rdc="http://www.stormware.cz/schema/version_2/documentresponse.xsd" xmlns:typ="http://www.stormware.cz/schema/version_2/type.xsd" xmlns:ftr="http://www.stormware.cz/schema/version_2/filter.xsd" xmlns:lst="http://www.stormware.cz/schema/version_2/list.xsd">`,
		`      <vch:text>Tržby hotově &lt;1&gt;</vch:text>`,
		`      <typ:round>`,
		`        <typ:priceRound>0</typ:priceRound>`,
		`      </typ:round>`,
		`      <vch:empty/>`,
		`    </vch:voucherHeader>`,
		`  </dat:dataPackItem>`,
		`</dat:dataPack>`,
		``,
	}, "\n")

	if string(out) != want {
		t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
	}
}

func TestMarshalWindows1250(t *testing.T) {
	out, err := Marshal(sampleTree(), DefaultOptions())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	if !bytes.HasPrefix(out, []byte(`<?xml version="1.0" encoding="Windows-1250"?>`)) {
		t.Errorf("missing declaration: %q", out[:60])
	}

	// "ž" is 0x9E and "ě" is 0xEC in code page 1250.
	if !bytes.Contains(out, []byte{'T', 'r', 0x9E, 'b', 'y', ' ', 'h', 'o', 't', 'o', 'v', 0xEC}) {
		t.Errorf("text not encoded as Windows-1250")
	}

	decoded, err := charmap.Windows1250.NewDecoder().Bytes(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(string(decoded), "Tržby hotově") {
		t.Errorf("round trip lost text: %s", decoded)
	}
}

func TestMarshalUnencodableRune(t *testing.T) {
	root := New(Data, "dataPack")
	root.Leaf(Type, "text", "šipka → dál")

	_, err := Marshal(root, DefaultOptions())

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodingError, got %v", err)
	}
	if encErr.Rune != '→' {
		t.Errorf("rune = %q, want →", encErr.Rune)
	}
}

func TestMarshalRejectsControlCharacters(t *testing.T) {
	tests := []struct {
		name string
		tree *Element
		want rune
	}{
		{"text", New(Data, "dataPack").Leaf(Type, "text", "a\x01b"), 0x01},
		{"attribute", New(Data, "dataPack").Attr("note", "a\x0Bb"), 0x0B},
	}
	for _, tt := range tests {
		for _, opts := range []Options{DefaultOptions(), {Encoding: unicode.UTF8, DeclaredEncoding: "UTF-8"}} {
			t.Run(tt.name+"/"+opts.DeclaredEncoding, func(t *testing.T) {
				_, err := Marshal(tt.tree, opts)
				var ice *InvalidCharError
				if !errors.As(err, &ice) || ice.Rune != tt.want {
					t.Errorf("err = %v, want *InvalidCharError for U+%04X", err, tt.want)
				}
			})
		}
	}

	root := New(Data, "dataPack")
	root.Leaf(Type, "text", "line\tone\r\nline two")
	if _, err := Marshal(root, DefaultOptions()); err != nil {
		t.Errorf("tab and line breaks rejected: %v", err)
	}
}

func TestFind(t *testing.T) {
	root := sampleTree()
	item := root.Find("dat:dataPackItem")
	if item == nil {
		t.Fatal("dataPackItem not found")
	}
	if item.Find("vch:voucherHeader") == nil {
		t.Error("voucherHeader not found")
	}
	if root.Find("vch:voucherHeader") != nil {
		t.Error("Find must only look at direct children")
	}
}

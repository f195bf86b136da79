package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// encodings maps accepted configuration spellings to the code page and the
// name written into the XML declaration.
var encodings = map[string]struct {
	enc      encoding.Encoding
	declared string
}{
	"windows-1250": {charmap.Windows1250, "Windows-1250"},
	"cp1250":       {charmap.Windows1250, "Windows-1250"},
	"iso-8859-2":   {charmap.ISO8859_2, "ISO-8859-2"},
	"latin2":       {charmap.ISO8859_2, "ISO-8859-2"},
	"utf-8":        {unicode.UTF8, "UTF-8"},
	"utf8":         {unicode.UTF8, "UTF-8"},
}

// EncodingByName resolves a configured encoding name (case-insensitive).
func EncodingByName(name string) (encoding.Encoding, error) {
	e, ok := encodings[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return e.enc, nil
}

// DeclaredEncoding returns the canonical name for the XML declaration.
func DeclaredEncoding(name string) string {
	if e, ok := encodings[strings.ToLower(strings.TrimSpace(name))]; ok {
		return e.declared
	}
	return name
}

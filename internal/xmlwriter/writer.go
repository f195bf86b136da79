// =============================================================================
// Revenue XML - XML Writer Module
// =============================================================================
//
// This module serializes the accounting documents into the byte-exact form
// the bookkeeping import expects. It keeps its own element tree instead of
// struct tags so that prefixes, namespace declarations and attribute order
// are written exactly where the importer's reference files have them.
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="Windows-1250"?>
//   <dat:dataPack xmlns:dat="..." version="2.0" id="Usr01" ...>
//     <dat:dataPackItem version="2.0" id="Usr01 (001)">
//       <vch:voucher xmlns:vch="..." version="2.0">
//         <vch:voucherHeader xmlns:rsp="..." xmlns:rdc="..." xmlns:typ="..." ...>
//           <vch:voucherType>receipt</vch:voucherType>
//           ...
//
// ENCODING:
//   The tree is rendered as UTF-8 and then transcoded into the configured
//   code page. A rune the code page cannot represent fails the document
//   with an *EncodingError, and a character XML 1.0 forbids (control
//   characters other than tab, newline and carriage return) fails it with
//   an *InvalidCharError. Nothing is silently replaced.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// =============================================================================
// NAMESPACES
// =============================================================================

// Namespace is a prefix bound to a schema URI.
type Namespace struct {
	Prefix string
	URI    string
}

// The importer's fixed namespaces.
var (
	Data             = Namespace{"dat", "http://www.stormware.cz/schema/version_2/data.xsd"}
	Invoice          = Namespace{"inv", "http://www.stormware.cz/schema/version_2/invoice.xsd"}
	Voucher          = Namespace{"vch", "http://www.stormware.cz/schema/version_2/voucher.xsd"}
	Type             = Namespace{"typ", "http://www.stormware.cz/schema/version_2/type.xsd"}
	Response         = Namespace{"rsp", "http://www.stormware.cz/schema/version_2/response.xsd"}
	DocumentResponse = Namespace{"rdc", "http://www.stormware.cz/schema/version_2/documentresponse.xsd"}
	Filter           = Namespace{"ftr", "http://www.stormware.cz/schema/version_2/filter.xsd"}
	List             = Namespace{"lst", "http://www.stormware.cz/schema/version_2/list.xsd"}
)

// SectionNamespaces are declared on every header, detail and summary block.
var SectionNamespaces = []Namespace{Response, DocumentResponse, Type, Filter, List}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// Attr is a single attribute. Attributes keep insertion order.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the output tree.
//
// An element has either Text or Children. Namespace declarations are written
// before regular attributes.
type Element struct {
	NS       Namespace
	Local    string
	Declares []Namespace
	Attrs    []Attr
	Text     string
	Children []*Element
}

// New creates an element in namespace ns.
func New(ns Namespace, local string) *Element {
	return &Element{NS: ns, Local: local}
}

// Name returns the qualified name, e.g. "inv:invoiceHeader".
func (e *Element) Name() string {
	if e.NS.Prefix == "" {
		return e.Local
	}
	return e.NS.Prefix + ":" + e.Local
}

// Declare adds xmlns declarations to the element.
func (e *Element) Declare(ns ...Namespace) *Element {
	e.Declares = append(e.Declares, ns...)
	return e
}

// Attr appends an attribute.
func (e *Element) Attr(name, value string) *Element {
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// Append adds children and returns e.
func (e *Element) Append(children ...*Element) *Element {
	e.Children = append(e.Children, children...)
	return e
}

// Child creates, appends and returns a new child element.
func (e *Element) Child(ns Namespace, local string) *Element {
	c := New(ns, local)
	e.Children = append(e.Children, c)
	return c
}

// Leaf appends a text-only child and returns e, so leaves can be chained.
func (e *Element) Leaf(ns Namespace, local, text string) *Element {
	c := New(ns, local)
	c.Text = text
	e.Children = append(e.Children, c)
	return e
}

// Find returns the first direct child with the given qualified name.
func (e *Element) Find(name string) *Element {
	for _, c := range e.Children {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// =============================================================================
// SERIALIZATION OPTIONS
// =============================================================================

// Options controls serialization.
type Options struct {
	// Indent is repeated once per nesting level.
	// Default: "  " (two spaces)
	Indent string

	// Encoding is the target character set.
	// Default: charmap.Windows1250
	Encoding encoding.Encoding

	// DeclaredEncoding is the name written into the XML declaration.
	// Default: "Windows-1250"
	DeclaredEncoding string
}

// DefaultOptions returns the importer's expected output settings.
func DefaultOptions() Options {
	return Options{
		Indent:           "  ",
		Encoding:         charmap.Windows1250,
		DeclaredEncoding: "Windows-1250",
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// EncodingError reports a character the target code page cannot hold.
type EncodingError struct {
	Encoding string
	Rune     rune

	// Context is the text value the rune appeared in.
	Context string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("character %q (U+%04X) cannot be encoded as %s in %q", e.Rune, e.Rune, e.Encoding, e.Context)
}

// InvalidCharError reports a character that XML 1.0 does not allow.
type InvalidCharError struct {
	Rune    rune
	Context string
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("character U+%04X is not allowed in XML in %q", e.Rune, e.Context)
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Marshal renders the tree rooted at root.
//
// PARAMETERS:
//   - root: The document element.
//   - opts: Serialization options; zero fields take the defaults.
//
// RETURNS:
//   - The encoded document including the XML declaration.
//   - An *InvalidCharError when a text or attribute value holds a character
//     XML forbids.
//   - An *EncodingError when a text or attribute value is not representable.
func Marshal(root *Element, opts Options) ([]byte, error) {
	def := DefaultOptions()
	if opts.Indent == "" {
		opts.Indent = def.Indent
	}
	if opts.Encoding == nil {
		opts.Encoding = def.Encoding
		opts.DeclaredEncoding = def.DeclaredEncoding
	}
	if opts.DeclaredEncoding == "" {
		opts.DeclaredEncoding = def.DeclaredEncoding
	}

	// Check representability before rendering so the error names the value
	// that failed rather than a byte offset.
	cm, _ := opts.Encoding.(*charmap.Charmap)
	if err := checkRepertoire(root, cm, opts.DeclaredEncoding); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	fmt.Fprintf(&buffer, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", opts.DeclaredEncoding)
	writeElement(&buffer, root, opts.Indent, 0)

	out, err := opts.Encoding.NewEncoder().Bytes(buffer.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode XML as %s: %w", opts.DeclaredEncoding, err)
	}
	return out, nil
}

// checkRepertoire walks the tree and reports the first rune that is not an
// XML character or, when cm is set, cannot be encoded in it.
func checkRepertoire(e *Element, cm *charmap.Charmap, name string) error {
	check := func(s string) error {
		for _, r := range s {
			if !isXMLChar(r) {
				return &InvalidCharError{Rune: r, Context: s}
			}
			if cm == nil {
				continue
			}
			if _, ok := cm.EncodeRune(r); !ok {
				return &EncodingError{Encoding: name, Rune: r, Context: s}
			}
		}
		return nil
	}

	if err := check(e.Text); err != nil {
		return err
	}
	for _, a := range e.Attrs {
		if err := check(a.Value); err != nil {
			return err
		}
	}
	for _, c := range e.Children {
		if err := checkRepertoire(c, cm, name); err != nil {
			return err
		}
	}
	return nil
}

// isXMLChar reports whether r matches the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	}
	return r >= 0x10000 && r <= 0x10FFFF
}

// writeElement writes an element and its subtree with indentation.
func writeElement(buffer *bytes.Buffer, element *Element, indent string, level int) {
	pad := strings.Repeat(indent, level)
	buffer.WriteString(pad)

	buffer.WriteString("<")
	buffer.WriteString(element.Name())

	for _, ns := range element.Declares {
		fmt.Fprintf(buffer, " xmlns:%s=\"%s\"", ns.Prefix, escapeAttr(ns.URI))
	}
	for _, attr := range element.Attrs {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr.Name, escapeAttr(attr.Value))
	}

	if len(element.Children) == 0 && element.Text == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeText(element.Text))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(pad)
	}

	buffer.WriteString("</")
	buffer.WriteString(element.Name())
	buffer.WriteString(">\n")
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }

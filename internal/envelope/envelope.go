// =============================================================================
// Revenue XML - Envelope Builder
// =============================================================================
//
// Every document is written inside its own dataPack envelope:
//
//   <dat:dataPack xmlns:dat="..." version id ico key programVersion
//                 application note>
//     <dat:dataPackItem version="2.0" id="Usr01 (001)">
//       ... one voucher or invoice ...
//     </dat:dataPackItem>
//   </dat:dataPack>
//
// Attribute order is fixed and matches the importer's reference files.
//
// =============================================================================

package envelope

import (
	"time"

	"github.com/ginjaninja78/revenue-xml/internal/catalog"
	"github.com/ginjaninja78/revenue-xml/internal/config"
	"github.com/ginjaninja78/revenue-xml/internal/document"
	"github.com/ginjaninja78/revenue-xml/internal/types"
	"github.com/ginjaninja78/revenue-xml/internal/xmlwriter"
)

// Envelope is one dataPack wrapping a single document.
type Envelope struct {
	ID             string
	Version        string
	ICO            string
	Key            string
	ProgramVersion string
	Application    string
	Note           string

	ItemID      string
	ItemVersion string

	Document *document.Document
}

// DocTag returns the document tag that feeds the envelope key.
func DocTag(method types.Method) string {
	if method.IsInvoice() {
		return "invoice_" + string(method)
	}
	return "voucher"
}

// Build wraps doc for the given day and outlet.
//
// PARAMETERS:
//   - cfg: The loaded settings (envelope identity).
//   - cat: The catalog resolving the key and note.
//   - day: The document day.
//   - outlet: The outlet name.
//   - doc: The document to wrap.
//   - noteOverride: When non-nil, used as the note verbatim.
func Build(cfg *config.Config, cat *catalog.Catalog, day time.Time, outlet string, doc *document.Document, noteOverride *string) Envelope {
	return Envelope{
		ID:             cfg.EnvelopeID,
		Version:        cfg.Version,
		ICO:            cfg.ICO,
		Key:            cat.EnvelopeKey(day, outlet, DocTag(doc.Method)),
		ProgramVersion: cfg.ProgramVersion,
		Application:    cfg.Application,
		Note:           cat.NoteText(day, outlet, noteOverride),
		ItemID:         cfg.EnvelopeID + " (001)",
		ItemVersion:    "2.0",
		Document:       doc,
	}
}

// Element renders the envelope tree.
func (e Envelope) Element() *xmlwriter.Element {
	root := xmlwriter.New(xmlwriter.Data, "dataPack").
		Declare(xmlwriter.Data).
		Attr("version", e.Version).
		Attr("id", e.ID).
		Attr("ico", e.ICO).
		Attr("key", e.Key).
		Attr("programVersion", e.ProgramVersion).
		Attr("application", e.Application).
		Attr("note", e.Note)

	root.Child(xmlwriter.Data, "dataPackItem").
		Attr("version", e.ItemVersion).
		Attr("id", e.ItemID).
		Append(e.Document.Element())

	return root
}

// Marshal renders and encodes the envelope.
func (e Envelope) Marshal(opts xmlwriter.Options) ([]byte, error) {
	return xmlwriter.Marshal(e.Element(), opts)
}

package document

import (
	"github.com/ginjaninja78/revenue-xml/internal/types"
	"github.com/ginjaninja78/revenue-xml/internal/xmlwriter"
)

const dateLayout = "2006-01-02"

// Element renders the document as an element tree rooted at vch:voucher or
// inv:invoice. Element order follows the importer's reference files and must
// not be changed.
func (d *Document) Element() *xmlwriter.Element {
	ns, prefix := xmlwriter.Voucher, "voucher"
	if d.Kind == Invoice {
		ns, prefix = xmlwriter.Invoice, "invoice"
	}

	root := xmlwriter.New(ns, prefix).Declare(ns).Attr("version", "2.0")

	header := root.Child(ns, prefix+"Header").Declare(xmlwriter.SectionNamespaces...)
	if d.Kind == Invoice {
		d.invoiceHeader(header, ns)
	} else {
		d.voucherHeader(header, ns)
	}

	detail := root.Child(ns, prefix+"Detail").Declare(xmlwriter.SectionNamespaces...)
	for _, item := range d.Items {
		detail.Append(item.element(ns, prefix+"Item"))
	}

	summary := root.Child(ns, prefix+"Summary").Declare(xmlwriter.SectionNamespaces...)
	d.summary(summary, ns)

	return root
}

func (d *Document) voucherHeader(h *xmlwriter.Element, ns xmlwriter.Namespace) {
	hd := d.Header
	date := hd.Date.Format(dateLayout)

	h.Leaf(ns, "voucherType", "receipt")
	h.Append(ids(ns, "cashAccount", hd.CashAccount))
	h.Child(ns, "number").Leaf(xmlwriter.Type, "numberRequested", hd.Number)
	h.Leaf(ns, "date", date).
		Leaf(ns, "datePayment", date).
		Leaf(ns, "dateTax", date)
	h.Append(
		ids(ns, "accounting", hd.Accounting),
		ids(ns, "classificationVAT", hd.ClassificationVAT),
	)
	h.Leaf(ns, "text", hd.Text)
	h.Append(identity(ns, hd))
	h.Append(ids(ns, "centre", hd.Centre))
	h.Leaf(ns, "lock2", "false").Leaf(ns, "markRecord", "false")

	if len(hd.Labels) > 0 {
		labels := h.Child(ns, "labels")
		for _, label := range hd.Labels {
			labels.Append(ids(xmlwriter.Type, "label", label))
		}
	}
}

func (d *Document) invoiceHeader(h *xmlwriter.Element, ns xmlwriter.Namespace) {
	hd := d.Header
	date := hd.Date.Format(dateLayout)

	h.Leaf(ns, "invoiceType", "receivable")
	h.Child(ns, "number").Leaf(xmlwriter.Type, "numberRequested", hd.Number)
	h.Leaf(ns, "symVar", hd.Number)
	h.Leaf(ns, "date", date).
		Leaf(ns, "dateTax", date).
		Leaf(ns, "dateAccounting", date).
		Leaf(ns, "dateDue", date)
	h.Append(
		ids(ns, "accounting", hd.Accounting),
		ids(ns, "classificationVAT", hd.ClassificationVAT),
	)
	h.Leaf(ns, "text", hd.Text)
	h.Append(identity(ns, hd))

	payment := ids(ns, "paymentType", hd.Payment.IDs)
	if hd.Payment.PaymentType != "" {
		payment.Leaf(xmlwriter.Type, "paymentType", hd.Payment.PaymentType)
	}
	h.Append(payment)

	h.Child(ns, "account").
		Leaf(xmlwriter.Type, "ids", hd.Bank.IDs).
		Leaf(xmlwriter.Type, "accountNo", hd.Bank.AccountNo).
		Leaf(xmlwriter.Type, "bankCode", hd.Bank.BankCode)
	h.Leaf(ns, "symConst", hd.Bank.SymConst)
	h.Append(ids(ns, "centre", hd.Centre))
	h.Child(ns, "liquidation").Leaf(xmlwriter.Type, "date", hd.Liquidation.Format(dateLayout))
	h.Leaf(ns, "lock2", "false").Leaf(ns, "markRecord", "false")
}

func (it Item) element(ns xmlwriter.Namespace, local string) *xmlwriter.Element {
	a := it.Amounts
	e := xmlwriter.New(ns, local).
		Leaf(ns, "text", it.Text).
		Leaf(ns, "quantity", "1.0").
		Leaf(ns, "coefficient", "1.0").
		Leaf(ns, "payVAT", "false").
		Leaf(ns, "rateVAT", it.Tier.String()).
		Leaf(ns, "discountPercentage", "0.0")

	e.Child(ns, "homeCurrency").
		Leaf(xmlwriter.Type, "unitPrice", FormatAmount(a.Base)).
		Leaf(xmlwriter.Type, "price", FormatAmount(a.Base)).
		Leaf(xmlwriter.Type, "priceVAT", FormatAmount(a.VAT)).
		Leaf(xmlwriter.Type, "priceSum", FormatAmount(a.Sum()))

	e.Append(ids(ns, "accounting", it.Account))
	if it.Tier == types.None {
		e.Append(ids(ns, "classificationVAT", classificationNone).
			Leaf(xmlwriter.Type, "classificationVATType", classificationNoneTyp))
	}
	return e.Leaf(ns, "PDP", "false")
}

func (d *Document) summary(s *xmlwriter.Element, ns xmlwriter.Namespace) {
	t := d.Summary.Totals

	s.Leaf(ns, "roundingDocument", d.Summary.RoundingDocument).
		Leaf(ns, "roundingVAT", d.Summary.RoundingVAT).
		Leaf(ns, "typeCalculateVATInclusivePrice", d.Summary.CalculationMode)

	home := s.Child(ns, "homeCurrency").
		Leaf(xmlwriter.Type, "priceNone", FormatAmount(t[types.None].Base)).
		Leaf(xmlwriter.Type, "priceLow", FormatAmount(t[types.Low].Base)).
		Leaf(xmlwriter.Type, "priceLowVAT", FormatAmount(t[types.Low].VAT)).
		Leaf(xmlwriter.Type, "priceLowSum", FormatAmount(t[types.Low].Sum())).
		Leaf(xmlwriter.Type, "priceHigh", FormatAmount(t[types.High].Base)).
		Leaf(xmlwriter.Type, "priceHighVAT", FormatAmount(t[types.High].VAT)).
		Leaf(xmlwriter.Type, "priceHighSum", FormatAmount(t[types.High].Sum()))
	home.Child(xmlwriter.Type, "round").Leaf(xmlwriter.Type, "priceRound", "0")
}

// ids builds <ns:local><typ:ids>value</typ:ids></ns:local>.
func ids(ns xmlwriter.Namespace, local, value string) *xmlwriter.Element {
	return xmlwriter.New(ns, local).Leaf(xmlwriter.Type, "ids", value)
}

func identity(ns xmlwriter.Namespace, hd Header) *xmlwriter.Element {
	id := hd.Identity
	my := xmlwriter.New(ns, "myIdentity")
	my.Child(xmlwriter.Type, "address").
		Leaf(xmlwriter.Type, "company", id.Company).
		Leaf(xmlwriter.Type, "city", id.City).
		Leaf(xmlwriter.Type, "street", id.Street).
		Leaf(xmlwriter.Type, "number", id.Number).
		Leaf(xmlwriter.Type, "zip", id.Zip).
		Leaf(xmlwriter.Type, "ico", id.ICO).
		Leaf(xmlwriter.Type, "dic", id.DIC)
	return my
}

// Package pdf renders invoice documents as A4 PDFs.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/sangkips/quickbill-api/internal/domain/entity"
)

const dateLayout = "02 Jan 2006"

// Renderer turns an invoice document into PDF bytes
type Renderer interface {
	Render(doc *entity.InvoiceDocument) ([]byte, error)
}

// GoFPDFRenderer renders with gofpdf core fonts
type GoFPDFRenderer struct {
	// Currency is prefixed to every amount, e.g. "$"
	Currency string
}

// NewRenderer creates a gofpdf backed renderer
func NewRenderer(currency string) *GoFPDFRenderer {
	return &GoFPDFRenderer{Currency: currency}
}

func (r *GoFPDFRenderer) Render(doc *entity.InvoiceDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr("Invoice "+doc.InvoiceNumber), false)
	pdf.AddPage()

	// Title and issuer
	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(100, 10, "INVOICE")
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(90, 10, tr(doc.Header.Name), "", 1, "R", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	for _, line := range []string{doc.Header.Address, doc.Header.Phone, doc.Header.Email} {
		if line == "" {
			continue
		}
		pdf.CellFormat(190, 5, tr(line), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	// Bill to on the left, invoice meta on the right
	top := pdf.GetY()
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(95, 6, "Bill To:")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 5, tr(doc.ClientName))
	pdf.Ln(5)
	for _, line := range doc.ClientAddress {
		pdf.Cell(95, 5, tr(line))
		pdf.Ln(5)
	}
	if doc.ClientEmail != "" {
		pdf.Cell(95, 5, tr(doc.ClientEmail))
		pdf.Ln(5)
	}
	bottom := pdf.GetY()

	pdf.SetXY(115, top)
	meta := [][2]string{
		{"Invoice #", doc.InvoiceNumber},
		{"Issue date", doc.IssueDate.Format(dateLayout)},
		{"Due date", doc.DueDate.Format(dateLayout)},
		{"Status", doc.Status},
	}
	for _, kv := range meta {
		pdf.SetX(115)
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(35, 6, kv[0])
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(40, 6, tr(kv[1]), "", 1, "R", false, 0, "")
	}
	if pdf.GetY() < bottom {
		pdf.SetY(bottom)
	}
	pdf.Ln(8)

	// Items table
	widths := []float64{80, 22, 30, 22, 36}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(235, 235, 235)
	for i, head := range []string{"Description", "Qty", "Unit price", "Tax %", "Amount"} {
		pdf.CellFormat(widths[i], 8, head, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, it := range doc.Items {
		lines := pdf.SplitLines([]byte(tr(it.Description)), widths[0]-2)
		rowHeight := float64(len(lines)) * 5
		if rowHeight < 7 {
			rowHeight = 7
		}
		x, y := pdf.GetX(), pdf.GetY()
		pdf.Rect(x, y, widths[0], rowHeight, "D")
		for i, line := range lines {
			pdf.SetXY(x+1, y+float64(i)*5+1)
			pdf.Cell(widths[0]-2, 5, string(line))
		}
		pdf.SetXY(x+widths[0], y)
		pdf.CellFormat(widths[1], rowHeight, it.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], rowHeight, r.money(it.UnitPrice.StringFixed(2)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], rowHeight, it.TaxRate.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], rowHeight, r.money(it.Amount.StringFixed(2)), "1", 1, "R", false, 0, "")
	}

	// Totals, printed from the stored values
	pdf.Ln(4)
	totals := [][2]string{
		{"Subtotal", doc.Subtotal.StringFixed(2)},
		{"Tax", doc.TotalTax.StringFixed(2)},
	}
	pdf.SetFont("Arial", "", 10)
	for _, kv := range totals {
		pdf.CellFormat(154, 7, kv[0]+":", "", 0, "R", false, 0, "")
		pdf.CellFormat(36, 7, r.money(kv[1]), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(154, 9, "Total:", "", 0, "R", false, 0, "")
	pdf.CellFormat(36, 9, r.money(doc.TotalAmount.StringFixed(2)), "T", 1, "R", false, 0, "")

	if doc.PaymentTerms != "" || doc.Notes != "" {
		pdf.Ln(8)
	}
	if doc.PaymentTerms != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, "Payment terms:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, tr(doc.PaymentTerms), "", "L", false)
		pdf.Ln(2)
	}
	if doc.Notes != "" {
		pdf.SetFont("Arial", "B", 10)
		pdf.Cell(40, 6, "Notes:")
		pdf.Ln(6)
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(190, 5, tr(doc.Notes), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice %s: %w", doc.InvoiceNumber, err)
	}
	return buf.Bytes(), nil
}

func (r *GoFPDFRenderer) money(amount string) string {
	return r.Currency + amount
}

package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/sangkips/quickbill-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const pdfContentType = "application/pdf"

// EstimateSummary is what an estimate email shows
type EstimateSummary struct {
	Number         string
	IssuerName     string
	ClientName     string
	ValidUntil     time.Time
	Items          []entity.DocumentLine
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalTax       decimal.Decimal
	TotalAmount    decimal.Decimal
	Notes          string
}

var templates = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("January 2, 2006") },
}).Parse(layoutTemplate))

func init() {
	template.Must(templates.New("invoice").Parse(invoiceTemplate))
	template.Must(templates.New("reminder").Parse(reminderTemplate))
	template.Must(templates.New("estimate").Parse(estimateTemplate))
}

// NewInvoiceMessage builds the email that delivers an invoice with its PDF attached
func NewInvoiceMessage(doc *entity.InvoiceDocument, to string, pdf []byte) (*Message, error) {
	body, err := render("invoice", doc)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   doc.ClientName,
		ReplyTo:  doc.Header.Email,
		FromName: doc.Header.Name,
		Subject:  fmt.Sprintf("Invoice %s from %s", doc.InvoiceNumber, doc.Header.Name),
		HTMLBody: body,
		Attachments: []Attachment{
			{Filename: doc.InvoiceNumber + ".pdf", ContentType: pdfContentType, Data: pdf},
		},
	}, nil
}

// NewReminderMessage builds a payment reminder for an overdue invoice
func NewReminderMessage(doc *entity.InvoiceDocument, to string, daysOverdue int, pdf []byte) (*Message, error) {
	body, err := render("reminder", struct {
		*entity.InvoiceDocument
		DaysOverdue int
	}{doc, daysOverdue})
	if err != nil {
		return nil, err
	}
	msg := &Message{
		To:       to,
		ToName:   doc.ClientName,
		ReplyTo:  doc.Header.Email,
		FromName: doc.Header.Name,
		Subject:  fmt.Sprintf("Payment reminder: invoice %s is %d days overdue", doc.InvoiceNumber, daysOverdue),
		HTMLBody: body,
	}
	if len(pdf) > 0 {
		msg.Attachments = []Attachment{
			{Filename: doc.InvoiceNumber + ".pdf", ContentType: pdfContentType, Data: pdf},
		}
	}
	return msg, nil
}

// NewEstimateMessage builds the email that shares an estimate with a client
func NewEstimateMessage(est *EstimateSummary, to, replyTo string) (*Message, error) {
	body, err := render("estimate", est)
	if err != nil {
		return nil, err
	}
	return &Message{
		To:       to,
		ToName:   est.ClientName,
		ReplyTo:  replyTo,
		FromName: est.IssuerName,
		Subject:  fmt.Sprintf("Estimate %s from %s", est.Number, est.IssuerName),
		HTMLBody: body,
	}, nil
}

func render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s email: %w", name, err)
	}
	return buf.String(), nil
}

const layoutTemplate = `{{define "items"}}
<table role="presentation" style="width: 100%; border-collapse: collapse; margin: 20px 0;">
    <tr style="background-color: #f8fafc;">
        <th style="text-align: left; padding: 8px; border-bottom: 1px solid #e2e8f0;">Description</th>
        <th style="text-align: right; padding: 8px; border-bottom: 1px solid #e2e8f0;">Qty</th>
        <th style="text-align: right; padding: 8px; border-bottom: 1px solid #e2e8f0;">Unit price</th>
        <th style="text-align: right; padding: 8px; border-bottom: 1px solid #e2e8f0;">Tax %</th>
        <th style="text-align: right; padding: 8px; border-bottom: 1px solid #e2e8f0;">Amount</th>
    </tr>
    {{range .}}
    <tr>
        <td style="padding: 8px; border-bottom: 1px solid #edf2f7;">{{.Description}}</td>
        <td style="text-align: right; padding: 8px; border-bottom: 1px solid #edf2f7;">{{.Quantity}}</td>
        <td style="text-align: right; padding: 8px; border-bottom: 1px solid #edf2f7;">{{money .UnitPrice}}</td>
        <td style="text-align: right; padding: 8px; border-bottom: 1px solid #edf2f7;">{{.TaxRate}}</td>
        <td style="text-align: right; padding: 8px; border-bottom: 1px solid #edf2f7;">{{money .Amount}}</td>
    </tr>
    {{end}}
</table>
{{end}}
{{define "header"}}<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="max-width: 600px; margin: 40px auto; background-color: #ffffff; border-radius: 12px;">
        <tr>
            <td style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; text-align: center;">
                <h1 style="color: #ffffff; margin: 0; font-size: 24px;">{{.}}</h1>
            </td>
        </tr>
        <tr>
            <td style="padding: 30px; color: #4a5568; font-size: 15px; line-height: 1.6;">
{{end}}
{{define "footer"}}
            </td>
        </tr>
        <tr>
            <td style="background-color: #f8fafc; padding: 20px; text-align: center; color: #a0aec0; font-size: 13px;">
                Sent with QuickBill
            </td>
        </tr>
    </table>
</body>
</html>
{{end}}`

const invoiceTemplate = `{{template "header" .Header.Name}}
<p>Dear {{.ClientName}},</p>
<p>Please find attached invoice <strong>{{.InvoiceNumber}}</strong> issued on {{date .IssueDate}}.</p>
{{template "items" .Items}}
<p style="text-align: right;">Subtotal: {{money .Subtotal}}<br>Tax: {{money .TotalTax}}<br>
<strong>Total due: {{money .TotalAmount}}</strong></p>
<p>Payment is due by <strong>{{date .DueDate}}</strong>.</p>
{{if .PaymentTerms}}<p>Payment terms: {{.PaymentTerms}}</p>{{end}}
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<p>Thank you for your business.<br>{{.Header.Name}}</p>
{{template "footer"}}`

const reminderTemplate = `{{template "header" .Header.Name}}
<p>Dear {{.ClientName}},</p>
<p>This is a friendly reminder that invoice <strong>{{.InvoiceNumber}}</strong> for
<strong>{{money .TotalAmount}}</strong> was due on {{date .DueDate}} and is now
<strong>{{.DaysOverdue}} days overdue</strong>.</p>
<p>If you have already paid, please disregard this message.</p>
{{if .PaymentTerms}}<p>Payment terms: {{.PaymentTerms}}</p>{{end}}
<p>Kind regards,<br>{{.Header.Name}}</p>
{{template "footer"}}`

const estimateTemplate = `{{template "header" .IssuerName}}
<p>Dear {{.ClientName}},</p>
<p>Here is estimate <strong>{{.Number}}</strong>, valid until {{date .ValidUntil}}.</p>
{{template "items" .Items}}
<p style="text-align: right;">Subtotal: {{money .Subtotal}}<br>Discount: {{money .DiscountAmount}}<br>
Tax: {{money .TotalTax}}<br><strong>Total: {{money .TotalAmount}}</strong></p>
{{if .Notes}}<p>{{.Notes}}</p>{{end}}
<p>Kind regards,<br>{{.IssuerName}}</p>
{{template "footer"}}`

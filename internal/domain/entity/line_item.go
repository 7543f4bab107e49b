package entity

import (
	"github.com/shopspring/decimal"
)

// LineItem is a billable line shared by invoices and estimates
type LineItem struct {
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:numeric(9,6);not null;default:0" json:"tax_rate"`
}

var hundred = decimal.NewFromInt(100)

// Amount returns quantity * unit price
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Tax returns the tax charged on the line
func (li LineItem) Tax() decimal.Decimal {
	return li.Amount().Mul(li.TaxRate).Div(hundred)
}

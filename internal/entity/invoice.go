package entity

import (
	"github.com/shopspring/decimal"
)

// InvoiceRecord is the normalized result of structured extraction.
// Every field always carries a value; absent data shows up as "" or zero.
type InvoiceRecord struct {
	InvoiceDate string          `json:"Invoice_Date"` // YYYY-MM-DD or ""
	VendorName  string          `json:"Vendor_Name"`
	NetAmount   decimal.Decimal `json:"Net_Amount"`
	TaxAmount   decimal.Decimal `json:"Tax_Amount"`
	TotalAmount decimal.Decimal `json:"Total_Amount"`
}

// InvoiceColumns is the tabular schema of an InvoiceRecord, in column order.
var InvoiceColumns = []string{"Invoice_Date", "Vendor_Name", "Net_Amount", "Tax_Amount", "Total_Amount"}

// Row renders the record in InvoiceColumns order.
func (r InvoiceRecord) Row() []string {
	return []string{
		r.InvoiceDate,
		r.VendorName,
		FormatAmount(r.NetAmount),
		FormatAmount(r.TaxAmount),
		FormatAmount(r.TotalAmount),
	}
}

// FormatAmount pads to two decimals but never rounds away precision,
// so 10.125 stays 10.125.
func FormatAmount(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

// ValidationResult is the verdict of the arithmetic check. It is derived, never stored.
type ValidationResult struct {
	Approved   bool            `json:"approved"`
	Calculated decimal.Decimal `json:"calculated"` // net + tax
	Total      decimal.Decimal `json:"total"`      // reported total
}

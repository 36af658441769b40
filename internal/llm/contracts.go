package llm

import "context"

// Target field names of the structured extraction, as the model must emit them.
const (
	FieldInvoiceDate = "Invoice_Date"
	FieldVendorName  = "Vendor_Name"
	FieldNetAmount   = "Net_Amount"
	FieldTaxAmount   = "Tax_Amount"
	FieldTotalAmount = "Total_Amount"
)

// InvoiceFieldNames lists the target fields in schema order.
var InvoiceFieldNames = []string{FieldInvoiceDate, FieldVendorName, FieldNetAmount, FieldTaxAmount, FieldTotalAmount}

// GenerateRequest is one non-streaming completion request.
type GenerateRequest struct {
	Model  string
	Prompt string
	NumCtx int  // context-size option, 0 = server default
}

// GenerateResponse carries the generated text.
type GenerateResponse struct {
	Text string
}

// Completer is the language-model service the engine depends on.
// Any transport failure or non-2xx status is returned as an error.
type Completer interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}

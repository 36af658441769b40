// Package validate is the arithmetic gate between extraction and routing.
package validate

import (
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// Tolerance is the absolute difference allowed between net+tax and the reported total.
var Tolerance = decimal.New(1, -2)

// Check approves the record iff |net + tax - total| <= Tolerance.
// An all-zero record (nothing extracted) passes.
func Check(rec entity.InvoiceRecord) entity.ValidationResult {
	calculated := rec.NetAmount.Add(rec.TaxAmount)
	return entity.ValidationResult{
		Approved:   calculated.Sub(rec.TotalAmount).Abs().LessThanOrEqual(Tolerance),
		Calculated: calculated,
		Total:      rec.TotalAmount,
	}
}

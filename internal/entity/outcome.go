package entity

import (
	"time"

	"github.com/joseph-ayodele/invoice-gate/constants"
)

// Outcome is the terminal state of one document's pipeline run.
type Outcome struct {
	Document   Document            `json:"document"`
	Status     constants.DocStatus `json:"status"`
	Record     *InvoiceRecord      `json:"record,omitempty"`
	Validation *ValidationResult   `json:"validation,omitempty"`
	Attempts   int                 `json:"attempts"` // model requests issued
	Duration   time.Duration       `json:"duration"`
	Err        error               `json:"-"`
}

// ErrorMessage returns the error text or "" when the run did not fail.
func (o Outcome) ErrorMessage() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

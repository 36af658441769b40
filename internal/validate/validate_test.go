package validate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

func rec(net, tax, total string) entity.InvoiceRecord {
	return entity.InvoiceRecord{
		NetAmount:   decimal.RequireFromString(net),
		TaxAmount:   decimal.RequireFromString(tax),
		TotalAmount: decimal.RequireFromString(total),
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		rec      entity.InvoiceRecord
		approved bool
	}{
		{"exact", rec("100", "8", "108"), true},
		{"one cent over", rec("100", "8", "108.01"), true},
		{"one cent under", rec("100", "8", "107.99"), true},
		{"just past tolerance above", rec("100", "8", "108.011"), false},
		{"just past tolerance below", rec("100", "8", "107.989"), false},
		{"mismatch", rec("100", "8", "120"), false},
		{"all zero", rec("0", "0", "0"), true},
		{"missing total", rec("100", "8", "0"), false},
		{"fractional cents", rec("0.1", "0.2", "0.3"), true},
		{"negative credit note", rec("-50", "-4", "-54"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.approved, Check(tt.rec).Approved)
		})
	}
}

func TestCheckReportsAmounts(t *testing.T) {
	res := Check(rec("100", "8", "120"))
	assert.False(t, res.Approved)
	assert.Equal(t, "108.00", res.Calculated.StringFixed(2))
	assert.Equal(t, "120.00", res.Total.StringFixed(2))
}

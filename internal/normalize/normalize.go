// Package normalize coerces the loosely typed fields a model emits into an InvoiceRecord.
// Each field is coerced independently and never fails: unusable values become "" or zero.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/invoice-gate/internal/entity"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
)

// DateLayout is the canonical output format of CleanDate.
const DateLayout = "2006-01-02"

var amountNoise = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "₹", "", ",", "")

// dayFirstLayouts are tried before dateparse, which reads dotted dates
// month-first and rejects dashed numeric ones.
var dayFirstLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2.1.06",
	"2 January 2006",
	"2 Jan 2006",
	"2-Jan-2006",
}

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// CleanAmount parses an amount, stripping currency symbols and thousands separators.
// nil, empty and unparsable inputs yield zero.
func CleanAmount(v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return t
	case float64:
		return decimal.NewFromFloat(t)
	case float32:
		return decimal.NewFromFloat32(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	case json.Number:
		return parseAmount(t.String())
	case string:
		return parseAmount(t)
	default:
		return decimal.Zero
	}
}

func parseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(amountNoise.Replace(strings.TrimSpace(s)))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// CleanDate parses a date, preferring day-first when the ordering is ambiguous,
// and returns it as YYYY-MM-DD. Failures yield "".
func CleanDate(v any) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		s = t.String()
	case time.Time:
		return t.Format(DateLayout)
	default:
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	parsed, err := dateparse.ParseAny(s,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return ""
	}
	return parsed.Format(DateLayout)
}

// CleanVendor trims the vendor name; nil yields "".
func CleanVendor(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Response recovers the JSON object from raw model text and coerces each field.
// ok is false only when no JSON object could be recovered.
func Response(raw string) (entity.InvoiceRecord, bool) {
	obj, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return entity.InvoiceRecord{}, false
	}
	return Record(obj), true
}

// Record coerces an already decoded object.
func Record(obj map[string]any) entity.InvoiceRecord {
	return entity.InvoiceRecord{
		InvoiceDate: CleanDate(lookup(obj, llm.FieldInvoiceDate)),
		VendorName:  CleanVendor(lookup(obj, llm.FieldVendorName)),
		NetAmount:   CleanAmount(lookup(obj, llm.FieldNetAmount)),
		TaxAmount:   CleanAmount(lookup(obj, llm.FieldTaxAmount)),
		TotalAmount: CleanAmount(lookup(obj, llm.FieldTotalAmount)),
	}
}

// lookup matches the key exactly, then case-insensitively.
func lookup(obj map[string]any, key string) any {
	if v, ok := obj[key]; ok {
		return v
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return nil
}

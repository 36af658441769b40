package llm

import (
	"strings"
)

// DefaultMaxTranscriptChars bounds how much of a transcript reaches the model.
// Fields printed beyond this offset are unreachable.
const DefaultMaxTranscriptChars = 1500

// Strategy names, in the order the engine tries them.
const (
	StrategyPrimary  = "primary"
	StrategyFallback = "fallback"
)

// PromptBuilder wraps a (truncated) transcript into a complete prompt.
type PromptBuilder func(transcript string) string

// PromptStrategy is a named PromptBuilder.
type PromptStrategy struct {
	Name  string
	Build PromptBuilder
}

// DefaultStrategies is the permissive prompt followed by the strict JSON-only one.
func DefaultStrategies() []PromptStrategy {
	return []PromptStrategy{
		{Name: StrategyPrimary, Build: PrimaryPrompt},
		{Name: StrategyFallback, Build: FallbackPrompt},
	}
}

// TruncateTranscript keeps the first max characters (runes) of s.
func TruncateTranscript(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// targetShape is the example object shown to the model.
func targetShape() string {
	parts := make([]string, 0, len(InvoiceFieldNames))
	for _, f := range InvoiceFieldNames {
		parts = append(parts, `"`+f+`": "..."`)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// PrimaryPrompt is lenient: the model may frame the JSON with prose.
func PrimaryPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Extract the following fields from this invoice text and return them as JSON.\n")
	b.WriteString("Use exactly these keys:\n")
	b.WriteString(targetShape())
	b.WriteString("\n\nInvoice text:\n")
	b.WriteString(transcript)
	return b.String()
}

// FallbackPrompt is strict: JSON only, no prose, schema attached.
func FallbackPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("You are an invoice data extraction system. Respond with ONLY a single JSON object. ")
	b.WriteString("Do not write any explanation, prose, markdown or code fences before or after it.\n")
	b.WriteString("The object must have exactly these keys: ")
	b.WriteString(strings.Join(InvoiceFieldNames, ", "))
	b.WriteString(".\n")
	b.WriteString("Use an empty string for a value you cannot find and \"0\" for a missing amount.\n")
	b.WriteString("Output format:\n")
	b.WriteString(targetShape())
	b.WriteString("\nJSON Schema:\n")
	b.WriteString(mustJSON(BuildInvoiceJSONSchema()))
	b.WriteString("\n\nInvoice text:\n")
	b.WriteString(transcript)
	return b.String()
}

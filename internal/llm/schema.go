package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is shown to the model in the strict prompt and used locally for diagnostics only:
// a response that violates it is still normalized field by field.
func BuildInvoiceJSONSchema() map[string]any {
	text := map[string]any{"type": []string{"string", "null"}}
	amount := map[string]any{"type": []string{"string", "number", "null"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			FieldInvoiceDate: text,
			FieldVendorName:  text,
			FieldNetAmount:   amount,
			FieldTaxAmount:   amount,
			FieldTotalAmount: amount,
		},
		"required": InvoiceFieldNames,
	}
}

// CompileSchema compiles schemaMap for repeated validation.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

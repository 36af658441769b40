package llm

import (
	"encoding/json"
	"strings"
)

// JSONSpan returns the greedy span from the first '{' to the last '}' in text.
func JSONSpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// ExtractJSONObject recovers the JSON object embedded in noisy model output.
// It takes the greedy brace span and parses it strictly; anything that is not
// a single JSON object yields ok == false.
func ExtractJSONObject(text string) (map[string]any, bool) {
	span, ok := JSONSpan(text)
	if !ok {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(span), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

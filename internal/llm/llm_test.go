package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	responses []string
	errs      []error
	prompts   []string
	reqs      []GenerateRequest
}

func (f *fakeCompleter) Generate(_ context.Context, req GenerateRequest) (GenerateResponse, error) {
	i := len(f.reqs)
	f.reqs = append(f.reqs, req)
	f.prompts = append(f.prompts, req.Prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return GenerateResponse{}, f.errs[i]
	}
	if i < len(f.responses) {
		return GenerateResponse{Text: f.responses[i]}, nil
	}
	return GenerateResponse{}, nil
}

type recordingObserver struct{ calls []string }

func (r *recordingObserver) ObserveAttempt(strategy, result string) {
	r.calls = append(r.calls, strategy+":"+result)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
		key  string
	}{
		{"bare object", `{"Vendor_Name":"Acme"}`, true, "Vendor_Name"},
		{"framed by prose", `Sure! Here you go: {"Vendor_Name":"Acme"} Hope this helps.`, true, "Vendor_Name"},
		{"code fence", "```json\n{\"Net_Amount\": 10}\n```", true, "Net_Amount"},
		{"nested", `{"a":{"b":1},"Total_Amount":"5"}`, true, "Total_Amount"},
		{"no braces", "I could not read this invoice.", false, ""},
		{"two objects greedy span", `{"a":1} and {"b":2}`, false, ""},
		{"reversed braces", "} nothing {", false, ""},
		{"malformed", `{"a": }`, false, ""},
		{"empty", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Contains(t, obj, tt.key)
			}
		})
	}
}

func TestTruncateTranscript(t *testing.T) {
	assert.Equal(t, "abc", TruncateTranscript("abc", 10))
	assert.Equal(t, "ab", TruncateTranscript("abc", 2))
	assert.Equal(t, "abc", TruncateTranscript("abc", 0))
	assert.Equal(t, "€€", TruncateTranscript("€€€", 2))

	long := strings.Repeat("x", 2000) + "TOTAL 108.00"
	got := TruncateTranscript(long, DefaultMaxTranscriptChars)
	assert.Len(t, got, DefaultMaxTranscriptChars)
	assert.NotContains(t, got, "TOTAL")
}

func TestPromptsEmbedFieldsAndTranscript(t *testing.T) {
	for _, p := range []string{PrimaryPrompt("INVOICE 42"), FallbackPrompt("INVOICE 42")} {
		for _, f := range InvoiceFieldNames {
			assert.Contains(t, p, f)
		}
		assert.True(t, strings.HasSuffix(p, "INVOICE 42"))
	}
	assert.Contains(t, FallbackPrompt(""), "ONLY")
	assert.Contains(t, FallbackPrompt(""), `"required"`)
	assert.NotEqual(t, PrimaryPrompt("x"), FallbackPrompt("x"))
}

func TestInvoiceSchema(t *testing.T) {
	schema, err := CompileSchema(BuildInvoiceJSONSchema())
	require.NoError(t, err)

	decode := func(s string) any {
		var v any
		require.NoError(t, json.Unmarshal([]byte(s), &v))
		return v
	}
	assert.NoError(t, schema.Validate(decode(`{"Invoice_Date":"01/02/2023","Vendor_Name":"Acme","Net_Amount":"$100","Tax_Amount":8,"Total_Amount":null}`)))
	assert.Error(t, schema.Validate(decode(`{"Vendor_Name":"Acme"}`)))
	assert.Error(t, schema.Validate(decode(`{"Invoice_Date":[],"Vendor_Name":"Acme","Net_Amount":1,"Tax_Amount":1,"Total_Amount":2}`)))
}

func TestEngineFirstAttemptWins(t *testing.T) {
	fc := &fakeCompleter{responses: []string{`Here: {"Vendor_Name":"Acme"}`}}
	obs := &recordingObserver{}
	e := NewEngine(fc, EngineConfig{Model: "llama3", NumCtx: 4096}, quietLogger(), WithAttemptObserver(obs))

	res, err := e.Extract(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, StrategyPrimary, res.Strategy)
	assert.True(t, res.Recovered)
	assert.Contains(t, res.Text, "Acme")
	require.Len(t, fc.reqs, 1)
	assert.Equal(t, "llama3", fc.reqs[0].Model)
	assert.Equal(t, 4096, fc.reqs[0].NumCtx)
	assert.Equal(t, []string{"primary:json"}, obs.calls)
}

func TestEngineFallsBackToStrictPrompt(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"I think the vendor is Acme.", `{"Vendor_Name":"Acme"}`}}
	e := NewEngine(fc, EngineConfig{}, quietLogger())

	res, err := e.Extract(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, StrategyFallback, res.Strategy)
	assert.True(t, res.Recovered)
	require.Len(t, fc.prompts, 2)
	assert.Equal(t, PrimaryPrompt("transcript"), fc.prompts[0])
	assert.Equal(t, FallbackPrompt("transcript"), fc.prompts[1])
}

func TestEngineReturnsLastTextWhenNoJSON(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"nope", "still nope", "never asked"}}
	e := NewEngine(fc, EngineConfig{}, quietLogger())

	res, err := e.Extract(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.False(t, res.Recovered)
	assert.Equal(t, "still nope", res.Text)
	assert.Len(t, fc.reqs, 2)
}

func TestEngineTransportErrorCountsAsAttempt(t *testing.T) {
	obs := &recordingObserver{}
	fc := &fakeCompleter{
		responses: []string{"", `{"Total_Amount": "1"}`},
		errs:      []error{errors.New("connection refused")},
	}
	e := NewEngine(fc, EngineConfig{}, quietLogger(), WithAttemptObserver(obs))
	res, err := e.Extract(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.True(t, res.Recovered)
	assert.Equal(t, []string{"primary:transport_error", "fallback:json"}, obs.calls)

	fc = &fakeCompleter{
		responses: []string{"prose only"},
		errs:      []error{nil, errors.New("500")},
	}
	e = NewEngine(fc, EngineConfig{}, quietLogger())
	res, err = e.Extract(context.Background(), "transcript")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Empty(t, res.Text)
	assert.False(t, res.Recovered)
}

func TestEngineTruncatesTranscript(t *testing.T) {
	fc := &fakeCompleter{responses: []string{`{}`}}
	e := NewEngine(fc, EngineConfig{MaxTranscriptChars: 5}, quietLogger())
	_, err := e.Extract(context.Background(), "0123456789")
	require.NoError(t, err)
	assert.Equal(t, PrimaryPrompt("01234"), fc.prompts[0])
}

func TestEngineEmptyTranscriptStillQueried(t *testing.T) {
	fc := &fakeCompleter{responses: []string{`{"Vendor_Name":""}`}}
	e := NewEngine(fc, EngineConfig{}, quietLogger())
	res, err := e.Extract(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fc := &fakeCompleter{responses: []string{`{}`}}
	e := NewEngine(fc, EngineConfig{}, quietLogger())
	_, err := e.Extract(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fc.reqs)
}

func TestWithStrategies(t *testing.T) {
	fc := &fakeCompleter{responses: []string{"a", "b", "c"}}
	single := PromptStrategy{Name: "only", Build: func(s string) string { return "P:" + s }}
	e := NewEngine(fc, EngineConfig{}, quietLogger(), WithStrategies(single))
	res, err := e.Extract(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "only", res.Strategy)
	assert.Equal(t, []string{"P:t"}, fc.prompts)
}

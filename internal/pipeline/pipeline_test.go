package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-gate/constants"
	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
	"github.com/joseph-ayodele/invoice-gate/internal/ocr"
	"github.com/joseph-ayodele/invoice-gate/internal/sink"
)

const acmeJSON = `Here is the data: {"Invoice_Date":"01/02/2023","Vendor_Name":"Acme","Net_Amount":"$100","Tax_Amount":"$8","Total_Amount":"%s"}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakePDF struct {
	pages map[string][]string
	err   error
}

func (f fakePDF) PageTexts(_ context.Context, path string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[filepath.Base(path)], nil
}

type fakeImage struct{ text string }

func (f fakeImage) Recognize(context.Context, string) (string, error) { return f.text, nil }

// scriptedCompleter answers by matching a marker in the prompt.
type scriptedCompleter struct {
	byMarker map[string][]string
	calls    []string
	prompts  []string
}

func (s *scriptedCompleter) Generate(_ context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	s.prompts = append(s.prompts, req.Prompt)
	for marker, answers := range s.byMarker {
		if !strings.Contains(req.Prompt, marker) {
			continue
		}
		n := 0
		for _, c := range s.calls {
			if c == marker {
				n++
			}
		}
		s.calls = append(s.calls, marker)
		if n < len(answers) {
			return llm.GenerateResponse{Text: answers[n]}, nil
		}
		return llm.GenerateResponse{Text: answers[len(answers)-1]}, nil
	}
	return llm.GenerateResponse{}, errors.New("no script")
}

type countingObserver struct{ statuses []constants.DocStatus }

func (c *countingObserver) ObserveDocument(s constants.DocStatus, _ time.Duration) {
	c.statuses = append(c.statuses, s)
}

type harness struct {
	proc         *Processor
	completer    *scriptedCompleter
	observer     *countingObserver
	approvedPath string
	reviewPath   string
}

func newHarness(t *testing.T, pdf fakePDF, img fakeImage, script map[string][]string) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		completer:    &scriptedCompleter{byMarker: script},
		observer:     &countingObserver{},
		approvedPath: filepath.Join(dir, "approved_invoices.csv"),
		reviewPath:   filepath.Join(dir, "review_log.txt"),
	}
	router := sink.NewRouter(sink.NewCSVSink(h.approvedPath), sink.NewReviewLog(h.reviewPath), quietLogger())
	extractor := ocr.NewExtractorWith(pdf, img, quietLogger())
	engine := llm.NewEngine(h.completer, llm.EngineConfig{Model: "llama3"}, quietLogger())
	h.proc = NewProcessor(quietLogger(), extractor, engine, router, h.observer)
	return h
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	require.NoError(t, err)
	return string(b)
}

func TestProcessFileApproved(t *testing.T) {
	h := newHarness(t,
		fakePDF{pages: map[string][]string{"acme.pdf": {"ACME INVOICE", "TOTAL 108"}}},
		fakeImage{},
		map[string][]string{"ACME INVOICE": {strings.Replace(acmeJSON, "%s", "$108", 1)}},
	)

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/acme.pdf"))
	require.NoError(t, out.Err)
	assert.Equal(t, constants.DocStatusApproved, out.Status)
	assert.Equal(t, 1, out.Attempts)
	require.NotNil(t, out.Record)
	assert.Equal(t, "2023-02-01", out.Record.InvoiceDate)
	assert.True(t, out.Validation.Approved)

	assert.Contains(t, readFile(t, h.approvedPath), "2023-02-01,Acme,100.00,8.00,108.00")
	assert.Empty(t, readFile(t, h.reviewPath))
	assert.Equal(t, []constants.DocStatus{constants.DocStatusApproved}, h.observer.statuses)
}

func TestProcessFileFlagged(t *testing.T) {
	h := newHarness(t,
		fakePDF{pages: map[string][]string{"acme.pdf": {"ACME INVOICE"}}},
		fakeImage{},
		map[string][]string{"ACME INVOICE": {strings.Replace(acmeJSON, "%s", "$120", 1)}},
	)

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/acme.pdf"))
	assert.Equal(t, constants.DocStatusFlagged, out.Status)
	assert.Equal(t, "acme.pdf: Math Mismatch. Calculated 108.00 vs Total 120.00\n", readFile(t, h.reviewPath))
	assert.Empty(t, readFile(t, h.approvedPath))
}

func TestProcessFileFallbackRecovers(t *testing.T) {
	h := newHarness(t,
		fakePDF{},
		fakeImage{text: "SCANNED RECEIPT"},
		map[string][]string{"SCANNED RECEIPT": {"The vendor appears to be Acme.", `{"Net_Amount":"10","Tax_Amount":"1","Total_Amount":"11"}`}},
	)

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/scan.png"))
	assert.Equal(t, constants.DocStatusApproved, out.Status)
	assert.Equal(t, 2, out.Attempts)
	require.Len(t, h.completer.prompts, 2)
	assert.Contains(t, h.completer.prompts[1], "ONLY")
}

func TestProcessFileParseFailedReachesNoSink(t *testing.T) {
	h := newHarness(t,
		fakePDF{pages: map[string][]string{"x.pdf": {"GARBLED"}}},
		fakeImage{},
		map[string][]string{"GARBLED": {"I cannot read this.", "Sorry, still no idea."}},
	)

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/x.pdf"))
	assert.Equal(t, constants.DocStatusParseFailed, out.Status)
	assert.ErrorIs(t, out.Err, common.ErrParse)
	assert.Equal(t, 2, out.Attempts)
	assert.Nil(t, out.Record)
	assert.Empty(t, readFile(t, h.approvedPath))
	assert.Empty(t, readFile(t, h.reviewPath))
}

func TestProcessFileEmptyTranscriptStillQueriesModel(t *testing.T) {
	h := newHarness(t,
		fakePDF{pages: map[string][]string{"blank.pdf": {"", ""}}},
		fakeImage{},
		map[string][]string{"Invoice text:\n": {`{"Vendor_Name":"","Net_Amount":"","Tax_Amount":"","Total_Amount":""}`}},
	)

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/blank.pdf"))
	require.Len(t, h.completer.prompts, 1)
	assert.True(t, strings.HasSuffix(h.completer.prompts[0], "Invoice text:\n"))
	// Nothing extracted: 0 + 0 == 0.
	assert.Equal(t, constants.DocStatusApproved, out.Status)
}

func TestProcessFileExtractionFailure(t *testing.T) {
	h := newHarness(t, fakePDF{err: errors.New("corrupt xref")}, fakeImage{}, nil)

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/broken.pdf"))
	assert.Equal(t, constants.DocStatusExtractFailed, out.Status)
	assert.ErrorIs(t, out.Err, common.ErrExtraction)
	assert.Empty(t, h.completer.prompts)
}

type failingRouter struct{}

func (failingRouter) Route(context.Context, entity.Document, entity.InvoiceRecord, entity.ValidationResult) error {
	return common.SinkError("csv", errors.New("read-only file system"))
}

func TestProcessFileRouteFailure(t *testing.T) {
	h := newHarness(t,
		fakePDF{pages: map[string][]string{"a.pdf": {"ACME INVOICE"}}},
		fakeImage{},
		map[string][]string{"ACME INVOICE": {strings.Replace(acmeJSON, "%s", "$108", 1)}},
	)
	h.proc.Router = failingRouter{}

	out := h.proc.ProcessFile(context.Background(), entity.NewDocument("in/a.pdf"))
	assert.Equal(t, constants.DocStatusRouteFailed, out.Status)
	assert.ErrorIs(t, out.Err, common.ErrSink)
	assert.NotNil(t, out.Validation)
}

func TestRunIsolatesFailuresAndKeepsOrder(t *testing.T) {
	h := newHarness(t,
		fakePDF{pages: map[string][]string{
			"1-ok.pdf":      {"DOC ONE"},
			"2-flagged.pdf": {"DOC TWO"},
			"3-prose.pdf":   {"DOC THREE"},
		}},
		fakeImage{text: "DOC FOUR"},
		map[string][]string{
			"DOC ONE":   {strings.Replace(acmeJSON, "%s", "$108", 1)},
			"DOC TWO":   {strings.Replace(acmeJSON, "%s", "$120", 1)},
			"DOC THREE": {"no json here"},
			"DOC FOUR":  {strings.Replace(acmeJSON, "%s", "108.00", 1)},
		},
	)
	docs := []entity.Document{
		entity.NewDocument("in/1-ok.pdf"),
		entity.NewDocument("in/2-flagged.pdf"),
		entity.NewDocument("in/3-prose.pdf"),
		entity.NewDocument("in/4-scan.jpg"),
	}

	var reported []string
	sum := h.proc.Run(context.Background(), docs, func(o entity.Outcome) {
		reported = append(reported, o.Document.Name+"="+string(o.Status))
	})

	assert.Equal(t, []string{
		"1-ok.pdf=APPROVED",
		"2-flagged.pdf=FLAGGED",
		"3-prose.pdf=PARSE_FAILED",
		"4-scan.jpg=APPROVED",
	}, reported)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Approved)
	assert.Equal(t, 1, sum.Flagged)
	assert.Equal(t, 1, sum.ParseFailed)
	assert.Equal(t, 1, sum.Failed())
}

func TestRunStopsWhenCancelled(t *testing.T) {
	h := newHarness(t, fakePDF{}, fakeImage{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := h.proc.Run(ctx, []entity.Document{entity.NewDocument("in/a.pdf")}, nil)
	assert.Zero(t, sum.Total)
	assert.Empty(t, h.completer.prompts)
}

package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-gate/constants"
	"github.com/joseph-ayodele/invoice-gate/internal/common"
)

// fakeRunner records the last invocation and returns canned output.
type fakeRunner struct {
	stdout []byte
	err    error

	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.name = name
	f.args = args
	return f.stdout, f.err
}

type fakePDF struct {
	pages []string
	err   error
	calls int
}

func (f *fakePDF) PageTexts(context.Context, string) ([]string, error) {
	f.calls++
	return f.pages, f.err
}

type fakeImage struct {
	text  string
	err   error
	calls int
}

func (f *fakeImage) Recognize(context.Context, string) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestJoinPages(t *testing.T) {
	tests := []struct {
		name     string
		pages    []string
		expected string
	}{
		{name: "nil", pages: nil, expected: ""},
		{name: "all empty", pages: []string{"", "", ""}, expected: ""},
		{name: "single", pages: []string{"INVOICE"}, expected: "INVOICE"},
		{name: "ordered with newline", pages: []string{"page one", "page two"}, expected: "page one\npage two"},
		{name: "empty pages skipped", pages: []string{"", "first", "", "second", ""}, expected: "first\nsecond"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, JoinPages(tc.pages))
		})
	}
}

func TestSplitFormFeeds(t *testing.T) {
	assert.Nil(t, splitFormFeeds(""))
	assert.Equal(t, []string{"a", "b"}, splitFormFeeds("a\n\fb\n\f"))
	assert.Equal(t, []string{"a", "", "c"}, splitFormFeeds("a\f\n\fc\f"))
	assert.Equal(t, []string{"only"}, splitFormFeeds("only"))
}

func TestExtract_PDFDispatch(t *testing.T) {
	pdf := &fakePDF{pages: []string{"Invoice #1", "", "Total $108"}}
	img := &fakeImage{}
	e := NewExtractorWith(pdf, img, nil)

	res, err := e.Extract(context.Background(), "/in/ACME.PDF")
	require.NoError(t, err)
	assert.Equal(t, "Invoice #1\nTotal $108", res.Text)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, constants.PDF, res.SourceType)
	assert.Equal(t, 1, pdf.calls)
	assert.Equal(t, 0, img.calls)
}

func TestExtract_PDFWithoutText(t *testing.T) {
	e := NewExtractorWith(&fakePDF{pages: []string{"", ""}}, &fakeImage{}, nil)

	res, err := e.Extract(context.Background(), "blank.pdf")
	require.NoError(t, err)
	assert.Equal(t, "", res.Text)
	assert.Equal(t, 2, res.Pages)
}

func TestExtract_ImageDispatch(t *testing.T) {
	for _, name := range []string{"scan.jpg", "scan.JPEG", "scan.png"} {
		t.Run(name, func(t *testing.T) {
			pdf := &fakePDF{}
			img := &fakeImage{text: "ACME LTD"}
			e := NewExtractorWith(pdf, img, nil)

			res, err := e.Extract(context.Background(), name)
			require.NoError(t, err)
			assert.Equal(t, "ACME LTD", res.Text)
			assert.Equal(t, constants.IMAGE, res.SourceType)
			assert.Equal(t, "image-ocr", res.Method)
			assert.Equal(t, 0, pdf.calls)
			assert.Equal(t, 1, img.calls)
		})
	}
}

func TestExtract_BackendErrorsAreExtractionFailures(t *testing.T) {
	boom := errors.New("backend exploded")

	e := NewExtractorWith(&fakePDF{err: boom}, &fakeImage{err: boom}, nil)

	_, err := e.Extract(context.Background(), "a.pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
	assert.ErrorIs(t, err, boom)

	_, err = e.Extract(context.Background(), "a.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExtraction)
}

func TestTesseractOCR_Args(t *testing.T) {
	r := &fakeRunner{stdout: []byte("ACME LTD  \r\n-----\r\nTotal 108.00\r\n")}
	ocr := NewTesseractOCR(Config{Lang: "deu", PSM: 6, TessdataDir: "/usr/share/tessdata"}, r, nil)

	txt, err := ocr.Recognize(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Equal(t, "ACME LTD\n\nTotal 108.00", txt)
	assert.Equal(t, "tesseract", r.name)
	assert.Equal(t, []string{"scan.png", "stdout", "-l", "deu", "--psm", "6", "--tessdata-dir", "/usr/share/tessdata"}, r.args)
}

func TestTesseractOCR_Error(t *testing.T) {
	exit := errors.New("exit status 1")
	r := &fakeRunner{err: &ToolError{Tool: "tesseract", Stderr: "Error opening data file", Err: exit}}
	ocr := NewTesseractOCR(Config{}, r, nil)

	_, err := ocr.Recognize(context.Background(), "scan.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, exit)
	assert.Equal(t, "tesseract: exit status 1: Error opening data file", err.Error())
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := execRunner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	out, err := r.Run(context.Background(), "sh", "-c", "printf 'page one'")
	require.NoError(t, err)
	assert.Equal(t, "page one", string(out))

	_, err = r.Run(context.Background(), "sh", "-c", "echo 'no such language' >&2; exit 3")
	var te *ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "sh", te.Tool)
	assert.Equal(t, "no such language", te.Stderr)

	_, err = r.Run(context.Background(), "definitely-not-an-ocr-tool")
	require.ErrorAs(t, err, &te)
	assert.Empty(t, te.Stderr)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("  short\n", 10))
	assert.Equal(t, "...6789", tail("0123456789", 4))
}

func TestPdftotextReader(t *testing.T) {
	r := &fakeRunner{stdout: []byte("Page one\n\f\f Page three\n\f")}
	reader := NewPdftotextReader("", r, nil)

	pages, err := reader.PageTexts(context.Background(), "inv.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Page one", "", " Page three"}, pages)
	assert.Equal(t, "pdftotext", r.name)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", "inv.pdf", "-"}, r.args)
	assert.Equal(t, "Page one\n Page three", JoinPages(pages))
}

func TestNativePDFReader_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a pdf"), 0o644))

	_, err := NewNativePDFReader(nil).PageTexts(context.Background(), path)
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "a\nb", Normalize("a  \r\nb\t\r\n"))
	assert.Equal(t, "Invoice 01/02/2023", Normalize("Invoice 01/02/2023"))
}

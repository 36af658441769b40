package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFTextReader yields the text layer of every page of a PDF, in page order.
// A page without extractable text is returned as "".
type PDFTextReader interface {
	PageTexts(ctx context.Context, path string) ([]string, error)
}

// NativePDFReader reads the text layer in-process.
type NativePDFReader struct {
	logger *slog.Logger
}

func NewNativePDFReader(logger *slog.Logger) *NativePDFReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &NativePDFReader{logger: logger}
}

func (r *NativePDFReader) PageTexts(ctx context.Context, path string) (pages []string, err error) {
	f, rd, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("ocr.pdf.close_error", "path", path, "error", cerr)
		}
	}()
	// the parser panics on some malformed xref tables
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", rec)
		}
	}()

	n := rd.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := rd.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		txt, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, txt)
	}
	r.logger.Debug("ocr.pdf.native", "path", path, "pages", n)
	return pages, nil
}

// PdftotextReader shells out to poppler's pdftotext.
type PdftotextReader struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

func NewPdftotextReader(bin string, runner Runner, logger *slog.Logger) *PdftotextReader {
	if bin == "" {
		bin = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &PdftotextReader{bin: bin, runner: runner, logger: logger}
}

func (r *PdftotextReader) PageTexts(ctx context.Context, path string) ([]string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, err := r.runner.Run(ctx, r.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return nil, err
	}
	return splitFormFeeds(string(out)), nil
}

// splitFormFeeds splits pdftotext output into pages. pdftotext terminates
// every page, including the last, with a form feed.
func splitFormFeeds(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\f")
	if strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	for i := range parts {
		parts[i] = strings.TrimRight(parts[i], "\n")
	}
	return parts
}

// JoinPages concatenates page texts with "\n"; empty pages contribute nothing.
func JoinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

package ocr

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-gate/constants"
	"github.com/joseph-ayodele/invoice-gate/internal/common"
)

type Config struct {
	PDFBackend string // "native" (default) | "pdftotext"
	Pdftotext  string // binary name or absolute path; if empty -> "pdftotext"
	Tesseract  string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "eng"
	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

func (c Config) withDefaults() Config {
	if c.PDFBackend == "" {
		c.PDFBackend = "native"
	}
	if c.Pdftotext == "" {
		c.Pdftotext = "pdftotext"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Lang == "" {
		c.Lang = "eng"
	}
	return c
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-native" | "pdftotext" | "image-ocr"
	Duration   time.Duration
}

// Extractor is the text extraction dispatcher: PDFs go to the text-layer
// reader, every other path is treated as a raster image.
type Extractor struct {
	pdf       PDFTextReader
	pdfMethod string
	image     ImageOCR
	logger    *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	var (
		reader PDFTextReader
		method string
	)
	if strings.EqualFold(cfg.PDFBackend, "pdftotext") {
		reader, method = NewPdftotextReader(cfg.Pdftotext, execRunner{logger: logger}, logger), "pdftotext"
	} else {
		reader, method = NewNativePDFReader(logger), "pdf-native"
	}
	return &Extractor{
		pdf:       reader,
		pdfMethod: method,
		image:     NewTesseractOCR(cfg, execRunner{logger: logger}, logger),
		logger:    logger,
	}
}

// NewExtractorWith wires explicit backends.
func NewExtractorWith(pdf PDFTextReader, image ImageOCR, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{pdf: pdf, pdfMethod: "pdf-custom", image: image, logger: logger}
}

// Extract returns the plain-text transcript of path. An empty transcript is
// not an error; backend failures are wrapped as common.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	if ext == "pdf" {
		pages, err := e.pdf.PageTexts(ctx, path)
		if err != nil {
			e.logger.Error("ocr.extract.pdf_failed", "path", path, "error", err)
			return ExtractionResult{SourceType: constants.PDF}, common.ExtractionError(path, err)
		}
		res := ExtractionResult{
			Text:       JoinPages(pages),
			Pages:      len(pages),
			SourceType: constants.PDF,
			Method:     e.pdfMethod,
			Duration:   time.Since(start),
		}
		e.logger.Info("ocr.extract.ok", "path", path, "method", res.Method, "pages", res.Pages, "chars", len(res.Text))
		return res, nil
	}

	txt, err := e.image.Recognize(ctx, path)
	if err != nil {
		e.logger.Error("ocr.extract.image_failed", "path", path, "error", err)
		return ExtractionResult{SourceType: constants.IMAGE}, common.ExtractionError(path, err)
	}
	res := ExtractionResult{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Duration:   time.Since(start),
	}
	e.logger.Info("ocr.extract.ok", "path", path, "method", res.Method, "chars", len(res.Text))
	return res, nil
}

package ocr

import (
	"context"
	"fmt"
	"log/slog"
)

// ImageOCR transcribes a raster image to text.
type ImageOCR interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// TesseractOCR runs the tesseract CLI.
type TesseractOCR struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseractOCR(cfg Config, runner Runner, logger *slog.Logger) *TesseractOCR {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = execRunner{logger: logger}
	}
	return &TesseractOCR{cfg: cfg, runner: runner, logger: logger}
}

func (t *TesseractOCR) Recognize(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	out, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", err
	}
	return Normalize(string(out)), nil
}

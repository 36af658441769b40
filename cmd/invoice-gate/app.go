package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
	"github.com/joseph-ayodele/invoice-gate/internal/llm/ollama"
	"github.com/joseph-ayodele/invoice-gate/internal/llm/openai"
	"github.com/joseph-ayodele/invoice-gate/internal/metrics"
	"github.com/joseph-ayodele/invoice-gate/internal/ocr"
	"github.com/joseph-ayodele/invoice-gate/internal/pipeline"
	"github.com/joseph-ayodele/invoice-gate/internal/sink"
)

// app is the wired pipeline for one command invocation.
type app struct {
	extractor *ocr.Extractor
	engine    *llm.Engine
	router    *sink.Router
	metrics   *metrics.Metrics
	processor *pipeline.Processor
}

func newCompleter(cfg common.LLMConfig, logger *slog.Logger) (llm.Completer, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return ollama.NewClient(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Timeout:    cfg.Timeout,
			RatePerSec: cfg.RatePerSec,
		}, logger), nil
	case "openai":
		base := cfg.BaseURL
		if base == ollama.DefaultBaseURL {
			base = ""
		}
		return openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     base,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			RatePerSec:  cfg.RatePerSec,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown llm provider %q", common.ErrInvalidInput, cfg.Provider)
	}
}

func newExtractor(cfg common.OCRConfig, logger *slog.Logger) *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		PDFBackend:  cfg.PDFBackend,
		Pdftotext:   cfg.Pdftotext,
		Tesseract:   cfg.Tesseract,
		Lang:        cfg.Lang,
		TessdataDir: cfg.TessdataDir,
		PSM:         cfg.PSM,
		OEM:         cfg.OEM,
	}, logger)
}

func newEngine(cfg common.LLMConfig, m *metrics.Metrics, logger *slog.Logger) (*llm.Engine, error) {
	completer, err := newCompleter(cfg, logger)
	if err != nil {
		return nil, err
	}
	return llm.NewEngine(completer, llm.EngineConfig{
		Model:  cfg.Model,
		NumCtx: cfg.NumCtx,
	}, logger, llm.WithAttemptObserver(m)), nil
}

// buildApp wires everything. A nil reg keeps the collectors in a private registry.
func buildApp(ctx context.Context, cfg *common.Config, reg prometheus.Registerer, logger *slog.Logger) (*app, error) {
	m := metrics.New(reg)
	engine, err := newEngine(cfg.LLM, m, logger)
	if err != nil {
		return nil, err
	}
	router, err := sink.Open(ctx, cfg.Sink, logger)
	if err != nil {
		return nil, err
	}
	extractor := newExtractor(cfg.OCR, logger)
	return &app{
		extractor: extractor,
		engine:    engine,
		router:    router,
		metrics:   m,
		processor: pipeline.NewProcessor(logger, extractor, engine, router, m),
	}, nil
}

func (a *app) Close(logger *slog.Logger) {
	if err := a.router.Close(); err != nil {
		logger.Warn("sink.close_error", "error", err)
	}
}

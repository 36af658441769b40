package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
	"github.com/joseph-ayodele/invoice-gate/internal/ingest"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
	"github.com/joseph-ayodele/invoice-gate/internal/metrics"
	"github.com/joseph-ayodele/invoice-gate/internal/normalize"
	"github.com/joseph-ayodele/invoice-gate/internal/ocr"
	"github.com/joseph-ayodele/invoice-gate/internal/validate"
)

type extractReport struct {
	File       string                   `json:"file"`
	Method     string                   `json:"method"`
	Pages      int                      `json:"pages"`
	Transcript string                   `json:"transcript,omitempty"`
	Attempts   int                      `json:"attempts"`
	Strategy   string                   `json:"strategy"`
	Recovered  bool                     `json:"recovered"`
	Response   string                   `json:"response"`
	Record     *entity.InvoiceRecord    `json:"record,omitempty"`
	Validation *entity.ValidationResult `json:"validation,omitempty"`
}

// extract runs one file through every stage but never writes to a sink.
func newExtractCmd(opts *rootOptions) *cobra.Command {
	var showText bool
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Dry-run one invoice and print the extracted record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc := entity.NewDocument(args[0])
			if !ingest.AllowedExt(filepath.Ext(doc.Name)) {
				return fmt.Errorf("%w: unsupported file type %q", common.ErrInvalidInput, doc.Name)
			}

			extractor := newExtractor(opts.cfg.OCR, opts.logger)
			engine, err := newEngine(opts.cfg.LLM, metrics.New(nil), opts.logger)
			if err != nil {
				return err
			}

			text, err := extractor.Extract(ctx, doc.Path)
			if err != nil {
				return err
			}
			res, err := engine.Extract(ctx, text.Text)
			if err != nil {
				return err
			}

			report := newExtractReport(doc, text, res, showText)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if report.Record == nil {
				return common.ErrParse
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showText, "text", false, "include the extracted transcript")
	return cmd
}

func newExtractReport(doc entity.Document, text ocr.ExtractionResult, res llm.EngineResult, showText bool) extractReport {
	report := extractReport{
		File:      doc.Name,
		Method:    text.Method,
		Pages:     text.Pages,
		Attempts:  res.Attempts,
		Strategy:  res.Strategy,
		Recovered: res.Recovered,
		Response:  res.Text,
	}
	if showText {
		report.Transcript = text.Text
	}
	if rec, ok := normalize.Response(res.Text); ok {
		verdict := validate.Check(rec)
		report.Record, report.Validation = &rec, &verdict
	}
	return report
}

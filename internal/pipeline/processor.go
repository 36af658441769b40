package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/invoice-gate/constants"
	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
	"github.com/joseph-ayodele/invoice-gate/internal/llm"
	"github.com/joseph-ayodele/invoice-gate/internal/normalize"
	"github.com/joseph-ayodele/invoice-gate/internal/ocr"
	"github.com/joseph-ayodele/invoice-gate/internal/validate"
)

// TextExtractor turns a document into a transcript.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.ExtractionResult, error)
}

// FieldExtractor turns a transcript into raw model text.
type FieldExtractor interface {
	Extract(ctx context.Context, transcript string) (llm.EngineResult, error)
}

// Router persists a validated record.
type Router interface {
	Route(ctx context.Context, doc entity.Document, rec entity.InvoiceRecord, res entity.ValidationResult) error
}

// DocumentObserver is notified of every terminal outcome (metrics).
type DocumentObserver interface {
	ObserveDocument(status constants.DocStatus, d time.Duration)
}

// Processor coordinates extraction, the model, normalization, the gate and routing
// for one document at a time.
type Processor struct {
	Logger   *slog.Logger
	Text     TextExtractor
	Fields   FieldExtractor
	Router   Router
	Observer DocumentObserver
}

func NewProcessor(logger *slog.Logger, text TextExtractor, fields FieldExtractor, router Router, observer DocumentObserver) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Text: text, Fields: fields, Router: router, Observer: observer}
}

// ProcessFile drives one document to a terminal status. Failures are reported
// in the Outcome and never escape as a panic or error return.
func (p *Processor) ProcessFile(ctx context.Context, doc entity.Document) entity.Outcome {
	start := time.Now()
	ctx = common.WithDocument(ctx, doc.Name)
	log := p.Logger.With("file", doc.Name, "run_id", common.RunIDFromContext(ctx))

	out := entity.Outcome{Document: doc, Status: constants.DocStatusDiscovered}
	finish := func() entity.Outcome {
		out.Duration = time.Since(start)
		if p.Observer != nil {
			p.Observer.ObserveDocument(out.Status, out.Duration)
		}
		return out
	}

	// 1) Text extraction. An empty transcript is not a failure.
	text, err := p.Text.Extract(ctx, doc.Path)
	if err != nil {
		log.Error("pipeline.document.extract_failed", "error", err)
		out.Status, out.Err = constants.DocStatusExtractFailed, err
		return finish()
	}
	out.Status = constants.DocStatusTextExtracted
	if text.Text == "" {
		log.Warn("pipeline.document.empty_transcript", "method", text.Method, "pages", text.Pages)
	}

	// 2) Structured extraction.
	res, err := p.Fields.Extract(ctx, text.Text)
	out.Attempts = res.Attempts
	if err != nil {
		log.Warn("pipeline.document.cancelled", "error", err)
		out.Status, out.Err = constants.DocStatusParseFailed, err
		return finish()
	}
	out.Status = constants.DocStatusModelQueried

	// 3) Normalization.
	rec, ok := normalize.Response(res.Text)
	if !ok {
		log.Warn("pipeline.document.parse_failed", "attempts", res.Attempts, "response_chars", len(res.Text))
		out.Status, out.Err = constants.DocStatusParseFailed, common.ErrParse
		return finish()
	}
	out.Status = constants.DocStatusResponseParsed
	out.Record = &rec

	// 4) Validation gate.
	verdict := validate.Check(rec)
	out.Status = constants.DocStatusValidated
	out.Validation = &verdict

	// 5) Routing.
	if err := p.Router.Route(ctx, doc, rec, verdict); err != nil {
		log.Error("pipeline.document.route_failed", "approved", verdict.Approved, "error", err)
		out.Status, out.Err = constants.DocStatusRouteFailed, err
		return finish()
	}

	if verdict.Approved {
		out.Status = constants.DocStatusApproved
		log.Info("pipeline.document.approved",
			"vendor", rec.VendorName, "date", rec.InvoiceDate,
			"total", rec.TotalAmount.StringFixed(2), "attempts", res.Attempts,
		)
	} else {
		out.Status = constants.DocStatusFlagged
		log.Warn("pipeline.document.flagged",
			"calculated", verdict.Calculated.StringFixed(2),
			"total", verdict.Total.StringFixed(2), "attempts", res.Attempts,
		)
	}
	return finish()
}

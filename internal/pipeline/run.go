package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-gate/constants"
	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// Reporter receives each document's outcome as soon as it is known.
type Reporter func(entity.Outcome)

// Summary counts terminal statuses over one run.
type Summary struct {
	Total         int           `json:"total"`
	Approved      int           `json:"approved"`
	Flagged       int           `json:"flagged"`
	ParseFailed   int           `json:"parse_failed"`
	ExtractFailed int           `json:"extract_failed"`
	RouteFailed   int           `json:"route_failed"`
	Elapsed       time.Duration `json:"elapsed"`
}

// Add counts one outcome.
func (s *Summary) Add(o entity.Outcome) {
	s.Total++
	switch o.Status {
	case constants.DocStatusApproved:
		s.Approved++
	case constants.DocStatusFlagged:
		s.Flagged++
	case constants.DocStatusParseFailed:
		s.ParseFailed++
	case constants.DocStatusExtractFailed:
		s.ExtractFailed++
	case constants.DocStatusRouteFailed:
		s.RouteFailed++
	}
}

// Failed is the number of documents that reached neither sink.
func (s Summary) Failed() int {
	return s.ParseFailed + s.ExtractFailed + s.RouteFailed
}

// Run processes docs strictly in order. A failing document never stops the run;
// only ctx cancellation does.
func (p *Processor) Run(ctx context.Context, docs []entity.Document, report Reporter) Summary {
	start := time.Now()
	runID := uuid.New().String()
	ctx = common.WithRunID(ctx, runID)
	p.Logger.Info("pipeline.run.start", "run_id", runID, "documents", len(docs))

	var sum Summary
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			p.Logger.Warn("pipeline.run.cancelled", "run_id", runID, "processed", i, "remaining", len(docs)-i, "error", err)
			break
		}
		out := p.ProcessFile(ctx, doc)
		sum.Add(out)
		if report != nil {
			report(out)
		}
	}
	sum.Elapsed = time.Since(start)

	p.Logger.Info("pipeline.run.done",
		"run_id", runID,
		"total", sum.Total,
		"approved", sum.Approved,
		"flagged", sum.Flagged,
		"parse_failed", sum.ParseFailed,
		"extract_failed", sum.ExtractFailed,
		"route_failed", sum.RouteFailed,
		"elapsed_ms", sum.Elapsed.Milliseconds(),
	)
	return sum
}

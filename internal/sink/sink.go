// Package sink persists routed documents: approved records to a tabular store,
// flagged ones to the review log.
package sink

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// Approved sink kinds.
const (
	KindCSV      = "csv"
	KindXLSX     = "xlsx"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// ApprovedSink receives records that passed the arithmetic check.
type ApprovedSink interface {
	Append(ctx context.Context, doc entity.Document, rec entity.InvoiceRecord) error
	Close() error
}

// ReviewSink receives mismatch details for flagged records.
type ReviewSink interface {
	Append(ctx context.Context, doc entity.Document, res entity.ValidationResult) error
	Close() error
}

// Router sends each validated record to exactly one sink.
type Router struct {
	approved   ApprovedSink
	review     ReviewSink
	approvedMu sync.Mutex
	reviewMu   sync.Mutex
	logger     *slog.Logger
}

func NewRouter(approved ApprovedSink, review ReviewSink, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{approved: approved, review: review, logger: logger}
}

// Route appends rec to the approved sink or its verdict to the review sink.
func (r *Router) Route(ctx context.Context, doc entity.Document, rec entity.InvoiceRecord, res entity.ValidationResult) error {
	if res.Approved {
		r.approvedMu.Lock()
		defer r.approvedMu.Unlock()
		if err := r.approved.Append(ctx, doc, rec); err != nil {
			r.logger.Error("sink.approved.append_error", "file", doc.Name, "error", err)
			return err
		}
		r.logger.Debug("sink.approved.appended", "file", doc.Name)
		return nil
	}

	r.reviewMu.Lock()
	defer r.reviewMu.Unlock()
	if err := r.review.Append(ctx, doc, res); err != nil {
		r.logger.Error("sink.review.append_error", "file", doc.Name, "error", err)
		return err
	}
	r.logger.Debug("sink.review.appended", "file", doc.Name)
	return nil
}

// Close closes both sinks and returns the first error.
func (r *Router) Close() error {
	aErr := r.approved.Close()
	rErr := r.review.Close()
	if aErr != nil {
		return aErr
	}
	return rErr
}

// Open builds the Router described by cfg.
func Open(ctx context.Context, cfg common.SinkConfig, logger *slog.Logger) (*Router, error) {
	if logger == nil {
		logger = slog.Default()
	}
	approved, err := OpenApproved(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	review := NewReviewLog(cfg.ReviewPath)
	logger.Info("sink.opened", "approved_kind", cfg.ApprovedKind, "approved_path", cfg.ApprovedPath, "review_path", cfg.ReviewPath)
	return NewRouter(approved, review, logger), nil
}

// OpenApproved builds the approved sink selected by cfg.ApprovedKind.
func OpenApproved(ctx context.Context, cfg common.SinkConfig, logger *slog.Logger) (ApprovedSink, error) {
	switch strings.ToLower(cfg.ApprovedKind) {
	case "", KindCSV:
		return NewCSVSink(cfg.ApprovedPath), nil
	case KindXLSX:
		return NewXLSXSink(cfg.ApprovedPath), nil
	case KindSQLite:
		return OpenSQLiteSink(ctx, cfg.ApprovedPath, logger)
	case KindPostgres:
		return OpenPostgresSink(ctx, PostgresConfig{DSN: cfg.DSN}, logger)
	default:
		return nil, fmt.Errorf("%w: unknown approved sink kind %q", common.ErrInvalidInput, cfg.ApprovedKind)
	}
}

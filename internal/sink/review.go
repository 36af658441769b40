package sink

import (
	"context"
	"fmt"
	"os"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// ReviewLog appends one human-readable line per flagged document.
type ReviewLog struct {
	path string
}

func NewReviewLog(path string) *ReviewLog {
	return &ReviewLog{path: path}
}

// ReviewLine formats the mismatch entry for a flagged document.
func ReviewLine(name string, res entity.ValidationResult) string {
	return fmt.Sprintf("%s: Math Mismatch. Calculated %s vs Total %s",
		name, res.Calculated.StringFixed(2), res.Total.StringFixed(2))
}

func (l *ReviewLog) Append(_ context.Context, doc entity.Document, res entity.ValidationResult) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return common.SinkError("review_log", fmt.Errorf("open %s: %w", l.path, err))
	}
	defer f.Close()
	if _, err := fmt.Fprintln(f, ReviewLine(doc.Name, res)); err != nil {
		return common.SinkError("review_log", err)
	}
	return nil
}

func (l *ReviewLog) Close() error { return nil }

package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// CSVSink appends one row per approved record, writing the header on a new or empty file.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) Append(_ context.Context, _ entity.Document, rec entity.InvoiceRecord) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return common.SinkError(KindCSV, fmt.Errorf("open %s: %w", s.path, err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return common.SinkError(KindCSV, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(entity.InvoiceColumns); err != nil {
			return common.SinkError(KindCSV, err)
		}
	}
	if err := w.Write(rec.Row()); err != nil {
		return common.SinkError(KindCSV, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return common.SinkError(KindCSV, err)
	}
	return nil
}

func (s *CSVSink) Close() error { return nil }

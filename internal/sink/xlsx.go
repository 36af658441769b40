package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// XLSXSheet is the worksheet approved invoices are appended to.
const XLSXSheet = "Invoices"

// XLSXSink keeps approved invoices in a workbook, saving after every append.
type XLSXSink struct {
	path string
}

func NewXLSXSink(path string) *XLSXSink {
	return &XLSXSink{path: path}
}

func (s *XLSXSink) Append(_ context.Context, _ entity.Document, rec entity.InvoiceRecord) error {
	f, err := s.open()
	if err != nil {
		return common.SinkError(KindXLSX, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(XLSXSheet)
	if err != nil {
		return common.SinkError(KindXLSX, fmt.Errorf("read rows: %w", err))
	}
	cell, _ := excelize.CoordinatesToCellName(1, len(rows)+1)
	values := []any{
		rec.InvoiceDate,
		rec.VendorName,
		rec.NetAmount.InexactFloat64(),
		rec.TaxAmount.InexactFloat64(),
		rec.TotalAmount.InexactFloat64(),
	}
	if err := f.SetSheetRow(XLSXSheet, cell, &values); err != nil {
		return common.SinkError(KindXLSX, fmt.Errorf("write row: %w", err))
	}
	if err := f.SaveAs(s.path); err != nil {
		return common.SinkError(KindXLSX, fmt.Errorf("xlsx write: %w", err))
	}
	return nil
}

// open loads the workbook or creates it with the header row.
func (s *XLSXSink) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); err == nil {
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", s.path, err)
		}
		if idx, _ := f.GetSheetIndex(XLSXSheet); idx == -1 {
			if err := addInvoiceSheet(f); err != nil {
				_ = f.Close()
				return nil, err
			}
		}
		return f, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	f := excelize.NewFile()
	if err := addInvoiceSheet(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}
	return f, nil
}

func addInvoiceSheet(f *excelize.File) error {
	index, err := f.NewSheet(XLSXSheet)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	header := make([]any, len(entity.InvoiceColumns))
	for i, h := range entity.InvoiceColumns {
		header[i] = h
	}
	if err := f.SetSheetRow(XLSXSheet, "A1", &header); err != nil {
		return err
	}
	_ = f.SetColWidth(XLSXSheet, "A", "A", 14) // date
	_ = f.SetColWidth(XLSXSheet, "B", "B", 32) // vendor
	_ = f.SetColWidth(XLSXSheet, "C", "E", 14) // amounts
	return nil
}

func (s *XLSXSink) Close() error { return nil }

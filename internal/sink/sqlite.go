package sink

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

// ApprovedTable is the table both SQL sinks write to.
const ApprovedTable = "approved_invoices"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS ` + ApprovedTable + ` (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name    TEXT NOT NULL,
	invoice_date TEXT NOT NULL,
	vendor_name  TEXT NOT NULL,
	net_amount   TEXT NOT NULL,
	tax_amount   TEXT NOT NULL,
	total_amount TEXT NOT NULL,
	created_at   TEXT NOT NULL DEFAULT (datetime('now'))
)`

// SQLiteSink stores approved invoices in a local SQLite file.
type SQLiteSink struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

func OpenSQLiteSink(ctx context.Context, path string, logger *slog.Logger) (*SQLiteSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, common.SinkError(KindSQLite, fmt.Errorf("opening database: %w", err))
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, common.SinkError(KindSQLite, fmt.Errorf("creating table: %w", err))
	}
	logger.Info("sink.sqlite.opened", "path", path)
	return &SQLiteSink{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteSink) Append(ctx context.Context, doc entity.Document, rec entity.InvoiceRecord) error {
	row := rec.Row()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO `+ApprovedTable+` (file_name, invoice_date, vendor_name, net_amount, tax_amount, total_amount)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.Name, row[0], row[1], row[2], row[3], row[4],
	)
	if err != nil {
		return common.SinkError(KindSQLite, fmt.Errorf("insert: %w", err))
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/invoice-gate/internal/common"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS ` + ApprovedTable + ` (
	id           BIGSERIAL PRIMARY KEY,
	file_name    TEXT NOT NULL,
	invoice_date DATE,
	vendor_name  TEXT NOT NULL,
	net_amount   NUMERIC NOT NULL,
	tax_amount   NUMERIC NOT NULL,
	total_amount NUMERIC NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type PostgresConfig struct {
	DSN             string
	MaxConns        int32
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PostgresSink stores approved invoices through a pgx pool.
type PostgresSink struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func OpenPostgresSink(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*PostgresSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 4
	}
	if cfg.MaxConnIdleTime <= 0 {
		cfg.MaxConnIdleTime = 5 * time.Minute
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("sink.postgres.parse_dsn_error", "error", err)
		return nil, common.SinkError(KindPostgres, err)
	}
	pc.MaxConns = cfg.MaxConns
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "invoice-gate"

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("sink.postgres.connect_error", "error", err)
		return nil, common.SinkError(KindPostgres, err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		logger.Error("sink.postgres.ping_error", "error", err)
		return nil, common.SinkError(KindPostgres, err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, common.SinkError(KindPostgres, fmt.Errorf("creating table: %w", err))
	}
	logger.Info("sink.postgres.opened")
	return &PostgresSink{pool: pool, logger: logger}, nil
}

func (s *PostgresSink) Append(ctx context.Context, doc entity.Document, rec entity.InvoiceRecord) error {
	var date *string
	if rec.InvoiceDate != "" {
		date = &rec.InvoiceDate
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+ApprovedTable+` (file_name, invoice_date, vendor_name, net_amount, tax_amount, total_amount)
		 VALUES ($1, $2::date, $3, $4::numeric, $5::numeric, $6::numeric)`,
		doc.Name, date, rec.VendorName,
		entity.FormatAmount(rec.NetAmount), entity.FormatAmount(rec.TaxAmount), entity.FormatAmount(rec.TotalAmount),
	)
	if err != nil {
		return common.SinkError(KindPostgres, fmt.Errorf("insert: %w", err))
	}
	return nil
}

func (s *PostgresSink) Close() error {
	s.pool.Close()
	return nil
}

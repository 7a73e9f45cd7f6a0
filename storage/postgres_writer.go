package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"renovation-quoter/models"
)

const (
	pingAttempts = 10
	pingInterval = 2 * time.Second
	writeTimeout = 10 * time.Second
)

// PostgresWriter persists assembled quotes to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < pingAttempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(pingInterval):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS quotes (
			id          UUID          PRIMARY KEY,
			room_size   NUMERIC(8,2)  NOT NULL,
			total_price NUMERIC(12,2) NOT NULL DEFAULT 0,
			created_at  TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS quote_line_items (
			quote_id       UUID          NOT NULL REFERENCES quotes(id) ON DELETE CASCADE,
			position       INTEGER       NOT NULL,
			task           VARCHAR(50)   NOT NULL,
			material_cost  NUMERIC(12,2) NOT NULL DEFAULT 0,
			labor_cost     NUMERIC(12,2) NOT NULL DEFAULT 0,
			estimated_time NUMERIC(8,2)  NOT NULL DEFAULT 0,
			total_price    NUMERIC(12,2) NOT NULL DEFAULT 0,
			vat_rate       NUMERIC(5,4)  NOT NULL DEFAULT 0,
			margin         NUMERIC(5,4)  NOT NULL DEFAULT 0,
			PRIMARY KEY (quote_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_quotes_created_at    ON quotes(created_at);
		CREATE INDEX IF NOT EXISTS idx_quote_line_items_task ON quote_line_items(task);
	`)
	return err
}

// Write inserts the quote and its line items in a single transaction.
func (pw *PostgresWriter) Write(quote *models.Quote) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.New()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO quotes (id, room_size, total_price) VALUES ($1, $2, $3)`,
		id, quote.RoomSize, quote.TotalPrice,
	); err != nil {
		return fmt.Errorf("postgres: insert quote: %w", err)
	}

	if len(quote.Tasks) > 0 {
		query, args := lineItemInsert(id, quote.Tasks)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert line items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

const lineItemColumns = 9

// lineItemInsert builds a single multi-row INSERT for items.
func lineItemInsert(quoteID uuid.UUID, items []models.TaskLineItem) (string, []interface{}) {
	valueStrings := make([]string, 0, len(items))
	valueArgs := make([]interface{}, 0, len(items)*lineItemColumns)

	for idx, item := range items {
		base := idx * lineItemColumns
		placeholders := make([]string, lineItemColumns)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", base+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			quoteID, idx, item.Task.String(), item.MaterialCost, item.LaborCost,
			item.EstimatedTime, item.TotalPrice, item.VATRate, item.Margin)
	}

	query := fmt.Sprintf(`
		INSERT INTO quote_line_items
			(quote_id, position, task, material_cost, labor_cost, estimated_time, total_price, vat_rate, margin)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

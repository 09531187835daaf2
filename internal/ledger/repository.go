package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence for the ledger.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const uniqueViolation = "23505"

// InsertTransaction appends one transaction record.
func (r *Repository) InsertTransaction(ctx context.Context, record TransactionRecord) (*TransactionRecord, error) {
	const query = `
		INSERT INTO ledger_transactions (
			id, company_id, tx_date, tx_type, category, amount, description,
			affects_pl, affects_cash_flow, affects_balance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		record.ID,
		record.CompanyID,
		record.Date,
		string(record.Type),
		record.Category,
		record.Amount,
		record.Description,
		record.AffectsPL,
		record.AffectsCashFlow,
		record.AffectsBalance,
		record.CreatedAt,
	).Scan(&record.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: transaction %s", httpx.ErrDuplicate, record.ID)
		}
		return nil, fmt.Errorf("ledger: insert transaction: %w", err)
	}
	return &record, nil
}

// InsertTransactions appends a batch of records in one round trip.
func (r *Repository) InsertTransactions(ctx context.Context, records []TransactionRecord) (int, error) {
	batch := &pgx.Batch{}
	const query = `
		INSERT INTO ledger_transactions (
			id, company_id, tx_date, tx_type, category, amount, description,
			affects_pl, affects_cash_flow, affects_balance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, record := range records {
		batch.Queue(query,
			record.ID,
			record.CompanyID,
			record.Date,
			string(record.Type),
			record.Category,
			record.Amount,
			record.Description,
			record.AffectsPL,
			record.AffectsCashFlow,
			record.AffectsBalance,
			record.CreatedAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return i, fmt.Errorf("%w: transaction %s", httpx.ErrDuplicate, records[i].ID)
			}
			return i, fmt.Errorf("ledger: insert batch entry %d: %w", i, err)
		}
	}
	return len(records), nil
}

// ListTransactions returns a company's ledger ascending by transaction date.
func (r *Repository) ListTransactions(ctx context.Context, companyID string) ([]TransactionRecord, error) {
	const query = `
		SELECT id, company_id, tx_date, tx_type, category, amount, description,
		       affects_pl, affects_cash_flow, affects_balance, created_at
		FROM ledger_transactions
		WHERE company_id = $1
		ORDER BY tx_date, created_at, id`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("ledger: list transactions: %w", err)
	}
	defer rows.Close()

	var records []TransactionRecord
	for rows.Next() {
		var rec TransactionRecord
		var txType string
		if err := rows.Scan(
			&rec.ID,
			&rec.CompanyID,
			&rec.Date,
			&txType,
			&rec.Category,
			&rec.Amount,
			&rec.Description,
			&rec.AffectsPL,
			&rec.AffectsCashFlow,
			&rec.AffectsBalance,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ledger: scan transaction: %w", err)
		}
		rec.Type = finance.TransactionType(txType)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list transactions: %w", err)
	}
	return records, nil
}

// BeginningCash returns the company's configured opening cash position, or
// zero when none has been recorded.
func (r *Repository) BeginningCash(ctx context.Context, companyID string) (float64, error) {
	const query = `SELECT beginning_cash FROM companies WHERE id = $1`

	var cash float64
	err := r.pool.QueryRow(ctx, query, companyID).Scan(&cash)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ledger: beginning cash: %w", err)
	}
	return cash, nil
}

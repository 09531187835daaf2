package statements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for derived statements.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ReplacePeriodStatements swaps a company's derived period rows for the
// freshly computed sequence inside one transaction, so readers never observe
// a half-deleted series.
func (r *Repository) ReplacePeriodStatements(ctx context.Context, companyID string, periods []finance.PeriodStatement) error {
	computedAt := time.Now().UTC()
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM period_statements WHERE company_id = $1`, companyID); err != nil {
			return fmt.Errorf("statements: delete periods: %w", err)
		}
		const query = `
			INSERT INTO period_statements (company_id, period, payload, computed_at)
			VALUES ($1, $2, $3, $4)`
		for _, p := range periods {
			payload, err := json.Marshal(p.Statements)
			if err != nil {
				return fmt.Errorf("statements: marshal period %s: %w", p.Period.Format("2006-01"), err)
			}
			if _, err := tx.Exec(ctx, query, companyID, p.Period, payload, computedAt); err != nil {
				return fmt.Errorf("statements: insert period %s: %w", p.Period.Format("2006-01"), err)
			}
		}
		return nil
	})
}

// ListPeriodStatements returns a company's derived period rows ascending by
// period start.
func (r *Repository) ListPeriodStatements(ctx context.Context, companyID string) ([]finance.PeriodStatement, error) {
	const query = `
		SELECT period, payload
		FROM period_statements
		WHERE company_id = $1
		ORDER BY period`

	rows, err := r.pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("statements: list periods: %w", err)
	}
	defer rows.Close()

	var periods []finance.PeriodStatement
	for rows.Next() {
		var p finance.PeriodStatement
		var payload []byte
		if err := rows.Scan(&p.Period, &payload); err != nil {
			return nil, fmt.Errorf("statements: scan period: %w", err)
		}
		if err := json.Unmarshal(payload, &p.Statements); err != nil {
			return nil, fmt.Errorf("statements: decode period payload: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statements: list periods: %w", err)
	}
	return periods, nil
}

// GetCompanies resolves company references in the order requested.
func (r *Repository) GetCompanies(ctx context.Context, companyIDs []string) ([]CompanyRef, error) {
	const query = `
		SELECT id, name, beginning_cash
		FROM companies
		WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, companyIDs)
	if err != nil {
		return nil, fmt.Errorf("statements: get companies: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]CompanyRef, len(companyIDs))
	for rows.Next() {
		var ref CompanyRef
		if err := rows.Scan(&ref.ID, &ref.Name, &ref.BeginningCash); err != nil {
			return nil, fmt.Errorf("statements: scan company: %w", err)
		}
		byID[ref.ID] = ref
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statements: get companies: %w", err)
	}

	refs := make([]CompanyRef, 0, len(companyIDs))
	for _, id := range companyIDs {
		ref, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, id)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// AllCompanyIDs lists every company, used by the nightly refresh.
func (r *Repository) AllCompanyIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM companies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("statements: all company ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("statements: scan company id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("statements: all company ids: %w", err)
	}
	return ids, nil
}

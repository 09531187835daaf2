package statements

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/observability"
	"github.com/finboard/finboard/internal/shared"
)

// RepositoryPort defines the persistence behaviour required by the service.
type RepositoryPort interface {
	ReplacePeriodStatements(ctx context.Context, companyID string, periods []finance.PeriodStatement) error
	ListPeriodStatements(ctx context.Context, companyID string) ([]finance.PeriodStatement, error)
	GetCompanies(ctx context.Context, companyIDs []string) ([]CompanyRef, error)
	AllCompanyIDs(ctx context.Context) ([]string, error)
}

// LedgerPort supplies ledger snapshots for the engine.
type LedgerPort interface {
	Snapshot(ctx context.Context, companyID string) ([]finance.Transaction, float64, error)
}

// Service orchestrates statement derivation, persistence, and caching. The
// engine itself is stateless; this layer owns the caller obligations around
// it, in particular serialising each company's rebuild.
type Service struct {
	repo    RepositoryPort
	ledgers LedgerPort
	cache   *Cache
	locks   *shared.KeyedMutex
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewService constructs a statements service. Cache and metrics may be nil.
func NewService(repo RepositoryPort, ledgers LedgerPort, cache *Cache, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		ledgers: ledgers,
		cache:   cache,
		locks:   shared.NewKeyedMutex(),
		metrics: metrics,
		logger:  logger,
	}
}

// Rebuild recomputes and stores a company's full period sequence from its
// current ledger snapshot. The company's rebuild lock is held for the whole
// delete-recompute-insert sequence; concurrent rebuilds for other companies
// proceed independently.
func (s *Service) Rebuild(ctx context.Context, companyID string) error {
	if companyID == "" {
		return errors.New("statements: company ID required")
	}

	key := shared.RebuildLockKey(companyID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	start := time.Now()
	err := s.rebuildLocked(ctx, companyID)
	if err != nil {
		s.metrics.ObserveRebuild("error", time.Since(start))
		return err
	}
	s.metrics.ObserveRebuild("ok", time.Since(start))
	return nil
}

func (s *Service) rebuildLocked(ctx context.Context, companyID string) error {
	transactions, beginningCash, err := s.ledgers.Snapshot(ctx, companyID)
	if err != nil {
		return fmt.Errorf("statements: load ledger snapshot: %w", err)
	}

	periods := finance.CalculatePeriods(transactions, finance.PeriodOptions{BeginningCash: beginningCash})
	if err := s.repo.ReplacePeriodStatements(ctx, companyID, periods); err != nil {
		return err
	}

	if err := s.cache.Bump(ctx); err != nil && s.logger != nil {
		s.logger.Warn("bump statements cache", slog.String("company_id", companyID), slog.Any("error", err))
	}

	if s.logger != nil {
		s.logger.Info("statements rebuilt",
			slog.String("company_id", companyID),
			slog.Int("transactions", len(transactions)),
			slog.Int("periods", len(periods)))
	}
	return nil
}

// Statements derives the current full-ledger snapshot statements for one
// company, served through the cache.
func (s *Service) Statements(ctx context.Context, companyID string) (finance.FinancialStatements, error) {
	if companyID == "" {
		return finance.FinancialStatements{}, errors.New("statements: company ID required")
	}

	loader := func(ctx context.Context) (interface{}, error) {
		transactions, beginningCash, err := s.ledgers.Snapshot(ctx, companyID)
		if err != nil {
			return nil, err
		}
		return finance.CalculateStatements(transactions, beginningCash), nil
	}

	key, err := s.cache.BuildKey(ctx, keyStatements(companyID)...)
	if err != nil {
		return finance.FinancialStatements{}, err
	}
	var result finance.FinancialStatements
	if err := s.cache.FetchJSON(ctx, key, &result, loader); err != nil {
		return finance.FinancialStatements{}, err
	}
	return result, nil
}

// Periods returns a company's stored period sequence. When no rebuild has
// run yet the sequence is computed live from the ledger so callers never see
// an empty series for a company with transactions.
func (s *Service) Periods(ctx context.Context, companyID string) ([]finance.PeriodStatement, error) {
	if companyID == "" {
		return nil, errors.New("statements: company ID required")
	}

	loader := func(ctx context.Context) (interface{}, error) {
		stored, err := s.repo.ListPeriodStatements(ctx, companyID)
		if err != nil {
			return nil, err
		}
		if len(stored) > 0 {
			return stored, nil
		}
		transactions, beginningCash, err := s.ledgers.Snapshot(ctx, companyID)
		if err != nil {
			return nil, err
		}
		return finance.CalculatePeriods(transactions, finance.PeriodOptions{BeginningCash: beginningCash}), nil
	}

	key, err := s.cache.BuildKey(ctx, keyPeriods(companyID)...)
	if err != nil {
		return nil, err
	}
	var periods []finance.PeriodStatement
	if err := s.cache.FetchJSON(ctx, key, &periods, loader); err != nil {
		return nil, err
	}
	return periods, nil
}

// Consolidated computes the portfolio view across the given companies.
// Member ledgers load concurrently; the engine call itself is synchronous.
func (s *Service) Consolidated(ctx context.Context, companyIDs []string) (finance.ConsolidatedFinancials, error) {
	if len(companyIDs) == 0 {
		return finance.ConsolidatedFinancials{}, errors.New("statements: at least one company required")
	}

	loader := func(ctx context.Context) (interface{}, error) {
		refs, err := s.repo.GetCompanies(ctx, companyIDs)
		if err != nil {
			return nil, err
		}

		members := make([]finance.CompanyFinancials, len(refs))
		g, gctx := errgroup.WithContext(ctx)
		for i, ref := range refs {
			g.Go(func() error {
				transactions, beginningCash, err := s.ledgers.Snapshot(gctx, ref.ID)
				if err != nil {
					return fmt.Errorf("load ledger for %s: %w", ref.ID, err)
				}
				members[i] = finance.CompanyFinancials{
					CompanyID:     ref.ID,
					CompanyName:   ref.Name,
					Transactions:  transactions,
					BeginningCash: beginningCash,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return finance.Consolidate(members), nil
	}

	key, err := s.cache.BuildKey(ctx, keyConsolidated(companyIDs)...)
	if err != nil {
		return finance.ConsolidatedFinancials{}, err
	}
	var result finance.ConsolidatedFinancials
	if err := s.cache.FetchJSON(ctx, key, &result, loader); err != nil {
		return finance.ConsolidatedFinancials{}, err
	}
	return result, nil
}

// RefreshAll rebuilds every company sequentially. Used by the nightly job;
// per-company failures are collected so one broken ledger does not stop the
// sweep.
func (s *Service) RefreshAll(ctx context.Context) error {
	ids, err := s.repo.AllCompanyIDs(ctx)
	if err != nil {
		return err
	}
	var failed []string
	for _, id := range ids {
		if err := s.Rebuild(ctx, id); err != nil {
			failed = append(failed, id)
			if s.logger != nil {
				s.logger.Error("rebuild statements", slog.String("company_id", id), slog.Any("error", err))
			}
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("statements: refresh failed for %d of %d companies", len(failed), len(ids))
	}
	return nil
}

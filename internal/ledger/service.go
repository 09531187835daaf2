package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/platform/httpx"
)

// RepositoryPort defines data access methods for the ledger.
type RepositoryPort interface {
	InsertTransaction(ctx context.Context, record TransactionRecord) (*TransactionRecord, error)
	InsertTransactions(ctx context.Context, records []TransactionRecord) (int, error)
	ListTransactions(ctx context.Context, companyID string) ([]TransactionRecord, error)
	BeginningCash(ctx context.Context, companyID string) (float64, error)
}

// RefreshEnqueuer schedules a statements refresh after ledger writes.
type RefreshEnqueuer interface {
	EnqueueStatementsRefresh(ctx context.Context, companyID string) error
}

// Service handles ledger business logic.
type Service struct {
	repo     RepositoryPort
	enqueuer RefreshEnqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService builds a Service instance. The enqueuer may be nil when no
// background refresh is wired (tests, one-shot tooling).
func NewService(repo RepositoryPort, enqueuer RefreshEnqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, logger: logger, now: time.Now}
}

// WithClock overrides the clock for deterministic tests.
func (s *Service) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Record validates and appends one transaction to a company's ledger.
func (s *Service) Record(ctx context.Context, companyID string, input RecordInput) (*TransactionRecord, error) {
	if companyID == "" {
		return nil, errors.New("ledger: company ID required")
	}
	record, err := s.buildRecord(companyID, input)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.InsertTransaction(ctx, *record)
	if err != nil {
		return nil, err
	}
	s.scheduleRefresh(ctx, companyID)
	return stored, nil
}

// Import validates and appends a batch of transactions. The batch is
// all-or-nothing: one structurally invalid entry rejects the whole request so
// a partial import never skews derived statements.
func (s *Service) Import(ctx context.Context, companyID string, inputs []RecordInput) (int, error) {
	if companyID == "" {
		return 0, errors.New("ledger: company ID required")
	}
	if len(inputs) == 0 {
		return 0, fmt.Errorf("%w: empty import batch", httpx.ErrValidation)
	}
	records := make([]TransactionRecord, 0, len(inputs))
	for i, input := range inputs {
		record, err := s.buildRecord(companyID, input)
		if err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}
		records = append(records, *record)
	}
	inserted, err := s.repo.InsertTransactions(ctx, records)
	if err != nil {
		return 0, err
	}
	s.scheduleRefresh(ctx, companyID)
	return inserted, nil
}

// List returns a company's full ledger, ascending by date.
func (s *Service) List(ctx context.Context, companyID string) ([]TransactionRecord, error) {
	if companyID == "" {
		return nil, errors.New("ledger: company ID required")
	}
	return s.repo.ListTransactions(ctx, companyID)
}

// Snapshot loads the engine-facing view of a company's ledger: its
// transactions as value objects plus the configured beginning cash.
func (s *Service) Snapshot(ctx context.Context, companyID string) ([]finance.Transaction, float64, error) {
	records, err := s.repo.ListTransactions(ctx, companyID)
	if err != nil {
		return nil, 0, err
	}
	beginningCash, err := s.repo.BeginningCash(ctx, companyID)
	if err != nil {
		return nil, 0, err
	}
	txs := make([]finance.Transaction, 0, len(records))
	for _, record := range records {
		txs = append(txs, record.Transaction())
	}
	return txs, beginningCash, nil
}

func (s *Service) buildRecord(companyID string, input RecordInput) (*TransactionRecord, error) {
	if missing := finance.ValidateTransactionShape(input.Draft()); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(missing, "; "))
	}
	txType := finance.TransactionType(strings.ToLower(strings.TrimSpace(input.Type)))
	if !txType.Valid() {
		return nil, fmt.Errorf("%w: unknown transaction type %q", httpx.ErrValidation, input.Type)
	}
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	return &TransactionRecord{
		ID:              id,
		CompanyID:       companyID,
		Date:            *input.Date,
		Type:            txType,
		Category:        input.Category,
		Amount:          *input.Amount,
		Description:     input.Description,
		AffectsPL:       input.AffectsPL,
		AffectsCashFlow: input.AffectsCashFlow,
		AffectsBalance:  input.AffectsBalance,
		CreatedAt:       s.now().UTC(),
	}, nil
}

// scheduleRefresh enqueues a statements refresh. Failures are logged, not
// returned: the write already succeeded and the nightly refresh will catch up.
func (s *Service) scheduleRefresh(ctx context.Context, companyID string) {
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueueStatementsRefresh(ctx, companyID); err != nil && s.logger != nil {
		s.logger.Warn("enqueue statements refresh",
			slog.String("company_id", companyID), slog.Any("error", err))
	}
}

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// StatementsService describes the behaviour the refresh job needs from the
// statements layer.
type StatementsService interface {
	Rebuild(ctx context.Context, companyID string) error
	RefreshAll(ctx context.Context) error
}

// StatementsRefreshJob rebuilds stored period statements from the ledger.
type StatementsRefreshJob struct {
	Service StatementsService
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewStatementsRefreshJob constructs the job handler.
func NewStatementsRefreshJob(service StatementsService, logger *slog.Logger) *StatementsRefreshJob {
	return &StatementsRefreshJob{
		Service: service,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one refresh. A payload without a company ID sweeps the
// whole portfolio, which is how the nightly cron entry runs it.
func (j *StatementsRefreshJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("statements refresh: dependencies not configured")
	}
	var payload StatementsRefreshPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.clock()
	var err error
	if payload.CompanyID == "" {
		err = j.Service.RefreshAll(ctx)
	} else {
		err = j.Service.Rebuild(ctx, payload.CompanyID)
	}
	if j.Logger != nil {
		attrs := []any{
			slog.String("company_id", payload.CompanyID),
			slog.Duration("elapsed", j.clock().Sub(start)),
		}
		if err != nil {
			j.Logger.Error("statements refresh failed", append(attrs, slog.Any("error", err))...)
		} else {
			j.Logger.Info("statements refresh complete", attrs...)
		}
	}
	return err
}

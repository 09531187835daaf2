// Package jobs contains the background task definitions and the Asynq
// worker runtime. Statement refreshes run here so ledger writes return
// quickly while period sequences catch up asynchronously.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStatementsRefresh recomputes stored period statements. An empty
	// company ID in the payload means every company.
	TaskStatementsRefresh = "statements:refresh"
)

// StatementsRefreshPayload scopes a refresh to one company or, when
// CompanyID is empty, the whole portfolio.
type StatementsRefreshPayload struct {
	CompanyID string `json:"company_id"`
}

// NewStatementsRefreshTask constructs an Asynq task for a statements refresh.
func NewStatementsRefreshTask(companyID string) (*asynq.Task, error) {
	body, err := json.Marshal(StatementsRefreshPayload{CompanyID: companyID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStatementsRefresh, body, asynq.Queue(QueueDefault)), nil
}

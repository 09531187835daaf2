package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/finboard/finboard/testing"
)

type stubStatements struct {
	rebuilt    []string
	refreshAll int
	err        error
}

func (s *stubStatements) Rebuild(ctx context.Context, companyID string) error {
	s.rebuilt = append(s.rebuilt, companyID)
	return s.err
}

func (s *stubStatements) RefreshAll(ctx context.Context) error {
	s.refreshAll++
	return s.err
}

func TestStatementsRefreshSingleCompany(t *testing.T) {
	svc := &stubStatements{}
	job := NewStatementsRefreshJob(svc, nil)

	task, err := NewStatementsRefreshTask("co-1")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, []string{"co-1"}, svc.rebuilt)
	assert.Zero(t, svc.refreshAll)
}

func TestStatementsRefreshSweepsAllWhenUnscoped(t *testing.T) {
	svc := &stubStatements{}
	job := NewStatementsRefreshJob(svc, nil)

	task, err := NewStatementsRefreshTask("")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, 1, svc.refreshAll)
	assert.Empty(t, svc.rebuilt)
}

func TestStatementsRefreshPropagatesFailure(t *testing.T) {
	svc := &stubStatements{err: errors.New("pg down")}
	job := NewStatementsRefreshJob(svc, nil)

	task, err := NewStatementsRefreshTask("co-1")
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), task))
}

func TestStatementsRefreshBadPayloadSkipsRetry(t *testing.T) {
	job := NewStatementsRefreshJob(&stubStatements{}, nil)

	task := asynq.NewTask(TaskStatementsRefresh, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

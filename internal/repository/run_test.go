package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"negativacao-sync/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRepository_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := domain.Run{
		Key:       "runs:1",
		Workflow:  domain.WorkflowNegativation,
		DealID:    "10",
		Kind:      domain.KindPartialSuccess,
		Status:    domain.StatusPartialSuccess,
		Message:   "blocked",
		Mutations: 1,
		Created:   created,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO workflow_runs")).
		WithArgs("runs:1", "negativation", "10", "partial_success", "partial_success", "blocked", 1, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewRunRepository(db).Insert(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_ListWithFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"key", "workflow", "deal_id", "kind", "status", "message", "mutations", "created_at"}).
		AddRow("runs:2", "settlement", "10", "success", "success", "done", 2, created)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND workflow = $1 AND deal_id = $2 ORDER BY created_at DESC LIMIT $3")).
		WithArgs("settlement", "10", 50).
		WillReturnRows(rows)

	workflow, deal := "settlement", "10"
	runs, err := NewRunRepository(db).List(context.Background(), RunsFilter{Workflow: &workflow, DealID: &deal, Limit: 50})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, domain.WorkflowSettlement, runs[0].Workflow)
	assert.Equal(t, domain.KindSuccess, runs[0].Kind)
	assert.Equal(t, 2, runs[0].Mutations)
	assert.True(t, created.Equal(runs[0].Created))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS workflow_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewRunRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunRepository_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE key = $1")).
		WithArgs("runs:404").
		WillReturnRows(sqlmock.NewRows([]string{"key"}))

	_, err = NewRunRepository(db).Get(context.Background(), "runs:404")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

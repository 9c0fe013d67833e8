package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"negativacao-sync/internal/clients"
	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/repository"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunCache(t *testing.T) (*clients.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return clients.WrapRedis(rdb, "neg_"), mr
}

type memJournal struct {
	runs    []domain.Run
	failErr error
}

func (j *memJournal) Insert(_ context.Context, run domain.Run) error {
	if j.failErr != nil {
		return j.failErr
	}
	j.runs = append(j.runs, run)
	return nil
}

func (j *memJournal) Get(_ context.Context, key string) (domain.Run, error) {
	for _, r := range j.runs {
		if r.Key == key {
			return r, nil
		}
	}
	return domain.Run{}, repository.ErrRunNotFound
}

func (j *memJournal) List(_ context.Context, f repository.RunsFilter) ([]domain.Run, error) {
	var out []domain.Run
	for _, r := range j.runs {
		if matchesRunFilter(r, f) {
			out = append(out, r)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	runs []domain.Run
}

func (n *recordingNotifier) NotifyRun(_ context.Context, run domain.Run) error {
	n.runs = append(n.runs, run)
	return nil
}

func sampleOutcome(workflow domain.Workflow, dealID string, kind domain.Kind) *domain.Outcome {
	out := domain.NewOutcome(workflow, dealID)
	out.Record(domain.OpUpdate, dealID, map[string]any{"STAGE_ID": "X"})
	return out.Finish(kind, "done")
}

func TestRunService_RecordWritesEverySink(t *testing.T) {
	cache, mr := newRunCache(t)
	journal := &memJournal{}
	notifier := &recordingNotifier{}
	svc := NewRunService(cache, journal, notifier, time.Hour, nil)

	run, err := svc.Record(context.Background(), sampleOutcome(domain.WorkflowNegativation, "10", domain.KindSuccess))
	require.NoError(t, err)

	assert.Regexp(t, `^runs:[0-9a-f-]{36}$`, run.Key)
	assert.Equal(t, 1, run.Mutations)
	assert.Equal(t, domain.StatusSuccess, run.Status)

	assert.True(t, mr.Exists("neg_"+run.Key))
	assert.Equal(t, time.Hour, mr.TTL("neg_"+run.Key))
	members, err := mr.Members("neg_run_ids")
	require.NoError(t, err)
	assert.Equal(t, []string{run.Key}, members)

	require.Len(t, journal.runs, 1)
	require.Len(t, notifier.runs, 1)
	assert.Equal(t, run.Key, notifier.runs[0].Key)
}

func TestRunService_JournalFailureIsReportedNotFatal(t *testing.T) {
	cache, _ := newRunCache(t)
	journal := &memJournal{failErr: errors.New("db down")}
	svc := NewRunService(cache, journal, nil, time.Hour, nil)

	run, err := svc.Record(context.Background(), sampleOutcome(domain.WorkflowSettlement, "10", domain.KindNoOp))
	require.Error(t, err)
	assert.NotEmpty(t, run.Key)

	got, err := svc.GetRun(context.Background(), run.Key)
	require.NoError(t, err)
	assert.Equal(t, domain.KindNoOp, got.Kind)
}

func TestRunService_NoSinks(t *testing.T) {
	svc := NewRunService(nil, nil, nil, 0, nil)

	run, err := svc.Record(context.Background(), sampleOutcome(domain.WorkflowStatusSync, "50", domain.KindSuccess))
	require.NoError(t, err)
	assert.NotEmpty(t, run.Key)

	_, err = svc.GetRun(context.Background(), run.Key)
	assert.ErrorIs(t, err, ErrRunsUnavailable)
	_, err = svc.ListRuns(context.Background(), repository.RunsFilter{})
	assert.ErrorIs(t, err, ErrRunsUnavailable)
}

func TestRunService_ListFromCacheNewestFirst(t *testing.T) {
	cache, mr := newRunCache(t)
	svc := NewRunService(cache, nil, nil, time.Hour, nil)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, _ := svc.Record(context.Background(), sampleOutcome(domain.WorkflowNegativation, "10", domain.KindSuccess))
	second, _ := svc.Record(context.Background(), sampleOutcome(domain.WorkflowSettlement, "10", domain.KindSuccess))
	third, _ := svc.Record(context.Background(), sampleOutcome(domain.WorkflowNegativation, "11", domain.KindRejected))

	runs, err := svc.ListRuns(context.Background(), repository.RunsFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, third.Key, runs[0].Key)
	assert.Equal(t, first.Key, runs[2].Key)

	workflow := "negativation"
	runs, err = svc.ListRuns(context.Background(), repository.RunsFilter{Workflow: &workflow, Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, third.Key, runs[0].Key)

	mr.Del("neg_" + second.Key)
	runs, err = svc.ListRuns(context.Background(), repository.RunsFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	members, _ := mr.Members("neg_run_ids")
	assert.NotContains(t, members, second.Key)
}

func TestRunService_GetFallsBackToJournal(t *testing.T) {
	cache, _ := newRunCache(t)
	journal := &memJournal{runs: []domain.Run{{Key: "runs:old", Kind: domain.KindSuccess}}}
	svc := NewRunService(cache, journal, nil, time.Hour, nil)

	run, err := svc.GetRun(context.Background(), "runs:old")
	require.NoError(t, err)
	assert.Equal(t, "runs:old", run.Key)

	_, err = svc.GetRun(context.Background(), "runs:missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

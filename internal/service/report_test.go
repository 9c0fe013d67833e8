package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type capturePublisher struct {
	mu    sync.Mutex
	name  string
	data  []byte
	err   error
	ready chan struct{}
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{ready: make(chan struct{}, 1)}
}

func (p *capturePublisher) Publish(_ context.Context, fileName string, data []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.name, p.data = fileName, data
	p.ready <- struct{}{}
	if p.err != nil {
		return "", p.err
	}
	return "/files/abc_" + fileName, nil
}

type reportEvents struct {
	mu       sync.Mutex
	progress []float64
	complete []string
	failed   []string
}

func (e *reportEvents) NotifyReportProgress(_ context.Context, _ string, progress float64, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = append(e.progress, progress)
	return nil
}

func (e *reportEvents) NotifyReportComplete(_ context.Context, _ string, url, _ string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.complete = append(e.complete, url)
	return nil
}

func (e *reportEvents) NotifyReportFailed(_ context.Context, _ string, msg string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed = append(e.failed, msg)
	return nil
}

func journalWith(n int) *memJournal {
	j := &memJournal{}
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		j.runs = append(j.runs, domain.Run{
			Key:       "runs:" + string(rune('a'+i)),
			Workflow:  domain.WorkflowNegativation,
			DealID:    "10",
			Kind:      domain.KindSuccess,
			Status:    domain.StatusSuccess,
			Message:   "ok",
			Mutations: i,
			Created:   base.Add(time.Duration(i) * time.Minute),
		})
	}
	return j
}

func TestReportService_GenerateWorkbook(t *testing.T) {
	cache, _ := newRunCache(t)
	runs := NewRunService(nil, journalWith(3), nil, time.Hour, nil)
	pub := newCapturePublisher()
	events := &reportEvents{}
	svc := NewReportService(runs, cache, pub, events, nil)
	svc.chunkSize = 2

	status := &ReportStatus{Key: "reports:test", Created: time.Now()}
	require.NoError(t, svc.generate(context.Background(), status, repository.RunsFilter{}))

	require.NotNil(t, status.FileURL)
	assert.Equal(t, 100.0, status.Progress)
	assert.Equal(t, []float64{67, 95, 95, 100}, events.progress)
	assert.Equal(t, []string{*status.FileURL}, events.complete)

	f, err := excelize.OpenReader(bytes.NewReader(pub.data))
	require.NoError(t, err)
	rows, err := f.GetRows(reportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Run", rows[0][0])
	assert.Equal(t, "runs:a", rows[1][0])
	assert.Equal(t, "negativation", rows[1][1])

	stored, err := svc.GetReport(context.Background(), "reports:test")
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored.Progress)
	require.NotNil(t, stored.FileURL)
}

func TestReportService_PublishFailure(t *testing.T) {
	cache, _ := newRunCache(t)
	runs := NewRunService(nil, journalWith(1), nil, time.Hour, nil)
	pub := newCapturePublisher()
	pub.err = errors.New("bucket missing")
	events := &reportEvents{}
	svc := NewReportService(runs, cache, pub, events, nil)

	status := &ReportStatus{Key: "reports:fail", Created: time.Now()}
	svc.build(context.Background(), status, repository.RunsFilter{})

	require.Len(t, events.failed, 1)
	assert.Contains(t, events.failed[0], "bucket missing")
	assert.Empty(t, events.complete)

	stored, err := svc.GetReport(context.Background(), "reports:fail")
	require.NoError(t, err)
	assert.Nil(t, stored.FileURL)
	assert.Contains(t, stored.Error, "bucket missing")
}

func TestReportService_StartReportRunsInBackground(t *testing.T) {
	cache, _ := newRunCache(t)
	runs := NewRunService(nil, journalWith(2), nil, time.Hour, nil)
	pub := newCapturePublisher()
	svc := NewReportService(runs, cache, pub, nil, nil)

	workflow := "negativation"
	key, err := svc.StartReport(context.Background(), repository.RunsFilter{Workflow: &workflow})
	require.NoError(t, err)
	assert.Regexp(t, `^reports:`, key)

	select {
	case <-pub.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("report was not published")
	}

	pub.mu.Lock()
	assert.Regexp(t, `^runs_\d{8}_\d{6}\.xlsx$`, pub.name)
	pub.mu.Unlock()
}

func TestReportService_RequiresPublisher(t *testing.T) {
	svc := NewReportService(NewRunService(nil, nil, nil, 0, nil), nil, nil, nil, nil)
	_, err := svc.StartReport(context.Background(), repository.RunsFilter{})
	assert.Error(t, err)
}

func TestReportFilters(t *testing.T) {
	deal := "10"
	m := reportFilters(repository.RunsFilter{DealID: &deal})
	assert.Equal(t, "10", m["deal_id"])
	assert.Nil(t, m["workflow"])
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/repository"
	"negativacao-sync/pkg/logger"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	reportSetKey    = "report_ids"
	reportKeyPrefix = "reports:"
	reportTTL       = 20 * time.Minute
	reportSheet     = "Runs"
)

var ErrReportNotFound = errors.New("report not found")

// ReportStatus is the progress record kept in the cache while a report is built.
type ReportStatus struct {
	Key      string    `json:"key"`
	Filters  any       `json:"filters"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    string    `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

type RunLister interface {
	ListRuns(ctx context.Context, f repository.RunsFilter) ([]domain.Run, error)
}

// ReportPublisher stores a finished workbook and returns its download link.
type ReportPublisher interface {
	Publish(ctx context.Context, fileName string, data []byte) (string, error)
}

type ReportNotifier interface {
	NotifyReportProgress(ctx context.Context, reportID string, progress float64, stage string) error
	NotifyReportComplete(ctx context.Context, reportID, url, filename string) error
	NotifyReportFailed(ctx context.Context, reportID, errMsg string) error
}

type reportColumn struct {
	Header string
	Value  func(domain.Run) any
}

var reportColumns = []reportColumn{
	{"Run", func(r domain.Run) any { return r.Key }},
	{"Workflow", func(r domain.Run) any { return string(r.Workflow) }},
	{"Deal", func(r domain.Run) any { return r.DealID }},
	{"Kind", func(r domain.Run) any { return string(r.Kind) }},
	{"Status", func(r domain.Run) any { return string(r.Status) }},
	{"Message", func(r domain.Run) any { return r.Message }},
	{"Mutations", func(r domain.Run) any { return r.Mutations }},
	{"Created", func(r domain.Run) any { return r.Created.Format("2006-01-02 15:04:05") }},
}

type ReportService struct {
	runs      RunLister
	cache     RunCache
	publisher ReportPublisher
	ws        ReportNotifier
	log       *logger.Logger
	chunkSize int
}

func NewReportService(runs RunLister, cache RunCache, publisher ReportPublisher, ws ReportNotifier, log *logger.Logger) *ReportService {
	if log == nil {
		log = logger.Discard()
	}
	return &ReportService{
		runs:      runs,
		cache:     cache,
		publisher: publisher,
		ws:        ws,
		log:       log,
		chunkSize: 500,
	}
}

// StartReport registers a report and builds it in the background.
func (s *ReportService) StartReport(ctx context.Context, f repository.RunsFilter) (string, error) {
	if s.publisher == nil {
		return "", errors.New("no report storage configured")
	}

	status := &ReportStatus{
		Key:     reportKeyPrefix + uuid.NewString(),
		Filters: reportFilters(f),
		Created: time.Now().UTC(),
	}
	if err := s.saveStatus(ctx, status); err != nil {
		s.log.WithContext(ctx).Warn("report status write failed", "report", status.Key, "error", err)
	}

	go s.build(context.Background(), status, f)

	return status.Key, nil
}

func (s *ReportService) GetReport(ctx context.Context, key string) (ReportStatus, error) {
	if s.cache == nil {
		return ReportStatus{}, ErrRunsUnavailable
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return ReportStatus{}, ErrReportNotFound
	}

	var status ReportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return ReportStatus{}, fmt.Errorf("failed to parse report status: %w", err)
	}
	return status, nil
}

func (s *ReportService) build(ctx context.Context, status *ReportStatus, f repository.RunsFilter) {
	log := s.log.With("report", status.Key)

	if err := s.generate(ctx, status, f); err != nil {
		log.Error("report failed", "error", err)
		status.Error = err.Error()
		_ = s.saveStatus(ctx, status)
		s.notifyFailed(ctx, status.Key, err.Error())
		return
	}
	log.Info("report ready", "url", *status.FileURL)
}

func (s *ReportService) generate(ctx context.Context, status *ReportStatus, f repository.RunsFilter) error {
	runs, err := s.runs.ListRuns(ctx, f)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()
	file.SetSheetName(file.GetSheetName(0), reportSheet)

	for i, col := range reportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(reportSheet, cell, col.Header)
	}

	total := len(runs)
	for i, run := range runs {
		for colIdx, col := range reportColumns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = file.SetCellValue(reportSheet, cell, col.Value(run))
		}

		if (i+1)%s.chunkSize == 0 || i == total-1 {
			// 100 is reserved for when the link exists
			progress := math.Min(math.Round(float64(i+1)/float64(total)*100), 95)
			s.progress(ctx, status, progress, "generating")
		}
	}

	buf, err := file.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	fileName := fmt.Sprintf("runs_%s.xlsx", time.Now().Format("20060102_150405"))

	s.progress(ctx, status, 95, "uploading")

	url, err := s.publisher.Publish(ctx, fileName, buf.Bytes())
	if err != nil {
		return fmt.Errorf("publish %s: %w", fileName, err)
	}

	status.FileURL = &url
	s.progress(ctx, status, 100, "ready")
	if s.ws != nil {
		_ = s.ws.NotifyReportComplete(ctx, status.Key, url, fileName)
	}
	return nil
}

func (s *ReportService) progress(ctx context.Context, status *ReportStatus, progress float64, stage string) {
	status.Progress = progress
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyReportProgress(ctx, status.Key, progress, stage)
	}
}

func (s *ReportService) notifyFailed(ctx context.Context, key, msg string) {
	if s.ws != nil {
		_ = s.ws.NotifyReportFailed(ctx, key, msg)
	}
}

func (s *ReportService) saveStatus(ctx context.Context, st *ReportStatus) error {
	if s.cache == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, st.Key, string(data), reportTTL); err != nil {
		return err
	}

	return s.cache.SAdd(ctx, reportSetKey, st.Key)
}

func reportFilters(f repository.RunsFilter) map[string]any {
	m := map[string]any{
		"workflow": nil,
		"deal_id":  nil,
		"status":   nil,
		"since":    nil,
	}
	if f.Workflow != nil {
		m["workflow"] = *f.Workflow
	}
	if f.DealID != nil {
		m["deal_id"] = *f.DealID
	}
	if f.Status != nil {
		m["status"] = *f.Status
	}
	if f.Since != nil {
		m["since"] = f.Since.Format(time.RFC3339)
	}
	return m
}

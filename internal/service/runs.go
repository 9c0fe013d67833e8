package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"negativacao-sync/internal/clients"
	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/repository"
	"negativacao-sync/pkg/logger"

	"github.com/google/uuid"
)

const (
	runSetKey    = "run_ids"
	runKeyPrefix = "runs:"
)

var (
	ErrRunNotFound     = errors.New("run not found")
	ErrRunsUnavailable = errors.New("no run store configured")
)

// RunCache is the key/value store holding recent runs.
type RunCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// RunJournal is the durable run history.
type RunJournal interface {
	Insert(ctx context.Context, run domain.Run) error
	Get(ctx context.Context, key string) (domain.Run, error)
	List(ctx context.Context, f repository.RunsFilter) ([]domain.Run, error)
}

type RunNotifier interface {
	NotifyRun(ctx context.Context, run domain.Run) error
}

// RunService records every workflow outcome. Each sink is optional and a
// failing sink never fails the workflow that produced the outcome.
type RunService struct {
	cache    RunCache
	journal  RunJournal
	notifier RunNotifier
	ttl      time.Duration
	log      *logger.Logger
	now      func() time.Time
}

func NewRunService(cache RunCache, journal RunJournal, notifier RunNotifier, ttl time.Duration, log *logger.Logger) *RunService {
	if log == nil {
		log = logger.Discard()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RunService{
		cache:    cache,
		journal:  journal,
		notifier: notifier,
		ttl:      ttl,
		log:      log,
		now:      time.Now,
	}
}

func (s *RunService) Record(ctx context.Context, out *domain.Outcome) (domain.Run, error) {
	run := domain.Run{
		Key:       runKeyPrefix + uuid.NewString(),
		Workflow:  out.Workflow,
		DealID:    out.DealID,
		Kind:      out.Kind,
		Status:    out.Status,
		Message:   out.Message,
		Mutations: len(out.Mutations),
		Created:   s.now().UTC(),
	}
	log := s.log.WithContext(ctx).With("run", run.Key)

	var errs []error

	if s.cache != nil {
		if err := s.saveRun(ctx, run); err != nil {
			log.Warn("run cache write failed", "error", err)
			errs = append(errs, err)
		}
	}

	if s.journal != nil {
		if err := s.journal.Insert(ctx, run); err != nil {
			log.Warn("run journal write failed", "error", err)
			errs = append(errs, err)
		}
	}

	if s.notifier != nil {
		_ = s.notifier.NotifyRun(ctx, run)
	}

	return run, errors.Join(errs...)
}

func (s *RunService) saveRun(ctx context.Context, run domain.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}

	if err := s.cache.Set(ctx, run.Key, string(data), s.ttl); err != nil {
		return err
	}

	return s.cache.SAdd(ctx, runSetKey, run.Key)
}

func (s *RunService) GetRun(ctx context.Context, key string) (domain.Run, error) {
	if s.cache == nil && s.journal == nil {
		return domain.Run{}, ErrRunsUnavailable
	}

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err == nil {
			var run domain.Run
			if err := json.Unmarshal([]byte(data), &run); err != nil {
				return domain.Run{}, fmt.Errorf("failed to parse run: %w", err)
			}
			return run, nil
		}
		if !errors.Is(err, clients.ErrCacheMiss) {
			s.log.WithContext(ctx).Warn("run cache read failed", "run", key, "error", err)
		}
	}

	if s.journal != nil {
		run, err := s.journal.Get(ctx, key)
		if errors.Is(err, repository.ErrRunNotFound) {
			return domain.Run{}, ErrRunNotFound
		}
		return run, err
	}

	return domain.Run{}, ErrRunNotFound
}

// ListRuns reads the journal when present and otherwise scans the cache,
// newest first.
func (s *RunService) ListRuns(ctx context.Context, f repository.RunsFilter) ([]domain.Run, error) {
	if s.journal != nil {
		return s.journal.List(ctx, f)
	}
	if s.cache == nil {
		return nil, ErrRunsUnavailable
	}

	keys, err := s.cache.SMembers(ctx, runSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get run keys: %w", err)
	}

	var runs []domain.Run
	for _, key := range keys {
		data, err := s.cache.Get(ctx, key)
		if errors.Is(err, clients.ErrCacheMiss) {
			// expired entry, drop it from the index
			_ = s.cache.SRem(ctx, runSetKey, key)
			continue
		}
		if err != nil {
			continue
		}

		var run domain.Run
		if err := json.Unmarshal([]byte(data), &run); err != nil {
			continue
		}
		if matchesRunFilter(run, f) {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Created.After(runs[j].Created)
	})

	if f.Limit > 0 && len(runs) > f.Limit {
		runs = runs[:f.Limit]
	}
	return runs, nil
}

func matchesRunFilter(run domain.Run, f repository.RunsFilter) bool {
	if f.Workflow != nil && string(run.Workflow) != *f.Workflow {
		return false
	}
	if f.DealID != nil && run.DealID != *f.DealID {
		return false
	}
	if f.Status != nil && string(run.Status) != *f.Status {
		return false
	}
	if f.Since != nil && run.Created.Before(*f.Since) {
		return false
	}
	return true
}

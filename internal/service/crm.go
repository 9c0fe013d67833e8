package service

import (
	"context"

	"negativacao-sync/internal/config"
	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/titles"
)

// DealStore is the subset of the CRM the workflows need.
type DealStore interface {
	GetDeal(ctx context.Context, id string) (domain.Deal, error)
	UpdateDeal(ctx context.Context, id string, fields map[string]any) error
	CreateDeal(ctx context.Context, fields map[string]any) (string, error)
	ListDeals(ctx context.Context, filter map[string]any, selectFields []string) ([]domain.Deal, error)
}

// workflowBase carries what every workflow shares: the CRM, the pipeline
// layout and the origin-set catalog.
type workflowBase struct {
	crm     DealStore
	cfg     config.Workflow
	catalog titles.Catalog
}

func newWorkflowBase(crm DealStore, cfg config.Workflow) workflowBase {
	return workflowBase{crm: crm, cfg: cfg, catalog: cfg.Catalog()}
}

func (w workflowBase) getDeal(ctx context.Context, id string) (domain.Deal, error) {
	deal, err := w.crm.GetDeal(ctx, id)
	if err != nil {
		return nil, &domain.InfraError{Op: "get deal " + id, Err: err}
	}
	return deal, nil
}

// update performs the write and records it on the outcome.
func (w workflowBase) update(ctx context.Context, out *domain.Outcome, id string, fields map[string]any) error {
	if err := w.crm.UpdateDeal(ctx, id, fields); err != nil {
		return &domain.InfraError{Op: "update deal " + id, Err: err}
	}
	out.Record(domain.OpUpdate, id, fields)
	return nil
}

func (w workflowBase) list(ctx context.Context, filter map[string]any, selectFields []string) ([]domain.Deal, error) {
	deals, err := w.crm.ListDeals(ctx, filter, selectFields)
	if err != nil {
		return nil, &domain.InfraError{Op: "list deals", Err: err}
	}
	return deals, nil
}

func (w workflowBase) moveStage(ctx context.Context, out *domain.Outcome, id, stage string) error {
	return w.update(ctx, out, id, map[string]any{domain.FieldStage: stage})
}

func infraFailure(out *domain.Outcome, err error) (*domain.Outcome, error) {
	return out.Finish(domain.KindInfraError, err.Error()), err
}

func anyOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

package service

import (
	"context"

	"negativacao-sync/internal/config"
	"negativacao-sync/internal/domain"
	"negativacao-sync/pkg/logger"
)

const (
	msgNothingPending   = "correspondence status has nothing pending"
	msgSettlementDone   = "matching titles updated in the negativation pipeline"
	msgNoMatchingTitles = "no negativation deal carries a paid title"
)

// SettlementReconciler retracts negativation deals whose titles were paid
// when the collection deal is won.
type SettlementReconciler struct {
	workflowBase
	log *logger.Logger
}

func NewSettlementReconciler(crm DealStore, cfg config.Workflow, log *logger.Logger) *SettlementReconciler {
	if log == nil {
		log = logger.Discard()
	}
	return &SettlementReconciler{workflowBase: newWorkflowBase(crm, cfg), log: log}
}

func (r *SettlementReconciler) Reconcile(ctx context.Context, dealID string) (*domain.Outcome, error) {
	out := domain.NewOutcome(domain.WorkflowSettlement, dealID)
	log := r.log.WithContext(ctx).WithWorkflow(string(out.Workflow), dealID)

	deal, err := r.getDeal(ctx, dealID)
	if err != nil {
		return infraFailure(out, err)
	}

	if deal.Stage() != r.cfg.Collection.Won {
		return out.Finish(domain.KindRejected, msgWrongStage), nil
	}

	status := deal.String(r.cfg.Fields.CorrespondenceStatus)
	if !anyOf(status, r.cfg.Status.Requested, r.cfg.Status.Reported) {
		return out.Finish(domain.KindNoOp, msgNothingPending), nil
	}

	// a blank id would match every negativation deal with the field unset
	externalID := deal.String(r.cfg.Fields.ExternalID)
	if externalID == "" {
		return out.Finish(domain.KindRejected, msgExternalIDBlank), nil
	}

	paid := map[string]bool{}
	for _, v := range r.catalog.Values(deal) {
		paid[v] = true
	}

	targets := r.catalog.Targets()
	selectFields := append([]string{domain.FieldID, domain.FieldStage}, targets...)
	negativations, err := r.list(ctx, map[string]any{
		domain.FieldCategory:          r.cfg.Negativation.CategoryID,
		"=" + r.cfg.Fields.ExternalID: externalID,
	}, selectFields)
	if err != nil {
		return infraFailure(out, err)
	}

	neg := r.cfg.Negativation
	for _, nd := range negativations {
		if !carriesPaidTitle(nd, targets, paid) {
			continue
		}

		var next string
		switch nd.Stage() {
		case neg.New, neg.Preparation:
			next = neg.AwaitingSettlementInvoice
		case neg.FinalInvoice, neg.Lost:
			next = neg.ClosedOut
		default:
			continue
		}

		if err := r.moveStage(ctx, out, nd.ID(), next); err != nil {
			return infraFailure(out, err)
		}
		log.Info("negativation deal retracted", "negativation_deal", nd.ID(), "stage", next)
	}

	if !out.Mutated() {
		return out.Finish(domain.KindSuccess, msgNoMatchingTitles), nil
	}
	return out.Finish(domain.KindSuccess, msgSettlementDone), nil
}

func carriesPaidTitle(deal domain.Deal, fields []string, paid map[string]bool) bool {
	for _, f := range fields {
		if v := deal.String(f); v != "" && paid[v] {
			return true
		}
	}
	return false
}

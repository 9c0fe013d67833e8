package service

import (
	"context"

	"negativacao-sync/internal/config"
	"negativacao-sync/internal/domain"
	"negativacao-sync/pkg/logger"
)

const (
	msgExternalIDBlank     = "required external id field is blank"
	msgNoCollectionDeal    = "no matching deal found in the collection pipeline"
	msgAmbiguousCollection = "more than one collection deal shares the external id"
	msgStatusRequested     = "status set to REQUESTED"
	msgStatusReported      = "status set to REPORTED"
	msgStatusRetracted     = "status set to RETRACTED"
	msgStatusAlreadySet    = "status already set, left unchanged"
	msgOtherNegativations  = "other negativation deals are still active, status left unchanged"
	msgStageWithoutMapping = "stage has no status mapping"
)

// StatusSynchronizer mirrors the stage of a negativation deal onto the
// correspondence status of its collection deal.
type StatusSynchronizer struct {
	workflowBase
	log *logger.Logger
}

func NewStatusSynchronizer(crm DealStore, cfg config.Workflow, log *logger.Logger) *StatusSynchronizer {
	if log == nil {
		log = logger.Discard()
	}
	return &StatusSynchronizer{workflowBase: newWorkflowBase(crm, cfg), log: log}
}

func (s *StatusSynchronizer) Sync(ctx context.Context, dealID string) (*domain.Outcome, error) {
	out := domain.NewOutcome(domain.WorkflowStatusSync, dealID)
	log := s.log.WithContext(ctx).WithWorkflow(string(out.Workflow), dealID)

	deal, err := s.getDeal(ctx, dealID)
	if err != nil {
		return infraFailure(out, err)
	}

	stage := deal.Stage()
	externalID := deal.String(s.cfg.Fields.ExternalID)
	if externalID == "" {
		return out.Finish(domain.KindRejected, msgExternalIDBlank), nil
	}

	matches, err := s.list(ctx, map[string]any{
		domain.FieldCategory:          s.cfg.Collection.CategoryID,
		"=" + s.cfg.Fields.ExternalID: externalID,
	}, []string{domain.FieldID, domain.FieldStage, s.cfg.Fields.ExternalID, s.cfg.Fields.CorrespondenceStatus})
	if err != nil {
		return infraFailure(out, err)
	}
	if len(matches) == 0 {
		return out.Finish(domain.KindNotMatched, msgNoCollectionDeal), nil
	}
	if len(matches) > 1 && s.cfg.StrictCollectionMatch {
		log.Warn("ambiguous collection deal", "external_id", externalID, "matches", len(matches))
		return out.Finish(domain.KindRejected, msgAmbiguousCollection), nil
	}

	collection := matches[0]
	collectionID := collection.ID()
	current := collection.String(s.cfg.Fields.CorrespondenceStatus)
	neg := s.cfg.Negativation

	var target, message string
	switch {
	case anyOf(stage, neg.New, neg.FinalInvoice):
		if current != "" {
			return out.Finish(domain.KindNoOp, msgStatusAlreadySet), nil
		}
		target, message = s.cfg.Status.Requested, msgStatusRequested

	case anyOf(stage, neg.Preparation, neg.Lost):
		target, message = s.cfg.Status.Reported, msgStatusReported

	case anyOf(stage, neg.Executing, neg.Won):
		active, err := s.list(ctx, map[string]any{
			"!" + domain.FieldID:           dealID,
			domain.FieldCategory:          neg.CategoryID,
			"=" + s.cfg.Fields.ExternalID: externalID,
			"!" + domain.FieldStage:       []string{neg.Executing, neg.Won},
		}, []string{domain.FieldID, domain.FieldStage})
		if err != nil {
			return infraFailure(out, err)
		}
		if len(active) > 0 {
			return out.Finish(domain.KindNoOp, msgOtherNegativations), nil
		}
		target, message = s.cfg.Status.Retracted, msgStatusRetracted

	default:
		return out.Finish(domain.KindNoOp, msgStageWithoutMapping), nil
	}

	if err := s.update(ctx, out, collectionID, map[string]any{s.cfg.Fields.CorrespondenceStatus: target}); err != nil {
		return infraFailure(out, err)
	}
	log.Info("correspondence status updated", "collection_deal", collectionID, "status", target)
	return out.Finish(domain.KindSuccess, message), nil
}

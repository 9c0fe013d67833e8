package rest

import (
	"context"
	"errors"
	"net/http"

	"negativacao-sync/internal/domain"
)

type workflowFunc func(ctx context.Context, dealID string) (*domain.Outcome, error)

func (h *Handler) negativate(w http.ResponseWriter, r *http.Request) {
	h.runWorkflow(w, r, domain.WorkflowNegativation, h.negativation.Dispatch)
}

func (h *Handler) syncStatus(w http.ResponseWriter, r *http.Request) {
	h.runWorkflow(w, r, domain.WorkflowStatusSync, h.statusSync.Sync)
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	h.runWorkflow(w, r, domain.WorkflowSettlement, h.settlement.Reconcile)
}

func (h *Handler) runWorkflow(w http.ResponseWriter, r *http.Request, workflow domain.Workflow, run workflowFunc) {
	dealID, err := ValidateDealID(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	ctx := r.Context()
	log := h.log.WithContext(ctx).WithWorkflow(string(workflow), dealID)

	out, err := run(ctx, dealID)
	if out == nil {
		log.Error("workflow returned no outcome", "error", err)
		ErrorInternal(w, "workflow failed")
		return
	}

	if err != nil {
		var mte *domain.MalformedTitleError
		var infra *domain.InfraError
		switch {
		case errors.As(err, &mte):
			log.Warn("malformed title", "field", mte.Field, "error", err)
		case errors.As(err, &infra):
			log.Error("crm call failed", "error", err, "mutations", len(out.Mutations))
		default:
			log.Error("workflow failed", "error", err)
		}
	}

	var runKey string
	if h.runs != nil {
		// the request may already be cancelled; the record must still land
		rec, recErr := h.runs.Record(context.WithoutCancel(ctx), out)
		if recErr != nil {
			log.Warn("run not fully recorded", "error", recErr)
		}
		runKey = rec.Key
	}

	log.Info("workflow finished", "kind", out.Kind, "status", out.Status, "mutations", len(out.Mutations))
	WorkflowResponse(w, out, runKey)
}

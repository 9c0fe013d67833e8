package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"negativacao-sync/internal/config"
	"negativacao-sync/internal/domain"
	"negativacao-sync/pkg/logger"
)

const (
	msgWrongStage       = "deal is not in the expected stage"
	msgTitlesBlank      = "request processed, but the titles field is blank"
	msgInvalidTitle     = "request processed, but one or more titles are invalid"
	msgNegativationDone = "request processed and titles created in the negativation pipeline"
)

// NegativationDispatcher sends the titles listed on a collection deal to the
// negativation pipeline, one new deal per title.
type NegativationDispatcher struct {
	workflowBase
	log *logger.Logger
}

func NewNegativationDispatcher(crm DealStore, cfg config.Workflow, log *logger.Logger) *NegativationDispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &NegativationDispatcher{workflowBase: newWorkflowBase(crm, cfg), log: log}
}

func (d *NegativationDispatcher) Dispatch(ctx context.Context, dealID string) (*domain.Outcome, error) {
	out := domain.NewOutcome(domain.WorkflowNegativation, dealID)
	log := d.log.WithContext(ctx).WithWorkflow(string(out.Workflow), dealID)

	deal, err := d.getDeal(ctx, dealID)
	if err != nil {
		return infraFailure(out, err)
	}

	if deal.Stage() != d.cfg.Collection.AwaitingNegativation {
		log.Info("negativation rejected", "stage", deal.Stage())
		return out.Finish(domain.KindRejected, msgWrongStage), nil
	}

	requested := deal.String(d.cfg.Fields.TitlesToReport)
	if requested == "" {
		if err := d.moveStage(ctx, out, dealID, d.cfg.Collection.Blocked); err != nil {
			return infraFailure(out, err)
		}
		return out.Finish(domain.KindPartialSuccess, msgTitlesBlank), nil
	}

	registry, err := d.catalog.Build(deal)
	if err != nil {
		var mte *domain.MalformedTitleError
		if errors.As(err, &mte) {
			log.Warn("malformed title", "field", mte.Field, "error", err)
		}
		return out.Finish(domain.KindMalformedTitle, err.Error()), err
	}

	found := make([]domain.Title, 0)
	for _, id := range SplitTitleIDs(requested) {
		title, ok := registry[id]
		if !ok {
			log.Info("unknown title requested", "title_id", id)
			if err := d.moveStage(ctx, out, dealID, d.cfg.Collection.Blocked); err != nil {
				return infraFailure(out, err)
			}
			return out.Finish(domain.KindPartialSuccess, msgInvalidTitle), nil
		}
		found = append(found, title)
	}

	for _, title := range found {
		fields := d.negativationFields(deal, title)
		newID, err := d.crm.CreateDeal(ctx, fields)
		if err != nil {
			return infraFailure(out, &domain.InfraError{Op: "create deal for title " + title.ID, Err: err})
		}
		out.Record(domain.OpCreate, newID, fields)
	}

	if err := d.moveStage(ctx, out, dealID, d.cfg.Collection.Processing); err != nil {
		return infraFailure(out, err)
	}

	log.Info("titles sent to negativation", "count", len(found))
	return out.Finish(domain.KindSuccess, msgNegativationDone), nil
}

func (d *NegativationDispatcher) negativationFields(deal domain.Deal, title domain.Title) map[string]any {
	fields := make(map[string]any, len(d.cfg.Passthrough)+len(d.catalog)+3)
	for _, p := range d.cfg.Passthrough {
		fields[p.Target()] = deal.Raw(p.From)
	}

	fields["OPPORTUNITY"] = title.Amount.String()
	for _, set := range d.catalog {
		if set.Name == title.Origin {
			fields[set.Target()] = title.Text
		} else {
			fields[set.Target()] = nil
		}
	}

	fields[domain.FieldCategory] = d.cfg.Negativation.CategoryID
	fields[domain.FieldStage] = d.cfg.Negativation.New
	return fields
}

// SplitTitleIDs removes all whitespace and splits on ";". Empty segments are
// kept and will not resolve to a title.
func SplitTitleIDs(s string) []string {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.Split(compact, ";")
}

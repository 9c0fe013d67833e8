package domain

import "fmt"

type Workflow string

const (
	WorkflowNegativation Workflow = "negativation"
	WorkflowStatusSync   Workflow = "status_sync"
	WorkflowSettlement   Workflow = "settlement"
)

// Kind classifies how a workflow run ended.
type Kind string

const (
	KindSuccess        Kind = "success"
	KindNoOp           Kind = "no_op"
	KindPartialSuccess Kind = "partial_success"
	KindRejected       Kind = "rejected"
	KindNotMatched     Kind = "not_matched"
	KindMalformedTitle Kind = "malformed_title"
	KindInfraError     Kind = "infra_error"
)

// Status is the tag returned to the caller.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialSuccess Status = "partial_success"
	StatusFail           Status = "fail"
)

func (k Kind) Status() Status {
	switch k {
	case KindSuccess, KindNoOp:
		return StatusSuccess
	case KindPartialSuccess:
		return StatusPartialSuccess
	default:
		return StatusFail
	}
}

type MutationOp string

const (
	OpUpdate MutationOp = "update"
	OpCreate MutationOp = "create"
)

// Mutation is a CRM write that was actually performed.
type Mutation struct {
	Op     MutationOp     `json:"op"`
	DealID string         `json:"deal_id"`
	Fields map[string]any `json:"fields"`
}

type Outcome struct {
	Workflow  Workflow   `json:"workflow"`
	DealID    string     `json:"deal_id"`
	Kind      Kind       `json:"kind"`
	Status    Status     `json:"status"`
	Message   string     `json:"message"`
	Mutations []Mutation `json:"mutations"`
}

func NewOutcome(workflow Workflow, dealID string) *Outcome {
	return &Outcome{
		Workflow:  workflow,
		DealID:    dealID,
		Mutations: []Mutation{},
	}
}

// Finish sets the classification and message and returns the outcome.
func (o *Outcome) Finish(kind Kind, message string) *Outcome {
	o.Kind = kind
	o.Status = kind.Status()
	o.Message = message
	return o
}

func (o *Outcome) Record(op MutationOp, dealID string, fields map[string]any) {
	o.Mutations = append(o.Mutations, Mutation{Op: op, DealID: dealID, Fields: fields})
}

func (o *Outcome) Mutated() bool {
	return len(o.Mutations) > 0
}

// InfraError is a CRM call that failed at transport or protocol level.
type InfraError struct {
	Op  string
	Err error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("crm %s: %v", e.Op, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}

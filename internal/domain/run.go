package domain

import "time"

// Run is the stored record of one workflow invocation.
type Run struct {
	Key       string    `json:"key"`
	Workflow  Workflow  `json:"workflow"`
	DealID    string    `json:"deal_id"`
	Kind      Kind      `json:"kind"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Mutations int       `json:"mutations"`
	Created   time.Time `json:"created_at"`
}

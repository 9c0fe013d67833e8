package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Title is one overdue financial instrument (invoice installment) read from
// a deal field.
type Title struct {
	ID                    string
	Installment           string
	IssueDate             string
	DueDate               string
	Amount                decimal.Decimal
	AmountWithoutInterest decimal.Decimal

	// Origin names the catalog origin set whose field produced the title.
	Origin string
	Text   string
}

type MalformedTitleError struct {
	Field  string
	Line   string
	Reason string
}

func (e *MalformedTitleError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed title in field %s: %s (%q)", e.Field, e.Reason, e.Line)
	}
	return fmt.Sprintf("malformed title: %s (%q)", e.Reason, e.Line)
}

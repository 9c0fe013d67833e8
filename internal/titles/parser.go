// Package titles extracts overdue titles from deal fields.
//
// A title line has six fields separated by " - ":
//
//	id - installment - issue date - due date - amount - amount without interest
//
// Amounts use the Brazilian currency format ("R$ 1.234,56").
package titles

import (
	"errors"
	"regexp"
	"strings"

	"negativacao-sync/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	separator   = " - "
	fieldCount  = 6
	currencySym = "R$"
)

// Parse reads a title line. The origin is stored on the result untouched.
func Parse(line, origin string) (domain.Title, error) {
	parts := strings.Split(line, separator)
	if len(parts) != fieldCount {
		return domain.Title{}, &domain.MalformedTitleError{
			Line:   line,
			Reason: "expected 6 fields separated by \" - \"",
		}
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if parts[0] == "" {
		return domain.Title{}, &domain.MalformedTitleError{Line: line, Reason: "empty title id"}
	}

	amount, err := ParseAmount(parts[4])
	if err != nil {
		return domain.Title{}, &domain.MalformedTitleError{Line: line, Reason: "invalid amount " + parts[4]}
	}
	withoutInterest, err := ParseAmount(parts[5])
	if err != nil {
		return domain.Title{}, &domain.MalformedTitleError{Line: line, Reason: "invalid amount " + parts[5]}
	}

	return domain.Title{
		ID:                    parts[0],
		Installment:           parts[1],
		IssueDate:             parts[2],
		DueDate:               parts[3],
		Amount:                amount,
		AmountWithoutInterest: withoutInterest,
		Origin:                origin,
		Text:                  line,
	}, nil
}

// commaAmount is a comma-decimal value whose dots, if any, group thousands.
var commaAmount = regexp.MustCompile(`^-?(\d{1,3}(\.\d{3})+|\d+),\d+$`)

var errAmountGrouping = errors.New("misplaced thousands separator")

// ParseAmount parses "R$ 1.234,56" style values. When a comma is present the
// dots are thousands separators and must sit in groups of three before it.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, currencySym, ""))
	if strings.Contains(s, ",") {
		if !commaAmount.MatchString(s) {
			return decimal.Decimal{}, errAmountGrouping
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

// FormatAmount renders an amount the way ParseAmount reads it, without
// thousands separators.
func FormatAmount(d decimal.Decimal) string {
	return currencySym + " " + strings.Replace(d.String(), ".", ",", 1)
}

// Canonical re-serialises a title into the line grammar.
func Canonical(t domain.Title) string {
	return strings.Join([]string{
		t.ID,
		t.Installment,
		t.IssueDate,
		t.DueDate,
		FormatAmount(t.Amount),
		FormatAmount(t.AmountWithoutInterest),
	}, separator)
}

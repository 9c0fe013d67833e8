package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/repository"
)

const maxRunsLimit = 500

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateDealID reads the deal id from the query string or a form body.
func ValidateDealID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		id = strings.TrimSpace(r.PostFormValue("id"))
	}
	if id == "" {
		return "", &ValidationError{Field: "id", Message: "id is required"}
	}
	return id, nil
}

// RunsQuery is the filter accepted by the runs listing and the report.
type RunsQuery struct {
	Workflow string `json:"workflow"`
	DealID   string `json:"deal_id"`
	Status   string `json:"status"`
	Since    string `json:"since"`
	Limit    any    `json:"limit"`
}

func ValidateRunsQuery(r *http.Request) (repository.RunsFilter, error) {
	q := r.URL.Query()
	return RunsQuery{
		Workflow: q.Get("workflow"),
		DealID:   q.Get("deal_id"),
		Status:   q.Get("status"),
		Since:    q.Get("since"),
		Limit:    q.Get("limit"),
	}.toFilter()
}

func ValidateReportRequest(r *http.Request) (repository.RunsFilter, error) {
	var raw RunsQuery
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return repository.RunsFilter{}, err
	}
	return raw.toFilter()
}

func (q RunsQuery) toFilter() (repository.RunsFilter, error) {
	f := repository.RunsFilter{}

	if q.Workflow != "" {
		switch domain.Workflow(q.Workflow) {
		case domain.WorkflowNegativation, domain.WorkflowStatusSync, domain.WorkflowSettlement:
		default:
			return f, &ValidationError{Field: "workflow", Message: "workflow must be negativation, status_sync or settlement"}
		}
		f.Workflow = &q.Workflow
	}

	if q.DealID != "" {
		f.DealID = &q.DealID
	}

	if q.Status != "" {
		switch domain.Status(q.Status) {
		case domain.StatusSuccess, domain.StatusPartialSuccess, domain.StatusFail:
		default:
			return f, &ValidationError{Field: "status", Message: "status must be success, partial_success or fail"}
		}
		f.Status = &q.Status
	}

	if q.Since != "" {
		since, err := parseSince(q.Since)
		if err != nil {
			return f, &ValidationError{Field: "since", Message: "since must be YYYY-MM-DD or RFC3339"}
		}
		f.Since = &since
	}

	limit, err := toLimit(q.Limit)
	if err != nil {
		return f, &ValidationError{Field: "limit", Message: "limit must be a positive integer"}
	}
	f.Limit = limit

	return f, nil
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func toLimit(v any) (int, error) {
	var n int
	switch t := v.(type) {
	case nil:
		return maxRunsLimit, nil
	case float64:
		n = int(t)
	case string:
		if t == "" {
			return maxRunsLimit, nil
		}
		i, err := strconv.Atoi(t)
		if err != nil {
			return 0, err
		}
		n = i
	default:
		return 0, &ValidationError{Message: "invalid type for limit"}
	}

	if n <= 0 {
		return 0, &ValidationError{Message: "limit must be positive"}
	}
	return min(n, maxRunsLimit), nil
}

package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"negativacao-sync/internal/domain"
)

type APIResponse struct {
	ErrorCode int    `json:"error_code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
}

func Response(w http.ResponseWriter, message string, data any, errorCode int, status string, httpStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	response := APIResponse{
		ErrorCode: errorCode,
		Status:    status,
		Message:   message,
		Data:      data,
	}

	// status is already written
	_ = json.NewEncoder(w).Encode(response)
}

func Success(w http.ResponseWriter, message string, data any) {
	Response(w, message, data, 0, "success", http.StatusOK)
}

func SuccessAccepted(w http.ResponseWriter, message string, data any) {
	Response(w, message, data, 0, "success", http.StatusAccepted)
}

func Error(w http.ResponseWriter, message string, errorCode int, httpStatus int) {
	Response(w, message, nil, errorCode, "error", httpStatus)
}

func ErrorBadRequest(w http.ResponseWriter, message string) {
	Error(w, message, 400, http.StatusBadRequest)
}

func ErrorNotFound(w http.ResponseWriter, message string) {
	Error(w, message, 404, http.StatusNotFound)
}

func ErrorInternal(w http.ResponseWriter, message string) {
	Error(w, message, 500, http.StatusInternalServerError)
}

func ErrorUnavailable(w http.ResponseWriter, message string) {
	Error(w, message, 503, http.StatusServiceUnavailable)
}

// OutcomeHTTPStatus maps a workflow classification to its response code.
func OutcomeHTTPStatus(kind domain.Kind) int {
	switch kind {
	case domain.KindSuccess, domain.KindNoOp, domain.KindNotMatched:
		return http.StatusOK
	case domain.KindPartialSuccess:
		return http.StatusPartialContent
	case domain.KindRejected:
		return http.StatusBadRequest
	case domain.KindMalformedTitle:
		return http.StatusUnprocessableEntity
	case domain.KindInfraError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type outcomeData struct {
	*domain.Outcome
	RunKey string `json:"run_key,omitempty"`
}

// WorkflowResponse renders an outcome in the envelope. The envelope status is
// the outcome tag; error_code mirrors the HTTP code for failures.
func WorkflowResponse(w http.ResponseWriter, out *domain.Outcome, runKey string) {
	httpStatus := OutcomeHTTPStatus(out.Kind)
	errorCode := 0
	if out.Status == domain.StatusFail {
		errorCode = httpStatus
		if errorCode == http.StatusOK {
			errorCode = http.StatusNotFound
		}
	}
	Response(w, out.Message, outcomeData{Outcome: out, RunKey: runKey}, errorCode, string(out.Status), httpStatus)
}

func isNotFound(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

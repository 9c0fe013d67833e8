package rest

import (
	"net/http"
	"os"

	"negativacao-sync/internal/service"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		ErrorUnavailable(w, "run history is not configured")
		return
	}

	filter, err := ValidateRunsQuery(r)
	if err != nil {
		ErrorBadRequest(w, err.Error())
		return
	}

	runs, err := h.runs.ListRuns(r.Context(), filter)
	if err != nil {
		if isNotFound(err, service.ErrRunsUnavailable) {
			ErrorUnavailable(w, "run history is not configured")
			return
		}
		h.log.WithContext(r.Context()).Error("list runs failed", "error", err)
		ErrorInternal(w, "failed to get runs")
		return
	}

	Success(w, "", runs)
}

func (h *Handler) getRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		ErrorUnavailable(w, "run history is not configured")
		return
	}

	runID := chi.URLParam(r, "run_id")
	if runID == "" {
		ErrorBadRequest(w, "run_id is required")
		return
	}

	run, err := h.runs.GetRun(r.Context(), "runs:"+runID)
	if err != nil {
		if isNotFound(err, service.ErrRunNotFound, service.ErrRunsUnavailable) {
			ErrorNotFound(w, "run not found")
			return
		}
		h.log.WithContext(r.Context()).Error("get run failed", "run", runID, "error", err)
		ErrorInternal(w, "failed to get run")
		return
	}

	Success(w, "", run)
}

func (h *Handler) startReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		ErrorUnavailable(w, "reports are not configured")
		return
	}

	filter, err := ValidateReportRequest(r)
	if err != nil {
		if _, ok := err.(*ValidationError); ok {
			ErrorBadRequest(w, err.Error())
			return
		}
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	reportID, err := h.reports.StartReport(r.Context(), filter)
	if err != nil {
		h.log.WithContext(r.Context()).Error("start report failed", "error", err)
		ErrorInternal(w, "failed to start report")
		return
	}

	SuccessAccepted(w, "report queued", map[string]any{
		"report_id": reportID,
	})
}

func (h *Handler) getReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		ErrorUnavailable(w, "reports are not configured")
		return
	}

	status, err := h.reports.GetReport(r.Context(), "reports:"+chi.URLParam(r, "report_id"))
	if err != nil {
		ErrorNotFound(w, "report not found")
		return
	}

	Success(w, "", status)
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	path, original, err := h.files.Resolve(chi.URLParam(r, "file"))
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		h.log.WithContext(r.Context()).HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err)
		ErrorInternal(w, "failed to read file")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+original+"\"")
	http.ServeFile(w, r, path)
}

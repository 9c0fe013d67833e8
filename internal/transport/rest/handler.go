package rest

import (
	"context"
	"net/http"
	"time"

	"negativacao-sync/internal/domain"
	"negativacao-sync/internal/repository"
	"negativacao-sync/internal/service"
	"negativacao-sync/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Negativator interface {
	Dispatch(ctx context.Context, dealID string) (*domain.Outcome, error)
}

type StatusSyncer interface {
	Sync(ctx context.Context, dealID string) (*domain.Outcome, error)
}

type Settler interface {
	Reconcile(ctx context.Context, dealID string) (*domain.Outcome, error)
}

type RunTracker interface {
	Record(ctx context.Context, out *domain.Outcome) (domain.Run, error)
	GetRun(ctx context.Context, key string) (domain.Run, error)
	ListRuns(ctx context.Context, f repository.RunsFilter) ([]domain.Run, error)
}

type Reporter interface {
	StartReport(ctx context.Context, f repository.RunsFilter) (string, error)
	GetReport(ctx context.Context, key string) (service.ReportStatus, error)
}

// FileStore resolves a published report name to a path on disk.
type FileStore interface {
	Resolve(name string) (path, original string, err error)
}

type Subscriber interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request, topic string)
}

// HealthCheck reports a dependency as healthy when it returns nil.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	negativation Negativator
	statusSync   StatusSyncer
	settlement   Settler
	runs         RunTracker
	reports      Reporter
	files        FileStore
	ws           Subscriber
	checks       map[string]HealthCheck
	log          *logger.Logger
}

type Deps struct {
	Negativation Negativator
	StatusSync   StatusSyncer
	Settlement   Settler
	Runs         RunTracker
	Reports      Reporter
	Files        FileStore
	WebSocket    Subscriber
	Checks       map[string]HealthCheck
	Log          *logger.Logger
}

func NewHandler(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Handler{
		negativation: d.Negativation,
		statusSync:   d.StatusSync,
		settlement:   d.Settlement,
		runs:         d.Runs,
		reports:      d.Reports,
		files:        d.Files,
		ws:           d.WebSocket,
		checks:       d.Checks,
		log:          log,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		h.requestLogger,
		middleware.Recoverer,
	)

	r.Get("/health", h.health)

	if h.ws != nil {
		r.Get("/ws", h.subscribe)
	}

	if h.files != nil {
		r.Get("/files/{file}", h.serveFile)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Route("/workflows", func(r chi.Router) {
			r.Post("/negativation", h.negativate)
			r.Post("/status-sync", h.syncStatus)
			r.Post("/settlement", h.settle)
		})

		// paths the CRM automation rules already call
		r.Post("/enviar-para-negativacao", h.negativate)
		r.Post("/alterar-status", h.syncStatus)
		r.Post("/retirar-negativacao", h.settle)

		r.Route("/runs", func(r chi.Router) {
			r.Get("/", h.listRuns)
			r.Post("/report", h.startReport)
			r.Get("/report/{report_id}", h.getReport)
			r.Get("/{run_id}", h.getRun)
		})
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.log.WithContext(r.Context()).Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
		)
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	result := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			result[name] = err.Error()
			healthy = false
			continue
		}
		result[name] = "ok"
	}

	if !healthy {
		Response(w, "degraded", result, 503, "error", http.StatusServiceUnavailable)
		return
	}
	Success(w, "ok", result)
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		topic = "runs"
	}
	h.ws.HandleWebSocket(w, r, topic)
}

package httpx

import (
	"context"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aadish-25/todo-backend/internal/service/auth"
	"github.com/aadish-25/todo-backend/internal/service/todo"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(context.Context) error

// Router wires HTTP endpoints to services.
type Router struct {
	mux     *http.ServeMux
	logger  *slog.Logger
	auth    auth.Service
	todos   todo.Service
	checks  map[string]HealthCheck
	metrics *metrics
}

const (
	healthCheckTimeout = 2 * time.Second
	maxBodyBytes       = 1 << 20
)

// NewRouter assembles routes with dependencies. checks are reported by /healthz under their map key.
func NewRouter(logger *slog.Logger, authSvc auth.Service, todoSvc todo.Service, checks map[string]HealthCheck) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  logger,
		auth:    authSvc,
		todos:   todoSvc,
		checks:  checks,
		metrics: newMetrics(),
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	public := []step{assignRequestID, limitBody}
	private := []step{assignRequestID, limitBody, r.authenticate}

	r.mux.HandleFunc("GET /healthz", r.pipeline(r.handleHealthz, assignRequestID))
	r.mux.Handle("GET /metrics", promhttp.HandlerFor(r.metrics.registry, promhttp.HandlerOpts{}))

	r.mux.HandleFunc("POST /auth/register", r.pipeline(r.handleRegister, public...))
	r.mux.HandleFunc("POST /auth/login", r.pipeline(r.handleLogin, public...))

	r.mux.HandleFunc("GET /todo", r.pipeline(r.handleListTodos, private...))
	r.mux.HandleFunc("POST /todo", r.pipeline(r.handleCreateTodo, private...))
	r.mux.HandleFunc("GET /todo/{id}", r.pipeline(r.handleGetTodo, private...))
	r.mux.HandleFunc("PATCH /todo/{id}", r.pipeline(r.handleUpdateTodo, private...))
	r.mux.HandleFunc("DELETE /todo/{id}", r.pipeline(r.handleDeleteTodo, private...))
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	names := make([]string, 0, len(r.checks))
	for name := range r.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	components := make(map[string]any, len(names))
	status := "ok"
	for _, name := range names {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		err := r.checks[name](ctx)
		cancel()
		if err != nil {
			status = "degraded"
			r.logger.Warn("health check failed", "component", name, "error", err)
			components[name] = map[string]any{"status": "down"}
			continue
		}
		components[name] = map[string]any{"status": "up"}
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthResponse{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// audit logs one line per request and records request metrics.
func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		r.metrics.observe(req.Method, route, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := requestIDFromContext(ctx); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if user, ok := UserFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", user.ID)
		}
		fields = append(fields, "actor", actor)
		if recorder.errorKind != "" {
			fields = append(fields, "error_kind", recorder.errorKind)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status    int
	bytes     int
	ctx       context.Context
	errorKind string
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// SetContext lets the pipeline hand the enriched request context back to audit.
func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) SetErrorKind(kind string) {
	sr.errorKind = kind
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}

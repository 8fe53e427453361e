package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/notify"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/query"
	"github.com/tair/inventory-scanner/internal/scanner/workflow"
	"github.com/tair/inventory-scanner/pkg/auth"
	"github.com/tair/inventory-scanner/pkg/logger"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// CommandHandlers holds the command handlers used by the HTTP API
type CommandHandlers struct {
	Login          *command.LoginHandler
	CreateOperator *command.CreateOperatorHandler
}

// QueryHandlers holds the query handlers used by the HTTP API
type QueryHandlers struct {
	ListOperators       *query.ListOperatorsHandler
	ListSessions        *query.ListSessionsHandler
	ListSessionProducts *query.ListSessionProductsHandler
	ExportSession       *query.ExportSessionHandler
	ReportSummary       *query.ReportSummaryHandler
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ScannerHandler handles HTTP requests for the scanner service
type ScannerHandler struct {
	commands CommandHandlers
	queries  QueryHandlers
	stations *workflow.Registry
	inbox    notify.Inbox
	tokens   *auth.TokenManager
	metrics  *metrics.ScannerMetrics
	validate *validator.Validate
	limiter  *RateLimiter
}

// NewScannerHandler creates a new scanner handler. inbox may be nil, in
// which case the notification endpoint always returns an empty list.
func NewScannerHandler(
	commands CommandHandlers,
	queries QueryHandlers,
	stations *workflow.Registry,
	inbox notify.Inbox,
	tokens *auth.TokenManager,
	m *metrics.ScannerMetrics,
) *ScannerHandler {
	return &ScannerHandler{
		commands: commands,
		queries:  queries,
		stations: stations,
		inbox:    inbox,
		tokens:   tokens,
		metrics:  m,
		validate: validator.New(),
	}
}

// WithLoginLimiter throttles login attempts per client address
func (h *ScannerHandler) WithLoginLimiter(l *RateLimiter) *ScannerHandler {
	h.limiter = l
	return h
}

// Response is the envelope of every JSON response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RegisterRoutes registers all scanner routes
func (h *ScannerHandler) RegisterRoutes(router *mux.Router) {
	authed := AuthMiddleware(h.tokens)
	admin := AdminMiddleware(h.tokens)
	route := func(endpoint string, fn http.HandlerFunc) http.HandlerFunc {
		return MetricsMiddleware(h.metrics, endpoint, fn)
	}

	// Auth
	router.HandleFunc("/auth/login", route("login", h.limiter.Middleware(ClientIP, h.Login))).Methods("POST")

	// Scan workflow
	router.HandleFunc("/api/scanner/init", route("scanner_init", authed(h.InitScanner))).Methods("POST")
	router.HandleFunc("/api/scanner/state", route("scanner_state", authed(h.GetState))).Methods("GET")
	router.HandleFunc("/api/scanner/capture", route("capture_begin", authed(h.BeginCapture))).Methods("POST")
	router.HandleFunc("/api/scanner/capture", route("capture_cancel", authed(h.CancelCapture))).Methods("DELETE")
	router.HandleFunc("/api/scanner/capture/frames", route("capture_frame", authed(h.PushFrame))).Methods("POST")
	router.HandleFunc("/api/scanner/capture/facing", route("capture_facing", authed(h.ToggleFacing))).Methods("POST")
	router.HandleFunc("/api/scanner/form", route("form_update", authed(h.UpdateForm))).Methods("PATCH")
	router.HandleFunc("/api/scanner/form/quantity/{op}", route("form_quantity", authed(h.StepQuantity))).Methods("POST")
	router.HandleFunc("/api/scanner/commit", route("commit", authed(h.Commit))).Methods("POST")
	router.HandleFunc("/api/scanner/notifications", route("notifications", authed(h.DrainNotifications))).Methods("GET")

	// Session history and reports
	router.HandleFunc("/api/sessions", route("list_sessions", authed(h.ListSessions))).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/products", route("session_products", authed(h.ListSessionProducts))).Methods("GET")
	router.HandleFunc("/api/sessions/{id}/export", route("session_export", authed(h.ExportSession))).Methods("GET")
	router.HandleFunc("/api/reports/summary", route("report_summary", authed(h.ReportSummary))).Methods("GET")

	// Operator management
	router.HandleFunc("/api/users", route("list_users", admin(h.ListOperators))).Methods("GET")
	router.HandleFunc("/api/users", route("create_user", admin(h.CreateOperator))).Methods("POST")
}

// RegisterHealthCheck registers health check endpoint. db may be nil when
// the service runs on the in-memory store.
func (h *ScannerHandler) RegisterHealthCheck(router *mux.Router, db Pinger) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, Response{
					Success: false,
					Error:   "Database unavailable",
				})
				return
			}
		}

		respondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: "Scanner service is healthy",
		})
	}).Methods("GET")
}

// statusFor maps a domain error to its HTTP status and public message
func statusFor(err error) (int, string) {
	var (
		cfgErr        *domain.ConfigurationError
		incomplete    *domain.IncompleteInputError
		persistence   *domain.PersistenceError
		captureErr    *domain.CaptureError
		validationErr validator.ValidationErrors
	)

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusConflict, "Your account is not linked to an organization"
	case errors.As(err, &incomplete):
		return http.StatusUnprocessableEntity, incomplete.Error()
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, domain.ErrCommitInProgress):
		return http.StatusConflict, "A commit is already in progress"
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "Profile not found"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "Email already registered"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, domain.ErrAccountDisabled):
		return http.StatusForbidden, "Account is deactivated"
	case errors.Is(err, domain.ErrNoCaller):
		return http.StatusUnauthorized, "Authentication required"
	case errors.Is(err, domain.ErrNotInitialized):
		return http.StatusConflict, "Scanner is not initialized"
	case errors.As(err, &captureErr):
		return http.StatusServiceUnavailable, "Camera unavailable"
	case errors.As(err, &persistence):
		return http.StatusBadGateway, "Storage unavailable, try again"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// respondDomainError writes err with the status it maps to
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// respondValidation writes a 400 listing the failed fields
func respondValidation(w http.ResponseWriter, fields map[string]string) {
	respondJSON(w, http.StatusBadRequest, Response{
		Success: false,
		Error:   "Validation failed",
		Data:    fields,
	})
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/query"
	"github.com/tair/inventory-scanner/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func pagination(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	return limit, offset
}

// organizationOf returns the caller's organization or writes a 409
func organizationOf(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, _ := CallerFromContext(r.Context())
	if caller.OrganizationID == "" {
		respondDomainError(w, r, &domain.ConfigurationError{UserID: caller.UserID, Reason: "token carries no organization"})
		return caller, false
	}
	return caller, true
}

// ListSessions handles GET /api/sessions
func (h *ScannerHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	caller, ok := organizationOf(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	sessions, err := h.queries.ListSessions.Handle(r.Context(), query.ListSessionsQuery{
		OrganizationID: caller.OrganizationID,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    sessions,
	})
}

// ListSessionProducts handles GET /api/sessions/{id}/products
func (h *ScannerHandler) ListSessionProducts(w http.ResponseWriter, r *http.Request) {
	caller, ok := organizationOf(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	products, err := h.queries.ListSessionProducts.Handle(r.Context(), query.ListSessionProductsQuery{
		SessionID:      mux.Vars(r)["id"],
		OrganizationID: caller.OrganizationID,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    products,
	})
}

// ExportSession handles GET /api/sessions/{id}/export
func (h *ScannerHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	caller, ok := organizationOf(w, r)
	if !ok {
		return
	}

	export, err := h.queries.ExportSession.Handle(r.Context(), query.ExportSessionQuery{
		SessionID:      mux.Vars(r)["id"],
		OrganizationID: caller.OrganizationID,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	defer export.File.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s",
		export.Filename, url.PathEscape(export.Filename)))
	w.WriteHeader(http.StatusOK)
	if err := export.File.Write(w); err != nil {
		logger.Error(r.Context()).Err(err).Str("session_id", mux.Vars(r)["id"]).Msg("Failed to stream export")
	}
}

// ReportSummary handles GET /api/reports/summary
func (h *ScannerHandler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	caller, ok := organizationOf(w, r)
	if !ok {
		return
	}
	top, _ := strconv.Atoi(r.URL.Query().Get("top"))

	summary, err := h.queries.ReportSummary.Handle(r.Context(), query.ReportSummaryQuery{
		OrganizationID: caller.OrganizationID,
		TopOperators:   top,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    summary,
	})
}

// Login handles POST /auth/login
func (h *ScannerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	fields, err := decodeAndValidate(r, h.validate, &req)
	if fields != nil {
		respondValidation(w, fields)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.commands.Login.Handle(r.Context(), command.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Login successful",
		Data:    resp,
	})
}

// ListOperators handles GET /api/users
func (h *ScannerHandler) ListOperators(w http.ResponseWriter, r *http.Request) {
	caller, ok := organizationOf(w, r)
	if !ok {
		return
	}
	limit, offset := pagination(r)

	profiles, err := h.queries.ListOperators.Handle(r.Context(), query.ListOperatorsQuery{
		OrganizationID: caller.OrganizationID,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    profiles,
	})
}

// CreateOperator handles POST /api/users
func (h *ScannerHandler) CreateOperator(w http.ResponseWriter, r *http.Request) {
	caller, ok := organizationOf(w, r)
	if !ok {
		return
	}

	var req CreateOperatorRequest
	fields, err := decodeAndValidate(r, h.validate, &req)
	if fields != nil {
		respondValidation(w, fields)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.commands.CreateOperator.Handle(r.Context(), command.CreateOperatorCommand{
		Email:          req.Email,
		FullName:       req.FullName,
		Password:       req.Password,
		Role:           req.Role,
		OrganizationID: caller.OrganizationID,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Operator created successfully",
		Data:    profile,
	})
}

package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tair/inventory-scanner/internal/scanner/capture"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/workflow"
	"github.com/tair/inventory-scanner/pkg/logger"
)

const maxFrameBytes = 8 << 20

// bind returns the caller's station and keeps its workflow bound to the
// caller of the request. rebound reports whether the caller changed, in
// which case initialization already ran and err is its outcome.
func (h *ScannerHandler) bind(r *http.Request) (st *workflow.Station, rebound bool, err error) {
	caller, _ := CallerFromContext(r.Context())
	st = h.stations.Station(caller.UserID)

	if bound := st.Workflow.Caller(); bound == nil || *bound != caller {
		return st, true, st.Workflow.UpdateCaller(r.Context(), &caller, false)
	}
	return st, false, nil
}

// InitScanner handles POST /api/scanner/init
func (h *ScannerHandler) InitScanner(w http.ResponseWriter, r *http.Request) {
	st, rebound, err := h.bind(r)
	if !rebound {
		err = st.Workflow.Initialize(r.Context())
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Scanner initialized",
		Data:    st.Workflow.Snapshot(),
	})
}

// GetState handles GET /api/scanner/state
func (h *ScannerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    st.Workflow.Snapshot(),
	})
}

// BeginCapture handles POST /api/scanner/capture
func (h *ScannerHandler) BeginCapture(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)

	if err := st.Workflow.BeginCapture(r.Context(), st.Source); err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Capture started",
		Data:    st.Workflow.Snapshot(),
	})
}

// CancelCapture handles DELETE /api/scanner/capture
func (h *ScannerHandler) CancelCapture(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)
	st.Workflow.CancelCapture()

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Capture stopped",
		Data:    st.Workflow.Snapshot(),
	})
}

// PushFrame handles POST /api/scanner/capture/frames
func (h *ScannerHandler) PushFrame(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)

	body := http.MaxBytesReader(w, r.Body, maxFrameBytes)
	err := st.Source.PushEncoded(r.Header.Get("Content-Type"), body)
	switch {
	case err == nil:
	case errors.Is(err, capture.ErrUnsupportedFrame):
		respondError(w, http.StatusUnsupportedMediaType, "Frames must be image/jpeg or image/png")
		return
	case errors.Is(err, capture.ErrSourceIdle):
		respondError(w, http.StatusConflict, "Capture is not active")
		return
	default:
		logger.Debug(r.Context()).Err(err).Msg("Rejected frame")
		respondError(w, http.StatusBadRequest, "Invalid frame")
		return
	}

	respondJSON(w, http.StatusAccepted, Response{
		Success: true,
		Data: map[string]int{
			"dropped": st.Source.Dropped(),
		},
	})
}

// ToggleFacing handles POST /api/scanner/capture/facing
func (h *ScannerHandler) ToggleFacing(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)
	facing := st.Workflow.ToggleFacing()

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Camera switched to " + string(facing),
		Data:    st.Workflow.Snapshot(),
	})
}

// UpdateForm handles PATCH /api/scanner/form
func (h *ScannerHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var req UpdateFormRequest
	fields, err := decodeAndValidate(r, h.validate, &req)
	if fields != nil {
		respondValidation(w, fields)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	st, _, _ := h.bind(r)
	if req.Barcode != nil {
		st.Workflow.SetBarcode(*req.Barcode)
	}
	switch {
	case req.QuantityText != nil:
		st.Workflow.SetQuantityText(*req.QuantityText)
	case req.Quantity != nil:
		st.Workflow.SetQuantity(workflow.QuantityFromFloat(*req.Quantity))
	}
	if req.Note != nil {
		st.Workflow.SetNote(*req.Note)
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    st.Workflow.Snapshot(),
	})
}

// StepQuantity handles POST /api/scanner/form/quantity/{op}
func (h *ScannerHandler) StepQuantity(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)

	switch mux.Vars(r)["op"] {
	case "increment":
		st.Workflow.IncrementQuantity()
	case "decrement":
		st.Workflow.DecrementQuantity()
	default:
		respondError(w, http.StatusBadRequest, "Operation must be increment or decrement")
		return
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    st.Workflow.Snapshot(),
	})
}

// Commit handles POST /api/scanner/commit
func (h *ScannerHandler) Commit(w http.ResponseWriter, r *http.Request) {
	st, _, _ := h.bind(r)

	product, err := st.Workflow.Commit(r.Context())
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "Product saved",
		Data: struct {
			Product *domain.ScannedProduct `json:"product"`
			State   workflow.Snapshot      `json:"state"`
		}{product, st.Workflow.Snapshot()},
	})
}

// DrainNotifications handles GET /api/scanner/notifications
func (h *ScannerHandler) DrainNotifications(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFromContext(r.Context())

	notifications := []domain.Notification{}
	if h.inbox != nil {
		drained, err := h.inbox.Drain(r.Context(), caller.UserID)
		if err != nil {
			respondDomainError(w, r, domain.Persistence("drain notifications", err))
			return
		}
		if drained != nil {
			notifications = drained
		}
	}

	respondJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    notifications,
	})
}

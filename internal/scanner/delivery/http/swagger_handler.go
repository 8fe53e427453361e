package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterSwaggerDocs registers Swagger documentation routes
// @Summary Swagger documentation
// @Description Swagger API documentation
// @Tags Swagger
// @Success 200 {string} string "Swagger UI"
// @Router /swagger/ [get]
func RegisterSwaggerDocs(router *mux.Router, swaggerHandler http.Handler) {
	router.PathPrefix("/swagger/").Handler(swaggerHandler)
}

// Login godoc
// @Summary Operator login
// @Description Authenticate with email and password and get a JWT token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} Response{data=object{token=string,profile=object}}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 403 {object} Response
// @Router /auth/login [post]
func (h *ScannerHandler) LoginDoc() {}

// InitScanner godoc
// @Summary Initialize the scanner
// @Description Resolve the active inventory session of the caller's organization, creating "Inventory YYYY-MM-DD" when none exists, and load the scanned count
// @Tags Scanner
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=object}
// @Failure 401 {object} Response
// @Failure 409 {object} Response "Caller has no organization"
// @Failure 502 {object} Response
// @Router /api/scanner/init [post]
func (h *ScannerHandler) InitScannerDoc() {}

// GetState godoc
// @Summary Scanner state
// @Description Form, scanned count, session, saving and scanning flags, video constraints
// @Tags Scanner
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=object}
// @Router /api/scanner/state [get]
func (h *ScannerHandler) GetStateDoc() {}

// BeginCapture godoc
// @Summary Open the capture surface
// @Description Claim the frame source and start decoding. The first recognized payload fills the barcode field and closes the capture surface.
// @Tags Capture
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=object}
// @Failure 503 {object} Response "Camera unavailable"
// @Router /api/scanner/capture [post]
func (h *ScannerHandler) BeginCaptureDoc() {}

// CancelCapture godoc
// @Summary Close the capture surface
// @Tags Capture
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=object}
// @Router /api/scanner/capture [delete]
func (h *ScannerHandler) CancelCaptureDoc() {}

// PushFrame godoc
// @Summary Upload a camera frame
// @Description Queue one encoded frame for decoding. Frames are dropped when the decoder falls behind.
// @Tags Capture
// @Security BearerAuth
// @Accept image/jpeg
// @Accept image/png
// @Produce json
// @Success 202 {object} Response{data=object{dropped=int}}
// @Failure 400 {object} Response
// @Failure 409 {object} Response "Capture is not active"
// @Failure 415 {object} Response
// @Router /api/scanner/capture/frames [post]
func (h *ScannerHandler) PushFrameDoc() {}

// ToggleFacing godoc
// @Summary Switch between front and rear camera
// @Description Stops any capture in flight and flips the facing mode used by the next capture
// @Tags Capture
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=object}
// @Router /api/scanner/capture/facing [post]
func (h *ScannerHandler) ToggleFacingDoc() {}

// UpdateForm godoc
// @Summary Edit the scan form
// @Description Set barcode, quantity and note. Quantities below 1 or non-numeric input become 1.
// @Tags Scanner
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body UpdateFormRequest true "Form fields"
// @Success 200 {object} Response{data=object}
// @Failure 400 {object} Response
// @Router /api/scanner/form [patch]
func (h *ScannerHandler) UpdateFormDoc() {}

// StepQuantity godoc
// @Summary Increment or decrement the quantity
// @Tags Scanner
// @Security BearerAuth
// @Produce json
// @Param op path string true "increment or decrement"
// @Success 200 {object} Response{data=object}
// @Failure 400 {object} Response
// @Router /api/scanner/form/quantity/{op} [post]
func (h *ScannerHandler) StepQuantityDoc() {}

// Commit godoc
// @Summary Save the scanned product
// @Description Persist the form as a scanned product of the active session. The form resets on success and is kept on failure.
// @Tags Scanner
// @Security BearerAuth
// @Produce json
// @Success 201 {object} Response{data=object{product=object,state=object}}
// @Failure 409 {object} Response "Commit in progress"
// @Failure 422 {object} Response "Missing barcode, session or user"
// @Failure 502 {object} Response
// @Router /api/scanner/commit [post]
func (h *ScannerHandler) CommitDoc() {}

// DrainNotifications godoc
// @Summary Pending notifications
// @Description Return and clear the caller's notifications, oldest first
// @Tags Scanner
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=[]object}
// @Router /api/scanner/notifications [get]
func (h *ScannerHandler) DrainNotificationsDoc() {}

// ListSessions godoc
// @Summary List inventory sessions
// @Description Sessions of the caller's organization, newest first, with product, unit and operator counts
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} Response{data=[]object}
// @Router /api/sessions [get]
func (h *ScannerHandler) ListSessionsDoc() {}

// ListSessionProducts godoc
// @Summary Products scanned in a session
// @Tags Sessions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Session ID"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} Response{data=[]object}
// @Failure 404 {object} Response
// @Router /api/sessions/{id}/products [get]
func (h *ScannerHandler) ListSessionProductsDoc() {}

// ExportSession godoc
// @Summary Export a session as a spreadsheet
// @Tags Sessions
// @Security BearerAuth
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Session ID"
// @Success 200 {file} file
// @Failure 404 {object} Response
// @Router /api/sessions/{id}/export [get]
func (h *ScannerHandler) ExportSessionDoc() {}

// ReportSummary godoc
// @Summary Organization report
// @Description Event-fed totals, active sessions, scans today and top operators
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Param top query int false "Number of top operators"
// @Success 200 {object} Response{data=object}
// @Router /api/reports/summary [get]
func (h *ScannerHandler) ReportSummaryDoc() {}

// ListOperators godoc
// @Summary List operators (admin)
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} Response{data=[]object}
// @Failure 403 {object} Response
// @Router /api/users [get]
func (h *ScannerHandler) ListOperatorsDoc() {}

// CreateOperator godoc
// @Summary Create operator (admin)
// @Description Create a profile in the administrator's organization
// @Tags Admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body CreateOperatorRequest true "Operator data"
// @Success 201 {object} Response{data=object}
// @Failure 400 {object} Response
// @Failure 403 {object} Response
// @Failure 409 {object} Response "Email already registered"
// @Router /api/users [post]
func (h *ScannerHandler) CreateOperatorDoc() {}

// Health godoc
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} Response
// @Failure 503 {object} Response
// @Router /health [get]
func (h *ScannerHandler) HealthDoc() {}

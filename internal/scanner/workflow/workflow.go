package workflow

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/capture"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/query"
	"github.com/tair/inventory-scanner/pkg/logger"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// SessionOpener resolves the caller's active session
type SessionOpener interface {
	Handle(ctx context.Context, cmd command.OpenSessionCommand) (*command.OpenSessionResult, error)
}

// ScanRecorder persists one scanned product
type ScanRecorder interface {
	Handle(ctx context.Context, cmd command.RecordScanCommand) (*domain.ScannedProduct, error)
}

// ScanCounter counts the products already scanned in a session
type ScanCounter interface {
	Handle(ctx context.Context, q query.CountScannedQuery) (int64, error)
}

// Capturer is the capture surface the workflow drives
type Capturer interface {
	Activate(ctx context.Context, src capture.FrameSource, onResult func(capture.Result)) error
	Deactivate()
	ToggleFacing() capture.Facing
	State() capture.State
	Facing() capture.Facing
	Constraints() capture.Constraints
}

// Snapshot is the observable state of a workflow
type Snapshot struct {
	Form          Form                     `json:"form"`
	ScannedCount  int64                    `json:"scanned_count"`
	Session       *domain.InventorySession `json:"session,omitempty"`
	IsSaving      bool                     `json:"is_saving"`
	IsScanning    bool                     `json:"is_scanning"`
	CallerLoading bool                     `json:"caller_loading"`
	Video         capture.Constraints      `json:"video"`
	LastCapture   *capture.Result          `json:"last_capture,omitempty"`
}

// Workflow owns one user's scan form from capture to durable record
type Workflow struct {
	opener   SessionOpener
	recorder ScanRecorder
	counter  ScanCounter
	capturer Capturer
	sink     domain.NotificationSink
	metrics  *metrics.ScannerMetrics

	initMu sync.Mutex
	saving atomic.Bool

	mu          sync.Mutex
	caller      *domain.Caller
	loading     bool
	session     *domain.InventorySession
	form        Form
	scanned     int64
	lastCapture *capture.Result
}

// New creates a workflow with an empty form
func New(
	opener SessionOpener,
	recorder ScanRecorder,
	counter ScanCounter,
	capturer Capturer,
	sink domain.NotificationSink,
	m *metrics.ScannerMetrics,
) *Workflow {
	return &Workflow{
		opener:   opener,
		recorder: recorder,
		counter:  counter,
		capturer: capturer,
		sink:     sink,
		metrics:  m,
		form:     DefaultForm(),
	}
}

// UpdateCaller is called whenever the authentication state changes. The
// first time a caller is available and not loading, the workflow
// initializes. Switching to another user or organization drops the
// resolved session.
func (w *Workflow) UpdateCaller(ctx context.Context, caller *domain.Caller, loading bool) error {
	w.mu.Lock()
	changed := !sameCaller(w.caller, caller)
	if changed {
		w.session = nil
		w.scanned = 0
		w.form = DefaultForm()
		w.lastCapture = nil
	}
	if caller != nil {
		c := *caller
		w.caller = &c
	} else {
		w.caller = nil
	}
	w.loading = loading
	needsInit := caller != nil && !loading && w.session == nil
	w.mu.Unlock()

	if changed {
		w.capturer.Deactivate()
	}
	if !needsInit {
		return nil
	}
	return w.Initialize(ctx)
}

func sameCaller(a, b *domain.Caller) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID == b.UserID && a.OrganizationID == b.OrganizationID
}

// Caller returns the bound caller, or nil
func (w *Workflow) Caller() *domain.Caller {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.caller == nil {
		return nil
	}
	c := *w.caller
	return &c
}

// Initialize resolves the active session and seeds the running counter.
// Failures are turned into a user notification and returned.
func (w *Workflow) Initialize(ctx context.Context) error {
	w.initMu.Lock()
	defer w.initMu.Unlock()

	w.mu.Lock()
	caller := w.caller
	if w.session != nil {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if caller == nil {
		return domain.ErrNoCaller
	}

	result, err := w.opener.Handle(ctx, command.OpenSessionCommand{Caller: *caller})
	if err != nil {
		w.reportInitError(ctx, caller.UserID, err)
		return err
	}

	var scanned int64
	count, err := w.counter.Handle(ctx, query.CountScannedQuery{SessionID: result.Session.ID})
	if err != nil {
		logger.Warn(ctx).
			Err(err).
			Str("session_id", result.Session.ID).
			Msg("Failed to load scanned count, starting from zero")
	} else {
		scanned = count
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !sameCaller(w.caller, caller) {
		// The caller changed while the session was resolved.
		return nil
	}
	w.session = result.Session
	w.scanned = scanned

	logger.Info(ctx).
		Str("user_id", caller.UserID).
		Str("session_id", result.Session.ID).
		Bool("created", result.Created).
		Int64("scanned", scanned).
		Msg("Scanner initialized")
	return nil
}

func (w *Workflow) reportInitError(ctx context.Context, userID string, err error) {
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		logger.Error(ctx).Err(err).Str("user_id", userID).Msg("Caller has no organization")
		w.notify(ctx, userID, domain.Notification{
			Title:       "Configuration error",
			Description: "Your account is not linked to an organization. Contact an administrator.",
			Severity:    domain.SeverityDestructive,
		})
		return
	}

	logger.Error(ctx).Err(err).Str("user_id", userID).Msg("Failed to initialize inventory session")
	w.notify(ctx, userID, domain.Notification{
		Title:       "Error",
		Description: "Could not load the inventory session.",
		Severity:    domain.SeverityDestructive,
	})
}

// BeginCapture opens the capture surface on src. The recognized payload
// replaces the form barcode.
func (w *Workflow) BeginCapture(ctx context.Context, src capture.FrameSource) error {
	// Notifications for the payload are sent after the request returns.
	bg := context.WithoutCancel(ctx)

	err := w.capturer.Activate(ctx, src, func(r capture.Result) {
		w.onCapture(bg, r)
	})
	if err != nil {
		w.notify(ctx, w.userID(), domain.Notification{
			Title:       "Camera error",
			Description: "Could not access the camera. Check the permissions and try again.",
			Severity:    domain.SeverityDestructive,
		})
		return err
	}
	return nil
}

// onCapture runs after the controller went idle. It must not deactivate:
// a capture begun in the meantime belongs to the next activation.
func (w *Workflow) onCapture(ctx context.Context, r capture.Result) {
	w.mu.Lock()
	w.form.Barcode = r.Text
	w.lastCapture = &r
	w.mu.Unlock()

	w.notify(ctx, w.userID(), domain.Notification{
		Title:       "Barcode scanned",
		Description: "Code: " + r.Text,
		Severity:    domain.SeverityDefault,
	})
}

// CancelCapture closes the capture surface
func (w *Workflow) CancelCapture() {
	w.capturer.Deactivate()
}

// ToggleFacing switches between the front and rear camera
func (w *Workflow) ToggleFacing() capture.Facing {
	return w.capturer.ToggleFacing()
}

// SetBarcode replaces the barcode text
func (w *Workflow) SetBarcode(barcode string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Barcode = barcode
}

// SetQuantity sets the quantity, clamped to at least 1
func (w *Workflow) SetQuantity(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Quantity = ClampQuantity(n)
}

// SetQuantityText sets the quantity from user input
func (w *Workflow) SetQuantityText(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Quantity = ParseQuantity(text)
}

// IncrementQuantity adds one unit
func (w *Workflow) IncrementQuantity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.form.Quantity < math.MaxInt32 {
		w.form.Quantity++
	}
}

// DecrementQuantity removes one unit, never going below 1
func (w *Workflow) DecrementQuantity() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Quantity = ClampQuantity(w.form.Quantity - 1)
}

// SetNote stores the note verbatim
func (w *Workflow) SetNote(note string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.form.Note = note
}

// Commit records the form as a scanned product. It is not re-entrant: a
// commit started while another is in flight fails with ErrCommitInProgress.
// On failure the form is left as it was so the user can retry. Once issued
// a commit runs to completion even if ctx is cancelled.
func (w *Workflow) Commit(ctx context.Context) (*domain.ScannedProduct, error) {
	ctx = context.WithoutCancel(ctx)
	if !w.saving.CompareAndSwap(false, true) {
		w.metrics.Commit(metrics.ResultBusy)
		return nil, domain.ErrCommitInProgress
	}
	defer w.saving.Store(false)

	w.mu.Lock()
	session, caller, form := w.session, w.caller, w.form
	w.mu.Unlock()

	var missing []string
	if session == nil {
		missing = append(missing, "session")
	}
	if strings.TrimSpace(form.Barcode) == "" {
		missing = append(missing, "barcode")
	}
	if caller == nil {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		err := &domain.IncompleteInputError{Fields: missing}
		w.metrics.Commit(metrics.ResultIncomplete)
		logger.Warn(ctx).Err(err).Msg("Commit rejected")
		w.notify(ctx, w.userID(), domain.Notification{
			Title:       "Error",
			Description: "Barcode, session and user are required.",
			Severity:    domain.SeverityDestructive,
		})
		return nil, err
	}

	product, err := w.recorder.Handle(ctx, command.RecordScanCommand{
		SessionID:      session.ID,
		OrganizationID: session.OrganizationID,
		Barcode:        form.Barcode,
		Quantity:       form.Quantity,
		Notes:          form.Note,
		ScannedBy:      caller.UserID,
	})
	if err != nil {
		w.metrics.Commit(metrics.ResultFailed)
		logger.Error(ctx).
			Err(err).
			Str("session_id", session.ID).
			Str("barcode", form.Barcode).
			Msg("Failed to save scanned product")
		w.notify(ctx, caller.UserID, domain.Notification{
			Title:       "Error",
			Description: "Could not save the product. Try again.",
			Severity:    domain.SeverityDestructive,
		})
		return nil, err
	}

	w.mu.Lock()
	w.form = DefaultForm()
	w.scanned++
	w.mu.Unlock()

	w.metrics.Commit(metrics.ResultSuccess)
	w.notify(ctx, caller.UserID, domain.Notification{
		Title:       "Product saved",
		Description: fmt.Sprintf("%s (x%d)", product.Barcode, product.Quantity),
		Severity:    domain.SeverityDefault,
	})
	return product, nil
}

// Snapshot returns the observable state
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := Snapshot{
		Form:          w.form,
		ScannedCount:  w.scanned,
		IsSaving:      w.saving.Load(),
		IsScanning:    w.capturer.State() == capture.StateScanning,
		CallerLoading: w.loading,
		Video:         w.capturer.Constraints(),
	}
	if w.session != nil {
		session := *w.session
		s.Session = &session
	}
	if w.lastCapture != nil {
		r := *w.lastCapture
		s.LastCapture = &r
	}
	return s
}

func (w *Workflow) userID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.caller == nil {
		return ""
	}
	return w.caller.UserID
}

func (w *Workflow) notify(ctx context.Context, userID string, n domain.Notification) {
	if w.sink == nil || userID == "" {
		return
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	w.sink.Notify(ctx, userID, n)
}

package workflow

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tair/inventory-scanner/internal/scanner/capture"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/repository"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/query"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// recordingSink keeps every notification
type recordingSink struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (s *recordingSink) Notify(ctx context.Context, userID string, n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, n)
}

func (s *recordingSink) last() domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.notes) == 0 {
		return domain.Notification{}
	}
	return s.notes[len(s.notes)-1]
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// fakeCapturer lets tests deliver payloads by hand
type fakeCapturer struct {
	mu          sync.Mutex
	state       capture.State
	facing      capture.Facing
	onResult    func(capture.Result)
	activateErr error
	deactivated int
	// runs between going idle and the result callback
	beforeResult func()
}

func newFakeCapturer() *fakeCapturer {
	return &fakeCapturer{state: capture.StateIdle, facing: capture.FacingEnvironment}
}

func (c *fakeCapturer) Activate(ctx context.Context, src capture.FrameSource, onResult func(capture.Result)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.activateErr != nil {
		return &domain.CaptureError{Err: c.activateErr}
	}
	c.state = capture.StateScanning
	c.onResult = onResult
	return nil
}

func (c *fakeCapturer) deliver(text string) {
	c.mu.Lock()
	fn := c.onResult
	c.onResult = nil
	c.state = capture.StateIdle
	before := c.beforeResult
	c.mu.Unlock()
	if before != nil {
		before()
	}
	if fn != nil {
		fn(capture.Result{Text: text, RecognizedAt: time.Now()})
	}
}

func (c *fakeCapturer) Deactivate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = capture.StateIdle
	c.onResult = nil
	c.deactivated++
}

func (c *fakeCapturer) ToggleFacing() capture.Facing {
	c.Deactivate()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.facing = c.facing.Flip()
	return c.facing
}

func (c *fakeCapturer) State() capture.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeCapturer) Facing() capture.Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

func (c *fakeCapturer) Constraints() capture.Constraints {
	return capture.Constraints{Width: 1280, Height: 720, Facing: c.Facing()}
}

// gatedRecorder blocks every insert until released
type gatedRecorder struct {
	next    ScanRecorder
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRecorder) Handle(ctx context.Context, cmd command.RecordScanCommand) (*domain.ScannedProduct, error) {
	r.entered <- struct{}{}
	select {
	case <-r.release:
	case <-ctx.Done():
		return nil, domain.Persistence("record scanned product", ctx.Err())
	}
	return r.next.Handle(ctx, cmd)
}

// failingRecorder always fails with a persistence error
type failingRecorder struct{}

func (failingRecorder) Handle(ctx context.Context, cmd command.RecordScanCommand) (*domain.ScannedProduct, error) {
	return nil, domain.Persistence("record scanned product", errors.New("timeout"))
}

// failingCounter always fails
type failingCounter struct{}

func (failingCounter) Handle(context.Context, query.CountScannedQuery) (int64, error) {
	return 0, errors.New("count unavailable")
}

type fixture struct {
	store    *repository.MemoryStore
	sink     *recordingSink
	capturer *fakeCapturer
	opener   *command.OpenSessionHandler
	recorder *command.RecordScanHandler
	counter  *query.CountScannedHandler
}

func newFixture() *fixture {
	store := repository.NewMemoryStore()
	return &fixture{
		store:    store,
		sink:     &recordingSink{},
		capturer: newFakeCapturer(),
		opener:   command.NewOpenSessionHandler(store.Sessions(), store.Profiles(), repository.NewLocalSessionLocker(), nil),
		recorder: command.NewRecordScanHandler(store.Products(), nil),
		counter:  query.NewCountScannedHandler(store.Products()),
	}
}

func (f *fixture) workflow() *Workflow {
	return New(f.opener, f.recorder, f.counter, f.capturer, f.sink, metrics.NewScannerMetrics(nil))
}

func (f *fixture) rows(t *testing.T, sessionID string) []domain.ScannedProduct {
	t.Helper()
	rows, err := f.store.Products().ListBySession(context.Background(), sessionID, 100, 0)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	return rows
}

var u1 = &domain.Caller{UserID: "U1", OrganizationID: "ORG1"}

func TestQuantityFromFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-5, 1},
		{0, 1},
		{0.99, 1},
		{1, 1},
		{2.7, 2},
		{3, 3},
		{math.NaN(), 1},
		{math.Inf(1), 1},
		{math.Inf(-1), 1},
		{1e12, math.MaxInt32},
	}
	for _, tt := range tests {
		if got := QuantityFromFloat(tt.in); got != tt.want {
			t.Errorf("QuantityFromFloat(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"3":     3,
		" 12 ":  12,
		"4.9":   4,
		"0":     1,
		"-2":    1,
		"abc":   1,
		"":      1,
		"NaN":   1,
		"2 box": 1,
	}
	for in, want := range tests {
		if got := ParseQuantity(in); got != want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestQuantityEditing(t *testing.T) {
	w := newFixture().workflow()

	for _, n := range []int{-10, -1, 0, 1, 2, 99} {
		w.SetQuantity(n)
		want := n
		if want < 1 {
			want = 1
		}
		if got := w.Snapshot().Form.Quantity; got != want {
			t.Errorf("SetQuantity(%d) gave %d, want %d", n, got, want)
		}
	}

	w.SetQuantity(1)
	w.DecrementQuantity()
	w.DecrementQuantity()
	if got := w.Snapshot().Form.Quantity; got != 1 {
		t.Errorf("decrement below 1 gave %d", got)
	}

	w.IncrementQuantity()
	w.IncrementQuantity()
	if got := w.Snapshot().Form.Quantity; got != 3 {
		t.Errorf("expected 3, got %d", got)
	}

	w.SetQuantityText("not a number")
	if got := w.Snapshot().Form.Quantity; got != 1 {
		t.Errorf("non-numeric input gave %d", got)
	}

	w.SetNote("  verbatim note  ")
	if got := w.Snapshot().Form.Note; got != "  verbatim note  " {
		t.Errorf("note altered: %q", got)
	}
}

func TestInitialize_CreatesSessionForOrganization(t *testing.T) {
	f := newFixture()
	w := f.workflow()

	if err := w.UpdateCaller(context.Background(), u1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := w.Snapshot()
	if snap.Session == nil {
		t.Fatal("expected a resolved session")
	}
	if snap.Session.Status != domain.SessionStatusActive || snap.Session.OrganizationID != "ORG1" {
		t.Errorf("unexpected session: %+v", snap.Session)
	}
	if snap.Session.Name != domain.SessionNameFor(snap.Session.CreatedAt) {
		t.Errorf("session not named after its date: %q", snap.Session.Name)
	}

	// A second update for the same caller does not create another session.
	if err := w.UpdateCaller(context.Background(), u1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	count, _ := f.store.Sessions().CountActive(context.Background(), "ORG1")
	if count != 1 {
		t.Errorf("expected exactly one session, got %d", count)
	}
}

func TestInitialize_SeedsCounterFromExistingRows(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	existing := &domain.InventorySession{ID: "S1", OrganizationID: "ORG1", Status: domain.SessionStatusActive, CreatedAt: time.Now()}
	_ = f.store.Sessions().Create(ctx, existing)
	for _, id := range []string{"p1", "p2", "p3"} {
		_ = f.store.Products().Create(ctx, &domain.ScannedProduct{ID: id, SessionID: "S1", Barcode: id, Quantity: 1, ScannedBy: "U9"})
	}

	w := f.workflow()
	if err := w.UpdateCaller(ctx, u1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := w.Snapshot()
	if snap.Session.ID != "S1" || snap.ScannedCount != 3 {
		t.Errorf("expected session S1 with 3 scans, got %s/%d", snap.Session.ID, snap.ScannedCount)
	}
}

func TestInitialize_WaitsWhileCallerLoading(t *testing.T) {
	f := newFixture()
	w := f.workflow()

	_ = w.UpdateCaller(context.Background(), nil, true)
	_ = w.UpdateCaller(context.Background(), u1, true)
	if w.Snapshot().Session != nil {
		t.Fatal("initialized while caller was loading")
	}

	_ = w.UpdateCaller(context.Background(), u1, false)
	if w.Snapshot().Session == nil {
		t.Fatal("expected initialization once loading finished")
	}
}

func TestInitialize_ConfigurationError(t *testing.T) {
	f := newFixture()
	w := f.workflow()

	err := w.UpdateCaller(context.Background(), &domain.Caller{UserID: "U7"}, false)

	var cfgErr *domain.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if w.Snapshot().Session != nil {
		t.Error("session resolved despite configuration error")
	}
	if n := f.sink.last(); n.Severity != domain.SeverityDestructive || n.Title != "Configuration error" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestInitialize_CountIsBestEffort(t *testing.T) {
	f := newFixture()
	w := New(f.opener, f.recorder, failingCounter{}, f.capturer, f.sink, nil)

	if err := w.UpdateCaller(context.Background(), u1, false); err != nil {
		t.Fatalf("count failure must not fail initialization: %v", err)
	}
	snap := w.Snapshot()
	if snap.Session == nil || snap.ScannedCount != 0 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestCommit_EmptyBarcodeWritesNothing(t *testing.T) {
	f := newFixture()
	w := f.workflow()
	_ = w.UpdateCaller(context.Background(), u1, false)

	for _, barcode := range []string{"", "   "} {
		w.SetBarcode(barcode)
		_, err := w.Commit(context.Background())

		var incomplete *domain.IncompleteInputError
		if !errors.As(err, &incomplete) {
			t.Fatalf("expected IncompleteInputError for %q, got %v", barcode, err)
		}
	}

	snap := w.Snapshot()
	if rows := f.rows(t, snap.Session.ID); len(rows) != 0 {
		t.Errorf("expected zero writes, got %d", len(rows))
	}
	if snap.ScannedCount != 0 {
		t.Errorf("counter moved: %d", snap.ScannedCount)
	}
	if f.sink.last().Severity != domain.SeverityDestructive {
		t.Error("expected a destructive notification")
	}
}

func TestCommit_WithoutSessionFailsFast(t *testing.T) {
	f := newFixture()
	w := f.workflow()
	w.SetBarcode("123")

	_, err := w.Commit(context.Background())

	var incomplete *domain.IncompleteInputError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteInputError, got %v", err)
	}
	if len(incomplete.Fields) != 2 {
		t.Errorf("expected session and user missing, got %v", incomplete.Fields)
	}
}

func TestCommit_WritesLiteralRecordAndResetsForm(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_ = f.store.Sessions().Create(ctx, &domain.InventorySession{ID: "S1", OrganizationID: "ORG1", Status: domain.SessionStatusActive, CreatedAt: time.Now()})

	w := f.workflow()
	if err := w.UpdateCaller(ctx, u1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := w.Snapshot().ScannedCount

	w.SetBarcode("7891000053904")
	w.SetQuantity(3)
	w.SetNote("shelf A")

	product, err := w.Commit(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := f.rows(t, "S1")
	if len(rows) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(rows))
	}
	row := rows[0]
	if row.ID != product.ID || row.SessionID != "S1" || row.Barcode != "7891000053904" ||
		row.Quantity != 3 || row.Notes != "shelf A" || row.ScannedBy != "U1" {
		t.Errorf("unexpected row: %+v", row)
	}

	snap := w.Snapshot()
	if snap.Form != DefaultForm() {
		t.Errorf("form not reset: %+v", snap.Form)
	}
	if snap.ScannedCount != before+1 {
		t.Errorf("expected counter %d, got %d", before+1, snap.ScannedCount)
	}
	if n := f.sink.last(); n.Title != "Product saved" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestCommit_PersistenceErrorKeepsForm(t *testing.T) {
	f := newFixture()
	w := New(f.opener, failingRecorder{}, f.counter, f.capturer, f.sink, nil)
	_ = w.UpdateCaller(context.Background(), u1, false)

	w.SetBarcode("7891000053904")
	w.SetQuantity(4)
	w.SetNote("aisle 2")
	before := w.Snapshot()

	_, err := w.Commit(context.Background())

	var pe *domain.PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	after := w.Snapshot()
	if after.Form != before.Form {
		t.Errorf("form changed on failure: %+v -> %+v", before.Form, after.Form)
	}
	if after.ScannedCount != before.ScannedCount {
		t.Errorf("counter changed on failure")
	}
	if after.IsSaving {
		t.Error("saving flag left set")
	}
}

func TestCommit_RapidDoubleCommitWritesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	gate := &gatedRecorder{next: f.recorder, entered: make(chan struct{}, 1), release: make(chan struct{})}
	w := New(f.opener, gate, f.counter, f.capturer, f.sink, nil)
	_ = w.UpdateCaller(ctx, u1, false)
	w.SetBarcode("7891000053904")

	firstErr := make(chan error, 1)
	go func() {
		_, err := w.Commit(ctx)
		firstErr <- err
	}()
	<-gate.entered

	if !w.Snapshot().IsSaving {
		t.Error("expected saving flag while commit in flight")
	}
	if _, err := w.Commit(ctx); !errors.Is(err, domain.ErrCommitInProgress) {
		t.Errorf("expected ErrCommitInProgress, got %v", err)
	}

	close(gate.release)
	if err := <-firstErr; err != nil {
		t.Fatalf("first commit failed: %v", err)
	}

	session := w.Snapshot().Session
	if rows := f.rows(t, session.ID); len(rows) != 1 {
		t.Errorf("expected exactly one row, got %d", len(rows))
	}
	if w.Snapshot().ScannedCount != 1 {
		t.Errorf("expected counter 1, got %d", w.Snapshot().ScannedCount)
	}
}

func TestCommit_RunsToCompletionAfterCancel(t *testing.T) {
	f := newFixture()
	gate := &gatedRecorder{next: f.recorder, entered: make(chan struct{}, 1), release: make(chan struct{})}
	w := New(f.opener, gate, f.counter, f.capturer, f.sink, nil)
	_ = w.UpdateCaller(context.Background(), u1, false)
	w.SetBarcode("7891000053904")
	w.SetQuantity(3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := w.Commit(ctx)
		done <- err
	}()
	<-gate.entered

	// The client goes away while the insert is in flight
	cancel()
	close(gate.release)

	if err := <-done; err != nil {
		t.Fatalf("commit aborted by cancellation: %v", err)
	}
	snap := w.Snapshot()
	if rows := f.rows(t, snap.Session.ID); len(rows) != 1 {
		t.Errorf("expected exactly one row, got %d", len(rows))
	}
	if snap.ScannedCount != 1 {
		t.Errorf("expected counter 1, got %d", snap.ScannedCount)
	}
	if snap.Form != DefaultForm() {
		t.Errorf("expected form reset, got %+v", snap.Form)
	}
}

func TestBeginCapture_FillsBarcode(t *testing.T) {
	f := newFixture()
	w := f.workflow()
	_ = w.UpdateCaller(context.Background(), u1, false)

	if err := w.BeginCapture(context.Background(), capture.NewChannelSource(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !w.Snapshot().IsScanning {
		t.Error("expected scanning")
	}

	f.capturer.deliver("7891000053904")

	snap := w.Snapshot()
	if snap.Form.Barcode != "7891000053904" {
		t.Errorf("barcode not stored: %q", snap.Form.Barcode)
	}
	if snap.IsScanning {
		t.Error("capture surface still open")
	}
	if snap.LastCapture == nil || snap.LastCapture.Text != "7891000053904" {
		t.Errorf("unexpected last capture: %+v", snap.LastCapture)
	}
	if n := f.sink.last(); n.Title != "Barcode scanned" || n.Severity != domain.SeverityDefault {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func TestBeginCapture_ResultDoesNotStopNextCapture(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w := f.workflow()
	_ = w.UpdateCaller(ctx, u1, false)

	if err := w.BeginCapture(ctx, capture.NewChannelSource(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The user reopens the camera before the first result is handled
	f.capturer.beforeResult = func() {
		f.capturer.beforeResult = nil
		if err := w.BeginCapture(ctx, capture.NewChannelSource(1)); err != nil {
			t.Errorf("second capture: %v", err)
		}
	}
	f.capturer.deliver("7891000053904")

	if f.capturer.deactivated != 0 {
		t.Errorf("result handling deactivated the capturer %d times", f.capturer.deactivated)
	}
	snap := w.Snapshot()
	if !snap.IsScanning {
		t.Error("second capture was torn down by the first result")
	}
	if snap.Form.Barcode != "7891000053904" {
		t.Errorf("barcode not stored: %q", snap.Form.Barcode)
	}
}

func TestBeginCapture_CameraUnavailable(t *testing.T) {
	f := newFixture()
	f.capturer.activateErr = capture.ErrSourceUnavailable
	w := f.workflow()
	_ = w.UpdateCaller(context.Background(), u1, false)
	notes := f.sink.count()

	err := w.BeginCapture(context.Background(), nil)

	var captureErr *domain.CaptureError
	if !errors.As(err, &captureErr) {
		t.Fatalf("expected CaptureError, got %v", err)
	}
	if f.sink.count() != notes+1 || f.sink.last().Title != "Camera error" {
		t.Errorf("expected a camera notification, got %+v", f.sink.last())
	}
}

func TestUpdateCaller_SwitchingUserDropsState(t *testing.T) {
	f := newFixture()
	w := f.workflow()
	_ = w.UpdateCaller(context.Background(), u1, false)
	w.SetBarcode("123")

	_ = w.UpdateCaller(context.Background(), nil, false)

	snap := w.Snapshot()
	if snap.Session != nil || snap.Form.Barcode != "" {
		t.Errorf("state kept after sign out: %+v", snap)
	}
	if f.capturer.deactivated == 0 {
		t.Error("capture not stopped on sign out")
	}
}

func TestUpdateCaller_OrganizationChangeReinitializes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	w := f.workflow()
	if err := w.UpdateCaller(ctx, u1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := w.Snapshot().Session
	if first == nil {
		t.Fatal("expected a session for ORG1")
	}
	w.SetBarcode("123")

	moved := &domain.Caller{UserID: u1.UserID, OrganizationID: "ORG2"}
	if err := w.UpdateCaller(ctx, moved, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := w.Snapshot()
	if snap.Session == nil || snap.Session.ID == first.ID {
		t.Fatalf("session of the previous organization kept: %+v", snap.Session)
	}
	if snap.Session.OrganizationID != "ORG2" {
		t.Errorf("expected ORG2 session, got %q", snap.Session.OrganizationID)
	}
	if snap.Form.Barcode != "" {
		t.Error("form kept across organizations")
	}
}

// scriptedEngine answers each frame with the next scripted text
type scriptedEngine struct {
	texts []string
}

func (e *scriptedEngine) Decode(ctx context.Context, frames <-chan image.Image, fn func(string, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-frames:
			if len(e.texts) == 0 {
				fn("", capture.ErrNotFound)
				continue
			}
			text := e.texts[0]
			e.texts = e.texts[1:]
			fn(text, nil)
		}
	}
}

func (e *scriptedEngine) Reset() {}

func TestRegistry_CaptureToCommit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	registry := NewRegistry(Dependencies{
		Opener:      f.opener,
		Recorder:    f.recorder,
		Counter:     f.counter,
		Sink:        f.sink,
		NewEngine:   func() capture.Engine { return &scriptedEngine{texts: []string{"7891000053904", "999"}} },
		FrameBuffer: 4,
	})
	defer registry.Close()

	station := registry.Station("U1")
	if registry.Station("U1") != station {
		t.Fatal("expected the same station for the same user")
	}

	w := station.Workflow
	if err := w.UpdateCaller(ctx, u1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.BeginCapture(ctx, station.Source); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame := image.NewGray(image.Rect(0, 0, 2, 2))
	_ = station.Source.Push(frame)
	_ = station.Source.Push(frame)

	deadline := time.Now().Add(2 * time.Second)
	for w.Snapshot().Form.Barcode == "" && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}
	if got := w.Snapshot().Form.Barcode; got != "7891000053904" {
		t.Fatalf("expected first payload, got %q", got)
	}
	if station.Source.Claimed() {
		t.Error("source still claimed after capture")
	}

	w.SetQuantity(2)
	if _, err := w.Commit(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.Snapshot().ScannedCount != 1 {
		t.Errorf("expected counter 1, got %d", w.Snapshot().ScannedCount)
	}

	registry.Remove("U1")
	if registry.Len() != 0 {
		t.Errorf("expected empty registry, got %d", registry.Len())
	}
}

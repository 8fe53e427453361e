package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/tair/inventory-scanner/internal/scanner/capture"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/notify"
	"github.com/tair/inventory-scanner/internal/scanner/repository"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/query"
	"github.com/tair/inventory-scanner/internal/scanner/workflow"
	"github.com/tair/inventory-scanner/pkg/auth"
)

// fixedEngine recognizes the same payload in every frame
type fixedEngine struct {
	text string
}

func (e fixedEngine) Decode(ctx context.Context, frames <-chan image.Image, fn func(string, error)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-frames:
			fn(e.text, nil)
		}
	}
}

func (fixedEngine) Reset() {}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("connection refused") }

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	router *mux.Router
	store  *repository.MemoryStore
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repository.NewMemoryStore()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	inbox := notify.NewMemoryInbox(20)

	stations := workflow.NewRegistry(workflow.Dependencies{
		Opener:      command.NewOpenSessionHandler(store.Sessions(), store.Profiles(), repository.NewLocalSessionLocker(), nil),
		Recorder:    command.NewRecordScanHandler(store.Products(), nil),
		Counter:     query.NewCountScannedHandler(store.Products()),
		Sink:        inbox,
		NewEngine:   func() capture.Engine { return fixedEngine{text: "7891000053904"} },
		FrameBuffer: 2,
	})
	t.Cleanup(stations.Close)

	handler := NewScannerHandler(
		CommandHandlers{
			Login:          command.NewLoginHandler(store.Profiles(), tokens),
			CreateOperator: command.NewCreateOperatorHandler(store.Profiles()),
		},
		QueryHandlers{
			ListOperators:       query.NewListOperatorsHandler(store.Profiles()),
			ListSessions:        query.NewListSessionsHandler(store.Sessions(), store.Products()),
			ListSessionProducts: query.NewListSessionProductsHandler(store.Sessions(), store.Products()),
			ExportSession:       query.NewExportSessionHandler(store.Sessions(), store.Products()),
			ReportSummary:       query.NewReportSummaryHandler(store.Sessions(), store.Products(), nil),
		},
		stations,
		inbox,
		tokens,
		nil,
	)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, nil)

	return &testServer{router: router, store: store, tokens: tokens}
}

func (s *testServer) token(t *testing.T, userID, role, org string) string {
	t.Helper()
	token, err := s.tokens.GenerateToken(userID, userID+"@example.com", role, org)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := s.do(t, method, path, token, reader, "application/json")

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: invalid JSON response %q", method, path, rec.Body.String())
	}
	return rec, env
}

func decodeSnapshot(t *testing.T, raw json.RawMessage) workflow.Snapshot {
	t.Helper()
	var snap workflow.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}

func encodedFrame(t *testing.T) *bytes.Buffer {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = uint8(color.White.Y >> 8)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	return &buf
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.doJSON(t, "GET", "/health", "", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Errorf("expected healthy, got %d %+v", rec.Code, env)
	}

	router := mux.NewRouter()
	(&ScannerHandler{}).RegisterHealthCheck(router, failingPinger{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rr.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"bad token", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/scanner/state", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	s := newTestServer(t)
	hash, _ := auth.HashPassword("s3cret-pass")
	_ = s.store.Profiles().Create(context.Background(), &domain.Profile{
		ID: "U1", Email: "op@example.com", PasswordHash: hash, Role: domain.RoleOperator, OrganizationID: "ORG1", IsActive: true,
	})

	rec, env := s.doJSON(t, "POST", "/auth/login", "", `{"email":"op@example.com","password":"s3cret-pass"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, env.Error)
	}
	var resp command.LoginResponse
	_ = json.Unmarshal(env.Data, &resp)
	claims, err := s.tokens.ValidateToken(resp.Token)
	if err != nil || claims.OrganizationID != "ORG1" {
		t.Errorf("unexpected token: %v %+v", err, claims)
	}

	rec, _ = s.doJSON(t, "POST", "/auth/login", "", `{"email":"op@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}

	rec, _ = s.doJSON(t, "POST", "/auth/login", "", `{"email":"not-an-email","password":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestInitScanner(t *testing.T) {
	s := newTestServer(t)

	rec, env := s.doJSON(t, "POST", "/api/scanner/init", s.token(t, "U1", domain.RoleOperator, "ORG1"), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, env.Error)
	}
	snap := decodeSnapshot(t, env.Data)
	if snap.Session == nil || snap.Session.OrganizationID != "ORG1" || snap.Session.Status != domain.SessionStatusActive {
		t.Errorf("unexpected session: %+v", snap.Session)
	}
	if snap.Video.Width != capture.DefaultWidth || snap.Video.Facing != capture.FacingEnvironment {
		t.Errorf("unexpected video constraints: %+v", snap.Video)
	}

	rec, _ = s.doJSON(t, "POST", "/api/scanner/init", s.token(t, "U7", domain.RoleOperator, ""), "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for caller without organization, got %d", rec.Code)
	}
}

func TestFormAndCommit(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "U1", domain.RoleOperator, "ORG1")
	s.doJSON(t, "POST", "/api/scanner/init", token, "")

	rec, env := s.doJSON(t, "POST", "/api/scanner/commit", token, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty barcode, got %d", rec.Code)
	}

	rec, env = s.doJSON(t, "PATCH", "/api/scanner/form", token, `{"barcode":"7891000053904","quantity":2.8,"note":"shelf A"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, env.Error)
	}
	if snap := decodeSnapshot(t, env.Data); snap.Form.Quantity != 2 {
		t.Errorf("expected quantity floored to 2, got %d", snap.Form.Quantity)
	}

	_, env = s.doJSON(t, "POST", "/api/scanner/form/quantity/increment", token, "")
	if snap := decodeSnapshot(t, env.Data); snap.Form.Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", snap.Form.Quantity)
	}
	rec, _ = s.doJSON(t, "POST", "/api/scanner/form/quantity/double", token, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown op, got %d", rec.Code)
	}

	rec, env = s.doJSON(t, "POST", "/api/scanner/commit", token, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, env.Error)
	}
	var committed struct {
		Product domain.ScannedProduct `json:"product"`
		State   workflow.Snapshot     `json:"state"`
	}
	_ = json.Unmarshal(env.Data, &committed)
	if committed.Product.Barcode != "7891000053904" || committed.Product.Quantity != 3 ||
		committed.Product.Notes != "shelf A" || committed.Product.ScannedBy != "U1" {
		t.Errorf("unexpected product: %+v", committed.Product)
	}
	if committed.State.ScannedCount != 1 || committed.State.Form != workflow.DefaultForm() {
		t.Errorf("unexpected state after commit: %+v", committed.State)
	}

	_, env = s.doJSON(t, "GET", "/api/sessions/"+committed.Product.SessionID+"/products", token, "")
	var products []domain.ScannedProduct
	_ = json.Unmarshal(env.Data, &products)
	if len(products) != 1 {
		t.Errorf("expected 1 stored product, got %d", len(products))
	}

	_, env = s.doJSON(t, "GET", "/api/scanner/notifications", token, "")
	var notes []domain.Notification
	_ = json.Unmarshal(env.Data, &notes)
	if len(notes) != 2 || notes[0].Severity != domain.SeverityDestructive || notes[1].Title != "Product saved" {
		t.Errorf("unexpected notifications: %+v", notes)
	}
	_, env = s.doJSON(t, "GET", "/api/scanner/notifications", token, "")
	if string(env.Data) != "[]" {
		t.Errorf("expected drained inbox, got %s", env.Data)
	}
}

func TestUpdateForm_LongNoteStoredVerbatim(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "U1", domain.RoleOperator, "ORG1")
	s.doJSON(t, "POST", "/api/scanner/init", token, "")

	note := strings.Repeat("n", 1001) + "  "
	body, _ := json.Marshal(map[string]string{"note": note})
	rec, env := s.doJSON(t, "PATCH", "/api/scanner/form", token, string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, env.Error)
	}
	if snap := decodeSnapshot(t, env.Data); snap.Form.Note != note {
		t.Errorf("note changed: got %d chars, want %d", len(snap.Form.Note), len(note))
	}
}

func TestCaptureFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.token(t, "U1", domain.RoleOperator, "ORG1")

	rec := s.do(t, "POST", "/api/scanner/capture/frames", token, encodedFrame(t), "image/png")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 while idle, got %d", rec.Code)
	}

	rec, env := s.doJSON(t, "POST", "/api/scanner/capture", token, "")
	if rec.Code != http.StatusOK || !decodeSnapshot(t, env.Data).IsScanning {
		t.Fatalf("expected scanning, got %d %s", rec.Code, env.Data)
	}

	rec = s.do(t, "POST", "/api/scanner/capture/frames", token, strings.NewReader("gif"), "image/gif")
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", rec.Code)
	}

	rec = s.do(t, "POST", "/api/scanner/capture/frames", token, encodedFrame(t), "image/png")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	var snap workflow.Snapshot
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, env = s.doJSON(t, "GET", "/api/scanner/state", token, "")
		snap = decodeSnapshot(t, env.Data)
		if snap.Form.Barcode != "" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if snap.Form.Barcode != "7891000053904" || snap.IsScanning {
		t.Errorf("expected captured barcode and closed surface, got %+v", snap)
	}

	_, env = s.doJSON(t, "POST", "/api/scanner/capture/facing", token, "")
	if facing := decodeSnapshot(t, env.Data).Video.Facing; facing != capture.FacingUser {
		t.Errorf("expected user facing, got %s", facing)
	}
}

func TestOperatorManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(t, "A1", domain.RoleAdmin, "ORG1")
	operator := s.token(t, "U1", domain.RoleOperator, "ORG1")

	body := `{"email":"new@example.com","full_name":"New Operator","password":"long-enough"}`
	rec, _ := s.doJSON(t, "POST", "/api/users", operator, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for operator, got %d", rec.Code)
	}

	rec, env := s.doJSON(t, "POST", "/api/users", admin, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, env.Error)
	}
	rec, _ = s.doJSON(t, "POST", "/api/users", admin, body)
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", rec.Code)
	}
	rec, _ = s.doJSON(t, "POST", "/api/users", admin, `{"email":"x@example.com","full_name":"X","password":"short"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", rec.Code)
	}

	_, env = s.doJSON(t, "GET", "/api/users", admin, "")
	var profiles []domain.Profile
	_ = json.Unmarshal(env.Data, &profiles)
	if len(profiles) != 1 || profiles[0].OrganizationID != "ORG1" || profiles[0].Role != domain.RoleOperator {
		t.Errorf("unexpected profiles: %+v", profiles)
	}
}

func TestSessionsExportAndReport(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	token := s.token(t, "U1", domain.RoleOperator, "ORG1")

	_ = s.store.Sessions().Create(ctx, &domain.InventorySession{ID: "S1", Name: "Inventory 2026-10-17", OrganizationID: "ORG1", Status: domain.SessionStatusActive, CreatedAt: time.Now()})
	_ = s.store.Sessions().Create(ctx, &domain.InventorySession{ID: "S9", Name: "Inventory 2026-10-17", OrganizationID: "ORG2", Status: domain.SessionStatusActive, CreatedAt: time.Now()})
	_ = s.store.Products().Create(ctx, &domain.ScannedProduct{ID: "p1", SessionID: "S1", Barcode: "111", Quantity: 2, ScannedBy: "U1", CreatedAt: time.Now()})

	_, env := s.doJSON(t, "GET", "/api/sessions", token, "")
	var sessions []query.SessionSummary
	_ = json.Unmarshal(env.Data, &sessions)
	if len(sessions) != 1 || sessions[0].ID != "S1" || sessions[0].Products != 1 {
		t.Errorf("unexpected sessions: %+v", sessions)
	}

	rec := s.do(t, "GET", "/api/sessions/S1/export", token, nil, "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("unexpected export response: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "Inventory 2026-10-17.xlsx") {
		t.Errorf("unexpected disposition: %s", rec.Header().Get("Content-Disposition"))
	}

	rec, _ = s.doJSON(t, "GET", "/api/sessions/S9/export", token, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another organization's session, got %d", rec.Code)
	}

	rec, env = s.doJSON(t, "GET", "/api/reports/summary", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var summary query.ReportSummary
	_ = json.Unmarshal(env.Data, &summary)
	if summary.ActiveSessions != 1 || summary.ScansToday != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&domain.ConfigurationError{UserID: "U1"}, http.StatusConflict},
		{&domain.IncompleteInputError{Fields: []string{"barcode"}}, http.StatusUnprocessableEntity},
		{domain.ErrCommitInProgress, http.StatusConflict},
		{domain.Persistence("insert", errors.New("timeout")), http.StatusBadGateway},
		{&domain.CaptureError{Err: capture.ErrSourceUnavailable}, http.StatusServiceUnavailable},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrAccountDisabled, http.StatusForbidden},
		{domain.Persistence("find session", domain.ErrSessionNotFound), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got, _ := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRegisterMiddlewares_RequestID(t *testing.T) {
	router := mux.NewRouter()
	RegisterMiddlewares(router, DefaultMiddlewareConfig(time.Second))
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/ping", nil))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}

	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("expected request id to be propagated, got %q", rec.Header().Get("X-Request-ID"))
	}
}

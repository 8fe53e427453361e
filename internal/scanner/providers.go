package scanner

import (
	"github.com/tair/inventory-scanner/internal/scanner/capture"
	"github.com/tair/inventory-scanner/internal/scanner/delivery/http"
	"github.com/tair/inventory-scanner/internal/scanner/domain"
	"github.com/tair/inventory-scanner/internal/scanner/notify"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/command"
	"github.com/tair/inventory-scanner/internal/scanner/usecase/query"
	"github.com/tair/inventory-scanner/internal/scanner/workflow"
	"github.com/tair/inventory-scanner/pkg/auth"
	"github.com/tair/inventory-scanner/pkg/metrics"
)

// Infrastructure is what the service was started with. Locker, Publisher,
// Reports, Inbox and Limiter are nil when the backing system is not configured.
type Infrastructure struct {
	Sessions    domain.SessionRepository
	Products    domain.ScannedProductRepository
	Profiles    domain.ProfileRepository
	Locker      domain.SessionLocker
	Publisher   command.ScanPublisher
	Reports     query.ReportReader
	Inbox       notify.Inbox
	Limiter     *http.RateLimiter
	Sink        domain.NotificationSink
	Tokens      *auth.TokenManager
	Metrics     *metrics.ScannerMetrics
	NewEngine   func() capture.Engine
	FrameBuffer int
}

// Service is the assembled HTTP surface plus the per-user workflows behind it
type Service struct {
	Handler  *http.ScannerHandler
	Stations *workflow.Registry
}

// NewService creates a service
func NewService(handler *http.ScannerHandler, stations *workflow.Registry) *Service {
	return &Service{Handler: handler, Stations: stations}
}

// Command Handlers Providers
func ProvideOpenSessionHandler(infra *Infrastructure) *command.OpenSessionHandler {
	return command.NewOpenSessionHandler(infra.Sessions, infra.Profiles, infra.Locker, infra.Metrics)
}

func ProvideRecordScanHandler(infra *Infrastructure) *command.RecordScanHandler {
	return command.NewRecordScanHandler(infra.Products, infra.Publisher)
}

func ProvideLoginHandler(infra *Infrastructure) *command.LoginHandler {
	return command.NewLoginHandler(infra.Profiles, infra.Tokens)
}

func ProvideCreateOperatorHandler(infra *Infrastructure) *command.CreateOperatorHandler {
	return command.NewCreateOperatorHandler(infra.Profiles)
}

// Query Handlers Providers
func ProvideCountScannedHandler(infra *Infrastructure) *query.CountScannedHandler {
	return query.NewCountScannedHandler(infra.Products)
}

func ProvideListOperatorsHandler(infra *Infrastructure) *query.ListOperatorsHandler {
	return query.NewListOperatorsHandler(infra.Profiles)
}

func ProvideListSessionsHandler(infra *Infrastructure) *query.ListSessionsHandler {
	return query.NewListSessionsHandler(infra.Sessions, infra.Products)
}

func ProvideListSessionProductsHandler(infra *Infrastructure) *query.ListSessionProductsHandler {
	return query.NewListSessionProductsHandler(infra.Sessions, infra.Products)
}

func ProvideExportSessionHandler(infra *Infrastructure) *query.ExportSessionHandler {
	return query.NewExportSessionHandler(infra.Sessions, infra.Products)
}

func ProvideReportSummaryHandler(infra *Infrastructure) *query.ReportSummaryHandler {
	return query.NewReportSummaryHandler(infra.Sessions, infra.Products, infra.Reports)
}

// ProvideCommandHandlers provides all command handlers
func ProvideCommandHandlers(
	loginHandler *command.LoginHandler,
	createOperatorHandler *command.CreateOperatorHandler,
) http.CommandHandlers {
	return http.CommandHandlers{
		Login:          loginHandler,
		CreateOperator: createOperatorHandler,
	}
}

// ProvideQueryHandlers provides all query handlers
func ProvideQueryHandlers(
	listOperatorsHandler *query.ListOperatorsHandler,
	listSessionsHandler *query.ListSessionsHandler,
	listSessionProductsHandler *query.ListSessionProductsHandler,
	exportSessionHandler *query.ExportSessionHandler,
	reportSummaryHandler *query.ReportSummaryHandler,
) http.QueryHandlers {
	return http.QueryHandlers{
		ListOperators:       listOperatorsHandler,
		ListSessions:        listSessionsHandler,
		ListSessionProducts: listSessionProductsHandler,
		ExportSession:       exportSessionHandler,
		ReportSummary:       reportSummaryHandler,
	}
}

// ProvideRegistry provides the per-user workflow registry
func ProvideRegistry(
	infra *Infrastructure,
	opener *command.OpenSessionHandler,
	recorder *command.RecordScanHandler,
	counter *query.CountScannedHandler,
) *workflow.Registry {
	return workflow.NewRegistry(workflow.Dependencies{
		Opener:      opener,
		Recorder:    recorder,
		Counter:     counter,
		Sink:        infra.Sink,
		Metrics:     infra.Metrics,
		NewEngine:   infra.NewEngine,
		FrameBuffer: infra.FrameBuffer,
	})
}

// ProvideScannerHandler provides the HTTP handler
func ProvideScannerHandler(
	infra *Infrastructure,
	commands http.CommandHandlers,
	queries http.QueryHandlers,
	stations *workflow.Registry,
) *http.ScannerHandler {
	return http.NewScannerHandler(commands, queries, stations, infra.Inbox, infra.Tokens, infra.Metrics).
		WithLoginLimiter(infra.Limiter)
}

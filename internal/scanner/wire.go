//go:build wireinject
// +build wireinject

package scanner

import (
	"github.com/google/wire"
)

// Wire sets
var CommandHandlerSet = wire.NewSet(
	ProvideOpenSessionHandler,
	ProvideRecordScanHandler,
	ProvideLoginHandler,
	ProvideCreateOperatorHandler,
	ProvideCommandHandlers,
)

var QueryHandlerSet = wire.NewSet(
	ProvideCountScannedHandler,
	ProvideListOperatorsHandler,
	ProvideListSessionsHandler,
	ProvideListSessionProductsHandler,
	ProvideExportSessionHandler,
	ProvideReportSummaryHandler,
	ProvideQueryHandlers,
)

var AllHandlersSet = wire.NewSet(
	CommandHandlerSet,
	QueryHandlerSet,
	ProvideRegistry,
	ProvideScannerHandler,
)

// InitializeService initializes the scanner service with all dependencies
func InitializeService(infra *Infrastructure) (*Service, error) {
	wire.Build(
		AllHandlersSet,
		NewService,
	)
	return nil, nil
}

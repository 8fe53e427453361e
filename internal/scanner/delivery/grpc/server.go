package grpc

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/tair/inventory-scanner/pkg/logger"
)

// ServiceName is the health service name of the scanner
const ServiceName = "scanner.v1.ScannerService"

// NewServer creates a gRPC server exposing hs and reflection
func NewServer(hs *health.Server) *grpc.Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
		),
	)

	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)
	return server
}

// LoggingInterceptor logs gRPC requests
func LoggingInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	event := logger.Debug(ctx)
	if err != nil {
		event = logger.Warn(ctx).Err(err)
	}
	event.
		Str("method", info.FullMethod).
		Dur("duration", time.Since(start)).
		Msg("gRPC request completed")

	return resp, err
}

// RecoveryInterceptor turns a panic into codes.Internal
func RecoveryInterceptor(
	ctx context.Context,
	req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx).
				Interface("panic", r).
				Str("method", info.FullMethod).
				Msg("Panic recovered")
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}

// Probe checks one dependency
type Probe func(ctx context.Context) error

// HealthReporter keeps the serving status of a health server in line with
// the dependencies the scanner needs.
type HealthReporter struct {
	server  *health.Server
	timeout time.Duration

	mu     sync.Mutex
	probes map[string]Probe
}

// NewHealthReporter creates a reporter for server
func NewHealthReporter(server *health.Server) *HealthReporter {
	return &HealthReporter{
		server:  server,
		timeout: 2 * time.Second,
		probes:  make(map[string]Probe),
	}
}

// Register adds a named dependency probe
func (h *HealthReporter) Register(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
}

// Check runs every probe once and updates the serving status of the
// scanner service and of the server as a whole.
func (h *HealthReporter) Check(ctx context.Context) bool {
	h.mu.Lock()
	probes := make(map[string]Probe, len(h.probes))
	for name, p := range h.probes {
		probes[name] = p
	}
	h.mu.Unlock()

	healthy := true
	for name, probe := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := probe(probeCtx)
		cancel()
		if err != nil {
			healthy = false
			logger.Warn(ctx).Err(err).Str("dependency", name).Msg("Health probe failed")
		}
	}

	st := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", st)
	h.server.SetServingStatus(ServiceName, st)
	return healthy
}

// Run checks every interval until ctx is done, then marks the server as
// shutting down.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

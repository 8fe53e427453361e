package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"google.golang.org/grpc/health"

	_ "github.com/tair/inventory-scanner/docs"
	"github.com/tair/inventory-scanner/internal/config"
	"github.com/tair/inventory-scanner/internal/scanner"
	"github.com/tair/inventory-scanner/internal/scanner/capture"
	grpcDelivery "github.com/tair/inventory-scanner/internal/scanner/delivery/grpc"
	httpDelivery "github.com/tair/inventory-scanner/internal/scanner/delivery/http"
	"github.com/tair/inventory-scanner/internal/scanner/notify"
	"github.com/tair/inventory-scanner/internal/scanner/repository"
	"github.com/tair/inventory-scanner/kafka"
	"github.com/tair/inventory-scanner/pkg/auth"
	"github.com/tair/inventory-scanner/pkg/database"
	"github.com/tair/inventory-scanner/pkg/logger"
	"github.com/tair/inventory-scanner/pkg/metrics"
	"github.com/tair/inventory-scanner/pkg/tracing"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.Config{
		ServiceName: cfg.ServiceName,
		Development: cfg.IsDevelopment(),
		Level:       cfg.LogLevel,
	})

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Str("store", cfg.StoreDriver).
		Msg("Starting scanner service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize tracing
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(tracing.Config{
			ServiceName:    cfg.ServiceName,
			ServiceVersion: "1.0.0",
			JaegerEndpoint: cfg.JaegerEndpoint,
			SampleRatio:    1.0,
		})
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	healthServer := health.NewServer()
	reporter := grpcDelivery.NewHealthReporter(healthServer)

	infra := &scanner.Infrastructure{
		Metrics:     metrics.NewScannerMetrics(prometheus.DefaultRegisterer),
		NewEngine:   func() capture.Engine { return capture.NewZXingEngine() },
		FrameBuffer: cfg.CaptureFrameBuffer,
	}

	// Storage
	var pinger httpDelivery.Pinger
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store := repository.NewMemoryStore()
		infra.Sessions = store.Sessions()
		infra.Products = store.Products()
		infra.Profiles = store.Profiles()
		logger.Logger.Warn().Msg("Using in-memory store, data is lost on restart")
	default:
		db, err := database.NewGormConnection(cfg.Database)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		sqlDB, err := db.DB()
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
		}
		defer sqlDB.Close()

		if err := repository.AutoMigrate(db); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
		}

		infra.Sessions = repository.NewTracingSessionRepository(repository.NewGormSessionRepository(db))
		infra.Products = repository.NewTracingScannedProductRepository(repository.NewGormScannedProductRepository(db))
		infra.Profiles = repository.NewTracingProfileRepository(repository.NewGormProfileRepository(db))
		pinger = sqlDB
		reporter.Register("database", sqlDB.PingContext)
		logger.Logger.Info().Msg("Database initialized successfully")
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize token manager")
	}
	infra.Tokens = tokens

	// Redis backs the session lock, the notification inbox, the login limiter
	// and the report projection. Without it everything stays in process.
	var projection *repository.ReportProjection
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer client.Close()

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}

		infra.Locker = repository.NewRedisSessionLocker(client, cfg.SessionLockTTL)
		infra.Inbox = notify.NewRedisInbox(client, cfg.NotificationInboxSize)
		projection = repository.NewReportProjection(client)
		if cfg.LoginRateLimit > 0 {
			infra.Limiter = httpDelivery.NewRateLimiter(client, cfg.ServiceName, cfg.LoginRateLimit, cfg.LoginRateWindow)
		}
		infra.Reports = projection
		reporter.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		logger.Logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis connected")
	} else {
		infra.Locker = repository.NewLocalSessionLocker()
		infra.Inbox = notify.NewMemoryInbox(cfg.NotificationInboxSize)
	}
	infra.Sink = notify.Fanout{notify.LogSink{}, infra.Inbox}

	// Kafka carries scan events to the report projection
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka publisher")
		}
		defer publisher.Close()
		infra.Publisher = publisher

		if projection != nil {
			consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, []string{kafka.TopicProductScanned})
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to create Kafka consumer")
			}
			defer consumer.Close()

			consumer.RegisterHandler(kafka.EventTypeProductScanned, func(ctx context.Context, event kafka.ProductScannedEvent) error {
				_, err := projection.Apply(ctx, repository.ScanFact{
					EventID:        event.EventID,
					OrganizationID: event.OrganizationID,
					SessionID:      event.SessionID,
					OperatorID:     event.ScannedBy,
					Quantity:       event.Quantity,
				})
				return err
			})
			if err := consumer.Start(ctx); err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to start Kafka consumer")
			}
		}
	} else {
		logger.Logger.Warn().Msg("KAFKA_BROKERS not set, scan events are not published")
	}

	// Initialize service with Wire DI
	service, err := scanner.InitializeService(infra)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize service")
	}
	defer service.Stations.Close()

	if _, err := bootstrapAdmin(ctx, cfg, infra.Profiles); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to bootstrap administrator")
	}

	httpServer := newHTTPServer(cfg, service.Handler, pinger)
	go func() {
		logger.Logger.Info().
			Str("port", cfg.HTTPPort).
			Str("metrics_endpoint", "/metrics").
			Str("swagger", "/swagger/index.html").
			Msg("HTTP server started")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	grpcServer := grpcDelivery.NewServer(healthServer)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Logger.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("Failed to listen")
	}
	go func() {
		logger.Logger.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server started")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	go reporter.Run(ctx, 15*time.Second)

	<-ctx.Done()
	logger.Logger.Info().Msg("Shutting down servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("HTTP server forced to shutdown")
	}
	grpcServer.GracefulStop()

	logger.Logger.Info().Msg("Server exited")
}

func newHTTPServer(cfg *config.Config, handler *httpDelivery.ScannerHandler, db httpDelivery.Pinger) *http.Server {
	router := mux.NewRouter()

	middlewareConfig := httpDelivery.DefaultMiddlewareConfig(cfg.RequestTimeout)
	httpDelivery.RegisterMiddlewares(router, middlewareConfig)

	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	httpDelivery.RegisterSwaggerDocs(router, httpSwagger.WrapHandler)

	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpDelivery.SetupCORS(middlewareConfig)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

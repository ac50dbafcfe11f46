package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/l3hautikpatel/credwise-sub000/internal/application/usecase"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/event"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/adapter"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/batch"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/cache"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/config"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/messaging"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/metrics"
	pgRepo "github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/persistence/postgres"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/storage"
	grpcPresentation "github.com/l3hautikpatel/credwise-sub000/internal/presentation/grpc"
	"github.com/l3hautikpatel/credwise-sub000/internal/presentation/rest"
	"github.com/l3hautikpatel/credwise-sub000/pkg/auth"
	pkgkafka "github.com/l3hautikpatel/credwise-sub000/pkg/kafka"
	"github.com/l3hautikpatel/credwise-sub000/pkg/observability"
	pkgpostgres "github.com/l3hautikpatel/credwise-sub000/pkg/postgres"
	pkgredis "github.com/l3hautikpatel/credwise-sub000/pkg/redis"
	"github.com/l3hautikpatel/credwise-sub000/pkg/tlsutil"
)

const (
	httpRateLimit  = 200
	batchWorkers   = 8
	shutdownPeriod = 15 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := config.Load()

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.ServiceName,
	})

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting eligibility-service",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	evalMetrics, err := metrics.NewEvaluationMetrics(meterProvider)
	if err != nil {
		logger.Error("failed to create evaluation metrics", "error", err)
		os.Exit(1)
	}

	// Tracing.
	if cfg.Tracing.Endpoint != "" {
		tracerProvider, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: cfg.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() { _ = tracerProvider.Shutdown(context.Background()) }()
		logger.Info("tracing enabled", "endpoint", cfg.Tracing.Endpoint)
	}

	// Database connection.
	dbCfg := pkgpostgres.Config{
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		User:            cfg.DB.User,
		Password:        cfg.DB.Password,
		Database:        cfg.DB.Name,
		SSLMode:         cfg.DB.SSLMode,
		ApplicationName: cfg.ServiceName,
		ConnectTimeout:  5 * time.Second,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, dbCfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pkgpostgres.RunMigrations(dbCfg.DSN(), pgRepo.Migrations, pgRepo.MigrationsPath); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Wire infrastructure adapters.
	repo := pgRepo.NewEvaluationRepo(pool)

	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLMechanism != "",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
	}
	if err := kafkaCfg.Validate(); err != nil {
		logger.Error("invalid kafka configuration", "error", err)
		os.Exit(1)
	}
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg)
	defer kafkaProducer.Close()
	publisher := messaging.NewKafkaEventPublisher(kafkaProducer, cfg.Kafka.Topic, logger)
	if cfg.Kafka.AuditTopic != "" {
		publisher.Route(event.EventTypeFallbackUsed, cfg.Kafka.AuditTopic)
	}

	readiness := map[string]rest.Checker{
		"database": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
	}

	var evalCache port.EvaluationCache
	if cfg.Redis.Addr != "" {
		redisClient, err := pkgredis.NewConnection(ctx, pkgredis.ConnectionInfo{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, serving reads without a cache", "error", err)
		} else {
			defer pkgredis.Close(redisClient)
			evalCache = cache.NewRedisEvaluationCache(redisClient, cfg.Redis.Prefix, cfg.Redis.TTL)
			readiness["cache"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		}
	}

	var reportStore port.ReportStore
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3ReportStore(storage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			AccessKeyID:     cfg.Storage.AccessKey,
			SecretAccessKey: cfg.Storage.SecretKey,
			Bucket:          cfg.Storage.Bucket,
			UseSSL:          cfg.Storage.UseSSL,
			Region:          cfg.Storage.Region,
			Prefix:          "reports",
		})
		if err != nil {
			logger.Error("failed to create report store", "error", err)
			os.Exit(1)
		}
		reportStore = s3Store
	}

	predictor, err := newPredictionClient(cfg.Prediction, logger)
	if err != nil {
		logger.Error("failed to create prediction client", "error", err)
		os.Exit(1)
	}
	evaluator := service.NewEvaluator(
		service.WithLogger(logger),
		service.WithPredictor(predictor, cfg.Prediction.Timeout),
	)

	// Wire use cases.
	evaluateUC := usecase.NewEvaluateApplicationUseCase(evaluator, repo, publisher, evalMetrics, logger)
	getUC := usecase.NewGetEvaluationUseCase(repo, evalCache, logger)
	listUC := usecase.NewListEvaluationsUseCase(repo)
	batchUC := usecase.NewBatchEvaluateUseCase(evaluator, batch.NewExcelWorkbook(), repo, reportStore, evalMetrics, batchWorkers, logger)

	// JWT service (validation-only: public key preferred, secret as fallback).
	publicKeyPEM := cfg.Auth.PublicKeyPEM
	if publicKeyPEM == "" && cfg.Auth.PublicKeyFile != "" {
		keyPEM, err := auth.LoadKeyFromFile(cfg.Auth.PublicKeyFile)
		if err != nil {
			logger.Error("failed to load JWT public key", "error", err)
			os.Exit(1)
		}
		publicKeyPEM = string(keyPEM)
	}
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{
		Secret:       cfg.Auth.Secret,
		PublicKeyPEM: publicKeyPEM,
		Issuer:       cfg.Auth.Issuer,
		Audience:     cfg.Auth.Audience,
		Leeway:       cfg.Auth.Leeway,
	})
	if err != nil {
		logger.Error("failed to initialize JWT service", "error", err)
		os.Exit(1)
	}

	tlsFiles := tlsutil.ServerFiles{
		CertFile:     cfg.TLS.CertFile,
		KeyFile:      cfg.TLS.KeyFile,
		ClientCAFile: cfg.TLS.ClientCAFile,
	}

	// gRPC server.
	handler := grpcPresentation.NewEvaluationHandler(evaluateUC, getUC, listUC, logger)
	grpcServer, err := grpcPresentation.NewServer(handler, grpcPresentation.ServerConfig{
		Address:     cfg.GRPCAddr(),
		ServiceName: cfg.ServiceName,
		TLS:         tlsFiles,
		Reflection:  cfg.Reflection,
	}, logger, jwtSvc)
	if err != nil {
		logger.Error("failed to create gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server.
	mux := http.NewServeMux()
	rest.NewHealthHandler(cfg.ServiceName, readiness, logger).RegisterRoutes(mux)
	rest.NewEvaluationHandler(evaluateUC, getUC, listUC, batchUC, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", metricsHandler)

	httpHandler := rest.Chain(mux,
		rest.LoggingMiddleware(logger),
		rest.RateLimitMiddleware(rest.NewRateLimiter(httpRateLimit)),
		auth.HTTPMiddleware(jwtSvc, []string{"/healthz", "/readyz", "/metrics"}),
	)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if cfg.TLS.Enabled() {
		httpServer.TLSConfig, err = tlsutil.ServerConfig(tlsFiles)
		if err != nil {
			logger.Error("failed to load HTTP TLS config", "error", err)
			os.Exit(1)
		}
	}

	// Start servers.
	errCh := make(chan error, 3)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		var err error
		if cfg.TLS.Enabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Optional asynchronous intake.
	if cfg.Kafka.IntakeTopic != "" {
		intake := messaging.NewIntakeHandler(evaluateUC, logger)
		consumer := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.IntakeTopic, intake.Handle, logger,
			pkgkafka.WithRetry(cfg.Kafka.IntakeAttempts, cfg.Kafka.IntakeBackoff))
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("intake consumer error: %w", err)
			}
		}()
	}

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("eligibility-service stopped")
}

// newPredictionClient returns the HTTP predictor when a URL is configured.
// Without one it returns nil, leaving decisions to the local rules, unless
// PREDICTION_STUB asks for the dev stub.
func newPredictionClient(cfg config.PredictionConfig, logger *slog.Logger) (port.PredictionClient, error) {
	if cfg.URL == "" {
		if cfg.Stub {
			logger.Warn("PREDICTION_STUB set, using the stub predictor")
			return adapter.NewStubPredictionClient(), nil
		}
		logger.Info("PREDICTION_URL not set, deciding with local rules only")
		return nil, nil
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.CAFile != "" {
		tlsCfg, err := tlsutil.ClientConfig(cfg.CAFile)
		if err != nil {
			return nil, fmt.Errorf("load predictor CA: %w", err)
		}
		transport.TLSClientConfig = tlsCfg
	}

	return adapter.NewHTTPPredictionClient(adapter.HTTPPredictionConfig{URL: cfg.URL}, &http.Client{Transport: transport}), nil
}

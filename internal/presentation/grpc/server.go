package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/l3hautikpatel/credwise-sub000/pkg/auth"
	"github.com/l3hautikpatel/credwise-sub000/pkg/tlsutil"
)

// Health probes bypass authentication.
var publicMethods = []string{
	healthpb.Health_Check_FullMethodName,
	healthpb.Health_Watch_FullMethodName,
}

// ServerConfig describes the gRPC listener. TLS is enabled when both
// TLS.CertFile and TLS.KeyFile are set.
type ServerConfig struct {
	Address     string
	ServiceName string
	TLS         tlsutil.ServerFiles
	Reflection  bool
}

// Server hosts CreditEvaluationService next to the standard health service.
type Server struct {
	address string
	srv     *grpc.Server
	health  *health.Server
	logger  *slog.Logger
}

// NewServer assembles the interceptor chain (recovery, access log, auth)
// and registers the services. Unreadable TLS material is an error rather
// than a silent fallback to plaintext.
func NewServer(handler *EvaluationHandler, cfg ServerConfig, logger *slog.Logger, tokens auth.TokenValidator) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(logger),
			accessLogInterceptor(logger),
			auth.UnaryAuthInterceptor(tokens, publicMethods),
		),
	}

	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		creds, err := tlsutil.GRPCCredentials(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("grpc tls: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
		logger.Info("gRPC TLS enabled", "cert", cfg.TLS.CertFile, "mtls", cfg.TLS.ClientCAFile != "")
	} else {
		logger.Warn("gRPC TLS not configured, serving plaintext")
	}

	srv := grpc.NewServer(opts...)
	RegisterCreditEvaluationServiceServer(srv, handler)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	if cfg.ServiceName != "" {
		hs.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)
	}

	if cfg.Reflection {
		reflection.Register(srv)
	}

	return &Server{address: cfg.Address, srv: srv, health: hs, logger: logger}, nil
}

// Start listens on the configured address and blocks until Stop.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.address, err)
	}
	return s.Serve(lis)
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server starting", slog.String("address", lis.Addr().String()))
	return s.srv.Serve(lis)
}

// Stop reports NOT_SERVING to health watchers, then drains in-flight calls.
func (s *Server) Stop() {
	s.logger.Info("gRPC server shutting down")
	s.health.Shutdown()
	s.srv.GracefulStop()
}

func recoveryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(ctx, "gRPC handler panicked", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

func accessLogInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.InfoContext(ctx, "gRPC call",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}

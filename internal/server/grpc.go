// Package server exposes the indexer's health and status over gRPC and
// HTTP/JSON.
package server

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/observability"
	"LandLedger/internal/store"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// StatusSource reports the indexer position. core.Indexer implements it.
type StatusSource interface {
	Checkpoint() *store.Checkpoint
	OutOfOrder() int64
}

// CacheStatsSource is implemented by store.CachedStore.
type CacheStatsSource interface {
	Stats() store.CacheStats
}

// RecordCounter is implemented by persistence.SQLStore.
type RecordCounter interface {
	CountByKind(ctx context.Context) (map[entity.Kind]int64, error)
}

// EventInjector is implemented by ingestion.Injector.
type EventInjector interface {
	Inject(ctx context.Context, eventType string, data []byte) error
}

// Deps holds what the endpoints read. Cache, Counter and Injector are
// optional.
type Deps struct {
	Status   StatusSource
	Cache    CacheStatsSource
	Counter  RecordCounter
	Injector EventInjector
	Health   *observability.HealthChecker
	Logger   zerolog.Logger
}

// Server wraps the gRPC server and the HTTP gateway mux.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	httpServer   *http.Server
	grpcAddr     string
	httpAddr     string
	deps         Deps
	logger       zerolog.Logger
	startTime    time.Time
}

// New creates the servers. Nothing listens until StartGRPC/StartHTTP.
func New(grpcAddr, httpAddr string, deps Deps) (*Server, error) {
	grpcServer := grpc.NewServer()

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	// Reflection for grpcurl / grpcui
	reflection.Register(grpcServer)

	s := &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		grpcAddr:     grpcAddr,
		httpAddr:     httpAddr,
		deps:         deps,
		logger:       deps.Logger.With().Str("component", "server").Logger(),
		startTime:    time.Now(),
	}

	handler, err := s.Handler()
	if err != nil {
		return nil, err
	}
	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// SetServing mirrors readiness into the gRPC health service.
func (s *Server) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.healthServer.SetServingStatus("", status)
}

// StartGRPC serves gRPC until ctx is canceled.
func (s *Server) StartGRPC(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("gRPC server shutting down")
		s.healthServer.Shutdown()
		s.grpcServer.GracefulStop()
	}()

	s.logger.Info().Str("addr", s.grpcAddr).Msg("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// StartHTTP serves the gateway mux until ctx is canceled.
func (s *Server) StartHTTP(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("HTTP gateway shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.httpAddr).Msg("HTTP gateway listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

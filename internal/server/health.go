package server

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer exposes the standard gRPC health service for watch mode.
type HealthServer struct {
	addr   string
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &HealthServer{
		addr:   addr,
		grpc:   grpc.NewServer(),
		health: health.NewServer(),
		logger: logger,
	}
	grpc_health_v1.RegisterHealthServer(s.grpc, s.health)
	// Not serving until the watcher is up.
	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetServing flips the overall ("") service status.
func (s *HealthServer) SetServing(ok bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if ok {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Serve listens on the configured address until ctx is done.
func (s *HealthServer) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.logger.Error("server.health.listen_failed", "addr", s.addr, "error", err)
		return err
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is done, then stops gracefully.
func (s *HealthServer) ServeListener(ctx context.Context, lis net.Listener) error {
	s.logger.Info("server.health.listening", "addr", lis.Addr().String())
	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(lis) }()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return nil
	case err := <-errCh:
		if err != nil {
			s.logger.Error("server.health.serve_error", "error", err)
		}
		return err
	}
}

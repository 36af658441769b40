package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// MetricsServer serves the Prometheus handler on /metrics.
type MetricsServer struct {
	srv    *http.Server
	logger *slog.Logger
}

func NewMetricsServer(addr string, handler http.Handler, logger *slog.Logger) *MetricsServer {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Serve listens on the configured address until ctx is done.
func (m *MetricsServer) Serve(ctx context.Context) error {
	lis, err := net.Listen("tcp", m.srv.Addr)
	if err != nil {
		m.logger.Error("server.metrics.listen_failed", "addr", m.srv.Addr, "error", err)
		return err
	}
	return m.ServeListener(ctx, lis)
}

func (m *MetricsServer) ServeListener(ctx context.Context, lis net.Listener) error {
	m.logger.Info("server.metrics.listening", "addr", lis.Addr().String())
	errCh := make(chan error, 1)
	go func() { errCh <- m.srv.Serve(lis) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		m.logger.Error("server.metrics.serve_error", "error", err)
		return err
	}
}

package main

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/invoice-gate/internal/async"
	"github.com/joseph-ayodele/invoice-gate/internal/entity"
	"github.com/joseph-ayodele/invoice-gate/internal/ingest"
	"github.com/joseph-ayodele/invoice-gate/internal/server"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Process invoices as they land in the directory",
		Long: `Watches the invoice directory and processes each new file one at a time.
Serves gRPC health on server.health_addr and Prometheus metrics on
server.metrics_addr until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger := opts.cfg, opts.logger
			a, err := buildApp(cmd.Context(), cfg, prometheus.DefaultRegisterer, logger)
			if err != nil {
				return err
			}
			defer a.Close(logger)

			out := cmd.OutOrStdout()
			queue := async.NewProcessorQueue(a.processor, logger,
				async.WithProcessTimeout(5*time.Minute),
				async.WithReporter(func(o entity.Outcome) { reportOutcome(out, o) }),
			)
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				queue.Shutdown(ctx)
			}()

			health := server.NewHealthServer(cfg.Server.HealthAddr, logger)
			g, ctx := errgroup.WithContext(cmd.Context())

			if cfg.Server.HealthAddr != "" {
				g.Go(func() error { return health.Serve(ctx) })
			}
			if cfg.Server.MetricsAddr != "" {
				g.Go(func() error {
					return server.NewMetricsServer(cfg.Server.MetricsAddr, a.metrics.Handler(), logger).Serve(ctx)
				})
			}

			docs, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
				Dir:         cfg.Invoices.Dir,
				InitialScan: cfg.Watch.InitialScan,
				Debounce:    cfg.Watch.Debounce,
				Logger:      logger,
			})
			if err != nil {
				return err
			}
			health.SetServing(true)

			g.Go(func() error {
				defer health.SetServing(false)
				for {
					select {
					case doc, ok := <-docs:
						if !ok {
							return nil
						}
						if err := queue.Enqueue(ctx, async.Job{Document: doc}); err != nil && !errors.Is(err, context.Canceled) {
							return err
						}
					case err, ok := <-errs:
						if !ok {
							errs = nil
							continue
						}
						logger.Warn("watch.error", "error", err)
					case <-ctx.Done():
						return nil
					}
				}
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

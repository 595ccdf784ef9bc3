package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jeremylan/POCS/pkg/lib/indi"
	"github.com/jeremylan/POCS/pkg/lib/observatory"
)

type runOptions struct {
	grpcAddr     string
	metricsAddr  string
	pollInterval time.Duration
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the observatory and serve health and metrics until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			metrics := indi.NewPrometheusMetricsCollector("")
			obs, err := observatory.New(cfg, observatory.WithServerOptions(indi.WithMetricsCollector(metrics)))
			if err != nil {
				return err
			}
			defer func() {
				if err := obs.Close(); err != nil {
					log.Error().Err(err).Msg("Problem shutting down observatory")
				}
			}()

			if err := obs.Connect(); err != nil {
				log.Warn().Err(err).Msg("Some subsystems did not connect")
			}

			return serve(ctx, obs, metrics, opts)
		},
	}

	cmd.Flags().StringVar(&opts.grpcAddr, "grpc-addr", "", "gRPC health address (default $"+addressEnv+" or "+defaultAddress+")")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", ":9100", "Prometheus metrics address, empty to disable")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", 5*time.Second, "driver server liveness poll interval")

	return cmd
}

func serve(ctx context.Context, obs *observatory.Observatory, metrics *indi.PrometheusMetricsCollector, opts *runOptions) error {
	srv, err := NewGRPCServer(opts.grpcAddr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info().Str("addr", srv.Addr().String()).Bool("tls", srv.TLS()).Msg("gRPC health server listening")
		errCh <- srv.Serve()
	}()
	defer srv.Stop()

	var live liveness
	if ds := obs.DriverServer(); ds != nil {
		live = ds
	}
	watcher := newHealthWatcher(srv.Health(), live, opts.pollInterval)
	go watcher.Run(ctx)

	if opts.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
		httpSrv := &http.Server{Addr: opts.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		go func() {
			log.Info().Str("addr", opts.metricsAddr).Msg("Metrics server listening")
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		watcher.Shutdown()
		return nil
	case err := <-errCh:
		return err
	}
}

package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// driverServerService is the health service name tracking driver server liveness.
const driverServerService = "pocs.DriverServer"

// liveness is what the watcher polls.
type liveness interface {
	IsConnected() bool
}

// healthWatcher mirrors driver server liveness into the health service.
// Without a driver server only the overall status is reported.
type healthWatcher struct {
	health   *health.Server
	server   liveness
	interval time.Duration
}

func newHealthWatcher(hs *health.Server, server liveness, interval time.Duration) *healthWatcher {
	return &healthWatcher{health: hs, server: server, interval: interval}
}

// Run polls until ctx is done.
func (w *healthWatcher) Run(ctx context.Context) {
	w.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	if w.server == nil {
		return
	}

	last := healthpb.HealthCheckResponse_UNKNOWN
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		last = w.update(last)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *healthWatcher) update(last healthpb.HealthCheckResponse_ServingStatus) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if w.server.IsConnected() {
		st = healthpb.HealthCheckResponse_SERVING
	}
	if st != last {
		log.Info().Str("status", st.String()).Msg("Driver server health changed")
		w.health.SetServingStatus(driverServerService, st)
	}
	return st
}

// Shutdown reports NOT_SERVING for every service.
func (w *healthWatcher) Shutdown() {
	w.health.Shutdown()
}

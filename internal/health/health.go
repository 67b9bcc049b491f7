// Package health reports storefront readiness over the gRPC health protocol.
package health

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name clients can ask for besides "".
const ServiceName = "aapiden.storefront"

// Check is a named dependency probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Monitor struct {
	checks   []Check
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewMonitor(logger *slog.Logger, checks ...Check) *Monitor {
	s := health.NewServer()
	s.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	s.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &Monitor{
		checks:   checks,
		server:   s,
		interval: 10 * time.Second,
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

// NewGRPCServer returns a server exposing the health service and reflection.
func NewGRPCServer(m *Monitor) *grpc.Server {
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, m.server)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)
	return grpcServer
}

// Run probes the dependencies until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	m.CheckOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CheckOnce(ctx)
		case <-ctx.Done():
			m.server.Shutdown()
			return
		}
	}
}

// CheckOnce pings every dependency and updates the serving status.
func (m *Monitor) CheckOnce(ctx context.Context) bool {
	healthy := true
	for _, check := range m.checks {
		pingCtx, cancel := context.WithTimeout(ctx, m.timeout)
		err := check.Ping(pingCtx)
		cancel()
		if err != nil {
			healthy = false
			m.logger.WarnContext(ctx, "dependency check failed", "dependency", check.Name, "error", err)
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
	return healthy
}

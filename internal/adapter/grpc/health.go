package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/bharadwajkrishnan/finai/internal/domain"
	"github.com/bharadwajkrishnan/finai/internal/logger"
)

// ServiceName is the health-checked service name
const ServiceName = "finai.Tracker"

// HealthCheckMethods are the full method names served without a token
var HealthCheckMethods = []string{
	healthpb.Health_Check_FullMethodName,
	healthpb.Health_Watch_FullMethodName,
}

// Probe reports whether the backend answered; nil or any non-transport error means it is reachable
type Probe func(ctx context.Context) error

// HealthReporter publishes backend reachability through the standard gRPC health service
type HealthReporter struct {
	server *health.Server
	probe  Probe
}

// NewServer creates a gRPC server guarded by the token interceptors,
// with the health service and reflection registered
func NewServer(apiToken string, probe Probe) (*grpc.Server, *HealthReporter) {
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(AuthInterceptor(apiToken, HealthCheckMethods...)),
		grpc.StreamInterceptor(StreamAuthInterceptor(apiToken, HealthCheckMethods...)),
	)

	reporter := NewHealthReporter(probe)
	healthpb.RegisterHealthServer(srv, reporter.server)
	reflection.Register(srv)

	return srv, reporter
}

// NewHealthReporter creates a reporter that starts as NOT_SERVING until the first probe
func NewHealthReporter(probe Probe) *HealthReporter {
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{server: hs, probe: probe}
}

// Check runs the probe once and updates the published status
func (h *HealthReporter) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.probe(ctx); errors.Is(err, domain.ErrBackendUnreachable) {
		logger.FromContext(ctx).Warn("Backend health probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus(ServiceName, status)
	h.server.SetServingStatus("", status)
	return status
}

// Run probes every interval until ctx is done
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown marks every service NOT_SERVING
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

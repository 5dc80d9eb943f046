package grpc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/bharadwajkrishnan/finai/internal/domain"
)

func TestHealthReporter_Check(t *testing.T) {
	tests := []struct {
		name     string
		probeErr error
		expected healthpb.HealthCheckResponse_ServingStatus
	}{
		{"Reachable", nil, healthpb.HealthCheckResponse_SERVING},
		{"Unauthorized Still Reachable", domain.ErrUnauthorized, healthpb.HealthCheckResponse_SERVING},
		{"Backend Rejected", &domain.RejectedError{Status: 500, Message: "boom"}, healthpb.HealthCheckResponse_SERVING},
		{"Unreachable", fmt.Errorf("dial: %w", domain.ErrBackendUnreachable), healthpb.HealthCheckResponse_NOT_SERVING},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			reporter := NewHealthReporter(func(context.Context) error { return tt.probeErr })

			assert.Equal(t, tt.expected, reporter.Check(ctx))

			resp, err := reporter.server.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp.Status)
		})
	}
}

func TestHealthReporter_StartsNotServing(t *testing.T) {
	reporter := NewHealthReporter(func(context.Context) error { return nil })

	resp, err := reporter.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthReporter_RunStopsOnCancel(t *testing.T) {
	var probes atomic.Int32
	reporter := NewHealthReporter(func(context.Context) error {
		probes.Add(1)
		return errors.New("not a transport error")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reporter.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return probes.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestHealthReporter_Shutdown(t *testing.T) {
	reporter := NewHealthReporter(func(context.Context) error { return nil })
	reporter.Check(context.Background())
	reporter.Shutdown()

	resp, err := reporter.server.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

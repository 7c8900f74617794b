package grpc

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/legalize/backoffice/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startServer(t *testing.T) (*HealthServer, healthpb.HealthClient, context.CancelFunc, <-chan error) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := NewHealthServer(lis.Addr().String(), logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return srv, healthpb.NewHealthClient(conn), cancel, done
}

func TestHealth_ReportsJobStatus(t *testing.T) {
	srv, client, cancel, _ := startServer(t)
	defer cancel()
	ctx, stop := context.WithTimeout(context.Background(), 2*time.Second)
	defer stop()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceOverall})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	srv.Report(ServiceInpol, errors.New("sign in: 403"))
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceInpol})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	srv.Report(ServiceInpol, nil)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceInpol})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "unknown"})
	assert.Error(t, err)
}

func TestServe_StopsOnContextCancel(t *testing.T) {
	_, _, cancel, done := startServer(t)

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_BadAddress(t *testing.T) {
	srv := NewHealthServer("256.0.0.1:-1", logging.Discard())
	assert.Error(t, srv.Run(context.Background()))
}

// Package grpc serves the standard gRPC health service of the daemon.
// Background jobs flip their own service entry so probes can tell a dead
// poller from a dead process.
package grpc

import (
	"context"
	"net"

	"github.com/legalize/backoffice/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service names reported by the health server. The empty name is the
// overall process status.
const (
	ServiceOverall   = ""
	ServiceInpol     = "backoffice.inpol"
	ServiceReminders = "backoffice.reminders"
)

type HealthServer struct {
	address string
	health  *health.Server
	logger  logging.Logger
}

func NewHealthServer(address string, l logging.Logger) *HealthServer {
	h := health.NewServer()
	for _, name := range []string{ServiceOverall, ServiceInpol, ServiceReminders} {
		h.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	return &HealthServer{address: address, health: h, logger: l.With("module", "grpc_server")}
}

// Report records the outcome of a job run under its service name.
func (s *HealthServer) Report(service string, err error) {
	st := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// Run listens on the configured address and serves until ctx is done.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

func (s *HealthServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())
	return srv.Serve(listen)
}

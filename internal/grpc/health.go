// Package grpc serves the standard gRPC health protocol with one service
// name per hazard source.
package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	health     *health.Server
	grpcServer *grpc.Server
}

// NewServer registers every source as UNKNOWN until its first fetch. The
// empty service name reports on the process itself and is always SERVING.
func NewServer(sources []string) *Server {
	h := health.NewServer()
	for _, name := range sources {
		h.SetServingStatus(name, healthpb.HealthCheckResponse_UNKNOWN)
	}
	h.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	s := &Server{health: h}
	s.grpcServer = grpc.NewServer()
	healthpb.RegisterHealthServer(s.grpcServer, h)
	reflection.Register(s.grpcServer)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	slog.Info("gRPC server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

// SourceFetched flips a source between SERVING and NOT_SERVING.
func (s *Server) SourceFetched(source string, _ int, _ time.Duration, err error) {
	status := healthpb.HealthCheckResponse_SERVING
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus(source, status)
}

// Status returns the current health of one service name.
func (s *Server) Status(ctx context.Context, service string) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_SERVICE_UNKNOWN, err
	}
	return resp.Status, nil
}

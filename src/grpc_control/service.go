// Package grpc_control exposes the fallback tiers over the standard gRPC
// health protocol so orchestrators can probe each tier separately.
package grpc_control

import (
	"context"
	"fmt"
	"net"
	"strings"

	"mse-observer/src/logger"
	"mse-observer/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServicePrefix namespaces the per-tier health service names.
const ServicePrefix = "mse.tier."

// ControlService serves grpc.health.v1.Health with one service per tier.
// The empty service name reports the process as a whole.
type ControlService struct {
	Config *models.MConfig
	Logger *logger.Logger
	Health *health.Server

	server *grpc.Server
}

// -----------------------------------------------------------------------------

func NewControlService(cfg *models.MConfig, log *logger.Logger) *ControlService {
	var opts []grpc.ServerOption
	if cfg.GrpcToken != "" {
		opts = append(opts, grpc.UnaryInterceptor(AuthInterceptor(cfg.GrpcToken)))
	}

	s := &ControlService{
		Config: cfg,
		Logger: log,
		Health: health.NewServer(),
		server: grpc.NewServer(opts...),
	}
	healthpb.RegisterHealthServer(s.server, s.Health)
	reflection.Register(s.server)

	for _, tier := range []string{models.TierLive, models.TierDatabase, models.TierCached, models.TierMock} {
		s.Health.SetServingStatus(ServiceName(tier), healthpb.HealthCheckResponse_NOT_SERVING)
	}
	s.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return s
}

// ServiceName maps a tier to its health service name.
func ServiceName(tier string) string {
	return ServicePrefix + tier
}

// -----------------------------------------------------------------------------

// SetTierStatus mirrors a tier attempt into the health server. It is meant to
// be installed as the chain's OnTierStatus hook.
func (s *ControlService) SetTierStatus(st models.MTierStatus) {
	serving := healthpb.HealthCheckResponse_NOT_SERVING
	if st.Available {
		serving = healthpb.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus(ServiceName(st.Tier), serving)
	if !st.Available {
		s.Logger.Debug("gRPC: tier %s not serving: %s", st.Tier, st.LastError)
	}
}

// -----------------------------------------------------------------------------

// Serve listens on the configured gRPC address and blocks until Stop.
func (s *ControlService) Serve() error {
	addr := fmt.Sprintf("%s:%d", s.Config.GrpcHost, s.Config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.Logger.Info("gRPC health server listening on %s", addr)
	return s.ServeListener(lis)
}

// ServeListener serves on an existing listener.
func (s *ControlService) ServeListener(lis net.Listener) error {
	return s.server.Serve(lis)
}

// -----------------------------------------------------------------------------

func (s *ControlService) Stop() {
	s.Health.Shutdown()
	s.server.GracefulStop()
}

// -----------------------------------------------------------------------------

// AuthInterceptor rejects unary calls whose "authorization" metadata does not
// match token. Health checks stay open for probes.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if strings.HasPrefix(info.FullMethod, "/grpc.health.v1.Health/") {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}
		auth := md.Get("authorization")
		if len(auth) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing authorization header")
		}
		if strings.TrimPrefix(auth[0], "Bearer ") != token {
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return handler(ctx, req)
	}
}

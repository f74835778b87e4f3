package grpc_control

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"mse-observer/src/logger"
	"mse-observer/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startService(t *testing.T, cfg *models.MConfig) (*ControlService, healthpb.HealthClient) {
	t.Helper()
	svc := NewControlService(cfg, logger.NewWithWriter(io.Discard, "grpc", logger.LevelError))

	lis := bufconn.Listen(1 << 20)
	go svc.ServeListener(lis)
	t.Cleanup(svc.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return svc, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

// -----------------------------------------------------------------------------

func TestTierStatusIsMirrored(t *testing.T) {
	svc, client := startService(t, &models.MConfig{})

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName(models.TierLive)))

	svc.SetTierStatus(models.MTierStatus{Tier: models.TierLive, Available: true})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ServiceName(models.TierLive)))

	svc.SetTierStatus(models.MTierStatus{Tier: models.TierLive, Available: false, LastError: "timeout"})
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(t, client, ServiceName(models.TierLive)))
}

func TestUnknownServiceIsNotFound(t *testing.T) {
	_, client := startService(t, &models.MConfig{})

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "mse.tier.unknown"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthStaysOpenWithToken(t *testing.T) {
	_, client := startService(t, &models.MConfig{GrpcToken: "secret"})
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check(t, client, ""))
}

func TestAuthInterceptor(t *testing.T) {
	intercept := AuthInterceptor("secret")
	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/mse.Control/Refresh"}

	_, err := intercept(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "wrong"))
	_, err = intercept(bad, nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	good := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer secret"))
	resp, err := intercept(good, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

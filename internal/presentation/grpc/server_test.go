package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/l3hautikpatel/credwise-sub000/pkg/auth"
	"github.com/l3hautikpatel/credwise-sub000/pkg/tlsutil"
)

func newTestTokens(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "grpc-server-test", Expiration: time.Minute})
	require.NoError(t, err)
	return svc
}

func startBufconnServer(t *testing.T, tokens *auth.JWTService) *grpc.ClientConn {
	t.Helper()

	srv, err := NewServer(buildHandlerWithRepo(newMockRepo()), ServerConfig{ServiceName: "eligibility-service"}, testLogger(), tokens)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestServer_HealthIsPublic(t *testing.T) {
	conn := startBufconnServer(t, newTestTokens(t))

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: "eligibility-service"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestServer_EvaluationRequiresToken(t *testing.T) {
	tokens := newTestTokens(t)
	conn := startBufconnServer(t, tokens)
	const method = "/credwise.evaluation.v1.CreditEvaluationService/GetEvaluation"

	err := conn.Invoke(context.Background(), method, &GetEvaluationRequest{ID: "missing"}, new(GetEvaluationResponse), grpc.CallContentSubtype("json"))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token, err := tokens.GenerateToken("underwriter-7", []string{auth.RoleUnderwriter})
	require.NoError(t, err)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)

	err = conn.Invoke(ctx, method, &GetEvaluationRequest{ID: "missing"}, new(GetEvaluationResponse), grpc.CallContentSubtype("json"))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestNewServer_TLS(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, tlsutil.GenerateDevCertificates(dir, "localhost"))

	_, err := NewServer(buildHandlerWithRepo(newMockRepo()), ServerConfig{
		TLS: tlsutil.ServerFiles{CertFile: dir + "/server.pem", KeyFile: dir + "/server-key.pem", ClientCAFile: dir + "/ca.pem"},
	}, testLogger(), newTestTokens(t))
	assert.NoError(t, err)

	_, err = NewServer(buildHandlerWithRepo(newMockRepo()), ServerConfig{
		TLS: tlsutil.ServerFiles{CertFile: dir + "/absent.pem", KeyFile: dir + "/absent-key.pem"},
	}, testLogger(), newTestTokens(t))
	assert.ErrorContains(t, err, "grpc tls")
}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := recoveryInterceptor(testLogger())
	_, err := intercept(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/x/Boom"},
		func(context.Context, any) (any, error) { panic("boom") })
	assert.Equal(t, codes.Internal, status.Code(err))
}

package di

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/infrastructure/config"
	"github.com/whikwon/nexusnote/infrastructure/messaging/logging"
	"github.com/whikwon/nexusnote/pkg/auth"
)

func memoryConfig() *config.Config {
	return &config.Config{
		ServerAddress:  ":0",
		Environment:    "test",
		MaxUploadBytes: 1 << 20,
		StorageBackend: config.StorageMemory,
		BlobRoot:       ":memory:",
		AWSRegion:      "us-east-1",
		LogLevel:       "error",
		JWTIssuer:      "nexusnote",
	}
}

func TestInitializeContainer_Memory(t *testing.T) {
	cfg := memoryConfig()
	cfg.JWTSecret = "test-secret"
	cfg.RateLimitRPS = 100
	cfg.RateLimitBurst = 10

	container, err := InitializeContainer(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, container.Router)
	require.NotNil(t, container.Limiter)

	srv := httptest.NewServer(container.Router.Setup())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/document/list")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	gen, err := auth.NewJWTGenerator("test-secret", "nexusnote", []string{auth.DefaultAudience}, 0)
	require.NoError(t, err)
	token, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/document/list", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInitializeContainer_OptionalLayersOff(t *testing.T) {
	container, err := InitializeContainer(context.Background(), memoryConfig())
	require.NoError(t, err)
	assert.Nil(t, container.Limiter)

	v, err := ProvideJWTValidator(container.Config, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestProvideJWTValidator_PublicKeySelectsRS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	cfg := memoryConfig()
	cfg.JWTPublicKey = string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	v, err := ProvideJWTValidator(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, v)

	gen, err := auth.NewJWTGenerator("any-secret", "nexusnote", []string{auth.DefaultAudience}, 0)
	require.NoError(t, err)
	hs, err := gen.GenerateToken("user-1", "", nil)
	require.NoError(t, err)
	_, err = v.ValidateToken(hs)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	cfg.JWTPublicKey = "garbage"
	_, err = ProvideJWTValidator(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestProvideRepositories_UnknownBackend(t *testing.T) {
	cfg := memoryConfig()
	cfg.StorageBackend = "sqlite"
	_, err := ProvideRepositories(cfg, nil, zap.NewNop())
	assert.ErrorContains(t, err, "unknown storage backend")
}

func TestProvideBlobStore_Disk(t *testing.T) {
	cfg := memoryConfig()
	cfg.BlobRoot = t.TempDir()

	blobs, err := ProvideBlobStore(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, blobs)
}

func TestProvideEventPublisher_FallsBackToLog(t *testing.T) {
	cfg := memoryConfig()
	cfg.EnableEvents = true

	publisher := ProvideEventPublisher(cfg, nil, zap.NewNop())
	assert.IsType(t, &logging.Publisher{}, publisher)
}

func TestProvideLogger_RejectsUnknownLevel(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogLevel = "loud"
	_, err := ProvideLogger(cfg)
	assert.Error(t, err)
}

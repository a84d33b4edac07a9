package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onPremConfig(baseURL string) Config {
	return Config{
		Family:          FamilyS4OnPrem,
		BaseURL:         baseURL,
		CompanyCode:     "1000",
		ChartOfAccounts: "CAUS",
		Credentials: Credentials{
			Kind:     CredentialBasic,
			Username: "gw-user",
			Password: "gw-pass",
		},
		Timeout: 5 * time.Second,
	}
}

func okJSONServer(t *testing.T, pings *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/ping" {
			atomic.AddInt32(pings, 1)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFactory_UnsupportedFamilyFailsFast(t *testing.T) {
	factory := NewFactory(StaticConfigProvider{
		"tenant-legacy": {Family: FamilyECCLegacy, BaseURL: "http://legacy.invalid"},
	})

	conn, err := factory.Connector(context.Background(), "tenant-legacy")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFamilyNotSupported)
	assert.Nil(t, conn)
}

func TestFactory_UnknownTenant(t *testing.T) {
	factory := NewFactory(StaticConfigProvider{})

	conn, err := factory.Connector(context.Background(), "tenant-x")

	require.Error(t, err)
	assert.Nil(t, conn)
}

func TestFactory_CachesConnectorPerTenant(t *testing.T) {
	var pings int32
	server := okJSONServer(t, &pings)

	factory := NewFactory(StaticConfigProvider{"tenant-1": onPremConfig(server.URL)})

	first, err := factory.Connector(context.Background(), "tenant-1")
	require.NoError(t, err)
	second, err := factory.Connector(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	// Validation runs once, on construction only.
	assert.Equal(t, int32(1), atomic.LoadInt32(&pings))
}

func TestFactory_ValidationFailurePreventsCaching(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			http.Error(w, `{"error":{"code":"SERVICE_UNAVAILABLE","message":{"value":"booting"}}}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	factory := NewFactory(StaticConfigProvider{"tenant-1": onPremConfig(server.URL)})

	_, err := factory.Connector(context.Background(), "tenant-1")
	require.Error(t, err)

	// The failed construction was not cached; the next call revalidates and
	// succeeds.
	conn, err := factory.Connector(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.NotNil(t, conn)
}

func TestFactory_InvalidateForcesReconstruction(t *testing.T) {
	var pings int32
	server := okJSONServer(t, &pings)

	factory := NewFactory(StaticConfigProvider{"tenant-1": onPremConfig(server.URL)})

	first, err := factory.Connector(context.Background(), "tenant-1")
	require.NoError(t, err)

	factory.Invalidate("tenant-1")

	second, err := factory.Connector(context.Background(), "tenant-1")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, int32(2), atomic.LoadInt32(&pings))
}

// ABOUTME: Tests for the gateway orchestrator.
// ABOUTME: Validates degraded startup without Redis and the status handlers.

package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h2ph/prism-relay/internal/config"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "relay.db")
	// Point at a closed port so startup takes the degraded local-only path.
	cfg.Redis.Addr = "127.0.0.1:1"

	g, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { g.Shutdown() })
	return g
}

func TestNew_DegradedWithoutRedis(t *testing.T) {
	g := newTestGateway(t)

	assert.True(t, g.degraded)
	assert.NotEmpty(t, g.InstanceID())
	assert.NotNil(t, g.Router())
}

func TestHandleHealthz(t *testing.T) {
	g := newTestGateway(t)

	rec := httptest.NewRecorder()
	g.handleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestHandleStatusz(t *testing.T) {
	g := newTestGateway(t)

	rec := httptest.NewRecorder()
	g.handleStatusz(rec, httptest.NewRequest(http.MethodGet, "/statusz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), g.InstanceID())
	assert.Contains(t, rec.Body.String(), `"degraded":true`)
}

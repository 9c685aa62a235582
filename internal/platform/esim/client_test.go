package esim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(&config.Config{Provisioning: config.ProvisioningConfig{
		BaseURL: srv.URL,
		APIKey:  "key-1",
		Timeout: 5 * time.Second,
	}}, zap.NewNop().Sugar())
}

func TestNormalizeImage(t *testing.T) {
	require.Equal(t, "https://cdn.example.com/qr.png", NormalizeImage("https://cdn.example.com/qr.png"))
	require.Equal(t, "HTTP://x/qr.png", NormalizeImage("HTTP://x/qr.png"))
	require.Equal(t, "data:image/svg+xml;base64,AAA", NormalizeImage("data:image/svg+xml;base64,AAA"))
	require.Equal(t, "data:image/png;base64,iVBORw0KGgo=", NormalizeImage(" iVBORw0KGgo= "))
	require.Empty(t, NormalizeImage(""))
}

func TestClient_Issue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/esims", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get("X-API-Key"))
		var req issueRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "JP-7D", req.PlanID)
		assert.Equal(t, int64(2), req.Quantity)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"codes":[{"name":"eSIM 1","image":"AAAA"},{"name":"eSIM 2","qrcode_url":"https://cdn/x.png"}]}`)
	})

	codes, err := c.Issue(context.Background(), "JP-7D", 2)
	require.NoError(t, err)
	require.Equal(t, []Code{
		{Name: "eSIM 1", ImageSource: "data:image/png;base64,AAAA"},
		{Name: "eSIM 2", ImageSource: "https://cdn/x.png"},
	}, codes)
}

func TestClient_IssueEmptyResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"codes":[]}`)
	})
	_, err := c.Issue(context.Background(), "JP-7D", 1)
	require.ErrorIs(t, err, ErrNoCodes)
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for range 3 {
		_, err := c.Issue(context.Background(), "JP-7D", 1)
		require.Error(t, err)
	}
	_, err := c.Issue(context.Background(), "JP-7D", 1)
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	require.Equal(t, int32(3), hits.Load())
}

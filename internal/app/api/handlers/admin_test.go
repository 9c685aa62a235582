package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	notificationlog "github.com/esimtrip/cashier/internal/app/service/notification_log"
	"github.com/esimtrip/cashier/internal/models"
	"github.com/esimtrip/cashier/pkg/response"
)

type fakeScanner struct{ got *notificationlog.ScanRequest }

func (f *fakeScanner) Scan(_ context.Context, req *notificationlog.ScanRequest) (*notificationlog.ScanResponse, error) {
	f.got = req
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	return &notificationlog.ScanResponse{
		Items: []*models.PaymentNotificationLog{{ID: "log-1", Endpoint: "notify", MerchantOrderNo: "ORDER123", DecryptMode: "lenient-json"}},
		Total: 1,
	}, nil
}

func postAdmin(t *testing.T, svc NotificationLogScanner, body string) response.APIResponse[json.RawMessage] {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAdminRoutes(r.Group("/api/v1/admin"), svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/list_notification_logs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp response.APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestApiListNotificationLogs(t *testing.T) {
	svc := &fakeScanner{}
	resp := postAdmin(t, svc, `{"filters":[{"field":"decrypt_mode","operator":"not_eq","values":["strict"]}],"size":10}`)
	require.Equal(t, response.APIResponseCodeOK, resp.Code)
	require.Equal(t, 10, svc.got.Size)
	require.Equal(t, "decrypt_mode", svc.got.Filters[0].Field)

	var data struct {
		Items []models.PaymentNotificationLog `json:"items"`
		Total int64                           `json:"total"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.Equal(t, int64(1), data.Total)
	require.Equal(t, "ORDER123", data.Items[0].MerchantOrderNo)
}

func TestApiListNotificationLogs_Errors(t *testing.T) {
	resp := postAdmin(t, &fakeScanner{}, `{not json`)
	require.Equal(t, response.APIResponseCodeBadRequest, resp.Code)

	resp = postAdmin(t, &fakeScanner{}, `{"sort_by":"password"}`)
	require.Equal(t, response.APIResponseCodeBadRequest, resp.Code)

	resp = postAdmin(t, scannerFunc(func() error { return fmt.Errorf("db down") }), `{}`)
	require.Equal(t, response.APIResponseCodeError, resp.Code)
}

type scannerFunc func() error

func (f scannerFunc) Scan(context.Context, *notificationlog.ScanRequest) (*notificationlog.ScanResponse, error) {
	return nil, f()
}

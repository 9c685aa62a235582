package woocommerce

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := &config.Config{WooCommerce: config.WooCommerceConfig{
		BaseURL:        srv.URL + "/",
		ConsumerKey:    "ck_test",
		ConsumerSecret: "cs_test",
		Timeout:        5 * time.Second,
	}}
	c, err := NewClient(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	return c
}

func TestClient_ListOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wp-json/wc/v3/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "desc", r.URL.Query().Get("order"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":7,"status":"pending","total":"540.00","meta_data":[{"id":1,"key":"_newebpay_merchant_order_no","value":"ORDER123"}]}]`)
	})

	orders, err := c.ListOrders(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, int64(7), orders[0].ID)
	require.Equal(t, OrderStatusPending, orders[0].Status)
	v, ok := orders[0].MetaData.Get("_newebpay_merchant_order_no")
	require.True(t, ok)
	require.Equal(t, "ORDER123", v)
}

func TestClient_UpdateOrderSendsStatusAndMeta(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/wp-json/wc/v3/orders/7", r.URL.Path)
		var body OrderUpdate
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, OrderStatusOnHold, body.Status)
		assert.Equal(t, "_newebpay_bank_code", body.MetaData[0].Key)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":7,"status":"on-hold"}`)
	})

	o, err := c.UpdateOrder(context.Background(), 7, &OrderUpdate{
		Status:   OrderStatusOnHold,
		MetaData: []MetaData{Meta("_newebpay_bank_code", "822")},
	})
	require.NoError(t, err)
	require.Equal(t, OrderStatusOnHold, o.Status)
}

func TestClient_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"code":"woocommerce_rest_cannot_view"}`)
	})

	err := c.CreateNote(context.Background(), 7, "hello", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 401")
}

func TestMetaBag(t *testing.T) {
	bag := MetaBag{{Key: "a", Value: "1"}, {Key: "n", Value: json.Number("5")}, {Key: "empty", Value: ""}}
	require.True(t, bag.Has("a"))
	require.False(t, bag.Has("empty"))
	require.False(t, bag.Has("missing"))
	v, _ := bag.Get("n")
	require.Equal(t, "5", v)

	merged := bag.Merge(Meta("a", "2"), Meta("b", "3"))
	require.Len(t, merged, 4)
	v, _ = merged.Get("a")
	require.Equal(t, "2", v)
	v, _ = bag.Get("a")
	require.Equal(t, "1", v, "merge must not mutate the receiver")
}

func TestBillingName(t *testing.T) {
	require.Equal(t, "王小明", Billing{FirstName: "小明", LastName: "王"}.Name())
	require.Equal(t, "Amy", Billing{FirstName: "Amy"}.Name())
	require.Empty(t, Billing{}.Name())
}

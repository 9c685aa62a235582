package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", "")
	t.Setenv("APP_CONFIG_NAME", "does-not-exist")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvDev, c.Env)
	require.Equal(t, 8888, c.Server.Port)
	require.Equal(t, 20*time.Second, c.WooCommerce.Timeout)
	require.Equal(t, "_newebpay_merchant_order_no", c.WooCommerce.JoinMetaKey)
	require.Equal(t, int64(500), c.Invoice.TaxRateBP)
	require.Equal(t, 500*time.Millisecond, c.Database.SlowQuery)
	require.Equal(t, 10, c.Database.MaxOpenConns)
	require.Empty(t, c.Redis.Addr)
}

func TestNew_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prod.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
env: prod
newebpay:
  merchant_id: MS123
  hash_key: "12345678901234567890123456789012"
  hash_iv: "1234567890123456"
woocommerce:
  timeout: 5s
  scan_pages: 2
`), 0o600))

	t.Setenv("APP_CONFIG_FILE", file)
	t.Setenv("APP_NEWEBPAY_MERCHANT_ID", "MS999")

	c, err := New()
	require.NoError(t, err)
	require.Equal(t, EnvProd, c.Env)
	require.Equal(t, "MS999", c.NewebPay.MerchantID)
	require.Equal(t, "1234567890123456", c.NewebPay.HashIV)
	require.Equal(t, 5*time.Second, c.WooCommerce.Timeout)
	require.Equal(t, 2, c.WooCommerce.ScanPages)
	require.Equal(t, 50, c.WooCommerce.PerPage)
}

func TestNew_MalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(file, []byte("newebpay: [unterminated\n  merchant_id: x\n"), 0o600))

	t.Setenv("APP_CONFIG_FILE", file)

	_, err := New()
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")
}

func TestNew_MissingExplicitFileFails(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := New()
	require.Error(t, err)
}

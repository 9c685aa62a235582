package handlers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	nh "github.com/esimtrip/cashier/internal/app/service/notification_handler"
	"github.com/esimtrip/cashier/internal/platform/newebpay"
)

func TestDisplayStatus(t *testing.T) {
	res := &newebpay.TransactionResult{MerchantOrderNo: "ORDER123"}
	require.Equal(t, DisplayError, displayStatus(nil))
	require.Equal(t, DisplayError, displayStatus(&nh.Decision{Outcome: newebpay.OutcomePaid}))
	require.Equal(t, DisplaySuccess, displayStatus(&nh.Decision{Result: res, Outcome: newebpay.OutcomePaid}))
	require.Equal(t, DisplayPending, displayStatus(&nh.Decision{Result: res, Outcome: newebpay.OutcomeOffsitePending}))
	require.Equal(t, DisplayFail, displayStatus(&nh.Decision{Result: res, Outcome: newebpay.OutcomeNone}))
}

func TestAppendURLQuery(t *testing.T) {
	q := url.Values{"status": {"success"}}
	require.Equal(t, "/thank-you?status=success", appendURLQuery("/thank-you", q))
	require.Equal(t, "https://shop.example.com/done?lang=zh&status=success", appendURLQuery("https://shop.example.com/done?lang=zh", q))
	require.Equal(t, "https://shop.example.com/done?status=success", appendURLQuery("https://shop.example.com/done?status=old", q))
}

func TestRedirectQuery_OmitsEmptyFacts(t *testing.T) {
	d := &nh.Decision{Result: &newebpay.TransactionResult{
		MerchantOrderNo: "ORDER123",
		PaymentType:     newebpay.PaymentTypeConvenienceStore,
		Offsite:         &newebpay.OffsiteDetail{CodeNo: "LLL123", StoreType: "1", ExpireDate: "2026-10-22", ExpireTime: "23:59:59"},
	}}
	q := redirectQuery(DisplayPending, d)
	require.Equal(t, url.Values{
		"status":       {"pending"},
		"order_no":     {"ORDER123"},
		"payment_type": {"CONVENIENCE_STORE"},
		"code_no":      {"LLL123"},
		"store_type":   {"1"},
		"expire_date":  {"2026-10-22 23:59:59"},
	}, q)
}

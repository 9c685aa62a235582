package notification_handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/pkg/types"
)

func TestNewebPayNotificationParser(t *testing.T) {
	codec, err := newebpay.NewCodec(testHashKey, testHashIV)
	require.NoError(t, err)
	ctx := context.Background()
	at := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	var parser NotificationParser = GetNewebPayNotificationParser(codec, "application/x-www-form-urlencoded", seal(t, "SUCCESS", vaccPayload()), at)
	require.Equal(t, types.PaymentProviderNewebPay, parser.GetProvider(ctx))
	require.Equal(t, at, parser.GetNotificationTime(ctx))
	require.Equal(t, "ORDER123", parser.GetMerchantOrderNo(ctx))
	require.Equal(t, "T1", parser.GetTradeNo(ctx))
	require.Equal(t, "SUCCESS", parser.GetGatewayStatus(ctx))
	require.Equal(t, newebpay.ModeStrict, parser.GetDecryptMode(ctx))
	res, err := parser.GetTransactionResult(ctx)
	require.NoError(t, err)
	require.Equal(t, newebpay.PaymentTypeVirtualAccount, res.PaymentType)

	data, ok := parser.GetData(ctx).(map[string]any)
	require.True(t, ok)
	require.NotContains(t, data, "TradeInfo")
	require.NotContains(t, data, "DecodeError")

	parser = GetNewebPayNotificationParser(codec, "application/x-www-form-urlencoded", []byte("TradeSha=x"), at)
	_, err = parser.GetTransactionResult(ctx)
	require.Error(t, err)
	require.Empty(t, parser.GetDecryptMode(ctx))
	require.Contains(t, parser.GetData(ctx), "DecodeError")
}

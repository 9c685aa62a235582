package notification_handler

import (
	"context"
	"time"

	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/pkg/types"
)

type NotificationParser interface {
	GetProvider(ctx context.Context) types.PaymentProvider
	GetNotificationTime(ctx context.Context) time.Time
	GetMerchantOrderNo(ctx context.Context) string
	GetTradeNo(ctx context.Context) string
	GetPaymentType(ctx context.Context) string
	// GetGatewayStatus returns the out-of-band status that accompanies the payload.
	GetGatewayStatus(ctx context.Context) string
	// GetDecryptMode returns the decrypt strategy that recovered the payload, or
	// "" when decryption never succeeded.
	GetDecryptMode(ctx context.Context) string
	GetTransactionResult(ctx context.Context) (*newebpay.TransactionResult, error)
	GetData(ctx context.Context) any
}

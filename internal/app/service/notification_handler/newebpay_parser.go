package notification_handler

import (
	"context"
	"time"

	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/pkg/types"
)

// NewebPayNotificationParser decodes one gateway delivery. Decoding happens
// once, up front; a failure is kept and returned by GetTransactionResult so
// the partially decoded parts can still be logged.
type NewebPayNotificationParser struct {
	NotificationTime time.Time
	Envelope         *newebpay.Envelope
	Decrypted        *newebpay.Decrypted
	Payload          *newebpay.Payload
	Result           *newebpay.TransactionResult

	err error
}

var _ NotificationParser = (*NewebPayNotificationParser)(nil)

func GetNewebPayNotificationParser(codec *newebpay.Codec, contentType string, body []byte, notificationTime time.Time) *NewebPayNotificationParser {
	if notificationTime.IsZero() {
		notificationTime = time.Now()
	}
	p := &NewebPayNotificationParser{NotificationTime: notificationTime}
	p.err = p.decode(codec, contentType, body)
	return p
}

func (p *NewebPayNotificationParser) decode(codec *newebpay.Codec, contentType string, body []byte) error {
	env, err := newebpay.ParseEnvelope(contentType, body)
	if err != nil {
		return err
	}
	p.Envelope = env

	dec, err := codec.Open(env)
	if err != nil {
		return err
	}
	p.Decrypted = dec
	p.Payload = newebpay.Normalize(dec.Plaintext)

	res, err := newebpay.ParseTransactionResult(p.Payload)
	if err != nil {
		return err
	}
	p.Result = res
	return nil
}

func (p *NewebPayNotificationParser) GetProvider(ctx context.Context) types.PaymentProvider {
	return types.PaymentProviderNewebPay
}

func (p *NewebPayNotificationParser) GetNotificationTime(ctx context.Context) time.Time {
	return p.NotificationTime
}

func (p *NewebPayNotificationParser) GetMerchantOrderNo(ctx context.Context) string {
	if p.Result == nil {
		return ""
	}
	return p.Result.MerchantOrderNo
}

func (p *NewebPayNotificationParser) GetTradeNo(ctx context.Context) string {
	if p.Result == nil {
		return ""
	}
	return p.Result.TradeNo
}

func (p *NewebPayNotificationParser) GetPaymentType(ctx context.Context) string {
	if p.Result == nil {
		return ""
	}
	return string(p.Result.PaymentType)
}

func (p *NewebPayNotificationParser) GetGatewayStatus(ctx context.Context) string {
	return newebpay.ResolveStatus(p.Envelope, p.Payload)
}

func (p *NewebPayNotificationParser) GetDecryptMode(ctx context.Context) string {
	if p.Decrypted == nil {
		return ""
	}
	return p.Decrypted.Mode
}

func (p *NewebPayNotificationParser) GetTransactionResult(ctx context.Context) (*newebpay.TransactionResult, error) {
	return p.Result, p.err
}

// GetData returns what is safe to persist: the envelope's clear fields and the
// decoded payload, never the raw cipher text.
func (p *NewebPayNotificationParser) GetData(ctx context.Context) any {
	data := map[string]any{}
	if p.Envelope != nil {
		data["Status"] = p.Envelope.Status
		data["MerchantID"] = p.Envelope.MerchantID
		data["Version"] = p.Envelope.Version
		data["TradeSha"] = p.Envelope.TradeSha
		data["TradeInfoLength"] = len(p.Envelope.TradeInfo)
	}
	if p.Payload != nil {
		data["Payload"] = map[string]any{
			"Status":  p.Payload.Status,
			"Message": p.Payload.Message,
			"Result":  p.Payload.Result,
		}
	}
	if p.err != nil {
		data["DecodeError"] = p.err.Error()
	}
	return data
}

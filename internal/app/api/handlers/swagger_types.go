package handlers

import (
	"time"

	"github.com/esimtrip/cashier/pkg/response"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespListNotificationLogs wraps the notification log listing in the standard envelope.
type RespListNotificationLogs struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    SwaggerNotificationLogs  `json:"data"`
}

type SwaggerNotificationLogs struct {
	Items []SwaggerNotificationLog `json:"items"`
	Total int64                    `json:"total"`
}

// SwaggerNotificationLog is a simplified view of models.PaymentNotificationLog for documentation purposes.
type SwaggerNotificationLog struct {
	ID               string    `json:"id"`
	ProviderID       string    `json:"provider_id"`
	Endpoint         string    `json:"endpoint"`
	TraceID          string    `json:"trace_id"`
	MerchantOrderNo  string    `json:"merchant_order_no"`
	TradeNo          string    `json:"trade_no"`
	PaymentType      string    `json:"payment_type"`
	GatewayStatus    string    `json:"gateway_status"`
	DecryptMode      string    `json:"decrypt_mode"`
	Outcome          string    `json:"outcome"`
	NotificationTime time.Time `json:"notification_time"`
	Data             any       `json:"data"`
	Result           any       `json:"result"`
	Error            string    `json:"error"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

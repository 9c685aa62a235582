package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationLog records one gateway delivery. Each request produces a
// received row and a handled or handle_failed row sharing the trace id.
type PaymentNotificationLog struct {
	ID               string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	ProviderID       string                       `gorm:"column:provider_id;type:varchar(64);not null" json:"provider_id"`
	Endpoint         string                       `gorm:"column:endpoint;type:varchar(32);not null;index" json:"endpoint"`
	TraceID          string                       `gorm:"column:trace_id;type:varchar(128);index" json:"trace_id"`
	MerchantOrderNo  string                       `gorm:"column:merchant_order_no;type:varchar(64);index" json:"merchant_order_no"`
	TradeNo          string                       `gorm:"column:trade_no;type:varchar(64)" json:"trade_no"`
	PaymentType      string                       `gorm:"column:payment_type;type:varchar(32)" json:"payment_type"`
	GatewayStatus    string                       `gorm:"column:gateway_status;type:varchar(64)" json:"gateway_status"`
	DecryptMode      string                       `gorm:"column:decrypt_mode;type:varchar(32)" json:"decrypt_mode"`
	Outcome          string                       `gorm:"column:outcome;type:varchar(32)" json:"outcome"`
	NotificationTime time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data             datatypes.JSON               `gorm:"column:data;type:jsonb" json:"data"`
	Result           *datatypes.JSON              `gorm:"column:result;type:jsonb" json:"result"`
	Error            string                       `gorm:"column:error;type:text" json:"error"`
	Status           PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }

// PaymentNotificationLogScanColumns lists the columns admin filters and sorting may reference.
var PaymentNotificationLogScanColumns = []string{
	"id", "provider_id", "endpoint", "trace_id", "merchant_order_no", "trade_no", "payment_type",
	"gateway_status", "decrypt_mode", "outcome", "status", "notification_time", "created_at",
}

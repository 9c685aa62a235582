package notification_handler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	notificationlog "github.com/esimtrip/cashier/internal/app/service/notification_log"
	"github.com/esimtrip/cashier/internal/app/service/order"
	"github.com/esimtrip/cashier/internal/models"
	"github.com/esimtrip/cashier/internal/platform/newebpay"
	"github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/logctx"
	"github.com/esimtrip/cashier/pkg/metrics"
	"github.com/esimtrip/cashier/pkg/types"
)

type Reconciler interface {
	Reconcile(ctx context.Context, res *newebpay.TransactionResult, outcome newebpay.Outcome) (*order.Report, error)
}

type NotificationLogger interface {
	Save(ctx context.Context, entry *models.PaymentNotificationLog)
}

// Decision is what the pipeline concluded about one delivery. It is returned
// even when handling fails, carrying whatever was decoded before the failure.
type Decision struct {
	Endpoint    types.NotificationEndpoint
	Result      *newebpay.TransactionResult
	Outcome     newebpay.Outcome
	Status      string
	DecryptMode string
	// Report is nil when the endpoint was not allowed to reconcile.
	Report *order.Report
}

type NotificationHandler struct {
	codec      *newebpay.Codec
	reconciler Reconciler
	notifSvc   NotificationLogger
	Logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewNotificationHandler(cfg *config.Config, notif NotificationLogger, reconciler Reconciler, log *zap.SugaredLogger) (*NotificationHandler, error) {
	codec, err := newebpay.NewCodec(cfg.NewebPay.HashKey, cfg.NewebPay.HashIV)
	if err != nil {
		return nil, fmt.Errorf("newebpay codec: %w", err)
	}
	return &NotificationHandler{codec: codec, reconciler: reconciler, notifSvc: notif, Logger: log, now: time.Now}, nil
}

// MayReconcile reports whether a delivery on endpoint is allowed to mutate
// order state for outcome. The browser return never mutates so it cannot race
// the server notification; the offsite return only records payment codes.
func MayReconcile(endpoint types.NotificationEndpoint, outcome newebpay.Outcome) bool {
	switch endpoint {
	case types.NotificationEndpointNotify:
		return outcome != newebpay.OutcomeNone
	case types.NotificationEndpointCustomer:
		return outcome == newebpay.OutcomeOffsitePending
	}
	return false
}

// HandleNotification runs one raw delivery through decode, classification and,
// when the endpoint policy allows, reconciliation. A received row is logged
// before any work and a handled or handle_failed row after it.
func (h *NotificationHandler) HandleNotification(ctx context.Context, endpoint types.NotificationEndpoint, contentType string, body []byte) (decision *Decision, resErr error) {
	var parser NotificationParser = GetNewebPayNotificationParser(h.codec, contentType, body, h.now())
	log := logctx.FromCtx(ctx, h.Logger).With("endpoint", endpoint)

	decision = &Decision{
		Endpoint:    endpoint,
		Outcome:     newebpay.OutcomeNone,
		Status:      parser.GetGatewayStatus(ctx),
		DecryptMode: parser.GetDecryptMode(ctx),
	}
	dataBytes, _ := json.Marshal(parser.GetData(ctx))
	traceID := logctx.TraceID(ctx)

	newEntry := func(status models.PaymentNotificationLogStatus, at time.Time) *models.PaymentNotificationLog {
		return &models.PaymentNotificationLog{
			ProviderID:       string(parser.GetProvider(ctx)),
			Endpoint:         string(endpoint),
			TraceID:          traceID,
			MerchantOrderNo:  parser.GetMerchantOrderNo(ctx),
			TradeNo:          parser.GetTradeNo(ctx),
			PaymentType:      parser.GetPaymentType(ctx),
			GatewayStatus:    decision.Status,
			DecryptMode:      decision.DecryptMode,
			Outcome:          string(decision.Outcome),
			NotificationTime: at,
			Data:             datatypes.JSON(dataBytes),
			Status:           status,
		}
	}

	h.notifSvc.Save(ctx, newEntry(models.PaymentNotificationLogStatusReceived, parser.GetNotificationTime(ctx)))

	defer func() {
		resMap := map[string]any{"outcome": decision.Outcome}
		if decision.Report != nil {
			resMap["order_id"] = decision.Report.OrderID
			resMap["action"] = decision.Report.Action
			resMap["locked"] = decision.Report.Locked
		}
		status := models.PaymentNotificationLogStatusHandled
		if resErr != nil {
			status = models.PaymentNotificationLogStatusHandleFailed
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)

		entry := newEntry(status, h.now())
		result := datatypes.JSON(resBytes)
		entry.Result = &result
		if resErr != nil {
			entry.Error = resErr.Error()
		}
		h.notifSvc.Save(ctx, entry)
		metrics.IncNotification(string(endpoint), string(decision.Outcome), string(status))
	}()

	if mode := decision.DecryptMode; mode != "" && mode != newebpay.ModeStrict {
		log.Warnw("newebpay_lenient_decrypt", "mode", mode, "merchant_order_no", parser.GetMerchantOrderNo(ctx))
		metrics.IncLenientDecrypt(mode)
	}

	res, err := parser.GetTransactionResult(ctx)
	if err != nil {
		log.Warnw("newebpay_decode_failed", "err", err)
		resErr = fmt.Errorf("decode notification: %w", err)
		return decision, resErr
	}
	decision.Result = res
	decision.Outcome = newebpay.Classify(res, decision.Status)
	log = log.With("merchant_order_no", res.MerchantOrderNo, "outcome", decision.Outcome)

	if !MayReconcile(endpoint, decision.Outcome) {
		log.Infow("newebpay_notification_not_reconciled", "payment_type", res.PaymentType, "status", decision.Status)
		return decision, nil
	}

	report, err := h.reconciler.Reconcile(ctx, res, decision.Outcome)
	decision.Report = report
	if err != nil {
		log.Errorw("newebpay_reconcile_failed", "err", err)
		resErr = fmt.Errorf("reconcile %s: %w", res.MerchantOrderNo, err)
		return decision, resErr
	}
	log.Infow("newebpay_notification_handled", "action", report.Action, "order_id", report.OrderID)
	return decision, nil
}

var Module = fx.Options(
	fx.Provide(
		NewNotificationHandler,
		func(s *notificationlog.Service) NotificationLogger { return s },
		func(r *order.Reconciler) Reconciler { return r },
	),
)

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mw "github.com/esimtrip/cashier/internal/app/api/middleware"
	nh "github.com/esimtrip/cashier/internal/app/service/notification_handler"
	"github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/logctx"
	"github.com/esimtrip/cashier/pkg/response"
	"github.com/esimtrip/cashier/pkg/types"
)

// @Summary      NewebPay Notify
// @Description  Server-to-server payment notification. Always answers 200 so the gateway stops redelivering; failures are logged only.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        TradeInfo formData string true "Encrypted trade info"
// @Param        TradeSha  formData string true "Trade info signature"
// @Param        Status    formData string false "Gateway status"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/newebpay/notify [post]
func ApiNewebPayNotify(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, h.Logger)
		log.Infow("newebpay_notify_received")

		d, err := h.HandleNotification(detached(c), types.NotificationEndpointNotify, c.ContentType(), mw.RawBody(c))
		if err != nil {
			log.Errorw("newebpay_notify_handle_error", "error", err.Error())
		} else {
			log.Infow("newebpay_notify_handled", "outcome", d.Outcome)
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      NewebPay Return
// @Description  Browser return after checkout. Decodes the result without touching the order and redirects to the thank-you page with a display status.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded
// @Param        TradeInfo formData string true "Encrypted trade info"
// @Param        TradeSha  formData string true "Trade info signature"
// @Success      303
// @Router       /api/newebpay/callback [post]
func ApiNewebPayCallback(h *nh.NotificationHandler, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, h.Logger)
		d, err := h.HandleNotification(c.Request.Context(), types.NotificationEndpointCallback, c.ContentType(), mw.RawBody(c))
		if err != nil {
			log.Warnw("newebpay_callback_handle_error", "error", err.Error())
		}
		redirect(c, log, cfg.Storefront, cfg.Storefront.ThankYouURL, d)
	}
}

// @Summary      NewebPay Customer Return
// @Description  Browser return after an offsite payment code was issued. Records the code on the order if not yet recorded and redirects to the pending page.
// @Tags         Webhook
// @Accept       x-www-form-urlencoded
// @Param        TradeInfo formData string true "Encrypted trade info"
// @Param        TradeSha  formData string true "Trade info signature"
// @Success      303
// @Router       /api/newebpay/customer [post]
func ApiNewebPayCustomer(h *nh.NotificationHandler, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, h.Logger)
		d, err := h.HandleNotification(detached(c), types.NotificationEndpointCustomer, c.ContentType(), mw.RawBody(c))
		if err != nil {
			log.Warnw("newebpay_customer_handle_error", "error", err.Error())
		}
		// a failed reconcile still shows the decoded code; the notify retry records it
		redirect(c, log, cfg.Storefront, cfg.Storefront.PendingURL, d)
	}
}

// detached keeps the request's trace and logger but not its cancellation: a
// gateway that hangs up mid-delivery must not abort provisioning after the
// provider has already issued codes. Outbound clients carry their own timeouts.
func detached(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

func redirect(c *gin.Context, log *zap.SugaredLogger, cfg config.StorefrontConfig, target string, d *nh.Decision) {
	q := redirectQuery(displayStatus(d), d)
	if cfg.ReceiptSecret != "" {
		token, err := signReceipt(cfg, q, time.Now())
		if err != nil {
			log.Errorw("receipt_sign_failed", "error", err.Error())
		} else {
			q.Set("receipt", token)
		}
	}
	c.Redirect(http.StatusSeeOther, appendURLQuery(target, q))
}

func RegisterNewebPayRoutes(r gin.IRouter, h *nh.NotificationHandler, cfg *config.Config) {
	r.POST("/notify", ApiNewebPayNotify(h))
	r.POST("/callback", ApiNewebPayCallback(h, cfg))
	r.POST("/customer", ApiNewebPayCustomer(h, cfg))
}

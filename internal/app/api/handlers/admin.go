package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	notificationlog "github.com/esimtrip/cashier/internal/app/service/notification_log"
	"github.com/esimtrip/cashier/pkg/logctx"
	"github.com/esimtrip/cashier/pkg/response"
	"github.com/esimtrip/cashier/pkg/types"
)

type NotificationLogScanner interface {
	Scan(ctx context.Context, req *notificationlog.ScanRequest) (*notificationlog.ScanResponse, error)
}

type ListNotificationLogsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      List Payment Notification Logs (Admin)
// @Description  Retrieves a paginated and filterable list of gateway deliveries. Filter on decrypt_mode to find payloads that needed the lenient decrypt path.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListNotificationLogsRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListNotificationLogs
// @Router       /api/v1/admin/list_notification_logs [post]
func ApiListNotificationLogs(svc NotificationLogScanner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListNotificationLogsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		scanReq := &notificationlog.ScanRequest{Filters: req.Filters, From: req.From, Size: req.Size, SortBy: req.SortBy, SortOrder: req.SortOrder}
		res, err := svc.Scan(c.Request.Context(), scanReq)
		if err != nil {
			logctx.FromGin(c, zap.S()).Errorw("list_notification_logs_failed", "error", err.Error())
			c.JSON(http.StatusOK, response.FromError(err, notificationlog.ErrInvalidScanRequest))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, svc NotificationLogScanner) {
	r.POST("/list_notification_logs", ApiListNotificationLogs(svc))
}

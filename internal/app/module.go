package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/esimtrip/cashier/internal/app/api/server"
	"github.com/esimtrip/cashier/internal/app/service/fulfillment"
	notificationhandler "github.com/esimtrip/cashier/internal/app/service/notification_handler"
	notificationlog "github.com/esimtrip/cashier/internal/app/service/notification_log"
	"github.com/esimtrip/cashier/internal/app/service/order"
	"github.com/esimtrip/cashier/internal/platform/db"
	"github.com/esimtrip/cashier/internal/platform/esim"
	"github.com/esimtrip/cashier/internal/platform/invoice"
	"github.com/esimtrip/cashier/internal/platform/lock"
	"github.com/esimtrip/cashier/internal/platform/mailer"
	"github.com/esimtrip/cashier/internal/platform/woocommerce"
	"github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	woocommerce.Module,
	esim.Module,
	invoice.Module,
	mailer.Module,
	lock.Module,
	order.Module,
	fulfillment.Module,
	notificationlog.Module,
	notificationhandler.Module,
	server.Module,
)

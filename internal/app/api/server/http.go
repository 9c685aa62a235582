package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esimtrip/cashier/docs"
	"github.com/esimtrip/cashier/internal/app/api/handlers"
	mw "github.com/esimtrip/cashier/internal/app/api/middleware"
	nh "github.com/esimtrip/cashier/internal/app/service/notification_handler"
	notificationlog "github.com/esimtrip/cashier/internal/app/service/notification_log"
	cfgpkg "github.com/esimtrip/cashier/pkg/config"
	"github.com/esimtrip/cashier/pkg/metrics"
)

// gateway bodies are a few KB; anything near this is not a NewebPay delivery
const maxNotificationBody = 1 << 20

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	// request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeParams struct {
	fx.In

	Lifecycle    fx.Lifecycle
	Engine       *gin.Engine
	Log          *zap.SugaredLogger
	Config       *cfgpkg.Config
	Notification *nh.NotificationHandler
	Logs         handlers.NotificationLogScanner
	Ready        handlers.ReadinessCheck `optional:"true"`
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Config

	prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{Logger: log})
	prom.Use(r, cfg.MetricsAddr)
	p.Lifecycle.Append(fx.Hook{OnStop: prom.Shutdown})
	log.Infow("metrics started", "addr", cfg.MetricsAddr, "path", prom.MetricsPath)

	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub, p.Ready)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), p.Logs)

	// raw body capture must run before anything touches the form
	gateway := r.Group("/api/newebpay")
	gateway.Use(mw.RawBodyMiddleware(maxNotificationBody), mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterNewebPayRoutes(gateway, p.Notification, cfg)
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting HTTP server", "addr", addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("server error: %v", err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping HTTP server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func dbCheck(gdb *gorm.DB) handlers.ReadinessCheck {
	return func(ctx context.Context) error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

var Module = fx.Options(
	fx.Provide(
		newEngine,
		dbCheck,
		func(s *notificationlog.Service) handlers.NotificationLogScanner { return s },
	),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)

package main

// @title           eSIM Cashier Backend API
// @version         1.0
// @description     NewebPay payment reconciliation and eSIM fulfillment backend.

// @contact.name   Storefront Ops
// @contact.email  ops@esimtrip.example

// @host      localhost:8888
// @BasePath  /

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/esimtrip/cashier/internal/app"
)

func main() {
	// fx handles SIGINT/SIGTERM through Done
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	a := fx.New(
		app.Module,
		fx.WithLogger(func(l *zap.SugaredLogger) fxevent.Logger {
			zl := &fxevent.ZapLogger{Logger: l.Desugar().Named("fx")}
			zl.UseLogLevel(zap.DebugLevel)
			return zl
		}),
	)
	startCtx, cancel := context.WithTimeout(context.Background(), app.DefaultStartTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		// the app logger may not exist if construction failed
		zap.NewExample().Sugar().Errorf("failed to start app: %v", err)
		exitCode = 1
		return
	}

	sig := <-a.Done()

	stopCtx, cancel2 := context.WithTimeout(context.Background(), app.DefaultStopTimeout)
	defer cancel2()
	if err := a.Stop(stopCtx); err != nil {
		zap.NewExample().Sugar().Errorw("failed to stop app", "signal", sig.String(), "err", err)
		exitCode = 1
		return
	}
}

package main

import (
	"errors"

	"github.com/koungkub/fw-notification-relay/internal/client"
	"github.com/koungkub/fw-notification-relay/internal/credential"
	"github.com/koungkub/fw-notification-relay/internal/handler"
	"github.com/koungkub/fw-notification-relay/internal/mailer"
	"github.com/koungkub/fw-notification-relay/internal/metrics"
	"github.com/koungkub/fw-notification-relay/internal/server"
	"github.com/koungkub/fw-notification-relay/internal/service"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	app := fx.New(
		fx.Provide(func() *zap.Logger { return logger }),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		// envconfig.MustProcess panics on missing required variables
		fx.RecoverFromPanics(),
		metrics.Module,
		server.Module,
		handler.Module,
		service.Module,
		credential.Module,
		mailer.Module,
		client.Module,
		fx.Invoke(func(*server.HTTPServer) {}),
	)

	// a bad credential or missing MAIL_USER ends up here, before any listener opens
	if err := app.Err(); err != nil {
		var cfgErr *credential.ConfigurationError
		if errors.As(err, &cfgErr) {
			logger.Fatal("invalid service account", zap.Error(cfgErr))
		}
		logger.Fatal("failed to build application", zap.Error(err))
	}

	app.Run()
}

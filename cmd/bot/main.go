package main

import (
	"context"
	"time"

	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/config"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/domain"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/handlers"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/internal/services"
	"github.com/Kelompok-1-ODP-IT-343/Bot-LINE-Assistant/pkg/httpclient"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const (
	orderAPITimeout = 30 * time.Second
	cleanupInterval = time.Minute
	connectTimeout  = 15 * time.Second
)

func main() {
	fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			config.Load,
			func(cfg *config.Config) domain.ConfigService { return cfg },
			newLogger,
			newRegistry,
			func(reg *prometheus.Registry) *services.Metrics { return services.NewMetrics(reg) },
			fx.Annotate(services.NewLINEService, fx.As(new(domain.Messenger))),
			func() httpclient.HTTPClient { return httpclient.NewHTTPClient(orderAPITimeout) },
			fx.Annotate(services.NewOrderAPIService, fx.As(new(domain.OrderAPI))),
			openStores,
			func(s *services.Stores) domain.OTPStore { return s.OTP },
			func(s *services.Stores) domain.SessionStore { return s.Sessions },
			fx.Annotate(services.NewAuthService, fx.As(new(domain.AuthGate))),
			fx.Annotate(services.NewTOTPPassGenerator, fx.As(new(domain.PassGenerator))),
			handlers.NewBotHandler,
			func(b *handlers.BotHandler) handlers.EventHandler { return b },
			handlers.NewWebhookHandler,
			handlers.NewMessageHandler,
			handlers.NewOTPHandler,
			handlers.NewSessionHandler,
			newFiberApp,
		),
		fx.Invoke(startServer),
	).Run()
}

func newLogger(cfg *config.Config, lc fx.Lifecycle) (*zap.Logger, error) {
	logger, err := services.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = logger.Sync()
			return nil
		},
	})
	return logger, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// openStores connects the configured backend and runs pass cleanup for the
// lifetime of the app.
func openStores(cfg *config.Config, logger *zap.Logger, lc fx.Lifecycle) (*services.Stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	stores, err := services.OpenStores(ctx, services.StoreOptions{
		Driver:        cfg.StoreDriver,
		DatabaseURL:   cfg.DatabaseURL,
		MongoURI:      cfg.MongoURI,
		MongoDatabase: cfg.MongoDatabase,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Store ready", zap.String("driver", cfg.StoreDriver))

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go stores.RunCleanup(cleanupCtx, cleanupInterval, logger)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCleanup()
			return stores.Close(ctx)
		},
	})
	return stores, nil
}

func newFiberApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               "line-assistant",
		DisableStartupMessage: true,
	})
}

func startServer(
	app *fiber.App,
	cfg domain.ConfigService,
	logger *zap.Logger,
	webhook *handlers.WebhookHandler,
	message *handlers.MessageHandler,
	otp *handlers.OTPHandler,
	session *handlers.SessionHandler,
	reg *prometheus.Registry,
	lc fx.Lifecycle,
) {
	handlers.SetupRoutes(app, webhook, message, otp, session, reg)

	if cfg.GetAPIKey() == "" {
		logger.Warn("API_KEY is empty, operator endpoints will reject requests")
	}
	if cfg.GetChannelSecret() == "" {
		logger.Warn("LINE_BOT_CHANNEL_SECRET is empty, webhook signatures are not verified")
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("HTTP server listening", zap.String("addr", cfg.GetHTTPAddr()))
				if err := app.Listen(cfg.GetHTTPAddr()); err != nil {
					logger.Error("HTTP server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			err := app.ShutdownWithContext(ctx)
			// batches already acknowledged still get their replies
			webhook.Wait()
			logger.Info("Shutdown")
			return err
		},
	})
}

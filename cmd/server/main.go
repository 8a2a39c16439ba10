package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"kiosk/internal/admin"
	adminservice "kiosk/internal/admin/service"
	"kiosk/internal/authcode/generator"
	authmetrics "kiosk/internal/authcode/metrics"
	"kiosk/internal/authcode/registry"
	"kiosk/internal/authcode/service"
	"kiosk/internal/bot"
	"kiosk/internal/directory"
	directoryservice "kiosk/internal/directory/service"
	"kiosk/internal/notify"
	"kiosk/internal/notify/telegram"
	"kiosk/internal/platform/config"
	"kiosk/internal/platform/httpserver"
	"kiosk/internal/platform/logger"
	"kiosk/internal/platform/postgres"
	"kiosk/internal/platform/redis"
	"kiosk/internal/token"
	httptransport "kiosk/internal/transport/http"
)

const sweepInterval = time.Minute

// main wires dependencies and runs the three long-lived loops: the HTTP API,
// the chat poller, and the registry sweeper. Business logic lives in the
// internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage: postgres and redis are optional, falling back to in-memory
	// stores so the kiosk can run standalone.
	var (
		users  directory.Store
		admins admin.Store
	)
	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err.Error())
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		users = directory.NewPostgres(db)
		admins = admin.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		users = directory.NewInMemory()
		admins = admin.NewInMemory()
		log.Info("using in-memory stores")
	}

	gen := generator.New()
	var codes registry.Store
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		codes = registry.NewRedis(redisClient.Client, gen.Code, cfg.CodeTTL)
		log.Info("using redis code registry")
	} else {
		codes = registry.NewInMemory(gen.Code, cfg.CodeTTL)
		log.Info("using in-memory code registry")
	}

	// Notification channel: a real Telegram client when a token is set,
	// otherwise a local sink so issuance still works in development.
	var notifier notify.Notifier
	var tg *telegram.Client
	if cfg.TelegramToken != "" {
		tg = telegram.New(cfg.TelegramToken, cfg.TelegramTimeout)
		notifier = tg
	} else {
		notifier = notify.NewInMemory()
		log.Warn("telegram token not set, code delivery disabled")
	}

	tokens := token.NewService(cfg.JWTSigningKey, "kiosk")
	metrics := authmetrics.New()

	coordinator, err := service.New(codes, users, notifier, tokens,
		service.WithLogger(logger.ForComponent(log, "authcode")),
		service.WithMetrics(metrics),
		service.WithFailureLimit(cfg.VerifyMaxFailures, cfg.VerifyWindow),
		service.WithSessionTTL(cfg.SessionTTL),
	)
	if err != nil {
		log.Error("coordinator init failed", "error", err.Error())
		os.Exit(1)
	}

	registrations := directoryservice.New(users, logger.ForComponent(log, "directory"))
	adminAuth := adminservice.New(admins, tokens, logger.ForComponent(log, "admin"), cfg.AdminSessionTTL)

	handler := httptransport.NewHandler(coordinator, registrations, registrations, adminAuth, tokens,
		logger.ForComponent(log, "http"))
	srv := httpserver.New(cfg.Addr, handler.Routes())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		coordinator.RunSweeper(ctx, sweepInterval)
		return nil
	})

	if tg != nil {
		poller := bot.NewPoller(tg, tg, coordinator, logger.ForComponent(log, "bot"))
		g.Go(func() error {
			return poller.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

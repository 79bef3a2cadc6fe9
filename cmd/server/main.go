package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/khlin/ticket-registration/internal/config"
	"github.com/khlin/ticket-registration/internal/database"
	"github.com/khlin/ticket-registration/internal/handler"
	"github.com/khlin/ticket-registration/internal/logging"
	appmw "github.com/khlin/ticket-registration/internal/middleware"
	"github.com/khlin/ticket-registration/internal/notifier"
	"github.com/khlin/ticket-registration/internal/observability"
	"github.com/khlin/ticket-registration/internal/queue"
	"github.com/khlin/ticket-registration/internal/repository"
	"github.com/khlin/ticket-registration/internal/router"
	"github.com/khlin/ticket-registration/internal/service"
)

const release = "ticket-registration@1.0.0"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
	cfg := config.Load()

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("init logging: %v", err)
	}
	defer lg.Closer()

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		lg.Base.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := database.EnsureSchema(ctx, db); err != nil {
		lg.Base.Fatal("ensure schema", zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		lg.Base.Warn("redis unavailable: single-instance broadcast, no rate limiting")
	}

	notif := notifier.New(rdb, lg.Base)
	go notif.Run(ctx)

	pub := service.NewPublisher(cfg.AMQPURL, lg.Base)
	go queue.StartAuditConsumer(ctx, cfg.AMQPURL, lg.Base)

	repo := repository.NewAttendeeRepo(db)
	mut := &handler.Mutations{Notifier: notif, Publisher: pub}

	h := router.Handlers{
		Auth: handler.NewAuthHandler(cfg),
		Students: &handler.StudentHandler{
			Store: repo, Mut: mut, Log: lg.Base,
			AdminPassword: cfg.AdminPassword, AdminPasswordHash: cfg.AdminPasswordHash,
		},
		Import: &handler.ImportHandler{Store: repo, Mut: mut, Log: lg.Base},
		Verify: &handler.VerifyHandler{Store: repo, Mut: mut, Log: lg.Base},
		Events: &handler.EventsHandler{Notifier: notif},
		Health: &handler.HealthHandler{DB: db},

		PasswordLimit: appmw.PasswordRateLimit(config.LoadRateLimitConfig(), rdb),
	}
	if cfg.RequireAuth {
		h.AuthRequired = appmw.JWTAuth(cfg.JWTSecret)
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h)

	go func() {
		addr := ":" + cfg.Port
		lg.Base.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			lg.Base.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Base.Info("shutting down")
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.Shutdown(shCtx); err != nil {
		lg.Base.Warn("shutdown", zap.Error(err))
	}
}

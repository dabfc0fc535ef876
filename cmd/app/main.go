package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"hand_hockey/internal/bot"
	"hand_hockey/internal/config"
	"hand_hockey/internal/db"
	"hand_hockey/internal/events"
	"hand_hockey/internal/game"
	httpServer "hand_hockey/internal/http"
	"hand_hockey/internal/http/handlers"
	"hand_hockey/internal/logger"
	"hand_hockey/internal/match"
	"hand_hockey/internal/metrics"
	"hand_hockey/internal/ratelimit"
	"hand_hockey/internal/repository"
	"hand_hockey/internal/service"
	"hand_hockey/internal/ws"
)

// Version устанавливается при сборке
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.JSONLogs())
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBPoolMinSize, cfg.DBPoolMaxSize)
	if err != nil {
		logger.Fatal("database unavailable", "error", err)
	}
	defer dbPool.Close()
	store := repository.NewStore(dbPool)

	rec := metrics.New(prometheus.DefaultRegisterer)
	limiter := ratelimit.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CommandRateLimit, time.Minute)

	api, err := bot.NewAPI(cfg.BotToken)
	if err != nil {
		logger.Fatal("telegram auth failed", "error", err)
	}
	prompter := bot.NewPrompter(api, rec)
	engine := game.NewEngine(game.Config{
		FirstDeadline:   cfg.TurnTimeout,
		WarningDeadline: cfg.WarningTimeout,
		OffsideChance:   cfg.OffsideChance,
	}, prompter)

	// уведомления: живые зрители, групповой чат и, если настроен, брокер
	bus := events.NewBus()
	defer bus.Close()
	sinks := events.Fanout{bus, bot.NewChatNotifier(api)}
	if cfg.AMQPURL != "" {
		pub, err := events.DialPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Error("amqp unavailable, events are not exported", "error", err)
		} else {
			defer pub.Close()
			sinks = append(sinks, pub)
		}
	}

	lifecycle := match.New(match.Config{
		MaxPlayers:     cfg.MaxPlayersPerMatch,
		MatchTimeout:   cfg.MatchTimeout,
		RoundsPerMatch: cfg.RoundsPerMatch,
		Admins:         cfg.AdminTelegramIDs,
	}, match.NewRegistry(), engine, store, sinks, match.WithMetrics(rec))
	go lifecycle.RunSweeper(ctx, cfg.SweepInterval)

	tgBot := bot.New(api, lifecycle, prompter, bot.Options{
		Stats:   store.Players,
		History: store.Matches,
		Limiter: limiter,
		Metrics: rec,
		// оба окна ожидания, повтор и запас на отправку
		PlayTimeout: 2*(cfg.TurnTimeout+cfg.WarningTimeout) + 10*time.Second,
	})
	go tgBot.Start()

	var (
		auth   *service.Auth
		wsAuth ws.TokenParser
	)
	if cfg.JWTSecret != "" {
		auth, err = service.NewAuth(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			logger.Fatal("invalid jwt secret", "error", err)
		}
		wsAuth = auth
	} else {
		log.Warn("JWT_SECRET not set: admin api is disabled, live feed is public")
	}

	h := handlers.New(lifecycle, store.Matches, store.Players, auth, cfg.BotToken, cfg.IsAdmin)
	h.Version = Version
	srv := &http.Server{
		Addr: ":" + cfg.AppPort,
		Handler: httpServer.NewRouter(httpServer.Deps{
			Handler:       h,
			WS:            ws.NewHandler(ws.NewHub(bus, lifecycle), wsAuth, cfg.AllowedOrigin),
			Limiter:       limiter,
			AllowedOrigin: cfg.AllowedOrigin,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "port", cfg.AppPort, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")

	tgBot.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited", "live_matches", len(lifecycle.List()))
}

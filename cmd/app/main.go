package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"tutorbot/internal/api"
	"tutorbot/internal/bot"
	"tutorbot/internal/cache"
	"tutorbot/internal/metrics"
	"tutorbot/internal/repository"
	"tutorbot/internal/service"
	"tutorbot/migrations"
	"tutorbot/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	zapLogger := logger.Logger()

	m := metrics.Registry(cfg.MetricsNamespace)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.New(cfg.Database)
	if err != nil {
		zapLogger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.RunMigrations(ctx, migrations.Files); err != nil {
		zapLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// The cache is optional: a dead Redis degrades reads, it never takes the
	// bot down.
	var svcCache service.Cache
	redisCache := cache.New(cfg.Redis)
	if err := redisCache.Ping(ctx); err != nil {
		zapLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
	} else {
		svcCache = redisCache
		defer redisCache.Close()
	}

	tgBot, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram.BotToken,
		tgbotapi.APIEndpoint, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		zapLogger.Fatal("Failed to initialize Telegram bot", zap.Error(err))
	}

	if cfg.Telegram.WebhookURL != "" {
		wh, err := tgbotapi.NewWebhook(cfg.Telegram.WebhookURL)
		if err != nil {
			zapLogger.Fatal("Failed to build webhook config", zap.Error(err))
		}
		if _, err := tgBot.Request(wh); err != nil {
			zapLogger.Fatal("Failed to register webhook", zap.Error(err))
		}
		zapLogger.Info("Webhook registered", zap.String("url", cfg.Telegram.WebhookURL))
	}

	registrationService := service.NewRegistrationService(repo, repo)
	referralService := service.NewReferralService(repo, repo, svcCache, service.ReferralConfig{
		BotUsername:             cfg.Telegram.BotUsername,
		ReferralReward:          cfg.Rewards.ReferralReward,
		MinReferralsForWithdraw: cfg.Rewards.MinReferralsForWithdraw,
		LeaderboardSize:         cfg.Rewards.LeaderboardSize,
	})
	approvalService := service.NewApprovalService(repo, repo)
	statsService := service.NewStatsService(repo, svcCache)

	notifier := bot.NewNotifier(tgBot, m)
	dispatcher := bot.NewRouter(bot.Config{
		AdminIDs:                cfg.Telegram.AdminIDs,
		RegistrationFee:         cfg.Rewards.RegistrationFee,
		ReferralReward:          cfg.Rewards.ReferralReward,
		MinReferralsForWithdraw: cfg.Rewards.MinReferralsForWithdraw,
	}, registrationService, referralService, approvalService, statsService, notifier, m)

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{
		http.MethodHead,
		http.MethodGet,
		http.MethodPost,
	}
	corsConfig.AllowHeaders = []string{"*"}
	corsConfig.MaxAge = 12 * time.Hour

	router.Use(cors.New(corsConfig))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	api.NewWebhookRoutes(router.Group("/"), dispatcher, statsService)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	go func() {
		zapLogger.Info("Starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}

package api

import (
	"net/http"
	"time"

	"tutorbot/internal/bot"
	"tutorbot/internal/service"
	"tutorbot/pkg/logger"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type webhookRoutes struct {
	dispatcher *bot.Router
	stats      *service.StatsService
}

func NewWebhookRoutes(handler *gin.RouterGroup, dispatcher *bot.Router, stats *service.StatsService) {
	r := &webhookRoutes{dispatcher: dispatcher, stats: stats}

	handler.POST("/webhook", r.HandleWebhook)
	handler.GET("/health", r.Health)
}

// HandleWebhook decodes a Telegram update and hands it to the dispatcher.
// The handler always answers 200 for well-formed updates so Telegram does
// not redeliver on downstream failures.
func (r *webhookRoutes) HandleWebhook(c *gin.Context) {
	log := logger.Logger()

	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		log.Error("failed to decode update", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	r.dispatcher.HandleUpdate(c.Request.Context(), update)

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp string      `json:"timestamp"`
	Stats     HealthStats `json:"stats"`
}

type HealthStats struct {
	Users       int `json:"users"`
	Verified    int `json:"verified"`
	Pending     int `json:"pending"`
	Withdrawals int `json:"withdrawals"`
	Referrals   int `json:"referrals"`
}

func (r *webhookRoutes) Health(c *gin.Context) {
	log := logger.Logger()

	stats, err := r.stats.Stats(c.Request.Context())
	if err != nil {
		log.Error("failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "online",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Stats: HealthStats{
			Users:       stats.TotalUsers,
			Verified:    stats.VerifiedUsers,
			Pending:     stats.PendingPayments,
			Withdrawals: stats.PendingWithdrawals,
			Referrals:   stats.TotalReferrals,
		},
	})
}

package bot

import (
	"tutorbot/internal/metrics"
	"tutorbot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the outbound messaging surface the router drives. *Notifier
// implements it over a live Telegram client.
type Sender interface {
	SendText(chatID int64, text string)
	SendTextWithKeyboard(chatID int64, text string, keyboard interface{})
	SendPhoto(chatID int64, fileID, caption string, keyboard *tgbotapi.InlineKeyboardMarkup)
	AnswerCallback(callbackID, text string)
	BroadcastToAdmins(adminIDs []int64, deliver func(adminID int64))
}

// Notifier wraps the Telegram client. Sends are best-effort: a failed
// delivery is logged and counted, never propagated into the state mutation
// that triggered it.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	metrics *metrics.Metrics
}

func NewNotifier(bot *tgbotapi.BotAPI, m *metrics.Metrics) *Notifier {
	return &Notifier{
		bot:     bot,
		metrics: m,
	}
}

func (n *Notifier) SendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	n.send(chatID, "text", msg)
}

func (n *Notifier) SendTextWithKeyboard(chatID int64, text string, keyboard interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = keyboard
	n.send(chatID, "text", msg)
}

func (n *Notifier) SendPhoto(chatID int64, fileID, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	if keyboard != nil {
		photo.ReplyMarkup = keyboard
	}
	n.send(chatID, "photo", photo)
}

func (n *Notifier) AnswerCallback(callbackID, text string) {
	if _, err := n.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		logger.Logger().Warn("failed to answer callback", zap.Error(err))
	}
}

// BroadcastToAdmins delivers per recipient independently: one failed admin
// never blocks the others.
func (n *Notifier) BroadcastToAdmins(adminIDs []int64, deliver func(adminID int64)) {
	for _, adminID := range adminIDs {
		deliver(adminID)
	}
}

func (n *Notifier) send(chatID int64, kind string, c tgbotapi.Chattable) {
	if _, err := n.bot.Send(c); err != nil {
		logger.Logger().Warn("failed to send message",
			zap.Int64("chat_id", chatID),
			zap.String("type", kind),
			zap.Error(err))
		n.metrics.MessagesSent.WithLabelValues(kind, "error").Inc()
		return
	}
	n.metrics.MessagesSent.WithLabelValues(kind, "ok").Inc()
}

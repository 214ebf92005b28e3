package bot

import (
	"context"
	"testing"

	"tutorbot/internal/metrics"
	"tutorbot/internal/model"
	"tutorbot/internal/service"
	"tutorbot/internal/service/mocks"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendText(chatID int64, text string) {
	m.Called(chatID, text)
}

func (m *mockSender) SendTextWithKeyboard(chatID int64, text string, keyboard interface{}) {
	m.Called(chatID, text, keyboard)
}

func (m *mockSender) SendPhoto(chatID int64, fileID, caption string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	m.Called(chatID, fileID, caption, keyboard)
}

func (m *mockSender) AnswerCallback(callbackID, text string) {
	m.Called(callbackID, text)
}

func (m *mockSender) BroadcastToAdmins(adminIDs []int64, deliver func(adminID int64)) {
	m.Called(adminIDs, deliver)
}

type routerFixture struct {
	users    *mocks.MockUserRepository
	payments *mocks.MockPaymentRepository
	sender   *mockSender
	router   *Router
}

func newRouterFixture(adminIDs []int64) *routerFixture {
	users := &mocks.MockUserRepository{}
	payments := &mocks.MockPaymentRepository{}
	withdrawals := &mocks.MockWithdrawalRepository{}
	statsRepo := &mocks.MockStatsRepository{}
	sender := &mockSender{}

	registration := service.NewRegistrationService(users, payments)
	referrals := service.NewReferralService(users, withdrawals, nil, service.ReferralConfig{
		BotUsername:             "tutor_bot",
		ReferralReward:          30,
		MinReferralsForWithdraw: 4,
		LeaderboardSize:         10,
	})
	approvals := service.NewApprovalService(users, payments)
	stats := service.NewStatsService(statsRepo, nil)

	router := NewRouter(Config{
		AdminIDs:                adminIDs,
		RegistrationFee:         500,
		ReferralReward:          30,
		MinReferralsForWithdraw: 4,
	}, registration, referrals, approvals, stats, sender, metrics.Registry("tutorbot"))

	return &routerFixture{
		users:    users,
		payments: payments,
		sender:   sender,
		router:   router,
	}
}

func callbackUpdate(callbackID string, fromID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   callbackID,
			From: &tgbotapi.User{ID: fromID},
			Data: data,
		},
	}
}

func TestRouterCallbackAuthorization(t *testing.T) {
	t.Run("Non-admin callback is refused without touching state", func(t *testing.T) {
		f := newRouterFixture([]int64{10})
		f.sender.On("AnswerCallback", "cb1", "❌ Not authorized").Return()

		f.router.HandleUpdate(context.Background(), callbackUpdate("cb1", 99, "admin_approve_5"))

		f.sender.AssertExpectations(t)
		f.payments.AssertNotCalled(t, "DecidePayment", mock.Anything, mock.Anything, mock.Anything)
		f.users.AssertNotCalled(t, "GetUserByTelegramID", mock.Anything, mock.Anything)
	})

	t.Run("Admin approval settles the payment and notifies both sides", func(t *testing.T) {
		f := newRouterFixture([]int64{10})
		f.payments.On("DecidePayment", mock.Anything, int64(5), model.DecisionApproved).Return(nil)
		f.users.On("GetUserByTelegramID", mock.Anything, int64(5)).
			Return(&model.User{TelegramID: 5, IsVerified: true}, nil)
		f.sender.On("SendText", int64(5), mock.Anything).Return()
		f.sender.On("SendText", int64(10), mock.Anything).Return()
		f.sender.On("AnswerCallback", "cb2", "").Return()

		f.router.HandleUpdate(context.Background(), callbackUpdate("cb2", 10, "admin_approve_5"))

		f.sender.AssertExpectations(t)
		f.payments.AssertExpectations(t)
	})

	t.Run("Malformed target is rejected without dispatch", func(t *testing.T) {
		f := newRouterFixture([]int64{10})
		f.sender.On("AnswerCallback", "cb3", "❌ Error processing request").Return()

		f.router.HandleUpdate(context.Background(), callbackUpdate("cb3", 10, "admin_approve_abc"))

		f.sender.AssertExpectations(t)
		f.payments.AssertNotCalled(t, "DecidePayment", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRouterBlockedUserIsCutOff(t *testing.T) {
	f := newRouterFixture([]int64{10})
	f.users.On("GetUserByTelegramID", mock.Anything, int64(7)).
		Return(&model.User{TelegramID: 7, Blocked: true}, nil)
	f.sender.On("SendText", int64(7), blockedText()).Return()

	f.router.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 7},
			Chat: &tgbotapi.Chat{ID: 7},
			Text: ButtonRegister,
		},
	})

	f.sender.AssertExpectations(t)
	f.users.AssertNotCalled(t, "StartRegistration", mock.Anything, mock.Anything)
}

func TestRouterRestartWhilePaymentPending(t *testing.T) {
	f := newRouterFixture([]int64{10})
	f.users.On("GetUserByTelegramID", mock.Anything, int64(8)).
		Return(&model.User{
			TelegramID:       8,
			RegistrationStep: model.StepCompleted,
			PaymentStatus:    model.PaymentPending,
		}, nil)
	f.sender.On("SendText", int64(8), paymentPendingText()).Return()

	f.router.HandleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: 8},
			Chat: &tgbotapi.Chat{ID: 8},
			Text: ButtonRegister,
		},
	})

	f.sender.AssertExpectations(t)
	f.users.AssertNotCalled(t, "StartRegistration", mock.Anything, mock.Anything)
}

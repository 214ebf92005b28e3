package mocks

import (
	"context"
	"time"

	"tutorbot/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *model.User, referralReward int) error {
	args := m.Called(ctx, user, referralReward)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	args := m.Called(ctx, telegramID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) StartRegistration(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) SetStudentType(ctx context.Context, telegramID int64, studentType model.StudentType) error {
	args := m.Called(ctx, telegramID, studentType)
	return args.Error(0)
}

func (m *MockUserRepository) SetName(ctx context.Context, telegramID int64, name string) error {
	args := m.Called(ctx, telegramID, name)
	return args.Error(0)
}

func (m *MockUserRepository) SetPhone(ctx context.Context, telegramID int64, phone string) error {
	args := m.Called(ctx, telegramID, phone)
	return args.Error(0)
}

func (m *MockUserRepository) SetPaymentMethod(ctx context.Context, telegramID int64, method model.PaymentMethod) error {
	args := m.Called(ctx, telegramID, method)
	return args.Error(0)
}

func (m *MockUserRepository) CancelRegistration(ctx context.Context, telegramID int64) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func (m *MockUserRepository) SetPaymentPreference(ctx context.Context, telegramID int64, method model.PaymentMethod) error {
	args := m.Called(ctx, telegramID, method)
	return args.Error(0)
}

func (m *MockUserRepository) SetAccountNumber(ctx context.Context, telegramID int64, accountNumber string) error {
	args := m.Called(ctx, telegramID, accountNumber)
	return args.Error(0)
}

func (m *MockUserRepository) SetAccountName(ctx context.Context, telegramID int64, accountName string) error {
	args := m.Called(ctx, telegramID, accountName)
	return args.Error(0)
}

func (m *MockUserRepository) GetTopReferrers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) GetUserReferrals(ctx context.Context, referrerID int64) ([]*model.User, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, limit int) ([]*model.User, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.User), args.Error(1)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) SubmitPayment(ctx context.Context, payment *model.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) DecidePayment(ctx context.Context, userTelegramID int64, decision model.PaymentDecision) error {
	args := m.Called(ctx, userTelegramID, decision)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListPendingPayments(ctx context.Context) ([]*model.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) SubmitWithdrawal(ctx context.Context, withdrawal *model.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ListPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Withdrawal), args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) GetStats(ctx context.Context) (*model.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Stats), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

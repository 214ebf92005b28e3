package service

import (
	"context"
	"errors"
	"time"

	"tutorbot/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrPaymentNotFound = errors.New("payment not found")

	ErrBlocked         = errors.New("user is blocked")
	ErrAlreadyVerified = errors.New("user is already verified")

	ErrInvalidPhone     = errors.New("invalid phone number format")
	ErrInvalidName      = errors.New("name must not be empty")
	ErrInvalidSelection = errors.New("unrecognized selection")
	ErrWrongStep        = errors.New("action does not match the current registration step")

	// ErrPaymentPending refuses a registration restart while a submitted
	// payment still awaits an admin decision.
	ErrPaymentPending = errors.New("payment is pending admin review")

	ErrNotEligible          = errors.New("rewards balance below the withdrawal minimum")
	ErrPayoutAccountMissing = errors.New("payout account is not set")

	// ErrAlreadyDecided marks a second decision on a settled payment. The
	// caller reports it to the admin and must not notify the user again.
	ErrAlreadyDecided = errors.New("payment already decided")
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User, referralReward int) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	StartRegistration(ctx context.Context, telegramID int64) error
	SetStudentType(ctx context.Context, telegramID int64, studentType model.StudentType) error
	SetName(ctx context.Context, telegramID int64, name string) error
	SetPhone(ctx context.Context, telegramID int64, phone string) error
	SetPaymentMethod(ctx context.Context, telegramID int64, method model.PaymentMethod) error
	CancelRegistration(ctx context.Context, telegramID int64) error
	SetPaymentPreference(ctx context.Context, telegramID int64, method model.PaymentMethod) error
	SetAccountNumber(ctx context.Context, telegramID int64, accountNumber string) error
	SetAccountName(ctx context.Context, telegramID int64, accountName string) error
	GetTopReferrers(ctx context.Context, limit int) ([]*model.User, error)
	GetUserReferrals(ctx context.Context, referrerID int64) ([]*model.User, error)
	ListUsers(ctx context.Context, limit int) ([]*model.User, error)
}

type PaymentRepository interface {
	SubmitPayment(ctx context.Context, payment *model.Payment) error
	DecidePayment(ctx context.Context, userTelegramID int64, decision model.PaymentDecision) error
	ListPendingPayments(ctx context.Context) ([]*model.Payment, error)
}

type WithdrawalRepository interface {
	SubmitWithdrawal(ctx context.Context, withdrawal *model.Withdrawal) error
	ListPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error)
}

type StatsRepository interface {
	GetStats(ctx context.Context) (*model.Stats, error)
}

// Cache is the subset of the redis wrapper the services use. A nil Cache
// disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

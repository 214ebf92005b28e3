package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutorbot/internal/model"
	"tutorbot/internal/repository"
	"tutorbot/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey = "leaderboard"
	leaderboardCacheTTL = 30 * time.Second
)

type ReferralConfig struct {
	BotUsername             string
	ReferralReward          int
	MinReferralsForWithdraw int
	LeaderboardSize         int
}

// ReferralService owns referral-link issuance, reward accrual at user
// creation, withdrawal eligibility and the leaderboard.
type ReferralService struct {
	users       UserRepository
	withdrawals WithdrawalRepository
	cache       Cache
	cfg         ReferralConfig
}

func NewReferralService(users UserRepository, withdrawals WithdrawalRepository, cache Cache, cfg ReferralConfig) *ReferralService {
	if cfg.LeaderboardSize <= 0 {
		cfg.LeaderboardSize = 10
	}
	return &ReferralService{
		users:       users,
		withdrawals: withdrawals,
		cache:       cache,
		cfg:         cfg,
	}
}

// ReferralLink is a pure function of the bot identity and the referrer id.
func (s *ReferralService) ReferralLink(telegramID int64) string {
	return fmt.Sprintf("https://t.me/%s?start=ref_%d", s.cfg.BotUsername, telegramID)
}

// EnsureUser loads the user, creating the record on first contact. Referral
// capture happens only inside creation: a self-referral is dropped, and the
// referrer's counters are credited transactionally by the repository. Later
// starts never change the stored referrer.
func (s *ReferralService) EnsureUser(ctx context.Context, telegramID int64, firstName, username string, referrerID *int64) (*model.User, bool, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}

	if referrerID != nil && *referrerID == telegramID {
		referrerID = nil
	}

	user = &model.User{
		TelegramID:       telegramID,
		FirstName:        firstName,
		Username:         username,
		RegistrationStep: model.StepNotStarted,
		PaymentStatus:    model.PaymentNotStarted,
		ReferrerID:       referrerID,
		JoinedAt:         time.Now(),
	}
	if err := s.users.CreateUser(ctx, user, s.cfg.ReferralReward); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	return user, true, nil
}

// MinWithdrawal is the reward balance required before a withdrawal is allowed.
func (s *ReferralService) MinWithdrawal() int {
	return s.cfg.MinReferralsForWithdraw * s.cfg.ReferralReward
}

// CanWithdraw reports eligibility: balance at or above the minimum (equal is
// eligible) and both payout account fields set.
func (s *ReferralService) CanWithdraw(user *model.User) bool {
	return user.Rewards >= s.MinWithdrawal() && user.HasPayoutAccount()
}

// Withdraw submits a request for the user's full balance and debits it in the
// same repository transaction.
func (s *ReferralService) Withdraw(ctx context.Context, telegramID int64) (*model.Withdrawal, error) {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Rewards < s.MinWithdrawal() {
		return nil, ErrNotEligible
	}
	if !user.HasPayoutAccount() {
		return nil, ErrPayoutAccountMissing
	}

	withdrawal := &model.Withdrawal{
		ID:             uuid.New(),
		UserTelegramID: telegramID,
		Amount:         user.Rewards,
		AccountNumber:  user.AccountNumber,
		AccountName:    user.AccountName,
		PaymentMethod:  user.PaymentMethodPreference,
		Status:         model.DecisionPending,
		SubmittedAt:    time.Now(),
	}
	if err := s.withdrawals.SubmitWithdrawal(ctx, withdrawal); err != nil {
		if errors.Is(err, repository.ErrInsufficientRewards) {
			return nil, ErrNotEligible
		}
		return nil, fmt.Errorf("failed to submit withdrawal: %w", err)
	}

	return withdrawal, nil
}

// PendingWithdrawals lists unsettled withdrawal requests for the admin
// review view.
func (s *ReferralService) PendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error) {
	withdrawals, err := s.withdrawals.ListPendingWithdrawals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending withdrawals: %w", err)
	}
	return withdrawals, nil
}

// SetPayoutPreference records the user's preferred withdrawal channel.
func (s *ReferralService) SetPayoutPreference(ctx context.Context, telegramID int64, method model.PaymentMethod) error {
	if method != model.MethodTeleBirr && method != model.MethodCBEBirr {
		return ErrInvalidSelection
	}
	if err := s.users.SetPaymentPreference(ctx, telegramID, method); err != nil {
		return s.mapUserErr(err, "failed to set payment preference")
	}
	return nil
}

// SetPayoutAccountNumber stores the withdrawal account number. The number
// follows the same shape as a phone number with country code.
func (s *ReferralService) SetPayoutAccountNumber(ctx context.Context, telegramID int64, accountNumber string) error {
	if !ValidPhone(accountNumber) {
		return ErrInvalidPhone
	}
	if err := s.users.SetAccountNumber(ctx, telegramID, accountNumber); err != nil {
		return s.mapUserErr(err, "failed to set account number")
	}
	return nil
}

// SetPayoutAccountName stores the holder name for the withdrawal account.
func (s *ReferralService) SetPayoutAccountName(ctx context.Context, telegramID int64, accountName string) error {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return ErrInvalidName
	}
	if err := s.users.SetAccountName(ctx, telegramID, accountName); err != nil {
		return s.mapUserErr(err, "failed to set account name")
	}
	return nil
}

func (s *ReferralService) mapUserErr(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Leaderboard returns the top referrers, served from cache when warm.
func (s *ReferralService) Leaderboard(ctx context.Context) ([]*model.User, error) {
	if s.cache != nil {
		var cached []*model.User
		hit, err := s.cache.GetJSON(ctx, leaderboardCacheKey, &cached)
		if err != nil {
			logger.Logger().Warn("leaderboard cache read failed", zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	top, err := s.users.GetTopReferrers(ctx, s.cfg.LeaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("failed to get top referrers: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, leaderboardCacheKey, top, leaderboardCacheTTL); err != nil {
			logger.Logger().Warn("leaderboard cache write failed", zap.Error(err))
		}
	}
	return top, nil
}

func (s *ReferralService) MyReferrals(ctx context.Context, telegramID int64) ([]*model.User, error) {
	referrals, err := s.users.GetUserReferrals(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}
	return referrals, nil
}

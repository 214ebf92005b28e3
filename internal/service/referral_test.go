package service

import (
	"context"
	"testing"

	"tutorbot/internal/model"
	"tutorbot/internal/repository"
	"tutorbot/internal/service/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newReferralService(users *mocks.MockUserRepository, withdrawals *mocks.MockWithdrawalRepository) *ReferralService {
	return NewReferralService(users, withdrawals, nil, ReferralConfig{
		BotUsername:             "tutor_bot",
		ReferralReward:          30,
		MinReferralsForWithdraw: 4,
		LeaderboardSize:         10,
	})
}

func TestReferralService_ReferralLink(t *testing.T) {
	service := newReferralService(&mocks.MockUserRepository{}, &mocks.MockWithdrawalRepository{})
	assert.Equal(t, "https://t.me/tutor_bot?start=ref_42", service.ReferralLink(42))
}

func TestReferralService_EnsureUser(t *testing.T) {
	referrer := int64(100)
	self := int64(200)

	tests := []struct {
		name       string
		telegramID int64
		referrerID *int64
		mockSetup  func(users *mocks.MockUserRepository)
		check      func(t *testing.T, user *model.User, created bool)
	}{
		{
			name:       "Fresh user without referral payload",
			telegramID: 200,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(200)).
					Return(nil, repository.ErrNotFound)
				users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.TelegramID == 200 &&
						u.ReferralCount == 0 &&
						u.Rewards == 0 &&
						u.RegistrationStep == model.StepNotStarted &&
						u.ReferrerID == nil
				}), 30).Return(nil)
			},
			check: func(t *testing.T, user *model.User, created bool) {
				assert.True(t, created)
				assert.LessOrEqual(t, user.Rewards, user.TotalRewards)
			},
		},
		{
			name:       "Fresh user with referral payload stores the back-reference",
			telegramID: 200,
			referrerID: &referrer,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(200)).
					Return(nil, repository.ErrNotFound)
				users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.ReferrerID != nil && *u.ReferrerID == 100
				}), 30).Return(nil)
			},
			check: func(t *testing.T, user *model.User, created bool) {
				assert.True(t, created)
			},
		},
		{
			name:       "Self-referral is dropped",
			telegramID: 200,
			referrerID: &self,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(200)).
					Return(nil, repository.ErrNotFound)
				users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.ReferrerID == nil
				}), 30).Return(nil)
			},
			check: func(t *testing.T, user *model.User, created bool) {
				assert.True(t, created)
				assert.Nil(t, user.ReferrerID)
			},
		},
		{
			name:       "Existing user keeps the stored referrer even with a new payload",
			telegramID: 200,
			referrerID: &referrer,
			mockSetup: func(users *mocks.MockUserRepository) {
				other := int64(77)
				users.On("GetUserByTelegramID", mock.Anything, int64(200)).
					Return(&model.User{TelegramID: 200, ReferrerID: &other}, nil)
			},
			check: func(t *testing.T, user *model.User, created bool) {
				assert.False(t, created)
				assert.Equal(t, int64(77), *user.ReferrerID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			tt.mockSetup(users)

			service := newReferralService(users, &mocks.MockWithdrawalRepository{})
			user, created, err := service.EnsureUser(context.Background(), tt.telegramID, "Abebe", "abebe", tt.referrerID)

			assert.NoError(t, err)
			assert.NotNil(t, user)
			tt.check(t, user, created)
			users.AssertExpectations(t)
		})
	}
}

func TestReferralService_CanWithdraw(t *testing.T) {
	service := newReferralService(&mocks.MockUserRepository{}, &mocks.MockWithdrawalRepository{})
	assert.Equal(t, 120, service.MinWithdrawal())

	tests := []struct {
		name     string
		user     model.User
		eligible bool
	}{
		{
			name:     "Exactly at the threshold is eligible",
			user:     model.User{Rewards: 120, AccountNumber: "+251911111111", AccountName: "Abebe"},
			eligible: true,
		},
		{
			name:     "Below the threshold",
			user:     model.User{Rewards: 119, AccountNumber: "+251911111111", AccountName: "Abebe"},
			eligible: false,
		},
		{
			name:     "Missing account fields",
			user:     model.User{Rewards: 300},
			eligible: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.eligible, service.CanWithdraw(&tt.user))
		})
	}
}

func TestReferralService_Withdraw(t *testing.T) {
	tests := []struct {
		name          string
		mockSetup     func(users *mocks.MockUserRepository, withdrawals *mocks.MockWithdrawalRepository)
		expectedError error
		check         func(t *testing.T, w *model.Withdrawal)
	}{
		{
			name: "Submits the full balance and records the payout account",
			mockSetup: func(users *mocks.MockUserRepository, withdrawals *mocks.MockWithdrawalRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(5)).
					Return(&model.User{
						TelegramID:              5,
						Rewards:                 120,
						TotalRewards:            150,
						AccountNumber:           "+251911111111",
						AccountName:             "Abebe",
						PaymentMethodPreference: model.MethodTeleBirr,
					}, nil)
				withdrawals.On("SubmitWithdrawal", mock.Anything, mock.MatchedBy(func(w *model.Withdrawal) bool {
					return w.UserTelegramID == 5 &&
						w.Amount == 120 &&
						w.AccountNumber == "+251911111111" &&
						w.PaymentMethod == model.MethodTeleBirr &&
						w.Status == model.DecisionPending
				})).Return(nil)
			},
			check: func(t *testing.T, w *model.Withdrawal) {
				assert.Equal(t, 120, w.Amount)
			},
		},
		{
			name: "Below the minimum is rejected with no record",
			mockSetup: func(users *mocks.MockUserRepository, withdrawals *mocks.MockWithdrawalRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(5)).
					Return(&model.User{TelegramID: 5, Rewards: 90, AccountNumber: "+251911111111", AccountName: "Abebe"}, nil)
			},
			expectedError: ErrNotEligible,
		},
		{
			name: "Missing payout account is rejected with no record",
			mockSetup: func(users *mocks.MockUserRepository, withdrawals *mocks.MockWithdrawalRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(5)).
					Return(&model.User{TelegramID: 5, Rewards: 200}, nil)
			},
			expectedError: ErrPayoutAccountMissing,
		},
		{
			name: "Concurrent drain surfaces as not eligible",
			mockSetup: func(users *mocks.MockUserRepository, withdrawals *mocks.MockWithdrawalRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(5)).
					Return(&model.User{TelegramID: 5, Rewards: 120, AccountNumber: "+251911111111", AccountName: "Abebe"}, nil)
				withdrawals.On("SubmitWithdrawal", mock.Anything, mock.Anything).
					Return(repository.ErrInsufficientRewards)
			},
			expectedError: ErrNotEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			withdrawals := &mocks.MockWithdrawalRepository{}
			tt.mockSetup(users, withdrawals)

			service := newReferralService(users, withdrawals)
			w, err := service.Withdraw(context.Background(), 5)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, w)
			} else {
				assert.NoError(t, err)
				tt.check(t, w)
			}
			users.AssertExpectations(t)
			withdrawals.AssertExpectations(t)
		})
	}
}

func TestReferralService_Leaderboard(t *testing.T) {
	t.Run("Cache miss falls through to the store and warms the cache", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		cache := &mocks.MockCache{}
		top := []*model.User{
			{TelegramID: 1, FirstName: "A", ReferralCount: 9},
			{TelegramID: 2, FirstName: "B", ReferralCount: 4},
		}

		cache.On("GetJSON", mock.Anything, "leaderboard", mock.Anything).Return(false, nil)
		users.On("GetTopReferrers", mock.Anything, 10).Return(top, nil)
		cache.On("SetJSON", mock.Anything, "leaderboard", top, leaderboardCacheTTL).Return(nil)

		service := NewReferralService(users, &mocks.MockWithdrawalRepository{}, cache, ReferralConfig{
			BotUsername:             "tutor_bot",
			ReferralReward:          30,
			MinReferralsForWithdraw: 4,
			LeaderboardSize:         10,
		})

		got, err := service.Leaderboard(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, top, got)
		users.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("Nil cache still serves from the store", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		users.On("GetTopReferrers", mock.Anything, 10).Return([]*model.User{}, nil)

		service := newReferralService(users, &mocks.MockWithdrawalRepository{})
		got, err := service.Leaderboard(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, got)
		users.AssertExpectations(t)
	})
}

func TestReferralService_PayoutAccount(t *testing.T) {
	t.Run("Preference is stored for a known method", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		users.On("SetPaymentPreference", mock.Anything, int64(1), model.MethodTeleBirr).Return(nil)

		service := newReferralService(users, &mocks.MockWithdrawalRepository{})
		err := service.SetPayoutPreference(context.Background(), 1, model.MethodTeleBirr)
		assert.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("Unknown preference is rejected without a write", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		service := newReferralService(users, &mocks.MockWithdrawalRepository{})

		err := service.SetPayoutPreference(context.Background(), 1, model.PaymentMethod("PayPal"))
		assert.ErrorIs(t, err, ErrInvalidSelection)
		users.AssertNotCalled(t, "SetPaymentPreference", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Account number must look like an international phone number", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		service := newReferralService(users, &mocks.MockWithdrawalRepository{})

		err := service.SetPayoutAccountNumber(context.Background(), 1, "0912345678")
		assert.ErrorIs(t, err, ErrInvalidPhone)
		users.AssertNotCalled(t, "SetAccountNumber", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Valid account number is stored", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		users.On("SetAccountNumber", mock.Anything, int64(1), "+251912345678").Return(nil)

		service := newReferralService(users, &mocks.MockWithdrawalRepository{})
		err := service.SetPayoutAccountNumber(context.Background(), 1, "+251912345678")
		assert.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("Account name is trimmed and must not be empty", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		users.On("SetAccountName", mock.Anything, int64(1), "Abebe Kebede").Return(nil)

		service := newReferralService(users, &mocks.MockWithdrawalRepository{})
		assert.NoError(t, service.SetPayoutAccountName(context.Background(), 1, "  Abebe Kebede  "))
		assert.ErrorIs(t, service.SetPayoutAccountName(context.Background(), 1, "   "), ErrInvalidName)
		users.AssertExpectations(t)
	})

	t.Run("Missing user maps to ErrUserNotFound", func(t *testing.T) {
		users := &mocks.MockUserRepository{}
		users.On("SetAccountName", mock.Anything, int64(1), "Abebe").Return(repository.ErrNotFound)

		service := newReferralService(users, &mocks.MockWithdrawalRepository{})
		err := service.SetPayoutAccountName(context.Background(), 1, "Abebe")
		assert.ErrorIs(t, err, ErrUserNotFound)
		users.AssertExpectations(t)
	})
}

func TestReferralService_PendingWithdrawals(t *testing.T) {
	withdrawals := &mocks.MockWithdrawalRepository{}
	pending := []*model.Withdrawal{{UserTelegramID: 1, Amount: 120}}
	withdrawals.On("ListPendingWithdrawals", mock.Anything).Return(pending, nil)

	service := newReferralService(&mocks.MockUserRepository{}, withdrawals)
	got, err := service.PendingWithdrawals(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, pending, got)
	withdrawals.AssertExpectations(t)
}

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

func TestRegistrationService_Start(t *testing.T) {
	tests := []struct {
		name          string
		telegramID    int64
		mockSetup     func(users *mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:       "Starts the flow for a fresh user",
			telegramID: 123,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(123)).
					Return(&model.User{TelegramID: 123, RegistrationStep: model.StepNotStarted}, nil)
				users.On("StartRegistration", mock.Anything, int64(123)).Return(nil)
			},
		},
		{
			name:       "Blocked user is rejected without a state change",
			telegramID: 124,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(124)).
					Return(&model.User{TelegramID: 124, Blocked: true}, nil)
			},
			expectedError: ErrBlocked,
		},
		{
			name:       "Verified user is rejected without a state change",
			telegramID: 125,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(125)).
					Return(&model.User{TelegramID: 125, IsVerified: true}, nil)
			},
			expectedError: ErrAlreadyVerified,
		},
		{
			name:       "Pending payment blocks a restart",
			telegramID: 127,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(127)).
					Return(&model.User{
						TelegramID:       127,
						RegistrationStep: model.StepCompleted,
						PaymentStatus:    model.PaymentPending,
					}, nil)
			},
			expectedError: ErrPaymentPending,
		},
		{
			name:       "Payment slipping into review during the restart blocks it",
			telegramID: 128,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(128)).
					Return(&model.User{TelegramID: 128, RegistrationStep: model.StepCompleted}, nil)
				users.On("StartRegistration", mock.Anything, int64(128)).
					Return(repository.ErrStepConflict)
			},
			expectedError: ErrPaymentPending,
		},
		{
			name:       "Unknown user",
			telegramID: 126,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(126)).
					Return(nil, repository.ErrNotFound)
			},
			expectedError: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			payments := &mocks.MockPaymentRepository{}
			tt.mockSetup(users)

			service := NewRegistrationService(users, payments)
			err := service.Start(context.Background(), tt.telegramID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestRegistrationService_ChooseStudentType(t *testing.T) {
	tests := []struct {
		name          string
		studentType   model.StudentType
		mockSetup     func(users *mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:        "Social science advances to name collection",
			studentType: model.StudentTypeSocial,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("SetStudentType", mock.Anything, int64(1), model.StudentTypeSocial).Return(nil)
			},
		},
		{
			name:          "Unknown selection is rejected",
			studentType:   model.StudentType("Engineering"),
			mockSetup:     func(users *mocks.MockUserRepository) {},
			expectedError: ErrInvalidSelection,
		},
		{
			name:        "Step mismatch surfaces as a wrong-step error",
			studentType: model.StudentTypeNatural,
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("SetStudentType", mock.Anything, int64(1), model.StudentTypeNatural).
					Return(repository.ErrStepConflict)
			},
			expectedError: ErrWrongStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			tt.mockSetup(users)

			service := NewRegistrationService(users, &mocks.MockPaymentRepository{})
			err := service.ChooseStudentType(context.Background(), 1, tt.studentType)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestRegistrationService_SubmitPhone(t *testing.T) {
	tests := []struct {
		name          string
		phone         string
		mockSetup     func(users *mocks.MockUserRepository)
		expectedError error
	}{
		{
			name:  "International format is accepted",
			phone: "+251912345678",
			mockSetup: func(users *mocks.MockUserRepository) {
				users.On("SetPhone", mock.Anything, int64(1), "+251912345678").Return(nil)
			},
		},
		{
			name:          "Missing plus prefix is rejected, step unchanged",
			phone:         "0912345678",
			mockSetup:     func(users *mocks.MockUserRepository) {},
			expectedError: ErrInvalidPhone,
		},
		{
			name:          "Too short is rejected",
			phone:         "+2519",
			mockSetup:     func(users *mocks.MockUserRepository) {},
			expectedError: ErrInvalidPhone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			tt.mockSetup(users)

			service := NewRegistrationService(users, &mocks.MockPaymentRepository{})
			err := service.SubmitPhone(context.Background(), 1, tt.phone)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestRegistrationService_SubmitName(t *testing.T) {
	users := &mocks.MockUserRepository{}
	users.On("SetName", mock.Anything, int64(1), "Abebe Kebede").Return(nil)
	service := NewRegistrationService(users, &mocks.MockPaymentRepository{})

	assert.NoError(t, service.SubmitName(context.Background(), 1, "  Abebe Kebede  "))
	assert.ErrorIs(t, service.SubmitName(context.Background(), 1, "   "), ErrInvalidName)
	users.AssertExpectations(t)
}

func TestRegistrationService_SubmitScreenshot(t *testing.T) {
	tests := []struct {
		name          string
		fileID        string
		mockSetup     func(users *mocks.MockUserRepository, payments *mocks.MockPaymentRepository)
		expectedError error
		check         func(t *testing.T, user *model.User)
	}{
		{
			name:   "Creates a pending payment and completes the flow",
			fileID: "file-abc",
			mockSetup: func(users *mocks.MockUserRepository, payments *mocks.MockPaymentRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(7)).
					Return(&model.User{
						TelegramID:       7,
						Name:             "Abebe",
						Phone:            "+251912345678",
						StudentType:      model.StudentTypeNatural,
						PaymentMethod:    model.MethodTeleBirr,
						RegistrationStep: model.StepWaitingScreenshot,
					}, nil)
				payments.On("SubmitPayment", mock.Anything, mock.MatchedBy(func(p *model.Payment) bool {
					return p.UserTelegramID == 7 &&
						p.FileID == "file-abc" &&
						p.PaymentMethod == model.MethodTeleBirr &&
						p.Status == model.DecisionPending
				})).Return(nil)
			},
			check: func(t *testing.T, user *model.User) {
				assert.Equal(t, model.StepCompleted, user.RegistrationStep)
				assert.Equal(t, model.PaymentPending, user.PaymentStatus)
			},
		},
		{
			name:   "Not in the screenshot step",
			fileID: "file-abc",
			mockSetup: func(users *mocks.MockUserRepository, payments *mocks.MockPaymentRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(7)).
					Return(&model.User{TelegramID: 7, RegistrationStep: model.StepWaitingPhone}, nil)
			},
			expectedError: ErrWrongStep,
		},
		{
			name:          "Missing attachment",
			fileID:        "",
			mockSetup:     func(users *mocks.MockUserRepository, payments *mocks.MockPaymentRepository) {},
			expectedError: ErrInvalidSelection,
		},
		{
			name:   "Double submission hits the step guard",
			fileID: "file-abc",
			mockSetup: func(users *mocks.MockUserRepository, payments *mocks.MockPaymentRepository) {
				users.On("GetUserByTelegramID", mock.Anything, int64(7)).
					Return(&model.User{TelegramID: 7, RegistrationStep: model.StepWaitingScreenshot}, nil)
				payments.On("SubmitPayment", mock.Anything, mock.Anything).
					Return(repository.ErrStepConflict)
			},
			expectedError: ErrWrongStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &mocks.MockUserRepository{}
			payments := &mocks.MockPaymentRepository{}
			tt.mockSetup(users, payments)

			service := NewRegistrationService(users, payments)
			user, err := service.SubmitScreenshot(context.Background(), 7, tt.fileID)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, user)
				}
			}
			users.AssertExpectations(t)
			payments.AssertExpectations(t)
		})
	}
}

func TestRegistrationService_Cancel(t *testing.T) {
	users := &mocks.MockUserRepository{}
	users.On("CancelRegistration", mock.Anything, int64(9)).Return(nil)

	service := NewRegistrationService(users, &mocks.MockPaymentRepository{})
	assert.NoError(t, service.Cancel(context.Background(), 9))
	users.AssertExpectations(t)
}

func TestValidPhone(t *testing.T) {
	assert.True(t, ValidPhone("+251912345678"))
	assert.True(t, ValidPhone("+123456789"))
	assert.False(t, ValidPhone("0912345678"))
	assert.False(t, ValidPhone("+25191"))
	assert.False(t, ValidPhone(""))
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tutorbot/internal/model"
	"tutorbot/internal/repository"

	"github.com/google/uuid"
)

// RegistrationService drives the linear registration flow:
// not_started -> waiting_student_type -> waiting_name -> waiting_phone ->
// waiting_payment_method -> waiting_screenshot -> completed.
// Every forward transition is a conditional update in the repository, so a
// stale or duplicated event surfaces ErrWrongStep instead of clobbering state.
type RegistrationService struct {
	users    UserRepository
	payments PaymentRepository
}

func NewRegistrationService(users UserRepository, payments PaymentRepository) *RegistrationService {
	return &RegistrationService{
		users:    users,
		payments: payments,
	}
}

// ValidPhone accepts international numbers only: a leading '+' and at least
// ten characters.
func ValidPhone(phone string) bool {
	return strings.HasPrefix(phone, "+") && len(phone) >= 10
}

// Start enters the registration flow. Blocked and already-verified users are
// rejected without a state change, and so is a user whose payment is still
// under review: restarting there would strand the pending submission.
func (s *RegistrationService) Start(ctx context.Context, telegramID int64) error {
	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.Blocked {
		return ErrBlocked
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}
	if user.PaymentStatus == model.PaymentPending {
		return ErrPaymentPending
	}

	if err := s.users.StartRegistration(ctx, telegramID); err != nil {
		// The repository refuses the restart itself when a payment slipped
		// into review between the read and the update.
		if errors.Is(err, repository.ErrStepConflict) {
			return ErrPaymentPending
		}
		return fmt.Errorf("failed to start registration: %w", err)
	}
	return nil
}

func (s *RegistrationService) ChooseStudentType(ctx context.Context, telegramID int64, studentType model.StudentType) error {
	if studentType != model.StudentTypeSocial && studentType != model.StudentTypeNatural {
		return ErrInvalidSelection
	}
	return s.mapStepErr(s.users.SetStudentType(ctx, telegramID, studentType))
}

func (s *RegistrationService) SubmitName(ctx context.Context, telegramID int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	return s.mapStepErr(s.users.SetName(ctx, telegramID, name))
}

// SubmitPhone validates before touching state: a bad number keeps the user in
// waiting_phone.
func (s *RegistrationService) SubmitPhone(ctx context.Context, telegramID int64, phone string) error {
	phone = strings.TrimSpace(phone)
	if !ValidPhone(phone) {
		return ErrInvalidPhone
	}
	return s.mapStepErr(s.users.SetPhone(ctx, telegramID, phone))
}

func (s *RegistrationService) ChoosePaymentMethod(ctx context.Context, telegramID int64, method model.PaymentMethod) error {
	if method != model.MethodTeleBirr && method != model.MethodCBEBirr {
		return ErrInvalidSelection
	}
	return s.mapStepErr(s.users.SetPaymentMethod(ctx, telegramID, method))
}

// SubmitScreenshot records a pending payment for the attached file and
// completes the flow. The returned user snapshot carries the collected fields
// for the admin notification.
func (s *RegistrationService) SubmitScreenshot(ctx context.Context, telegramID int64, fileID string) (*model.User, error) {
	if fileID == "" {
		return nil, ErrInvalidSelection
	}

	user, err := s.users.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.RegistrationStep != model.StepWaitingScreenshot {
		return nil, ErrWrongStep
	}

	payment := &model.Payment{
		ID:             uuid.New(),
		UserTelegramID: telegramID,
		FileID:         fileID,
		PaymentMethod:  user.PaymentMethod,
		Status:         model.DecisionPending,
		SubmittedAt:    time.Now(),
	}
	if err := s.payments.SubmitPayment(ctx, payment); err != nil {
		return nil, s.mapStepErr(err)
	}

	user.RegistrationStep = model.StepCompleted
	user.PaymentStatus = model.PaymentPending
	return user, nil
}

// Cancel resets the flow from any state and clears the collected fields.
func (s *RegistrationService) Cancel(ctx context.Context, telegramID int64) error {
	if err := s.users.CancelRegistration(ctx, telegramID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to cancel registration: %w", err)
	}
	return nil
}

func (s *RegistrationService) mapStepErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrStepConflict) {
		return ErrWrongStep
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

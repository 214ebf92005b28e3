package service

import (
	"context"
	"errors"
	"fmt"

	"tutorbot/internal/model"
	"tutorbot/internal/repository"
)

// ApprovalService settles pending payments. A decision is terminal: the
// repository rejects the second decision on the same payment and this service
// surfaces that as ErrAlreadyDecided so callers skip the user notification.
type ApprovalService struct {
	users    UserRepository
	payments PaymentRepository
}

func NewApprovalService(users UserRepository, payments PaymentRepository) *ApprovalService {
	return &ApprovalService{
		users:    users,
		payments: payments,
	}
}

// Approve verifies the target user and settles their pending payment. The
// returned user is the post-decision snapshot for notifications.
func (s *ApprovalService) Approve(ctx context.Context, targetID int64) (*model.User, error) {
	return s.decide(ctx, targetID, model.DecisionApproved)
}

// Reject settles the pending payment as rejected and leaves the user
// unverified.
func (s *ApprovalService) Reject(ctx context.Context, targetID int64) (*model.User, error) {
	return s.decide(ctx, targetID, model.DecisionRejected)
}

// Details returns the target user for the read-only admin inspection view.
func (s *ApprovalService) Details(ctx context.Context, targetID int64) (*model.User, error) {
	user, err := s.users.GetUserByTelegramID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *ApprovalService) ListPendingPayments(ctx context.Context) ([]*model.Payment, error) {
	payments, err := s.payments.ListPendingPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	return payments, nil
}

// ListUsers returns the most recently joined users for the admin roster view.
func (s *ApprovalService) ListUsers(ctx context.Context, limit int) ([]*model.User, error) {
	users, err := s.users.ListUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *ApprovalService) decide(ctx context.Context, targetID int64, decision model.PaymentDecision) (*model.User, error) {
	err := s.payments.DecidePayment(ctx, targetID, decision)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyDecided):
			return nil, ErrAlreadyDecided
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to decide payment: %w", err)
	}

	user, err := s.users.GetUserByTelegramID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tutorbot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type paymentRow struct {
	ID             uuid.UUID `db:"id"`
	UserTelegramID int64     `db:"user_telegram_id"`
	FileID         string    `db:"file_id"`
	PaymentMethod  string    `db:"payment_method"`
	Status         string    `db:"status"`
	SubmittedAt    time.Time `db:"submitted_at"`
}

func (p *paymentRow) toModel() *model.Payment {
	return &model.Payment{
		ID:             p.ID,
		UserTelegramID: p.UserTelegramID,
		FileID:         p.FileID,
		PaymentMethod:  model.PaymentMethod(p.PaymentMethod),
		Status:         model.PaymentDecision(p.Status),
		SubmittedAt:    p.SubmittedAt,
	}
}

// SubmitPayment records a pending payment and completes the registration flow
// in one transaction. The step transition is conditional, so a double-sent
// screenshot produces exactly one payment record.
func (r *Repository) SubmitPayment(ctx context.Context, payment *model.Payment) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		stepQuery, stepArgs, err := squirrel.
			Update("users").
			Set("registration_step", string(model.StepCompleted)).
			Set("payment_status", string(model.PaymentPending)).
			Where(squirrel.Eq{
				"telegram_id":       payment.UserTelegramID,
				"registration_step": string(model.StepWaitingScreenshot),
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build step update query: %w", err)
		}

		res, err := tx.ExecContext(ctx, stepQuery, stepArgs...)
		if err != nil {
			return fmt.Errorf("failed to update user payment status: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrStepConflict
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("payments").
			SetMap(map[string]interface{}{
				"id":               payment.ID,
				"user_telegram_id": payment.UserTelegramID,
				"file_id":          payment.FileID,
				"payment_method":   string(payment.PaymentMethod),
				"status":           string(payment.Status),
				"submitted_at":     payment.SubmittedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build payment insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		return nil
	})
}

// DecidePayment settles the user's most recent payment. Deciding an already
// terminal payment returns ErrAlreadyDecided without touching any record, so
// a second admin tapping the same button cannot double-apply.
func (r *Repository) DecidePayment(ctx context.Context, userTelegramID int64, decision model.PaymentDecision) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		selectQuery, selectArgs, err := squirrel.
			Select("*").
			From("payments").
			Where(squirrel.Eq{"user_telegram_id": userTelegramID}).
			OrderBy("submitted_at DESC").
			Limit(1).
			Suffix("FOR UPDATE").
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build payment select query: %w", err)
		}

		var payment paymentRow
		err = tx.GetContext(ctx, &payment, selectQuery, selectArgs...)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}

		if model.PaymentDecision(payment.Status) != model.DecisionPending {
			return ErrAlreadyDecided
		}

		paymentQuery, paymentArgs, err := squirrel.
			Update("payments").
			Set("status", string(decision)).
			Where(squirrel.Eq{"id": payment.ID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build payment update query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, paymentQuery, paymentArgs...); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		verified := decision == model.DecisionApproved
		status := model.PaymentApproved
		if !verified {
			status = model.PaymentRejected
		}

		userQuery, userArgs, err := squirrel.
			Update("users").
			Set("is_verified", verified).
			Set("payment_status", string(status)).
			Where(squirrel.Eq{"telegram_id": userTelegramID}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user update query: %w", err)
		}
		if _, err = tx.ExecContext(ctx, userQuery, userArgs...); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		return nil
	})
}

func (r *Repository) ListPendingPayments(ctx context.Context) ([]*model.Payment, error) {
	query, args, err := squirrel.
		Select("*").
		From("payments").
		Where(squirrel.Eq{"status": string(model.DecisionPending)}).
		OrderBy("submitted_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build payments select query: %w", err)
	}

	var rows []paymentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select payments: %w", err)
	}

	payments := make([]*model.Payment, len(rows))
	for i := range rows {
		payments[i] = rows[i].toModel()
	}
	return payments, nil
}

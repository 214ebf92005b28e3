package repository

import (
	"context"
	"fmt"
	"time"

	"tutorbot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type withdrawalRow struct {
	ID             uuid.UUID `db:"id"`
	UserTelegramID int64     `db:"user_telegram_id"`
	Amount         int       `db:"amount"`
	AccountNumber  string    `db:"account_number"`
	AccountName    string    `db:"account_name"`
	PaymentMethod  string    `db:"payment_method"`
	Status         string    `db:"status"`
	SubmittedAt    time.Time `db:"submitted_at"`
}

func (w *withdrawalRow) toModel() *model.Withdrawal {
	return &model.Withdrawal{
		ID:             w.ID,
		UserTelegramID: w.UserTelegramID,
		Amount:         w.Amount,
		AccountNumber:  w.AccountNumber,
		AccountName:    w.AccountName,
		PaymentMethod:  model.PaymentMethod(w.PaymentMethod),
		Status:         model.PaymentDecision(w.Status),
		SubmittedAt:    w.SubmittedAt,
	}
}

// SubmitWithdrawal records the request and debits the user's balance in the
// same transaction. The debit is conditional on the balance still covering
// the amount, so two racing requests cannot both drain it.
func (r *Repository) SubmitWithdrawal(ctx context.Context, withdrawal *model.Withdrawal) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		debitQuery, debitArgs, err := squirrel.
			Update("users").
			Set("rewards", squirrel.Expr("rewards - ?", withdrawal.Amount)).
			Where(squirrel.Eq{"telegram_id": withdrawal.UserTelegramID}).
			Where(squirrel.GtOrEq{"rewards": withdrawal.Amount}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build rewards debit query: %w", err)
		}

		res, err := tx.ExecContext(ctx, debitQuery, debitArgs...)
		if err != nil {
			return fmt.Errorf("failed to debit rewards: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientRewards
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("withdrawals").
			SetMap(map[string]interface{}{
				"id":               withdrawal.ID,
				"user_telegram_id": withdrawal.UserTelegramID,
				"amount":           withdrawal.Amount,
				"account_number":   withdrawal.AccountNumber,
				"account_name":     withdrawal.AccountName,
				"payment_method":   string(withdrawal.PaymentMethod),
				"status":           string(withdrawal.Status),
				"submitted_at":     withdrawal.SubmittedAt,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build withdrawal insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("failed to insert withdrawal: %w", err)
		}

		return nil
	})
}

func (r *Repository) ListPendingWithdrawals(ctx context.Context) ([]*model.Withdrawal, error) {
	query, args, err := squirrel.
		Select("*").
		From("withdrawals").
		Where(squirrel.Eq{"status": string(model.DecisionPending)}).
		OrderBy("submitted_at ASC").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build withdrawals select query: %w", err)
	}

	var rows []withdrawalRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select withdrawals: %w", err)
	}

	withdrawals := make([]*model.Withdrawal, len(rows))
	for i := range rows {
		withdrawals[i] = rows[i].toModel()
	}
	return withdrawals, nil
}

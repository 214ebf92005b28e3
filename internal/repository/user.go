package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tutorbot/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

type userRow struct {
	TelegramID              int64     `db:"telegram_id"`
	FirstName               string    `db:"first_name"`
	Username                string    `db:"username"`
	IsVerified              bool      `db:"is_verified"`
	RegistrationStep        string    `db:"registration_step"`
	PaymentStatus           string    `db:"payment_status"`
	StudentType             string    `db:"student_type"`
	Name                    string    `db:"name"`
	Phone                   string    `db:"phone"`
	PaymentMethod           string    `db:"payment_method"`
	PaymentMethodPreference string    `db:"payment_method_preference"`
	AccountNumber           string    `db:"account_number"`
	AccountName             string    `db:"account_name"`
	ReferralCount           int       `db:"referral_count"`
	Rewards                 int       `db:"rewards"`
	TotalRewards            int       `db:"total_rewards"`
	ReferrerID              *int64    `db:"referrer_id"`
	JoinedAt                time.Time `db:"joined_at"`
	Blocked                 bool      `db:"blocked"`
}

func (u *userRow) toModel() *model.User {
	return &model.User{
		TelegramID:              u.TelegramID,
		FirstName:               u.FirstName,
		Username:                u.Username,
		IsVerified:              u.IsVerified,
		RegistrationStep:        model.RegistrationStep(u.RegistrationStep),
		PaymentStatus:           model.PaymentStatus(u.PaymentStatus),
		StudentType:             model.StudentType(u.StudentType),
		Name:                    u.Name,
		Phone:                   u.Phone,
		PaymentMethod:           model.PaymentMethod(u.PaymentMethod),
		PaymentMethodPreference: model.PaymentMethod(u.PaymentMethodPreference),
		AccountNumber:           u.AccountNumber,
		AccountName:             u.AccountName,
		ReferralCount:           u.ReferralCount,
		Rewards:                 u.Rewards,
		TotalRewards:            u.TotalRewards,
		ReferrerID:              u.ReferrerID,
		JoinedAt:                u.JoinedAt,
		Blocked:                 u.Blocked,
	}
}

// CreateUser inserts the user and, when a referrer is recorded, credits the
// referrer's counters in the same transaction. The credit silently applies to
// zero rows when the referrer does not exist; the back-reference is stored
// either way.
func (r *Repository) CreateUser(ctx context.Context, user *model.User, referralReward int) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id":       user.TelegramID,
				"first_name":        user.FirstName,
				"username":          user.Username,
				"is_verified":       user.IsVerified,
				"registration_step": string(user.RegistrationStep),
				"payment_status":    string(user.PaymentStatus),
				"referral_count":    user.ReferralCount,
				"rewards":           user.Rewards,
				"total_rewards":     user.TotalRewards,
				"referrer_id":       user.ReferrerID,
				"joined_at":         user.JoinedAt,
				"blocked":           user.Blocked,
			}).
			PlaceholderFormat(squirrel.Dollar).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}

		if user.ReferrerID != nil && *user.ReferrerID != user.TelegramID {
			creditQuery, creditArgs, err := creditReferrerQuery(*user.ReferrerID, referralReward)
			if err != nil {
				return fmt.Errorf("failed to build referrer credit query: %w", err)
			}

			if _, err = tx.ExecContext(ctx, creditQuery, creditArgs...); err != nil {
				return fmt.Errorf("failed to credit referrer: %w", err)
			}
		}

		return nil
	})
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	var user userRow
	query, args, err := squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

// creditReferrerQuery builds the in-transaction update that rewards a
// referrer for a newly created invitee.
func creditReferrerQuery(referrerID int64, referralReward int) (string, []interface{}, error) {
	return squirrel.
		Update("users").
		Set("referral_count", squirrel.Expr("referral_count + 1")).
		Set("rewards", squirrel.Expr("rewards + ?", referralReward)).
		Set("total_rewards", squirrel.Expr("total_rewards + ?", referralReward)).
		Where(squirrel.Eq{"telegram_id": referrerID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// StartRegistration moves the user into the first registration step. The
// blocked/verified gate lives in the service; re-entering the flow from a
// later step is treated as starting over, except while a submitted payment
// is still under review, where the restart is refused so the pending
// submission stays decidable.
func (r *Repository) StartRegistration(ctx context.Context, telegramID int64) error {
	query, args, err := startRegistrationQuery(telegramID)
	if err != nil {
		return fmt.Errorf("failed to build registration start query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to start registration: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStepConflict
	}
	return nil
}

func startRegistrationQuery(telegramID int64) (string, []interface{}, error) {
	return squirrel.
		Update("users").
		Set("registration_step", string(model.StepWaitingStudentType)).
		Set("payment_status", string(model.PaymentInProgress)).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		Where(squirrel.NotEq{"payment_status": string(model.PaymentPending)}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func (r *Repository) SetStudentType(ctx context.Context, telegramID int64, studentType model.StudentType) error {
	return r.advanceStep(ctx, telegramID, model.StepWaitingStudentType, model.StepWaitingName, map[string]interface{}{
		"student_type": string(studentType),
	})
}

func (r *Repository) SetName(ctx context.Context, telegramID int64, name string) error {
	return r.advanceStep(ctx, telegramID, model.StepWaitingName, model.StepWaitingPhone, map[string]interface{}{
		"name": name,
	})
}

func (r *Repository) SetPhone(ctx context.Context, telegramID int64, phone string) error {
	return r.advanceStep(ctx, telegramID, model.StepWaitingPhone, model.StepWaitingPaymentMethod, map[string]interface{}{
		"phone": phone,
	})
}

func (r *Repository) SetPaymentMethod(ctx context.Context, telegramID int64, method model.PaymentMethod) error {
	return r.advanceStep(ctx, telegramID, model.StepWaitingPaymentMethod, model.StepWaitingScreenshot, map[string]interface{}{
		"payment_method": string(method),
	})
}

// CancelRegistration resets the flow and clears every field collected during
// it, so a retry starts clean.
func (r *Repository) CancelRegistration(ctx context.Context, telegramID int64) error {
	query, args, err := cancelRegistrationQuery(telegramID)
	if err != nil {
		return fmt.Errorf("failed to build cancel query: %w", err)
	}
	return r.execUserUpdate(ctx, query, args)
}

func cancelRegistrationQuery(telegramID int64) (string, []interface{}, error) {
	return squirrel.
		Update("users").
		Set("registration_step", string(model.StepNotStarted)).
		Set("payment_status", string(model.PaymentNotStarted)).
		Set("student_type", "").
		Set("name", "").
		Set("phone", "").
		Set("payment_method", "").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

// SetPaymentPreference records the payout method and clears any previously
// stored account details, so selecting a method always restarts the account
// collection flow.
func (r *Repository) SetPaymentPreference(ctx context.Context, telegramID int64, method model.PaymentMethod) error {
	query, args, err := setPaymentPreferenceQuery(telegramID, method)
	if err != nil {
		return fmt.Errorf("failed to build preference update query: %w", err)
	}
	return r.execUserUpdate(ctx, query, args)
}

func setPaymentPreferenceQuery(telegramID int64, method model.PaymentMethod) (string, []interface{}, error) {
	return squirrel.
		Update("users").
		Set("payment_method_preference", string(method)).
		Set("account_number", "").
		Set("account_name", "").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
}

func (r *Repository) SetAccountNumber(ctx context.Context, telegramID int64, accountNumber string) error {
	return r.updateUser(ctx, telegramID, map[string]interface{}{
		"account_number": accountNumber,
	})
}

func (r *Repository) SetAccountName(ctx context.Context, telegramID int64, accountName string) error {
	return r.updateUser(ctx, telegramID, map[string]interface{}{
		"account_name": accountName,
	})
}

func (r *Repository) GetTopReferrers(ctx context.Context, limit int) ([]*model.User, error) {
	return r.selectUsers(ctx, squirrel.
		Select("*").
		From("users").
		Where(squirrel.Gt{"referral_count": 0}).
		OrderBy("referral_count DESC", "telegram_id ASC").
		Limit(uint64(limit)))
}

func (r *Repository) GetUserReferrals(ctx context.Context, referrerID int64) ([]*model.User, error) {
	return r.selectUsers(ctx, squirrel.
		Select("*").
		From("users").
		Where(squirrel.Eq{"referrer_id": referrerID}).
		OrderBy("joined_at ASC"))
}

func (r *Repository) ListUsers(ctx context.Context, limit int) ([]*model.User, error) {
	return r.selectUsers(ctx, squirrel.
		Select("*").
		From("users").
		OrderBy("joined_at ASC").
		Limit(uint64(limit)))
}

func (r *Repository) selectUsers(ctx context.Context, builder squirrel.SelectBuilder) ([]*model.User, error) {
	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build users select query: %w", err)
	}

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select users: %w", err)
	}

	users := make([]*model.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toModel()
	}
	return users, nil
}

// advanceStep performs a conditional step transition: the update only lands
// when the current step still equals the expected one.
func (r *Repository) advanceStep(ctx context.Context, telegramID int64, from, to model.RegistrationStep, set map[string]interface{}) error {
	builder := squirrel.
		Update("users").
		Set("registration_step", string(to)).
		Where(squirrel.Eq{
			"telegram_id":       telegramID,
			"registration_step": string(from),
		})
	for column, value := range set {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build step update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update registration step: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStepConflict
	}
	return nil
}

func (r *Repository) updateUser(ctx context.Context, telegramID int64, set map[string]interface{}) error {
	query, args, err := squirrel.
		Update("users").
		SetMap(set).
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build user update query: %w", err)
	}
	return r.execUserUpdate(ctx, query, args)
}

func (r *Repository) execUserUpdate(ctx context.Context, query string, args []interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

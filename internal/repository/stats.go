package repository

import (
	"context"
	"fmt"

	"tutorbot/internal/model"

	"github.com/Masterminds/squirrel"
)

type statsRow struct {
	TotalUsers         int `db:"total_users"`
	VerifiedUsers      int `db:"verified_users"`
	TotalReferrals     int `db:"total_referrals"`
	TotalRewards       int `db:"total_rewards"`
	PendingPayments    int `db:"pending_payments"`
	PendingWithdrawals int `db:"pending_withdrawals"`
}

// GetStats computes the aggregate projection in a single round trip.
func (r *Repository) GetStats(ctx context.Context) (*model.Stats, error) {
	query, args, err := squirrel.
		Select(
			"COUNT(*) AS total_users",
			"COUNT(*) FILTER (WHERE is_verified) AS verified_users",
			"COALESCE(SUM(referral_count), 0) AS total_referrals",
			"COALESCE(SUM(total_rewards), 0) AS total_rewards",
			"(SELECT COUNT(*) FROM payments WHERE status = 'pending') AS pending_payments",
			"(SELECT COUNT(*) FROM withdrawals WHERE status = 'pending') AS pending_withdrawals",
		).
		From("users").
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build stats query: %w", err)
	}

	var row statsRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("failed to select stats: %w", err)
	}

	return &model.Stats{
		TotalUsers:         row.TotalUsers,
		VerifiedUsers:      row.VerifiedUsers,
		PendingPayments:    row.PendingPayments,
		PendingWithdrawals: row.PendingWithdrawals,
		TotalReferrals:     row.TotalReferrals,
		TotalRewards:       row.TotalRewards,
	}, nil
}

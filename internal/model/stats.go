package model

// Stats is the read-only aggregate projection served by the health endpoint
// and the admin panel.
type Stats struct {
	TotalUsers         int
	VerifiedUsers      int
	PendingPayments    int
	PendingWithdrawals int
	TotalReferrals     int
	TotalRewards       int
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentDecision is the lifecycle of a submitted screenshot. It is terminal
// once approved or rejected.
type PaymentDecision string

const (
	DecisionPending  PaymentDecision = "pending"
	DecisionApproved PaymentDecision = "approved"
	DecisionRejected PaymentDecision = "rejected"
)

// Payment is one submitted payment screenshot awaiting an admin decision.
type Payment struct {
	ID             uuid.UUID
	UserTelegramID int64
	FileID         string
	PaymentMethod  PaymentMethod
	Status         PaymentDecision
	SubmittedAt    time.Time
}

// Withdrawal is one reward-withdrawal request. The amount is the user's full
// balance at submission time; the balance is debited in the same transaction
// that records the request.
type Withdrawal struct {
	ID             uuid.UUID
	UserTelegramID int64
	Amount         int
	AccountNumber  string
	AccountName    string
	PaymentMethod  PaymentMethod
	Status         PaymentDecision
	SubmittedAt    time.Time
}

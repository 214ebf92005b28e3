package model

import "time"

// RegistrationStep is the user's current position in the registration
// conversation. Steps only move along the edges enforced by the repository
// or reset to StepNotStarted on cancellation.
type RegistrationStep string

const (
	StepNotStarted           RegistrationStep = "not_started"
	StepWaitingStudentType   RegistrationStep = "waiting_student_type"
	StepWaitingName          RegistrationStep = "waiting_name"
	StepWaitingPhone         RegistrationStep = "waiting_phone"
	StepWaitingPaymentMethod RegistrationStep = "waiting_payment_method"
	StepWaitingScreenshot    RegistrationStep = "waiting_screenshot"
	StepCompleted            RegistrationStep = "completed"
)

type PaymentStatus string

const (
	PaymentNotStarted PaymentStatus = "not_started"
	PaymentInProgress PaymentStatus = "in_progress"
	PaymentPending    PaymentStatus = "pending"
	PaymentApproved   PaymentStatus = "approved"
	PaymentRejected   PaymentStatus = "rejected"
)

type StudentType string

const (
	StudentTypeSocial  StudentType = "Social Science"
	StudentTypeNatural StudentType = "Natural Science"
)

type PaymentMethod string

const (
	MethodTeleBirr PaymentMethod = "TeleBirr"
	MethodCBEBirr  PaymentMethod = "CBE Birr"
)

type User struct {
	TelegramID              int64
	FirstName               string
	Username                string
	IsVerified              bool
	RegistrationStep        RegistrationStep
	PaymentStatus           PaymentStatus
	StudentType             StudentType
	Name                    string
	Phone                   string
	PaymentMethod           PaymentMethod
	PaymentMethodPreference PaymentMethod
	AccountNumber           string
	AccountName             string
	ReferralCount           int
	Rewards                 int
	TotalRewards            int
	ReferrerID              *int64
	JoinedAt                time.Time
	Blocked                 bool
}

// HasPayoutAccount reports whether both withdrawal account fields are set.
func (u *User) HasPayoutAccount() bool {
	return u.AccountNumber != "" && u.AccountName != ""
}

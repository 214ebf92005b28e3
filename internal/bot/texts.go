package bot

import (
	"fmt"
	"strings"
	"time"

	"tutorbot/internal/model"
)

// Message builders. All texts are Markdown-formatted and mirror the
// button vocabulary in keyboards.go.

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}

func welcomeText(fee, reward int) string {
	return fmt.Sprintf(
		"🎯 *Welcome to Tutorial Registration Bot!*\n\n"+
			"📚 Register for our comprehensive tutorials\n"+
			"💰 Registration fee: %d ETB\n"+
			"🎁 Earn %d ETB per referral\n\n"+
			"Start your registration journey!",
		fee, reward)
}

func mainMenuText(fee, reward int) string {
	return fmt.Sprintf(
		"🎯 *TUTORIAL REGISTRATION*\n\n"+
			"📚 Register for comprehensive tutorials\n"+
			"💰 Registration fee: %d ETB\n"+
			"🎁 Earn %d ETB per referral\n\n"+
			"Choose an option below:",
		fee, reward)
}

func inProgressMenuText() string {
	return "🎯 *REGISTRATION IN PROGRESS*\n\n" +
		"You are currently in the registration process.\n" +
		"Use the buttons below for additional options:"
}

func blockedText() string {
	return "❌ You are blocked from using this bot."
}

func alreadyRegisteredText() string {
	return "✅ *You are already registered!*\n\n" +
		"Your account is verified and active."
}

func stepStudentTypeText() string {
	return "🎯 *REGISTRATION STEP 1/6*\n\n" +
		"Are you Social Science or Natural Science student?"
}

func stepNameText() string {
	return "🎯 *REGISTRATION STEP 2/6*\n\n" +
		"Enter your full name:"
}

func stepPhoneText() string {
	return "🎯 *REGISTRATION STEP 3/6*\n\n" +
		"Enter your phone number (with country code):"
}

func stepPaymentMethodText(fee int) string {
	return fmt.Sprintf(
		"🎯 *REGISTRATION STEP 4/6*\n\n"+
			"💰 *Registration fee:* %d ETB\n\n"+
			"Choose payment method:",
		fee)
}

func stepScreenshotText(fee int, method model.PaymentMethod) string {
	return fmt.Sprintf(
		"🎯 *REGISTRATION STEP 5/6*\n\n"+
			"Send your payment screenshot for verification:\n\n"+
			"💰 Amount: %d ETB\n"+
			"💳 Method: %s",
		fee, method)
}

func invalidPhoneText() string {
	return "❌ *Invalid phone number format*\n\n" +
		"Please enter a valid phone number with country code (e.g., +251912345678)"
}

func invalidNameText() string {
	return "❌ *Invalid name*\n\n" +
		"Please enter your full name as plain text."
}

func cancelledText() string {
	return "❌ *Registration cancelled.*\n\n" +
		"You can start again anytime."
}

func paymentPendingText() string {
	return "⏳ *Your payment is pending admin approval.*\n\n" +
		"You will be notified once it has been reviewed."
}

func paymentReceivedText(fee int, method model.PaymentMethod) string {
	return fmt.Sprintf(
		"✅ *Payment received!*\n\n"+
			"🎯 *Registration pending admin approval*\n\n"+
			"💰 Fee: %d ETB\n"+
			"💳 Method: %s\n"+
			"📱 Status: ⏳ Pending Approval",
		fee, method)
}

func invalidScreenshotText() string {
	return "❌ *Please send a valid image or document.*\n\n" +
		"Send a clear screenshot of your payment."
}

func uploadPromptText(fee int, method model.PaymentMethod) string {
	methodLabel := "Not selected"
	if method != "" {
		methodLabel = string(method)
	}
	return fmt.Sprintf(
		"📤 *UPLOAD PAYMENT SCREENSHOT*\n\n"+
			"Send your payment screenshot for verification:\n\n"+
			"💰 Fee: %d ETB\n"+
			"💳 Method: %s\n\n"+
			"Note: Complete registration first if not started.",
		fee, methodLabel)
}

func newPaymentCaption(u *model.User, fee int, submittedAt time.Time) string {
	return fmt.Sprintf(
		"🔔 *NEW PAYMENT RECEIVED*\n\n"+
			"👤 *User Information:*\n"+
			"• Name: %s\n"+
			"• Phone: %s\n"+
			"• Student Type: %s\n"+
			"• User ID: %d\n\n"+
			"💳 *Payment Details:*\n"+
			"• Method: %s\n"+
			"• Amount: %d ETB\n"+
			"• Status: Pending Approval\n"+
			"• Submitted: %s\n\n"+
			"⚡ *QUICK ACTIONS:*",
		u.Name, u.Phone, u.StudentType, u.TelegramID,
		u.PaymentMethod, fee, submittedAt.Format("2006-01-02 15:04:05"))
}

func profileText(u *model.User, minWithdrawal int, canWithdraw bool) string {
	status := "⏳ Pending Approval"
	if u.IsVerified {
		status = "✅ Verified"
	}
	withdraw := "❌ No"
	if canWithdraw {
		withdraw = "✅ Yes"
	}
	joined := "Not set"
	if !u.JoinedAt.IsZero() {
		joined = u.JoinedAt.Format("2006-01-02")
	}
	return fmt.Sprintf(
		"👤 *MY PROFILE*\n\n"+
			"📋 Name: %s\n"+
			"📱 Phone: %s\n"+
			"🎓 Student Type: %s\n"+
			"✅ Status: %s\n"+
			"👥 Referrals: %d\n"+
			"💰 Rewards: %d ETB\n"+
			"📊 Registration: %s\n"+
			"💳 Account: %s\n"+
			"👤 Account Name: %s\n\n"+
			"Can Withdraw: %s\n"+
			"Minimum for withdrawal: %d ETB",
		orNotSet(u.Name), orNotSet(u.Phone), orNotSet(string(u.StudentType)),
		status, u.ReferralCount, u.Rewards, joined,
		orNotSet(u.AccountNumber), orNotSet(u.AccountName),
		withdraw, minWithdrawal)
}

func inviteText(u *model.User, link string, reward int, canWithdraw bool) string {
	withdraw := "❌ No"
	if canWithdraw {
		withdraw = "✅ Yes"
	}
	return fmt.Sprintf(
		"🎁 *INVITE & EARN*\n\n"+
			"🔗 *Your Referral Link:*\n%s\n\n"+
			"📊 *Stats:*\n"+
			"• Referrals: %d\n"+
			"• Rewards: %d ETB\n"+
			"• Can Withdraw: %s\n\n"+
			"💰 *Earn %d ETB for each successful referral!*",
		link, u.ReferralCount, u.Rewards, withdraw, reward)
}

func leaderboardText(top []*model.User) string {
	if len(top) == 0 {
		return "📈 *LEADERBOARD*\n\n" +
			"📊 No referrals yet. Start inviting friends!"
	}
	var b strings.Builder
	b.WriteString("📈 *TOP REFERRERS*\n\n")
	for i, u := range top {
		fmt.Fprintf(&b, "%d. %s (%d referrals)\n", i+1, u.FirstName, u.ReferralCount)
	}
	return b.String()
}

func myReferralsText(referrals []*model.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *MY REFERRALS (%d)*\n\n", len(referrals))
	for i, u := range referrals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, u.FirstName)
	}
	return b.String()
}

func helpText(isAdmin bool) string {
	msg := "❓ *HELP & SUPPORT*\n\n" +
		"📚 *Registration Process:*\n" +
		"1. Click 'Register for Tutorial'\n" +
		"2. Choose your student type\n" +
		"3. Enter your details\n" +
		"4. Select payment method\n" +
		"5. Upload payment screenshot\n" +
		"6. Wait for admin approval\n\n" +
		"🎁 *Referral System:*\n" +
		"• Share your referral link\n" +
		"• Earn rewards for each successful referral\n" +
		"• Withdraw rewards when you reach minimum threshold\n\n" +
		"📊 *Features:*\n" +
		"• Track your referrals\n" +
		"• View leaderboard\n" +
		"• Check your profile\n\n" +
		"Need more help? Contact support!"
	if isAdmin {
		msg += "\n\n⚡ *ADMIN COMMANDS:*\n" +
			"/admin - Admin panel\n" +
			"/stats - Student statistics\n" +
			"/users - All users\n" +
			"/payments - Pending payments"
	}
	return msg
}

func rulesText() string {
	return "📌 *RULES & GUIDELINES*\n\n" +
		"✅ *Registration:*\n" +
		"• Provide accurate information\n" +
		"• Upload valid payment screenshot\n" +
		"• Follow payment instructions\n\n" +
		"🎁 *Referral System:*\n" +
		"• Referrals must be legitimate users\n" +
		"• No fake accounts allowed\n" +
		"• Rewards are paid after verification\n\n" +
		"⚠️ *Prohibited:*\n" +
		"• Spam or fake registrations\n" +
		"• Multiple accounts\n" +
		"• Violation of terms\n\n" +
		"By using this bot, you agree to these rules."
}

func payFeeText(fee int) string {
	return fmt.Sprintf(
		"💰 *PAYMENT INFORMATION*\n\n"+
			"Registration Fee: %d ETB\n\n"+
			"📱 *Payment Methods:*\n"+
			"• TeleBirr\n"+
			"• CBE Birr\n\n"+
			"📋 *Payment Instructions:*\n"+
			"1. Send %d ETB to our account\n"+
			"2. Take a screenshot of the transaction\n"+
			"3. Upload it using the bot\n"+
			"4. Wait for admin approval\n\n"+
			"⚠️ *Important:*\n"+
			"• Only send payment after registration\n"+
			"• Keep transaction receipt\n"+
			"• Contact admin if payment fails",
		fee, fee)
}

func insufficientFundsText(available, minimum int) string {
	return fmt.Sprintf(
		"❌ *Insufficient funds for withdrawal*\n\n"+
			"💰 Available: %d ETB\n"+
			"Minimum required: %d ETB\n\n"+
			"Continue earning referrals to reach the minimum!",
		available, minimum)
}

func payoutAccountMissingText() string {
	return "💳 *Payment account not set*\n\n" +
		"Please set your payment account first using the 'Change Payment Method' button."
}

func withdrawalSubmittedText(w *model.Withdrawal) string {
	return fmt.Sprintf(
		"✅ *Withdrawal request submitted!*\n\n"+
			"💰 Amount: %d ETB\n"+
			"💳 To: %s %s\n"+
			"Status: ⏳ Pending admin approval\n\n"+
			"You will be notified when approved.",
		w.Amount, w.PaymentMethod, w.AccountNumber)
}

func newWithdrawalNotice(u *model.User, w *model.Withdrawal) string {
	return fmt.Sprintf(
		"🔔 *NEW WITHDRAWAL REQUEST*\n\n"+
			"👤 User: %s\n"+
			"💰 Amount: %d ETB\n"+
			"💳 Method: %s\n"+
			"📱 Account: %s\n"+
			"🆔 User ID: %d",
		u.FirstName, w.Amount, w.PaymentMethod, w.AccountNumber, u.TelegramID)
}

func changeMethodPromptText() string {
	return "💳 *CHANGE PAYMENT METHOD*\n\n" +
		"Please select your preferred payment method:"
}

func preferenceSetText(method model.PaymentMethod) string {
	return fmt.Sprintf(
		"✅ *Payment method set to %s*\n\n"+
			"Now enter your %s account number:",
		method, method)
}

func accountNumberSetText(number string) string {
	return fmt.Sprintf(
		"✅ *Account number set: %s*\n\n"+
			"Now enter the account name as it appears on the account:",
		number)
}

func invalidAccountNumberText() string {
	return "❌ *Invalid account number format*\n\n" +
		"Please enter a valid phone number with country code (e.g., +251912345678)"
}

func accountNameSetText(name string) string {
	return fmt.Sprintf(
		"✅ *Account name set: %s*\n\n"+
			"Your payment method has been updated successfully!",
		name)
}

func approvedText(fee int) string {
	return fmt.Sprintf(
		"🎉 *REGISTRATION APPROVED!*\n\n"+
			"✅ Your registration has been approved!\n\n"+
			"📚 You can now access tutorials.\n"+
			"💰 Registration fee: %d ETB",
		fee)
}

func rejectedText() string {
	return "❌ *PAYMENT REJECTED*\n\n" +
		"Your payment has been rejected.\n\n" +
		"Please contact admin for more information."
}

func decisionConfirmationText(decision model.PaymentDecision, targetID int64) string {
	if decision == model.DecisionApproved {
		return fmt.Sprintf("✅ *Payment approved for user %d*", targetID)
	}
	return fmt.Sprintf("❌ *Payment rejected for user %d*", targetID)
}

func alreadyDecidedText() string {
	return "⚠️ This payment has already been processed."
}

func userDetailsText(u *model.User) string {
	verified := "No"
	if u.IsVerified {
		verified = "Yes"
	}
	joined := "N/A"
	if !u.JoinedAt.IsZero() {
		joined = u.JoinedAt.Format("2006-01-02")
	}
	return fmt.Sprintf(
		"🔍 *USER DETAILS*\n\n"+
			"👤 Name: %s\n"+
			"📱 Phone: %s\n"+
			"🎓 Type: %s\n"+
			"✅ Verified: %s\n"+
			"👥 Referrals: %d\n"+
			"💰 Rewards: %d ETB\n"+
			"📊 Joined: %s\n"+
			"💳 Account: %s\n"+
			"🆔 User ID: %d",
		orNotSet(u.Name), orNotSet(u.Phone), orNotSet(string(u.StudentType)),
		verified, u.ReferralCount, u.Rewards, joined,
		orNotSet(u.AccountNumber), u.TelegramID)
}

func adminPanelText(s *model.Stats) string {
	return fmt.Sprintf(
		"🛡️ *ADMIN PANEL*\n\n"+
			"📊 *Quick Stats:*\n"+
			"• Total Users: %d\n"+
			"• Verified Users: %d\n"+
			"• Pending Payments: %d\n"+
			"• Pending Withdrawals: %d\n"+
			"• Total Referrals: %d\n\n"+
			"Choose an admin function:",
		s.TotalUsers, s.VerifiedUsers, s.PendingPayments,
		s.PendingWithdrawals, s.TotalReferrals)
}

func adminStatsText(s *model.Stats) string {
	return fmt.Sprintf(
		"📊 *STUDENT STATISTICS*\n\n"+
			"👥 Total Users: %d\n"+
			"✅ Verified Users: %d\n"+
			"⏳ Pending Approvals: %d\n"+
			"💳 Pending Withdrawals: %d\n"+
			"💰 Total Referrals: %d\n"+
			"🎁 Total Rewards: %d ETB",
		s.TotalUsers, s.VerifiedUsers, s.PendingPayments,
		s.PendingWithdrawals, s.TotalReferrals, s.TotalRewards)
}

func manageStudentsText(users []*model.User) string {
	if len(users) == 0 {
		return "📊 No students found."
	}
	var b strings.Builder
	b.WriteString("👥 *MANAGE STUDENTS*\n\n")
	for _, u := range users {
		mark := "⏳"
		if u.IsVerified {
			mark = "✅"
		}
		fmt.Fprintf(&b, "• %s (%s) - %s - %s\n",
			u.FirstName, orNotSet(u.Phone), orNotSet(string(u.StudentType)), mark)
	}
	return b.String()
}

func reviewPaymentsText(payments []*model.Payment, names map[int64]string, fee int) string {
	if len(payments) == 0 {
		return "💰 No pending payments."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "💰 *PENDING PAYMENTS (%d)*\n\n", len(payments))
	for _, p := range payments {
		name := names[p.UserTelegramID]
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(&b, "• %s - %s - %d ETB\n", name, p.PaymentMethod, fee)
	}
	return b.String()
}

func pendingWithdrawalsText(withdrawals []*model.Withdrawal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💳 *PENDING WITHDRAWALS (%d)*\n\n", len(withdrawals))
	for _, w := range withdrawals {
		fmt.Fprintf(&b, "• User %d - %d ETB - %s %s\n",
			w.UserTelegramID, w.Amount, w.PaymentMethod, w.AccountNumber)
	}
	return b.String()
}

func notAuthorizedText() string {
	return "❌ You are not authorized to use admin commands."
}

func photoOutsideFlowText() string {
	return "📸 *Photo received*\n\n" +
		"Use the main menu to continue."
}

func genericErrorText() string {
	return "❌ An error occurred. Please try again."
}

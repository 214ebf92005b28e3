package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button labels form a closed vocabulary: the router matches free text
// against these constants before falling back to the current step.
const (
	ButtonRegister     = "📚 Register for Tutorial"
	ButtonPayFee       = "💰 Pay Tutorial Fee"
	ButtonUpload       = "📤 Upload Payment Screenshot"
	ButtonInviteEarn   = "🎁 Invite & Earn"
	ButtonLeaderboard  = "📈 Leaderboard"
	ButtonHelp         = "❓ Help"
	ButtonRules        = "📌 Rules"
	ButtonProfile      = "👤 My Profile"
	ButtonWithdraw     = "💰 Withdraw Rewards"
	ButtonChangeMethod = "💳 Change Payment Method"
	ButtonMyReferrals  = "📊 My Referrals"
	ButtonBackToMenu   = "🔙 Back to Menu"
	ButtonCancel       = "❌ Cancel Registration"

	ButtonSocialScience  = "📚 Social Science"
	ButtonNaturalScience = "🔬 Natural Science"
	ButtonTeleBirr       = "📱 TeleBirr"
	ButtonCBEBirr        = "🏦 CBE Birr"

	ButtonManageStudents = "👥 Manage Students"
	ButtonReviewPayments = "💰 Review Payments"
	ButtonStudentStats   = "📊 Student Stats"
	ButtonBackToAdmin    = "🔙 Back to Admin"
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonRegister),
			tgbotapi.NewKeyboardButton(ButtonPayFee),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonUpload),
			tgbotapi.NewKeyboardButton(ButtonInviteEarn),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonLeaderboard),
			tgbotapi.NewKeyboardButton(ButtonHelp),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonRules),
			tgbotapi.NewKeyboardButton(ButtonProfile),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

// inProgressKeyboard is the reduced menu shown while a registration flow is
// underway: informational options stay reachable, flow controls do not.
func inProgressKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonInviteEarn),
			tgbotapi.NewKeyboardButton(ButtonHelp),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonRules),
			tgbotapi.NewKeyboardButton(ButtonProfile),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func studentTypeKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonSocialScience),
			tgbotapi.NewKeyboardButton(ButtonNaturalScience),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonCancel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func paymentMethodKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonTeleBirr),
			tgbotapi.NewKeyboardButton(ButtonCBEBirr),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonCancel),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func paymentPreferenceKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonTeleBirr),
			tgbotapi.NewKeyboardButton(ButtonCBEBirr),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonBackToMenu),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func profileKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonWithdraw),
			tgbotapi.NewKeyboardButton(ButtonChangeMethod),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonMyReferrals),
			tgbotapi.NewKeyboardButton(ButtonBackToMenu),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func adminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonManageStudents),
			tgbotapi.NewKeyboardButton(ButtonReviewPayments),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonStudentStats),
			tgbotapi.NewKeyboardButton(ButtonBackToMenu),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func approvalKeyboard(targetID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", fmt.Sprintf("%s%d", callbackApprovePrefix, targetID)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", fmt.Sprintf("%s%d", callbackRejectPrefix, targetID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 View Details", fmt.Sprintf("%s%d", callbackDetailsPrefix, targetID)),
		),
	)
}

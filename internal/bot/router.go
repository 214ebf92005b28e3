package bot

import (
	"context"
	"strings"
	"time"

	"tutorbot/internal/metrics"
	"tutorbot/internal/model"
	"tutorbot/internal/service"
	"tutorbot/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const adminRosterLimit = 10

type Config struct {
	AdminIDs                []int64
	RegistrationFee         int
	ReferralReward          int
	MinReferralsForWithdraw int
}

// Router classifies incoming Telegram updates and dispatches them to the
// services. Updates for the same user are serialized through a keyed lock so
// concurrent webhook deliveries cannot interleave step transitions.
type Router struct {
	cfg          Config
	admins       map[int64]struct{}
	registration *service.RegistrationService
	referrals    *service.ReferralService
	approvals    *service.ApprovalService
	stats        *service.StatsService
	notifier     Sender
	metrics      *metrics.Metrics
	locks        *userLocks
}

func NewRouter(
	cfg Config,
	registration *service.RegistrationService,
	referrals *service.ReferralService,
	approvals *service.ApprovalService,
	stats *service.StatsService,
	notifier Sender,
	m *metrics.Metrics,
) *Router {
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	return &Router{
		cfg:          cfg,
		admins:       admins,
		registration: registration,
		referrals:    referrals,
		approvals:    approvals,
		stats:        stats,
		notifier:     notifier,
		metrics:      m,
		locks:        newUserLocks(),
	}
}

// HandleUpdate processes a single webhook update. A panic in any handler is
// recovered here: the user gets a generic error reply and the webhook
// response stays 200 so Telegram does not redeliver.
func (r *Router) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	kind := classifyUpdate(update)
	r.metrics.UpdatesReceived.WithLabelValues(kind).Inc()

	start := time.Now()
	defer func() {
		r.metrics.HandlerDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	}()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Logger().Error("panic while handling update",
				zap.String("kind", kind),
				zap.Any("panic", rec))
			r.metrics.Errors.WithLabelValues("router").Inc()
			if chatID := updateChatID(update); chatID != 0 {
				r.notifier.SendText(chatID, genericErrorText())
			}
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		r.handleMessage(ctx, update.Message)
	}
}

func classifyUpdate(update tgbotapi.Update) string {
	switch {
	case update.CallbackQuery != nil:
		return "callback"
	case update.Message != nil && update.Message.IsCommand():
		return "command"
	case update.Message != nil && (len(update.Message.Photo) > 0 || update.Message.Document != nil):
		return "attachment"
	case update.Message != nil:
		return "message"
	default:
		return "other"
	}
}

func updateChatID(update tgbotapi.Update) int64 {
	if update.Message != nil && update.Message.Chat != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		return update.CallbackQuery.From.ID
	}
	return 0
}

func (r *Router) isAdmin(userID int64) bool {
	_, ok := r.admins[userID]
	return ok
}

func (r *Router) requireAdmin(chatID, userID int64) bool {
	if r.isAdmin(userID) {
		return true
	}
	r.notifier.SendText(chatID, notAuthorizedText())
	return false
}

// ---- callbacks ----

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil {
		return
	}
	adminID := cb.From.ID
	if !r.isAdmin(adminID) {
		r.notifier.AnswerCallback(cb.ID, "❌ Not authorized")
		return
	}

	action, err := ParseCallback(cb.Data)
	if err != nil {
		logger.Logger().Warn("malformed callback payload",
			zap.String("data", cb.Data),
			zap.Error(err))
		r.notifier.AnswerCallback(cb.ID, "❌ Error processing request")
		return
	}

	unlock := r.locks.Lock(action.TargetID)
	defer unlock()

	switch action.Kind {
	case CallbackApprove:
		r.decidePayment(ctx, adminID, action.TargetID, model.DecisionApproved)
	case CallbackReject:
		r.decidePayment(ctx, adminID, action.TargetID, model.DecisionRejected)
	case CallbackDetails:
		user, err := r.approvals.Details(ctx, action.TargetID)
		if err != nil {
			r.fail(adminID, "approval", err)
			break
		}
		r.notifier.SendText(adminID, userDetailsText(user))
	}

	r.notifier.AnswerCallback(cb.ID, "")
}

func (r *Router) decidePayment(ctx context.Context, adminID, targetID int64, decision model.PaymentDecision) {
	var (
		user *model.User
		err  error
	)
	if decision == model.DecisionApproved {
		user, err = r.approvals.Approve(ctx, targetID)
	} else {
		user, err = r.approvals.Reject(ctx, targetID)
	}

	switch {
	case err == nil:
		r.metrics.AdminDecisions.WithLabelValues(string(decision)).Inc()
		if decision == model.DecisionApproved {
			r.notifier.SendText(user.TelegramID, approvedText(r.cfg.RegistrationFee))
		} else {
			r.notifier.SendText(user.TelegramID, rejectedText())
		}
		r.notifier.SendText(adminID, decisionConfirmationText(decision, targetID))
	case errors.Is(err, service.ErrAlreadyDecided):
		// Terminal decisions stay terminal: only the acting admin hears
		// about the repeat, the user is not re-notified.
		r.notifier.SendText(adminID, alreadyDecidedText())
	case errors.Is(err, service.ErrPaymentNotFound), errors.Is(err, service.ErrUserNotFound):
		logger.Logger().Warn("decision target missing",
			zap.Int64("target_id", targetID),
			zap.Error(err))
		r.notifier.SendText(adminID, "❌ No pending payment found for this user.")
	default:
		r.fail(adminID, "approval", err)
	}
}

// ---- messages ----

func (r *Router) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	unlock := r.locks.Lock(userID)
	defer unlock()

	var referrer *int64
	if msg.IsCommand() && msg.Command() == "start" {
		referrer = ParseReferralPayload(msg.CommandArguments())
	}

	user, _, err := r.referrals.EnsureUser(ctx, userID, msg.From.FirstName, msg.From.UserName, referrer)
	if err != nil {
		r.fail(chatID, "user", err)
		return
	}

	// Blocked users are cut off here, before any command or flow dispatch.
	if user.Blocked {
		r.notifier.SendText(chatID, blockedText())
		return
	}

	switch {
	case msg.IsCommand():
		r.handleCommand(ctx, msg, user)
	case len(msg.Photo) > 0 || msg.Document != nil:
		r.handleAttachment(ctx, msg, user)
	case msg.Contact != nil:
		r.handleContact(ctx, chatID, user, msg.Contact)
	case msg.Text != "":
		r.handleText(ctx, chatID, user, msg.Text)
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch msg.Command() {
	case "start":
		r.notifier.SendText(chatID, welcomeText(r.cfg.RegistrationFee, r.cfg.ReferralReward))
		r.sendMenu(chatID, user)
	case "help":
		r.notifier.SendText(chatID, helpText(r.isAdmin(userID)))
	case "admin":
		if r.requireAdmin(chatID, userID) {
			r.sendAdminPanel(ctx, chatID)
		}
	case "stats":
		if r.requireAdmin(chatID, userID) {
			r.sendAdminStats(ctx, chatID)
		}
	case "users":
		if r.requireAdmin(chatID, userID) {
			r.sendManageStudents(ctx, chatID)
		}
	case "payments":
		if r.requireAdmin(chatID, userID) {
			r.sendReviewPayments(ctx, chatID)
		}
	default:
		r.sendMenu(chatID, user)
	}
}

func (r *Router) handleAttachment(ctx context.Context, msg *tgbotapi.Message, user *model.User) {
	chatID := msg.Chat.ID

	if user.RegistrationStep != model.StepWaitingScreenshot {
		r.notifier.SendText(chatID, photoOutsideFlowText())
		r.sendMainMenu(chatID)
		return
	}

	fileID := attachmentFileID(msg)
	if fileID == "" {
		r.notifier.SendText(chatID, invalidScreenshotText())
		return
	}

	snapshot, err := r.registration.SubmitScreenshot(ctx, user.TelegramID, fileID)
	if err != nil {
		if errors.Is(err, service.ErrWrongStep) {
			r.notifier.SendText(chatID, photoOutsideFlowText())
			r.sendMainMenu(chatID)
			return
		}
		r.fail(chatID, "registration", err)
		return
	}

	r.notifier.SendText(chatID, paymentReceivedText(r.cfg.RegistrationFee, snapshot.PaymentMethod))

	caption := newPaymentCaption(snapshot, r.cfg.RegistrationFee, time.Now())
	kb := approvalKeyboard(user.TelegramID)
	r.notifier.BroadcastToAdmins(r.cfg.AdminIDs, func(adminID int64) {
		r.notifier.SendPhoto(adminID, fileID, caption, &kb)
	})

	r.sendMainMenu(chatID)
}

// attachmentFileID prefers the largest photo size and falls back to the
// document file.
func attachmentFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil {
		return msg.Document.FileID
	}
	return ""
}

// handleContact feeds a shared contact into whichever flow is waiting for a
// phone number. Telegram strips the '+' from shared contacts.
func (r *Router) handleContact(ctx context.Context, chatID int64, user *model.User, contact *tgbotapi.Contact) {
	phone := strings.TrimSpace(contact.PhoneNumber)
	if phone != "" && !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	switch {
	case user.RegistrationStep == model.StepWaitingPhone:
		r.submitPhone(ctx, chatID, user.TelegramID, phone)
	case user.PaymentMethodPreference != "" && user.AccountNumber == "":
		r.submitAccountNumber(ctx, chatID, user.TelegramID, phone)
	default:
		r.sendMenu(chatID, user)
	}
}

func (r *Router) handleText(ctx context.Context, chatID int64, user *model.User, text string) {
	userID := user.TelegramID

	switch text {
	case ButtonRegister:
		r.startRegistration(ctx, chatID, userID)
	case ButtonProfile:
		r.sendProfile(chatID, user)
	case ButtonInviteEarn:
		r.sendInvite(chatID, user)
	case ButtonLeaderboard:
		r.sendLeaderboard(ctx, chatID)
	case ButtonHelp:
		r.notifier.SendText(chatID, helpText(r.isAdmin(userID)))
	case ButtonRules:
		r.notifier.SendText(chatID, rulesText())
	case ButtonPayFee:
		r.notifier.SendText(chatID, payFeeText(r.cfg.RegistrationFee))
	case ButtonUpload:
		r.sendUploadPrompt(chatID, user)
	case ButtonWithdraw:
		r.handleWithdraw(ctx, chatID, user)
	case ButtonChangeMethod:
		r.notifier.SendTextWithKeyboard(chatID, changeMethodPromptText(), paymentPreferenceKeyboard())
	case ButtonMyReferrals:
		r.sendMyReferrals(ctx, chatID, userID)
	case ButtonSocialScience, ButtonNaturalScience:
		r.chooseStudentType(ctx, chatID, userID, text)
	case ButtonTeleBirr, ButtonCBEBirr:
		r.choosePaymentMethod(ctx, chatID, user, text)
	case ButtonCancel:
		r.cancelRegistration(ctx, chatID, userID)
	case ButtonBackToMenu:
		r.sendMainMenu(chatID)
	case ButtonManageStudents:
		if r.requireAdmin(chatID, userID) {
			r.sendManageStudents(ctx, chatID)
		}
	case ButtonReviewPayments:
		if r.requireAdmin(chatID, userID) {
			r.sendReviewPayments(ctx, chatID)
		}
	case ButtonStudentStats:
		if r.requireAdmin(chatID, userID) {
			r.sendAdminStats(ctx, chatID)
		}
	case ButtonBackToAdmin:
		if r.requireAdmin(chatID, userID) {
			r.sendAdminPanel(ctx, chatID)
		}
	default:
		r.handleFreeText(ctx, chatID, user, text)
	}
}

// handleFreeText routes unstructured input by the user's current state.
func (r *Router) handleFreeText(ctx context.Context, chatID int64, user *model.User, text string) {
	switch {
	case user.RegistrationStep == model.StepWaitingName:
		if err := r.registration.SubmitName(ctx, user.TelegramID, text); err != nil {
			if errors.Is(err, service.ErrInvalidName) {
				r.notifier.SendText(chatID, invalidNameText())
				return
			}
			r.fail(chatID, "registration", err)
			return
		}
		r.notifier.SendText(chatID, stepPhoneText())
	case user.RegistrationStep == model.StepWaitingPhone:
		r.submitPhone(ctx, chatID, user.TelegramID, text)
	case user.PaymentMethodPreference != "" && user.AccountNumber == "":
		r.submitAccountNumber(ctx, chatID, user.TelegramID, text)
	case user.AccountNumber != "" && user.AccountName == "":
		if err := r.referrals.SetPayoutAccountName(ctx, user.TelegramID, text); err != nil {
			if errors.Is(err, service.ErrInvalidName) {
				r.notifier.SendText(chatID, invalidNameText())
				return
			}
			r.fail(chatID, "payout", err)
			return
		}
		r.notifier.SendText(chatID, accountNameSetText(strings.TrimSpace(text)))
		r.sendMainMenu(chatID)
	default:
		r.sendMenu(chatID, user)
	}
}

// ---- registration flow ----

func (r *Router) startRegistration(ctx context.Context, chatID, userID int64) {
	err := r.registration.Start(ctx, userID)
	switch {
	case err == nil:
		r.metrics.RegistrationsNew.Inc()
		r.notifier.SendTextWithKeyboard(chatID, stepStudentTypeText(), studentTypeKeyboard())
	case errors.Is(err, service.ErrBlocked):
		r.notifier.SendText(chatID, blockedText())
	case errors.Is(err, service.ErrAlreadyVerified):
		r.notifier.SendText(chatID, alreadyRegisteredText())
		r.sendMainMenu(chatID)
	case errors.Is(err, service.ErrPaymentPending):
		r.notifier.SendText(chatID, paymentPendingText())
	default:
		r.fail(chatID, "registration", err)
	}
}

func (r *Router) chooseStudentType(ctx context.Context, chatID, userID int64, text string) {
	studentType := model.StudentTypeNatural
	if strings.Contains(text, "Social") {
		studentType = model.StudentTypeSocial
	}

	err := r.registration.ChooseStudentType(ctx, userID, studentType)
	switch {
	case err == nil:
		r.notifier.SendText(chatID, stepNameText())
	case errors.Is(err, service.ErrWrongStep):
		r.sendMainMenu(chatID)
	default:
		r.fail(chatID, "registration", err)
	}
}

func (r *Router) submitPhone(ctx context.Context, chatID, userID int64, phone string) {
	err := r.registration.SubmitPhone(ctx, userID, phone)
	switch {
	case err == nil:
		r.notifier.SendTextWithKeyboard(chatID,
			stepPaymentMethodText(r.cfg.RegistrationFee), paymentMethodKeyboard())
	case errors.Is(err, service.ErrInvalidPhone):
		// Bad input keeps the user in the phone step.
		r.notifier.SendText(chatID, invalidPhoneText())
	case errors.Is(err, service.ErrWrongStep):
		r.sendMainMenu(chatID)
	default:
		r.fail(chatID, "registration", err)
	}
}

// choosePaymentMethod routes the shared TeleBirr / CBE Birr buttons by state:
// inside the registration flow they select the fee payment method, everywhere
// else they set the withdrawal preference.
func (r *Router) choosePaymentMethod(ctx context.Context, chatID int64, user *model.User, text string) {
	method := model.MethodCBEBirr
	if strings.Contains(text, "Tele") {
		method = model.MethodTeleBirr
	}

	if user.RegistrationStep == model.StepWaitingPaymentMethod {
		err := r.registration.ChoosePaymentMethod(ctx, user.TelegramID, method)
		switch {
		case err == nil:
			r.notifier.SendText(chatID, stepScreenshotText(r.cfg.RegistrationFee, method))
		case errors.Is(err, service.ErrWrongStep):
			r.sendMainMenu(chatID)
		default:
			r.fail(chatID, "registration", err)
		}
		return
	}

	if err := r.referrals.SetPayoutPreference(ctx, user.TelegramID, method); err != nil {
		r.fail(chatID, "payout", err)
		return
	}
	r.notifier.SendText(chatID, preferenceSetText(method))
}

func (r *Router) submitAccountNumber(ctx context.Context, chatID, userID int64, text string) {
	err := r.referrals.SetPayoutAccountNumber(ctx, userID, strings.TrimSpace(text))
	switch {
	case err == nil:
		r.notifier.SendText(chatID, accountNumberSetText(strings.TrimSpace(text)))
	case errors.Is(err, service.ErrInvalidPhone):
		r.notifier.SendText(chatID, invalidAccountNumberText())
	default:
		r.fail(chatID, "payout", err)
	}
}

func (r *Router) cancelRegistration(ctx context.Context, chatID, userID int64) {
	if err := r.registration.Cancel(ctx, userID); err != nil {
		r.fail(chatID, "registration", err)
		return
	}
	r.notifier.SendText(chatID, cancelledText())
	r.sendMainMenu(chatID)
}

// ---- user views ----

func (r *Router) sendMenu(chatID int64, user *model.User) {
	switch user.RegistrationStep {
	case model.StepNotStarted, model.StepCompleted:
		r.sendMainMenu(chatID)
	default:
		r.notifier.SendTextWithKeyboard(chatID, inProgressMenuText(), inProgressKeyboard())
	}
}

func (r *Router) sendMainMenu(chatID int64) {
	r.notifier.SendTextWithKeyboard(chatID,
		mainMenuText(r.cfg.RegistrationFee, r.cfg.ReferralReward), mainMenuKeyboard())
}

func (r *Router) sendProfile(chatID int64, user *model.User) {
	r.notifier.SendTextWithKeyboard(chatID,
		profileText(user, r.referrals.MinWithdrawal(), r.referrals.CanWithdraw(user)),
		profileKeyboard())
}

func (r *Router) sendInvite(chatID int64, user *model.User) {
	r.notifier.SendText(chatID, inviteText(
		user,
		r.referrals.ReferralLink(user.TelegramID),
		r.cfg.ReferralReward,
		r.referrals.CanWithdraw(user)))
}

func (r *Router) sendLeaderboard(ctx context.Context, chatID int64) {
	top, err := r.referrals.Leaderboard(ctx)
	if err != nil {
		r.fail(chatID, "referral", err)
		return
	}
	r.notifier.SendText(chatID, leaderboardText(top))
}

func (r *Router) sendMyReferrals(ctx context.Context, chatID, userID int64) {
	referrals, err := r.referrals.MyReferrals(ctx, userID)
	if err != nil {
		r.fail(chatID, "referral", err)
		return
	}
	r.notifier.SendText(chatID, myReferralsText(referrals))
}

func (r *Router) sendUploadPrompt(chatID int64, user *model.User) {
	if user.IsVerified {
		r.notifier.SendText(chatID, alreadyRegisteredText())
		r.sendMainMenu(chatID)
		return
	}
	r.notifier.SendText(chatID, uploadPromptText(r.cfg.RegistrationFee, user.PaymentMethod))
}

func (r *Router) handleWithdraw(ctx context.Context, chatID int64, user *model.User) {
	withdrawal, err := r.referrals.Withdraw(ctx, user.TelegramID)
	switch {
	case errors.Is(err, service.ErrNotEligible):
		r.notifier.SendText(chatID,
			insufficientFundsText(user.Rewards, r.referrals.MinWithdrawal()))
		return
	case errors.Is(err, service.ErrPayoutAccountMissing):
		r.notifier.SendText(chatID, payoutAccountMissingText())
		return
	case err != nil:
		r.fail(chatID, "withdrawal", err)
		return
	}

	r.notifier.SendText(chatID, withdrawalSubmittedText(withdrawal))

	notice := newWithdrawalNotice(user, withdrawal)
	r.notifier.BroadcastToAdmins(r.cfg.AdminIDs, func(adminID int64) {
		r.notifier.SendText(adminID, notice)
	})
}

// ---- admin views ----

func (r *Router) sendAdminPanel(ctx context.Context, chatID int64) {
	stats, err := r.stats.Stats(ctx)
	if err != nil {
		r.fail(chatID, "stats", err)
		return
	}
	r.notifier.SendTextWithKeyboard(chatID, adminPanelText(stats), adminKeyboard())
}

func (r *Router) sendAdminStats(ctx context.Context, chatID int64) {
	stats, err := r.stats.Stats(ctx)
	if err != nil {
		r.fail(chatID, "stats", err)
		return
	}
	r.notifier.SendTextWithKeyboard(chatID, adminStatsText(stats), adminKeyboard())
}

func (r *Router) sendManageStudents(ctx context.Context, chatID int64) {
	users, err := r.approvals.ListUsers(ctx, adminRosterLimit)
	if err != nil {
		r.fail(chatID, "approval", err)
		return
	}
	r.notifier.SendTextWithKeyboard(chatID, manageStudentsText(users), adminKeyboard())
}

func (r *Router) sendReviewPayments(ctx context.Context, chatID int64) {
	payments, err := r.approvals.ListPendingPayments(ctx)
	if err != nil {
		r.fail(chatID, "approval", err)
		return
	}

	names := make(map[int64]string, len(payments))
	for _, p := range payments {
		if _, ok := names[p.UserTelegramID]; ok {
			continue
		}
		user, err := r.approvals.Details(ctx, p.UserTelegramID)
		if err != nil {
			continue
		}
		names[p.UserTelegramID] = user.FirstName
	}

	r.notifier.SendTextWithKeyboard(chatID,
		reviewPaymentsText(payments, names, r.cfg.RegistrationFee), adminKeyboard())

	withdrawals, err := r.referrals.PendingWithdrawals(ctx)
	if err != nil {
		r.fail(chatID, "withdrawal", err)
		return
	}
	if len(withdrawals) > 0 {
		r.notifier.SendText(chatID, pendingWithdrawalsText(withdrawals))
	}
}

func (r *Router) fail(chatID int64, component string, err error) {
	logger.Logger().Error("handler error",
		zap.String("component", component),
		zap.Int64("chat_id", chatID),
		zap.Error(err))
	r.metrics.Errors.WithLabelValues(component).Inc()
	r.notifier.SendText(chatID, genericErrorText())
}

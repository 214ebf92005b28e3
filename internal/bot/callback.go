package bot

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	callbackApprovePrefix = "admin_approve_"
	callbackRejectPrefix  = "admin_reject_"
	callbackDetailsPrefix = "admin_details_"
)

type CallbackKind int

const (
	CallbackUnknown CallbackKind = iota
	CallbackApprove
	CallbackReject
	CallbackDetails
)

// CallbackAction is a parsed inline-callback payload.
type CallbackAction struct {
	Kind     CallbackKind
	TargetID int64
}

var errMalformedCallback = errors.New("malformed callback payload")

// ParseCallback decodes the `_`-delimited admin payload grammar. Malformed
// ids are rejected, never panicked on.
func ParseCallback(data string) (CallbackAction, error) {
	var (
		kind CallbackKind
		raw  string
	)
	switch {
	case strings.HasPrefix(data, callbackApprovePrefix):
		kind, raw = CallbackApprove, strings.TrimPrefix(data, callbackApprovePrefix)
	case strings.HasPrefix(data, callbackRejectPrefix):
		kind, raw = CallbackReject, strings.TrimPrefix(data, callbackRejectPrefix)
	case strings.HasPrefix(data, callbackDetailsPrefix):
		kind, raw = CallbackDetails, strings.TrimPrefix(data, callbackDetailsPrefix)
	default:
		return CallbackAction{}, errors.Wrapf(errMalformedCallback, "unrecognized payload %q", data)
	}

	targetID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || targetID <= 0 {
		return CallbackAction{}, errors.Wrapf(errMalformedCallback, "bad target id %q", raw)
	}

	return CallbackAction{Kind: kind, TargetID: targetID}, nil
}

// ParseReferralPayload extracts the referrer id from a /start deep-link
// payload of the form "ref_<id>". Anything else yields nil.
func ParseReferralPayload(payload string) *int64 {
	payload = strings.TrimSpace(payload)
	if !strings.HasPrefix(payload, "ref_") {
		return nil
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(payload, "ref_"), 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

package crowdfund

import (
	"errors"
	"fmt"
)

// Code is a machine-readable rejection code
type Code string

const (
	CodeInvalidArgs            Code = "INVALID_ARGS"
	CodeProjectNotFound        Code = "PROJECT_NOT_FOUND"
	CodeFundingClosed          Code = "FUNDING_CLOSED"
	CodeMalformedTransferGroup Code = "MALFORMED_TRANSFER_GROUP"
	CodeUnauthorized           Code = "UNAUTHORIZED"
	CodeTargetNotReached       Code = "TARGET_NOT_REACHED"
	CodeTargetReached          Code = "TARGET_REACHED"
	CodeDeadlineNotReached     Code = "DEADLINE_NOT_REACHED"
	CodeAlreadyFinalized       Code = "ALREADY_FINALIZED"
	CodeNothingToRefund        Code = "NOTHING_TO_REFUND"
	CodeBelowThreshold         Code = "BELOW_THRESHOLD"
	CodeAlreadyRewarded        Code = "ALREADY_REWARDED"

	// CodeActionFailed is raised by hosts when a queued action cannot be honored
	CodeActionFailed Code = "ACTION_FAILED"
)

// Rejection is a domain-level reason a request was declined
type Rejection struct {
	Code    Code
	Message string
}

func (r *Rejection) Error() string {
	if r.Message == "" {
		return string(r.Code)
	}
	return fmt.Sprintf("%s: %s", r.Code, r.Message)
}

// Is matches any rejection carrying the same code
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Code == r.Code
}

// Sentinels for errors.Is
var (
	ErrInvalidArgs            = &Rejection{Code: CodeInvalidArgs}
	ErrProjectNotFound        = &Rejection{Code: CodeProjectNotFound}
	ErrFundingClosed          = &Rejection{Code: CodeFundingClosed}
	ErrMalformedTransferGroup = &Rejection{Code: CodeMalformedTransferGroup}
	ErrUnauthorized           = &Rejection{Code: CodeUnauthorized}
	ErrTargetNotReached       = &Rejection{Code: CodeTargetNotReached}
	ErrTargetReached          = &Rejection{Code: CodeTargetReached}
	ErrDeadlineNotReached     = &Rejection{Code: CodeDeadlineNotReached}
	ErrAlreadyFinalized       = &Rejection{Code: CodeAlreadyFinalized}
	ErrNothingToRefund        = &Rejection{Code: CodeNothingToRefund}
	ErrBelowThreshold         = &Rejection{Code: CodeBelowThreshold}
	ErrAlreadyRewarded        = &Rejection{Code: CodeAlreadyRewarded}
	ErrActionFailed           = &Rejection{Code: CodeActionFailed}
)

// Reject builds a rejection with a formatted message
func Reject(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsRejection extracts the rejection from err, if any
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

package usecase

import "fmt"

type ErrorCode string

const (
	// ErrorInvalidQuery is a caller error and is never retried.
	ErrorInvalidQuery ErrorCode = "INVALID_QUERY"
	// ErrorUpstream means the intelligence service could not be reached or
	// answered with a failure status. Kept distinct from an Empty answer.
	ErrorUpstream ErrorCode = "UPSTREAM_ERROR"
	// ErrorFeedbackDelivery is non-fatal: feedback loss is acceptable and
	// the conversation is unaffected.
	ErrorFeedbackDelivery ErrorCode = "FEEDBACK_DELIVERY_FAILED"
	ErrorInternal         ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

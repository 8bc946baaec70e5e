package booking

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidSchedule           ErrorKind = "InvalidSchedule"
	KindConflictActiveAppointment ErrorKind = "ConflictActiveAppointment"
	KindNotFound                  ErrorKind = "NotFound"
	KindCancellationTooLate       ErrorKind = "CancellationTooLate"
	KindStoreUnavailable          ErrorKind = "StoreUnavailable"
	KindMalformedInput            ErrorKind = "MalformedInput"
)

var (
	ErrInvalidSchedule           = errors.New("invalid schedule")
	ErrConflictActiveAppointment = errors.New("active appointment already exists")
	ErrNotFound                  = errors.New("appointment not found")
	ErrCancellationTooLate       = errors.New("cancellation too late")
	ErrStoreUnavailable          = errors.New("appointment store unavailable")
	ErrMalformedInput            = errors.New("malformed input")
)

// storeUnavailableMessage is what callers see for any store failure; details go to the log.
const storeUnavailableMessage = "The appointment service is temporarily unavailable. Please try again later."

var sentinels = map[ErrorKind]error{
	KindInvalidSchedule:           ErrInvalidSchedule,
	KindConflictActiveAppointment: ErrConflictActiveAppointment,
	KindNotFound:                  ErrNotFound,
	KindCancellationTooLate:       ErrCancellationTooLate,
	KindStoreUnavailable:          ErrStoreUnavailable,
	KindMalformedInput:            ErrMalformedInput,
}

// Error is a booking failure with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the tagged outcome of every engine operation.
type Result struct {
	Status  Status    `json:"status"`
	Kind    ErrorKind `json:"kind,omitempty"`
	Message string    `json:"message"`
	Payload any       `json:"payload,omitempty"`
}

func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Err returns nil for success, otherwise an *Error matching the result kind.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Kind: r.Kind, Message: r.Message}
}

func success(message string, payload any) Result {
	return Result{
		Status:  StatusSuccess,
		Message: message,
		Payload: payload,
	}
}

func failure(err error) Result {
	var be *Error
	if errors.As(err, &be) {
		return Result{
			Status:  StatusError,
			Kind:    be.Kind,
			Message: be.Message,
		}
	}
	return Result{
		Status:  StatusError,
		Kind:    KindStoreUnavailable,
		Message: storeUnavailableMessage,
	}
}

package service

import (
	"errors"
	"fmt"
)

// Kind classifies a booking failure.  The HTTP layer maps each kind to a
// status code.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindBusinessLogic
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBusinessLogic:
		return "business_logic"
	case KindValidation:
		return "validation"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Machine-readable error codes.
const (
	CodeNotFound                  = "NOT_FOUND"
	CodeSeatAlreadyBooked         = "SEAT_ALREADY_BOOKED"
	CodeSeatLocked                = "SEAT_LOCKED"
	CodeBusinessLogic             = "BUSINESS_LOGIC_ERROR"
	CodeReservationNotCancellable = "RESERVATION_NOT_CANCELLABLE"
	CodeValidation                = "VALIDATION_ERROR"
)

// Error is the typed failure returned by every booking operation.
// Details carries the offending identifiers, for example the seat ids
// that conflicted.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string { return e.Message }

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a *Error of kind k.
func IsKind(err error, k Kind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == k
}

func notFound(msg string, details map[string]interface{}) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: msg, Details: details}
}

func seatAlreadyBooked(seatIDs []uint64) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeSeatAlreadyBooked,
		Message: "one or more seats are already booked",
		Details: map[string]interface{}{"seat_ids": seatIDs},
	}
}

func seatLocked(seatIDs []uint64) *Error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeSeatLocked,
		Message: "one or more seats are locked by another user",
		Details: map[string]interface{}{"seat_ids": seatIDs},
	}
}

func businessLogic(msg string, details map[string]interface{}) *Error {
	return &Error{Kind: KindBusinessLogic, Code: CodeBusinessLogic, Message: msg, Details: details}
}

func notCancellable(reason string) *Error {
	return &Error{
		Kind:    KindBusinessLogic,
		Code:    CodeReservationNotCancellable,
		Message: "reservation cannot be cancelled: " + reason,
		Details: map[string]interface{}{"reason": reason},
	}
}

func validation(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: msg}
}

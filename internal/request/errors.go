package request

import "fmt"

// Kind classifies the failures the lifecycle manager reports to callers.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidState
	KindCapacityExceeded
	KindInvalidDate
	KindInvalidTransition
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindCapacityExceeded:
		return "CAPACITY_EXCEEDED"
	case KindInvalidDate:
		return "INVALID_DATE"
	case KindInvalidTransition:
		return "INVALID_TRANSITION"
	}
	return "UNKNOWN"
}

// Error is a domain failure. Anything else coming out of the manager is an
// infrastructure error.
type Error struct {
	Kind    Kind
	Message string

	// Capacity is set for KindCapacityExceeded.
	Capacity int
	// Bound names the violated date field for KindInvalidDate.
	Bound string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return e.Message
}

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound) works
// regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidState      = &Error{Kind: KindInvalidState}
	ErrCapacityExceeded  = &Error{Kind: KindCapacityExceeded}
	ErrInvalidDate       = &Error{Kind: KindInvalidDate}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
)

const (
	BoundCheckIn  = "checkInDate"
	BoundCheckOut = "checkOutDate"
)

func notFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

func invalidState(msg string) *Error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

func capacityExceeded(capacity int) *Error {
	return &Error{
		Kind:     KindCapacityExceeded,
		Message:  fmt.Sprintf("number of guests exceeds property capacity (%d)", capacity),
		Capacity: capacity,
	}
}

func invalidDate(bound string) *Error {
	label := "check-in"
	if bound == BoundCheckOut {
		label = "check-out"
	}
	return &Error{
		Kind:    KindInvalidDate,
		Message: label + " date cannot be after property expiration date",
		Bound:   bound,
	}
}

func invalidTransition(a Action) *Error {
	return &Error{Kind: KindInvalidTransition, Message: "only pending requests can be " + a.Past()}
}

package request

import (
	"fmt"
	"strings"
)

// Status is a booking request's lifecycle state. The numeric values are the
// wire format the web client uses.
type Status int

const (
	StatusPending Status = iota + 1
	StatusApproved
	StatusRejected
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusApproved:
		return "approved"
	case StatusRejected:
		return "rejected"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, nil
	case "approved":
		return StatusApproved, nil
	case "rejected":
		return StatusRejected, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return 0, fmt.Errorf("unknown request status: %s", s)
	}
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// Action is a transition a caller can ask for.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionCancel  Action = "cancel"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject, ActionCancel:
		return Action(s), nil
	default:
		return "", fmt.Errorf("unknown action: %s", s)
	}
}

// Target is the status an action moves a pending request into.
func (a Action) Target() Status {
	switch a {
	case ActionApprove:
		return StatusApproved
	case ActionReject:
		return StatusRejected
	case ActionCancel:
		return StatusCancelled
	}
	return 0
}

// Past is the participle used in messages ("approved").
func (a Action) Past() string {
	switch a {
	case ActionApprove:
		return "approved"
	case ActionReject:
		return "rejected"
	case ActionCancel:
		return "cancelled"
	}
	return string(a)
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusPending:   {StatusApproved: true, StatusRejected: true, StatusCancelled: true},
	StatusApproved:  {},
	StatusRejected:  {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

// Apply returns the status s moves to under a, or an InvalidTransition error.
func (s Status) Apply(a Action) (Status, error) {
	next := a.Target()
	if next == 0 {
		return s, fmt.Errorf("unknown action: %s", a)
	}
	if !CanTransition(s, next) {
		return s, invalidTransition(a)
	}
	return next, nil
}

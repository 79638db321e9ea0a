package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTransition is returned for a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the audit lifecycle position. The main chain is ordered
// NEW < IN_PROGRESS < SUBMITTED < ENDED < CLOSED; CANCELLED and REPLACED are
// absorbing side exits.
type Status int

const (
	StatusNew        Status = 1
	StatusInProgress Status = 2
	StatusSubmitted  Status = 3
	StatusEnded      Status = 4
	StatusClosed     Status = 5
	StatusCancelled  Status = 6
	StatusReplaced   Status = 7
)

var statusNames = map[Status]string{
	StatusNew:        "NEW",
	StatusInProgress: "IN_PROGRESS",
	StatusSubmitted:  "SUBMITTED",
	StatusEnded:      "ENDED",
	StatusClosed:     "CLOSED",
	StatusCancelled:  "CANCELLED",
	StatusReplaced:   "REPLACED",
}

var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusSubmitted, StatusCancelled, StatusReplaced},
	StatusInProgress: {StatusInProgress, StatusSubmitted, StatusCancelled, StatusReplaced},
	StatusSubmitted:  {StatusEnded},
	StatusEnded:      {StatusClosed},
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus accepts either the name or the numeric code.
func ParseStatus(value string) (Status, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	for status, name := range statusNames {
		if name == trimmed || fmt.Sprint(int(status)) == trimmed {
			return status, nil
		}
	}
	return 0, fmt.Errorf("invalid audit status: %s", value)
}

// StatusFromCode validates a stored numeric code.
func StatusFromCode(code int) (Status, error) {
	status := Status(code)
	if _, ok := statusNames[status]; !ok {
		return 0, fmt.Errorf("invalid audit status code: %d", code)
	}
	return status, nil
}

// IsEditable reports whether scores and section evaluations may still change.
func (s Status) IsEditable() bool {
	return s == StatusNew || s == StatusInProgress
}

// IsTerminal reports states with no outgoing transition.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled || s == StatusReplaced
}

// CanTransitionTo reports whether the lifecycle allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TransitionError names the refused transition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move audit from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

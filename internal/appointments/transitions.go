package appointments

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid appointment status transition")

// allowed is the strict workflow. Completed is terminal.
var allowed = map[Status][]Status{
	StatusRequested: {StatusScheduled, StatusConfirmed, StatusDeclined, StatusCancelled},
	StatusScheduled: {StatusConfirmed, StatusDeclined, StatusCancelled, StatusCompleted},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusDeclined},
	StatusDeclined:  {StatusRequested, StatusScheduled},
	StatusCancelled: {StatusRequested},
}

// TransitionError names the rejected move. It matches ErrInvalidTransition.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move appointment from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// Rules decides which status writes are accepted.
type Rules struct {
	permissive bool
}

// NewRules returns strict rules unless mode is "permissive".
func NewRules(mode string) Rules {
	return Rules{permissive: mode == "permissive"}
}

func (r Rules) Permissive() bool { return r.permissive }

// Check returns nil when from -> to is accepted. Writing the current status
// again is always accepted.
func (r Rules) Check(from, to Status) error {
	if r.permissive || from == to {
		return nil
	}
	for _, s := range allowed[from] {
		if s == to {
			return nil
		}
	}
	return &TransitionError{From: from, To: to}
}

// Targets lists the statuses reachable from from under strict rules.
func Targets(from Status) []Status {
	out := make([]Status, len(allowed[from]))
	copy(out, allowed[from])
	return out
}

package services

import (
	"fmt"

	models "github.com/phillip/event-easy-go/models"
)

// TransitionPolicy decides which status changes SetStatus may apply.
type TransitionPolicy interface {
	Allowed(from, to models.EventStatus) bool
}

// PermissivePolicy allows any move into approved or rejected, including reversing an
// earlier decision.
type PermissivePolicy struct{}

func (PermissivePolicy) Allowed(_, to models.EventStatus) bool {
	return to == models.StatusApproved || to == models.StatusRejected
}

// StrictPolicy only lets a pending event be decided once. Re-applying the current status is
// a no-op and allowed.
type StrictPolicy struct{}

func (StrictPolicy) Allowed(from, to models.EventStatus) bool {
	if to != models.StatusApproved && to != models.StatusRejected {
		return false
	}
	return from == models.StatusPending || from == to
}

func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "permissive":
		return PermissivePolicy{}, nil
	case "strict":
		return StrictPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown status policy %q", name)
}

package domain

import (
	"fmt"
	"strings"
)

type POStatus string

const (
	POStatusDraft     POStatus = "draft"
	POStatusConfirmed POStatus = "confirmed"
	POStatusProducing POStatus = "producing"
	POStatusShipped   POStatus = "shipped"
	POStatusArrived   POStatus = "arrived"
	POStatusCancelled POStatus = "cancelled"
)

// poForward is the receiving path; cancellation is allowed from every state on it
// except arrived.
var poForward = map[POStatus]POStatus{
	POStatusDraft:     POStatusConfirmed,
	POStatusConfirmed: POStatusProducing,
	POStatusProducing: POStatusShipped,
	POStatusShipped:   POStatusArrived,
}

var poTransitions = map[POStatus][]POStatus{
	POStatusDraft:     {POStatusConfirmed, POStatusCancelled},
	POStatusConfirmed: {POStatusProducing, POStatusCancelled},
	POStatusProducing: {POStatusShipped, POStatusCancelled},
	POStatusShipped:   {POStatusArrived, POStatusCancelled},
	POStatusArrived:   {},
	POStatusCancelled: {},
}

func ParsePOStatus(raw string) (POStatus, error) {
	status := POStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.IsValid() {
		return "", NewValidationError("invalid purchase order status", raw)
	}
	return status, nil
}

func (s POStatus) IsValid() bool {
	_, ok := poTransitions[s]
	return ok
}

func (s POStatus) IsTerminal() bool {
	return s == POStatusArrived || s == POStatusCancelled
}

// HasInTransit reports whether an order in this status owns an in-transit row.
func (s POStatus) HasInTransit() bool {
	return s.IsValid() && !s.IsTerminal()
}

func (s POStatus) CanTransitionTo(next POStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the successors of s.
func (s POStatus) AllowedTransitions() []POStatus {
	return append([]POStatus(nil), poTransitions[s]...)
}

// CheckTransition validates from -> to, returning an ErrInvalidTransition error
// that names both states.
func CheckTransition(from, to POStatus) error {
	if !to.IsValid() {
		return NewValidationError("invalid purchase order status", string(to))
	}
	if !from.CanTransitionTo(to) {
		return invalidTransition(string(from), string(to))
	}
	return nil
}

// NextStatus resolves the target of a confirm request: the requested status when
// given, otherwise the forward successor.
func NextStatus(from POStatus, requested string) (POStatus, error) {
	if strings.TrimSpace(requested) != "" {
		to, err := ParsePOStatus(requested)
		if err != nil {
			return "", err
		}
		if err := CheckTransition(from, to); err != nil {
			return "", err
		}
		return to, nil
	}
	next, ok := poForward[from]
	if !ok {
		return "", fmt.Errorf("%w: status %s has no next status", ErrInvalidTransition, from)
	}
	return next, nil
}

// PathTo lists the forward statuses needed to walk from draft to target.
// Cancelled is reached directly from draft.
func PathTo(target POStatus) ([]POStatus, error) {
	if !target.IsValid() {
		return nil, NewValidationError("invalid purchase order status", string(target))
	}
	if target == POStatusCancelled {
		return []POStatus{POStatusCancelled}, nil
	}
	path := []POStatus{}
	for current := POStatusDraft; current != target; {
		next, ok := poForward[current]
		if !ok {
			return nil, invalidTransition(string(POStatusDraft), string(target))
		}
		path = append(path, next)
		current = next
	}
	return path, nil
}

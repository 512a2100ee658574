package enums

import "fmt"

// GroupOrderState maps to the group_order_state enum in Postgres.
type GroupOrderState string

const (
	GroupOrderStateOpen       GroupOrderState = "open"
	GroupOrderStateFinalizing GroupOrderState = "finalizing"
	GroupOrderStateFinalized  GroupOrderState = "finalized"
	GroupOrderStateExpired    GroupOrderState = "expired"
	GroupOrderStateCancelled  GroupOrderState = "cancelled"
)

var validGroupOrderStates = []GroupOrderState{
	GroupOrderStateOpen,
	GroupOrderStateFinalizing,
	GroupOrderStateFinalized,
	GroupOrderStateExpired,
	GroupOrderStateCancelled,
}

// String implements fmt.Stringer.
func (s GroupOrderState) String() string {
	return string(s)
}

// IsValid reports whether the value is a known GroupOrderState.
func (s GroupOrderState) IsValid() bool {
	for _, candidate := range validGroupOrderStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the state accepts no further transitions.
func (s GroupOrderState) IsTerminal() bool {
	switch s {
	case GroupOrderStateFinalized, GroupOrderStateExpired, GroupOrderStateCancelled:
		return true
	default:
		return false
	}
}

// ParseGroupOrderState converts the raw string to GroupOrderState.
func ParseGroupOrderState(value string) (GroupOrderState, error) {
	for _, candidate := range validGroupOrderStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid group order state %q", value)
}

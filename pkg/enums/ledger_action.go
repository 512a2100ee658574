package enums

import "fmt"

// LedgerAction describes the allowed values for the `action` column in ledger_entries.
type LedgerAction string

const (
	LedgerActionJoin     LedgerAction = "join"
	LedgerActionModify   LedgerAction = "modify"
	LedgerActionWithdraw LedgerAction = "withdraw"
)

var validLedgerActions = []LedgerAction{
	LedgerActionJoin,
	LedgerActionModify,
	LedgerActionWithdraw,
}

// IsValid reports whether the value matches the canonical ledger action enum.
func (a LedgerAction) IsValid() bool {
	for _, candidate := range validLedgerActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseLedgerAction converts the raw string to LedgerAction.
func ParseLedgerAction(value string) (LedgerAction, error) {
	for _, candidate := range validLedgerActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger action %q", value)
}

package models

// SettlementStatus is the lifecycle state of a settlement transaction.
type SettlementStatus string

const (
	// StatusInitiated is the open state of a settlement recorded but not yet paid.
	StatusInitiated SettlementStatus = "initiated"

	// StatusPending is the open state of a reopened settlement.
	StatusPending SettlementStatus = "pending"

	// StatusConfirmed means the payment happened; the settlement moves balances.
	StatusConfirmed SettlementStatus = "confirmed"

	// StatusCancelled means the settlement was abandoned.
	StatusCancelled SettlementStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s SettlementStatus) Valid() bool {
	switch s {
	case StatusInitiated, StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

package models

import "github.com/mmynk/splitledger/internal/money"

// Snapshot is the unit of import and export.
type Snapshot struct {
	Friends      []Friend               `json:"friends"`
	SelectedID   *string                `json:"selectedId"`
	Transactions []Transaction          `json:"transactions"`
	Budgets      map[string]money.Cents `json:"budgets,omitempty"`
}

// Budget is a monthly spending ceiling for a category. A nil Amount means
// unlimited.
type Budget struct {
	Category string       `json:"category"`
	Amount   *money.Cents `json:"amount"`
}

// Limited reports whether the budget has a ceiling.
func (b Budget) Limited() bool {
	return b.Amount != nil
}

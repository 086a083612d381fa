package models

import (
	"slices"
	"time"

	"github.com/mmynk/splitledger/internal/money"
)

// You is the reserved participant id of the ledger's owner.
const You = "you"

// TransactionType tags a Transaction.
type TransactionType string

const (
	TypeSplit      TransactionType = "split"
	TypeSettlement TransactionType = "settlement"
)

// Participant is one entry of a split: who owes how much of the total.
type Participant struct {
	// ID is You or a friend id.
	ID string `json:"id"`

	// Amount is this participant's non-negative share.
	Amount money.Cents `json:"amount"`
}

// Effect is the derived balance impact of a transaction on one friend.
type Effect struct {
	FriendID string `json:"friendId"`

	// Share is the friend's nominal portion of the transaction.
	Share money.Cents `json:"share"`

	// Delta is the signed impact: positive means the friend owes you,
	// negative means you owe the friend.
	Delta money.Cents `json:"delta"`
}

// Transaction is a split or a settlement.
//
// Splits use Total, Payer, Participants, FriendIDs and Category. Settlements
// use FriendID, Amount and the settlement status fields. Both carry Effects.
type Transaction struct {
	// ID is the unique identifier (UUID format when generated).
	ID string `json:"id"`

	Type TransactionType `json:"type"`

	// Total is the full expense amount. Settlements record |Amount| here;
	// zero on legacy settlements.
	Total money.Cents `json:"total"`

	// Payer is You or the id of the friend who paid.
	Payer string `json:"payer,omitempty"`

	Participants []Participant `json:"participants,omitempty"`
	Effects      []Effect      `json:"effects"`

	// FriendIDs is the unique non-You subset of participant ids, in order.
	FriendIDs []string `json:"friendIds,omitempty"`

	// FriendID is the single counterparty of a settlement or a one-friend split.
	FriendID string `json:"friendId,omitempty"`

	Category string `json:"category,omitempty"`
	Note     string `json:"note,omitempty"`

	// Amount is the signed balance a settlement was created to clear.
	// A negative amount means you owed the friend.
	Amount money.Cents `json:"amount,omitempty"`

	SettlementStatus SettlementStatus `json:"settlementStatus,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	// Half is the friend's share on legacy single-friend splits.
	// Only present on records that still need an upgrade.
	Half *money.Cents `json:"half,omitempty"`

	// Delta is the balance impact on legacy settlements.
	// Only present on records that still need an upgrade.
	Delta *money.Cents `json:"delta,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with t.
func (t Transaction) Clone() Transaction {
	c := t
	c.Participants = slices.Clone(t.Participants)
	c.Effects = slices.Clone(t.Effects)
	c.FriendIDs = slices.Clone(t.FriendIDs)
	c.UpdatedAt = clonePtr(t.UpdatedAt)
	c.ConfirmedAt = clonePtr(t.ConfirmedAt)
	c.CancelledAt = clonePtr(t.CancelledAt)
	c.Half = clonePtr(t.Half)
	c.Delta = clonePtr(t.Delta)
	return c
}

// CloneTransactions deep-copies a transaction list.
func CloneTransactions(txs []Transaction) []Transaction {
	out := make([]Transaction, len(txs))
	for i, tx := range txs {
		out[i] = tx.Clone()
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// IsSettlement reports whether the transaction is a settlement.
func (t Transaction) IsSettlement() bool {
	return t.Type == TypeSettlement
}

// Participant returns the participant with the given id.
func (t Transaction) Participant(id string) (Participant, bool) {
	for _, p := range t.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// Timestamp returns CreatedAt, falling back to UpdatedAt.
func (t Transaction) Timestamp() time.Time {
	if !t.CreatedAt.IsZero() {
		return t.CreatedAt
	}
	if t.UpdatedAt != nil {
		return *t.UpdatedAt
	}
	return time.Time{}
}

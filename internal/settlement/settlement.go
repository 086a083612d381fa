// Package settlement builds settlement transactions and governs their status.
//
// Lifecycle:
//
//	initiated ──┬──> confirmed ──┐
//	pending ────┤                ├──> pending (reopen)
//	            └──> cancelled ──┘
//
// A settlement is created either confirmed (marked paid) or initiated. There is
// no direct edge between confirmed and cancelled; a record must be reopened
// first. Transitions never touch the amount or the effect.
package settlement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	ErrNoFriend          = errors.New("settlement requires a friend")
	ErrNothingToSettle   = errors.New("balance is already settled")
	ErrNotSettlement     = errors.New("transaction is not a settlement")
	ErrInvalidTransition = errors.New("invalid settlement transition")
	ErrUnknownStatus     = errors.New("unknown settlement status")
)

// Input describes a settlement to record.
type Input struct {
	// ID is optional; a new id is generated when empty.
	ID string

	FriendID string

	// Balance is the signed balance being cleared. Negative means you owe
	// the friend.
	Balance money.Cents

	// MarkPaid records the settlement as already confirmed.
	MarkPaid bool

	Note string

	// CreatedAt defaults to the current time when zero.
	CreatedAt time.Time
}

// transitions holds every legal status change.
var transitions = map[models.SettlementStatus][]models.SettlementStatus{
	models.StatusInitiated: {models.StatusConfirmed, models.StatusCancelled},
	models.StatusPending:   {models.StatusConfirmed, models.StatusCancelled},
	models.StatusConfirmed: {models.StatusPending},
	models.StatusCancelled: {models.StatusPending},
}

// New builds a settlement transaction clearing in.Balance.
//
// The settlement's Amount is the balance itself; its single effect carries
// the opposite delta, so folding it into the ledger brings the friend's
// balance back to zero whatever its status.
func New(in Input) (models.Transaction, error) {
	friendID := strings.TrimSpace(in.FriendID)
	if friendID == "" {
		return models.Transaction{}, ErrNoFriend
	}
	if in.Balance == 0 {
		return models.Transaction{}, fmt.Errorf("%w: friend %s", ErrNothingToSettle, friendID)
	}

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	id := in.ID
	if id == "" {
		id = calculator.NewID()
	}

	tx := models.Transaction{
		ID:        id,
		Type:      models.TypeSettlement,
		Total:     in.Balance.Abs(),
		FriendID:  friendID,
		FriendIDs: []string{friendID},
		Amount:    in.Balance,
		Effects: []models.Effect{{
			FriendID: friendID,
			Share:    in.Balance.Abs(),
			Delta:    -in.Balance,
		}},
		Note:             strings.TrimSpace(in.Note),
		SettlementStatus: models.StatusInitiated,
		CreatedAt:        createdAt,
	}
	if in.MarkPaid {
		tx.SettlementStatus = models.StatusConfirmed
		tx.ConfirmedAt = &createdAt
	}
	return tx, nil
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to models.SettlementStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether a settlement still awaits payment.
func IsOpen(status models.SettlementStatus) bool {
	return status == models.StatusInitiated || status == models.StatusPending
}

// ParseStatus reads a status name case-insensitively.
func ParseStatus(s string) (models.SettlementStatus, error) {
	status := models.SettlementStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Transition moves tx to the target status at the given time.
func Transition(tx models.Transaction, to models.SettlementStatus, at time.Time) (models.Transaction, error) {
	if !tx.IsSettlement() {
		return tx, fmt.Errorf("%w: %s", ErrNotSettlement, tx.ID)
	}
	from := tx.SettlementStatus
	if from == "" {
		from = models.StatusConfirmed
	}
	if !CanTransition(from, to) {
		return tx, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	tx.SettlementStatus = to
	tx.UpdatedAt = &at
	switch to {
	case models.StatusConfirmed:
		tx.ConfirmedAt = &at
		tx.CancelledAt = nil
	case models.StatusCancelled:
		tx.CancelledAt = &at
		tx.ConfirmedAt = nil
	case models.StatusPending:
		tx.ConfirmedAt = nil
		tx.CancelledAt = nil
	}
	return tx, nil
}

// Confirm marks an open settlement as paid.
func Confirm(tx models.Transaction, at time.Time) (models.Transaction, error) {
	return Transition(tx, models.StatusConfirmed, at)
}

// Cancel abandons an open settlement.
func Cancel(tx models.Transaction, at time.Time) (models.Transaction, error) {
	return Transition(tx, models.StatusCancelled, at)
}

// Reopen moves a confirmed or cancelled settlement back to pending.
func Reopen(tx models.Transaction, at time.Time) (models.Transaction, error) {
	return Transition(tx, models.StatusPending, at)
}

package calculator

import (
	"strings"

	"github.com/mmynk/splitledger/internal/models"
)

// recordShape is the layout a stored transaction was written in.
type recordShape int

const (
	shapeUnrecognized recordShape = iota
	shapeNormalizedSplit
	shapeNormalizedSettlement
	shapeLegacySplit
	shapeLegacySettlement
)

func classify(tx models.Transaction) recordShape {
	hasFriend := strings.TrimSpace(tx.FriendID) != ""
	if tx.IsSettlement() {
		switch {
		case len(tx.Effects) > 0:
			return shapeNormalizedSettlement
		case hasFriend:
			return shapeLegacySettlement
		}
		return shapeUnrecognized
	}
	switch {
	case len(tx.Effects) > 0 && len(tx.Participants) > 0:
		return shapeNormalizedSplit
	case len(tx.Participants) == 0 && hasFriend:
		return shapeLegacySplit
	}
	return shapeUnrecognized
}

// UpgradeTransaction converts a record of any known layout into the current
// one. It returns false only for legacy splits without a positive total,
// which cannot be reconstructed. Unrecognized records are returned unchanged.
func UpgradeTransaction(tx models.Transaction) (models.Transaction, bool) {
	switch classify(tx) {
	case shapeNormalizedSplit:
		tx.Type = models.TypeSplit
		tx.FriendIDs = FriendIDs(tx.Participants)
		tx.FriendID = ""
		if len(tx.FriendIDs) == 1 {
			tx.FriendID = tx.FriendIDs[0]
		}
		tx.Half, tx.Delta = nil, nil
		return tx, true

	case shapeNormalizedSettlement:
		tx.FriendID = tx.Effects[0].FriendID
		tx.FriendIDs = []string{tx.FriendID}
		tx.Half, tx.Delta = nil, nil
		return tx, true

	case shapeLegacySplit:
		return upgradeLegacySplit(tx)

	case shapeLegacySettlement:
		return upgradeLegacySettlement(tx), true

	case shapeUnrecognized:
		return tx, true
	}
	return tx, true
}

func upgradeLegacySplit(tx models.Transaction) (models.Transaction, bool) {
	if tx.Total <= 0 {
		return models.Transaction{}, false
	}
	friendID := strings.TrimSpace(tx.FriendID)

	half := tx.Total.Half()
	if tx.Half != nil {
		half = *tx.Half
	}
	if half < 0 {
		half = 0
	}
	youShare := tx.Total - half
	if youShare < 0 {
		youShare = 0
	}

	payer := strings.TrimSpace(tx.Payer)
	if payer == "" {
		payer = models.You
	}

	participants, effects := ComputeSplitEffects(payer, []models.Participant{
		{ID: models.You, Amount: youShare},
		{ID: friendID, Amount: half},
	})

	tx.Type = models.TypeSplit
	tx.Payer = payer
	tx.FriendID = friendID
	tx.Participants = participants
	tx.Effects = effects
	tx.FriendIDs = FriendIDs(participants)
	tx.Half, tx.Delta = nil, nil
	return tx, true
}

func upgradeLegacySettlement(tx models.Transaction) models.Transaction {
	friendID := strings.TrimSpace(tx.FriendID)

	delta := -tx.Amount
	if tx.Delta != nil {
		delta = *tx.Delta
	}

	tx.FriendID = friendID
	tx.FriendIDs = []string{friendID}
	tx.Amount = -delta
	tx.Effects = []models.Effect{{FriendID: friendID, Share: delta.Abs(), Delta: delta}}
	if !tx.SettlementStatus.Valid() {
		tx.SettlementStatus = models.StatusConfirmed
	}
	tx.Half, tx.Delta = nil, nil
	return tx
}

// UpgradeTransactions upgrades every record, dropping the unrecoverable ones.
// Order is preserved.
func UpgradeTransactions(list []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(list))
	for _, tx := range list {
		if upgraded, ok := UpgradeTransaction(tx); ok {
			out = append(out, upgraded)
		}
	}
	return out
}

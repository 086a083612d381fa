package calculator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func cents(c money.Cents) *money.Cents { return &c }

func TestUpgradeTransaction_LegacySplit(t *testing.T) {
	got, ok := UpgradeTransaction(models.Transaction{
		Type:     models.TypeSplit,
		Total:    10000,
		FriendID: "f1",
		Half:     cents(4000),
		Payer:    models.You,
	})
	require.True(t, ok)

	assert.Equal(t, []models.Participant{
		{ID: models.You, Amount: 6000},
		{ID: "f1", Amount: 4000},
	}, got.Participants)
	assert.Equal(t, []models.Effect{{FriendID: "f1", Share: 4000, Delta: 4000}}, got.Effects)
	assert.Equal(t, []string{"f1"}, got.FriendIDs)
	assert.Nil(t, got.Half)
}

func TestUpgradeTransaction_LegacySplitDefaults(t *testing.T) {
	got, ok := UpgradeTransaction(models.Transaction{Total: 5000, FriendID: "f1", Payer: "f1"})
	require.True(t, ok)

	assert.Equal(t, models.TypeSplit, got.Type)
	you, _ := got.Participant(models.You)
	assert.Equal(t, money.Cents(2500), you.Amount)
	assert.Equal(t, money.Cents(-2500), got.Effects[0].Delta)
}

func TestUpgradeTransaction_LegacySplitClampsYouShare(t *testing.T) {
	got, ok := UpgradeTransaction(models.Transaction{Total: 1000, FriendID: "f1", Half: cents(1500)})
	require.True(t, ok)

	you, _ := got.Participant(models.You)
	assert.Equal(t, money.Zero, you.Amount)
}

func TestUpgradeTransaction_LegacySplitWithoutTotal(t *testing.T) {
	_, ok := UpgradeTransaction(models.Transaction{Type: models.TypeSplit, FriendID: "f1", Half: cents(40)})
	assert.False(t, ok)
}

func TestUpgradeTransaction_LegacySettlement(t *testing.T) {
	got, ok := UpgradeTransaction(models.Transaction{
		Type:     models.TypeSettlement,
		FriendID: "f1",
		Delta:    cents(2500),
	})
	require.True(t, ok)

	assert.Equal(t, []models.Effect{{FriendID: "f1", Share: 2500, Delta: 2500}}, got.Effects)
	assert.Equal(t, money.Cents(-2500), got.Amount)
	assert.Equal(t, models.StatusConfirmed, got.SettlementStatus)
	assert.Nil(t, got.Delta)
}

func TestUpgradeTransaction_Normalized(t *testing.T) {
	tx := models.Transaction{
		ID:           "t1",
		Type:         models.TypeSplit,
		Total:        3000,
		Payer:        models.You,
		Participants: []models.Participant{{ID: models.You, Amount: 1000}, {ID: "a", Amount: 2000}},
		Effects:      []models.Effect{{FriendID: "a", Share: 2000, Delta: 2000}},
		FriendIDs:    []string{"stale"},
	}
	got, ok := UpgradeTransaction(tx)
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, got.FriendIDs)
	assert.Equal(t, "a", got.FriendID)
	assert.Equal(t, tx.Effects, got.Effects)
}

func TestUpgradeTransaction_UnrecognizedPassesThrough(t *testing.T) {
	tx := models.Transaction{ID: "odd", Type: models.TypeSplit, Total: 100, Note: "no friend"}
	got, ok := UpgradeTransaction(tx)
	require.True(t, ok)
	assert.Equal(t, tx, got)
}

func TestUpgradeTransactions_PreservesOrder(t *testing.T) {
	list := []models.Transaction{
		{ID: "1", Total: 1000, FriendID: "a"},
		{ID: "2", FriendID: "a"}, // unrecoverable
		{ID: "3", Type: models.TypeSettlement, FriendID: "a", Delta: cents(-500)},
	}
	got := UpgradeTransactions(list)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

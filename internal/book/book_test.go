package book

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/settlement"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestBook(t *testing.T) *Book {
	t.Helper()
	var mu sync.Mutex
	n := 0
	return New(models.Snapshot{},
		WithClock(func() time.Time { return testNow }),
		WithIDs(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func addFriend(t *testing.T, b *Book, name string) models.Friend {
	t.Helper()
	f, err := b.AddFriend(FriendInput{Name: name})
	require.NoError(t, err)
	return f
}

func TestAddFriend(t *testing.T) {
	b := newTestBook(t)

	f, err := b.AddFriend(FriendInput{Name: " Ana ", Email: " Ana@Example.com", Tag: "roommate"})
	require.NoError(t, err)
	assert.Equal(t, models.Friend{ID: "id-1", Name: "Ana", Email: "ana@example.com", Tag: "roommate"}, f)

	_, err = b.AddFriend(FriendInput{Name: "Other Ana", Email: "ANA@example.com"})
	assert.True(t, errors.Is(err, ErrDuplicateEmail))

	_, err = b.AddFriend(FriendInput{Name: "  "})
	assert.True(t, errors.Is(err, ErrEmptyName))

	assert.Len(t, b.Friends(), 1)
}

func TestAddSplitAndBalances(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	bo := addFriend(t, b, "Bo")

	tx, err := b.AddSplit(calculator.SplitInput{
		Total:    6000,
		Payer:    models.You,
		Category: "food",
		Participants: []models.Participant{
			{ID: ana.ID, Amount: 2000},
			{ID: bo.ID, Amount: 2000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", tx.Category)
	assert.Equal(t, testNow, tx.CreatedAt)
	assert.Equal(t, "id-3", tx.ID)

	_, err = b.AddSplit(calculator.SplitInput{
		Total:        1000,
		Payer:        bo.ID,
		Participants: []models.Participant{{ID: bo.ID, Amount: 500}},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]money.Cents{ana.ID: 2000, bo.ID: 1500}, b.Balances())
}

func TestAddSplitErrors(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")

	_, err := b.AddSplit(calculator.SplitInput{
		Total:        1000,
		Participants: []models.Participant{{ID: "ghost", Amount: 500}},
	})
	assert.True(t, errors.Is(err, ErrUnknownFriend))

	_, err = b.AddSplit(calculator.SplitInput{
		Total:        1000,
		Category:     "Rent",
		Participants: []models.Participant{{ID: ana.ID, Amount: 500}},
	})
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	_, err = b.AddSplit(calculator.SplitInput{
		Total:        1000,
		Participants: []models.Participant{{ID: ana.ID, Amount: 1500}},
	})
	assert.True(t, errors.Is(err, calculator.ErrSharesExceedTotal))

	assert.Empty(t, b.Transactions())
}

func TestSettleUpLifecycle(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	_, err := b.AddSplit(calculator.SplitInput{
		Total:        5000,
		Payer:        ana.ID,
		Participants: []models.Participant{{ID: models.You, Amount: 2500}, {ID: ana.ID, Amount: 2500}},
	})
	require.NoError(t, err)
	require.Equal(t, money.Cents(-2500), b.Balances()[ana.ID])

	s, err := b.SettleUp(ana.ID, false, "bank transfer")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInitiated, s.SettlementStatus)
	assert.Equal(t, money.Cents(-2500), s.Amount)
	assert.Equal(t, money.Cents(0), b.Balances()[ana.ID])

	_, err = b.SettleUp(ana.ID, false, "again")
	assert.True(t, errors.Is(err, settlement.ErrNothingToSettle), "an open settlement already covers the debt")

	s, err = b.TransitionSettlement(s.ID, models.StatusConfirmed)
	require.NoError(t, err)
	require.NotNil(t, s.ConfirmedAt)
	assert.Equal(t, money.Cents(0), b.Balances()[ana.ID])

	_, err = b.TransitionSettlement(s.ID, models.StatusCancelled)
	assert.True(t, errors.Is(err, settlement.ErrInvalidTransition))

	_, err = b.SettleUp(ana.ID, true, "")
	assert.True(t, errors.Is(err, settlement.ErrNothingToSettle))

	_, err = b.TransitionSettlement("missing", models.StatusConfirmed)
	assert.True(t, errors.Is(err, ErrUnknownTransaction))
}

func TestRemoveFriend(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	bo := addFriend(t, b, "Bo")
	require.NoError(t, b.Select(ana.ID))

	_, err := b.AddSplit(calculator.SplitInput{
		Total:        2000,
		Participants: []models.Participant{{ID: ana.ID, Amount: 1000}},
	})
	require.NoError(t, err)

	err = b.RemoveFriend(ana.ID)
	assert.True(t, errors.Is(err, ErrOutstandingBalance))

	_, err = b.SettleUp(ana.ID, true, "")
	require.NoError(t, err)
	require.NoError(t, b.RemoveFriend(ana.ID))

	assert.Equal(t, []models.Friend{bo}, b.Friends())
	assert.Empty(t, b.Transactions())
	_, selected := b.Selected()
	assert.False(t, selected)

	assert.True(t, errors.Is(b.RemoveFriend(ana.ID), ErrUnknownFriend))
}

func TestRemoveFriendInSharedSplit(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	bo := addFriend(t, b, "Bo")
	_, err := b.AddSplit(calculator.SplitInput{
		Total:        3000,
		Payer:        bo.ID,
		Participants: []models.Participant{{ID: ana.ID, Amount: 1000}, {ID: bo.ID, Amount: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, money.Cents(0), b.Balances()[ana.ID])

	err = b.RemoveFriend(ana.ID)
	assert.True(t, errors.Is(err, ErrFriendInUse))
	assert.Len(t, b.Friends(), 2)
	assert.Len(t, b.Transactions(), 1)
}

func TestSelect(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")

	assert.True(t, errors.Is(b.Select("ghost"), ErrUnknownFriend))
	require.NoError(t, b.Select(ana.ID))
	id, ok := b.Selected()
	assert.True(t, ok)
	assert.Equal(t, ana.ID, id)

	require.NoError(t, b.Select(""))
	_, ok = b.Selected()
	assert.False(t, ok)
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	tx, err := b.AddSplit(calculator.SplitInput{
		Total:        1000,
		Participants: []models.Participant{{ID: ana.ID, Amount: 500}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, tx.Category)

	updated, err := b.UpdateTransaction(tx.ID, "TRAVEL", " train ")
	require.NoError(t, err)
	assert.Equal(t, "Travel", updated.Category)
	assert.Equal(t, "train", updated.Note)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, tx.Effects, updated.Effects)

	_, err = b.UpdateTransaction(tx.ID, "Rent", "")
	assert.True(t, errors.Is(err, ErrUnknownCategory))

	require.NoError(t, b.DeleteTransaction(tx.ID))
	assert.Empty(t, b.Transactions())
	assert.True(t, errors.Is(b.DeleteTransaction(tx.ID), ErrUnknownTransaction))
}

func TestBudgets(t *testing.T) {
	b := newTestBook(t)
	amount := money.Cents(20000)
	require.NoError(t, b.SetBudget("food", &amount))

	negative := money.Cents(-1)
	assert.True(t, errors.Is(b.SetBudget("Food", &negative), ErrNegativeBudget))
	assert.True(t, errors.Is(b.SetBudget("Rent", &amount), ErrUnknownCategory))

	budgets := b.Budgets()
	require.Len(t, budgets, len(models.DefaultCategories))
	assert.Equal(t, "Food", budgets[0].Category)
	require.True(t, budgets[0].Limited())
	assert.Equal(t, amount, *budgets[0].Amount)
	assert.False(t, budgets[1].Limited())

	require.NoError(t, b.SetBudget("Food", nil))
	assert.Nil(t, b.Snapshot().Budgets)
}

func TestSnapshotAndReplace(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	require.NoError(t, b.Select(ana.ID))

	snap := b.Snapshot()
	snap.Friends[0].Name = "mutated"
	assert.Equal(t, "Ana", b.Friends()[0].Name)

	half := money.Cents(400)
	b.Replace(models.Snapshot{
		Friends:    []models.Friend{{ID: "f9", Name: "Zed"}},
		SelectedID: &ana.ID,
		Transactions: []models.Transaction{
			{ID: "legacy", Type: models.TypeSplit, FriendID: "f9", Total: 1000, Half: &half},
		},
	})
	_, ok := b.Selected()
	assert.False(t, ok, "selection of a friend not in the new state is dropped")
	require.Len(t, b.Transactions(), 1)
	assert.Equal(t, money.Cents(400), b.Balances()["f9"])
}

func TestReadsDoNotShareTransactionData(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")
	created, err := b.AddSplit(calculator.SplitInput{
		Total:        2000,
		Participants: []models.Participant{{ID: ana.ID, Amount: 1000}},
	})
	require.NoError(t, err)

	created.Effects[0].Delta = 9999
	b.Transactions()[0].Effects[0].Delta = 9999
	b.Transactions()[0].Participants[0].Amount = 9999
	b.Snapshot().Transactions[0].Effects[0].Delta = 9999

	assert.Equal(t, money.Cents(1000), b.Balances()[ana.ID])
	assert.Equal(t, money.Cents(1000), b.Transactions()[0].Participants[0].Amount)
}

func TestConcurrentAccess(t *testing.T) {
	b := newTestBook(t)
	ana := addFriend(t, b, "Ana")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = b.AddSplit(calculator.SplitInput{
				Total:        200,
				Participants: []models.Participant{{ID: ana.ID, Amount: 100}},
			})
		}()
		go func() {
			defer wg.Done()
			_ = b.Balances()
		}()
	}
	wg.Wait()
	assert.Equal(t, money.Cents(2000), b.Balances()[ana.ID])
}

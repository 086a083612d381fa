// Package book holds the live ledger state: friends, transactions, budgets
// and the current selection.
package book

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/settlement"
)

var (
	ErrUnknownFriend      = errors.New("unknown friend")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrEmptyName          = errors.New("friend name is required")
	ErrDuplicateEmail     = errors.New("email already used by another friend")
	ErrOutstandingBalance = errors.New("friend has an outstanding balance")
	ErrFriendInUse        = errors.New("friend is part of a shared split")
	ErrNegativeBudget     = errors.New("budget must not be negative")
)

// FriendInput describes a friend to add.
type FriendInput struct {
	Name  string
	Email string
	Tag   string
}

// Book is safe for concurrent use.
type Book struct {
	mu           sync.RWMutex
	friends      []models.Friend
	transactions []models.Transaction
	budgets      map[string]money.Cents
	selected     *string

	categories []string
	now        func() time.Time
	newID      func() string
}

// Option configures a Book.
type Option func(*Book)

// WithClock sets the time source for new and updated records.
func WithClock(now func() time.Time) Option {
	return func(b *Book) { b.now = now }
}

// WithIDs sets the id source for new friends and transactions.
func WithIDs(newID func() string) Option {
	return func(b *Book) { b.newID = newID }
}

// WithCategories sets the canonical category list.
func WithCategories(p models.CategoryProvider) Option {
	return func(b *Book) { b.categories = p.Categories() }
}

// New returns a Book seeded with s. Stored transactions are upgraded to the
// current layout.
func New(s models.Snapshot, opts ...Option) *Book {
	b := &Book{
		categories: models.StaticCategories(models.DefaultCategories).Categories(),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      calculator.NewID,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.install(s)
	return b
}

func (b *Book) install(s models.Snapshot) {
	b.friends = append([]models.Friend(nil), s.Friends...)
	b.transactions = calculator.UpgradeTransactions(models.CloneTransactions(s.Transactions))
	b.budgets = make(map[string]money.Cents, len(s.Budgets))
	for k, v := range s.Budgets {
		b.budgets[k] = v
	}
	b.selected = nil
	if s.SelectedID != nil {
		if _, ok := models.FindFriend(b.friends, *s.SelectedID); ok {
			id := *s.SelectedID
			b.selected = &id
		}
	}
}

// Replace installs s as the whole state, as after an import.
func (b *Book) Replace(s models.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.install(s)
}

// Snapshot returns a copy of the current state.
func (b *Book) Snapshot() models.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := models.Snapshot{
		Friends:      append([]models.Friend{}, b.friends...),
		Transactions: models.CloneTransactions(b.transactions),
	}
	if b.selected != nil {
		id := *b.selected
		s.SelectedID = &id
	}
	if len(b.budgets) > 0 {
		s.Budgets = make(map[string]money.Cents, len(b.budgets))
		for k, v := range b.budgets {
			s.Budgets[k] = v
		}
	}
	return s
}

// Friends returns the friends in insertion order.
func (b *Book) Friends() []models.Friend {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Friend{}, b.friends...)
}

// Transactions returns a copy of the transactions in insertion order.
func (b *Book) Transactions() []models.Transaction {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return models.CloneTransactions(b.transactions)
}

// Categories returns the canonical category list.
func (b *Book) Categories() []string {
	return append([]string{}, b.categories...)
}

// Selected returns the selected friend id, if any.
func (b *Book) Selected() (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.selected == nil {
		return "", false
	}
	return *b.selected, true
}

// Balances returns the balance of every friend, including settled ones.
func (b *Book) Balances() map[string]money.Cents {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balancesLocked()
}

func (b *Book) balancesLocked() map[string]money.Cents {
	computed := calculator.ComputeBalances(b.transactions)
	out := make(map[string]money.Cents, len(b.friends))
	for _, f := range b.friends {
		out[f.ID] = calculator.BalanceOf(computed, f.ID)
	}
	return out
}

// AddFriend adds a friend with a new id.
func (b *Book) AddFriend(in FriendInput) (models.Friend, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Friend{}, ErrEmptyName
	}
	email := models.NormalizeEmail(in.Email)

	b.mu.Lock()
	defer b.mu.Unlock()

	if email != "" {
		for _, f := range b.friends {
			if f.Email == email {
				return models.Friend{}, fmt.Errorf("%w: %s", ErrDuplicateEmail, email)
			}
		}
	}
	f := models.Friend{ID: b.newID(), Name: name, Email: email, Tag: strings.TrimSpace(in.Tag)}
	b.friends = append(b.friends, f)
	return f, nil
}

// RemoveFriend deletes a settled friend together with the transactions that
// only involve them. Friends still part of a multi-friend split cannot be
// removed.
func (b *Book) RemoveFriend(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.friendIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFriend, id)
	}
	if bal := b.balancesLocked()[id]; !calculator.IsSettled(bal) {
		return fmt.Errorf("%w: %s", ErrOutstandingBalance, money.Format(bal))
	}

	kept := make([]models.Transaction, 0, len(b.transactions))
	for _, tx := range b.transactions {
		if !involves(tx, id) {
			kept = append(kept, tx)
			continue
		}
		if !tx.IsSettlement() && len(tx.FriendIDs) > 1 {
			return fmt.Errorf("%w: %s", ErrFriendInUse, tx.ID)
		}
	}

	b.transactions = kept
	b.friends = append(b.friends[:idx:idx], b.friends[idx+1:]...)
	if b.selected != nil && *b.selected == id {
		b.selected = nil
	}
	return nil
}

func involves(tx models.Transaction, friendID string) bool {
	if tx.FriendID == friendID {
		return true
	}
	for _, id := range tx.FriendIDs {
		if id == friendID {
			return true
		}
	}
	return false
}

// Select sets the selected friend. An empty id clears the selection.
func (b *Book) Select(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id == "" {
		b.selected = nil
		return nil
	}
	if b.friendIndex(id) < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownFriend, id)
	}
	b.selected = &id
	return nil
}

// AddSplit records a split between you and known friends.
func (b *Book) AddSplit(in calculator.SplitInput) (models.Transaction, error) {
	category, err := b.resolveCategory(in.Category)
	if err != nil {
		return models.Transaction{}, err
	}
	in.Category = category

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range in.Participants {
		pid := strings.TrimSpace(p.ID)
		if pid == "" || pid == models.You {
			continue
		}
		if b.friendIndex(pid) < 0 {
			return models.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownFriend, pid)
		}
	}
	if in.ID == "" {
		in.ID = b.newID()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = b.now()
	}

	tx, err := calculator.BuildSplitTransaction(in)
	if err != nil {
		return models.Transaction{}, err
	}
	b.transactions = append(b.transactions, tx.Clone())
	return tx, nil
}

// SettleUp records a settlement clearing the friend's current balance.
func (b *Book) SettleUp(friendID string, markPaid bool, note string) (models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.friendIndex(friendID) < 0 {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownFriend, friendID)
	}
	tx, err := settlement.New(settlement.Input{
		ID:        b.newID(),
		FriendID:  friendID,
		Balance:   b.balancesLocked()[friendID],
		MarkPaid:  markPaid,
		Note:      note,
		CreatedAt: b.now(),
	})
	if err != nil {
		return models.Transaction{}, err
	}
	b.transactions = append(b.transactions, tx.Clone())
	return tx, nil
}

// TransitionSettlement moves a settlement to a new status.
func (b *Book) TransitionSettlement(id string, to models.SettlementStatus) (models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.transactionIndex(id)
	if idx < 0 {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	tx, err := settlement.Transition(b.transactions[idx], to, b.now())
	if err != nil {
		return models.Transaction{}, err
	}
	b.transactions[idx] = tx.Clone()
	return tx, nil
}

// UpdateTransaction changes a transaction's category and note. Settlements
// keep an empty category.
func (b *Book) UpdateTransaction(id, category, note string) (models.Transaction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.transactionIndex(id)
	if idx < 0 {
		return models.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	current := b.transactions[idx]
	if current.IsSettlement() {
		category = current.Category
	} else {
		resolved, err := b.resolveCategory(category)
		if err != nil {
			return models.Transaction{}, err
		}
		category = resolved
	}
	tx := calculator.UpdateMetadata(current, category, note, b.now())
	b.transactions[idx] = tx.Clone()
	return tx, nil
}

// DeleteTransaction removes a transaction.
func (b *Book) DeleteTransaction(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx := b.transactionIndex(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTransaction, id)
	}
	b.transactions = append(b.transactions[:idx:idx], b.transactions[idx+1:]...)
	return nil
}

// SetBudget sets a category's monthly ceiling. A nil amount clears it.
func (b *Book) SetBudget(category string, amount *money.Cents) error {
	canonical, ok := models.ResolveCategory(b.categories, category)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if amount != nil && *amount < 0 {
		return ErrNegativeBudget
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if amount == nil {
		delete(b.budgets, canonical)
		return nil
	}
	b.budgets[canonical] = *amount
	return nil
}

// Budgets returns one entry per category, in category order.
func (b *Book) Budgets() []models.Budget {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]models.Budget, 0, len(b.categories))
	for _, c := range b.categories {
		budget := models.Budget{Category: c}
		if amount, ok := b.budgets[c]; ok {
			budget.Amount = &amount
		}
		out = append(out, budget)
	}
	return out
}

// resolveCategory returns the canonical category. Empty means Other.
func (b *Book) resolveCategory(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return models.CategoryOther, nil
	}
	canonical, ok := models.ResolveCategory(b.categories, raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}
	return canonical, nil
}

func (b *Book) friendIndex(id string) int {
	for i, f := range b.friends {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func (b *Book) transactionIndex(id string) int {
	for i, tx := range b.transactions {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

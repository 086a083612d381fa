// Package snapshot imports and exports ledger snapshots.
//
// Restore accepts both the bare legacy root ({friends, transactions, ...})
// and the versioned envelope ({version, payload}). Structural problems fail
// the whole import; problems with a single transaction only skip that record.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// CurrentVersion is the envelope version written by Export.
const CurrentVersion = 1

// ErrInvalidSnapshot reports a structurally unusable snapshot.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// SkippedTransaction is a record that could not be imported.
type SkippedTransaction struct {
	// Index is the record's position in the source transactions array.
	Index   int             `json:"index"`
	Payload json.RawMessage `json:"payload"`
	Reason  string          `json:"reason"`
}

// Result is the outcome of a successful import.
type Result struct {
	Snapshot            models.Snapshot
	SkippedTransactions []SkippedTransaction

	// Diagnostics lists repairs applied to records that were kept.
	Diagnostics []string
}

// Restorer validates and upgrades snapshots.
type Restorer struct {
	categories models.CategoryProvider
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Restorer.
type Option func(*Restorer)

// WithCategories sets the canonical category list.
func WithCategories(p models.CategoryProvider) Option {
	return func(r *Restorer) { r.categories = p }
}

// WithClock sets the time source used for records without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(r *Restorer) { r.now = now }
}

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Restorer) { r.logger = l }
}

// NewRestorer returns a Restorer using the default categories, the system
// clock and slog.Default unless overridden.
func NewRestorer(opts ...Option) *Restorer {
	r := &Restorer{
		categories: models.StaticCategories(models.DefaultCategories),
		now:        func() time.Time { return time.Now().UTC() },
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Restore imports data with a default Restorer.
func Restore(data []byte) (*Result, error) {
	return NewRestorer().Restore(data)
}

// Restore parses, validates and upgrades a snapshot.
func (r *Restorer) Restore(data []byte) (*Result, error) {
	root, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	rawFriends, ok := root["friends"]
	if !ok {
		return nil, fmt.Errorf("%w: friends is missing", ErrInvalidSnapshot)
	}
	friendRecords, ok := decodeArray(rawFriends)
	if !ok {
		return nil, fmt.Errorf("%w: friends must be an array", ErrInvalidSnapshot)
	}
	rawTxs, ok := root["transactions"]
	if !ok {
		return nil, fmt.Errorf("%w: transactions is missing", ErrInvalidSnapshot)
	}
	txRecords, ok := decodeArray(rawTxs)
	if !ok {
		return nil, fmt.Errorf("%w: transactions must be an array", ErrInvalidSnapshot)
	}
	rawSelected := root["selectedId"]
	if !isNull(rawSelected) && !isKind(rawSelected, '"') {
		return nil, fmt.Errorf("%w: selectedId must be a string or null", ErrInvalidSnapshot)
	}

	run := &importRun{
		categories: r.categories.Categories(),
		now:        r.now,
		ids:        newIDArena(),
		txIDs:      make(map[string]bool),
	}

	friends := run.restoreFriends(friendRecords)

	res := &Result{}
	txs := make([]models.Transaction, 0, len(txRecords))
	for i, raw := range txRecords {
		tx, err := run.restoreTransaction(i, raw)
		if err != nil {
			res.SkippedTransactions = append(res.SkippedTransactions, SkippedTransaction{
				Index:   i,
				Payload: append(json.RawMessage(nil), raw...),
				Reason:  err.Error(),
			})
			r.logger.Warn("skipped snapshot transaction", "index", i, "reason", err.Error())
			continue
		}
		txs = append(txs, tx)
	}

	var selected *string
	if !isNull(rawSelected) {
		if id, ok := run.ids.resolve(rawSelected); ok {
			selected = &id
		} else {
			run.diagnose("selectedId does not match a friend, clearing selection")
		}
	}

	res.Snapshot = models.Snapshot{
		Friends:      friends,
		SelectedID:   selected,
		Transactions: calculator.UpgradeTransactions(txs),
		Budgets:      run.restoreBudgets(root["budgets"]),
	}
	res.Diagnostics = run.diagnostics

	for _, d := range res.Diagnostics {
		r.logger.Warn("snapshot repair", "detail", d)
	}
	r.logger.Info("snapshot restored",
		"friends", len(res.Snapshot.Friends),
		"transactions", len(res.Snapshot.Transactions),
		"skipped", len(res.SkippedTransactions),
		"repairs", len(res.Diagnostics),
	)
	return res, nil
}

// unwrap returns the payload object of either envelope.
func unwrap(data []byte) (object, error) {
	root, ok := decodeObject(data)
	if !ok || root == nil {
		return nil, fmt.Errorf("%w: root must be a JSON object", ErrInvalidSnapshot)
	}
	if err := checkVersion(root); err != nil {
		return nil, err
	}
	rawPayload, wrapped := root["payload"]
	if !wrapped {
		return root, nil
	}
	payload, ok := decodeObject(rawPayload)
	if !ok || payload == nil {
		return nil, fmt.Errorf("%w: payload must be a JSON object", ErrInvalidSnapshot)
	}
	if err := checkVersion(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func checkVersion(obj object) error {
	if !obj.has("version") {
		return nil
	}
	var version json.Number
	if err := json.Unmarshal(obj["version"], &version); err != nil {
		return fmt.Errorf("%w: version must be a number", ErrInvalidSnapshot)
	}
	v, err := version.Int64()
	if err != nil || v < 1 {
		return fmt.Errorf("%w: unsupported version %s", ErrInvalidSnapshot, version)
	}
	if v > CurrentVersion {
		return fmt.Errorf("%w: version %d is newer than supported version %d", ErrInvalidSnapshot, v, CurrentVersion)
	}
	return nil
}

// importRun holds the state of a single Restore call.
type importRun struct {
	categories  []string
	now         func() time.Time
	ids         *idArena
	txIDs       map[string]bool
	diagnostics []string
}

func (run *importRun) diagnose(format string, args ...any) {
	run.diagnostics = append(run.diagnostics, fmt.Sprintf(format, args...))
}

func (run *importRun) restoreFriends(records []json.RawMessage) []models.Friend {
	friends := make([]models.Friend, 0, len(records))
	byEmail := make(map[string]string)

	for i, raw := range records {
		obj, ok := decodeObject(raw)
		if !ok {
			run.diagnose("friend %d: not an object, dropped", i)
			continue
		}
		rawID := obj["id"]
		id, generated := run.ids.claim(rawID)
		if generated {
			run.diagnose("friend %d: invalid id, assigned %s", i, id)
		}
		if run.ids.known(id) {
			run.diagnose("friend %d: duplicate id %s, dropped", i, id)
			continue
		}

		email, _ := obj.str("email")
		email = models.NormalizeEmail(email)
		if email != "" {
			if kept, dup := byEmail[email]; dup {
				run.ids.alias(rawID, kept)
				run.diagnose("friend %d: email %s already used by %s, merged", i, email, kept)
				continue
			}
			byEmail[email] = id
		}

		name, _ := obj.str("name")
		if name == "" {
			name = email
		}
		if name == "" {
			name = "Friend " + id
			run.diagnose("friend %d: missing name", i)
		}
		tag, _ := obj.str("tag")

		run.ids.accept(rawID, id)
		friends = append(friends, models.Friend{ID: id, Name: name, Email: email, Tag: tag})
	}
	return friends
}

func (run *importRun) restoreBudgets(raw json.RawMessage) map[string]money.Cents {
	obj, ok := decodeObject(raw)
	if !ok || len(obj) == 0 {
		return nil
	}
	budgets := make(map[string]money.Cents, len(obj))
	for key, value := range obj {
		category := strings.TrimSpace(key)
		if category == "" {
			continue
		}
		if canonical, ok := models.ResolveCategory(run.categories, category); ok {
			category = canonical
		}
		amount, ok := asAmount(value)
		if !ok || amount < 0 {
			continue
		}
		budgets[category] = amount
	}
	if len(budgets) == 0 {
		return nil
	}
	return budgets
}

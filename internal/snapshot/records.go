package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/settlement"
)

// recordKind is the layout a raw transaction record was written in.
type recordKind int

const (
	kindUnrecognized recordKind = iota
	kindSettlement
	kindSplitV2
	kindSplitV1
)

func (k recordKind) String() string {
	switch k {
	case kindSettlement:
		return "settlement"
	case kindSplitV2:
		return "split"
	case kindSplitV1:
		return "legacy split"
	}
	return "unrecognized"
}

var (
	errNotObject      = errors.New("record is not an object")
	errUnknownShape   = errors.New("unrecognized transaction shape")
	errUnknownFriend  = errors.New("unknown friend")
	errMissingAmount  = errors.New("missing amount")
	errSharesMismatch = errors.New("shares do not match total")
)

func classifyRecord(obj object) recordKind {
	if t, _ := obj.str("type"); strings.EqualFold(t, string(models.TypeSettlement)) {
		return kindSettlement
	}
	if isKind(obj["participants"], '[') {
		return kindSplitV2
	}
	if obj.has("friendId") {
		return kindSplitV1
	}
	return kindUnrecognized
}

func (run *importRun) restoreTransaction(index int, raw json.RawMessage) (models.Transaction, error) {
	obj, ok := decodeObject(raw)
	if !ok || obj == nil {
		return models.Transaction{}, errNotObject
	}

	var (
		tx  models.Transaction
		err error
	)
	kind := classifyRecord(obj)
	switch kind {
	case kindSettlement:
		tx, err = run.restoreSettlement(obj)
	case kindSplitV2:
		tx, err = run.restoreSplit(index, obj)
	case kindSplitV1:
		tx, err = run.restoreLegacySplit(index, obj)
	case kindUnrecognized:
		err = errUnknownShape
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("%s: %w", kind, err)
	}

	tx.ID = run.transactionID(index, obj)
	if t, ok := obj.time("updatedAt"); ok {
		tx.UpdatedAt = &t
	}
	return tx, nil
}

// transactionID keeps the record's id unless it is missing or repeated.
func (run *importRun) transactionID(index int, obj object) string {
	id, _ := obj.str("id")
	if id == "" || run.txIDs[id] {
		fresh := calculator.NewID()
		if id != "" {
			run.diagnose("transaction %d: duplicate id %s, assigned %s", index, id, fresh)
		}
		id = fresh
	}
	run.txIDs[id] = true
	return id
}

// createdAt falls back to the import time for records without a timestamp.
func (run *importRun) createdAt(obj object) time.Time {
	if t, ok := obj.time("createdAt"); ok {
		return t
	}
	return run.now()
}

func (run *importRun) category(index int, obj object) string {
	raw, _ := obj.str("category")
	canonical, ok := models.ResolveCategory(run.categories, raw)
	if !ok && raw != "" {
		run.diagnose("transaction %d: unknown category %q, using %s", index, raw, canonical)
	}
	return canonical
}

// payer resolves the payer field to You or a known friend.
func (run *importRun) payer(obj object) (string, error) {
	raw, ok := obj["payer"]
	if !ok || isNull(raw) || isYou(raw) {
		return models.You, nil
	}
	if s, isStr := asString(raw); isStr && s == "" {
		return models.You, nil
	}
	id, ok := run.ids.resolve(raw)
	if !ok {
		return "", fmt.Errorf("payer: %w", errUnknownFriend)
	}
	return id, nil
}

func (run *importRun) restoreSplit(index int, obj object) (models.Transaction, error) {
	items, _ := decodeArray(obj["participants"])

	participants := make([]models.Participant, 0, len(items)+1)
	seen := make(map[string]bool, len(items))
	var (
		youAmount   money.Cents
		youExplicit bool
		friendSum   money.Cents
	)
	for j, item := range items {
		p, ok := decodeObject(item)
		if !ok {
			run.diagnose("transaction %d: participant %d is not an object, dropped", index, j)
			continue
		}
		var id string
		if isYou(p["id"]) {
			id = models.You
		} else if resolved, ok := run.ids.resolve(p["id"]); ok {
			id = resolved
		} else {
			run.diagnose("transaction %d: participant %d is not a known friend, dropped", index, j)
			continue
		}
		if seen[id] {
			run.diagnose("transaction %d: duplicate participant %s, dropped", index, id)
			continue
		}
		seen[id] = true

		amount, ok := p.amount("amount")
		if !ok || amount < 0 {
			amount = 0
		}
		if id == models.You {
			youAmount = amount
			youExplicit = amount != 0
		} else {
			friendSum += amount
		}
		participants = append(participants, models.Participant{ID: id, Amount: amount})
	}
	if !seen[models.You] {
		participants = append([]models.Participant{{ID: models.You}}, participants...)
	}
	if len(participants) < 2 {
		return models.Transaction{}, calculator.ErrNoFriends
	}

	var total money.Cents
	if explicit, ok := obj.amount("total"); ok && explicit > 0 {
		total = explicit
		youShare := total - friendSum
		if youShare < 0 {
			return models.Transaction{}, fmt.Errorf("%w: friends owe %s of %s", calculator.ErrSharesExceedTotal, friendSum, total)
		}
		if youExplicit && youAmount != youShare {
			return models.Transaction{}, fmt.Errorf("%w: off by %s", errSharesMismatch, (youAmount - youShare).Abs())
		}
		youAmount = youShare
	} else {
		total = youAmount + friendSum
		if total <= 0 {
			return models.Transaction{}, errMissingAmount
		}
	}
	for i := range participants {
		if participants[i].ID == models.You {
			participants[i].Amount = youAmount
		}
	}

	payer, err := run.payer(obj)
	if err != nil {
		return models.Transaction{}, err
	}
	note, _ := obj.str("note")

	return calculator.BuildSplitTransaction(calculator.SplitInput{
		Total:        total,
		Payer:        payer,
		Participants: participants,
		Category:     run.category(index, obj),
		Note:         note,
		CreatedAt:    run.createdAt(obj),
	})
}

func (run *importRun) restoreLegacySplit(index int, obj object) (models.Transaction, error) {
	friendID, ok := run.ids.resolve(obj["friendId"])
	if !ok {
		return models.Transaction{}, errUnknownFriend
	}
	total, ok := obj.amount("total")
	if !ok || total <= 0 {
		return models.Transaction{}, calculator.ErrNonPositiveTotal
	}

	tx := models.Transaction{CreatedAt: run.createdAt(obj)}
	if half, ok := obj.amount("half"); ok {
		if half < 0 {
			half = 0
		}
		if half > total {
			return models.Transaction{}, fmt.Errorf("%w: friend share %s > %s", calculator.ErrSharesExceedTotal, half, total)
		}
		tx.Half = &half
	}

	payer, err := run.payer(obj)
	if err != nil {
		return models.Transaction{}, err
	}
	if payer != models.You && payer != friendID {
		return models.Transaction{}, calculator.ErrUnknownPayer
	}

	tx.Type = models.TypeSplit
	tx.Total = total
	tx.Payer = payer
	tx.FriendID = friendID
	tx.Category = run.category(index, obj)
	tx.Note, _ = obj.str("note")
	return tx, nil
}

func (run *importRun) restoreSettlement(obj object) (models.Transaction, error) {
	var (
		effect   object
		hasDelta bool
		delta    money.Cents
	)
	if effects, ok := decodeArray(obj["effects"]); ok && len(effects) > 0 {
		effect, _ = decodeObject(effects[0])
	}

	rawFriend := obj["friendId"]
	if isNull(rawFriend) && effect != nil {
		rawFriend = effect["friendId"]
	}
	friendID, ok := run.ids.resolve(rawFriend)
	if !ok {
		return models.Transaction{}, errUnknownFriend
	}

	if effect != nil {
		delta, hasDelta = effect.amount("delta")
	}
	if !hasDelta {
		delta, hasDelta = obj.amount("delta")
	}
	if !hasDelta {
		if amount, ok := obj.amount("amount"); ok {
			delta, hasDelta = -amount, true
		}
	}
	if !hasDelta || delta == 0 {
		return models.Transaction{}, errMissingAmount
	}

	status := models.StatusConfirmed
	if raw, ok := obj.str("settlementStatus"); ok && raw != "" {
		parsed, err := settlement.ParseStatus(raw)
		if err != nil {
			return models.Transaction{}, err
		}
		status = parsed
	}

	tx := models.Transaction{CreatedAt: run.createdAt(obj)}
	tx.Type = models.TypeSettlement
	tx.FriendID = friendID
	tx.Delta = &delta
	tx.SettlementStatus = status
	if total, ok := obj.amount("total"); ok && total > 0 {
		tx.Total = total
	}
	tx.Note, _ = obj.str("note")
	if t, ok := obj.time("confirmedAt"); ok && status == models.StatusConfirmed {
		tx.ConfirmedAt = &t
	}
	if t, ok := obj.time("cancelledAt"); ok && status == models.StatusCancelled {
		tx.CancelledAt = &t
	}
	return tx, nil
}

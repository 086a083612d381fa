package calculator

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

var (
	ErrNonPositiveTotal  = errors.New("total must be positive")
	ErrSharesExceedTotal = errors.New("shares exceed total")
	ErrShareMismatch     = errors.New("participant shares do not sum to total")
	ErrNoFriends         = errors.New("split must include at least one friend")
	ErrUnknownPayer      = errors.New("payer must be one of the participants")
)

// SplitInput is the candidate split built from a user action.
type SplitInput struct {
	// ID is optional; a new id is generated when empty.
	ID    string
	Total money.Cents

	// Payer is models.You or a participant's friend id. Empty means You.
	Payer string

	// Participants lists shares. A zero You amount is inferred from the total.
	Participants []models.Participant

	Category string
	Note     string

	// CreatedAt defaults to the current time when zero.
	CreatedAt time.Time
}

// NormalizeParticipants trims ids, drops empty ones, keeps the first
// occurrence of each id, clamps negative amounts to zero and guarantees a
// You entry (inserted first when missing).
func NormalizeParticipants(raw []models.Participant) []models.Participant {
	seen := make(map[string]bool, len(raw))
	out := make([]models.Participant, 0, len(raw)+1)
	for _, p := range raw {
		id := strings.TrimSpace(p.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		amount := p.Amount
		if amount < 0 {
			amount = 0
		}
		out = append(out, models.Participant{ID: id, Amount: amount})
	}
	if !seen[models.You] {
		out = append([]models.Participant{{ID: models.You}}, out...)
	}
	return out
}

// ComputeSplitEffects derives one effect per friend participant, from the
// user's perspective only:
//   - You paid: the friend owes their share (delta = share)
//   - the friend paid: you owe your own share (delta = -youShare)
//   - someone else paid: no direct debt between you and this friend (delta = 0)
func ComputeSplitEffects(payer string, participants []models.Participant) ([]models.Participant, []models.Effect) {
	participants = NormalizeParticipants(participants)
	if payer == "" {
		payer = models.You
	}

	var youShare money.Cents
	for _, p := range participants {
		if p.ID == models.You {
			youShare = p.Amount
			break
		}
	}

	effects := make([]models.Effect, 0, len(participants)-1)
	for _, p := range participants {
		if p.ID == models.You {
			continue
		}
		var delta money.Cents
		switch payer {
		case models.You:
			delta = p.Amount
		case p.ID:
			delta = -youShare
		}
		effects = append(effects, models.Effect{FriendID: p.ID, Share: p.Amount, Delta: delta})
	}
	return participants, effects
}

// FriendIDs returns the unique non-You participant ids in order.
func FriendIDs(participants []models.Participant) []string {
	seen := make(map[string]bool, len(participants))
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		if p.ID == models.You || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		ids = append(ids, p.ID)
	}
	return ids
}

// ParticipantSum adds up participant amounts.
func ParticipantSum(participants []models.Participant) money.Cents {
	var sum money.Cents
	for _, p := range participants {
		sum += p.Amount
	}
	return sum
}

// validatePayer checks that the payer is one of the participants.
func validatePayer(payer string, participants []models.Participant) error {
	for _, p := range participants {
		if p.ID == payer {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPayer, payer)
}

// BuildSplitTransaction builds a canonical split record. The result always
// satisfies sum(participants.amount) == total.
func BuildSplitTransaction(in SplitInput) (models.Transaction, error) {
	if in.Total <= 0 {
		return models.Transaction{}, ErrNonPositiveTotal
	}

	participants := NormalizeParticipants(in.Participants)
	var friendSum money.Cents
	youIdx := -1
	for i, p := range participants {
		if p.ID == models.You {
			youIdx = i
			continue
		}
		friendSum += p.Amount
	}
	if len(participants) < 2 {
		return models.Transaction{}, ErrNoFriends
	}
	if friendSum > in.Total {
		return models.Transaction{}, fmt.Errorf("%w: %s > %s", ErrSharesExceedTotal, friendSum, in.Total)
	}
	if participants[youIdx].Amount == 0 {
		participants[youIdx].Amount = in.Total - friendSum
	}
	if sum := participants[youIdx].Amount + friendSum; sum != in.Total {
		return models.Transaction{}, fmt.Errorf("%w: %s != %s", ErrShareMismatch, sum, in.Total)
	}

	payer := strings.TrimSpace(in.Payer)
	if payer == "" {
		payer = models.You
	}
	if err := validatePayer(payer, participants); err != nil {
		return models.Transaction{}, err
	}

	participants, effects := ComputeSplitEffects(payer, participants)
	friendIDs := FriendIDs(participants)

	tx := models.Transaction{
		ID:           in.ID,
		Type:         models.TypeSplit,
		Total:        in.Total,
		Payer:        payer,
		Participants: participants,
		Effects:      effects,
		FriendIDs:    friendIDs,
		Category:     in.Category,
		Note:         strings.TrimSpace(in.Note),
		CreatedAt:    in.CreatedAt,
	}
	if len(friendIDs) == 1 {
		tx.FriendID = friendIDs[0]
	}
	if tx.ID == "" {
		tx.ID = NewID()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	if tx.Category == "" {
		tx.Category = models.CategoryOther
	}
	return tx, nil
}

// NewID returns a random UUID, or a timestamp+random composite when the
// system's secure random source fails.
func NewID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	var b [6]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("tx-%x-%s", time.Now().UnixNano(), hex.EncodeToString(b[:]))
}

// UpdateMetadata returns tx with a new category and note. Amounts, effects
// and status are untouched.
func UpdateMetadata(tx models.Transaction, category, note string, at time.Time) models.Transaction {
	tx.Category = category
	tx.Note = strings.TrimSpace(note)
	tx.UpdatedAt = &at
	return tx
}

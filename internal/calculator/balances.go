package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// FriendBalance is the net balance with a single friend.
type FriendBalance struct {
	FriendID string      `json:"friendId"`
	Balance  money.Cents `json:"balance"` // Positive = they owe you, Negative = you owe them
}

// BalanceSummary aggregates all friend balances.
type BalanceSummary struct {
	OwedToYou   money.Cents `json:"owedToYou"`
	YouOwe      money.Cents `json:"youOwe"`
	Net         money.Cents `json:"net"`
	OpenFriends int         `json:"openFriends"`
}

// ComputeBalances folds the effects of every transaction into a signed
// balance per friend. Settlements count in any status, so an open
// settlement already offsets the debt it was created for.
//
// Amounts are integer cents, so the fold is exactly commutative and
// associative: any permutation of txs yields the same map. Friends with no
// effects are absent; callers treat a missing entry as zero.
func ComputeBalances(txs []models.Transaction) map[string]money.Cents {
	balances := make(map[string]money.Cents)
	for _, tx := range txs {
		for _, e := range tx.Effects {
			if e.FriendID == "" {
				continue
			}
			balances[e.FriendID] += e.Delta
		}
	}
	return balances
}

// BalanceOf returns the balance for a friend, zero when absent.
func BalanceOf(balances map[string]money.Cents, friendID string) money.Cents {
	return balances[friendID]
}

// IsSettled reports whether a balance is zero to the cent.
func IsSettled(balance money.Cents) bool {
	return balance == 0
}

// Summarize totals what friends owe you and what you owe them.
func Summarize(balances map[string]money.Cents) BalanceSummary {
	var s BalanceSummary
	for _, b := range balances {
		switch {
		case b > 0:
			s.OwedToYou += b
		case b < 0:
			s.YouOwe += -b
		}
		if !IsSettled(b) {
			s.OpenFriends++
		}
	}
	s.Net = s.OwedToYou - s.YouOwe
	return s
}

// SortedBalances lists balances largest magnitude first, ties by friend id.
func SortedBalances(balances map[string]money.Cents) []FriendBalance {
	out := make([]FriendBalance, 0, len(balances))
	for id, b := range balances {
		out = append(out, FriendBalance{FriendID: id, Balance: b})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Balance.Abs(), out[j].Balance.Abs()
		if ai != aj {
			return ai > aj
		}
		return out[i].FriendID < out[j].FriendID
	})
	return out
}

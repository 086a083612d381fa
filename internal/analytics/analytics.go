// Package analytics computes summary statistics over a transaction list.
//
// Every function is pure and expects a list already filtered by the caller
// (see Filter). Monetary results are integer cents.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Overview is the headline summary of a transaction list.
type Overview struct {
	Count       int         `json:"count"`
	TotalVolume money.Cents `json:"totalVolume"`
	OwedToYou   money.Cents `json:"owedToYou"`
	YouOwe      money.Cents `json:"youOwe"`
	NetBalance  money.Cents `json:"netBalance"`
	Average     money.Cents `json:"average"`
}

// CategoryTotal is the personal spend in one category.
type CategoryTotal struct {
	Category string      `json:"category"`
	Total    money.Cents `json:"total"`
}

// CategorySlice is a CategoryTotal with its share of the grand total, in
// percent rounded to one decimal.
type CategorySlice struct {
	Category   string      `json:"category"`
	Total      money.Cents `json:"total"`
	Percentage float64     `json:"percentage"`
}

// volume is the gross amount of a transaction: its total, or the sum of its
// effects when no total was recorded.
func volume(tx models.Transaction) money.Cents {
	if tx.Total > 0 {
		return tx.Total
	}
	var sum money.Cents
	for _, e := range tx.Effects {
		if e.Share != 0 {
			sum += e.Share.Abs()
		} else {
			sum += e.Delta.Abs()
		}
	}
	return sum
}

// ComputeOverview counts transactions, sums gross volume and splits effect
// deltas into what friends owe you and what you owe them.
func ComputeOverview(txs []models.Transaction) Overview {
	var o Overview
	o.Count = len(txs)
	for _, tx := range txs {
		o.TotalVolume += volume(tx)
		for _, e := range tx.Effects {
			switch {
			case e.Delta > 0:
				o.OwedToYou += e.Delta
			case e.Delta < 0:
				o.YouOwe += -e.Delta
			}
		}
	}
	o.NetBalance = o.OwedToYou - o.YouOwe
	if o.Count > 0 {
		o.Average = o.TotalVolume.DivRound(int64(o.Count))
	}
	return o
}

// PersonalShare is the part of a split that is your own expense: the You
// participant's amount, or the whole total when you paid and the record has
// no participant breakdown.
func PersonalShare(tx models.Transaction) money.Cents {
	if p, ok := tx.Participant(models.You); ok {
		return p.Amount
	}
	if len(tx.Participants) == 0 && (tx.Payer == models.You || tx.Payer == "") {
		return tx.Total
	}
	return 0
}

func categoryOf(tx models.Transaction) string {
	if tx.Category == "" {
		return models.CategoryOther
	}
	return tx.Category
}

// ComputeCategoryTotals sums personal shares per category over splits,
// largest first. Settlements carry no category and are skipped.
func ComputeCategoryTotals(txs []models.Transaction) []CategoryTotal {
	totals := make(map[string]money.Cents)
	for _, tx := range txs {
		if tx.IsSettlement() {
			continue
		}
		totals[categoryOf(tx)] += PersonalShare(tx)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for c, total := range totals {
		out = append(out, CategoryTotal{Category: c, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// ComputeCategoryBreakdown adds each category's percentage of the grand total.
func ComputeCategoryBreakdown(txs []models.Transaction) []CategorySlice {
	totals := ComputeCategoryTotals(txs)
	var grand money.Cents
	for _, t := range totals {
		grand += t.Total
	}

	out := make([]CategorySlice, len(totals))
	for i, t := range totals {
		out[i] = CategorySlice{Category: t.Category, Total: t.Total}
		if grand > 0 {
			out[i].Percentage = roundTo(t.Total.Ratio(grand)*100, 1)
		}
	}
	return out
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Filter narrows a transaction list before aggregation. Zero fields match
// everything; From is inclusive and To exclusive.
type Filter struct {
	Category string
	From     time.Time
	To       time.Time
}

// Apply returns the transactions matching f, in order.
func (f Filter) Apply(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Category != "" && (tx.IsSettlement() || categoryOf(tx) != f.Category) {
			continue
		}
		ts := tx.Timestamp()
		if !f.From.IsZero() && ts.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !ts.Before(f.To) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

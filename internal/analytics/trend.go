package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Budget status values.
const (
	StatusOnTrack = "on-track"
	StatusWarning = "warning"
	StatusOver    = "over"
)

// warningThreshold is the utilization at which a budget starts warning.
const warningThreshold = 0.9

// MonthBucket is the personal spend of one calendar month.
type MonthBucket struct {
	Key   string      `json:"key"`   // YYYY-MM
	Label string      `json:"label"` // short month name, e.g. "Jan"
	Year  int         `json:"year"`
	Month int         `json:"month"`
	Total money.Cents `json:"total"`
}

// BudgetStatus is the utilization of a monthly budget.
type BudgetStatus struct {
	Category    string      `json:"category,omitempty"`
	Budget      money.Cents `json:"budget"`
	Spent       money.Cents `json:"spent"`
	Remaining   money.Cents `json:"remaining"`
	Utilization float64     `json:"utilization"`
	Status      string      `json:"status"`
}

// MonthKey returns the YYYY-MM bucket key for t. Months are UTC months
// whatever location t carries.
func MonthKey(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// ComputeMonthlyTrend buckets personal share by the month of each split's
// timestamp and keeps the most recent months buckets, oldest first.
// Transactions without any timestamp are skipped.
func ComputeMonthlyTrend(txs []models.Transaction, months int) []MonthBucket {
	if months <= 0 {
		return []MonthBucket{}
	}

	buckets := make(map[string]*MonthBucket)
	for _, tx := range txs {
		if tx.IsSettlement() {
			continue
		}
		ts := tx.Timestamp().UTC()
		if ts.IsZero() {
			continue
		}
		key := MonthKey(ts)
		b, ok := buckets[key]
		if !ok {
			b = &MonthBucket{
				Key:   key,
				Label: ts.Month().String()[:3],
				Year:  ts.Year(),
				Month: int(ts.Month()),
			}
			buckets[key] = b
		}
		b.Total += PersonalShare(tx)
	}

	out := make([]MonthBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > months {
		out = out[len(out)-months:]
	}
	return out
}

// ComputeBudgetStatus sums personal share of the splits falling in today's
// month and compares it against budget.
func ComputeBudgetStatus(txs []models.Transaction, budget money.Cents, today time.Time) BudgetStatus {
	key := MonthKey(today)
	var spent money.Cents
	for _, tx := range txs {
		if tx.IsSettlement() {
			continue
		}
		ts := tx.Timestamp()
		if ts.IsZero() || MonthKey(ts) != key {
			continue
		}
		spent += PersonalShare(tx)
	}
	return budgetStatus(budget, spent)
}

func budgetStatus(budget, spent money.Cents) BudgetStatus {
	s := BudgetStatus{
		Budget:      budget,
		Spent:       spent,
		Remaining:   budget - spent,
		Utilization: spent.Ratio(budget),
	}
	switch {
	case budget > 0 && s.Utilization >= 1:
		s.Status = StatusOver
	case s.Utilization >= warningThreshold:
		s.Status = StatusWarning
	default:
		s.Status = StatusOnTrack
	}
	return s
}

// ComputeCategoryBudgets evaluates every per-category budget for today's
// month, in category order.
func ComputeCategoryBudgets(txs []models.Transaction, budgets map[string]money.Cents, today time.Time) []BudgetStatus {
	categories := make([]string, 0, len(budgets))
	for c := range budgets {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	out := make([]BudgetStatus, 0, len(categories))
	for _, c := range categories {
		s := ComputeBudgetStatus(Filter{Category: c}.Apply(txs), budgets[c], today)
		s.Category = c
		out = append(out, s)
	}
	return out
}

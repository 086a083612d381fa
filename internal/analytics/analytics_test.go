package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

func split(category string, total, youShare money.Cents, created time.Time) models.Transaction {
	friend := total - youShare
	return models.Transaction{
		Type:         models.TypeSplit,
		Total:        total,
		Payer:        models.You,
		Participants: []models.Participant{{ID: models.You, Amount: youShare}, {ID: "f", Amount: friend}},
		Effects:      []models.Effect{{FriendID: "f", Share: friend, Delta: friend}},
		Category:     category,
		CreatedAt:    created,
	}
}

func TestComputeOverview(t *testing.T) {
	txs := []models.Transaction{
		split("Food", 10000, 6000, at(2026, 1, 5)),
		{
			Type: models.TypeSplit, Total: 3000, Payer: "f",
			Participants: []models.Participant{{ID: models.You, Amount: 1500}, {ID: "f", Amount: 1500}},
			Effects:      []models.Effect{{FriendID: "f", Share: 1500, Delta: -1500}},
		},
		// legacy settlement: no total recorded
		{Type: models.TypeSettlement, Effects: []models.Effect{{FriendID: "f", Delta: -1000}}},
	}

	o := ComputeOverview(txs)
	assert.Equal(t, 3, o.Count)
	assert.Equal(t, money.Cents(14000), o.TotalVolume)
	assert.Equal(t, money.Cents(4000), o.OwedToYou)
	assert.Equal(t, money.Cents(2500), o.YouOwe)
	assert.Equal(t, money.Cents(1500), o.NetBalance)
	assert.Equal(t, money.Cents(4667), o.Average)
}

func TestComputeOverview_OpenSettlement(t *testing.T) {
	txs := []models.Transaction{
		{Type: models.TypeSplit, Total: 5000, Effects: []models.Effect{{FriendID: "f", Share: 2500, Delta: 2500}}},
		{Type: models.TypeSettlement, SettlementStatus: models.StatusInitiated, Total: 2500, Amount: 2500,
			Effects: []models.Effect{{FriendID: "f", Share: 2500, Delta: -2500}}},
	}
	o := ComputeOverview(txs)
	assert.Equal(t, money.Cents(2500), o.OwedToYou)
	assert.Equal(t, money.Cents(2500), o.YouOwe)
	assert.Equal(t, money.Cents(0), o.NetBalance)
}

func TestComputeOverview_Empty(t *testing.T) {
	assert.Equal(t, Overview{}, ComputeOverview(nil))
}

func TestPersonalShare(t *testing.T) {
	assert.Equal(t, money.Cents(6000), PersonalShare(split("Food", 10000, 6000, time.Time{})))
	assert.Equal(t, money.Cents(800), PersonalShare(models.Transaction{Total: 800, Payer: models.You}))
	assert.Equal(t, money.Zero, PersonalShare(models.Transaction{Total: 800, Payer: "f"}))
}

func TestComputeCategoryBreakdown(t *testing.T) {
	txs := []models.Transaction{
		split("Food", 3000, 1000, at(2026, 1, 1)),
		split("Travel", 9000, 2000, at(2026, 1, 2)),
		split("Food", 1000, 500, at(2026, 1, 3)),
		split("", 1000, 333, at(2026, 1, 4)),
		{Type: models.TypeSettlement, Total: 5000, Amount: -5000},
	}

	totals := ComputeCategoryTotals(txs)
	require.Len(t, totals, 3)
	assert.Equal(t, CategoryTotal{Category: "Travel", Total: 2000}, totals[0])
	assert.Equal(t, CategoryTotal{Category: "Food", Total: 1500}, totals[1])
	assert.Equal(t, CategoryTotal{Category: models.CategoryOther, Total: 333}, totals[2])

	breakdown := ComputeCategoryBreakdown(txs)
	require.Len(t, breakdown, 3)
	assert.Equal(t, 52.2, breakdown[0].Percentage)
	assert.Equal(t, 39.1, breakdown[1].Percentage)
	assert.Equal(t, 8.7, breakdown[2].Percentage)

	var sum float64
	for _, s := range breakdown {
		sum += s.Percentage
	}
	assert.LessOrEqual(t, math.Abs(sum-100), 0.1*float64(len(breakdown)))
}

func TestComputeCategoryBreakdown_ZeroShares(t *testing.T) {
	breakdown := ComputeCategoryBreakdown([]models.Transaction{split("Food", 1000, 0, at(2026, 1, 1))})
	require.Len(t, breakdown, 1)
	assert.Equal(t, 0.0, breakdown[0].Percentage)
}

func TestComputeMonthlyTrend(t *testing.T) {
	updated := at(2026, 3, 9)
	txs := []models.Transaction{
		split("Food", 2000, 1000, at(2025, 12, 30)),
		split("Food", 2000, 1000, at(2026, 1, 2)),
		split("Food", 4000, 2000, at(2026, 1, 20)),
		split("Food", 600, 300, at(2026, 2, 14)),
		{Type: models.TypeSplit, Total: 500, Payer: models.You, UpdatedAt: &updated},
		split("Food", 100, 100, time.Time{}),
	}

	trend := ComputeMonthlyTrend(txs, 3)
	require.Len(t, trend, 3)
	assert.Equal(t, MonthBucket{Key: "2026-01", Label: "Jan", Year: 2026, Month: 1, Total: 3000}, trend[0])
	assert.Equal(t, "2026-02", trend[1].Key)
	assert.Equal(t, MonthBucket{Key: "2026-03", Label: "Mar", Year: 2026, Month: 3, Total: 500}, trend[2])

	assert.Len(t, ComputeMonthlyTrend(txs, 12), 4)
	assert.Empty(t, ComputeMonthlyTrend(txs, 0))
}

func TestComputeBudgetStatus_Boundaries(t *testing.T) {
	today := at(2026, 4, 15)
	tests := []struct {
		spent money.Cents
		want  string
	}{
		{8900, StatusOnTrack},
		{9000, StatusWarning},
		{9999, StatusWarning},
		{10000, StatusOver},
		{12000, StatusOver},
	}
	for _, tt := range tests {
		t.Run(money.Format(tt.spent), func(t *testing.T) {
			txs := []models.Transaction{
				split("Food", tt.spent, tt.spent, at(2026, 4, 2)),
				split("Food", 5000, 5000, at(2026, 3, 31)), // previous month
			}
			s := ComputeBudgetStatus(txs, 10000, today)
			assert.Equal(t, tt.want, s.Status)
			assert.Equal(t, tt.spent, s.Spent)
			assert.Equal(t, 10000-tt.spent, s.Remaining)
		})
	}
}

func TestMonthKey_UTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	losAngeles := time.FixedZone("PDT", -7*60*60)

	// 2026-04-01 02:00 in Tokyo and 2026-03-31 10:00 in Los Angeles are both
	// 2026-03-31 17:00 UTC.
	assert.Equal(t, "2026-03", MonthKey(time.Date(2026, 4, 1, 2, 0, 0, 0, tokyo)))
	assert.Equal(t, "2026-03", MonthKey(time.Date(2026, 3, 31, 10, 0, 0, 0, losAngeles)))

	txs := []models.Transaction{split("Food", 2000, 1000, time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC))}
	today := time.Date(2026, 4, 1, 6, 0, 0, 0, tokyo)
	assert.Equal(t, money.Cents(1000), ComputeBudgetStatus(txs, 10000, today).Spent)

	trend := ComputeMonthlyTrend(txs, 6)
	require.Len(t, trend, 1)
	assert.Equal(t, "2026-03", trend[0].Key)
	assert.Equal(t, "Mar", trend[0].Label)
}

func TestComputeBudgetStatus_ZeroBudget(t *testing.T) {
	s := ComputeBudgetStatus([]models.Transaction{split("Food", 500, 500, at(2026, 4, 2))}, 0, at(2026, 4, 3))
	assert.Equal(t, 0.0, s.Utilization)
	assert.Equal(t, StatusOnTrack, s.Status)
}

func TestComputeCategoryBudgets(t *testing.T) {
	today := at(2026, 4, 20)
	txs := []models.Transaction{
		split("Food", 9500, 9500, at(2026, 4, 1)),
		split("Travel", 1000, 1000, at(2026, 4, 2)),
	}
	got := ComputeCategoryBudgets(txs, map[string]money.Cents{"Travel": 10000, "Food": 10000}, today)
	require.Len(t, got, 2)
	assert.Equal(t, "Food", got[0].Category)
	assert.Equal(t, StatusWarning, got[0].Status)
	assert.Equal(t, "Travel", got[1].Category)
	assert.Equal(t, StatusOnTrack, got[1].Status)
}

func TestFilterApply(t *testing.T) {
	txs := []models.Transaction{
		split("Food", 100, 50, at(2026, 1, 1)),
		split("Travel", 100, 50, at(2026, 2, 1)),
		split("Food", 100, 50, at(2026, 3, 1)),
		{Type: models.TypeSettlement, CreatedAt: at(2026, 2, 2)},
	}

	assert.Len(t, Filter{}.Apply(txs), 4)
	assert.Len(t, Filter{Category: "Food"}.Apply(txs), 2)
	assert.Len(t, Filter{From: at(2026, 2, 1), To: at(2026, 3, 1)}.Apply(txs), 2)
}

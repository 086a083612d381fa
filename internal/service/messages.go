package service

import (
	"encoding/json"
	"time"

	"github.com/mmynk/splitledger/internal/analytics"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/snapshot"
)

// Empty is the request or response of procedures without fields.
type Empty struct{}

type ImportSnapshotRequest struct {
	// Snapshot is a bare snapshot root or a {version, payload} envelope.
	Snapshot json.RawMessage `json:"snapshot"`
}

type ImportSnapshotResponse struct {
	Friends             []models.Friend               `json:"friends"`
	Transactions        []models.Transaction          `json:"transactions"`
	SelectedID          *string                       `json:"selectedId"`
	SkippedTransactions []snapshot.SkippedTransaction `json:"skippedTransactions"`
	Diagnostics         []string                      `json:"diagnostics"`
}

type AddFriendRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Tag   string `json:"tag"`
}

type FriendRequest struct {
	FriendID string `json:"friendId"`
}

type CreateSplitRequest struct {
	Total        money.Cents          `json:"total"`
	Payer        string               `json:"payer"`
	Participants []models.Participant `json:"participants"`
	Category     string               `json:"category"`
	Note         string               `json:"note"`
	CreatedAt    *time.Time           `json:"createdAt"`
}

type SettleUpRequest struct {
	FriendID string `json:"friendId"`
	MarkPaid bool   `json:"markPaid"`
	Note     string `json:"note"`
}

type UpdateSettlementRequest struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

type UpdateTransactionRequest struct {
	TransactionID string `json:"transactionId"`
	Category      string `json:"category"`
	Note          string `json:"note"`
}

type TransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type TransactionResponse struct {
	Transaction models.Transaction `json:"transaction"`
}

type FriendResponse struct {
	Friend models.Friend `json:"friend"`
}

type BalanceEntry struct {
	FriendID string      `json:"friendId"`
	Name     string      `json:"name"`
	Balance  money.Cents `json:"balance"`
	Display  string      `json:"display"`
	Settled  bool        `json:"settled"`
}

type GetBalancesResponse struct {
	Balances   []BalanceEntry            `json:"balances"`
	Summary    calculator.BalanceSummary `json:"summary"`
	SelectedID *string                   `json:"selectedId"`
}

type GetAnalyticsRequest struct {
	Category string     `json:"category"`
	From     *time.Time `json:"from"`
	To       *time.Time `json:"to"`

	// Months is the trend window; zero means the default.
	Months int `json:"months"`
}

type GetAnalyticsResponse struct {
	Overview   analytics.Overview        `json:"overview"`
	Categories []analytics.CategorySlice `json:"categories"`
	Trend      []analytics.MonthBucket   `json:"trend"`
	Budgets    []analytics.BudgetStatus  `json:"budgets"`
}

type SetBudgetRequest struct {
	Category string `json:"category"`

	// Amount is the monthly ceiling; null clears the budget.
	Amount *money.Cents `json:"amount"`
}

type SetBudgetResponse struct {
	Budgets []models.Budget `json:"budgets"`
}

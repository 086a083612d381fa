// Package service exposes the ledger over Connect RPC.
//
// Messages are google.protobuf.Struct values, so clients can call every
// procedure with plain JSON objects (Connect JSON codec) or binary protobuf.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/analytics"
	"github.com/mmynk/splitledger/internal/book"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/settlement"
	"github.com/mmynk/splitledger/internal/snapshot"
)

// ServiceName is the fully-qualified name of the ledger service.
const ServiceName = "splitledger.v1.LedgerService"

// Procedure paths.
const (
	ImportSnapshotProcedure    = "/" + ServiceName + "/ImportSnapshot"
	ExportSnapshotProcedure    = "/" + ServiceName + "/ExportSnapshot"
	AddFriendProcedure         = "/" + ServiceName + "/AddFriend"
	RemoveFriendProcedure      = "/" + ServiceName + "/RemoveFriend"
	SelectFriendProcedure      = "/" + ServiceName + "/SelectFriend"
	CreateSplitProcedure       = "/" + ServiceName + "/CreateSplit"
	SettleUpProcedure          = "/" + ServiceName + "/SettleUp"
	UpdateSettlementProcedure  = "/" + ServiceName + "/UpdateSettlement"
	UpdateTransactionProcedure = "/" + ServiceName + "/UpdateTransaction"
	DeleteTransactionProcedure = "/" + ServiceName + "/DeleteTransaction"
	GetBalancesProcedure       = "/" + ServiceName + "/GetBalances"
	GetAnalyticsProcedure      = "/" + ServiceName + "/GetAnalytics"
	SetBudgetProcedure         = "/" + ServiceName + "/SetBudget"
)

const (
	defaultTrendMonths = 6
	maxTrendMonths     = 36
)

// SnapshotSaver persists the ledger after every change.
type SnapshotSaver interface {
	Save(ctx context.Context, s models.Snapshot) error
}

// LedgerService implements the ledger procedures over a book.Book.
type LedgerService struct {
	book     *book.Book
	store    SnapshotSaver
	restorer *snapshot.Restorer
	metrics  *metrics.Metrics
	now      func() time.Time

	// mu orders mutations with their saves so stored snapshots never go back
	// in time.
	mu sync.Mutex
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithRestorer sets the restorer used by ImportSnapshot.
func WithRestorer(r *snapshot.Restorer) Option {
	return func(s *LedgerService) { s.restorer = r }
}

// WithMetrics records import outcomes in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

// WithClock sets the time source for budget evaluation.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// NewLedgerService creates a LedgerService over b, saving to store.
func NewLedgerService(b *book.Book, store SnapshotSaver, opts ...Option) *LedgerService {
	s := &LedgerService{
		book:  b,
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.restorer == nil {
		s.restorer = snapshot.NewRestorer()
	}
	return s
}

// Handler returns the path prefix and handler serving every procedure.
func (s *LedgerService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	routes := map[string]unaryFunc{
		ImportSnapshotProcedure:    unary(s.ImportSnapshot),
		ExportSnapshotProcedure:    unary(s.ExportSnapshot),
		AddFriendProcedure:         unary(s.AddFriend),
		RemoveFriendProcedure:      unary(s.RemoveFriend),
		SelectFriendProcedure:      unary(s.SelectFriend),
		CreateSplitProcedure:       unary(s.CreateSplit),
		SettleUpProcedure:          unary(s.SettleUp),
		UpdateSettlementProcedure:  unary(s.UpdateSettlement),
		UpdateTransactionProcedure: unary(s.UpdateTransaction),
		DeleteTransactionProcedure: unary(s.DeleteTransaction),
		GetBalancesProcedure:       unary(s.GetBalances),
		GetAnalyticsProcedure:      unary(s.GetAnalytics),
		SetBudgetProcedure:         unary(s.SetBudget),
	}
	for procedure, fn := range routes {
		mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
	}
	return "/" + ServiceName + "/", mux
}

// mutate applies fn and saves the resulting snapshot. When the save fails
// the book is rolled back so memory never runs ahead of storage.
func (s *LedgerService) mutate(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.book.Snapshot()
	if err := fn(); err != nil {
		return err
	}
	if err := s.store.Save(ctx, s.book.Snapshot()); err != nil {
		s.book.Replace(prev)
		slog.Error("failed to persist ledger", "request_id", middleware.GetRequestID(ctx), "error", err)
		return connect.NewError(connect.CodeInternal, fmt.Errorf("failed to persist ledger: %w", err))
	}
	return nil
}

// ImportSnapshot validates a snapshot and replaces the whole ledger with it.
func (s *LedgerService) ImportSnapshot(ctx context.Context, req *ImportSnapshotRequest) (*ImportSnapshotResponse, error) {
	res, err := s.restorer.Restore(req.Snapshot)
	if s.metrics != nil {
		skipped := 0
		if res != nil {
			skipped = len(res.SkippedTransactions)
		}
		s.metrics.ObserveImport(err, skipped)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	err = s.mutate(ctx, func() error {
		s.book.Replace(res.Snapshot)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("snapshot imported",
		"request_id", middleware.GetRequestID(ctx),
		"friends", len(res.Snapshot.Friends),
		"transactions", len(res.Snapshot.Transactions),
		"skipped", len(res.SkippedTransactions),
	)
	return &ImportSnapshotResponse{
		Friends:             res.Snapshot.Friends,
		Transactions:        res.Snapshot.Transactions,
		SelectedID:          res.Snapshot.SelectedID,
		SkippedTransactions: res.SkippedTransactions,
		Diagnostics:         res.Diagnostics,
	}, nil
}

// ExportSnapshot returns the ledger in the current export envelope.
func (s *LedgerService) ExportSnapshot(ctx context.Context, _ *Empty) (json.RawMessage, error) {
	data, err := snapshot.Export(s.book.Snapshot())
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return data, nil
}

func (s *LedgerService) AddFriend(ctx context.Context, req *AddFriendRequest) (*FriendResponse, error) {
	var f models.Friend
	err := s.mutate(ctx, func() error {
		var err error
		f, err = s.book.AddFriend(book.FriendInput{Name: req.Name, Email: req.Email, Tag: req.Tag})
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("friend added", "request_id", middleware.GetRequestID(ctx), "friend_id", f.ID)
	return &FriendResponse{Friend: f}, nil
}

func (s *LedgerService) RemoveFriend(ctx context.Context, req *FriendRequest) (*Empty, error) {
	if err := s.mutate(ctx, func() error { return s.book.RemoveFriend(req.FriendID) }); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// SelectFriend sets the selected friend; an empty id clears the selection.
func (s *LedgerService) SelectFriend(ctx context.Context, req *FriendRequest) (*Empty, error) {
	if err := s.mutate(ctx, func() error { return s.book.Select(req.FriendID) }); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *LedgerService) CreateSplit(ctx context.Context, req *CreateSplitRequest) (*TransactionResponse, error) {
	in := calculator.SplitInput{
		Total:        req.Total,
		Payer:        req.Payer,
		Participants: req.Participants,
		Category:     req.Category,
		Note:         req.Note,
	}
	if req.CreatedAt != nil {
		in.CreatedAt = req.CreatedAt.UTC()
	}

	var tx models.Transaction
	err := s.mutate(ctx, func() error {
		var err error
		tx, err = s.book.AddSplit(in)
		return err
	})
	if err != nil {
		slog.Debug("CreateSplit rejected", "request_id", middleware.GetRequestID(ctx), "error", err)
		return nil, err
	}
	slog.Info("split created",
		"request_id", middleware.GetRequestID(ctx),
		"transaction_id", tx.ID,
		"total", tx.Total.String(),
		"friends", len(tx.FriendIDs),
	)
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *LedgerService) SettleUp(ctx context.Context, req *SettleUpRequest) (*TransactionResponse, error) {
	var tx models.Transaction
	err := s.mutate(ctx, func() error {
		var err error
		tx, err = s.book.SettleUp(req.FriendID, req.MarkPaid, req.Note)
		return err
	})
	if err != nil {
		return nil, err
	}
	slog.Info("settlement recorded",
		"request_id", middleware.GetRequestID(ctx),
		"transaction_id", tx.ID,
		"friend_id", tx.FriendID,
		"status", tx.SettlementStatus,
	)
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *LedgerService) UpdateSettlement(ctx context.Context, req *UpdateSettlementRequest) (*TransactionResponse, error) {
	status, err := settlement.ParseStatus(req.Status)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	var tx models.Transaction
	err = s.mutate(ctx, func() error {
		var err error
		tx, err = s.book.TransitionSettlement(req.TransactionID, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, req *UpdateTransactionRequest) (*TransactionResponse, error) {
	var tx models.Transaction
	err := s.mutate(ctx, func() error {
		var err error
		tx, err = s.book.UpdateTransaction(req.TransactionID, req.Category, req.Note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &TransactionResponse{Transaction: tx}, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, req *TransactionRequest) (*Empty, error) {
	if err := s.mutate(ctx, func() error { return s.book.DeleteTransaction(req.TransactionID) }); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// GetBalances lists every friend's balance, largest first.
func (s *LedgerService) GetBalances(ctx context.Context, _ *Empty) (*GetBalancesResponse, error) {
	balances := s.book.Balances()
	names := make(map[string]string, len(balances))
	for _, f := range s.book.Friends() {
		names[f.ID] = f.Name
	}

	resp := &GetBalancesResponse{
		Balances: make([]BalanceEntry, 0, len(balances)),
		Summary:  calculator.Summarize(balances),
	}
	for _, fb := range calculator.SortedBalances(balances) {
		resp.Balances = append(resp.Balances, BalanceEntry{
			FriendID: fb.FriendID,
			Name:     names[fb.FriendID],
			Balance:  fb.Balance,
			Display:  money.Format(fb.Balance),
			Settled:  calculator.IsSettled(fb.Balance),
		})
	}
	if id, ok := s.book.Selected(); ok {
		resp.SelectedID = &id
	}
	return resp, nil
}

// GetAnalytics aggregates the (optionally filtered) transactions.
func (s *LedgerService) GetAnalytics(ctx context.Context, req *GetAnalyticsRequest) (*GetAnalyticsResponse, error) {
	months := req.Months
	if months == 0 {
		months = defaultTrendMonths
	}
	if months < 0 || months > maxTrendMonths {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("months must be between 1 and %d", maxTrendMonths))
	}

	var filter analytics.Filter
	if req.Category != "" {
		category, ok := models.ResolveCategory(s.book.Categories(), req.Category)
		if !ok {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", book.ErrUnknownCategory, req.Category))
		}
		filter.Category = category
	}
	if req.From != nil {
		filter.From = *req.From
	}
	if req.To != nil {
		filter.To = *req.To
	}

	snap := s.book.Snapshot()
	txs := filter.Apply(snap.Transactions)
	return &GetAnalyticsResponse{
		Overview:   analytics.ComputeOverview(txs),
		Categories: analytics.ComputeCategoryBreakdown(txs),
		Trend:      analytics.ComputeMonthlyTrend(txs, months),
		Budgets:    analytics.ComputeCategoryBudgets(snap.Transactions, snap.Budgets, s.now()),
	}, nil
}

// SetBudget sets or clears a category budget and returns every budget.
func (s *LedgerService) SetBudget(ctx context.Context, req *SetBudgetRequest) (*SetBudgetResponse, error) {
	if err := s.mutate(ctx, func() error { return s.book.SetBudget(req.Category, req.Amount) }); err != nil {
		return nil, err
	}
	return &SetBudgetResponse{Budgets: s.book.Budgets()}, nil
}

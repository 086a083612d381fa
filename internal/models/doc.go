// Package models defines the core domain models for splitledger.
//
// # Perspective
//
// The ledger is kept from a single user's point of view. That user is the
// participant with the reserved id You; everyone else is a Friend. Balances
// are signed per friend: positive means the friend owes you, negative means
// you owe the friend.
//
// # Records
//
//   - Friend: a counterparty you share expenses with
//   - Transaction: either a split (an expense divided among participants) or a
//     settlement (a payment clearing some or all of a balance)
//   - Participant: who owes how much of a split's total
//   - Effect: the derived signed balance impact of a transaction on one friend
//   - Snapshot: the exportable bundle of friends, transactions, selection and budgets
//
// # Design Principles
//
// 1. **Cents everywhere**: every amount is money.Cents; floats only exist at the edges
// 2. **Derived effects**: effects are computed by the calculator, never edited
// 3. **IDs, not pointers**: records reference each other by id strings
// 4. **Legacy tolerant**: Transaction can carry pre-v2 fields so old exports decode
package models

// Package ledger holds the stateful record books the HTTP layer talks to.
// A book owns the loaded collection for one record kind, serializes
// mutations, and keeps the derived view (range, filter, summary) consistent.
package ledger

import (
	"context"

	"jangbu/internal/core"
)

// ExpenseStore is the persistence surface an expense book needs.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	ListExpenses(ctx context.Context, owner string) ([]core.Expense, error)
	ListExpensesByDateRange(ctx context.Context, owner, start, end string) ([]core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, id string) error
	DeleteAllExpenses(ctx context.Context, owner string) error
}

// IncomeStore is the persistence surface an income book needs.
type IncomeStore interface {
	CreateIncome(ctx context.Context, in core.Income) error
	GetIncome(ctx context.Context, id string) (core.Income, error)
	ListIncomes(ctx context.Context, owner string) ([]core.Income, error)
	UpdateIncome(ctx context.Context, in core.Income) error
	DeleteIncome(ctx context.Context, id string) error
	DeleteAllIncomes(ctx context.Context, owner string) error
}

// SettingsStore is the persistence surface for the per-owner settings row.
// AdjustBudget must apply the delta atomically and clamp at zero.
type SettingsStore interface {
	GetSettings(ctx context.Context, owner string) (core.Settings, error)
	SaveSettings(ctx context.Context, s core.Settings) error
	AdjustBudget(ctx context.Context, owner string, delta int64) error
}

// Store is the full persistence surface the books share.
type Store interface {
	ExpenseStore
	IncomeStore
	SettingsStore
	Close() error
}

// Publisher emits ledger events to the message broker. Implementations are
// best-effort: callers log publish failures and keep going.
type Publisher interface {
	PublishRecordCreated(ctx context.Context, kind, id string) error
	PublishImageCleanup(ctx context.Context, imageURL string) error
}

// Notifier receives record lifecycle events. Handed in by the caller so the
// book never knows about the delivery mechanism behind it.
type Notifier interface {
	RecordCreated(kind, id string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) RecordCreated(string, string) {}

package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"jangbu/internal/core"
	"jangbu/internal/log"
)

// IncomeView is a consistent snapshot of the income book. Incomes carry no
// text filter, only the active date range.
type IncomeView struct {
	Items   []core.Income  `json:"items"`
	Total   int64          `json:"total"`
	Range   core.DateRange `json:"range"`
	LoadErr string         `json:"load_error,omitempty"`
}

// IncomeBook keeps the loaded income collection. Every income mutation also
// moves the owner's budget by the signed amount involved, so the budget stays
// a running total of recorded income.
type IncomeBook struct {
	store    Store
	pub      Publisher
	notifier Notifier
	logger   *log.Logger
	owner    string
	now      func() time.Time

	mu            sync.Mutex
	items         []core.Income
	dateRange     core.DateRange
	loadErr       error
	lastCreatedID string
	lastCreatedAt time.Time
}

func NewIncomeBook(store Store, pub Publisher, notifier Notifier, logger *log.Logger, owner string) *IncomeBook {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &IncomeBook{
		store:    store,
		pub:      pub,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentLedger),
		owner:    owner,
		now:      time.Now,
	}
}

// Refresh reloads the collection and the active range from storage. Load
// failures land in the view's error slot instead of propagating.
func (b *IncomeBook) Refresh(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()

	settings, err := b.store.GetSettings(ctx, b.owner)
	if err != nil {
		b.items, b.loadErr = nil, fmt.Errorf("load settings: %w", err)
		b.logger.ErrorContext(ctx, "income reload failed", log.FieldError, err)
		return
	}
	b.dateRange = settings.Range()

	items, err := b.store.ListIncomes(ctx, b.owner)
	if err != nil {
		b.items, b.loadErr = nil, fmt.Errorf("load incomes: %w", err)
		b.logger.ErrorContext(ctx, "income reload failed", log.FieldError, err)
		return
	}
	core.SortIncomes(items)
	b.items, b.loadErr = items, nil
}

// View computes the range-scoped snapshot from current state.
func (b *IncomeBook) View() IncomeView {
	b.mu.Lock()
	defer b.mu.Unlock()

	visible := core.FilterIncomes(b.items, b.dateRange)
	v := IncomeView{
		Items: visible,
		Total: core.SumIncomes(visible),
		Range: b.dateRange,
	}
	if b.loadErr != nil {
		v.LoadErr = b.loadErr.Error()
	}
	return v
}

// Create validates and persists the record, then credits the budget by its
// amount.
func (b *IncomeBook) Create(ctx context.Context, in core.Income) (core.Income, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	in.ID = uuid.NewString()
	in.Owner = b.owner
	now := b.now()
	in.CreatedAt, in.UpdatedAt = now, now

	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := b.store.CreateIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	if err := b.store.AdjustBudget(ctx, b.owner, in.Amount); err != nil {
		b.logger.ErrorContext(ctx, "budget credit failed",
			log.FieldRecordID, in.ID, log.FieldError, err)
	}

	b.items = append(b.items, in)
	core.SortIncomes(b.items)
	b.lastCreatedID, b.lastCreatedAt = in.ID, now
	b.notifier.RecordCreated("income", in.ID)
	b.publishCreated(ctx, in.ID)

	b.logger.InfoContext(ctx, "income created",
		log.FieldRecordID, in.ID,
		log.FieldCategory, in.Category,
		log.FieldAmount, in.Amount)
	return in, nil
}

// Update replaces an existing record and moves the budget by the amount
// delta between the old and new values.
func (b *IncomeBook) Update(ctx context.Context, in core.Income) (core.Income, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.store.GetIncome(ctx, in.ID)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	in.Owner = existing.Owner
	in.CreatedAt = existing.CreatedAt
	in.UpdatedAt = b.now()

	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	if err := b.store.UpdateIncome(ctx, in); err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	if delta := in.Amount - existing.Amount; delta != 0 {
		if err := b.store.AdjustBudget(ctx, b.owner, delta); err != nil {
			b.logger.ErrorContext(ctx, "budget adjust failed",
				log.FieldRecordID, in.ID, log.FieldError, err)
		}
	}

	b.removeLocked(in.ID)
	b.items = append(b.items, in)
	core.SortIncomes(b.items)

	b.logger.InfoContext(ctx, "income updated", log.FieldRecordID, in.ID)
	return in, nil
}

// Remove deletes a record and debits the budget by its amount. The store
// clamps the budget at zero.
func (b *IncomeBook) Remove(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.store.GetIncome(ctx, id)
	if err != nil {
		return fmt.Errorf("remove income: %w", err)
	}
	if err := b.store.DeleteIncome(ctx, id); err != nil {
		return fmt.Errorf("remove income: %w", err)
	}
	if err := b.store.AdjustBudget(ctx, b.owner, -existing.Amount); err != nil {
		b.logger.ErrorContext(ctx, "budget debit failed",
			log.FieldRecordID, id, log.FieldError, err)
	}
	b.removeLocked(id)

	b.logger.InfoContext(ctx, "income removed", log.FieldRecordID, id)
	return nil
}

// RemoveAll clears the collection. The budget is debited by the sum of the
// removed records.
func (b *IncomeBook) RemoveAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	all, err := b.store.ListIncomes(ctx, b.owner)
	if err != nil {
		return fmt.Errorf("remove all incomes: %w", err)
	}
	if err := b.store.DeleteAllIncomes(ctx, b.owner); err != nil {
		return fmt.Errorf("remove all incomes: %w", err)
	}
	if total := core.SumIncomes(all); total > 0 {
		if err := b.store.AdjustBudget(ctx, b.owner, -total); err != nil {
			b.logger.ErrorContext(ctx, "budget debit failed", log.FieldError, err)
		}
	}
	b.items = nil

	b.logger.InfoContext(ctx, "all incomes removed", "count", len(all))
	return nil
}

// RecentlyAdded reports whether id was created within the highlight window.
func (b *IncomeBook) RecentlyAdded(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return id != "" && id == b.lastCreatedID && b.now().Sub(b.lastCreatedAt) < highlightWindow
}

func (b *IncomeBook) removeLocked(id string) {
	for i, in := range b.items {
		if in.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

func (b *IncomeBook) publishCreated(ctx context.Context, id string) {
	if b.pub == nil {
		return
	}
	if err := b.pub.PublishRecordCreated(ctx, "income", id); err != nil {
		b.logger.WarnContext(ctx, "record-created publish failed",
			log.FieldRecordID, id, log.FieldError, err)
	}
}

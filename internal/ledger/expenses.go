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

// highlightWindow is how long a freshly created record stays flagged so the
// UI can highlight it.
const highlightWindow = 3 * time.Second

// OutOfRangeError rejects a record whose date falls outside the configured
// period. It carries the range so the alert can name it.
type OutOfRangeError struct {
	Range core.DateRange
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("date outside configured period %s..%s", e.Range.Start, e.Range.End)
}

// ExpenseView is a consistent snapshot of the expense book. Items is the
// filtered, sorted subset; Summary's spend total covers the whole loaded
// collection regardless of the active filter.
type ExpenseView struct {
	Items   []core.Expense `json:"items"`
	Summary core.Summary   `json:"summary"`
	Range   core.DateRange `json:"range"`
	Filter  core.Filter    `json:"filter"`
	LoadErr string         `json:"load_error,omitempty"`
}

// ExpenseBook keeps the loaded expense collection and its derived view.
// A single mutex serializes every operation so concurrent mutations cannot
// interleave their read-modify-write cycles.
type ExpenseBook struct {
	store    Store
	pub      Publisher
	notifier Notifier
	logger   *log.Logger
	owner    string
	now      func() time.Time

	mu            sync.Mutex
	items         []core.Expense
	dateRange     core.DateRange
	filter        core.Filter
	budget        int64
	loadErr       error
	lastCreatedID string
	lastCreatedAt time.Time
}

func NewExpenseBook(store Store, pub Publisher, notifier Notifier, logger *log.Logger, owner string) *ExpenseBook {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ExpenseBook{
		store:    store,
		pub:      pub,
		notifier: notifier,
		logger:   logger.WithComponent(log.ComponentLedger),
		owner:    owner,
		now:      time.Now,
	}
}

// Refresh reloads the collection and the active range from storage. Load
// failures do not propagate: they land in the view's error slot while the
// previous state is discarded, matching a full reload.
func (b *ExpenseBook) Refresh(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reloadLocked(ctx)
}

func (b *ExpenseBook) reloadLocked(ctx context.Context) {
	settings, err := b.store.GetSettings(ctx, b.owner)
	if err != nil {
		b.items, b.loadErr = nil, fmt.Errorf("load settings: %w", err)
		b.logger.ErrorContext(ctx, "expense reload failed", log.FieldError, err)
		return
	}
	b.dateRange = settings.Range()
	b.budget = settings.Budget

	var items []core.Expense
	if b.dateRange.IsSet() {
		items, err = b.store.ListExpensesByDateRange(ctx, b.owner, b.dateRange.Start, b.dateRange.End)
	} else {
		items, err = b.store.ListExpenses(ctx, b.owner)
	}
	if err != nil {
		b.items, b.loadErr = nil, fmt.Errorf("load expenses: %w", err)
		b.logger.ErrorContext(ctx, "expense reload failed", log.FieldError, err)
		return
	}
	core.SortExpenses(items)
	b.items, b.loadErr = items, nil
}

// View computes the filtered snapshot from current state.
func (b *ExpenseBook) View() ExpenseView {
	b.mu.Lock()
	defer b.mu.Unlock()

	visible := core.FilterExpenses(b.items, b.dateRange, b.filter)
	v := ExpenseView{
		Items:   visible,
		Summary: core.NewSummary(len(visible), core.SumExpenses(b.items), b.budget),
		Range:   b.dateRange,
		Filter:  b.filter,
	}
	if b.loadErr != nil {
		v.LoadErr = b.loadErr.Error()
	}
	return v
}

// SetFilter replaces the active filter. The loaded collection is untouched.
func (b *ExpenseBook) SetFilter(f core.Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = f
}

// Create validates, persists and folds the new record into the collection.
func (b *ExpenseBook) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e.ID = uuid.NewString()
	e.Owner = b.owner
	e.Category = core.ParseCategory(string(e.Category))
	now := b.now()
	e.CreatedAt, e.UpdatedAt = now, now

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if err := b.checkRangeLocked(ctx, e.Date); err != nil {
		return core.Expense{}, err
	}
	if err := b.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	b.items = append(b.items, e)
	core.SortExpenses(b.items)
	b.lastCreatedID, b.lastCreatedAt = e.ID, now
	b.notifier.RecordCreated("expense", e.ID)
	b.publishCreated(ctx, "expense", e.ID)

	b.logger.InfoContext(ctx, "expense created",
		log.FieldRecordID, e.ID,
		log.FieldStoreName, e.StoreName,
		log.FieldAmount, e.Amount)
	return e, nil
}

// Update replaces an existing record. The stored creation timestamp and
// image survive. A date outside the active period rejects the whole edit;
// nothing is partially applied.
func (b *ExpenseBook) Update(ctx context.Context, e core.Expense) (core.Expense, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.store.GetExpense(ctx, e.ID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	e.Owner = existing.Owner
	e.CreatedAt = existing.CreatedAt
	if e.ImageURL == "" {
		e.ImageURL = existing.ImageURL
	}
	e.Category = core.ParseCategory(string(e.Category))
	e.UpdatedAt = b.now()

	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	if e.Date != existing.Date {
		if err := b.checkRangeLocked(ctx, e.Date); err != nil {
			return core.Expense{}, err
		}
	}
	if err := b.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	b.removeLocked(e.ID)
	b.items = append(b.items, e)
	core.SortExpenses(b.items)

	b.logger.InfoContext(ctx, "expense updated", log.FieldRecordID, e.ID)
	return e, nil
}

// Remove deletes a record and queues its receipt image for cleanup.
func (b *ExpenseBook) Remove(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	existing, err := b.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("remove expense: %w", err)
	}
	if err := b.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("remove expense: %w", err)
	}
	b.removeLocked(id)
	b.publishCleanup(ctx, existing.ImageURL)

	b.logger.InfoContext(ctx, "expense removed", log.FieldRecordID, id)
	return nil
}

// RemoveAll clears the whole collection for the owner.
func (b *ExpenseBook) RemoveAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Collect image references before the rows go away.
	all, err := b.store.ListExpenses(ctx, b.owner)
	if err != nil {
		return fmt.Errorf("remove all expenses: %w", err)
	}
	if err := b.store.DeleteAllExpenses(ctx, b.owner); err != nil {
		return fmt.Errorf("remove all expenses: %w", err)
	}
	for _, e := range all {
		b.publishCleanup(ctx, e.ImageURL)
	}
	b.items = nil

	b.logger.InfoContext(ctx, "all expenses removed", "count", len(all))
	return nil
}

// RecentlyAdded reports whether id was created within the highlight window.
func (b *ExpenseBook) RecentlyAdded(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return id != "" && id == b.lastCreatedID && b.now().Sub(b.lastCreatedAt) < highlightWindow
}

// Total returns the spend total over the unfiltered loaded collection.
func (b *ExpenseBook) Total() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return core.SumExpenses(b.items)
}

// CheckDate applies the period gate without mutating anything, so the
// ingestion workflow can reject before the image is uploaded.
func (b *ExpenseBook) CheckDate(ctx context.Context, date string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkRangeLocked(ctx, date)
}

// checkRangeLocked compares date against the configured period. The range is
// re-read from settings so a stale in-memory copy cannot let a record slip
// past a newly configured period; a failed read falls back to the cached one.
func (b *ExpenseBook) checkRangeLocked(ctx context.Context, date string) error {
	if settings, err := b.store.GetSettings(ctx, b.owner); err == nil {
		b.dateRange = settings.Range()
		b.budget = settings.Budget
	}
	if !b.dateRange.Contains(date) {
		return &OutOfRangeError{Range: b.dateRange}
	}
	return nil
}

func (b *ExpenseBook) removeLocked(id string) {
	for i, e := range b.items {
		if e.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return
		}
	}
}

func (b *ExpenseBook) publishCreated(ctx context.Context, kind, id string) {
	if b.pub == nil {
		return
	}
	if err := b.pub.PublishRecordCreated(ctx, kind, id); err != nil {
		b.logger.WarnContext(ctx, "record-created publish failed",
			log.FieldRecordID, id, log.FieldError, err)
	}
}

func (b *ExpenseBook) publishCleanup(ctx context.Context, imageURL string) {
	if b.pub == nil || imageURL == "" {
		return
	}
	if err := b.pub.PublishImageCleanup(ctx, imageURL); err != nil {
		b.logger.WarnContext(ctx, "image cleanup publish failed",
			log.FieldImageURL, imageURL, log.FieldError, err)
	}
}

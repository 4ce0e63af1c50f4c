package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"jangbu/internal/core"
	"jangbu/internal/log"
	"jangbu/internal/storage"
)

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

type capturePublisher struct {
	created  []string
	cleanups []string
	fail     bool
}

func (p *capturePublisher) PublishRecordCreated(_ context.Context, kind, id string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.created = append(p.created, kind+":"+id)
	return nil
}

func (p *capturePublisher) PublishImageCleanup(_ context.Context, imageURL string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.cleanups = append(p.cleanups, imageURL)
	return nil
}

type captureNotifier struct {
	events []string
}

func (n *captureNotifier) RecordCreated(kind, id string) {
	n.events = append(n.events, kind+":"+id)
}

func TestExpenseBookCreateAndView(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &capturePublisher{}
	notif := &captureNotifier{}
	book := NewExpenseBook(store, pub, notif, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	created, err := book.Create(ctx, core.Expense{
		Date:      "2024-01-05",
		Time:      "09:00",
		StoreName: "김밥천국",
		Amount:    8000,
		Category:  core.CategoryFood,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created record has no id")
	}

	v := book.View()
	if len(v.Items) != 1 || v.Items[0].ID != created.ID {
		t.Fatalf("view = %+v", v)
	}
	if v.Summary.TotalSpent != 8000 {
		t.Fatalf("total = %d", v.Summary.TotalSpent)
	}
	if len(notif.events) != 1 || notif.events[0] != "expense:"+created.ID {
		t.Fatalf("notifier events = %v", notif.events)
	}
	if len(pub.created) != 1 {
		t.Fatalf("publish events = %v", pub.created)
	}

	// Round trip through storage too.
	stored, err := store.GetExpense(ctx, created.ID)
	if err != nil {
		t.Fatalf("stored record missing: %v", err)
	}
	if stored.StoreName != "김밥천국" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestExpenseBookCreateRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	book := NewExpenseBook(storage.NewMemoryStore(), nil, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	if _, err := book.Create(ctx, core.Expense{Date: "bad", StoreName: "x", Amount: 1}); err == nil {
		t.Fatal("expected validation error")
	}
	if v := book.View(); len(v.Items) != 0 {
		t.Fatal("invalid record leaked into the view")
	}
}

func TestExpenseBookRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveSettings(ctx, core.Settings{
		Owner: core.DefaultOwner, StartDate: "2024-01-01", EndDate: "2024-01-31",
	}); err != nil {
		t.Fatal(err)
	}
	book := NewExpenseBook(store, nil, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	in, err := book.Create(ctx, core.Expense{Date: "2024-01-10", StoreName: "in", Amount: 1000})
	if err != nil {
		t.Fatal(err)
	}
	// Boundary days are inclusive.
	if _, err := book.Create(ctx, core.Expense{Date: "2024-01-31", StoreName: "edge", Amount: 500}); err != nil {
		t.Fatalf("end boundary should pass: %v", err)
	}

	_, err = book.Create(ctx, core.Expense{Date: "2024-03-10", StoreName: "out", Amount: 2000})
	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("out-of-range date must be rejected, got %v", err)
	}
	if oor.Range.Start != "2024-01-01" || oor.Range.End != "2024-01-31" {
		t.Fatalf("rejection must carry the configured range: %+v", oor.Range)
	}
	if v := book.View(); len(v.Items) != 2 {
		t.Fatalf("rejected record leaked into the view: %+v", v.Items)
	}

	// Editing the date out of range rejects the whole edit.
	in.Date = "2024-05-01"
	if _, err := book.Update(ctx, in); !errors.As(err, &oor) {
		t.Fatalf("out-of-range edit must be rejected, got %v", err)
	}
	stored, err := store.GetExpense(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Date != "2024-01-10" {
		t.Fatalf("rejected edit must not be applied: %+v", stored)
	}

	// Editing without touching the date passes the gate.
	stored.Amount = 1500
	if _, err := book.Update(ctx, stored); err != nil {
		t.Fatalf("date-preserving edit should pass: %v", err)
	}
}

func TestExpenseBookUnsetRangePassesEverything(t *testing.T) {
	ctx := context.Background()
	book := NewExpenseBook(storage.NewMemoryStore(), nil, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	for _, date := range []string{"2020-01-01", "2030-12-31"} {
		if _, err := book.Create(ctx, core.Expense{Date: date, StoreName: "x", Amount: 1}); err != nil {
			t.Fatalf("unset range must pass %s: %v", date, err)
		}
	}
}

func TestExpenseBookSummaryIgnoresFilter(t *testing.T) {
	ctx := context.Background()
	book := NewExpenseBook(storage.NewMemoryStore(), nil, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	for _, e := range []core.Expense{
		{Date: "2024-01-01", StoreName: "a", Amount: 1000, Category: core.CategoryFood},
		{Date: "2024-01-02", StoreName: "b", Amount: 2000, Category: core.CategoryTransport},
	} {
		if _, err := book.Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	book.SetFilter(core.Filter{Category: string(core.CategoryFood)})
	v := book.View()
	if len(v.Items) != 1 {
		t.Fatalf("filtered items = %d", len(v.Items))
	}
	if v.Summary.TotalSpent != 3000 {
		t.Fatalf("spend total must cover the unfiltered collection, got %d", v.Summary.TotalSpent)
	}
	if v.Summary.FilteredCount != 1 {
		t.Fatalf("filtered count = %d", v.Summary.FilteredCount)
	}
}

func TestExpenseBookRecentlyAdded(t *testing.T) {
	ctx := context.Background()
	book := NewExpenseBook(storage.NewMemoryStore(), nil, nil, testLogger(), core.DefaultOwner)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	book.now = func() time.Time { return base }
	book.Refresh(ctx)

	created, err := book.Create(ctx, core.Expense{Date: "2024-01-01", StoreName: "x", Amount: 1})
	if err != nil {
		t.Fatal(err)
	}
	if !book.RecentlyAdded(created.ID) {
		t.Fatal("fresh record should be highlighted")
	}
	if book.RecentlyAdded("someone-else") {
		t.Fatal("other ids must not be highlighted")
	}

	book.now = func() time.Time { return base.Add(highlightWindow + time.Millisecond) }
	if book.RecentlyAdded(created.ID) {
		t.Fatal("highlight must expire after the window")
	}
}

func TestExpenseBookRemovePublishesCleanup(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	pub := &capturePublisher{}
	book := NewExpenseBook(store, pub, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	created, err := book.Create(ctx, core.Expense{Date: "2024-01-01", StoreName: "x", Amount: 1})
	if err != nil {
		t.Fatal(err)
	}
	created.ImageURL = "/images/r1.jpg"
	if _, err := book.Update(ctx, created); err != nil {
		t.Fatal(err)
	}

	if err := book.Remove(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if len(pub.cleanups) != 1 || pub.cleanups[0] != "/images/r1.jpg" {
		t.Fatalf("cleanups = %v", pub.cleanups)
	}
	if v := book.View(); len(v.Items) != 0 {
		t.Fatal("removed record still visible")
	}
}

func TestExpenseBookPublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{fail: true}
	book := NewExpenseBook(storage.NewMemoryStore(), pub, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	if _, err := book.Create(ctx, core.Expense{Date: "2024-01-01", StoreName: "x", Amount: 1}); err != nil {
		t.Fatalf("broker failure must not fail the mutation: %v", err)
	}
}

func TestIncomeBookBudgetLinkage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveSettings(ctx, core.Settings{Owner: core.DefaultOwner, Budget: 100000}); err != nil {
		t.Fatal(err)
	}
	book := NewIncomeBook(store, nil, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	created, err := book.Create(ctx, core.Income{
		Date: "2024-03-01", Category: core.IncomeCategoryDues, Amount: 50000,
		Method: core.IncomeMethodBankTransfer,
	})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := store.GetSettings(ctx, core.DefaultOwner)
	if s.Budget != 150000 {
		t.Fatalf("create should credit budget: %d", s.Budget)
	}

	created.Amount = 30000
	if _, err := book.Update(ctx, created); err != nil {
		t.Fatal(err)
	}
	s, _ = store.GetSettings(ctx, core.DefaultOwner)
	if s.Budget != 130000 {
		t.Fatalf("update should apply the delta: %d", s.Budget)
	}

	if err := book.Remove(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	s, _ = store.GetSettings(ctx, core.DefaultOwner)
	if s.Budget != 100000 {
		t.Fatalf("remove should debit the amount: %d", s.Budget)
	}
}

func TestIncomeBookRemoveClampsBudget(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	book := NewIncomeBook(store, nil, nil, testLogger(), core.DefaultOwner)
	book.Refresh(ctx)

	created, err := book.Create(ctx, core.Income{Date: "2024-03-01", Category: core.IncomeCategoryDues, Amount: 5000})
	if err != nil {
		t.Fatal(err)
	}
	// Drain the budget behind the book's back, then remove.
	if err := store.AdjustBudget(ctx, core.DefaultOwner, -5000); err != nil {
		t.Fatal(err)
	}
	if err := book.Remove(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	s, _ := store.GetSettings(ctx, core.DefaultOwner)
	if s.Budget != 0 {
		t.Fatalf("budget must clamp at zero, got %d", s.Budget)
	}
}

func TestSettingsBookPINGate(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	book := NewSettingsBook(store, testLogger(), core.DefaultOwner)

	if _, err := book.Update(ctx, "0000", core.Settings{Budget: 1000}); !errors.Is(err, core.ErrInvalidPIN) {
		t.Fatalf("wrong pin should be rejected, got %v", err)
	}

	updated, err := book.Update(ctx, core.DefaultPIN, core.Settings{
		Budget: 200000, StartDate: "2024-01-01", EndDate: "2024-01-31",
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Budget != 200000 {
		t.Fatalf("budget = %d", updated.Budget)
	}
	// PIN not supplied: old one survives.
	if !updated.VerifyPIN(core.DefaultPIN) {
		t.Fatal("pin should be preserved across updates")
	}

	// Change the PIN, then verify the old one stops working.
	if _, err := book.Update(ctx, core.DefaultPIN, core.Settings{Budget: 200000, PIN: "9999"}); err != nil {
		t.Fatal(err)
	}
	if _, err := book.Update(ctx, core.DefaultPIN, core.Settings{Budget: 1}); !errors.Is(err, core.ErrInvalidPIN) {
		t.Fatalf("old pin should be rejected after change, got %v", err)
	}
	if _, err := book.Update(ctx, "9999", core.Settings{Budget: 1}); err != nil {
		t.Fatalf("new pin rejected: %v", err)
	}
}

func TestSettingsBookValidation(t *testing.T) {
	ctx := context.Background()
	book := NewSettingsBook(storage.NewMemoryStore(), testLogger(), core.DefaultOwner)

	if _, err := book.Update(ctx, core.DefaultPIN, core.Settings{StartDate: "01/01/2024"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("bad start date should be rejected, got %v", err)
	}
	if _, err := book.Update(ctx, core.DefaultPIN, core.Settings{Budget: -5}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("negative budget should be rejected, got %v", err)
	}
}

package core

import (
	"reflect"
	"testing"
)

func TestSortExpensesTieBreak(t *testing.T) {
	// Two records on the same date, one timeless. Missing time counts as
	// "00:00", so the 09:00 record comes first in descending order.
	items := []Expense{
		{ID: "timeless", Date: "2024-01-05", StoreName: "a", Amount: 1000},
		{ID: "timed", Date: "2024-01-05", Time: "09:00", StoreName: "b", Amount: 2000},
	}
	got := FilterExpenses(items, DateRange{}, Filter{})
	if got[0].ID != "timed" || got[1].ID != "timeless" {
		t.Fatalf("order = [%s %s], want [timed timeless]", got[0].ID, got[1].ID)
	}
	if total := SumExpenses(got); total != 3000 {
		t.Fatalf("total = %d, want 3000", total)
	}
}

func TestSortExpensesIdempotent(t *testing.T) {
	items := []Expense{
		{ID: "1", Date: "2024-01-03"},
		{ID: "2", Date: "2024-01-07", Time: "12:00"},
		{ID: "3", Date: "2024-01-07", Time: "08:00"},
		{ID: "4", Date: "2023-12-31"},
	}
	SortExpenses(items)
	once := make([]Expense, len(items))
	copy(once, items)
	SortExpenses(items)
	if !reflect.DeepEqual(once, items) {
		t.Fatal("sorting twice changed the order")
	}
	wantIDs := []string{"2", "3", "1", "4"}
	for i, w := range wantIDs {
		if items[i].ID != w {
			t.Fatalf("position %d = %s, want %s", i, items[i].ID, w)
		}
	}
}

func TestFilterAmountBounds(t *testing.T) {
	items := []Expense{
		{ID: "a", Date: "2024-01-01", StoreName: "x", Amount: 3000},
		{ID: "b", Date: "2024-01-02", StoreName: "y", Amount: 7000},
		{ID: "c", Date: "2024-01-03", StoreName: "z", Amount: 12000},
	}
	got := FilterExpenses(items, DateRange{}, Filter{MinAmount: "5,000", MaxAmount: "10,000"})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("got %d records, want only the 7000 one", len(got))
	}
}

func TestFilterMonotonicNarrowing(t *testing.T) {
	items := []Expense{
		{ID: "a", Date: "2024-01-05", StoreName: "김밥천국", Address: "서울", Amount: 8000, Category: CategoryFood},
		{ID: "b", Date: "2024-01-10", StoreName: "버스", Amount: 1500, Category: CategoryTransport},
		{ID: "c", Date: "2024-02-01", StoreName: "약국", Amount: 12000, Category: CategoryMedical},
	}
	r := DateRange{Start: "2024-01-01", End: "2024-01-31"}

	base := FilterExpenses(items, r, Filter{})
	if len(base) != 2 {
		t.Fatalf("base set = %d, want 2", len(base))
	}

	// Each added criterion narrows or preserves the set.
	steps := []Filter{
		{Category: string(CategoryFood)},
		{Category: string(CategoryFood), MinAmount: "5000"},
		{Category: string(CategoryFood), MinAmount: "5000", StoreName: "김밥"},
		{Category: string(CategoryFood), MinAmount: "5000", StoreName: "김밥", Reason: "없는사유"},
	}
	prev := len(base)
	for i, f := range steps {
		got := FilterExpenses(items, r, f)
		if len(got) > prev {
			t.Fatalf("step %d grew the result set: %d > %d", i, len(got), prev)
		}
		prev = len(got)
	}
	if prev != 0 {
		t.Fatalf("final step should match nothing, got %d", prev)
	}
}

func TestFilterBasicSearch(t *testing.T) {
	items := []Expense{
		{ID: "a", Date: "2024-01-05", StoreName: "GS25 역삼점", Amount: 3000},
		{ID: "b", Date: "2024-01-06", StoreName: "카페", Address: "역삼동 123", Amount: 4500},
		{ID: "c", Date: "2024-01-07", StoreName: "식당", Reason: "역삼 회식", Amount: 30000},
		{ID: "d", Date: "2024-01-08", StoreName: "마트", Amount: 20000},
	}
	got := FilterExpenses(items, DateRange{}, Filter{Search: "역삼"})
	if len(got) != 3 {
		t.Fatalf("search should match store, address and reason: got %d", len(got))
	}
	// Case-insensitive on latin text.
	got = FilterExpenses(items, DateRange{}, Filter{Search: "gs25"})
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("case-insensitive search failed: %v", got)
	}
}

func TestFilterAdvancedDates(t *testing.T) {
	items := []Expense{
		{ID: "a", Date: "2024-01-05", StoreName: "x", Amount: 1},
		{ID: "b", Date: "2024-01-15", StoreName: "x", Amount: 1},
		{ID: "c", Date: "2024-01-25", StoreName: "x", Amount: 1},
	}
	got := FilterExpenses(items, DateRange{}, Filter{DateFrom: "2024-01-10", DateTo: "2024-01-20"})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("advanced date bounds: got %v", got)
	}
}

func TestFilterIncomes(t *testing.T) {
	items := []Income{
		{ID: "a", Date: "2024-01-05", Amount: 10000},
		{ID: "b", Date: "2024-03-01", Amount: 20000},
		{ID: "c", Date: "2024-01-20", Amount: 30000},
	}
	got := FilterIncomes(items, DateRange{Start: "2024-01-01", End: "2024-01-31"})
	if len(got) != 2 {
		t.Fatalf("got %d, want 2", len(got))
	}
	if got[0].ID != "c" || got[1].ID != "a" {
		t.Fatalf("incomes not date-descending: [%s %s]", got[0].ID, got[1].ID)
	}
	if SumIncomes(got) != 40000 {
		t.Fatalf("sum = %d", SumIncomes(got))
	}
}

func TestNewSummary(t *testing.T) {
	cases := []struct {
		spent, budget int64
		want          BudgetStatus
	}{
		{0, 100000, StatusHealthy},
		{79999, 100000, StatusHealthy},
		{80000, 100000, StatusNearLimit},
		{100001, 100000, StatusNegative},
		{5000, 0, StatusNegative}, // no budget set, anything spent is over
	}
	for i, tc := range cases {
		s := NewSummary(0, tc.spent, tc.budget)
		if s.Status != tc.want {
			t.Fatalf("case %d: status = %s, want %s", i, s.Status, tc.want)
		}
		if s.Remaining != tc.budget-tc.spent {
			t.Fatalf("case %d: remaining = %d", i, s.Remaining)
		}
	}
	zero := NewSummary(3, 0, 0)
	if zero.Status != StatusHealthy {
		t.Fatalf("zero spend on zero budget should be healthy, got %s", zero.Status)
	}
}

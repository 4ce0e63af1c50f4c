// Filter/sort pipeline. A pure function over (collection, header date range,
// basic search text, advanced filter set) producing the ordered subset the
// list and the PDF export both consume.
package core

import (
	"sort"
	"strings"
)

// Filter is the advanced multi-field filter set plus the basic search box.
// String fields are raw user input; empty means "not set". Amount bounds
// accept grouped input ("5,000") and are parsed on match.
type Filter struct {
	Search    string `json:"search,omitempty"`
	DateFrom  string `json:"date_from,omitempty"`
	DateTo    string `json:"date_to,omitempty"`
	Category  string `json:"category,omitempty"`
	MinAmount string `json:"min_amount,omitempty"`
	MaxAmount string `json:"max_amount,omitempty"`
	StoreName string `json:"store_name,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// IsZero reports whether no criteria are set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Matches applies every configured predicate; all must pass. The header date
// range is handled separately by FilterExpenses.
func (f Filter) Matches(e Expense) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(e.StoreName), needle) &&
			!strings.Contains(strings.ToLower(e.Address), needle) &&
			!strings.Contains(strings.ToLower(e.Reason), needle) {
			return false
		}
	}
	// Advanced date bounds compare ISO strings directly; both sides are
	// zero-padded so lexicographic order is calendar order.
	if f.DateFrom != "" && e.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && e.Date > f.DateTo {
		return false
	}
	if f.Category != "" && string(e.Category) != f.Category {
		return false
	}
	if f.MinAmount != "" && e.Amount < ParseAmount(f.MinAmount) {
		return false
	}
	if f.MaxAmount != "" && e.Amount > ParseAmount(f.MaxAmount) {
		return false
	}
	if f.StoreName != "" && !strings.Contains(strings.ToLower(e.StoreName), strings.ToLower(f.StoreName)) {
		return false
	}
	if f.Reason != "" && !strings.Contains(strings.ToLower(e.Reason), strings.ToLower(f.Reason)) {
		return false
	}
	return true
}

// FilterExpenses returns the ordered subset of items passing the header date
// range and the filter set. The input slice is never mutated; output is
// always sorted date desc, time desc regardless of which filters are active.
func FilterExpenses(items []Expense, r DateRange, f Filter) []Expense {
	out := make([]Expense, 0, len(items))
	for _, e := range items {
		if !r.Contains(e.Date) {
			continue
		}
		if !f.Matches(e) {
			continue
		}
		out = append(out, e)
	}
	SortExpenses(out)
	return out
}

// SortExpenses orders in place by date descending, then time descending.
// A missing time counts as "00:00", so on the same date a timeless entry
// sorts after every timed one. This tie-break is part of the contract, not
// an accident of the zero value.
func SortExpenses(items []Expense) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date > items[j].Date
		}
		return timeOrMidnight(items[i].Time) > timeOrMidnight(items[j].Time)
	})
}

func timeOrMidnight(t string) string {
	if t == "" {
		return "00:00"
	}
	return t
}

// FilterIncomes returns incomes inside the header date range, date
// descending. Basic text search is not wired for incomes; that matches the
// current application scope.
func FilterIncomes(items []Income, r DateRange) []Income {
	out := make([]Income, 0, len(items))
	for _, in := range items {
		if !r.Contains(in.Date) {
			continue
		}
		out = append(out, in)
	}
	SortIncomes(out)
	return out
}

// SortIncomes orders in place by date descending.
func SortIncomes(items []Income) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date > items[j].Date
	})
}

// SumExpenses totals amounts over a collection.
func SumExpenses(items []Expense) int64 {
	var total int64
	for _, e := range items {
		total += e.Amount
	}
	return total
}

// SumIncomes totals amounts over a collection.
func SumIncomes(items []Income) int64 {
	var total int64
	for _, in := range items {
		total += in.Amount
	}
	return total
}

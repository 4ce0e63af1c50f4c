package core

// BudgetStatus is the presentation tier for the header dashboard.
type BudgetStatus string

const (
	StatusNegative  BudgetStatus = "negative"
	StatusNearLimit BudgetStatus = "near_limit"
	StatusHealthy   BudgetStatus = "healthy"
)

// Summary carries the aggregates the dashboard and the PDF header consume.
// TotalSpent covers the whole loaded collection, not the filtered view; the
// list and export show the filtered subset while the budget numbers reflect
// everything loaded.
type Summary struct {
	FilteredCount int          `json:"filtered_count"`
	TotalSpent    int64        `json:"total_spent"`
	Budget        int64        `json:"budget"`
	Remaining     int64        `json:"remaining"`
	Status        BudgetStatus `json:"status"`
}

// NewSummary derives remaining budget and the status tier: negative when
// overspent, near-limit at 80% consumption or more, healthy otherwise.
func NewSummary(filteredCount int, totalSpent, budget int64) Summary {
	s := Summary{
		FilteredCount: filteredCount,
		TotalSpent:    totalSpent,
		Budget:        budget,
		Remaining:     budget - totalSpent,
	}
	switch {
	case s.Remaining < 0:
		s.Status = StatusNegative
	case budget > 0 && totalSpent*100 >= budget*80:
		s.Status = StatusNearLimit
	default:
		s.Status = StatusHealthy
	}
	return s
}

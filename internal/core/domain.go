package core

import (
	"errors"
	"strings"
	"time"
)

// DefaultOwner is the single-tenant owner key. The backend schema carries an
// owner column so multi-tenancy stays possible, but the app runs single-user.
const DefaultOwner = "default_user"

// Expense categories (fixed set; free text is coerced to CategoryOther).
const (
	CategoryFood      Category = "식비"
	CategoryTransport Category = "교통"
	CategoryShopping  Category = "쇼핑"
	CategoryMedical   Category = "의료"
	CategoryCulture   Category = "문화"
	CategoryEducation Category = "교육"
	CategoryUtilities Category = "공과금"
	CategoryOther     Category = "기타"
)

// Income enumerations. Category and source accept free text on top of the
// canonical values; method is a closed set when present.
const (
	IncomeCategoryDues  = "조합비"
	IncomeCategoryOther = "기타"

	IncomeMethodBankTransfer = "계좌이체"
	IncomeMethodCash         = "현금"
)

// DefaultPIN gates sensitive settings actions until the user changes it.
const DefaultPIN = "1111"

type (
	Category string

	// Expense is one ledger row. Date is a zero-padded ISO date (YYYY-MM-DD)
	// and Time an optional HH:MM clock time; empty string means absent.
	// Keeping both as strings makes the ordering contract a plain
	// lexicographic compare.
	Expense struct {
		ID        string    `json:"id"`
		Date      string    `json:"date"`
		Time      string    `json:"time,omitempty"`
		StoreName string    `json:"store_name"`
		Address   string    `json:"address,omitempty"`
		Amount    int64     `json:"amount"`
		Category  Category  `json:"category"`
		Reason    string    `json:"reason,omitempty"`
		ImageURL  string    `json:"image_url,omitempty"`
		Owner     string    `json:"owner"`
		CreatedAt time.Time `json:"created_at,omitempty"`
		UpdatedAt time.Time `json:"updated_at,omitempty"`
	}

	Income struct {
		ID        string    `json:"id"`
		Date      string    `json:"date"`
		Category  string    `json:"category"`
		Amount    int64     `json:"amount"`
		Source    string    `json:"source,omitempty"`
		Method    string    `json:"method,omitempty"`
		Note      string    `json:"note,omitempty"`
		Owner     string    `json:"owner"`
		CreatedAt time.Time `json:"created_at,omitempty"`
		UpdatedAt time.Time `json:"updated_at,omitempty"`
	}

	// Settings is the per-owner singleton. All fields are always present
	// (zero value = historically absent) instead of the shape growing ad hoc
	// across app versions. Budget is a running total: seeded manually,
	// adjusted by every income mutation, never negative.
	Settings struct {
		Owner     string `json:"owner"`
		Budget    int64  `json:"budget"`
		StartDate string `json:"start_date,omitempty"`
		EndDate   string `json:"end_date,omitempty"`
		PIN       string `json:"-"`
		APIKey    string `json:"-"`
	}

	// AnalyzedReceipt is the normalized result of a vision-model extraction.
	AnalyzedReceipt struct {
		Date      string `json:"date"`
		Time      string `json:"time,omitempty"`
		StoreName string `json:"store_name"`
		Address   string `json:"address,omitempty"`
		Amount    int64  `json:"amount"`
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidTime    = errors.New("invalid time")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyStoreName = errors.New("empty store name")
	ErrInvalidMethod  = errors.New("invalid income method")
	ErrInvalidPIN     = errors.New("invalid pin")
)

var categories = []Category{
	CategoryFood, CategoryTransport, CategoryShopping, CategoryMedical,
	CategoryCulture, CategoryEducation, CategoryUtilities, CategoryOther,
}

// Categories returns the fixed expense category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory coerces free text to the enumerated set; anything unmatched
// becomes CategoryOther.
func ParseCategory(s string) Category {
	c := Category(strings.TrimSpace(s))
	for _, known := range categories {
		if c == known {
			return known
		}
	}
	return CategoryOther
}

// Color returns the presentation color for a category.
func (c Category) Color() string {
	switch c {
	case CategoryFood:
		return "#10B981"
	case CategoryTransport:
		return "#3B82F6"
	case CategoryShopping:
		return "#F59E0B"
	case CategoryMedical:
		return "#EF4444"
	case CategoryCulture:
		return "#8B5CF6"
	case CategoryEducation:
		return "#06B6D4"
	case CategoryUtilities:
		return "#6366F1"
	default:
		return "#64748B"
	}
}

func (e Expense) Validate() error {
	if !IsValidDate(e.Date) {
		return ErrInvalidDate
	}
	if e.Time != "" && !IsValidClock(e.Time) {
		return ErrInvalidTime
	}
	if strings.TrimSpace(e.StoreName) == "" {
		return ErrEmptyStoreName
	}
	if e.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (i Income) Validate() error {
	if !IsValidDate(i.Date) {
		return ErrInvalidDate
	}
	if i.Amount < 0 {
		return ErrInvalidAmount
	}
	if i.Method != "" && i.Method != IncomeMethodBankTransfer && i.Method != IncomeMethodCash {
		return ErrInvalidMethod
	}
	return nil
}

// DefaultSettings returns the settings used when no row exists for the owner.
func DefaultSettings(owner string) Settings {
	return Settings{Owner: owner, PIN: DefaultPIN}
}

// Range returns the active date range carried by the settings.
func (s Settings) Range() DateRange {
	return DateRange{Start: s.StartDate, End: s.EndDate}
}

// VerifyPIN reports whether the supplied PIN matches. An empty stored PIN
// falls back to the default.
func (s Settings) VerifyPIN(pin string) bool {
	stored := s.PIN
	if stored == "" {
		stored = DefaultPIN
	}
	return pin == stored
}

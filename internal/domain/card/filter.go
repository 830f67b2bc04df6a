package card

import "fmt"

// SortBy names a catalog ordering.
type SortBy string

// Catalog orderings.
const (
	SortFeatured   SortBy = "featured"
	SortRating     SortBy = "rating"
	SortNewest     SortBy = "newest"
	SortIncomeLow  SortBy = "income_low"
	SortIncomeHigh SortBy = "income_high"
	SortName       SortBy = "name"
)

// IsValid reports whether s is a known ordering.
func (s SortBy) IsValid() bool {
	switch s {
	case SortFeatured, SortRating, SortNewest, SortIncomeLow, SortIncomeHigh, SortName:
		return true
	}
	return false
}

// Page size limits for catalog listing.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Filters narrows a catalog listing. Zero values mean "no filter".
// Text filters are case-insensitive substring matches.
type Filters struct {
	Type           string
	EmploymentType string
	NetworkType    string
	BestFor        string
	MinIncome      int
	MaxIncome      int
	Featured       *bool
	MinRating      float64
}

// ListOptions is a validated catalog listing request.
type ListOptions struct {
	Page     int
	PageSize int
	Sort     SortBy
	Filters  Filters
}

// NewListOptions validates and normalizes listing parameters.
func NewListOptions(page, pageSize int, sortBy SortBy, filters Filters) (ListOptions, error) {
	if page < 0 {
		return ListOptions{}, fmt.Errorf("page must not be negative")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if sortBy == "" {
		sortBy = SortFeatured
	}
	if !sortBy.IsValid() {
		return ListOptions{}, fmt.Errorf("invalid sort: %q", sortBy)
	}
	if filters.MinIncome < 0 || filters.MaxIncome < 0 {
		return ListOptions{}, fmt.Errorf("income bounds must not be negative")
	}
	if filters.MaxIncome > 0 && filters.MinIncome > filters.MaxIncome {
		return ListOptions{}, fmt.Errorf("min income must not exceed max income")
	}
	if filters.MinRating < 0 || filters.MinRating > 5 {
		return ListOptions{}, fmt.Errorf("min rating must be between 0 and 5")
	}
	return ListOptions{Page: page, PageSize: pageSize, Sort: sortBy, Filters: filters}, nil
}

// Offset returns the number of rows to skip.
func (o ListOptions) Offset() int { return o.Page * o.PageSize }

// Page is one page of a catalog listing.
type Page struct {
	Cards       []Card
	TotalCount  int
	TotalPages  int
	CurrentPage int
	HasNext     bool
	HasPrevious bool
}

// NewPage computes pagination flags for a listing.
func NewPage(cards []Card, total int, opts ListOptions) Page {
	pages := 0
	if opts.PageSize > 0 {
		pages = (total + opts.PageSize - 1) / opts.PageSize
	}
	return Page{
		Cards:       cards,
		TotalCount:  total,
		TotalPages:  pages,
		CurrentPage: opts.Page,
		HasNext:     opts.Page < pages-1,
		HasPrevious: opts.Page > 0,
	}
}

// Option is a label/value pair for filter dropdowns.
type Option struct {
	Label string
	Value string
}

// FilterOptions lists the distinct values available for catalog filters.
type FilterOptions struct {
	Types           []Option
	EmploymentTypes []Option
	NetworkTypes    []Option
	BestFor         []Option
	IncomeRanges    []Option
}

// IncomeRanges are the fixed monthly income buckets offered by the catalog.
func IncomeRanges() []Option {
	return []Option{
		{Label: "Up to ₹25,000", Value: "0-25000"},
		{Label: "₹25,000 - ₹50,000", Value: "25000-50000"},
		{Label: "₹50,000 - ₹1,00,000", Value: "50000-100000"},
		{Label: "₹1,00,000 - ₹2,00,000", Value: "100000-200000"},
		{Label: "Above ₹2,00,000", Value: "200000-999999999"},
	}
}

// Stats summarizes the published catalog.
type Stats struct {
	TotalCards    int
	FeaturedCards int
	AverageRating float64
	TopRated      []Card
}

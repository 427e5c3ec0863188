// internal/core/query.go
package core

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tablero-hq/tablero-backend/internal/domain"
)

// Default and limit constants for pagination
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
	DefaultSortBy   = "created_at"
	DefaultOrder    = "desc"
)

// Range filter suffixes on query parameter names: price_gte=10&price_lte=20.
const (
	gteSuffix = "_gte"
	lteSuffix = "_lte"
)

// ReservedParams contains query parameter names reserved for search, pagination
// and sorting. These are never treated as field filters.
var ReservedParams = map[string]bool{
	"search":    true,
	"page":      true,
	"page_size": true,
	"sort":      true,
	"order":     true,
}

// Filter is either an exact-match value or an inclusive range with one or both
// bounds set.
type Filter struct {
	Exact any
	GTE   any
	LTE   any
}

func (f Filter) isRange() bool { return f.GTE != nil || f.LTE != nil }

// QueryOptions holds the parsed query surface for listing records.
type QueryOptions struct {
	Filters   map[string]Filter
	Search    string
	SortBy    string
	SortOrder string // "asc" or "desc"
	Page      int    // 1-indexed
	PageSize  int    // <= 0 disables pagination
}

// DefaultQueryOptions returns options that list everything with default sort.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		SortBy:    DefaultSortBy,
		SortOrder: DefaultOrder,
		Page:      1,
	}
}

// ParseQueryOptions extracts search, filters, sorting and pagination from URL
// query parameters. Any non-reserved parameter becomes a field filter; the
// _gte/_lte suffixes build range filters. Returns a validation error for
// malformed reserved parameters.
func ParseQueryOptions(queryParams url.Values) (*QueryOptions, error) {
	opts := &QueryOptions{
		Filters:   make(map[string]Filter),
		SortBy:    DefaultSortBy,
		SortOrder: DefaultOrder,
		Page:      1,
		PageSize:  DefaultPageSize,
	}

	if pageStr := queryParams.Get("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page < 1 {
			return nil, fmt.Errorf("invalid 'page' parameter: must be a positive integer")
		}
		opts.Page = page
	}

	if sizeStr := queryParams.Get("page_size"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil || size < 1 {
			return nil, fmt.Errorf("invalid 'page_size' parameter: must be a positive integer")
		}
		if size > MaxPageSize {
			return nil, fmt.Errorf("invalid 'page_size' parameter: maximum is %d", MaxPageSize)
		}
		opts.PageSize = size
	}

	if sortBy := queryParams.Get("sort"); sortBy != "" {
		opts.SortBy = sortBy
	}

	if order := queryParams.Get("order"); order != "" {
		lowerOrder := strings.ToLower(order)
		if lowerOrder != "asc" && lowerOrder != "desc" {
			return nil, fmt.Errorf("invalid 'order' parameter: must be 'asc' or 'desc'")
		}
		opts.SortOrder = lowerOrder
	}

	opts.Search = strings.TrimSpace(queryParams.Get("search"))

	for key, values := range queryParams {
		if len(values) == 0 || ReservedParams[strings.ToLower(key)] {
			continue
		}
		value := values[0]

		switch {
		case strings.HasSuffix(key, gteSuffix):
			name := strings.TrimSuffix(key, gteSuffix)
			f := opts.Filters[name]
			f.GTE = value
			opts.Filters[name] = f
		case strings.HasSuffix(key, lteSuffix):
			name := strings.TrimSuffix(key, lteSuffix)
			f := opts.Filters[name]
			f.LTE = value
			opts.Filters[name] = f
		default:
			f := opts.Filters[key]
			f.Exact = value
			opts.Filters[key] = f
		}
	}

	return opts, nil
}

// ApplyQuery filters, searches, sorts and paginates a record collection in
// memory. It is pure: the input slice is not mutated.
//
// Filters compose with logical AND, and search ANDs with them. Unknown filter
// field names are ignored to tolerate schema drift between client and stored
// table definition. The returned total reflects the filtered, pre-pagination
// count; a page beyond the available range yields an empty slice with the
// correct total.
func ApplyQuery(table *domain.Table, records []domain.Record, opts QueryOptions) ([]domain.Record, int) {
	filtered := make([]domain.Record, 0, len(records))
	for _, rec := range records {
		if !matchesFilters(table, rec, opts.Filters) {
			continue
		}
		if !matchesSearch(table, rec, opts.Search) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sortRecords(filtered, opts.SortBy, opts.SortOrder)

	total := len(filtered)
	if opts.PageSize <= 0 {
		return filtered, total
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * opts.PageSize
	if start >= total {
		return []domain.Record{}, total
	}
	end := start + opts.PageSize
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

func matchesFilters(table *domain.Table, rec domain.Record, filters map[string]Filter) bool {
	for name, filter := range filters {
		value, known := resolveFieldValue(table, rec, name)
		if !known {
			continue // tolerate schema drift
		}

		if filter.isRange() {
			if !matchesRange(value, filter) {
				return false
			}
			continue
		}
		if !looseEqual(value, filter.Exact) {
			return false
		}
	}
	return true
}

// resolveFieldValue reads a declared field value or one of the record's own
// timestamps. The second return is false for names the schema does not know.
func resolveFieldValue(table *domain.Table, rec domain.Record, name string) (any, bool) {
	switch name {
	case "created_at":
		return rec.CreatedAt, true
	case "updated_at":
		return rec.UpdatedAt, true
	}
	if _, ok := table.FieldByName(name); ok {
		return rec.Data[name], true
	}
	return nil, false
}

func matchesRange(value any, filter Filter) bool {
	if filter.GTE != nil {
		cmp, ok := compareValues(value, filter.GTE)
		if !ok || cmp < 0 {
			return false
		}
	}
	if filter.LTE != nil {
		cmp, ok := compareValues(value, filter.LTE)
		if !ok || cmp > 0 {
			return false
		}
	}
	return true
}

// compareValues orders two values type-aware: numbers numerically, dates
// chronologically, everything else as case-insensitive strings.
func compareValues(a, b any) (int, bool) {
	if na, ok := ToNumber(a); ok {
		if nb, ok := ToNumber(b); ok {
			switch {
			case na < nb:
				return -1, true
			case na > nb:
				return 1, true
			}
			return 0, true
		}
	}
	if da, ok := ParseDate(a); ok {
		if db, ok := ParseDate(b); ok {
			switch {
			case da.Before(db):
				return -1, true
			case da.After(db):
				return 1, true
			}
			return 0, true
		}
	}
	sa := strings.ToLower(strings.TrimSpace(Stringify(a)))
	sb := strings.ToLower(strings.TrimSpace(Stringify(b)))
	if sa == "" || sb == "" {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func looseEqual(a, b any) bool {
	if na, ok := ToNumber(a); ok {
		if nb, ok := ToNumber(b); ok {
			return na == nb
		}
	}
	if ba, ok := ToBool(a); ok {
		if bb, ok := ToBool(b); ok {
			return ba == bb
		}
	}
	return strings.EqualFold(strings.TrimSpace(Stringify(a)), strings.TrimSpace(Stringify(b)))
}

// matchesSearch does a case-insensitive substring match over the string forms
// of all field values of the record.
func matchesSearch(table *domain.Table, rec domain.Record, search string) bool {
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	for _, field := range table.Fields {
		value, ok := rec.Data[field.Name]
		if !ok || value == nil {
			continue
		}
		if strings.Contains(strings.ToLower(Stringify(value)), needle) {
			return true
		}
	}
	return false
}

func sortRecords(records []domain.Record, sortBy, order string) {
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	desc := strings.ToLower(order) != "asc"

	sort.SliceStable(records, func(i, j int) bool {
		cmp := compareSortValues(records[i], records[j], sortBy)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareSortValues(a, b domain.Record, sortBy string) int {
	av := sortValue(a, sortBy)
	bv := sortValue(b, sortBy)
	if cmp, ok := compareValues(av, bv); ok {
		return cmp
	}
	// Unsortable pairs (e.g. one side missing) fall back to string order so the
	// result is still deterministic.
	return strings.Compare(strings.ToLower(Stringify(av)), strings.ToLower(Stringify(bv)))
}

func sortValue(rec domain.Record, sortBy string) any {
	switch sortBy {
	case "created_at":
		return rec.CreatedAt
	case "updated_at":
		return rec.UpdatedAt
	}
	return rec.Data[sortBy]
}

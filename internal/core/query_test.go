// internal/core/query_test.go
package core

import (
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablero-hq/tablero-backend/internal/domain"
)

func queryTable() *domain.Table {
	return &domain.Table{
		Slug: "clientes",
		Fields: []domain.Field{
			{Name: "nombre", Type: domain.FieldText},
			{Name: "edad", Type: domain.FieldNumber},
			{Name: "estado", Type: domain.FieldSelect, Options: []string{"nuevo", "cliente"}},
		},
	}
}

func queryRecords() []domain.Record {
	day := func(month, d int) time.Time {
		return time.Date(2024, time.Month(month), d, 12, 0, 0, 0, time.UTC)
	}
	return []domain.Record{
		{ID: "r1", Data: map[string]any{"nombre": "Ana García", "edad": float64(30), "estado": "cliente"}, CreatedAt: day(1, 1)},
		{ID: "r2", Data: map[string]any{"nombre": "Luis Pérez", "edad": float64(25), "estado": "nuevo"}, CreatedAt: day(2, 1)},
		{ID: "r3", Data: map[string]any{"nombre": "Carmen Ruiz", "edad": float64(41), "estado": "cliente"}, CreatedAt: day(3, 1)},
	}
}

func TestParseQueryOptions(t *testing.T) {
	params := url.Values{
		"search":    {"ana"},
		"page":      {"2"},
		"page_size": {"10"},
		"sort":      {"edad"},
		"order":     {"asc"},
		"estado":    {"cliente"},
		"edad_gte":  {"18"},
		"edad_lte":  {"65"},
	}

	opts, err := ParseQueryOptions(params)
	require.NoError(t, err)

	assert.Equal(t, "ana", opts.Search)
	assert.Equal(t, 2, opts.Page)
	assert.Equal(t, 10, opts.PageSize)
	assert.Equal(t, "edad", opts.SortBy)
	assert.Equal(t, "asc", opts.SortOrder)
	assert.Equal(t, Filter{Exact: "cliente"}, opts.Filters["estado"])
	assert.Equal(t, Filter{GTE: "18", LTE: "65"}, opts.Filters["edad"])
}

func TestParseQueryOptionsRejectsMalformedParams(t *testing.T) {
	for _, params := range []url.Values{
		{"page": {"0"}},
		{"page": {"abc"}},
		{"page_size": {"-1"}},
		{"page_size": {fmt.Sprint(MaxPageSize + 1)}},
		{"order": {"sideways"}},
	} {
		_, err := ParseQueryOptions(params)
		assert.Error(t, err, "params %v should be rejected", params)
	}
}

func TestApplyQueryExactFilter(t *testing.T) {
	recs, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		Filters: map[string]Filter{"estado": {Exact: "cliente"}},
		Page:    1,
	})
	assert.Equal(t, 2, total)
	require.Len(t, recs, 2)
}

func TestApplyQueryUnknownFilterIgnored(t *testing.T) {
	recs, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		Filters: map[string]Filter{"no_such_field": {Exact: "x"}},
		Page:    1,
	})
	assert.Equal(t, 3, total, "unknown filter fields tolerate schema drift")
	assert.Len(t, recs, 3)
}

func TestApplyQueryDateRangeFilter(t *testing.T) {
	recs, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		Filters: map[string]Filter{
			"created_at": {GTE: "2024-01-15", LTE: "2024-02-15"},
		},
		Page: 1,
	})
	assert.Equal(t, 1, total)
	require.Len(t, recs, 1)
	assert.Equal(t, "r2", recs[0].ID)
}

func TestApplyQueryNumericRangeFilter(t *testing.T) {
	recs, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		Filters: map[string]Filter{"edad": {GTE: "26", LTE: "45"}},
		Page:    1,
	})
	assert.Equal(t, 2, total)
	for _, rec := range recs {
		assert.GreaterOrEqual(t, rec.Data["edad"].(float64), float64(26))
	}
}

func TestApplyQuerySearch(t *testing.T) {
	recs, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		Search: "GARCÍA",
		Page:   1,
	})
	assert.Equal(t, 1, total, "search is case-insensitive substring match")
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0].ID)
}

func TestApplyQuerySearchComposesWithFilters(t *testing.T) {
	_, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		Search:  "ana",
		Filters: map[string]Filter{"estado": {Exact: "nuevo"}},
		Page:    1,
	})
	assert.Equal(t, 0, total, "search and filters AND together")
}

func TestApplyQuerySort(t *testing.T) {
	recs, _ := ApplyQuery(queryTable(), queryRecords(), QueryOptions{
		SortBy:    "edad",
		SortOrder: "asc",
		Page:      1,
	})
	require.Len(t, recs, 3)
	assert.Equal(t, "r2", recs[0].ID)
	assert.Equal(t, "r3", recs[2].ID)

	// Default sort is created_at desc.
	recs, _ = ApplyQuery(queryTable(), queryRecords(), QueryOptions{Page: 1})
	assert.Equal(t, "r3", recs[0].ID)
	assert.Equal(t, "r1", recs[2].ID)
}

func TestApplyQueryPagination(t *testing.T) {
	records := make([]domain.Record, 0, 5)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		records = append(records, domain.Record{
			ID:        fmt.Sprintf("r%d", i),
			Data:      map[string]any{"nombre": fmt.Sprintf("p%d", i)},
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}

	const pageSize = 2
	seen := 0
	var firstTotal int
	for page := 1; page <= 3; page++ {
		recs, total := ApplyQuery(queryTable(), records, QueryOptions{Page: page, PageSize: pageSize})
		if page == 1 {
			firstTotal = total
		}
		assert.Equal(t, firstTotal, total, "total must be identical across pages")
		seen += len(recs)
	}
	assert.Equal(t, 5, seen, "pages must cover every record exactly once")

	// A page beyond the range returns empty with the correct total.
	recs, total := ApplyQuery(queryTable(), records, QueryOptions{Page: 99, PageSize: pageSize})
	assert.Empty(t, recs)
	assert.Equal(t, 5, total)
}

func TestApplyQueryNoPagination(t *testing.T) {
	recs, total := ApplyQuery(queryTable(), queryRecords(), QueryOptions{Page: 1, PageSize: 0})
	assert.Equal(t, 3, total)
	assert.Len(t, recs, 3, "page size <= 0 disables pagination for exports")
}

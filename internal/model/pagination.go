package model

import "strings"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageQuery holds listing parameters as received from callers
type PageQuery struct {
	Page      int    `query:"page"`
	Limit     int    `query:"limit"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder"`
	Search    string `query:"search"`
}

// SortKeys maps accepted sort keys to stored column names
type SortKeys map[string]string

var baseSortKeys = SortKeys{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"deleteAt":  "delete_at",
}

// Per-entity sort keys; anything else falls back to created_at
var (
	UserSortKeys         = baseSortKeys.With(SortKeys{"name": "name", "email": "email", "role": "role"})
	CompanySortKeys      = baseSortKeys.With(SortKeys{"name": "name"})
	AccountSortKeys      = baseSortKeys.With(SortKeys{"subscriptionId": "subscription_id"})
	SubscriptionSortKeys = baseSortKeys.With(SortKeys{"name": "name"})
)

// With returns a copy of k extended by extra
func (k SortKeys) With(extra SortKeys) SortKeys {
	merged := make(SortKeys, len(k)+len(extra))
	for key, column := range k {
		merged[key] = column
	}
	for key, column := range extra {
		merged[key] = column
	}
	return merged
}

// column resolves a sort key, or an already resolved column name
func (k SortKeys) column(key string) string {
	if column, ok := k[key]; ok {
		return column
	}
	for _, column := range k {
		if column == key {
			return column
		}
	}
	return baseSortKeys["createdAt"]
}

// Normalize clamps paging and resolves sorting against keys; nil keys allow only timestamps
func (q PageQuery) Normalize(keys SortKeys) PageQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if keys == nil {
		keys = baseSortKeys
	}
	q.SortBy = keys.column(q.SortBy)
	if strings.ToLower(q.SortOrder) == "asc" {
		q.SortOrder = "asc"
	} else {
		q.SortOrder = "desc"
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset returns the number of rows to skip
func (q PageQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// OrderClause renders the sort for SQL stores; only call after Normalize
func (q PageQuery) OrderClause() string {
	return q.SortBy + " " + q.SortOrder
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPage wraps a result slice with its paging metadata
func NewPage[T any](data []T, total int64, q PageQuery) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return Page[T]{
		Data: data,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    q.Page < totalPages,
			HasPrev:    q.Page > 1,
		},
	}
}

// ScopeFilter lists records of one company
type ScopeFilter struct {
	CompanyID string
	PageQuery
}

package domain

import "time"

// BaseModel is the common base struct for all domain models.
// It replaces gorm.Model to avoid the implicit soft delete behavior of DeletedAt.
type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pagination defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (MaxPage-1)*MaxLimit within a 32-bit int.
	MaxPage = 10_000_000
)

// SortField names a sortable attribute of a listable collection.
type SortField string

// Supported sort fields.
const (
	SortByCreatedAt SortField = "created_at"
	SortByTitle     SortField = "title"
)

// SortOrder is the sort direction.
type SortOrder string

// Supported sort directions.
const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// PageRequest holds pagination, search, sorting and filtering parameters.
type PageRequest struct {
	Page     int
	Limit    int
	Search   string
	SortBy   SortField
	Order    SortOrder
	AuthorID *uint
}

// Offset returns the number of rows to skip for the requested page.
// It is zero for a page below 1.
func (r PageRequest) Offset() int64 {
	if r.Page < 1 || r.Limit < 1 {
		return 0
	}
	return int64(r.Page-1) * int64(r.Limit)
}

// Validate checks the request against the pagination bounds and enums.
func (r PageRequest) Validate() error {
	details := make(map[string]any)
	if r.Page < 1 {
		details["page"] = "min=1"
	} else if r.Page > MaxPage {
		details["page"] = "max=10000000"
	}
	if r.Limit < 1 {
		details["limit"] = "min=1"
	} else if r.Limit > MaxLimit {
		details["limit"] = "max=100"
	}
	switch r.SortBy {
	case SortByCreatedAt, SortByTitle:
	default:
		details["sort_by"] = "oneof=created_at title"
	}
	switch r.Order {
	case OrderAsc, OrderDesc:
	default:
		details["order"] = "oneof=asc desc"
	}
	if r.AuthorID != nil && *r.AuthorID == 0 {
		details["author_id"] = "min=1"
	}
	if len(details) > 0 {
		return NewValidationError("validation error", details)
	}
	return nil
}

// PageResult is one window of a listable collection.
//
// HasNext is page*limit < total and HasPrev is page > 1.
type PageResult[T any] struct {
	Items   []T   `json:"items"`
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// NewPage assembles a PageResult for items fetched with req out of total rows.
func NewPage[T any](items []T, total int64, req PageRequest) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:   items,
		Page:    req.Page,
		Limit:   req.Limit,
		Total:   total,
		HasNext: int64(req.Page)*int64(req.Limit) < total,
		HasPrev: req.Page > 1,
	}
}

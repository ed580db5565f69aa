// Package pagination parses page parameters and loads paged GORM results.
package pagination

import (
	"math"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in missing values and clamps page_size for requests that
// were not bound through the validator.
func (p *PageRequest) Defaults() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
}

// Offset returns the SQL OFFSET for the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
// Data is never nil so it encodes as [].
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given page request.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(req.Offset()).Limit(req.PageSize)
	}
}

// Query counts the rows matched by base and loads the requested page in the
// given order. base must carry its Model and filters. Scopes such as
// preloads apply to the page load only.
func Query[T any](base *gorm.DB, req PageRequest, order string, scopes ...func(*gorm.DB) *gorm.DB) (*PageResponse[T], error) {
	req.Defaults()

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, err
	}

	var items []T
	scopes = append(scopes, Paginate(req))
	if err := base.Scopes(scopes...).Order(order).Find(&items).Error; err != nil {
		return nil, err
	}

	result := NewPageResponse(items, req.Page, req.PageSize, totalItems)
	return &result, nil
}

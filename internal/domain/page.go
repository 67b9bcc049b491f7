package domain

import (
	"fmt"
	"math"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

type PageRequest struct {
	Page     int
	PageSize int
}

// NewPageRequest rejects non-positive page numbers and sizes, and pages
// whose offset does not fit in an int64.
func NewPageRequest(page, pageSize int) (PageRequest, error) {
	if page <= 0 || pageSize <= 0 {
		return PageRequest{}, fmt.Errorf("%w: page and page size must be greater than zero", ErrInvalidInput)
	}
	if int64(page-1) > math.MaxInt64/int64(pageSize) {
		return PageRequest{}, fmt.Errorf("%w: page is out of range", ErrInvalidInput)
	}
	return PageRequest{Page: page, PageSize: pageSize}, nil
}

func (p PageRequest) Skip() int64 {
	return int64(p.Page-1) * int64(p.PageSize)
}

func (p PageRequest) Limit() int64 {
	return int64(p.PageSize)
}

type Page[T any] struct {
	Data       []T   `json:"data"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}

func NewPage[T any](data []T, totalItems int64, req PageRequest) *Page[T] {
	if data == nil {
		data = make([]T, 0)
	}
	return &Page[T]{
		Data:       data,
		TotalItems: totalItems,
		TotalPages: int64(math.Ceil(float64(totalItems) / float64(req.PageSize))),
	}
}

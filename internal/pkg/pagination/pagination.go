package pagination

import (
	"github.com/gofiber/fiber/v2"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params is a page request taken from ?page=&limit=
type Params struct {
	Page  int
	Limit int
}

// Offset is the number of rows to skip
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// FromQuery reads page and limit, clamping limit to [1, MaxLimit]
func FromQuery(c *fiber.Ctx) Params {
	p := Params{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", DefaultLimit),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Meta describes where a page sits in the full result
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Page wraps one page of items with its metadata
type Page[T any] struct {
	Items []T `json:"items"`
	Meta  Meta `json:"meta"`
}

// New builds a Page; a nil slice is rendered as []
func New[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return Page[T]{
		Items: items,
		Meta: Meta{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: pages,
			HasNext:    p.Page < pages,
			HasPrev:    p.Page > 1,
		},
	}
}

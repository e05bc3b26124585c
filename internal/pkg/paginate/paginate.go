// Package paginate implements offset/limit pages with a has-more flag.
//
// Every list endpoint returns the same shape:
//
//	{"items": [...], "has_more": true, "total_count": 25}
//
// HasMore is offset+limit < total. A zero limit short-circuits to an empty
// page with HasMore set, so a client asking for nothing is never told the
// data has ended.
package paginate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sharinghood-api/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params are the offset and limit of a page request.
type Params struct {
	Offset int
	Limit  int
}

// Validate rejects negative values and caps Limit at MaxLimit.
func (p *Params) Validate() error {
	if p.Offset < 0 || p.Limit < 0 {
		return fmt.Errorf("offset and limit must be non-negative: %w", domain.ErrBadRequest)
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return nil
}

// FromQuery reads offset and limit from URL query values. A missing limit
// means DefaultLimit; an explicit limit=0 is kept.
func FromQuery(q url.Values) (Params, error) {
	p := Params{Limit: DefaultLimit}
	if s := q.Get("offset"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, fmt.Errorf("offset must be an integer: %w", domain.ErrBadRequest)
		}
		p.Offset = n
	}
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return p, fmt.Errorf("limit must be an integer: %w", domain.ErrBadRequest)
		}
		p.Limit = n
	}
	return p, p.Validate()
}

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T  `json:"items"`
	HasMore    bool `json:"has_more"`
	TotalCount *int `json:"total_count,omitempty"`
}

// Empty is the page returned for limit == 0.
func Empty[T any]() *Page[T] {
	return &Page[T]{Items: []T{}, HasMore: true}
}

// New builds a page from already fetched items and the total for the same predicate.
func New[T any](items []T, p Params, total int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		HasMore:    p.Limit < total-p.Offset, // offset+limit < total without overflow
		TotalCount: &total,
	}
}

// Map converts the items of a page, keeping HasMore and TotalCount.
func Map[T, U any](pg *Page[T], fn func(T) U) *Page[U] {
	out := make([]U, len(pg.Items))
	for i, it := range pg.Items {
		out[i] = fn(it)
	}
	return &Page[U]{Items: out, HasMore: pg.HasMore, TotalCount: pg.TotalCount}
}

// Source is a paginated query: Count and List must apply the same predicate.
type Source[T any] interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]T, error)
}

// Fetch runs the count and the page query for src and assembles the page.
func Fetch[T any](ctx context.Context, p Params, src Source[T]) (*Page[T], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Limit == 0 {
		return Empty[T](), nil
	}
	total, err := src.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}
	if p.Offset >= total {
		return New([]T{}, p, total), nil
	}
	items, err := src.List(ctx, p.Offset, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return New(items, p, total), nil
}

package fetch

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dmitrijs2005/communityhub/internal/client/api"
	"github.com/dmitrijs2005/communityhub/internal/client/models"
)

const DefaultPageSize = 10

// Query holds the extra filters of a paged fetch.
type Query = map[string]any

// PageFunc fetches one page.
type PageFunc[T any] func(ctx context.Context, page, limit int, query Query) (models.Page[T], error)

// PageState is a snapshot of a Paginator.
type PageState[T any] struct {
	Items            []T
	Pagination       *models.Pagination
	Page             int
	Limit            int
	IsLoading        bool
	Error            string
	ValidationErrors []json.RawMessage
}

type PaginatorOption func(*paginatorOptions)

type paginatorOptions struct {
	pageSize int
}

// WithPageSize sets the limit used until a call overrides it.
func WithPageSize(n int) PaginatorOption {
	return func(o *paginatorOptions) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// Paginator accumulates items across pages. Page 1 replaces the list, any
// later page is appended in arrival order without de-duplication.
type Paginator[T any] struct {
	fn          PageFunc[T]
	defaultSize int

	mu         sync.Mutex
	items      []T
	pagination *models.Pagination
	page       int
	limit      int
	query      Query
	inflight   int
	err        string
	verrs      []json.RawMessage
	// gen is bumped by Refresh and Reset; results of older fetches are dropped.
	gen uint64
}

func NewPaginator[T any](fn PageFunc[T], opts ...PaginatorOption) *Paginator[T] {
	o := paginatorOptions{pageSize: DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Paginator[T]{fn: fn, defaultSize: o.pageSize, page: 1, limit: o.pageSize}
}

// FetchData loads page with limit. Zero page or limit mean the current
// value, a nil query reuses the last one.
func (p *Paginator[T]) FetchData(ctx context.Context, page, limit int, query Query) (models.Page[T], error) {
	p.mu.Lock()
	if page <= 0 {
		page = p.page
	}
	if limit <= 0 {
		limit = p.limit
	}
	if query == nil {
		query = p.query
	}
	gen := p.begin(query)
	p.mu.Unlock()

	return p.run(ctx, gen, page, limit, query)
}

// LoadMore fetches the next page. It does nothing when there is no next page
// or a fetch is already in flight.
func (p *Paginator[T]) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.pagination == nil || !p.pagination.HasNext || p.inflight > 0 {
		p.mu.Unlock()
		return nil
	}
	page, limit, query := p.page+1, p.limit, p.query
	gen := p.begin(query)
	p.mu.Unlock()

	_, err := p.run(ctx, gen, page, limit, query)
	return err
}

// Refresh drops the accumulated items and refetches page 1.
func (p *Paginator[T]) Refresh(ctx context.Context, query Query) error {
	p.mu.Lock()
	p.gen++
	p.items = nil
	p.pagination = nil
	p.page = 1
	if query == nil {
		query = p.query
	}
	limit := p.limit
	gen := p.begin(query)
	p.mu.Unlock()

	_, err := p.run(ctx, gen, 1, limit, query)
	return err
}

// Reset returns to the initial state without issuing a request.
func (p *Paginator[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.items = nil
	p.pagination = nil
	p.page = 1
	p.limit = p.defaultSize
	p.query = nil
	p.err = ""
	p.verrs = nil
}

func (p *Paginator[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pagination != nil && p.pagination.HasNext
}

func (p *Paginator[T]) State() PageState[T] {
	p.mu.Lock()
	defer p.mu.Unlock()

	items := make([]T, len(p.items))
	copy(items, p.items)
	var pg *models.Pagination
	if p.pagination != nil {
		cp := *p.pagination
		pg = &cp
	}
	return PageState[T]{
		Items:            items,
		Pagination:       pg,
		Page:             p.page,
		Limit:            p.limit,
		IsLoading:        p.inflight > 0,
		Error:            p.err,
		ValidationErrors: p.verrs,
	}
}

// begin must be called with mu held.
func (p *Paginator[T]) begin(query Query) uint64 {
	p.inflight++
	p.query = query
	p.err = ""
	p.verrs = nil
	return p.gen
}

func (p *Paginator[T]) run(ctx context.Context, gen uint64, page, limit int, query Query) (models.Page[T], error) {
	res, err := p.fn(ctx, page, limit, query)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inflight > 0 {
		p.inflight--
	}
	if gen != p.gen {
		return res, err
	}
	if err != nil {
		p.err = err.Error()
		p.verrs = api.ValidationErrors(err)
		return res, err
	}

	if page == 1 {
		p.items = append([]T(nil), res.Items...)
	} else {
		p.items = append(p.items, res.Items...)
	}
	p.pagination = res.Pagination
	p.page = page
	p.limit = limit
	return res, nil
}

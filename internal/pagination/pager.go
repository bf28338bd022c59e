package pagination

import (
	"context"
	"errors"
	"sync"
	"time"

	"eduportal/internal/debounce"
)

// ErrStale is returned for a response that was overtaken by a newer request.
var ErrStale = errors.New("stale response discarded")

// Fetcher loads one page of a list.
type Fetcher[T any] func(ctx context.Context, p Params) (Page[T], error)

// All walks every page of a list with the given page size and returns the
// concatenated items.
func All[T any](ctx context.Context, fetch Fetcher[T], limit int) ([]T, error) {
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}
	var out []T
	for page := 1; ; page++ {
		res, err := fetch(ctx, Params{Page: page, Limit: limit})
		if err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if page >= res.Meta.TotalPages || len(res.Items) == 0 {
			return out, nil
		}
	}
}

// Pager holds the state of one list screen: current page, search text and
// the last page count. Every fetch carries a sequence number and only the
// latest response is applied.
type Pager[T any] struct {
	fetch Fetcher[T]
	limit int

	mu         sync.Mutex
	page       int
	search     string
	totalPages int
	seq        uint64
	inflight   int
	current    Page[T]
}

// NewPager creates a pager; limit <= 0 falls back to DefaultLimit.
func NewPager[T any](fetch Fetcher[T], limit int) *Pager[T] {
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}
	return &Pager[T]{fetch: fetch, limit: limit, page: DefaultPage}
}

// Load fetches the current page with the current search.
func (p *Pager[T]) Load(ctx context.Context) (Page[T], error) {
	p.mu.Lock()
	page, search := p.page, p.search
	p.mu.Unlock()
	return p.run(ctx, page, search)
}

// GoTo fetches page n keeping the search text. A page outside [1, totalPages]
// is rejected without a request.
func (p *Pager[T]) GoTo(ctx context.Context, n int) (Page[T], error) {
	p.mu.Lock()
	if err := Validate(n, p.totalPages); err != nil {
		p.mu.Unlock()
		return Page[T]{}, err
	}
	search := p.search
	p.mu.Unlock()
	return p.run(ctx, n, search)
}

// Next moves one page forward.
func (p *Pager[T]) Next(ctx context.Context) (Page[T], error) {
	return p.GoTo(ctx, p.Page()+1)
}

// Prev moves one page back.
func (p *Pager[T]) Prev(ctx context.Context) (Page[T], error) {
	return p.GoTo(ctx, p.Page()-1)
}

// SetSearch replaces the search text and goes back to page 1.
func (p *Pager[T]) SetSearch(ctx context.Context, search string) (Page[T], error) {
	p.mu.Lock()
	p.search = search
	p.page = DefaultPage
	p.totalPages = 0
	p.mu.Unlock()
	return p.run(ctx, DefaultPage, search)
}

// Page is the page number of the last applied response.
func (p *Pager[T]) Page() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page
}

// Search is the active search text.
func (p *Pager[T]) Search() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.search
}

// TotalPages is the page count from the last applied response.
func (p *Pager[T]) TotalPages() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages
}

// Current is the last applied page.
func (p *Pager[T]) Current() Page[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Loading reports whether a request is in flight.
func (p *Pager[T]) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflight > 0
}

func (p *Pager[T]) run(ctx context.Context, page int, search string) (Page[T], error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.inflight++
	p.mu.Unlock()

	res, err := p.fetch(ctx, Params{Page: page, Limit: p.limit, Search: search})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inflight--
	if seq != p.seq {
		return Page[T]{}, ErrStale
	}
	if err != nil {
		return Page[T]{}, err
	}
	p.page = page
	p.search = search
	p.totalPages = res.Meta.TotalPages
	p.current = res
	return res, nil
}

// Search debounces search text typed into a list screen and applies the
// settled text to its pager.
type Search[T any] struct {
	pager    *Pager[T]
	d        *debounce.Debouncer[string]
	onResult func(Page[T], error)
}

// NewSearch binds a debounced search to pager. onResult receives every
// applied page or error; stale responses are dropped silently.
func NewSearch[T any](ctx context.Context, pager *Pager[T], delay time.Duration, onResult func(Page[T], error)) *Search[T] {
	s := &Search[T]{pager: pager, onResult: onResult}
	s.d = debounce.New(delay, func(text string) {
		res, err := pager.SetSearch(ctx, text)
		if errors.Is(err, ErrStale) {
			return
		}
		if s.onResult != nil {
			s.onResult(res, err)
		}
	})
	return s
}

// Type records the current text of the search box.
func (s *Search[T]) Type(text string) { s.d.Trigger(text) }

// Flush issues the pending search immediately.
func (s *Search[T]) Flush() { s.d.Flush() }

// Stop drops a pending search.
func (s *Search[T]) Stop() { s.d.Stop() }

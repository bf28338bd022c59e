package pagination

import (
	"errors"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrBadLimit       = errors.New("limit out of range")
)

// Params is one list request: page number, page size and optional free-text search.
type Params struct {
	Page   int    `json:"page" form:"page"`
	Limit  int    `json:"limit" form:"limit"`
	Search string `json:"search,omitempty" form:"search"`
}

// Parse reads page/limit/search from raw query values; zero values get defaults.
func Parse(page, limit, search string) (Params, error) {
	p := Params{Search: strings.TrimSpace(search)}
	var err error
	if page != "" {
		if p.Page, err = strconv.Atoi(page); err != nil {
			return Params{}, ErrPageOutOfRange
		}
	}
	if limit != "" {
		if p.Limit, err = strconv.Atoi(limit); err != nil {
			return Params{}, ErrBadLimit
		}
	}
	if page == "" {
		p.Page = DefaultPage
	}
	if limit == "" {
		p.Limit = DefaultLimit
	}
	return p, p.Validate()
}

// Validate rejects a page below 1 and a limit outside [1, MaxLimit].
func (p Params) Validate() error {
	if p.Page < 1 {
		return ErrPageOutOfRange
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		return ErrBadLimit
	}
	return nil
}

// Offset is the number of items before the requested page.
func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

// Meta describes where a page sits in the full result.
type Meta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// TotalPages is ceil(total/limit), 0 for an empty result.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// BuildMeta computes page metadata for total matching items.
func BuildMeta(total int, p Params) Meta {
	tp := TotalPages(total, p.Limit)
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: tp,
		HasPrev:    p.Page > 1,
		HasNext:    tp > 0 && p.Page < tp,
	}
}

// Validate checks page against a known page count. Page 1 is always allowed
// so an empty list can be reloaded.
func Validate(page, totalPages int) error {
	if page < 1 {
		return ErrPageOutOfRange
	}
	if page == 1 {
		return nil
	}
	if page > totalPages {
		return ErrPageOutOfRange
	}
	return nil
}

// Page is a bounded slice of items plus its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Paginate slices items for p. A page past the end yields an empty slice.
func Paginate[T any](items []T, p Params) Page[T] {
	meta := BuildMeta(len(items), p)
	start := p.Offset()
	if start < 0 || start >= len(items) {
		return Page[T]{Items: []T{}, Meta: meta}
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{Items: out, Meta: meta}
}

// Filter keeps the items whose text matches search case-insensitively.
// An empty search keeps everything.
func Filter[T any](items []T, search string, text func(T) []string) []T {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		for _, s := range text(it) {
			if strings.Contains(strings.ToLower(s), search) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// Package pagination keeps the page cursors of the paginated views and
// slices cached result sets into pages.
package pagination

import "sync"

// DefaultSize is the page size of every list view.
const DefaultSize = 10

// TotalPages is max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size < 1 {
		size = DefaultSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Slice returns items[(page-1)*size : page*size], clamped to the bounds of
// items. A page past the end yields an empty slice.
func Slice[T any](items []T, page, size int) []T {
	if size < 1 {
		size = DefaultSize
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Window describes the page shown to the user and which navigation
// controls are enabled.
type Window struct {
	Page       int  `json:"page"`
	Size       int  `json:"size"`
	TotalPages int  `json:"totalPages"`
	TotalItems int  `json:"totalItems"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
	// Offset is the zero-based index of the first item on the page.
	Offset int `json:"offset"`
}

// Cursor is the current page of one view. It is safe for concurrent use.
type Cursor struct {
	mu   sync.Mutex
	page int
	size int
}

func NewCursor(size int) *Cursor {
	if size < 1 {
		size = DefaultSize
	}
	return &Cursor{page: 1, size: size}
}

func (c *Cursor) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

func (c *Cursor) Size() int { return c.size }

// Reset moves back to the first page.
func (c *Cursor) Reset() {
	c.Set(1)
}

// Set jumps to page n. Values below 1 become 1; the upper bound is applied
// by Next and Window against the current dataset.
func (c *Cursor) Set(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n < 1 {
		n = 1
	}
	c.page = n
}

// Next advances one page if the current page is before the last page of a
// dataset of total items. It reports whether the page moved.
func (c *Cursor) Next(total int) bool {
	return c.NextOf(TotalPages(total, c.size))
}

// NextOf is Next against an explicit page count, as reported by a server.
func (c *Cursor) NextOf(totalPages int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page >= totalPages {
		return false
	}
	c.page++
	return true
}

// Prev goes back one page unless already on the first.
func (c *Cursor) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.page <= 1 {
		return false
	}
	c.page--
	return true
}

// Window computes the navigation state for a dataset of total items.
func (c *Cursor) Window(total int) Window {
	return c.WindowOf(total, TotalPages(total, c.size))
}

// WindowOf is Window with a page count supplied by the caller. A
// totalPages below 1 is derived from total.
func (c *Cursor) WindowOf(total, totalPages int) Window {
	if totalPages < 1 {
		totalPages = TotalPages(total, c.size)
	}
	c.mu.Lock()
	page := c.page
	c.mu.Unlock()

	return Window{
		Page:       page,
		Size:       c.size,
		TotalPages: totalPages,
		TotalItems: total,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
		Offset:     (page - 1) * c.size,
	}
}

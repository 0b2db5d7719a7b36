package store

import (
	"time"

	"github.com/curioapp/curio-server/internal/domain"
)

// SortOrder controls the final ordering of a media page and the direction
// the cursor bounds compare in.
type SortOrder int

const (
	// OrderAsc sorts by (created_at, id) ascending.
	OrderAsc SortOrder = iota
	// OrderDesc sorts by (created_at, id) descending.
	OrderDesc
)

// Cursor is one position in the (created_at, id) keyset.
//
// The pair is a total order: id breaks created_at ties, so pages never skip
// or duplicate rows when timestamps collide. Both bounds built from a cursor
// are exclusive and compare lexicographically on the tuple, never on
// created_at alone.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorFor returns the keyset position of a medium, for stitching the next
// page onto the previous one.
func CursorFor(m *domain.Medium) Cursor {
	return Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// Before reports whether c precedes other in the keyset order.
func (c Cursor) Before(other Cursor) bool {
	if !c.CreatedAt.Equal(other.CreatedAt) {
		return c.CreatedAt.Before(other.CreatedAt)
	}
	return c.ID < other.ID
}

// Page describes one keyset-paginated request window.
//
// Since is the exclusive lower bound and Until the exclusive upper bound;
// either, neither, or both may be set. Order picks the final sort direction.
type Page struct {
	Since *Cursor
	Until *Cursor
	Order SortOrder
	Limit int
}

// DefaultPage returns an unbounded ascending page with the default limit.
func DefaultPage() Page {
	return Page{Order: OrderAsc, Limit: DefaultPageLimit}
}

const (
	// DefaultPageLimit is the page size used when a query does not set one.
	DefaultPageLimit = 100
	// MaxPageLimit caps any requested page size.
	MaxPageLimit = 1000
)

// PageLimits carries the configured page size bounds a store clamps
// requests with. The zero value falls back to the package defaults.
type PageLimits struct {
	Default int
	Max     int
}

// DefaultPageLimits returns the package default page size bounds.
func DefaultPageLimits() PageLimits {
	return PageLimits{Default: DefaultPageLimit, Max: MaxPageLimit}
}

// Clamp corrects the page limit against the given bounds: missing or
// negative limits take l.Default, oversized limits cap at l.Max.
func (p *Page) Clamp(l PageLimits) {
	if l.Default <= 0 {
		l.Default = DefaultPageLimit
	}
	if l.Max <= 0 {
		l.Max = MaxPageLimit
	}
	if p.Limit <= 0 {
		p.Limit = l.Default
	}
	if p.Limit > l.Max {
		p.Limit = l.Max
	}
}

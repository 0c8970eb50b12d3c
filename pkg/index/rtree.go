// Package index provides an immutable R-tree over target geometry
// envelopes. The tree is bulk loaded once at construction and answers
// envelope-intersection and nearest-envelope queries carrying target
// row ids as payload.
package index

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/dhconnelly/rtreego"

	"github.com/nginfra/movici-geo-query/pkg/geometry"
)

const (
	dimensions  = 2
	minChildren = 8
	maxChildren = 16

	// rtreego rejects rectangles with non-positive side lengths, so
	// degenerate envelopes (points, axis-parallel segments) are padded.
	// The envelope filter stays conservative; exact predicates refine.
	minRectSide = 1e-9
)

// entry pairs a target row id with its envelope rectangle.
type entry struct {
	id   uint32
	rect rtreego.Rect
}

func (e *entry) Bounds() *rtreego.Rect {
	return &e.rect
}

// Tree is a bulk-loaded R-tree over target envelopes. It is immutable
// after Build; concurrent readers need no locking.
type Tree struct {
	tree *rtreego.Rtree
	size int
}

// Build packs all envelopes into a tree in a single pass. A nil bounds
// entry marks a row without vertices; such rows are left out of the tree
// and never match.
func Build(bounds []*geom.Bounds) (*Tree, error) {
	items := make([]rtreego.Spatial, 0, len(bounds))
	for i, b := range bounds {
		if b == nil {
			continue
		}
		rect, err := rectFromBounds(b)
		if err != nil {
			return nil, fmt.Errorf("target row %d envelope: %v: %w", i, err, geometry.ErrInternal)
		}
		items = append(items, &entry{id: uint32(i), rect: *rect})
	}
	return &Tree{
		tree: rtreego.NewTree(dimensions, minChildren, maxChildren, items...),
		size: len(items),
	}, nil
}

// SearchIntersect returns the ids of all rows whose envelope intersects
// b. Order is unspecified.
func (t *Tree) SearchIntersect(b *geom.Bounds) ([]uint32, error) {
	if t.size == 0 {
		return nil, nil
	}
	rect, err := rectFromBounds(b)
	if err != nil {
		return nil, fmt.Errorf("search envelope: %v: %w", err, geometry.ErrInternal)
	}
	results := t.tree.SearchIntersect(rect)
	ids := make([]uint32, len(results))
	for i, r := range results {
		ids[i] = r.(*entry).id
	}
	return ids, nil
}

// NearestSeed returns the row whose envelope is nearest to p. It is a
// starting candidate for nearest-neighbour refinement, not necessarily
// the row with the smallest true geometric distance.
func (t *Tree) NearestSeed(p geom.Point) (uint32, bool) {
	if t.size == 0 {
		return 0, false
	}
	obj := t.tree.NearestNeighbor(rtreego.Point{p.X, p.Y})
	if obj == nil {
		return 0, false
	}
	return obj.(*entry).id, true
}

// Len returns the number of indexed rows.
func (t *Tree) Len() int {
	return t.size
}

func rectFromBounds(b *geom.Bounds) (*rtreego.Rect, error) {
	w := b.Max.X - b.Min.X
	if w < minRectSide {
		w = minRectSide
	}
	h := b.Max.Y - b.Min.Y
	if h < minRectSide {
		h = minRectSide
	}
	return rtreego.NewRect(rtreego.Point{b.Min.X, b.Min.Y}, []float64{w, h})
}

package geometry

import (
	"math"

	"github.com/ctessum/geom"
)

// Tolerance for "neither contains the other" area comparisons.
const arealEps = 1e-12

// shape is a geometry decomposed for predicate evaluation: its vertices,
// its edges (polygon rings closed last to first), and the polygon itself
// when the shape has a usable interior.
type shape struct {
	pts  []geom.Point
	segs [][2]geom.Point
	poly geom.Polygon
}

func decompose(g geom.Geom) shape {
	switch v := g.(type) {
	case geom.Point:
		return shape{pts: []geom.Point{v}}
	case geom.LineString:
		s := shape{pts: v}
		for i := 0; i+1 < len(v); i++ {
			if v[i] != v[i+1] {
				s.segs = append(s.segs, [2]geom.Point{v[i], v[i+1]})
			}
		}
		return s
	case geom.Polygon:
		var s shape
		for _, ring := range v {
			n := len(ring)
			for i := 0; i < n; i++ {
				s.pts = append(s.pts, ring[i])
				if i+1 < n && ring[i] != ring[i+1] {
					s.segs = append(s.segs, [2]geom.Point{ring[i], ring[i+1]})
				}
			}
			if n > 2 && ring[n-1] != ring[0] {
				s.segs = append(s.segs, [2]geom.Point{ring[n-1], ring[0]})
			}
			if n >= 3 {
				s.poly = v
			}
		}
		return s
	}
	return shape{}
}

// Intersects reports whether a and b share at least one point.
func Intersects(a, b geom.Geom) bool {
	return shapesIntersect(decompose(a), decompose(b))
}

func shapesIntersect(sa, sb shape) bool {
	for _, s := range sa.segs {
		for _, t := range sb.segs {
			if segmentsIntersect(s[0], s[1], t[0], t[1]) {
				return true
			}
		}
	}
	for _, p := range sa.pts {
		if shapeContainsPoint(sb, p) {
			return true
		}
	}
	for _, p := range sb.pts {
		if shapeContainsPoint(sa, p) {
			return true
		}
	}
	return false
}

func shapeContainsPoint(s shape, p geom.Point) bool {
	if s.poly != nil && pointInPolygon(p, s.poly) {
		return true
	}
	for _, sg := range s.segs {
		if onSegment(p, sg[0], sg[1]) {
			return true
		}
	}
	if s.poly == nil && len(s.segs) == 0 {
		for _, q := range s.pts {
			if q == p {
				return true
			}
		}
	}
	return false
}

// Overlaps reports whether the interiors of a and b share a region of
// their common dimension. It is defined for dimensionally equal operands
// only: polygon/polygon pairs overlap when their intersection has
// positive area strictly smaller than both operands (neither contains
// the other), linestring pairs when they share a collinear sub-segment
// of positive length. For linestring pairs containment is not checked:
// a line lying entirely along the other, or an identical line, also
// overlaps it. Point pairs and mixed-dimension pairs never overlap.
func Overlaps(a, b geom.Geom) bool {
	switch av := a.(type) {
	case geom.LineString:
		bv, ok := b.(geom.LineString)
		return ok && linesShareSegment(av, bv)
	case geom.Polygon:
		bv, ok := b.(geom.Polygon)
		return ok && polygonsOverlap(av, bv)
	}
	return false
}

// Distance returns the minimum Euclidean distance between a and b, 0
// when they intersect or one contains the other. The minimum between
// non-intersecting shapes is always attained at a vertex, so vertex-to-
// vertex and vertex-to-edge kernels cover every kind pairing.
func Distance(a, b geom.Geom) float64 {
	sa, sb := decompose(a), decompose(b)
	if shapesIntersect(sa, sb) {
		return 0
	}
	d := math.Inf(1)
	for _, p := range sa.pts {
		for _, q := range sb.pts {
			d = math.Min(d, math.Hypot(p.X-q.X, p.Y-q.Y))
		}
		for _, t := range sb.segs {
			d = math.Min(d, pointSegDistance(p, t[0], t[1]))
		}
	}
	for _, q := range sb.pts {
		for _, s := range sa.segs {
			d = math.Min(d, pointSegDistance(q, s[0], s[1]))
		}
	}
	return d
}

func pointInPolygon(p geom.Point, poly geom.Polygon) bool {
	w := p.Within(poly)
	return w == geom.Inside || w == geom.OnEdge
}

// orient returns the signed double area of triangle abc: positive for a
// counter-clockwise turn, zero for collinear points.
func orient(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether p lies on the closed segment ab.
func onSegment(p, a, b geom.Point) bool {
	if orient(a, b, p) != 0 {
		return false
	}
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// segmentsIntersect reports whether closed segments p1p2 and q1q2 share
// a point, including endpoint touches and collinear overlap.
func segmentsIntersect(p1, p2, q1, q2 geom.Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	if d1 == 0 && onSegment(p1, q1, q2) {
		return true
	}
	if d2 == 0 && onSegment(p2, q1, q2) {
		return true
	}
	if d3 == 0 && onSegment(q1, p1, p2) {
		return true
	}
	if d4 == 0 && onSegment(q2, p1, p2) {
		return true
	}
	return false
}

// pointSegDistance returns the distance from p to the closed segment ab.
func pointSegDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}

// linesShareSegment reports whether two polylines share a collinear
// sub-segment of positive length.
func linesShareSegment(a, b geom.LineString) bool {
	for i := 0; i+1 < len(a); i++ {
		p1, p2 := a[i], a[i+1]
		if p1 == p2 {
			continue
		}
		dx, dy := p2.X-p1.X, p2.Y-p1.Y
		l2 := dx*dx + dy*dy
		for j := 0; j+1 < len(b); j++ {
			q1, q2 := b[j], b[j+1]
			if q1 == q2 {
				continue
			}
			if orient(p1, p2, q1) != 0 || orient(p1, p2, q2) != 0 {
				continue
			}
			// Collinear pair: compare scalar projections onto p1p2.
			t1 := (q1.X-p1.X)*dx + (q1.Y-p1.Y)*dy
			t2 := (q2.X-p1.X)*dx + (q2.Y-p1.Y)*dy
			if t1 > t2 {
				t1, t2 = t2, t1
			}
			if math.Min(l2, t2)-math.Max(0, t1) > 0 {
				return true
			}
		}
	}
	return false
}

func polygonsOverlap(a, b geom.Polygon) bool {
	inter := a.Intersection(b)
	interPoly, _ := inter.(geom.Polygon)
	if len(interPoly) == 0 {
		return false
	}
	ia := math.Abs(inter.Area())
	aa := math.Abs(a.Area())
	ab := math.Abs(b.Area())
	return ia > arealEps && aa-ia > arealEps && ab-ia > arealEps
}

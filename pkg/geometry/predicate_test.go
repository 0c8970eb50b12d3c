package geometry

import (
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func square(x, y, side float64) geom.Polygon {
	return geom.Polygon{[]geom.Point{
		{X: x, Y: y},
		{X: x + side, Y: y},
		{X: x + side, Y: y + side},
		{X: x, Y: y + side},
	}}
}

func TestIntersects(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.Geom
		want bool
	}{
		{"equal points", geom.Point{X: 1, Y: 1}, geom.Point{X: 1, Y: 1}, true},
		{"distinct points", geom.Point{X: 1, Y: 1}, geom.Point{X: 1, Y: 2}, false},
		{"point on line", geom.Point{X: 0.5, Y: 0}, geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}, true},
		{"point off line", geom.Point{X: 0.5, Y: 0.1}, geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}, false},
		{"crossing lines",
			geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}},
			geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 0}}, true},
		{"parallel lines",
			geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}},
			geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 1}}, false},
		{"lines touching at endpoint",
			geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}},
			geom.LineString{{X: 1, Y: 0}, {X: 2, Y: 1}}, true},
		{"point in polygon", geom.Point{X: 0.5, Y: 0.5}, square(0, 0, 1), true},
		{"point outside polygon", geom.Point{X: 2, Y: 2}, square(0, 0, 1), false},
		{"polygon containing polygon", square(0, 0, 4), square(1, 1, 1), true},
		{"touching squares", square(0, 0, 1), square(1, 0, 1), true},
		{"disjoint squares", square(0, 0, 1), square(3, 0, 1), false},
		{"line crossing polygon edge",
			geom.LineString{{X: -1, Y: 0.5}, {X: 2, Y: 0.5}},
			square(0, 0, 1), true},
		{"line inside polygon",
			geom.LineString{{X: 0.2, Y: 0.5}, {X: 0.8, Y: 0.5}},
			square(0, 0, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Intersects(tt.a, tt.b); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			if got := Intersects(tt.b, tt.a); got != tt.want {
				t.Errorf("Intersects (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.Geom
		want bool
	}{
		{"partially overlapping squares", square(0, 0, 2), square(1, 1, 2), true},
		{"touching squares", square(0, 0, 1), square(1, 0, 1), false},
		{"disjoint squares", square(0, 0, 1), square(3, 0, 1), false},
		{"identical squares", square(0, 0, 1), square(0, 0, 1), false},
		{"nested squares", square(0, 0, 4), square(1, 1, 1), false},
		{"collinear overlapping lines",
			geom.LineString{{X: 0, Y: 0}, {X: 2, Y: 0}},
			geom.LineString{{X: 1, Y: 0}, {X: 3, Y: 0}}, true},
		{"crossing lines",
			geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}},
			geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 0}}, false},
		{"equal points", geom.Point{X: 1, Y: 1}, geom.Point{X: 1, Y: 1}, false},
		{"point vs polygon", geom.Point{X: 0.5, Y: 0.5}, square(0, 0, 1), false},
		{"line vs polygon",
			geom.LineString{{X: -1, Y: 0.5}, {X: 2, Y: 0.5}},
			square(0, 0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b geom.Geom
		want float64
	}{
		{"point to point", geom.Point{X: 0, Y: 0}, geom.Point{X: 3, Y: 4}, 5},
		{"point to segment interior",
			geom.Point{X: 0.5, Y: 1}, geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}, 1},
		{"point to segment endpoint",
			geom.Point{X: 2, Y: 0}, geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}}, 1},
		{"intersecting geometries",
			geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 1}},
			geom.LineString{{X: 0, Y: 1}, {X: 1, Y: 0}}, 0},
		{"disjoint squares", square(0, 0, 1), square(2, 0, 1), 1},
		{"touching squares", square(0, 0, 1), square(1, 0, 1), 0},
		{"point inside polygon", geom.Point{X: 0.5, Y: 0.5}, square(0, 0, 1), 0},
		{"polygon inside polygon", square(1, 1, 1), square(0, 0, 4), 0},
		{"point to polygon", geom.Point{X: 3, Y: 0.5}, square(0, 0, 1), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
			if got := Distance(tt.b, tt.a); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Distance (swapped) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDistanceSingleVertexLine(t *testing.T) {
	line := geom.LineString{{X: 1, Y: 0}}
	if got := Distance(geom.Point{X: 0, Y: 0}, line); got != 1 {
		t.Errorf("Distance to single-vertex line = %v, want 1", got)
	}
}

func TestOpenRingClosedImplicitly(t *testing.T) {
	// Ring given without the duplicated terminal vertex; the closing
	// edge (0,1)->(0,0) must still participate in predicates.
	tri := geom.Polygon{[]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}}}
	closing := geom.LineString{{X: -1, Y: 0.5}, {X: 1, Y: 0.5}}
	if !Intersects(tri, closing) {
		t.Error("expected line through the implicit closing edge to intersect")
	}
}

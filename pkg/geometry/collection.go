// Package geometry provides columnar geometry collections and the exact
// predicates used to refine spatial index candidates.
package geometry

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Collection is an ordered batch of geometries of a single kind stored
// in columnar form: a dense vertex array plus, for the CSR kinds, a row
// pointer array delimiting each geometry's vertex range. Collections are
// validated on construction and immutable afterwards.
type Collection struct {
	kind   Kind
	coords []geom.Point
	rowPtr []uint32
}

// New builds a collection from a wire kind identifier. Coordinate rows
// must have at least two columns; columns beyond the first two are
// ignored.
func New(kind string, coords [][]float64, rowPtr []uint32) (*Collection, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	return NewCollection(k, coords, rowPtr)
}

// NewPoints builds a point collection. The i-th geometry is the i-th
// coordinate row.
func NewPoints(coords [][]float64) (*Collection, error) {
	return NewCollection(Point, coords, nil)
}

// NewLineStrings builds a linestring collection in CSR form.
func NewLineStrings(coords [][]float64, rowPtr []uint32) (*Collection, error) {
	return NewCollection(LineString, coords, rowPtr)
}

// NewOpenPolygons builds a polygon collection whose rings are closed
// implicitly (last vertex joins back to the first).
func NewOpenPolygons(coords [][]float64, rowPtr []uint32) (*Collection, error) {
	return NewCollection(OpenPolygon, coords, rowPtr)
}

// NewClosedPolygons builds a polygon collection whose rings carry an
// explicit duplicated terminal vertex.
func NewClosedPolygons(coords [][]float64, rowPtr []uint32) (*Collection, error) {
	return NewCollection(ClosedPolygon, coords, rowPtr)
}

// NewCollection validates and builds a collection of the given kind.
func NewCollection(kind Kind, coords [][]float64, rowPtr []uint32) (*Collection, error) {
	pts, err := projectCoords(coords)
	if err != nil {
		return nil, err
	}
	c := &Collection{kind: kind, coords: pts, rowPtr: rowPtr}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// projectCoords keeps the first two columns of every row.
func projectCoords(coords [][]float64) ([]geom.Point, error) {
	pts := make([]geom.Point, len(coords))
	for i, row := range coords {
		if len(row) < 2 {
			return nil, fmt.Errorf("coordinate row %d has %d columns, need at least 2: %w",
				i, len(row), ErrDimensionMismatch)
		}
		pts[i] = geom.Point{X: row[0], Y: row[1]}
	}
	return pts, nil
}

func (c *Collection) validate() error {
	if !c.kind.csr() {
		if c.rowPtr != nil {
			return fmt.Errorf("%s collection can't have a row pointer: %w", c.kind, ErrInvalidGeometry)
		}
		return nil
	}
	if len(c.rowPtr) == 0 {
		return fmt.Errorf("%s collection needs a row pointer: %w", c.kind, ErrInvalidGeometry)
	}
	if c.rowPtr[0] != 0 {
		return fmt.Errorf("%s row pointer starts at %d, want 0: %w", c.kind, c.rowPtr[0], ErrInvalidGeometry)
	}
	for i := 1; i < len(c.rowPtr); i++ {
		if c.rowPtr[i] < c.rowPtr[i-1] {
			return fmt.Errorf("%s row pointer decreases at row %d: %w", c.kind, i-1, ErrInvalidGeometry)
		}
	}
	if last := c.rowPtr[len(c.rowPtr)-1]; int(last) != len(c.coords) {
		return fmt.Errorf("%s row pointer ends at %d, want %d: %w",
			c.kind, last, len(c.coords), ErrInvalidGeometry)
	}
	return nil
}

// Len returns the number of geometries in the collection.
func (c *Collection) Len() int {
	if !c.kind.csr() {
		return len(c.coords)
	}
	return len(c.rowPtr) - 1
}

// Kind returns the collection's geometry kind.
func (c *Collection) Kind() Kind {
	return c.kind
}

// Row returns the vertex range of geometry i as a read-only view into
// the coordinate array.
func (c *Collection) Row(i int) []geom.Point {
	if !c.kind.csr() {
		return c.coords[i : i+1]
	}
	return c.coords[c.rowPtr[i]:c.rowPtr[i+1]]
}

package geometry

import "github.com/ctessum/geom"

// Geometry adapts row i into a predicate-ready value: a geom.Point, an
// unclosed geom.LineString, or a single-ring geom.Polygon. Open polygon
// rings stay as given (predicates close them last to first); closed
// polygon rings drop the duplicated terminal vertex so both polygon
// kinds share one ring representation.
func (c *Collection) Geometry(i int) geom.Geom {
	row := c.Row(i)
	switch c.kind {
	case Point:
		return row[0]
	case LineString:
		return geom.LineString(row)
	case ClosedPolygon:
		if n := len(row); n > 1 && row[0] == row[n-1] {
			row = row[:n-1]
		}
		return polygonRing(row)
	default: // OpenPolygon
		return polygonRing(row)
	}
}

func polygonRing(row []geom.Point) geom.Polygon {
	p := make(geom.Polygon, 1)
	p[0] = append(p[0], row...)
	return p
}

// Envelope returns the axis-aligned bounding rectangle of row i, a
// degenerate rectangle for points. Rows without vertices have no
// envelope and return nil; they never match any query.
func (c *Collection) Envelope(i int) *geom.Bounds {
	if len(c.Row(i)) == 0 {
		return nil
	}
	return c.Geometry(i).Bounds()
}

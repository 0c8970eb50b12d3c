// Package query implements the batch query engine: a geometry collection
// is indexed once and answers overlaps, intersects, nearest and
// within-distance queries for whole query collections at a time.
package query

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"sync"

	"github.com/ctessum/geom"

	"github.com/nginfra/movici-geo-query/pkg/geometry"
	"github.com/nginfra/movici-geo-query/pkg/index"
)

// Padding applied to search envelopes so candidates whose envelope only
// touches the search window are not lost to floating-point comparison.
const searchPad = 1e-9

// Engine answers spatial queries against a fixed target collection. The
// target is adapted and indexed once at construction; the engine is
// immutable afterwards, so concurrent query calls are safe.
type Engine struct {
	target *geometry.Collection
	geoms  []geom.Geom
	tree   *index.Tree
}

// New adapts every target row and bulk-loads the spatial index.
func New(target *geometry.Collection) (*Engine, error) {
	n := target.Len()
	geoms := make([]geom.Geom, n)
	bounds := make([]*geom.Bounds, n)
	for i := 0; i < n; i++ {
		geoms[i] = target.Geometry(i)
		bounds[i] = target.Envelope(i)
	}
	tree, err := index.Build(bounds)
	if err != nil {
		return nil, err
	}
	return &Engine{target: target, geoms: geoms, tree: tree}, nil
}

// Overlaps returns, per query item, the targets whose interior shares a
// region of common dimension with it. Mixed-dimension pairs never match.
func (e *Engine) Overlaps(q *geometry.Collection) (*CSRResult, error) {
	return e.csrQuery(q, 0, geometry.Overlaps)
}

// Intersects returns, per query item, the targets sharing at least one
// point with it.
func (e *Engine) Intersects(q *geometry.Collection) (*CSRResult, error) {
	return e.csrQuery(q, 0, geometry.Intersects)
}

// WithinDistance returns, per query item, the targets whose minimum
// Euclidean distance to it is at most d. Targets at exactly d match.
func (e *Engine) WithinDistance(q *geometry.Collection, d float64) (*CSRResult, error) {
	if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return nil, fmt.Errorf("within-distance radius %v must be finite and non-negative: %w",
			d, geometry.ErrInvalidDistance)
	}
	pred := func(a, b geom.Geom) bool {
		return geometry.Distance(a, b) <= d
	}
	return e.csrQuery(q, d, pred)
}

// Nearest returns, per query item, the target with the smallest true
// Euclidean distance and that distance. Ties go to the lowest target
// row id, so results do not depend on index traversal order.
func (e *Engine) Nearest(q *geometry.Collection) (*NearestResult, error) {
	nq := q.Len()
	if e.target.Len() == 0 || nq == 0 {
		return &NearestResult{Indices: []uint32{}, Distances: []float64{}}, nil
	}

	result := &NearestResult{
		Indices:   make([]uint32, nq),
		Distances: make([]float64, nq),
	}
	err := e.forEachRow(nq, func(i int) error {
		g := q.Geometry(i)
		b := q.Envelope(i)
		if b == nil {
			result.Indices[i] = 0
			result.Distances[i] = math.Inf(1)
			return nil
		}
		seed, ok := e.tree.NearestSeed(boundsCenter(b))
		if !ok {
			result.Indices[i] = 0
			result.Distances[i] = math.Inf(1)
			return nil
		}
		best := seed
		bestDist := geometry.Distance(e.geoms[seed], g)

		// The seed is nearest by envelope only. Every target that could
		// beat it has its envelope within bestDist of the query
		// envelope; re-search that window and refine with true
		// distances.
		candidates, err := e.tree.SearchIntersect(expandBounds(b, bestDist))
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if c == best {
				continue
			}
			d := geometry.Distance(e.geoms[c], g)
			if d < bestDist || (d == bestDist && c < best) {
				best, bestDist = c, d
			}
		}
		result.Indices[i] = best
		result.Distances[i] = bestDist
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// csrQuery runs an all-matches query: envelope candidates from the
// index, exact predicate refinement, then per-row sort and dedup into a
// flat CSR buffer.
func (e *Engine) csrQuery(q *geometry.Collection, expand float64, pred func(target, query geom.Geom) bool) (*CSRResult, error) {
	nq := q.Len()
	result := &CSRResult{
		Indices: []uint32{},
		RowPtr:  make([]uint32, nq+1),
	}
	if e.target.Len() == 0 || nq == 0 {
		return result, nil
	}

	rows := make([][]uint32, nq)
	err := e.forEachRow(nq, func(i int) error {
		g := q.Geometry(i)
		b := q.Envelope(i)
		if b == nil {
			return nil
		}
		candidates, err := e.tree.SearchIntersect(expandBounds(b, expand))
		if err != nil {
			return err
		}
		var matches []uint32
		for _, c := range candidates {
			if pred(e.geoms[c], g) {
				matches = append(matches, c)
			}
		}
		slices.Sort(matches)
		rows[i] = slices.Compact(matches)
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i, matches := range rows {
		result.Indices = append(result.Indices, matches...)
		result.RowPtr[i+1] = result.RowPtr[i] + uint32(len(matches))
	}
	return result, nil
}

// forEachRow shards query rows across a worker pool. Each row writes
// only its own slot, so output is identical to serial execution.
func (e *Engine) forEachRow(n int, fn func(i int) error) error {
	numWorkers := runtime.NumCPU()
	if numWorkers > n {
		numWorkers = n
	}

	workerCh := make(chan int, n)
	errs := make([]error, numWorkers)
	var wg sync.WaitGroup

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := range workerCh {
				if errs[w] != nil {
					continue
				}
				errs[w] = fn(i)
			}
		}(w)
	}
	for i := 0; i < n; i++ {
		workerCh <- i
	}
	close(workerCh)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func boundsCenter(b *geom.Bounds) geom.Point {
	return geom.Point{
		X: (b.Min.X + b.Max.X) / 2,
		Y: (b.Min.Y + b.Max.Y) / 2,
	}
}

func expandBounds(b *geom.Bounds, d float64) *geom.Bounds {
	pad := d + searchPad
	return &geom.Bounds{
		Min: geom.Point{X: b.Min.X - pad, Y: b.Min.Y - pad},
		Max: geom.Point{X: b.Max.X + pad, Y: b.Max.Y + pad},
	}
}

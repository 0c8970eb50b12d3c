package query

// CSRResult holds the matches of an all-matches query (overlaps,
// intersects, within-distance) in compressed-sparse-row form: Indices is
// the flat buffer of matching target row ids, RowPtr has one entry per
// query item plus a terminator, and Indices[RowPtr[i]:RowPtr[i+1]] is
// the strictly ascending match set of query item i.
type CSRResult struct {
	Indices []uint32
	RowPtr  []uint32
}

// Len returns the number of query items the result covers.
func (r *CSRResult) Len() int {
	return len(r.RowPtr) - 1
}

// Row returns the match set of query item i.
func (r *CSRResult) Row(i int) []uint32 {
	return r.Indices[r.RowPtr[i]:r.RowPtr[i+1]]
}

// Iterate calls fn once per query item with that item's match set.
func (r *CSRResult) Iterate(fn func(item int, indices []uint32)) {
	for i := 0; i < r.Len(); i++ {
		fn(i, r.Row(i))
	}
}

// NearestResult holds per-item nearest matches: Indices[i] is the target
// row nearest to query item i and Distances[i] its true Euclidean
// distance. Both arrays have one entry per query item.
type NearestResult struct {
	Indices   []uint32
	Distances []float64
}

// Len returns the number of query items the result covers.
func (r *NearestResult) Len() int {
	return len(r.Indices)
}

// Iterate calls fn once per query item with a one-element slice holding
// the nearest target, so CSR and per-item results iterate uniformly.
func (r *NearestResult) Iterate(fn func(item int, indices []uint32)) {
	for i, idx := range r.Indices {
		fn(i, []uint32{idx})
	}
}

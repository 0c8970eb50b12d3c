// Package postgis provides a PostGIS-backed reference engine answering
// the same four query families as the in-memory engine. It exists for
// cross-checking and benchmarking; the core engine never depends on it.
package postgis

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ctessum/geom"
	_ "github.com/lib/pq"

	"github.com/nginfra/movici-geo-query/pkg/geometry"
	"github.com/nginfra/movici-geo-query/pkg/query"
)

// ReferenceEngine answers spatial queries through a PostGIS table with a
// GIST index, mirroring the in-memory engine's result layouts.
type ReferenceEngine struct {
	db   *sql.DB
	size int
}

// Connect opens a PostGIS connection with pool settings tuned for
// batched loading.
func Connect(host string, port int, user, password, dbname string) (*ReferenceEngine, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &ReferenceEngine{db: db}, nil
}

// Close releases the database connection.
func (r *ReferenceEngine) Close() error {
	return r.db.Close()
}

// InitSchema recreates the target table.
func (r *ReferenceEngine) InitSchema() error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis;`,
		`DROP TABLE IF EXISTS geo_targets;`,
		`CREATE TABLE geo_targets (
			row_id INTEGER PRIMARY KEY,
			geom   GEOMETRY
		);`,
	}
	for _, q := range queries {
		if _, err := r.db.Exec(q); err != nil {
			return fmt.Errorf("failed to execute %q: %w", q, err)
		}
	}
	return nil
}

// CreateSpatialIndex creates a GIST index over the target geometries and
// refreshes planner statistics.
func (r *ReferenceEngine) CreateSpatialIndex() error {
	if _, err := r.db.Exec(`CREATE INDEX idx_geo_targets_geom ON geo_targets USING GIST(geom);`); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}
	if _, err := r.db.Exec(`ANALYZE geo_targets;`); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}
	return nil
}

// LoadCollection inserts every row of the target collection as WKT.
func (r *ReferenceEngine) LoadCollection(c *geometry.Collection) error {
	const batchSize = 10000

	stmt, err := r.db.Prepare(`
		INSERT INTO geo_targets (row_id, geom)
		VALUES ($1, ST_GeomFromText($2))
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	txStmt := tx.Stmt(stmt)

	n := c.Len()
	for i := 0; i < n; i++ {
		if _, err := txStmt.Exec(i, WKT(c, i)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert row %d: %w", i, err)
		}
		if (i+1)%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("failed to commit batch: %w", err)
			}
			tx, err = r.db.Begin()
			if err != nil {
				return fmt.Errorf("failed to begin new transaction: %w", err)
			}
			txStmt = tx.Stmt(stmt)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit final batch: %w", err)
	}
	r.size = n
	return nil
}

// Overlaps mirrors Engine.Overlaps through ST_Overlaps.
func (r *ReferenceEngine) Overlaps(q *geometry.Collection) (*query.CSRResult, error) {
	return r.csrQuery(q, `
		SELECT row_id FROM geo_targets
		WHERE ST_Overlaps(geom, ST_GeomFromText($1))
		ORDER BY row_id`)
}

// Intersects mirrors Engine.Intersects through ST_Intersects.
func (r *ReferenceEngine) Intersects(q *geometry.Collection) (*query.CSRResult, error) {
	return r.csrQuery(q, `
		SELECT row_id FROM geo_targets
		WHERE ST_Intersects(geom, ST_GeomFromText($1))
		ORDER BY row_id`)
}

// WithinDistance mirrors Engine.WithinDistance through ST_DWithin.
func (r *ReferenceEngine) WithinDistance(q *geometry.Collection, d float64) (*query.CSRResult, error) {
	if d < 0 {
		return nil, fmt.Errorf("within-distance radius %v: %w", d, geometry.ErrInvalidDistance)
	}
	return r.csrQuery(q, fmt.Sprintf(`
		SELECT row_id FROM geo_targets
		WHERE ST_DWithin(geom, ST_GeomFromText($1), %g)
		ORDER BY row_id`, d))
}

// Nearest mirrors Engine.Nearest through the KNN operator.
func (r *ReferenceEngine) Nearest(q *geometry.Collection) (*query.NearestResult, error) {
	nq := q.Len()
	if r.size == 0 || nq == 0 {
		return &query.NearestResult{Indices: []uint32{}, Distances: []float64{}}, nil
	}
	result := &query.NearestResult{
		Indices:   make([]uint32, nq),
		Distances: make([]float64, nq),
	}
	for i := 0; i < nq; i++ {
		row := r.db.QueryRow(`
			SELECT row_id, ST_Distance(geom, ST_GeomFromText($1))
			FROM geo_targets
			ORDER BY geom <-> ST_GeomFromText($1)
			LIMIT 1`, WKT(q, i))
		var id uint32
		var dist float64
		if err := row.Scan(&id, &dist); err != nil {
			return nil, fmt.Errorf("nearest query row %d: %w", i, err)
		}
		result.Indices[i] = id
		result.Distances[i] = dist
	}
	return result, nil
}

func (r *ReferenceEngine) csrQuery(q *geometry.Collection, sqlText string) (*query.CSRResult, error) {
	nq := q.Len()
	result := &query.CSRResult{
		Indices: []uint32{},
		RowPtr:  make([]uint32, nq+1),
	}
	if r.size == 0 || nq == 0 {
		return result, nil
	}
	for i := 0; i < nq; i++ {
		count, err := r.appendMatches(result, sqlText, WKT(q, i))
		if err != nil {
			return nil, fmt.Errorf("query row %d: %w", i, err)
		}
		result.RowPtr[i+1] = result.RowPtr[i] + count
	}
	return result, nil
}

func (r *ReferenceEngine) appendMatches(result *query.CSRResult, sqlText, wkt string) (uint32, error) {
	rows, err := r.db.Query(sqlText, wkt)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := uint32(0)
	for rows.Next() {
		var id uint32
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		result.Indices = append(result.Indices, id)
		count++
	}
	return count, rows.Err()
}

// WKT renders row i of a collection as Well-Known Text. Open polygon
// rings are closed explicitly since WKT requires it.
func WKT(c *geometry.Collection, i int) string {
	row := c.Row(i)
	switch c.Kind() {
	case geometry.Point:
		return fmt.Sprintf("POINT(%g %g)", row[0].X, row[0].Y)
	case geometry.LineString:
		return fmt.Sprintf("LINESTRING(%s)", wktCoords(row))
	default:
		ring := row
		if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
			ring = append(append([]geom.Point{}, ring...), ring[0])
		}
		return fmt.Sprintf("POLYGON((%s))", wktCoords(ring))
	}
}

func wktCoords(pts []geom.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%g %g", p.X, p.Y)
	}
	return strings.Join(parts, ",")
}

package historyrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/wanderwise/internal/domain/recommender"
)

// PostgresRepository implements recommender.QueryLog using pgx.
//
// Expected schema:
//
//	CREATE TABLE query_log (
//	    id         UUID PRIMARY KEY,
//	    query      TEXT NOT NULL,
//	    city       TEXT NOT NULL DEFAULT '',
//	    created_at TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Record inserts one answered query.
func (r *PostgresRepository) Record(ctx context.Context, entry recommender.QueryEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO query_log (id, query, city, created_at)
		VALUES ($1, $2, $3, $4)
	`, entry.ID, entry.Query, entry.City, entry.CreatedAt)
	return err
}

// Recent returns the newest entries first.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]recommender.QueryEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, query, city, created_at
		FROM query_log
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]recommender.QueryEntry, 0, limit)
	for rows.Next() {
		var entry recommender.QueryEntry
		if err := rows.Scan(&entry.ID, &entry.Query, &entry.City, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

var _ recommender.QueryLog = (*PostgresRepository)(nil)

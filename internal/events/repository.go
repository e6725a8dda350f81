package events

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/recurse-words/internal/decompose"
	"github.com/Adithya-Monish-Kumar-K/recurse-words/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS word_edges (
	signature  TEXT        NOT NULL,
	source     TEXT        NOT NULL,
	label      TEXT        NOT NULL,
	target     TEXT        NOT NULL,
	root       TEXT        NOT NULL,
	run_id     TEXT        NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (signature, source, label, target)
);
CREATE INDEX IF NOT EXISTS word_edges_root_idx ON word_edges (signature, root);`

// EdgeRepository keeps the edge relation of every policy signature in the
// word_edges table. Re-delivered hits are idempotent.
type EdgeRepository struct {
	db *postgres.Client
}

func NewEdgeRepository(db *postgres.Client) *EdgeRepository {
	return &EdgeRepository{db: db}
}

func (r *EdgeRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating word_edges: %w", err)
	}
	return nil
}

// SaveHit inserts the edges of one hit in a single transaction.
func (r *EdgeRepository) SaveHit(ctx context.Context, e HitEvent) error {
	return r.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO word_edges (signature, source, label, target, root, run_id)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (signature, source, label, target) DO NOTHING`)
		if err != nil {
			return fmt.Errorf("preparing edge insert: %w", err)
		}
		defer stmt.Close()
		for _, t := range e.Edges {
			if _, err := stmt.ExecContext(ctx, e.Signature, t.Source, t.Label, t.Target, e.Word, e.RunID); err != nil {
				return fmt.Errorf("inserting edge %s -> %s: %w", t.Source, t.Target, err)
			}
		}
		return nil
	})
}

// Edges returns the stored edges of signature whose source is one of
// sources, or all of them when sources is empty, sorted like the in-memory
// edge relation.
func (r *EdgeRepository) Edges(ctx context.Context, signature string, sources ...string) ([]decompose.Triple, error) {
	if sources == nil {
		sources = []string{}
	}
	rows, err := r.db.DB.QueryContext(ctx, `
		SELECT source, label, target FROM word_edges
		WHERE signature = $1 AND (cardinality($2::text[]) = 0 OR source = ANY($2))
		ORDER BY source, label, target`,
		signature, pq.Array(sources))
	if err != nil {
		return nil, fmt.Errorf("querying edges: %w", err)
	}
	defer rows.Close()
	var out []decompose.Triple
	for rows.Next() {
		var t decompose.Triple
		if err := rows.Scan(&t.Source, &t.Label, &t.Target); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *EdgeRepository) DeleteSignature(ctx context.Context, signature string) (int64, error) {
	res, err := r.db.DB.ExecContext(ctx, `DELETE FROM word_edges WHERE signature = $1`, signature)
	if err != nil {
		return 0, fmt.Errorf("deleting edges: %w", err)
	}
	return res.RowsAffected()
}

// IsPermanent reports database errors that a retry cannot fix: data
// exceptions, integrity violations and syntax errors.
func IsPermanent(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "22", "23", "42":
		return true
	}
	return false
}

package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

type Image struct {
	ID     int64
	RunID  string
	Prefix string
	Path   string
	Width  int
	Height int
	Hash   uint64
	// Fingerprint holds one 0/1 value per hash bit.
	Fingerprint []float32
}

type ImageMatch struct {
	Image
	Distance float32
}

type ImageStore struct {
	pool *pgxpool.Pool
}

func NewImageStore(pool *pgxpool.Pool) *ImageStore {
	return &ImageStore{pool: pool}
}

// ReplacePrefix swaps the catalogued images of prefix for images in one
// transaction. Finalizing renumbers files, so rows are never updated in
// place.
func (store *ImageStore) ReplacePrefix(ctx context.Context, prefix string, images []Image) error {
	return WithTransaction(ctx, store.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM harvested_images WHERE prefix = $1`, prefix); err != nil {
			return fmt.Errorf("store: images delete: %w", err)
		}

		batch := &pgx.Batch{}
		for _, image := range images {
			batch.Queue(`
				INSERT INTO harvested_images (run_id, prefix, path, width, height, dhash, fingerprint)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, image.RunID, prefix, image.Path, image.Width, image.Height, int64(image.Hash), pgvector.NewVector(image.Fingerprint))
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("store: images insert: %w", err)
		}
		return nil
	})
}

func (store *ImageStore) ListByPrefix(ctx context.Context, prefix string) ([]Image, error) {
	rows, err := store.pool.Query(ctx, `
		SELECT id, run_id, prefix, path, width, height, dhash
		FROM harvested_images
		WHERE $1 = '' OR prefix = $1
		ORDER BY prefix, path
	`, prefix)
	if err != nil {
		return nil, fmt.Errorf("store: images list: %w", err)
	}
	defer rows.Close()

	out := make([]Image, 0, 32)
	for rows.Next() {
		var image Image
		var hash int64
		if err := rows.Scan(&image.ID, &image.RunID, &image.Prefix, &image.Path, &image.Width, &image.Height, &hash); err != nil {
			return nil, fmt.Errorf("store: images scan: %w", err)
		}
		image.Hash = uint64(hash)
		out = append(out, image)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: images rows: %w", err)
	}
	return out, nil
}

// Similar returns the limit images whose fingerprint is closest to
// fingerprint by Euclidean distance.
func (store *ImageStore) Similar(ctx context.Context, fingerprint []float32, limit int) ([]ImageMatch, error) {
	rows, err := store.pool.Query(ctx, `
		SELECT id, run_id, prefix, path, width, height, dhash, (fingerprint <-> $1)::real AS distance
		FROM harvested_images
		ORDER BY fingerprint <-> $1
		LIMIT $2
	`, pgvector.NewVector(fingerprint), limit)
	if err != nil {
		return nil, fmt.Errorf("store: images similar: %w", err)
	}
	defer rows.Close()

	out := make([]ImageMatch, 0, limit)
	for rows.Next() {
		var match ImageMatch
		var hash int64
		if err := rows.Scan(&match.ID, &match.RunID, &match.Prefix, &match.Path, &match.Width, &match.Height, &hash, &match.Distance); err != nil {
			return nil, fmt.Errorf("store: images similar scan: %w", err)
		}
		match.Hash = uint64(hash)
		out = append(out, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: images similar rows: %w", err)
	}
	return out, nil
}

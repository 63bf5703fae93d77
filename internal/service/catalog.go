package service

import (
	"context"
	"time"

	"github.com/image-harvest/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/xid"
)

// Catalog records finished runs and their final images.
type Catalog interface {
	StartRun(ctx context.Context, run *store.Run) error
	FinishRun(ctx context.Context, id xid.ID, kept int) error
	ReplaceImages(ctx context.Context, prefix string, images []store.Image) error
}

type storeCatalog struct {
	runs   *store.RunStore
	images *store.ImageStore
}

// NewCatalog returns a Catalog backed by the run and image tables.
func NewCatalog(pool *pgxpool.Pool) Catalog {
	return &storeCatalog{
		runs:   store.NewRunStore(pool),
		images: store.NewImageStore(pool),
	}
}

func (c *storeCatalog) StartRun(ctx context.Context, run *store.Run) error {
	return c.runs.Insert(ctx, run)
}

func (c *storeCatalog) FinishRun(ctx context.Context, id xid.ID, kept int) error {
	return c.runs.Finish(ctx, id, kept, time.Now())
}

func (c *storeCatalog) ReplaceImages(ctx context.Context, prefix string, images []store.Image) error {
	return c.images.ReplacePrefix(ctx, prefix, images)
}

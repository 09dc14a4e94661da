package items

import (
	"context"
	"time"
)

// Cache holds the full item listing. Every stock write (item create,
// delete, removal flag, withdrawal) must invalidate it.
type Cache interface {
	GetList(ctx context.Context) ([]*Item, bool, error)
	SetList(ctx context.Context, items []*Item, ttl time.Duration) error
	InvalidateList(ctx context.Context) error
}

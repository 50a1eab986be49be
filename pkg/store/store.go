package store

import (
	"context"

	"github.com/sprachlab/lerngraph/pkg/common"
)

// GraphStore persists items and edges and supplies the bounded recent-items
// read the deduplicator compares against. The pipeline itself only reads;
// the ingestion layer applies the planned mutation list.
type GraphStore interface {
	// RecentItems returns up to limit items of the given type, most
	// recently created first.
	RecentItems(ctx context.Context, itemType common.ItemType, limit int) ([]common.Item, error)

	UpsertItem(ctx context.Context, m common.ItemMutation) error
	UpsertEdge(ctx context.Context, m common.EdgeMutation) error

	// ApplyMutations applies a planned mutation list in order. Item
	// upserts precede edge upserts by construction.
	ApplyMutations(ctx context.Context, mutations []common.Mutation) error
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sprachlab/lerngraph/pkg/common"
)

// Store is an in-memory GraphStore used by tests and the CLI. It keeps the
// same upsert semantics as the Postgres store: inserts are idempotent per
// ID and metadata merges never overwrite existing keys.
type Store struct {
	mu    sync.Mutex
	items map[string]common.Item
	edges map[string]common.EdgeMutation
	// seq breaks created_at ties so recency ordering stays deterministic
	seq     int64
	itemSeq map[string]int64
}

func New() *Store {
	return &Store{
		items:   make(map[string]common.Item),
		edges:   make(map[string]common.EdgeMutation),
		itemSeq: make(map[string]int64),
	}
}

// RecentItems returns up to limit items of the given type, most recently
// created first.
func (s *Store) RecentItems(ctx context.Context, itemType common.ItemType, limit int) ([]common.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matching := make([]common.Item, 0)
	for _, item := range s.items {
		if item.Type == itemType {
			matching = append(matching, item)
		}
	}
	sort.Slice(matching, func(a, b int) bool {
		if !matching[a].CreatedAt.Equal(matching[b].CreatedAt) {
			return matching[a].CreatedAt.After(matching[b].CreatedAt)
		}
		return s.itemSeq[matching[a].ID] > s.itemSeq[matching[b].ID]
	})
	if limit > 0 && len(matching) > limit {
		matching = matching[:limit]
	}
	return matching, nil
}

func (s *Store) UpsertItem(ctx context.Context, m common.ItemMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[m.ID]
	if !ok {
		if m.Existing {
			return fmt.Errorf("memory store: merge into unknown item %q", m.ID)
		}
		meta := make(map[string]string, len(m.Meta))
		for k, v := range m.Meta {
			meta[k] = v
		}
		s.seq++
		s.itemSeq[m.ID] = s.seq
		s.items[m.ID] = common.Item{
			ID:            m.ID,
			Type:          m.Type,
			CanonicalForm: m.CanonicalForm,
			Meta:          meta,
			CreatedAt:     time.Now(),
		}
		return nil
	}

	// non-destructive merge: existing keys win
	if existing.Meta == nil {
		existing.Meta = make(map[string]string)
	}
	for k, v := range m.Meta {
		if v == "" {
			continue
		}
		if _, ok := existing.Meta[k]; !ok {
			existing.Meta[k] = v
		}
	}
	s.items[m.ID] = existing
	return nil
}

func (s *Store) UpsertEdge(ctx context.Context, m common.EdgeMutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.SourceID + "\x00" + m.TargetID + "\x00" + m.RelationType
	s.edges[key] = m
	return nil
}

func (s *Store) ApplyMutations(ctx context.Context, mutations []common.Mutation) error {
	for _, mut := range mutations {
		switch mut.Kind {
		case common.MutationUpsertItem:
			if err := s.UpsertItem(ctx, *mut.Item); err != nil {
				return err
			}
		case common.MutationUpsertEdge:
			if err := s.UpsertEdge(ctx, *mut.Edge); err != nil {
				return err
			}
		default:
			return fmt.Errorf("memory store: unknown mutation kind %q", mut.Kind)
		}
	}
	return nil
}

// ItemCount reports the number of stored items, for test assertions.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// EdgeCount reports the number of stored edges, for test assertions.
func (s *Store) EdgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.edges)
}

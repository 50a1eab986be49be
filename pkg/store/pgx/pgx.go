package pgx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sprachlab/lerngraph/internal/util"
	"github.com/sprachlab/lerngraph/pkg/common"
	"github.com/sprachlab/lerngraph/pkg/logger"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStore implements store.GraphStore on PostgreSQL. It assumes the
// items and edges tables exist; migrations live outside this module.
type GraphDBStore struct {
	conn pgxIConn
}

// NewGraphDBStoreWithConnection creates a GraphDBStore using an existing
// connection or pool.
func NewGraphDBStoreWithConnection(conn pgxIConn) *GraphDBStore {
	return &GraphDBStore{conn: conn}
}

// RecentItems returns up to limit items of the given type, most recently
// created first. This is the deduplicator's comparison window.
func (s *GraphDBStore) RecentItems(ctx context.Context, itemType common.ItemType, limit int) ([]common.Item, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT id, type, canonical_form, meta, created_at
		FROM items
		WHERE type = $1
		ORDER BY created_at DESC, id ASC
		LIMIT $2
	`, itemType, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent items: %w", err)
	}
	defer rows.Close()

	items := make([]common.Item, 0, limit)
	for rows.Next() {
		var (
			item common.Item
			meta []byte
		)
		if err := rows.Scan(&item.ID, &item.Type, &item.CanonicalForm, &meta, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &item.Meta); err != nil {
				return nil, fmt.Errorf("decoding item meta for %s: %w", item.ID, err)
			}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating item rows: %w", err)
	}
	return items, nil
}

func sanitizeMeta(meta map[string]string) map[string]string {
	if meta == nil {
		return map[string]string{}
	}
	clean := make(map[string]string, len(meta))
	for k, v := range meta {
		clean[util.SanitizePostgresText(k)] = util.SanitizePostgresText(v)
	}
	return clean
}

func (s *GraphDBStore) upsertItem(ctx context.Context, conn pgxIConn, m common.ItemMutation) error {
	metaJSON, err := json.Marshal(sanitizeMeta(m.Meta))
	if err != nil {
		return fmt.Errorf("encoding item meta: %w", err)
	}

	if m.Existing {
		// existing keys win over the proposed metadata
		_, err := conn.Exec(ctx, `
			UPDATE items
			SET meta = $2::jsonb || meta
			WHERE id = $1
		`, m.ID, metaJSON)
		if err != nil {
			return fmt.Errorf("merging item %s: %w", m.ID, err)
		}
		return nil
	}

	_, err = conn.Exec(ctx, `
		INSERT INTO items (id, type, canonical_form, meta, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.Type, util.SanitizePostgresText(m.CanonicalForm), metaJSON)
	if err != nil {
		return fmt.Errorf("inserting item %s: %w", m.ID, err)
	}
	return nil
}

func (s *GraphDBStore) upsertEdge(ctx context.Context, conn pgxIConn, m common.EdgeMutation) error {
	_, err := conn.Exec(ctx, `
		INSERT INTO edges (id, source_id, target_id, relation_type, weight)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source_id, target_id, relation_type)
		DO UPDATE SET weight = EXCLUDED.weight
	`, m.ID, m.SourceID, m.TargetID, util.SanitizePostgresText(m.RelationType), m.Weight)
	if err != nil {
		return fmt.Errorf("upserting edge %s -> %s: %w", m.SourceID, m.TargetID, err)
	}
	return nil
}

func (s *GraphDBStore) UpsertItem(ctx context.Context, m common.ItemMutation) error {
	return s.upsertItem(ctx, s.conn, m)
}

func (s *GraphDBStore) UpsertEdge(ctx context.Context, m common.EdgeMutation) error {
	return s.upsertEdge(ctx, s.conn, m)
}

// ApplyMutations applies one planned mutation list inside a single
// transaction, in list order.
func (s *GraphDBStore) ApplyMutations(ctx context.Context, mutations []common.Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	logger.Debug("[Store][ApplyMutations] applying mutation list", "mutations", len(mutations))

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning mutation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, mut := range mutations {
		switch mut.Kind {
		case common.MutationUpsertItem:
			if err := s.upsertItem(ctx, tx, *mut.Item); err != nil {
				return err
			}
		case common.MutationUpsertEdge:
			if err := s.upsertEdge(ctx, tx, *mut.Edge); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown mutation kind %q", mut.Kind)
		}
	}

	return tx.Commit(ctx)
}

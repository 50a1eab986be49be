package pipeline

import (
	"fmt"

	"github.com/sprachlab/lerngraph/pkg/common"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// planMutations assembles the ordered mutation list: item upserts first,
// then edge upserts referencing resolved IDs. New items get placeholder
// nanoids; the same canonical form and type resolves to one identity within
// the run. Edges are kept only when both endpoints resolved. No I/O happens
// here; the list is the pipeline's sole output to the storage collaborator.
func planMutations(
	items []common.ResolvedCandidate,
	edges []common.EdgeProposal,
	stats *common.Stats,
) ([]common.Mutation, []common.EdgeProposal, error) {
	mutations := make([]common.Mutation, 0, len(items)+len(edges))

	type identity struct {
		id       string
		existing bool
	}
	byKey := make(map[string]identity)
	byCanonical := make(map[string]string)

	for i := range items {
		item := &items[i]
		key := string(item.Type) + "\x00" + normalizeForMatch(item.CanonicalForm)

		if known, ok := byKey[key]; ok {
			item.ItemID = known.id
			continue
		}

		if item.Resolution == common.ResolvedExisting {
			byKey[key] = identity{id: item.ItemID, existing: true}
		} else {
			id, err := gonanoid.New()
			if err != nil {
				return nil, nil, fmt.Errorf("failed to generate item ID: %w", err)
			}
			item.ItemID = id
			byKey[key] = identity{id: id}
			stats.Created++
		}

		canonKey := normalizeForMatch(item.CanonicalForm)
		if _, ok := byCanonical[canonKey]; !ok {
			byCanonical[canonKey] = item.ItemID
		}

		mutations = append(mutations, common.Mutation{
			Kind: common.MutationUpsertItem,
			Item: &common.ItemMutation{
				ID:            item.ItemID,
				Type:          item.Type,
				CanonicalForm: item.CanonicalForm,
				Meta:          item.Meta,
				Existing:      item.Resolution == common.ResolvedExisting,
			},
		})
	}

	kept := make([]common.EdgeProposal, 0, len(edges))
	for _, edge := range edges {
		srcID, srcOK := byCanonical[normalizeForMatch(edge.SrcCanonical)]
		dstID, dstOK := byCanonical[normalizeForMatch(edge.DstCanonical)]
		if !srcOK || !dstOK {
			continue
		}

		id, err := gonanoid.New()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate edge ID: %w", err)
		}
		mutations = append(mutations, common.Mutation{
			Kind: common.MutationUpsertEdge,
			Edge: &common.EdgeMutation{
				ID:           id,
				SourceID:     srcID,
				TargetID:     dstID,
				RelationType: edge.RelationType,
				Weight:       edge.Weight,
			},
		})
		kept = append(kept, edge)
	}

	return mutations, kept, nil
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/pkg/logging"
)

type ProductSearch struct {
	Index    ProductIndexer
	Products *repo.Table[models.Product]
}

// Search asks the index for matching ids and loads the rows from the
// database, so products deleted behind the index's back simply drop out.
// Their documents are removed from the index and left out of the total.
func (s *ProductSearch) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	if s.Index == nil {
		return 0, nil, ErrSearchDisabled
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, Invalid("q", msgRequired)
	}

	total, ids, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	products, err := s.Products.FindByIDs(ctx, ids)
	if err != nil {
		return 0, nil, err
	}

	if stale := s.prune(ctx, ids, products); stale > 0 {
		total -= int64(stale)
	}
	// A short page is the last one, whatever the index counted past it.
	if len(ids) < limit {
		total = int64(offset + len(products))
	}
	if floor := int64(offset + len(products)); total < floor {
		total = floor
	}
	return total, products, nil
}

// prune drops index documents whose rows are gone and returns how many.
func (s *ProductSearch) prune(ctx context.Context, ids []uuid.UUID, found []models.Product) int {
	if len(found) == len(ids) {
		return 0
	}
	live := make(map[uuid.UUID]struct{}, len(found))
	for i := range found {
		live[found[i].ID] = struct{}{}
	}

	l := logging.FromContext(ctx).With("svc", "products.search")
	stale := 0
	for _, id := range ids {
		if _, ok := live[id]; ok {
			continue
		}
		stale++
		if err := s.Index.Remove(ctx, id); err != nil {
			l.Warn("prune_index_error", "id", id, "error", err)
		}
	}
	return stale
}

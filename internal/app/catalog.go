package app

import (
	"context"
	"fmt"
	"sort"

	"morse-quiz-service/internal/domain"
)

// CatalogRepository loads the question catalog (from cache/backing store).
type CatalogRepository interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// QuestionsInOrder returns the catalog sorted by ordinal. Any read failure, an empty
// catalog, or a catalog violating the id/ordinal invariants is reported as
// domain.ErrCatalogUnavailable; a session must not start without a usable catalog.
func QuestionsInOrder(ctx context.Context, repo CatalogRepository) ([]domain.Question, error) {
	questions, err := repo.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", domain.ErrCatalogUnavailable)
	}

	ordered := make([]domain.Question, len(questions))
	copy(ordered, questions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	seen := make(map[int64]struct{}, len(ordered))
	for i, q := range ordered {
		if q.Ordinal != i+1 {
			return nil, fmt.Errorf("%w: ordinals must be contiguous from 1, found %d at position %d",
				domain.ErrCatalogUnavailable, q.Ordinal, i+1)
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", domain.ErrCatalogUnavailable, q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return ordered, nil
}

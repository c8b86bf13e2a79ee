package service

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/cache"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store/model"
)

// UpsertClassifications replaces the whole classification set of a test.
// Every check runs before the transaction opens, so a rejected set leaves the
// stored one untouched.
func (c *CatalogService) UpsertClassifications(ctx context.Context, actor authz.Actor, testID uuid.UUID, forms []mappers.ClassificationForm) ([]model.ScoreClassification, error) {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(c.validator, mappers.ClassificationSetForm{Items: forms}); err != nil {
		return nil, err
	}

	sorted := slices.Clone(forms)
	if err := checkRanges(sorted); err != nil {
		return nil, err
	}

	var codes []string
	for _, f := range sorted {
		for _, t := range f.Translations {
			codes = append(codes, t.LanguageCode)
		}
	}
	if err := c.languages.ValidateLanguageCodes(ctx, codes); err != nil {
		return nil, err
	}
	if _, err := c.getLogicalTest(ctx, testID); err != nil {
		return nil, err
	}

	classifications, translations := mappers.ClassificationsFromForm(testID, sorted)
	err := c.store.WithinTransaction(ctx, func(ctx context.Context) error {
		return c.store.Classification().ReplaceForTest(ctx, testID, classifications, translations)
	})
	if err != nil {
		return nil, err
	}

	c.invalidateClassifications(ctx, testID)
	logger(ctx, "catalog_service").Infow("classifications replaced", "logical_test", testID, "count", len(classifications))
	return classifications, nil
}

// checkRanges sorts forms by display order and rejects inverted ranges,
// repeated display orders and ranges that do not strictly follow their
// predecessor.
func checkRanges(forms []mappers.ClassificationForm) error {
	for _, f := range forms {
		if f.MinScore > f.MaxScore {
			return NewErrInvalidRange(f.DisplayOrder, "classification %d: min score %d is greater than max score %d", f.DisplayOrder, f.MinScore, f.MaxScore)
		}
	}

	slices.SortStableFunc(forms, func(a, b mappers.ClassificationForm) int {
		return a.DisplayOrder - b.DisplayOrder
	})

	for i := 1; i < len(forms); i++ {
		prev, next := forms[i-1], forms[i]
		if next.DisplayOrder == prev.DisplayOrder {
			return NewErrInvalidRange(next.DisplayOrder, "display order %d is used twice", next.DisplayOrder)
		}
		if next.MinScore <= prev.MaxScore {
			return NewErrInvalidRange(next.DisplayOrder, "classification %d overlaps classification %d: %d <= %d",
				next.DisplayOrder, prev.DisplayOrder, next.MinScore, prev.MaxScore)
		}
	}
	return nil
}

// ListClassifications returns the classifications of a test resolved in one
// language, ordered by display order.
func (c *CatalogService) ListClassifications(ctx context.Context, testID uuid.UUID, languageCode string) ([]mappers.ClassificationView, error) {
	resolved := c.languages.ResolveLanguageCode(ctx, languageCode)
	key := cache.Classifications.Entity(testID, resolved)

	return cache.ReadThrough(ctx, c.cache, cache.Classifications.Kind, key, c.ttls.Classification, func(ctx context.Context) ([]mappers.ClassificationView, error) {
		if _, err := c.getLogicalTest(ctx, testID); err != nil {
			return nil, err
		}
		classifications, err := c.store.Classification().ListByTest(ctx, testID)
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(classifications))
		for _, cl := range classifications {
			ids = append(ids, cl.ID)
		}
		translations, err := c.classificationTranslations.GetBatch(ctx, ids, resolved)
		if err != nil {
			return nil, err
		}

		views := make([]mappers.ClassificationView, 0, len(classifications))
		for _, cl := range classifications {
			var tr *model.ScoreClassificationTranslation
			if found, ok := translations[cl.ID]; ok {
				tr = &found
			}
			views = append(views, mappers.ClassificationToView(cl, tr))
		}
		return views, nil
	})
}

// ClassifyScore finds the classification whose range covers score.
func (c *CatalogService) ClassifyScore(ctx context.Context, testID uuid.UUID, score int, languageCode string) (*mappers.ClassificationView, error) {
	classifications, err := c.ListClassifications(ctx, testID, languageCode)
	if err != nil {
		return nil, err
	}
	for _, cl := range classifications {
		if cl.Covers(score) {
			return &cl, nil
		}
	}
	return nil, NewErrScoreNotClassified(testID, score)
}

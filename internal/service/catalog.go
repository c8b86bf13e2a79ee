package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/cache"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/psyeval/recruitment/internal/validator"
	"github.com/thoas/go-funk"
)

// CatalogService owns logical tests, their questions and their score
// classifications. Resolved views are cached per language.
type CatalogService struct {
	store     store.Store
	cache     cache.Cache
	ttls      cache.TTLs
	authz     *authz.Authorizer
	validator *validator.Validator
	languages *LanguageService

	testTranslations           *TranslationResolver[model.LogicalTestTranslation]
	classificationTranslations *TranslationResolver[model.ScoreClassificationTranslation]
	questionTranslations       *TranslationResolver[model.LogicalQuestionTranslation]
	propositionTranslations    *TranslationResolver[model.McqPropositionTranslation]
}

func NewCatalogService(s store.Store, c cache.Cache, ttls cache.TTLs, a *authz.Authorizer, languages *LanguageService) *CatalogService {
	cs := &CatalogService{
		store:     s,
		cache:     c,
		ttls:      ttls,
		authz:     a,
		validator: newValidator(),
		languages: languages,
	}

	cs.testTranslations = NewTranslationResolver(s, languages, store.Store.LogicalTestTranslations).
		OnChange(cs.invalidateLogicalTest)
	cs.classificationTranslations = NewTranslationResolver(s, languages, store.Store.ClassificationTranslations)
	cs.questionTranslations = NewTranslationResolver(s, languages, store.Store.QuestionTranslations).
		OnChange(cs.invalidateQuestion)
	cs.propositionTranslations = NewTranslationResolver(s, languages, store.Store.PropositionTranslations)

	languages.OnChange(cs.invalidateAllViews)

	return cs
}

// LogicalTestFilter selects logical tests in ListLogicalTests. It is hashed
// into the list cache key.
type LogicalTestFilter struct {
	Code       *model.LogicalTestCode `json:"code,omitempty"`
	Tutorial   *bool                  `json:"tutorial,omitempty"`
	ActiveOnly bool                   `json:"activeOnly"`
}

func (f LogicalTestFilter) toQuery() *store.LogicalTestQueryFilter {
	q := store.NewLogicalTestQueryFilter()
	if f.Code != nil {
		q = q.ByCode(*f.Code)
	}
	if f.Tutorial != nil {
		q = q.ByTutorial(*f.Tutorial)
	}
	if f.ActiveOnly {
		q = q.ActiveOnly()
	}
	return q
}

// CreateLogicalTest stores a test together with its translations. A second
// test with the same (code, isTutorial) is a conflict.
func (c *CatalogService) CreateLogicalTest(ctx context.Context, actor authz.Actor, form mappers.LogicalTestForm) (*model.LogicalTest, error) {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(c.validator, form); err != nil {
		return nil, err
	}

	var created *model.LogicalTest
	err := c.store.WithinTransaction(ctx, func(ctx context.Context) error {
		test, err := c.store.LogicalTest().Create(ctx, form.ToLogicalTest())
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return NewErrConflict("logical test %s (tutorial: %t) already exists", form.Code, form.IsTutorial)
			}
			return err
		}
		if err := c.testTranslations.write(ctx, mappers.LogicalTestTranslationsFromForm(test.ID, form.Translations)); err != nil {
			return err
		}
		created = test
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidateLists(ctx, c.cache, cache.LogicalTests)
	logger(ctx, "catalog_service").Infow("logical test created", "id", created.ID, "code", created.Code, "tutorial", created.IsTutorial)
	return created, nil
}

// LinkTutorial attaches tutorialID as the tutorial of mainID. Both tests must
// share the same code; the first must be a main test and the second a
// tutorial.
func (c *CatalogService) LinkTutorial(ctx context.Context, actor authz.Actor, mainID, tutorialID uuid.UUID) (*model.LogicalTest, error) {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return nil, err
	}
	if mainID == tutorialID {
		return nil, NewErrInvalidArgument("tutorialTestId", "logical test %s cannot be its own tutorial", mainID)
	}

	var updated *model.LogicalTest
	err := c.store.WithinTransaction(ctx, func(ctx context.Context) error {
		main, err := c.getLogicalTest(ctx, mainID)
		if err != nil {
			return err
		}
		tutorial, err := c.getLogicalTest(ctx, tutorialID)
		if err != nil {
			return err
		}

		switch {
		case main.IsTutorial:
			return NewErrInvalidArgument("id", "logical test %s is a tutorial", mainID)
		case !tutorial.IsTutorial:
			return NewErrInvalidArgument("tutorialTestId", "logical test %s is not a tutorial", tutorialID)
		case main.Code != tutorial.Code:
			return NewErrInvalidArgument("tutorialTestId", "tutorial %s is for %s, not %s", tutorialID, tutorial.Code, main.Code)
		}

		main.TutorialTestID = &tutorial.ID
		updated, err = c.store.LogicalTest().Update(ctx, *main)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.invalidateLogicalTest(ctx, mainID)
	return updated, nil
}

func (c *CatalogService) SetLogicalTestActive(ctx context.Context, actor authz.Actor, id uuid.UUID, active bool) (*model.LogicalTest, error) {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return nil, err
	}

	var updated *model.LogicalTest
	err := c.store.WithinTransaction(ctx, func(ctx context.Context) error {
		test, err := c.getLogicalTest(ctx, id)
		if err != nil {
			return err
		}
		if test.IsActive == active {
			updated = test
			return nil
		}
		test.IsActive = active
		updated, err = c.store.LogicalTest().Update(ctx, *test)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.invalidateLogicalTest(ctx, id)
	return updated, nil
}

// GetLogicalTest returns the test resolved in the requested language.
func (c *CatalogService) GetLogicalTest(ctx context.Context, id uuid.UUID, languageCode string) (*mappers.LogicalTestView, error) {
	resolved := c.languages.ResolveLanguageCode(ctx, languageCode)
	key := cache.LogicalTests.Entity(id, resolved)

	view, err := cache.ReadThrough(ctx, c.cache, cache.LogicalTests.Kind, key, c.ttls.Entity, func(ctx context.Context) (mappers.LogicalTestView, error) {
		test, err := c.getLogicalTest(ctx, id)
		if err != nil {
			return mappers.LogicalTestView{}, err
		}
		tr, err := c.testTranslations.Get(ctx, id, resolved)
		if err != nil {
			return mappers.LogicalTestView{}, err
		}
		return mappers.LogicalTestToView(*test, tr), nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *CatalogService) ListLogicalTests(ctx context.Context, filter LogicalTestFilter, languageCode string) ([]mappers.LogicalTestView, error) {
	resolved := c.languages.ResolveLanguageCode(ctx, languageCode)
	load := func(ctx context.Context) ([]mappers.LogicalTestView, error) {
		tests, err := c.store.LogicalTest().List(ctx, filter.toQuery())
		if err != nil {
			return nil, err
		}
		ids := make([]uuid.UUID, 0, len(tests))
		for _, t := range tests {
			ids = append(ids, t.ID)
		}
		translations, err := c.testTranslations.GetBatch(ctx, ids, resolved)
		if err != nil {
			return nil, err
		}

		views := make([]mappers.LogicalTestView, 0, len(tests))
		for _, t := range tests {
			var tr *model.LogicalTestTranslation
			if found, ok := translations[t.ID]; ok {
				tr = &found
			}
			views = append(views, mappers.LogicalTestToView(t, tr))
		}
		return views, nil
	}

	key, ok := cache.ListKey(ctx, c.cache, cache.LogicalTests, struct {
		Filter   LogicalTestFilter `json:"filter"`
		Language string            `json:"language"`
	}{filter, resolved})
	if !ok {
		return load(ctx)
	}
	return cache.ReadThrough(ctx, c.cache, cache.LogicalTests.Kind, key, c.ttls.List, load)
}

func (c *CatalogService) ListLogicalTestTranslations(ctx context.Context, id uuid.UUID) ([]model.LogicalTestTranslation, error) {
	if _, err := c.getLogicalTest(ctx, id); err != nil {
		return nil, err
	}
	return c.testTranslations.List(ctx, id)
}

func (c *CatalogService) UpsertLogicalTestTranslations(ctx context.Context, actor authz.Actor, id uuid.UUID, forms []mappers.LogicalTestTranslationForm) error {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return err
	}
	for _, f := range forms {
		if err := validateForm(c.validator, f); err != nil {
			return err
		}
	}
	if _, err := c.getLogicalTest(ctx, id); err != nil {
		return err
	}
	return c.testTranslations.Upsert(ctx, mappers.LogicalTestTranslationsFromForm(id, forms))
}

func (c *CatalogService) DeleteLogicalTestTranslation(ctx context.Context, actor authz.Actor, id uuid.UUID, languageCode string) error {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return err
	}
	if _, err := c.getLogicalTest(ctx, id); err != nil {
		return err
	}
	return c.testTranslations.Delete(ctx, id, languageCode)
}

func (c *CatalogService) getLogicalTest(ctx context.Context, id uuid.UUID) (*model.LogicalTest, error) {
	test, err := c.store.LogicalTest().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrLogicalTestNotFound(id)
		}
		return nil, err
	}
	return test, nil
}

// cachedLanguages lists every language a resolved view may have been cached
// under. Inactive languages are included: they may have been active when the
// view was cached.
func (c *CatalogService) cachedLanguages(ctx context.Context) []string {
	languages, err := c.languages.ListLanguages(ctx, false)
	if err != nil {
		logger(ctx, "catalog_service").Warnw("cannot list languages for cache invalidation", "error", err)
	}
	codes := make([]string, 0, len(languages)+1)
	for _, lang := range languages {
		codes = append(codes, lang.Code)
	}
	return funk.UniqString(append(codes, c.languages.DefaultLanguageCode(ctx)))
}

// invalidateAllViews drops every resolved view. Fallback resolution depends
// on the default and the active languages, so any registry change may stale
// views of every entity.
func (c *CatalogService) invalidateAllViews(ctx context.Context) {
	tests, err := c.store.LogicalTest().List(ctx, store.NewLogicalTestQueryFilter())
	if err != nil {
		logger(ctx, "catalog_service").Warnw("cannot list logical tests for cache invalidation", "error", err)
	}
	codes := c.cachedLanguages(ctx)

	keys := make([]string, 0, len(tests)*len(codes)*3)
	for _, test := range tests {
		keys = append(keys, cache.LogicalTests.EntityKeys(test.ID, codes)...)
		keys = append(keys, cache.Questions.EntityKeys(test.ID, codes)...)
		keys = append(keys, cache.Classifications.EntityKeys(test.ID, codes)...)
	}
	cache.Invalidate(ctx, c.cache, keys...)
	for _, ks := range []cache.Keyspace{cache.LogicalTests, cache.Questions, cache.Classifications} {
		cache.InvalidateLists(ctx, c.cache, ks)
	}
}

func (c *CatalogService) invalidateLogicalTest(ctx context.Context, id uuid.UUID) {
	cache.Invalidate(ctx, c.cache, cache.LogicalTests.EntityKeys(id, c.cachedLanguages(ctx))...)
	cache.InvalidateLists(ctx, c.cache, cache.LogicalTests)
}

func (c *CatalogService) invalidateQuestions(ctx context.Context, testID uuid.UUID) {
	cache.Invalidate(ctx, c.cache, cache.Questions.EntityKeys(testID, c.cachedLanguages(ctx))...)
}

func (c *CatalogService) invalidateQuestion(ctx context.Context, questionID uuid.UUID) {
	q, err := c.store.Question().Get(ctx, questionID)
	if err != nil {
		logger(ctx, "catalog_service").Warnw("cannot resolve question for cache invalidation", "question", questionID, "error", err)
		return
	}
	c.invalidateQuestions(ctx, q.LogicalTestID)
}

func (c *CatalogService) invalidateClassifications(ctx context.Context, testID uuid.UUID) {
	cache.Invalidate(ctx, c.cache, cache.Classifications.EntityKeys(testID, c.cachedLanguages(ctx))...)
}

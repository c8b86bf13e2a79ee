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
)

// CreateQuestion stores a question with its propositions and every
// translation as one unit.
func (c *CatalogService) CreateQuestion(ctx context.Context, actor authz.Actor, form mappers.QuestionForm) (*model.LogicalQuestion, error) {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(c.validator, form); err != nil {
		return nil, err
	}
	if err := c.languages.ValidateLanguageCodes(ctx, form.LanguageCodes()); err != nil {
		return nil, err
	}

	question, questionTranslations, propositions, propositionTranslations := form.ToQuestion()

	var created *model.LogicalQuestion
	err := c.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := c.getLogicalTest(ctx, form.LogicalTestID); err != nil {
			return err
		}
		q, err := c.store.Question().Create(ctx, question, propositions)
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return NewErrConflict("logical test %s already has a question %d", form.LogicalTestID, form.QuestionNumber)
			}
			return err
		}
		if err := c.store.QuestionTranslations().Upsert(ctx, questionTranslations); err != nil {
			return err
		}
		if err := c.store.PropositionTranslations().Upsert(ctx, propositionTranslations); err != nil {
			return err
		}
		created = q
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.invalidateQuestions(ctx, form.LogicalTestID)
	return created, nil
}

// ListQuestions returns the questions of a test resolved in one language.
// Each translation family costs at most two lookups whatever the number of
// questions.
func (c *CatalogService) ListQuestions(ctx context.Context, testID uuid.UUID, languageCode string) ([]mappers.QuestionView, error) {
	resolved := c.languages.ResolveLanguageCode(ctx, languageCode)
	key := cache.Questions.Entity(testID, resolved)

	return cache.ReadThrough(ctx, c.cache, cache.Questions.Kind, key, c.ttls.Entity, func(ctx context.Context) ([]mappers.QuestionView, error) {
		if _, err := c.getLogicalTest(ctx, testID); err != nil {
			return nil, err
		}
		questions, err := c.store.Question().ListByTest(ctx, testID)
		if err != nil {
			return nil, err
		}

		questionIDs := make([]uuid.UUID, 0, len(questions))
		for _, q := range questions {
			questionIDs = append(questionIDs, q.ID)
		}
		questionTranslations, err := c.questionTranslations.GetBatch(ctx, questionIDs, resolved)
		if err != nil {
			return nil, err
		}

		propositions, err := c.store.Question().ListPropositions(ctx, questionIDs)
		if err != nil {
			return nil, err
		}
		propositionIDs := make([]uuid.UUID, 0, len(propositions))
		for _, p := range propositions {
			propositionIDs = append(propositionIDs, p.ID)
		}
		propositionTranslations, err := c.propositionTranslations.GetBatch(ctx, propositionIDs, resolved)
		if err != nil {
			return nil, err
		}

		byQuestion := make(map[uuid.UUID][]mappers.PropositionView, len(questions))
		for _, p := range propositions {
			var tr *model.McqPropositionTranslation
			if found, ok := propositionTranslations[p.ID]; ok {
				tr = &found
			}
			byQuestion[p.QuestionID] = append(byQuestion[p.QuestionID], mappers.PropositionToView(p, tr))
		}

		views := make([]mappers.QuestionView, 0, len(questions))
		for _, q := range questions {
			var tr *model.LogicalQuestionTranslation
			if found, ok := questionTranslations[q.ID]; ok {
				tr = &found
			}
			v := mappers.QuestionToView(q, tr)
			if props, ok := byQuestion[q.ID]; ok {
				v.Propositions = props
			}
			views = append(views, v)
		}
		return views, nil
	})
}

func (c *CatalogService) UpsertQuestionTranslations(ctx context.Context, actor authz.Actor, questionID uuid.UUID, forms []mappers.QuestionTranslationForm) error {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return err
	}
	items := make([]model.LogicalQuestionTranslation, 0, len(forms))
	for _, f := range forms {
		if err := validateForm(c.validator, f); err != nil {
			return err
		}
		items = append(items, model.LogicalQuestionTranslation{
			QuestionID:   questionID,
			LanguageCode: f.LanguageCode,
			Text:         f.Text,
			Explanation:  f.Explanation,
		})
	}
	if _, err := c.store.Question().Get(ctx, questionID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrResourceNotFound(questionID, "question")
		}
		return err
	}
	return c.questionTranslations.Upsert(ctx, items)
}

func (c *CatalogService) DeleteQuestionTranslation(ctx context.Context, actor authz.Actor, questionID uuid.UUID, languageCode string) error {
	if err := authorize(ctx, c.authz, actor, authz.WriteCatalog, authz.Resource{}); err != nil {
		return err
	}
	return c.questionTranslations.Delete(ctx, questionID, languageCode)
}

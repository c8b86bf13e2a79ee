package service_test

import (
	"context"
	"errors"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/psyeval/recruitment/internal/cache"
	"github.com/psyeval/recruitment/internal/service"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store/model"
)

func classification(order, min, max int, labels ...string) mappers.ClassificationForm {
	if len(labels) == 0 {
		labels = []string{"Niveau"}
	}
	f := mappers.ClassificationForm{DisplayOrder: order, MinScore: min, MaxScore: max, ColorCode: "#22c55e"}
	f.Translations = []mappers.ClassificationTranslationForm{{LanguageCode: "fr", Label: labels[0]}}
	if len(labels) > 1 {
		f.Translations = append(f.Translations, mappers.ClassificationTranslationForm{LanguageCode: "en", Label: labels[1]})
	}
	return f
}

var _ = Describe("catalog service", func() {
	var e *env

	BeforeEach(func() {
		e = newEnv()
	})

	AfterEach(func() {
		e.close()
	})

	Context("logical tests", func() {
		It("refuses a second test with the same code and kind", func() {
			_, err := e.catalog.CreateLogicalTest(context.TODO(), e.admin, mappers.LogicalTestForm{
				Code:            model.LogicalTestD48,
				QuestionType:    model.QuestionTypeDomino,
				DurationMinutes: 25,
				TotalQuestions:  44,
				Translations:    []mappers.LogicalTestTranslationForm{{LanguageCode: "fr", Name: "Doublon"}},
			})
			var conflict *service.ErrConflict
			Expect(errors.As(err, &conflict)).To(BeTrue())
		})

		It("rolls back the test when a translation language is invalid", func() {
			_, err := e.catalog.CreateLogicalTest(context.TODO(), e.admin, mappers.LogicalTestForm{
				Code:            model.LogicalTestD70,
				QuestionType:    model.QuestionTypeDomino,
				DurationMinutes: 25,
				TotalQuestions:  44,
				Translations:    []mappers.LogicalTestTranslationForm{{LanguageCode: "de", Name: "Dominosteine"}},
			})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			tests, err := e.catalog.ListLogicalTests(context.TODO(), service.LogicalTestFilter{}, "fr")
			Expect(err).To(BeNil())
			Expect(tests).To(HaveLen(1))
		})

		It("rejects an unknown code", func() {
			_, err := e.catalog.CreateLogicalTest(context.TODO(), e.admin, mappers.LogicalTestForm{
				Code:            "D_99",
				QuestionType:    model.QuestionTypeDomino,
				DurationMinutes: 25,
				TotalQuestions:  44,
				Translations:    []mappers.LogicalTestTranslationForm{{LanguageCode: "fr", Name: "D99"}},
			})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())
		})

		It("links a tutorial of the same code", func() {
			tutorial, err := e.catalog.CreateLogicalTest(context.TODO(), e.admin, mappers.LogicalTestForm{
				Code:            model.LogicalTestD48,
				QuestionType:    model.QuestionTypeDomino,
				DurationMinutes: 5,
				TotalQuestions:  4,
				IsTutorial:      true,
				Translations:    []mappers.LogicalTestTranslationForm{{LanguageCode: "fr", Name: "Entraînement D48"}},
			})
			Expect(err).To(BeNil())

			linked, err := e.catalog.LinkTutorial(context.TODO(), e.admin, e.test.ID, tutorial.ID)
			Expect(err).To(BeNil())
			Expect(*linked.TutorialTestID).To(Equal(tutorial.ID))
			Expect(linked.Version).To(Equal(2))
		})

		It("refuses invalid tutorial links", func() {
			_, err := e.catalog.LinkTutorial(context.TODO(), e.admin, e.test.ID, e.test.ID)
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			other := e.logicalTest(model.LogicalTestD70)
			_, err = e.catalog.LinkTutorial(context.TODO(), e.admin, e.test.ID, other.ID)
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			_, err = e.catalog.LinkTutorial(context.TODO(), e.admin, e.test.ID, uuid.New())
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("is closed to candidates", func() {
			candidate := e.admin
			candidate.Role = model.RoleCandidate
			_, err := e.catalog.SetLogicalTestActive(context.TODO(), candidate, e.test.ID, false)
			var forbidden *service.ErrForbidden
			Expect(errors.As(err, &forbidden)).To(BeTrue())
		})

		It("serves a resolved view from the cache and refreshes it on write", func() {
			view, err := e.catalog.GetLogicalTest(context.TODO(), e.test.ID, "en")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominoes 48"))

			_, found, err := e.cache.Get(context.TODO(), cache.LogicalTests.Entity(e.test.ID, "en"))
			Expect(err).To(BeNil())
			Expect(found).To(BeTrue())

			Expect(e.catalog.UpsertLogicalTestTranslations(context.TODO(), e.psychologue, e.test.ID, []mappers.LogicalTestTranslationForm{
				{LanguageCode: "en", Name: "Dominoes (revised)"},
			})).To(BeNil())

			_, found, err = e.cache.Get(context.TODO(), cache.LogicalTests.Entity(e.test.ID, "en"))
			Expect(err).To(BeNil())
			Expect(found).To(BeFalse())

			view, err = e.catalog.GetLogicalTest(context.TODO(), e.test.ID, "en")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominoes (revised)"))
		})

		It("invalidates every cached list on write", func() {
			active := service.LogicalTestFilter{ActiveOnly: true}
			tests, err := e.catalog.ListLogicalTests(context.TODO(), active, "fr")
			Expect(err).To(BeNil())
			Expect(tests).To(HaveLen(1))

			_, err = e.catalog.SetLogicalTestActive(context.TODO(), e.admin, e.test.ID, false)
			Expect(err).To(BeNil())

			tests, err = e.catalog.ListLogicalTests(context.TODO(), active, "fr")
			Expect(err).To(BeNil())
			Expect(tests).To(BeEmpty())
		})

		It("drops cached fallbacks when the default language moves", func() {
			Expect(e.languages.ActivateLanguage(context.TODO(), e.admin, "de")).To(BeNil())
			test := e.logicalTest(model.LogicalTestD70,
				mappers.LogicalTestTranslationForm{LanguageCode: "fr", Name: "Dominos 70"},
				mappers.LogicalTestTranslationForm{LanguageCode: "de", Name: "Dominosteine 70"},
			)

			byCode := service.LogicalTestFilter{Code: ptr(model.LogicalTestD70)}

			view, err := e.catalog.GetLogicalTest(context.TODO(), test.ID, "en")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominos 70"))
			tests, err := e.catalog.ListLogicalTests(context.TODO(), byCode, "en")
			Expect(err).To(BeNil())
			Expect(tests).To(HaveLen(1))
			Expect(tests[0].Name).To(Equal("Dominos 70"))

			Expect(e.languages.SetDefaultLanguage(context.TODO(), e.admin, "de")).To(BeNil())

			view, err = e.catalog.GetLogicalTest(context.TODO(), test.ID, "en")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominosteine 70"))
			Expect(view.LanguageCode).To(Equal("de"))
			tests, err = e.catalog.ListLogicalTests(context.TODO(), byCode, "en")
			Expect(err).To(BeNil())
			Expect(tests).To(HaveLen(1))
			Expect(tests[0].Name).To(Equal("Dominosteine 70"))
		})

		It("drops cached views of a language once it is deactivated", func() {
			Expect(e.languages.ActivateLanguage(context.TODO(), e.admin, "de")).To(BeNil())
			test := e.logicalTest(model.LogicalTestD70,
				mappers.LogicalTestTranslationForm{LanguageCode: "fr", Name: "Dominos 70"},
				mappers.LogicalTestTranslationForm{LanguageCode: "de", Name: "Dominosteine 70"},
			)

			view, err := e.catalog.GetLogicalTest(context.TODO(), test.ID, "de")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominosteine 70"))

			Expect(e.languages.DeactivateLanguage(context.TODO(), e.admin, "de")).To(BeNil())

			_, found, err := e.cache.Get(context.TODO(), cache.LogicalTests.Entity(test.ID, "de"))
			Expect(err).To(BeNil())
			Expect(found).To(BeFalse())

			view, err = e.catalog.GetLogicalTest(context.TODO(), test.ID, "de")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominos 70"))
		})

		It("rejects a language given twice for one test", func() {
			_, err := e.catalog.CreateLogicalTest(context.TODO(), e.admin, mappers.LogicalTestForm{
				Code:            model.LogicalTestD70,
				QuestionType:    model.QuestionTypeDomino,
				DurationMinutes: 25,
				TotalQuestions:  44,
				Translations: []mappers.LogicalTestTranslationForm{
					{LanguageCode: "fr", Name: "Dominos 70"},
					{LanguageCode: "fr", Name: "Dominos soixante-dix"},
				},
			})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			err = e.catalog.UpsertLogicalTestTranslations(context.TODO(), e.admin, e.test.ID, []mappers.LogicalTestTranslationForm{
				{LanguageCode: "en", Name: "Dominoes"},
				{LanguageCode: "en", Name: "Domino 48"},
			})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			view, err := e.catalog.GetLogicalTest(context.TODO(), e.test.ID, "en")
			Expect(err).To(BeNil())
			Expect(view.Name).To(Equal("Dominoes 48"))
		})

		It("reports a missing test", func() {
			_, err := e.catalog.GetLogicalTest(context.TODO(), uuid.New(), "fr")
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("guards the last translation of a test", func() {
			test := e.logicalTest(model.LogicalTestD70)

			err := e.catalog.DeleteLogicalTestTranslation(context.TODO(), e.admin, test.ID, "fr")
			var last *service.ErrLastTranslation
			Expect(errors.As(err, &last)).To(BeTrue())

			Expect(e.catalog.UpsertLogicalTestTranslations(context.TODO(), e.admin, test.ID, []mappers.LogicalTestTranslationForm{
				{LanguageCode: "en", Name: "Dominoes 70"},
			})).To(BeNil())
			Expect(e.catalog.DeleteLogicalTestTranslation(context.TODO(), e.admin, test.ID, "fr")).To(BeNil())

			view, err := e.catalog.GetLogicalTest(context.TODO(), test.ID, "fr")
			Expect(err).To(BeNil())
			Expect(view.Name).To(BeEmpty())
			Expect(view.LanguageCode).To(BeEmpty())
		})
	})

	Context("questions", func() {
		It("creates a question with its propositions and lists it resolved", func() {
			q, err := e.catalog.CreateQuestion(context.TODO(), e.admin, mappers.QuestionForm{
				LogicalTestID:  e.test.ID,
				QuestionNumber: 1,
				CorrectAnswer:  "B",
				Translations: []mappers.QuestionTranslationForm{
					{LanguageCode: "fr", Text: "Quel domino complète la suite ?"},
					{LanguageCode: "en", Text: "Which domino completes the series?"},
				},
				Propositions: []mappers.PropositionForm{
					{Label: "A", DisplayOrder: 1, Translations: []mappers.PropositionTranslationForm{{LanguageCode: "fr", Text: "4/2"}}},
					{Label: "B", DisplayOrder: 2, IsCorrect: true, Translations: []mappers.PropositionTranslationForm{
						{LanguageCode: "fr", Text: "5/3"},
						{LanguageCode: "en", Text: "5/3 (en)"},
					}},
				},
			})
			Expect(err).To(BeNil())

			views, err := e.catalog.ListQuestions(context.TODO(), e.test.ID, "en")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(1))
			Expect(views[0].ID).To(Equal(q.ID))
			Expect(views[0].Text).To(Equal("Which domino completes the series?"))
			Expect(views[0].Propositions).To(HaveLen(2))
			Expect(views[0].Propositions[0].LanguageCode).To(Equal("fr"))
			Expect(views[0].Propositions[1].Text).To(Equal("5/3 (en)"))
		})

		It("refuses a duplicate question number", func() {
			form := mappers.QuestionForm{
				LogicalTestID:  e.test.ID,
				QuestionNumber: 1,
				Translations:   []mappers.QuestionTranslationForm{{LanguageCode: "fr", Text: "Q1"}},
			}
			_, err := e.catalog.CreateQuestion(context.TODO(), e.admin, form)
			Expect(err).To(BeNil())

			_, err = e.catalog.CreateQuestion(context.TODO(), e.admin, form)
			var conflict *service.ErrConflict
			Expect(errors.As(err, &conflict)).To(BeTrue())
		})

		It("refreshes cached questions after a new one is added", func() {
			views, err := e.catalog.ListQuestions(context.TODO(), e.test.ID, "fr")
			Expect(err).To(BeNil())
			Expect(views).To(BeEmpty())

			_, err = e.catalog.CreateQuestion(context.TODO(), e.admin, mappers.QuestionForm{
				LogicalTestID:  e.test.ID,
				QuestionNumber: 7,
				Translations:   []mappers.QuestionTranslationForm{{LanguageCode: "fr", Text: "Q7"}},
			})
			Expect(err).To(BeNil())

			views, err = e.catalog.ListQuestions(context.TODO(), e.test.ID, "fr")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(1))
		})
	})

	Context("classifications", func() {
		var d70 model.LogicalTest

		BeforeEach(func() {
			d70 = e.logicalTest(model.LogicalTestD70)
			_, err := e.catalog.UpsertClassifications(context.TODO(), e.admin, d70.ID, []mappers.ClassificationForm{
				classification(2, 21, 44, "Supérieur", "Superior"),
				classification(1, 0, 20, "Inférieur", "Inferior"),
			})
			Expect(err).To(BeNil())
		})

		It("stores the set ordered by display order", func() {
			views, err := e.catalog.ListClassifications(context.TODO(), d70.ID, "en")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(2))
			Expect(views[0].DisplayOrder).To(Equal(1))
			Expect(views[0].Label).To(Equal("Inferior"))
			Expect(views[1].MinScore).To(Equal(21))
		})

		It("rejects an overlapping set and keeps the previous one", func() {
			_, err := e.catalog.UpsertClassifications(context.TODO(), e.admin, d70.ID, []mappers.ClassificationForm{
				classification(1, 0, 20),
				classification(2, 15, 44),
			})
			var invalidRange *service.ErrInvalidRange
			Expect(errors.As(err, &invalidRange)).To(BeTrue())
			Expect(invalidRange.DisplayOrder).To(Equal(2))
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			views, err := e.catalog.ListClassifications(context.TODO(), d70.ID, "fr")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(2))
			Expect(views[1].MinScore).To(Equal(21))
		})

		It("rejects an inverted range", func() {
			_, err := e.catalog.UpsertClassifications(context.TODO(), e.admin, d70.ID, []mappers.ClassificationForm{
				classification(3, 30, 10),
			})
			var invalidRange *service.ErrInvalidRange
			Expect(errors.As(err, &invalidRange)).To(BeTrue())
			Expect(invalidRange.DisplayOrder).To(Equal(3))
		})

		It("rejects inactive languages before touching the set", func() {
			bad := classification(1, 0, 44)
			bad.Translations = append(bad.Translations, mappers.ClassificationTranslationForm{LanguageCode: "de", Label: "Alle"})
			_, err := e.catalog.UpsertClassifications(context.TODO(), e.admin, d70.ID, []mappers.ClassificationForm{bad})
			var invalid *service.ErrInvalidLanguageCodes
			Expect(errors.As(err, &invalid)).To(BeTrue())

			views, err := e.catalog.ListClassifications(context.TODO(), d70.ID, "fr")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(2))
		})

		It("rejects a classification labelled twice in one language", func() {
			twice := classification(1, 0, 44, "Tous")
			twice.Translations = append(twice.Translations, mappers.ClassificationTranslationForm{LanguageCode: "fr", Label: "Ensemble"})
			_, err := e.catalog.UpsertClassifications(context.TODO(), e.admin, d70.ID, []mappers.ClassificationForm{twice})
			var invalid *service.ErrInvalidArgument
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Field).To(Equal("Translations"))

			views, err := e.catalog.ListClassifications(context.TODO(), d70.ID, "fr")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(2))
			Expect(views[0].Label).To(Equal("Inférieur"))
		})

		It("replaces the whole set and drops the cached view", func() {
			_, err := e.catalog.ListClassifications(context.TODO(), d70.ID, "fr")
			Expect(err).To(BeNil())

			_, err = e.catalog.UpsertClassifications(context.TODO(), e.admin, d70.ID, []mappers.ClassificationForm{
				classification(1, 0, 44, "Unique"),
			})
			Expect(err).To(BeNil())

			views, err := e.catalog.ListClassifications(context.TODO(), d70.ID, "fr")
			Expect(err).To(BeNil())
			Expect(views).To(HaveLen(1))
			Expect(views[0].Label).To(Equal("Unique"))
		})

		It("classifies a score", func() {
			c, err := e.catalog.ClassifyScore(context.TODO(), d70.ID, 21, "fr")
			Expect(err).To(BeNil())
			Expect(c.Label).To(Equal("Supérieur"))

			_, err = e.catalog.ClassifyScore(context.TODO(), d70.ID, 45, "fr")
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		It("reports a missing test", func() {
			_, err := e.catalog.UpsertClassifications(context.TODO(), e.admin, uuid.New(), []mappers.ClassificationForm{classification(1, 0, 10)})
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})
})

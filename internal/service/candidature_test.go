package service_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/notification"
	"github.com/psyeval/recruitment/internal/service"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("candidature service", func() {
	var e *env

	BeforeEach(func() {
		e = newEnv()
	})

	AfterEach(func() {
		e.close()
	})

	// auditLog checks every logged step against the lifecycle graph.
	auditLog := func(id uuid.UUID) []mappers.TransitionView {
		history, err := e.candidatures.History(context.TODO(), e.admin, id)
		Expect(err).To(BeNil())
		for _, step := range history {
			if step.From == nil {
				Expect(step.To).To(Equal(lifecycle.StatusPending))
				continue
			}
			Expect(lifecycle.IsLegalStep(*step.From, step.To)).To(BeTrue(), "illegal step %s -> %s", *step.From, step.To)
		}
		return history
	}

	Context("assign psychologue", func() {
		It("moves a pending candidature to assigned and logs it once", func() {
			app := e.application(model.JobApplicationApproved)
			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			Expect(err).To(BeNil())
			Expect(res.Candidature.Status).To(Equal(lifecycle.StatusPending))

			c, err := e.candidatures.AssignPsychologue(context.TODO(), e.admin, res.Candidature.ID, e.psychologue.ID)
			Expect(err).To(BeNil())
			Expect(c.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(*c.AssignedPsychologueID).To(Equal(e.psychologue.ID))
			Expect(*c.AssignedBy).To(Equal(e.admin.ID))
			Expect(c.AssignmentDate.Equal(e.now)).To(BeTrue())

			// same psychologue again: nothing to write
			again, err := e.candidatures.AssignPsychologue(context.TODO(), e.admin, res.Candidature.ID, e.psychologue.ID)
			Expect(err).To(BeNil())
			Expect(again.Version).To(Equal(c.Version))

			Expect(auditLog(c.ID)).To(HaveLen(2))
		})

		It("re-assigns later statuses without logging", func() {
			c := e.evaluated()
			before := auditLog(c.ID)

			other, err := e.store.User().Create(context.TODO(), model.User{Email: "psy2@example.com", FirstName: "Nadia", LastName: "Tazi", Role: model.RolePsychologue, IsActive: true})
			Expect(err).To(BeNil())

			updated, err := e.candidatures.AssignPsychologue(context.TODO(), e.admin, c.ID, other.ID)
			Expect(err).To(BeNil())
			Expect(updated.Status).To(Equal(lifecycle.StatusEvaluated))
			Expect(*updated.AssignedPsychologueID).To(Equal(other.ID))
			Expect(auditLog(c.ID)).To(HaveLen(len(before)))
		})

		It("refuses an unknown user or a non psychologue", func() {
			c := e.candidature()

			_, err := e.candidatures.AssignPsychologue(context.TODO(), e.admin, c.ID, uuid.New())
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())

			_, err = e.candidatures.AssignPsychologue(context.TODO(), e.admin, c.ID, e.candidate.ID)
			Expect(service.IsInvalidArgument(err)).To(BeTrue())
		})

		It("is reserved to admins", func() {
			c := e.candidature()
			_, err := e.candidatures.AssignPsychologue(context.TODO(), e.psychologue, c.ID, e.psychologue.ID)
			var forbidden *service.ErrForbidden
			Expect(errors.As(err, &forbidden)).To(BeTrue())
		})

		It("refuses an archived candidature", func() {
			c := e.evaluated()
			_, err := e.candidatures.Archive(context.TODO(), e.admin, c.ID)
			Expect(err).To(BeNil())

			_, err = e.candidatures.AssignPsychologue(context.TODO(), e.admin, c.ID, e.psychologue.ID)
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
			Expect(precondition.Current).To(Equal("archived"))
		})
	})

	Context("assign tests", func() {
		It("attaches the tests with the first active personality test", func() {
			c := e.candidature()
			res, err := e.candidatures.AssignTests(context.TODO(), e.psychologue, c.ID, mappers.AssignTestsForm{LogicalTestID: e.test.ID})
			Expect(err).To(BeNil())
			Expect(res.Candidature.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(*res.Candidature.LogicalTestID).To(Equal(e.test.ID))
			Expect(*res.Candidature.PersonalityTestID).To(Equal(e.personality.ID))
			Expect(res.NotificationSent).To(BeTrue())

			Expect(e.writer.Messages).To(HaveLen(1))
			var msg notification.Message
			Expect(e.writer.Messages[0].DataAs(&msg)).To(BeNil())
			Expect(msg.To).To(Equal(e.candidate.Email))
			// the candidate prefers English
			Expect(msg.Body).To(ContainSubstring("Dominoes 48"))
			Expect(msg.Body).To(ContainSubstring("Big Five"))
		})

		It("is idempotent", func() {
			app := e.application(model.JobApplicationApproved)
			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			Expect(err).To(BeNil())
			form := mappers.AssignTestsForm{LogicalTestID: e.test.ID}

			first, err := e.candidatures.AssignTests(context.TODO(), e.admin, res.Candidature.ID, form)
			Expect(err).To(BeNil())
			second, err := e.candidatures.AssignTests(context.TODO(), e.admin, res.Candidature.ID, form)
			Expect(err).To(BeNil())

			Expect(second.Candidature.Status).To(Equal(first.Candidature.Status))
			Expect(second.Candidature.LogicalTestID).To(Equal(first.Candidature.LogicalTestID))
			Expect(second.Candidature.PersonalityTestID).To(Equal(first.Candidature.PersonalityTestID))
			Expect(second.Candidature.Version).To(Equal(first.Candidature.Version))
			Expect(second.NotificationSent).To(BeFalse())
			history := auditLog(res.Candidature.ID)
			Expect(history).To(HaveLen(2))
			Expect(history[0].To).To(Equal(lifecycle.StatusAssigned))
		})

		It("can skip the personality test", func() {
			c := e.candidature()
			res, err := e.candidatures.AssignTests(context.TODO(), e.psychologue, c.ID, mappers.AssignTestsForm{
				LogicalTestID:       e.test.ID,
				SkipPersonalityTest: true,
			})
			Expect(err).To(BeNil())
			Expect(res.Candidature.PersonalityTestID).To(BeNil())
		})

		It("refuses an inactive personality test", func() {
			retired, err := e.store.PersonalityTest().Create(context.TODO(), model.PersonalityTest{Code: "MBTI", Name: "MBTI", IsActive: false})
			Expect(err).To(BeNil())
			c := e.candidature()

			_, err = e.candidatures.AssignTests(context.TODO(), e.psychologue, c.ID, mappers.AssignTestsForm{
				LogicalTestID:     e.test.ID,
				PersonalityTestID: &retired.ID,
			})
			var invalid *service.ErrInvalidArgument
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.Field).To(Equal("personalityTestId"))

			stored, err := e.candidatures.Get(context.TODO(), e.admin, c.ID)
			Expect(err).To(BeNil())
			Expect(stored.LogicalTestID).To(BeNil())
			Expect(stored.PersonalityTestID).To(BeNil())
			Expect(stored.Version).To(Equal(c.Version))
		})

		It("reports unknown tests before writing", func() {
			c := e.candidature()
			_, err := e.candidatures.AssignTests(context.TODO(), e.psychologue, c.ID, mappers.AssignTestsForm{
				LogicalTestID:         e.test.ID,
				OptionalLogicalTestID: ptr(uuid.New()),
			})
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())

			stored, err := e.candidatures.Get(context.TODO(), e.admin, c.ID)
			Expect(err).To(BeNil())
			Expect(stored.LogicalTestID).To(BeNil())
			Expect(stored.Version).To(Equal(c.Version))
		})

		It("refuses candidatures past assignment", func() {
			c := e.evaluated()
			_, err := e.candidatures.AssignTests(context.TODO(), e.psychologue, c.ID, mappers.AssignTestsForm{LogicalTestID: e.test.ID})
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
			Expect(precondition.Current).To(Equal("evaluated"))
			Expect(precondition.Required).To(ConsistOf("pending", "assigned"))
		})

		It("keeps the assignment when the notice cannot be sent", func() {
			e.writer.fail = true
			c := e.candidature()
			res, err := e.candidatures.AssignTests(context.TODO(), e.psychologue, c.ID, mappers.AssignTestsForm{LogicalTestID: e.test.ID})
			Expect(err).To(BeNil())
			Expect(res.NotificationSent).To(BeFalse())
			Expect(*res.Candidature.LogicalTestID).To(Equal(e.test.ID))
		})

		It("is closed to psychologues of other candidatures", func() {
			app := e.application(model.JobApplicationApproved)
			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			Expect(err).To(BeNil())

			_, err = e.candidatures.AssignTests(context.TODO(), e.psychologue, res.Candidature.ID, mappers.AssignTestsForm{LogicalTestID: e.test.ID})
			var forbidden *service.ErrForbidden
			Expect(errors.As(err, &forbidden)).To(BeTrue())
		})
	})

	Context("evaluation", func() {
		It("walks the whole graph with a legal log", func() {
			c := e.evaluated()
			Expect(c.Status).To(Equal(lifecycle.StatusEvaluated))
			Expect(*c.Decision).To(Equal(lifecycle.DecisionFavorable))
			Expect(*c.DecisionBy).To(Equal(e.psychologue.ID))

			history := auditLog(c.ID)
			Expect(history).To(HaveLen(5))
			Expect(history[0].To).To(Equal(lifecycle.StatusEvaluated))
			Expect(*history[0].From).To(Equal(lifecycle.StatusCompleted))
		})

		It("decides after a review", func() {
			c := e.candidature()
			ctx := context.TODO()
			_, err := e.candidatures.AssignTests(ctx, e.psychologue, c.ID, mappers.AssignTestsForm{LogicalTestID: e.test.ID})
			Expect(err).To(BeNil())
			_, err = e.candidatures.Start(ctx, e.psychologue, c.ID)
			Expect(err).To(BeNil())
			_, err = e.candidatures.Complete(ctx, e.psychologue, c.ID)
			Expect(err).To(BeNil())
			reviewed, err := e.candidatures.SubmitForReview(ctx, e.psychologue, c.ID)
			Expect(err).To(BeNil())
			Expect(reviewed.Status).To(Equal(lifecycle.StatusInReview))

			decided, err := e.candidatures.Decide(ctx, e.admin, c.ID, mappers.DecisionForm{Decision: lifecycle.DecisionUnfavorable, Comments: "insufficient score"})
			Expect(err).To(BeNil())
			Expect(*decided.DecisionComments).To(Equal("insufficient score"))
			auditLog(c.ID)
		})

		It("refuses a decision before completion", func() {
			c := e.candidature()
			_, err := e.candidatures.Decide(context.TODO(), e.psychologue, c.ID, mappers.DecisionForm{Decision: lifecycle.DecisionFavorable})
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
			Expect(precondition.Required).To(ConsistOf("completed", "in_review"))
		})

		It("rejects an unknown decision", func() {
			c := e.candidature()
			_, err := e.candidatures.Decide(context.TODO(), e.psychologue, c.ID, mappers.DecisionForm{Decision: "maybe"})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())
		})
	})

	Context("archive", func() {
		It("archives an evaluated candidature exactly once", func() {
			c := e.evaluated()

			archived, err := e.candidatures.Archive(context.TODO(), e.admin, c.ID)
			Expect(err).To(BeNil())
			Expect(archived.Status).To(Equal(lifecycle.StatusArchived))

			history := auditLog(c.ID)
			Expect(*history[0].From).To(Equal(lifecycle.StatusEvaluated))
			Expect(history[0].To).To(Equal(lifecycle.StatusArchived))

			_, err = e.candidatures.Archive(context.TODO(), e.admin, c.ID)
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
			Expect(precondition.Current).To(Equal("archived"))
			Expect(auditLog(c.ID)).To(HaveLen(len(history)))
		})

		It("refuses a candidature that is not evaluated", func() {
			c := e.candidature()
			_, err := e.candidatures.Archive(context.TODO(), e.admin, c.ID)
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
			Expect(precondition.Required).To(Equal([]string{"evaluated"}))
		})

		It("reports a missing candidature", func() {
			_, err := e.candidatures.Archive(context.TODO(), e.admin, uuid.New())
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})
	})

	Context("details", func() {
		It("schedules an exam once tests are assigned", func() {
			c := e.candidature()
			examDate := e.now.Add(2 * time.Hour)

			updated, err := e.candidatures.UpdateDetails(context.TODO(), e.psychologue, c.ID, mappers.DetailsForm{
				DpNumber: ptr("DP-2026-001"),
				ExamDate: &examDate,
			})
			Expect(err).To(BeNil())
			Expect(*updated.DpNumber).To(Equal("DP-2026-001"))
			Expect(updated.ExamDate.Equal(examDate)).To(BeTrue())
			Expect(updated.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(auditLog(c.ID)).To(HaveLen(2))
		})

		It("refuses an exam date on a pending candidature", func() {
			app := e.application(model.JobApplicationApproved)
			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			Expect(err).To(BeNil())

			examDate := e.now
			_, err = e.candidatures.UpdateDetails(context.TODO(), e.admin, res.Candidature.ID, mappers.DetailsForm{ExamDate: &examDate})
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
			Expect(precondition.Current).To(Equal("pending"))

			// the dp number alone is fine
			_, err = e.candidatures.UpdateDetails(context.TODO(), e.admin, res.Candidature.ID, mappers.DetailsForm{DpNumber: ptr("DP-1")})
			Expect(err).To(BeNil())
		})
	})

	Context("dashboard", func() {
		It("groups candidatures by status and counts today's exams", func() {
			ctx := context.TODO()
			mine := e.candidature()
			today := e.now.Add(3 * time.Hour)
			_, err := e.candidatures.UpdateDetails(ctx, e.psychologue, mine.ID, mappers.DetailsForm{ExamDate: &today})
			Expect(err).To(BeNil())

			tomorrow := e.now.Add(24 * time.Hour)
			later := e.candidature()
			_, err = e.candidatures.UpdateDetails(ctx, e.psychologue, later.ID, mappers.DetailsForm{ExamDate: &tomorrow})
			Expect(err).To(BeNil())

			app := e.application(model.JobApplicationApproved)
			_, err = e.candidatures.CreateFromApplication(ctx, e.admin, app.ID, nil)
			Expect(err).To(BeNil())

			dashboard, err := e.candidatures.Dashboard(ctx, e.psychologue)
			Expect(err).To(BeNil())
			Expect(dashboard.Mine[lifecycle.StatusAssigned]).To(BeEquivalentTo(2))
			Expect(dashboard.Mine[lifecycle.StatusPending]).To(BeEquivalentTo(0))
			Expect(dashboard.Global[lifecycle.StatusPending]).To(BeEquivalentTo(1))
			Expect(dashboard.Global[lifecycle.StatusAssigned]).To(BeEquivalentTo(2))
			Expect(dashboard.Global).To(HaveLen(len(lifecycle.Statuses)))
			Expect(dashboard.ExamsToday).To(BeEquivalentTo(1))
		})
	})

	Context("export", func() {
		It("writes the psychologue's candidatures to a workbook", func() {
			ctx := context.TODO()
			mine := e.candidature()
			app := e.application(model.JobApplicationApproved)
			_, err := e.candidatures.CreateFromApplication(ctx, e.admin, app.ID, nil)
			Expect(err).To(BeNil())

			var buf bytes.Buffer
			Expect(e.candidatures.Export(ctx, e.psychologue, service.CandidatureFilter{}, &buf)).To(BeNil())

			f, err := excelize.OpenReader(&buf)
			Expect(err).To(BeNil())
			defer f.Close()
			rows, err := f.GetRows("Candidatures")
			Expect(err).To(BeNil())
			Expect(rows).To(HaveLen(2))
			Expect(rows[0][0]).To(Equal("ID"))
			Expect(rows[1][0]).To(Equal(mine.ID.String()))
			Expect(rows[1][2]).To(Equal("assigned"))
		})
	})

	Context("concurrent writers", func() {
		It("reports a conflict when the candidature moved under the write", func() {
			app := e.application(model.JobApplicationApproved)
			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			Expect(err).To(BeNil())
			c := res.Candidature

			racing := &racingStore{Store: e.store}
			_, err = e.candidaturesOn(racing).AssignPsychologue(context.TODO(), e.admin, c.ID, e.psychologue.ID)
			var conflict *service.ErrConflict
			Expect(errors.As(err, &conflict)).To(BeTrue())
			Expect(racing.raced).To(Equal(1))

			stored, err := e.candidatures.Get(context.TODO(), e.admin, c.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(lifecycle.StatusPending))
			Expect(stored.AssignedPsychologueID).To(BeNil())
			Expect(stored.Version).To(Equal(c.Version))
			Expect(auditLog(c.ID)).To(HaveLen(1))
		})
	})
})

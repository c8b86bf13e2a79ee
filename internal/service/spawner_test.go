package service_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/service"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("candidature spawner", func() {
	var e *env

	BeforeEach(func() {
		e = newEnv()
	})

	AfterEach(func() {
		e.close()
	})

	countCandidatures := func() int64 {
		count, err := e.store.Candidature().Count(context.TODO(), nil)
		Expect(err).To(BeNil())
		return count
	}

	Context("from an application", func() {
		It("creates exactly one pending candidature", func() {
			app := e.application(model.JobApplicationApproved)

			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			Expect(err).To(BeNil())
			Expect(res.Candidature.Status).To(Equal(lifecycle.StatusPending))
			Expect(res.Candidature.JobApplicationID).To(Equal(app.ID))
			Expect(res.Candidature.Version).To(Equal(1))

			_, err = e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			var conflict *service.ErrConflict
			Expect(errors.As(err, &conflict)).To(BeTrue())
			Expect(countCandidatures()).To(BeEquivalentTo(1))
		})

		It("assigns a psychologue right away", func() {
			app := e.application(model.JobApplicationApproved)
			res, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, &e.psychologue.ID)
			Expect(err).To(BeNil())
			Expect(res.Candidature.Status).To(Equal(lifecycle.StatusAssigned))

			history, err := e.store.TransitionLog().ListByCandidature(context.TODO(), res.Candidature.ID)
			Expect(err).To(BeNil())
			Expect(history).To(HaveLen(2))
			Expect(history[0].ToStatus).To(Equal(lifecycle.StatusAssigned))
			Expect(history[1].FromStatus).To(BeNil())
		})

		DescribeTable("refuses applications that are not approved",
			func(status model.JobApplicationStatus) {
				app := e.application(status)
				_, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
				var precondition *service.ErrPreconditionFailed
				Expect(errors.As(err, &precondition)).To(BeTrue())
				Expect(precondition.Current).To(Equal(string(status)))
				Expect(countCandidatures()).To(BeZero())
			},
			Entry("pending", model.JobApplicationPending),
			Entry("rejected", model.JobApplicationRejected),
			Entry("withdrawn", model.JobApplicationWithdrawn),
		)

		It("reports a missing application", func() {
			_, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, uuid.New(), nil)
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
		})

		Context("placement", func() {
			placedApplication := func(siteID uuid.UUID, status model.JobApplicationStatus) model.JobApplication {
				app, err := e.store.JobApplication().Create(context.TODO(), model.JobApplication{
					CandidateID:    e.candidate.ID,
					SiteID:         siteID,
					TargetPosition: "Operator",
					Status:         status,
				})
				Expect(err).To(BeNil())
				return *app
			}

			inactiveSite := func() uuid.UUID {
				site, err := e.store.Site().CreateSite(context.TODO(), model.Site{Name: "Agadir", IsActive: false})
				Expect(err).To(BeNil())
				return site.ID
			}

			It("refuses an application on an inactive site", func() {
				app := placedApplication(inactiveSite(), model.JobApplicationApproved)
				_, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
				Expect(service.IsInvalidArgument(err)).To(BeTrue())
				Expect(countCandidatures()).To(BeZero())
			})

			It("refuses an application on a missing site", func() {
				app := placedApplication(uuid.New(), model.JobApplicationApproved)
				_, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
				var notFound *service.ErrResourceNotFound
				Expect(errors.As(err, &notFound)).To(BeTrue())
				Expect(countCandidatures()).To(BeZero())
			})

			It("leaves the application pending when approving it on an inactive site", func() {
				app := placedApplication(inactiveSite(), model.JobApplicationPending)
				_, err := e.candidatures.ApproveApplication(context.TODO(), e.admin, app.ID, mappers.ApprovalForm{})
				Expect(service.IsInvalidArgument(err)).To(BeTrue())
				Expect(countCandidatures()).To(BeZero())

				stored, err := e.store.JobApplication().Get(context.TODO(), app.ID)
				Expect(err).To(BeNil())
				Expect(stored.Status).To(Equal(model.JobApplicationPending))
			})

			It("refuses to approve an application on a missing site", func() {
				app := placedApplication(uuid.New(), model.JobApplicationPending)
				_, err := e.candidatures.ApproveApplication(context.TODO(), e.admin, app.ID, mappers.ApprovalForm{})
				var notFound *service.ErrResourceNotFound
				Expect(errors.As(err, &notFound)).To(BeTrue())
				Expect(countCandidatures()).To(BeZero())
			})
		})

		It("rolls back when the psychologue does not exist", func() {
			app := e.application(model.JobApplicationApproved)
			_, err := e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, ptr(uuid.New()))
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(countCandidatures()).To(BeZero())
		})
	})

	Context("review", func() {
		It("approves and spawns in one step", func() {
			app := e.application(model.JobApplicationPending)
			res, err := e.candidatures.ApproveApplication(context.TODO(), e.admin, app.ID, mappers.ApprovalForm{Comments: "ok"})
			Expect(err).To(BeNil())
			Expect(res.JobApplication.Status).To(Equal(model.JobApplicationApproved))
			Expect(*res.JobApplication.ReviewedBy).To(Equal(e.admin.ID))
			Expect(res.Candidature.Status).To(Equal(lifecycle.StatusPending))

			_, err = e.candidatures.ApproveApplication(context.TODO(), e.admin, app.ID, mappers.ApprovalForm{})
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
		})

		It("keeps the application pending when the spawn fails", func() {
			app := e.application(model.JobApplicationPending)
			_, err := e.candidatures.ApproveApplication(context.TODO(), e.admin, app.ID, mappers.ApprovalForm{PsychologueID: &e.candidate.ID})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			stored, err := e.store.JobApplication().Get(context.TODO(), app.ID)
			Expect(err).To(BeNil())
			Expect(stored.Status).To(Equal(model.JobApplicationPending))
		})

		It("rejects an application", func() {
			app := e.application(model.JobApplicationPending)
			rejected, err := e.candidatures.RejectApplication(context.TODO(), e.admin, app.ID, "position filled")
			Expect(err).To(BeNil())
			Expect(rejected.Status).To(Equal(model.JobApplicationRejected))

			_, err = e.candidatures.CreateFromApplication(context.TODO(), e.admin, app.ID, nil)
			var precondition *service.ErrPreconditionFailed
			Expect(errors.As(err, &precondition)).To(BeTrue())
		})
	})

	Context("manual", func() {
		It("creates a re-evaluation without touching the previous candidature", func() {
			previous := e.evaluated()

			res, err := e.candidatures.CreateManual(context.TODO(), e.admin, mappers.ManualCandidatureForm{
				CandidateID:           e.candidate.ID,
				SiteID:                e.site.ID,
				DepartmentID:          &e.department.ID,
				TargetPosition:        "Team leader",
				PreviousCandidatureID: &previous.ID,
			})
			Expect(err).To(BeNil())
			Expect(res.JobApplication.Status).To(Equal(model.JobApplicationApproved))
			Expect(res.Candidature.IsReevaluation).To(BeTrue())
			Expect(*res.Candidature.PreviousCandidatureID).To(Equal(previous.ID))

			stored, err := e.store.Candidature().Get(context.TODO(), previous.ID)
			Expect(err).To(BeNil())
			Expect(stored.Version).To(Equal(previous.Version))
			Expect(stored.Status).To(Equal(lifecycle.StatusEvaluated))
		})

		It("refuses a previous candidature of another candidate", func() {
			previous := e.evaluated()
			other, err := e.store.User().Create(context.TODO(), model.User{Email: "other@example.com", FirstName: "Omar", LastName: "Fassi", Role: model.RoleCandidate, IsActive: true})
			Expect(err).To(BeNil())

			_, err = e.candidatures.CreateManual(context.TODO(), e.admin, mappers.ManualCandidatureForm{
				CandidateID:           other.ID,
				SiteID:                e.site.ID,
				TargetPosition:        "Operator",
				PreviousCandidatureID: &previous.ID,
			})
			Expect(service.IsInvalidArgument(err)).To(BeTrue())
		})

		It("checks the site and department", func() {
			inactive, err := e.store.Site().CreateSite(context.TODO(), model.Site{Name: "Tanger", IsActive: false})
			Expect(err).To(BeNil())

			form := mappers.ManualCandidatureForm{CandidateID: e.candidate.ID, SiteID: inactive.ID, TargetPosition: "Operator"}
			_, err = e.candidatures.CreateManual(context.TODO(), e.admin, form)
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			form.SiteID = uuid.New()
			_, err = e.candidatures.CreateManual(context.TODO(), e.admin, form)
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())

			other, err := e.store.Site().CreateSite(context.TODO(), model.Site{Name: "Fès", IsActive: true})
			Expect(err).To(BeNil())
			form.SiteID = other.ID
			form.DepartmentID = &e.department.ID
			_, err = e.candidatures.CreateManual(context.TODO(), e.admin, form)
			Expect(service.IsInvalidArgument(err)).To(BeTrue())

			Expect(countCandidatures()).To(BeZero())
		})
	})

	Context("legacy", func() {
		form := func() mappers.LegacyCandidatureForm {
			return mappers.LegacyCandidatureForm{
				Email:             "Walk.In@Example.com",
				FirstName:         "Karim",
				LastName:          "Haddad",
				PreferredLanguage: "en",
				SiteID:            e.site.ID,
				DepartmentID:      &e.department.ID,
				TargetPosition:    "Driver",
				PsychologueID:     &e.psychologue.ID,
				TechnicalInterview: &mappers.TechnicalInterviewForm{
					InterviewerID:  &e.admin.ID,
					InterviewDate:  time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
					Score:          ptr(14.5),
					Recommendation: "favorable",
				},
			}
		}

		It("creates the account, application, candidature and interview", func() {
			res, err := e.candidatures.CreateLegacy(context.TODO(), e.admin, form())
			Expect(err).To(BeNil())
			Expect(res.EmailSent).To(BeTrue())
			Expect(res.TemporaryPassword).To(BeEmpty())
			Expect(res.User.Email).To(Equal("walk.in@example.com"))
			Expect(res.User.MustChangePassword).To(BeTrue())
			Expect(res.User.PreferredLanguage).To(Equal("en"))
			Expect(res.Candidature.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(res.TechnicalInterview).ToNot(BeNil())

			interview, err := e.store.TechnicalInterview().GetByCandidature(context.TODO(), res.Candidature.ID)
			Expect(err).To(BeNil())
			Expect(*interview.Score).To(Equal(14.5))
			Expect(e.writer.Messages).To(HaveLen(1))
		})

		It("hands the password back when the notice fails", func() {
			e.writer.fail = true
			res, err := e.candidatures.CreateLegacy(context.TODO(), e.admin, form())
			Expect(err).To(BeNil())
			Expect(res.EmailSent).To(BeFalse())
			Expect(res.TemporaryPassword).ToNot(BeEmpty())

			user, err := e.store.User().Get(context.TODO(), res.User.ID)
			Expect(err).To(BeNil())
			Expect(bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(res.TemporaryPassword))).To(Succeed())
		})

		It("refuses a registered email whatever its case", func() {
			_, err := e.candidatures.CreateLegacy(context.TODO(), e.admin, form())
			Expect(err).To(BeNil())

			again := form()
			again.Email = "WALK.IN@example.com"
			_, err = e.candidatures.CreateLegacy(context.TODO(), e.admin, again)
			var conflict *service.ErrConflict
			Expect(errors.As(err, &conflict)).To(BeTrue())
			Expect(countCandidatures()).To(BeEquivalentTo(1))
		})

		It("creates nothing when a reference is invalid", func() {
			bad := form()
			bad.DepartmentID = ptr(uuid.New())
			_, err := e.candidatures.CreateLegacy(context.TODO(), e.admin, bad)
			var notFound *service.ErrResourceNotFound
			Expect(errors.As(err, &notFound)).To(BeTrue())

			_, err = e.store.User().GetByEmail(context.TODO(), "walk.in@example.com")
			Expect(errors.Is(err, store.ErrRecordNotFound)).To(BeTrue())
			Expect(e.writer.Messages).To(BeEmpty())
		})

		It("validates the interview", func() {
			bad := form()
			bad.TechnicalInterview.Score = ptr(25.0)
			_, err := e.candidatures.CreateLegacy(context.TODO(), e.admin, bad)
			Expect(service.IsInvalidArgument(err)).To(BeTrue())
		})

		It("is reserved to admins", func() {
			_, err := e.candidatures.CreateLegacy(context.TODO(), e.psychologue, form())
			var forbidden *service.ErrForbidden
			Expect(errors.As(err, &forbidden)).To(BeTrue())
		})
	})
})

package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/psyeval/recruitment/internal/config"
	"github.com/psyeval/recruitment/internal/lifecycle"
	st "github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

var _ = Describe("candidature store", Ordered, func() {
	var (
		s      st.Store
		gormdb *gorm.DB
	)

	newApplication := func() *model.JobApplication {
		app, err := s.JobApplication().Create(context.TODO(), model.JobApplication{
			CandidateID:    uuid.New(),
			SiteID:         uuid.New(),
			TargetPosition: "operator",
			Status:         model.JobApplicationApproved,
		})
		Expect(err).To(BeNil())
		return app
	}

	newCandidature := func(status lifecycle.Status, psychologue *uuid.UUID) *model.Candidature {
		c, err := s.Candidature().Create(context.TODO(), model.Candidature{
			JobApplicationID:      newApplication().ID,
			Status:                status,
			AssignedPsychologueID: psychologue,
		})
		Expect(err).To(BeNil())
		return c
	}

	BeforeAll(func() {
		db, err := st.InitDB(config.NewSqliteInMemory())
		Expect(err).To(BeNil())

		s = st.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration(context.TODO())).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	Context("create", func() {
		It("creates a candidature with version 1", func() {
			c := newCandidature(lifecycle.StatusPending, nil)
			Expect(c.Version).To(Equal(1))

			got, err := s.Candidature().GetByJobApplication(context.TODO(), c.JobApplicationID)
			Expect(err).To(BeNil())
			Expect(got.ID).To(Equal(c.ID))
		})

		It("refuses a second candidature for the same job application", func() {
			c := newCandidature(lifecycle.StatusPending, nil)

			_, err := s.Candidature().Create(context.TODO(), model.Candidature{
				JobApplicationID: c.JobApplicationID,
				Status:           lifecycle.StatusPending,
			})
			Expect(errors.Is(err, st.ErrDuplicateKey)).To(BeTrue())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM candidatures;")
			gormdb.Exec("DELETE FROM job_applications;")
		})
	})

	Context("update", func() {
		It("bumps the version on every update", func() {
			c := newCandidature(lifecycle.StatusPending, nil)
			c.Status = lifecycle.StatusAssigned

			updated, err := s.Candidature().Update(context.TODO(), *c)
			Expect(err).To(BeNil())
			Expect(updated.Version).To(Equal(2))

			got, err := s.Candidature().Get(context.TODO(), c.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(lifecycle.StatusAssigned))
			Expect(got.Version).To(Equal(2))
		})

		It("rejects a stale copy", func() {
			c := newCandidature(lifecycle.StatusPending, nil)
			stale := *c

			c.Status = lifecycle.StatusAssigned
			_, err := s.Candidature().Update(context.TODO(), *c)
			Expect(err).To(BeNil())

			stale.Status = lifecycle.StatusArchived
			_, err = s.Candidature().Update(context.TODO(), stale)
			Expect(errors.Is(err, st.ErrConcurrentUpdate)).To(BeTrue())

			got, err := s.Candidature().Get(context.TODO(), c.ID)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal(lifecycle.StatusAssigned))
		})

		It("reports a missing candidature as not found", func() {
			_, err := s.Candidature().Update(context.TODO(), model.Candidature{ID: uuid.New(), Version: 1})
			Expect(errors.Is(err, st.ErrRecordNotFound)).To(BeTrue())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM candidatures;")
			gormdb.Exec("DELETE FROM job_applications;")
		})
	})

	Context("list and count", func() {
		It("filters by psychologue and groups by status", func() {
			mine := uuid.New()
			newCandidature(lifecycle.StatusAssigned, &mine)
			newCandidature(lifecycle.StatusAssigned, &mine)
			newCandidature(lifecycle.StatusCompleted, &mine)
			newCandidature(lifecycle.StatusPending, nil)

			list, err := s.Candidature().List(context.TODO(), st.NewCandidatureQueryFilter().ByPsychologue(mine), nil)
			Expect(err).To(BeNil())
			Expect(list).To(HaveLen(3))

			counts, err := s.Candidature().CountByStatus(context.TODO(), st.NewCandidatureQueryFilter().ByPsychologue(mine))
			Expect(err).To(BeNil())
			Expect(counts).To(HaveKeyWithValue(lifecycle.StatusAssigned, int64(2)))
			Expect(counts).To(HaveKeyWithValue(lifecycle.StatusCompleted, int64(1)))
			Expect(counts).ToNot(HaveKey(lifecycle.StatusPending))

			global, err := s.Candidature().CountByStatus(context.TODO(), nil)
			Expect(err).To(BeNil())
			Expect(global).To(HaveKeyWithValue(lifecycle.StatusPending, int64(1)))
		})

		It("counts exams within a day", func() {
			today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

			c := newCandidature(lifecycle.StatusAssigned, nil)
			exam := today.Add(9 * time.Hour)
			c.ExamDate = &exam
			_, err := s.Candidature().Update(context.TODO(), *c)
			Expect(err).To(BeNil())

			other := newCandidature(lifecycle.StatusAssigned, nil)
			tomorrow := today.Add(33 * time.Hour)
			other.ExamDate = &tomorrow
			_, err = s.Candidature().Update(context.TODO(), *other)
			Expect(err).To(BeNil())

			count, err := s.Candidature().Count(context.TODO(), st.NewCandidatureQueryFilter().
				ByExamDateBetween(today, today.Add(24*time.Hour)).
				ByStatus(lifecycle.StatusAssigned, lifecycle.StatusInProgress))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(1)))
		})

		It("paginates", func() {
			for range 5 {
				newCandidature(lifecycle.StatusPending, nil)
			}

			page, err := s.Candidature().List(context.TODO(), nil, st.NewCandidatureQueryOptions().
				WithSortOrder(st.SortByID).
				WithLimit(2).
				WithOffset(4))
			Expect(err).To(BeNil())
			Expect(page).To(HaveLen(1))
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM candidatures;")
			gormdb.Exec("DELETE FROM job_applications;")
		})
	})

	Context("transition log", func() {
		It("returns the most recent entry first", func() {
			c := newCandidature(lifecycle.StatusPending, nil)
			actor := uuid.New()
			pending := lifecycle.StatusPending

			_, err := s.TransitionLog().Create(context.TODO(), model.TransitionLog{CandidatureID: c.ID, ToStatus: lifecycle.StatusPending, TransitionedBy: actor})
			Expect(err).To(BeNil())
			_, err = s.TransitionLog().Create(context.TODO(), model.TransitionLog{CandidatureID: c.ID, FromStatus: &pending, ToStatus: lifecycle.StatusAssigned, TransitionedBy: actor})
			Expect(err).To(BeNil())

			entries, err := s.TransitionLog().ListByCandidature(context.TODO(), c.ID)
			Expect(err).To(BeNil())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].ToStatus).To(Equal(lifecycle.StatusAssigned))
			Expect(entries[1].FromStatus).To(BeNil())
		})

		AfterEach(func() {
			gormdb.Exec("DELETE FROM transition_logs;")
			gormdb.Exec("DELETE FROM candidatures;")
			gormdb.Exec("DELETE FROM job_applications;")
		})
	})
})

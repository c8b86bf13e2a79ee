package service

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/notification"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/psyeval/recruitment/internal/validator"
	"github.com/psyeval/recruitment/pkg/metrics"
)

// CandidatureService drives candidatures through the lifecycle graph. Every
// status change and its transition log entry are written in the same
// transaction.
type CandidatureService struct {
	store     store.Store
	authz     *authz.Authorizer
	validator *validator.Validator
	notifier  *notification.Notifier
	catalog   *CatalogService
	now       func() time.Time
}

type CandidatureServiceOption func(s *CandidatureService)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CandidatureServiceOption {
	return func(s *CandidatureService) {
		s.now = now
	}
}

func NewCandidatureService(s store.Store, a *authz.Authorizer, n *notification.Notifier, catalog *CatalogService, opts ...CandidatureServiceOption) *CandidatureService {
	cs := &CandidatureService{
		store:     s,
		authz:     a,
		validator: newValidator(),
		notifier:  n,
		catalog:   catalog,
		now:       time.Now,
	}
	for _, o := range opts {
		o(cs)
	}
	return cs
}

// mutation edits the loaded candidature before it is saved. It runs inside
// the transaction and may reject the operation.
type mutation func(ctx context.Context, c *model.Candidature) error

type transitionResult struct {
	candidature model.Candidature
	from        lifecycle.Status
	changed     bool
}

// transition loads the candidature, authorizes the actor against it, fires ev
// and saves the result with the mutation applied. A status change appends a
// transition log entry. Nothing is written when the candidature is left as
// it was.
func (s *CandidatureService) transition(ctx context.Context, actor authz.Actor, id uuid.UUID, action authz.Action, ev lifecycle.Event, reason string, mutate mutation) (*transitionResult, error) {
	result := new(transitionResult)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.getCandidature(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.authz, actor, action, authz.Resource{AssignedPsychologueID: c.AssignedPsychologueID}); err != nil {
			return err
		}

		next, err := lifecycle.Transition(c.Status, ev)
		if err != nil {
			var illegal *lifecycle.ErrIllegalTransition
			if errors.As(err, &illegal) {
				return newErrIllegalTransition(illegal)
			}
			return err
		}

		before := *c
		if mutate != nil {
			if err := mutate(ctx, c); err != nil {
				return err
			}
		}
		c.Status = next

		result.from = before.Status
		if reflect.DeepEqual(before, *c) {
			result.candidature = *c
			return nil
		}

		updated, err := s.save(ctx, *c)
		if err != nil {
			return err
		}
		result.candidature = *updated
		result.changed = true

		if before.Status != next {
			from := before.Status
			if _, err := s.store.TransitionLog().Create(ctx, model.TransitionLog{
				CandidatureID:  id,
				FromStatus:     &from,
				ToStatus:       next,
				TransitionedBy: actor.ID,
				Reason:         reason,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.from != result.candidature.Status {
		metrics.IncreaseCandidatureTransitionsTotalMetric(string(ev), string(result.candidature.Status))
		logger(ctx, "candidature_service").Infow("candidature transitioned",
			"id", id, "event", ev, "from", result.from, "to", result.candidature.Status, "actor", actor.ID)
	}
	return result, nil
}

// AssignPsychologue is accepted from every status but archived. Only a
// pending candidature changes status.
func (s *CandidatureService) AssignPsychologue(ctx context.Context, actor authz.Actor, id, psychologueID uuid.UUID) (*model.Candidature, error) {
	res, err := s.transition(ctx, actor, id, authz.AssignPsychologue, lifecycle.EventAssignPsychologue, "psychologue assigned",
		func(ctx context.Context, c *model.Candidature) error {
			if err := s.checkPsychologue(ctx, psychologueID); err != nil {
				return err
			}
			if c.AssignedPsychologueID != nil && *c.AssignedPsychologueID == psychologueID {
				return nil
			}
			now := s.now()
			c.AssignedPsychologueID = &psychologueID
			c.AssignedBy = &actor.ID
			c.AssignmentDate = &now
			return nil
		})
	if err != nil {
		return nil, err
	}
	return &res.candidature, nil
}

// AssignTests attaches the logical tests and a personality test. Unless
// suppressed, the first active personality test is picked when none is given.
// Repeating the call with the same arguments changes nothing.
func (s *CandidatureService) AssignTests(ctx context.Context, actor authz.Actor, id uuid.UUID, form mappers.AssignTestsForm) (*mappers.AssignTestsResult, error) {
	if err := validateForm(s.validator, form); err != nil {
		return nil, err
	}

	res, err := s.transition(ctx, actor, id, authz.AssignTests, lifecycle.EventAssignTests, "tests assigned",
		func(ctx context.Context, c *model.Candidature) error {
			if _, err := s.catalog.getLogicalTest(ctx, form.LogicalTestID); err != nil {
				return err
			}
			if form.OptionalLogicalTestID != nil {
				if _, err := s.catalog.getLogicalTest(ctx, *form.OptionalLogicalTestID); err != nil {
					return err
				}
			}
			personality, err := s.pickPersonalityTest(ctx, form)
			if err != nil {
				return err
			}

			c.LogicalTestID = &form.LogicalTestID
			c.OptionalLogicalTestID = form.OptionalLogicalTestID
			c.PersonalityTestID = personality
			return nil
		})
	if err != nil {
		return nil, err
	}

	result := &mappers.AssignTestsResult{Candidature: res.candidature}
	if res.changed {
		result.NotificationSent = s.sendTestAssignment(ctx, res.candidature)
	}
	return result, nil
}

func (s *CandidatureService) pickPersonalityTest(ctx context.Context, form mappers.AssignTestsForm) (*uuid.UUID, error) {
	if form.PersonalityTestID != nil {
		p, err := s.store.PersonalityTest().Get(ctx, *form.PersonalityTestID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return nil, NewErrPersonalityTestNotFound(*form.PersonalityTestID)
			}
			return nil, err
		}
		if !p.IsActive {
			return nil, NewErrInvalidArgument("personalityTestId", "personality test %s is inactive", p.ID)
		}
		return &p.ID, nil
	}
	if form.SkipPersonalityTest {
		return nil, nil
	}

	first, err := s.store.PersonalityTest().FirstActive(ctx)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &first.ID, nil
}

func (s *CandidatureService) Start(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Candidature, error) {
	res, err := s.transition(ctx, actor, id, authz.StartEvaluation, lifecycle.EventStart, "evaluation started", nil)
	if err != nil {
		return nil, err
	}
	return &res.candidature, nil
}

func (s *CandidatureService) Complete(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Candidature, error) {
	res, err := s.transition(ctx, actor, id, authz.CompleteEvaluation, lifecycle.EventComplete, "evaluation completed", nil)
	if err != nil {
		return nil, err
	}
	return &res.candidature, nil
}

func (s *CandidatureService) SubmitForReview(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Candidature, error) {
	res, err := s.transition(ctx, actor, id, authz.SubmitForReview, lifecycle.EventSubmitForReview, "submitted for review", nil)
	if err != nil {
		return nil, err
	}
	return &res.candidature, nil
}

// Decide records the final decision of a completed or reviewed candidature.
func (s *CandidatureService) Decide(ctx context.Context, actor authz.Actor, id uuid.UUID, form mappers.DecisionForm) (*model.Candidature, error) {
	if err := validateForm(s.validator, form); err != nil {
		return nil, err
	}

	res, err := s.transition(ctx, actor, id, authz.DecideCandidature, lifecycle.EventDecide, "decision: "+string(form.Decision),
		func(_ context.Context, c *model.Candidature) error {
			now := s.now()
			decision := form.Decision
			c.Decision = &decision
			c.DecisionDate = &now
			c.DecisionBy = &actor.ID
			if form.Comments != "" {
				comments := form.Comments
				c.DecisionComments = &comments
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return &res.candidature, nil
}

func (s *CandidatureService) Archive(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Candidature, error) {
	res, err := s.transition(ctx, actor, id, authz.ArchiveCandidature, lifecycle.EventArchive, "archived", nil)
	if err != nil {
		return nil, err
	}
	return &res.candidature, nil
}

// UpdateDetails edits fields outside the status graph. No transition is
// logged. An exam date needs tests to be assigned first.
func (s *CandidatureService) UpdateDetails(ctx context.Context, actor authz.Actor, id uuid.UUID, form mappers.DetailsForm) (*model.Candidature, error) {
	if err := validateForm(s.validator, form); err != nil {
		return nil, err
	}

	var updated *model.Candidature
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.getCandidature(ctx, id)
		if err != nil {
			return err
		}
		if err := authorize(ctx, s.authz, actor, authz.UpdateCandidature, authz.Resource{AssignedPsychologueID: c.AssignedPsychologueID}); err != nil {
			return err
		}

		if form.ExamDate != nil && (!c.Status.AtLeast(lifecycle.StatusAssigned) || c.Status.IsTerminal()) {
			return newErrExamNotSchedulable(id, c.Status)
		}

		if form.DpNumber != nil {
			c.DpNumber = form.DpNumber
		}
		if form.ExamDate != nil {
			examDate := form.ExamDate.UTC()
			c.ExamDate = &examDate
		}
		updated, err = s.save(ctx, *c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *CandidatureService) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Candidature, error) {
	c, err := s.getCandidature(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, actor, authz.ReadCandidature, authz.Resource{AssignedPsychologueID: c.AssignedPsychologueID}); err != nil {
		return nil, err
	}
	return c, nil
}

// History returns the transition log of a candidature, newest first.
func (s *CandidatureService) History(ctx context.Context, actor authz.Actor, id uuid.UUID) ([]mappers.TransitionView, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.store.TransitionLog().ListByCandidature(ctx, id)
	if err != nil {
		return nil, err
	}
	views := make([]mappers.TransitionView, 0, len(entries))
	for _, e := range entries {
		views = append(views, mappers.TransitionToView(e))
	}
	return views, nil
}

// CandidatureFilter selects candidatures for listing and export.
type CandidatureFilter struct {
	Statuses      []lifecycle.Status
	PsychologueID *uuid.UUID
	Limit         int
	Offset        int
}

// List returns the candidatures matching filter. Psychologues only ever see
// their own assignments.
func (s *CandidatureService) List(ctx context.Context, actor authz.Actor, filter CandidatureFilter) (model.CandidatureList, error) {
	if err := authorize(ctx, s.authz, actor, authz.ExportCandidatures, authz.Resource{}); err != nil {
		return nil, err
	}
	if actor.Role == model.RolePsychologue {
		filter.PsychologueID = &actor.ID
	}

	q := store.NewCandidatureQueryFilter()
	if len(filter.Statuses) > 0 {
		q = q.ByStatus(filter.Statuses...)
	}
	if filter.PsychologueID != nil {
		q = q.ByPsychologue(*filter.PsychologueID)
	}
	opts := store.NewCandidatureQueryOptions().WithSortOrder(store.SortByCreatedTime)
	if filter.Limit > 0 {
		opts = opts.WithLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts = opts.WithOffset(filter.Offset)
	}
	return s.store.Candidature().List(ctx, q, opts)
}

func (s *CandidatureService) getCandidature(ctx context.Context, id uuid.UUID) (*model.Candidature, error) {
	c, err := s.store.Candidature().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrCandidatureNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (s *CandidatureService) save(ctx context.Context, c model.Candidature) (*model.Candidature, error) {
	updated, err := s.store.Candidature().Update(ctx, c)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrConcurrentUpdate):
			return nil, NewErrConcurrentUpdate(c.ID)
		case errors.Is(err, store.ErrRecordNotFound):
			return nil, NewErrCandidatureNotFound(c.ID)
		}
		return nil, err
	}
	return updated, nil
}

func (s *CandidatureService) checkPsychologue(ctx context.Context, id uuid.UUID) error {
	u, err := s.store.User().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrUserNotFound(id)
		}
		return err
	}
	if u.Role != model.RolePsychologue || !u.IsActive {
		return NewErrInvalidArgument("psychologueId", "user %s is not an active psychologue", id)
	}
	return nil
}

// sendTestAssignment tells the candidate which tests were assigned, named in
// the candidate's preferred language. It never fails the operation.
func (s *CandidatureService) sendTestAssignment(ctx context.Context, c model.Candidature) bool {
	log := logger(ctx, "candidature_service")

	app, err := s.store.JobApplication().Get(ctx, c.JobApplicationID)
	if err != nil {
		log.Warnw("cannot load job application for test assignment notice", "candidature", c.ID, "error", err)
		return false
	}
	candidate, err := s.store.User().Get(ctx, app.CandidateID)
	if err != nil {
		log.Warnw("cannot load candidate for test assignment notice", "candidature", c.ID, "error", err)
		return false
	}

	var tests []string
	for _, id := range []*uuid.UUID{c.LogicalTestID, c.OptionalLogicalTestID} {
		if id == nil {
			continue
		}
		view, err := s.catalog.GetLogicalTest(ctx, *id, candidate.PreferredLanguage)
		if err != nil {
			log.Warnw("cannot resolve logical test name", "logical_test", id, "error", err)
			return false
		}
		name := view.Name
		if name == "" {
			name = string(view.Code)
		}
		tests = append(tests, name)
	}
	if c.PersonalityTestID != nil {
		if p, err := s.store.PersonalityTest().Get(ctx, *c.PersonalityTestID); err == nil {
			tests = append(tests, p.Name)
		}
	}

	return s.notifier.SendTestAssignment(ctx, notification.TestAssignment{
		Email:    candidate.Email,
		Name:     candidate.FullName(),
		Tests:    tests,
		ExamDate: c.ExamDate,
	})
}

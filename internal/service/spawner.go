package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/notification"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/psyeval/recruitment/pkg/metrics"
	"golang.org/x/crypto/bcrypt"
)

const temporaryPasswordBytes = 12

type spawnRequest struct {
	application   model.JobApplication
	psychologueID *uuid.UUID
	previousID    *uuid.UUID
}

// CreateFromApplication opens the candidature of an approved job application.
// The application's site must exist and be active. With a psychologue the candidature goes straight to assigned.
func (s *CandidatureService) CreateFromApplication(ctx context.Context, actor authz.Actor, applicationID uuid.UUID, psychologueID *uuid.UUID) (*mappers.SpawnResult, error) {
	if err := authorize(ctx, s.authz, actor, authz.CreateCandidature, authz.Resource{}); err != nil {
		return nil, err
	}

	var result *mappers.SpawnResult
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		app, err := s.getJobApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.Status != model.JobApplicationApproved {
			return NewErrJobApplicationNotApproved(app.ID, string(app.Status))
		}
		if err := s.checkPlacement(ctx, app.SiteID, app.DepartmentID); err != nil {
			return err
		}
		result, err = s.spawn(ctx, actor, spawnRequest{application: *app, psychologueID: psychologueID})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordSpawn(ctx, result.Candidature)
	return result, nil
}

// ApproveApplication approves a pending job application and opens its
// candidature in the same transaction.
func (s *CandidatureService) ApproveApplication(ctx context.Context, actor authz.Actor, applicationID uuid.UUID, form mappers.ApprovalForm) (*mappers.SpawnResult, error) {
	if err := authorize(ctx, s.authz, actor, authz.ReviewJobApplication, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(s.validator, form); err != nil {
		return nil, err
	}

	var result *mappers.SpawnResult
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		pending, err := s.getJobApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if pending.Status == model.JobApplicationPending {
			if err := s.checkPlacement(ctx, pending.SiteID, pending.DepartmentID); err != nil {
				return err
			}
		}
		app, err := s.review(ctx, actor, applicationID, model.JobApplicationApproved, form.Comments)
		if err != nil {
			return err
		}
		result, err = s.spawn(ctx, actor, spawnRequest{application: *app, psychologueID: form.PsychologueID})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordSpawn(ctx, result.Candidature)
	return result, nil
}

func (s *CandidatureService) RejectApplication(ctx context.Context, actor authz.Actor, applicationID uuid.UUID, comments string) (*model.JobApplication, error) {
	if err := authorize(ctx, s.authz, actor, authz.ReviewJobApplication, authz.Resource{}); err != nil {
		return nil, err
	}

	var rejected *model.JobApplication
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		rejected, err = s.review(ctx, actor, applicationID, model.JobApplicationRejected, comments)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rejected, nil
}

// CreateManual opens a new pre-approved application for an existing
// candidate with its candidature. A previous candidature of the same
// candidate marks the new one as a re-evaluation; the previous one is left
// unchanged.
func (s *CandidatureService) CreateManual(ctx context.Context, actor authz.Actor, form mappers.ManualCandidatureForm) (*mappers.SpawnResult, error) {
	if err := authorize(ctx, s.authz, actor, authz.CreateCandidature, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(s.validator, form); err != nil {
		return nil, err
	}

	var result *mappers.SpawnResult
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		candidate, err := s.store.User().Get(ctx, form.CandidateID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return NewErrUserNotFound(form.CandidateID)
			}
			return err
		}
		if candidate.Role != model.RoleCandidate {
			return NewErrInvalidArgument("candidateId", "user %s is not a candidate", candidate.ID)
		}
		if err := s.checkPlacement(ctx, form.SiteID, form.DepartmentID); err != nil {
			return err
		}
		if form.PreviousCandidatureID != nil {
			if err := s.checkPrevious(ctx, *form.PreviousCandidatureID, candidate.ID); err != nil {
				return err
			}
		}

		app, err := s.createApprovedApplication(ctx, actor, candidate.ID, form.SiteID, form.DepartmentID, form.TargetPosition)
		if err != nil {
			return err
		}
		result, err = s.spawn(ctx, actor, spawnRequest{
			application:   *app,
			psychologueID: form.PsychologueID,
			previousID:    form.PreviousCandidatureID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordSpawn(ctx, result.Candidature)
	return result, nil
}

// CreateLegacy registers a walk-in candidate: account, pre-approved
// application, candidature and optionally a technical interview, in one
// transaction. The account notice is sent afterwards; when it fails the
// temporary password is handed back to the caller.
func (s *CandidatureService) CreateLegacy(ctx context.Context, actor authz.Actor, form mappers.LegacyCandidatureForm) (*mappers.LegacyResult, error) {
	if err := authorize(ctx, s.authz, actor, authz.CreateCandidature, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(s.validator, form); err != nil {
		return nil, err
	}
	if form.TechnicalInterview != nil {
		if err := validateForm(s.validator, *form.TechnicalInterview); err != nil {
			return nil, err
		}
	}

	password, err := temporaryPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash temporary password: %w", err)
	}
	language := s.catalog.languages.ResolveLanguageCode(ctx, form.PreferredLanguage)

	result := new(mappers.LegacyResult)
	err = s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.store.User().GetByEmail(ctx, form.Email); err == nil {
			return NewErrEmailRegistered(form.Email)
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}
		if err := s.checkPlacement(ctx, form.SiteID, form.DepartmentID); err != nil {
			return err
		}
		if form.TechnicalInterview != nil && form.TechnicalInterview.InterviewerID != nil {
			if _, err := s.store.User().Get(ctx, *form.TechnicalInterview.InterviewerID); err != nil {
				if errors.Is(err, store.ErrRecordNotFound) {
					return NewErrUserNotFound(*form.TechnicalInterview.InterviewerID)
				}
				return err
			}
		}

		user, err := s.store.User().Create(ctx, form.ToUser(hash, language))
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return NewErrEmailRegistered(form.Email)
			}
			return err
		}
		app, err := s.createApprovedApplication(ctx, actor, user.ID, form.SiteID, form.DepartmentID, form.TargetPosition)
		if err != nil {
			return err
		}
		spawned, err := s.spawn(ctx, actor, spawnRequest{application: *app, psychologueID: form.PsychologueID})
		if err != nil {
			return err
		}

		result.User = *user
		result.JobApplication = spawned.JobApplication
		result.Candidature = spawned.Candidature

		if form.TechnicalInterview != nil {
			interview, err := s.store.TechnicalInterview().Create(ctx, form.TechnicalInterview.ToInterview(spawned.Candidature.ID))
			if err != nil {
				return err
			}
			result.TechnicalInterview = interview
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.recordSpawn(ctx, result.Candidature)

	result.EmailSent = s.notifier.SendAccountCreated(ctx, notification.AccountCreated{
		Email:        result.User.Email,
		Name:         result.User.FullName(),
		TempPassword: password,
	})
	if !result.EmailSent {
		result.TemporaryPassword = password
	}
	return result, nil
}

// spawn creates the candidature of app and logs its creation. It must run
// inside a transaction.
func (s *CandidatureService) spawn(ctx context.Context, actor authz.Actor, req spawnRequest) (*mappers.SpawnResult, error) {
	if _, err := s.store.Candidature().GetByJobApplication(ctx, req.application.ID); err == nil {
		return nil, NewErrCandidatureExists(req.application.ID)
	} else if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	status, err := lifecycle.Transition("", lifecycle.EventCreate)
	if err != nil {
		return nil, err
	}
	c := model.Candidature{
		ID:                    uuid.New(),
		JobApplicationID:      req.application.ID,
		Status:                status,
		IsReevaluation:        req.previousID != nil,
		PreviousCandidatureID: req.previousID,
	}
	steps := []model.TransitionLog{{CandidatureID: c.ID, ToStatus: status, TransitionedBy: actor.ID, Reason: "created"}}

	if req.psychologueID != nil {
		if err := s.checkPsychologue(ctx, *req.psychologueID); err != nil {
			return nil, err
		}
		next, err := lifecycle.Transition(c.Status, lifecycle.EventAssignPsychologue)
		if err != nil {
			return nil, err
		}
		now := s.now()
		from := c.Status
		c.Status = next
		c.AssignedPsychologueID = req.psychologueID
		c.AssignedBy = &actor.ID
		c.AssignmentDate = &now
		steps = append(steps, model.TransitionLog{CandidatureID: c.ID, FromStatus: &from, ToStatus: next, TransitionedBy: actor.ID, Reason: "psychologue assigned"})
	}

	created, err := s.store.Candidature().Create(ctx, c)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrCandidatureExists(req.application.ID)
		}
		return nil, err
	}
	for _, step := range steps {
		if _, err := s.store.TransitionLog().Create(ctx, step); err != nil {
			return nil, err
		}
	}
	return &mappers.SpawnResult{JobApplication: req.application, Candidature: *created}, nil
}

func (s *CandidatureService) recordSpawn(ctx context.Context, c model.Candidature) {
	metrics.IncreaseCandidatureTransitionsTotalMetric(string(lifecycle.EventCreate), string(lifecycle.StatusPending))
	if c.Status != lifecycle.StatusPending {
		metrics.IncreaseCandidatureTransitionsTotalMetric(string(lifecycle.EventAssignPsychologue), string(c.Status))
	}
	logger(ctx, "candidature_service").Infow("candidature created", "id", c.ID, "job_application", c.JobApplicationID, "status", c.Status)
}

// review settles a pending job application.
func (s *CandidatureService) review(ctx context.Context, actor authz.Actor, id uuid.UUID, outcome model.JobApplicationStatus, comments string) (*model.JobApplication, error) {
	app, err := s.getJobApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.Status != model.JobApplicationPending {
		return nil, &ErrPreconditionFailed{
			error:    fmt.Errorf("job application %s is %s: requires pending", id, app.Status),
			Current:  string(app.Status),
			Required: []string{string(model.JobApplicationPending)},
		}
	}

	now := s.now()
	app.Status = outcome
	app.ReviewedBy = &actor.ID
	app.ReviewedAt = &now
	if comments != "" {
		app.ReviewComments = &comments
	}
	return s.store.JobApplication().Update(ctx, *app)
}

func (s *CandidatureService) createApprovedApplication(ctx context.Context, actor authz.Actor, candidateID, siteID uuid.UUID, departmentID *uuid.UUID, position string) (*model.JobApplication, error) {
	now := s.now()
	return s.store.JobApplication().Create(ctx, model.JobApplication{
		CandidateID:    candidateID,
		SiteID:         siteID,
		DepartmentID:   departmentID,
		TargetPosition: position,
		Status:         model.JobApplicationApproved,
		ReviewedBy:     &actor.ID,
		ReviewedAt:     &now,
	})
}

// checkPlacement requires an active site and, when given, a department of
// that site.
func (s *CandidatureService) checkPlacement(ctx context.Context, siteID uuid.UUID, departmentID *uuid.UUID) error {
	site, err := s.store.Site().GetSite(ctx, siteID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrSiteNotFound(siteID)
		}
		return err
	}
	if !site.IsActive {
		return NewErrInvalidArgument("siteId", "site %s is inactive", siteID)
	}
	if departmentID == nil {
		return nil
	}

	dep, err := s.store.Site().GetDepartment(ctx, *departmentID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrDepartmentNotFound(*departmentID)
		}
		return err
	}
	if dep.SiteID != siteID {
		return NewErrInvalidArgument("departmentId", "department %s does not belong to site %s", dep.ID, siteID)
	}
	return nil
}

func (s *CandidatureService) checkPrevious(ctx context.Context, previousID, candidateID uuid.UUID) error {
	previous, err := s.getCandidature(ctx, previousID)
	if err != nil {
		return err
	}
	app, err := s.getJobApplication(ctx, previous.JobApplicationID)
	if err != nil {
		return err
	}
	if app.CandidateID != candidateID {
		return NewErrInvalidArgument("previousCandidatureId", "candidature %s belongs to another candidate", previousID)
	}
	return nil
}

func (s *CandidatureService) getJobApplication(ctx context.Context, id uuid.UUID) (*model.JobApplication, error) {
	app, err := s.store.JobApplication().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrJobApplicationNotFound(id)
		}
		return nil, err
	}
	return app, nil
}

func temporaryPassword() (string, error) {
	buf := make([]byte, temporaryPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate temporary password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

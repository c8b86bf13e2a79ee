package service

import (
	"context"
	"time"

	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
)

// Dashboard counts candidatures by status for the actor's assignments and
// globally, plus the exams scheduled today (UTC) that are still to be taken.
func (s *CandidatureService) Dashboard(ctx context.Context, actor authz.Actor) (*mappers.Dashboard, error) {
	if err := authorize(ctx, s.authz, actor, authz.ReadDashboard, authz.Resource{}); err != nil {
		return nil, err
	}

	mine, err := s.store.Candidature().CountByStatus(ctx, store.NewCandidatureQueryFilter().ByPsychologue(actor.ID))
	if err != nil {
		return nil, err
	}
	global, err := s.store.Candidature().CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}

	dayStart := s.now().UTC().Truncate(24 * time.Hour)
	today, err := s.store.Candidature().Count(ctx, store.NewCandidatureQueryFilter().
		ByStatus(lifecycle.StatusAssigned, lifecycle.StatusInProgress).
		ByExamDateBetween(dayStart, dayStart.Add(24*time.Hour)))
	if err != nil {
		return nil, err
	}

	return &mappers.Dashboard{
		Mine:       withEveryStatus(mine),
		Global:     withEveryStatus(global),
		ExamsToday: today,
	}, nil
}

func withEveryStatus(counts map[lifecycle.Status]int64) map[lifecycle.Status]int64 {
	out := make(map[lifecycle.Status]int64, len(lifecycle.Statuses))
	for _, st := range lifecycle.Statuses {
		out[st] = counts[st]
	}
	return out
}

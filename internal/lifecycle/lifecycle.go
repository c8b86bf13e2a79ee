// Package lifecycle holds the candidature status graph.
//
//	pending ──► assigned ──► in_progress ──► completed ──► in_review ──► evaluated ──► archived
//	                                              │                          ▲
//	                                              └──────────────────────────┘
//
// archived is terminal. Every legal move is declared in the rules table below;
// callers never compare statuses themselves.
package lifecycle

import (
	"fmt"
	"slices"
	"strings"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusInReview   Status = "in_review"
	StatusEvaluated  Status = "evaluated"
	StatusArchived   Status = "archived"
)

// Statuses lists every status in graph order.
var Statuses = []Status{
	StatusPending,
	StatusAssigned,
	StatusInProgress,
	StatusCompleted,
	StatusInReview,
	StatusEvaluated,
	StatusArchived,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if slices.Contains(Statuses, st) {
		return st, nil
	}
	return "", fmt.Errorf("unknown candidature status %q", s)
}

func (s Status) String() string { return string(s) }

// Rank is the position of the status in graph order, -1 when unknown.
func (s Status) Rank() int {
	return slices.Index(Statuses, s)
}

// AtLeast reports whether s is at or beyond other in graph order.
func (s Status) AtLeast(other Status) bool {
	return s.Rank() >= other.Rank() && s.Rank() >= 0
}

func (s Status) IsTerminal() bool { return s == StatusArchived }

type Event string

const (
	EventCreate            Event = "create"
	EventAssignPsychologue Event = "assign_psychologue"
	EventAssignTests       Event = "assign_tests"
	EventStart             Event = "start"
	EventComplete          Event = "complete"
	EventSubmitForReview   Event = "submit_for_review"
	EventDecide            Event = "decide"
	EventArchive           Event = "archive"
)

type rule struct {
	from []Status
	to   Status
	// advancing restricts the status change to these origins; every other
	// allowed origin keeps its status. nil means every origin advances.
	advancing []Status
}

var rules = map[Event]rule{
	EventCreate: {
		from: []Status{""},
		to:   StatusPending,
	},
	EventAssignPsychologue: {
		from: []Status{
			StatusPending,
			StatusAssigned,
			StatusInProgress,
			StatusCompleted,
			StatusInReview,
			StatusEvaluated,
		},
		to:        StatusAssigned,
		advancing: []Status{StatusPending},
	},
	EventAssignTests: {
		from: []Status{StatusPending, StatusAssigned},
		to:   StatusAssigned,
	},
	EventStart: {
		from: []Status{StatusAssigned},
		to:   StatusInProgress,
	},
	EventComplete: {
		from: []Status{StatusInProgress},
		to:   StatusCompleted,
	},
	EventSubmitForReview: {
		from: []Status{StatusCompleted},
		to:   StatusInReview,
	},
	EventDecide: {
		from: []Status{StatusCompleted, StatusInReview},
		to:   StatusEvaluated,
	},
	EventArchive: {
		from: []Status{StatusEvaluated},
		to:   StatusArchived,
	},
}

// ErrIllegalTransition is returned when an event is fired from a status that
// does not allow it.
type ErrIllegalTransition struct {
	Event    Event
	Current  Status
	Required []Status
}

func (e *ErrIllegalTransition) Error() string {
	required := make([]string, 0, len(e.Required))
	for _, s := range e.Required {
		required = append(required, string(s))
	}
	current := string(e.Current)
	if current == "" {
		current = "<none>"
	}
	return fmt.Sprintf("cannot %s candidature in status %s: requires one of [%s]",
		strings.ReplaceAll(string(e.Event), "_", " "), current, strings.Join(required, ", "))
}

// Transition computes the status reached by firing ev from current.
func Transition(current Status, ev Event) (Status, error) {
	r, ok := rules[ev]
	if !ok {
		return current, fmt.Errorf("unknown candidature event %q", ev)
	}

	if !slices.Contains(r.from, current) {
		return current, &ErrIllegalTransition{Event: ev, Current: current, Required: slices.Clone(r.from)}
	}

	if r.advancing != nil && !slices.Contains(r.advancing, current) {
		return current, nil
	}

	return r.to, nil
}

// Allowed returns the statuses ev may be fired from.
func Allowed(ev Event) []Status {
	return slices.Clone(rules[ev].from)
}

// IsLegalStep reports whether some event moves a candidature from `from` to
// `to`. Used to audit transition logs.
func IsLegalStep(from, to Status) bool {
	if from == to {
		return false
	}
	for ev := range rules {
		next, err := Transition(from, ev)
		if err == nil && next == to {
			return true
		}
	}
	return false
}

type Decision string

const (
	DecisionFavorable   Decision = "favorable"
	DecisionUnfavorable Decision = "unfavorable"
)

func ParseDecision(s string) (Decision, error) {
	switch d := Decision(s); d {
	case DecisionFavorable, DecisionUnfavorable:
		return d, nil
	}
	return "", fmt.Errorf("unknown decision %q", s)
}

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/lifecycle"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id fmt.Stringer, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrCandidatureNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "candidature")
}

func NewErrJobApplicationNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job application")
}

func NewErrLogicalTestNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "logical test")
}

func NewErrPersonalityTestNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "personality test")
}

func NewErrUserNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "user")
}

func NewErrSiteNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "site")
}

func NewErrDepartmentNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "department")
}

func NewErrLanguageNotFound(code string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("language %s not found", code)}
}

func NewErrTranslationNotFound(parentID uuid.UUID, languageCode string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("translation %s of %s not found", languageCode, parentID)}
}

func NewErrScoreNotClassified(testID uuid.UUID, score int) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("no classification of logical test %s covers score %d", testID, score)}
}

type ErrConflict struct {
	error
}

func NewErrConflict(format string, args ...any) *ErrConflict {
	return &ErrConflict{fmt.Errorf(format, args...)}
}

func NewErrCandidatureExists(jobApplicationID uuid.UUID) *ErrConflict {
	return NewErrConflict("job application %s already has a candidature", jobApplicationID)
}

func NewErrEmailRegistered(email string) *ErrConflict {
	return NewErrConflict("email %s is already registered", email)
}

func NewErrConcurrentUpdate(id uuid.UUID) *ErrConflict {
	return NewErrConflict("candidature %s was modified concurrently, retry with a fresh copy", id)
}

// ErrPreconditionFailed reports an operation attempted from a status that
// does not permit it.
type ErrPreconditionFailed struct {
	error
	Current  string
	Required []string
}

func NewErrPreconditionFailed(format string, args ...any) *ErrPreconditionFailed {
	return &ErrPreconditionFailed{error: fmt.Errorf(format, args...)}
}

func newErrIllegalTransition(err *lifecycle.ErrIllegalTransition) *ErrPreconditionFailed {
	required := make([]string, 0, len(err.Required))
	for _, s := range err.Required {
		required = append(required, string(s))
	}
	return &ErrPreconditionFailed{error: err, Current: string(err.Current), Required: required}
}

func NewErrJobApplicationNotApproved(id uuid.UUID, status string) *ErrPreconditionFailed {
	return &ErrPreconditionFailed{
		error:    fmt.Errorf("job application %s is %s: requires approved", id, status),
		Current:  status,
		Required: []string{"approved"},
	}
}

func newErrExamNotSchedulable(id uuid.UUID, current lifecycle.Status) *ErrPreconditionFailed {
	var required []string
	for _, st := range lifecycle.Statuses {
		if st.AtLeast(lifecycle.StatusAssigned) && !st.IsTerminal() {
			required = append(required, string(st))
		}
	}
	return &ErrPreconditionFailed{
		error:    fmt.Errorf("cannot schedule an exam for candidature %s in status %s", id, current),
		Current:  string(current),
		Required: required,
	}
}

type ErrInvalidArgument struct {
	error
	Field string
}

func NewErrInvalidArgument(field string, format string, args ...any) *ErrInvalidArgument {
	return &ErrInvalidArgument{error: fmt.Errorf(format, args...), Field: field}
}

// ErrInvalidRange names the classification whose score range is invalid or
// overlaps its predecessor.
type ErrInvalidRange struct {
	*ErrInvalidArgument
	DisplayOrder int
}

func NewErrInvalidRange(displayOrder int, format string, args ...any) *ErrInvalidRange {
	return &ErrInvalidRange{
		ErrInvalidArgument: NewErrInvalidArgument("classifications", format, args...),
		DisplayOrder:       displayOrder,
	}
}

func (e *ErrInvalidRange) Unwrap() error { return e.ErrInvalidArgument }

// ErrInvalidLanguageCodes lists every code that is unknown or inactive.
type ErrInvalidLanguageCodes struct {
	*ErrInvalidArgument
	Codes []string
}

func NewErrInvalidLanguageCodes(codes []string) *ErrInvalidLanguageCodes {
	return &ErrInvalidLanguageCodes{
		ErrInvalidArgument: NewErrInvalidArgument("languageCode", "invalid or inactive language codes: %s", strings.Join(codes, ", ")),
		Codes:              codes,
	}
}

func (e *ErrInvalidLanguageCodes) Unwrap() error { return e.ErrInvalidArgument }

type ErrLastTranslation struct {
	error
}

func NewErrLastTranslation(parentID uuid.UUID, languageCode string) *ErrLastTranslation {
	return &ErrLastTranslation{fmt.Errorf("cannot delete translation %s: it is the last translation of %s", languageCode, parentID)}
}

type ErrForbidden struct {
	error
}

func NewErrForbidden(actorID uuid.UUID, action string) *ErrForbidden {
	return &ErrForbidden{fmt.Errorf("user %s is not allowed to %s", actorID, action)}
}

// IsInvalidArgument matches every validation failure, including invalid
// ranges and language codes.
func IsInvalidArgument(err error) bool {
	var target *ErrInvalidArgument
	return errors.As(err, &target)
}

package service

import (
	"context"
	"errors"
	"slices"

	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/psyeval/recruitment/internal/validator"
	"github.com/thoas/go-funk"
)

// LanguageService owns the language registry. Exactly one language is the
// default; it is always active.
type LanguageService struct {
	store     store.Store
	authz     *authz.Authorizer
	validator *validator.Validator
	// fallback is returned when the registry has no default at all.
	fallback string
	changed  []func(ctx context.Context)
}

func NewLanguageService(s store.Store, a *authz.Authorizer, fallback string) *LanguageService {
	return &LanguageService{store: s, authz: a, validator: newValidator(), fallback: fallback}
}

// OnChange registers a hook run after the default or the set of active
// languages changed.
func (l *LanguageService) OnChange(fn func(ctx context.Context)) *LanguageService {
	l.changed = append(l.changed, fn)
	return l
}

func (l *LanguageService) notifyChanged(ctx context.Context) {
	for _, fn := range l.changed {
		fn(ctx)
	}
}

// DefaultLanguageCode never fails: a missing default yields the fallback code.
func (l *LanguageService) DefaultLanguageCode(ctx context.Context) string {
	def, err := l.store.Language().GetDefault(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			logger(ctx, "language_service").Warnw("cannot read default language", "error", err)
		}
		return l.fallback
	}
	return def.Code
}

// ResolveLanguageCode returns requested when it names an active language and
// the default language otherwise.
func (l *LanguageService) ResolveLanguageCode(ctx context.Context, requested string) string {
	if requested != "" {
		lang, err := l.store.Language().Get(ctx, requested)
		if err == nil && lang.IsActive {
			return lang.Code
		}
	}
	return l.DefaultLanguageCode(ctx)
}

// ValidateLanguageCodes checks that every code is registered and active and
// reports all offending codes at once.
func (l *LanguageService) ValidateLanguageCodes(ctx context.Context, codes []string) error {
	unique := funk.UniqString(codes)
	if len(unique) == 0 {
		return nil
	}

	active, err := l.store.Language().List(ctx, store.NewLanguageQueryFilter().ActiveOnly().ByCodes(unique...))
	if err != nil {
		return err
	}
	known := make([]string, 0, len(active))
	for _, lang := range active {
		known = append(known, lang.Code)
	}

	invalid, _ := funk.DifferenceString(unique, known)
	if len(invalid) > 0 {
		slices.Sort(invalid)
		return NewErrInvalidLanguageCodes(invalid)
	}
	return nil
}

func (l *LanguageService) ListLanguages(ctx context.Context, activeOnly bool) ([]model.Language, error) {
	filter := store.NewLanguageQueryFilter()
	if activeOnly {
		filter = filter.ActiveOnly()
	}
	return l.store.Language().List(ctx, filter)
}

func (l *LanguageService) CreateLanguage(ctx context.Context, actor authz.Actor, form mappers.LanguageForm) (*model.Language, error) {
	if err := authorize(ctx, l.authz, actor, authz.ManageLanguages, authz.Resource{}); err != nil {
		return nil, err
	}
	if err := validateForm(l.validator, form); err != nil {
		return nil, err
	}

	lang, err := l.store.Language().Create(ctx, form.ToLanguage())
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, NewErrConflict("language %s already exists", form.Code)
		}
		return nil, err
	}
	return lang, nil
}

func (l *LanguageService) ActivateLanguage(ctx context.Context, actor authz.Actor, code string) error {
	if err := authorize(ctx, l.authz, actor, authz.ManageLanguages, authz.Resource{}); err != nil {
		return err
	}
	if err := l.store.Language().SetActive(ctx, code, true); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrLanguageNotFound(code)
		}
		return err
	}
	l.notifyChanged(ctx)
	return nil
}

// DeactivateLanguage refuses the default language.
func (l *LanguageService) DeactivateLanguage(ctx context.Context, actor authz.Actor, code string) error {
	if err := authorize(ctx, l.authz, actor, authz.ManageLanguages, authz.Resource{}); err != nil {
		return err
	}

	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		lang, err := l.store.Language().Get(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return NewErrLanguageNotFound(code)
			}
			return err
		}
		if lang.IsDefault {
			return NewErrPreconditionFailed("language %s is the default language and cannot be deactivated", code)
		}
		return l.store.Language().SetActive(ctx, code, false)
	})
	if err != nil {
		return err
	}
	l.notifyChanged(ctx)
	return nil
}

// SetDefaultLanguage moves the default flag atomically. The target must be
// active.
func (l *LanguageService) SetDefaultLanguage(ctx context.Context, actor authz.Actor, code string) error {
	if err := authorize(ctx, l.authz, actor, authz.ManageLanguages, authz.Resource{}); err != nil {
		return err
	}

	moved := false
	err := l.store.WithinTransaction(ctx, func(ctx context.Context) error {
		lang, err := l.store.Language().Get(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return NewErrLanguageNotFound(code)
			}
			return err
		}
		if !lang.IsActive {
			return NewErrPreconditionFailed("language %s is inactive and cannot become the default", code)
		}
		if lang.IsDefault {
			return nil
		}
		moved = true
		return l.store.Language().SetDefault(ctx, code)
	})
	if err != nil {
		return err
	}
	if moved {
		l.notifyChanged(ctx)
	}
	return nil
}

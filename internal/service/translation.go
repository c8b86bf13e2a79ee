package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
)

// TranslationResolver reads and writes one family of translations with the
// language fallback rule: requested language when active, else the default.
type TranslationResolver[T model.Translation] struct {
	store     store.Store
	languages *LanguageService
	family    func(store.Store) store.Translations[T]
	// changed runs after a committed write, outside the transaction.
	changed func(ctx context.Context, parentID uuid.UUID)
}

func NewTranslationResolver[T model.Translation](s store.Store, languages *LanguageService, family func(store.Store) store.Translations[T]) *TranslationResolver[T] {
	return &TranslationResolver[T]{store: s, languages: languages, family: family}
}

// OnChange registers the hook run after every upsert or delete.
func (r *TranslationResolver[T]) OnChange(fn func(ctx context.Context, parentID uuid.UUID)) *TranslationResolver[T] {
	r.changed = fn
	return r
}

func (r *TranslationResolver[T]) translations() store.Translations[T] {
	return r.family(r.store)
}

// Get returns nil without error when the parent has neither a translation in
// the resolved language nor one in the default language.
func (r *TranslationResolver[T]) Get(ctx context.Context, parentID uuid.UUID, requested string) (*T, error) {
	resolved := r.languages.ResolveLanguageCode(ctx, requested)
	t, err := r.translations().Get(ctx, parentID, resolved)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, err
	}

	def := r.languages.DefaultLanguageCode(ctx)
	if def == resolved {
		return nil, nil
	}
	t, err = r.translations().Get(ctx, parentID, def)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// GetBatch resolves the language once and needs at most two lookups: one at
// the resolved language and one at the default language for the parents
// still missing. Parents absent from the result have no reachable content.
func (r *TranslationResolver[T]) GetBatch(ctx context.Context, parentIDs []uuid.UUID, requested string) (map[uuid.UUID]T, error) {
	result := make(map[uuid.UUID]T, len(parentIDs))
	if len(parentIDs) == 0 {
		return result, nil
	}

	resolved := r.languages.ResolveLanguageCode(ctx, requested)
	rows, err := r.translations().ListByParents(ctx, parentIDs, resolved)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ParentKey()] = row
	}

	missing := make([]uuid.UUID, 0, len(parentIDs)-len(result))
	for _, id := range parentIDs {
		if _, found := result[id]; !found {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	def := r.languages.DefaultLanguageCode(ctx)
	if def == resolved {
		return result, nil
	}
	rows, err = r.translations().ListByParents(ctx, missing, def)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ParentKey()] = row
	}
	return result, nil
}

func (r *TranslationResolver[T]) List(ctx context.Context, parentID uuid.UUID) ([]T, error) {
	return r.translations().ListByParent(ctx, parentID)
}

// Upsert writes items after checking that every language code is registered
// and active, then runs the change hook.
func (r *TranslationResolver[T]) Upsert(ctx context.Context, items []T) error {
	if err := r.write(ctx, items); err != nil {
		return err
	}

	parents := make(map[uuid.UUID]struct{})
	for _, item := range items {
		parents[item.ParentKey()] = struct{}{}
	}
	for id := range parents {
		r.notify(ctx, id)
	}
	return nil
}

// Delete refuses to remove the last remaining translation of a parent,
// whatever its language. The default-language translation may go while
// another one remains; reads then fall back to nothing for languages the
// parent lacks.
func (r *TranslationResolver[T]) Delete(ctx context.Context, parentID uuid.UUID, languageCode string) error {
	err := r.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.translations().Get(ctx, parentID, languageCode); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return NewErrTranslationNotFound(parentID, languageCode)
			}
			return err
		}
		count, err := r.translations().Count(ctx, parentID)
		if err != nil {
			return err
		}
		if count <= 1 {
			return NewErrLastTranslation(parentID, languageCode)
		}
		return r.translations().Delete(ctx, parentID, languageCode)
	})
	if err != nil {
		return err
	}
	r.notify(ctx, parentID)
	return nil
}

// write is Upsert without the change hook, for callers composing it into a
// larger transaction.
func (r *TranslationResolver[T]) write(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}
	type slot struct {
		parent   uuid.UUID
		language string
	}
	seen := make(map[slot]bool, len(items))
	codes := make([]string, 0, len(items))
	for _, item := range items {
		key := slot{parent: item.ParentKey(), language: item.Language()}
		if seen[key] {
			return NewErrInvalidArgument("languageCode", "translation %s of %s given more than once", key.language, key.parent)
		}
		seen[key] = true
		codes = append(codes, item.Language())
	}
	if err := r.languages.ValidateLanguageCodes(ctx, codes); err != nil {
		return err
	}
	return r.translations().Upsert(ctx, items)
}

func (r *TranslationResolver[T]) notify(ctx context.Context, parentID uuid.UUID) {
	if r.changed != nil {
		r.changed(ctx, parentID)
	}
}

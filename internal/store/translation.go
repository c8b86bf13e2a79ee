package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Translations persists one family of localized rows keyed by
// (parent id, language code).
type Translations[T model.Translation] interface {
	ListByParent(ctx context.Context, parentID uuid.UUID) ([]T, error)
	Get(ctx context.Context, parentID uuid.UUID, languageCode string) (*T, error)
	// ListByParents fetches every translation of parentIDs in one language
	// with a single query.
	ListByParents(ctx context.Context, parentIDs []uuid.UUID, languageCode string) ([]T, error)
	Upsert(ctx context.Context, items []T) error
	Delete(ctx context.Context, parentID uuid.UUID, languageCode string) error
	DeleteByParents(ctx context.Context, parentIDs []uuid.UUID) error
	Count(ctx context.Context, parentID uuid.UUID) (int64, error)
}

type TranslationStore[T model.Translation] struct {
	db *gorm.DB
}

// Make sure we conform to Translations interface
var _ Translations[model.LogicalTestTranslation] = (*TranslationStore[model.LogicalTestTranslation])(nil)

func NewTranslationStore[T model.Translation](db *gorm.DB) Translations[T] {
	return &TranslationStore[T]{db: db}
}

func (s *TranslationStore[T]) parentColumn() string {
	var zero T
	return zero.ParentColumn()
}

func (s *TranslationStore[T]) ListByParent(ctx context.Context, parentID uuid.UUID) ([]T, error) {
	var rows []T
	result := getDB(ctx, s.db).
		Where(s.parentColumn()+" = ?", parentID).
		Order("language_code").
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

func (s *TranslationStore[T]) Get(ctx context.Context, parentID uuid.UUID, languageCode string) (*T, error) {
	var row T
	result := getDB(ctx, s.db).
		Where(s.parentColumn()+" = ? AND language_code = ?", parentID, languageCode).
		First(&row)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &row, nil
}

func (s *TranslationStore[T]) ListByParents(ctx context.Context, parentIDs []uuid.UUID, languageCode string) ([]T, error) {
	if len(parentIDs) == 0 {
		return []T{}, nil
	}

	var rows []T
	result := getDB(ctx, s.db).
		Where(s.parentColumn()+" IN ? AND language_code = ?", parentIDs, languageCode).
		Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

func (s *TranslationStore[T]) Upsert(ctx context.Context, items []T) error {
	if len(items) == 0 {
		return nil
	}

	result := getDB(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: s.parentColumn()}, {Name: "language_code"}},
		UpdateAll: true,
	}).Create(&items)
	return result.Error
}

func (s *TranslationStore[T]) Delete(ctx context.Context, parentID uuid.UUID, languageCode string) error {
	result := getDB(ctx, s.db).
		Where(s.parentColumn()+" = ? AND language_code = ?", parentID, languageCode).
		Delete(new(T))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *TranslationStore[T]) DeleteByParents(ctx context.Context, parentIDs []uuid.UUID) error {
	if len(parentIDs) == 0 {
		return nil
	}
	return getDB(ctx, s.db).Where(s.parentColumn()+" IN ?", parentIDs).Delete(new(T)).Error
}

func (s *TranslationStore[T]) Count(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	result := getDB(ctx, s.db).Model(new(T)).Where(s.parentColumn()+" = ?", parentID).Count(&count)
	return count, result.Error
}

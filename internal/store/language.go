package store

import (
	"context"

	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type Language interface {
	List(ctx context.Context, filter *LanguageQueryFilter) ([]model.Language, error)
	Get(ctx context.Context, code string) (*model.Language, error)
	GetDefault(ctx context.Context) (*model.Language, error)
	Create(ctx context.Context, language model.Language) (*model.Language, error)
	SetActive(ctx context.Context, code string, active bool) error
	// SetDefault moves the default flag to code. It clears the previous
	// default first and must run inside a transaction.
	SetDefault(ctx context.Context, code string) error
}

type LanguageStore struct {
	db *gorm.DB
}

// Make sure we conform to Language interface
var _ Language = (*LanguageStore)(nil)

func NewLanguageStore(db *gorm.DB) Language {
	return &LanguageStore{db: db}
}

func (l *LanguageStore) List(ctx context.Context, filter *LanguageQueryFilter) ([]model.Language, error) {
	var languages []model.Language
	tx := getDB(ctx, l.db).Model(&languages).Order("code")
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Find(&languages).Error; err != nil {
		return nil, err
	}
	return languages, nil
}

func (l *LanguageStore) Get(ctx context.Context, code string) (*model.Language, error) {
	var language model.Language
	if err := getDB(ctx, l.db).First(&language, "code = ?", code).Error; err != nil {
		return nil, translateError(err)
	}
	return &language, nil
}

func (l *LanguageStore) GetDefault(ctx context.Context) (*model.Language, error) {
	var language model.Language
	if err := getDB(ctx, l.db).First(&language, "is_default = ?", true).Error; err != nil {
		return nil, translateError(err)
	}
	return &language, nil
}

func (l *LanguageStore) Create(ctx context.Context, language model.Language) (*model.Language, error) {
	if err := getDB(ctx, l.db).Create(&language).Error; err != nil {
		return nil, translateError(err)
	}
	return &language, nil
}

func (l *LanguageStore) SetActive(ctx context.Context, code string, active bool) error {
	result := getDB(ctx, l.db).Model(&model.Language{}).Where("code = ?", code).Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (l *LanguageStore) SetDefault(ctx context.Context, code string) error {
	db := getDB(ctx, l.db)
	if err := db.Model(&model.Language{}).Where("is_default = ?", true).Update("is_default", false).Error; err != nil {
		return err
	}

	result := db.Model(&model.Language{}).Where("code = ?", code).Update("is_default", true)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

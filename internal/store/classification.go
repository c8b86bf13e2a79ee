package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type Classification interface {
	ListByTest(ctx context.Context, testID uuid.UUID) ([]model.ScoreClassification, error)
	// ReplaceForTest deletes the test's classifications with their
	// translations and inserts the given set. Callers run it inside a
	// transaction.
	ReplaceForTest(ctx context.Context, testID uuid.UUID, classifications []model.ScoreClassification, translations []model.ScoreClassificationTranslation) error
}

type ClassificationStore struct {
	db *gorm.DB
}

// Make sure we conform to Classification interface
var _ Classification = (*ClassificationStore)(nil)

func NewClassificationStore(db *gorm.DB) Classification {
	return &ClassificationStore{db: db}
}

func (c *ClassificationStore) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.ScoreClassification, error) {
	var classifications []model.ScoreClassification
	result := getDB(ctx, c.db).
		Where("logical_test_id = ?", testID).
		Order("display_order").
		Find(&classifications)
	if result.Error != nil {
		return nil, result.Error
	}
	return classifications, nil
}

func (c *ClassificationStore) ReplaceForTest(ctx context.Context, testID uuid.UUID, classifications []model.ScoreClassification, translations []model.ScoreClassificationTranslation) error {
	db := getDB(ctx, c.db)

	existing := db.Model(&model.ScoreClassification{}).Select("id").Where("logical_test_id = ?", testID)
	if err := db.Where("classification_id IN (?)", existing).Delete(&model.ScoreClassificationTranslation{}).Error; err != nil {
		return err
	}
	if err := db.Where("logical_test_id = ?", testID).Delete(&model.ScoreClassification{}).Error; err != nil {
		return err
	}

	if len(classifications) == 0 {
		return nil
	}
	if err := db.Create(&classifications).Error; err != nil {
		return translateError(err)
	}
	if len(translations) == 0 {
		return nil
	}
	return translateError(db.Create(&translations).Error)
}

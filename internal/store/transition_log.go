package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type TransitionLog interface {
	Create(ctx context.Context, entry model.TransitionLog) (*model.TransitionLog, error)
	// ListByCandidature returns the audit trail, most recent first.
	ListByCandidature(ctx context.Context, candidatureID uuid.UUID) ([]model.TransitionLog, error)
}

type TransitionLogStore struct {
	db *gorm.DB
}

// Make sure we conform to TransitionLog interface
var _ TransitionLog = (*TransitionLogStore)(nil)

func NewTransitionLogStore(db *gorm.DB) TransitionLog {
	return &TransitionLogStore{db: db}
}

func (t *TransitionLogStore) Create(ctx context.Context, entry model.TransitionLog) (*model.TransitionLog, error) {
	if err := getDB(ctx, t.db).Create(&entry).Error; err != nil {
		return nil, translateError(err)
	}
	return &entry, nil
}

func (t *TransitionLogStore) ListByCandidature(ctx context.Context, candidatureID uuid.UUID) ([]model.TransitionLog, error) {
	var entries []model.TransitionLog
	result := getDB(ctx, t.db).
		Where("candidature_id = ?", candidatureID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type TechnicalInterview interface {
	Create(ctx context.Context, interview model.TechnicalInterview) (*model.TechnicalInterview, error)
	GetByCandidature(ctx context.Context, candidatureID uuid.UUID) (*model.TechnicalInterview, error)
}

type TechnicalInterviewStore struct {
	db *gorm.DB
}

// Make sure we conform to TechnicalInterview interface
var _ TechnicalInterview = (*TechnicalInterviewStore)(nil)

func NewTechnicalInterviewStore(db *gorm.DB) TechnicalInterview {
	return &TechnicalInterviewStore{db: db}
}

func (t *TechnicalInterviewStore) Create(ctx context.Context, interview model.TechnicalInterview) (*model.TechnicalInterview, error) {
	if interview.ID == uuid.Nil {
		interview.ID = uuid.New()
	}
	if err := getDB(ctx, t.db).Create(&interview).Error; err != nil {
		return nil, translateError(err)
	}
	return &interview, nil
}

func (t *TechnicalInterviewStore) GetByCandidature(ctx context.Context, candidatureID uuid.UUID) (*model.TechnicalInterview, error) {
	var interview model.TechnicalInterview
	if err := getDB(ctx, t.db).First(&interview, "candidature_id = ?", candidatureID).Error; err != nil {
		return nil, translateError(err)
	}
	return &interview, nil
}

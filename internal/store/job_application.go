package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type JobApplication interface {
	Get(ctx context.Context, id uuid.UUID) (*model.JobApplication, error)
	Create(ctx context.Context, application model.JobApplication) (*model.JobApplication, error)
	Update(ctx context.Context, application model.JobApplication) (*model.JobApplication, error)
}

type JobApplicationStore struct {
	db *gorm.DB
}

// Make sure we conform to JobApplication interface
var _ JobApplication = (*JobApplicationStore)(nil)

func NewJobApplicationStore(db *gorm.DB) JobApplication {
	return &JobApplicationStore{db: db}
}

func (j *JobApplicationStore) Get(ctx context.Context, id uuid.UUID) (*model.JobApplication, error) {
	var application model.JobApplication
	if err := getDB(ctx, j.db).First(&application, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &application, nil
}

func (j *JobApplicationStore) Create(ctx context.Context, application model.JobApplication) (*model.JobApplication, error) {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	if err := getDB(ctx, j.db).Create(&application).Error; err != nil {
		return nil, translateError(err)
	}
	return &application, nil
}

func (j *JobApplicationStore) Update(ctx context.Context, application model.JobApplication) (*model.JobApplication, error) {
	result := getDB(ctx, j.db).Model(&application).Select("*").Omit("created_at").Updates(&application)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &application, nil
}

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type Candidature interface {
	List(ctx context.Context, filter *CandidatureQueryFilter, opts *CandidatureQueryOptions) (model.CandidatureList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Candidature, error)
	GetByJobApplication(ctx context.Context, jobApplicationID uuid.UUID) (*model.Candidature, error)
	Create(ctx context.Context, candidature model.Candidature) (*model.Candidature, error)
	// Update writes every column if the stored version still matches
	// candidature.Version, then bumps it. A mismatch yields ErrConcurrentUpdate.
	Update(ctx context.Context, candidature model.Candidature) (*model.Candidature, error)
	CountByStatus(ctx context.Context, filter *CandidatureQueryFilter) (map[lifecycle.Status]int64, error)
	Count(ctx context.Context, filter *CandidatureQueryFilter) (int64, error)
}

type CandidatureStore struct {
	db *gorm.DB
}

// Make sure we conform to Candidature interface
var _ Candidature = (*CandidatureStore)(nil)

func NewCandidatureStore(db *gorm.DB) Candidature {
	return &CandidatureStore{db: db}
}

func (c *CandidatureStore) List(ctx context.Context, filter *CandidatureQueryFilter, opts *CandidatureQueryOptions) (model.CandidatureList, error) {
	var candidatures model.CandidatureList
	tx := getDB(ctx, c.db).Model(&candidatures)
	if filter != nil {
		tx = filter.apply(tx)
	}
	if opts != nil {
		tx = opts.apply(tx)
	} else {
		tx = tx.Order("created_at DESC").Order("id")
	}
	if err := tx.Find(&candidatures).Error; err != nil {
		return nil, err
	}
	return candidatures, nil
}

func (c *CandidatureStore) Get(ctx context.Context, id uuid.UUID) (*model.Candidature, error) {
	var candidature model.Candidature
	if err := getDB(ctx, c.db).First(&candidature, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &candidature, nil
}

func (c *CandidatureStore) GetByJobApplication(ctx context.Context, jobApplicationID uuid.UUID) (*model.Candidature, error) {
	var candidature model.Candidature
	if err := getDB(ctx, c.db).First(&candidature, "job_application_id = ?", jobApplicationID).Error; err != nil {
		return nil, translateError(err)
	}
	return &candidature, nil
}

func (c *CandidatureStore) Create(ctx context.Context, candidature model.Candidature) (*model.Candidature, error) {
	if candidature.ID == uuid.Nil {
		candidature.ID = uuid.New()
	}
	candidature.Version = 1
	if err := getDB(ctx, c.db).Create(&candidature).Error; err != nil {
		return nil, translateError(err)
	}
	return &candidature, nil
}

func (c *CandidatureStore) Update(ctx context.Context, candidature model.Candidature) (*model.Candidature, error) {
	expected := candidature.Version
	candidature.Version++

	result := getDB(ctx, c.db).
		Model(&model.Candidature{}).
		Where("id = ? AND version = ?", candidature.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(&candidature)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 1 {
		return &candidature, nil
	}

	if _, err := c.Get(ctx, candidature.ID); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return nil, ErrConcurrentUpdate
}

func (c *CandidatureStore) CountByStatus(ctx context.Context, filter *CandidatureQueryFilter) (map[lifecycle.Status]int64, error) {
	var rows []struct {
		Status lifecycle.Status
		Count  int64
	}

	tx := getDB(ctx, c.db).Model(&model.Candidature{})
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Select("status, count(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[lifecycle.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}

func (c *CandidatureStore) Count(ctx context.Context, filter *CandidatureQueryFilter) (int64, error) {
	var count int64
	tx := getDB(ctx, c.db).Model(&model.Candidature{})
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

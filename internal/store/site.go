package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type Site interface {
	GetSite(ctx context.Context, id uuid.UUID) (*model.Site, error)
	GetSiteByName(ctx context.Context, name string) (*model.Site, error)
	GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error)
	CreateSite(ctx context.Context, site model.Site) (*model.Site, error)
	CreateDepartment(ctx context.Context, department model.Department) (*model.Department, error)
}

type SiteStore struct {
	db *gorm.DB
}

// Make sure we conform to Site interface
var _ Site = (*SiteStore)(nil)

func NewSiteStore(db *gorm.DB) Site {
	return &SiteStore{db: db}
}

func (s *SiteStore) GetSite(ctx context.Context, id uuid.UUID) (*model.Site, error) {
	var site model.Site
	if err := getDB(ctx, s.db).First(&site, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &site, nil
}

func (s *SiteStore) GetSiteByName(ctx context.Context, name string) (*model.Site, error) {
	var site model.Site
	if err := getDB(ctx, s.db).First(&site, "name = ?", name).Error; err != nil {
		return nil, translateError(err)
	}
	return &site, nil
}

func (s *SiteStore) GetDepartment(ctx context.Context, id uuid.UUID) (*model.Department, error) {
	var department model.Department
	if err := getDB(ctx, s.db).First(&department, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &department, nil
}

func (s *SiteStore) CreateSite(ctx context.Context, site model.Site) (*model.Site, error) {
	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}
	if err := getDB(ctx, s.db).Create(&site).Error; err != nil {
		return nil, translateError(err)
	}
	return &site, nil
}

func (s *SiteStore) CreateDepartment(ctx context.Context, department model.Department) (*model.Department, error) {
	if department.ID == uuid.Nil {
		department.ID = uuid.New()
	}
	if err := getDB(ctx, s.db).Create(&department).Error; err != nil {
		return nil, translateError(err)
	}
	return &department, nil
}

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type PersonalityTest interface {
	Create(ctx context.Context, test model.PersonalityTest) (*model.PersonalityTest, error)
	Get(ctx context.Context, id uuid.UUID) (*model.PersonalityTest, error)
	// FirstActive returns the oldest active personality test.
	FirstActive(ctx context.Context) (*model.PersonalityTest, error)
}

type PersonalityTestStore struct {
	db *gorm.DB
}

// Make sure we conform to PersonalityTest interface
var _ PersonalityTest = (*PersonalityTestStore)(nil)

func NewPersonalityTestStore(db *gorm.DB) PersonalityTest {
	return &PersonalityTestStore{db: db}
}

func (p *PersonalityTestStore) Create(ctx context.Context, test model.PersonalityTest) (*model.PersonalityTest, error) {
	if test.ID == uuid.Nil {
		test.ID = uuid.New()
	}
	if err := getDB(ctx, p.db).Create(&test).Error; err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

func (p *PersonalityTestStore) Get(ctx context.Context, id uuid.UUID) (*model.PersonalityTest, error) {
	var test model.PersonalityTest
	if err := getDB(ctx, p.db).First(&test, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

func (p *PersonalityTestStore) FirstActive(ctx context.Context) (*model.PersonalityTest, error) {
	var test model.PersonalityTest
	result := getDB(ctx, p.db).
		Where("is_active = ?", true).
		Order("created_at").
		Order("code").
		Take(&test)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	return &test, nil
}

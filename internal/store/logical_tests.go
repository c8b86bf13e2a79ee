package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type LogicalTest interface {
	List(ctx context.Context, filter *LogicalTestQueryFilter) ([]model.LogicalTest, error)
	Get(ctx context.Context, id uuid.UUID) (*model.LogicalTest, error)
	Create(ctx context.Context, test model.LogicalTest) (*model.LogicalTest, error)
	Update(ctx context.Context, test model.LogicalTest) (*model.LogicalTest, error)
}

type LogicalTestStore struct {
	db *gorm.DB
}

// Make sure we conform to LogicalTest interface
var _ LogicalTest = (*LogicalTestStore)(nil)

func NewLogicalTestStore(db *gorm.DB) LogicalTest {
	return &LogicalTestStore{db: db}
}

func (l *LogicalTestStore) List(ctx context.Context, filter *LogicalTestQueryFilter) ([]model.LogicalTest, error) {
	var tests []model.LogicalTest
	tx := getDB(ctx, l.db).Model(&tests).Order("code").Order("is_tutorial")
	if filter != nil {
		tx = filter.apply(tx)
	}
	if err := tx.Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (l *LogicalTestStore) Get(ctx context.Context, id uuid.UUID) (*model.LogicalTest, error) {
	var test model.LogicalTest
	if err := getDB(ctx, l.db).First(&test, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

func (l *LogicalTestStore) Create(ctx context.Context, test model.LogicalTest) (*model.LogicalTest, error) {
	if test.ID == uuid.Nil {
		test.ID = uuid.New()
	}
	if test.Version == 0 {
		test.Version = 1
	}
	if err := getDB(ctx, l.db).Create(&test).Error; err != nil {
		return nil, translateError(err)
	}
	return &test, nil
}

// Update bumps the version and saves every column.
func (l *LogicalTestStore) Update(ctx context.Context, test model.LogicalTest) (*model.LogicalTest, error) {
	test.Version++
	result := getDB(ctx, l.db).Model(&test).Select("*").Omit("created_at").Updates(&test)
	if result.Error != nil {
		return nil, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrRecordNotFound
	}
	return &test, nil
}

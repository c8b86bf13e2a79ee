package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type Question interface {
	Create(ctx context.Context, question model.LogicalQuestion, propositions []model.McqProposition) (*model.LogicalQuestion, error)
	Get(ctx context.Context, id uuid.UUID) (*model.LogicalQuestion, error)
	ListByTest(ctx context.Context, testID uuid.UUID) ([]model.LogicalQuestion, error)
	ListPropositions(ctx context.Context, questionIDs []uuid.UUID) ([]model.McqProposition, error)
}

type QuestionStore struct {
	db *gorm.DB
}

// Make sure we conform to Question interface
var _ Question = (*QuestionStore)(nil)

func NewQuestionStore(db *gorm.DB) Question {
	return &QuestionStore{db: db}
}

func (q *QuestionStore) Create(ctx context.Context, question model.LogicalQuestion, propositions []model.McqProposition) (*model.LogicalQuestion, error) {
	db := getDB(ctx, q.db)
	if err := db.Create(&question).Error; err != nil {
		return nil, translateError(err)
	}
	if len(propositions) == 0 {
		return &question, nil
	}
	for i := range propositions {
		propositions[i].QuestionID = question.ID
	}
	if err := db.Create(&propositions).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (q *QuestionStore) Get(ctx context.Context, id uuid.UUID) (*model.LogicalQuestion, error) {
	var question model.LogicalQuestion
	if err := getDB(ctx, q.db).First(&question, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (q *QuestionStore) ListByTest(ctx context.Context, testID uuid.UUID) ([]model.LogicalQuestion, error) {
	var questions []model.LogicalQuestion
	result := getDB(ctx, q.db).Where("logical_test_id = ?", testID).Order("question_number").Find(&questions)
	if result.Error != nil {
		return nil, result.Error
	}
	return questions, nil
}

func (q *QuestionStore) ListPropositions(ctx context.Context, questionIDs []uuid.UUID) ([]model.McqProposition, error) {
	if len(questionIDs) == 0 {
		return []model.McqProposition{}, nil
	}
	var propositions []model.McqProposition
	result := getDB(ctx, q.db).
		Where("question_id IN ?", questionIDs).
		Order("question_id").
		Order("display_order").
		Find(&propositions)
	if result.Error != nil {
		return nil, result.Error
	}
	return propositions, nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Translation is implemented by every localized child row. ParentColumn names
// the foreign key column shared with language_code as composite primary key.
type Translation interface {
	ParentKey() uuid.UUID
	Language() string
	ParentColumn() string
}

type LogicalTestTranslation struct {
	LogicalTestID uuid.UUID `gorm:"primaryKey;type:VARCHAR(36)"`
	LanguageCode  string    `gorm:"primaryKey;type:VARCHAR(10)"`
	Name          string    `gorm:"not null"`
	Description   string
	Instructions  string
	UpdatedAt     time.Time
}

func (t LogicalTestTranslation) ParentKey() uuid.UUID { return t.LogicalTestID }
func (t LogicalTestTranslation) Language() string { return t.LanguageCode }
func (LogicalTestTranslation) ParentColumn() string { return "logical_test_id" }

type ScoreClassificationTranslation struct {
	ClassificationID uuid.UUID `gorm:"primaryKey;type:VARCHAR(36)"`
	LanguageCode     string    `gorm:"primaryKey;type:VARCHAR(10)"`
	Label            string    `gorm:"not null"`
	Description      string
	UpdatedAt        time.Time
}

func (t ScoreClassificationTranslation) ParentKey() uuid.UUID { return t.ClassificationID }
func (t ScoreClassificationTranslation) Language() string { return t.LanguageCode }
func (ScoreClassificationTranslation) ParentColumn() string { return "classification_id" }

type LogicalQuestionTranslation struct {
	QuestionID   uuid.UUID `gorm:"primaryKey;type:VARCHAR(36)"`
	LanguageCode string    `gorm:"primaryKey;type:VARCHAR(10)"`
	Text         string    `gorm:"not null"`
	Explanation  string
	UpdatedAt    time.Time
}

func (t LogicalQuestionTranslation) ParentKey() uuid.UUID { return t.QuestionID }
func (t LogicalQuestionTranslation) Language() string { return t.LanguageCode }
func (LogicalQuestionTranslation) ParentColumn() string { return "question_id" }

type McqPropositionTranslation struct {
	PropositionID uuid.UUID `gorm:"primaryKey;type:VARCHAR(36)"`
	LanguageCode  string    `gorm:"primaryKey;type:VARCHAR(10)"`
	Text          string    `gorm:"not null"`
	UpdatedAt     time.Time
}

func (t McqPropositionTranslation) ParentKey() uuid.UUID { return t.PropositionID }
func (t McqPropositionTranslation) Language() string { return t.LanguageCode }
func (McqPropositionTranslation) ParentColumn() string { return "proposition_id" }

package model

import (
	"time"

	"github.com/google/uuid"
)

type LogicalTestCode string

const (
	LogicalTestD48      LogicalTestCode = "D_48"
	LogicalTestD70      LogicalTestCode = "D_70"
	LogicalTestD2000    LogicalTestCode = "D_2000"
	LogicalTestB53      LogicalTestCode = "B_53"
	LogicalTestRavenSPM LogicalTestCode = "RAVEN_SPM"
)

var LogicalTestCodes = []LogicalTestCode{
	LogicalTestD48,
	LogicalTestD70,
	LogicalTestD2000,
	LogicalTestB53,
	LogicalTestRavenSPM,
}

type QuestionType string

const (
	QuestionTypeDomino   QuestionType = "domino"
	QuestionTypeImageMCQ QuestionType = "image_mcq"
	QuestionTypeTextMCQ  QuestionType = "text_mcq"
)

// LogicalTest is unique on (code, is_tutorial): one main test and one tutorial
// per code at most.
type LogicalTest struct {
	ID              uuid.UUID       `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	Code            LogicalTestCode `gorm:"not null;type:VARCHAR(32);uniqueIndex:logical_tests_code_tutorial"`
	QuestionType    QuestionType    `gorm:"not null;type:VARCHAR(32)"`
	DurationMinutes int             `gorm:"not null"`
	TotalQuestions  int             `gorm:"not null"`
	IsTutorial      bool            `gorm:"not null;uniqueIndex:logical_tests_code_tutorial"`
	TutorialTestID  *uuid.UUID      `gorm:"type:VARCHAR(36)"`
	IsActive        bool
	Version         int `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ScoreClassification struct {
	ID            uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	LogicalTestID uuid.UUID `gorm:"not null;type:VARCHAR(36);uniqueIndex:score_classifications_test_order"`
	DisplayOrder  int       `gorm:"not null;uniqueIndex:score_classifications_test_order"`
	MinScore      int       `gorm:"not null"`
	MaxScore      int       `gorm:"not null"`
	ColorCode     string    `gorm:"type:VARCHAR(16)"`
}

type LogicalQuestion struct {
	ID             uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	LogicalTestID  uuid.UUID `gorm:"not null;type:VARCHAR(36);uniqueIndex:logical_questions_test_number"`
	QuestionNumber int       `gorm:"not null;uniqueIndex:logical_questions_test_number"`
	CorrectAnswer  string
	ImageURL       *string
}

type McqProposition struct {
	ID           uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	QuestionID   uuid.UUID `gorm:"not null;type:VARCHAR(36);index"`
	Label        string    `gorm:"not null;type:VARCHAR(8)"`
	IsCorrect    bool
	DisplayOrder int
}

type PersonalityTest struct {
	ID        uuid.UUID `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	Code      string    `gorm:"not null;uniqueIndex"`
	Name      string    `gorm:"not null"`
	IsActive  bool
	CreatedAt time.Time
}

// Language is the registry row. The partial unique index keeps a single
// default language.
type Language struct {
	Code      string `gorm:"primaryKey;type:VARCHAR(10)"`
	Name      string `gorm:"not null"`
	IsActive  bool
	IsDefault bool `gorm:"uniqueIndex:languages_single_default,where:is_default = true"`
	CreatedAt time.Time
}

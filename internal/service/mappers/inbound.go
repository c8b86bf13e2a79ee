package mappers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/store/model"
)

type LanguageForm struct {
	Code     string `validate:"required,langcode"`
	Name     string `validate:"required,max=64"`
	IsActive bool
}

func (f LanguageForm) ToLanguage() model.Language {
	return model.Language{
		Code:     f.Code,
		Name:     f.Name,
		IsActive: f.IsActive,
	}
}

type LogicalTestTranslationForm struct {
	LanguageCode string `validate:"required,langcode"`
	Name         string `validate:"required,max=255"`
	Description  string
	Instructions string
}

type LogicalTestForm struct {
	Code            model.LogicalTestCode        `validate:"logical_test_code"`
	QuestionType    model.QuestionType           `validate:"question_type"`
	DurationMinutes int                          `validate:"gt=0"`
	TotalQuestions  int                          `validate:"gt=0"`
	IsTutorial      bool
	IsActive        bool
	Translations    []LogicalTestTranslationForm `validate:"required,min=1,unique=LanguageCode,dive"`
}

func (f LogicalTestForm) ToLogicalTest() model.LogicalTest {
	return model.LogicalTest{
		Code:            f.Code,
		QuestionType:    f.QuestionType,
		DurationMinutes: f.DurationMinutes,
		TotalQuestions:  f.TotalQuestions,
		IsTutorial:      f.IsTutorial,
		IsActive:        f.IsActive,
	}
}

func LogicalTestTranslationsFromForm(testID uuid.UUID, forms []LogicalTestTranslationForm) []model.LogicalTestTranslation {
	out := make([]model.LogicalTestTranslation, 0, len(forms))
	for _, f := range forms {
		out = append(out, model.LogicalTestTranslation{
			LogicalTestID: testID,
			LanguageCode:  f.LanguageCode,
			Name:          f.Name,
			Description:   f.Description,
			Instructions:  f.Instructions,
		})
	}
	return out
}

type ClassificationTranslationForm struct {
	LanguageCode string `validate:"required,langcode"`
	Label        string `validate:"required,max=128"`
	Description  string
}

type ClassificationForm struct {
	DisplayOrder int                             `validate:"gte=0"`
	MinScore     int                             `validate:"gte=0"`
	MaxScore     int                             `validate:"gte=0"`
	ColorCode    string                          `validate:"colorcode"`
	Translations []ClassificationTranslationForm `validate:"required,min=1,unique=LanguageCode,dive"`
}

type ClassificationSetForm struct {
	Items []ClassificationForm `validate:"dive"`
}

// ClassificationsFromForm assigns fresh ids to every item.
func ClassificationsFromForm(testID uuid.UUID, forms []ClassificationForm) ([]model.ScoreClassification, []model.ScoreClassificationTranslation) {
	classifications := make([]model.ScoreClassification, 0, len(forms))
	var translations []model.ScoreClassificationTranslation
	for _, f := range forms {
		c := model.ScoreClassification{
			ID:            uuid.New(),
			LogicalTestID: testID,
			DisplayOrder:  f.DisplayOrder,
			MinScore:      f.MinScore,
			MaxScore:      f.MaxScore,
			ColorCode:     f.ColorCode,
		}
		classifications = append(classifications, c)
		for _, t := range f.Translations {
			translations = append(translations, model.ScoreClassificationTranslation{
				ClassificationID: c.ID,
				LanguageCode:     t.LanguageCode,
				Label:            t.Label,
				Description:      t.Description,
			})
		}
	}
	return classifications, translations
}

type QuestionTranslationForm struct {
	LanguageCode string `validate:"required,langcode"`
	Text         string `validate:"required"`
	Explanation  string
}

type PropositionTranslationForm struct {
	LanguageCode string `validate:"required,langcode"`
	Text         string `validate:"required"`
}

type PropositionForm struct {
	Label        string                       `validate:"required,max=8"`
	IsCorrect    bool
	DisplayOrder int
	Translations []PropositionTranslationForm `validate:"required,min=1,unique=LanguageCode,dive"`
}

type QuestionForm struct {
	LogicalTestID  uuid.UUID                 `validate:"entity_id"`
	QuestionNumber int                       `validate:"gt=0"`
	CorrectAnswer  string
	ImageURL       *string                   `validate:"omitempty,url"`
	Translations   []QuestionTranslationForm `validate:"required,min=1,unique=LanguageCode,dive"`
	Propositions   []PropositionForm         `validate:"dive"`
}

// LanguageCodes lists every language referenced by the question and its
// propositions.
func (f QuestionForm) LanguageCodes() []string {
	var codes []string
	for _, t := range f.Translations {
		codes = append(codes, t.LanguageCode)
	}
	for _, p := range f.Propositions {
		for _, t := range p.Translations {
			codes = append(codes, t.LanguageCode)
		}
	}
	return codes
}

func (f QuestionForm) ToQuestion() (model.LogicalQuestion, []model.LogicalQuestionTranslation, []model.McqProposition, []model.McqPropositionTranslation) {
	q := model.LogicalQuestion{
		ID:             uuid.New(),
		LogicalTestID:  f.LogicalTestID,
		QuestionNumber: f.QuestionNumber,
		CorrectAnswer:  f.CorrectAnswer,
		ImageURL:       f.ImageURL,
	}

	qt := make([]model.LogicalQuestionTranslation, 0, len(f.Translations))
	for _, t := range f.Translations {
		qt = append(qt, model.LogicalQuestionTranslation{
			QuestionID:   q.ID,
			LanguageCode: t.LanguageCode,
			Text:         t.Text,
			Explanation:  t.Explanation,
		})
	}

	props := make([]model.McqProposition, 0, len(f.Propositions))
	var pt []model.McqPropositionTranslation
	for _, p := range f.Propositions {
		prop := model.McqProposition{
			ID:           uuid.New(),
			QuestionID:   q.ID,
			Label:        p.Label,
			IsCorrect:    p.IsCorrect,
			DisplayOrder: p.DisplayOrder,
		}
		props = append(props, prop)
		for _, t := range p.Translations {
			pt = append(pt, model.McqPropositionTranslation{
				PropositionID: prop.ID,
				LanguageCode:  t.LanguageCode,
				Text:          t.Text,
			})
		}
	}
	return q, qt, props, pt
}

type AssignTestsForm struct {
	LogicalTestID         uuid.UUID `validate:"entity_id"`
	OptionalLogicalTestID *uuid.UUID
	PersonalityTestID     *uuid.UUID
	// SkipPersonalityTest suppresses the automatic personality test.
	SkipPersonalityTest bool
}

type DecisionForm struct {
	Decision lifecycle.Decision `validate:"decision"`
	Comments string             `validate:"max=2000"`
}

type DetailsForm struct {
	DpNumber *string `validate:"omitempty,max=64"`
	ExamDate *time.Time
}

type ApprovalForm struct {
	Comments      string `validate:"max=2000"`
	PsychologueID *uuid.UUID
}

type ManualCandidatureForm struct {
	CandidateID           uuid.UUID `validate:"entity_id"`
	SiteID                uuid.UUID `validate:"entity_id"`
	DepartmentID          *uuid.UUID
	TargetPosition        string `validate:"required,max=255"`
	PreviousCandidatureID *uuid.UUID
	PsychologueID         *uuid.UUID
}

type TechnicalInterviewForm struct {
	InterviewerID  *uuid.UUID
	InterviewDate  time.Time `validate:"required"`
	Score          *float64  `validate:"omitempty,gte=0,lte=20"`
	Recommendation string    `validate:"omitempty,oneof=favorable unfavorable reserved"`
	Comments       string
}

type LegacyCandidatureForm struct {
	Email              string    `validate:"required,email"`
	FirstName          string    `validate:"required,max=100"`
	LastName           string    `validate:"required,max=100"`
	Phone              *string   `validate:"omitempty,max=32"`
	PreferredLanguage  string    `validate:"omitempty,langcode"`
	SiteID             uuid.UUID `validate:"entity_id"`
	DepartmentID       *uuid.UUID
	TargetPosition     string `validate:"required,max=255"`
	PsychologueID      *uuid.UUID
	TechnicalInterview *TechnicalInterviewForm
}

func (f LegacyCandidatureForm) ToUser(passwordHash []byte, language string) model.User {
	return model.User{
		Email:              strings.ToLower(strings.TrimSpace(f.Email)),
		FirstName:          f.FirstName,
		LastName:           f.LastName,
		Phone:              f.Phone,
		Role:               model.RoleCandidate,
		PreferredLanguage:  language,
		PasswordHash:       string(passwordHash),
		MustChangePassword: true,
		IsActive:           true,
	}
}

func (f TechnicalInterviewForm) ToInterview(candidatureID uuid.UUID) model.TechnicalInterview {
	return model.TechnicalInterview{
		CandidatureID:  candidatureID,
		InterviewerID:  f.InterviewerID,
		InterviewDate:  f.InterviewDate,
		Score:          f.Score,
		Recommendation: f.Recommendation,
		Comments:       f.Comments,
	}
}

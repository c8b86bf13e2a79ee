package mappers

import (
	"time"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/lifecycle"
	"github.com/psyeval/recruitment/internal/store/model"
)

// LogicalTestView is a logical test resolved in one language. LanguageCode is
// the language the texts were actually found in, empty when the test has no
// reachable translation.
type LogicalTestView struct {
	ID              uuid.UUID             `json:"id"`
	Code            model.LogicalTestCode `json:"code"`
	QuestionType    model.QuestionType    `json:"questionType"`
	DurationMinutes int                   `json:"durationMinutes"`
	TotalQuestions  int                   `json:"totalQuestions"`
	IsTutorial      bool                  `json:"isTutorial"`
	TutorialTestID  *uuid.UUID            `json:"tutorialTestId,omitempty"`
	IsActive        bool                  `json:"isActive"`
	Version         int                   `json:"version"`
	LanguageCode    string                `json:"languageCode,omitempty"`
	Name            string                `json:"name,omitempty"`
	Description     string                `json:"description,omitempty"`
	Instructions    string                `json:"instructions,omitempty"`
}

func LogicalTestToView(t model.LogicalTest, tr *model.LogicalTestTranslation) LogicalTestView {
	v := LogicalTestView{
		ID:              t.ID,
		Code:            t.Code,
		QuestionType:    t.QuestionType,
		DurationMinutes: t.DurationMinutes,
		TotalQuestions:  t.TotalQuestions,
		IsTutorial:      t.IsTutorial,
		TutorialTestID:  t.TutorialTestID,
		IsActive:        t.IsActive,
		Version:         t.Version,
	}
	if tr != nil {
		v.LanguageCode = tr.LanguageCode
		v.Name = tr.Name
		v.Description = tr.Description
		v.Instructions = tr.Instructions
	}
	return v
}

type ClassificationView struct {
	ID           uuid.UUID `json:"id"`
	DisplayOrder int       `json:"displayOrder"`
	MinScore     int       `json:"minScore"`
	MaxScore     int       `json:"maxScore"`
	ColorCode    string    `json:"colorCode,omitempty"`
	LanguageCode string    `json:"languageCode,omitempty"`
	Label        string    `json:"label,omitempty"`
	Description  string    `json:"description,omitempty"`
}

func (c ClassificationView) Covers(score int) bool {
	return c.MinScore <= score && score <= c.MaxScore
}

func ClassificationToView(c model.ScoreClassification, tr *model.ScoreClassificationTranslation) ClassificationView {
	v := ClassificationView{
		ID:           c.ID,
		DisplayOrder: c.DisplayOrder,
		MinScore:     c.MinScore,
		MaxScore:     c.MaxScore,
		ColorCode:    c.ColorCode,
	}
	if tr != nil {
		v.LanguageCode = tr.LanguageCode
		v.Label = tr.Label
		v.Description = tr.Description
	}
	return v
}

type PropositionView struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label"`
	DisplayOrder int       `json:"displayOrder"`
	LanguageCode string    `json:"languageCode,omitempty"`
	Text         string    `json:"text,omitempty"`
}

// QuestionView leaves out the correct answer and the correctness of each
// proposition.
type QuestionView struct {
	ID             uuid.UUID         `json:"id"`
	QuestionNumber int               `json:"questionNumber"`
	ImageURL       *string           `json:"imageUrl,omitempty"`
	LanguageCode   string            `json:"languageCode,omitempty"`
	Text           string            `json:"text,omitempty"`
	Explanation    string            `json:"explanation,omitempty"`
	Propositions   []PropositionView `json:"propositions"`
}

func QuestionToView(q model.LogicalQuestion, tr *model.LogicalQuestionTranslation) QuestionView {
	v := QuestionView{
		ID:             q.ID,
		QuestionNumber: q.QuestionNumber,
		ImageURL:       q.ImageURL,
		Propositions:   []PropositionView{},
	}
	if tr != nil {
		v.LanguageCode = tr.LanguageCode
		v.Text = tr.Text
		v.Explanation = tr.Explanation
	}
	return v
}

func PropositionToView(p model.McqProposition, tr *model.McqPropositionTranslation) PropositionView {
	v := PropositionView{
		ID:           p.ID,
		Label:        p.Label,
		DisplayOrder: p.DisplayOrder,
	}
	if tr != nil {
		v.LanguageCode = tr.LanguageCode
		v.Text = tr.Text
	}
	return v
}

// Dashboard groups candidature counts by status. Every status is present,
// zero when no candidature has it.
type Dashboard struct {
	Mine       map[lifecycle.Status]int64 `json:"mine"`
	Global     map[lifecycle.Status]int64 `json:"global"`
	ExamsToday int64                      `json:"examsToday"`
}

type AssignTestsResult struct {
	Candidature      model.Candidature `json:"candidature"`
	NotificationSent bool              `json:"notificationSent"`
}

type SpawnResult struct {
	JobApplication model.JobApplication `json:"jobApplication"`
	Candidature    model.Candidature    `json:"candidature"`
}

// LegacyResult carries the temporary password only when the account-created
// notification could not be delivered.
type LegacyResult struct {
	User               model.User                `json:"user"`
	JobApplication     model.JobApplication      `json:"jobApplication"`
	Candidature        model.Candidature         `json:"candidature"`
	TechnicalInterview *model.TechnicalInterview `json:"technicalInterview,omitempty"`
	TemporaryPassword  string                    `json:"temporaryPassword,omitempty"`
	EmailSent          bool                      `json:"emailSent"`
}

type TransitionView struct {
	From           *lifecycle.Status `json:"from,omitempty"`
	To             lifecycle.Status  `json:"to"`
	TransitionedBy uuid.UUID         `json:"transitionedBy"`
	Reason         string            `json:"reason,omitempty"`
	At             time.Time         `json:"at"`
}

func TransitionToView(l model.TransitionLog) TransitionView {
	return TransitionView{
		From:           l.FromStatus,
		To:             l.ToStatus,
		TransitionedBy: l.TransitionedBy,
		Reason:         l.Reason,
		At:             l.CreatedAt,
	}
}

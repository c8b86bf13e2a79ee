package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/psyeval/recruitment/internal/lifecycle"
)

type JobApplicationStatus string

const (
	JobApplicationPending   JobApplicationStatus = "pending"
	JobApplicationApproved  JobApplicationStatus = "approved"
	JobApplicationRejected  JobApplicationStatus = "rejected"
	JobApplicationWithdrawn JobApplicationStatus = "withdrawn"
)

type JobApplication struct {
	ID             uuid.UUID            `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	CandidateID    uuid.UUID            `gorm:"not null;type:VARCHAR(36);index"`
	SiteID         uuid.UUID            `gorm:"not null;type:VARCHAR(36)"`
	DepartmentID   *uuid.UUID           `gorm:"type:VARCHAR(36)"`
	TargetPosition string               `gorm:"not null"`
	Status         JobApplicationStatus `gorm:"not null;type:VARCHAR(32);index"`
	ReviewedBy     *uuid.UUID           `gorm:"type:VARCHAR(36)"`
	ReviewedAt     *time.Time
	ReviewComments *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Candidature struct {
	ID                    uuid.UUID           `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	JobApplicationID      uuid.UUID           `gorm:"not null;type:VARCHAR(36);uniqueIndex:candidatures_job_application_idx"`
	Status                lifecycle.Status    `gorm:"not null;type:VARCHAR(32);index"`
	DpNumber              *string             `gorm:"type:VARCHAR(64)"`
	ExamDate              *time.Time          `gorm:"index"`
	Decision              *lifecycle.Decision `gorm:"type:VARCHAR(32)"`
	DecisionComments      *string
	DecisionDate          *time.Time
	DecisionBy            *uuid.UUID `gorm:"type:VARCHAR(36)"`
	IsReevaluation        bool
	PreviousCandidatureID *uuid.UUID `gorm:"type:VARCHAR(36)"`
	AssignedPsychologueID *uuid.UUID `gorm:"type:VARCHAR(36);index"`
	AssignedBy            *uuid.UUID `gorm:"type:VARCHAR(36)"`
	AssignmentDate        *time.Time
	LogicalTestID         *uuid.UUID `gorm:"type:VARCHAR(36)"`
	OptionalLogicalTestID *uuid.UUID `gorm:"type:VARCHAR(36)"`
	PersonalityTestID     *uuid.UUID `gorm:"type:VARCHAR(36)"`
	Version               int        `gorm:"not null"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type CandidatureList []Candidature

func (c Candidature) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

// TransitionLog is append-only: rows are inserted once and never updated.
type TransitionLog struct {
	ID             uint              `gorm:"primaryKey;autoIncrement"`
	CandidatureID  uuid.UUID         `gorm:"not null;type:VARCHAR(36);index"`
	FromStatus     *lifecycle.Status `gorm:"type:VARCHAR(32)"`
	ToStatus       lifecycle.Status  `gorm:"not null;type:VARCHAR(32)"`
	TransitionedBy uuid.UUID         `gorm:"not null;type:VARCHAR(36)"`
	Reason         string
	CreatedAt      time.Time `gorm:"index"`
}

type TechnicalInterview struct {
	ID             uuid.UUID  `gorm:"primaryKey;column:id;type:VARCHAR(36);"`
	CandidatureID  uuid.UUID  `gorm:"not null;type:VARCHAR(36);uniqueIndex"`
	InterviewerID  *uuid.UUID `gorm:"type:VARCHAR(36)"`
	InterviewDate  time.Time  `gorm:"not null"`
	Score          *float64
	Recommendation string `gorm:"type:VARCHAR(32)"`
	Comments       string
	CreatedAt      time.Time
}

package store

import (
	"context"

	"github.com/psyeval/recruitment/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	// WithinTransaction runs fn as one all-or-nothing unit. Stores reached
	// through the ctx passed to fn share the transaction.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Language() Language
	LogicalTest() LogicalTest
	Classification() Classification
	Question() Question
	PersonalityTest() PersonalityTest
	Candidature() Candidature
	JobApplication() JobApplication
	TransitionLog() TransitionLog
	TechnicalInterview() TechnicalInterview
	User() User
	Site() Site
	LogicalTestTranslations() Translations[model.LogicalTestTranslation]
	ClassificationTranslations() Translations[model.ScoreClassificationTranslation]
	QuestionTranslations() Translations[model.LogicalQuestionTranslation]
	PropositionTranslations() Translations[model.McqPropositionTranslation]
	InitialMigration(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

type DataStore struct {
	db                         *gorm.DB
	language                   Language
	logicalTest                LogicalTest
	classification             Classification
	question                   Question
	personalityTest            PersonalityTest
	candidature                Candidature
	jobApplication             JobApplication
	transitionLog              TransitionLog
	technicalInterview         TechnicalInterview
	user                       User
	site                       Site
	logicalTestTranslations    Translations[model.LogicalTestTranslation]
	classificationTranslations Translations[model.ScoreClassificationTranslation]
	questionTranslations       Translations[model.LogicalQuestionTranslation]
	propositionTranslations    Translations[model.McqPropositionTranslation]
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:                         db,
		language:                   NewLanguageStore(db),
		logicalTest:                NewLogicalTestStore(db),
		classification:             NewClassificationStore(db),
		question:                   NewQuestionStore(db),
		personalityTest:            NewPersonalityTestStore(db),
		candidature:                NewCandidatureStore(db),
		jobApplication:             NewJobApplicationStore(db),
		transitionLog:              NewTransitionLogStore(db),
		technicalInterview:         NewTechnicalInterviewStore(db),
		user:                       NewUserStore(db),
		site:                       NewSiteStore(db),
		logicalTestTranslations:    NewTranslationStore[model.LogicalTestTranslation](db),
		classificationTranslations: NewTranslationStore[model.ScoreClassificationTranslation](db),
		questionTranslations:       NewTranslationStore[model.LogicalQuestionTranslation](db),
		propositionTranslations:    NewTranslationStore[model.McqPropositionTranslation](db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return withinTransaction(ctx, s.db, fn)
}

func (s *DataStore) Language() Language {
	return s.language
}

func (s *DataStore) LogicalTest() LogicalTest {
	return s.logicalTest
}

func (s *DataStore) Classification() Classification {
	return s.classification
}

func (s *DataStore) Question() Question {
	return s.question
}

func (s *DataStore) PersonalityTest() PersonalityTest {
	return s.personalityTest
}

func (s *DataStore) Candidature() Candidature {
	return s.candidature
}

func (s *DataStore) JobApplication() JobApplication {
	return s.jobApplication
}

func (s *DataStore) TransitionLog() TransitionLog {
	return s.transitionLog
}

func (s *DataStore) TechnicalInterview() TechnicalInterview {
	return s.technicalInterview
}

func (s *DataStore) User() User {
	return s.user
}

func (s *DataStore) Site() Site {
	return s.site
}

func (s *DataStore) LogicalTestTranslations() Translations[model.LogicalTestTranslation] {
	return s.logicalTestTranslations
}

func (s *DataStore) ClassificationTranslations() Translations[model.ScoreClassificationTranslation] {
	return s.classificationTranslations
}

func (s *DataStore) QuestionTranslations() Translations[model.LogicalQuestionTranslation] {
	return s.questionTranslations
}

func (s *DataStore) PropositionTranslations() Translations[model.McqPropositionTranslation] {
	return s.propositionTranslations
}

// InitialMigration creates the schema from the models. Production databases are
// migrated with goose (see pkg/migrations); this path serves sqlite and tests.
func (s *DataStore) InitialMigration(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.Language{},
		&model.User{},
		&model.Site{},
		&model.Department{},
		&model.PersonalityTest{},
		&model.LogicalTest{},
		&model.LogicalTestTranslation{},
		&model.ScoreClassification{},
		&model.ScoreClassificationTranslation{},
		&model.LogicalQuestion{},
		&model.LogicalQuestionTranslation{},
		&model.McqProposition{},
		&model.McqPropositionTranslation{},
		&model.JobApplication{},
		&model.Candidature{},
		&model.TransitionLog{},
		&model.TechnicalInterview{},
	)
}

func (s *DataStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

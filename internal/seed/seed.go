package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/service"
	"github.com/psyeval/recruitment/internal/service/mappers"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/internal/store/model"
	"github.com/psyeval/recruitment/internal/validator"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"sigs.k8s.io/yaml"
)

// Fixtures is the content of a seed file. Keys are camelCase.
type Fixtures struct {
	Languages        []Language        `json:"languages" validate:"dive"`
	Sites            []Site            `json:"sites" validate:"dive"`
	Users            []User            `json:"users" validate:"dive"`
	PersonalityTests []PersonalityTest `json:"personalityTests" validate:"dive"`
	LogicalTests     []LogicalTest     `json:"logicalTests" validate:"dive"`
}

type Language struct {
	mappers.LanguageForm
	Default bool `json:"default"`
}

type Site struct {
	Name        string   `json:"name" validate:"required"`
	City        string   `json:"city"`
	Departments []string `json:"departments" validate:"dive,required"`
}

type User struct {
	Email             string `json:"email" validate:"required,email"`
	FirstName         string `json:"firstName" validate:"required"`
	LastName          string `json:"lastName" validate:"required"`
	Role              string `json:"role" validate:"oneof=admin psychologue candidate"`
	PreferredLanguage string `json:"preferredLanguage" validate:"omitempty,langcode"`
	Password          string `json:"password"`
}

type PersonalityTest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

type LogicalTest struct {
	mappers.LogicalTestForm
	Classifications []mappers.ClassificationForm `json:"classifications"`
}

// Report counts what Apply created and what it found already present.
type Report struct {
	Created int
	Skipped int
}

func (r *Report) record(created bool) {
	if created {
		r.Created++
		return
	}
	r.Skipped++
}

// Load reads and validates a YAML seed file.
func Load(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}

	v := validator.NewValidator()
	v.Register(validator.NewCatalogValidationRules()...)
	if err := v.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &f, nil
}

// Seeder writes fixtures. Rows that already exist are left untouched, so a
// seed file can be applied more than once.
type Seeder struct {
	store     store.Store
	languages *service.LanguageService
	catalog   *service.CatalogService
	actor     authz.Actor
}

func NewSeeder(s store.Store, languages *service.LanguageService, catalog *service.CatalogService) *Seeder {
	return &Seeder{
		store:     s,
		languages: languages,
		catalog:   catalog,
		actor:     authz.Actor{ID: uuid.Nil, Role: model.RoleAdmin},
	}
}

func (s *Seeder) Apply(ctx context.Context, f *Fixtures) (Report, error) {
	var report Report

	steps := []func(context.Context, *Fixtures, *Report) error{
		s.seedLanguages,
		s.seedSites,
		s.seedUsers,
		s.seedPersonalityTests,
		s.seedLogicalTests,
	}
	for _, step := range steps {
		if err := step(ctx, f, &report); err != nil {
			return report, err
		}
	}

	zap.S().Named("seed").Infow("fixtures applied", "created", report.Created, "skipped", report.Skipped)
	return report, nil
}

func (s *Seeder) seedLanguages(ctx context.Context, f *Fixtures, r *Report) error {
	for _, l := range f.Languages {
		_, err := s.languages.CreateLanguage(ctx, s.actor, l.LanguageForm)
		created, err := skipConflict(err)
		if err != nil {
			return fmt.Errorf("language %s: %w", l.Code, err)
		}
		r.record(created)

		if l.Default {
			if err := s.languages.SetDefaultLanguage(ctx, s.actor, l.Code); err != nil {
				return fmt.Errorf("default language %s: %w", l.Code, err)
			}
		}
	}
	return nil
}

func (s *Seeder) seedSites(ctx context.Context, f *Fixtures, r *Report) error {
	for _, site := range f.Sites {
		existing, err := s.store.Site().GetSiteByName(ctx, site.Name)
		switch {
		case err == nil:
			r.record(false)
		case errors.Is(err, store.ErrRecordNotFound):
			existing, err = s.store.Site().CreateSite(ctx, model.Site{Name: site.Name, City: site.City, IsActive: true})
			if err != nil {
				return fmt.Errorf("site %s: %w", site.Name, err)
			}
			r.record(true)
		default:
			return err
		}

		for _, name := range site.Departments {
			_, err := s.store.Site().CreateDepartment(ctx, model.Department{SiteID: existing.ID, Name: name, IsActive: true})
			if errors.Is(err, store.ErrDuplicateKey) {
				r.record(false)
				continue
			}
			if err != nil {
				return fmt.Errorf("department %s/%s: %w", site.Name, name, err)
			}
			r.record(true)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(ctx context.Context, f *Fixtures, r *Report) error {
	for _, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if _, err := s.store.User().GetByEmail(ctx, email); err == nil {
			r.record(false)
			continue
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}

		user := model.User{
			Email:              email,
			FirstName:          u.FirstName,
			LastName:           u.LastName,
			Role:               model.Role(u.Role),
			PreferredLanguage:  u.PreferredLanguage,
			IsActive:           true,
			MustChangePassword: u.Password == "",
		}
		if user.PreferredLanguage == "" {
			user.PreferredLanguage = s.languages.DefaultLanguageCode(ctx)
		}
		if u.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			user.PasswordHash = string(hash)
		}

		if _, err := s.store.User().Create(ctx, user); err != nil {
			return fmt.Errorf("user %s: %w", email, err)
		}
		r.record(true)
	}
	return nil
}

func (s *Seeder) seedPersonalityTests(ctx context.Context, f *Fixtures, r *Report) error {
	for _, p := range f.PersonalityTests {
		_, err := s.store.PersonalityTest().Create(ctx, model.PersonalityTest{Code: p.Code, Name: p.Name, IsActive: true})
		if errors.Is(err, store.ErrDuplicateKey) {
			r.record(false)
			continue
		}
		if err != nil {
			return fmt.Errorf("personality test %s: %w", p.Code, err)
		}
		r.record(true)
	}
	return nil
}

// seedLogicalTests creates the tests with their classifications and links
// every tutorial created in this run to the main test of the same code.
func (s *Seeder) seedLogicalTests(ctx context.Context, f *Fixtures, r *Report) error {
	mains := map[model.LogicalTestCode]uuid.UUID{}
	tutorials := map[model.LogicalTestCode]uuid.UUID{}

	for _, t := range f.LogicalTests {
		test, err := s.catalog.CreateLogicalTest(ctx, s.actor, t.LogicalTestForm)
		created, err := skipConflict(err)
		if err != nil {
			return fmt.Errorf("logical test %s: %w", t.Code, err)
		}
		r.record(created)
		if !created {
			continue
		}

		if t.IsTutorial {
			tutorials[test.Code] = test.ID
		} else {
			mains[test.Code] = test.ID
		}

		if len(t.Classifications) > 0 {
			if _, err := s.catalog.UpsertClassifications(ctx, s.actor, test.ID, t.Classifications); err != nil {
				return fmt.Errorf("classifications of %s: %w", t.Code, err)
			}
		}
	}

	for code, tutorialID := range tutorials {
		mainID, ok := mains[code]
		if !ok {
			continue
		}
		if _, err := s.catalog.LinkTutorial(ctx, s.actor, mainID, tutorialID); err != nil {
			return fmt.Errorf("tutorial of %s: %w", code, err)
		}
	}
	return nil
}

func skipConflict(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var conflict *service.ErrConflict
	if errors.As(err, &conflict) {
		return false, nil
	}
	return false, err
}

package main

import (
	"errors"

	"github.com/psyeval/recruitment/internal/authz"
	"github.com/psyeval/recruitment/internal/cache"
	"github.com/psyeval/recruitment/internal/seed"
	"github.com/psyeval/recruitment/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load YAML fixtures (languages, sites, users, tests) into the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, s, teardown := setup()
		defer teardown()

		if seedFile == "" {
			seedFile = cfg.Service.SeedFile
		}
		if seedFile == "" {
			return errors.New("no seed file: pass --file or set RECRUITMENT_SEED_FILE")
		}

		fixtures, err := seed.Load(seedFile)
		if err != nil {
			return err
		}

		if err := ensureSchema(cmd.Context(), cfg, db, s); err != nil {
			return err
		}

		a, err := authz.NewAuthorizer()
		if err != nil {
			return err
		}
		c, err := cache.New(cfg)
		if err != nil {
			return err
		}

		languages := service.NewLanguageService(s, a, cfg.Service.DefaultLanguage)
		catalog := service.NewCatalogService(s, c, cache.TTLsFromConfig(cfg), a, languages)

		report, err := seed.NewSeeder(s, languages, catalog).Apply(cmd.Context(), fixtures)
		if err != nil {
			zap.S().Errorw("seeding", "error", err, "file", seedFile)
			return err
		}

		zap.S().Infow("seed completed", "file", seedFile, "created", report.Created, "skipped", report.Skipped)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the YAML seed file")
}

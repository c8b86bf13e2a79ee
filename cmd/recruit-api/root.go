package main

import (
	"context"

	"github.com/psyeval/recruitment/internal/config"
	"github.com/psyeval/recruitment/internal/store"
	"github.com/psyeval/recruitment/pkg/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	logEncoding string
)

var rootCmd = &cobra.Command{
	Use:          "recruit-api",
	Short:        "Psychometric recruitment core",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(seedCmd)

	rootCmd.PersistentFlags().StringVar(&logEncoding, "log-format", "console", "Log encoding: console or json")
}

// setup reads the configuration, replaces the global loggers and opens the
// store. The returned func undoes all of it.
func setup() (*config.Config, *gorm.DB, store.Store, func()) {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalw("reading configuration", "error", err)
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel), logEncoding)
	undo := zap.ReplaceGlobals(logger)

	zap.S().Info("Initializing data store")
	db, err := store.InitDB(cfg)
	if err != nil {
		zap.S().Fatalw("initializing data store", "error", err)
	}

	s := store.NewStore(db)
	return cfg, db, s, func() {
		_ = s.Close()
		_ = logger.Sync()
		undo()
	}
}

// ensureSchema migrates postgres with goose. Sqlite databases are local
// scratch databases and get the schema from the models.
func ensureSchema(ctx context.Context, cfg *config.Config, db *gorm.DB, s store.Store) error {
	if cfg.Database.Type == "pgsql" {
		return migrateStore(db, cfg.Service.MigrationFolder)
	}
	return s.InitialMigration(ctx)
}

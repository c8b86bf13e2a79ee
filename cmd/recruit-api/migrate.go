package main

import (
	"github.com/psyeval/recruitment/pkg/migrations"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, s, teardown := setup()
		defer teardown()

		if err := ensureSchema(cmd.Context(), cfg, db, s); err != nil {
			zap.S().Errorw("running migrations", "error", err)
			return err
		}

		zap.S().Info("Db migrated")
		return nil
	},
}

func migrateStore(db *gorm.DB, folder string) error {
	if folder == "" {
		zap.S().Info("using embedded migrations")
	} else {
		zap.S().Infow("using migrations folder", "folder", folder)
	}
	return migrations.MigrateStore(db, folder)
}

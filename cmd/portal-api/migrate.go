package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, done, err := setup()
		if err != nil {
			return err
		}
		defer done()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			return errors.Wrap(err, "initializing data store")
		}
		s := store.NewStore(db)
		defer s.Close()

		// sqlite is only used for local runs and tests; its schema comes from the models.
		if cfg.Database.Type != store.DialectPostgres {
			if err := s.InitialMigration(); err != nil {
				return errors.Wrap(err, "running initial migration")
			}
		} else if err := migrations.MigrateStore(db, cfg); err != nil {
			return errors.Wrap(err, "running migrations")
		}

		zap.S().Info("Db migrated")
		return nil
	},
}

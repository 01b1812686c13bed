package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/careerlink/portal-engine/internal/config"
	"github.com/careerlink/portal-engine/internal/store"
	"github.com/careerlink/portal-engine/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:          "portal-api",
	Short:        "Verification and hiring pipeline engine of the job portal",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}

// setup reads the configuration and installs the global zap logger.
// The returned func flushes and restores the previous logger.
func setup() (*config.Config, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading configuration")
	}

	logger := log.InitLog(log.ParseLevel(cfg.Service.LogLevel))
	undo := zap.ReplaceGlobals(logger)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	zap.S().Info("Initializing data store")
	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "initializing data store")
	}
	return store.NewStore(db), nil
}

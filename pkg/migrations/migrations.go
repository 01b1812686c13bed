package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/careerlink/portal-engine/internal/config"
)

//go:embed sql/*.sql
var embedded embed.FS

// Source returns the migration files: the folder when set, the embedded set otherwise.
func Source(folder string) (fs.FS, error) {
	if folder == "" {
		return fs.Sub(embedded, "sql")
	}

	fi, err := os.Stat(folder)
	if err != nil {
		return nil, err
	}
	if !fi.Mode().IsDir() {
		return nil, fmt.Errorf("failed to open migration folder: %s is not a folder", folder)
	}
	return os.DirFS(folder), nil
}

// MigrateStore applies the pending migrations on the database behind db.
func MigrateStore(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return migrate(sqlDB, cfg.Service.MigrationFolder)
}

// MigrateDSN opens a dedicated pgx connection for the migration run.
func MigrateDSN(dsn, folder string) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return errors.Wrap(err, "failed to open migration connection")
	}
	defer sqlDB.Close()
	return migrate(sqlDB, folder)
}

func migrate(sqlDB *sql.DB, folder string) error {
	goose.SetLogger(&logger{})

	source, err := Source(folder)
	if err != nil {
		return err
	}
	goose.SetBaseFS(source)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	if err := goose.Up(sqlDB, "."); err != nil {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}

/*
logger implements goose.Logger interface

	type Logger interface {
		Fatalf(format string, v ...interface{})
		Printf(format string, v ...interface{})
	}
*/
type logger struct{}

func (m *logger) Printf(format string, v ...interface{}) { zap.S().Named("migrations").Infof(format, v...) }
func (m *logger) Fatalf(format string, v ...interface{}) { zap.S().Named("migrations").Fatalf(format, v...) }

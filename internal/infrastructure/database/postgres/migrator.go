// Package postgres persists review runs and findings. Schema changes are
// applied with golang-migrate from the migrations embedded in the binary.
package postgres

import (
	"embed"
	stderrors "errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers pgx5://
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// migrateURL rewrites a postgres DSN for the pgx v5 migrate driver.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// newMigrate uses dir when set and the embedded migrations otherwise.
func newMigrate(dsn, dir string) (*migrate.Migrate, error) {
	var (
		m   *migrate.Migrate
		err error
	)
	if dir != "" {
		m, err = migrate.New("file://"+strings.TrimPrefix(dir, "file://"), migrateURL(dsn))
	} else {
		src, serr := iofs.New(embeddedMigrations, "migrations")
		if serr != nil {
			return nil, errors.Wrap(serr, errors.ErrCodeInternal, "failed to open embedded migrations")
		}
		m, err = migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return m, nil
}

// RunMigrations applies all pending migrations. No pending migration is
// not an error.
func RunMigrations(dsn, dir string) error {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to run migrations")
	}
	return nil
}

// RollbackMigration reverts steps migrations.
func RollbackMigration(dsn, dir string, steps int) error {
	if steps <= 0 {
		return errors.Newf(errors.ErrCodeValidation, "steps must be greater than 0, got %d", steps)
	}
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to roll back migrations")
	}
	return nil
}

// MigrationStatus reports the applied version and whether a previous run
// left the schema dirty. Version 0 means nothing is applied.
func MigrationStatus(dsn, dir string) (version uint, dirty bool, err error) {
	m, err := newMigrate(dsn, dir)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if stderrors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get migration version")
	}
	return version, dirty, nil
}

//Personal.AI order the ending

package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/vocasense/vocasense/internal/version"
)

// Migration System Overview:
//
// Schema version is stored in instance_setting under "schema_version".
//
// Migration Flow:
// 1. preMigrate: Check if DB is initialized. If not, apply LATEST.sql
// 2. Migrate (prod mode): Apply incremental migrations from current to target version
// 3. Migrate (demo mode): Seed database with demo data
//
// Migration Files:
// - Location: store/migration/{driver}/prod/{version}/NN__description.sql
// - Naming: NN is zero-padded patch number, description is human-readable
// - Ordering: Files sorted lexicographically and applied in order
// - LATEST.sql: Full schema for new installations (faster than incremental migrations)

//go:embed migration
var migrationFS embed.FS

//go:embed seed
var seedFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch version and the description in the migration file name.
	// For example, "1__create_table.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	// This file is used to initialize fresh installations with the current schema.
	LatestSchemaFileName = "LATEST.sql"

	modeProd = "prod"
	modeDemo = "demo"
)

// Migrate migrates the database schema to the latest version.
// It checks the current schema version and applies any necessary migrations.
// It also seeds the database with demo data if in demo mode.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.preMigrate(ctx); err != nil {
		return errors.Wrap(err, "failed to pre-migrate")
	}

	switch s.profile.Mode {
	case modeProd:
		currentSchemaVersion, err := s.GetSchemaVersion(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get current schema version")
		}
		targetSchemaVersion := version.GetSchemaVersion(s.profile.Mode)
		if version.IsVersionGreaterThan(currentSchemaVersion, targetSchemaVersion) {
			slog.Error("cannot downgrade schema version",
				slog.String("databaseVersion", currentSchemaVersion),
				slog.String("currentVersion", targetSchemaVersion),
			)
			return errors.Errorf("cannot downgrade schema version from %s to %s", currentSchemaVersion, targetSchemaVersion)
		}
		if version.IsVersionGreaterThan(targetSchemaVersion, currentSchemaVersion) {
			if err := s.applyMigrations(ctx, currentSchemaVersion, targetSchemaVersion); err != nil {
				return errors.Wrap(err, "failed to apply migrations")
			}
		}
	case modeDemo:
		if err := s.seed(ctx); err != nil {
			return errors.Wrap(err, "failed to seed")
		}
	default:
		// For other modes (like dev), no special migration handling needed
	}
	return nil
}

// preMigrate applies the full LATEST.sql schema to fresh databases and
// records the schema version.
func (s *Store) preMigrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	buf, err := migrationFS.ReadFile(filepath.Join(s.getMigrationBasePath(), LatestSchemaFileName))
	if err != nil {
		return errors.Wrap(err, "failed to read latest schema file")
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to execute latest schema")
	}

	schemaVersion := version.GetSchemaVersion(s.profile.Mode)
	if _, err := s.UpsertInstanceSetting(ctx, &InstanceSetting{
		Name:  InstanceSettingSchemaVersion,
		Value: schemaVersion,
	}); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	slog.Info("database initialized", slog.String("schemaVersion", schemaVersion))
	return nil
}

// getMigrationBasePath returns the embedded path of the driver's prod
// migration directory, e.g. "migration/sqlite/prod".
func (s *Store) getMigrationBasePath() string {
	return filepath.Join("migration", s.profile.Driver, "prod")
}

// shouldApplyMigration determines if a migration file should be applied.
// It checks if the file's version is between the current DB version and target version.
func shouldApplyMigration(fileVersion, currentDBVersion, targetVersion string) bool {
	if currentDBVersion == "" {
		return version.IsVersionGreaterOrEqualThan(targetVersion, fileVersion)
	}
	return version.IsVersionGreaterThan(fileVersion, currentDBVersion) &&
		version.IsVersionGreaterOrEqualThan(targetVersion, fileVersion)
}

// migrationFileVersion extracts the schema version a migration file belongs
// to from its path, e.g. "migration/sqlite/prod/0.3/00__x.sql" -> "0.3.0".
func migrationFileVersion(filePath string) string {
	dirVersion := filepath.Base(filepath.Dir(filePath))
	return dirVersion + ".0"
}

// applyMigrations applies all necessary migration files between current and target schema versions.
// It runs all migrations in a single transaction for atomicity.
func (s *Store) applyMigrations(ctx context.Context, currentSchemaVersion, targetSchemaVersion string) error {
	filePaths, err := fs.Glob(migrationFS, fmt.Sprintf("%s/*/*.sql", s.getMigrationBasePath()))
	if err != nil {
		return errors.Wrap(err, "failed to read migration files")
	}
	sort.Strings(filePaths)

	tx, err := s.driver.GetDB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer tx.Rollback()

	applied := 0
	for _, filePath := range filePaths {
		fileVersion := migrationFileVersion(filePath)
		if !shouldApplyMigration(fileVersion, currentSchemaVersion, targetSchemaVersion) {
			continue
		}
		if !strings.Contains(filepath.Base(filePath), MigrateFileNameSplit) {
			return errors.Errorf("invalid migration filename format: %s", filePath)
		}
		buf, err := migrationFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration file %s", filePath)
		}
		if _, err := tx.ExecContext(ctx, string(buf)); err != nil {
			return errors.Wrapf(err, "failed to apply migration %s", filePath)
		}
		applied++
		slog.Info("applied migration", slog.String("file", filePath))
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit migrations")
	}

	if _, err := s.UpsertInstanceSetting(ctx, &InstanceSetting{
		Name:  InstanceSettingSchemaVersion,
		Value: targetSchemaVersion,
	}); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	if applied > 0 {
		slog.Info("schema migrated",
			slog.String("from", currentSchemaVersion),
			slog.String("to", targetSchemaVersion),
			slog.Int("files", applied),
		)
	}
	return nil
}

// seed loads the demo dataset. Runs only in demo mode.
func (s *Store) seed(ctx context.Context) error {
	filePaths, err := fs.Glob(seedFS, fmt.Sprintf("seed/%s/*.sql", s.profile.Driver))
	if err != nil {
		return errors.Wrap(err, "failed to read seed files")
	}
	sort.Strings(filePaths)

	for _, filePath := range filePaths {
		buf, err := seedFS.ReadFile(filePath)
		if err != nil {
			return errors.Wrapf(err, "failed to read seed file %s", filePath)
		}
		if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
			return errors.Wrapf(err, "failed to apply seed file %s", filePath)
		}
	}
	return nil
}

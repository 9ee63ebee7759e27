package store

import (
	"context"
)

// Instance setting names.
const (
	// InstanceSettingSchemaVersion tracks the applied schema version.
	InstanceSettingSchemaVersion = "schema_version"
)

// InstanceSetting is a named instance-level key/value setting.
type InstanceSetting struct {
	Name  string
	Value string
}

// UpsertInstanceSetting upserts an instance setting.
func (s *Store) UpsertInstanceSetting(ctx context.Context, upsert *InstanceSetting) (*InstanceSetting, error) {
	return s.driver.UpsertInstanceSetting(ctx, upsert)
}

// GetInstanceSetting gets an instance setting by name, or nil when unset.
func (s *Store) GetInstanceSetting(ctx context.Context, name string) (*InstanceSetting, error) {
	return s.driver.GetInstanceSetting(ctx, name)
}

// GetSchemaVersion returns the schema version recorded in the database, or
// an empty string for a fresh database.
func (s *Store) GetSchemaVersion(ctx context.Context) (string, error) {
	setting, err := s.driver.GetInstanceSetting(ctx, InstanceSettingSchemaVersion)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}

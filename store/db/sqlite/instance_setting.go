package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vocasense/vocasense/store"
)

func (d *DB) UpsertInstanceSetting(ctx context.Context, upsert *store.InstanceSetting) (*store.InstanceSetting, error) {
	stmt := `
		INSERT INTO instance_setting (name, value)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Name, upsert.Value); err != nil {
		return nil, fmt.Errorf("failed to upsert instance setting: %w", err)
	}
	return upsert, nil
}

func (d *DB) GetInstanceSetting(ctx context.Context, name string) (*store.InstanceSetting, error) {
	setting := store.InstanceSetting{Name: name}
	err := d.db.QueryRowContext(ctx, "SELECT value FROM instance_setting WHERE name = ?", name).Scan(&setting.Value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get instance setting: %w", err)
	}
	return &setting, nil
}

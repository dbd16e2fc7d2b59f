package repository

import (
	"database/sql"
	"fmt"

	"trackvault/db"
	"trackvault/model"
)

// settingsRowID is the fixed identity of the singleton settings row.
const settingsRowID = 1

// SettingsRepository defines the interface for admin settings persistence.
type SettingsRepository interface {
	// GetSettings returns the settings row, or (nil, nil) when it has never
	// been written.
	GetSettings() (*model.Settings, error)
	// UpsertSettings applies a partial update, inserting the row with
	// defaults if it does not exist, and returns the merged result.
	UpsertSettings(update model.SettingsUpdate) (*model.Settings, error)
}

// mysqlSettingsRepository implements SettingsRepository for MySQL.
type mysqlSettingsRepository struct {
	DB *sql.DB
}

// NewMySQLSettingsRepository creates a new instance of mysqlSettingsRepository.
func NewMySQLSettingsRepository() SettingsRepository {
	return &mysqlSettingsRepository{DB: db.DB}
}

// GetSettings retrieves the singleton settings row.
func (r *mysqlSettingsRepository) GetSettings() (*model.Settings, error) {
	query := `SELECT id, username, password_override, api_enabled, updated_at
	           FROM settings WHERE id = ?`
	row := r.DB.QueryRow(query, settingsRowID)

	settings := &model.Settings{}
	var override sql.NullString
	err := row.Scan(&settings.ID, &settings.Username, &override, &settings.APIEnabled, &settings.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan settings row: %w", err)
	}
	if override.Valid {
		settings.PasswordOverride = override.String
	}
	return settings, nil
}

// UpsertSettings merges the update into the singleton row. Unset fields keep
// their stored value on update and fall back to defaults on first insert.
// The merge happens in Go (read, apply, write); concurrent writers race with
// last-write-wins semantics, which the design accepts.
func (r *mysqlSettingsRepository) UpsertSettings(update model.SettingsUpdate) (*model.Settings, error) {
	current, err := r.GetSettings()
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = model.DefaultSettings()
	}

	if update.Username != nil {
		current.Username = *update.Username
	}
	if update.PasswordOverride != nil {
		current.PasswordOverride = *update.PasswordOverride
	}
	if update.APIEnabled != nil {
		current.APIEnabled = *update.APIEnabled
	}

	override := sql.NullString{String: current.PasswordOverride, Valid: current.PasswordOverride != ""}

	query := `INSERT INTO settings (id, username, password_override, api_enabled)
	           VALUES (?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             username = VALUES(username),
	             password_override = VALUES(password_override),
	             api_enabled = VALUES(api_enabled)`
	if _, err := r.DB.Exec(query, settingsRowID, current.Username, override, current.APIEnabled); err != nil {
		return nil, fmt.Errorf("failed to upsert settings: %w", err)
	}

	settings, err := r.GetSettings()
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, fmt.Errorf("settings row missing after upsert")
	}
	return settings, nil
}

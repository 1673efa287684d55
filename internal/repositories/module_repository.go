package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hunterianlab/modules-platform/internal/models"
)

type moduleRepository struct {
	db *sql.DB
}

// NewModuleRepository creates a new module repository
func NewModuleRepository(db *sql.DB) *moduleRepository {
	return &moduleRepository{
		db: db,
	}
}

// Create inserts a new module document with an empty unit list
func (r *moduleRepository) Create(ctx context.Context, module *models.Module) error {
	query := `
		INSERT INTO modules (title, description, thumbnail, thumbnail_mime_type, units, created_by)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		module.Title,
		nullString(module.Description),
		module.Thumbnail,
		nullString(module.ThumbnailMimeType),
		"[]",
		module.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create module: %w", models.ErrStorage, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: failed to get last insert id: %w", models.ErrStorage, err)
	}

	module.ID = int(id)
	module.Units = []models.Unit{}
	return nil
}

// GetAll retrieves all modules in insertion order without thumbnail bytes
func (r *moduleRepository) GetAll(ctx context.Context) ([]models.ModuleListItem, error) {
	query := `
		SELECT id, title, description, thumbnail IS NOT NULL, JSON_LENGTH(units), created_by
		FROM modules
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query modules: %w", models.ErrStorage, err)
	}
	defer rows.Close()

	modules := []models.ModuleListItem{}
	for rows.Next() {
		var module models.ModuleListItem
		var description sql.NullString
		if err := rows.Scan(
			&module.ID,
			&module.Title,
			&description,
			&module.HasThumbnail,
			&module.UnitCount,
			&module.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan module: %w", models.ErrStorage, err)
		}
		module.Description = description.String
		modules = append(modules, module)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating rows: %w", models.ErrStorage, err)
	}

	return modules, nil
}

// GetByID retrieves a full module document by its ID
func (r *moduleRepository) GetByID(ctx context.Context, id int) (*models.Module, error) {
	query := `
		SELECT id, title, description, thumbnail, thumbnail_mime_type, units, created_by, created_at
		FROM modules
		WHERE id = ?
		LIMIT 1
	`

	var module models.Module
	var description, mimeType sql.NullString
	var unitsJSON string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&module.ID,
		&module.Title,
		&description,
		&module.Thumbnail,
		&mimeType,
		&unitsJSON,
		&module.CreatedBy,
		&module.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("module %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get module by id: %w", models.ErrStorage, err)
	}

	units, err := decodeUnits(unitsJSON)
	if err != nil {
		return nil, err
	}

	module.Description = description.String
	module.ThumbnailMimeType = mimeType.String
	module.Units = units
	return &module, nil
}

// GetThumbnail retrieves the thumbnail bytes and mime type of a module
func (r *moduleRepository) GetThumbnail(ctx context.Context, id int) ([]byte, string, error) {
	query := `SELECT thumbnail, thumbnail_mime_type FROM modules WHERE id = ? LIMIT 1`

	var thumbnail []byte
	var mimeType sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(&thumbnail, &mimeType)
	if err == sql.ErrNoRows {
		return nil, "", fmt.Errorf("module %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: failed to get module thumbnail: %w", models.ErrStorage, err)
	}

	return thumbnail, mimeType.String, nil
}

// ExistsByID checks if a module with the given ID exists
func (r *moduleRepository) ExistsByID(ctx context.Context, id int) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM modules WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: failed to check module existence: %w", models.ErrStorage, err)
	}

	return exists, nil
}

// Delete deletes a module by ID and reports whether a row was removed
func (r *moduleRepository) Delete(ctx context.Context, id int) (bool, error) {
	query := `DELETE FROM modules WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("%w: failed to delete module: %w", models.ErrStorage, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: failed to get rows affected: %w", models.ErrStorage, err)
	}

	return rowsAffected > 0, nil
}

// AppendUnit atomically pushes a unit onto the module's unit list and returns its unit ID.
//
// The unit ID is computed from the stored list length inside the same UPDATE,
// so concurrent appends serialize on the row lock instead of overwriting each other.
func (r *moduleRepository) AppendUnit(ctx context.Context, moduleID int, unit models.Unit) (int, error) {
	if unit.Items == nil {
		unit.Items = []models.Item{}
	}
	unitJSON, err := json.Marshal(unit)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal unit: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to begin transaction: %w", models.ErrStorage, err)
	}
	defer tx.Rollback()

	query := `
		UPDATE modules
		SET units = JSON_ARRAY_APPEND(units, '$', JSON_SET(CAST(? AS JSON), '$.unitId', JSON_LENGTH(units)))
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query, string(unitJSON), moduleID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to append unit: %w", models.ErrStorage, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", models.ErrStorage, err)
	}
	if rowsAffected == 0 {
		return 0, fmt.Errorf("module %d: %w", moduleID, models.ErrNotFound)
	}

	var unitID int
	if err := tx.QueryRowContext(ctx, `SELECT JSON_LENGTH(units) - 1 FROM modules WHERE id = ?`, moduleID).Scan(&unitID); err != nil {
		return 0, fmt.Errorf("%w: failed to read appended unit id: %w", models.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: failed to commit transaction: %w", models.ErrStorage, err)
	}

	return unitID, nil
}

// DeleteUnit removes a unit and rewrites the remaining list with contiguous unit IDs
func (r *moduleRepository) DeleteUnit(ctx context.Context, moduleID, unitID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", models.ErrStorage, err)
	}
	defer tx.Rollback()

	var unitsJSON string
	err = tx.QueryRowContext(ctx, `SELECT units FROM modules WHERE id = ? FOR UPDATE`, moduleID).Scan(&unitsJSON)
	if err == sql.ErrNoRows {
		return fmt.Errorf("module %d: %w", moduleID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: failed to lock module units: %w", models.ErrStorage, err)
	}

	units, err := decodeUnits(unitsJSON)
	if err != nil {
		return err
	}

	units, removed := removeUnit(units, unitID)
	if !removed {
		return fmt.Errorf("unit %d in module %d: %w", unitID, moduleID, models.ErrNotFound)
	}

	rewritten, err := json.Marshal(units)
	if err != nil {
		return fmt.Errorf("failed to marshal units: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE modules SET units = ? WHERE id = ?`, string(rewritten), moduleID); err != nil {
		return fmt.Errorf("%w: failed to rewrite units: %w", models.ErrStorage, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", models.ErrStorage, err)
	}

	return nil
}

// removeUnit drops the unit with the given ID and renumbers the rest to match their positions
func removeUnit(units []models.Unit, unitID int) ([]models.Unit, bool) {
	out := make([]models.Unit, 0, len(units))
	removed := false
	for _, unit := range units {
		if !removed && unit.UnitID == unitID {
			removed = true
			continue
		}
		out = append(out, unit)
	}
	for i := range out {
		out[i].UnitID = i
	}
	return out, removed
}

func decodeUnits(unitsJSON string) ([]models.Unit, error) {
	units := []models.Unit{}
	if unitsJSON == "" {
		return units, nil
	}
	if err := json.Unmarshal([]byte(unitsJSON), &units); err != nil {
		return nil, fmt.Errorf("%w: failed to decode units: %w", models.ErrStorage, err)
	}
	return units, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package presets

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/models"
)

// Source is the read-only view the matcher and merge callers depend on.
type Source interface {
	Get(id string) (models.FrontmatterPreset, error)
	List() ([]models.FrontmatterPreset, error)
}

// Verify *Store satisfies Source at compile time.
var _ Source = (*Store)(nil)

// Save inserts or replaces a preset and its ordered field sequence within
// a transaction.
func (s *Store) Save(p models.FrontmatterPreset) error {
	if p.ID == "" {
		return fmt.Errorf("presets: save: empty id")
	}
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("presets: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.Exec(`
		INSERT INTO presets (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, p.ID, p.Name)
	if err != nil {
		return fmt.Errorf("presets: upsert preset: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM preset_fields WHERE preset_id = ?`, p.ID); err != nil {
		return fmt.Errorf("presets: clear fields: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO preset_fields
			(preset_id, position, key, label, type, dflt, options, use_templater_timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("presets: prepare field insert: %w", err)
	}
	defer stmt.Close()

	for i, f := range p.Fields {
		dflt, _ := json.Marshal(f.Default)
		options, _ := json.Marshal(f.Options)
		ts := 0
		if f.UseTemplaterTimestamp {
			ts = 1
		}
		if _, err := stmt.Exec(p.ID, i, f.Key, f.Label, string(f.Type), string(dflt), string(options), ts); err != nil {
			return fmt.Errorf("presets: insert field %q: %w", f.Key, err)
		}
	}

	return tx.Commit()
}

// Get returns one preset with its fields in definition order.
func (s *Store) Get(id string) (models.FrontmatterPreset, error) {
	var p models.FrontmatterPreset
	err := s.conn.QueryRow(`SELECT id, name FROM presets WHERE id = ?`, id).Scan(&p.ID, &p.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FrontmatterPreset{}, apperr.ErrNotFound
	}
	if err != nil {
		return models.FrontmatterPreset{}, fmt.Errorf("presets: get %s: %w", id, err)
	}
	p.Fields, err = s.fields(id)
	if err != nil {
		return models.FrontmatterPreset{}, err
	}
	return p, nil
}

// List returns every preset, ordered by name then id.
func (s *Store) List() ([]models.FrontmatterPreset, error) {
	rows, err := s.conn.Query(`SELECT id, name FROM presets ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("presets: list: %w", err)
	}
	defer rows.Close()

	var out []models.FrontmatterPreset
	for rows.Next() {
		var p models.FrontmatterPreset
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Fields, err = s.fields(out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes a preset and its fields.
func (s *Store) Delete(id string) error {
	res, err := s.conn.Exec(`DELETE FROM presets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("presets: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) fields(presetID string) ([]models.FrontmatterField, error) {
	rows, err := s.conn.Query(`
		SELECT key, label, type, dflt, options, use_templater_timestamp
		FROM preset_fields
		WHERE preset_id = ?
		ORDER BY position
	`, presetID)
	if err != nil {
		return nil, fmt.Errorf("presets: fields of %s: %w", presetID, err)
	}
	defer rows.Close()

	var out []models.FrontmatterField
	for rows.Next() {
		var f models.FrontmatterField
		var typ, dflt, options string
		var ts int
		if err := rows.Scan(&f.Key, &f.Label, &typ, &dflt, &options, &ts); err != nil {
			return nil, err
		}
		f.Type = models.FieldType(typ)
		f.UseTemplaterTimestamp = ts != 0
		if err := json.Unmarshal([]byte(dflt), &f.Default); err != nil {
			f.Default = nil
		}
		if err := json.Unmarshal([]byte(options), &f.Options); err != nil {
			f.Options = nil
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

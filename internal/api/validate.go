package api

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/models"
)

var fieldTypes = []any{
	models.FieldText,
	models.FieldDate,
	models.FieldSelect,
	models.FieldMultiSelect,
}

// validatePreset checks a preset payload before it reaches the store:
// non-empty id and name, and per-field key uniqueness and known types.
func validatePreset(p models.FrontmatterPreset) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Name, validation.Required),
	)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(p.Fields))
	for i, f := range p.Fields {
		if err := validation.ValidateStruct(&f,
			validation.Field(&f.Key, validation.Required),
			validation.Field(&f.Type, validation.Required, validation.In(fieldTypes...)),
		); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		if _, dup := seen[f.Key]; dup {
			return fmt.Errorf("field %d: duplicate key %q", i, f.Key)
		}
		seen[f.Key] = struct{}{}
	}
	return nil
}

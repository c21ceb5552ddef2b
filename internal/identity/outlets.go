package identity

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/showscore/marquee/internal/domain"
)

// Package-level validator instance for reference data validation.
var validate = validator.New()

// outletFile is the on-disk shape of the outlet reference data.
type outletFile struct {
	Outlets []domain.Outlet `yaml:"outlets" validate:"required,min=1,dive"`
}

// LoadOutlets reads the outlet reference data from a YAML file. The file
// is immutable reference data loaded once at pipeline start; tier changes
// are rare manual edits to this file.
//
// Every outlet is validated (id, name, tier range, known format) and
// star-rated outlets must declare a max scale.
func LoadOutlets(path string) ([]domain.Outlet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outlet reference data: %w", err)
	}

	var file outletFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse outlet reference data: %w", err)
	}

	if err := validate.Struct(file); err != nil {
		return nil, fmt.Errorf("outlet reference data validation failed: %w", err)
	}

	for _, outlet := range file.Outlets {
		if outlet.Format == domain.FormatStars && outlet.MaxScale <= 0 {
			return nil, fmt.Errorf("outlet %q declares star ratings but no max scale", outlet.ID)
		}
	}

	return file.Outlets, nil
}

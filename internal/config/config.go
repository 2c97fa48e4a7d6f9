package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/storedbg/internal/store"
	"github.com/danmuck/storedbg/internal/types"
)

var ErrInvalidDescription = errors.New("config: invalid store description")

// LoadStoreDescription reads and validates one store description file.
func LoadStoreDescription(path string) (store.Description, error) {
	var desc store.Description
	if err := loadToml(path, &desc); err != nil {
		return store.Description{}, err
	}
	if err := ValidateStoreDescription(desc); err != nil {
		return store.Description{}, fmt.Errorf("%s: %w", path, err)
	}
	return desc, nil
}

// ParseStoreDescription decodes a description held in memory.
func ParseStoreDescription(data []byte) (store.Description, error) {
	var desc store.Description
	if err := toml.Unmarshal(data, &desc); err != nil {
		return store.Description{}, fmt.Errorf("config parse failed: %w", err)
	}
	if err := ValidateStoreDescription(desc); err != nil {
		return store.Description{}, err
	}
	return desc, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ValidateStoreDescription catches the mistakes that are cheaper to report
// by field than by the builder's first failure.
func ValidateStoreDescription(desc store.Description) error {
	if err := store.ValidateStoreName(strings.TrimSpace(desc.Name)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDescription, err)
	}
	for i, v := range desc.Variables {
		if err := validateObject(v.Name, v.Type); err != nil {
			return fmt.Errorf("%w: variable[%d]: %w", ErrInvalidDescription, i, err)
		}
	}
	for i, f := range desc.Functions {
		if err := validateObject(f.Name, f.Type); err != nil {
			return fmt.Errorf("%w: function[%d]: %w", ErrInvalidDescription, i, err)
		}
	}
	return nil
}

func validateObject(name, typ string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	if !strings.HasPrefix(name, "/") {
		return fmt.Errorf("name %q must start with /", name)
	}
	if strings.TrimSpace(typ) == "" {
		return fmt.Errorf("type is required for %q", name)
	}
	if _, err := types.ParseType(typ); err != nil {
		return err
	}
	return nil
}

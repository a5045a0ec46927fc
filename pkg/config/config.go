// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable
// expansion, then validates it when target implements Validator.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return Decode(filename, data, target)
}

// Decode parses YAML bytes into target. name is only used in errors.
func Decode[T any](name string, data []byte, target *T) error {
	expanded := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expanded), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", name, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}

// LoadOptional is Load for files that may be absent: a missing file leaves
// target as is (still validated) and reports false.
func LoadOptional[T any](filename string, target *T) (bool, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		if validator, ok := any(target).(Validator); ok {
			if err := validator.Validate(); err != nil {
				return false, fmt.Errorf("config validation failed: %w", err)
			}
		}
		return false, nil
	}
	return true, Load(filename, target)
}

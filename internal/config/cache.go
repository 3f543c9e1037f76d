package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveFlagCache merges values into the YAML configuration file at path so
// later invocations can omit them. Existing keys not in values are kept.
func SaveFlagCache(path string, values map[string]interface{}) error {
	if path == "" {
		return fmt.Errorf("no configuration file to write the flag cache to")
	}

	current := map[string]interface{}{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &current); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		if current == nil {
			current = map[string]interface{}{}
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to read config file: %w", err)
	}

	for key, value := range values {
		if value == nil || value == "" {
			continue
		}
		current[key] = value
	}

	out, err := yaml.Marshal(current)
	if err != nil {
		return fmt.Errorf("failed to encode config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

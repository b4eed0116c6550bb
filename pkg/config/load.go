package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads a configuration document. The format is chosen by extension:
// .yaml/.yml, .toml or .json.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data, strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// Parse decodes a configuration document in the given format.
func Parse(data []byte, format string) (Config, error) {
	raw := map[string]any{}

	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Default(), fmt.Errorf("failed to parse yaml config: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Default(), fmt.Errorf("failed to parse toml config: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return Default(), fmt.Errorf("failed to parse json config: %w", err)
		}
	default:
		return Default(), fmt.Errorf("unsupported config format %q", format)
	}

	return Decode(raw)
}

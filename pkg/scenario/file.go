package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a scenario from a YAML or JSON file. A missing id defaults to
// the file name without extension.
func Load(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return Scenario{}, fmt.Errorf("%s: %w", path, err)
	}
	if sc.ID == "" {
		sc.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes a scenario, as JSON when ext is ".json" and YAML otherwise.
func Parse(data []byte, ext string) (Scenario, error) {
	var sc Scenario
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &sc); err != nil {
			return sc, fmt.Errorf("failed to parse scenario json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return sc, fmt.Errorf("failed to parse scenario yaml: %w", err)
		}
	}
	return sc, sc.Validate()
}

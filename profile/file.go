package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFromFile loads a profile from a YAML or JSON file. Fields missing in
// the file keep the values of the default profile.
func LoadFromFile(path string) (AccountProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return AccountProfile{}, fmt.Errorf("read profile file: %w", err)
	}

	p := The5ers10KHighStakes()
	p.Phases = nil

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, &p); err != nil {
		if err := json.Unmarshal(data, &p); err != nil {
			return AccountProfile{}, fmt.Errorf("parse profile (tried YAML and JSON): %w", err)
		}
	}
	if len(p.Phases) == 0 {
		p.Phases = the5ersPhases()
	}

	if err := p.Validate(); err != nil {
		return AccountProfile{}, fmt.Errorf("invalid profile: %w", err)
	}
	return p, nil
}

// SaveToFile writes the profile as YAML for .yaml/.yml paths and JSON otherwise.
func (p AccountProfile) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(p)
	} else {
		data, err = json.MarshalIndent(p, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write profile file: %w", err)
	}
	return nil
}

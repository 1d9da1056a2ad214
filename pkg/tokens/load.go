package tokens

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk form of a custom rule table.
//
//	rules:
//	  - name: content
//	    token_patterns: ["content.*"]
//	    allowed_properties: [color]
type tableFile struct {
	Rules []Rule `yaml:"rules"`
}

// ParseTable compiles a YAML rule table.
func ParseTable(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rule table: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rule table defines no rules")
	}
	return NewTable(f.Rules)
}

// LoadTable reads and compiles the YAML rule table at path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

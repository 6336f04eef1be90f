package domain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Model     WorkflowModel      `yaml:"model"`
	Statuses  []StatusDefinition `yaml:"statuses"`
	Documents []DocumentStep     `yaml:"documents"`
}

// ParseCatalog decodes a YAML catalog. A missing model defaults to ladder.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}
	if f.Model == "" {
		f.Model = ModelLadder
	}
	c, err := NewCatalog(f.Model, f.Statuses, f.Documents)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// MarshalCatalog renders c in the same YAML shape ParseCatalog accepts.
func MarshalCatalog(c *Catalog) ([]byte, error) {
	return yaml.Marshal(catalogFile{
		Model:     c.Model(),
		Statuses:  c.Statuses(),
		Documents: c.DocumentSteps(),
	})
}

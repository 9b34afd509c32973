package config

import (
	"fmt"
	"os"

	"github.com/doc-inspector/webclient/internal/models"
	"gopkg.in/yaml.v3"
)

// FilterCatalog is the ordered set of filters offered on a page.
type FilterCatalog struct {
	Filters []models.Filter `yaml:"filters"`
}

// DefaultFilterCatalog mirrors the classes the detection model was trained on.
func DefaultFilterCatalog() *FilterCatalog {
	return &FilterCatalog{
		Filters: []models.Filter{
			{ID: "Signature", Label: "Подписи", Checked: true},
			{ID: "stamp", Label: "Печати", Checked: true},
			{ID: "qr-code", Label: "QR-коды", Checked: true},
			{ID: "text", Label: "Текст", Checked: false},
		},
	}
}

// LoadFilterCatalog reads a YAML catalog. An empty path yields the default catalog.
func LoadFilterCatalog(path string) (*FilterCatalog, error) {
	if path == "" {
		return DefaultFilterCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read filters file: %w", err)
	}

	return ParseFilterCatalog(data)
}

// ParseFilterCatalog parses YAML catalog content.
func ParseFilterCatalog(data []byte) (*FilterCatalog, error) {
	var catalog FilterCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse filters: %w", err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, err
	}

	return &catalog, nil
}

// Validate rejects catalogs with no filters, empty ids or duplicates.
func (fc *FilterCatalog) Validate() error {
	if len(fc.Filters) == 0 {
		return fmt.Errorf("filter catalog is empty")
	}

	seen := make(map[string]bool, len(fc.Filters))
	for i, f := range fc.Filters {
		if f.ID == "" {
			return fmt.Errorf("filter %d has an empty id", i)
		}
		if seen[f.ID] {
			return fmt.Errorf("duplicate filter id: %s", f.ID)
		}
		seen[f.ID] = true
	}
	return nil
}

// IDs returns filter ids in catalog order.
func (fc *FilterCatalog) IDs() []string {
	ids := make([]string, len(fc.Filters))
	for i, f := range fc.Filters {
		ids[i] = f.ID
	}
	return ids
}

// DefaultChecked returns the ids of filters that start out checked.
func (fc *FilterCatalog) DefaultChecked() []string {
	var ids []string
	for _, f := range fc.Filters {
		if f.Checked {
			ids = append(ids, f.ID)
		}
	}
	return ids
}

// Has reports whether id is in the catalog.
func (fc *FilterCatalog) Has(id string) bool {
	for _, f := range fc.Filters {
		if f.ID == id {
			return true
		}
	}
	return false
}

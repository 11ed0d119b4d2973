// Package indicators loads the catalog of facts the extractor looks for.
package indicators

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Indicators []domain.IndicatorSpec `yaml:"indicators"`
}

// Default returns the embedded catalog.
func Default() ([]domain.IndicatorSpec, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) ([]domain.IndicatorSpec, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "read indicator catalog", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog. List order is kept.
func Parse(data []byte) ([]domain.IndicatorSpec, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, domain.WrapError(domain.ErrConfig, "parse indicator catalog", err)
	}
	if err := Validate(file.Indicators); err != nil {
		return nil, err
	}
	return file.Indicators, nil
}

func Validate(specs []domain.IndicatorSpec) error {
	if len(specs) == 0 {
		return domain.WrapError(domain.ErrConfig, "validate indicator catalog", fmt.Errorf("catalog is empty"))
	}
	seen := make(map[string]struct{}, len(specs))
	for i, spec := range specs {
		key := strings.TrimSpace(spec.Key)
		switch {
		case key == "":
			return invalid(fmt.Errorf("indicator #%d has no key", i+1))
		case strings.TrimSpace(spec.Question) == "":
			return invalid(fmt.Errorf("indicator %s has no question", key))
		case len(spec.Units) == 0:
			return invalid(fmt.Errorf("indicator %s has no units", key))
		}
		if _, dup := seen[key]; dup {
			return invalid(fmt.Errorf("duplicate indicator key %s", key))
		}
		seen[key] = struct{}{}
	}
	return nil
}

func invalid(err error) error {
	return domain.WrapError(domain.ErrConfig, "validate indicator catalog", err)
}

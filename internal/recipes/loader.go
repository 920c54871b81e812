package recipes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Version string   `json:"version" yaml:"version"`
	Recipes []Recipe `json:"recipes" yaml:"recipes"`
}

// Loader resolves recipe catalogs by name against a list of search paths.
// Catalogs may be JSON or YAML; both are checked against the embedded schema
// before use. Loaded catalogs are cached per name.
type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewLoader(searchPaths []string) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

func (l *Loader) Load(catalogName string) (*Catalog, error) {
	if cached, ok := l.cache.Load(catalogName); ok {
		return cached.(*Catalog), nil
	}

	var data []byte
	var foundPath string

	for _, searchPath := range l.searchPaths {
		for _, ext := range []string{".json", ".yaml", ".yml"} {
			fullPath := filepath.Join(searchPath, catalogName+ext)
			raw, err := os.ReadFile(fullPath)
			if err != nil {
				continue
			}
			data = raw
			foundPath = fullPath
			break
		}
		if data != nil {
			break
		}
	}

	if data == nil {
		return nil, fmt.Errorf("recipe catalog not found: %s (searched in: %v)", catalogName, l.searchPaths)
	}

	// YAML catalogs are converted to JSON so one schema covers both formats.
	if ext := filepath.Ext(foundPath); ext == ".yaml" || ext == ".yml" {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", foundPath, err)
		}
		data = converted
	}

	if err := l.validator.ValidateCatalog(data); err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	catalog := NewCatalog(file.Recipes)
	l.cache.Store(catalogName, catalog)

	return catalog, nil
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value interface{}) bool {
		l.cache.Delete(key)
		return true
	})
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML rewrites map[string]interface{} trees so they survive
// json.Marshal; yaml.v3 already decodes mappings with string keys but nested
// sequences may still hold arbitrary values.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return val
	}
}

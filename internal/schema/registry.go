package schema

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry loads and caches per-table schemas. A caller-supplied
// directory overrides or extends the built-in defaults per table, never
// globally: a table absent from the directory still falls back to its
// default. Load failures are non-fatal; the registry logs and falls back
// to the default schema or to numeric-only addressing.
type Registry struct {
	dir    string
	logger *slog.Logger
	cache  map[string]*Schema // Lowercased table name; nil entry = no schema.
}

// NewRegistry creates a registry reading overrides from dir. An empty
// dir means built-in defaults only.
func NewRegistry(dir string, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		dir:    dir,
		logger: logger,
		cache:  make(map[string]*Schema),
	}
}

// Lookup returns the schema for a table, or nil when none is known.
func (r *Registry) Lookup(table string) *Schema {
	key := strings.ToLower(table)
	if s, ok := r.cache[key]; ok {
		return s
	}
	s := r.load(table)
	r.cache[key] = s
	return s
}

func (r *Registry) load(table string) *Schema {
	if r.dir != "" {
		for _, name := range []string{table + ".yaml", table + ".yml"} {
			path := filepath.Join(r.dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				if !os.IsNotExist(err) {
					r.logger.Warn("schema unreadable, falling back", "table", table, "path", path, "error", err)
				}
				continue
			}
			s, err := parseSchemaFile(table, data)
			if err != nil {
				r.logger.Warn("schema malformed, falling back", "table", table, "path", path, "error", err)
				continue
			}
			r.logger.Debug("schema loaded", "table", table, "path", path, "fields", s.Len())
			return s
		}
	}
	if fields, ok := defaultSchemas[strings.ToLower(table)]; ok {
		r.logger.Debug("using built-in schema", "table", table, "fields", len(fields))
		return New(table, fields)
	}
	return nil
}

// parseSchemaFile accepts three listing formats: a sequence of field
// names in column order, a mapping with a `fields` sequence, or a
// mapping of field names to indices.
func parseSchemaFile(table string, data []byte) (*Schema, error) {
	var asList []string
	if err := yaml.Unmarshal(data, &asList); err == nil && len(asList) > 0 {
		return New(table, asList), nil
	}

	var asFields struct {
		Fields []string `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &asFields); err == nil && len(asFields.Fields) > 0 {
		return New(table, asFields.Fields), nil
	}

	var asIndices map[string]int
	if err := yaml.Unmarshal(data, &asIndices); err == nil && len(asIndices) > 0 {
		return NewFromIndices(table, asIndices), nil
	}

	return nil, fmt.Errorf("not a field list, fields mapping, or name-index mapping")
}

// Package schema maps field names to column indices for known tables.
//
// Schemas are loaded read-only from a directory of YAML listings, with
// built-in defaults for a handful of known client tables. Lookup is
// case-insensitive. A table without a schema still accepts numeric field
// references.
package schema

import (
	"strings"

	"github.com/modcraft-labs/dbcforge/internal/patch"
)

// Schema holds the field-name to column-index mapping for one table.
type Schema struct {
	Table  string
	fields map[string]int
}

// New builds a schema from an ordered field list: the index of each name
// is its position.
func New(table string, fieldNames []string) *Schema {
	fields := make(map[string]int, len(fieldNames))
	for i, name := range fieldNames {
		fields[strings.ToLower(name)] = i
	}
	return &Schema{Table: table, fields: fields}
}

// NewFromIndices builds a schema from explicit name to index pairs.
func NewFromIndices(table string, indices map[string]int) *Schema {
	fields := make(map[string]int, len(indices))
	for name, i := range indices {
		fields[strings.ToLower(name)] = i
	}
	return &Schema{Table: table, fields: fields}
}

// FieldIndex resolves a field name case-insensitively.
func (s *Schema) FieldIndex(name string) (int, bool) {
	i, ok := s.fields[strings.ToLower(name)]
	return i, ok
}

// Len returns the number of named fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Resolve turns a field reference into a column index. Numeric references
// resolve directly and never need a schema. Name references require a
// schema; a nil schema or an unknown name fails, and the caller skips
// that single assignment with a warning.
func Resolve(ref patch.FieldRef, s *Schema) (int, bool) {
	if i, ok := ref.Index(); ok {
		return i, true
	}
	if s == nil {
		return 0, false
	}
	return s.FieldIndex(ref.Name())
}

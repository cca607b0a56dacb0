package engine

import "fmt"

// WarningKind classifies non-fatal apply problems.
type WarningKind string

const (
	// WarnUnknownField is emitted when a field or key-column name cannot
	// be resolved; only the single affected assignment is skipped.
	WarnUnknownField WarningKind = "unknown_field"
	// WarnKeyNotFound is emitted when an update or copy targets a key
	// with no matching row; the change is a no-op.
	WarnKeyNotFound WarningKind = "key_not_found"
	// WarnDuplicateKey is emitted when an insert or copy would introduce
	// a key that already exists; the new row is discarded.
	WarnDuplicateKey WarningKind = "duplicate_key"
)

// Warning records one non-fatal problem with full provenance. Warnings
// never abort the run; they are accumulated and reported afterwards.
type Warning struct {
	File    string      // Patch file the change came from.
	Ordinal int         // Change ordinal within the file, counting from 0.
	Table   string      // Target table name.
	Kind    WarningKind //
	Detail  string      //
}

func (w Warning) String() string {
	return fmt.Sprintf("%s #%d %s: %s: %s", w.File, w.Ordinal, w.Table, w.Kind, w.Detail)
}

// Provenance identifies the patch entry a warning originates from.
type Provenance struct {
	File    string
	Ordinal int
	Table   string
}

func (p Provenance) warn(kind WarningKind, format string, args ...any) Warning {
	return Warning{
		File:    p.File,
		Ordinal: p.Ordinal,
		Table:   p.Table,
		Kind:    kind,
		Detail:  fmt.Sprintf(format, args...),
	}
}

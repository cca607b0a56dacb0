package engine

// executor.go - the change state machine
//
// Apply is a deterministic state transition: one change against one
// table, in strict sequence. Later changes in the same run observe the
// rows appended by earlier ones, which is what makes the duplicate-key
// checks meaningful.

import (
	"github.com/modcraft-labs/dbcforge/internal/dbc"
	"github.com/modcraft-labs/dbcforge/internal/patch"
	"github.com/modcraft-labs/dbcforge/internal/schema"
)

// Apply executes one change against a table, mutating it in place.
// A change either fully completes or leaves the table untouched; partial
// effects are limited to individually skipped field assignments and, for
// a discarded copy, strings already interned while preparing the clone.
func Apply(tbl *dbc.Table, ch patch.Change, sch *schema.Schema, prov Provenance) []Warning {
	switch ch.Kind {
	case patch.KindUpdate:
		return applyUpdate(tbl, ch, sch, prov)
	case patch.KindInsert:
		return applyInsert(tbl, ch, sch, prov)
	case patch.KindCopy:
		return applyCopy(tbl, ch, sch, prov)
	default:
		return []Warning{prov.warn(WarnUnknownField, "unknown change kind %q", ch.Kind)}
	}
}

func applyUpdate(tbl *dbc.Table, ch patch.Change, sch *schema.Schema, prov Provenance) []Warning {
	var warnings []Warning
	keyCol := resolveKeyColumn(ch, sch, prov, &warnings)

	idx, found := tbl.FindRow(keyCol, ch.Key)
	if !found {
		return append(warnings, prov.warn(WarnKeyNotFound, "no row with key %d in column %d", ch.Key, keyCol))
	}
	applyAssignments(tbl.Rows[idx], ch.Fields, sch, tbl.Pool, prov, &warnings)
	return warnings
}

func applyInsert(tbl *dbc.Table, ch patch.Change, sch *schema.Schema, prov Provenance) []Warning {
	var warnings []Warning
	keyCol := resolveKeyColumn(ch, sch, prov, &warnings)

	// The target key is an explicit key-column entry in values when one
	// exists, otherwise the change's own key (default 0).
	var target uint32
	if ch.HasKey {
		target = ch.Key
	}
	for _, a := range ch.Fields {
		if idx, ok := schema.Resolve(a.Field, sch); ok && idx == keyCol {
			if bits, ok := a.Value.Bits(); ok {
				target = bits
			}
		}
	}

	// Duplicate check runs against the table's current state, so it sees
	// rows appended by earlier changes in this run. With a key column
	// outside the row there is nothing to check against.
	if keyCol < tbl.FieldCount {
		if _, exists := tbl.FindRow(keyCol, target); exists {
			return append(warnings, prov.warn(WarnDuplicateKey, "row with key %d already exists, insert discarded", target))
		}
	}

	row := tbl.NewRow()
	if keyCol < len(row) {
		row[keyCol] = target
	}
	applyAssignments(row, ch.Fields, sch, tbl.Pool, prov, &warnings)
	_ = tbl.AppendRow(row)
	return warnings
}

func applyCopy(tbl *dbc.Table, ch patch.Change, sch *schema.Schema, prov Provenance) []Warning {
	var warnings []Warning
	keyCol := resolveKeyColumn(ch, sch, prov, &warnings)

	src, found := tbl.FindRow(keyCol, ch.Key)
	if !found {
		return append(warnings, prov.warn(WarnKeyNotFound, "no row with key %d to copy", ch.Key))
	}

	// Pool offsets are copied verbatim: the clone shares referenced
	// string bytes with the source row.
	row := tbl.CloneRow(src)
	applyAssignments(row, ch.Fields, sch, tbl.Pool, prov, &warnings)

	// A clone whose updates left the source key in place collides with
	// the source itself; that is the caller's responsibility to avoid.
	if keyCol < len(row) {
		if _, exists := tbl.FindRow(keyCol, row[keyCol]); exists {
			return append(warnings, prov.warn(WarnDuplicateKey, "row with key %d already exists, copy discarded", row[keyCol]))
		}
	}
	_ = tbl.AppendRow(row)
	return warnings
}

// resolveKeyColumn resolves the change's key column, defaulting to 0.
// An unresolvable name warns and falls back to 0 rather than dropping
// the change.
func resolveKeyColumn(ch patch.Change, sch *schema.Schema, prov Provenance, warnings *[]Warning) int {
	if !ch.HasKeyColumn {
		return 0
	}
	if idx, ok := schema.Resolve(ch.KeyColumn, sch); ok {
		return idx
	}
	*warnings = append(*warnings, prov.warn(WarnUnknownField, "unknown key column %q, defaulting to 0", ch.KeyColumn))
	return 0
}

// applyAssignments writes each resolvable assignment into the row.
// Unresolved or out-of-range fields are skipped one at a time; the rest
// of the change proceeds. String values are interned at assignment time,
// so every assignment appends a fresh copy to the pool.
func applyAssignments(row []uint32, assigns []patch.Assignment, sch *schema.Schema, pool *dbc.StringPool, prov Provenance, warnings *[]Warning) {
	for _, a := range assigns {
		idx, ok := schema.Resolve(a.Field, sch)
		if !ok {
			*warnings = append(*warnings, prov.warn(WarnUnknownField, "unknown field %q, skipping", a.Field))
			continue
		}
		if idx >= len(row) {
			*warnings = append(*warnings, prov.warn(WarnUnknownField, "field %q resolves to column %d, out of range", a.Field, idx))
			continue
		}
		if a.Value.Kind == patch.ValueString {
			row[idx] = pool.Intern(a.Value.Str)
			continue
		}
		if bits, ok := a.Value.Bits(); ok {
			row[idx] = bits
		}
	}
}

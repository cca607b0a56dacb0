// Package patch loads declarative YAML change documents and normalizes
// their heterogeneous shapes into one canonical ordered list of
// (table, change) entries.
package patch

import "strconv"

// ChangeKind discriminates the three change variants.
type ChangeKind string

const (
	// KindUpdate modifies fields of an existing row located by key.
	KindUpdate ChangeKind = "update"
	// KindInsert appends a new all-zero row with the given values.
	KindInsert ChangeKind = "insert"
	// KindCopy clones an existing row and applies updates to the clone.
	KindCopy ChangeKind = "copy"
)

// FieldRef addresses a column either by numeric index or by schema field
// name. It is kept unresolved until apply time, when the schema registry
// turns it into a column index.
type FieldRef struct {
	raw string
}

// NewFieldRef builds a reference from its source spelling.
func NewFieldRef(s string) FieldRef {
	return FieldRef{raw: s}
}

// Index returns the column index when the reference is a numeric string.
func (r FieldRef) Index() (int, bool) {
	i, err := strconv.Atoi(r.raw)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Name returns the source spelling, used for schema lookup.
func (r FieldRef) Name() string {
	return r.raw
}

func (r FieldRef) String() string {
	return r.raw
}

// Assignment pairs a field reference with its new value. Assignments are
// applied in document declaration order.
type Assignment struct {
	Field FieldRef
	Value Value
}

// Change is one normalized change. Kind selects the variant; the
// remaining fields mirror the recognized document keys. Fields holds the
// entries of `fields`, `values` or `updates` depending on the kind.
type Change struct {
	Kind ChangeKind

	// Key locates an existing row (update, copy) or pre-seeds the key
	// cell of a new row (insert). HasKey distinguishes an absent key
	// from an explicit 0.
	Key    uint32
	HasKey bool

	// KeyColumn names the column holding the key. Unset means column 0.
	KeyColumn    FieldRef
	HasKeyColumn bool

	Fields []Assignment
}

// Entry is one normalized (table, change) pair in declaration order.
type Entry struct {
	Table  string
	Change Change
}

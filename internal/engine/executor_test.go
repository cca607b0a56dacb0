package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modcraft-labs/dbcforge/internal/dbc"
	"github.com/modcraft-labs/dbcforge/internal/patch"
	"github.com/modcraft-labs/dbcforge/internal/schema"
	"github.com/modcraft-labs/dbcforge/internal/testutil"
)

var testProv = Provenance{File: "test.yaml", Ordinal: 0, Table: "Spell.dbc"}

func spellSchema() *schema.Schema {
	return schema.New("Spell.dbc", []string{"id", "school", "category", "name"})
}

func spellTable(t *testing.T) *dbc.Table {
	t.Helper()
	tbl, err := dbc.Parse("Spell.dbc", testutil.MakeDBC(4, [][]uint32{
		{1, 2, 10, 1},
		{5, 3, 20, 0},
	}, []byte("\x00Fireball\x00")))
	require.NoError(t, err)
	return tbl
}

func intVal(i int64) patch.Value      { return patch.Value{Kind: patch.ValueInt, Int: i} }
func floatVal(f float64) patch.Value  { return patch.Value{Kind: patch.ValueFloat, Float: f} }
func strVal(s string) patch.Value     { return patch.Value{Kind: patch.ValueString, Str: s} }
func assign(field string, v patch.Value) patch.Assignment {
	return patch.Assignment{Field: patch.NewFieldRef(field), Value: v}
}

func TestApplyUpdate_TouchesOnlyNamedCells(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 5, HasKey: true,
		Fields: []patch.Assignment{assign("school", intVal(7))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	assert.Equal(t, []uint32{5, 7, 20, 0}, tbl.Rows[1], "only the named cell changes")
	assert.Equal(t, []uint32{1, 2, 10, 1}, tbl.Rows[0], "other rows untouched")
	require.Len(t, tbl.Rows, 2)
}

func TestApplyUpdate_KeyNotFoundIsNoOp(t *testing.T) {
	tbl := spellTable(t)
	before := tbl.Serialize()

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 999, HasKey: true,
		Fields: []patch.Assignment{assign("school", intVal(7))},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnKeyNotFound, warnings[0].Kind)
	assert.Equal(t, "test.yaml", warnings[0].File)
	assert.Equal(t, before, tbl.Serialize())
}

func TestApplyUpdate_UnknownFieldSkipsJustThatAssignment(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{
			assign("school", intVal(9)),
			assign("mana", intVal(50)),
			assign("category", intVal(30)),
		},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnknownField, warnings[0].Kind)
	assert.Equal(t, []uint32{1, 9, 30, 1}, tbl.Rows[0], "resolvable assignments still apply")
}

func TestApplyUpdate_FloatWritesIEEEBits(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("category", floatVal(0.5))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	assert.Equal(t, uint32(0x3F000000), tbl.Rows[0][2])
}

func TestApplyUpdate_StringInternsFreshCopy(t *testing.T) {
	tbl := spellTable(t)
	poolBefore := tbl.Pool.Len()

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("name", strVal("Hi"))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	assert.Equal(t, uint32(poolBefore), tbl.Rows[0][3], "cell holds the pre-append offset")
	assert.Equal(t, poolBefore+len("Hi")+1, tbl.Pool.Len())

	s, ok := tbl.Pool.StringAt(tbl.Rows[0][3])
	require.True(t, ok)
	assert.Equal(t, "Hi", s)
}

func TestApplyUpdate_RepeatedStringNeverDeduplicates(t *testing.T) {
	tbl := spellTable(t)
	poolBefore := tbl.Pool.Len()

	for i := 0; i < 2; i++ {
		Apply(tbl, patch.Change{
			Kind: patch.KindUpdate, Key: 1, HasKey: true,
			Fields: []patch.Assignment{assign("name", strVal("Fireball"))},
		}, spellSchema(), testProv)
	}

	assert.Equal(t, poolBefore+2*len("Fireball\x00"), tbl.Pool.Len())
}

func TestApplyUpdate_OutOfRangeIntSkipped(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("school", intVal(-1))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings, "unrepresentable values are skipped silently")
	assert.Equal(t, uint32(2), tbl.Rows[0][1])
}

func TestApplyUpdate_CustomKeyColumn(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 3, HasKey: true,
		KeyColumn: patch.NewFieldRef("school"), HasKeyColumn: true,
		Fields: []patch.Assignment{assign("category", intVal(99))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	assert.Equal(t, uint32(99), tbl.Rows[1][2], "matched on school=3")
}

func TestApplyUpdate_UnknownKeyColumnFallsBackToZero(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 5, HasKey: true,
		KeyColumn: patch.NewFieldRef("bogus"), HasKeyColumn: true,
		Fields: []patch.Assignment{assign("category", intVal(99))},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnknownField, warnings[0].Kind)
	assert.Equal(t, uint32(99), tbl.Rows[1][2], "fell back to column 0, key 5")
}

func TestApplyInsert_AppendsRowWithKey(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindInsert, Key: 10, HasKey: true,
		Fields: []patch.Assignment{assign("school", intVal(4))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []uint32{10, 4, 0, 0}, tbl.Rows[2])
}

func TestApplyInsert_ValuesKeyEntryWinsOverChangeKey(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindInsert, Key: 10, HasKey: true,
		Fields: []patch.Assignment{assign("id", intVal(42))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, uint32(42), tbl.Rows[2][0])
}

func TestApplyInsert_DuplicateKeyDiscardsRow(t *testing.T) {
	tbl := spellTable(t)
	poolBefore := tbl.Pool.Len()

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindInsert, Key: 5, HasKey: true,
		Fields: []patch.Assignment{assign("name", strVal("Clone"))},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateKey, warnings[0].Kind)
	require.Len(t, tbl.Rows, 2, "table unchanged")
	assert.Equal(t, poolBefore, tbl.Pool.Len(),
		"dup check runs before values apply, so nothing was interned")
}

func TestApplyInsert_WithoutKeyDefaultsToZero(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind:   patch.KindInsert,
		Fields: []patch.Assignment{assign("school", intVal(4))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, uint32(0), tbl.Rows[2][0])

	// A second keyless insert now collides with the first.
	warnings = Apply(tbl, patch.Change{
		Kind:   patch.KindInsert,
		Fields: []patch.Assignment{assign("school", intVal(5))},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateKey, warnings[0].Kind)
	assert.Len(t, tbl.Rows, 3)
}

func TestApplyInsert_SeesRowsFromEarlierChanges(t *testing.T) {
	tbl := spellTable(t)

	first := Apply(tbl, patch.Change{Kind: patch.KindInsert, Key: 77, HasKey: true}, spellSchema(), testProv)
	assert.Empty(t, first)

	second := Apply(tbl, patch.Change{Kind: patch.KindInsert, Key: 77, HasKey: true}, spellSchema(), testProv)
	require.Len(t, second, 1)
	assert.Equal(t, WarnDuplicateKey, second[0].Kind)
	assert.Len(t, tbl.Rows, 3)
}

func TestApplyInsert_OutOfRangeKeyColumnAppendsWithoutDupCheck(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindInsert, Key: 1, HasKey: true,
		KeyColumn: patch.NewFieldRef("9"), HasKeyColumn: true,
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	assert.Len(t, tbl.Rows, 3, "no cell to compare against, so the row appends")
}

func TestApplyCopy_ClonesAndUpdates(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindCopy, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("id", intVal(200))},
	}, spellSchema(), testProv)

	assert.Empty(t, warnings)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, []uint32{200, 2, 10, 1}, tbl.Rows[2], "unnamed cells come from the source row")

	s, ok := tbl.Pool.StringAt(tbl.Rows[2][3])
	require.True(t, ok)
	assert.Equal(t, "Fireball", s, "clone shares the source's pool offsets")
}

func TestApplyCopy_SourceNotFound(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{Kind: patch.KindCopy, Key: 999, HasKey: true}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnKeyNotFound, warnings[0].Kind)
	assert.Len(t, tbl.Rows, 2)
}

func TestApplyCopy_RetainedKeyCollidesWithSource(t *testing.T) {
	tbl := spellTable(t)

	// Updates that never touch the key column leave the clone's key equal
	// to the source's, which the re-check treats as a duplicate.
	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindCopy, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("school", intVal(6))},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateKey, warnings[0].Kind)
	assert.Len(t, tbl.Rows, 2, "colliding clone is discarded")
}

func TestApplyCopy_DiscardedCloneStillGrowsPool(t *testing.T) {
	tbl := spellTable(t)
	poolBefore := tbl.Pool.Len()

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindCopy, Key: 1, HasKey: true,
		Fields: []patch.Assignment{
			assign("id", intVal(5)), // Collides with the existing row 5.
			assign("name", strVal("Wasted")),
		},
	}, spellSchema(), testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnDuplicateKey, warnings[0].Kind)
	assert.Len(t, tbl.Rows, 2)
	assert.Equal(t, poolBefore+len("Wasted\x00"), tbl.Pool.Len(),
		"strings interned while preparing the clone stay in the pool")
}

func TestApply_NumericFieldRefsWorkWithoutSchema(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("2", intVal(55))},
	}, nil, testProv)

	assert.Empty(t, warnings)
	assert.Equal(t, uint32(55), tbl.Rows[0][2])
}

func TestApply_NameRefsWithoutSchemaWarn(t *testing.T) {
	tbl := spellTable(t)

	warnings := Apply(tbl, patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{assign("school", intVal(55))},
	}, nil, testProv)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnUnknownField, warnings[0].Kind)
}

func TestApply_Idempotence(t *testing.T) {
	// Re-applying a warning-free change set of updates yields identical
	// bytes only when no strings are interned; with a string value each
	// pass appends a fresh pool copy but the visible cell text is stable.
	tbl := spellTable(t)

	change := patch.Change{
		Kind: patch.KindUpdate, Key: 1, HasKey: true,
		Fields: []patch.Assignment{
			assign("school", intVal(9)),
			assign("category", floatVal(1.5)),
		},
	}

	require.Empty(t, Apply(tbl, change, spellSchema(), testProv))
	first := tbl.Serialize()
	require.Empty(t, Apply(tbl, change, spellSchema(), testProv))
	assert.Equal(t, first, tbl.Serialize())
}

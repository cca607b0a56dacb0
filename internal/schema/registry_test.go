package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modcraft-labs/dbcforge/internal/patch"
	"github.com/modcraft-labs/dbcforge/internal/testutil"
)

func TestSchema_FieldIndexIsCaseInsensitive(t *testing.T) {
	s := New("Spell.dbc", []string{"ID", "School", "Category"})

	for _, name := range []string{"school", "School", "SCHOOL"} {
		i, ok := s.FieldIndex(name)
		require.True(t, ok, name)
		assert.Equal(t, 1, i)
	}

	_, ok := s.FieldIndex("mana")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	s := New("Spell.dbc", []string{"id", "school"})

	i, ok := Resolve(patch.NewFieldRef("school"), s)
	require.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = Resolve(patch.NewFieldRef("14"), s)
	require.True(t, ok)
	assert.Equal(t, 14, i, "numeric refs bypass the schema")

	i, ok = Resolve(patch.NewFieldRef("14"), nil)
	require.True(t, ok, "numeric refs work without a schema")
	assert.Equal(t, 14, i)

	_, ok = Resolve(patch.NewFieldRef("school"), nil)
	assert.False(t, ok, "name refs require a schema")

	_, ok = Resolve(patch.NewFieldRef("mana"), s)
	assert.False(t, ok)
}

func TestRegistry_BuiltinDefaults(t *testing.T) {
	r := NewRegistry("", testutil.NewTestLogger(t))

	s := r.Lookup("Spell.dbc")
	require.NotNil(t, s)
	i, ok := s.FieldIndex("school")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	assert.Nil(t, r.Lookup("NoSuchTable.dbc"))
}

func TestRegistry_LookupIsCaseInsensitive(t *testing.T) {
	r := NewRegistry("", testutil.NewTestLogger(t))

	require.NotNil(t, r.Lookup("SPELL.DBC"))
	require.NotNil(t, r.Lookup("spell.dbc"))
}

func TestRegistry_DirOverridesDefaultPerTable(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Spell.dbc.yaml", "- id\n- mana\n")

	r := NewRegistry(dir, testutil.NewTestLogger(t))

	s := r.Lookup("Spell.dbc")
	require.NotNil(t, s)
	i, ok := s.FieldIndex("mana")
	require.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = s.FieldIndex("school")
	assert.False(t, ok, "override replaces the whole listing")

	// A table absent from the directory still gets its default.
	talent := r.Lookup("Talent.dbc")
	require.NotNil(t, talent)
	_, ok = talent.FieldIndex("tabid")
	assert.True(t, ok)
}

func TestRegistry_SchemaFileFormats(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"name sequence", "- id\n- flags\n- speed\n"},
		{"fields mapping", "fields:\n  - id\n  - flags\n  - speed\n"},
		{"name-index mapping", "id: 0\nflags: 1\nspeed: 2\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSchema(t, dir, "Custom.dbc.yaml", tc.content)

			r := NewRegistry(dir, testutil.NewTestLogger(t))
			s := r.Lookup("Custom.dbc")
			require.NotNil(t, s)

			i, ok := s.FieldIndex("flags")
			require.True(t, ok)
			assert.Equal(t, 1, i)
			assert.Equal(t, 3, s.Len())
		})
	}
}

func TestRegistry_MalformedFileFallsBackToDefault(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir, "Spell.dbc.yaml", "{{not yaml")

	r := NewRegistry(dir, testutil.NewTestLogger(t))

	s := r.Lookup("Spell.dbc")
	require.NotNil(t, s, "malformed overrides are skipped, not fatal")
	_, ok := s.FieldIndex("school")
	assert.True(t, ok)
}

func TestRegistry_CachesLookups(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "Custom.dbc.yaml", "- id\n- flags\n")

	r := NewRegistry(dir, testutil.NewTestLogger(t))
	first := r.Lookup("Custom.dbc")
	require.NotNil(t, first)

	// Removing the file must not invalidate the cached schema.
	require.NoError(t, os.Remove(path))
	assert.Same(t, first, r.Lookup("Custom.dbc"))
}

func writeSchema(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

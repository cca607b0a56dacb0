package engine

// discovery.go - patch file and table source discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/modcraft-labs/dbcforge/internal/dbc"
)

// discoverPatchFiles lists the patch documents to apply. Explicit paths
// win over directory scanning. The result is sorted by base filename in
// ascending codepoint order, which governs apply order across files.
func discoverPatchFiles(patchesDir string, explicit []string) ([]string, error) {
	var paths []string
	if len(explicit) > 0 {
		paths = slices.Clone(explicit)
	} else {
		entries, err := os.ReadDir(patchesDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil // No patches directory means nothing to do.
			}
			return nil, fmt.Errorf("reading patches directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(entry.Name())) {
			case ".yaml", ".yml":
				paths = append(paths, filepath.Join(patchesDir, entry.Name()))
			}
		}
	}

	slices.SortFunc(paths, func(a, b string) int {
		return strings.Compare(filepath.Base(a), filepath.Base(b))
	})
	return paths, nil
}

// findTableFile locates the source file for a table in the dbc
// directory by case-insensitive filename match, returning the path and
// the on-disk file name.
func findTableFile(dbcDir, name string) (path, fileName string, err error) {
	entries, err := os.ReadDir(dbcDir)
	if err != nil {
		return "", "", fmt.Errorf("reading dbc directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), name) {
			return filepath.Join(dbcDir, entry.Name()), entry.Name(), nil
		}
	}
	return "", "", fmt.Errorf("table %s not found in %s", name, dbcDir)
}

// loadTable reads and parses one table file.
func loadTable(path, fileName string) (*dbc.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return dbc.Parse(fileName, data)
}

// Package engine drives the patch pipeline: it discovers patch files,
// normalizes them, applies every change in strict order and serializes
// the touched tables.
package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/modcraft-labs/dbcforge/internal/dbc"
	"github.com/modcraft-labs/dbcforge/internal/schema"
)

// Engine orchestrates one patch run. It is single-threaded by design:
// the run is a left fold over the totally ordered change stream, so
// identical inputs always produce byte-identical output.
type Engine struct {
	logger *slog.Logger

	dbcDir     string
	patchesDir string
	outDir     string
	patchFiles []string

	schemas *schema.Registry

	// Tables load lazily on first change and stay resident for the rest
	// of the run. A nil entry marks a table that failed to load, so its
	// remaining changes are skipped without re-reporting.
	tables map[string]*loadedTable
}

// loadedTable pairs a parsed table with the source file name it came
// from, preserving the original casing for output paths.
type loadedTable struct {
	table    *dbc.Table
	fileName string
}

// Config holds engine configuration.
type Config struct {
	// DBCDir is the directory holding source table files.
	DBCDir string
	// PatchesDir is scanned for *.yaml / *.yml patch documents when
	// PatchFiles is empty.
	PatchesDir string
	// PatchFiles optionally lists explicit patch documents to apply.
	PatchFiles []string
	// OutDir receives the serialized tables.
	OutDir string
	// SchemaDir overrides or extends the built-in schemas per table.
	SchemaDir string
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// New creates an engine. No files are read until Run.
func New(cfg Config) (*Engine, error) {
	if cfg.DBCDir == "" {
		return nil, fmt.Errorf("dbc directory not configured")
	}
	if cfg.OutDir == "" {
		return nil, fmt.Errorf("output directory not configured")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Engine{
		logger:     logger,
		dbcDir:     cfg.DBCDir,
		patchesDir: cfg.PatchesDir,
		outDir:     cfg.OutDir,
		patchFiles: cfg.PatchFiles,
		schemas:    schema.NewRegistry(cfg.SchemaDir, logger),
		tables:     make(map[string]*loadedTable),
	}, nil
}

// table returns the loaded table for a name, loading it on first use.
// The bool reports whether the table is usable; a table that already
// failed to load returns false with no new error so it is reported once.
func (e *Engine) table(name string) (*loadedTable, bool, error) {
	key := strings.ToLower(name)
	if lt, ok := e.tables[key]; ok {
		return lt, lt != nil, nil
	}

	path, fileName, err := findTableFile(e.dbcDir, name)
	if err != nil {
		e.tables[key] = nil
		return nil, false, err
	}
	tbl, err := loadTable(path, fileName)
	if err != nil {
		e.tables[key] = nil
		return nil, false, err
	}

	e.logger.Debug("table loaded",
		"table", fileName,
		"rows", len(tbl.Rows),
		"fields", tbl.FieldCount,
		"pool_bytes", tbl.Pool.Len())

	lt := &loadedTable{table: tbl, fileName: fileName}
	e.tables[key] = lt
	return lt, true, nil
}

package engine

// run.go - orchestration of a full patch run

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/modcraft-labs/dbcforge/internal/patch"
)

// RunError is a fatal error scoped to one patch file or one table. It
// stops processing for that file or table only; the rest of the run
// continues.
type RunError struct {
	Scope   string // Patch file path or table name.
	Type    string // "io", "parse", "table", "write"
	Message string
}

func (e RunError) String() string {
	return fmt.Sprintf("%s: %s: %s", e.Scope, e.Type, e.Message)
}

// RunResult aggregates the outcome of one run.
type RunResult struct {
	PatchFiles    int
	Changes       int
	TablesTouched int

	// Outputs maps output file name to serialized table bytes, for the
	// archive packager.
	Outputs map[string][]byte

	Warnings []Warning
	Errors   []RunError

	Duration time.Duration
}

// HasErrors returns true if any file or table failed.
func (r *RunResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Summary returns a human-readable one-liner.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"Patches: %d files, %d changes | Tables: %d touched | Warnings: %d | Errors: %d | Duration: %s",
		r.PatchFiles, r.Changes, r.TablesTouched,
		len(r.Warnings), len(r.Errors),
		r.Duration.Round(time.Millisecond),
	)
}

// Run applies every discovered patch in order and serializes the touched
// tables into the output directory. Warnings never abort the run; fatal
// errors are scoped to their file or table and collected in the result.
// The returned error reports only environmental failures that prevent
// the run from proceeding at all.
//
// The run is strictly sequential and takes no context: a change either
// fully completes or is never applied, and mid-run cancellation is
// unsupported.
func (e *Engine) Run() (*RunResult, error) {
	start := time.Now()
	result := &RunResult{Outputs: make(map[string][]byte)}

	paths, err := discoverPatchFiles(e.patchesDir, e.patchFiles)
	if err != nil {
		return nil, err
	}

	e.logger.Info("starting run", "patch_files", len(paths))

	for _, path := range paths {
		e.applyFile(path, result)
	}

	if err := e.writeOutputs(result); err != nil {
		return result, err
	}

	result.Duration = time.Since(start)

	e.logger.Info("run completed",
		"patch_files", result.PatchFiles,
		"changes", result.Changes,
		"tables", result.TablesTouched,
		"warnings", len(result.Warnings),
		"errors", len(result.Errors),
		"duration_ms", result.Duration.Milliseconds())

	return result, nil
}

// applyFile normalizes one patch document and applies its changes in
// declaration order. A document that fails to load or parse is skipped
// whole; a table that fails to load skips only the changes targeting it.
func (e *Engine) applyFile(path string, result *RunResult) {
	fileName := filepath.Base(path)
	e.logger.Debug("applying patch file", "file", fileName)
	result.PatchFiles++

	entries, err := patch.ParseFile(path)
	if err != nil {
		e.logger.Warn("patch file skipped", "file", fileName, "error", err)
		result.Errors = append(result.Errors, RunError{Scope: path, Type: "parse", Message: err.Error()})
		return
	}

	for ordinal, entry := range entries {
		lt, ok, loadErr := e.table(entry.Table)
		if !ok {
			if loadErr != nil {
				e.logger.Warn("table unusable, skipping its changes", "table", entry.Table, "error", loadErr)
				result.Errors = append(result.Errors, RunError{
					Scope: entry.Table, Type: "table", Message: loadErr.Error(),
				})
			}
			continue
		}

		prov := Provenance{File: fileName, Ordinal: ordinal, Table: entry.Table}
		warnings := Apply(lt.table, entry.Change, e.schemas.Lookup(entry.Table), prov)
		for _, w := range warnings {
			e.logger.Warn("change warning", "file", w.File, "ordinal", w.Ordinal, "table", w.Table, "kind", string(w.Kind), "detail", w.Detail)
		}
		result.Warnings = append(result.Warnings, warnings...)
		result.Changes++
	}
}

// writeOutputs serializes every touched table under the output
// directory using the table's original file name. Untouched tables are
// never read, so they never appear here.
func (e *Engine) writeOutputs(result *RunResult) error {
	touched := 0
	for _, lt := range e.tables {
		if lt != nil {
			touched++
		}
	}
	if touched == 0 {
		return nil
	}

	if err := os.MkdirAll(e.outDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, lt := range e.tables {
		if lt == nil {
			continue
		}
		data := lt.table.Serialize()
		outPath := filepath.Join(e.outDir, lt.fileName)
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			result.Errors = append(result.Errors, RunError{Scope: lt.fileName, Type: "write", Message: err.Error()})
			continue
		}
		e.logger.Debug("table written", "table", lt.fileName, "bytes", len(data), "rows", len(lt.table.Rows))
		result.Outputs[lt.fileName] = data
		result.TablesTouched++
	}
	return nil
}

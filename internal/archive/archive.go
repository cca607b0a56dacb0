// Package archive packages patched tables and extra files into a ZIP
// archive. It consumes a path-to-bytes map produced by the engine and
// returns nothing to it.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"golang.org/x/sync/errgroup"
)

// TablePrefix is the archive directory client data tables live under.
const TablePrefix = "DBFilesClient"

// compressed is one archive entry deflated ahead of the serial write.
type compressed struct {
	name string
	raw  []byte
	data []byte
	crc  uint32
}

// Build writes a ZIP archive at path containing the given files, keyed
// by archive path with forward slashes. Entries are deflated in
// parallel (compression is independent per file) and written in sorted
// name order so identical inputs produce identical archives.
func Build(ctx context.Context, path string, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]compressed, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := deflate(files[name])
			if err != nil {
				return fmt.Errorf("compressing %s: %w", name, err)
			}
			entries[i] = compressed{
				name: name,
				raw:  files[name],
				data: data,
				crc:  crc32.ChecksumIEEE(files[name]),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	zw := zip.NewWriter(out)
	for _, entry := range entries {
		w, err := zw.CreateRaw(&zip.FileHeader{
			Name:               entry.name,
			Method:             zip.Deflate,
			CRC32:              entry.crc,
			UncompressedSize64: uint64(len(entry.raw)),
			CompressedSize64:   uint64(len(entry.data)),
		})
		if err != nil {
			_ = out.Close()
			return fmt.Errorf("adding %s: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			_ = out.Close()
			return fmt.Errorf("writing %s: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finalizing archive: %w", err)
	}
	return out.Close()
}

func deflate(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WithTablePrefix rekeys table outputs under TablePrefix.
func WithTablePrefix(tables map[string][]byte) map[string][]byte {
	files := make(map[string][]byte, len(tables))
	for name, data := range tables {
		files[TablePrefix+"/"+name] = data
	}
	return files
}

// CollectDir reads every file under dir into the map, keyed by
// slash-separated path relative to dir. A missing directory yields an
// empty map.
func CollectDir(dir string) (map[string][]byte, error) {
	files := make(map[string][]byte)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return files, nil
		}
		return nil, err
	}
	return files, nil
}

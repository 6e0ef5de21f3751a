package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
)

// Compile-time interface check.
var _ Writer = (*ParquetWriter)(nil)

// ParquetWriter writes the snapshot as a single Parquet file using the Row
// schema tags.
type ParquetWriter struct {
	path string
}

// NewParquetWriter creates a ParquetWriter targeting the given path.
func NewParquetWriter(path string) *ParquetWriter {
	return &ParquetWriter{path: path}
}

// Write overwrites the snapshot file with the given rows.
func (w *ParquetWriter) Write(rows []Row) error {
	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp := w.path + ".tmp"
	if err := parquet.WriteFile(tmp, rows); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Close is a no-op for Parquet snapshots.
func (w *ParquetWriter) Close() error { return nil }

// ReadParquet reads back a Parquet snapshot.
func ReadParquet(path string) ([]Row, error) {
	return parquet.ReadFile[Row](path)
}

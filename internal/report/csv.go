package report

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Compile-time interface check.
var _ Writer = (*CSVWriter)(nil)

// csvTimeLayout is the human-readable timestamp format in CSV snapshots.
const csvTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"ticker", "datetime", "price", "rolling_avg", "rolling_std",
	"signal", "position", "unit_return", "pnl",
}

// CSVWriter writes the snapshot as a single CSV file. The file is written
// to a temporary sibling and renamed into place so a crash mid-write never
// leaves a truncated snapshot. Datetimes render in loc, the exchange
// location the series lives in.
type CSVWriter struct {
	path string
	loc  *time.Location
}

// NewCSVWriter creates a CSVWriter targeting the given path.
func NewCSVWriter(path string, loc *time.Location) *CSVWriter {
	if loc == nil {
		loc = time.Local
	}
	return &CSVWriter{path: path, loc: loc}
}

// Write overwrites the snapshot file with the given rows.
func (w *CSVWriter) Write(rows []Row) error {
	dir := filepath.Dir(w.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(w.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	cw := csv.NewWriter(tmp)
	if err := cw.Write(csvHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Ticker,
			r.Time().In(w.loc).Format(csvTimeLayout),
			formatFloat(r.Price),
			formatFloat(r.RollingAvg),
			formatFloat(r.RollingStd),
			strconv.FormatInt(r.Signal, 10),
			strconv.FormatInt(r.Position, 10),
			formatFloat(r.UnitReturn),
			formatFloat(r.PnL),
		}
		if err := cw.Write(record); err != nil {
			tmp.Close()
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), w.path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// Close is a no-op for CSV snapshots.
func (w *CSVWriter) Close() error { return nil }

// formatFloat renders a value, with NaN as an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package report

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/config"
	"github.com/L-Dinosaur/trading-server/internal/series"
)

func sampleSeries(t *testing.T) []*series.TimeSeries {
	t.Helper()
	base := time.Date(2021, 6, 1, 10, 0, 0, 0, time.UTC)
	ts := &series.TimeSeries{
		Ticker: "IBM",
		Points: []series.Point{
			{Timestamp: base, Price: 100},
			{Timestamp: base.Add(30 * time.Minute), Price: 101},
		},
		RollingAvg: []float64{math.NaN(), 100.5},
		RollingStd: []float64{math.NaN(), 0.5},
		Signal:     []int{0, 1},
		Position:   []int{0, 0},
		UnitReturn: []float64{math.NaN(), 1},
		PnL:        []float64{0, 0},
	}
	return []*series.TimeSeries{ts}
}

func TestFlatten(t *testing.T) {
	rows := Flatten(sampleSeries(t))
	if len(rows) != 2 {
		t.Fatalf("Flatten produced %d rows, want 2", len(rows))
	}
	if rows[0].Ticker != "IBM" || rows[0].Price != 100 {
		t.Errorf("first row = %+v", rows[0])
	}
	if !math.IsNaN(rows[0].RollingAvg) {
		t.Errorf("first row RollingAvg = %v, want NaN", rows[0].RollingAvg)
	}
	if rows[1].Signal != 1 || rows[1].RollingAvg != 100.5 {
		t.Errorf("second row = %+v", rows[1])
	}
}

func TestCSVWriterOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	w := NewCSVWriter(path, time.UTC)

	if err := w.Write(Flatten(sampleSeries(t))); err != nil {
		t.Fatalf("Write: %v", err)
	}
	// Second write replaces, not appends.
	if err := w.Write(Flatten(sampleSeries(t))); err != nil {
		t.Fatalf("Write (second): %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening snapshot: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if len(records) != 3 { // header + 2 rows
		t.Fatalf("snapshot has %d records, want 3", len(records))
	}
	if records[0][0] != "ticker" {
		t.Errorf("header = %v", records[0])
	}
	// NaN analytics render as empty cells.
	if records[1][3] != "" {
		t.Errorf("undefined rolling_avg rendered %q, want empty", records[1][3])
	}
	if records[2][5] != "1" {
		t.Errorf("signal cell = %q, want 1", records[2][5])
	}
}

func TestParquetWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.parquet")
	w := NewParquetWriter(path)

	rows := Flatten(sampleSeries(t))
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := ReadParquet(path)
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("read back %d rows, want %d", len(got), len(rows))
	}
	if got[0].Ticker != "IBM" || got[0].Price != 100 {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].RollingAvg != 100.5 {
		t.Errorf("second row RollingAvg = %v, want 100.5", got[1].RollingAvg)
	}
}

func TestSQLiteWriterReplacesRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.db")
	w, err := NewSQLiteWriter(path)
	if err != nil {
		t.Fatalf("NewSQLiteWriter: %v", err)
	}
	defer w.Close()

	rows := Flatten(sampleSeries(t))
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Write(rows); err != nil {
		t.Fatalf("Write (second): %v", err)
	}

	n, err := w.CountRows()
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if n != len(rows) {
		t.Errorf("snapshot holds %d rows after two writes, want %d (replaced, not appended)", n, len(rows))
	}
}

func TestFromConfig(t *testing.T) {
	dir := t.TempDir()

	cases := []struct {
		format string
	}{
		{"csv"}, {"parquet"}, {"sqlite"},
	}
	for _, c := range cases {
		w, err := FromConfig(config.Snapshot{Format: c.format, Path: filepath.Join(dir, "snap."+c.format)}, time.UTC)
		if err != nil {
			t.Errorf("FromConfig(%q): %v", c.format, err)
			continue
		}
		w.Close()
	}

	if _, err := FromConfig(config.Snapshot{Format: "xml"}, time.UTC); err == nil {
		t.Error("FromConfig accepted unknown format")
	}
}

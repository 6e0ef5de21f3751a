// Package report writes the snapshot: a flat table combining every tracked
// symbol's full series, all columns, one file overwritten per write. The
// snapshot is produced after startup and after every report refresh.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/config"
	"github.com/L-Dinosaur/trading-server/internal/series"
)

// Row is one sample of one ticker, flattened across all columns. Undefined
// float entries stay NaN; each backend maps them to its own null
// representation.
type Row struct {
	Ticker     string  `parquet:"ticker"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price      float64 `parquet:"price"`
	RollingAvg float64 `parquet:"rolling_avg"`
	RollingStd float64 `parquet:"rolling_std"`
	Signal     int64   `parquet:"signal"`
	Position   int64   `parquet:"position"`
	UnitReturn float64 `parquet:"unit_return"`
	PnL        float64 `parquet:"pnl"`
}

// Time returns the row timestamp as a time.Time.
func (r Row) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Writer persists one full snapshot, replacing any previous one.
type Writer interface {
	// Write overwrites the snapshot with the given rows.
	Write(rows []Row) error

	// Close releases any resources held by the writer.
	Close() error
}

// Flatten converts computed series into snapshot rows, one row per sample,
// in the given series order. Series whose derived columns have not been
// computed yield NaN analytics values.
func Flatten(list []*series.TimeSeries) []Row {
	var rows []Row
	for _, ts := range list {
		for i, p := range ts.Points {
			row := Row{
				Ticker:     ts.Ticker,
				Timestamp:  p.Timestamp.UnixMilli(),
				Price:      p.Price,
				RollingAvg: floatAt(ts.RollingAvg, i),
				RollingStd: floatAt(ts.RollingStd, i),
				UnitReturn: floatAt(ts.UnitReturn, i),
				PnL:        floatAt(ts.PnL, i),
			}
			if i < len(ts.Signal) {
				row.Signal = int64(ts.Signal[i])
			}
			if i < len(ts.Position) {
				row.Position = int64(ts.Position[i])
			}
			rows = append(rows, row)
		}
	}
	return rows
}

func floatAt(col []float64, i int) float64 {
	if i < len(col) {
		return col[i]
	}
	return math.NaN()
}

// FromConfig constructs the snapshot writer selected by cfg. loc is the
// exchange location used for human-readable datetimes; binary backends
// store epoch timestamps and ignore it.
func FromConfig(cfg config.Snapshot, loc *time.Location) (Writer, error) {
	switch cfg.Format {
	case "csv":
		return NewCSVWriter(cfg.Path, loc), nil
	case "parquet":
		return NewParquetWriter(cfg.Path), nil
	case "sqlite":
		return NewSQLiteWriter(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown snapshot format %q", cfg.Format)
	}
}

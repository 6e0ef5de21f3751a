package report

import (
	"database/sql"
	"math"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ Writer = (*SQLiteWriter)(nil)

const reportSchema = `
CREATE TABLE IF NOT EXISTS report (
	ticker      TEXT    NOT NULL,
	timestamp   INTEGER NOT NULL,
	price       REAL    NOT NULL,
	rolling_avg REAL,
	rolling_std REAL,
	signal      INTEGER NOT NULL,
	position    INTEGER NOT NULL,
	unit_return REAL,
	pnl         REAL
);
`

// SQLiteWriter writes the snapshot into a single SQLite table, replaced
// wholesale inside one transaction per write. NaN analytics values are
// stored as NULL.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) a SQLite database at dbPath and
// prepares the report table.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(reportSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteWriter{db: db}, nil
}

// Write replaces the report table contents with the given rows.
func (w *SQLiteWriter) Write(rows []Row) error {
	tx, err := w.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM report`); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO report
		(ticker, timestamp, price, rolling_avg, rolling_std, signal, position, unit_return, pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.Exec(
			r.Ticker, r.Timestamp, r.Price,
			nullable(r.RollingAvg), nullable(r.RollingStd),
			r.Signal, r.Position,
			nullable(r.UnitReturn), nullable(r.PnL),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the underlying database connection.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

// CountRows returns the number of snapshot rows currently stored.
func (w *SQLiteWriter) CountRows() (int, error) {
	var n int
	err := w.db.QueryRow(`SELECT COUNT(*) FROM report`).Scan(&n)
	return n, err
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

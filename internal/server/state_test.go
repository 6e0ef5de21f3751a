package server

import (
	"errors"
	"testing"
	"time"

	"github.com/L-Dinosaur/trading-server/internal/series"
)

func onePoint(t time.Time) []series.Point {
	return []series.Point{{Timestamp: t, Price: 1}}
}

func TestStatePutPreservesOrder(t *testing.T) {
	s := NewState()
	now := time.Now()
	for _, sym := range []string{"IBM", "AAPL", "GME"} {
		if err := s.Put(sym, series.Merge(sym, onePoint(now))); err != nil {
			t.Fatalf("Put(%s): %v", sym, err)
		}
	}

	got := s.Tickers()
	want := []string{"IBM", "AAPL", "GME"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tickers() = %v, want %v", got, want)
		}
	}

	all := s.AllSeries()
	for i := range want {
		if all[i].Ticker != want[i] {
			t.Fatalf("AllSeries() order = %s at %d, want %s", all[i].Ticker, i, want[i])
		}
	}
}

func TestStatePutDuplicate(t *testing.T) {
	s := NewState()
	now := time.Now()
	if err := s.Put("IBM", series.Merge("IBM", onePoint(now))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	err := s.Put("IBM", series.Merge("IBM", onePoint(now)))
	if !errors.Is(err, ErrDuplicateSymbol) {
		t.Fatalf("second Put error = %v, want ErrDuplicateSymbol", err)
	}
}

func TestStateRemove(t *testing.T) {
	s := NewState()
	now := time.Now()
	if err := s.Put("IBM", series.Merge("IBM", onePoint(now))); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := s.Remove("IBM"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Tracked("IBM") || s.Len() != 0 {
		t.Fatal("symbol still tracked after Remove")
	}

	if err := s.Remove("IBM"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("removing again: %v, want ErrUnknownSymbol", err)
	}
}

func TestStateReplaceRequiresExisting(t *testing.T) {
	s := NewState()
	now := time.Now()
	if err := s.Replace("IBM", series.Merge("IBM", onePoint(now))); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("Replace on untracked symbol: %v, want ErrUnknownSymbol", err)
	}

	if err := s.Put("IBM", series.Merge("IBM", onePoint(now))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	fresh := series.Merge("IBM", []series.Point{
		{Timestamp: now, Price: 2},
		{Timestamp: now.Add(time.Minute), Price: 3},
	})
	if err := s.Replace("IBM", fresh); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	ts, _ := s.Series("IBM")
	if ts.Len() != 2 {
		t.Fatalf("replacement not installed, len = %d", ts.Len())
	}
}

func TestStateTickersReturnsCopy(t *testing.T) {
	s := NewState()
	if err := s.Put("IBM", series.Merge("IBM", onePoint(time.Now()))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got := s.Tickers()
	got[0] = "MUTATED"
	if s.Tickers()[0] != "IBM" {
		t.Fatal("Tickers() exposes internal slice")
	}
}

package series

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2021, 6, 1, hour, min, 0, 0, time.UTC)
}

func TestMergeDedupAndSort(t *testing.T) {
	hist := []Point{
		{Timestamp: at(10, 30), Price: 101},
		{Timestamp: at(10, 0), Price: 100},
	}
	live := []Point{
		{Timestamp: at(10, 30), Price: 999}, // duplicate of a historical close
		{Timestamp: at(11, 0), Price: 102},
	}

	ts := Merge("IBM", hist, live)

	if ts.Len() != 3 {
		t.Fatalf("merged series has %d points, want 3", ts.Len())
	}

	// Strictly increasing, unique timestamps.
	for i := 1; i < ts.Len(); i++ {
		if !ts.Points[i-1].Timestamp.Before(ts.Points[i].Timestamp) {
			t.Errorf("timestamps not strictly increasing at index %d: %v >= %v",
				i, ts.Points[i-1].Timestamp, ts.Points[i].Timestamp)
		}
	}

	// First-encountered wins: the historical 10:30 close survives.
	if ts.Points[1].Price != 101 {
		t.Errorf("duplicate timestamp kept price %v, want historical 101", ts.Points[1].Price)
	}
}

func TestMergeEmptyFragments(t *testing.T) {
	ts := Merge("IBM", nil, nil)
	if ts.Len() != 0 {
		t.Fatalf("merge of empty fragments has %d points, want 0", ts.Len())
	}
	if ts.Ticker != "IBM" {
		t.Errorf("Ticker = %q, want IBM", ts.Ticker)
	}
}

func TestNearestPrefersClosest(t *testing.T) {
	ts := Merge("IBM", []Point{
		{Timestamp: at(10, 0), Price: 100},
		{Timestamp: at(10, 30), Price: 101},
		{Timestamp: at(11, 0), Price: 102},
	})
	ts.Signal = []int{0, 1, -1}

	// 10:20 is closer to 10:30 than to 10:00.
	s, err := ts.Nearest(at(10, 20))
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if !s.Timestamp.Equal(at(10, 30)) {
		t.Errorf("Nearest(10:20) resolved %v, want 10:30", s.Timestamp)
	}
	if s.Price != 101 || s.Signal != 1 {
		t.Errorf("Nearest(10:20) = {price %v, signal %d}, want {101, 1}", s.Price, s.Signal)
	}
}

func TestNearestTieBreaksEarlier(t *testing.T) {
	ts := Merge("IBM", []Point{
		{Timestamp: at(10, 0), Price: 100},
		{Timestamp: at(10, 30), Price: 101},
	})

	// 10:15 is equidistant; the earlier index wins.
	s, err := ts.Nearest(at(10, 15))
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if !s.Timestamp.Equal(at(10, 0)) {
		t.Errorf("tie resolved to %v, want earlier 10:00", s.Timestamp)
	}
}

func TestNearestOutOfRangeResolvesBoundary(t *testing.T) {
	ts := Merge("IBM", []Point{
		{Timestamp: at(10, 0), Price: 100},
		{Timestamp: at(11, 0), Price: 102},
	})

	s, err := ts.Nearest(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Nearest far-past: %v", err)
	}
	if !s.Timestamp.Equal(at(10, 0)) {
		t.Errorf("far-past query resolved %v, want first sample", s.Timestamp)
	}

	s, err = ts.Nearest(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Nearest far-future: %v", err)
	}
	if !s.Timestamp.Equal(at(11, 0)) {
		t.Errorf("far-future query resolved %v, want last sample", s.Timestamp)
	}
}

func TestNearestEmptySeries(t *testing.T) {
	ts := &TimeSeries{Ticker: "IBM"}
	if _, err := ts.Nearest(at(10, 0)); err != ErrEmptySeries {
		t.Fatalf("Nearest on empty series returned %v, want ErrEmptySeries", err)
	}
}

package util

import (
	"time"

	"github.com/scmhub/calendar"
)

// sessionOpenHour/Minute are the regular NYSE session open.
const (
	sessionOpenHour   = 9
	sessionOpenMinute = 30
)

// TradingCalendar answers session-open and trading-day questions for the US
// equity market, backed by the XNYS exchange calendar with a Mon-Fri
// fallback if the calendar cannot be loaded.
type TradingCalendar struct {
	cal      *calendar.Calendar
	fallback bool
	loc      *time.Location
}

// NewTradingCalendar creates a TradingCalendar for NYSE.
func NewTradingCalendar() *TradingCalendar {
	cal := calendar.GetCalendar("xnys")
	if cal == nil {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.UTC
		}
		return &TradingCalendar{fallback: true, loc: loc}
	}
	return &TradingCalendar{cal: cal, loc: cal.Loc}
}

// Location returns the exchange time zone.
func (tc *TradingCalendar) Location() *time.Location {
	return tc.loc
}

// SessionOpen returns 09:30 exchange time on t's date.
func (tc *TradingCalendar) SessionOpen(t time.Time) time.Time {
	t = t.In(tc.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), sessionOpenHour, sessionOpenMinute, 0, 0, tc.loc)
}

// IsTradingDay reports whether t falls on a trading day.
func (tc *TradingCalendar) IsTradingDay(t time.Time) bool {
	t = t.In(tc.loc)
	if tc.fallback {
		wd := t.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(t)
}

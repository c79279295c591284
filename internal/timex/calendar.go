// Package timex provides the fixed-timezone calendar shared by every store
// adapter and the router, so day buckets agree no matter where the host runs.
package timex

import (
	"fmt"
	"time"

	_ "time/tzdata" // zone database embedded, host locale never consulted
)

const dateLayout = "2006-01-02"

// Date is a civil calendar day without a zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a normalized Date (2024-02-30 becomes 2024-03-01).
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) utc() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

func (d Date) String() string {
	return d.utc().Format(dateLayout)
}

// DaysBetween returns b - a in whole civil days.
func DaysBetween(a, b Date) int {
	return int(b.utc().Sub(a.utc()).Hours() / 24)
}

// Calendar answers "today" and day-boundary questions in one location.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar returns a Calendar for loc. A nil now defaults to time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

// LoadCalendar resolves the named zone from the embedded database.
func LoadCalendar(name string) (*Calendar, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return NewCalendar(loc, nil), nil
}

// Location returns the calendar's zone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Today is the current civil date in the calendar's zone.
func (c *Calendar) Today() Date {
	return c.DateOf(c.now())
}

// DateOf converts an instant to its civil date in the calendar's zone.
func (c *Calendar) DateOf(t time.Time) Date {
	t = t.In(c.loc)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Bounds returns the epoch-millisecond range [00:00:00.000, 23:59:59.999]
// of d. Both ends are inclusive.
func (c *Calendar) Bounds(d Date) (startMs, endMs int64) {
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, c.loc)
	end := time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), c.loc)
	return start.UnixMilli(), end.UnixMilli()
}

// EndOfDayMs is the last millisecond of d.
func (c *Calendar) EndOfDayMs(d Date) int64 {
	_, end := c.Bounds(d)
	return end
}

// InDay reports whether ms falls inside d.
func (c *Calendar) InDay(ms int64, d Date) bool {
	start, end := c.Bounds(d)
	return start <= ms && ms <= end
}

// FormatClock renders ms as HH:MM in the calendar's zone; zero renders empty.
func (c *Calendar) FormatClock(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).In(c.loc).Format("15:04")
}

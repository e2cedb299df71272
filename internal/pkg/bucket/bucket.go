package bucket

import (
	"fmt"
	"time"
)

const (
	dayLayout  = "2006-01-02"
	hourLayout = "2006-01-02T15"
)

// Day identifies one calendar day. It is computed in the location of the
// time value it was derived from.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// Hour identifies one clock hour within a calendar day.
type Hour struct {
	Day
	Hour int
}

// DayOf returns the calendar day bucket of t.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// HourOf returns the clock hour bucket of t.
func HourOf(t time.Time) Hour {
	return Hour{Day: DayOf(t), Hour: t.Hour()}
}

// String formats the day as YYYY-MM-DD.
func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the day was never set.
func (d Day) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Start returns midnight of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Next returns the following calendar day.
func (d Day) Next() Day {
	return DayOf(d.Start(time.UTC).AddDate(0, 0, 1))
}

// DaysSince returns the number of whole calendar days from earlier to d.
// The result is negative when earlier is after d.
func (d Day) DaysSince(earlier Day) int {
	diff := d.Start(time.UTC).Sub(earlier.Start(time.UTC))
	return int(diff / (24 * time.Hour))
}

// String formats the hour as YYYY-MM-DDTHH.
func (h Hour) String() string {
	return fmt.Sprintf("%sT%02d", h.Day.String(), h.Hour)
}

// Start returns the first instant of the hour in loc.
func (h Hour) Start(loc *time.Location) time.Time {
	return time.Date(h.Year, h.Month, h.Day.Day, h.Hour, 0, 0, 0, loc)
}

// ParseDay parses the YYYY-MM-DD form produced by Day.String.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, fmt.Errorf("invalid day bucket %q: %w", s, err)
	}
	return DayOf(t), nil
}

// ParseHour parses the YYYY-MM-DDTHH form produced by Hour.String.
func ParseHour(s string) (Hour, error) {
	t, err := time.Parse(hourLayout, s)
	if err != nil {
		return Hour{}, fmt.Errorf("invalid hour bucket %q: %w", s, err)
	}
	return HourOf(t), nil
}

// UntilNextDay returns the time left until the day of now rolls over.
func UntilNextDay(now time.Time) time.Duration {
	next := DayOf(now).Next().Start(now.Location())
	return next.Sub(now)
}

// UntilNextHour returns the time left until the hour of now rolls over.
func UntilNextHour(now time.Time) time.Duration {
	return HourOf(now).Start(now.Location()).Add(time.Hour).Sub(now)
}

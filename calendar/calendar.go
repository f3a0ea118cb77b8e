// Package calendar holds the date arithmetic shared by the overtime
// services: calendar days, month ranges and workdays.
package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// StartOfDay returns midnight UTC of t's calendar date. Dates are stored
// without a time component, so every day is keyed by this value.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange returns the half-open range [start, start+1 day) covering t's
// calendar date.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// ParseDate parses a YYYY-MM-DD string into a calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Month is a calendar month, written as YYYY-MM.
type Month struct {
	Year  int
	Month time.Month
}

func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses YYYY-MM.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("invalid month %q: expected YYYY-MM", s)
	}
	return MonthOf(t), nil
}

// NewMonth validates a numeric year and month.
func NewMonth(year, month int) (Month, error) {
	if month < 1 || month > 12 {
		return Month{}, fmt.Errorf("invalid month %d", month)
	}
	if year < 2000 || year > 2100 {
		return Month{}, fmt.Errorf("invalid year %d", year)
	}
	return Month{Year: year, Month: time.Month(month)}, nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Range returns [first day of the month, first day of the next month).
func (m Month) Range() (time.Time, time.Time) {
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Calendar decides which days are workdays: Monday to Friday, minus holidays.
type Calendar struct {
	holidays map[string]struct{}
}

func New(holidays []time.Time) *Calendar {
	c := &Calendar{holidays: make(map[string]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[FormatDate(h)] = struct{}{}
	}
	return c
}

func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[FormatDate(t)]
	return ok
}

func (c *Calendar) IsWorkday(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(t)
}

var weekdays = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// Workdays returns the workdays between from and to, both inclusive, in
// ascending order.
func (c *Calendar) Workdays(from, to time.Time) ([]time.Time, error) {
	from, to = StartOfDay(from), StartOfDay(to)
	if to.Before(from) {
		return nil, nil
	}
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: weekdays,
		Dtstart:   from,
	})
	if err != nil {
		return nil, err
	}

	var days []time.Time
	for _, day := range r.Between(from, to, true) {
		if !c.IsHoliday(day) {
			days = append(days, StartOfDay(day))
		}
	}
	return days, nil
}

// LastNWorkdays walks backwards from ref (inclusive) and returns the n most
// recent workdays in ascending order, so the window is [days[0], days[n-1]].
func (c *Calendar) LastNWorkdays(ref time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	ref = StartOfDay(ref)
	span := 2*n + 7
	for {
		days, err := c.Workdays(ref.AddDate(0, 0, -span), ref)
		if err != nil {
			return nil, err
		}
		if len(days) >= n {
			return days[len(days)-n:], nil
		}
		span *= 2
	}
}

// ParseHolidays reads a comma separated list of YYYY-MM-DD dates.
func ParseHolidays(s string) ([]time.Time, error) {
	var out []time.Time
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		day, err := ParseDate(part)
		if err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

package util

import (
    "fmt"
    "time"
)

// DateLayout is the ISO calendar date used for every date key.
const DateLayout = "2006-01-02"

// ParseDate parses YYYY-MM-DD as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
    t, err := time.ParseInLocation(DateLayout, s, time.UTC)
    if err != nil {
        return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
    }
    return t, nil
}

// FormatDate formats t's UTC calendar date.
func FormatDate(t time.Time) string {
    return t.UTC().Format(DateLayout)
}

// DateFromUnixMilli returns the UTC calendar date of a millisecond timestamp.
func DateFromUnixMilli(ms int64) string {
    return FormatDate(time.UnixMilli(ms))
}

// IsWeekday reports whether date (YYYY-MM-DD) falls Monday through Friday.
func IsWeekday(date string) bool {
    t, err := ParseDate(date)
    if err != nil {
        return false
    }
    wd := t.Weekday()
    return wd != time.Saturday && wd != time.Sunday
}

// AddDays shifts date by n calendar days.
func AddDays(date string, n int) (string, error) {
    t, err := ParseDate(date)
    if err != nil {
        return "", err
    }
    return FormatDate(t.AddDate(0, 0, n)), nil
}

// DaySpan counts calendar days in [start, end], inclusive.
func DaySpan(start, end string) (int, error) {
    s, err := ParseDate(start)
    if err != nil {
        return 0, err
    }
    e, err := ParseDate(end)
    if err != nil {
        return 0, err
    }
    return int(e.Sub(s).Hours()/24) + 1, nil
}

// Weekdays lists the Monday-Friday dates in [start, end], ascending.
func Weekdays(start, end string) ([]string, error) {
    s, err := ParseDate(start)
    if err != nil {
        return nil, err
    }
    e, err := ParseDate(end)
    if err != nil {
        return nil, err
    }
    var out []string
    for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
        if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
            out = append(out, FormatDate(d))
        }
    }
    return out, nil
}

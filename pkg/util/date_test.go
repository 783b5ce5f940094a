package util

import (
    "testing"
    "time"
)

func TestParseDateRoundTrip(t *testing.T) {
    got, err := ParseDate("2024-03-15")
    if err != nil {
        t.Fatalf("unexpected err %v", err)
    }
    if got.Location() != time.UTC || got.Hour() != 0 {
        t.Fatalf("expected UTC midnight, got %v", got)
    }
    if FormatDate(got) != "2024-03-15" {
        t.Fatalf("unexpected format %s", FormatDate(got))
    }
    if _, err := ParseDate("15/03/2024"); err == nil {
        t.Fatalf("expected error for bad layout")
    }
}

func TestDateFromUnixMilli(t *testing.T) {
    // 2024-01-02T05:00:00Z, the provider's usual daily bar timestamp
    if got := DateFromUnixMilli(1704171600000); got != "2024-01-02" {
        t.Fatalf("unexpected date %s", got)
    }
}

func TestIsWeekday(t *testing.T) {
    cases := map[string]bool{
        "2024-03-15": true,  // Friday
        "2024-03-16": false, // Saturday
        "2024-03-17": false, // Sunday
        "2024-03-18": true,  // Monday
        "garbage":    false,
    }
    for d, want := range cases {
        if got := IsWeekday(d); got != want {
            t.Errorf("IsWeekday(%s)=%v want %v", d, got, want)
        }
    }
}

func TestWeekdaysAndSpan(t *testing.T) {
    got, err := Weekdays("2024-03-14", "2024-03-19")
    if err != nil {
        t.Fatalf("unexpected err %v", err)
    }
    want := []string{"2024-03-14", "2024-03-15", "2024-03-18", "2024-03-19"}
    if len(got) != len(want) {
        t.Fatalf("got %v want %v", got, want)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("got %v want %v", got, want)
        }
    }
    span, err := DaySpan("2024-01-01", "2024-12-31")
    if err != nil || span != 366 {
        t.Fatalf("unexpected span %d err %v", span, err)
    }
    prev, _ := AddDays("2024-03-01", -1)
    if prev != "2024-02-29" {
        t.Fatalf("unexpected AddDays result %s", prev)
    }
}

func TestNormalizeTickers(t *testing.T) {
    got := NormalizeTickers(SplitList(" aapl,MSFT,,aapl , tsla"))
    want := []string{"AAPL", "MSFT", "TSLA"}
    if len(got) != len(want) {
        t.Fatalf("got %v want %v", got, want)
    }
    for i := range want {
        if got[i] != want[i] {
            t.Fatalf("got %v want %v", got, want)
        }
    }
    if ParseIntDefault("x", 7) != 7 || ParseIntDefault("12", 7) != 12 {
        t.Fatalf("ParseIntDefault mismatch")
    }
}

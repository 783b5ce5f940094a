package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// NormalizeTickers trims, upper-cases and de-duplicates tickers, keeping first-seen order.
func NormalizeTickers(in []string) []string {
    seen := make(map[string]struct{}, len(in))
    out := make([]string, 0, len(in))
    for _, t := range in {
        t = strings.ToUpper(strings.TrimSpace(t))
        if t == "" {
            continue
        }
        if _, ok := seen[t]; ok {
            continue
        }
        seen[t] = struct{}{}
        out = append(out, t)
    }
    return out
}

// SplitList splits a comma separated value.
func SplitList(s string) []string {
    if strings.TrimSpace(s) == "" {
        return nil
    }
    return strings.Split(s, ",")
}

package jobs

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

var relativeDate = regexp.MustCompile(`^(\d+)\+?\s*(minute|hour|day|week|month)s?\s+ago$`)

// ParseDatePosted understands absolute dates and the relative phrases job
// boards print ("today", "3 days ago", "30+ days ago"). The second result is
// false when the value cannot be interpreted.
func ParseDatePosted(value string, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	value = strings.ToLower(raw)
	switch value {
	case "today", "just now", "just posted", "few hours ago":
		return now, true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	}

	if m := relativeDate.FindStringSubmatch(value); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, false
		}
		switch m[2] {
		case "minute":
			return now.Add(-time.Duration(n) * time.Minute), true
		case "hour":
			return now.Add(-time.Duration(n) * time.Hour), true
		case "day":
			return now.AddDate(0, 0, -n), true
		case "week":
			return now.AddDate(0, 0, -7*n), true
		case "month":
			return now.AddDate(0, -n, 0), true
		}
	}

	// "JAN 2, 2006" and "jan 2, 2006" only parse with a title-cased month
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, titleMonth(value)); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

func titleMonth(value string) string {
	fields := strings.Fields(value)
	for i, f := range fields {
		if f != "" && f[0] >= 'a' && f[0] <= 'z' {
			fields[i] = strings.ToUpper(f[:1]) + f[1:]
		}
	}
	return strings.Join(fields, " ")
}

// SortByDatePosted orders items newest first by the date returned from
// datePosted. Items with unknown dates go last and ties keep their current
// order.
func SortByDatePosted[T any](items []T, datePosted func(T) string, now time.Time) {
	type entry struct {
		item T
		at   time.Time
		ok   bool
	}

	entries := make([]entry, len(items))
	for i, item := range items {
		at, ok := ParseDatePosted(datePosted(item), now)
		entries[i] = entry{item: item, at: at, ok: ok}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.at.After(b.at)
	})

	for i, e := range entries {
		items[i] = e.item
	}
}

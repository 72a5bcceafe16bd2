package dates

import (
	"testing"
	"time"
)

func TestParse_Layouts(t *testing.T) {
	cases := map[string]time.Time{
		"2024-03-05":                time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"2024-03-05T10:30":          time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		"2024-03-05T10:30:15":       time.Date(2024, 3, 5, 10, 30, 15, 0, time.UTC),
		"2024-03-05T10:30:15Z":      time.Date(2024, 3, 5, 10, 30, 15, 0, time.UTC),
		"2024-03-05T10:30:15-03:00": time.Date(2024, 3, 5, 13, 30, 15, 0, time.UTC),
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) unexpected error: %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "05/03/2024", "2024-13-01", "mañana"} {
		if _, err := Parse(bad); err == nil {
			t.Fatalf("Parse(%q) expected error", bad)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 4, 1, 0, 0, 0, time.UTC)
	if got := DaysBetween(from, to); got != 3 {
		t.Fatalf("expected 3 days, got %d", got)
	}
	if got := DaysBetween(to, from); got != -3 {
		t.Fatalf("expected -3 days, got %d", got)
	}
}

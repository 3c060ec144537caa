package ui

import (
	"testing"
	"time"
)

func TestHumanizeDuration(t *testing.T) {
	cases := []struct {
		name string
		in   int64 // seconds
		want string
	}{
		{"negative", -5, "now"},
		{"subsecond", 0, "now"},
		{"seconds", 12, "12s"},
		{"minutes", 61, "1m"},
		{"hours_only", 2*60*60 + 10, "2h"},
		{"hours_minutes", 2*60*60 + 3*60, "2h 3m"},
		{"days", 24 * 60 * 60, "1d"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := humanizeDuration(time.Duration(tc.in) * time.Second)
			if got != tc.want {
				t.Fatalf("humanizeDuration(%d) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[float64]string{
		0:         "R$ 0,00",
		9.5:       "R$ 9,50",
		1234.56:   "R$ 1.234,56",
		1000000:   "R$ 1.000.000,00",
		80000.999: "R$ 80.001,00",
	}
	for in, want := range cases {
		if got := formatPrice(in); got != want {
			t.Errorf("formatPrice(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  bike  ", 10); got != "bike" {
		t.Fatalf("truncate short = %q, want bike", got)
	}
	if got := truncate("mountain bike", 8); got != "mount..." {
		t.Fatalf("truncate = %q, want mount...", got)
	}
	if got := truncate("abcd", 2); got != "ab" {
		t.Fatalf("truncate limit<=3 = %q, want ab", got)
	}
}

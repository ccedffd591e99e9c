package cmd

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClipKeepsRuneBoundaries(t *testing.T) {
	desc := strings.Repeat("Ω", 40)
	got := clip(desc, 20)
	if !utf8.ValidString(got) {
		t.Errorf("clipped text is not valid UTF-8: %q", got)
	}
	if got != strings.Repeat("Ω", 17)+"..." {
		t.Errorf("clip(%q, 20) = %q", desc, got)
	}

	if got := clip("  10kΩ ±1%  ", 60); got != "10kΩ ±1%" {
		t.Errorf("short descriptions must pass through trimmed, got %q", got)
	}
}

func TestFormatStock(t *testing.T) {
	cases := []struct {
		stock int64
		want  string
	}{
		{0, "0"},
		{950, "950"},
		{12_000, "12K"},
		{3_400_000, "3M+"},
	}
	for _, tc := range cases {
		if got := formatStock(tc.stock); got != tc.want {
			t.Errorf("formatStock(%d) = %q, want %q", tc.stock, got, tc.want)
		}
	}
}

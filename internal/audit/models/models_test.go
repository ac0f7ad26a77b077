package models

import (
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	t.Run("short values pass through unchanged", func(t *testing.T) {
		if got := Truncate("alice", 128); got != "alice" {
			t.Fatalf("expected unchanged value, got %q", got)
		}
	})

	t.Run("caps at exactly max characters", func(t *testing.T) {
		long := strings.Repeat("a", 200)
		got := Truncate(long, MaxResourceLen)
		if len([]rune(got)) != MaxResourceLen {
			t.Fatalf("expected %d characters, got %d", MaxResourceLen, len([]rune(got)))
		}
	})

	t.Run("cap counts characters not bytes", func(t *testing.T) {
		// Each character below is three bytes in UTF-8.
		long := strings.Repeat("数", 130)
		got := Truncate(long, MaxResourceLen)
		runes := []rune(got)
		if len(runes) != MaxResourceLen {
			t.Fatalf("expected %d runes, got %d", MaxResourceLen, len(runes))
		}
		for _, r := range runes {
			if r != '数' {
				t.Fatalf("rune was split during truncation: %q", r)
			}
		}
	})

	t.Run("value at exactly max is kept whole", func(t *testing.T) {
		exact := strings.Repeat("b", MaxReasonLen)
		if got := Truncate(exact, MaxReasonLen); got != exact {
			t.Fatalf("expected value at the cap to be untouched")
		}
	})
}

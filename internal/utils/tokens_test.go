package utils_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/sheetask-cli/internal/utils"
)

func TestCountTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		min  int
	}{
		{"empty", "", 0},
		{"short", "id", 1},
		{"row", "age: 25, region: north", 5},
		{"long", strings.Repeat("a", 4000), 900},
	}
	for _, c := range cases {
		if got := utils.CountTokens(c.in); got < c.min {
			t.Errorf("%s: got %d < min %d", c.name, got, c.min)
		}
	}
}

func TestTruncateToTokenLimit(t *testing.T) {
	text := strings.Repeat("abcd ", 1000)
	trunc := utils.TruncateToTokenLimit(text, 300)
	if n := utils.CountTokens(trunc); n > 300 {
		t.Fatalf("tokens=%d exceeds limit", n)
	}
	if len(trunc) == 0 {
		t.Fatalf("expected non-empty truncation")
	}
	if utils.TruncateToTokenLimit("short", 10) != "short" {
		t.Fatalf("text under the limit must be unchanged")
	}
	if utils.TruncateToTokenLimit("x", 0) != "" {
		t.Fatalf("zero limit must yield empty text")
	}
}

func TestTruncateToTokenLimit_RuneBoundary(t *testing.T) {
	text := strings.Repeat("é", 10)
	got := utils.TruncateToTokenLimit(text, 2)
	if got != strings.Repeat("é", 8) {
		t.Fatalf("got %q, want 8 runes", got)
	}
	if n := utils.CountTokens(got); n != 2 {
		t.Fatalf("tokens=%d, want 2", n)
	}
}

func TestSafeWriteFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "out.json")
	b, err := utils.PrettyJSON(map[string]int{"rows": 3})
	if err != nil {
		t.Fatalf("pretty json: %v", err)
	}
	if err := utils.SafeWriteFile(p, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != "{\n  \"rows\": 3\n}" {
		t.Fatalf("unexpected content: %q", got)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

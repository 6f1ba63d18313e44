package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"tail", "hello world", 8, "hello..."},
		{"tiny", "hello", 2, "he"},
		{"zero", "hello", 0, ""},
		{"multibyte", "héllo wörld", 8, "héllo..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestSingleLine(t *testing.T) {
	if got := SingleLine("  a\n\tb  c\n"); got != "a b c" {
		t.Errorf("SingleLine() = %q", got)
	}
}

func TestOutputResults(t *testing.T) {
	data := map[string]int{"count": 2}

	var buf bytes.Buffer
	if err := OutputResults(&buf, "json", data); err != nil {
		t.Fatalf("OutputResults json: %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 2`) {
		t.Errorf("unexpected json output: %s", buf.String())
	}

	buf.Reset()
	if err := OutputResults(&buf, "yaml", data); err != nil {
		t.Fatalf("OutputResults yaml: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "count: 2" {
		t.Errorf("unexpected yaml output: %s", buf.String())
	}

	if err := OutputResults(&buf, "xml", data); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	table := NewTableFormatter(&buf)
	table.Header("PATH", "HEADLINE")
	table.Row("/a", "Hello")
	table.Flush()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[2], "/a") || !strings.Contains(lines[2], "Hello") {
		t.Errorf("unexpected row: %q", lines[2])
	}
}

package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID()
	b := GenerateID()

	if a == b {
		t.Error("expected unique IDs")
	}
	if len(a) != 36 {
		t.Errorf("ID length = %d, want 36", len(a))
	}
}

func TestGenerateState(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}
	if len(state) != 32 {
		t.Errorf("state length = %d, want 32 hex chars", len(state))
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"a": 1}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if !strings.Contains(string(pretty), "\n") {
		t.Error("pretty output should be indented")
	}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if strings.Contains(string(compact), "\n") {
		t.Error("compact output should be single line")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{60, "1:00"},
		{215, "3:35"},
		{3600, "60:00"},
	}

	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestVisibilityString(t *testing.T) {
	if VisibilityString(true) != "Public" || VisibilityString(false) != "Private" {
		t.Error("unexpected visibility strings")
	}
}

func TestNormalizeTrackKey(t *testing.T) {
	if NormalizeTrackKey(" Blue Monday ", "NEW ORDER") != "blue monday|new order" {
		t.Error("expected lowercased trimmed key")
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"link.tidal.com/ABCDE", "https://link.tidal.com/ABCDE"},
		{"https://link.tidal.com/ABCDE", "https://link.tidal.com/ABCDE"},
		{"http://localhost:8080/callback", "http://localhost:8080/callback"},
	}

	for _, tt := range tests {
		if got := EnsureScheme(tt.url); got != tt.want {
			t.Errorf("EnsureScheme(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	logger.Info("to file")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "to file") {
		t.Errorf("log file = %q", content)
	}
}

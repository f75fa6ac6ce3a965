package utils

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"my file (1).pdf", "my_file__1_.pdf"},
		{"ünïcode.pdf", "_n_code.pdf"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("a", 150) + ".pdf"
	if got := SanitizeFilename(long); len(got) != 100 {
		t.Errorf("Expected 100-char cap, got %d chars", len(got))
	}
}

func TestSanitizeBase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice Smith", "Alice_Smith"},
		{"  spaced  ", "spaced"},
		{"???", ""},
		{"inv/oice#42", "inv_oice_42"},
	}
	for _, tt := range tests {
		if got := SanitizeBase(tt.in); got != tt.want {
			t.Errorf("SanitizeBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := strings.Repeat("b", 80)
	if got := SanitizeBase(long); len(got) != 50 {
		t.Errorf("Expected 50-char cap, got %d chars", len(got))
	}
}

func TestGenerateUUID(t *testing.T) {
	a := GenerateUUID()
	b := GenerateUUID()
	if a == b {
		t.Error("Expected distinct UUIDs")
	}
	if len(a) != 36 {
		t.Errorf("Expected 36-char UUID, got %d", len(a))
	}
}

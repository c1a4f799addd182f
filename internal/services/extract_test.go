package services

import (
	"strings"
	"testing"
)

func TestNormalizeExtractedText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"trims line whitespace", "  linha um  \n  linha dois  ", "linha um\nlinha dois"},
		{"collapses blank runs", "um\n\n\n\ndois", "um\n\ndois"},
		{"windows line endings", "um\r\ndois\rtres", "um\ndois\ntres"},
		{"empty input", "   \n  \n", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizeExtractedText(tc.in)
			if got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestExtractPDF_ReportsBothFailures(t *testing.T) {
	s := NewExtractService()

	_, err := s.ExtractPDF("/nonexistent/file.pdf")
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "plain-text pass") || !strings.Contains(err.Error(), "row pass") {
		t.Errorf("Expected both extraction passes named in the error, got %q", err.Error())
	}
}

func TestCountPages_MissingFile(t *testing.T) {
	s := NewExtractService()

	if _, err := s.CountPages("/nonexistent/file.pdf"); err == nil {
		t.Error("Expected error for missing file")
	}
}

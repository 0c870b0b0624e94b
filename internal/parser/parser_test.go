package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatbot-rag/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestParseText(t *testing.T) {
	path := writeFile(t, "notes.txt", "Plain text content.\nSecond line.")
	pages, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pages) != 1 || pages[0].Number != 1 {
		t.Fatalf("pages = %+v, want one page numbered 1", pages)
	}
	if !strings.Contains(pages[0].Text, "Second line.") {
		t.Fatalf("page text = %q", pages[0].Text)
	}
}

func TestParseMarkdownStripsSyntax(t *testing.T) {
	path := writeFile(t, "readme.md", "# Title\n\nSome *emphasized* text with a [link](https://example.com).\n")
	pages, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	text := pages[0].Text
	for _, want := range []string{"Title", "emphasized", "link"} {
		if !strings.Contains(text, want) {
			t.Errorf("text missing %q: %q", want, text)
		}
	}
	for _, marker := range []string{"#", "*", "](", "https://example.com"} {
		if strings.Contains(text, marker) {
			t.Errorf("markdown syntax %q leaked into text: %q", marker, text)
		}
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "data.xyz", "binary-ish")
	_, err := Parse(path)
	if !errors.Is(err, models.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "missing.txt"))
	if !errors.Is(err, models.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseCorruptPDF(t *testing.T) {
	path := writeFile(t, "broken.pdf", "this is not a pdf")
	_, err := Parse(path)
	if !errors.Is(err, models.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

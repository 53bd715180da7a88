// Package ingest turns a documents directory into indexed collections:
// each subdirectory becomes one collection, each supported file inside it
// is extracted, chunked, embedded and upserted.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Loader extracts plain text from a document file.
type Loader interface {
	Extract(ctx context.Context, path string) (string, error)
}

// CommandRunner executes an external command and returns its stdout.
// Extracted as an interface so loaders shelling out to external tools can
// be tested without the tool installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDFLoader extracts text from PDF files via poppler's pdftotext.
type PDFLoader struct {
	runner CommandRunner
}

// NewPDFLoader creates a PDF loader using the system pdftotext binary.
func NewPDFLoader() *PDFLoader {
	return &PDFLoader{runner: execRunner{}}
}

// NewPDFLoaderWithRunner creates a PDF loader with a custom command runner.
func NewPDFLoaderWithRunner(r CommandRunner) *PDFLoader {
	return &PDFLoader{runner: r}
}

// Extract converts the PDF to plain text. "-" writes to stdout; -layout
// preserves reading order for multi-column pages.
func (l *PDFLoader) Extract(ctx context.Context, path string) (string, error) {
	out, err := l.runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("pdftotext not installed (install poppler / poppler-utils): %w", err)
		}
		return "", fmt.Errorf("pdftotext %s: %w", path, err)
	}
	return normalizeText(string(out)), nil
}

// TextLoader reads plain-text documents (txt, md) as-is.
type TextLoader struct{}

// NewTextLoader creates a plain-text loader.
func NewTextLoader() *TextLoader { return &TextLoader{} }

// Extract reads the file contents.
func (l *TextLoader) Extract(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return normalizeText(string(data)), nil
}

// normalizeText collapses runs of blank lines and trims the result, so
// chunk boundaries are not dominated by extraction whitespace.
func normalizeText(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimRight(line, " \t")
		if trimmed == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Source is one ingested file, ready for prompt assembly.
type Source struct {
	Name string
	Lang string
	Text string
}

var (
	// ErrUnsupported marks files that cannot be turned into text.
	ErrUnsupported = errors.New("ingest: unsupported file")
	// ErrTooLarge marks files over the ingestion size cap.
	ErrTooLarge = errors.New("ingest: file too large")
)

// maxFileBytes caps a single ingested file. Context budgeting trims further
// downstream; this bound just keeps pathological inputs out of memory.
const maxFileBytes = 4 << 20

var extraneousWhitespace = regexp.MustCompile(`\s+`)

var langByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".cs":   "csharp",
	".rb":   "ruby",
	".rs":   "rust",
	".sh":   "shell",
	".sql":  "sql",
	".md":   "",
	".txt":  "",
}

// ReadFile loads a single local file into a Source. PDFs are extracted to
// plain text; code files carry a language tag inferred from the extension.
func ReadFile(path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.Size() > maxFileBytes {
		return Source{}, fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	name := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		text, err := extractPDFText(path)
		if err != nil {
			return Source{}, err
		}
		return Source{Name: name, Text: text}, nil
	}

	lang, known := langByExt[ext]
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, err
	}
	if !known && looksBinary(data) {
		return Source{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	return Source{Name: name, Lang: lang, Text: string(data)}, nil
}

// ReadFiles loads every path, failing on the first unreadable file.
func ReadFiles(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, path := range paths {
		source, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func extractPDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", err
	}

	text := extraneousWhitespace.ReplaceAllString(builder.String(), " ")
	return strings.TrimSpace(text), nil
}

func looksBinary(data []byte) bool {
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	return bytes.ContainsRune(sample, 0)
}

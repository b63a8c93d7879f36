// Package loader reads documents from files or standard input.
//
// Content is kept verbatim apart from a leading byte order mark, because
// every offset produced by analysis indexes into it.
package loader

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// StdinURI is the URI used for documents read from standard input.
const StdinURI = "-"

// MaxSize is the largest document the loader accepts.
const MaxSize = 16 << 20

var bom = []byte{0xEF, 0xBB, 0xBF}

// Loader builds documents from paths or readers.
type Loader struct {
	stdin io.Reader
}

// New creates a loader reading "-" from os.Stdin.
func New() *Loader {
	return &Loader{stdin: os.Stdin}
}

// WithStdin returns a copy of the loader reading "-" from r.
func (l *Loader) WithStdin(r io.Reader) *Loader {
	return &Loader{stdin: r}
}

// Load reads path, or standard input when path is "-".
func (l *Loader) Load(path string) (*domain.Document, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	if path == StdinURI {
		return Read(l.stdin, StdinURI)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}
	return Read(f, path)
}

// Read builds a document from r. uri is recorded on the document and used
// for the title fallback.
func Read(r io.Reader, uri string) (*domain.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if len(data) > MaxSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidInput, uri, MaxSize)
	}
	data = bytes.TrimPrefix(data, bom)
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, uri)
	}
	return FromText(string(data), uri), nil
}

// FromText wraps text that is already in memory.
func FromText(text, uri string) *domain.Document {
	return &domain.Document{
		ID:      uuid.New().String(),
		URI:     uri,
		Title:   Title(text, uri),
		Content: text,
		Metadata: map[string]any{
			"format": format(uri),
			"size":   len(text),
		},
		CreatedAt: time.Now(),
	}
}

// Title returns the first level-one markdown heading, falling back to the
// file name without extension.
func Title(content, uri string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	if uri == "" || uri == StdinURI {
		return "stdin"
	}
	filename := filepath.Base(uri)
	filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

func format(uri string) string {
	switch strings.ToLower(filepath.Ext(uri)) {
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	default:
		return "text"
	}
}

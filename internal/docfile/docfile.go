// Package docfile writes downloaded documentation to disk and reads the
// optional YAML frontmatter some backends prepend to generated documents.
package docfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the optional YAML block at the top of a generated document
type Frontmatter struct {
	Title       string `yaml:"title"`
	Repo        string `yaml:"repo"`
	GeneratedAt string `yaml:"generated_at"`
}

// ParseFrontmatter extracts YAML frontmatter from document content.
// Returns the frontmatter, remaining content, and any error. Documents
// without a frontmatter block come back unchanged with empty frontmatter.
func ParseFrontmatter(content []byte) (*Frontmatter, []byte, error) {
	if !bytes.HasPrefix(content, []byte("---\n")) {
		return &Frontmatter{}, content, nil
	}

	rest := content[4:]
	endIdx := bytes.Index(rest, []byte("\n---"))
	if endIdx == -1 {
		return &Frontmatter{}, content, nil
	}

	fmData := rest[:endIdx]
	remaining := rest[endIdx+4:] // skip \n---

	var fm Frontmatter
	if err := yaml.Unmarshal(fmData, &fm); err != nil {
		return nil, nil, err
	}

	return &fm, bytes.TrimLeft(remaining, "\n"), nil
}

// Filename returns the timestamped name for a saved document
func Filename(now time.Time) string {
	return fmt.Sprintf("documentation_%s.md", now.Format("20060102_150405"))
}

// Save writes a document into dir under a timestamped name, creating the
// directory if needed, and returns the written path.
func Save(dir, content string, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing documentation: %w", err)
	}
	return path, nil
}

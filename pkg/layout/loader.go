// Package layout loads authoring files: grid layouts that compile into
// programs and event scenarios that replay against an in-memory world.
// Files are YAML; Shift-JIS encoded files are accepted and decoded.
package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Source is one authoring file read from disk.
type Source struct {
	Path    string
	Content []byte // UTF-8
	Size    int64
}

// Loader finds layout files under a directory.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// LoadAll reads every .yaml and .yml file under the loader's directory in
// path order.
func (l *Loader) LoadAll() ([]Source, error) {
	paths, err := l.find()
	if err != nil {
		return nil, fmt.Errorf("failed to find layout files: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no layout files found in %s", l.dir)
	}

	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		src, err := ReadSource(p)
		if err != nil {
			return nil, err
		}
		sources = append(sources, *src)
	}
	return sources, nil
}

// find walks the directory; extensions compare case-insensitively.
func (l *Loader) find() ([]string, error) {
	var paths []string
	err := filepath.Walk(l.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if strings.EqualFold(ext, ".yaml") || strings.EqualFold(ext, ".yml") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadSource reads one file, decoding it to UTF-8.
func ReadSource(path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	content, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("failed to convert encoding of %s: %w", path, err)
	}
	return &Source{Path: path, Content: content, Size: info.Size()}, nil
}

// toUTF8 passes valid UTF-8 through and decodes anything else as Shift-JIS.
func toUTF8(data []byte) ([]byte, error) {
	if utf8.Valid(data) {
		return data, nil
	}
	// Shift-JISからUTF-8に変換
	reader := transform.NewReader(strings.NewReader(string(data)), japanese.ShiftJIS.NewDecoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Shift-JIS: %w", err)
	}
	return out, nil
}

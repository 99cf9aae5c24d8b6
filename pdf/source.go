// Package pdf wraps the document-level operations both conversion pipelines
// share: opening an uploaded or on-disk PDF, extracting its embedded text and
// rasterizing its pages to bitmaps.
package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is a read-only PDF input, backed either by a filesystem path or an
// in-memory byte buffer. Each read pass obtains a fresh reader so that text
// extraction and rasterization can both consume the source from offset zero.
type Source struct {
	path     string
	data     []byte
	filename string
}

// FromPath builds a path-backed source. The file is not opened until a
// pipeline reads it.
func FromPath(path string) *Source {
	return &Source{path: path, filename: baseName(path)}
}

// FromBytes builds a byte-backed source carrying the client's filename.
func FromBytes(data []byte, filename string) *Source {
	return &Source{data: data, filename: filename}
}

// Filename returns the name reported back to the client.
func (s *Source) Filename() string { return s.filename }

// Path returns the backing path, or "" for byte-backed sources.
func (s *Source) Path() string { return s.path }

// Bytes returns the full document content. Path-backed sources are read from
// disk; a missing file surfaces the underlying fs.ErrNotExist.
func (s *Source) Bytes() ([]byte, error) {
	if s.path != "" {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("read source %s: %w", s.path, err)
		}
		return data, nil
	}
	return s.data, nil
}

// Reader returns a new reader positioned at the start of the document.
func (s *Source) Reader() (io.ReaderAt, int64, error) {
	data, err := s.Bytes()
	if err != nil {
		return nil, 0, err
	}
	return bytes.NewReader(data), int64(len(data)), nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}

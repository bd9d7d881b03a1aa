package fsutil

import "io"

// FileStore provides an interface for the file reads the CLI commands need
type FileStore interface {
	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// ReadFileAsStream opens a file and returns a reader
	ReadFileAsStream(path string) (io.ReadCloser, error)

	// ListDocuments expands path into document file paths. A directory
	// yields the files directly under it whose extension is in extensions,
	// sorted by name; a plain file path is returned as-is.
	ListDocuments(path string, extensions []string) ([]string, error)
}

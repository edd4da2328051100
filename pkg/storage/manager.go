package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tumbledee/pkg/errors"
)

// Manager writes downloaded images and text posts into one output directory
type Manager struct {
	outputDir string
	saved     map[string]int
	mu        sync.Mutex
}

// NewManager creates the output directory if needed and returns a manager for it
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.NewStorageError("failed to create output directory", err)
	}

	return &Manager{
		outputDir: outputDir,
		saved:     make(map[string]int),
	}, nil
}

// FileNameFromURL returns the part of rawURL after its last '/'
func FileNameFromURL(rawURL string) (string, error) {
	name := rawURL[strings.LastIndexByte(rawURL, '/')+1:]
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("no file name in %q", rawURL)
	}
	return name, nil
}

// SaveFile writes r to name inside the output directory and returns the path.
// An existing file of the same name is replaced. The data is written to a
// temporary file of its own first, so an interrupted write never leaves a
// partial file under the final name and concurrent saves of one name do not
// share a temporary file.
func (m *Manager) SaveFile(r io.Reader, name string) (string, error) {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		return "", errors.NewStorageError(fmt.Sprintf("invalid file name %q", name), nil)
	}

	filename := filepath.Join(m.outputDir, name)

	out, err := os.CreateTemp(m.outputDir, name+".*.tmp")
	if err != nil {
		return "", errors.NewStorageError("failed to create temporary file", err)
	}
	tempFile := out.Name()

	err = out.Chmod(0644)
	if err == nil {
		_, err = io.Copy(out, r)
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", errors.NewStorageError("failed to write file data", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", errors.NewStorageError("failed to close file", closeErr)
	}

	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return "", errors.NewStorageError("failed to rename temporary file", err)
	}

	m.mu.Lock()
	m.saved[name]++
	m.mu.Unlock()

	return filename, nil
}

// SaveTextPost writes the body of a text post to {id}.html wrapped in a minimal document
func (m *Manager) SaveTextPost(id, body string) (string, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<html><head>Post id %s</head><body>%s</body></html>", id, body)
	return m.SaveFile(&buf, id+".html")
}

// Overwrites reports how many times name was replaced by this manager
func (m *Manager) Overwrites(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := m.saved[name]; n > 1 {
		return n - 1
	}
	return 0
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// GetSavedCount returns the number of distinct file names written so far
func (m *Manager) GetSavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

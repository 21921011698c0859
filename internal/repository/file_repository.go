package repository

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tirasundara/payment-converter/pkg/fileutil"
)

// ErrOutputExists is returned by WriteOnce when overwriting is disabled and
// the destination already exists
var ErrOutputExists = errors.New("output file already exists")

// FileRepository reads conversion inputs and writes finished documents
type FileRepository struct {
	Overwrite     bool
	MaxLineLength int
	FileMode      os.FileMode
}

// NewFileRepository creates a new FileRepository
func NewFileRepository(overwrite bool) *FileRepository {
	return &FileRepository{
		Overwrite:     overwrite,
		MaxLineLength: fileutil.DefaultMaxLineLength,
		FileMode:      0o644,
	}
}

// ReadText returns the whole file as a string.
func (r *FileRepository) ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading input file: %w", err)
	}
	return string(data), nil
}

// ReadLines returns the file's lines without line terminators.
func (r *FileRepository) ReadLines(path string) ([]string, error) {
	reader := fileutil.NewLineReader(path)
	reader.MaxLineLength = r.MaxLineLength

	var lines []string
	var lineProcessorFn = func(_ int, line string) error {
		lines = append(lines, line)
		return nil
	}

	if err := reader.ReadAndProcessByLine(lineProcessorFn); err != nil {
		return nil, fmt.Errorf("reading input lines: %w", err)
	}
	return lines, nil
}

// Open opens the file for streaming reads.
func (r *FileRepository) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	return f, nil
}

// WriteOnce writes data to a temporary sibling of path and renames it into
// place, so path either keeps its old content or holds all of data. Missing
// parent directories are created.
func (r *FileRepository) WriteOnce(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if !r.Overwrite {
		if _, statErr := os.Stat(path); statErr == nil {
			return ErrOutputExists
		}
	}

	tmp, err := os.CreateTemp(dir, "."+strings.TrimPrefix(filepath.Base(path), ".")+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary output: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), r.FileMode); err != nil {
		return fmt.Errorf("setting output permissions: %w", err)
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving output into place: %w", err)
	}
	return nil
}

package fileutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultMaxLineLength bounds a single line read by LineReader
const DefaultMaxLineLength = 1 << 20

var (
	// ErrLineTooLong is returned when a line exceeds the reader's MaxLineLength
	ErrLineTooLong = errors.New("line exceeds maximum length")

	// ErrTooManyLines stops CountLines once its limit is passed
	ErrTooManyLines = errors.New("too many lines")
)

// LineReader provides a helper/utility to stream text file(s) line by line
type LineReader struct {
	FilePath      string
	MaxLineLength int
}

// NewLineReader returns a LineReader instance for a specified file
func NewLineReader(fp string) *LineReader {
	return &LineReader{
		FilePath:      fp,
		MaxLineLength: DefaultMaxLineLength,
	}
}

// ReadAndProcessByLine reads the file line by line, allows for streaming large file(s).
// Line numbers start at 1. Trailing "\r" is stripped.
func (r *LineReader) ReadAndProcessByLine(processorFn func(lineNo int, line string) error) error {
	f, err := os.Open(r.FilePath)
	if err != nil {
		return fmt.Errorf("opening a file: %w", err)
	}
	defer f.Close()

	return ProcessLines(f, r.MaxLineLength, processorFn)
}

// CountLines counts lines, stopping early with ErrTooManyLines once limit is
// exceeded. A limit <= 0 disables the early stop.
func (r *LineReader) CountLines(limit int) (int, error) {
	count := 0
	err := r.ReadAndProcessByLine(func(int, string) error {
		count++
		if limit > 0 && count > limit {
			return ErrTooManyLines
		}
		return nil
	})
	return count, err
}

// ProcessLines streams lines from rd into processorFn.
func ProcessLines(rd io.Reader, maxLineLength int, processorFn func(lineNo int, line string) error) error {
	if maxLineLength <= 0 {
		maxLineLength = DefaultMaxLineLength
	}

	initial := 4096
	if maxLineLength < initial {
		initial = maxLineLength
	}

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, initial), maxLineLength)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := processorFn(lineNo, strings.TrimRight(scanner.Text(), "\r")); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return fmt.Errorf("reading line %d: %w", lineNo+1, ErrLineTooLong)
		}
		return fmt.Errorf("reading line %d: %w", lineNo+1, err)
	}
	return nil
}

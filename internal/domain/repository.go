package domain

import "io"

// InputRepository defines the interface for reading conversion inputs
type InputRepository interface {
	// ReadText reads the whole file, used for tagged formats such as MT103
	ReadText(path string) (string, error)

	// ReadLines reads the file line by line, used for fixed-width formats such as NACHA
	ReadLines(path string) ([]string, error)

	// Open opens the file for a streaming reader
	Open(path string) (io.ReadCloser, error)
}

// OutputRepository defines the interface for storing finished documents
type OutputRepository interface {
	// WriteOnce stores data at path completely or not at all
	WriteOnce(path string, data []byte) error
}

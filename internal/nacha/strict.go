package nacha

import (
	"fmt"
	"io"

	"github.com/moov-io/ach"
	"github.com/tirasundara/payment-converter/internal/domain"
)

// Structure summarises a file that passed the structural check
type Structure struct {
	Batches int
	Entries int
}

// CheckStructure reads rd with the moov-io/ach reader, which enforces record
// order, field formats and control totals. Any failure is a content error.
func CheckStructure(rd io.Reader) (Structure, error) {
	file, err := ach.NewReader(rd).Read()
	if err != nil {
		return Structure{}, &domain.ParseError{
			Format: string(domain.FormatNACHA),
			Err:    fmt.Errorf("structural validation: %w", err),
		}
	}

	st := Structure{Batches: len(file.Batches)}
	for _, b := range file.Batches {
		st.Entries += len(b.GetEntries())
	}
	return st, nil
}

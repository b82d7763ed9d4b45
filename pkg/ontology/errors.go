package ontology

import (
	"errors"
	"fmt"
)

var (
	// ErrDataFormat is matched by every *DataFormatError.
	ErrDataFormat = errors.New("invalid dataset format")

	// ErrEmptyDataset reports a dataset that parsed but yielded no usable terms.
	// It is a warning: search and rank keep working and return nothing.
	ErrEmptyDataset = errors.New("dataset contains no usable terms")
)

// DataFormatError reports a dataset whose top-level shape is not usable.
type DataFormatError struct {
	Reason string
	Err    error
}

func (e *DataFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid dataset format: %s: %v", e.Reason, e.Err)
	}
	return "invalid dataset format: " + e.Reason
}

func (e *DataFormatError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDataFormat) match any DataFormatError.
func (e *DataFormatError) Is(target error) bool {
	return target == ErrDataFormat
}

// NewDataFormatError wraps err (which may be nil) with a reason.
func NewDataFormatError(reason string, err error) *DataFormatError {
	return &DataFormatError{Reason: reason, Err: err}
}

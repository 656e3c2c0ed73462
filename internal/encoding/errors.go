package encoding

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnknownEncoding     = errors.New("unknown encoding")
	ErrVocabularyIntegrity = errors.New("vocabulary integrity check failed")
)

// IntegrityError describes why a profile's id space is inconsistent.
type IntegrityError struct {
	Encoding string // Profile name
	Details  string // What did not add up
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrVocabularyIntegrity, e.Encoding, e.Details)
}

// Unwrap returns ErrVocabularyIntegrity.
func (e *IntegrityError) Unwrap() error {
	return ErrVocabularyIntegrity
}

package bpe

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnresolvableBytes = errors.New("byte sequence has no rank")
	ErrDisallowedSpecial = errors.New("disallowed special token in input")
	ErrDuplicateEntry    = errors.New("duplicate vocabulary entry")
	ErrInvalidRank       = errors.New("invalid rank")
)

// UnresolvableError reports a byte run the rank table cannot resolve.
//
// It indicates a defective rank table rather than bad input: every byte-level
// vocabulary covers all 256 single bytes.
type UnresolvableError struct {
	Bytes []byte
}

// Error implements the error interface.
func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnresolvableBytes, e.Bytes)
}

// Unwrap returns ErrUnresolvableBytes.
func (e *UnresolvableError) Unwrap() error {
	return ErrUnresolvableBytes
}

// DisallowedSpecialError reports a special token literal found in text
// where the caller did not allow it.
type DisallowedSpecialError struct {
	Token string
}

// Error implements the error interface.
func (e *DisallowedSpecialError) Error() string {
	return fmt.Sprintf("%s: %q (allow it explicitly, or remove it from the disallowed set to encode it as text)",
		ErrDisallowedSpecial, e.Token)
}

// Unwrap returns ErrDisallowedSpecial.
func (e *DisallowedSpecialError) Unwrap() error {
	return ErrDisallowedSpecial
}

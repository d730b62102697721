package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode matches any DecodeError.
	ErrDecode = errors.New("malformed JSON document")
	// ErrShape matches any ShapeError.
	ErrShape = errors.New("document does not have the podcast record shape")
)

// DecodeError reports a document that is not well-formed JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode JSON: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// ShapeError reports well-formed JSON that lacks a required key or holds a
// value of the wrong type.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "invalid shape: " + e.Reason
}

func (e *ShapeError) Is(target error) bool { return target == ErrShape }

// Kind classifies a Diagnostic.
type Kind string

const (
	KindDecode    Kind = "decode"
	KindShape     Kind = "shape"
	KindRead      Kind = "read"
	KindDuplicate Kind = "duplicate"
)

// Diagnostic is a problem found while scanning one file. Every kind except
// KindDuplicate means the file contributed nothing to the catalog.
type Diagnostic struct {
	File string
	Kind Kind
	Err  error
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s error: %v", d.File, d.Kind, d.Err)
}

// Excluded reports whether the file was left out of the catalog.
func (d Diagnostic) Excluded() bool {
	return d.Kind != KindDuplicate
}

func kindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrShape):
		return KindShape
	default:
		return KindRead
	}
}

package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDivisionByZero reports a ratio whose denominator is zero.
var ErrDivisionByZero = errors.New("division by zero")

// SchemaError reports required columns missing from an export header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// ParseError reports a value that could not be converted. Line is the
// 1-based line in the source file, header included.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %q: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FileRole names which upload an error belongs to.
type FileRole string

const (
	RoleCurrent FileRole = "current"
	RolePrior   FileRole = "prior"
)

type FileError struct {
	Role FileRole
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s period file: %v", e.Role, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

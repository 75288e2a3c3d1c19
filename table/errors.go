/*
errors.go - Centralized error types for the table substrate

PURPOSE:
  All table-level errors in one place. Higher layers (the accruals engine,
  ingest) wrap these with row and rule context.

ERROR CATEGORIES:
  1. Type errors   - A cell's runtime shape violates its contract
  2. Schema errors - A named column is absent when selecting or reordering
  3. Join errors   - A join key is absent from one side of a join

USAGE:
  Callers match categories with errors.Is:

    if errors.Is(err, table.ErrColumnSubset) {
        // contract break between ETL and engine
    }
*/
package table

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTypeMismatch is returned when a cell's runtime kind violates the
	// documented contract for its column. Not recoverable locally.
	ErrTypeMismatch = errors.New("value type mismatch")

	// ErrColumnSubset is returned when an expected column is absent while
	// selecting or reordering columns. Signals an ETL/engine contract break.
	ErrColumnSubset = errors.New("column not present")

	// ErrJoinKey is returned when a join key is absent from one side of a join.
	ErrJoinKey = errors.New("join key not present")

	// ErrRowShape is returned when concatenating tables whose shapes differ.
	ErrRowShape = errors.New("table shapes differ")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// TypeMismatchError names the column whose cell held the wrong kind.
type TypeMismatchError struct {
	Column string
	Want   Kind
	Got    Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("column %q: expected %s, got %s", e.Column, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

// ColumnSubsetError names the absent column.
type ColumnSubsetError struct {
	Column string
}

func (e *ColumnSubsetError) Error() string {
	return fmt.Sprintf("column %q not present in table", e.Column)
}

func (e *ColumnSubsetError) Unwrap() error { return ErrColumnSubset }

// JoinKeyError names the absent key and which side of the join lacked it.
type JoinKeyError struct {
	Key  string
	Side string // "left" or "right"
}

func (e *JoinKeyError) Error() string {
	return fmt.Sprintf("join key %q not present in %s table", e.Key, e.Side)
}

func (e *JoinKeyError) Unwrap() error { return ErrJoinKey }

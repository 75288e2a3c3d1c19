/*
Package table provides the in-memory tabular substrate for the accruals
pipeline.

PURPOSE:
  Source reports arrive as loosely typed spreadsheets: a cell may hold text,
  a currency amount, a calendar date, or nothing at all. This package models
  that reality explicitly instead of scattering runtime type checks through
  every derivation step.

KEY CONCEPTS IN THIS FILE (value.go):
  - Value: A tagged union of Missing / String / Number / Date
  - Kind:  Which of the four shapes a Value currently holds
  - Typed accessors (AsString, AsNumber, AsDate) that fail with a
    TypeMismatchError naming the offending column

DESIGN PRINCIPLES:
  1. Precision: Numbers are decimal.Decimal, never float64, so currency
     rounding is exact
  2. Explicit absence: Missing is its own kind, not an empty string or zero
  3. Fail loudly: Accessors return errors instead of coercing

SEE ALSO:
  - table.go:  Table and Row operations
  - errors.go: Error types returned by accessors
*/
package table

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// KIND - Which shape a Value holds
// =============================================================================

type Kind int

const (
	KindMissing Kind = iota
	KindString
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "missing"
	}
}

// =============================================================================
// VALUE - A single cell
// =============================================================================

// Value is one cell of a report table. The zero value is Missing.
type Value struct {
	kind Kind
	str  string
	num  decimal.Decimal
	date time.Time
}

func Missing() Value { return Value{} }

func NewString(s string) Value { return Value{kind: KindString, str: s} }

func NewNumber(d decimal.Decimal) Value { return Value{kind: KindNumber, num: d} }

func NewNumberFromFloat(f float64) Value {
	return Value{kind: KindNumber, num: decimal.NewFromFloat(f)}
}

func NewNumberFromInt(n int64) Value {
	return Value{kind: KindNumber, num: decimal.NewFromInt(n)}
}

// NewDate truncates to a calendar day in UTC. Cells never carry a time of day.
func NewDate(t time.Time) Value {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Value{kind: KindDate, date: day}
}

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// =============================================================================
// TYPED ACCESSORS
// =============================================================================

// AsString returns the cell's text, or a TypeMismatchError naming column.
func (v Value) AsString(column string) (string, error) {
	if v.kind != KindString {
		return "", &TypeMismatchError{Column: column, Want: KindString, Got: v.kind}
	}
	return v.str, nil
}

// AsNumber returns the cell's decimal, or a TypeMismatchError naming column.
func (v Value) AsNumber(column string) (decimal.Decimal, error) {
	if v.kind != KindNumber {
		return decimal.Zero, &TypeMismatchError{Column: column, Want: KindNumber, Got: v.kind}
	}
	return v.num, nil
}

// AsDate returns the cell's calendar date, or a TypeMismatchError naming column.
func (v Value) AsDate(column string) (time.Time, error) {
	if v.kind != KindDate {
		return time.Time{}, &TypeMismatchError{Column: column, Want: KindDate, Got: v.kind}
	}
	return v.date, nil
}

// =============================================================================
// RENDERING
// =============================================================================

// String renders the cell for display, export, and join keys.
// Missing renders as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num.String()
	case KindDate:
		return v.date.Format("2006-01-02")
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num.Equal(o.num)
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return true
	}
}

// Package ast defines the SQuery abstract syntax tree. Polymorphic nodes
// (WhereExpr, Value) are expressed as tagged variants: small interfaces
// with an unexported marker method.
package ast

import (
	"fmt"
	"math/big"
	"strings"
)

// FieldRef is a possibly-dotted identifier: alias.field, or bare field
// when Alias is empty (the root alias applies by default).
type FieldRef struct {
	Alias string
	Field string
}

func (f FieldRef) String() string {
	if f.Alias == "" {
		return f.Field
	}
	return f.Alias + "." + f.Field
}

// Join is one `join EntityPath [of type TypeFilter] alias` clause.
// EntityPath is either a bare nav-prop name (parent is the root) or
// `parentAlias.NavProp` (a chained join); ParentAlias is "" for the
// former. TypeSuffix holds a `NavProp:TypeName` colon qualifier when
// present, distinct from an `of type` TypeFilter.
type Join struct {
	ParentAlias string
	NavProp     string
	TypeSuffix  string
	TypeFilter  string
	Alias       string
}

// Sort is one `order by field [asc|desc]` item.
type Sort struct {
	Field FieldRef
	Desc  bool
}

// Op is a WHERE comparison operator.
type Op string

const (
	OpEq       Op = "="
	OpNeq      Op = "!="
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpLt       Op = "<"
	OpLte      Op = "<="
	OpLike     Op = "%="
	OpLikeBoth Op = "%=%"
)

// WhereExpr is the tagged WHERE tree: Compare | Logical | Not.
type WhereExpr interface {
	whereExpr()
}

// Compare is a single `field op value` predicate.
type Compare struct {
	Field FieldRef
	Op    Op
	Value Value
}

func (Compare) whereExpr() {}

// LogicalOp is `and` or `or`.
type LogicalOp string

const (
	LogicalAnd LogicalOp = "AND"
	LogicalOr  LogicalOp = "OR"
)

// Logical is `left (and|or) right`.
type Logical struct {
	Left  WhereExpr
	Op    LogicalOp
	Right WhereExpr
}

func (Logical) whereExpr() {}

// Not is `not child`.
type Not struct {
	Child WhereExpr
}

func (Not) whereExpr() {}

// Value is the tagged WHERE literal: Null | Bool | Number | Str |
// ColumnRef (an identifier on the RHS, e.g. comparing two columns).
type Value interface {
	value()
}

type NullValue struct{}

func (NullValue) value() {}

type BoolValue bool

func (BoolValue) value() {}

type StrValue string

func (StrValue) value() {}

// ColumnRef is used when a WHERE value position holds a bare identifier
// rather than a literal, comparing two columns against each other.
type ColumnRef FieldRef

func (ColumnRef) value() {}

// Number is a WHERE numeric literal. It is backed by math/big.Rat rather
// than float64 to avoid precision loss on 64-bit identifiers.
type Number struct {
	raw string
	val *big.Rat
}

func (Number) value() {}

// ParseNumber parses a lexer NUMBER lexeme (digits with an optional
// embedded decimal point and an optional leading '-') into a Number.
func ParseNumber(lexeme string) (Number, error) {
	r, ok := new(big.Rat).SetString(lexeme)
	if !ok {
		return Number{}, fmt.Errorf("invalid numeric literal %q", lexeme)
	}
	return Number{raw: lexeme, val: r}, nil
}

// IsInt reports whether the number has no fractional part.
func (n Number) IsInt() bool {
	return n.val.IsInt()
}

// Int64 returns the number as an int64 when it fits exactly.
func (n Number) Int64() (int64, bool) {
	if !n.val.IsInt() {
		return 0, false
	}
	if !n.val.Num().IsInt64() {
		return 0, false
	}
	return n.val.Num().Int64(), true
}

// String renders the canonical textual form used for SQL literal
// inlining: an integer form when exact, otherwise a decimal form
// preserving the number of fractional digits the author typed.
func (n Number) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.FloatString(fractionDigits(n.raw))
}

func fractionDigits(raw string) int {
	dot := strings.IndexByte(raw, '.')
	if dot < 0 {
		return 0
	}
	return len(raw) - dot - 1
}

// Query is the root AST node for a full SQuery.
type Query struct {
	RootEntity string
	Joins      []Join
	Top        int // 0 means absent
	Select     []FieldRef
	Where      WhereExpr
	OrderBy    []Sort
}

// Package diag holds the error and warning types shared across the
// lexer, parser, validator and transformer stages.
package diag

import (
	"fmt"
	"strings"
)

// Clause names the part of the SQuery a diagnostic belongs to.
type Clause string

const (
	ClauseFrom    Clause = "FROM"
	ClauseJoin    Clause = "JOIN"
	ClauseSelect  Clause = "SELECT"
	ClauseWhere   Clause = "WHERE"
	ClauseOrderBy Clause = "ORDER BY"
	ClauseTop     Clause = "TOP"
)

// Kind distinguishes the three fatal error categories a translation can
// fail with.
type Kind string

const (
	KindParseError      Kind = "ParseError"
	KindValidationError Kind = "ValidationError"
	KindUnknownEntity   Kind = "UnknownEntity"
)

// Error is the single fatal error a translation can fail with. It is a
// concrete type (not just a formatted string) so callers can branch on
// Kind without parsing the message, while Error() still renders the
// full user-facing text.
type Error struct {
	Kind       Kind
	Clause     Clause
	Name       string   // the offending name: alias, entity, column, token
	Available  []string // visible aliases or similar, in declaration order
	Suggestion string   // fix hint, e.g. "add to navigationPropertyOverrides for entity X"
	Pos        int      // source offset, -1 if not applicable
	msg        string   // precomputed human-readable message
}

func (e *Error) Error() string {
	return e.msg
}

// NewParseError reports a fatal parser-stage failure at byte offset pos.
func NewParseError(pos int, format string, args ...any) *Error {
	detail := fmt.Sprintf(format, args...)
	return &Error{
		Kind: KindParseError,
		Pos:  pos,
		msg:  fmt.Sprintf("parse error at position %d: %s", pos, detail),
	}
}

// NewUnknownEntity reports a root entity with no table binding in the registry.
func NewUnknownEntity(entity string) *Error {
	return &Error{
		Kind: KindUnknownEntity,
		Name: entity,
		msg:  fmt.Sprintf("entity %q is not mapped to any SQL table", entity),
	}
}

// NewUndeclaredAlias reports a reference to an alias the scope never bound.
func NewUndeclaredAlias(clause Clause, alias string, available []string) *Error {
	return &Error{
		Kind:      KindValidationError,
		Clause:    clause,
		Name:      alias,
		Available: available,
		msg: fmt.Sprintf("alias %q is not declared in %s. Available aliases: %s",
			alias, clause, strings.Join(available, ", ")),
	}
}

// NewAliasCollision reports a duplicate join alias or one that shadows the root.
func NewAliasCollision(alias string, withRoot bool) *Error {
	reason := "duplicate join alias"
	if withRoot {
		reason = "join alias collides with the root alias"
	}
	return &Error{
		Kind:   KindValidationError,
		Clause: ClauseJoin,
		Name:   alias,
		msg:    fmt.Sprintf("%s: %q", reason, alias),
	}
}

// NewNegativeTop reports a negative `top` value.
func NewNegativeTop(n int) *Error {
	return &Error{
		Kind:   KindValidationError,
		Clause: ClauseTop,
		msg:    fmt.Sprintf("top must not be negative, got %d", n),
	}
}

// NewInternal reports an invariant violation that should be unreachable.
// It is still a reported fatal error, never a silent panic or swallow.
func NewInternal(format string, args ...any) *Error {
	return &Error{
		Kind: KindValidationError,
		msg:  "internal error: " + fmt.Sprintf(format, args...),
	}
}

// Warning is a single non-fatal diagnostic. Translation continues after one.
type Warning struct {
	Clause  Clause
	Message string
}

func (w Warning) String() string {
	if w.Clause == "" {
		return w.Message
	}
	return fmt.Sprintf("[%s] %s", w.Clause, w.Message)
}

// Report accumulates warnings across lexer, parser, validator and transformer
// stages for a single translation. It is not safe for concurrent use; each
// translation owns one Report.
type Report struct {
	warnings []Warning
}

func (r *Report) Warn(clause Clause, format string, args ...any) {
	r.warnings = append(r.warnings, Warning{Clause: clause, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) Warnings() []Warning {
	return r.warnings
}

// Strings renders all accumulated warnings for the entry point's result.
func (r *Report) Strings() []string {
	if len(r.warnings) == 0 {
		return nil
	}
	out := make([]string, len(r.warnings))
	for i, w := range r.warnings {
		out[i] = w.String()
	}
	return out
}

// Package translate wires the lexer, parser, validator and transformer
// into a single entry point: a URL in, a SQL Server SELECT plus its
// parameter table and warnings out.
package translate

import (
	"net/url"
	"strings"

	"github.com/imsquery/squerytranslate/internal/ast"
	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/lexer"
	"github.com/imsquery/squerytranslate/internal/parser"
	"github.com/imsquery/squerytranslate/internal/registry"
	"github.com/imsquery/squerytranslate/internal/transform"
	"github.com/imsquery/squerytranslate/internal/validator"
)

// Result is the entry point's output.
type Result struct {
	SQL        string
	Parameters map[string]any
	Warnings   []string
}

// Translate extracts the SQuery and root entity from rawURL, then
// runs them through lex → parse → validate → transform. A non-nil error
// is always a *diag.Error of Kind ParseError, ValidationError, or
// UnknownEntity.
func Translate(rawURL string, reg *registry.Registry) (Result, error) {
	squery, rootEntity, err := decodeURL(rawURL)
	if err != nil {
		return Result{}, err
	}
	return TranslateQuery(squery, rootEntity, reg)
}

// TranslateQuery runs the pipeline directly on an already-decoded
// SQuery string and root entity name, bypassing the URL preprocessor.
// Useful for callers that extracted those two values themselves.
func TranslateQuery(squery, rootEntity string, reg *registry.Registry) (Result, error) {
	report := &diag.Report{}

	tokens := lexer.Lex(squery, report)

	q, err := parser.Parse(tokens, report)
	if err != nil {
		return Result{Warnings: report.Strings()}, err
	}

	scope, err := validator.Validate(q, rootEntity, reg, report)
	if err != nil {
		return Result{Warnings: report.Strings()}, err
	}

	b, err := transform.Transform(q, rootEntity, scope, reg, report)
	if err != nil {
		return Result{Warnings: report.Strings()}, err
	}

	sql := b.Assemble()
	return Result{
		SQL:        sql,
		Parameters: toGoValues(b.Params()),
		Warnings:   report.Strings(),
	}, nil
}

// decodeURL extracts the decoded `squery` query parameter and the root
// entity from `QueryRootEntityType`, falling back to the last non-empty
// path segment. url.Values already decodes query parameters per
// application/x-www-form-urlencoded rules (space ↔ '+').
func decodeURL(rawURL string) (squery, rootEntity string, err error) {
	u, parseErr := url.Parse(rawURL)
	if parseErr != nil {
		return "", "", diag.NewParseError(0, "invalid URL: %s", parseErr)
	}
	values := u.Query()
	squery = values.Get("squery")
	rootEntity = values.Get("QueryRootEntityType")
	if rootEntity == "" {
		rootEntity = lastPathSegment(u.Path)
	}
	return squery, rootEntity, nil
}

func lastPathSegment(path string) string {
	segments := strings.Split(path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] != "" {
			return segments[i]
		}
	}
	return ""
}

// toGoValues converts the Builder's parameter table into plain Go
// values suitable for caller inspection.
func toGoValues(params map[string]ast.Value) map[string]any {
	out := make(map[string]any, len(params))
	for name, v := range params {
		out[name] = goValue(v)
	}
	return out
}

func goValue(v ast.Value) any {
	switch val := v.(type) {
	case ast.NullValue:
		return nil
	case ast.BoolValue:
		return bool(val)
	case ast.StrValue:
		return string(val)
	case ast.Number:
		if n, ok := val.Int64(); ok {
			return n
		}
		return val.String()
	case ast.ColumnRef:
		return ast.FieldRef(val).String()
	}
	return nil
}

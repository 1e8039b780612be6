// Package parser is a hand-written, non-backtracking recursive-descent
// parser for SQuery: consume tokens in order, fail fast and loudly on
// malformed input.
package parser

import (
	"strconv"
	"strings"

	"github.com/imsquery/squerytranslate/internal/ast"
	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/token"
)

// Parse consumes tokens and produces a Query AST. report collects
// non-fatal warnings (skipped keywords, tolerated missing parens); a
// returned error is always a *diag.Error of Kind ParseError.
func Parse(tokens []token.Token, report *diag.Report) (*ast.Query, error) {
	p := &parser{tokens: tokens, report: report}
	return p.parseQuery()
}

type parser struct {
	tokens []token.Token
	pos    int
	report *diag.Report
}

var topLevelKeywords = map[string]bool{
	"join": true, "top": true, "select": true, "where": true, "order": true,
}

func (p *parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF, Pos: p.endPos()}
	}
	return p.tokens[p.pos]
}

func (p *parser) endPos() int {
	if len(p.tokens) == 0 {
		return 0
	}
	last := p.tokens[len(p.tokens)-1]
	return last.Pos + len(last.Lexeme)
}

func (p *parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) isKeyword(kw string) bool {
	t := p.peek()
	return t.Kind == token.KEYWORD && strings.EqualFold(t.Lexeme, kw)
}

func (p *parser) expectKeyword(kw string) error {
	if !p.isKeyword(kw) {
		return diag.NewParseError(p.peek().Pos, "expected keyword %q, got %q", kw, p.peek().Lexeme)
	}
	p.advance()
	return nil
}

func (p *parser) parseQuery() (*ast.Query, error) {
	q := &ast.Query{}
	for !p.atEnd() {
		t := p.peek()
		if t.Kind != token.KEYWORD {
			return nil, diag.NewParseError(t.Pos, "expected a clause keyword, got %q", t.Lexeme)
		}
		kw := strings.ToLower(t.Lexeme)
		switch kw {
		case "join":
			j, err := p.parseJoin()
			if err != nil {
				return nil, err
			}
			q.Joins = append(q.Joins, j)
		case "top":
			n, err := p.parseTop()
			if err != nil {
				return nil, err
			}
			q.Top = n
		case "select":
			fields, err := p.parseSelect()
			if err != nil {
				return nil, err
			}
			q.Select = fields
		case "where":
			p.advance()
			expr, err := p.parseOr()
			if err != nil {
				return nil, err
			}
			q.Where = expr
		case "order":
			sorts, err := p.parseOrderBy()
			if err != nil {
				return nil, err
			}
			q.OrderBy = sorts
		default:
			p.report.Warn("", "skipping unexpected keyword %q at position %d", t.Lexeme, t.Pos)
			p.advance()
		}
	}
	return q, nil
}

// parseIdentPart accepts an IDENTIFIER or a KEYWORD token as one segment
// of a dotted identifier: field names like `Type` are keyword-shaped,
// and real-world paths lean on this for aliases too, so a keyword token
// is accepted uniformly.
func (p *parser) parseIdentPart() (token.Token, error) {
	t := p.peek()
	if t.Kind != token.IDENTIFIER && t.Kind != token.KEYWORD {
		return token.Token{}, diag.NewParseError(t.Pos, "expected an identifier, got %q", t.Lexeme)
	}
	p.advance()
	return t, nil
}

// parseDottedPath parses `id (DOT id)*` and returns its parts.
func (p *parser) parseDottedPath() ([]string, error) {
	first, err := p.parseIdentPart()
	if err != nil {
		return nil, err
	}
	parts := []string{first.Lexeme}
	for p.peek().Kind == token.DOT {
		p.advance()
		next, err := p.parseIdentPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, next.Lexeme)
	}
	return parts, nil
}

// parseFieldRef parses a dotted identifier into a FieldRef: `a.x` splits
// into Alias "a", Field "x"; a bare `x` leaves Alias empty and the root
// alias applies by default.
func (p *parser) parseFieldRef() (ast.FieldRef, error) {
	parts, err := p.parseDottedPath()
	if err != nil {
		return ast.FieldRef{}, err
	}
	if len(parts) == 1 {
		return ast.FieldRef{Field: parts[0]}, nil
	}
	return ast.FieldRef{Alias: parts[0], Field: strings.Join(parts[1:], ".")}, nil
}

// parseJoin parses `join EntityPath [of type TypeFilter] alias`.
func (p *parser) parseJoin() (ast.Join, error) {
	if err := p.expectKeyword("join"); err != nil {
		return ast.Join{}, err
	}
	pathParts, err := p.parseDottedPath()
	if err != nil {
		return ast.Join{}, err
	}

	var parentAlias, navPropRaw string
	switch len(pathParts) {
	case 1:
		navPropRaw = pathParts[0]
	default:
		parentAlias = pathParts[0]
		navPropRaw = strings.Join(pathParts[1:], ".")
	}
	navProp, typeSuffix := splitTypeSuffix(navPropRaw)

	var typeFilter string
	if p.isKeyword("of") {
		p.advance()
		if err := p.expectKeyword("type"); err != nil {
			return ast.Join{}, err
		}
		filterParts, err := p.parseDottedPath()
		if err != nil {
			return ast.Join{}, err
		}
		typeFilter = strings.Join(filterParts, ".")
	}

	aliasTok, err := p.parseIdentPart()
	if err != nil {
		return ast.Join{}, err
	}

	return ast.Join{
		ParentAlias: parentAlias,
		NavProp:     navProp,
		TypeSuffix:  typeSuffix,
		TypeFilter:  typeFilter,
		Alias:       aliasTok.Lexeme,
	}, nil
}

// splitTypeSuffix strips a `:TypeName` colon qualifier from a nav-prop
// name, as in the `Owner:Directory_FR_User` join path syntax.
func splitTypeSuffix(s string) (navProp, typeSuffix string) {
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		return s[:idx], s[idx+1:]
	}
	return s, ""
}

func (p *parser) parseTop() (int, error) {
	if err := p.expectKeyword("top"); err != nil {
		return 0, err
	}
	t := p.peek()
	if t.Kind != token.NUMBER {
		return 0, diag.NewParseError(t.Pos, "expected a number after 'top', got %q", t.Lexeme)
	}
	p.advance()
	n, err := strconv.Atoi(t.Lexeme)
	if err != nil {
		return 0, diag.NewParseError(t.Pos, "invalid top value %q", t.Lexeme)
	}
	return n, nil
}

// parseSelect parses `select field (, field)*`, tolerating a trailing
// comma before the next clause keyword.
func (p *parser) parseSelect() ([]ast.FieldRef, error) {
	if err := p.expectKeyword("select"); err != nil {
		return nil, err
	}
	var fields []ast.FieldRef
	field, err := p.parseFieldRef()
	if err != nil {
		return nil, err
	}
	fields = append(fields, field)

	for p.peek().Kind == token.COMMA {
		p.advance()
		if p.atEnd() || (p.peek().Kind == token.KEYWORD && topLevelKeywords[strings.ToLower(p.peek().Lexeme)]) {
			break // trailing comma before a clause keyword
		}
		field, err := p.parseFieldRef()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (p *parser) parseOrderBy() ([]ast.Sort, error) {
	if err := p.expectKeyword("order"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("by"); err != nil {
		return nil, err
	}
	var sorts []ast.Sort
	for {
		field, err := p.parseFieldRef()
		if err != nil {
			return nil, err
		}
		desc := false
		if p.isKeyword("asc") {
			p.advance()
		} else if p.isKeyword("desc") {
			p.advance()
			desc = true
		}
		sorts = append(sorts, ast.Sort{Field: field, Desc: desc})
		if p.peek().Kind != token.COMMA {
			break
		}
		p.advance()
	}
	return sorts, nil
}

// parseOr implements `or ::= and ('or' and)*`.
func (p *parser) parseOr() (ast.WhereExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = ast.Logical{Left: left, Op: ast.LogicalOr, Right: right}
	}
	return left, nil
}

// parseAnd implements `and ::= not ('and' not)*`.
func (p *parser) parseAnd() (ast.WhereExpr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = ast.Logical{Left: left, Op: ast.LogicalAnd, Right: right}
	}
	return left, nil
}

// parseNot implements `not ::= 'not' not | primary`.
func (p *parser) parseNot() (ast.WhereExpr, error) {
	if p.isKeyword("not") {
		p.advance()
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return ast.Not{Child: child}, nil
	}
	return p.parsePrimary()
}

// parsePrimary implements `primary ::= '(' or ')' | comparison`. A
// missing ')' is tolerated: it emits a warning and the current position
// is treated as the close.
func (p *parser) parsePrimary() (ast.WhereExpr, error) {
	if p.peek().Kind == token.LPAREN {
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind == token.RPAREN {
			p.advance()
		} else {
			p.report.Warn(diag.ClauseWhere, "missing ')' at position %d; treating current position as the close", p.peek().Pos)
		}
		return inner, nil
	}
	return p.parseComparison()
}

var compareOps = map[string]ast.Op{
	"=": ast.OpEq, "!=": ast.OpNeq, ">": ast.OpGt, ">=": ast.OpGte,
	"<": ast.OpLt, "<=": ast.OpLte, "%=": ast.OpLike, "%=%": ast.OpLikeBoth,
}

// parseComparison implements `comparison ::= dottedId OPERATOR value`.
func (p *parser) parseComparison() (ast.WhereExpr, error) {
	field, err := p.parseFieldRef()
	if err != nil {
		return nil, err
	}

	opTok := p.peek()
	if opTok.Kind != token.OPERATOR {
		return nil, diag.NewParseError(opTok.Pos, "expected a comparison operator, got %q", opTok.Lexeme)
	}
	op, ok := compareOps[opTok.Lexeme]
	if !ok {
		// Covers the reserved bare `!`: a stray `!` not followed by `=`
		// lexes as OPERATOR "!" but isn't a valid comparison operator.
		return nil, diag.NewParseError(opTok.Pos, "%q is not a valid comparison operator", opTok.Lexeme)
	}
	p.advance()

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return ast.Compare{Field: field, Op: op, Value: value}, nil
}

// parseValue implements `value ::= NUMBER | STRING | NULL | BOOLEAN | identifier`.
func (p *parser) parseValue() (ast.Value, error) {
	t := p.peek()
	switch t.Kind {
	case token.NUMBER:
		p.advance()
		n, err := ast.ParseNumber(t.Lexeme)
		if err != nil {
			return nil, diag.NewParseError(t.Pos, "%s", err)
		}
		return n, nil
	case token.STRING:
		p.advance()
		return ast.StrValue(t.Lexeme), nil
	case token.NULL:
		p.advance()
		return ast.NullValue{}, nil
	case token.BOOLEAN:
		p.advance()
		return ast.BoolValue(strings.EqualFold(t.Lexeme, "true")), nil
	case token.IDENTIFIER, token.KEYWORD:
		field, err := p.parseFieldRef()
		if err != nil {
			return nil, err
		}
		return ast.ColumnRef(field), nil
	}
	return nil, diag.NewParseError(t.Pos, "expected a WHERE value, got %q", t.Lexeme)
}

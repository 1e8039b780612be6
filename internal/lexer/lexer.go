// Package lexer turns a decoded SQuery string into a token stream. It
// never fails outright: unrecognized glyphs are skipped with a warning.
package lexer

import (
	"strings"

	"github.com/imsquery/squerytranslate/internal/diag"
	"github.com/imsquery/squerytranslate/internal/token"
)

// Lex scans the full input and returns its token stream. Warnings for
// unrecognized characters are appended to report.
func Lex(src string, report *diag.Report) []token.Token {
	l := &lexer{src: src, report: report}
	return l.run()
}

type lexer struct {
	src    string
	pos    int
	report *diag.Report
}

func (l *lexer) run() []token.Token {
	var out []token.Token
	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			break
		}
		tok, ok := l.next()
		if ok {
			out = append(out, tok)
		}
	}
	return out
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentBody(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == ':'
}

// next consumes and returns the next token starting at l.pos. ok is false
// only when the character was unrecognized and has been skipped.
func (l *lexer) next() (token.Token, bool) {
	start := l.pos
	c := l.src[start]

	switch {
	case c == '(':
		l.pos++
		return token.Token{Kind: token.LPAREN, Lexeme: "(", Pos: start}, true
	case c == ')':
		l.pos++
		return token.Token{Kind: token.RPAREN, Lexeme: ")", Pos: start}, true
	case c == ',':
		l.pos++
		return token.Token{Kind: token.COMMA, Lexeme: ",", Pos: start}, true
	case c == '.':
		l.pos++
		return token.Token{Kind: token.DOT, Lexeme: ".", Pos: start}, true
	case c == '\'' || c == '"':
		return l.lexString(c), true
	case c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
		return l.lexNumber(), true
	case isDigit(c):
		return l.lexNumber(), true
	case isIdentStart(c):
		return l.lexIdentOrKeyword(), true
	default:
		return l.lexOperator()
	}
}

func (l *lexer) lexString(quote byte) token.Token {
	start := l.pos
	l.pos++ // skip opening quote
	for l.pos < len(l.src) && l.src[l.pos] != quote {
		l.pos++
	}
	lexeme := l.src[start+1 : min(l.pos, len(l.src))]
	if l.pos < len(l.src) {
		l.pos++ // skip closing quote
	}
	return token.Token{Kind: token.STRING, Lexeme: lexeme, Pos: start}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (l *lexer) lexNumber() token.Token {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.pos++
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos < len(l.src) && l.src[l.pos] == '.' {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: l.src[start:l.pos], Pos: start}
}

func (l *lexer) lexIdentOrKeyword() token.Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentBody(l.src[l.pos]) {
		l.pos++
	}
	lexeme := l.src[start:l.pos]
	lower := strings.ToLower(lexeme)
	switch lower {
	case "null":
		return token.Token{Kind: token.NULL, Lexeme: lexeme, Pos: start}
	case "true", "false":
		return token.Token{Kind: token.BOOLEAN, Lexeme: lower, Pos: start}
	}
	if token.Keywords[lower] {
		// Keep the author's casing: keyword matching is case-insensitive,
		// but a keyword-shaped token can still end up as a field name part
		// (e.g. `Type`), and column names are case-sensitive.
		return token.Token{Kind: token.KEYWORD, Lexeme: lexeme, Pos: start}
	}
	return token.Token{Kind: token.IDENTIFIER, Lexeme: lexeme, Pos: start}
}

// lexOperator handles the greedy-longest-match operator set:
// three-char %=%; two-char != >= <= %=; single-char ( ) , . = > < %.
// Parens/comma/dot are already handled in next(); this covers the rest,
// plus the reserved bare `!` and an unknown-glyph skip.
func (l *lexer) lexOperator() (token.Token, bool) {
	start := l.pos
	rest := l.src[l.pos:]

	for _, op := range []string{"%=%", "!=", ">=", "<=", "%="} {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			return token.Token{Kind: token.OPERATOR, Lexeme: op, Pos: start}, true
		}
	}

	c := l.src[l.pos]
	switch c {
	case '=', '>', '<', '%', '!':
		l.pos++
		return token.Token{Kind: token.OPERATOR, Lexeme: string(c), Pos: start}, true
	}

	// Unknown glyph: skip with a warning, never fail the lexer.
	l.pos++
	l.report.Warn("", "lexer: skipping unrecognized character %q at position %d", string(c), start)
	return token.Token{}, false
}

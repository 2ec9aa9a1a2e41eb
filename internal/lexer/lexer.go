// Package lexer turns source characters into tokens tagged with source
// locations. The lexer never fails: any byte it cannot otherwise classify
// becomes a CHAR token.
package lexer

import (
	"strconv"
	"strings"

	"kaleidoscope-compiler/internal/source"
	"kaleidoscope-compiler/internal/token"
)

// Lexer produces tokens from a pushback source.Reader.
type Lexer struct {
	r *source.Reader
}

// New constructs a Lexer reading from r.
func New(r *source.Reader) *Lexer {
	return &Lexer{r: r}
}

func isAlpha(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isAlnum(c byte) bool {
	return isAlpha(c) || c >= '0' && c <= '9'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// Next returns the next token. The returned token's Loc is the position of
// its first character. Calling Next again after EOF keeps returning EOF.
func (l *Lexer) Next() token.Token {
	for {
		for !l.r.AtEOF() && isSpace(l.r.Peek()) {
			l.r.Advance()
		}

		if l.r.AtEOF() {
			return token.Token{Kind: token.EOF, Loc: l.r.Location()}
		}

		if l.r.Peek() == '#' {
			for !l.r.AtEOF() && l.r.Peek() != '\n' && l.r.Peek() != '\r' {
				l.r.Advance()
			}
			continue
		}

		break
	}

	loc := l.r.Location()
	c := l.r.Peek()

	if isAlpha(c) {
		var sb strings.Builder
		for !l.r.AtEOF() && isAlnum(l.r.Peek()) {
			sb.WriteByte(l.r.Advance())
		}
		word := sb.String()
		if kind, ok := token.Keywords[word]; ok {
			return token.Token{Kind: kind, Loc: loc}
		}
		return token.Token{Kind: token.IDENT, Text: word, Loc: loc}
	}

	if isDigit(c) || c == '.' {
		var sb strings.Builder
		for !l.r.AtEOF() && (isDigit(l.r.Peek()) || l.r.Peek() == '.') {
			sb.WriteByte(l.r.Advance())
		}
		return token.Token{Kind: token.NUMBER, Number: parseNumber(sb.String()), Loc: loc}
	}

	l.r.Advance()
	return token.Token{Kind: token.CHAR, Char: c, Loc: loc}
}

// parseNumber implements a "reads a prefix and silently stops"
// numeric-literal rule for runs that contain more than one '.': strconv's
// ParseFloat rejects a second '.' outright, so we trim the scanned run to
// its first well-formed float prefix (digits, an optional single '.', more
// digits) before parsing, rather than diagnosing the extra dots.
func parseNumber(raw string) float64 {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return v
	}
	dot := strings.IndexByte(raw, '.')
	if dot < 0 {
		return 0
	}
	second := strings.IndexByte(raw[dot+1:], '.')
	if second < 0 {
		return 0
	}
	prefix := raw[:dot+1+second]
	v, _ := strconv.ParseFloat(prefix, 64)
	return v
}

// Package parser implements a precedence-climbing recursive-descent
// parser: single-token lookahead, left-associative infix operators
// resolved against a shared precedence.Table, and synchronize-on-error
// recovery at top-level-form granularity.
package parser

import (
	"fmt"

	"kaleidoscope-compiler/internal/ast"
	"kaleidoscope-compiler/internal/diag"
	"kaleidoscope-compiler/internal/lexer"
	"kaleidoscope-compiler/internal/precedence"
	"kaleidoscope-compiler/internal/token"
)

// Parser consumes tokens from a Lexer and builds AST nodes according to
// the language grammar.
type Parser struct {
	lex     *lexer.Lexer
	prec    *precedence.Table
	cur     token.Token
	anonSeq int
}

// New constructs a Parser reading from lex, consulting the shared
// precedence table prec for infix-operator recognition.
func New(lex *lexer.Lexer, prec *precedence.Table) *Parser {
	p := &Parser{lex: lex, prec: prec}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.lex.Next()
}

// AtEOF reports whether the parser has consumed every token.
func (p *Parser) AtEOF() bool {
	return p.cur.Kind == token.EOF
}

// parseError is a ParseError carrying the offending token's location.
func (p *Parser) parseError(format string, args ...any) error {
	return diag.NewError(diag.KindParseError, p.cur.Loc, format, args...)
}

// Synchronize discards the current token so the Driver's loop can retry
// parsing at the next top-level form after a parse error. A `def` or
// `extern` token is kept, since it already begins the next top-level form
// (ParseTopLevel consumes it, so the loop still makes progress).
func (p *Parser) Synchronize() {
	if !p.AtEOF() && p.cur.Kind != token.DEF && p.cur.Kind != token.EXTERN {
		p.advance()
	}
}

// ParseTopLevel parses one `toplevel := ';' | definition | extern |
// topExpr` form. It silently consumes any number of leading `;` tokens.
// At EOF it returns (nil, false, nil). On a parse error it returns (nil,
// false, err); the caller is expected to call Synchronize and retry.
func (p *Parser) ParseTopLevel() (ast.TopLevel, bool, error) {
	for p.cur.IsChar(';') {
		p.advance()
	}
	if p.AtEOF() {
		return nil, false, nil
	}

	switch p.cur.Kind {
	case token.DEF:
		fn, err := p.parseDefinition()
		if err != nil {
			return nil, false, err
		}
		return ast.TopDefinition{Fn: fn}, true, nil
	case token.EXTERN:
		proto, err := p.parseExtern()
		if err != nil {
			return nil, false, err
		}
		return ast.TopExtern{Proto: proto}, true, nil
	default:
		expr, err := p.parseExpression()
		if err != nil {
			return nil, false, err
		}
		p.anonSeq++
		proto := ast.Prototype{
			Name: fmt.Sprintf("__anon_expr%d", p.anonSeq),
			Kind: ast.KindFunction,
			Loc:  expr.Location(),
		}
		return ast.TopExpr{Fn: ast.Function{Proto: proto, Body: expr, Loc: expr.Location()}}, true, nil
	}
}

func (p *Parser) parseDefinition() (ast.Function, error) {
	loc := p.cur.Loc
	p.advance() // eat 'def'
	proto, err := p.parsePrototype()
	if err != nil {
		return ast.Function{}, err
	}
	body, err := p.parseExpression()
	if err != nil {
		return ast.Function{}, err
	}
	return ast.Function{Proto: proto, Body: body, Loc: loc}, nil
}

func (p *Parser) parseExtern() (ast.Prototype, error) {
	p.advance() // eat 'extern'
	return p.parsePrototype()
}

// prototype := ident '(' ident* ')'
//            | 'unary'  op '(' ident ')'
//            | 'binary' op number? '(' ident ident ')'
func (p *Parser) parsePrototype() (ast.Prototype, error) {
	loc := p.cur.Loc
	var name string
	kind := ast.KindFunction
	precedenceVal := 30

	switch p.cur.Kind {
	case token.IDENT:
		name = p.cur.Text
		p.advance()
	case token.UNARY:
		p.advance()
		if p.cur.Kind != token.CHAR {
			return ast.Prototype{}, p.parseError("expected unary operator")
		}
		name = "unary" + string(p.cur.Char)
		kind = ast.KindUnaryOp
		p.advance()
	case token.BINARY:
		p.advance()
		if p.cur.Kind != token.CHAR {
			return ast.Prototype{}, p.parseError("expected binary operator")
		}
		name = "binary" + string(p.cur.Char)
		kind = ast.KindBinaryOp
		p.advance()
		if p.cur.Kind == token.NUMBER {
			if p.cur.Number < 1 || p.cur.Number > 100 {
				return ast.Prototype{}, p.parseError("invalid precedence: must be between 1 and 100")
			}
			precedenceVal = int(p.cur.Number)
			p.advance()
		}
	default:
		return ast.Prototype{}, p.parseError("expected function name in prototype")
	}

	if !p.cur.IsChar('(') {
		return ast.Prototype{}, p.parseError("expected '(' in prototype")
	}
	p.advance()

	var params []string
	for p.cur.Kind == token.IDENT {
		params = append(params, p.cur.Text)
		p.advance()
	}
	if !p.cur.IsChar(')') {
		return ast.Prototype{}, p.parseError("expected ')' in prototype")
	}
	p.advance()

	want := 0
	switch kind {
	case ast.KindUnaryOp:
		want = 1
	case ast.KindBinaryOp:
		want = 2
	}
	if kind != ast.KindFunction && len(params) != want {
		return ast.Prototype{}, p.parseError("invalid number of operands for operator")
	}

	return ast.Prototype{Name: name, Params: params, Kind: kind, Precedence: precedenceVal, Loc: loc}, nil
}

// expression := unary (binop unary)*
func (p *Parser) parseExpression() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(0, lhs)
}

func (p *Parser) tokPrecedence() (int, bool) {
	if p.cur.Kind != token.CHAR {
		return 0, false
	}
	return p.prec.Lookup(p.cur.Char)
}

func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		tokPrec, ok := p.tokPrecedence()
		if !ok || tokPrec < minPrec {
			return lhs, nil
		}

		op := p.cur.Char
		opLoc := p.cur.Loc
		p.advance()

		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		nextPrec, nextOk := p.tokPrecedence()
		if nextOk && tokPrec < nextPrec {
			rhs, err = p.parseBinOpRHS(tokPrec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = ast.Binary{Op: op, LHS: lhs, RHS: rhs, Loc: opLoc}
	}
}

// unary := primary | op unary
func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.cur.Kind != token.CHAR || p.cur.IsChar('(') || p.cur.IsChar(',') {
		return p.parsePrimary()
	}
	op := p.cur.Char
	loc := p.cur.Loc
	p.advance()
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return ast.Unary{Op: op, Operand: operand, Loc: loc}, nil
}

// primary := number | ident | ident '(' args? ')' | '(' expression ')'
//          | ifexpr | forexpr | varexpr
func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch {
	case p.cur.Kind == token.IDENT:
		return p.parseIdentifier()
	case p.cur.Kind == token.NUMBER:
		return p.parseNumber()
	case p.cur.IsChar('('):
		return p.parseParen()
	case p.cur.Kind == token.IF:
		return p.parseIf()
	case p.cur.Kind == token.FOR:
		return p.parseFor()
	case p.cur.Kind == token.VAR:
		return p.parseVarIn()
	default:
		return nil, p.parseError("unknown token when expecting an expression")
	}
}

func (p *Parser) parseNumber() (ast.Expr, error) {
	n := ast.Number{Value: p.cur.Number, Loc: p.cur.Loc}
	p.advance()
	return n, nil
}

func (p *Parser) parseParen() (ast.Expr, error) {
	p.advance() // eat '('
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.cur.IsChar(')') {
		return nil, p.parseError("expected ')'")
	}
	p.advance()
	return e, nil
}

func (p *Parser) parseIdentifier() (ast.Expr, error) {
	loc := p.cur.Loc
	name := p.cur.Text
	p.advance()
	if !p.cur.IsChar('(') {
		return ast.Variable{Name: name, Loc: loc}, nil
	}
	p.advance() // eat '('
	var args []ast.Expr
	if !p.cur.IsChar(')') {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.cur.IsChar(')') {
				break
			}
			if !p.cur.IsChar(',') {
				return nil, p.parseError("expected ')' or ',' in argument list")
			}
			p.advance()
		}
	}
	p.advance() // eat ')'
	return ast.Call{Callee: name, Args: args, Loc: loc}, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	loc := p.cur.Loc
	p.advance() // eat 'if'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.THEN {
		return nil, p.parseError("expected 'then'")
	}
	p.advance()
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != token.ELSE {
		return nil, p.parseError("expected 'else'")
	}
	p.advance()
	els, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.If{Cond: cond, Then: then, Else: els, Loc: loc}, nil
}

func (p *Parser) parseFor() (ast.Expr, error) {
	loc := p.cur.Loc
	p.advance() // eat 'for'
	if p.cur.Kind != token.IDENT {
		return nil, p.parseError("expected identifier after 'for'")
	}
	name := p.cur.Text
	p.advance()
	if !p.cur.IsChar('=') {
		return nil, p.parseError("expected '=' after identifier")
	}
	p.advance()
	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.cur.IsChar(',') {
		return nil, p.parseError("expected ',' after start value")
	}
	p.advance()
	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	var step ast.Expr
	if p.cur.IsChar(',') {
		p.advance()
		step, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if p.cur.Kind != token.IN {
		return nil, p.parseError("expected 'in' after 'for'")
	}
	p.advance()
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.For{Var: name, Start: start, End: end, Step: step, Body: body, Loc: loc}, nil
}

func (p *Parser) parseVarIn() (ast.Expr, error) {
	loc := p.cur.Loc
	p.advance() // eat 'var'
	if p.cur.Kind != token.IDENT {
		return nil, p.parseError("expected identifier after 'var'")
	}
	var bindings []ast.Binding
	for {
		name := p.cur.Text
		p.advance()
		var init ast.Expr
		if p.cur.IsChar('=') {
			p.advance()
			var err error
			init, err = p.parseExpression()
			if err != nil {
				return nil, err
			}
		}
		bindings = append(bindings, ast.Binding{Name: name, Init: init})
		if !p.cur.IsChar(',') {
			break
		}
		p.advance()
		if p.cur.Kind != token.IDENT {
			return nil, p.parseError("expected identifier list after 'var'")
		}
	}
	if p.cur.Kind != token.IN {
		return nil, p.parseError("expected 'in' keyword after 'var'")
	}
	p.advance()
	body, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return ast.VarIn{Bindings: bindings, Body: body, Loc: loc}, nil
}

package frontend

import (
	"strconv"

	"github.com/dekarrin/nedsa/internal/ast"
)

// Parse reads nedsascript source text and returns its AST. filename is used
// only for error messages and may be empty.
func Parse(src string, filename string) (*ast.Program, error) {
	p := &parser{lex: newLexer(src, filename), filename: filename}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

type parser struct {
	lex      *lexer
	cur      token
	filename string
}

func (p *parser) advance() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.cur = t
	return nil
}

func (p *parser) errorf(format string, args ...interface{}) *SyntaxError {
	return p.lex.errorf(p.cur.line, p.cur.col, format, args...)
}

func (p *parser) expect(k tokenKind, what string) (token, error) {
	if p.cur.kind != k {
		return token{}, p.errorf("expected %s, got %q", what, p.cur.text)
	}
	t := p.cur
	if err := p.advance(); err != nil {
		return token{}, err
	}
	return t, nil
}

func (p *parser) isKeyword(name string) bool {
	return p.cur.kind == tokName && p.cur.text == name
}

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.cur.kind != tokEOF {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		prog.Items = append(prog.Items, item)
	}
	return prog, nil
}

// parseItem parses one top-level item: a variable declaration, a label
// (with or without a following brace block), or a bare code block. A bare
// code block is either a brace block or a run of unbraced statements that
// each start with a statement keyword (pass, push, move, halt, goto, ifread,
// if); an unbraced assignment at top level is not recognized, and unbraced
// statements after a label form their own CodeBlock rather than the label's
// body.
func (p *parser) parseItem() (ast.Item, error) {
	if p.isKeyword("var") {
		return p.parseVarDecl()
	}
	if p.cur.kind == tokLBrace {
		body, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		return &ast.CodeBlock{Body: body}, nil
	}
	var bare []ast.Statement
	for p.isKeyword("pass") || p.isKeyword("push") || p.isKeyword("move") || p.isKeyword("halt") ||
		p.isKeyword("goto") || p.isKeyword("ifread") || p.isKeyword("if") {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		bare = append(bare, s)
	}
	if len(bare) > 0 {
		return &ast.CodeBlock{Body: bare}, nil
	}
	if p.cur.kind == tokName {
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokColon, "':'"); err != nil {
			return nil, err
		}
		if p.cur.kind == tokLBrace {
			body, err := p.parseBraceBlock()
			if err != nil {
				return nil, err
			}
			return &ast.LabelledBlock{Label: name, Body: body}, nil
		}
		return &ast.Label{Name: name}, nil
	}
	return nil, p.errorf("expected variable declaration, label, or code block, got %q", p.cur.text)
}

func (p *parser) parseVarDecl() (*ast.VarDecl, error) {
	if err := p.advance(); err != nil { // consume "var"
		return nil, err
	}
	nameTok, err := p.expect(tokName, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokAssign, "':='"); err != nil {
		return nil, err
	}
	initTok, err := p.expect(tokNumber, "initial value")
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("max") {
		return nil, p.errorf("expected 'max', got %q", p.cur.text)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	maxTok, err := p.expect(tokNumber, "maximum value")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokSemicolon, "';'"); err != nil {
		return nil, err
	}

	init, _ := strconv.Atoi(initTok.text)
	max, _ := strconv.Atoi(maxTok.text)
	return &ast.VarDecl{Name: nameTok.text, Initial: init, Maximum: max}, nil
}

func (p *parser) parseBraceBlock() ([]ast.Statement, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}
	var stmts []ast.Statement
	for p.cur.kind != tokRBrace {
		if p.cur.kind == tokEOF {
			return nil, p.errorf("unexpected end of input, expected '}'")
		}
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	if p.isKeyword("var") {
		decl, err := p.parseVarDecl()
		if err != nil {
			return nil, err
		}
		return nil, p.errorf("variable declaration %q not allowed inside a code block", decl.Name)
	}
	if p.isKeyword("pass") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.Pass{}, nil
	}
	if p.isKeyword("push") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		sym, err := p.expect(tokName, "symbol name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.Push{Symbol: sym.text}, nil
	}
	if p.isKeyword("move") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var dir ast.Direction
		switch {
		case p.isKeyword("UP") || p.isKeyword("up"):
			dir = ast.Up
		case p.isKeyword("DOWN") || p.isKeyword("down"):
			dir = ast.Down
		default:
			return nil, p.errorf("expected 'UP' or 'DOWN', got %q", p.cur.text)
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.Move{Dir: dir}, nil
	}
	if p.isKeyword("halt") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		lbl, err := p.expect(tokName, "label name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.Halt{Label: lbl.text}, nil
	}
	if p.isKeyword("goto") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		lbl, err := p.expect(tokName, "label name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.Goto{Label: lbl.text}, nil
	}
	if p.isKeyword("ifread") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		sym, err := p.expect(tokName, "symbol name")
		if err != nil {
			return nil, err
		}
		body, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		return &ast.IfRead{Symbol: sym.text, Body: body}, nil
	}
	if p.isKeyword("if") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		left, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		cmp, err := p.parseComparator()
		if err != nil {
			return nil, err
		}
		right, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBraceBlock()
		if err != nil {
			return nil, err
		}
		return &ast.IfComparison{Left: left, Cmp: cmp, Right: right, Body: body}, nil
	}
	if p.cur.kind == tokName {
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(tokAssign, "':='"); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokSemicolon, "';'"); err != nil {
			return nil, err
		}
		return &ast.VarAssignment{Name: name, Expr: expr}, nil
	}

	return nil, p.errorf("expected a statement, got %q", p.cur.text)
}

func (p *parser) parseComparator() (ast.Comparator, error) {
	switch p.cur.kind {
	case tokEq:
		return ast.CmpEqual, p.advance()
	case tokNeq:
		return ast.CmpNotEqual, p.advance()
	case tokLt:
		return ast.CmpLess, p.advance()
	case tokGt:
		return ast.CmpGreater, p.advance()
	case tokLeq:
		return ast.CmpLessEqual, p.advance()
	case tokGeq:
		return ast.CmpGreaterEqual, p.advance()
	default:
		return 0, p.errorf("expected a comparison operator, got %q", p.cur.text)
	}
}

// parseExpr parses an additive expression: term (('+'|'-') term)*
func (p *parser) parseExpr() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := ast.OpAdd
		if p.cur.kind == tokMinus {
			op = ast.OpSub
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOpExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

// parseTerm parses a multiplicative expression: factor (('*'|'/') factor)*
func (p *parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.cur.kind == tokStar || p.cur.kind == tokSlash {
		op := ast.OpMul
		if p.cur.kind == tokSlash {
			op = ast.OpDiv
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOpExpr{Left: left, Op: op, Right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (ast.Expr, error) {
	switch p.cur.kind {
	case tokNumber:
		v, _ := strconv.Atoi(p.cur.text)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NumberExpr{Value: v}, nil
	case tokName:
		name := p.cur.text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NameExpr{Name: name}, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf("expected a number, variable, or '(', got %q", p.cur.text)
	}
}

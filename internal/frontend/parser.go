package frontend

import (
	"github.com/pkg/errors"
)

// parser is a recursive-descent parser over a flat token slice, in the
// idiom of the original grammar this language was distilled from: a
// precedence-climbing expression parser (assign -> equality -> relational
// -> add -> mul -> unary -> primary) feeding a small statement dispatcher.
type parser struct {
	src  string
	toks []Token
	pos  int

	// declared tracks function names seen so far, so a call to an
	// undeclared function is a parse-time error (functions must be
	// declared before use, matching spec.md §7's "unresolvable call" rule
	// being enforced as early as possible).
	declared map[string]bool
}

// Parse lexes and parses src into a Program. Errors are wrapped with the
// caret-marked source position of the offending token.
func Parse(src string) (*Program, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks, declared: map[string]bool{}}
	return p.program()
}

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) atEOF() bool { return p.cur().Kind == EOF }

func (p *parser) errorAt(tok Token, format string, args ...interface{}) error {
	msg := caretMessage(p.src, tok.Line, tok.Col)
	return errors.Wrap(errors.Errorf(format, args...), msg)
}

func (p *parser) consumePunct(lit string) bool {
	if p.cur().Kind == Punct && p.cur().Lit == lit {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectPunct(lit string) error {
	if !p.consumePunct(lit) {
		return p.errorAt(p.cur(), "expected %q, got %s", lit, p.cur())
	}
	return nil
}

func (p *parser) expectIdent() (string, error) {
	if p.cur().Kind != Ident {
		return "", p.errorAt(p.cur(), "expected identifier, got %s", p.cur())
	}
	name := p.cur().Lit
	p.pos++
	return name, nil
}

// program = funcDecl*
func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for !p.atEOF() {
		before := p.pos
		fn, err := p.funcDecl()
		if err != nil {
			return nil, err
		}
		prog.Funcs = append(prog.Funcs, fn)
		if p.pos == before {
			// Defensive self-check named by spec.md §7: a stuck parser
			// must abort rather than spin.
			return nil, p.errorAt(p.cur(), "parser stuck at token %s", p.cur())
		}
	}
	return prog, nil
}

// funcDecl = ident "(" paramList? ")" block
func (p *parser) funcDecl() (*FuncDecl, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if p.declared[name] {
		return nil, p.errorAt(p.cur(), "function %q already defined", name)
	}
	p.declared[name] = true

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []Param
	if !p.consumePunct(")") {
		for {
			pname, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			params = append(params, Param{Name: pname})
			if p.consumePunct(",") {
				continue
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			break
		}
	}

	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{Name: name, Params: params, Body: body}, nil
}

// block = "{" stmt* "}"
func (p *parser) block() (*BlockStmt, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	b := &BlockStmt{}
	for !p.consumePunct("}") {
		if p.atEOF() {
			return nil, p.errorAt(p.cur(), "unexpected end of input, expected %q", "}")
		}
		before := p.pos
		s, err := p.stmt()
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, s)
		if p.pos == before {
			return nil, p.errorAt(p.cur(), "parser stuck at token %s", p.cur())
		}
	}
	return b, nil
}

// stmt = "int" "*"? ident ";"
//      | "return" expr ";"
//      | "if" "(" expr ")" stmt ("else" stmt)?
//      | "while" "(" expr ")" stmt
//      | "for" "(" exprStmt? ";" expr? ";" expr? ")" stmt
//      | block
//      | expr ";"
func (p *parser) stmt() (Stmt, error) {
	switch {
	case p.cur().Kind == KeywordInt:
		return p.varDecl()
	case p.cur().Kind == KeywordReturn:
		p.pos++
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return &ReturnStmt{X: x}, nil
	case p.cur().Kind == KeywordIf:
		return p.ifStmt()
	case p.cur().Kind == KeywordWhile:
		return p.whileStmt()
	case p.cur().Kind == KeywordFor:
		return p.forStmt()
	case p.cur().Kind == Punct && p.cur().Lit == "{":
		return p.block()
	default:
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		return &ExprStmt{X: x}, nil
	}
}

func (p *parser) varDecl() (Stmt, error) {
	p.pos++ // consume "int"
	isPtr := p.consumePunct("*")
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	return &VarDeclStmt{Name: name, IsPtr: isPtr}, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	p.pos++
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	then, err := p.stmt()
	if err != nil {
		return nil, err
	}
	var els Stmt
	if p.cur().Kind == KeywordElse {
		p.pos++
		els, err = p.stmt()
		if err != nil {
			return nil, err
		}
	}
	return &IfStmt{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	p.pos++
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	cond, err := p.expr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	body, err := p.stmt()
	if err != nil {
		return nil, err
	}
	return &WhileStmt{Cond: cond, Body: body}, nil
}

func (p *parser) forStmt() (Stmt, error) {
	p.pos++
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var init Stmt
	if !p.consumePunct(";") {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(";"); err != nil {
			return nil, err
		}
		init = &ExprStmt{X: x}
	}

	var cond Expr
	if p.cur().Kind != Punct || p.cur().Lit != ";" {
		var err error
		cond, err = p.expr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(";"); err != nil {
		return nil, err
	}

	var update Expr
	if p.cur().Kind != Punct || p.cur().Lit != ")" {
		var err error
		update, err = p.expr()
		if err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	body, err := p.stmt()
	if err != nil {
		return nil, err
	}
	return &ForStmt{Init: init, Cond: cond, Update: update, Body: body}, nil
}

// expr = assign
func (p *parser) expr() (Expr, error) { return p.assign() }

// assign = equality ("=" assign)?  (right associative)
func (p *parser) assign() (Expr, error) {
	tok := p.cur()
	lhs, err := p.equality()
	if err != nil {
		return nil, err
	}
	if p.consumePunct("=") {
		switch lhs.(type) {
		case *VarExpr, *DerefExpr:
		default:
			return nil, p.errorAt(tok, "left-hand side of assignment is not assignable")
		}
		rhs, err := p.assign()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{LHS: lhs, RHS: rhs}, nil
	}
	return lhs, nil
}

// equality = relational (("==" | "!=") relational)*
func (p *parser) equality() (Expr, error) {
	node, err := p.relational()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consumePunct("=="):
			rhs, err := p.relational()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Eq, L: node, R: rhs}
		case p.consumePunct("!="):
			rhs, err := p.relational()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Ne, L: node, R: rhs}
		default:
			return node, nil
		}
	}
}

// relational = add (("<" | "<=" | ">" | ">=") add)*
//
// spec.md's BinOp enumeration has no Gt/Ge: a ">" or ">=" comparison is
// folded into Lt/Le with its operands swapped, exactly as the original
// grammar this language was distilled from does.
func (p *parser) relational() (Expr, error) {
	node, err := p.add()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consumePunct("<="):
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Le, L: node, R: rhs}
		case p.consumePunct("<"):
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Lt, L: node, R: rhs}
		case p.consumePunct(">="):
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Le, L: rhs, R: node}
		case p.consumePunct(">"):
			rhs, err := p.add()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Lt, L: rhs, R: node}
		default:
			return node, nil
		}
	}
}

// add = mul (("+" | "-") mul)*
func (p *parser) add() (Expr, error) {
	node, err := p.mul()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consumePunct("+"):
			rhs, err := p.mul()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Add, L: node, R: rhs}
		case p.consumePunct("-"):
			rhs, err := p.mul()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Sub, L: node, R: rhs}
		default:
			return node, nil
		}
	}
}

// mul = unary (("*" | "/") unary)*
func (p *parser) mul() (Expr, error) {
	node, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.consumePunct("*"):
			rhs, err := p.unary()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Mul, L: node, R: rhs}
		case p.consumePunct("/"):
			rhs, err := p.unary()
			if err != nil {
				return nil, err
			}
			node = &BinaryExpr{Op: Div, L: node, R: rhs}
		default:
			return node, nil
		}
	}
}

// unary = "+" primary | "-" primary | "&" unary | "*" unary | primary
func (p *parser) unary() (Expr, error) {
	switch {
	case p.consumePunct("+"):
		return p.primary()
	case p.consumePunct("-"):
		x, err := p.primary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: Sub, L: &NumExpr{Value: 0}, R: x}, nil
	case p.consumePunct("&"):
		tok := p.cur()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		if _, ok := x.(*VarExpr); !ok {
			return nil, p.errorAt(tok, "cannot take the address of this expression")
		}
		return &AddrExpr{X: x}, nil
	case p.consumePunct("*"):
		tok := p.cur()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		switch x.(type) {
		case *VarExpr, *DerefExpr:
			return &DerefExpr{X: x}, nil
		default:
			return nil, p.errorAt(tok, "cannot dereference this expression")
		}
	default:
		return p.primary()
	}
}

// primary = num | ident ("(" args ")")? | "(" expr ")"
func (p *parser) primary() (Expr, error) {
	tok := p.cur()

	if p.consumePunct("(") {
		x, err := p.expr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return x, nil
	}

	if tok.Kind == Ident {
		p.pos++
		if p.consumePunct("(") {
			if !p.declared[tok.Lit] {
				return nil, p.errorAt(tok, "call to undeclared function %q", tok.Lit)
			}
			args, err := p.args()
			if err != nil {
				return nil, err
			}
			return &CallExpr{Name: tok.Lit, Args: args}, nil
		}
		return &VarExpr{Name: tok.Lit}, nil
	}

	if tok.Kind == Num {
		p.pos++
		return &NumExpr{Value: tok.Num}, nil
	}

	return nil, p.errorAt(tok, "unexpected token %s", tok)
}

// args = (expr ("," expr)*)? ")"
func (p *parser) args() ([]Expr, error) {
	var args []Expr
	if p.consumePunct(")") {
		return args, nil
	}
	for {
		a, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.consumePunct(",") {
			continue
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

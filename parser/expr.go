package parser

import (
	"strconv"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/lexer"
)

// builtinNames is the fixed intrinsic set, enough to disambiguate a bare
// builtin name used without parens from a variable reference at parse
// time (e.g. "length" with no args means length($0)).
var builtinNames = map[string]bool{
	"length": true, "substr": true, "index": true, "split": true,
	"sprintf": true, "match": true, "sub": true, "gsub": true,
	"toupper": true, "tolower": true, "gensub": true,
	"int": true, "sin": true, "cos": true, "atan2": true, "exp": true,
	"log": true, "sqrt": true, "rand": true, "srand": true,
	"close": true, "fflush": true, "system": true,
}

func (p *Parser) enterExpr(pos ast.Pos) {
	p.exprDepth++
	if p.exprDepth > p.maxExprDepth {
		p.errorf(pos, "expression nesting exceeds maximum depth")
	}
}
func (p *Parser) leaveExpr() { p.exprDepth-- }

// parseExpr parses a full expression, including top-level assignment and
// the comma-free ternary/binary chain. noIn suppresses treating `in` as a
// binary operator (for-loop headers use this to let the classic
// "for (k in a)" form parse k as a plain lvalue). noGt suppresses `>`/`>>`
// as relational/operators (print/printf argument lists use this so
// redirection isn't swallowed as a comparison).
func (p *Parser) parseExpr(noIn, noGt bool) ast.Expr {
	pos := p.cur().pos
	p.enterExpr(pos)
	defer p.leaveExpr()
	return p.parseAssign(noIn, noGt)
}

func (p *Parser) parseAssign(noIn, noGt bool) ast.Expr {
	left := p.parseTernary(noIn, noGt)
	var op ast.AssignOp
	switch p.cur().tok {
	case lexer.ASSIGN:
		op = ast.ASSIGN
	case lexer.ADD_ASSIGN:
		op = ast.ADD_ASSIGN
	case lexer.SUB_ASSIGN:
		op = ast.SUB_ASSIGN
	case lexer.MUL_ASSIGN:
		op = ast.MUL_ASSIGN
	case lexer.DIV_ASSIGN:
		op = ast.DIV_ASSIGN
	case lexer.MOD_ASSIGN:
		op = ast.MOD_ASSIGN
	case lexer.POW_ASSIGN:
		op = ast.POW_ASSIGN
	default:
		return left
	}
	if !isLvalue(left) {
		p.errorf(p.cur().pos, "left side of assignment is not assignable")
	}
	pos := p.advance().pos
	p.optNewlines()
	right := p.parseAssign(noIn, noGt)
	e := &ast.AssignExpr{Left: left, Op: op, Right: right}
	e.Pos = pos
	return e
}

func isLvalue(e ast.Expr) bool {
	switch e.(type) {
	case *ast.VarExpr, *ast.FieldExpr:
		return true
	default:
		return false
	}
}

func (p *Parser) parseTernary(noIn, noGt bool) ast.Expr {
	cond := p.parseOr(noIn, noGt)
	if !p.at(lexer.QUESTION) {
		return cond
	}
	pos := p.advance().pos
	p.optNewlines()
	then := p.parseAssign(noIn, noGt)
	p.optNewlines()
	p.expect(lexer.COLON)
	p.optNewlines()
	els := p.parseAssign(noIn, noGt)
	e := &ast.TernaryExpr{Cond: cond, Then: then, Else: els}
	e.Pos = pos
	return e
}

func (p *Parser) parseOr(noIn, noGt bool) ast.Expr {
	left := p.parseAnd(noIn, noGt)
	for p.at(lexer.OR) {
		pos := p.advance().pos
		p.optNewlines()
		right := p.parseAnd(noIn, noGt)
		e := &ast.BinaryExpr{Left: left, Op: ast.OR, Right: right}
		e.Pos = pos
		left = e
	}
	return left
}

func (p *Parser) parseAnd(noIn, noGt bool) ast.Expr {
	left := p.parseIn(noIn, noGt)
	for p.at(lexer.AND) {
		pos := p.advance().pos
		p.optNewlines()
		right := p.parseIn(noIn, noGt)
		e := &ast.BinaryExpr{Left: left, Op: ast.AND, Right: right}
		e.Pos = pos
		left = e
	}
	return left
}

func (p *Parser) parseIn(noIn, noGt bool) ast.Expr {
	left := p.parseMatch(noIn, noGt)
	for !noIn && p.at(lexer.IN) {
		pos := p.advance().pos
		arr := p.parsePrimary(noIn, noGt)
		if v, ok := arr.(*ast.VarExpr); ok {
			p.markArray(v)
		}
		e := &ast.InExpr{Index: []ast.Expr{left}, Array: arr}
		e.Pos = pos
		left = e
	}
	return left
}

func (p *Parser) parseMatch(noIn, noGt bool) ast.Expr {
	left := p.parseRel(noIn, noGt)
	for p.at(lexer.MATCH) || p.at(lexer.NOMATCH) {
		op := ast.MATCH
		if p.cur().tok == lexer.NOMATCH {
			op = ast.NOT_MATCH
		}
		pos := p.advance().pos
		right := p.parseRel(noIn, noGt)
		e := &ast.MatchExpr{Left: left, Op: op, Pattern: right}
		e.Pos = pos
		left = e
	}
	return left
}

func (p *Parser) parseRel(noIn, noGt bool) ast.Expr {
	left := p.parseConcat(noIn, noGt)
	var op ast.BinaryOp
	switch p.cur().tok {
	case lexer.LT:
		op = ast.LT
	case lexer.LE:
		op = ast.LE
	case lexer.GT:
		if noGt {
			return left
		}
		op = ast.GT
	case lexer.GE:
		if noGt {
			return left
		}
		op = ast.GE
	case lexer.EQ:
		op = ast.EQ
	case lexer.NE:
		op = ast.NE
	default:
		return left
	}
	pos := p.advance().pos
	right := p.parseConcat(noIn, noGt)
	e := &ast.BinaryExpr{Left: left, Op: op, Right: right}
	e.Pos = pos
	return e
}

// concatStart reports whether the current token can begin a new operand
// of string concatenation by juxtaposition ("a" b substr(c,1)), which in
// the classic AWK grammar is any token that starts a non_unary_expr
// except a token already claimed by an enclosing, higher-precedence
// construct.
func (p *Parser) concatStart(noGt bool) bool {
	switch p.cur().tok {
	case lexer.NUMBER, lexer.STRING, lexer.MBSTRING, lexer.CHAR, lexer.IDENT,
		lexer.AT_IDENT, lexer.DOLLAR, lexer.LPAREN, lexer.NOT, lexer.MINUS,
		lexer.PLUS, lexer.INCR, lexer.DECR:
		return true
	case lexer.SLASH:
		return true // regex literal
	default:
		return false
	}
}

func (p *Parser) parseConcat(noIn, noGt bool) ast.Expr {
	left := p.parseAdditive(noIn, noGt)
	var parts []ast.Expr
	for p.concatStart(noGt) {
		parts = append(parts, p.parseAdditive(noIn, noGt))
	}
	if parts == nil {
		return left
	}
	pos := left.Position()
	e := &ast.ConcatExpr{Exprs: append([]ast.Expr{left}, parts...)}
	e.Pos = pos
	return e
}

func (p *Parser) parseAdditive(noIn, noGt bool) ast.Expr {
	left := p.parseMultiplicative(noIn, noGt)
	for p.at(lexer.PLUS) || p.at(lexer.MINUS) {
		op := ast.ADD
		if p.cur().tok == lexer.MINUS {
			op = ast.SUB
		}
		pos := p.advance().pos
		right := p.parseMultiplicative(noIn, noGt)
		e := &ast.BinaryExpr{Left: left, Op: op, Right: right}
		e.Pos = pos
		left = e
	}
	return left
}

func (p *Parser) parseMultiplicative(noIn, noGt bool) ast.Expr {
	left := p.parseUnary(noIn, noGt)
	for p.at(lexer.STAR) || p.at(lexer.SLASH) || p.at(lexer.PERCENT) {
		var op ast.BinaryOp
		switch p.cur().tok {
		case lexer.STAR:
			op = ast.MUL
		case lexer.SLASH:
			op = ast.DIV
		case lexer.PERCENT:
			op = ast.MOD
		}
		pos := p.advance().pos
		right := p.parseUnary(noIn, noGt)
		e := &ast.BinaryExpr{Left: left, Op: op, Right: right}
		e.Pos = pos
		left = e
	}
	return left
}

func (p *Parser) parseUnary(noIn, noGt bool) ast.Expr {
	switch p.cur().tok {
	case lexer.NOT:
		pos := p.advance().pos
		operand := p.parseUnary(noIn, noGt)
		e := &ast.UnaryExpr{Op: ast.NOT, Expr: operand}
		e.Pos = pos
		return e
	case lexer.MINUS:
		pos := p.advance().pos
		operand := p.parseUnary(noIn, noGt)
		e := &ast.UnaryExpr{Op: ast.NEG, Expr: operand}
		e.Pos = pos
		return e
	case lexer.PLUS:
		pos := p.advance().pos
		operand := p.parseUnary(noIn, noGt)
		e := &ast.UnaryExpr{Op: ast.POS, Expr: operand}
		e.Pos = pos
		return e
	default:
		return p.parsePow(noIn, noGt)
	}
}

// parsePow handles '^', right-associative and binding tighter than unary
// minus (classic AWK: -2^2 == -4), so its right operand recurses through
// parseUnary rather than parsePow directly.
func (p *Parser) parsePow(noIn, noGt bool) ast.Expr {
	left := p.parsePostfix(noIn, noGt)
	if p.at(lexer.CARET) {
		pos := p.advance().pos
		right := p.parseUnary(noIn, noGt)
		e := &ast.BinaryExpr{Left: left, Op: ast.POW, Right: right}
		e.Pos = pos
		return e
	}
	return left
}

func (p *Parser) parsePostfix(noIn, noGt bool) ast.Expr {
	e := p.parsePrimary(noIn, noGt)
	for p.at(lexer.INCR) || p.at(lexer.DECR) {
		if !isLvalue(e) {
			break
		}
		incr := p.cur().tok == lexer.INCR
		pos := p.advance().pos
		d := &ast.IncDecExpr{Target: e, Incr: incr, Post: true}
		d.Pos = pos
		e = d
	}
	// cmd | getline [var]   /   cmd |& getline [var]
	for (p.at(lexer.PIPE) && p.peek(1).tok == lexer.GETLINE) ||
		(p.at(lexer.RWPIPE) && p.peek(1).tok == lexer.GETLINE) {
		rw := p.cur().tok == lexer.RWPIPE
		pos := p.advance().pos
		p.advance() // getline
		var target ast.Expr
		if p.canStartLvalue() {
			target = p.parseLvalue()
		}
		src := ast.GetlinePipe
		if rw {
			src = ast.GetlineRWPipe
		}
		g := &ast.GetlineExpr{Source: src, Target: target, File: e}
		g.Pos = pos
		e = g
	}
	return e
}

func (p *Parser) canStartLvalue() bool {
	return p.at(lexer.IDENT) || p.at(lexer.DOLLAR)
}

func (p *Parser) parseLvalue() ast.Expr {
	if p.at(lexer.DOLLAR) {
		pos := p.advance().pos
		idx := p.parsePrimary(false, false)
		f := &ast.FieldExpr{Index: idx}
		f.Pos = pos
		return f
	}
	return p.parseIdentRef()
}

func (p *Parser) parsePrimary(noIn, noGt bool) ast.Expr {
	t := p.cur()
	switch t.tok {
	case lexer.NUMBER:
		p.advance()
		return p.numberLit(t)
	case lexer.STRING:
		p.advance()
		e := &ast.StrLit{Value: t.text}
		e.Pos = t.pos
		return e
	case lexer.MBSTRING:
		p.advance()
		e := &ast.MBSLit{Value: []byte(t.text)}
		e.Pos = t.pos
		return e
	case lexer.CHAR:
		p.advance()
		r := []rune(t.text)
		var rv rune
		if len(r) > 0 {
			rv = r[0]
		}
		e := &ast.CharLit{Value: rv}
		e.Pos = t.pos
		return e
	case lexer.SLASH:
		// The SLASH token already consumed the opening '/'; rescan the
		// body through the closing '/' now that we know, from grammar
		// position, this is a regex literal and not division.
		p.lex.LexRegexBody()
		txt := p.lex.TokenText()
		pos := t.pos
		p.buf = p.buf[:0]
		e := &ast.RegexLit{Pattern: txt}
		e.Pos = pos
		return e
	case lexer.DOLLAR:
		// $ binds only to the immediately following primary (so $i++ means
		// ($i)++, not $(i++)); postfix ++/-- is applied by the caller's
		// parsePostfix once this FieldExpr is returned.
		p.advance()
		idx := p.parsePrimary(noIn, noGt)
		e := &ast.FieldExpr{Index: idx}
		e.Pos = t.pos
		return e
	case lexer.INCR, lexer.DECR:
		incr := t.tok == lexer.INCR
		p.advance()
		target := p.parseUnary(noIn, noGt)
		if !isLvalue(target) {
			p.errorf(t.pos, "operand of ++/-- is not assignable")
		}
		e := &ast.IncDecExpr{Target: target, Incr: incr, Post: false}
		e.Pos = t.pos
		return e
	case lexer.LPAREN:
		p.advance()
		first := p.parseExpr(false, false)
		if p.at(lexer.COMMA) {
			// (i, j) in arr
			idx := []ast.Expr{first}
			for p.at(lexer.COMMA) {
				p.advance()
				p.optNewlines()
				idx = append(idx, p.parseExpr(false, false))
			}
			p.expect(lexer.RPAREN)
			p.expect(lexer.IN)
			arr := p.parsePrimary(noIn, noGt)
			if v, ok := arr.(*ast.VarExpr); ok {
				p.markArray(v)
			}
			e := &ast.InExpr{Index: idx, Array: arr}
			e.Pos = t.pos
			return e
		}
		p.expect(lexer.RPAREN)
		e := &ast.GroupExpr{Expr: first}
		e.Pos = t.pos
		return e
	case lexer.GETLINE:
		p.advance()
		var target ast.Expr
		if p.canStartLvalue() {
			target = p.parseLvalue()
		}
		if p.at(lexer.LT) {
			p.advance()
			file := p.parseConcat(noIn, noGt)
			e := &ast.GetlineExpr{Source: ast.GetlineFile, Target: target, File: file}
			e.Pos = t.pos
			return e
		}
		e := &ast.GetlineExpr{Source: ast.GetlineMain, Target: target}
		e.Pos = t.pos
		return e
	case lexer.IDENT:
		return p.parseIdentOrCall(noIn, noGt)
	case lexer.AT_IDENT:
		return p.parseIndirectCall(noIn, noGt)
	default:
		p.errorf(t.pos, "unexpected token %s", t.tok)
		return nil
	}
}

func (p *Parser) numberLit(t tokenInfo) ast.Expr {
	v, _ := strconv.ParseFloat(t.text, 64)
	switch {
	case len(t.text) > 1 && t.text[0] == '0' && (t.text[1] == 'x' || t.text[1] == 'X'):
		iv, _ := strconv.ParseInt(t.text[2:], 16, 64)
		v = float64(iv)
	case len(t.text) > 1 && t.text[0] == '0' && (t.text[1] == 'b' || t.text[1] == 'B'):
		iv, _ := strconv.ParseInt(t.text[2:], 2, 64)
		v = float64(iv)
	case isOctalNumeral(t.text):
		iv, _ := strconv.ParseInt(t.text[1:], 8, 64)
		v = float64(iv)
	}
	e := &ast.NumLit{Value: v, Raw: t.text}
	e.Pos = t.pos
	return e
}

// isOctalNumeral reports whether text is a classic leading-zero octal
// numeral ("010" == decimal 8): more than one digit, starts with 0, every
// remaining digit is an octal digit. A "." or "e"/"E" anywhere in text
// fails the octal-digit check, so "0.5" and "0e9" correctly fall through
// to the plain decimal/float parse above.
func isOctalNumeral(text string) bool {
	if len(text) < 2 || text[0] != '0' {
		return false
	}
	for i := 1; i < len(text); i++ {
		if text[i] < '0' || text[i] > '7' {
			return false
		}
	}
	return true
}

// parseIdentRef resolves a bare identifier (no call parens) to a VarExpr,
// including a[i,j] indexing.
func (p *Parser) parseIdentRef() ast.Expr {
	t := p.expect(lexer.IDENT)
	v := p.resolveVar(t.text, t.pos)
	if p.at(lexer.LBRACKET) {
		p.advance()
		idx := []ast.Expr{p.parseExpr(false, false)}
		for p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			idx = append(idx, p.parseExpr(false, false))
		}
		p.expect(lexer.RBRACKET)
		v.Index = idx
		p.markArray(v)
	}
	return v
}

func (p *Parser) parseIdentOrCall(noIn, noGt bool) ast.Expr {
	t := p.expect(lexer.IDENT)
	if p.at(lexer.LPAREN) {
		p.advance()
		var args []ast.Expr
		p.optNewlines()
		for !p.at(lexer.RPAREN) {
			args = append(args, p.parseExpr(false, false))
			p.optNewlines()
			if p.at(lexer.COMMA) {
				p.advance()
				p.optNewlines()
				continue
			}
			break
		}
		p.expect(lexer.RPAREN)
		e := &ast.CallExpr{Name: t.text, Args: args, IsBuiltin: builtinNames[t.text]}
		e.Pos = t.pos
		return e
	}
	if builtinNames[t.text] {
		// A builtin named with no call parens at all, e.g. bare "length"
		// meaning length($0); none of Hawk's other builtins are callable
		// this way, but the grammar position is identical.
		e := &ast.CallExpr{Name: t.text, IsBuiltin: true}
		e.Pos = t.pos
		return e
	}
	v := p.resolveVar(t.text, t.pos)
	if p.at(lexer.LBRACKET) {
		p.advance()
		idx := []ast.Expr{p.parseExpr(false, false)}
		for p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			idx = append(idx, p.parseExpr(false, false))
		}
		p.expect(lexer.RBRACKET)
		v.Index = idx
		p.markArray(v)
	}
	return v
}

// parseIndirectCall parses "@name(args)": a call to the function named by
// the current value of variable "name" (the indirect-by-variable
// call form). The variable holding the target name is resolved the same
// way any other scalar reference would be.
func (p *Parser) parseIndirectCall(noIn, noGt bool) ast.Expr {
	t := p.advance() // AT_IDENT, text holds the variable name
	v := p.resolveVar(t.text, t.pos)
	p.expect(lexer.LPAREN)
	var args []ast.Expr
	p.optNewlines()
	for !p.at(lexer.RPAREN) {
		args = append(args, p.parseExpr(false, false))
		p.optNewlines()
		if p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			continue
		}
		break
	}
	p.expect(lexer.RPAREN)
	e := &ast.CallExpr{Name: v.Name, Args: args, IsIndirect: true}
	e.Pos = t.pos
	return e
}

// isTraitOn is a small convenience the statement parser uses to decide
// grammar gated by a trait (e.g. RWPIPE, NEXTOFILE).
func (p *Parser) isTraitOn(t traits.Trait) bool { return p.traits.Has(t) }

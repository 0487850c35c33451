package parser

import (
	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/lexer"
)

func (p *Parser) enterBlock(pos ast.Pos) {
	p.blockDepth++
	if p.blockDepth > p.maxBlockDepth {
		p.errorf(pos, "block nesting exceeds maximum depth")
	}
}
func (p *Parser) leaveBlock() { p.blockDepth-- }

// parseRule parses one pattern-action rule: BEGIN/END/BEGINFILE/ENDFILE,
// a range pattern "e1, e2", a plain expression pattern, or a bare action
// block defaulting to PatternAlways.
func (p *Parser) parseRule() {
	pos := p.cur().pos
	var pat ast.Pattern
	switch p.cur().tok {
	case lexer.BEGIN:
		p.advance()
		pat = ast.Pattern{Kind: ast.PatternBegin}
	case lexer.END:
		p.advance()
		pat = ast.Pattern{Kind: ast.PatternEnd}
	case lexer.BEGINFILE:
		p.advance()
		pat = ast.Pattern{Kind: ast.PatternBeginFile}
	case lexer.ENDFILE:
		p.advance()
		pat = ast.Pattern{Kind: ast.PatternEndFile}
	case lexer.LBRACE:
		pat = ast.Pattern{Kind: ast.PatternAlways}
	default:
		e := p.parseExpr(false, false)
		if p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			stop := p.parseExpr(false, false)
			pat = ast.Pattern{Kind: ast.PatternRange, Start: e, Stop: stop}
		} else {
			pat = ast.Pattern{Kind: ast.PatternExpr, Expr: e}
		}
	}
	p.skipNewlines()
	var body *ast.BlockStmt
	if p.at(lexer.LBRACE) {
		body = p.parseBlock()
	} else {
		// pattern with no action: default action is "print $0"
		b := &ast.BlockStmt{}
		b.Pos = pos
		body = b
	}
	p.prog.Rules = append(p.prog.Rules, ast.Rule{Pattern: pat, Body: body})
}

func (p *Parser) parseBlock() *ast.BlockStmt {
	pos := p.expect(lexer.LBRACE).pos
	p.enterBlock(pos)
	defer p.leaveBlock()
	b := &ast.BlockStmt{}
	b.Pos = pos
	p.skipTerm()
	for !p.at(lexer.RBRACE) && !p.at(lexer.EOF) {
		b.Stmts = append(b.Stmts, p.parseStmt())
		p.skipTerm()
	}
	p.expect(lexer.RBRACE)
	return b
}

func (p *Parser) parseFunction() {
	p.advance() // 'function'/'func'
	name := p.expect(lexer.IDENT).text
	p.expect(lexer.LPAREN)
	fs := &funcScope{name: name, locals: map[string]int{}, isArray: map[string]bool{}}
	var params []ast.Param
	idx := 1
	if !p.at(lexer.RPAREN) {
		for {
			pn := p.expect(lexer.IDENT).text
			fs.locals[pn] = idx
			fs.order = append(fs.order, pn)
			params = append(params, ast.Param{Name: pn})
			idx++
			if p.at(lexer.COMMA) {
				p.advance()
				p.optNewlines()
				continue
			}
			break
		}
	}
	p.expect(lexer.RPAREN)
	p.skipNewlines()
	prevFunc := p.curFunc
	p.curFunc = fs
	body := p.parseBlock()
	p.curFunc = prevFunc

	for i := range params {
		if fs.isArray[params[i].Name] {
			params[i].Mode = ast.ParamArray
		}
	}
	fn := &ast.Function{Name: name, Params: params, NumLocals: len(fs.order), Body: body}
	p.funcs[name] = fn
}

func (p *Parser) parseStmt() ast.Stmt {
	t := p.cur()
	switch t.tok {
	case lexer.LBRACE:
		return p.parseBlock()
	case lexer.IF:
		return p.parseIf()
	case lexer.WHILE:
		return p.parseWhile()
	case lexer.DO:
		return p.parseDoWhile()
	case lexer.FOR:
		return p.parseFor()
	case lexer.BREAK:
		p.advance()
		s := &ast.BreakStmt{}
		s.Pos = t.pos
		return s
	case lexer.CONTINUE:
		p.advance()
		s := &ast.ContinueStmt{}
		s.Pos = t.pos
		return s
	case lexer.NEXT:
		p.advance()
		s := &ast.NextStmt{}
		s.Pos = t.pos
		return s
	case lexer.NEXTFILE:
		p.advance()
		s := &ast.NextFileStmt{}
		s.Pos = t.pos
		return s
	case lexer.NEXTOFILE:
		p.advance()
		s := &ast.NextOFileStmt{}
		s.Pos = t.pos
		return s
	case lexer.RETURN:
		p.advance()
		var v ast.Expr
		if p.stmtHasExprFollowing() {
			v = p.parseExpr(false, false)
		}
		s := &ast.ReturnStmt{Value: v}
		s.Pos = t.pos
		return s
	case lexer.EXIT:
		p.advance()
		var v ast.Expr
		if p.stmtHasExprFollowing() {
			v = p.parseExpr(false, false)
		}
		s := &ast.ExitStmt{Status: v}
		s.Pos = t.pos
		return s
	case lexer.ABORT:
		p.advance()
		var v ast.Expr
		if p.stmtHasExprFollowing() {
			v = p.parseExpr(false, false)
		}
		s := &ast.AbortStmt{Status: v}
		s.Pos = t.pos
		return s
	case lexer.DELETE:
		return p.parseDelete()
	case lexer.RESET:
		p.advance()
		arr := p.parseIdentRef()
		if v, ok := arr.(*ast.VarExpr); ok {
			p.markArray(v)
		}
		s := &ast.ResetStmt{Array: arr}
		s.Pos = t.pos
		return s
	case lexer.PRINT, lexer.PRINTF:
		return p.parsePrint()
	case lexer.SEMI:
		b := &ast.BlockStmt{}
		b.Pos = t.pos
		return b
	default:
		e := p.parseExpr(false, false)
		s := &ast.ExprStmt{Expr: e}
		s.Pos = t.pos
		return s
	}
}

// stmtHasExprFollowing reports whether the current token can start an
// expression, used to decide whether "return"/"exit"/"abort" carries a
// value or stands alone.
func (p *Parser) stmtHasExprFollowing() bool {
	switch p.cur().tok {
	case lexer.SEMI, lexer.NEWLINE, lexer.RBRACE, lexer.EOF:
		return false
	default:
		return true
	}
}

func (p *Parser) parseIf() ast.Stmt {
	pos := p.advance().pos
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(false, false)
	p.expect(lexer.RPAREN)
	p.optNewlines()
	then := p.parseStmt()
	var els ast.Stmt
	if n, hasElse := p.lookaheadPastTerm(lexer.ELSE); hasElse {
		for i := 0; i < n; i++ {
			p.advance()
		}
		p.optNewlines()
		els = p.parseStmt()
	}
	s := &ast.IfStmt{Cond: cond, Then: then, Else: els}
	s.Pos = pos
	return s
}

// lookaheadPastTerm scans past a run of NEWLINE/SEMI tokens (without
// consuming anything) to see whether tok follows, non-destructively:
// returns the number of terminator tokens skipped and whether tok was
// found immediately after them.
func (p *Parser) lookaheadPastTerm(tok lexer.Token) (int, bool) {
	i := 0
	for {
		ti := p.peek(i)
		if ti.tok == lexer.NEWLINE || ti.tok == lexer.SEMI {
			i++
			continue
		}
		return i, ti.tok == tok
	}
}

func (p *Parser) parseWhile() ast.Stmt {
	pos := p.advance().pos
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(false, false)
	p.expect(lexer.RPAREN)
	p.optNewlines()
	body := p.parseStmt()
	s := &ast.WhileStmt{Cond: cond, Body: body}
	s.Pos = pos
	return s
}

func (p *Parser) parseDoWhile() ast.Stmt {
	pos := p.advance().pos
	p.optNewlines()
	body := p.parseStmt()
	p.skipTerm()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	cond := p.parseExpr(false, false)
	p.expect(lexer.RPAREN)
	s := &ast.DoWhileStmt{Body: body, Cond: cond}
	s.Pos = pos
	return s
}

func (p *Parser) parseFor() ast.Stmt {
	pos := p.advance().pos
	p.expect(lexer.LPAREN)
	// for (k in a) ...
	if p.at(lexer.IDENT) && p.peek(1).tok == lexer.IN {
		name := p.advance().text
		kpos := p.cur().pos
		p.advance() // 'in'
		v := p.resolveVar(name, kpos)
		arr := p.parseIdentRef()
		if av, ok := arr.(*ast.VarExpr); ok {
			p.markArray(av)
		}
		p.expect(lexer.RPAREN)
		p.optNewlines()
		body := p.parseStmt()
		s := &ast.ForInStmt{VarExpr: v, Array: arr, Body: body}
		s.Pos = pos
		return s
	}
	// Only the unparenthesized "k in a" header above is a for-in loop;
	// for ((k) in a) takes the general path below and is rejected there,
	// since its init clause is parsed with 'in' suppressed.
	var init ast.Stmt
	if !p.at(lexer.SEMI) {
		e := p.parseExpr(true, false)
		es := &ast.ExprStmt{Expr: e}
		es.Pos = p.cur().pos
		init = es
	}
	p.expect(lexer.SEMI)
	var cond ast.Expr
	if !p.at(lexer.SEMI) {
		cond = p.parseExpr(false, false)
	}
	p.expect(lexer.SEMI)
	var post ast.Stmt
	if !p.at(lexer.RPAREN) {
		e := p.parseExpr(false, false)
		es := &ast.ExprStmt{Expr: e}
		es.Pos = p.cur().pos
		post = es
	}
	p.expect(lexer.RPAREN)
	p.optNewlines()
	body := p.parseStmt()
	s := &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body}
	s.Pos = pos
	return s
}

func (p *Parser) parseDelete() ast.Stmt {
	pos := p.advance().pos
	name := p.expect(lexer.IDENT).text
	arr := p.resolveVar(name, pos)
	p.markArray(arr)
	var idx []ast.Expr
	if p.at(lexer.LBRACKET) {
		p.advance()
		idx = append(idx, p.parseExpr(false, false))
		for p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			idx = append(idx, p.parseExpr(false, false))
		}
		p.expect(lexer.RBRACKET)
	} else if p.at(lexer.LPAREN) {
		// delete(a) classic-awk-compatible call form
		p.advance()
		p.expect(lexer.RPAREN)
	}
	s := &ast.DeleteStmt{Array: arr, Index: idx}
	s.Pos = pos
	return s
}

func (p *Parser) parsePrint() ast.Stmt {
	t := p.advance()
	isPrintf := t.tok == lexer.PRINTF
	var args []ast.Expr
	if p.at(lexer.LPAREN) && p.printParenIsArgList() {
		// Classic AWK's "print (a, b, c)" ambiguity: a parenthesized,
		// comma-separated list right after print/printf is the argument
		// list itself, not a single grouped expression — unless it's
		// followed by "in" (then it's "(a,b) in arr" used as the sole
		// argument, left to the normal primary-expression grammar below).
		p.advance()
		args = append(args, p.parseExpr(false, true))
		for p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			args = append(args, p.parseExpr(false, true))
		}
		p.expect(lexer.RPAREN)
	} else if p.canStartPrintArg() {
		args = append(args, p.parseExpr(false, true))
		for p.at(lexer.COMMA) {
			p.advance()
			p.optNewlines()
			args = append(args, p.parseExpr(false, true))
		}
	}
	target := ast.PrintStdout
	var dest ast.Expr
	switch p.cur().tok {
	case lexer.GT:
		p.advance()
		target = ast.PrintFile
		dest = p.parseExpr(false, false)
	case lexer.APPEND:
		p.advance()
		target = ast.PrintAppend
		dest = p.parseExpr(false, false)
	case lexer.PIPE:
		p.advance()
		target = ast.PrintPipe
		dest = p.parseExpr(false, false)
	case lexer.RWPIPE:
		if p.isTraitOn(traits.RWPIPE) {
			p.advance()
			target = ast.PrintRWPipe
			dest = p.parseExpr(false, false)
		}
	}
	s := &ast.PrintStmt{IsPrintf: isPrintf, Args: args, Target: target, Dest: dest}
	s.Pos = t.pos
	return s
}

// printParenIsArgList looks ahead (without consuming) from a print/printf
// statement's opening LPAREN to decide whether it opens the statement's
// whole argument list (at least one top-level comma, and nothing named
// "in" immediately after the matching RPAREN) rather than a single
// parenthesized expression or a "(i,j) in arr" test.
func (p *Parser) printParenIsArgList() bool {
	depth := 0
	sawTopComma := false
	for i := 0; i < 4096; i++ {
		tk := p.peek(i)
		switch tk.tok {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
			if depth == 0 {
				next := p.peek(i + 1)
				return sawTopComma && next.tok != lexer.IN
			}
		case lexer.COMMA:
			if depth == 1 {
				sawTopComma = true
			}
		case lexer.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) canStartPrintArg() bool {
	switch p.cur().tok {
	case lexer.SEMI, lexer.NEWLINE, lexer.RBRACE, lexer.EOF,
		lexer.GT, lexer.APPEND, lexer.PIPE, lexer.RWPIPE:
		return false
	default:
		return true
	}
}

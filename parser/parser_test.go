package parser

import (
	"testing"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/traits"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, _, err := ParseProgram("", []byte(src), nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestParseOctalNumberLiteral(t *testing.T) {
	prog := mustParse(t, `BEGIN { x = 010 }`)
	assign := prog.Rules[0].Body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	num, ok := assign.Right.(*ast.NumLit)
	if !ok {
		t.Fatalf("expected a number literal, got %T", assign.Right)
	}
	if num.Value != 8 {
		t.Errorf("010 should parse as octal 8, got %v", num.Value)
	}
}

func TestParseSimplePatternAction(t *testing.T) {
	prog := mustParse(t, `BEGIN { x = 1 + 2 * 3; print x }`)
	if len(prog.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(prog.Rules))
	}
	if prog.Rules[0].Pattern.Kind != ast.PatternBegin {
		t.Errorf("expected BEGIN pattern")
	}
	body := prog.Rules[0].Body
	if len(body.Stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(body.Stmts))
	}
	assign, ok := body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	if !ok {
		t.Fatalf("expected assignment, got %T", body.Stmts[0])
	}
	bin, ok := assign.Right.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.ADD {
		t.Fatalf("expected top-level ADD (precedence), got %#v", assign.Right)
	}
}

func TestParseFunctionAndArrayParam(t *testing.T) {
	prog := mustParse(t, `
function f(a, b,   tmp) {
	tmp = a[b]
	return tmp
}
BEGIN { x[1] = 2; print f(x, 1) }
`)
	fn, ok := prog.Functions["f"]
	if !ok {
		t.Fatalf("expected function f to be registered")
	}
	if len(fn.Params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(fn.Params))
	}
	if fn.Params[0].Mode != ast.ParamArray {
		t.Errorf("expected param a to be inferred as an array param")
	}
}

func TestParseForIn(t *testing.T) {
	prog := mustParse(t, `BEGIN { for (k in arr) print k }`)
	body := prog.Rules[0].Body
	fi, ok := body.Stmts[0].(*ast.ForInStmt)
	if !ok {
		t.Fatalf("expected ForInStmt, got %T", body.Stmts[0])
	}
	if fi.VarExpr.Name != "k" {
		t.Errorf("got var name %q", fi.VarExpr.Name)
	}
	if !prog.Arrays["arr"] {
		t.Errorf("expected arr to be marked as an array")
	}
}

func TestParsePrintRedirection(t *testing.T) {
	prog := mustParse(t, `BEGIN { print "x" > "out.txt" }`)
	ps, ok := prog.Rules[0].Body.Stmts[0].(*ast.PrintStmt)
	if !ok {
		t.Fatalf("expected PrintStmt, got %T", prog.Rules[0].Body.Stmts[0])
	}
	if ps.Target != ast.PrintFile {
		t.Errorf("expected PrintFile target, got %v", ps.Target)
	}
}

func TestParseRegexLiteralVsDivision(t *testing.T) {
	prog := mustParse(t, `BEGIN { if ($0 ~ /foo[0-9]+/) print 6 / 2 }`)
	ifs, ok := prog.Rules[0].Body.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("expected IfStmt, got %T", prog.Rules[0].Body.Stmts[0])
	}
	me, ok := ifs.Cond.(*ast.MatchExpr)
	if !ok {
		t.Fatalf("expected MatchExpr, got %T", ifs.Cond)
	}
	re, ok := me.Pattern.(*ast.RegexLit)
	if !ok {
		t.Fatalf("expected RegexLit, got %T", me.Pattern)
	}
	if re.Pattern != `foo[0-9]+` {
		t.Errorf("got pattern %q", re.Pattern)
	}
	print, ok := ifs.Then.(*ast.PrintStmt)
	if !ok {
		t.Fatalf("expected PrintStmt, got %T", ifs.Then)
	}
	div, ok := print.Args[0].(*ast.BinaryExpr)
	if !ok || div.Op != ast.DIV {
		t.Fatalf("expected division, got %#v", print.Args[0])
	}
}

func TestParsePragmaEntryAndTrait(t *testing.T) {
	prog, traitSet, err := ParseProgram("", []byte(`
@pragma entry mymain
@pragma trait rwpipe off
function mymain(argv) { return 0 }
`), nil, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if prog.EntryFunc != "mymain" {
		t.Errorf("got entry func %q", prog.EntryFunc)
	}
	if traitSet.Has(traits.RWPIPE) {
		t.Errorf("expected RWPIPE trait to be off")
	}
}

func TestParseGetlineForms(t *testing.T) {
	prog := mustParse(t, `BEGIN {
	getline
	getline line
	getline < "file"
	getline line < "file"
	"cmd" | getline
	"cmd" |& getline v
}`)
	body := prog.Rules[0].Body
	if len(body.Stmts) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(body.Stmts))
	}
	g3, ok := body.Stmts[2].(*ast.ExprStmt).Expr.(*ast.GetlineExpr)
	if !ok || g3.Source != ast.GetlineFile {
		t.Fatalf("expected GetlineFile, got %#v", body.Stmts[2])
	}
	g5, ok := body.Stmts[4].(*ast.ExprStmt).Expr.(*ast.GetlineExpr)
	if !ok || g5.Source != ast.GetlinePipe {
		t.Fatalf("expected GetlinePipe, got %#v", body.Stmts[4])
	}
	g6, ok := body.Stmts[5].(*ast.ExprStmt).Expr.(*ast.GetlineExpr)
	if !ok || g6.Source != ast.GetlineRWPipe {
		t.Fatalf("expected GetlineRWPipe, got %#v", body.Stmts[5])
	}
}

func TestParseSyntaxErrorCarriesLocation(t *testing.T) {
	_, _, err := ParseProgram("script.hawk", []byte("BEGIN { x = }"), nil, nil, DefaultOptions())
	if err == nil {
		t.Fatalf("expected a syntax error")
	}
	pe, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *parser.Error, got %T", err)
	}
	if pe.Pos.File != "script.hawk" {
		t.Errorf("expected error location to carry the file name, got %q", pe.Pos.File)
	}
}


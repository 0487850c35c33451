// Package deparser turns a parsed Program back into Hawk source text: the
// spec's round-trip property (parse . deparse . parse == parse, modulo
// whitespace and comments) that the -d reference-CLI flag exercises.
//
// Grounded on the teacher's own require that every AST node is plain and
// inspectable (kolkov/uawk's ast package, read from other_examples, has no
// deparser of its own, so the printer walk here follows goawk's general
// "one method per node kind" structuring instead, adapted from a bytecode
// disassembler shape to a source-text emitter).
package deparser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hawk-lang/hawk/internal/ast"
)

// Deparse renders prog as Hawk source text.
func Deparse(prog *ast.Program) string {
	p := &printer{prog: prog}
	p.program()
	return p.sb.String()
}

type printer struct {
	sb    strings.Builder
	prog  *ast.Program
	depth int
}

func (p *printer) indent() {
	for i := 0; i < p.depth; i++ {
		p.sb.WriteString("\t")
	}
}

func (p *printer) program() {
	for i, r := range p.prog.Rules {
		if i > 0 {
			p.sb.WriteString("\n")
		}
		p.rule(&r)
	}
	names := make([]string, 0, len(p.prog.Functions))
	for name := range p.prog.Functions {
		names = append(names, name)
	}
	// Deterministic output needs a stable order; functions carry no source
	// position here, so alphabetical is the simplest stable choice.
	sortStrings(names)
	for _, name := range names {
		p.sb.WriteString("\n")
		p.function(p.prog.Functions[name])
	}
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

func (p *printer) rule(r *ast.Rule) {
	switch r.Pattern.Kind {
	case ast.PatternBegin:
		p.sb.WriteString("BEGIN ")
	case ast.PatternEnd:
		p.sb.WriteString("END ")
	case ast.PatternBeginFile:
		p.sb.WriteString("BEGINFILE ")
	case ast.PatternEndFile:
		p.sb.WriteString("ENDFILE ")
	case ast.PatternExpr:
		p.expr(r.Pattern.Expr)
		p.sb.WriteString(" ")
	case ast.PatternRange:
		p.expr(r.Pattern.Start)
		p.sb.WriteString(", ")
		p.expr(r.Pattern.Stop)
		p.sb.WriteString(" ")
	case ast.PatternAlways:
		// no pattern text at all
	}
	p.block(r.Body)
	p.sb.WriteString("\n")
}

func (p *printer) function(fn *ast.Function) {
	p.sb.WriteString("function ")
	p.sb.WriteString(fn.Name)
	p.sb.WriteString("(")
	for i, param := range fn.Params {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.sb.WriteString(param.Name)
	}
	p.sb.WriteString(") ")
	p.block(fn.Body)
	p.sb.WriteString("\n")
}

func (p *printer) block(b *ast.BlockStmt) {
	p.sb.WriteString("{\n")
	p.depth++
	for _, s := range b.Stmts {
		p.indent()
		p.stmt(s)
		p.sb.WriteString("\n")
	}
	p.depth--
	p.indent()
	p.sb.WriteString("}")
}

func (p *printer) stmtOrBlock(s ast.Stmt) {
	if b, ok := s.(*ast.BlockStmt); ok {
		p.block(b)
		return
	}
	p.sb.WriteString("{\n")
	p.depth++
	p.indent()
	p.stmt(s)
	p.sb.WriteString("\n")
	p.depth--
	p.indent()
	p.sb.WriteString("}")
}

func (p *printer) stmt(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.BlockStmt:
		p.block(n)
	case *ast.ExprStmt:
		p.expr(n.Expr)
	case *ast.PrintStmt:
		p.printStmt(n)
	case *ast.IfStmt:
		p.sb.WriteString("if (")
		p.expr(n.Cond)
		p.sb.WriteString(") ")
		p.stmtOrBlock(n.Then)
		if n.Else != nil {
			p.sb.WriteString("\n")
			p.indent()
			p.sb.WriteString("else ")
			p.stmtOrBlock(n.Else)
		}
	case *ast.WhileStmt:
		p.sb.WriteString("while (")
		p.expr(n.Cond)
		p.sb.WriteString(") ")
		p.stmtOrBlock(n.Body)
	case *ast.DoWhileStmt:
		p.sb.WriteString("do ")
		p.stmtOrBlock(n.Body)
		p.sb.WriteString(" while (")
		p.expr(n.Cond)
		p.sb.WriteString(")")
	case *ast.ForStmt:
		p.sb.WriteString("for (")
		if n.Init != nil {
			p.stmt(n.Init)
		}
		p.sb.WriteString("; ")
		if n.Cond != nil {
			p.expr(n.Cond)
		}
		p.sb.WriteString("; ")
		if n.Post != nil {
			p.stmt(n.Post)
		}
		p.sb.WriteString(") ")
		p.stmtOrBlock(n.Body)
	case *ast.ForInStmt:
		p.sb.WriteString("for (")
		p.varExpr(n.VarExpr)
		p.sb.WriteString(" in ")
		p.expr(n.Array)
		p.sb.WriteString(") ")
		p.stmtOrBlock(n.Body)
	case *ast.BreakStmt:
		p.sb.WriteString("break")
	case *ast.ContinueStmt:
		p.sb.WriteString("continue")
	case *ast.NextStmt:
		p.sb.WriteString("next")
	case *ast.NextFileStmt:
		p.sb.WriteString("nextfile")
	case *ast.NextOFileStmt:
		p.sb.WriteString("nextofile")
	case *ast.ReturnStmt:
		p.sb.WriteString("return")
		if n.Value != nil {
			p.sb.WriteString(" ")
			p.expr(n.Value)
		}
	case *ast.ExitStmt:
		p.sb.WriteString("exit")
		if n.Status != nil {
			p.sb.WriteString(" ")
			p.expr(n.Status)
		}
	case *ast.AbortStmt:
		p.sb.WriteString("abort")
		if n.Status != nil {
			p.sb.WriteString(" ")
			p.expr(n.Status)
		}
	case *ast.DeleteStmt:
		p.sb.WriteString("delete ")
		p.expr(n.Array)
		if len(n.Index) > 0 {
			p.sb.WriteString("[")
			p.exprList(n.Index)
			p.sb.WriteString("]")
		}
	case *ast.ResetStmt:
		p.sb.WriteString("@reset ")
		p.expr(n.Array)
	default:
		p.sb.WriteString(fmt.Sprintf("/* unknown stmt %T */", s))
	}
	p.sb.WriteString(";")
}

func (p *printer) printStmt(n *ast.PrintStmt) {
	if n.IsPrintf {
		p.sb.WriteString("printf")
	} else {
		p.sb.WriteString("print")
	}
	if len(n.Args) > 0 {
		p.sb.WriteString(" ")
		p.exprList(n.Args)
	}
	switch n.Target {
	case ast.PrintFile:
		p.sb.WriteString(" > ")
		p.expr(n.Dest)
	case ast.PrintAppend:
		p.sb.WriteString(" >> ")
		p.expr(n.Dest)
	case ast.PrintPipe:
		p.sb.WriteString(" | ")
		p.expr(n.Dest)
	case ast.PrintRWPipe:
		p.sb.WriteString(" |& ")
		p.expr(n.Dest)
	}
}

func (p *printer) exprList(es []ast.Expr) {
	for i, e := range es {
		if i > 0 {
			p.sb.WriteString(", ")
		}
		p.expr(e)
	}
}

func (p *printer) varExpr(v *ast.VarExpr) {
	p.sb.WriteString(v.Name)
	if len(v.Index) > 0 {
		p.sb.WriteString("[")
		p.exprList(v.Index)
		p.sb.WriteString("]")
	}
}

func (p *printer) expr(e ast.Expr) {
	switch n := e.(type) {
	case *ast.NumLit:
		if n.Raw != "" {
			p.sb.WriteString(n.Raw)
		} else {
			p.sb.WriteString(strconv.FormatFloat(n.Value, 'g', -1, 64))
		}
	case *ast.StrLit:
		p.sb.WriteString(quoteString(n.Value))
	case *ast.MBSLit:
		p.sb.WriteString("b")
		p.sb.WriteString(quoteString(string(n.Value)))
	case *ast.CharLit:
		p.sb.WriteString(strconv.QuoteRune(n.Value))
	case *ast.ByteLit:
		p.sb.WriteString(fmt.Sprintf("0x%02x", n.Value))
	case *ast.RegexLit:
		p.sb.WriteString("/")
		p.sb.WriteString(n.Pattern)
		p.sb.WriteString("/")
	case *ast.NilLit:
		p.sb.WriteString("nil")
	case *ast.VarExpr:
		p.varExpr(n)
	case *ast.FieldExpr:
		p.sb.WriteString("$")
		p.wrapUnary(n.Index)
	case *ast.BinaryExpr:
		p.wrapUnary(n.Left)
		p.sb.WriteString(" ")
		p.sb.WriteString(binaryOpText(n.Op))
		p.sb.WriteString(" ")
		p.wrapUnary(n.Right)
	case *ast.UnaryExpr:
		p.sb.WriteString(unaryOpText(n.Op))
		p.wrapUnary(n.Expr)
	case *ast.IncDecExpr:
		op := "++"
		if !n.Incr {
			op = "--"
		}
		if n.Post {
			p.expr(n.Target)
			p.sb.WriteString(op)
		} else {
			p.sb.WriteString(op)
			p.expr(n.Target)
		}
	case *ast.TernaryExpr:
		p.expr(n.Cond)
		p.sb.WriteString(" ? ")
		p.expr(n.Then)
		p.sb.WriteString(" : ")
		p.expr(n.Else)
	case *ast.AssignExpr:
		p.expr(n.Left)
		p.sb.WriteString(" ")
		p.sb.WriteString(assignOpText(n.Op))
		p.sb.WriteString(" ")
		p.expr(n.Right)
	case *ast.ConcatExpr:
		for i, sub := range n.Exprs {
			if i > 0 {
				p.sb.WriteString(" ")
			}
			p.wrapUnary(sub)
		}
	case *ast.GroupExpr:
		p.sb.WriteString("(")
		p.expr(n.Expr)
		p.sb.WriteString(")")
	case *ast.CallExpr:
		p.sb.WriteString(n.Name)
		p.sb.WriteString("(")
		p.exprList(n.Args)
		p.sb.WriteString(")")
	case *ast.GetlineExpr:
		p.getlineExpr(n)
	case *ast.InExpr:
		p.sb.WriteString("(")
		p.exprList(n.Index)
		p.sb.WriteString(") in ")
		p.expr(n.Array)
	case *ast.MatchExpr:
		p.expr(n.Left)
		if n.Op == ast.MATCH {
			p.sb.WriteString(" ~ ")
		} else {
			p.sb.WriteString(" !~ ")
		}
		p.expr(n.Pattern)
	default:
		p.sb.WriteString(fmt.Sprintf("/* unknown expr %T */", e))
	}
}

// wrapUnary parenthesizes an operand only when it is itself a lower
// precedence form (ternary/assign) likely to be ambiguous sitting inside a
// binary/concat expression; this is conservative, not precedence-exact,
// since deparsed output is only required to round-trip, not to omit every
// redundant paren a human would.
func (p *printer) wrapUnary(e ast.Expr) {
	switch e.(type) {
	case *ast.TernaryExpr, *ast.AssignExpr:
		p.sb.WriteString("(")
		p.expr(e)
		p.sb.WriteString(")")
	default:
		p.expr(e)
	}
}

func (p *printer) getlineExpr(n *ast.GetlineExpr) {
	switch n.Source {
	case ast.GetlineMain:
		p.sb.WriteString("getline")
		if n.Target != nil {
			p.sb.WriteString(" ")
			p.expr(n.Target)
		}
	case ast.GetlineFile:
		p.sb.WriteString("getline")
		if n.Target != nil {
			p.sb.WriteString(" ")
			p.expr(n.Target)
		}
		p.sb.WriteString(" < ")
		p.expr(n.File)
	case ast.GetlinePipe:
		p.expr(n.File)
		p.sb.WriteString(" | getline")
		if n.Target != nil {
			p.sb.WriteString(" ")
			p.expr(n.Target)
		}
	case ast.GetlineRWPipe:
		p.expr(n.File)
		p.sb.WriteString(" |& getline")
		if n.Target != nil {
			p.sb.WriteString(" ")
			p.expr(n.Target)
		}
	}
}

func binaryOpText(op ast.BinaryOp) string {
	switch op {
	case ast.ADD:
		return "+"
	case ast.SUB:
		return "-"
	case ast.MUL:
		return "*"
	case ast.DIV:
		return "/"
	case ast.MOD:
		return "%"
	case ast.POW:
		return "^"
	case ast.CONCAT:
		return ""
	case ast.LT:
		return "<"
	case ast.LE:
		return "<="
	case ast.GT:
		return ">"
	case ast.GE:
		return ">="
	case ast.EQ:
		return "=="
	case ast.NE:
		return "!="
	case ast.AND:
		return "&&"
	case ast.OR:
		return "||"
	default:
		return "?"
	}
}

func unaryOpText(op ast.UnaryOp) string {
	switch op {
	case ast.NEG:
		return "-"
	case ast.POS:
		return "+"
	case ast.NOT:
		return "!"
	default:
		return "?"
	}
}

func assignOpText(op ast.AssignOp) string {
	switch op {
	case ast.ASSIGN:
		return "="
	case ast.ADD_ASSIGN:
		return "+="
	case ast.SUB_ASSIGN:
		return "-="
	case ast.MUL_ASSIGN:
		return "*="
	case ast.DIV_ASSIGN:
		return "/="
	case ast.MOD_ASSIGN:
		return "%="
	case ast.POW_ASSIGN:
		return "^="
	default:
		return "?="
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteString(`"`)
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteString(`"`)
	return sb.String()
}

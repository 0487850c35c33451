package interp

import (
	"math"
	"strings"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/internal/value"
)

// eval is the expression-evaluator's type-switch dispatcher, the
// tree-walking counterpart to execStmt. Grounded on fioriandrea/aawk's
// eval() (read in full from other_examples), generalized to the design's
// fuller expression set (char/byte/mbs literals, ternary, rwpipe getline,
// indirect calls, match expressions).
func (rt *Rtx) eval(e ast.Expr) (value.Value, error) {
	rt.exprDep++
	defer func() { rt.exprDep-- }()
	if rt.exprDep > rt.cfg.DepthExprRun {
		return value.Value{}, gem.New(gem.STACKOV, loc(e.Position()), "expression nesting exceeds maximum depth")
	}

	switch n := e.(type) {
	case *ast.NumLit:
		return numLitValue(n), nil
	case *ast.StrLit:
		return value.MakeStr(n.Value), nil
	case *ast.MBSLit:
		return value.MakeMBS(n.Value), nil
	case *ast.CharLit:
		return value.MakeChar(n.Value), nil
	case *ast.ByteLit:
		return value.MakeByte(n.Value), nil
	case *ast.RegexLit:
		return value.MakeInt(boolInt(rt.matchRegex(n.Pattern, rt.getField(0).ToStr(rt.convfmt())))), nil
	case *ast.NilLit:
		return value.MakeNil(), nil
	case *ast.VarExpr:
		return rt.getVar(n, rt.eval)
	case *ast.FieldExpr:
		return rt.evalField(n)
	case *ast.BinaryExpr:
		return rt.evalBinary(n)
	case *ast.UnaryExpr:
		return rt.evalUnary(n)
	case *ast.IncDecExpr:
		return rt.evalIncDec(n)
	case *ast.TernaryExpr:
		return rt.evalTernary(n)
	case *ast.AssignExpr:
		return rt.evalAssign(n)
	case *ast.ConcatExpr:
		return rt.evalConcat(n)
	case *ast.GroupExpr:
		return rt.eval(n.Expr)
	case *ast.CallExpr:
		return rt.evalCall(n)
	case *ast.GetlineExpr:
		return rt.evalGetline(n)
	case *ast.InExpr:
		return rt.evalIn(n)
	case *ast.MatchExpr:
		return rt.evalMatch(n)
	default:
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "unhandled expression type %T", e)
	}
}

func numLitValue(n *ast.NumLit) value.Value {
	if n.Value == math.Trunc(n.Value) && math.Abs(n.Value) < 1e18 {
		return value.MakeInt(int64(n.Value))
	}
	return value.MakeFlt(n.Value)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (rt *Rtx) evalField(n *ast.FieldExpr) (value.Value, error) {
	idx, err := rt.eval(n.Index)
	if err != nil {
		return value.Value{}, err
	}
	i := int(idx.ToInt())
	if i < 0 {
		return value.Value{}, gem.New(gem.INVAL, loc(n.Position()), "field index %d is negative", i)
	}
	return rt.getField(i), nil
}

func (rt *Rtx) matchRegex(pattern, s string) bool {
	re, err := rt.regex.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func (rt *Rtx) evalBinary(n *ast.BinaryExpr) (value.Value, error) {
	if n.Op == ast.AND {
		l, err := rt.eval(n.Left)
		if err != nil {
			return value.Value{}, err
		}
		if !l.Bool() {
			return value.MakeInt(0), nil
		}
		r, err := rt.eval(n.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.MakeInt(boolInt(r.Bool())), nil
	}
	if n.Op == ast.OR {
		l, err := rt.eval(n.Left)
		if err != nil {
			return value.Value{}, err
		}
		if l.Bool() {
			return value.MakeInt(1), nil
		}
		r, err := rt.eval(n.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.MakeInt(boolInt(r.Bool())), nil
	}

	l, err := rt.eval(n.Left)
	if err != nil {
		return value.Value{}, err
	}
	r, err := rt.eval(n.Right)
	if err != nil {
		return value.Value{}, err
	}

	switch n.Op {
	case ast.ADD:
		return arith(l, r, func(a, b float64) float64 { return a + b }), nil
	case ast.SUB:
		return arith(l, r, func(a, b float64) float64 { return a - b }), nil
	case ast.MUL:
		return arith(l, r, func(a, b float64) float64 { return a * b }), nil
	case ast.DIV:
		rf := r.ToFlt()
		if rf == 0 {
			return value.Value{}, gem.New(gem.INVAL, loc(n.Position()), "division by zero")
		}
		return value.MakeFlt(l.ToFlt() / rf), nil
	case ast.MOD:
		rf := r.ToFlt()
		if rf == 0 {
			return value.Value{}, gem.New(gem.INVAL, loc(n.Position()), "division by zero in %%")
		}
		return value.MakeFlt(math.Mod(l.ToFlt(), rf)), nil
	case ast.POW:
		return value.MakeFlt(math.Pow(l.ToFlt(), r.ToFlt())), nil
	case ast.CONCAT:
		return value.MakeStr(l.ToStr(rt.convfmt()) + r.ToStr(rt.convfmt())), nil
	case ast.LT:
		return value.MakeInt(boolInt(value.Cmp(l, r, rt.convfmt(), rt.ncmpOnStr()) < 0)), nil
	case ast.LE:
		return value.MakeInt(boolInt(value.Cmp(l, r, rt.convfmt(), rt.ncmpOnStr()) <= 0)), nil
	case ast.GT:
		return value.MakeInt(boolInt(value.Cmp(l, r, rt.convfmt(), rt.ncmpOnStr()) > 0)), nil
	case ast.GE:
		return value.MakeInt(boolInt(value.Cmp(l, r, rt.convfmt(), rt.ncmpOnStr()) >= 0)), nil
	case ast.EQ:
		return value.MakeInt(boolInt(value.Cmp(l, r, rt.convfmt(), rt.ncmpOnStr()) == 0)), nil
	case ast.NE:
		return value.MakeInt(boolInt(value.Cmp(l, r, rt.convfmt(), rt.ncmpOnStr()) != 0)), nil
	default:
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "unhandled binary op %v", n.Op)
	}
}

func (rt *Rtx) ncmpOnStr() bool { return rt.traits.Has(traits.NCMPONSTR) }

func arith(l, r value.Value, f func(a, b float64) float64) value.Value {
	res := f(l.ToFlt(), r.ToFlt())
	if res == math.Trunc(res) && !math.IsInf(res, 0) && math.Abs(res) < 1e18 {
		return value.MakeInt(int64(res))
	}
	return value.MakeFlt(res)
}

func (rt *Rtx) evalUnary(n *ast.UnaryExpr) (value.Value, error) {
	v, err := rt.eval(n.Expr)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case ast.NEG:
		f := -v.ToFlt()
		if f == math.Trunc(f) && math.Abs(f) < 1e18 {
			return value.MakeInt(int64(f)), nil
		}
		return value.MakeFlt(f), nil
	case ast.POS:
		return value.MakeFlt(v.ToFlt()), nil
	case ast.NOT:
		return value.MakeInt(boolInt(!v.Bool())), nil
	default:
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "unhandled unary op %v", n.Op)
	}
}

func (rt *Rtx) evalIncDec(n *ast.IncDecExpr) (value.Value, error) {
	old, err := rt.evalLValue(n.Target)
	if err != nil {
		return value.Value{}, err
	}
	delta := 1.0
	if !n.Incr {
		delta = -1.0
	}
	nv := arith(old, value.MakeFlt(delta), func(a, b float64) float64 { return a + b })
	if err := rt.assignLValue(n.Target, nv); err != nil {
		return value.Value{}, err
	}
	if n.Post {
		return old, nil
	}
	return nv, nil
}

func (rt *Rtx) evalLValue(e ast.Expr) (value.Value, error) {
	switch t := e.(type) {
	case *ast.VarExpr:
		return rt.getVar(t, rt.eval)
	case *ast.FieldExpr:
		return rt.evalField(t)
	default:
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "not an lvalue: %T", e)
	}
}

func (rt *Rtx) assignLValue(e ast.Expr, v value.Value) error {
	switch t := e.(type) {
	case *ast.VarExpr:
		return rt.setVar(t, v, rt.eval)
	case *ast.FieldExpr:
		idx, err := rt.eval(t.Index)
		if err != nil {
			return err
		}
		i := int(idx.ToInt())
		if i < 0 {
			return gem.New(gem.INVAL, loc(t.Position()), "field index %d is negative", i)
		}
		rt.setField(i, v)
		return nil
	default:
		return gem.New(gem.INTERN, gem.Loc{}, "not an lvalue: %T", e)
	}
}

func (rt *Rtx) evalTernary(n *ast.TernaryExpr) (value.Value, error) {
	c, err := rt.eval(n.Cond)
	if err != nil {
		return value.Value{}, err
	}
	if c.Bool() {
		return rt.eval(n.Then)
	}
	return rt.eval(n.Else)
}

func (rt *Rtx) evalAssign(n *ast.AssignExpr) (value.Value, error) {
	rhs, err := rt.eval(n.Right)
	if err != nil {
		return value.Value{}, err
	}
	if n.Op == ast.ASSIGN {
		if err := rt.assignLValue(n.Left, rhs); err != nil {
			return value.Value{}, err
		}
		return rhs, nil
	}
	old, err := rt.evalLValue(n.Left)
	if err != nil {
		return value.Value{}, err
	}
	var nv value.Value
	switch n.Op {
	case ast.ADD_ASSIGN:
		nv = arith(old, rhs, func(a, b float64) float64 { return a + b })
	case ast.SUB_ASSIGN:
		nv = arith(old, rhs, func(a, b float64) float64 { return a - b })
	case ast.MUL_ASSIGN:
		nv = arith(old, rhs, func(a, b float64) float64 { return a * b })
	case ast.DIV_ASSIGN:
		rf := rhs.ToFlt()
		if rf == 0 {
			return value.Value{}, gem.New(gem.INVAL, loc(n.Position()), "division by zero")
		}
		nv = value.MakeFlt(old.ToFlt() / rf)
	case ast.MOD_ASSIGN:
		rf := rhs.ToFlt()
		if rf == 0 {
			return value.Value{}, gem.New(gem.INVAL, loc(n.Position()), "division by zero in %%=")
		}
		nv = value.MakeFlt(math.Mod(old.ToFlt(), rf))
	case ast.POW_ASSIGN:
		nv = value.MakeFlt(math.Pow(old.ToFlt(), rhs.ToFlt()))
	default:
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "unhandled assign op %v", n.Op)
	}
	if err := rt.assignLValue(n.Left, nv); err != nil {
		return value.Value{}, err
	}
	return nv, nil
}

func (rt *Rtx) evalConcat(n *ast.ConcatExpr) (value.Value, error) {
	var sb strings.Builder
	for _, e := range n.Exprs {
		v, err := rt.eval(e)
		if err != nil {
			return value.Value{}, err
		}
		sb.WriteString(v.ToStr(rt.convfmt()))
	}
	return value.MakeStr(sb.String()), nil
}

func (rt *Rtx) evalIn(n *ast.InExpr) (value.Value, error) {
	arrExpr, ok := n.Array.(*ast.VarExpr)
	if !ok {
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "in: not a variable")
	}
	key, err := rt.joinIndex(n.Index, rt.eval)
	if err != nil {
		return value.Value{}, err
	}
	m := rt.ensureArraySlot(arrExpr)
	_, ok = m[key]
	return value.MakeInt(boolInt(ok)), nil
}

func (rt *Rtx) evalMatch(n *ast.MatchExpr) (value.Value, error) {
	l, err := rt.eval(n.Left)
	if err != nil {
		return value.Value{}, err
	}
	pat, err := rt.patternString(n.Pattern)
	if err != nil {
		return value.Value{}, err
	}
	matched := rt.matchRegex(pat, l.ToStr(rt.convfmt()))
	if n.Op == ast.NOT_MATCH {
		matched = !matched
	}
	return value.MakeInt(boolInt(matched)), nil
}

// patternString evaluates an expression used as a regex operand: a bare
// RegexLit contributes its literal pattern text directly (so /re/ doesn't
// first evaluate to a match-against-$0 boolean and then get re-parsed as a
// dynamic regex), anything else is stringified and used as a dynamic regex.
func (rt *Rtx) patternString(e ast.Expr) (string, error) {
	if rl, ok := e.(*ast.RegexLit); ok {
		return rl.Pattern, nil
	}
	v, err := rt.eval(e)
	if err != nil {
		return "", err
	}
	return v.ToStr(rt.convfmt()), nil
}

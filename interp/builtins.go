package interp

import (
	"math"
	"math/rand"
	"os"
	"os/exec"
	"strings"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/fmtout"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/module"
	"github.com/hawk-lang/hawk/internal/value"
)

// runShell implements system(command): spawns the configured shell with
// stdio inherited from the embedder, mirroring the teacher's system()
// (run synchronously, return the child's exit status).
func (rt *Rtx) runShell(command string) (int, error) {
	shell := rt.cfg.ShellCommand
	if len(shell) == 0 {
		shell = []string{"/bin/sh", "-c"}
	}
	args := append(append([]string{}, shell[1:]...), command)
	cmd := exec.Command(shell[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = rt.out
	cmd.Stderr = rt.err
	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ee, ok := err.(*exec.ExitError); ok {
		return ee.ExitCode(), nil
	}
	return -1, err
}

// evalCall dispatches a CallExpr: a module-qualified "mod::sym" name goes to
// the module loader, IsBuiltin goes to the intrinsic table below, IsIndirect
// resolves the callee's name dynamically from a variable's current string
// value, and everything else is a user-defined function.
func (rt *Rtx) evalCall(n *ast.CallExpr) (value.Value, error) {
	name := n.Name
	if n.IsIndirect {
		v, err := rt.eval(&ast.VarExpr{Name: n.Name})
		if err != nil {
			return value.Value{}, err
		}
		name = v.ToStr(rt.convfmt())
	}
	if strings.Contains(name, "::") {
		return rt.callModule(name, n.Args)
	}
	if n.IsBuiltin {
		return rt.callBuiltin(name, n.Args)
	}
	if fn, ok := rt.prog.Functions[name]; ok {
		return rt.callFunction(fn, n.Args)
	}
	return value.Value{}, gem.New(gem.NOENT, loc(n.Position()), "call to undefined function %q", name)
}

func (rt *Rtx) callModule(qualified string, argExprs []ast.Expr) (value.Value, error) {
	sym, err := rt.mods.Lookup(rt, qualified)
	if err != nil {
		return value.Value{}, err
	}
	switch sym.Kind {
	case module.SymFunction:
		args, err := rt.evalArgs(argExprs)
		if err != nil {
			return value.Value{}, err
		}
		return sym.Fn(rt, args)
	default:
		return value.MakeInt(sym.Const), nil
	}
}

func (rt *Rtx) evalArgs(exprs []ast.Expr) ([]value.Value, error) {
	out := make([]value.Value, len(exprs))
	for i, e := range exprs {
		v, err := rt.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (rt *Rtx) callBuiltin(name string, args []ast.Expr) (value.Value, error) {
	switch name {
	case "length":
		return rt.builtinLength(args)
	case "substr":
		return rt.builtinSubstr(args)
	case "index":
		return rt.builtinIndex(args)
	case "split":
		return rt.builtinSplit(args)
	case "sprintf":
		return rt.builtinSprintf(args)
	case "match":
		return rt.builtinMatch(args)
	case "sub":
		return rt.builtinSub(args, false)
	case "gsub":
		return rt.builtinSub(args, true)
	case "gensub":
		return rt.builtinGensub(args)
	case "toupper":
		return rt.builtinCase(args, strings.ToUpper)
	case "tolower":
		return rt.builtinCase(args, strings.ToLower)
	case "int":
		v, err := rt.evalOne(args)
		if err != nil {
			return value.Value{}, err
		}
		return value.MakeInt(int64(v.ToFlt())), nil
	case "sin":
		return rt.math1(args, math.Sin)
	case "cos":
		return rt.math1(args, math.Cos)
	case "atan2":
		return rt.math2(args, math.Atan2)
	case "exp":
		return rt.math1(args, math.Exp)
	case "log":
		return rt.math1(args, math.Log)
	case "sqrt":
		return rt.math1(args, math.Sqrt)
	case "rand":
		return value.MakeFlt(rand.Float64()), nil
	case "srand":
		return rt.builtinSrand(args)
	case "close":
		return rt.builtinClose(args)
	case "fflush":
		return rt.builtinFflush(args)
	case "system":
		return rt.builtinSystem(args)
	default:
		return value.Value{}, gem.New(gem.NOENT, gem.Loc{}, "call to undefined builtin %q", name)
	}
}

func (rt *Rtx) evalOne(args []ast.Expr) (value.Value, error) {
	if len(args) == 0 {
		return value.MakeNil(), nil
	}
	return rt.eval(args[0])
}

func (rt *Rtx) builtinLength(args []ast.Expr) (value.Value, error) {
	if len(args) == 0 {
		return value.MakeInt(int64(len(rt.getField(0).ToStr(rt.convfmt())))), nil
	}
	if v, ok := args[0].(*ast.VarExpr); ok && v.Index == nil {
		raw := rt.varSlotValue(v)
		if raw.Kind() == value.Ref {
			raw = raw.Ref().Get()
		}
		if m := raw.Map(); m != nil {
			return value.MakeInt(int64(len(m))), nil
		}
	}
	v, err := rt.eval(args[0])
	if err != nil {
		return value.Value{}, err
	}
	return value.MakeInt(int64(len([]rune(v.ToStr(rt.convfmt()))))), nil
}

func (rt *Rtx) builtinSubstr(args []ast.Expr) (value.Value, error) {
	vs, err := rt.evalArgs(args)
	if err != nil {
		return value.Value{}, err
	}
	if len(vs) < 2 {
		return value.MakeStr(""), nil
	}
	runes := []rune(vs[0].ToStr(rt.convfmt()))
	start := int(vs[1].ToFlt())
	length := len(runes) - start + 1
	if len(vs) >= 3 {
		length = int(vs[2].ToFlt())
	}
	if start < 1 {
		length += start - 1
		start = 1
	}
	if length < 0 {
		length = 0
	}
	startIdx := start - 1
	if startIdx > len(runes) {
		startIdx = len(runes)
	}
	endIdx := startIdx + length
	if endIdx > len(runes) {
		endIdx = len(runes)
	}
	if endIdx < startIdx {
		endIdx = startIdx
	}
	return value.MakeStr(string(runes[startIdx:endIdx])), nil
}

func (rt *Rtx) builtinIndex(args []ast.Expr) (value.Value, error) {
	vs, err := rt.evalArgs(args)
	if err != nil {
		return value.Value{}, err
	}
	if len(vs) < 2 {
		return value.MakeInt(0), nil
	}
	s, sub := vs[0].ToStr(rt.convfmt()), vs[1].ToStr(rt.convfmt())
	i := strings.Index(s, sub)
	if i < 0 {
		return value.MakeInt(0), nil
	}
	return value.MakeInt(int64(len([]rune(s[:i])) + 1)), nil
}

func (rt *Rtx) builtinSplit(args []ast.Expr) (value.Value, error) {
	if len(args) < 2 {
		return value.MakeInt(0), nil
	}
	s, err := rt.eval(args[0])
	if err != nil {
		return value.Value{}, err
	}
	arrVar, ok := args[1].(*ast.VarExpr)
	if !ok {
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "split: second argument is not a variable")
	}
	var parts []string
	if len(args) >= 3 {
		fsv, err := rt.eval(args[2])
		if err != nil {
			return value.Value{}, err
		}
		parts = rt.splitWithFS(s.ToStr(rt.convfmt()), fsv)
	} else {
		parts = rt.splitFields(s.ToStr(rt.convfmt()))
	}
	m := rt.ensureArraySlot(arrVar)
	for k := range m {
		delete(m, k)
	}
	for i, p := range parts {
		m[itoa(i+1)] = recordValue(p, rt.traits)
	}
	return value.MakeInt(int64(len(parts))), nil
}

func (rt *Rtx) splitWithFS(s string, fsv value.Value) []string {
	fs := fsv.ToStr(rt.convfmt())
	switch {
	case fs == " ":
		return strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
	case fs == "":
		out := make([]string, 0, len(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	case len([]rune(fs)) == 1:
		if s == "" {
			return nil
		}
		return strings.Split(s, fs)
	default:
		re, err := rt.regex.Compile(fs)
		if err != nil {
			if s == "" {
				return nil
			}
			return []string{s}
		}
		if s == "" {
			return nil
		}
		return re.Split(s, -1)
	}
}

func (rt *Rtx) builtinSprintf(args []ast.Expr) (value.Value, error) {
	vs, err := rt.evalArgs(args)
	if err != nil {
		return value.Value{}, err
	}
	if len(vs) == 0 {
		return value.MakeStr(""), nil
	}
	return value.MakeStr(fmtout.Sprintf(vs[0].ToStr(rt.convfmt()), vs[1:], rt.convfmt())), nil
}

func (rt *Rtx) builtinMatch(args []ast.Expr) (value.Value, error) {
	if len(args) < 2 {
		return value.MakeInt(0), nil
	}
	s, err := rt.eval(args[0])
	if err != nil {
		return value.Value{}, err
	}
	pat, err := rt.patternString(args[1])
	if err != nil {
		return value.Value{}, err
	}
	re, err := rt.regex.Compile(pat)
	if err != nil {
		rt.specials[ast.V_RSTART] = value.MakeInt(0)
		rt.specials[ast.V_RLENGTH] = value.MakeInt(-1)
		return value.MakeInt(0), nil
	}
	text := s.ToStr(rt.convfmt())
	loc := re.FindStringIndex(text)
	if loc == nil {
		rt.specials[ast.V_RSTART] = value.MakeInt(0)
		rt.specials[ast.V_RLENGTH] = value.MakeInt(-1)
		return value.MakeInt(0), nil
	}
	start := len([]rune(text[:loc[0]])) + 1
	length := len([]rune(text[loc[0]:loc[1]]))
	rt.specials[ast.V_RSTART] = value.MakeInt(int64(start))
	rt.specials[ast.V_RLENGTH] = value.MakeInt(int64(length))
	return value.MakeInt(1), nil
}

func (rt *Rtx) builtinSub(args []ast.Expr, global bool) (value.Value, error) {
	if len(args) < 2 {
		return value.MakeInt(0), nil
	}
	pat, err := rt.patternString(args[0])
	if err != nil {
		return value.Value{}, err
	}
	repl, err := rt.eval(args[1])
	if err != nil {
		return value.Value{}, err
	}
	target := ast.Expr(&ast.FieldExpr{Index: &ast.NumLit{Value: 0}})
	if len(args) >= 3 {
		target = args[2]
	}
	cur, err := rt.evalLValue(target)
	if err != nil {
		return value.Value{}, err
	}
	re, err := rt.regex.Compile(pat)
	if err != nil {
		return value.MakeInt(0), nil
	}
	count := 0
	text := cur.ToStr(rt.convfmt())
	replStr := repl.ToStr(rt.convfmt())
	out := re.ReplaceAllFunc(text, func(match string) string {
		if !global && count >= 1 {
			return match
		}
		count++
		return expandAmp(replStr, match)
	})
	if count == 0 {
		return value.MakeInt(0), nil
	}
	if err := rt.assignLValue(target, value.MakeStr(out)); err != nil {
		return value.Value{}, err
	}
	return value.MakeInt(int64(count)), nil
}

func (rt *Rtx) builtinGensub(args []ast.Expr) (value.Value, error) {
	if len(args) < 3 {
		return value.MakeStr(""), nil
	}
	pat, err := rt.patternString(args[0])
	if err != nil {
		return value.Value{}, err
	}
	repl, err := rt.eval(args[1])
	if err != nil {
		return value.Value{}, err
	}
	howV, err := rt.eval(args[2])
	if err != nil {
		return value.Value{}, err
	}
	text := rt.getField(0).ToStr(rt.convfmt())
	if len(args) >= 4 {
		srcV, err := rt.eval(args[3])
		if err != nil {
			return value.Value{}, err
		}
		text = srcV.ToStr(rt.convfmt())
	}
	re, err := rt.regex.Compile(pat)
	if err != nil {
		return value.MakeStr(text), nil
	}
	how := strings.ToLower(strings.TrimSpace(howV.ToStr(rt.convfmt())))
	global := how == "g"
	nth := 0
	if !global {
		nth = int(howV.ToFlt())
		if nth < 1 {
			nth = 1
		}
	}
	replStr := repl.ToStr(rt.convfmt())
	count := 0
	out := re.ReplaceAllFunc(text, func(match string) string {
		count++
		if global || count == nth {
			return expandAmp(replStr, match)
		}
		return match
	})
	return value.MakeStr(out), nil
}

// expandAmp implements sub/gsub/gensub's replacement-text contract: an
// unescaped & is replaced by the matched text, \& is a literal &.
func expandAmp(repl, match string) string {
	var sb strings.Builder
	for i := 0; i < len(repl); i++ {
		switch repl[i] {
		case '&':
			sb.WriteString(match)
		case '\\':
			if i+1 < len(repl) && (repl[i+1] == '&' || repl[i+1] == '\\') {
				sb.WriteByte(repl[i+1])
				i++
			} else {
				sb.WriteByte('\\')
			}
		default:
			sb.WriteByte(repl[i])
		}
	}
	return sb.String()
}

func (rt *Rtx) builtinCase(args []ast.Expr, f func(string) string) (value.Value, error) {
	v, err := rt.evalOne(args)
	if err != nil {
		return value.Value{}, err
	}
	return value.MakeStr(f(v.ToStr(rt.convfmt()))), nil
}

func (rt *Rtx) math1(args []ast.Expr, f func(float64) float64) (value.Value, error) {
	v, err := rt.evalOne(args)
	if err != nil {
		return value.Value{}, err
	}
	return value.MakeFlt(f(v.ToFlt())), nil
}

func (rt *Rtx) math2(args []ast.Expr, f func(float64, float64) float64) (value.Value, error) {
	vs, err := rt.evalArgs(args)
	if err != nil {
		return value.Value{}, err
	}
	var a, b float64
	if len(vs) > 0 {
		a = vs[0].ToFlt()
	}
	if len(vs) > 1 {
		b = vs[1].ToFlt()
	}
	return value.MakeFlt(f(a, b)), nil
}

var lastSeed int64 = 1

func (rt *Rtx) builtinSrand(args []ast.Expr) (value.Value, error) {
	prev := lastSeed
	if len(args) == 0 {
		lastSeed = int64(1) // caller-observable but not wall-clock: Rtx never calls time.Now
	} else {
		v, err := rt.eval(args[0])
		if err != nil {
			return value.Value{}, err
		}
		lastSeed = v.ToInt()
	}
	rand.Seed(lastSeed)
	return value.MakeInt(prev), nil
}

func (rt *Rtx) builtinClose(args []ast.Expr) (value.Value, error) {
	v, err := rt.evalOne(args)
	if err != nil {
		return value.Value{}, err
	}
	return value.MakeInt(int64(rt.rio.Close(v.ToStr(rt.convfmt())))), nil
}

func (rt *Rtx) builtinFflush(args []ast.Expr) (value.Value, error) {
	name := ""
	if len(args) > 0 {
		v, err := rt.eval(args[0])
		if err != nil {
			return value.Value{}, err
		}
		name = v.ToStr(rt.convfmt())
	}
	return value.MakeInt(int64(rt.rio.Flush(name))), nil
}

func (rt *Rtx) builtinSystem(args []ast.Expr) (value.Value, error) {
	if rt.cfg.NoExec {
		return value.MakeInt(-1), nil
	}
	v, err := rt.evalOne(args)
	if err != nil {
		return value.Value{}, err
	}
	rt.rio.Flush("")
	code, err := rt.runShell(v.ToStr(rt.convfmt()))
	if err != nil {
		return value.MakeInt(-1), nil
	}
	return value.MakeInt(int64(code)), nil
}

package interp

import (
	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/value"
)

const maxCallDepth = 1000

// callFunction invokes a user-defined function: each parameter slot in the
// callee's flat frame either receives a copied scalar (ParamValue) or a
// value.Ref aliasing the caller's array storage directly (ParamArray), per
// the design's "reference parameters can be passed only for l-values" rule.
// Extra formal parameters with no matching argument default to an
// uninitialized scalar/array, matching classic AWK's "locals via excess
// params" idiom.
func (rt *Rtx) callFunction(fn *ast.Function, argExprs []ast.Expr) (value.Value, error) {
	if rt.callDepth >= maxCallDepth {
		return value.Value{}, gem.New(gem.STACKOV, gem.Loc{}, "call stack exceeds maximum depth in %q", fn.Name)
	}

	newFrame := make([]value.Value, fn.NumLocals)
	for i, p := range fn.Params {
		if i >= len(argExprs) {
			if p.Mode == ast.ParamArray {
				newFrame[i] = value.MakeArray(4)
			}
			continue
		}
		arg := argExprs[i]
		if p.Mode == ast.ParamArray {
			av, ok := arg.(*ast.VarExpr)
			if !ok {
				return value.Value{}, gem.New(gem.INVAL, loc(arg.Position()), "argument %d to %q must be an array", i+1, fn.Name)
			}
			newFrame[i] = rt.arrayRef(av)
			continue
		}
		v, err := rt.eval(arg)
		if err != nil {
			return value.Value{}, err
		}
		newFrame[i] = v.CopyForStore(false)
	}

	savedFrame, savedMode := rt.frame, rt.frameMode
	rt.frame = newFrame
	rt.frameMode = paramModes(fn.Params)
	rt.callDepth++

	err := rt.execBlock(fn.Body)

	rt.callDepth--
	rt.frame, rt.frameMode = savedFrame, savedMode

	if err == nil {
		return value.MakeNil(), nil
	}
	if sig, ok := asCtl(err); ok && sig.kind == ctlReturn {
		return sig.value, nil
	}
	return value.Value{}, err
}

func paramModes(params []ast.Param) []ast.ParamMode {
	modes := make([]ast.ParamMode, len(params))
	for i, p := range params {
		modes[i] = p.Mode
	}
	return modes
}

// Call invokes a named user-defined function from outside the script (the
// rtx_call entry point the embedding surface exposes): args are values
// already in hand, not expressions, so no caller variable is bound by
// reference. A scalar parameter gets a copy of its argument; an array
// parameter gets the given array value itself, sharing its map with the
// caller's Value, so the function's changes to it are visible there.
func (rt *Rtx) Call(name string, args ...value.Value) (value.Value, error) {
	fn, ok := rt.prog.Functions[name]
	if !ok {
		return value.Value{}, gem.New(gem.NOENT, gem.Loc{}, "call to undefined function %q", name)
	}
	if rt.callDepth >= maxCallDepth {
		return value.Value{}, gem.New(gem.STACKOV, gem.Loc{}, "call stack exceeds maximum depth in %q", fn.Name)
	}

	newFrame := make([]value.Value, fn.NumLocals)
	for i, p := range fn.Params {
		if i >= len(args) {
			if p.Mode == ast.ParamArray {
				newFrame[i] = value.MakeArray(4)
			}
			continue
		}
		if p.Mode == ast.ParamArray {
			newFrame[i] = args[i].CopyForStore(true)
			continue
		}
		newFrame[i] = args[i].CopyForStore(false)
	}

	savedFrame, savedMode := rt.frame, rt.frameMode
	rt.frame = newFrame
	rt.frameMode = paramModes(fn.Params)
	rt.callDepth++

	err := rt.execBlock(fn.Body)

	rt.callDepth--
	rt.frame, rt.frameMode = savedFrame, savedMode

	if err == nil {
		return value.MakeNil(), nil
	}
	if sig, ok := asCtl(err); ok && sig.kind == ctlReturn {
		return sig.value, nil
	}
	return value.Value{}, err
}

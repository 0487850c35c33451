package interp

import (
	"strings"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/internal/value"
)

// getSpecial reads a built-in special variable by its ast.V_* index.
func (rt *Rtx) getSpecial(idx int) value.Value {
	if idx == ast.V_NF {
		rt.ensureFields()
	}
	return rt.specials[idx]
}

// setSpecial writes a built-in special variable, handling the side effects
// the design attaches to a handful of them (NF re-joins $0; assigning FS
// clears fsRegex).
func (rt *Rtx) setSpecial(idx int, v value.Value) {
	switch idx {
	case ast.V_NF:
		rt.ensureFields()
		rt.setNF(int(v.ToInt()))
		return
	case ast.V_FS:
		rt.fsRegex = nil
	}
	rt.specials[idx] = v
}

// subsep returns the current SUBSEP value for joining multi-dimensional
// array subscripts.
func (rt *Rtx) subsep() string {
	return rt.specials[ast.V_SUBSEP].ToStr(rt.convfmt())
}

func (rt *Rtx) convfmt() string { return rt.specials[ast.V_CONVFMT].ToStr("%.6g") }
func (rt *Rtx) ofmt() string    { return rt.specials[ast.V_OFMT].ToStr("%.6g") }

func (rt *Rtx) rsString() string { return rt.specials[ast.V_RS].ToStr(rt.convfmt()) }
func (rt *Rtx) fsString() string { return rt.specials[ast.V_FS].ToStr(rt.convfmt()) }
func (rt *Rtx) ofsString() string { return rt.specials[ast.V_OFS].ToStr(rt.convfmt()) }
func (rt *Rtx) orsString() string { return rt.specials[ast.V_ORS].ToStr(rt.convfmt()) }

// joinIndex joins a multi-dimensional subscript list into one map key,
// evaluating each index expression with eval (the eval.go dispatcher).
func (rt *Rtx) joinIndex(exprs []ast.Expr, eval func(ast.Expr) (value.Value, error)) (string, error) {
	if len(exprs) == 1 {
		v, err := eval(exprs[0])
		if err != nil {
			return "", err
		}
		return v.ToStr(rt.convfmt()), nil
	}
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		v, err := eval(e)
		if err != nil {
			return "", err
		}
		parts[i] = v.ToStr(rt.convfmt())
	}
	return strings.Join(parts, rt.subsep()), nil
}

// varSlot is a value.Slot over a (possibly indexed) VarExpr. Nothing in
// this package constructs one: by-reference array parameters use
// directSlot, and getline assigns its target through assignLValue.
type varSlot struct {
	rt  *Rtx
	v   *ast.VarExpr
	key string // non-empty when v.Index != nil (array element)
}

func (s varSlot) Get() value.Value { return s.rt.getVarKeyed(s.v, s.key) }
func (s varSlot) Set(v value.Value) { s.rt.setVarKeyed(s.v, s.key, v) }

// getVar reads a (possibly indexed) variable reference.
func (rt *Rtx) getVar(v *ast.VarExpr, eval func(ast.Expr) (value.Value, error)) (value.Value, error) {
	key := ""
	if v.Index != nil {
		k, err := rt.joinIndex(v.Index, eval)
		if err != nil {
			return value.Value{}, err
		}
		key = k
	}
	return rt.getVarKeyed(v, key), nil
}

func (rt *Rtx) getVarKeyed(v *ast.VarExpr, key string) value.Value {
	container := rt.varSlotValue(v)
	if v.Index == nil {
		if container.Kind() == value.Ref {
			return container.Ref().Get()
		}
		return container
	}
	if container.Kind() == value.Ref {
		container = container.Ref().Get()
	}
	m := container.Map()
	if m == nil {
		return value.MakeNil()
	}
	return m[key]
}

func (rt *Rtx) setVar(v *ast.VarExpr, val value.Value, eval func(ast.Expr) (value.Value, error)) error {
	key := ""
	if v.Index != nil {
		k, err := rt.joinIndex(v.Index, eval)
		if err != nil {
			return err
		}
		key = k
	}
	rt.setVarKeyed(v, key, val)
	return nil
}

func (rt *Rtx) setVarKeyed(v *ast.VarExpr, key string, val value.Value) {
	if v.Index == nil {
		rt.storeVarSlot(v, val)
		return
	}
	container := rt.varSlotValue(v)
	if container.Kind() == value.Ref {
		container = container.Ref().Get()
	}
	m := container.Map()
	if m == nil {
		container = value.MakeArray(4)
		rt.storeVarSlot(v, container)
		m = container.Map()
	}
	m[key] = val.CopyForStore(false)
}

// varSlotValue returns the raw value currently stored in v's scope slot
// (without indexing), auto-vivifying arrays on first reference.
func (rt *Rtx) varSlotValue(v *ast.VarExpr) value.Value {
	switch v.Scope {
	case ast.ScopeSpecial:
		return rt.getSpecial(v.Num)
	case ast.ScopeGlobal:
		rt.ensureGlobalSlot(v.Num)
		slot := rt.globals[v.Num]
		if v.Index != nil && slot.Kind() != value.Array && slot.Kind() != value.Map && slot.Kind() != value.Ref {
			slot = value.MakeArray(4)
			rt.globals[v.Num] = slot
		}
		return rt.globals[v.Num]
	case ast.ScopeArg:
		slot := rt.frame[v.Num]
		if v.Index != nil && slot.Kind() != value.Array && slot.Kind() != value.Map && slot.Kind() != value.Ref {
			slot = value.MakeArray(4)
			rt.frame[v.Num] = slot
		}
		return rt.frame[v.Num]
	default:
		return value.MakeNil()
	}
}

func (rt *Rtx) storeVarSlot(v *ast.VarExpr, val value.Value) {
	switch v.Scope {
	case ast.ScopeSpecial:
		rt.setSpecial(v.Num, val)
	case ast.ScopeGlobal:
		rt.ensureGlobalSlot(v.Num)
		if rt.globals[v.Num].Kind() == value.Ref {
			rt.globals[v.Num].Ref().Set(val)
			return
		}
		rt.globals[v.Num] = val.CopyForStore(rt.traits.Has(traits.FLEXMAP))
	case ast.ScopeArg:
		if rt.frame[v.Num].Kind() == value.Ref {
			rt.frame[v.Num].Ref().Set(val)
			return
		}
		rt.frame[v.Num] = val.CopyForStore(rt.traits.Has(traits.FLEXMAP))
	}
}

// arrayRef builds a value.Ref that points directly at v's storage slot, used
// to pass an array by reference into a user function call.
func (rt *Rtx) arrayRef(v *ast.VarExpr) value.Value {
	return value.MakeRef(directSlot{rt: rt, v: v})
}

type directSlot struct {
	rt *Rtx
	v  *ast.VarExpr
}

func (s directSlot) Get() value.Value {
	switch s.v.Scope {
	case ast.ScopeSpecial:
		return s.rt.getSpecial(s.v.Num)
	case ast.ScopeGlobal:
		s.rt.ensureGlobalSlot(s.v.Num)
		v := s.rt.globals[s.v.Num]
		if v.Kind() == value.Ref {
			return v.Ref().Get()
		}
		return v
	case ast.ScopeArg:
		v := s.rt.frame[s.v.Num]
		if v.Kind() == value.Ref {
			return v.Ref().Get()
		}
		return v
	default:
		return value.MakeNil()
	}
}

func (s directSlot) Set(val value.Value) {
	switch s.v.Scope {
	case ast.ScopeSpecial:
		s.rt.setSpecial(s.v.Num, val)
	case ast.ScopeGlobal:
		s.rt.ensureGlobalSlot(s.v.Num)
		s.rt.globals[s.v.Num] = val
	case ast.ScopeArg:
		s.rt.frame[s.v.Num] = val
	}
}

// ensureArraySlot auto-vivifies v's storage as an empty array if it is
// currently nil, and returns the live map so a caller (e.g. for-in, delete,
// in) can range/mutate it directly.
func (rt *Rtx) ensureArraySlot(v *ast.VarExpr) map[string]value.Value {
	raw := rt.varSlotValue(v)
	if raw.Kind() == value.Ref {
		raw = raw.Ref().Get()
	}
	if m := raw.Map(); m != nil {
		return m
	}
	arr := value.MakeArray(4)
	rt.storeVarSlot(v, arr)
	return arr.Map()
}

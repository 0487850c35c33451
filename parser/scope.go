package parser

import "github.com/hawk-lang/hawk/internal/ast"

// resolveVar classifies name as ScopeSpecial, ScopeArg or ScopeGlobal.
// Special variables (NF, NR, ...) always resolve to ScopeSpecial
// regardless of context; ARGV/ENVIRON are ordinary global arrays, not
// specials. Inside a function body, a name that matches a parameter
// resolves to ScopeArg; every other name is a global, auto-declared on
// first sight. The IMPLICIT and STRICTNAMING traits are not consulted:
// an undeclared name is accepted whether IMPLICIT is on or off, and
// identifiers are not checked against STRICTNAMING.
func (p *Parser) resolveVar(name string, pos ast.Pos) *ast.VarExpr {
	if idx := ast.SpecialIndex(name); idx != 0 {
		v := &ast.VarExpr{Name: name, Scope: ast.ScopeSpecial, Num: idx}
		v.Pos = pos
		return v
	}
	if p.curFunc != nil {
		if idx, ok := p.curFunc.locals[name]; ok {
			v := &ast.VarExpr{Name: name, Scope: ast.ScopeArg, Num: idx}
			v.Pos = pos
			return v
		}
	}
	idx := p.declareGlobal(name)
	v := &ast.VarExpr{Name: name, Scope: ast.ScopeGlobal, Num: idx}
	v.Pos = pos
	return v
}

// markArray records that name (already resolved) is used as an array
// (indexed, passed to an array-mode parameter, or the subject of a
// for-in/delete). Needed to fill in Function.Params[i].Mode and
// Program.Arrays after the fact, since Hawk infers array-ness from usage
// rather than requiring a declaration.
func (p *Parser) markArray(v *ast.VarExpr) {
	switch v.Scope {
	case ast.ScopeGlobal:
		for name, idx := range p.globalIdx {
			if idx == v.Num {
				p.prog.Arrays[name] = true
			}
		}
	case ast.ScopeArg:
		if p.curFunc != nil {
			for _, name := range p.curFunc.order {
				if p.curFunc.locals[name] == v.Num {
					p.curFunc.isArray[name] = true
				}
			}
		}
	}
}

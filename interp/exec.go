package interp

import (
	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/value"
)

// Control-flow is modeled as distinguished sentinel errors rather than a
// host-language exception mechanism, following both the teacher (goawk's
// errNext/errBreak/errExit) and fioriandrea/aawk's interpreter (read in
// full from other_examples) which uses the identical pattern for a
// tree-walker. execBlock/execStmt propagate these up to the nearest
// handler (loop, function call, or the main loop itself).
type ctlKind int

const (
	ctlNone ctlKind = iota
	ctlBreak
	ctlContinue
	ctlNext
	ctlNextFile
	ctlNextOFile
	ctlReturn
	ctlExit
	ctlAbort
)

type ctlSignal struct {
	kind   ctlKind
	value  value.Value // ctlReturn's value
	status int         // ctlExit/ctlAbort's status
	hasSt  bool
}

func (c *ctlSignal) Error() string { return "control flow signal (not a real error)" }

var (
	sigBreak    = &ctlSignal{kind: ctlBreak}
	sigContinue = &ctlSignal{kind: ctlContinue}
	sigNext     = &ctlSignal{kind: ctlNext}
	sigNextFile = &ctlSignal{kind: ctlNextFile}
	sigNextOFile = &ctlSignal{kind: ctlNextOFile}
)

func asCtl(err error) (*ctlSignal, bool) {
	c, ok := err.(*ctlSignal)
	return c, ok
}

// errHalted is returned from deep inside the evaluator once Halt() has been
// observed at a safe point, and unwinds exactly like an exit with no status.
var errHalted = &ctlSignal{kind: ctlExit}

func (rt *Rtx) checkHalt() error {
	if rt.haltRequested() {
		return errHalted
	}
	return nil
}

// execBlock runs a block's statements in order, enforcing the block-depth
// recursion bound (DEPTH_BLOCK_RUN).
func (rt *Rtx) execBlock(b *ast.BlockStmt) error {
	rt.blockDep++
	defer func() { rt.blockDep-- }()
	if rt.blockDep > rt.cfg.DepthBlockRun {
		return gem.New(gem.STACKOV, loc(b.Position()), "block nesting exceeds maximum depth")
	}
	for _, s := range b.Stmts {
		if err := rt.execStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func loc(p ast.Pos) gem.Loc { return gem.Loc{File: p.File, Line: p.Line, Column: p.Column} }

func (rt *Rtx) execStmt(s ast.Stmt) error {
	if err := rt.checkHalt(); err != nil {
		return err
	}
	switch n := s.(type) {
	case *ast.BlockStmt:
		return rt.execBlock(n)
	case *ast.ExprStmt:
		_, err := rt.eval(n.Expr)
		return err
	case *ast.PrintStmt:
		return rt.execPrint(n)
	case *ast.IfStmt:
		return rt.execIf(n)
	case *ast.WhileStmt:
		return rt.execWhile(n)
	case *ast.DoWhileStmt:
		return rt.execDoWhile(n)
	case *ast.ForStmt:
		return rt.execFor(n)
	case *ast.ForInStmt:
		return rt.execForIn(n)
	case *ast.BreakStmt:
		return sigBreak
	case *ast.ContinueStmt:
		return sigContinue
	case *ast.NextStmt:
		return sigNext
	case *ast.NextFileStmt:
		return sigNextFile
	case *ast.NextOFileStmt:
		return sigNextOFile
	case *ast.ReturnStmt:
		return rt.execReturn(n)
	case *ast.ExitStmt:
		return rt.execExit(n)
	case *ast.AbortStmt:
		return rt.execAbort(n)
	case *ast.DeleteStmt:
		return rt.execDelete(n)
	case *ast.ResetStmt:
		return rt.execReset(n)
	default:
		return gem.New(gem.INTERN, gem.Loc{}, "unhandled statement type %T", s)
	}
}

func (rt *Rtx) execIf(n *ast.IfStmt) error {
	cond, err := rt.eval(n.Cond)
	if err != nil {
		return err
	}
	if cond.Bool() {
		return rt.execStmt(n.Then)
	}
	if n.Else != nil {
		return rt.execStmt(n.Else)
	}
	return nil
}

func (rt *Rtx) execWhile(n *ast.WhileStmt) error {
	for {
		cond, err := rt.eval(n.Cond)
		if err != nil {
			return err
		}
		if !cond.Bool() {
			return nil
		}
		if err := rt.execStmt(n.Body); err != nil {
			if c, ok := asCtl(err); ok {
				if c.kind == ctlBreak {
					return nil
				}
				if c.kind == ctlContinue {
					continue
				}
			}
			return err
		}
	}
}

func (rt *Rtx) execDoWhile(n *ast.DoWhileStmt) error {
	for {
		if err := rt.execStmt(n.Body); err != nil {
			if c, ok := asCtl(err); ok {
				if c.kind == ctlBreak {
					return nil
				}
				if c.kind != ctlContinue {
					return err
				}
			} else {
				return err
			}
		}
		cond, err := rt.eval(n.Cond)
		if err != nil {
			return err
		}
		if !cond.Bool() {
			return nil
		}
	}
}

func (rt *Rtx) execFor(n *ast.ForStmt) error {
	if n.Init != nil {
		if err := rt.execStmt(n.Init); err != nil {
			return err
		}
	}
	for {
		if n.Cond != nil {
			cond, err := rt.eval(n.Cond)
			if err != nil {
				return err
			}
			if !cond.Bool() {
				return nil
			}
		}
		if err := rt.execStmt(n.Body); err != nil {
			if c, ok := asCtl(err); ok {
				if c.kind == ctlBreak {
					return nil
				}
				if c.kind != ctlContinue {
					return err
				}
			} else {
				return err
			}
		}
		if n.Post != nil {
			if err := rt.execStmt(n.Post); err != nil {
				return err
			}
		}
	}
}

func (rt *Rtx) execForIn(n *ast.ForInStmt) error {
	arrExpr, ok := n.Array.(*ast.VarExpr)
	if !ok {
		return gem.New(gem.INTERN, gem.Loc{}, "for-in target is not a variable")
	}
	m := rt.ensureArraySlot(arrExpr)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if _, still := m[k]; !still {
			continue // deleted mid-iteration
		}
		rt.setVarKeyed(n.VarExpr, "", value.MakeStr(k))
		if err := rt.execStmt(n.Body); err != nil {
			if c, ok := asCtl(err); ok {
				if c.kind == ctlBreak {
					return nil
				}
				if c.kind == ctlContinue {
					continue
				}
			}
			return err
		}
	}
	return nil
}

func (rt *Rtx) execReturn(n *ast.ReturnStmt) error {
	sig := &ctlSignal{kind: ctlReturn}
	if n.Value != nil {
		v, err := rt.eval(n.Value)
		if err != nil {
			return err
		}
		sig.value = v
	}
	return sig
}

func (rt *Rtx) execExit(n *ast.ExitStmt) error {
	sig := &ctlSignal{kind: ctlExit}
	if n.Status != nil {
		v, err := rt.eval(n.Status)
		if err != nil {
			return err
		}
		sig.status = int(v.ToInt())
		sig.hasSt = true
	}
	return sig
}

func (rt *Rtx) execAbort(n *ast.AbortStmt) error {
	sig := &ctlSignal{kind: ctlAbort}
	if n.Status != nil {
		v, err := rt.eval(n.Status)
		if err != nil {
			return err
		}
		sig.status = int(v.ToInt())
		sig.hasSt = true
	}
	return sig
}

func (rt *Rtx) execDelete(n *ast.DeleteStmt) error {
	v, ok := n.Array.(*ast.VarExpr)
	if !ok {
		return gem.New(gem.INTERN, gem.Loc{}, "delete target is not a variable")
	}
	if n.Index == nil {
		m := rt.ensureArraySlot(v)
		for k := range m {
			delete(m, k)
		}
		return nil
	}
	key, err := rt.joinIndex(n.Index, rt.eval)
	if err != nil {
		return err
	}
	m := rt.ensureArraySlot(v)
	delete(m, key)
	return nil
}

// execReset implements @reset a: like whole-array delete but also
// guaranteed to keep the same backing map identity, so references handed
// out via a by-reference array parameter observe the clear (an Open
// Question the design leaves unresolved is here decided in favor of
// "same identity" to match delete's own in-place semantics).
func (rt *Rtx) execReset(n *ast.ResetStmt) error {
	v, ok := n.Array.(*ast.VarExpr)
	if !ok {
		return gem.New(gem.INTERN, gem.Loc{}, "reset target is not a variable")
	}
	m := rt.ensureArraySlot(v)
	for k := range m {
		delete(m, k)
	}
	return nil
}

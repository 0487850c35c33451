package interp

import (
	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/value"
)

// Run executes the bound program's BEGIN rules, then (if the program
// references input at all) walks the implicit file list running pattern
// rules per record, then the END rules — POSIX AWK's classic three-phase
// main loop, extended with BEGINFILE/ENDFILE and Hawk's abort statement
// (which skips END entirely, unlike exit).
//
// Grounded on fioriandrea/aawk's run/runBegins/runNormals/runEnds
// structure (read in full from other_examples): a rangematched sticky-state
// map keyed by rule index for range patterns, and exit/next/nextfile
// modeled as errors unwound by the statement executor rather than special
// return values threaded through every call.
func (rt *Rtx) Run() (status int, err error) {
	exited := false
	exitStatus := 0

	if err := rt.runPhase(ast.PatternBegin); err != nil {
		if sig, ok := asCtl(err); ok {
			switch sig.kind {
			case ctlExit:
				exited = true
				if sig.hasSt {
					exitStatus = sig.status
				}
			case ctlAbort:
				if sig.hasSt {
					return sig.status, nil
				}
				return 1, nil
			default:
				return 0, err
			}
		} else {
			return 0, err
		}
	}

	if !exited && rt.needsMainLoop() {
		if err := rt.runMainLoop(); err != nil {
			if sig, ok := asCtl(err); ok {
				switch sig.kind {
				case ctlExit:
					exited = true
					if sig.hasSt {
						exitStatus = sig.status
					}
				case ctlAbort:
					if sig.hasSt {
						return sig.status, nil
					}
					return 1, nil
				default:
					return 0, err
				}
			} else {
				return 0, err
			}
		}
	}

	if err := rt.runPhase(ast.PatternEnd); err != nil {
		if sig, ok := asCtl(err); ok {
			switch sig.kind {
			case ctlExit:
				if sig.hasSt {
					exitStatus = sig.status
				}
			case ctlAbort:
				if sig.hasSt {
					return sig.status, nil
				}
				return 1, nil
			default:
				return 0, err
			}
		} else {
			return 0, err
		}
	}

	rt.rio.Flush("")
	return exitStatus, nil
}

// needsMainLoop reports whether the program has anything that consumes
// input records: any rule besides a bare BEGIN, which lets a BEGIN-only
// script (e.g. a one-shot calculator) skip reading stdin entirely.
func (rt *Rtx) needsMainLoop() bool {
	for _, r := range rt.prog.Rules {
		if r.Pattern.Kind != ast.PatternBegin {
			return true
		}
	}
	return false
}

func (rt *Rtx) runPhase(kind ast.PatternKind) error {
	for _, r := range rt.prog.Rules {
		if r.Pattern.Kind != kind {
			continue
		}
		if err := rt.execBlock(r.Body); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Rtx) runMainLoop() error {
	curFile := ""
	fileOpen := false
	for {
		text, _, newFile, ok, err := rt.console.NextRecord()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if newFile {
			if fileOpen {
				if err := rt.runPhase(ast.PatternEndFile); err != nil {
					return err
				}
			}
			curFile = rt.console.Filename()
			rt.specials[ast.V_FILENAME] = value.MakeStr(curFile)
			rt.resetFNR()
			fileOpen = true
			if err := rt.runPhase(ast.PatternBeginFile); err != nil {
				return err
			}
		}
		rt.bumpNR()
		rt.setRecord(text)

		if err := rt.runRecordRules(); err != nil {
			if sig, ok := asCtl(err); ok && sig.kind == ctlNextFile {
				fileOpen = false
				if ferr := rt.runPhase(ast.PatternEndFile); ferr != nil {
					return ferr
				}
				rt.console.Close()
				continue
			}
			if sig, ok := asCtl(err); ok && sig.kind == ctlNextOFile {
				rt.rio.Flush("")
				continue
			}
			return err
		}
	}
	if fileOpen {
		if err := rt.runPhase(ast.PatternEndFile); err != nil {
			return err
		}
	}
	return nil
}

func (rt *Rtx) resetFNR() {
	rt.specials[ast.V_FNR] = value.MakeInt(0)
}

func (rt *Rtx) bumpNR() {
	rt.specials[ast.V_NR] = value.MakeInt(rt.specials[ast.V_NR].ToInt() + 1)
	rt.specials[ast.V_FNR] = value.MakeInt(rt.specials[ast.V_FNR].ToInt() + 1)
}

// runRecordRules evaluates every non-BEGIN/END/BEGINFILE/ENDFILE rule
// against the current record, in source order, honoring next (abandon
// remaining rules for this record) at the execStmt level via the
// sigNext sentinel bubbling up from execBlock.
func (rt *Rtx) runRecordRules() error {
	for i, r := range rt.prog.Rules {
		switch r.Pattern.Kind {
		case ast.PatternBegin, ast.PatternEnd, ast.PatternBeginFile, ast.PatternEndFile:
			continue
		}
		matched, err := rt.patternMatches(i, &r.Pattern)
		if err != nil {
			return err
		}
		if !matched {
			continue
		}
		if err := rt.execBlock(r.Body); err != nil {
			if sig, ok := asCtl(err); ok && sig.kind == ctlNext {
				return nil
			}
			return err
		}
	}
	return nil
}

func (rt *Rtx) patternMatches(ruleIdx int, p *ast.Pattern) (bool, error) {
	switch p.Kind {
	case ast.PatternAlways:
		return true, nil
	case ast.PatternExpr:
		v, err := rt.eval(p.Expr)
		if err != nil {
			return false, err
		}
		return v.Bool(), nil
	case ast.PatternRange:
		return rt.rangePatternMatches(ruleIdx, p)
	default:
		return false, nil
	}
}

func (rt *Rtx) rangePatternMatches(ruleIdx int, p *ast.Pattern) (bool, error) {
	if rt.rangeActive[ruleIdx] {
		stop, err := rt.eval(p.Stop)
		if err != nil {
			return false, err
		}
		if stop.Bool() {
			rt.rangeActive[ruleIdx] = false
		}
		return true, nil
	}
	start, err := rt.eval(p.Start)
	if err != nil {
		return false, err
	}
	if !start.Bool() {
		return false, nil
	}
	stop, err := rt.eval(p.Stop)
	if err != nil {
		return false, err
	}
	if !stop.Bool() {
		rt.rangeActive[ruleIdx] = true
	}
	return true, nil
}

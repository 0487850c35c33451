package interp

import (
	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/rio"
	"github.com/hawk-lang/hawk/internal/value"
)

// evalGetline implements all six getline forms. Each form's effect on
// NR/FNR/$0/NF is precise and differs by source (plain AWK semantics,
// carried unchanged by the design):
//
//	getline            -> $0,NF,NR,FNR all update
//	getline var        -> var,NR,FNR update; $0/NF untouched
//	getline <file      -> $0,NF update only; NR/FNR untouched
//	getline var <file  -> var only; NR/FNR/$0/NF untouched
//	cmd | getline       -> $0,NF,NR update; FNR untouched
//	cmd | getline var   -> var,NR update; $0/NF/FNR untouched
//	cmd |& getline [var] -> same as the pipe form, over a bidirectional channel
//
// Return value: 1 on a record read, 0 on end of input, -1 on an I/O error.
func (rt *Rtx) evalGetline(n *ast.GetlineExpr) (value.Value, error) {
	switch n.Source {
	case ast.GetlineMain:
		return rt.getlineMain(n)
	case ast.GetlineFile:
		return rt.getlineChannel(n, rio.KindFile, false)
	case ast.GetlinePipe:
		return rt.getlineChannel(n, rio.KindPipe, true)
	case ast.GetlineRWPipe:
		return rt.getlineChannel(n, rio.KindRWPipe, true)
	default:
		return value.Value{}, gem.New(gem.INTERN, gem.Loc{}, "unhandled getline source %v", n.Source)
	}
}

func (rt *Rtx) getlineMain(n *ast.GetlineExpr) (value.Value, error) {
	text, rt0, newFile, ok, err := rt.console.NextRecord()
	if err != nil {
		return value.MakeInt(-1), nil
	}
	if !ok {
		return value.MakeInt(0), nil
	}
	if newFile {
		rt.specials[ast.V_FILENAME] = value.MakeStr(rt.console.Filename())
		rt.specials[ast.V_FNR] = value.MakeInt(0)
	}
	rt.specials[ast.V_NR] = value.MakeInt(rt.specials[ast.V_NR].ToInt() + 1)
	rt.specials[ast.V_FNR] = value.MakeInt(rt.specials[ast.V_FNR].ToInt() + 1)
	rt.specials[ast.V_RT] = value.MakeStr(rt0)

	if n.Target == nil {
		rt.setRecord(text)
	} else {
		if err := rt.assignLValue(n.Target, recordValue(text, rt.traits)); err != nil {
			return value.Value{}, err
		}
	}
	return value.MakeInt(1), nil
}

func (rt *Rtx) getlineChannel(n *ast.GetlineExpr, kind rio.Kind, bumpNR bool) (value.Value, error) {
	fileV, err := rt.eval(n.File)
	if err != nil {
		return value.Value{}, err
	}
	name := fileV.ToStr(rt.convfmt())

	scanner, err := rt.rio.OpenInput(kind, name, rt.rsString)
	if err != nil {
		return value.MakeInt(-1), nil
	}
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return value.MakeInt(-1), nil
		}
		return value.MakeInt(0), nil
	}
	text := scanner.Text()
	rt.specials[ast.V_RT] = value.MakeStr(scanner.RT())

	if bumpNR {
		rt.specials[ast.V_NR] = value.MakeInt(rt.specials[ast.V_NR].ToInt() + 1)
	}

	if n.Target == nil {
		rt.setRecord(text)
	} else {
		if err := rt.assignLValue(n.Target, recordValue(text, rt.traits)); err != nil {
			return value.Value{}, err
		}
	}
	return value.MakeInt(1), nil
}

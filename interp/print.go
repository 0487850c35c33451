package interp

import (
	"io"
	"strings"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/fmtout"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/rio"
)

// execPrint implements print and printf, both of which share the same
// destination resolution (stdout, > file, >> file, | cmd, |& cmd).
func (rt *Rtx) execPrint(n *ast.PrintStmt) error {
	w, err := rt.printDest(n)
	if err != nil {
		return err
	}
	if n.IsPrintf {
		return rt.execPrintf(n, w)
	}
	return rt.execPlainPrint(n, w)
}

func (rt *Rtx) printDest(n *ast.PrintStmt) (io.Writer, error) {
	if n.Target == ast.PrintStdout {
		return rt.out, nil
	}
	destV, err := rt.eval(n.Dest)
	if err != nil {
		return nil, err
	}
	name := destV.ToStr(rt.convfmt())
	switch n.Target {
	case ast.PrintFile:
		return rt.rio.OpenOutput(rio.KindFile, name, false)
	case ast.PrintAppend:
		return rt.rio.OpenOutput(rio.KindFile, name, true)
	case ast.PrintPipe:
		return rt.rio.OpenOutput(rio.KindPipe, name, false)
	case ast.PrintRWPipe:
		return rt.rio.OpenOutput(rio.KindRWPipe, name, false)
	default:
		return rt.out, nil
	}
}

func (rt *Rtx) execPlainPrint(n *ast.PrintStmt, w io.Writer) error {
	var sb strings.Builder
	if len(n.Args) == 0 {
		sb.WriteString(rt.getField(0).ToStr(rt.ofmt()))
	} else {
		ofs := rt.ofsString()
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(ofs)
			}
			v, err := rt.eval(a)
			if err != nil {
				return err
			}
			sb.WriteString(v.ToStr(rt.ofmt()))
		}
	}
	sb.WriteString(rt.orsString())
	_, err := io.WriteString(w, sb.String())
	return err
}

func (rt *Rtx) execPrintf(n *ast.PrintStmt, w io.Writer) error {
	if len(n.Args) == 0 {
		return gem.New(gem.INVAL, loc(n.Position()), "printf: missing format argument")
	}
	vs, err := rt.evalArgs(n.Args)
	if err != nil {
		return err
	}
	format := vs[0].ToStr(rt.convfmt())
	out := fmtout.Sprintf(format, vs[1:], rt.convfmt())
	_, err = io.WriteString(w, out)
	return err
}

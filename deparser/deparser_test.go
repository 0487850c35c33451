package deparser

import (
	"strings"
	"testing"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/parser"
)

func parseOrFatal(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, _, err := parser.ParseProgram("<test>", []byte(src), nil, nil, parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return prog
}

func TestDeparseRoundTrip(t *testing.T) {
	srcs := []string{
		`BEGIN { printf "%d\n", 1+2 }`,
		`BEGIN{FS=":"} {print $1, $3}`,
		`{a[$1]++} END{for(k in a) print k, a[k]}`,
		`function f(n,  s){ if(n==0) return 0; s=n+f(n-1); return s } BEGIN{print f(10)}`,
	}
	for _, src := range srcs {
		prog := parseOrFatal(t, src)
		out := Deparse(prog)
		prog2, _, err := parser.ParseProgram("<deparsed>", []byte(out), nil, nil, parser.DefaultOptions())
		if err != nil {
			t.Fatalf("reparse of deparsed output failed: %v\n---\n%s", err, out)
		}
		out2 := Deparse(prog2)
		if out2 != out {
			t.Errorf("deparse not stable under a second round-trip:\nfirst:\n%s\nsecond:\n%s", out, out2)
		}
	}
}

func TestDeparseContainsExpectedStructure(t *testing.T) {
	prog := parseOrFatal(t, `BEGIN { x = 1; print x }`)
	out := Deparse(prog)
	if !strings.Contains(out, "BEGIN") {
		t.Errorf("expected BEGIN in output, got %q", out)
	}
	if !strings.Contains(out, "print x") {
		t.Errorf("expected 'print x' in output, got %q", out)
	}
}

package interp

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/parser"
)

// runProgram parses and runs src under the default trait set, feeding
// stdin and returning stdout. Mirrors the end-to-end golden-output style
// the design's testable-properties section calls for.
func runProgram(t *testing.T, src, stdin string) string {
	t.Helper()
	prog, tr, err := parser.ParseProgram("<test>", []byte(src), nil, nil, parser.DefaultOptions())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	rt := New(prog, tr, Config{
		Stdin:  strings.NewReader(stdin),
		Output: &out,
	})
	defer rt.Close()
	if _, err := rt.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	return out.String()
}

func TestPrintfArithmetic(t *testing.T) {
	got := runProgram(t, `BEGIN { printf "%d\n", 1+2 }`, "")
	if got != "3\n" {
		t.Errorf("got %q, want %q", got, "3\n")
	}
}

func TestFieldSplitting(t *testing.T) {
	src := `BEGIN{FS=":"} {print $1, $3}`
	got := runProgram(t, src, "root:x:0:0:/root:/bin/sh\n")
	if got != "root 0\n" {
		t.Errorf("got %q, want %q", got, "root 0\n")
	}
}

func TestArrayAccumulationForIn(t *testing.T) {
	src := `{a[$1]++} END{for(k in a) print k, a[k]}`
	got := runProgram(t, src, "a\nb\na\nc\na\n")
	lines := map[string]bool{}
	for _, l := range strings.Split(strings.TrimRight(got, "\n"), "\n") {
		lines[l] = true
	}
	want := []string{"a 3", "b 1", "c 1"}
	for _, w := range want {
		if !lines[w] {
			t.Errorf("missing line %q in output %q", w, got)
		}
	}
	if len(lines) != len(want) {
		t.Errorf("got %d distinct lines, want %d: %q", len(lines), len(want), got)
	}
}

func TestMatchSetsRstartRlength(t *testing.T) {
	src := `BEGIN{ print (match("hello world", /w[a-z]+/), RSTART, RLENGTH) }`
	got := runProgram(t, src, "")
	if got != "1 7 5\n" {
		t.Errorf("got %q, want %q", got, "1 7 5\n")
	}
}

func TestRecursiveFunction(t *testing.T) {
	src := `function f(n,  s){ if(n==0) return 0; s=n+f(n-1); return s } BEGIN{print f(10)}`
	got := runProgram(t, src, "")
	if got != "55\n" {
		t.Errorf("got %q, want %q", got, "55\n")
	}
}

func TestPipeGetlineThenCloseReturnsZero(t *testing.T) {
	src := `BEGIN{ r = ("echo hi" | getline x); print x; print close("echo hi") }`
	got := runProgram(t, src, "")
	if got != "hi\n0\n" {
		t.Errorf("got %q, want %q", got, "hi\n0\n")
	}
}

func TestAssignmentSymmetry(t *testing.T) {
	got := runProgram(t, `{ $2 = "X"; print $0 }`, "a b c\n")
	if got != "a X c\n" {
		t.Errorf("got %q, want %q", got, "a X c\n")
	}
}

func TestFieldIdentityAfterSplit(t *testing.T) {
	got := runProgram(t, `{ print $1 "," $2 "," $3 }`, "one two three\n")
	if got != "one,two,three\n" {
		t.Errorf("got %q", got)
	}
}

func TestRangePatternSticky(t *testing.T) {
	src := `/start/,/end/ { print }`
	got := runProgram(t, src, "x\nstart\na\nb\nend\ny\n")
	want := "start\na\nb\nend\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDeleteWholeArrayEmptiesArrayFilledByReference(t *testing.T) {
	src := `function fill(a){ a["x"]=1; a["y"]=2 }
BEGIN{
  fill(arr)
  delete arr
  n = 0
  for (k in arr) n++
  print n
}`
	got := runProgram(t, src, "")
	if got != "0\n" {
		t.Errorf("got %q, want %q", got, "0\n")
	}
}

func TestTraitsDefaultHasExpectedBits(t *testing.T) {
	if !traits.Default.Has(traits.RIO) {
		t.Errorf("expected default traits to include RIO")
	}
	if traits.Default.Has(traits.FLEXMAP) {
		t.Errorf("expected default traits to exclude FLEXMAP")
	}
}

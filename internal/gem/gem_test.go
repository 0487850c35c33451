package gem

import "testing"

func TestErrorFormatting(t *testing.T) {
	err := New(SYNTAX, Loc{File: "prog.hawk", Line: 3, Column: 5}, "unexpected %q", "}")
	want := `prog.hawk:3:5: SYNTAX: unexpected "}"`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestErrorNoLocation(t *testing.T) {
	err := New(IOERR, Loc{}, "broken pipe")
	want := "IOERR: broken pipe"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestGemErrorSlot(t *testing.T) {
	g := NewGem(nil)
	if g.LastError() != nil {
		t.Fatalf("expected nil error on fresh gem")
	}
	e := g.SetError(OOMEM, Loc{}, "out of memory")
	if g.LastError() != e {
		t.Fatalf("LastError did not return the set error")
	}
	g.ClearError()
	if g.LastError() != nil {
		t.Fatalf("ClearError did not clear")
	}
}

func TestCodeString(t *testing.T) {
	if STACKOV.String() != "STACKOV" {
		t.Errorf("got %q", STACKOV.String())
	}
	if Code(999).String() != "UNKNOWN" {
		t.Errorf("expected UNKNOWN for out-of-range code")
	}
}

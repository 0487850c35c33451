package rex

import "testing"

func TestCompileAndMatch(t *testing.T) {
	c := NewCompiler(10, 64, 10000)
	re, err := c.Compile(`w[a-z]+`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	loc := re.FindStringIndex("hello world")
	if loc == nil {
		t.Fatalf("expected a match")
	}
	if got := "hello world"[loc[0]:loc[1]]; got != "world" {
		t.Errorf("got %q, want %q", got, "world")
	}
}

func TestCompileCaches(t *testing.T) {
	c := NewCompiler(10, 64, 10000)
	a, err := c.Compile(`foo`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	b, err := c.Compile(`foo`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if a != b {
		t.Errorf("expected cached regex to be reused")
	}
}

func TestSplit(t *testing.T) {
	c := NewCompiler(10, 64, 10000)
	re, err := c.Compile(`,\s*`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	parts := re.Split("a, b,c", -1)
	want := []string{"a", "b", "c"}
	if len(parts) != len(want) {
		t.Fatalf("got %v, want %v", parts, want)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d: got %q want %q", i, parts[i], want[i])
		}
	}
}

func TestBuildDepthExceeded(t *testing.T) {
	c := NewCompiler(10, 2, 10000)
	_, err := c.Compile(`((((a))))`)
	if err == nil {
		t.Fatalf("expected build-depth error")
	}
}

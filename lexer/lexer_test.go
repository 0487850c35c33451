package lexer

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func tokens(t *testing.T, src string) []Token {
	t.Helper()
	l := New("", []byte(src), nil, nil)
	var out []Token
	for {
		tok := l.Next()
		if l.Err() != nil {
			t.Fatalf("lex error: %v", l.Err())
		}
		if tok == EOF {
			break
		}
		if tok == NEWLINE {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestLexSimpleProgram(t *testing.T) {
	toks := tokens(t, `BEGIN { print "hi" }`)
	want := []Token{BEGIN, LBRACE, PRINT, STRING, RBRACE}
	if len(toks) != len(want) {
		t.Fatalf("got %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("token %d: got %v, want %v", i, toks[i], want[i])
		}
	}
}

func TestLexNumberForms(t *testing.T) {
	l := New("", []byte("42 3.14 1e10 0x1F 0b101"), nil, nil)
	var texts []string
	for {
		tok := l.Next()
		if tok == EOF {
			break
		}
		if tok == NEWLINE {
			continue
		}
		if tok != NUMBER {
			t.Fatalf("expected NUMBER, got %v", tok)
		}
		texts = append(texts, l.TokenText())
	}
	want := []string{"42", "3.14", "1e10", "0x1F", "0b101"}
	if len(texts) != len(want) {
		t.Fatalf("got %v, want %v", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("number %d: got %q want %q", i, texts[i], want[i])
		}
	}
}

func TestLexStringEscapes(t *testing.T) {
	l := New("", []byte(`"a\tb\n"`), nil, nil)
	tok := l.Next()
	if tok != STRING {
		t.Fatalf("expected STRING, got %v", tok)
	}
	if l.TokenText() != "a\tb\n" {
		t.Errorf("got %q", l.TokenText())
	}
}

func TestLexOperators(t *testing.T) {
	toks := tokens(t, "+= -= == != <= >= && || !~ ++ -- >> |&")
	want := []Token{ADD_ASSIGN, SUB_ASSIGN, EQ, NE, LE, GE, AND, OR, NOMATCH, INCR, DECR, APPEND, RWPIPE}
	if len(toks) != len(want) {
		t.Fatalf("got %v, want %v", toks, want)
	}
	for i := range want {
		if toks[i] != want[i] {
			t.Errorf("operator %d: got %v want %v", i, toks[i], want[i])
		}
	}
}

func TestIncludeCycleRejected(t *testing.T) {
	io := fakeIO{files: map[string]string{}}
	io.files["a.hawk"] = `@include "b.hawk"`
	io.files["b.hawk"] = `@include "a.hawk"`
	l := New("a.hawk", []byte(io.files["a.hawk"]), io, nil)
	for {
		tok := l.Next()
		if l.Err() != nil {
			return // expected: cycle detected
		}
		if tok == EOF {
			t.Fatalf("expected include-cycle error, got clean EOF")
		}
	}
}

type fakeIO struct{ files map[string]string }

func (f fakeIO) Open(name string) (io.ReadCloser, error) {
	data, ok := f.files[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func TestPragmaLine(t *testing.T) {
	l := New("", []byte("@pragma entry mymain\nBEGIN{}"), nil, nil)
	tok := l.Next()
	if tok != AT_PRAGMA {
		t.Fatalf("expected AT_PRAGMA, got %v", tok)
	}
	if l.TokenText() != "entry mymain" {
		t.Errorf("got %q", l.TokenText())
	}
}

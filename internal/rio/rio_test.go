package rio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fixedRS(rs string) func() string {
	return func() string { return rs }
}

func TestOpenOutputFileAndReuse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	tbl := NewTable(nil, nil)

	w1, err := tbl.OpenOutput(KindFile, path, false)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	w1.Write([]byte("hello "))

	w2, err := tbl.OpenOutput(KindFile, path, false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if w1 != w2 {
		t.Errorf("expected the same handle to be reused")
	}
	w2.Write([]byte("world"))
	tbl.Flush(path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "hello world" {
		t.Errorf("got %q", string(data))
	}
}

func TestCloseIsIdempotentSentinel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	tbl := NewTable(nil, nil)
	tbl.OpenOutput(KindFile, path, false)

	if got := tbl.Close(path); got != 0 {
		t.Errorf("first close: got %d, want 0", got)
	}
	if got := tbl.Close(path); got != -1 {
		t.Errorf("second close: got %d, want -1", got)
	}
}

func TestNoFileWritesBlocked(t *testing.T) {
	tbl := NewTable(nil, nil)
	tbl.SetNoFileWrites(true)
	if _, err := tbl.OpenOutput(KindFile, "/tmp/should-not-open", false); err == nil {
		t.Errorf("expected an error when file writes are disabled")
	}
}

func TestRecordScannerByteSeparator(t *testing.T) {
	s := newRecordScanner(strings.NewReader("a:b:c"), fixedRS(":"))
	var got []string
	for s.Scan() {
		got = append(got, s.Text())
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestRecordScannerParagraphMode(t *testing.T) {
	s := newRecordScanner(strings.NewReader("\n\npara one\nline two\n\n\npara two\n"), fixedRS(""))
	var got []string
	for s.Scan() {
		got = append(got, s.Text())
	}
	want := []string{"para one\nline two", "para two"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestRecordScannerRegexSeparator(t *testing.T) {
	s := newRecordScanner(strings.NewReader("a1b22c333d"), fixedRS(`[0-9]+`))
	var got []string
	for s.Scan() {
		got = append(got, s.Text())
	}
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestRWPipeSharesOneCoprocess(t *testing.T) {
	tbl := NewTable(nil, nil)
	const name = "cat"

	w, err := tbl.OpenOutput(KindRWPipe, name, false)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	w.Write([]byte("hello\n"))
	tbl.Flush(name)

	s, err := tbl.OpenInput(KindRWPipe, name, fixedRS("\n"))
	if err != nil {
		t.Fatalf("open input: %v", err)
	}
	if !s.Scan() {
		t.Fatalf("expected a record echoed back from the coprocess, err=%v", s.Err())
	}
	if got := s.Text(); got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}

	if len(tbl.rwpipes) != 1 {
		t.Errorf("expected exactly one shared coprocess, got %d", len(tbl.rwpipes))
	}
	out, in := tbl.out[name], tbl.in[name]
	if out == nil || in == nil || out.cmd != in.cmd {
		t.Errorf("expected the write side and read side to share one *exec.Cmd")
	}

	tbl.Close(name)
	if _, ok := tbl.rwpipes[name]; ok {
		t.Errorf("expected the shared coprocess entry to be removed on close")
	}
}

func TestConsoleAssignmentsAndFiles(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "a.txt")
	os.WriteFile(f1, []byte("line1\nline2\n"), 0644)

	var assigned []string
	c := NewConsole([]string{"x=1", f1, "y=2"}, func(name, value string) {
		assigned = append(assigned, name+"="+value)
	}, fixedRS("\n"), nil)

	var recs []string
	for {
		text, _, _, ok, err := c.NextRecord()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			break
		}
		recs = append(recs, text)
	}
	if len(recs) != 2 || recs[0] != "line1" || recs[1] != "line2" {
		t.Errorf("got records %v", recs)
	}
	if len(assigned) != 2 || assigned[0] != "x=1" || assigned[1] != "y=2" {
		t.Errorf("got assignments %v", assigned)
	}
}

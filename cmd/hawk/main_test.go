package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunInlineScriptPrintfArithmetic(t *testing.T) {
	var out, errb bytes.Buffer
	status := run([]string{`BEGIN { printf "%d\n", 1+2 }`}, strings.NewReader(""), &out, &errb)
	if status != exitOK {
		t.Fatalf("status = %d, want %d; stderr: %s", status, exitOK, errb.String())
	}
	if out.String() != "3\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestRunFieldSplittingFromStdin(t *testing.T) {
	var out, errb bytes.Buffer
	status := run([]string{"-F", ":", `{print $1, $3}`}, strings.NewReader("root:x:0:0:/root:/bin/sh\n"), &out, &errb)
	if status != exitOK {
		t.Fatalf("status = %d, stderr: %s", status, errb.String())
	}
	if out.String() != "root 0\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestRunNoScriptIsBadFlags(t *testing.T) {
	var out, errb bytes.Buffer
	status := run(nil, strings.NewReader(""), &out, &errb)
	if status != exitBadFlags {
		t.Errorf("status = %d, want %d", status, exitBadFlags)
	}
	if !strings.Contains(errb.String(), "ERROR: INVAL") {
		t.Errorf("expected an INVAL error, got %q", errb.String())
	}
}

func TestRunSyntaxErrorIsRuntimeExit(t *testing.T) {
	var out, errb bytes.Buffer
	status := run([]string{"BEGIN { print ("}, strings.NewReader(""), &out, &errb)
	if status != exitRuntime {
		t.Errorf("status = %d, want %d; stderr: %s", status, exitRuntime, errb.String())
	}
	if !strings.Contains(errb.String(), "ERROR:") {
		t.Errorf("expected an ERROR: line, got %q", errb.String())
	}
}

func TestRunVersionFlag(t *testing.T) {
	var out, errb bytes.Buffer
	status := run([]string{"--version"}, strings.NewReader(""), &out, &errb)
	if status != exitInfo {
		t.Errorf("status = %d, want %d", status, exitInfo)
	}
	if out.Len() == 0 {
		t.Errorf("expected version text on stdout")
	}
}

func TestRunCallFlagInvokesNamedFunction(t *testing.T) {
	var out, errb bytes.Buffer
	status := run([]string{"-c", "greet", `function greet() { print "hi"; return 0 }`}, strings.NewReader(""), &out, &errb)
	if status != exitOK {
		t.Fatalf("status = %d, stderr: %s", status, errb.String())
	}
	if out.String() != "hi\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestRunAssignFlagPreassignsGlobal(t *testing.T) {
	var out, errb bytes.Buffer
	status := run([]string{"-v", "name=world", `BEGIN { print "hello", name }`}, strings.NewReader(""), &out, &errb)
	if status != exitOK {
		t.Fatalf("status = %d, stderr: %s", status, errb.String())
	}
	if out.String() != "hello world\n" {
		t.Errorf("got %q", out.String())
	}
}

func TestRunDeparseFileIsWritten(t *testing.T) {
	dir := t.TempDir()
	depPath := filepath.Join(dir, "out.hawk")
	var out, errb bytes.Buffer
	status := run([]string{"-d", depPath, `BEGIN { x = 1; print x }`}, strings.NewReader(""), &out, &errb)
	if status != exitOK {
		t.Fatalf("status = %d, stderr: %s", status, errb.String())
	}
	data, err := os.ReadFile(depPath)
	if err != nil {
		t.Fatalf("reading deparsed file: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN") {
		t.Errorf("deparsed output missing BEGIN: %q", string(data))
	}
}

func TestRunFileFlagReadsScriptFromDisk(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "prog.hawk")
	if err := os.WriteFile(scriptPath, []byte(`BEGIN { print "from file" }`), 0o644); err != nil {
		t.Fatalf("writing script: %v", err)
	}
	var out, errb bytes.Buffer
	status := run([]string{"-f", scriptPath}, strings.NewReader(""), &out, &errb)
	if status != exitOK {
		t.Fatalf("status = %d, stderr: %s", status, errb.String())
	}
	if out.String() != "from file\n" {
		t.Errorf("got %q", out.String())
	}
}

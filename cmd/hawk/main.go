// Command hawk is the reference embedder: a CLI that parses flags, builds a
// hawk.Config, and runs (or deparses, or calls a single function in) a
// Hawk program.
//
// Flag handling follows the teacher pack's own idiom (stdlib flag.Var with
// a small repeatable-string slice type, as seen in jcorbin/gothird's
// main.go) rather than reaching for a third-party CLI framework, since no
// repo in the retrieval pack pulls one in for this concern.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hawk-lang/hawk/deparser"
	"github.com/hawk-lang/hawk/hawk"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/module"
	_ "github.com/hawk-lang/hawk/internal/module/sysmod" // registers the "sys" module
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/parser"
)

// exit codes per the design's CLI table
const (
	exitOK       = 0
	exitRuntime  = 1
	exitInfo     = 2
	exitBadFlags = 3
)

// stringList is a repeatable string flag (-f FILE -f FILE2 ...).
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hawk", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		files        stringList
		consoleOut   stringList
		assigns      stringList
		callName     string
		fieldSep     string
		deparseFile  string
		includeDirs  string
		modLibDirs   string
		memLimit     int64
		debugDump    bool
		showVersion  bool
		useModern    bool
		useClassic   bool
		traitToggles stringList
	)

	fs.Var(&files, "f", "source file (repeatable)")
	fs.Var(&files, "file", "source file (repeatable)")
	fs.Var(&consoleOut, "t", "console output file (repeatable)")
	fs.Var(&consoleOut, "console-output", "console output file (repeatable)")
	fs.Var(&assigns, "v", "initial global assignment VAR=VALUE (repeatable)")
	fs.Var(&assigns, "assign", "initial global assignment VAR=VALUE (repeatable)")
	fs.StringVar(&callName, "c", "", "call NAME instead of running the main loop")
	fs.StringVar(&callName, "call", "", "call NAME instead of running the main loop")
	fs.StringVar(&fieldSep, "F", "", "set FS")
	fs.StringVar(&fieldSep, "field-separator", "", "set FS")
	fs.StringVar(&deparseFile, "d", "", "write deparsed source to FILE")
	fs.StringVar(&deparseFile, "deparsed-file", "", "write deparsed source to FILE")
	fs.StringVar(&includeDirs, "I", "", "colon-separated @include search dirs")
	fs.StringVar(&includeDirs, "includedirs", "", "colon-separated @include search dirs")
	fs.StringVar(&modLibDirs, "modlibdirs", "", "colon-separated module search dirs")
	fs.Int64Var(&memLimit, "m", 0, "memory cap in bytes")
	fs.Int64Var(&memLimit, "memory-limit", 0, "memory cap in bytes")
	fs.BoolVar(&debugDump, "D", false, "debug dump on exit")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.BoolVar(&useModern, "modern", false, "enable every Hawk extension trait")
	fs.BoolVar(&useClassic, "classic", false, "strict POSIX AWK trait set")
	fs.Var(&traitToggles, "trait", "TRAITNAME=on|off (repeatable)")

	if err := fs.Parse(args); err != nil {
		return exitBadFlags
	}

	if showVersion {
		fmt.Fprintln(stdout, "hawk (reference embedder)")
		return exitInfo
	}

	rest := fs.Args()

	traitSet := traits.Default
	if useClassic {
		traitSet = traits.Classic
	}
	if useModern {
		traitSet = traits.Modern
	}
	for _, tg := range traitToggles {
		name, val, ok := strings.Cut(tg, "=")
		if !ok {
			fmt.Fprintf(stderr, "ERROR: INVAL bad --trait argument %q\n", tg)
			return exitBadFlags
		}
		t := traits.ByName(name)
		if t == 0 {
			fmt.Fprintf(stderr, "ERROR: INVAL unknown trait %q\n", name)
			return exitBadFlags
		}
		switch val {
		case "on":
			traitSet = traitSet.With(t)
		case "off":
			traitSet = traitSet.Without(t)
		default:
			fmt.Fprintf(stderr, "ERROR: INVAL bad --trait value %q\n", tg)
			return exitBadFlags
		}
	}

	src, name, rest, err := loadSource(files, rest)
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: INVAL %s\n", err)
		return exitBadFlags
	}

	var dirs []string
	if includeDirs != "" {
		dirs = strings.Split(includeDirs, ":")
	}

	opts := parser.Options{Traits: traitSet, MaxBlockDepth: 256, MaxExprDepth: 256}
	prog, resolvedTraits, err := hawk.ParseWithIncludes(name, src, nil, dirs, opts)
	if err != nil {
		printParseError(stderr, err)
		return exitRuntime
	}

	if deparseFile != "" {
		if err := writeDeparsed(deparseFile, prog); err != nil {
			fmt.Fprintf(stderr, "ERROR: IOERR %s\n", err)
			return exitRuntime
		}
	}

	vars := map[string]string{}
	for _, a := range assigns {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			fmt.Fprintf(stderr, "ERROR: INVAL bad -v argument %q\n", a)
			return exitBadFlags
		}
		vars[k] = v
	}
	if fieldSep != "" {
		vars["FS"] = fieldSep
	}

	loader := module.NewLoader(nil)
	cfg := hawk.Config{
		Stdin:     stdin,
		Output:    stdout,
		Error:     stderr,
		Argv0:     "hawk",
		Args:      rest,
		Vars:      vars,
		Environ:   os.Environ(),
		ModLoader: loader,
	}
	if modLibDirs != "" {
		_ = strings.Split(modLibDirs, ":") // reserved for a future on-disk module resolver
	}

	rt := hawk.NewRtx(prog, resolvedTraits, cfg)
	defer rt.Close()
	defer loader.Shutdown()

	var status int
	if callName != "" {
		v, cerr := rt.Call(callName)
		if cerr != nil {
			printRuntimeError(stderr, cerr)
			return exitRuntime
		}
		status = int(v.ToInt())
	} else {
		var rerr error
		status, rerr = rt.Run()
		if rerr != nil {
			printRuntimeError(stderr, rerr)
			return exitRuntime
		}
	}

	if debugDump {
		fmt.Fprintf(stderr, "DEBUG: exit status %d\n", status)
	}

	if status != 0 {
		return exitRuntime
	}
	return exitOK
}

// loadSource resolves the script source: either one or more -f files
// concatenated in order, or (absent -f) the first positional argument as an
// inline script string.
func loadSource(files stringList, rest []string) (src []byte, name string, remaining []string, err error) {
	if len(files) > 0 {
		var parts [][]byte
		for _, f := range files {
			b, rerr := os.ReadFile(f)
			if rerr != nil {
				return nil, "", nil, rerr
			}
			parts = append(parts, b)
		}
		return bytesJoin(parts, '\n'), files[0], rest, nil
	}
	if len(rest) == 0 {
		return nil, "", nil, fmt.Errorf("no script given: need -f FILE or a script string")
	}
	return []byte(rest[0]), "<cmdline>", rest[1:], nil
}

func bytesJoin(parts [][]byte, sep byte) []byte {
	var out []byte
	for i, p := range parts {
		if i > 0 {
			out = append(out, sep)
		}
		out = append(out, p...)
	}
	return out
}

func writeDeparsed(path string, prog *hawk.Program) error {
	text := deparser.Deparse(prog)
	return os.WriteFile(path, []byte(text), 0o644)
}

// printParseError and printRuntimeError both render the
// "ERROR: CODE C LINE L COLUMN K FILE P - MSG" format the design requires.
// A *parser.Error supplies its own position; any other error that isn't a
// *gem.Error is printed in the same format with LINE 0 COLUMN 0 FILE -.
func printParseError(w io.Writer, err error) {
	if ge, ok := err.(*gem.Error); ok {
		printGemError(w, ge)
		return
	}
	if pe, ok := err.(*parser.Error); ok {
		fmt.Fprintf(w, "ERROR: CODE %d (%s) LINE %d COLUMN %d FILE %s - %s\n",
			int(gem.SYNTAX), gem.SYNTAX, pe.Pos.Line, pe.Pos.Column, pe.Pos.File, pe.Message)
		return
	}
	fmt.Fprintf(w, "ERROR: CODE %d (%s) LINE 0 COLUMN 0 FILE - - %s\n", int(gem.SYNTAX), gem.SYNTAX, err)
}

func printRuntimeError(w io.Writer, err error) {
	if ge, ok := err.(*gem.Error); ok {
		printGemError(w, ge)
		return
	}
	fmt.Fprintf(w, "ERROR: CODE %d (%s) LINE 0 COLUMN 0 FILE - - %s\n", int(gem.INTERN), gem.INTERN, err)
}

// printGemError renders spec.md §7's CLI error line format literally:
// "ERROR: CODE C LINE L COLUMN K FILE P - MSG", where "CODE" is a fixed
// label and C is the numeric error code (the symbolic name is appended in
// parens for readability, not in place of the label).
func printGemError(w io.Writer, ge *gem.Error) {
	fmt.Fprintf(w, "ERROR: CODE %d (%s) LINE %d COLUMN %d FILE %s - %s\n",
		int(ge.Code), ge.Code, ge.Loc.Line, ge.Loc.Column, ge.Loc.File, ge.Message)
}

// Package hawk is the embedding surface: parse a Hawk source program and
// run it, or drive a parsed program's Rtx directly for finer control
// (pre-assigning variables, calling a named function from Go, inspecting
// the exit status).
//
// Grounded on the teacher's (goawk) top-level Exec/ExecProgram pair: Exec is
// the one-call convenience path that parses under the default options,
// ExecProgram takes an already-parsed program and its trait set. Both take
// a Config (sandboxing flags, a pre-supplied ENVIRON, custom Stdin/Output).
package hawk

import (
	"io"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/module"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/internal/value"
	"github.com/hawk-lang/hawk/interp"
	"github.com/hawk-lang/hawk/lexer"
	"github.com/hawk-lang/hawk/parser"
)

// Program is a parsed Hawk program, ready for ExecProgram or NewRtx.
type Program = ast.Program

// Traits is the parser/runtime option bitmask (see internal/traits).
type Traits = traits.Set

// Value is Hawk's runtime value representation, exposed so embedders can
// build -v pre-assignments or read back a Call result without reaching into
// internal/value themselves.
type Value = value.Value

// Config configures a Rtx. It carries a subset of interp.Config's fields:
// the trait set comes from NewRtx's t argument, and there are no depth-limit
// fields. It is kept as a distinct type at this package boundary so
// embedders importing only "hawk" never need to import "hawk/interp" directly.
type Config struct {
	Stdin  io.Reader
	Output io.Writer
	Error  io.Writer

	Argv0 string
	Args  []string

	Vars    map[string]string
	Environ []string

	NoExec       bool
	NoFileWrites bool
	NoFileReads  bool
	ShellCommand []string

	ModLoader *module.Loader
}

func (c Config) toInterp(t Traits) interp.Config {
	return interp.Config{
		Stdin:        c.Stdin,
		Output:       c.Output,
		Error:        c.Error,
		Argv0:        c.Argv0,
		Args:         c.Args,
		Vars:         c.Vars,
		Environ:      c.Environ,
		Traits:       t,
		NoExec:       c.NoExec,
		NoFileWrites: c.NoFileWrites,
		NoFileReads:  c.NoFileReads,
		ShellCommand: c.ShellCommand,
		ModLoader:    c.ModLoader,
	}
}

// Parse parses a Hawk program from src, returning the resolved AST and the
// trait set left in effect after any @pragma lines (which may differ from
// opts.Traits).
func Parse(name string, src []byte, opts parser.Options) (*Program, Traits, error) {
	return parser.ParseProgram(name, src, nil, nil, opts)
}

// ParseWithIncludes is Parse with an explicit SourceIO and include-path
// search list, for embedders that serve @include from something other
// than the local filesystem (e.g. an embedded asset bundle).
func ParseWithIncludes(name string, src []byte, sio lexer.SourceIO, includeDirs []string, opts parser.Options) (*Program, Traits, error) {
	return parser.ParseProgram(name, src, sio, includeDirs, opts)
}

// Rtx wraps interp.Rtx, the running instance bound to one parsed program.
type Rtx struct {
	*interp.Rtx
}

// NewRtx creates a Rtx bound to prog under the given trait set and config,
// applying any -v-style pre-assignments and opening the ARGV walk. Callers
// must Close it when done.
func NewRtx(prog *Program, t Traits, cfg Config) *Rtx {
	return &Rtx{Rtx: interp.New(prog, t, cfg.toInterp(t))}
}

// ExecProgram runs a parsed program to completion (BEGIN, the main record
// loop if the program reads input, then END), returning its exit status.
// A nil error means the program ran to completion (possibly via an
// explicit exit statement); it does not mean the script's own exit code
// was zero.
func ExecProgram(prog *Program, t Traits, cfg Config) (int, error) {
	rt := NewRtx(prog, t, cfg)
	defer rt.Close()
	return rt.Run()
}

// Exec is the one-call convenience path: parse src under traits.Default and
// run it immediately.
func Exec(name string, src []byte, cfg Config) (int, error) {
	prog, t, err := Parse(name, src, parser.DefaultOptions())
	if err != nil {
		return 0, err
	}
	return ExecProgram(prog, t, cfg)
}

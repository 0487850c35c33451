// Package interp is Hawk's runtime (Rtx): a tree-walking evaluator over the
// AST the parser produces. A Rtx owns the global/local/argument variable
// stacks, the current record and field state, the RIO channel table, the
// regex compiler, and the module loader's per-instance registration.
//
// Grounded on the teacher's (goawk) interp package for the overall shape of
// a "Config in, errors out" embedding surface, and on fioriandrea/aawk's
// interpreter (its error-as-control-flow style for next/break/continue/
// return/exit, read in full from other_examples) for the tree-walking
// evaluator itself, since the teacher's own interp.go is a bytecode VM that
// this tree-walking Rtx supersedes (see DESIGN.md).
package interp

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/module"
	"github.com/hawk-lang/hawk/internal/rex"
	"github.com/hawk-lang/hawk/internal/rio"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/internal/value"
)

// Config configures a Rtx, mirroring the teacher's Config struct
// (Stdin/Output/Error/Args/Vars/NoExec/NoFileWrites/NoFileReads/
// ShellCommand/Environ) and extending it with the trait bitmask, depth
// limits, and a module loader (ModLoader).
type Config struct {
	Stdin  io.Reader
	Output io.Writer
	Error  io.Writer

	// Args is ARGV[1:] (the embedder's command-line file/var arguments);
	// Argv0 is ARGV[0] (conventionally the program name).
	Args  []string
	Argv0 string

	// Vars holds "-v"-style pre-assignments (NAME -> value), applied before
	// BEGIN runs.
	Vars map[string]string

	Environ []string // "NAME=VALUE" pairs; defaults to os.Environ() if nil

	Traits traits.Set

	DepthBlockRun int
	DepthExprRun  int
	DepthRexBuild int
	DepthRexMatch int

	NoExec       bool
	NoFileWrites bool
	NoFileReads  bool
	ShellCommand []string

	ModLoader *module.Loader
}

func (c *Config) setDefaults() {
	if c.Stdin == nil {
		c.Stdin = os.Stdin
	}
	if c.Output == nil {
		c.Output = os.Stdout
	}
	if c.Error == nil {
		c.Error = os.Stderr
	}
	if c.DepthBlockRun <= 0 {
		c.DepthBlockRun = 1000
	}
	if c.DepthExprRun <= 0 {
		c.DepthExprRun = 2000
	}
	if c.DepthRexBuild <= 0 {
		c.DepthRexBuild = 64
	}
	if c.DepthRexMatch <= 0 {
		c.DepthRexMatch = 10000
	}
	if c.Environ == nil {
		c.Environ = os.Environ()
	}
	if c.ModLoader == nil {
		c.ModLoader = module.NewLoader(nil)
	}
}

// Rtx is one runtime execution context bound to a parsed program. Not safe
// for concurrent use: a single Hawk instance is single-threaded.
type Rtx struct {
	gem    *gem.Gem
	prog   *ast.Program
	traits traits.Set
	cfg    Config

	regex *rex.Compiler
	rio   *rio.Table
	mods  *module.Loader

	specials [ast.NumSpecials + 1]value.Value
	globals  []value.Value

	frame     []value.Value
	frameMode []ast.ParamMode
	blockDep  int
	exprDep   int
	callDepth int

	fields      []value.Value // fields[0] is $0
	fieldsValid bool

	fsRegex *rex.Regex

	console     *rio.Console
	curFilename string

	halted atomic.Bool

	out io.Writer
	err io.Writer

	rangeActive map[int]bool // range-pattern sticky state, keyed by rule index
}

// New creates a Rtx bound to prog, compiled under traits t (the trait set in
// effect after parsing, including any @pragma overrides).
func New(prog *ast.Program, t traits.Set, cfg Config) *Rtx {
	cfg.setDefaults()
	g := gem.NewGem(nil)
	rt := &Rtx{
		gem:         g,
		prog:        prog,
		traits:      t,
		cfg:         cfg,
		regex:       rex.NewCompiler(128, cfg.DepthRexBuild, cfg.DepthRexMatch),
		mods:        cfg.ModLoader,
		globals:     make([]value.Value, len(prog.Globals)+1),
		out:         cfg.Output,
		err:         cfg.Error,
		rangeActive: map[int]bool{},
	}
	rt.rio = rio.NewTable(cfg.ShellCommand, nil)
	rt.rio.SetNoExec(cfg.NoExec)
	rt.rio.SetNoFileWrites(cfg.NoFileWrites)
	rt.rio.SetNoFileReads(cfg.NoFileReads)
	rt.initSpecials()
	rt.initArgvEnviron()
	rt.applyPreassignments(cfg.Vars)
	rt.console = rio.NewConsole(cfg.Args, rt.assignFromArgv, rt.rsString, cfg.Stdin)
	return rt
}

func (rt *Rtx) initSpecials() {
	rt.specials[ast.V_NF] = value.MakeInt(0)
	rt.specials[ast.V_NR] = value.MakeInt(0)
	rt.specials[ast.V_FNR] = value.MakeInt(0)
	rt.specials[ast.V_FILENAME] = value.MakeStr("")
	rt.specials[ast.V_OFILENAME] = value.MakeStr("")
	rt.specials[ast.V_FS] = value.MakeStr(" ")
	rt.specials[ast.V_OFS] = value.MakeStr(" ")
	rt.specials[ast.V_ORS] = value.MakeStr("\n")
	rt.specials[ast.V_RS] = value.MakeStr("\n")
	rt.specials[ast.V_SUBSEP] = value.MakeStr("\x1C")
	rt.specials[ast.V_CONVFMT] = value.MakeStr("%.6g")
	rt.specials[ast.V_OFMT] = value.MakeStr("%.6g")
	rt.specials[ast.V_RSTART] = value.MakeInt(0)
	rt.specials[ast.V_RLENGTH] = value.MakeInt(-1)
	rt.specials[ast.V_RT] = value.MakeStr("")
	rt.specials[ast.V_ARGC] = value.MakeInt(int64(len(rt.cfg.Args) + 1))
	if rt.cfg.Traits.Has(traits.CRLF) {
		rt.specials[ast.V_ORS] = value.MakeStr("\r\n")
	}
}

func (rt *Rtx) initArgvEnviron() {
	argv := value.MakeMap()
	m := argv.Map()
	m["0"] = value.MakeStr(rt.cfg.Argv0)
	for i, a := range rt.cfg.Args {
		m[itoa(i+1)] = value.MakeNumStr(a)
	}
	rt.setGlobalByName("ARGV", argv)

	env := value.MakeMap()
	em := env.Map()
	for _, kv := range rt.cfg.Environ {
		if i := indexByte(kv, '='); i >= 0 {
			em[kv[:i]] = value.MakeNumStr(kv[i+1:])
		}
	}
	rt.setGlobalByName("ENVIRON", env)
}

func (rt *Rtx) applyPreassignments(vars map[string]string) {
	for name, val := range vars {
		rt.assignFromArgv(name, val)
	}
}

// assignFromArgv performs a "var=value" deferred global assignment, used
// both for -v pre-assignment and for ARGV "name=value" entries encountered
// between files. The value becomes a numeric string if NUMSTRDETECT is on
// and it looks numeric.
func (rt *Rtx) assignFromArgv(name, val string) {
	v := value.MakeStr(val)
	if rt.traits.Has(traits.NUMSTRDETECT) && value.LooksNumeric(val) {
		v = value.MakeNumStr(val)
	}
	if idx := ast.SpecialIndex(name); idx != 0 {
		rt.setSpecial(idx, v)
		return
	}
	rt.setGlobalByName(name, v)
}

func (rt *Rtx) setGlobalByName(name string, v value.Value) {
	idx, ok := rt.prog.Globals[name]
	if !ok {
		return
	}
	rt.ensureGlobalSlot(idx)
	rt.globals[idx] = v
}

func (rt *Rtx) ensureGlobalSlot(idx int) {
	for len(rt.globals) <= idx {
		rt.globals = append(rt.globals, value.Value{})
	}
}

// Halt requests cooperative cancellation: the evaluator checks this flag at
// loop iterations, function calls, and statement boundaries, and unwinds as
// if exit (no value) had executed. Safe to call from any goroutine; it does
// not otherwise synchronize with a running Rtx.
func (rt *Rtx) Halt() { rt.halted.Store(true) }

func (rt *Rtx) haltRequested() bool { return rt.halted.Load() }

// Close releases every resource this Rtx opened: RIO channels, the console
// file, and runs Fini on every module this instance touched.
func (rt *Rtx) Close() {
	rt.rio.CloseAll()
	rt.console.Close()
	rt.mods.CloseRtx(rt)
}

// SetIOAttr implements setioattr(ioname, attr, value): it records a
// per-channel timeout in the RIO table. The RIO adapters do not read it;
// reads and writes block without a deadline.
func (rt *Rtx) SetIOAttr(name string, attr rio.Attr, seconds float64) {
	rt.rio.SetAttr(name, attr, time.Duration(seconds*float64(time.Second)))
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

func indexByte(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

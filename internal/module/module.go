// Package module resolves "modname::symbol" references: it loads a module
// on first reference, runs its init/fini lifecycle against each calling
// instance, and looks up symbols in the module's own sorted table.
//
// Go has no portable, unloadable equivalent of dlopen/dlsym (the stdlib
// "plugin" package is Linux/cgo-only and explicitly documents that a loaded
// plugin can never be released), so modules here are registered in-process
// by name instead of mapped from a shared-object path. The
// query/init/fini/unload lifecycle and the "first reference loads it"
// timing are otherwise unchanged; only the "dynamic library" transport is
// swapped for a Go-native registration call, the same way a builtin
// function table gets populated by a package init() rather than a dlopen.
package module

import (
	"sort"
	"sync"

	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/value"
)

// RtxHandle identifies one running instance to a module's per-instance
// state registry. In practice this is the owning *interp.Rtx pointer
// itself: a Go map keyed by that pointer gives one-entry-per-instance,
// average O(1) lookup without hand-rolling a balanced tree.
type RtxHandle = any

// Func is a module-resident function. argv arrives already coerced under
// the same calling convention user-defined and builtin functions use; rtx
// identifies the caller so the function can reach its own per-instance
// state.
type Func func(rtx RtxHandle, argv []value.Value) (value.Value, error)

// SymbolKind distinguishes what Query handed back.
type SymbolKind int

const (
	SymFunction SymbolKind = iota
	SymIntConst
	SymOther
)

// Symbol is one entry in a module's exported table.
type Symbol struct {
	Kind  SymbolKind
	Fn    Func
	Const int64
}

// Module is the contract every module implementation signs. Query is
// called once for each name the module's SymbolNames lists, when the
// loader first loads the module; Init runs before any call reaches the module
// from a given instance; Fini runs when that instance closes; Unload is
// the final call, made once when the loader itself shuts down.
type Module interface {
	Name() string
	Query(symbol string) (Symbol, bool)
	Init(rtx RtxHandle) error
	Fini(rtx RtxHandle)
	Unload()
}

// SymbolNamer lets a module enumerate its table up front, so the loader can
// build a sorted table once and binary-search it. The loader resolves only
// the names listed here: a module that does not implement SymbolNamer
// exposes no symbols.
type SymbolNamer interface {
	SymbolNames() []string
}

// Factory constructs a fresh Module instance. Modules register a factory,
// not a value, so each Loader owns an independent instance and two Hawk
// processes never share module state through a package-level singleton.
type Factory func() Module

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a module factory to the process-wide registry. Called from
// an init() in the module's own package (e.g. sysmod), mirroring how a real
// dynamic module announces itself once its shared object is mapped in.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

type loadedModule struct {
	mod      Module
	symbols  map[string]Symbol
	names    []string // sorted, so Lookup can binary-search instead of scan
	initDone map[RtxHandle]bool
}

// Loader resolves "modname::symbol" references, loading each named module
// on first reference and tracking which instances have run its Init.
type Loader struct {
	mu     sync.Mutex
	loaded map[string]*loadedModule
	gem    *gem.Gem
}

// NewLoader creates an empty Loader. g shapes error messages; it may be nil.
func NewLoader(g *gem.Gem) *Loader {
	return &Loader{loaded: map[string]*loadedModule{}, gem: g}
}

// Lookup resolves "modname::symbol", loading modname on first reference and
// calling Init(rtx) on it if this instance hasn't been seen by that module
// yet.
func (l *Loader) Lookup(rtx RtxHandle, qualified string) (Symbol, error) {
	modName, symName, ok := splitQualified(qualified)
	if !ok {
		return Symbol{}, gem.New(gem.INVAL, gem.Loc{}, "not a module-qualified name: %q", qualified)
	}

	l.mu.Lock()
	lm, err := l.ensureLoadedLocked(modName)
	if err != nil {
		l.mu.Unlock()
		return Symbol{}, err
	}
	needsInit := !lm.initDone[rtx]
	l.mu.Unlock()

	if needsInit {
		if ierr := lm.mod.Init(rtx); ierr != nil {
			return Symbol{}, gem.New(gem.MODNONM, gem.Loc{}, "module %q init failed: %v", modName, ierr)
		}
		l.mu.Lock()
		lm.initDone[rtx] = true
		l.mu.Unlock()
	}

	sym, ok := lookupSorted(lm, symName)
	if !ok {
		return Symbol{}, gem.New(gem.NOENT, gem.Loc{}, "module %q has no symbol %q", modName, symName)
	}
	return sym, nil
}

func (l *Loader) ensureLoadedLocked(modName string) (*loadedModule, error) {
	if lm, ok := l.loaded[modName]; ok {
		return lm, nil
	}
	registryMu.Lock()
	factory, ok := registry[modName]
	registryMu.Unlock()
	if !ok {
		return nil, gem.New(gem.MODNONM, gem.Loc{}, "no such module: %q", modName)
	}
	mod := factory()
	names := queryAllNames(mod)
	symbols := make(map[string]Symbol, len(names))
	for _, n := range names {
		if sym, ok := mod.Query(n); ok {
			symbols[n] = sym
		}
	}
	sort.Strings(names)
	lm := &loadedModule{mod: mod, symbols: symbols, names: names, initDone: map[RtxHandle]bool{}}
	l.loaded[modName] = lm
	return lm, nil
}

func lookupSorted(lm *loadedModule, symName string) (Symbol, bool) {
	i := sort.SearchStrings(lm.names, symName)
	if i < len(lm.names) && lm.names[i] == symName {
		return lm.symbols[symName], true
	}
	return Symbol{}, false
}

// CloseRtx runs Fini(rtx) on every module that rtx has touched. An
// interp.Rtx calls this once as part of its own shutdown.
func (l *Loader) CloseRtx(rtx RtxHandle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, lm := range l.loaded {
		if lm.initDone[rtx] {
			lm.mod.Fini(rtx)
			delete(lm.initDone, rtx)
		}
	}
}

// Shutdown unloads every module the loader ever loaded. Called once when
// the embedding process is done with Hawk entirely, never per instance.
func (l *Loader) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for name, lm := range l.loaded {
		lm.mod.Unload()
		delete(l.loaded, name)
	}
}

func splitQualified(name string) (mod, sym string, ok bool) {
	for i := 0; i+1 < len(name); i++ {
		if name[i] == ':' && name[i+1] == ':' {
			return name[:i], name[i+2:], true
		}
	}
	return "", "", false
}

func queryAllNames(m Module) []string {
	if n, ok := m.(SymbolNamer); ok {
		return n.SymbolNames()
	}
	return nil
}

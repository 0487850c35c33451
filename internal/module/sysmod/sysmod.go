// Package sysmod is the "sys" module: the one concrete module
// implementation the design keeps in scope (mod-uci/mod-sqlite/mod-memc/
// mod-ffi are explicitly out of scope), standing in for the original
// hawk-utl.h standard-module surface (time, environment access, sleep) so
// internal/module's loader contract has something real to load.
//
// Grounded on internal/module's own doc comment (query/init/fini/unload,
// per-rtx state keyed by the calling Rtx pointer) and on the teacher's
// builtin-function registration style.
package sysmod

import (
	"os"
	"sync"
	"time"

	"github.com/hawk-lang/hawk/internal/module"
	"github.com/hawk-lang/hawk/internal/value"
)

func init() {
	module.Register("sys", func() module.Module { return newModule() })
}

type sysModule struct {
	mu    sync.Mutex
	state map[module.RtxHandle]*rtxState
}

type rtxState struct {
	startedAt time.Time
}

func newModule() *sysModule {
	return &sysModule{state: map[module.RtxHandle]*rtxState{}}
}

func (m *sysModule) Name() string { return "sys" }

// SymbolNames lists every exported symbol up front so the loader can build
// its sorted table once at load time instead of probing names on demand.
func (m *sysModule) SymbolNames() []string {
	return []string{"time", "sleep", "getenv", "setenv", "hostname", "pid", "errno"}
}

func (m *sysModule) Query(name string) (module.Symbol, bool) {
	switch name {
	case "time":
		return module.Symbol{Kind: module.SymFunction, Fn: m.sysTime}, true
	case "sleep":
		return module.Symbol{Kind: module.SymFunction, Fn: sysSleep}, true
	case "getenv":
		return module.Symbol{Kind: module.SymFunction, Fn: sysGetenv}, true
	case "setenv":
		return module.Symbol{Kind: module.SymFunction, Fn: sysSetenv}, true
	case "hostname":
		return module.Symbol{Kind: module.SymFunction, Fn: sysHostname}, true
	case "pid":
		return module.Symbol{Kind: module.SymFunction, Fn: sysPid}, true
	case "errno":
		return module.Symbol{Kind: module.SymIntConst, Const: 0}, true
	default:
		return module.Symbol{}, false
	}
}

// Init records the instance's start time, used by sys::time's optional
// "elapsed since init" mode (no argument) as distinct from "wall clock"
// mode (a truthy argument).
func (m *sysModule) Init(rtx module.RtxHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state[rtx] = &rtxState{startedAt: time.Now()}
	return nil
}

func (m *sysModule) Fini(rtx module.RtxHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, rtx)
}

func (m *sysModule) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = map[module.RtxHandle]*rtxState{}
}

// sysTime implements sys::time([wallclock]): with no argument (or a falsy
// one) it returns seconds elapsed since this Rtx's sys::Init; with a truthy
// argument it returns the Unix wall-clock time instead.
func (m *sysModule) sysTime(rtx module.RtxHandle, argv []value.Value) (value.Value, error) {
	if len(argv) > 0 && argv[0].Bool() {
		return value.MakeFlt(float64(time.Now().UnixNano()) / 1e9), nil
	}
	m.mu.Lock()
	st, ok := m.state[rtx]
	m.mu.Unlock()
	if !ok {
		return value.MakeFlt(0), nil
	}
	return value.MakeFlt(time.Since(st.startedAt).Seconds()), nil
}

// sysSleep implements sys::sleep(seconds), blocking the calling goroutine
// for the given duration and returning 0 (mirrors the design's
// single-threaded-per-instance model: a script that calls sys::sleep just
// blocks its own Rtx, as the original blocking libc sleep() did).
func sysSleep(rtx module.RtxHandle, argv []value.Value) (value.Value, error) {
	if len(argv) == 0 {
		return value.MakeInt(0), nil
	}
	d := time.Duration(argv[0].ToFlt() * float64(time.Second))
	if d > 0 {
		time.Sleep(d)
	}
	return value.MakeInt(0), nil
}

func sysGetenv(rtx module.RtxHandle, argv []value.Value) (value.Value, error) {
	if len(argv) == 0 {
		return value.MakeStr(""), nil
	}
	return value.MakeStr(os.Getenv(argv[0].ToStr("%.6g"))), nil
}

func sysSetenv(rtx module.RtxHandle, argv []value.Value) (value.Value, error) {
	if len(argv) < 2 {
		return value.MakeInt(-1), nil
	}
	if err := os.Setenv(argv[0].ToStr("%.6g"), argv[1].ToStr("%.6g")); err != nil {
		return value.MakeInt(-1), nil
	}
	return value.MakeInt(0), nil
}

func sysHostname(rtx module.RtxHandle, argv []value.Value) (value.Value, error) {
	h, err := os.Hostname()
	if err != nil {
		return value.MakeStr(""), nil
	}
	return value.MakeStr(h), nil
}

func sysPid(rtx module.RtxHandle, argv []value.Value) (value.Value, error) {
	return value.MakeInt(int64(os.Getpid())), nil
}

package module

import (
	"testing"

	"github.com/hawk-lang/hawk/internal/value"
)

type fakeModule struct {
	inited  map[RtxHandle]bool
	finied  int
	unload  int
	initErr error
}

func newFakeModule() *fakeModule { return &fakeModule{inited: map[RtxHandle]bool{}} }

func (m *fakeModule) Name() string { return "fake" }

func (m *fakeModule) SymbolNames() []string { return []string{"echo", "answer"} }

func (m *fakeModule) Query(name string) (Symbol, bool) {
	switch name {
	case "echo":
		return Symbol{Kind: SymFunction, Fn: func(rtx RtxHandle, argv []value.Value) (value.Value, error) {
			if len(argv) == 0 {
				return value.MakeStr(""), nil
			}
			return argv[0], nil
		}}, true
	case "answer":
		return Symbol{Kind: SymIntConst, Const: 42}, true
	}
	return Symbol{}, false
}

func (m *fakeModule) Init(rtx RtxHandle) error {
	if m.initErr != nil {
		return m.initErr
	}
	m.inited[rtx] = true
	return nil
}

func (m *fakeModule) Fini(rtx RtxHandle) { m.finied++ }
func (m *fakeModule) Unload()            { m.unload++ }

func TestLoaderLookupInitsOncePerInstance(t *testing.T) {
	fm := newFakeModule()
	Register("fake_test_once", func() Module { return fm })

	l := NewLoader(nil)
	rtx := new(int)

	sym, err := l.Lookup(rtx, "fake_test_once::answer")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if sym.Kind != SymIntConst || sym.Const != 42 {
		t.Errorf("got %+v", sym)
	}
	if !fm.inited[rtx] {
		t.Errorf("expected Init to run for rtx")
	}

	if _, err := l.Lookup(rtx, "fake_test_once::echo"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	l.CloseRtx(rtx)
	if fm.finied != 1 {
		t.Errorf("expected Fini to run exactly once, got %d", fm.finied)
	}
}

func TestLoaderLookupUnqualifiedNameIsError(t *testing.T) {
	l := NewLoader(nil)
	if _, err := l.Lookup(new(int), "notqualified"); err == nil {
		t.Errorf("expected an error for a non-module-qualified name")
	}
}

func TestLoaderLookupUnknownModuleIsError(t *testing.T) {
	l := NewLoader(nil)
	if _, err := l.Lookup(new(int), "nosuchmod::x"); err == nil {
		t.Errorf("expected an error for an unregistered module")
	}
}

func TestLoaderShutdownUnloadsEveryLoadedModule(t *testing.T) {
	fm := newFakeModule()
	Register("fake_test_shutdown", func() Module { return fm })

	l := NewLoader(nil)
	if _, err := l.Lookup(new(int), "fake_test_shutdown::answer"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	l.Shutdown()
	if fm.unload != 1 {
		t.Errorf("expected Unload to run exactly once, got %d", fm.unload)
	}
}

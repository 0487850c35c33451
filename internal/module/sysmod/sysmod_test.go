package sysmod

import (
	"testing"

	"github.com/hawk-lang/hawk/internal/gem"
	"github.com/hawk-lang/hawk/internal/module"
	"github.com/hawk-lang/hawk/internal/value"
)

func TestSysModuleRegistered(t *testing.T) {
	loader := module.NewLoader(gem.NewGem(nil))
	rtx := new(int)
	sym, err := loader.Lookup(rtx, "sys::pid")
	if err != nil {
		t.Fatalf("lookup sys::pid: %v", err)
	}
	if sym.Kind != module.SymFunction {
		t.Fatalf("expected a function symbol, got kind %v", sym.Kind)
	}
	v, err := sym.Fn(rtx, nil)
	if err != nil {
		t.Fatalf("call sys::pid: %v", err)
	}
	if v.ToInt() <= 0 {
		t.Errorf("expected a positive pid, got %v", v.ToInt())
	}
}

func TestSysSleepZero(t *testing.T) {
	loader := module.NewLoader(nil)
	rtx := new(int)
	sym, err := loader.Lookup(rtx, "sys::sleep")
	if err != nil {
		t.Fatalf("lookup sys::sleep: %v", err)
	}
	v, err := sym.Fn(rtx, []value.Value{value.MakeFlt(0)})
	if err != nil {
		t.Fatalf("call sys::sleep: %v", err)
	}
	if v.ToInt() != 0 {
		t.Errorf("expected sys::sleep to return 0, got %v", v.ToInt())
	}
}

func TestSysGetenvSetenv(t *testing.T) {
	loader := module.NewLoader(nil)
	rtx := new(int)

	setSym, err := loader.Lookup(rtx, "sys::setenv")
	if err != nil {
		t.Fatalf("lookup sys::setenv: %v", err)
	}
	if _, err := setSym.Fn(rtx, []value.Value{value.MakeStr("HAWK_SYSMOD_TEST"), value.MakeStr("ok")}); err != nil {
		t.Fatalf("call sys::setenv: %v", err)
	}

	getSym, err := loader.Lookup(rtx, "sys::getenv")
	if err != nil {
		t.Fatalf("lookup sys::getenv: %v", err)
	}
	v, err := getSym.Fn(rtx, []value.Value{value.MakeStr("HAWK_SYSMOD_TEST")})
	if err != nil {
		t.Fatalf("call sys::getenv: %v", err)
	}
	if v.ToStr("%.6g") != "ok" {
		t.Errorf("got %q, want %q", v.ToStr("%.6g"), "ok")
	}
}

func TestSysUnknownSymbol(t *testing.T) {
	loader := module.NewLoader(nil)
	rtx := new(int)
	if _, err := loader.Lookup(rtx, "sys::nosuchsymbol"); err == nil {
		t.Errorf("expected an error looking up an unknown symbol")
	}
}

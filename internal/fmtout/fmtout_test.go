package fmtout

import (
	"testing"

	"github.com/hawk-lang/hawk/internal/value"
)

func TestSprintfBasic(t *testing.T) {
	got := Sprintf("%d-%s", []value.Value{value.MakeInt(3), value.MakeStr("x")}, "%.6g")
	if got != "3-x" {
		t.Errorf("got %q", got)
	}
}

func TestSprintfWidthAndPrecision(t *testing.T) {
	got := Sprintf("%5.2f", []value.Value{value.MakeFlt(3.14159)}, "%.6g")
	if got != " 3.14" {
		t.Errorf("got %q", got)
	}
}

func TestSprintfDynamicWidth(t *testing.T) {
	got := Sprintf("%*d", []value.Value{value.MakeInt(5), value.MakeInt(7)}, "%.6g")
	if got != "    7" {
		t.Errorf("got %q", got)
	}
}

func TestSprintfPercentLiteral(t *testing.T) {
	got := Sprintf("100%%", nil, "%.6g")
	if got != "100%" {
		t.Errorf("got %q", got)
	}
}

func TestSprintfCharFromNumber(t *testing.T) {
	got := Sprintf("%c", []value.Value{value.MakeInt(65)}, "%.6g")
	if got != "A" {
		t.Errorf("got %q", got)
	}
}

func TestSprintfHex(t *testing.T) {
	got := Sprintf("%x %X", []value.Value{value.MakeInt(255), value.MakeInt(255)}, "%.6g")
	if got != "ff FF" {
		t.Errorf("got %q", got)
	}
}

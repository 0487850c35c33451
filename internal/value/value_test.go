package value

import "testing"

func TestToFltParsesPrefixes(t *testing.T) {
	cases := []struct {
		s    string
		want float64
	}{
		{"42", 42},
		{"  -3.5", -3.5},
		{"3.14abc", 3.14},
		{"1e3", 1000},
		{"0x1F", 31},
		{"0b101", 5},
		{"010", 8},
		{"0777", 511},
		{"abc", 0},
		{"", 0},
	}
	for _, c := range cases {
		got := MakeStr(c.s).ToFlt()
		if got != c.want {
			t.Errorf("ToFlt(%q) = %v, want %v", c.s, got, c.want)
		}
	}
}

func TestToFltOctalVsNonOctalLeadingZero(t *testing.T) {
	// "09"/"0.5"/"0e2" aren't valid octal numerals (a non-octal digit, a
	// decimal point, and an exponent respectively), so they fall through to
	// plain decimal/float parsing instead of being rejected.
	if got := MakeStr("09").ToFlt(); got != 9 {
		t.Errorf(`ToFlt("09") = %v, want 9 (decimal, not octal)`, got)
	}
	if got := MakeStr("0.5").ToFlt(); got != 0.5 {
		t.Errorf(`ToFlt("0.5") = %v, want 0.5`, got)
	}
	if got := MakeStr("0e2").ToFlt(); got != 0 {
		t.Errorf(`ToFlt("0e2") = %v, want 0`, got)
	}
}

func TestLooksNumericRequiresWholeString(t *testing.T) {
	if !LooksNumeric("42") {
		t.Errorf("42 should be numeric")
	}
	if LooksNumeric("42abc") {
		t.Errorf("42abc should not be a whole number")
	}
	if !LooksNumeric("  3.5  ") {
		t.Errorf("padded number should still count")
	}
}

func TestMakeNumStrMarksNumericString(t *testing.T) {
	v := MakeNumStr("007")
	if !v.IsNumericStr() {
		t.Errorf("007 should be a numeric string")
	}
	v2 := MakeNumStr("abc")
	if v2.IsNumericStr() {
		t.Errorf("abc should not be a numeric string")
	}
}

func TestCmpNumericVsString(t *testing.T) {
	convfmt := "%.6g"
	// Two numbers: numeric compare.
	if Cmp(MakeInt(2), MakeInt(10), convfmt, true) >= 0 {
		t.Errorf("2 should be less than 10 numerically")
	}
	// Two plain (non-numeric) strings: string compare ("10" < "2" lexically).
	if Cmp(MakeStr("10"), MakeStr("2"), convfmt, true) >= 0 {
		t.Errorf("\"10\" should be less than \"2\" lexically")
	}
	// Two numeric strings with NCMPONSTR on: numeric compare.
	if Cmp(MakeNumStr("10"), MakeNumStr("2"), convfmt, true) <= 0 {
		t.Errorf("numeric strings 10 and 2 should compare numerically")
	}
}

func TestStrictEqualDiffersByKind(t *testing.T) {
	if StrictEqual(MakeInt(1), MakeStr("1")) {
		t.Errorf("int 1 and str \"1\" must not be strictly equal")
	}
	if !StrictEqual(MakeInt(1), MakeInt(1)) {
		t.Errorf("int 1 and int 1 must be strictly equal")
	}
}

func TestCopyForStoreIndependence(t *testing.T) {
	a := MakeMap()
	a.Map()["x"] = MakeInt(1)
	b := a.CopyForStore(false)
	b.Map()["x"] = MakeInt(2)
	if a.Map()["x"].ToInt() != 1 {
		t.Errorf("copy-on-store leaked mutation back into original")
	}
}

func TestCopyForStoreFlexShare(t *testing.T) {
	a := MakeMap()
	a.Map()["x"] = MakeInt(1)
	b := a.CopyForStore(true)
	b.Map()["x"] = MakeInt(2)
	if a.Map()["x"].ToInt() != 2 {
		t.Errorf("flex-share copy should alias the same map")
	}
}

func TestBoolTruthiness(t *testing.T) {
	if MakeStr("").Bool() {
		t.Errorf("empty string should be false")
	}
	if !MakeStr("0").Bool() {
		t.Errorf("non-numeric string \"0\" should be true")
	}
	if MakeNumStr("0").Bool() {
		t.Errorf("numeric string \"0\" should be false")
	}
	if MakeInt(0).Bool() {
		t.Errorf("int 0 should be false")
	}
}

func TestToStrFormatsIntegralFloatsWithoutDecimal(t *testing.T) {
	v := MakeFlt(3.0)
	if v.ToStr("%.6g") != "3" {
		t.Errorf("got %q, want \"3\"", v.ToStr("%.6g"))
	}
	v2 := MakeFlt(3.5)
	if v2.ToStr("%.6g") != "3.5" {
		t.Errorf("got %q, want \"3.5\"", v2.ToStr("%.6g"))
	}
}

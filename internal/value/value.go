// Package value implements Hawk's tagged scalar/array representation and
// its coercion rules. The representation follows the
// teacher's (goawk's) habit of a single small struct carrying every variant
// rather than an interface-per-kind hierarchy, generalized to the fuller
// variant set the design calls for (char, bchr, mbs, bob, ref in addition to
// nil/int/flt/str/array/map).
//
// Reference counting: the design requires "every live Value has refcount >= 1"
// as an implementation invariant of the original C runtime. Go's garbage
// collector discharges that invariant for us; internal/value does not
// hand-roll counts (see DESIGN.md). What the invariant is actually
// protecting — that assigning a map into a slot doesn't let later mutation
// through a different slot leak across — is preserved here by making
// Assign on Array/Map semantics copy-on-store unless FlexMap sharing is
// explicitly requested (see CopyForStore).
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind tags a Value's active variant.
type Kind int

const (
	Nil Kind = iota
	Char
	Byte
	Int
	Flt
	Str
	MBS
	Blob
	Array
	Map
	Ref
)

func (k Kind) String() string {
	switch k {
	case Nil:
		return "nil"
	case Char:
		return "char"
	case Byte:
		return "bchr"
	case Int:
		return "int"
	case Flt:
		return "flt"
	case Str:
		return "str"
	case MBS:
		return "mbs"
	case Blob:
		return "bob"
	case Array:
		return "array"
	case Map:
		return "map"
	case Ref:
		return "ref"
	default:
		return "unknown"
	}
}

// Slot is the interface a Ref value points at: a variable slot or a
// map/array element, used for by-reference (out) parameters.
type Slot interface {
	Get() Value
	Set(Value)
}

// Value is Hawk's single scalar/collection representation.
//
// numericStr marks a Str value that was produced directly by input field
// splitting and whose text parses as a number (the "Numeric string").
// Such values compare numerically against other numeric operands when
// NCMPONSTR is enabled.
type Value struct {
	kind       Kind
	num        float64
	str        string
	bytes      []byte
	array      map[string]Value
	ref        Slot
	numericStr bool
}

// MakeNil returns the nil value (also the zero Value).
func MakeNil() Value { return Value{kind: Nil} }

// MakeInt builds an integer value.
func MakeInt(i int64) Value { return Value{kind: Int, num: float64(i)} }

// MakeFlt builds a floating point value.
func MakeFlt(f float64) Value { return Value{kind: Flt, num: f} }

// MakeChar builds a single wide-character value.
func MakeChar(r rune) Value { return Value{kind: Char, num: float64(r)} }

// MakeByte builds a single byte value.
func MakeByte(b byte) Value { return Value{kind: Byte, num: float64(b)} }

// MakeStr builds a plain string value.
func MakeStr(s string) Value { return Value{kind: Str, str: s} }

// MakeNumStr builds a numeric string: text that came from input splitting
// and parses as a number. Compares numerically under NCMPONSTR/NUMSTRDETECT.
func MakeNumStr(s string) Value {
	v := Value{kind: Str, str: s}
	if _, ok := parseNumPrefix(s, true); ok {
		v.numericStr = true
	}
	return v
}

// MakeMBS builds a byte-string (mbs) value; embedded NULs are legal.
func MakeMBS(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: MBS, bytes: cp}
}

// MakeBlob builds an opaque byte-blob value.
func MakeBlob(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: Blob, bytes: cp}
}

// MakeMap builds an empty associative array.
func MakeMap() Value { return Value{kind: Map, array: make(map[string]Value)} }

// MakeArray builds an empty array with a capacity hint (dense or mapping;
// Hawk arrays are represented uniformly as maps keyed by decimal index,
// per the "purely a key-encoding convention over map").
func MakeArray(hint int) Value { return Value{kind: Array, array: make(map[string]Value, hint)} }

// MakeRef wraps a Slot as a reference value, used for by-reference params.
func MakeRef(s Slot) Value { return Value{kind: Ref, ref: s} }

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNil() bool      { return v.kind == Nil }
func (v Value) IsNumericStr() bool { return v.kind == Str && v.numericStr }
func (v Value) Bytes() []byte    { return v.bytes }
func (v Value) Map() map[string]Value {
	if v.kind == Array || v.kind == Map {
		return v.array
	}
	return nil
}
func (v Value) Ref() Slot { return v.ref }

// CopyForStore returns the value to actually install into a slot when v is
// being assigned somewhere else. Scalars are immutable and pass through
// unchanged. Arrays/maps are deep-copied unless flexShare is true (the
// FLEXMAP "whole array" assignment trait), which keeps the original C
// engine's documented preference for copy over cyclic sharing.
func (v Value) CopyForStore(flexShare bool) Value {
	if v.kind != Array && v.kind != Map {
		return v
	}
	if flexShare {
		return v
	}
	cp := make(map[string]Value, len(v.array))
	for k, e := range v.array {
		cp[k] = e.CopyForStore(false)
	}
	out := v
	out.array = cp
	return out
}

// ToInt coerces to a signed integer (the design: to_int).
func (v Value) ToInt() int64 {
	switch v.kind {
	case Nil:
		return 0
	case Int, Char, Byte:
		return int64(v.num)
	case Flt:
		return int64(v.num)
	case Str, MBS:
		f, _ := v.toNumOrZero()
		return int64(f)
	default:
		return 0
	}
}

// ToFlt coerces to a double (the design: to_flt).
func (v Value) ToFlt() float64 {
	switch v.kind {
	case Nil:
		return 0
	case Int, Char, Byte, Flt:
		return v.num
	case Str:
		f, _ := v.toNumOrZero()
		return f
	case MBS:
		f, _ := parseNumPrefix(string(v.bytes), false)
		return f
	default:
		return 0
	}
}

func (v Value) toNumOrZero() (float64, bool) {
	f, ok := parseNumPrefix(v.str, false)
	if !ok {
		return 0, false
	}
	return f, true
}

// ToNum returns either an int64 or a float64, mirroring to_num's "returns
// either int or flt" behavior: integral values round-trip as int64.
func (v Value) ToNum() (i int64, f float64, isInt bool) {
	flt := v.ToFlt()
	if flt == math.Trunc(flt) && !math.IsInf(flt, 0) && math.Abs(flt) < 1e18 {
		return int64(flt), flt, true
	}
	return 0, flt, false
}

// Bool implements AWK truthiness: numbers are true iff != 0, strings are
// true iff non-empty (except numeric strings, which use their numeric
// value), nil is false.
func (v Value) Bool() bool {
	switch v.kind {
	case Nil:
		return false
	case Int, Flt, Char, Byte:
		return v.num != 0
	case Str:
		if v.numericStr {
			return v.ToFlt() != 0
		}
		return v.str != ""
	case MBS:
		return len(v.bytes) != 0
	case Array, Map:
		return len(v.array) != 0
	default:
		return false
	}
}

// ToStr converts to a string using the given conversion format (CONVFMT or
// OFMT, per the design) for non-integral numbers.
func (v Value) ToStr(format string) string {
	switch v.kind {
	case Nil:
		return ""
	case Str:
		return v.str
	case MBS:
		return string(v.bytes)
	case Char:
		return string(rune(int64(v.num)))
	case Byte:
		return string([]byte{byte(v.num)})
	case Int:
		return strconv.FormatInt(int64(v.num), 10)
	case Flt:
		return formatFlt(v.num, format)
	default:
		return ""
	}
}

func formatFlt(f float64, format string) string {
	if math.IsNaN(f) {
		return "nan"
	}
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e18 {
		return strconv.FormatInt(int64(f), 10)
	}
	return fmt.Sprintf(format, f)
}

// ToMBS converts to a byte string.
func (v Value) ToMBS(format string) []byte {
	if v.kind == MBS || v.kind == Blob {
		return v.bytes
	}
	return []byte(v.ToStr(format))
}

// Cmp compares two values per the design: numeric comparison when both are
// numeric or both are numeric-strings (ncmpOnStr gates the second case
// per HAWK_NCMPONSTR), otherwise byte-wise string comparison.
func Cmp(a, b Value, convfmt string, ncmpOnStr bool) int {
	aNum := a.kind == Int || a.kind == Flt || a.kind == Char || a.kind == Byte || a.kind == Nil
	bNum := b.kind == Int || b.kind == Flt || b.kind == Char || b.kind == Byte || b.kind == Nil
	aNumStr := a.kind == Str && a.numericStr
	bNumStr := b.kind == Str && b.numericStr

	numeric := (aNum && bNum) ||
		(aNum && bNumStr) ||
		(bNum && aNumStr) ||
		(ncmpOnStr && aNumStr && bNumStr)

	if numeric {
		af, bf := a.ToFlt(), b.ToFlt()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := a.ToStr(convfmt), b.ToStr(convfmt)
	return strings.Compare(as, bs)
}

// StrictEqual implements === / !== : different kinds never equal, even if
// coercible.
func StrictEqual(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Nil:
		return true
	case Int, Flt, Char, Byte:
		return a.num == b.num
	case Str:
		return a.str == b.str
	case MBS, Blob:
		return string(a.bytes) == string(b.bytes)
	default:
		return false
	}
}

// parseNumPrefix implements the liberal string->number tokenizer of spec
// §4.1: optional sign, 0x/0b/0-octal integer forms, decimal float with
// optional exponent. requireWhole, when true (used to classify numeric
// strings), requires the entire (trimmed) string to be consumed.
func parseNumPrefix(s string, requireWhole bool) (float64, bool) {
	orig := s
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	i := 0
	n := len(t)
	sign := 1.0
	if i < n && (t[i] == '+' || t[i] == '-') {
		if t[i] == '-' {
			sign = -1
		}
		i++
	}
	start := i
	if i+1 < n && t[i] == '0' && (t[i+1] == 'x' || t[i+1] == 'X') {
		j := i + 2
		for j < n && isHexDigit(t[j]) {
			j++
		}
		if j == i+2 {
			return 0, false
		}
		iv, err := strconv.ParseInt(t[i+2:j], 16, 64)
		if err != nil {
			return 0, false
		}
		if requireWhole && j != n {
			return 0, false
		}
		_ = orig
		return sign * float64(iv), true
	}
	if i+1 < n && t[i] == '0' && (t[i+1] == 'b' || t[i+1] == 'B') {
		j := i + 2
		for j < n && (t[j] == '0' || t[j] == '1') {
			j++
		}
		if j == i+2 {
			return 0, false
		}
		iv, err := strconv.ParseInt(t[i+2:j], 2, 64)
		if err != nil {
			return 0, false
		}
		if requireWhole && j != n {
			return 0, false
		}
		return sign * float64(iv), true
	}
	// Classic leading-zero octal ("010" == decimal 8): only when every digit
	// after the leading 0 is an octal digit and the run isn't actually the
	// start of a decimal float ("0.5", "0e9") or a non-octal decimal ("09").
	if i < n && t[i] == '0' {
		j := i + 1
		allOctal := true
		for j < n && isDigit(t[j]) {
			if t[j] > '7' {
				allOctal = false
			}
			j++
		}
		isFloatish := j < n && (t[j] == '.' || t[j] == 'e' || t[j] == 'E')
		if j > i+1 && allOctal && !isFloatish {
			if iv, err := strconv.ParseInt(t[i+1:j], 8, 64); err == nil {
				if requireWhole && j != n {
					return 0, false
				}
				return sign * float64(iv), true
			}
		}
	}
	// Decimal integer/float with optional exponent.
	j := i
	sawDigit := false
	for j < n && isDigit(t[j]) {
		j++
		sawDigit = true
	}
	if j < n && t[j] == '.' {
		j++
		for j < n && isDigit(t[j]) {
			j++
			sawDigit = true
		}
	}
	if !sawDigit {
		return 0, false
	}
	if j < n && (t[j] == 'e' || t[j] == 'E') {
		k := j + 1
		if k < n && (t[k] == '+' || t[k] == '-') {
			k++
		}
		if k < n && isDigit(t[k]) {
			for k < n && isDigit(t[k]) {
				k++
			}
			j = k
		}
	}
	if requireWhole && j != n {
		return 0, false
	}
	f, err := strconv.ParseFloat(t[start:j], 64)
	if err != nil {
		return 0, false
	}
	return sign * f, true
}

func isDigit(b byte) bool    { return b >= '0' && b <= '9' }
func isHexDigit(b byte) bool { return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F') }

// LooksNumeric reports whether s (as a whole, ignoring surrounding space)
// is a valid number, used by field splitting under NUMSTRDETECT.
func LooksNumeric(s string) bool {
	_, ok := parseNumPrefix(s, true)
	return ok
}

// Package fmtout implements the printf-style formatting byte-engine whose
// contract the design summarizes: flags, width/precision (including the `*`
// dynamic forms), and conversions d i o x X u c s e E f F g G %%. It backs
// the interpreter's sprintf and printf.
//
// Grounded on kolkov/uawk's internal/vm builtinSprintf, generalized from
// that package's types.Value to Hawk's internal/value.Value. Every argument
// goes through Value's own coercions (ToFlt, ToStr); there is no separate
// mbs/blob path, so an mbs argument formats as its bytes and a blob
// argument formats as an empty string under %s.
package fmtout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hawk-lang/hawk/internal/value"
)

// Sprintf renders format against args using AWK/Hawk formatting semantics.
// convfmt is the format ToStr uses when a non-integral number is given to
// %s (or to %c as a non-numeric value).
func Sprintf(format string, args []value.Value, convfmt string) string {
	var result strings.Builder
	idx := 0
	next := func() value.Value {
		if idx < len(args) {
			v := args[idx]
			idx++
			return v
		}
		return value.MakeNil()
	}

	i := 0
	for i < len(format) {
		if format[i] != '%' {
			result.WriteByte(format[i])
			i++
			continue
		}
		i++
		if i >= len(format) {
			result.WriteByte('%')
			break
		}
		if format[i] == '%' {
			result.WriteByte('%')
			i++
			continue
		}

		var flags strings.Builder
		for i < len(format) && strings.ContainsAny(string(format[i]), "-+ #0") {
			flags.WriteByte(format[i])
			i++
		}

		var width string
		if i < len(format) && format[i] == '*' {
			w := int(next().ToFlt())
			if w < 0 {
				flags.WriteByte('-')
				w = -w
			}
			width = strconv.Itoa(w)
			i++
		} else {
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				width += string(format[i])
				i++
			}
		}

		var precision string
		if i < len(format) && format[i] == '.' {
			precision = "."
			i++
			if i < len(format) && format[i] == '*' {
				p := int(next().ToFlt())
				if p >= 0 {
					precision += strconv.Itoa(p)
				} else {
					precision = ""
				}
				i++
			} else {
				for i < len(format) && format[i] >= '0' && format[i] <= '9' {
					precision += string(format[i])
					i++
				}
			}
		}

		if i >= len(format) {
			result.WriteString("%" + flags.String() + width + precision)
			break
		}
		spec := format[i]
		i++
		v := next()

		switch spec {
		case 'd', 'i':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"d", int64(v.ToFlt()))
		case 'o':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"o", uint64(v.ToFlt()))
		case 'x':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"x", uint64(v.ToFlt()))
		case 'X':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"X", uint64(v.ToFlt()))
		case 'u':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"d", uint64(v.ToFlt()))
		case 'c':
			writeChar(&result, v, convfmt)
		case 's':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"s", v.ToStr(convfmt))
		case 'e':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"e", v.ToFlt())
		case 'E':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"E", v.ToFlt())
		case 'f', 'F':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"f", v.ToFlt())
		case 'g':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"g", v.ToFlt())
		case 'G':
			fmt.Fprintf(&result, "%"+flags.String()+width+precision+"G", v.ToFlt())
		default:
			result.WriteByte('%')
			result.WriteByte(spec)
		}
	}
	return result.String()
}

func writeChar(w *strings.Builder, v value.Value, convfmt string) {
	switch v.Kind() {
	case value.Int, value.Flt, value.Char, value.Byte, value.Nil:
		n := int(v.ToFlt())
		if n >= 0 && n <= 0x10FFFF {
			w.WriteRune(rune(n))
		}
	default:
		s := v.ToStr(convfmt)
		if len(s) > 0 {
			w.WriteRune([]rune(s)[0])
		}
	}
}

package interp

import (
	"strings"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/internal/value"
)

// setRecord installs a freshly read record as $0 and marks the field cache
// stale; fields are split lazily on first reference to $1.. or NF, mirroring
// the teacher's "split only when needed" habit.
func (rt *Rtx) setRecord(text string) {
	if rt.fields == nil {
		rt.fields = make([]value.Value, 1, 16)
	}
	rt.fields = rt.fields[:1]
	rt.fields[0] = recordValue(text, rt.traits)
	rt.fieldsValid = false
}

func recordValue(text string, t traits.Set) value.Value {
	if t.Has(traits.NUMSTRDETECT) && value.LooksNumeric(text) {
		return value.MakeNumStr(text)
	}
	return value.MakeStr(text)
}

// ensureFields splits $0 into fields on demand, per the current FS, and
// updates NF to match.
func (rt *Rtx) ensureFields() {
	if rt.fieldsValid {
		return
	}
	rt0 := rt.fields[0].ToStr(rt.convfmt())
	parts := rt.splitFields(rt0)
	rt.fields = rt.fields[:1]
	for _, p := range parts {
		rt.fields = append(rt.fields, recordValue(p, rt.traits))
	}
	rt.specials[ast.V_NF] = value.MakeInt(int64(len(parts)))
	rt.fieldsValid = true
}

// splitFields splits s per FS's three AWK-defined regimes: a single space
// (skip leading/trailing whitespace, split on runs of whitespace), a single
// non-space character (split on literal occurrences), or any other string
// (a regular expression).
func (rt *Rtx) splitFields(s string) []string {
	fs := rt.fsString()
	switch {
	case fs == " ":
		return strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == '\t' || r == '\n'
		})
	case fs == "":
		out := make([]string, 0, len(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	case len(fs) == 1 && fs != "\\":
		if s == "" {
			return nil
		}
		return strings.Split(s, fs)
	default:
		re, err := rt.regex.Compile(fs)
		if err != nil || s == "" {
			if s == "" {
				return nil
			}
			return []string{s}
		}
		return re.Split(s, -1)
	}
}

// getField reads $n (n==0 returns $0, re-splitting lazily as needed;
// n>NF returns the empty/nil string; negative n is a runtime error the
// caller reports).
func (rt *Rtx) getField(n int) value.Value {
	if n == 0 {
		return rt.fields[0]
	}
	rt.ensureFields()
	if n < 0 || n >= len(rt.fields) {
		return value.MakeStr("")
	}
	return rt.fields[n]
}

// setField writes $n. $0 re-splits into fields; any $i (i>=1) rewrites $0 by
// rejoining all fields with OFS, extending with empty fields if i > NF (the
// design's canonical field-assignment contract).
func (rt *Rtx) setField(n int, v value.Value) {
	if n == 0 {
		rt.setRecord(v.ToStr(rt.convfmt()))
		return
	}
	rt.ensureFields()
	for len(rt.fields) <= n {
		rt.fields = append(rt.fields, value.MakeStr(""))
	}
	rt.fields[n] = v
	if n > rt.nf() {
		rt.specials[ast.V_NF] = value.MakeInt(int64(n))
	}
	rt.rebuildRecord()
}

// setNF implements NF=n: truncates or extends the field list, then rebuilds
// $0 from the (possibly shorter) field set joined by OFS.
func (rt *Rtx) setNF(n int) {
	if n < 0 {
		n = 0
	}
	for len(rt.fields) <= n {
		rt.fields = append(rt.fields, value.MakeStr(""))
	}
	rt.fields = rt.fields[:n+1]
	rt.specials[ast.V_NF] = value.MakeInt(int64(n))
	rt.rebuildRecord()
}

func (rt *Rtx) nf() int {
	return int(rt.specials[ast.V_NF].ToInt())
}

// rebuildRecord rejoins the current field list into $0 using OFS, without
// invalidating the field cache: a $0 rebuilt from field edits is not
// re-split, and assigning FS does not re-split the current record either.
func (rt *Rtx) rebuildRecord() {
	ofs := rt.ofsString()
	parts := make([]string, len(rt.fields)-1)
	for i := 1; i < len(rt.fields); i++ {
		parts[i-1] = rt.fields[i].ToStr(rt.convfmt())
	}
	rt.fields[0] = value.MakeStr(strings.Join(parts, ofs))
}

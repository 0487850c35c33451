package parser

import (
	"strconv"
	"strings"

	"github.com/hawk-lang/hawk/internal/traits"
)

// applyPragma interprets a captured "@pragma ..." line:
//
//	@pragma entry NAME           -- set the single entry-point function
//	@pragma trait NAME on|off    -- toggle one recognized trait
//	@pragma depth block N        -- override DEPTH_BLOCK_PARSE
//	@pragma depth expr N         -- override DEPTH_EXPR_PARSE
//
// Unrecognized pragmas are ignored (forward-compatible with embedder
// extensions), matching the original C hawk's lenient pragma handling.
func (p *Parser) applyPragma(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	switch fields[0] {
	case "entry":
		if len(fields) >= 2 {
			p.prog.EntryFunc = fields[1]
		}
	case "trait":
		if len(fields) >= 3 {
			t := traits.ByName(strings.ToLower(fields[1]))
			if t == 0 {
				return
			}
			switch fields[2] {
			case "on":
				p.traits = p.traits.With(t)
			case "off":
				p.traits = p.traits.Without(t)
			}
			p.lex.MultilineStr = p.traits.Has(traits.MULTILINESTR)
		}
	case "depth":
		if len(fields) >= 3 {
			n, err := strconv.Atoi(fields[2])
			if err != nil || n <= 0 {
				return
			}
			switch fields[1] {
			case "block":
				p.maxBlockDepth = n
			case "expr":
				p.maxExprDepth = n
			}
		}
	}
}

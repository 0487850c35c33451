// Package parser implements Hawk's recursive-descent parser:
// token stream in, *ast.Program out, with scope resolution (special,
// global and function-argument slots) performed inline as names are seen.
//
// Grounded on kolkov/uawk's parser (precedence-climbing expression parser,
// maxPrec/noIn/noGt suppression flags for the classic AWK print/for-in
// grammar ambiguities) and the original C hawk's @pragma vocabulary
// (lib/tree.c's pragma handling) for trait toggles and the depth/entry
// pragmas goawk and uawk have no equivalent of.
package parser

import (
	"fmt"

	"github.com/hawk-lang/hawk/internal/ast"
	"github.com/hawk-lang/hawk/internal/traits"
	"github.com/hawk-lang/hawk/lexer"
)

// Error is a parse-time syntax or semantic error, carrying a source
// location the way every other Hawk error does.
type Error struct {
	Pos     ast.Pos
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Pos, e.Message) }

type tokenInfo struct {
	tok  lexer.Token
	text string
	pos  ast.Pos
}

// Parser turns a token stream into a Program. Depth counters bound
// recursive-descent recursion on pathological input (DEPTH_BLOCK_PARSE /
// DEPTH_EXPR_PARSE).
type Parser struct {
	lex *lexer.Lexer

	buf []tokenInfo // small lookahead queue

	traits traits.Set

	maxBlockDepth int
	maxExprDepth  int
	blockDepth    int
	exprDepth     int

	prog      *ast.Program
	globalIdx map[string]int
	funcs     map[string]*ast.Function

	// curFunc tracks the function currently being parsed, for local/arg
	// resolution; nil at top level (pattern-action rules).
	curFunc    *funcScope
	firstError *Error
}

type funcScope struct {
	name    string
	locals  map[string]int
	order   []string
	isArray map[string]bool // whether a local/param is ever indexed/used as array
}

// Options configures a parse beyond pure grammar: which traits are
// active (classic vs modern presets, possibly overridden by embedder
// config before any @pragma runs) and the recursion depth bounds.
type Options struct {
	Traits        traits.Set
	MaxBlockDepth int
	MaxExprDepth  int
}

// DefaultOptions mirrors the runtime's own sane defaults.
func DefaultOptions() Options {
	return Options{Traits: traits.Default, MaxBlockDepth: 256, MaxExprDepth: 256}
}

// New creates a parser reading from lex.
func New(lex *lexer.Lexer, opts Options) *Parser {
	if opts.MaxBlockDepth <= 0 {
		opts.MaxBlockDepth = 256
	}
	if opts.MaxExprDepth <= 0 {
		opts.MaxExprDepth = 256
	}
	lex.MultilineStr = opts.Traits.Has(traits.MULTILINESTR)
	p := &Parser{
		lex:           lex,
		traits:        opts.Traits,
		maxBlockDepth: opts.MaxBlockDepth,
		maxExprDepth:  opts.MaxExprDepth,
		globalIdx:     map[string]int{},
		funcs:         map[string]*ast.Function{},
	}
	p.prog = &ast.Program{
		Functions: p.funcs,
		Globals:   p.globalIdx,
		Arrays:    map[string]bool{},
	}
	p.prog.Arrays["ARGV"] = true
	p.prog.Arrays["ENVIRON"] = true
	p.declareGlobal("ARGV")
	p.declareGlobal("ENVIRON")
	return p
}

// Traits returns the trait set in effect after parsing (pragmas may have
// changed it from what Options supplied).
func (p *Parser) Traits() traits.Set { return p.traits }

// ParseProgram is the convenience entry point the reference CLI and tests
// use: lex name/src with io/includeDirs, parse under opts, and return both
// the resolved program and whatever trait set @pragma lines left in
// effect (it may differ from opts.Traits).
func ParseProgram(name string, src []byte, io lexer.SourceIO, includeDirs []string, opts Options) (*ast.Program, traits.Set, error) {
	lex := lexer.New(name, src, io, includeDirs)
	p := New(lex, opts)
	prog, err := p.Parse()
	if err != nil {
		return nil, p.traits, err
	}
	if lex.Err() != nil {
		return nil, p.traits, lex.Err()
	}
	return prog, p.traits, nil
}

func (p *Parser) fill(n int) {
	for len(p.buf) <= n {
		tok := p.lex.Next()
		p.buf = append(p.buf, tokenInfo{tok: tok, text: p.lex.TokenText(), pos: toAstPos(p.lex.TokenPos())})
	}
}

func toAstPos(p lexer.Pos) ast.Pos { return ast.Pos{File: p.File, Line: p.Line, Column: p.Column} }

func (p *Parser) cur() tokenInfo {
	p.fill(0)
	return p.buf[0]
}

func (p *Parser) peek(n int) tokenInfo {
	p.fill(n)
	return p.buf[n]
}

func (p *Parser) advance() tokenInfo {
	t := p.cur()
	p.buf = p.buf[1:]
	return t
}

func (p *Parser) at(tok lexer.Token) bool { return p.cur().tok == tok }

func (p *Parser) errorf(pos ast.Pos, format string, args ...interface{}) {
	if p.firstError == nil {
		p.firstError = &Error{Pos: pos, Message: fmt.Sprintf(format, args...)}
	}
	panic(p.firstError)
}

func (p *Parser) expect(tok lexer.Token) tokenInfo {
	if p.cur().tok != tok {
		p.errorf(p.cur().pos, "expected %s, got %s", tok, p.cur().tok)
	}
	return p.advance()
}

// skipNewlines consumes any run of NEWLINE tokens (skipTerm also consumes
// SEMI).
func (p *Parser) skipNewlines() {
	for p.at(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) skipTerm() {
	for p.at(lexer.NEWLINE) || p.at(lexer.SEMI) {
		p.advance()
	}
}

// optNewlines consumes newlines that appear purely for line-continuation
// after tokens like ',', '&&', '||', '{', 'do', 'else'. Continuation after
// these tokens is always allowed; the parser does not consult the NEWLINE
// trait.
func (p *Parser) optNewlines() {
	for p.at(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) declareGlobal(name string) int {
	if idx, ok := p.globalIdx[name]; ok {
		return idx
	}
	idx := len(p.globalIdx) + 1
	p.globalIdx[name] = idx
	p.prog.GlobalNames = append(p.prog.GlobalNames, name)
	return idx
}

// Parse runs the full program grammar and returns the resolved AST, or the
// first parse error encountered.
func (p *Parser) Parse() (prog *ast.Program, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*Error); ok {
				err = pe
				prog = nil
				return
			}
			panic(r)
		}
	}()
	p.parseProgram()
	p.finishGlobalNames()
	return p.prog, nil
}

func (p *Parser) finishGlobalNames() {
	names := make([]string, len(p.globalIdx)+1)
	for name, idx := range p.globalIdx {
		if idx < len(names) {
			names[idx] = name
		}
	}
	p.prog.GlobalNames = names
}

func (p *Parser) parseProgram() {
	p.skipTerm()
	for !p.at(lexer.EOF) {
		switch {
		case p.at(lexer.AT_PRAGMA):
			p.applyPragma(p.advance().text)
		case p.at(lexer.FUNCTION):
			p.parseFunction()
		default:
			p.parseRule()
		}
		p.skipTerm()
	}
}

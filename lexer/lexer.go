package lexer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// SourceIO is the caller-supplied source driver. It only opens a named
// source; the returned ReadCloser does the reading and closing. The
// include stack, the resolution of relative @include paths and include
// cycle detection are kept by the Lexer, not by the driver.
type SourceIO interface {
	Open(name string) (io.ReadCloser, error)
}

// osSourceIO is the default driver: plain filesystem reads, used by the
// reference CLI and by tests.
type osSourceIO struct{}

func (osSourceIO) Open(name string) (io.ReadCloser, error) { return os.Open(name) }

// DefaultSourceIO is a plain-filesystem SourceIO, the default the CLI uses.
var DefaultSourceIO SourceIO = osSourceIO{}

// source is one entry of the include stack.
type source struct {
	path   string // empty for the master in-memory source
	dir    string // directory to resolve further relative includes against
	data   []byte
	pos    int
	line   int
	column int
}

// Lexer tokenizes a stack of sources: the top is either the embedder's
// master source or an included file.
type Lexer struct {
	io          SourceIO
	includeDirs []string
	maxIncludes int

	stack   []*source
	onStack map[string]bool // path -> true, for cycle detection

	tokenText string
	tokenPos  Pos
	err       error

	// MultilineStr enables raw multi-line string/regex literals (the
	// MULTILINESTR trait); configured by the parser before lexing begins.
	MultilineStr bool
}

// New creates a lexer over master source text (e.g. the -f script file or
// the literal script-string argument). name is used as the reported file
// for error locations (empty for a script-string argument).
func New(name string, text []byte, io SourceIO, includeDirs []string) *Lexer {
	if io == nil {
		io = DefaultSourceIO
	}
	dir := "."
	if name != "" {
		dir = filepath.Dir(name)
	}
	l := &Lexer{
		io:          io,
		includeDirs: includeDirs,
		maxIncludes: 64,
		onStack:     map[string]bool{},
	}
	l.stack = []*source{{path: name, dir: dir, data: text, line: 1, column: 1}}
	if name != "" {
		l.onStack[name] = true
	}
	return l
}

func (l *Lexer) cur() *source { return l.stack[len(l.stack)-1] }

// Err returns the first lexical error encountered, sticky across calls.
func (l *Lexer) Err() error { return l.err }

// TokenText returns the literal/identifier text of the most recently
// returned token (escape-decoded for STRING and CHAR; for REGEX, the raw
// body between the slashes).
func (l *Lexer) TokenText() string { return l.tokenText }

// TokenPos returns the position of the most recently returned token.
func (l *Lexer) TokenPos() Pos { return l.tokenPos }

func (l *Lexer) fail(format string, args ...interface{}) {
	if l.err == nil {
		s := l.cur()
		l.err = fmt.Errorf("%s:%d:%d: %s", s.path, s.line, s.column, fmt.Sprintf(format, args...))
	}
}

func (l *Lexer) peekByte() (byte, bool) {
	s := l.cur()
	for s.pos >= len(s.data) {
		if !l.popSource() {
			return 0, false
		}
		s = l.cur()
	}
	return s.data[s.pos], true
}

func (l *Lexer) popSource() bool {
	if len(l.stack) == 1 {
		return false
	}
	old := l.stack[len(l.stack)-1]
	if old.path != "" {
		delete(l.onStack, old.path)
	}
	l.stack = l.stack[:len(l.stack)-1]
	return true
}

func (l *Lexer) advance() byte {
	s := l.cur()
	b := s.data[s.pos]
	s.pos++
	if b == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	return b
}

func (l *Lexer) atEOFAllSources() bool {
	s := l.cur()
	return s.pos >= len(s.data) && len(l.stack) == 1
}

func (l *Lexer) skipSpacesAndComments() {
	for {
		b, ok := l.peekByte()
		if !ok {
			return
		}
		switch {
		case b == ' ' || b == '\t' || b == '\r':
			l.advance()
		case b == '\\':
			// Line continuation: backslash-newline is whitespace.
			s := l.cur()
			if s.pos+1 < len(s.data) && s.data[s.pos+1] == '\n' {
				l.advance()
				l.advance()
			} else {
				return
			}
		case b == '#':
			for {
				b, ok := l.peekByte()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
		default:
			return
		}
	}
}

// Next scans and returns the next token. It transparently resolves
// @include directives by pushing a new source, so callers never see them.
func (l *Lexer) Next() Token {
	for {
		l.skipSpacesAndComments()
		if l.atEOFAllSources() {
			l.setPos()
			return EOF
		}
		b, ok := l.peekByte()
		if !ok {
			l.setPos()
			return EOF
		}
		if b == '\n' {
			l.advance()
			l.setPos()
			return NEWLINE
		}
		if b == '@' {
			tok := l.lexDirective()
			if tok == NEWLINE {
				continue // @include fully consumed; keep scanning
			}
			return tok
		}
		if isIdentStart(b) {
			return l.lexIdentOrKeyword()
		}
		if isDigit(b) {
			return l.lexNumber()
		}
		if b == '"' {
			return l.lexString()
		}
		if b == '\'' {
			return l.lexChar()
		}
		return l.lexOperator()
	}
}

func (l *Lexer) setPos() {
	s := l.cur()
	l.tokenPos = Pos{File: s.path, Line: s.line, Column: s.column}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
func isIdentCont(b byte) bool { return isIdentStart(b) || isDigit(b) }
func isDigit(b byte) bool     { return b >= '0' && b <= '9' }

func (l *Lexer) lexIdentOrKeyword() Token {
	l.setPos()
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentCont(b) {
			break
		}
		sb.WriteByte(l.advance())
	}
	l.tokenText = sb.String()
	return Lookup(l.tokenText)
}

func (l *Lexer) lexNumber() Token {
	l.setPos()
	var sb strings.Builder
	// 0x / 0b prefixes. A classic leading-zero octal numeral ("010") has no
	// distinct prefix byte, so it falls through to the plain digit-run loop
	// below and is captured as ordinary token text; its base-8 vs base-10
	// interpretation happens downstream in parser.numberLit/value.parseNumPrefix.
	if b, ok := l.peekByte(); ok && b == '0' {
		sb.WriteByte(l.advance())
		if b2, ok := l.peekByte(); ok && (b2 == 'x' || b2 == 'X' || b2 == 'b' || b2 == 'B') {
			sb.WriteByte(l.advance())
			for {
				b, ok := l.peekByte()
				if !ok || !(isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')) {
					break
				}
				sb.WriteByte(l.advance())
			}
			l.tokenText = sb.String()
			return NUMBER
		}
	}
	for {
		b, ok := l.peekByte()
		if !ok || !isDigit(b) {
			break
		}
		sb.WriteByte(l.advance())
	}
	if b, ok := l.peekByte(); ok && b == '.' {
		sb.WriteByte(l.advance())
		for {
			b, ok := l.peekByte()
			if !ok || !isDigit(b) {
				break
			}
			sb.WriteByte(l.advance())
		}
	}
	if b, ok := l.peekByte(); ok && (b == 'e' || b == 'E') {
		save := sb.String()
		sb.WriteByte(l.advance())
		if b2, ok := l.peekByte(); ok && (b2 == '+' || b2 == '-') {
			sb.WriteByte(l.advance())
		}
		hadExpDigit := false
		for {
			b, ok := l.peekByte()
			if !ok || !isDigit(b) {
				break
			}
			sb.WriteByte(l.advance())
			hadExpDigit = true
		}
		if !hadExpDigit {
			// not actually an exponent; shouldn't normally happen mid-number
			l.tokenText = save
			return NUMBER
		}
	}
	l.tokenText = sb.String()
	return NUMBER
}

func (l *Lexer) lexString() Token {
	l.setPos()
	l.advance() // opening quote
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok {
			l.fail("unterminated string literal")
			return ILLEGAL
		}
		if b == '"' {
			l.advance()
			break
		}
		if b == '\n' && !l.MultilineStr {
			l.fail("newline in string literal")
			return ILLEGAL
		}
		if b == '\\' {
			l.advance()
			r, err := l.lexEscape()
			if err != nil {
				l.fail("%s", err)
				return ILLEGAL
			}
			sb.WriteRune(r)
			continue
		}
		sb.WriteByte(l.advance())
	}
	l.tokenText = sb.String()
	return STRING
}

func (l *Lexer) lexEscape() (rune, error) {
	b, ok := l.peekByte()
	if !ok {
		return 0, fmt.Errorf("unterminated escape sequence")
	}
	switch b {
	case 'n':
		l.advance()
		return '\n', nil
	case 't':
		l.advance()
		return '\t', nil
	case 'r':
		l.advance()
		return '\r', nil
	case '\\':
		l.advance()
		return '\\', nil
	case '"':
		l.advance()
		return '"', nil
	case '/':
		l.advance()
		return '/', nil
	case '0':
		l.advance()
		return 0, nil
	case 'x':
		l.advance()
		return l.lexHexEscape(2)
	case 'u':
		l.advance()
		return l.lexHexEscape(4)
	case 'U':
		l.advance()
		return l.lexHexEscape(8)
	default:
		l.advance()
		return rune(b), nil
	}
}

func (l *Lexer) lexHexEscape(n int) (rune, error) {
	var v rune
	for i := 0; i < n; i++ {
		b, ok := l.peekByte()
		if !ok {
			return 0, fmt.Errorf("truncated hex escape")
		}
		var d rune
		switch {
		case isDigit(b):
			d = rune(b - '0')
		case b >= 'a' && b <= 'f':
			d = rune(b-'a') + 10
		case b >= 'A' && b <= 'F':
			d = rune(b-'A') + 10
		default:
			if i == 0 {
				return 0, fmt.Errorf("bad hex escape")
			}
			return v, nil
		}
		l.advance()
		v = v*16 + d
	}
	return v, nil
}

func (l *Lexer) lexChar() Token {
	l.setPos()
	l.advance()
	var r rune
	if b, ok := l.peekByte(); ok && b == '\\' {
		l.advance()
		var err error
		r, err = l.lexEscape()
		if err != nil {
			l.fail("%s", err)
			return ILLEGAL
		}
	} else {
		// decode a possibly multi-byte rune from the remaining bytes
		s := l.cur()
		rr, size := utf8.DecodeRune(s.data[s.pos:])
		r = rr
		for i := 0; i < size; i++ {
			l.advance()
		}
	}
	if b, ok := l.peekByte(); !ok || b != '\'' {
		l.fail("unterminated char literal")
		return ILLEGAL
	}
	l.advance()
	l.tokenText = string(r)
	return CHAR
}

// LexRegex re-scans a "/pattern/" literal; called by the parser when it
// knows from grammar context that a '/' begins a regex rather than
// division (classic AWK's lexer/parser ambiguity), and the opening '/'
// has not yet been consumed.
func (l *Lexer) LexRegex() Token {
	l.setPos()
	l.advance() // opening /
	return l.scanRegexBody()
}

// LexRegexBody scans the body and closing '/' of a regex literal whose
// opening '/' the caller already consumed (as a SLASH token). The
// returned token's position is whatever TokenPos last held, i.e. the
// position recorded for that already-consumed SLASH.
func (l *Lexer) LexRegexBody() Token {
	return l.scanRegexBody()
}

func (l *Lexer) scanRegexBody() Token {
	var sb strings.Builder
	inClass := false
	for {
		b, ok := l.peekByte()
		if !ok {
			l.fail("unterminated regex literal")
			return ILLEGAL
		}
		if b == '\n' && !l.MultilineStr {
			l.fail("newline in regex literal")
			return ILLEGAL
		}
		if b == '\\' {
			sb.WriteByte(l.advance())
			if b2, ok := l.peekByte(); ok {
				sb.WriteByte(l.advance())
				_ = b2
			}
			continue
		}
		if b == '[' {
			inClass = true
		}
		if b == ']' {
			inClass = false
		}
		if b == '/' && !inClass {
			l.advance()
			break
		}
		sb.WriteByte(l.advance())
	}
	l.tokenText = sb.String()
	return REGEX
}

var threeCharOps = map[string]Token{}
var twoCharOps = map[string]Token{
	"+=": ADD_ASSIGN, "-=": SUB_ASSIGN, "*=": MUL_ASSIGN, "/=": DIV_ASSIGN,
	"%=": MOD_ASSIGN, "^=": POW_ASSIGN, "==": EQ, "!=": NE, "<=": LE,
	">=": GE, "&&": AND, "||": OR, "!~": NOMATCH, "++": INCR, "--": DECR,
	">>": APPEND, "|&": RWPIPE,
}
var oneCharOps = map[byte]Token{
	'{': LBRACE, '}': RBRACE, '(': LPAREN, ')': RPAREN, '[': LBRACKET,
	']': RBRACKET, ';': SEMI, ',': COMMA, '$': DOLLAR, '?': QUESTION,
	':': COLON, '=': ASSIGN, '<': LT, '>': GT, '~': MATCH, '+': PLUS,
	'-': MINUS, '*': STAR, '/': SLASH, '%': PERCENT, '^': CARET, '|': PIPE,
	'!': NOT,
}

func (l *Lexer) lexOperator() Token {
	l.setPos()
	s := l.cur()
	if s.pos+1 < len(s.data) {
		two := string(s.data[s.pos : s.pos+2])
		if tok, ok := twoCharOps[two]; ok {
			l.advance()
			l.advance()
			l.tokenText = two
			return tok
		}
	}
	b := l.advance()
	if tok, ok := oneCharOps[b]; ok {
		l.tokenText = string(b)
		return tok
	}
	l.fail("unexpected character %q", b)
	return ILLEGAL
}

// lexDirective handles '@include "path"' and '@pragma ...' lines.
// @include is fully transparent: it pushes a new source and the
// caller's Next() loop resumes scanning without returning a token for it.
// @pragma surfaces as AT_PRAGMA with the rest of the line captured in
// tokenText for the parser to interpret (trait toggles, entry, depths).
// "@reset" lexes as the RESET keyword.
func (l *Lexer) lexDirective() Token {
	l.setPos()
	l.advance() // '@'
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok || !isIdentCont(b) {
			break
		}
		sb.WriteByte(l.advance())
	}
	switch sb.String() {
	case "include":
		l.doInclude()
		return NEWLINE
	case "pragma":
		l.skipHSpace()
		var line strings.Builder
		for {
			b, ok := l.peekByte()
			if !ok || b == '\n' {
				break
			}
			line.WriteByte(l.advance())
		}
		l.tokenText = strings.TrimSpace(line.String())
		return AT_PRAGMA
	case "reset":
		l.tokenText = "reset"
		return RESET
	default:
		if sb.Len() == 0 {
			l.fail("expected a directive name after '@'")
			return ILLEGAL
		}
		// "@name(...)" is Hawk's indirect-call syntax: call the
		// function named by the current value of variable "name".
		l.tokenText = sb.String()
		return AT_IDENT
	}
}

func (l *Lexer) skipHSpace() {
	for {
		b, ok := l.peekByte()
		if !ok || (b != ' ' && b != '\t') {
			return
		}
		l.advance()
	}
}

func (l *Lexer) doInclude() {
	l.skipHSpace()
	b, ok := l.peekByte()
	if !ok || b != '"' {
		l.fail("expected quoted path after @include")
		return
	}
	l.advance()
	var sb strings.Builder
	for {
		b, ok := l.peekByte()
		if !ok || b == '"' {
			break
		}
		sb.WriteByte(l.advance())
	}
	if _, ok := l.peekByte(); !ok {
		l.fail("unterminated @include path")
		return
	}
	l.advance() // closing quote
	path := sb.String()

	resolved, data, err := l.resolveInclude(path)
	if err != nil {
		l.fail("@include %q: %s", path, err)
		return
	}
	if l.onStack[resolved] {
		l.fail("@include cycle detected at %q", resolved)
		return
	}
	if len(l.stack) >= l.maxIncludes {
		l.fail("@include depth exceeds limit (%d)", l.maxIncludes)
		return
	}
	l.onStack[resolved] = true
	l.stack = append(l.stack, &source{
		path: resolved,
		dir:  filepath.Dir(resolved),
		data: data,
		line: 1, column: 1,
	})
}

func (l *Lexer) resolveInclude(path string) (string, []byte, error) {
	candidates := []string{filepath.Join(l.cur().dir, path)}
	for _, d := range l.includeDirs {
		candidates = append(candidates, filepath.Join(d, path))
	}
	if filepath.IsAbs(path) {
		candidates = append([]string{path}, candidates...)
	}
	var lastErr error
	for _, c := range candidates {
		rc, err := l.io.Open(c)
		if err != nil {
			lastErr = err
			continue
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return "", nil, err
		}
		return c, data, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("not found")
	}
	return "", nil, lastErr
}

// SetMaxIncludeDepth configures the include-stack bound (HAWK_OPT_DEPTH_INCLUDE).
func (l *Lexer) SetMaxIncludeDepth(n int) { l.maxIncludes = n }

// Package gem holds the small set of per-instance services every other Hawk
// subsystem is handed a reference to: the error slot, the active character
// manager, and (eventually) allocator-style configuration such as a memory
// cap. It exists so that lexer, parser and interp errors all carry the same
// shape instead of each subsystem growing its own ad hoc error type.
package gem

import (
	"fmt"

	"github.com/hawk-lang/hawk/internal/cmgr"
)

// Code is an error kind, not a Go type: every error Hawk raises is tagged
// with one of these so embedders can branch on category instead of
// string-matching a message.
type Code int

const (
	NONE Code = iota
	OOMEM
	INVAL
	NOENT
	EXIST
	NOIMPL
	IOERR
	EOF
	SYSERR
	PERM
	SYNTAX
	EVALTOSTR
	EVALTONUM
	STACKOV
	REXERR
	INTERN
	PIPE
	AGAIN
	TMOUT
	MODNONM
	RFENT
)

var codeNames = [...]string{
	NONE: "NONE", OOMEM: "OOMEM", INVAL: "INVAL", NOENT: "NOENT",
	EXIST: "EXIST", NOIMPL: "NOIMPL", IOERR: "IOERR", EOF: "EOF",
	SYSERR: "SYSERR", PERM: "PERM", SYNTAX: "SYNTAX",
	EVALTOSTR: "EVALTOSTR", EVALTONUM: "EVALTONUM", STACKOV: "STACKOV",
	REXERR: "REXERR", INTERN: "INTERN", PIPE: "PIPE", AGAIN: "AGAIN",
	TMOUT: "TMOUT", MODNONM: "MODNONM", RFENT: "RFENT",
}

func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) {
		return "UNKNOWN"
	}
	return codeNames[c]
}

// Loc is a source location: file is empty for runtime errors that have no
// associated source file (e.g. a bad getline target variable).
type Loc struct {
	File   string
	Line   int
	Column int
}

func (l Loc) String() string {
	if l.File == "" && l.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error is the single error type every Hawk subsystem returns. It carries a
// Code so callers can test error class, a Loc for where it happened, and a
// pre-formatted message.
type Error struct {
	Code    Code
	Loc     Loc
	Message string
}

func (e *Error) Error() string {
	if loc := e.Loc.String(); loc != "" {
		return fmt.Sprintf("%s: %s: %s", loc, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New builds an *Error with a printf-style message, mirroring the
// newError(format, args...) helper the teacher keeps in interp.go.
func New(code Code, loc Loc, format string, args ...interface{}) *Error {
	return &Error{Code: code, Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// Gem is the per-instance service bundle: every Hawk, Rtx and parser holds
// one. It is deliberately tiny — Go's allocator and GC stand in for the
// original's custom mmgr, so Gem's job shrinks to the error slot and the
// active Cmgr.
type Gem struct {
	Cmgr cmgr.Cmgr

	lastErr *Error
}

// NewGem creates a Gem with the given character manager, defaulting to UTF-8
// when cm is nil.
func NewGem(cm cmgr.Cmgr) *Gem {
	if cm == nil {
		cm = cmgr.UTF8
	}
	return &Gem{Cmgr: cm}
}

// SetError records the most recent error on the gem and returns it, so call
// sites can write "return nil, g.SetError(...)".
func (g *Gem) SetError(code Code, loc Loc, format string, args ...interface{}) *Error {
	g.lastErr = New(code, loc, format, args...)
	return g.lastErr
}

// LastError returns the most recently recorded error, or nil.
func (g *Gem) LastError() *Error {
	return g.lastErr
}

// ClearError resets the error slot, e.g. after a TOLERANT recovery.
func (g *Gem) ClearError() {
	g.lastErr = nil
}

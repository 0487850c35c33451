package rio

import (
	"bufio"
	"io"
	"strings"

	"github.com/hawk-lang/hawk/internal/rex"
)

// recordScanner splits a byte stream into records the way the
// field-splitting rules split $0 into fields: RS == "" means paragraph
// mode (records separated by one or more blank lines, leading blank lines
// skipped); a single-character RS is a literal byte separator; anything
// longer is a regular expression separator.
//
// Grounded on the teacher's RS-driven scanning in interp.go, restructured
// around a growable buffer since RS (and therefore the split rule) can
// change between calls on the same open channel.
type recordScanner struct {
	r      *bufio.Reader
	rsFunc func() string
	regexc *rex.Compiler

	buf  []byte
	text string
	rt   string
	err  error
	eof  bool
}

func newRecordScanner(r io.Reader, rsFunc func() string) *recordScanner {
	return &recordScanner{
		r:      bufio.NewReaderSize(r, 64*1024),
		rsFunc: rsFunc,
		regexc: rex.NewCompiler(16, 64, 10000),
	}
}

// Scan reads the next record. It returns false at EOF or on error; callers
// distinguish the two via Err.
func (s *recordScanner) Scan() bool {
	rs := s.rsFunc()
	switch {
	case rs == "":
		return s.scanParagraph()
	case len(rs) == 1:
		return s.scanByte(rs[0])
	default:
		return s.scanRegex(rs)
	}
}

func (s *recordScanner) Text() string { return s.text }
func (s *recordScanner) RT() string   { return s.rt }
func (s *recordScanner) Err() error   { return s.err }

func (s *recordScanner) fill() bool {
	if s.eof {
		return false
	}
	chunk := make([]byte, 4096)
	n, err := s.r.Read(chunk)
	if n > 0 {
		s.buf = append(s.buf, chunk[:n]...)
	}
	if err != nil {
		s.eof = true
		if err != io.EOF {
			s.err = err
		}
	}
	return n > 0
}

func (s *recordScanner) scanByte(sep byte) bool {
	for {
		if i := indexByte(s.buf, sep); i >= 0 {
			s.text = string(s.buf[:i])
			s.rt = string(sep)
			s.buf = s.buf[i+1:]
			return true
		}
		if !s.fill() {
			break
		}
	}
	if len(s.buf) > 0 {
		s.text = string(s.buf)
		s.rt = ""
		s.buf = nil
		return true
	}
	return false
}

func indexByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

// scanParagraph implements RS=="" paragraph mode: records are separated by
// one or more blank lines; leading newlines before the first record are
// discarded.
func (s *recordScanner) scanParagraph() bool {
	for {
		s.buf = stripLeadingNewlines(s.buf)
		if i := strings.Index(string(s.buf), "\n\n"); i >= 0 {
			rest := s.buf[i:]
			j := 0
			for j < len(rest) && rest[j] == '\n' {
				j++
			}
			s.text = strings.TrimRight(string(s.buf[:i]), "\n")
			s.rt = string(rest[:j])
			s.buf = s.buf[i+j:]
			return true
		}
		if !s.fill() {
			break
		}
	}
	rem := strings.TrimRight(string(stripLeadingNewlines(s.buf)), "\n")
	s.buf = nil
	if rem != "" {
		s.text = rem
		s.rt = ""
		return true
	}
	return false
}

func stripLeadingNewlines(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == '\n' {
		i++
	}
	return b[i:]
}

// scanRegex implements a multi-character RS as a regular expression
// separator. It grows the buffer until either a match is found past the
// point where more input could extend it, or EOF is reached.
func (s *recordScanner) scanRegex(pattern string) bool {
	re, err := s.regexc.Compile(pattern)
	if err != nil {
		s.err = err
		return false
	}
	for {
		loc := re.FindStringIndex(string(s.buf))
		if loc != nil && (s.eof || loc[1] < len(s.buf)) {
			s.text = string(s.buf[:loc[0]])
			s.rt = string(s.buf[loc[0]:loc[1]])
			s.buf = s.buf[loc[1]:]
			return true
		}
		if !s.fill() {
			break
		}
	}
	if len(s.buf) > 0 {
		loc := re.FindStringIndex(string(s.buf))
		if loc != nil {
			s.text = string(s.buf[:loc[0]])
			s.rt = string(s.buf[loc[0]:loc[1]])
			s.buf = s.buf[loc[1]:]
			return true
		}
		s.text = string(s.buf)
		s.rt = ""
		s.buf = nil
		return true
	}
	return false
}

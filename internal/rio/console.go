package rio

import (
	"io"
	"os"
	"strings"
)

// Console drives the main input loop's implicit file walk: it consumes
// ARGV[1..ARGC-1] in order, treats a "name=value" entry as a deferred
// global assignment rather than a filename (the main-loop
// contract), skips empty entries, and falls back to stdin when no
// filename entry is ever seen ("-" also means stdin explicitly).
//
// Grounded on the teacher's ARGV-walking loop in interp.go (nextArg,
// nextInput) and aawk's CommandLine-embedded file iteration.
type Console struct {
	argv   []string
	pos    int
	assign func(name, value string)
	rsFunc func() string
	stdin  io.Reader

	cur       *recordScanner
	curFile   io.Closer
	filename  string
	any       bool
	stdinDone bool
}

// NewConsole creates a console walker over argv (ARGV[1:], i.e. excluding
// argv[0]). assign is invoked for each "var=value" entry encountered
// between files. stdin is read whenever the walk falls back to standard
// input (no filename ARGV entry, or an explicit "-"/"/dev/stdin" entry);
// a nil stdin defaults to os.Stdin, so embedders that don't care about
// redirecting it can pass nil.
func NewConsole(argv []string, assign func(name, value string), rsFunc func() string, stdin io.Reader) *Console {
	if stdin == nil {
		stdin = os.Stdin
	}
	return &Console{argv: argv, assign: assign, rsFunc: rsFunc, stdin: stdin}
}

// Filename returns the name of the file currently being read ("" for
// stdin with no explicit "-" entry consumed yet).
func (c *Console) Filename() string { return c.filename }

// NextRecord returns the next record from the implicit file sequence,
// opening the next ARGV entry (or stdin) as needed. newFile reports
// whether this record is the first one read from a newly opened file
// (the main loop uses this to reset FNR and fire beginfile/endfile).
func (c *Console) NextRecord() (text, rt string, newFile, ok bool, err error) {
	for {
		if c.cur != nil {
			if c.cur.Scan() {
				return c.cur.Text(), c.cur.RT(), false, true, nil
			}
			if e := c.cur.Err(); e != nil {
				err = e
			}
			if c.curFile != nil {
				c.curFile.Close()
				c.curFile = nil
			}
			c.cur = nil
			if err != nil {
				return "", "", false, false, err
			}
		}
		if !c.openNext() {
			return "", "", false, false, nil
		}
		if c.cur.Scan() {
			return c.cur.Text(), c.cur.RT(), true, true, nil
		}
	}
}

// openNext advances past ARGV entries, performing var=value assignments
// along the way, until it opens a new readable source or runs out.
func (c *Console) openNext() bool {
	for c.pos < len(c.argv) {
		arg := c.argv[c.pos]
		c.pos++
		if arg == "" {
			continue
		}
		if name, value, ok := splitAssignment(arg); ok {
			c.assign(name, value)
			continue
		}
		c.any = true
		if arg == "-" || arg == "/dev/stdin" {
			c.filename = ""
			c.cur = newRecordScanner(c.stdin, c.rsFunc)
			c.curFile = nil
			return true
		}
		f, err := os.Open(arg)
		if err != nil {
			continue
		}
		c.filename = arg
		c.cur = newRecordScanner(f, c.rsFunc)
		c.curFile = f
		return true
	}
	if !c.any && !c.stdinDone {
		c.stdinDone = true
		c.any = true
		c.filename = ""
		c.cur = newRecordScanner(c.stdin, c.rsFunc)
		c.curFile = nil
		return true
	}
	return false
}

// splitAssignment recognizes AWK's "identifier=value" ARGV-entry form.
func splitAssignment(arg string) (name, value string, ok bool) {
	i := strings.IndexByte(arg, '=')
	if i <= 0 {
		return "", "", false
	}
	name = arg[:i]
	for j, r := range name {
		if j == 0 && !(r == '_' || isAlpha(r)) {
			return "", "", false
		}
		if j > 0 && !(r == '_' || isAlpha(r) || isDigit(r)) {
			return "", "", false
		}
	}
	return name, arg[i+1:], true
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Close releases the currently open file, if any.
func (c *Console) Close() {
	if c.curFile != nil {
		c.curFile.Close()
		c.curFile = nil
	}
	c.cur = nil
}

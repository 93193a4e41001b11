package repl

import (
	"bufio"
	"errors"
	"fmt"
	"hemlock/internal/runtime"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
)

const (
	PROMPT      = ">> "
	CONTINUE    = "... "
	historyFile = ".hemlock_history"
)

const helpText = `REPL commands:
  :help          Show this help
  :quit, :exit   Leave the REPL
`

// Session evaluates input against one runtime, so definitions persist
// from one entry to the next.
type Session struct {
	rt  *runtime.Runtime
	out io.Writer
}

func NewSession(rt *runtime.Runtime, out io.Writer) *Session {
	rt.SetOutput(out, out)
	return &Session{rt: rt, out: out}
}

// Eval runs one complete entry. Errors are printed and cleared; it reports
// whether the session should end.
func (s *Session) Eval(src string) (exit bool) {
	trimmed := strings.TrimSpace(src)
	switch trimmed {
	case "":
		return false
	case ":quit", ":exit":
		return true
	case ":help":
		io.WriteString(s.out, helpText)
		return false
	}

	if err := s.rt.Exec(src, ""); err != nil {
		var pe *runtime.ParseError
		if errors.As(err, &pe) {
			io.WriteString(s.out, "Woops! Hemlock could not parse that:\n")
			for _, msg := range pe.Messages {
				io.WriteString(s.out, "\t"+msg+"\n")
			}
			return false
		}
		fmt.Fprintln(s.out, err.Error())
	}
	return false
}

// Start runs a plain line-oriented loop over in. It is used when stdin is
// not a terminal.
func Start(rt *runtime.Runtime, in io.Reader, out io.Writer) {
	session := NewSession(rt, out)
	scanner := bufio.NewScanner(in)

	var pending strings.Builder
	for {
		if pending.Len() == 0 {
			fmt.Fprint(out, PROMPT)
		} else {
			fmt.Fprint(out, CONTINUE)
		}
		if !scanner.Scan() {
			if pending.Len() > 0 {
				session.Eval(pending.String())
			}
			return
		}
		pending.WriteString(scanner.Text())
		pending.WriteByte('\n')
		if depth(pending.String()) > 0 {
			continue
		}
		src := pending.String()
		pending.Reset()
		if session.Eval(src) {
			return
		}
	}
}

// Run is the interactive loop with line editing and persistent history.
func Run(rt *runtime.Runtime, out io.Writer) {
	session := NewSession(rt, out)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}

	fmt.Fprintln(out, "Hemlock REPL. Ctrl+D to exit, :help for commands.")
	for {
		src, ok := readEntry(ln)
		if !ok {
			fmt.Fprintln(out)
			break
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		if session.Eval(src) {
			break
		}
	}

	if histPath != "" {
		if f, err := os.Create(histPath); err == nil {
			if _, err := ln.WriteHistory(f); err != nil {
				slog.Warn("failed to write repl history", slog.Any("error", err))
			}
			_ = f.Close()
		}
	}
}

// readEntry reads lines until every bracket opened in the entry is closed.
func readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := PROMPT
		if b.Len() > 0 {
			prompt = CONTINUE
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the current entry
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if depth(b.String()) <= 0 {
			return b.String(), true
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// depth counts brackets left open in src, ignoring string, rune and
// template literals and comments.
func depth(src string) int {
	n := 0
	for i := 0; i < len(src); i++ {
		switch c := src[i]; c {
		case '{', '(', '[':
			n++
		case '}', ')', ']':
			n--
		case '"', '\'', '`':
			i = skipQuoted(src, i+1, c)
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					// an unterminated block comment keeps the entry open
					return n + 1
				}
				i += end + 3
			}
		}
	}
	return n
}

func skipQuoted(src string, i int, quote byte) int {
	for ; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return i
}

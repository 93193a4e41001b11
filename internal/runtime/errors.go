package runtime

import (
	"fmt"
	"strings"
)

// ParseError carries every parser message for one source text.
type ParseError struct {
	Path     string
	Messages []string
}

func (e *ParseError) Error() string {
	var out strings.Builder
	if e.Path != "" {
		fmt.Fprintf(&out, "parse errors in %s:\n", e.Path)
	} else {
		out.WriteString("parse errors:\n")
	}
	for _, m := range e.Messages {
		out.WriteString("\t")
		out.WriteString(m)
		out.WriteString("\n")
	}
	return strings.TrimRight(out.String(), "\n")
}

// UncaughtError is an exception that reached the top of the program.
type UncaughtError struct {
	Value string
	Trace []CallFrame
}

func (e *UncaughtError) Error() string {
	return "Runtime error: " + e.Value + formatTrace(e.Trace)
}

// FatalError aborts evaluation and cannot be caught by try/catch.
type FatalError struct {
	Message string
	Trace   []CallFrame
}

func (e *FatalError) Error() string {
	return e.Message + formatTrace(e.Trace)
}

func formatTrace(trace []CallFrame) string {
	if len(trace) == 0 {
		return ""
	}
	var out strings.Builder
	out.WriteString("\nStack trace (most recent call first):")
	for _, f := range trace {
		if line := f.Line(); line > 0 {
			fmt.Fprintf(&out, "\n  at %s() [line %d]", f.Name, line)
		} else {
			fmt.Fprintf(&out, "\n  at %s()", f.Name)
		}
	}
	return out.String()
}

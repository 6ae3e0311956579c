package driver

import (
	"errors"
	"fmt"
	"strings"

	"borrowlisp/interpreter-go/pkg/diag"
)

// FormatError renders err for a terminal. Located diagnostics get the source name, the
// position and a caret snippet:
//
//	prog.bl:3:5: TypeError at $.cond: if condition must be Bool, got Int
//
//	   2 | (let (x 5)
//	   3 |   (if x 1 2))
//	     |   ^
func FormatError(name, source string, err error) string {
	var d *diag.Error
	if !errors.As(err, &d) {
		if name == "" {
			return err.Error()
		}
		return name + ": " + err.Error()
	}

	var header strings.Builder
	if name != "" {
		header.WriteString(name)
		header.WriteString(":")
	}
	if !d.Span.IsZero() {
		fmt.Fprintf(&header, "%d:%d:", d.Span.Start.Line, d.Span.Start.Column)
	}
	if header.Len() > 0 {
		header.WriteString(" ")
	}
	header.WriteString(string(d.Category))
	if d.Category != diag.CategoryParse {
		header.WriteString(" at ")
		header.WriteString(d.Path.String())
	}
	header.WriteString(": ")
	header.WriteString(d.Message)

	if d.Span.IsZero() || source == "" {
		return header.String()
	}
	return header.String() + "\n\n" + snippet(source, d.Span.Start.Line, d.Span.Start.Column)
}

// snippet shows the offending line with one line of context either side and a caret under the
// 1-based column. Out-of-range coordinates are clamped.
func snippet(src string, line, col int) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) && strings.TrimSpace(lines[line]) != "" {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}

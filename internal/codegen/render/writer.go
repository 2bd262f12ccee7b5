// Package render holds the pieces shared by the target pretty-printers.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Writer accumulates lines at a fixed indentation width.
type Writer struct {
	b      strings.Builder
	width  int
	indent int
}

// NewWriter returns a writer indenting by width spaces per level.
func NewWriter(width int) *Writer {
	if width < 1 {
		width = 1
	}

	return &Writer{width: width}
}

// Line writes one indented line. An empty format writes a blank line.
func (w *Writer) Line(format string, args ...any) {
	if format == "" {
		w.b.WriteByte('\n')

		return
	}

	w.b.WriteString(strings.Repeat(" ", w.indent*w.width))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

// Raw writes text at the current indentation, one line per line of text.
// Leading tabs in text are expanded to indentation levels.
func (w *Writer) Raw(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			w.Line("")

			continue
		}

		trimmed := strings.TrimLeft(line, "\t")
		depth := len(line) - len(trimmed)

		w.indent += depth
		w.Line("%s", trimmed)
		w.indent -= depth
	}
}

// Indent increases the indentation level.
func (w *Writer) Indent() { w.indent++ }

// Dedent decreases the indentation level.
func (w *Writer) Dedent() {
	if w.indent > 0 {
		w.indent--
	}
}

// Width returns the number of spaces per level.
func (w *Writer) Width() int { return w.width }

// String returns everything written so far.
func (w *Writer) String() string { return w.b.String() }

// Number returns the shortest decimal text of v, such as 5, 0.5 or -12.25.
func Number(v float64) string {
	return decimal.NewFromFloat(v).String()
}

// Float returns v as a floating point literal that always carries a decimal
// point, so that integer division never applies.
func Float(v float64) string {
	s := Number(v)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// Int returns an integer literal.
func Int(v int) string {
	return decimal.NewFromInt(int64(v)).String()
}

// Pascal converts snake_case or camelCase names to PascalCase.
func Pascal(name string) string {
	var b strings.Builder

	upper := true

	for _, r := range name {
		switch {
		case r == '_' || r == '-' || r == ' ':
			upper = true
		case upper:
			b.WriteString(strings.ToUpper(string(r)))
			upper = false
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Snake converts camelCase or PascalCase names to snake_case.
func Snake(name string) string {
	var b strings.Builder

	prevLower := false

	for _, r := range name {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('_')
			}

			b.WriteString(strings.ToLower(string(r)))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r != '_'
		}
	}

	return b.String()
}

// Upper converts a name to UPPER_SNAKE_CASE.
func Upper(name string) string {
	return strings.ToUpper(Snake(name))
}

// Unsupported is raised by a printer that meets a node its tree does not define.
type Unsupported struct {
	Node any
}

func (u Unsupported) Error() string {
	return fmt.Sprintf("unsupported node %T", u.Node)
}

// Guard runs a printer and returns an Unsupported panic as an error. Other
// panics propagate.
func Guard(print func() string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			u, ok := r.(Unsupported)
			if !ok {
				panic(r)
			}

			out, err = "", u
		}
	}()

	return print(), nil
}

// Package output renders CLI results. Colors are enabled only when stdout
// is a real terminal; piped output stays plain so it remains grep-friendly.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// Writer formats command output for humans.
type Writer struct {
	out      io.Writer
	useColor bool
}

// New creates a Writer. Color is enabled when out is stdout or stderr on a
// terminal, and disabled for buffers and pipes.
func New(out io.Writer) *Writer {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{out: out, useColor: useColor}
}

// NewPlain creates a Writer with color forced off.
func NewPlain(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) paint(color, s string) string {
	if !w.useColor {
		return s
	}
	return color + s + colorReset
}

// Println writes a plain line.
func (w *Writer) Println(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Printf writes formatted text.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Success writes a green confirmation line.
func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintln(w.out, w.paint(colorGreen, "✓ ")+msg)
}

// Successf writes a formatted confirmation line.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning writes a yellow warning line.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintln(w.out, w.paint(colorYellow, "! ")+msg)
}

// Error writes a red error line.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.paint(colorRed, "✗ ")+msg)
}

// Errorf writes a formatted error line.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Heading writes a bold section heading.
func (w *Writer) Heading(msg string) {
	_, _ = fmt.Fprintln(w.out, w.paint(colorBold, msg))
}

// Newline writes an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Result writes one ranked timeline hit: score, date, location and the
// description, with the description wrapped under the header line.
// A zero score is omitted (plain chronological listings).
func (w *Writer) Result(rank, score int, date, location, category, description string) {
	header := fmt.Sprintf("%2d. %s", rank, w.paint(colorCyan, date))
	if location != "" {
		header += " " + w.paint(colorDim, "@ "+location)
	}
	if category != "" {
		header += " " + w.paint(colorDim, "["+category+"]")
	}
	if score > 0 {
		header += fmt.Sprintf("  (score %d)", score)
	}
	_, _ = fmt.Fprintln(w.out, header)

	for _, line := range wrap(description, 76) {
		_, _ = fmt.Fprintf(w.out, "    %s\n", line)
	}
}

// KV writes an aligned key/value line for stats output.
func (w *Writer) KV(key string, value any) {
	_, _ = fmt.Fprintf(w.out, "  %-22s %v\n", key+":", value)
}

// wrap breaks text into lines of at most width characters, splitting on
// word boundaries. Words longer than width get a line of their own.
func wrap(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

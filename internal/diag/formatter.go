package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"
)

// Formatter renders diagnostics with source snippets in a Rust-style layout.
type Formatter struct {
	out         io.Writer
	sourceCache map[string]string
}

// NewFormatter creates a formatter writing to stderr.
func NewFormatter() *Formatter {
	return NewFormatterTo(os.Stderr)
}

// NewFormatterTo creates a formatter writing to the given writer.
func NewFormatterTo(out io.Writer) *Formatter {
	return &Formatter{
		out:         out,
		sourceCache: make(map[string]string),
	}
}

// AddSource registers in-memory source text for a filename so snippets can be
// rendered without touching the filesystem (REPL input, tests).
func (f *Formatter) AddSource(filename, src string) {
	f.sourceCache[filename] = src
}

// loadSource returns source for a filename, reading from disk on a cache miss.
func (f *Formatter) loadSource(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("no filename")
	}
	if src, ok := f.sourceCache[filename]; ok {
		return src, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	src := string(data)
	f.sourceCache[filename] = src
	return src, nil
}

// Format renders one diagnostic.
func (f *Formatter) Format(d Diagnostic) {
	f.printHeader(d)

	src, err := f.loadSource(d.Span.Filename)
	if err != nil || !d.Span.IsValid() {
		if d.Span.IsValid() {
			fmt.Fprintf(f.out, "  --> %s\n", d.Span.String())
		}
		f.printFooter(d)
		return
	}

	f.printSnippet(src, d)
	f.printFooter(d)
}

// FormatAll renders a slice of diagnostics in order.
func (f *Formatter) FormatAll(ds []Diagnostic) {
	for _, d := range ds {
		f.Format(d)
	}
}

func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = "error"
	}

	if d.Code != "" {
		fmt.Fprintf(f.out, "%s[%s]: %s\n", severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(f.out, "%s: %s\n", severity, d.Message)
	}
}

// printSnippet prints the offending line with a caret underline.
func (f *Formatter) printSnippet(src string, d Diagnostic) {
	lines := strings.Split(src, "\n")
	lineNum := d.Span.Line
	if lineNum < 1 || lineNum > len(lines) {
		fmt.Fprintf(f.out, "  --> %s\n", d.Span.String())
		return
	}

	lineContent := lines[lineNum-1]
	lineNumWidth := len(fmt.Sprintf("%d", lineNum))
	gutter := strings.Repeat(" ", lineNumWidth)

	fmt.Fprintf(f.out, "  --> %s\n", d.Span.String())
	fmt.Fprintf(f.out, " %s |\n", gutter)
	fmt.Fprintf(f.out, " %d | %s\n", lineNum, lineContent)

	// Columns count runes, so the underline is measured in runes too;
	// byte offsets would drift on lines with multi-byte characters.
	lineRunes := utf8.RuneCountInString(lineContent)
	width := 1
	if d.Span.Start >= 0 && d.Span.End > d.Span.Start && d.Span.End <= len(src) {
		width = utf8.RuneCountInString(src[d.Span.Start:d.Span.End])
	}
	col := d.Span.Column - 1
	if col < 0 {
		col = 0
	}
	if col > lineRunes {
		col = lineRunes
	}
	if col+width > lineRunes+1 {
		width = lineRunes + 1 - col
		if width < 1 {
			width = 1
		}
	}

	underline := strings.Repeat(" ", col) + strings.Repeat("^", width)
	if d.Label != "" {
		fmt.Fprintf(f.out, " %s | %s %s\n", gutter, underline, d.Label)
	} else {
		fmt.Fprintf(f.out, " %s | %s\n", gutter, underline)
	}
	fmt.Fprintf(f.out, " %s |\n", gutter)
}

func (f *Formatter) printFooter(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.out, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.out, "help: %s\n", d.Help)
	}
}

// Package diagfmt renders diagnostic bags for humans and tools.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"blaise/internal/diag"
	"blaise/internal/source"
)

type palette struct {
	err, warn, info, note, loc, caret, gutter *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		loc:    color.New(color.Bold),
		caret:  color.New(color.FgGreen, color.Bold),
		gutter: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.loc, p.caret, p.gutter} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty writes bag's diagnostics, sorted, in the form
//
//	path:line:col: ERROR SEM3004 (UnknownMember): message
//	   3 | writeln(a.Spek)
//	     |           ^~~~
//
// followed by notes in the same shape.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	if bag == nil {
		return
	}
	bag.Sort()
	p := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if opts.Max > 0 && i >= opts.Max {
			fmt.Fprintf(w, "... %d more\n", bag.Len()-i)
			return
		}
		loc := location(fs, d.Primary, opts)
		fmt.Fprintf(w, "%s %s %s: %s\n",
			p.loc.Sprint(loc+":"),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.severity(d.Severity).Sprintf("%s (%s)", d.Code.ID(), d.Code),
			d.Message)
		excerpt(w, fs, d.Primary, p)
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "%s %s %s\n", p.loc.Sprint(location(fs, n.Span, opts)+":"), p.note.Sprint("note:"), n.Msg)
			excerpt(w, fs, n.Span, p)
		}
	}
}

func location(fs *source.FileSet, sp source.Span, opts PrettyOpts) string {
	if fs == nil {
		return "<no-span>"
	}
	f := fs.Get(sp.File)
	if f == nil {
		return "<no-span>"
	}
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, opts.PathMode, opts.BaseDir), start.Line, start.Col)
}

// excerpt prints the source line of sp with a caret run under the span.
// Columns are measured in display cells so wide runes and tabs line up.
func excerpt(w io.Writer, fs *source.FileSet, sp source.Span, p palette) {
	if fs == nil {
		return
	}
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	line = strings.ReplaceAll(line, "\t", "    ")
	raw := f.GetLine(start.Line)

	startCol := int(start.Col) - 1
	endCol := len(raw)
	if end.Line == start.Line && int(end.Col)-1 <= len(raw) {
		endCol = int(end.Col) - 1
	}
	startCol = min(max(startCol, 0), len(raw))
	endCol = max(endCol, startCol)

	pad := displayWidth(raw[:startCol])
	width := max(displayWidth(raw[startCol:endCol]), 1)

	num := fmt.Sprintf("%d", start.Line)
	gutter := strings.Repeat(" ", len(num))
	fmt.Fprintf(w, " %s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), line)
	marks := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, " %s %s %s%s\n", gutter, p.gutter.Sprint("|"), strings.Repeat(" ", pad), p.caret.Sprint(marks))
}

func displayWidth(s string) int {
	return runewidth.StringWidth(strings.ReplaceAll(s, "\t", "    "))
}

package diagfmt

import (
	"fmt"
	"io"

	"blaise/internal/diag"
	"blaise/internal/source"
)

// Short writes one line per diagnostic, in the stable form
// "ERROR SEM3004 path:line:col message", followed by notes when asked.
// Tests compare against this form.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, notes bool) {
	if bag == nil {
		return
	}
	bag.Sort()
	opts := PrettyOpts{PathMode: PathModeBasename}
	for _, d := range bag.Items() {
		fmt.Fprintf(w, "%s %s %s %s\n", d.Severity, d.Code.ID(), location(fs, d.Primary, opts), d.Message)
		if !notes {
			continue
		}
		for _, n := range d.Notes {
			fmt.Fprintf(w, "note %s %s %s\n", d.Code.ID(), location(fs, n.Span, opts), n.Msg)
		}
	}
}

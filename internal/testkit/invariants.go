// Package testkit holds checks shared by parser tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"blaise/internal/ast"
	"blaise/internal/source"
)

// CheckSpanInvariants verifies the spans of a parsed file:
// the file span is non-empty and inside the content, every declaration
// span is non-empty and inside the file span, and declarations of one
// section appear in source order.
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	if f.Span.End <= f.Span.Start {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to file %d, want %d", f.Span.File, sf.ID)
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("content length: %w", err)
	}
	if f.Span.End > size {
		return fmt.Errorf("file span ends at %d beyond content %d", f.Span.End, size)
	}
	if err := checkNameSpan(f.Name, f.Span); err != nil {
		return err
	}
	for _, section := range [][]ast.Decl{f.Interface, f.Implementation} {
		if err := checkDecls(section, f.Span); err != nil {
			return err
		}
	}
	for _, u := range f.AllUses() {
		if err := checkNameSpan(u.Name, f.Span); err != nil {
			return fmt.Errorf("uses %s: %w", u.Name.Text, err)
		}
	}
	if f.Body != nil && !within(f.Body.Span, f.Span) {
		return fmt.Errorf("main block %v outside file %v", f.Body.Span, f.Span)
	}
	return nil
}

func checkDecls(decls []ast.Decl, file source.Span) error {
	var prev source.Span
	for i, d := range decls {
		sp := d.DeclSpan()
		if sp.End <= sp.Start {
			return fmt.Errorf("declaration %d has an empty span %v", i, sp)
		}
		if !within(sp, file) {
			return fmt.Errorf("declaration %d span %v outside file %v", i, sp, file)
		}
		if i > 0 && sp.Start < prev.Start {
			return fmt.Errorf("declaration %d starts at %d before its predecessor at %d", i, sp.Start, prev.Start)
		}
		prev = sp
	}
	return nil
}

func checkNameSpan(id ast.Ident, file source.Span) error {
	if id.Span.End <= id.Span.Start {
		return fmt.Errorf("name %q has an empty span", id.Text)
	}
	if !within(id.Span, file) {
		return fmt.Errorf("name %q span %v outside file %v", id.Text, id.Span, file)
	}
	return nil
}

func within(inner, outer source.Span) bool {
	return inner.File == outer.File && inner.Start >= outer.Start && inner.End <= outer.End
}

// Package diag defines the diagnostic model shared by the lexer, parser,
// binder and module loader.
//
// A Diagnostic carries a Severity, a stable numeric Code, a short message,
// the primary source.Span and optional notes pointing at related spans.
// Phases never print anything themselves: they emit through a Reporter
// (usually a BagReporter) and the driver decides how to render the Bag
// (see internal/diagfmt).
//
// Every error aborts compilation of the unit that produced it. There is no
// mechanism to downgrade an error to a warning.
package diag

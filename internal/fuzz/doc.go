// Package fuzztests houses Go fuzz harnesses for the front end: source
// bytes through the lexer, the parser and the binder. They guard against
// panics, hangs and broken span invariants on arbitrary input.
package fuzztests

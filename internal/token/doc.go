// Package token defines lexical token kinds for Blaise sources and the
// shared keyword table used by every lexer instance.
package token

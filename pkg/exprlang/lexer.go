// Package exprlang parses and renders the joint expression grammar
// described in spec.md §3.C:
//
//	J[type(,A[angle])?(,color[name])?,P[x,y],L[link,...]]
package exprlang

import "github.com/alecthomas/participle/v2/lexer"

// JointLexer tokenizes the joint expression grammar. Bracket-suffixed
// keyword tokens (KwJOpen, KwPOpen, ...) are listed ahead of their
// bare counterparts (KwP) so "P[" lexes as one clause-opening token
// rather than the bare type letter "P" followed by a stray bracket.
var JointLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},

	{Name: "KwJOpen", Pattern: `\bJ\[`},
	{Name: "KwPOpen", Pattern: `\bP\[`},
	{Name: "KwAOpen", Pattern: `\bA\[`},
	{Name: "KwLOpen", Pattern: `\bL\[`},
	{Name: "KwColorOpen", Pattern: `\bcolor\[`},

	{Name: "KwRP", Pattern: `\bRP\b`},
	{Name: "KwR", Pattern: `\bR\b`},
	{Name: "KwP", Pattern: `\bP\b`},

	{Name: "Comma", Pattern: `,`},
	{Name: "RBracket", Pattern: `\]`},

	{Name: "Number", Pattern: `[-+]?[0-9]+(\.[0-9]+)?([eE][-+]?[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

// Package tmdl provides lexical access to TMDL semantic-model files:
// locating bracketed literals embedded in free-form text, reading and
// rewriting the BestPracticeAnalyzer annotation array, and enumerating
// the definition files of a semantic-model folder.
//
// The package deliberately avoids parsing TMDL into a syntax tree. All
// operations are byte-exact text transformations so that every part of a
// file not explicitly rewritten is preserved unchanged.
package tmdl

import (
	"errors"
	"strings"
)

// Errors returned by FindBracketedSpan.
var (
	// ErrSpanNotFound means no opening bracket exists at or after the
	// search offset.
	ErrSpanNotFound = errors.New("no opening bracket found")

	// ErrMalformedSpan means the input ended before the opening bracket
	// was balanced.
	ErrMalformedSpan = errors.New("unbalanced brackets")
)

// FindBracketedSpan returns the [start, end) byte span of the first
// bracketed literal whose opening character occurs at or after searchStart.
// The span includes both bracket characters.
//
// Nesting is balanced while ignoring bracket characters that appear inside
// double-quoted strings, honoring backslash escapes, so free-text content
// such as rule descriptions containing "[" or "]" never perturbs the
// nesting depth.
func FindBracketedSpan(text string, searchStart int, openChar, closeChar byte) (int, int, error) {
	if searchStart < 0 || searchStart > len(text) {
		return 0, 0, ErrSpanNotFound
	}

	start := strings.IndexByte(text[searchStart:], openChar)
	if start == -1 {
		return 0, 0, ErrSpanNotFound
	}
	start += searchStart

	depth := 1
	inString := false
	escapeNext := false

	for pos := start + 1; pos < len(text); pos++ {
		c := text[pos]
		switch {
		case escapeNext:
			escapeNext = false
		case c == '\\':
			escapeNext = true
		case c == '"':
			inString = !inString
		case inString:
			// Brackets inside string literals never count.
		case c == openChar:
			depth++
		case c == closeChar:
			depth--
			if depth == 0 {
				return start, pos + 1, nil
			}
		}
	}

	return 0, 0, ErrMalformedSpan
}

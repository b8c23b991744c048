/*
Package formula implements the restricted expression language used by salary
structure lines and policy rules.

PURPOSE:
  Administrators write formulas like "BASIC * 0.25" or
  "IF(OT_HOURS > 10, HOURLY_RATE * 2, HOURLY_RATE * 1.5)". These are data,
  not code: the language is a closed arithmetic grammar over a whitelist of
  named variables, evaluated without any host-language execution. That
  closure is a security boundary — a formula can never reach outside its
  variable table.

PIPELINE:
  lexer.go:  source text -> tokens (rejects any character or identifier
             outside the allowed set before parsing starts)
  parser.go: tokens -> typed AST with standard operator precedence
  eval.go:   AST -> decimal value via a small stack evaluator

LANGUAGE:
  - numeric literals, named variables (case-insensitive)
  - binary operators: + - * / % ^
  - comparisons (> < >= <= == !=) inside IF conditions
  - functions: IF, MIN, MAX, ROUND, FLOOR, CEIL, ABS, TRUNC, SQRT, POW

ERROR MODEL:
  Every failure (bad token, unknown variable, division by zero) returns a
  zero value plus *Error. Nothing panics: one misconfigured formula must not
  take down a payroll run.
*/
package formula

import (
	"fmt"
	"strings"
)

// =============================================================================
// TOKENS
// =============================================================================

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokIdent
	tokOperator // + - * / % ^
	tokCompare  // > < >= <= == !=
	tokLParen
	tokRParen
	tokComma
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

// =============================================================================
// LEXER
// =============================================================================

// tokenize splits a formula into tokens. The character allow-list runs
// first: anything outside it fails immediately, before any identifier or
// number is interpreted.
func tokenize(expr string) ([]token, error) {
	src := strings.ToUpper(expr)
	if err := scanAllowedChars(src); err != nil {
		return nil, err
	}

	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c >= '0' && c <= '9':
			start := i
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], pos: start})

		case c >= 'A' && c <= 'Z' || c == '_':
			start := i
			for i < len(src) && (src[i] >= 'A' && src[i] <= 'Z' || src[i] >= '0' && src[i] <= '9' || src[i] == '_') {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], pos: start})

		case c == '+' || c == '-' || c == '*' || c == '/' || c == '%' || c == '^':
			toks = append(toks, token{kind: tokOperator, text: string(c), pos: i})
			i++

		case c == '>' || c == '<':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokCompare, text: src[i : i+2], pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokCompare, text: string(c), pos: i})
				i++
			}

		case c == '=' || c == '!':
			if i+1 < len(src) && src[i+1] == '=' {
				toks = append(toks, token{kind: tokCompare, text: src[i : i+2], pos: i})
				i += 2
			} else {
				return nil, errAt(expr, i, fmt.Sprintf("unexpected %q", string(c)))
			}

		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++

		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++

		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++

		default:
			return nil, errAt(expr, i, fmt.Sprintf("disallowed character %q", string(c)))
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(src)})
	return toks, nil
}

// scanAllowedChars is the hard allow-list. It runs before tokenization so a
// formula containing anything exotic is rejected wholesale rather than
// partially interpreted.
func scanAllowedChars(src string) error {
	for i := 0; i < len(src); i++ {
		c := src[i]
		ok := c >= 'A' && c <= 'Z' ||
			c >= '0' && c <= '9' ||
			strings.IndexByte("_+-*/%^().,<>=! \t\n\r", c) >= 0
		if !ok {
			return errAt(src, i, fmt.Sprintf("disallowed character %q", string(c)))
		}
	}
	return nil
}

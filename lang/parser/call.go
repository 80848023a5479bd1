package parser

import (
	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/token"
)

// rewriteCalls repeatedly finds the innermost `(`...`)` span and relocates
// the tokens it contains (minus the commas) to just before the token that
// precedes the `(`, producing postfix order: `f(a, b, c)` becomes
// `a b c f`. It processes innermost-first so nested calls (`f(g(a), b)`)
// flatten correctly: `g(a)` becomes `a g` before the outer call is rewritten.
//
// Finding a pair requires re-scanning from scratch after every rewrite,
// since every token after the rewritten span shifts position. That is
// quadratic in the number of calls on a line, which is never a concern for
// source files of the size this compiler targets.
func rewriteCalls(toks []token.Token, errs *diag.List) []token.Token {
	out := append([]token.Token(nil), toks...)

	for {
		open, close, ok, unmatched := nextCallPair(out, errs)
		if unmatched {
			// Drop the offending unmatched `)` and keep scanning so a file
			// with several bad calls reports all of them.
			out = append(out[:close], out[close+1:]...)
			continue
		}
		if !ok {
			break
		}
		out = rewriteCallPair(out, open, close)
	}

	if idx := indexOfUnclosedOpen(out); idx >= 0 {
		errs.Add(tokErr(out[idx], "all opening parenthesis '(' must be matched with a closing one ')'"))
	}
	return out
}

// nextCallPair scans left to right with a stack of open-paren indices and
// returns the first matched pair it finds: since a stack pop always yields
// the most recently pushed (innermost, still-open) `(`, the first `)`
// encountered always closes the innermost pair.
func nextCallPair(toks []token.Token, errs *diag.List) (open, close int, ok, unmatched bool) {
	var stack []int
	for i, tok := range toks {
		switch tok.Kind {
		case token.LPAREN:
			if i == 0 {
				errs.Add(tokErr(tok, "arguments must be after at least one other element"))
				continue
			}
			stack = append(stack, i)
		case token.RPAREN:
			if len(stack) == 0 {
				errs.Add(tokErr(tok, "a closing parenthesis ')' must be matched with an opening one '('"))
				return 0, i, false, true
			}
			open = stack[len(stack)-1]
			return open, i, true, false
		}
	}
	return 0, 0, false, false
}

// rewriteCallPair relocates toks[open+1:close], excluding COMMA tokens and
// preserving relative order, to sit immediately before toks[open-1] (the
// call target), and drops the `(`, `)` and commas entirely.
func rewriteCallPair(toks []token.Token, open, close int) []token.Token {
	var args []token.Token
	for _, tok := range toks[open+1 : close] {
		if tok.Kind != token.COMMA {
			args = append(args, tok)
		}
	}

	out := make([]token.Token, 0, len(toks)-(close-open+1)+len(args))
	out = append(out, toks[:open-1]...)
	out = append(out, args...)
	out = append(out, toks[open-1])
	out = append(out, toks[close+1:]...)
	return out
}

func indexOfUnclosedOpen(toks []token.Token) int {
	for i, tok := range toks {
		if tok.Kind == token.LPAREN {
			return i
		}
	}
	return -1
}

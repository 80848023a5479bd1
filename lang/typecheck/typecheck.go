// Package typecheck implements rack's abstract interpreter: a single
// mutable type stack walked once per function body (seeded with the
// function's declared argument types) and once more over the top-level
// token range, verifying every operation's stack effect against the
// closed type taxonomy in lang/types.
package typecheck

import (
	"fmt"
	"io"
	"strings"

	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/token"
	"github.com/xavierhamel/rack/lang/types"
)

// Check walks every function body in prog (verifying its exit stack against
// its declared return signature, unless the signature's ignore-return flag
// is set) and then the top-level token range with an empty initial stack
// and no exit check. Diagnostics accumulate in the returned list rather than
// aborting the walk, so a single source file is reported in one pass.
func Check(prog *parser.Program) *diag.List {
	errs := &diag.List{}

	for _, name := range prog.SortedFunctionNames() {
		fn, _ := prog.Functions.Get(name)
		c := newChecker(prog, errs)
		c.stack = seedArgs(fn.Args)
		c.run(fn.BodyStart, fn.BodyEnd)
		if fn.IgnoreReturn {
			continue
		}
		c.checkExit(name, fn)
	}

	top := newChecker(prog, errs)
	top.run(0, len(prog.Tokens))
	return errs
}

// seedArgs builds the initial stack for a function body: args in the order
// they were declared, with the first declared argument ending on top (the
// type checker's internal convention for what a call site's check_stack
// expects to find already popped in the same order).
func seedArgs(args []types.Set) []types.Type {
	stack := make([]types.Type, len(args))
	for i, set := range args {
		stack[len(args)-1-i] = set.Collapse()
	}
	return stack
}

type checker struct {
	prog *parser.Program
	errs *diag.List

	stack []types.Type

	// currentVariable is the pending identifier a `put` or `fetch` token is
	// expected to consume. It is cleared after every token that is not
	// itself an identifier.
	currentVariable string
	hasVariable     bool

	variables map[string]types.Type

	// trace, when non-nil, receives one line per token processed by run:
	// the token and the resulting stack. Set only by DebugStack.
	trace io.Writer
}

func newChecker(prog *parser.Program, errs *diag.List) *checker {
	return &checker{
		prog:      prog,
		errs:      errs,
		variables: make(map[string]types.Type),
	}
}

func (c *checker) run(start, end int) {
	toks := c.prog.Tokens
	for idx := start; idx < end; idx++ {
		tok := toks[idx]
		wasIdentifier := false

		switch tok.Kind {
		case token.INT:
			c.push(types.Int)
		case token.STR:
			c.push(types.Str)
		case token.MEM, token.MEMINT:
			c.push(types.Ptr)

		case token.DUP:
			if c.checkLen("dup", 1, tok) {
				c.push(c.peek(0))
			}
		case token.DROP:
			c.checkStack("drop", []types.Set{{types.Any}}, tok)
		case token.SWAP:
			if c.checkLen("swap", 2, tok) {
				n := len(c.stack)
				c.stack[n-1], c.stack[n-2] = c.stack[n-2], c.stack[n-1]
			}
		case token.OVER:
			if c.checkLen("over", 2, tok) {
				c.push(c.peek(1))
			}
		case token.ROT:
			if c.checkLen("rot", 3, tok) {
				n := len(c.stack)
				tmp := c.stack[n-3]
				c.stack[n-3] = c.stack[n-2]
				c.stack[n-2] = c.stack[n-1]
				c.stack[n-1] = tmp
			}
		case token.LOAD8, token.LOAD16, token.LOAD32, token.LOAD64:
			c.checkStack("load", []types.Set{{types.Ptr, types.Int}}, tok)
			c.push(types.Any)
		case token.STORE8, token.STORE16, token.STORE32, token.STORE64:
			c.checkStack("store", []types.Set{{types.Ptr, types.Int}, {types.Any}}, tok)
		case token.PUT:
			c.doPut(tok)
		case token.FETCH:
			c.doFetch(tok)

		case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PCT, token.AMP, token.PIPE:
			c.doArithmetic(tok)
		case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
			c.checkStack("cmp", []types.Set{{types.Int, types.Ptr}, {types.Int, types.Ptr}}, tok)
			c.push(types.Int)

		case token.IF:
			c.checkStack("if", []types.Set{{types.Int}}, tok)
		case token.ELSE:
			if j, ok := tok.Jmp(); ok {
				idx = j
			}
		case token.DO:
			c.checkStack("do", []types.Set{{types.Int}}, tok)
			if j, ok := tok.Jmp(); ok {
				idx = j
			}
		case token.FN, token.CONST:
			if j, ok := tok.Jmp(); ok {
				idx = j
			}

		case token.IDENT:
			wasIdentifier = true
			c.doIdentifier(tok)
		case token.SYS:
			c.doSys(tok)
		}

		if !wasIdentifier {
			c.hasVariable = false
			c.currentVariable = ""
		}

		if c.trace != nil {
			fmt.Fprintf(c.trace, "%-24s | %s\n", tokenLabel(tok), stackRepr(c.stack))
		}
	}
}

func (c *checker) push(t types.Type) {
	c.stack = append(c.stack, t)
}

// peek returns the type offset elements below the top (0 is the top
// itself). Callers must have already confirmed the stack is long enough.
func (c *checker) peek(offset int) types.Type {
	return c.stack[len(c.stack)-1-offset]
}

func (c *checker) doArithmetic(tok token.Token) {
	isPtr := false
	if len(c.stack) >= 2 {
		isPtr = c.peek(0) == types.Ptr || c.peek(1) == types.Ptr
	}
	if !c.checkStack("arithmetic", []types.Set{{types.Int, types.Ptr}, {types.Int, types.Ptr}}, tok) {
		return
	}
	if isPtr {
		c.push(types.Ptr)
	} else {
		c.push(types.Int)
	}
}

func (c *checker) doPut(tok token.Token) {
	if !c.hasVariable {
		c.errs.Add(tokErr(tok, "you need an identifier before the `put` keyword"))
		return
	}
	if len(c.stack) == 0 {
		c.errs.Add(tokErr(tok, "you need a value on the stack to put a variable, but the stack was empty"))
		return
	}
	t := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.variables[c.currentVariable] = t
}

func (c *checker) doFetch(tok token.Token) {
	if !c.hasVariable {
		c.errs.Add(tokErr(tok, "you need an identifier before the `fetch` keyword"))
		return
	}
	t, ok := c.variables[c.currentVariable]
	if !ok {
		c.errs.Add(tokErr(tok, "you have to define a variable before using it, but `%s` was not found before", c.currentVariable))
		return
	}
	c.push(t)
}

func (c *checker) doIdentifier(tok token.Token) {
	name := tok.Ident
	if fn, ok := c.prog.Functions.Get(name); ok {
		c.checkStack(name, fn.Args, tok)
		ret := collapseAll(fn.Returns)
		if !isVoidOnly(fn.Returns) {
			for _, t := range ret {
				c.push(t)
			}
		}
		return
	}
	if _, ok := c.prog.Consts.Get(name); ok {
		c.push(types.Int)
		return
	}
	c.currentVariable = name
	c.hasVariable = true
}

func (c *checker) doSys(tok token.Token) {
	cst, ok := c.prog.Consts.Get(tok.StrVal)
	if !ok {
		return
	}
	if cst.Value > 0 {
		typs := make([]types.Set, cst.Value)
		for i := range typs {
			typs[i] = types.Set{types.Any}
		}
		c.checkStack(tok.StrVal, typs, tok)
	}
	c.push(types.Any)
}

// checkExit validates the stack left over after walking fn's body against
// its declared return signature: empty for a `void` return, otherwise a
// pointwise match against fn.Returns (collect mode — a mismatch is reported
// but does not stop the remaining functions from being checked).
func (c *checker) checkExit(name string, fn parser.FunctionInfo) {
	declTok := c.declToken(fn)

	if isVoidOnly(fn.Returns) {
		if len(c.stack) != 0 {
			c.errs.Add(tokErrLen(declTok, len(name),
				"`%s` should return an empty stack, but it returns %d values on the stack", name, len(c.stack)))
		}
		return
	}
	if len(c.stack) != len(fn.Returns) {
		c.errs.Add(tokErrLen(declTok, len(name),
			"`%s` should return %d values on the stack, but it returns %d values on the stack", name, len(fn.Returns), len(c.stack)))
		return
	}
	c.checkReturnStack(name, fn.Returns, declTok)
}

// declToken is the identifier token of fn, used to position exit-check
// diagnostics (it sits two tokens before the body, between the `fn`
// keyword and the type annotation).
func (c *checker) declToken(fn parser.FunctionInfo) token.Token {
	return c.prog.Tokens[fn.BodyStart-2]
}

func (c *checker) checkReturnStack(name string, allowed []types.Set, tok token.Token) {
	var found []types.Type
	mismatch := false
	for _, set := range allowed {
		t := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		found = append(found, t)
		if !set.Contains(t) {
			mismatch = true
		}
	}
	if mismatch {
		c.errs.Add(tokErrLen(tok, len(name),
			"the function `%s` should return types of `%s` but returned types of `%s` on the stack",
			name, allowedTypesString(allowed), foundTypesString(found)))
	}
}

// checkStack verifies there are len(allowed) values on the stack and that,
// popped one per allowed set (top first), each matches its set. It always
// pops exactly len(allowed) values when the stack is long enough, even when
// a type mismatch is found, mirroring the single-pass "pop everything, then
// report" shape of the interpreter this is grounded on.
func (c *checker) checkStack(keyword string, allowed []types.Set, tok token.Token) bool {
	if !c.checkLen(keyword, len(allowed), tok) {
		return false
	}
	var found []types.Type
	mismatch := false
	for _, set := range allowed {
		t := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		found = append(found, t)
		if !set.Contains(t) {
			mismatch = true
		}
	}
	if mismatch {
		c.errs.Add(tokErr(tok,
			"to use `%s` you need values of type `%s` on the stack but values of types `%s` were found",
			keyword, allowedTypesString(allowed), foundTypesString(found)))
		return false
	}
	return true
}

func (c *checker) checkLen(keyword string, min int, tok token.Token) bool {
	if len(c.stack) < min {
		c.errs.Add(tokErr(tok,
			"you cannot use `%s` because the minimum length of the stack is %d but %d value(s) were found on the stack",
			keyword, min, len(c.stack)))
		return false
	}
	return true
}

func collapseAll(sets []types.Set) []types.Type {
	out := make([]types.Type, len(sets))
	for i, s := range sets {
		out[i] = s.Collapse()
	}
	return out
}

func isVoidOnly(sets []types.Set) bool {
	return len(sets) == 1 && len(sets[0]) == 1 && sets[0][0] == types.Void
}

func allowedTypesString(allowed []types.Set) string {
	parts := make([]string, len(allowed))
	for i, s := range allowed {
		parts[i] = s.String()
	}
	return strings.Join(parts, ", ")
}

func foundTypesString(found []types.Type) string {
	parts := make([]string, len(found))
	for i, t := range found {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func tokErr(tok token.Token, msg string, args ...interface{}) *diag.Error {
	return diag.UserError(tok.Filename, tok.Row, tok.Col, tok.Len(), msg, args...)
}

func tokErrLen(tok token.Token, length int, msg string, args ...interface{}) *diag.Error {
	return diag.UserError(tok.Filename, tok.Row, tok.Col, length, msg, args...)
}

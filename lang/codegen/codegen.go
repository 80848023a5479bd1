// Package codegen implements rack's code generator: a second abstract
// interpreter, structurally identical to lang/typecheck's single forward
// walk, that emits NASM text instead of checking types. It assumes prog has
// already passed lang/typecheck — stack-depth and type mistakes are not
// re-diagnosed here, only the handful of conditions the type checker cannot
// see (a free-standing identifier, an unresolved sys:: const) are.
package codegen

import (
	"fmt"
	"strconv"

	"github.com/dolthub/swiss"

	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/parser"
	"github.com/xavierhamel/rack/lang/token"
)

// Compile lowers prog to a complete NASM source file targeting the Windows
// x64 ABI. Functions are emitted in sorted order for determinism, each
// wrapped in the return-pointer save/restore pair; the top-level token
// range becomes _start. A non-empty diagnostic list means the returned
// text should not be assembled.
func Compile(prog *parser.Program) (string, *diag.List) {
	errs := &diag.List{}
	g := &generator{
		prog:    prog,
		errs:    errs,
		out:     &builder{},
		addrs:   newAddressBook(),
		strPool: swiss.NewMap[string, int](8),
	}

	g.out.write(header)
	g.out.write(retPtrRoutines)
	g.out.write(printInt)
	g.out.write(variableRoutines)
	g.out.write(exitRoutine)
	g.out.nl()

	for _, name := range prog.SortedFunctionNames() {
		fn, _ := prog.Functions.Get(name)
		g.resetVariables()
		g.out.label(name)
		g.out.call("_std@store_ret_ptr")
		g.compileRange(fn.BodyStart, fn.BodyEnd)
		g.out.call("_std@load_ret_ptr")
		g.out.ret()
	}

	g.out.nl()
	g.out.write("_start:\n")
	g.resetVariables()
	g.compileRange(0, len(prog.Tokens))
	g.out.call("_std@exit")

	g.out.nl()
	g.out.write("segment .data\n\t_mem@ret_ptr_idx dw 0\n")
	g.writeStrings()

	return g.out.buf.String(), errs
}

// generator holds the mutable state threaded through one compileRange call.
// Like typecheck.checker it is rebuilt (its variable table reset) once per
// function, so `put`/`fetch` slots never leak between one function's
// bodies and another's - a deliberate departure from the single global
// variable table the interpreter this is grounded on used, matching the
// same per-function scoping decision lang/typecheck already makes.
type generator struct {
	prog  *parser.Program
	errs  *diag.List
	out   *builder
	addrs *addressBook

	vars     *swiss.Map[string, int]
	varOrder []string

	strPool  *swiss.Map[string, int]
	strOrder []string

	currentVariable string
	hasVariable     bool
}

func (g *generator) resetVariables() {
	g.vars = swiss.NewMap[string, int](4)
	g.varOrder = nil
	g.currentVariable = ""
	g.hasVariable = false
}

func (g *generator) compileRange(start, end int) {
	toks := g.prog.Tokens
	for idx := start; idx < end; idx++ {
		tok := toks[idx]
		wasIdentifier := false

		if g.hasVariable && !affectsIdentifier(tok.Kind) {
			g.errs.Add(tokErrLen(tok, len(g.currentVariable),
				"an identifier cannot be free standing, it should be a `fn` or have a `put` or `fetch` (or `!`) after it. `%s` is free standing. Check the spelling of the identifier",
				g.currentVariable))
			g.hasVariable = false
			g.currentVariable = ""
			continue
		}

		switch tok.Kind {
		case token.INT:
			g.out.mov("rax", strconv.FormatInt(tok.IntVal, 10))
			g.out.push("rax")
		case token.STR:
			strIdx := g.internString(tok.StrVal)
			g.out.lea("rax", fmt.Sprintf("[str_%d]", strIdx))
			g.out.push("rax")

		case token.MEM:
			g.out.lea("rax", "[_mem@mem]")
			g.out.push("rax")
		case token.MEMINT:
			g.out.lea("rax", "[_mem@internal]")
			g.out.push("rax")
		case token.DUP:
			g.out.pop("rax")
			g.out.mov("rbx", "rax")
			g.out.push("rax")
			g.out.push("rbx")
		case token.SWAP:
			g.out.pop("rax")
			g.out.pop("rbx")
			g.out.push("rax")
			g.out.push("rbx")
		case token.OVER:
			g.out.pop("rax")
			g.out.pop("rbx")
			g.out.push("rbx")
			g.out.push("rax")
			g.out.push("rbx")
		case token.ROT:
			g.out.pop("rax")
			g.out.pop("rbx")
			g.out.pop("rcx")
			g.out.push("rbx")
			g.out.push("rax")
			g.out.push("rcx")
		case token.DROP:
			g.out.pop("rax")
		case token.LOAD8, token.LOAD16, token.LOAD32, token.LOAD64:
			g.emitLoad(tok.Kind)
		case token.STORE8, token.STORE16, token.STORE32, token.STORE64:
			g.emitStore(tok.Kind)
		case token.PUT:
			g.doPut(tok)
		case token.FETCH:
			g.doFetch(tok)

		case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PCT, token.AMP, token.PIPE:
			g.doArithmetic(tok.Kind)
		case token.EQ, token.NEQ, token.LT, token.LE, token.GT, token.GE:
			g.doComparison(tok.Kind)

		case token.IF, token.DO:
			g.out.pop("rax")
			g.out.inst2("test", "rax", "rax")
			if j, ok := tok.Jmp(); ok {
				g.out.inst1("jz", g.addrs.compute(j))
			} else {
				g.errs.Add(tokErr(tok,
					"missing an `end` statement after the `if` or `do`. Should be in this format: `<condition> if <if_true> else <if_false> end`"))
			}
		case token.ELSE:
			if j, ok := tok.Jmp(); ok {
				g.out.inst1("jmp", g.addrs.compute(j))
				g.out.label(g.addrs.compute(idx))
			} else {
				g.errs.Add(tokErr(tok,
					"missing an `end` statement after the `else`. Should be in this format: `<condition> if <if_true> else <if_false> end`"))
			}
		case token.WHILE, token.END:
			g.out.label(g.addrs.compute(idx))
		case token.ENDWHILE:
			if j, ok := tok.Jmp(); ok {
				g.out.inst1("jmp", g.addrs.compute(j))
			}
			g.out.label(g.addrs.compute(idx))
		case token.FN, token.CONST, token.MACRO:
			// A function or constant body is compiled on its own pass
			// (constants never emit anything at all); a macro body is
			// recorded in the macro table at parse time but never
			// expanded, so it is skipped here the same way.
			if j, ok := tok.Jmp(); ok {
				idx = j
			}

		case token.IDENT:
			wasIdentifier = true
			g.doIdentifier(tok)
		case token.SYS:
			g.doSys(tok)
		}

		if !wasIdentifier {
			g.hasVariable = false
			g.currentVariable = ""
		}
	}
}

// affectsIdentifier reports whether kind is allowed to immediately follow a
// pending identifier: only `put` and `fetch` consume one, so any other
// token seeing hasVariable set is a free-standing identifier.
func affectsIdentifier(kind token.Kind) bool {
	return kind == token.PUT || kind == token.FETCH
}

func (g *generator) doArithmetic(kind token.Kind) {
	g.out.pop("rbx")
	g.out.pop("rax")
	switch kind {
	case token.PLUS:
		g.out.add("rax", "rbx")
	case token.MINUS:
		g.out.sub("rax", "rbx")
	case token.STAR:
		g.out.mul("rbx")
	case token.SLASH:
		g.out.xorOp("rdx", "rdx")
		g.out.div("rbx")
	case token.PCT:
		g.out.xorOp("rdx", "rdx")
		g.out.div("rbx")
		g.out.mov("rax", "rdx")
	case token.AMP:
		g.out.inst2("and", "rax", "rbx")
	case token.PIPE:
		g.out.inst2("or", "rax", "rbx")
	}
	g.out.push("rax")
}

var cmpMnemonics = map[token.Kind]string{
	token.EQ:  "cmove",
	token.NEQ: "cmovne",
	token.LE:  "cmovle",
	token.LT:  "cmovl",
	token.GE:  "cmovge",
	token.GT:  "cmovg",
}

func (g *generator) doComparison(kind token.Kind) {
	g.out.xorOp("rcx", "rcx")
	g.out.mov("rdx", "1")
	g.out.pop("rbx")
	g.out.pop("rax")
	g.out.cmp("rax", "rbx")
	g.out.inst2(cmpMnemonics[kind], "rcx", "rdx")
	g.out.push("rcx")
}

// sizeAndReg returns the NASM size keyword and the register (aliased to
// the matching width for anything smaller than a qword) load/store use for
// kind.
func sizeAndReg(kind token.Kind) (size, reg string) {
	switch kind {
	case token.LOAD8, token.STORE8:
		return "byte", "bl"
	case token.LOAD16, token.STORE16:
		return "word", "bx"
	case token.LOAD32, token.STORE32:
		return "dword", "ebx"
	default:
		return "qword", "rbx"
	}
}

func (g *generator) emitLoad(kind token.Kind) {
	size, reg := sizeAndReg(kind)
	g.out.xorOp("rbx", "rbx")
	g.out.pop("rax")
	g.out.mov(reg, fmt.Sprintf("%s [rax]", size))
	g.out.push("rbx")
}

func (g *generator) emitStore(kind token.Kind) {
	size, reg := sizeAndReg(kind)
	g.out.pop("rax")
	g.out.pop("rbx")
	g.out.mov(fmt.Sprintf("%s [rax]", size), reg)
}

func (g *generator) doPut(tok token.Token) {
	if !g.hasVariable {
		g.errs.Add(tokErr(tok, "`put` should be preceded by an identifier but was not"))
		return
	}
	idx := g.variableSlot(g.currentVariable)
	g.out.push(strconv.Itoa(idx))
	g.out.call("_std@put_variable")
}

func (g *generator) doFetch(tok token.Token) {
	if !g.hasVariable {
		g.errs.Add(tokErr(tok, "`fetch` should be preceded by an identifier but was not"))
		return
	}
	idx, ok := g.vars.Get(g.currentVariable)
	if !ok {
		g.errs.Add(tokErrLen(tok, len(g.currentVariable)+5,
			"the variable `%s` was not declared in the current scope. Declare your variables with `put`", g.currentVariable))
		return
	}
	g.out.push(strconv.Itoa(idx))
	g.out.call("_std@fetch_variable")
}

// variableSlot returns name's dense slot index in the current scope,
// assigning it the next free one on first use.
func (g *generator) variableSlot(name string) int {
	if idx, ok := g.vars.Get(name); ok {
		return idx
	}
	idx := len(g.varOrder)
	g.varOrder = append(g.varOrder, name)
	g.vars.Put(name, idx)
	return idx
}

func (g *generator) doIdentifier(tok token.Token) {
	name := tok.Ident
	if _, ok := g.prog.Functions.Get(name); ok {
		g.out.call(name)
		return
	}
	if cst, ok := g.prog.Consts.Get(name); ok {
		g.out.push(strconv.FormatInt(cst.Value, 10))
		return
	}
	g.currentVariable = name
	g.hasVariable = true
}

func (g *generator) doSys(tok token.Token) {
	cst, ok := g.prog.Consts.Get(tok.StrVal)
	if !ok {
		g.errs.Add(tokErrLen(tok, len(tok.StrVal),
			"before using a sys call, you must define a const with its number of arguments. The const must have the same name as the sys call. `%s` has no const associated with it", tok.StrVal))
		return
	}
	registers := [4]string{"rcx", "rdx", "r8", "r9"}
	argsCount := int(cst.Value)
	if argsCount > 4 {
		argsCount = 4
	}
	for i := 0; i < argsCount; i++ {
		g.out.pop(registers[i])
	}
	g.out.call(tok.StrVal)
	g.out.push("rax")
}

// internString returns s's slot in the program-wide string pool,
// deduplicating identical literals across the whole program rather than
// appending a fresh slot per occurrence.
func (g *generator) internString(s string) int {
	if idx, ok := g.strPool.Get(s); ok {
		return idx
	}
	idx := len(g.strOrder)
	g.strOrder = append(g.strOrder, s)
	g.strPool.Put(s, idx)
	return idx
}

func (g *generator) writeStrings() {
	for i, s := range g.strOrder {
		g.out.writef("\tstr_%d db \"%s\",0\n", i, s)
	}
}

func tokErr(tok token.Token, msg string, args ...interface{}) *diag.Error {
	return diag.UserError(tok.Filename, tok.Row, tok.Col, tok.Len(), msg, args...)
}

func tokErrLen(tok token.Token, length int, msg string, args ...interface{}) *diag.Error {
	return diag.UserError(tok.Filename, tok.Row, tok.Col, length, msg, args...)
}

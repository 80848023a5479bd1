// Package parser implements the structural parser: the single forward pass
// that pairs block-opening tokens with their matching terminators, rewrites
// call-argument regions into postfix order, and collects the function,
// constant and macro tables the type checker and code generator consume.
package parser

import (
	"sort"

	"github.com/dolthub/swiss"

	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/token"
	"github.com/xavierhamel/rack/lang/types"
)

// FunctionInfo is one entry of the function table: the body span (exclusive
// of the `fn NAME [annot]` header and the closing `end`) plus its declared
// signature.
type FunctionInfo struct {
	BodyStart, BodyEnd int
	Args, Returns      []types.Set
	IgnoreReturn       bool
	// DeclRow is the source row of the `fn` keyword.
	DeclRow int
}

// ConstInfo is one entry of the constant table.
type ConstInfo struct {
	Value int64
}

// MacroInfo is one entry of the macro table: its body span. Macros are not
// expanded: neither the type checker nor the code generator looks names up
// in this table, so a reference to a macro name is treated like any other
// unresolved identifier.
type MacroInfo struct {
	BodyStart, BodyEnd int
}

// Program is the output of Parse: the rewritten, pure-postfix token
// sequence plus the three name tables collected while pairing blocks. The
// tables are swiss.Map, the same hash map the teacher uses for its value
// tables (lang/machine.Map), sized for the common case of a handful of
// declarations per file. Function names are also kept in a plain slice,
// since swiss.Map (like the real hash map it wraps) gives no iteration
// guarantee and the type checker and code generator both need a fixed
// visiting order for deterministic output (see SortedFunctionNames).
type Program struct {
	Tokens []token.Token

	Functions     *swiss.Map[string, FunctionInfo]
	functionNames []string
	Consts        *swiss.Map[string, ConstInfo]
	Macros        *swiss.Map[string, MacroInfo]
}

func (p *Program) putFunction(name string, info FunctionInfo) {
	if !p.Functions.Has(name) {
		p.functionNames = append(p.functionNames, name)
	}
	p.Functions.Put(name, info)
}

// SortedFunctionNames returns the function table's keys in sorted order.
// The type checker and code generator both need to visit every function,
// and visiting them in a fixed order (rather than a hash map's randomized
// one) is what makes their output deterministic across runs.
func (p *Program) SortedFunctionNames() []string {
	names := append([]string(nil), p.functionNames...)
	sort.Strings(names)
	return names
}

// Parse runs the structural parser over toks (as produced by lang/lexer).
// It never mutates the slice it is given; it returns a new, rewritten
// sequence. Errors accumulate in the returned list rather than aborting,
// matching the lexer's "report everything in one pass" behavior.
func Parse(toks []token.Token) (*Program, *diag.List) {
	errs := &diag.List{}
	rewritten := rewriteCalls(toks, errs)

	prog := &Program{
		Functions: swiss.NewMap[string, FunctionInfo](8),
		Consts:    swiss.NewMap[string, ConstInfo](8),
		Macros:    swiss.NewMap[string, MacroInfo](4),
	}
	pairControlFlow(rewritten, prog, errs)
	prog.Tokens = rewritten
	return prog, errs
}

func tokErr(tok token.Token, msg string, args ...interface{}) *diag.Error {
	return diag.UserError(tok.Filename, tok.Row, tok.Col, tok.Len(), msg, args...)
}

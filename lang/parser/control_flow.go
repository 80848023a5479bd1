package parser

import (
	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/token"
)

// frame is one entry of the block-pairing stack: the index of an opener
// token (`if`, `while`, `do`, `fn`, `const` or `macro`) awaiting its
// terminator.
type frame struct {
	idx  int
	kind token.Kind
}

// pairControlFlow walks toks once, pairing every control-flow opener with
// its terminator (setting JmpIdx on the opener, and on `while`'s `do` it
// rewrites the closing `end`'s Kind to ENDWHILE so the code generator can
// tell a loop-back `end` from a conditional one), and populating the
// function, constant and macro tables on prog.
func pairControlFlow(toks []token.Token, prog *Program, errs *diag.List) {
	var stack []frame

	for idx := range toks {
		tok := &toks[idx]

		switch tok.Kind {
		case token.IF, token.WHILE, token.DO, token.FN, token.CONST, token.MACRO:
			stack = append(stack, frame{idx: idx, kind: tok.Kind})

		case token.ELSE:
			top, ok := pop(&stack)
			if !ok || top.kind != token.IF {
				errs.Add(tokErr(*tok,
					"missing an `if` statement before the `else`. Should be in this format: `<condition> if <if_true> else <if_false> end`"))
				continue
			}
			toks[top.idx].SetJmp(idx)
			stack = append(stack, frame{idx: idx, kind: token.ELSE})

		case token.END:
			pairEnd(toks, &stack, idx, prog, errs)
		}
	}

	for _, f := range stack {
		errs.Add(tokErr(toks[f.idx], "%s", unclosedMessage(f.kind)))
	}
}

func pop(stack *[]frame) (frame, bool) {
	s := *stack
	if len(s) == 0 {
		return frame{}, false
	}
	f := s[len(s)-1]
	*stack = s[:len(s)-1]
	return f, true
}

func pairEnd(toks []token.Token, stack *[]frame, idx int, prog *Program, errs *diag.List) {
	top, ok := pop(stack)
	if !ok {
		errs.Add(tokErr(toks[idx],
			"the `end` keyword did not match any opening statement (like `if`, `while`, `const` or `fn`)"))
		return
	}

	switch top.kind {
	case token.IF, token.ELSE:
		toks[top.idx].SetJmp(idx)

	case token.DO:
		whileFrame, ok := pop(stack)
		if !ok || whileFrame.kind != token.WHILE {
			errs.Add(tokErr(toks[idx],
				"missing a `while` statement before the `do`. Should be in this format: `while <condition> do <if_true> end`"))
			return
		}
		toks[idx].Kind = token.ENDWHILE
		toks[idx].SetJmp(whileFrame.idx)
		toks[top.idx].SetJmp(idx)

	case token.MACRO:
		name, ok := identifierAfter(toks, top.idx, idx, errs,
			"missing an `identifier` just after the `macro` keyword. Should be in this format: `macro <identifier> <statements> end`")
		if !ok {
			return
		}
		// The macro opener gets a jump to its `end` (mirroring fn/const),
		// which lets the code generator skip over a macro body wherever it
		// is encountered inline, rather than walking into it as ordinary
		// code.
		toks[top.idx].SetJmp(idx)
		prog.Macros.Put(name, MacroInfo{BodyStart: top.idx + 2, BodyEnd: idx})

	case token.FN:
		pairFn(toks, top.idx, idx, prog, errs)

	case token.CONST:
		pairConst(toks, top.idx, idx, prog, errs)

	default:
		errs.Add(tokErr(toks[idx],
			"the `end` keyword did not match any opening statement (like `if`, `while`, `const` or `fn`)"))
	}
}

func identifierAfter(toks []token.Token, openIdx, errPosIdx int, errs *diag.List, msg string) (string, bool) {
	if openIdx+1 >= len(toks) || toks[openIdx+1].Kind != token.IDENT {
		errs.Add(tokErr(toks[errPosIdx], "%s", msg))
		return "", false
	}
	return toks[openIdx+1].Ident, true
}

func pairFn(toks []token.Token, openIdx, endIdx int, prog *Program, errs *diag.List) {
	name, ok := identifierAfter(toks, openIdx, endIdx, errs,
		"missing an `identifier` just after the `fn` keyword. Should be in this format: `fn <identifier>[<type_annotation>] <statements> end`")
	if !ok {
		return
	}
	if openIdx+2 >= len(toks) || toks[openIdx+2].Kind != token.TYPEANNOT {
		errs.Add(tokErr(toks[openIdx+1],
			"missing type annotation just after the identifier. Should be in this format: `fn <identifier>[<type_annotation>] <statements> end`"))
		return
	}
	annot := toks[openIdx+2].Annot
	toks[openIdx].SetJmp(endIdx)
	prog.putFunction(name, FunctionInfo{
		BodyStart:    openIdx + 3,
		BodyEnd:      endIdx,
		Args:         annot.Args,
		Returns:      annot.Returns,
		IgnoreReturn: annot.IgnoreReturn,
		DeclRow:      toks[openIdx].Row,
	})
}

func pairConst(toks []token.Token, openIdx, endIdx int, prog *Program, errs *diag.List) {
	name, ok := identifierAfter(toks, openIdx, endIdx, errs,
		"missing an `identifier` just after the `const` keyword. Should be in this format: `const <identifier> <int> end`")
	if !ok {
		return
	}
	toks[openIdx].SetJmp(endIdx)
	if openIdx+2 >= len(toks) || toks[openIdx+2].Kind != token.INT {
		errs.Add(tokErr(toks[endIdx], "a `const` can only be of type `int`"))
		return
	}
	prog.Consts.Put(name, ConstInfo{Value: toks[openIdx+2].IntVal})
}

func unclosedMessage(kind token.Kind) string {
	switch kind {
	case token.IF:
		return "this `if` is missing a matching `end`"
	case token.WHILE:
		return "this `while` is missing a matching `do ... end`"
	case token.DO:
		return "this `do` is missing a matching `end`"
	case token.FN:
		return "this `fn` is missing a matching `end`"
	case token.CONST:
		return "this `const` is missing a matching `end`"
	case token.MACRO:
		return "this `macro` is missing a matching `end`"
	default:
		return "this block is missing a matching `end`"
	}
}

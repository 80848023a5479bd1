package token

import (
	"fmt"
	"strconv"

	"github.com/xavierhamel/rack/lang/types"
)

// Token is an immutable record describing one lexeme: its Kind, the literal
// value it carries (if any) and its source position. JmpIdx is populated by
// the structural parser for `if`, `else`, `do`, `fn`, `const` and `macro`
// tokens and for a loop's closing `end` (see lang/parser).
type Token struct {
	Kind Kind

	Row, Col int
	Filename string

	// IntVal is the literal value for Kind == INT (character literals are
	// lowered to INT at lex time, carrying their Unicode code point).
	IntVal int64
	// StrVal is the literal value for Kind == STR, and the `NAME` in
	// `sys::NAME` for Kind == SYS.
	StrVal string
	// Ident is the lexeme for Kind == IDENT.
	Ident string
	// Annot is populated for Kind == TYPEANNOT.
	Annot *types.Annotation

	// JmpIdx is an index into the owning token sequence. It is set by the
	// structural parser on `if`, `else`, `do`, `fn`, `const` and `macro`
	// tokens, and on an ENDWHILE (pointing back at its `while`); `while`
	// and a plain `end` never carry one.
	JmpIdx int
	hasJmp bool
}

// SetJmp records idx as this token's jump target.
func (t *Token) SetJmp(idx int) {
	t.JmpIdx = idx
	t.hasJmp = true
}

// Jmp returns the jump target set by the structural parser, if any.
func (t *Token) Jmp() (int, bool) {
	return t.JmpIdx, t.hasJmp
}

// Len returns the length, in source runes, of the token as it appears in
// the original file. It is used exclusively to size the caret rule under a
// diagnostic.
func (t *Token) Len() int {
	switch t.Kind {
	case STR:
		return len(t.StrVal)
	case IDENT:
		return len(t.Ident)
	case INT:
		return len(strconv.FormatInt(t.IntVal, 10))
	case SYS:
		return len(t.StrVal) + 5 // "sys::" prefix
	case INCLUDE:
		return 7
	case IGNORE:
		return 0
	case DUP, ROT, PUT, MEM:
		return 3
	case MEMINT, SWAP, OVER, DROP, LOAD64:
		return 4
	case LOAD8, STORE64, FETCH:
		return 5
	case LOAD16, LOAD32, STORE8:
		return 6
	case STORE16, STORE32:
		return 7
	case IF, FN, DO:
		return 2
	case END, ENDWHILE:
		return 3
	case ELSE:
		return 4
	case WHILE, CONST, MACRO:
		return 5
	case NEQ, LE, GE:
		return 2
	default:
		return 1
	}
}

// Position formats the token's origin as "filename:row:col".
func (t *Token) Position() string {
	return fmt.Sprintf("%s:%d:%d", t.Filename, t.Row, t.Col)
}

func (k Kind) GoString() string {
	switch {
	case k >= PLUS && k <= GE:
		return "'" + kindNames[k] + "'"
	default:
		return kindNames[k]
	}
}

// Package lexer turns flattened source text (as produced by lang/include)
// into a token stream. It performs a single left-to-right scan per line,
// the same approach as the reference tokenizer it is ported from: no
// lookahead beyond one rune, and every malformed lexeme is recorded as a
// diagnostic rather than aborting the scan, so a file with several lexical
// mistakes reports all of them in one pass.
package lexer

import (
	"strconv"
	"strings"

	"github.com/xavierhamel/rack/lang/diag"
	"github.com/xavierhamel/rack/lang/include"
	"github.com/xavierhamel/rack/lang/token"
	"github.com/xavierhamel/rack/lang/types"
)

// boundary holds every rune that both terminates the lexeme accumulated so
// far and is a single-character token in its own right. Whitespace behaves
// the same way except that it never produces a token of its own. Note that
// '-' is deliberately absent: it stays part of a number or identifier lexeme
// (`-5`, `my-thing`), and is the subtraction operator only when it stands
// alone between whitespace.
const boundary = "()&|+*/%=,"

// Lex scans src, returning every token it could extract and a diag.List of
// the lexical errors encountered along the way. A non-empty error list does
// not imply an empty token slice: callers that want to continue past the
// lexer (e.g. to keep accumulating parser/checker errors) may do so, but a
// pipeline driver should treat any lexer errors as fatal.
func Lex(src string) ([]token.Token, *diag.List) {
	s := &scanner{errs: &diag.List{}}
	for row, line := range strings.Split(src, "\n") {
		s.scanLine(row, line)
	}
	return s.tokens, s.errs
}

type scanner struct {
	tokens []token.Token
	errs   *diag.List

	filename  string
	rowOffset int
}

func (s *scanner) scanLine(row int, line string) {
	if rest, ok := strings.CutPrefix(line, include.Marker); ok {
		s.filename = rest
		s.rowOffset = row
		return
	}

	runes := []rune(line)
	st := &lineState{line: runes, filename: s.filename, row: row - s.rowOffset}

	for st.col < len(runes) {
		if st.inComment {
			break
		}
		c := runes[st.col]

		if st.twoCharPending {
			s.resolveTwoChar(st, c)
		}
		if st.inComment {
			break
		}

		switch {
		case c == '#':
			st.inComment = true

		case (c == '!' || c == '>' || c == '<') && !st.inString && !st.inChar && !st.inAnnot:
			s.flush(st, st.col)
			st.twoCharStart = st.col
			st.twoCharPending = true
			if st.col == len(runes)-1 {
				s.emit(st, st.col, st.col+1)
			}
			st.start = st.col

		case strings.ContainsRune(boundary, c) || c == ' ' || c == '\t':
			if !st.inChar && !st.inString && !st.inAnnot {
				if st.ignoreEqual {
					st.ignoreEqual = false
					st.start = st.col + 1
				} else {
					s.flush(st, st.col)
					s.emit(st, st.col, st.col+1)
					st.start = st.col + 1
				}
			}

		case c == '[':
			s.flush(st, st.col)
			if !st.inString && !st.inChar {
				st.start = st.col + 1
				st.inAnnot = true
			}

		case c == ']':
			if st.inAnnot {
				s.flushAnnotation(st, st.col)
				st.start = st.col + 1
				st.inAnnot = false
			}

		case c == '"':
			if st.inString {
				s.emitString(st, st.col)
				st.start = st.col + 1
				st.inString = false
			} else if !st.inChar && !st.inAnnot {
				s.flush(st, st.col)
				st.start = st.col + 1
				st.inString = true
			}

		case c == '\'':
			s.scanQuote(st)

		default:
			if st.col == len(runes)-1 {
				switch {
				case st.inString:
					s.errs.Add(diag.UserError(st.filename, st.row, st.col, 1,
						"a string can only be on one line and should be closed before the end of the line"))
				case st.inChar:
					s.errs.Add(diag.UserError(st.filename, st.row, st.col, 1,
						"a char literal must be closed with ' before the end of the line"))
				case st.inAnnot:
					s.errs.Add(diag.UserError(st.filename, st.row, st.col, 1,
						"an opening bracket '[' must be matched with a closing one ']'"))
				default:
					s.emit(st, st.start, len(runes))
				}
			}
		}

		st.col++
	}
}

// resolveTwoChar closes out a pending '!'/'<'/'>' once the following rune is
// known: followed by '=' it is the two-character comparison operator,
// otherwise it stands alone and the current rune is re-examined fresh by
// the switch below (scanLine does not skip it).
func (s *scanner) resolveTwoChar(st *lineState, c rune) {
	end := st.col
	start := st.twoCharStart
	if c == '=' {
		st.ignoreEqual = true
		end++
	} else {
		st.start = st.col
	}
	s.emit(st, start, end)
	st.twoCharPending = false
}

func (s *scanner) scanQuote(st *lineState) {
	switch {
	case st.inChar:
		if st.col-st.start == 1 {
			s.emitChar(st, st.line[st.start])
		} else {
			s.errs.Add(diag.UserError(st.filename, st.row, st.start+1, st.col-st.start,
				"a char should be 1 character long. To have longer strings, use \" not '."))
		}
		st.inChar = false
		st.start = st.col + 1
	case !st.inString && !st.inAnnot:
		s.flush(st, st.col)
		st.start = st.col + 1
		st.inChar = true
	}
}

// flush tries to classify line[start:end] (trimmed) and, if non-empty,
// appends it as a token.
func (s *scanner) flush(st *lineState, end int) {
	s.emit(st, st.start, end)
}

func (s *scanner) emit(st *lineState, start, end int) {
	if start < 0 {
		start = 0
	}
	if end > len(st.line) {
		end = len(st.line)
	}
	if start >= end {
		return
	}
	value := strings.TrimSpace(string(st.line[start:end]))
	if value == "" {
		return
	}
	tok, ok := classify(value, st.row, end, st.filename)
	if ok {
		s.tokens = append(s.tokens, tok)
	}
}

func (s *scanner) emitString(st *lineState, end int) {
	value := strings.TrimSpace(string(st.line[st.start:end]))
	if value == "" {
		return
	}
	s.tokens = append(s.tokens, token.Token{
		Kind:     token.STR,
		Row:      st.row,
		Col:      end,
		Filename: st.filename,
		StrVal:   value,
	})
}

func (s *scanner) emitChar(st *lineState, r rune) {
	s.tokens = append(s.tokens, token.Token{
		Kind:     token.INT,
		Row:      st.row,
		Col:      st.col,
		Filename: st.filename,
		IntVal:   int64(r),
	})
}

func (s *scanner) flushAnnotation(st *lineState, end int) {
	value := strings.TrimSpace(string(st.line[st.start:end]))
	args, returns, ignoreReturn := parseAnnotation(value)

	annot := &types.Annotation{IgnoreReturn: ignoreReturn}
	for _, slot := range args {
		set, err := types.ParseSet(slot)
		if err != nil {
			s.errs.Add(diag.UserError(st.filename, st.row, end, end-st.start, "%s", err))
			return
		}
		annot.Args = append(annot.Args, set)
	}
	for _, slot := range returns {
		set, err := types.ParseSet(slot)
		if err != nil {
			s.errs.Add(diag.UserError(st.filename, st.row, end, end-st.start, "%s", err))
			return
		}
		annot.Returns = append(annot.Returns, set)
	}

	s.tokens = append(s.tokens, token.Token{
		Kind:     token.TYPEANNOT,
		Row:      st.row,
		Col:      end,
		Filename: st.filename,
		Annot:    annot,
	})
}

// lineState tracks the single-pass scan cursor and mode flags for one line.
type lineState struct {
	line     []rune
	filename string
	row      int

	col   int
	start int

	inString bool
	inChar   bool
	inAnnot  bool

	twoCharPending bool
	twoCharStart   int
	ignoreEqual    bool

	inComment bool
}

// classify resolves a trimmed lexeme to a Token: first an integer literal,
// then a fixed keyword/punctuation spelling, then `sys::NAME`, falling back
// to a plain identifier.
func classify(value string, row, col int, filename string) (token.Token, bool) {
	base := token.Token{Row: row, Col: col, Filename: filename}

	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		base.Kind = token.INT
		base.IntVal = n
		return base, true
	}

	if kind, ok := token.Lookup(value); ok {
		base.Kind = kind
		return base, true
	}

	if value == "sys" {
		base.Kind = token.SYS
		return base, true
	}

	if name, ok := strings.CutPrefix(value, "sys::"); ok {
		base.Kind = token.SYS
		base.StrVal = name
		return base, true
	}

	base.Kind = token.IDENT
	base.Ident = value
	return base, true
}

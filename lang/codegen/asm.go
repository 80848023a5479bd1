package codegen

import (
	"bytes"
	"fmt"
	"strings"
)

// builder accumulates NASM instruction text for one compiled range (a
// function body or the top-level program). It is the same
// accumulate-into-a-buffer-with-small-write-helpers shape the teacher uses
// for its own bytecode (dis)assembler (lang/compiler/asm.go's write/writef
// methods), adapted here to emit textual x86-64 mnemonics instead of a
// bytecode listing.
type builder struct {
	buf bytes.Buffer
}

func (b *builder) write(s string) {
	b.buf.WriteString(s)
}

func (b *builder) writef(format string, args ...interface{}) {
	fmt.Fprintf(&b.buf, format, args...)
}

// sanitizeLabel replaces "::" with "_", the one character sequence NASM
// rejects in a label that rack identifiers (sys::NAME) can otherwise
// contain.
func sanitizeLabel(name string) string {
	return strings.ReplaceAll(name, "::", "_")
}

func (b *builder) label(name string) {
	b.writef("%s:\n", sanitizeLabel(name))
}

func (b *builder) push(op string) { b.writef("\tpush %s\n", op) }
func (b *builder) pop(op string)  { b.writef("\tpop %s\n", op) }
func (b *builder) mov(dst, src string) { b.writef("\tmov %s, %s\n", dst, src) }
func (b *builder) lea(dst, src string) { b.writef("\tlea %s, %s\n", dst, src) }
func (b *builder) call(label string)   { b.writef("\tcall %s\n", sanitizeLabel(label)) }
func (b *builder) add(dst, src string) { b.writef("\tadd %s, %s\n", dst, src) }
func (b *builder) sub(dst, src string) { b.writef("\tsub %s, %s\n", dst, src) }
func (b *builder) mul(op string)       { b.writef("\tmul %s\n", op) }
func (b *builder) div(op string)       { b.writef("\tdiv %s\n", op) }
func (b *builder) xorOp(dst, src string) { b.writef("\txor %s, %s\n", dst, src) }
func (b *builder) cmp(dst, src string)   { b.writef("\tcmp %s, %s\n", dst, src) }
func (b *builder) inst2(mnemonic, dst, src string) { b.writef("\t%s %s, %s\n", mnemonic, dst, src) }
func (b *builder) inst1(mnemonic, op string)       { b.writef("\t%s %s\n", mnemonic, op) }
func (b *builder) ret()  { b.write("\tret\n") }
func (b *builder) nl()   { b.write("\n") }

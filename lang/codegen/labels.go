package codegen

import (
	"strconv"

	"github.com/dolthub/swiss"
)

// addressBook assigns a unique NASM label to every jump target a
// control-flow token pair needs. A control-flow opener and its matching
// closer are compiled independently but must agree on one label, so the
// label is derived purely from the token index being jumped to: the first
// time an index is visited it is label 0, the second time (its pair) it is
// also label 0 (usage/2 floors both visits to the same value), and any
// later visit to the same index starts a fresh label. Keyed by
// *swiss.Map[int,int] per the code generator's table-backing convention.
type addressBook struct {
	usage *swiss.Map[int, int]
}

func newAddressBook() *addressBook {
	return &addressBook{usage: swiss.NewMap[int, int](8)}
}

// compute returns the NASM label for idx, bumping its usage counter.
func (a *addressBook) compute(idx int) string {
	usage := 0
	if prev, ok := a.usage.Get(idx); ok {
		usage = prev + 1
	}
	a.usage.Put(idx, usage)
	return labelFor(idx, usage/2)
}

func labelFor(idx, suffix int) string {
	return "ADDR_" + strconv.Itoa(idx) + "_" + strconv.Itoa(suffix)
}

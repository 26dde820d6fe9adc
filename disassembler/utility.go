package disassembler

import (
	"fmt"
	"strings"
)

// labelName generates a label string based on the address and its context.
func labelName(addr uint16, labelType LabelType) string {
	prefix := "loc_"
	switch labelType {
	case SubroutineEntry:
		prefix = "sub_"
	}
	return fmt.Sprintf("%s%04X", prefix, addr)
}

func splitMnemonic(text string) (string, string) {
	mn, ops, _ := strings.Cut(text, " ")
	return mn, strings.TrimSpace(ops)
}

// isTerminal checks if an instruction unconditionally stops linear execution.
func isTerminal(name string) bool {
	return name == "JMP" || name == "RET" || name == "RETF" || name == "HLT"
}

// addrQueue is a simple worklist queue for offsets to decode.
type addrQueue struct {
	items []int
	seen  map[int]bool
}

func newQueue() *addrQueue {
	return &addrQueue{seen: make(map[int]bool)}
}

func (q *addrQueue) push(off int) {
	if !q.seen[off] {
		q.items = append(q.items, off)
		q.seen[off] = true
	}
}

func (q *addrQueue) pop() (int, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	a := q.items[0]
	q.items = q.items[1:]
	return a, true
}

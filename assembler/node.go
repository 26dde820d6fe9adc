package assembler

import "fmt"

// NodeType defines the type of an assembly node.
type NodeType int

const (
	// NodeInstruction type.
	NodeInstruction NodeType = iota
	// NodeLabel type.
	NodeLabel
	// NodeDirective type.
	NodeDirective
)

// Node represents one parsed element from the assembly source.
type Node struct {
	Type NodeType
	// Line is the 1-based source line, for error reports.
	Line  int
	Label string
	// Directive is ORG, DB or DW.
	Directive string
	// Text is the instruction line, or the directive operands.
	Text string
	// Target is the label a relative transfer jumps to.
	Target string
	// Near is latched once a short displacement no longer reaches Target.
	Near bool
	Size uint16
}

func (n *Node) errorf(err error) error {
	return fmt.Errorf("line %d: %w", n.Line, err)
}

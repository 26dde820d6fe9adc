package isa

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatch is returned when no instruction family fits the input.
	ErrNoMatch = errors.New("no matching instruction")
	// ErrUndefinedField is returned when a field value is outside its domain.
	ErrUndefinedField = errors.New("undefined field")
	// ErrFault is the umbrella for execution faults.
	ErrFault = errors.New("execution fault")
	// ErrDivideByZero is a DIV, IDIV or AAM with a zero divisor.
	ErrDivideByZero = fmt.Errorf("%w: divide by zero", ErrFault)
	// ErrDivideOverflow is a DIV or IDIV whose quotient does not fit.
	ErrDivideOverflow = fmt.Errorf("%w: quotient overflow", ErrFault)
	// ErrFarTarget is a far-indirect transfer whose operand has no segment word.
	ErrFarTarget = fmt.Errorf("%w: unresolvable far target", ErrFault)
	// ErrNoPorts is an IN or OUT against a machine without a port space.
	ErrNoPorts = fmt.Errorf("%w: machine has no port space", ErrFault)
)

func undefined(name, value string) error {
	return fmt.Errorf("%w: %s=%q", ErrUndefinedField, name, value)
}

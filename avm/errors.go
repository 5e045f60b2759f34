package avm

import (
	"errors"
	"fmt"
)

// Assembly errors.
var (
	// ErrVersionTooLow is returned when a program declares an AVM version
	// below the minimum the opcode subset requires.
	ErrVersionTooLow = errors.New("avm: program version below minimum supported version")

	// ErrEmptyProgram is returned when a program contains no instructions.
	ErrEmptyProgram = errors.New("avm: program has no instructions")

	// ErrPushBytesTooLong is returned when a pushbytes immediate exceeds the
	// maximum representable length.
	ErrPushBytesTooLong = errors.New("avm: pushbytes immediate exceeds maximum length")

	// ErrExternalTarget is returned when a spliced fragment branches to a
	// label it does not define.
	ErrExternalTarget = errors.New("avm: fragment branch targets a label outside the fragment")
)

// DuplicateLabelError is returned when the same label is defined more than
// once in a program.
type DuplicateLabelError struct {
	Label string
}

func (e *DuplicateLabelError) Error() string {
	return fmt.Sprintf("avm: label %q defined more than once", e.Label)
}

// UndefinedLabelError is returned when a branch targets a label that is
// never defined.
type UndefinedLabelError struct {
	Label string
}

func (e *UndefinedLabelError) Error() string {
	return fmt.Sprintf("avm: branch to undefined label %q", e.Label)
}

// BranchRangeError is returned when a branch offset does not fit in the
// 16-bit immediate.
type BranchRangeError struct {
	Label  string
	Offset int
}

func (e *BranchRangeError) Error() string {
	return fmt.Sprintf("avm: branch to %q spans %d bytes, outside the int16 range", e.Label, e.Offset)
}

// ImmediateError is returned when an instruction was appended with an
// immediate layout that does not match its opcode.
type ImmediateError struct {
	Op   Opcode
	Want string
	Got  string
}

func (e *ImmediateError) Error() string {
	return fmt.Sprintf("avm: %s expects %s immediates, got %s", e.Op.Name(), e.Want, e.Got)
}

// UnknownOpcodeError is returned when a program contains an opcode outside
// the supported subset.
type UnknownOpcodeError struct {
	Op Opcode
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("avm: opcode 0x%02x is not in the supported subset", byte(e.Op))
}

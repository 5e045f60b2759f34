package avm

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

const (
	// MinVersion is the lowest AVM version the opcode subset assembles for.
	MinVersion = 5

	// maxPushBytesLen is the longest byte constant a program may carry.
	maxPushBytesLen = 4096
)

type instrKind uint8

const (
	kindOp instrKind = iota
	kindBranch
	kindLabel
	kindComment
)

// instruction is one entry in a fragment. Labels and comments are pseudo
// instructions: they occupy no bytes in the assembled program.
type instruction struct {
	kind   instrKind
	op     Opcode
	imm    []byte // fixed-size immediates
	num    uint64 // pushint immediate
	blob   []byte // pushbytes immediate
	target string // branch target
	label  string // label name
	text   string // comment text
}

func (in *instruction) size() (int, error) {
	spec, ok := opSpecs[in.op]
	if !ok {
		return 0, &UnknownOpcodeError{Op: in.op}
	}
	if in.kind == kindBranch {
		if spec.imm != immLabel {
			return 0, &ImmediateError{Op: in.op, Want: immName(spec.imm), Got: "a label"}
		}
		return 3, nil
	}
	switch spec.imm {
	case immNone:
		return 1, nil
	case immByte, immTxnField, immGlobal:
		if len(in.imm) != 1 {
			return 0, &ImmediateError{Op: in.op, Want: "one byte", Got: fmt.Sprintf("%d bytes", len(in.imm))}
		}
		return 2, nil
	case immTwoBytes, immTxnArray:
		if len(in.imm) != 2 {
			return 0, &ImmediateError{Op: in.op, Want: "two bytes", Got: fmt.Sprintf("%d bytes", len(in.imm))}
		}
		return 3, nil
	case immVaruint:
		return 1 + varuintLen(in.num), nil
	case immBytes:
		if len(in.blob) > maxPushBytesLen {
			return 0, ErrPushBytesTooLong
		}
		return 1 + varuintLen(uint64(len(in.blob))) + len(in.blob), nil
	case immLabel:
		return 0, &ImmediateError{Op: in.op, Want: "a label", Got: "none"}
	}
	return 0, &ImmediateError{Op: in.op, Want: immName(spec.imm), Got: "unsupported layout"}
}

func (in *instruction) encode(dst []byte) []byte {
	dst = append(dst, byte(in.op))
	switch opSpecs[in.op].imm {
	case immVaruint:
		dst = appendVaruint(dst, in.num)
	case immBytes:
		dst = appendVaruint(dst, uint64(len(in.blob)))
		dst = append(dst, in.blob...)
	default:
		dst = append(dst, in.imm...)
	}
	return dst
}

func (in *instruction) source() string {
	spec, ok := opSpecs[in.op]
	if !ok {
		return in.op.Name()
	}
	switch spec.imm {
	case immTxnField:
		return fmt.Sprintf("txn %s", TxnField(in.imm[0]))
	case immTxnArray:
		return fmt.Sprintf("txna %s %d", TxnField(in.imm[0]), in.imm[1])
	case immGlobal:
		return fmt.Sprintf("global %s", GlobalField(in.imm[0]))
	case immByte:
		return fmt.Sprintf("%s %d", spec.name, in.imm[0])
	case immTwoBytes:
		return fmt.Sprintf("%s %d %d", spec.name, in.imm[0], in.imm[1])
	case immVaruint:
		return fmt.Sprintf("pushint %d", in.num)
	case immBytes:
		if len(in.blob) == 0 {
			return `pushbytes ""`
		}
		return fmt.Sprintf("pushbytes 0x%s", hex.EncodeToString(in.blob))
	default:
		return spec.name
	}
}

func immName(k immKind) string {
	switch k {
	case immNone:
		return "no"
	case immByte, immTxnField, immGlobal:
		return "one byte"
	case immTwoBytes, immTxnArray:
		return "two bytes"
	case immLabel:
		return "a label"
	case immVaruint:
		return "a varuint"
	case immBytes:
		return "a byte constant"
	}
	return "unknown"
}

// Fragment is an append-only sequence of AVM instructions. The zero value
// is an empty fragment ready for use. All append methods return the
// receiver so instruction sequences can be built fluently. Validation is
// deferred to assembly.
type Fragment struct {
	instrs []instruction
}

// NewFragment returns an empty fragment.
func NewFragment() *Fragment {
	return &Fragment{}
}

func (f *Fragment) add(in instruction) *Fragment {
	f.instrs = append(f.instrs, in)
	return f
}

// Op appends an opcode that takes no immediates.
func (f *Fragment) Op(op Opcode) *Fragment {
	return f.add(instruction{kind: kindOp, op: op})
}

// PushInt appends a pushint instruction.
func (f *Fragment) PushInt(v uint64) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpPushInt, num: v})
}

// PushBytes appends a pushbytes instruction. The slice is copied.
func (f *Fragment) PushBytes(b []byte) *Fragment {
	blob := make([]byte, len(b))
	copy(blob, b)
	return f.add(instruction{kind: kindOp, op: OpPushBytes, blob: blob})
}

// Txn appends a txn field read.
func (f *Fragment) Txn(field TxnField) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpTxn, imm: []byte{byte(field)}})
}

// Txna appends an indexed read of a transaction array field.
func (f *Fragment) Txna(field TxnField, index uint8) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpTxna, imm: []byte{byte(field), index}})
}

// Global appends a global field read.
func (f *Fragment) Global(field GlobalField) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpGlobal, imm: []byte{byte(field)}})
}

// Load appends a scratch slot read.
func (f *Fragment) Load(slot uint8) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpLoad, imm: []byte{slot}})
}

// Store appends a scratch slot write.
func (f *Fragment) Store(slot uint8) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpStore, imm: []byte{slot}})
}

// Dig appends a dig instruction duplicating the value depth entries below
// the top of the stack.
func (f *Fragment) Dig(depth uint8) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpDig, imm: []byte{depth}})
}

// Extract appends an extract instruction with immediate start and length.
// A zero length extracts to the end of the byte string.
func (f *Fragment) Extract(start, length uint8) *Fragment {
	return f.add(instruction{kind: kindOp, op: OpExtract, imm: []byte{start, length}})
}

// Branch appends a branching instruction (OpB, OpBz, OpBnz or OpCallSub)
// targeting the named label. The label may be defined before or after the
// branch; resolution happens at assembly.
func (f *Fragment) Branch(op Opcode, label string) *Fragment {
	return f.add(instruction{kind: kindBranch, op: op, target: label})
}

// Label defines a branch target at the current position.
func (f *Fragment) Label(name string) *Fragment {
	return f.add(instruction{kind: kindLabel, label: name})
}

// Comment records a source-only comment. Comments appear in Source output
// and contribute no bytes to the assembled program.
func (f *Fragment) Comment(text string) *Fragment {
	return f.add(instruction{kind: kindComment, text: text})
}

// Append splices another fragment into the receiver. Labels keep their
// names, so the two fragments share one namespace.
func (f *Fragment) Append(other *Fragment) *Fragment {
	f.instrs = append(f.instrs, other.instrs...)
	return f
}

// AppendPrefixed splices another fragment, renaming its labels and branch
// targets with the given prefix. Every branch in the spliced fragment must
// target a label the fragment itself defines; a branch to an outside label
// returns ErrExternalTarget.
func (f *Fragment) AppendPrefixed(other *Fragment, prefix string) error {
	defined := make(map[string]bool)
	for i := range other.instrs {
		if other.instrs[i].kind == kindLabel {
			defined[other.instrs[i].label] = true
		}
	}
	for _, in := range other.instrs {
		switch in.kind {
		case kindLabel:
			in.label = prefix + in.label
		case kindBranch:
			if !defined[in.target] {
				return fmt.Errorf("%w: %q", ErrExternalTarget, in.target)
			}
			in.target = prefix + in.target
		}
		f.instrs = append(f.instrs, in)
	}
	return nil
}

// Len reports the number of real instructions in the fragment, excluding
// labels and comments.
func (f *Fragment) Len() int {
	n := 0
	for i := range f.instrs {
		switch f.instrs[i].kind {
		case kindLabel, kindComment:
		default:
			n++
		}
	}
	return n
}

// Program is a fragment with a target AVM version. It assembles to the
// version header followed by the encoded instruction stream.
type Program struct {
	version uint64
	Fragment
}

// NewProgram returns an empty program targeting the given AVM version.
func NewProgram(version uint64) *Program {
	return &Program{version: version}
}

// Version returns the program's AVM version.
func (p *Program) Version() uint64 {
	return p.version
}

// Assemble encodes the program. Branch offsets are resolved in a first
// pass over instruction sizes, then instructions are emitted with int16
// offsets relative to the end of each branch instruction.
func (p *Program) Assemble() ([]byte, error) {
	if p.version < MinVersion {
		return nil, fmt.Errorf("%w: version %d, minimum %d", ErrVersionTooLow, p.version, MinVersion)
	}
	if p.Len() == 0 {
		return nil, ErrEmptyProgram
	}

	offsets := make([]int, len(p.instrs))
	labels := make(map[string]int)
	pc := 0
	for i := range p.instrs {
		in := &p.instrs[i]
		offsets[i] = pc
		switch in.kind {
		case kindLabel:
			if _, dup := labels[in.label]; dup {
				return nil, &DuplicateLabelError{Label: in.label}
			}
			labels[in.label] = pc
			continue
		case kindComment:
			continue
		}
		n, err := in.size()
		if err != nil {
			return nil, err
		}
		pc += n
	}

	out := appendVaruint(make([]byte, 0, pc+varuintLen(p.version)), p.version)
	for i := range p.instrs {
		in := &p.instrs[i]
		switch in.kind {
		case kindLabel, kindComment:
			continue
		case kindBranch:
			target, ok := labels[in.target]
			if !ok {
				return nil, &UndefinedLabelError{Label: in.target}
			}
			delta := target - (offsets[i] + 3)
			if delta < math.MinInt16 || delta > math.MaxInt16 {
				return nil, &BranchRangeError{Label: in.target, Offset: delta}
			}
			out = append(out, byte(in.op))
			out = binary.BigEndian.AppendUint16(out, uint16(int16(delta)))
		default:
			out = in.encode(out)
		}
	}
	return out, nil
}

// Source renders the program as TEAL text. The output is a readable
// artifact; it is not consumed by Assemble.
func (p *Program) Source() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#pragma version %d\n", p.version)
	for i := range p.instrs {
		in := &p.instrs[i]
		switch in.kind {
		case kindLabel:
			fmt.Fprintf(&b, "%s:\n", in.label)
		case kindComment:
			fmt.Fprintf(&b, "\n// %s\n", in.text)
		case kindBranch:
			fmt.Fprintf(&b, "%s %s\n", in.op.Name(), in.target)
		default:
			b.WriteString(in.source())
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendVaruint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

func varuintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}

package avm

import "fmt"

// Opcode is a single AVM opcode byte.
type Opcode byte

// Application-mode opcodes understood by the assembler. Byte values match
// the AVM reference implementation's opcode table.
const (
	OpErr    Opcode = 0x00
	OpSHA256 Opcode = 0x01

	OpPlus  Opcode = 0x08
	OpMinus Opcode = 0x09
	OpDiv   Opcode = 0x0a
	OpMul   Opcode = 0x0b
	OpLt    Opcode = 0x0c
	OpGt    Opcode = 0x0d
	OpLe    Opcode = 0x0e
	OpGe    Opcode = 0x0f
	OpAnd   Opcode = 0x10
	OpOr    Opcode = 0x11
	OpEq    Opcode = 0x12
	OpNeq   Opcode = 0x13
	OpNot   Opcode = 0x14
	OpLen   Opcode = 0x15
	OpItob  Opcode = 0x16
	OpBtoi  Opcode = 0x17
	OpMod   Opcode = 0x18

	OpTxn    Opcode = 0x31
	OpGlobal Opcode = 0x32
	OpLoad   Opcode = 0x34
	OpStore  Opcode = 0x35
	OpTxna   Opcode = 0x36

	OpBnz    Opcode = 0x40
	OpBz     Opcode = 0x41
	OpB      Opcode = 0x42
	OpReturn Opcode = 0x43
	OpAssert Opcode = 0x44
	OpPop    Opcode = 0x48
	OpDup    Opcode = 0x49
	OpDup2   Opcode = 0x4a
	OpDig    Opcode = 0x4b
	OpSwap   Opcode = 0x4c
	OpSelect Opcode = 0x4d

	OpConcat        Opcode = 0x50
	OpGetBit        Opcode = 0x53
	OpSetBit        Opcode = 0x54
	OpExtract       Opcode = 0x57
	OpExtract3      Opcode = 0x58
	OpExtractUint16 Opcode = 0x59
	OpExtractUint32 Opcode = 0x5a
	OpExtractUint64 Opcode = 0x5b

	OpAppOptedIn     Opcode = 0x61
	OpAppLocalGet    Opcode = 0x62
	OpAppLocalGetEx  Opcode = 0x63
	OpAppGlobalGet   Opcode = 0x64
	OpAppGlobalGetEx Opcode = 0x65
	OpAppLocalPut    Opcode = 0x66
	OpAppGlobalPut   Opcode = 0x67
	OpAppLocalDel    Opcode = 0x68
	OpAppGlobalDel   Opcode = 0x69

	OpPushBytes Opcode = 0x80
	OpPushInt   Opcode = 0x81

	OpCallSub Opcode = 0x88
	OpRetSub  Opcode = 0x89

	OpShl Opcode = 0x90
	OpShr Opcode = 0x91

	OpLog Opcode = 0xb0
)

// immKind describes the immediate layout that follows an opcode byte.
type immKind uint8

const (
	immNone     immKind = iota // no immediates
	immByte                    // one uint8 immediate
	immTwoBytes                // two uint8 immediates
	immTxnField                // one uint8 immediate, rendered as a transaction field name
	immTxnArray                // field immediate plus a uint8 array index
	immGlobal                  // one uint8 immediate, rendered as a global field name
	immLabel                   // int16 branch offset, built from a label
	immVaruint                 // one varuint immediate
	immBytes                   // varuint length followed by that many bytes
)

type opSpec struct {
	name string
	imm  immKind
}

// opSpecs drives both encoding and source rendering. Names are the TEAL
// mnemonics.
var opSpecs = map[Opcode]opSpec{
	OpErr:    {"err", immNone},
	OpSHA256: {"sha256", immNone},

	OpPlus:  {"+", immNone},
	OpMinus: {"-", immNone},
	OpDiv:   {"/", immNone},
	OpMul:   {"*", immNone},
	OpLt:    {"<", immNone},
	OpGt:    {">", immNone},
	OpLe:    {"<=", immNone},
	OpGe:    {">=", immNone},
	OpAnd:   {"&&", immNone},
	OpOr:    {"||", immNone},
	OpEq:    {"==", immNone},
	OpNeq:   {"!=", immNone},
	OpNot:   {"!", immNone},
	OpLen:   {"len", immNone},
	OpItob:  {"itob", immNone},
	OpBtoi:  {"btoi", immNone},
	OpMod:   {"%", immNone},

	OpTxn:    {"txn", immTxnField},
	OpGlobal: {"global", immGlobal},
	OpLoad:   {"load", immByte},
	OpStore:  {"store", immByte},
	OpTxna:   {"txna", immTxnArray},

	OpBnz:    {"bnz", immLabel},
	OpBz:     {"bz", immLabel},
	OpB:      {"b", immLabel},
	OpReturn: {"return", immNone},
	OpAssert: {"assert", immNone},
	OpPop:    {"pop", immNone},
	OpDup:    {"dup", immNone},
	OpDup2:   {"dup2", immNone},
	OpDig:    {"dig", immByte},
	OpSwap:   {"swap", immNone},
	OpSelect: {"select", immNone},

	OpConcat:        {"concat", immNone},
	OpGetBit:        {"getbit", immNone},
	OpSetBit:        {"setbit", immNone},
	OpExtract:       {"extract", immTwoBytes},
	OpExtract3:      {"extract3", immNone},
	OpExtractUint16: {"extract_uint16", immNone},
	OpExtractUint32: {"extract_uint32", immNone},
	OpExtractUint64: {"extract_uint64", immNone},

	OpAppOptedIn:     {"app_opted_in", immNone},
	OpAppLocalGet:    {"app_local_get", immNone},
	OpAppLocalGetEx:  {"app_local_get_ex", immNone},
	OpAppGlobalGet:   {"app_global_get", immNone},
	OpAppGlobalGetEx: {"app_global_get_ex", immNone},
	OpAppLocalPut:    {"app_local_put", immNone},
	OpAppGlobalPut:   {"app_global_put", immNone},
	OpAppLocalDel:    {"app_local_del", immNone},
	OpAppGlobalDel:   {"app_global_del", immNone},

	OpPushBytes: {"pushbytes", immBytes},
	OpPushInt:   {"pushint", immVaruint},

	OpCallSub: {"callsub", immLabel},
	OpRetSub:  {"retsub", immNone},

	OpShl: {"shl", immNone},
	OpShr: {"shr", immNone},

	OpLog: {"log", immNone},
}

// Name returns the TEAL mnemonic for the opcode, or a hex placeholder for
// opcodes outside the supported subset.
func (op Opcode) Name() string {
	if spec, ok := opSpecs[op]; ok {
		return spec.name
	}
	return fmt.Sprintf("op_0x%02x", byte(op))
}

func (op Opcode) String() string {
	return op.Name()
}

package crucible

import (
	"github.com/branched-services/go-crucible/avm"
)

// Program size constants.
const (
	// ProgramPageSize is the byte allowance of one program page. Approval
	// and clear-state programs share the allowance.
	ProgramPageSize = 2048

	// MaxExtraProgramPages is the most additional pages a creation
	// transaction can request beyond the first.
	MaxExtraProgramPages = 3

	// DefaultProgramVersion is the AVM version compiled programs target
	// unless overridden with WithProgramVersion.
	DefaultProgramVersion = 8
)

// returnLogPrefix precedes every logged method return value, so clients
// can find the result among arbitrary log entries. The marker is itself a
// selector: the leading bytes of SHA-512/256 of "return".
var returnLogPrefix = []byte{0x15, 0x1f, 0x7c, 0x75}

// argDecodeFragment renders the read of one application argument and its
// decode to a stack value. Encoded input that fails validation stops the
// program via assert, so a malformed argument can never reach a body.
//
// Stack effect: pushes one decoded value.
func argDecodeFragment(w WireType, index uint8) *avm.Fragment {
	f := avm.NewFragment()
	f.Txna(avm.TxnApplicationArgs, index)
	switch w {
	case WireUint8, WireUint16, WireUint32, WireUint64:
		// Exact-width big-endian integer.
		size, _ := w.staticSize()
		f.Op(avm.OpDup).Op(avm.OpLen)
		f.PushInt(uint64(size))
		f.Op(avm.OpEq).Op(avm.OpAssert)
		f.Op(avm.OpBtoi)
	case WireBool:
		// One byte; the value is the high bit.
		size, _ := w.staticSize()
		f.Op(avm.OpDup).Op(avm.OpLen)
		f.PushInt(uint64(size))
		f.Op(avm.OpEq).Op(avm.OpAssert)
		f.PushInt(0)
		f.Op(avm.OpGetBit)
	case WireString, WireBytes:
		// Two-byte length prefix followed by exactly that many bytes.
		f.Op(avm.OpDup)
		f.PushInt(0)
		f.Op(avm.OpExtractUint16)
		f.PushInt(2)
		f.Op(avm.OpPlus)
		f.Dig(1)
		f.Op(avm.OpLen)
		f.Op(avm.OpEq).Op(avm.OpAssert)
		f.Extract(2, 0)
	case WireAddress:
		// 32 raw bytes.
		size, _ := w.staticSize()
		f.Op(avm.OpDup).Op(avm.OpLen)
		f.PushInt(uint64(size))
		f.Op(avm.OpEq).Op(avm.OpAssert)
	}
	return f
}

// returnEncodeFragment renders the encode of a body's result and the log
// write clients read it back from.
//
// Stack effect: consumes the result value.
// Log format: [marker:4][encoded value]
func returnEncodeFragment(w WireType) *avm.Fragment {
	f := avm.NewFragment()
	switch w {
	case WireUint64:
		f.Op(avm.OpItob)
	case WireUint8, WireUint16, WireUint32:
		width := uint8(w.uintWidth())
		f.Op(avm.OpItob)
		f.Extract(8-width, width)
	case WireBool:
		f.PushBytes([]byte{0x00})
		f.Op(avm.OpSwap)
		f.PushInt(0)
		f.Op(avm.OpSwap)
		f.Op(avm.OpSetBit)
	case WireString, WireBytes:
		f.Op(avm.OpDup).Op(avm.OpLen)
		f.Op(avm.OpItob)
		f.Extract(6, 2)
		f.Op(avm.OpSwap)
		f.Op(avm.OpConcat)
	case WireAddress:
		// Already 32 raw bytes.
	}
	f.PushBytes(returnLogPrefix)
	f.Op(avm.OpSwap)
	f.Op(avm.OpConcat)
	f.Op(avm.OpLog)
	return f
}

// assemblePrograms assembles both programs and enforces the shared size
// allowance of allowedPages pages.
func assemblePrograms(approval, clear *avm.Program, allowedPages uint32) ([]byte, []byte, error) {
	approvalBytes, err := approval.Assemble()
	if err != nil {
		return nil, nil, err
	}
	clearBytes, err := clear.Assemble()
	if err != nil {
		return nil, nil, err
	}
	limit := int(allowedPages) * ProgramPageSize
	if total := len(approvalBytes) + len(clearBytes); total > limit {
		return nil, nil, &ProgramTooLargeError{Program: "combined", Size: total, Limit: limit}
	}
	return approvalBytes, clearBytes, nil
}

// extraPagesFor computes the additional pages a creation transaction must
// request to fit both programs.
func extraPagesFor(approvalLen, clearLen int) uint32 {
	total := approvalLen + clearLen
	if total <= ProgramPageSize {
		return 0
	}
	return uint32((total - 1) / ProgramPageSize)
}

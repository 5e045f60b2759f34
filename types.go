package crucible

import (
	"errors"

	"github.com/algorand/go-algorand-sdk/v2/abi"
)

// ErrVoidType indicates a value operation was attempted on the void type.
var ErrVoidType = errors.New("crucible: void carries no value")

// WireType is one of the argument and return types the compiler can
// generate decode and encode sequences for. The set is closed: any method
// signature using a type outside it is rejected at registration.
type WireType uint8

const (
	// WireVoid marks the absence of a return value. It is not a valid
	// argument type.
	WireVoid WireType = iota
	WireUint8
	WireUint16
	WireUint32
	WireUint64
	WireBool
	WireString
	WireBytes
	WireAddress
)

var wireTypeNames = map[WireType]string{
	WireVoid:    "void",
	WireUint8:   "uint8",
	WireUint16:  "uint16",
	WireUint32:  "uint32",
	WireUint64:  "uint64",
	WireBool:    "bool",
	WireString:  "string",
	WireBytes:   "byte[]",
	WireAddress: "address",
}

var wireTypesByName = map[string]WireType{
	"uint8":   WireUint8,
	"uint16":  WireUint16,
	"uint32":  WireUint32,
	"uint64":  WireUint64,
	"bool":    WireBool,
	"string":  WireString,
	"byte[]":  WireBytes,
	"address": WireAddress,
}

// WireTypeOf looks up the wire type for a canonical ABI type name. The
// second return value is false when the name is outside the compilable set.
// Void is not an argument type and is resolved by the caller.
func WireTypeOf(name string) (WireType, bool) {
	w, ok := wireTypesByName[name]
	return w, ok
}

// String returns the canonical ABI name of the type.
func (w WireType) String() string {
	if name, ok := wireTypeNames[w]; ok {
		return name
	}
	return "invalid"
}

// ABIType returns the SDK type object used to encode and decode values of
// this type off-chain. Void has no ABI type.
func (w WireType) ABIType() (abi.Type, error) {
	if w == WireVoid {
		return abi.Type{}, ErrVoidType
	}
	return abi.TypeOf(w.String())
}

// staticSize returns the encoded byte length for fixed-length types. The
// second return value is false for dynamic types and void.
func (w WireType) staticSize() (int, bool) {
	switch w {
	case WireUint8, WireBool:
		return 1, true
	case WireUint16:
		return 2, true
	case WireUint32:
		return 4, true
	case WireUint64:
		return 8, true
	case WireAddress:
		return 32, true
	}
	return 0, false
}

// uintWidth returns the byte width for unsigned integer types, or zero.
func (w WireType) uintWidth() int {
	switch w {
	case WireUint8:
		return 1
	case WireUint16:
		return 2
	case WireUint32:
		return 4
	case WireUint64:
		return 8
	}
	return 0
}

package crucible

import (
	"bytes"
	"crypto/sha512"

	"github.com/algorand/go-algorand-sdk/v2/abi"

	"github.com/branched-services/go-crucible/avm"
)

// CallConvention distinguishes the two ways an application call selects a
// handler: by leading selector argument, or bare with no arguments at all.
type CallConvention uint8

const (
	BareCall CallConvention = iota
	MethodCall
)

func (c CallConvention) String() string {
	if c == MethodCall {
		return "method"
	}
	return "bare"
}

// MaxMethodArgs is the most arguments a method may declare. Each argument
// occupies one application argument slot after the selector.
const MaxMethodArgs = 15

// voidReturn is the signature return marker for methods without a result.
const voidReturn = "void"

// Selector derives the 4-byte selector for a canonical method signature:
// the leading bytes of the SHA-512/256 digest of the signature text.
func Selector(signature string) [4]byte {
	sum := sha512.Sum512_256([]byte(signature))
	var sel [4]byte
	copy(sel[:], sum[:4])
	return sel
}

// Handler is one registered entry point of an application: a body fragment
// plus the routing metadata that decides when it runs. Handler is
// immutable - modifier methods return new instances.
//
// A body fragment runs as a subroutine. For methods, the decoded arguments
// are on the stack in declaration order (last argument on top) when the
// body starts, and a non-void body must leave exactly its return value on
// top when it finishes. Bare bodies start and finish with an empty stack.
type Handler struct {
	name             string
	conv             CallConvention
	method           abi.Method
	selector         [4]byte
	args             []WireType
	ret              WireType
	actions          Actions
	requiresCreation bool
	readOnly         bool
	descr            string
	body             *avm.Fragment
}

// NewMethod builds a method handler from an ARC-4 style signature such as
// "transfer(address,uint64)bool". Argument and return types must come from
// the compilable set; the handler routes on NoOp until Allow overrides it.
func NewMethod(signature string, body *avm.Fragment) (*Handler, error) {
	if body == nil {
		return nil, ErrNoBody
	}
	m, err := abi.MethodFromSignature(signature)
	if err != nil {
		return nil, &HandlerError{Handler: signature, Err: err}
	}
	if m.Name == "" {
		return nil, ErrEmptyName
	}
	if len(m.Args) > MaxMethodArgs {
		return nil, &HandlerError{Handler: m.Name, Err: ErrTooManyMethodArgs}
	}

	args := make([]WireType, len(m.Args))
	for i, a := range m.Args {
		w, ok := WireTypeOf(a.Type)
		if !ok {
			return nil, &UnsupportedArgumentTypeError{Handler: m.Name, Index: i, Type: a.Type}
		}
		args[i] = w
	}

	ret := WireVoid
	if m.Returns.Type != voidReturn {
		w, ok := WireTypeOf(m.Returns.Type)
		if !ok {
			return nil, &UnsupportedArgumentTypeError{Handler: m.Name, Index: -1, Type: m.Returns.Type}
		}
		ret = w
	}

	h := &Handler{
		name:    m.Name,
		conv:    MethodCall,
		method:  m,
		args:    args,
		ret:     ret,
		actions: ActionsOf(NoOp),
		body:    body,
	}
	copy(h.selector[:], m.GetSelector())
	return h, nil
}

// MustMethod is like NewMethod but panics on error.
func MustMethod(signature string, body *avm.Fragment) *Handler {
	h, err := NewMethod(signature, body)
	if err != nil {
		panic(err)
	}
	return h
}

// NewBare builds a bare handler. Bare handlers take no arguments, return
// nothing, and route on the transaction's completion action alone. The
// name only identifies the handler in registries and artifacts.
func NewBare(name string, body *avm.Fragment) (*Handler, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if body == nil {
		return nil, ErrNoBody
	}
	return &Handler{
		name:    name,
		conv:    BareCall,
		actions: ActionsOf(NoOp),
		body:    body,
	}, nil
}

// MustBare is like NewBare but panics on error.
func MustBare(name string, body *avm.Fragment) *Handler {
	h, err := NewBare(name, body)
	if err != nil {
		panic(err)
	}
	return h
}

// Name returns the handler name.
func (h *Handler) Name() string {
	return h.name
}

// Convention returns the handler's call convention.
func (h *Handler) Convention() CallConvention {
	return h.conv
}

// Method returns the parsed method for method handlers. It is the zero
// Method for bare handlers.
func (h *Handler) Method() abi.Method {
	return h.method
}

// Signature returns the canonical method signature, or the empty string
// for bare handlers.
func (h *Handler) Signature() string {
	if h.conv != MethodCall {
		return ""
	}
	return h.method.GetSignature()
}

// Selector returns the 4-byte method selector. Bare handlers have no
// selector and return the zero value.
func (h *Handler) Selector() [4]byte {
	return h.selector
}

// Args returns the wire types of the method arguments.
func (h *Handler) Args() []WireType {
	out := make([]WireType, len(h.args))
	copy(out, h.args)
	return out
}

// Return returns the wire type of the result, WireVoid when there is none.
func (h *Handler) Return() WireType {
	return h.ret
}

// Actions returns the completion actions the handler accepts.
func (h *Handler) Actions() Actions {
	return h.actions
}

// RequiresCreation reports whether the handler only runs in the
// application's creation transaction.
func (h *Handler) RequiresCreation() bool {
	return h.requiresCreation
}

// IsReadOnly reports whether the handler is marked read-only.
func (h *Handler) IsReadOnly() bool {
	return h.readOnly
}

// Description returns the attached description, if any.
func (h *Handler) Description() string {
	return h.descr
}

// Body returns the handler's body fragment.
func (h *Handler) Body() *avm.Fragment {
	return h.body
}

// Allow replaces the set of completion actions the handler routes on.
//
// Returns a new Handler with the action set replaced.
func (h *Handler) Allow(actions ...Action) *Handler {
	clone := h.clone()
	clone.actions = ActionsOf(actions...)
	return clone
}

// CreateOnly restricts the handler to the application's creation
// transaction. The generated preamble asserts the application id is zero.
//
// Returns a new Handler with the restriction set.
func (h *Handler) CreateOnly() *Handler {
	clone := h.clone()
	clone.requiresCreation = true
	return clone
}

// ReadOnly marks the handler as state-preserving. The mark is advisory
// metadata carried into the compiled artifact; it does not change the
// generated program.
//
// Returns a new Handler with the mark set.
func (h *Handler) ReadOnly() *Handler {
	clone := h.clone()
	clone.readOnly = true
	return clone
}

// WithDescription attaches a human-readable description.
//
// Returns a new Handler with the description set.
func (h *Handler) WithDescription(descr string) *Handler {
	clone := h.clone()
	clone.descr = descr
	return clone
}

// clone creates a shallow copy of the Handler.
func (h *Handler) clone() *Handler {
	clone := *h
	clone.args = make([]WireType, len(h.args))
	copy(clone.args, h.args)
	return &clone
}

// validate checks invariants the modifier methods cannot enforce.
func (h *Handler) validate() error {
	if h.body == nil {
		return ErrNoBody
	}
	if h.actions == 0 {
		return ErrNoActions
	}
	if h.actions.unknown() != 0 {
		return ErrInvalidAction
	}
	return nil
}

// EncodeCall encodes an off-chain invocation of a method handler: the
// selector followed by one ABI-encoded application argument per declared
// argument, ready to submit as a transaction's application arguments.
func (h *Handler) EncodeCall(args ...interface{}) ([][]byte, error) {
	if h.conv != MethodCall {
		return nil, ErrNotMethod
	}
	if len(args) != len(h.args) {
		return nil, &HandlerError{Handler: h.name, Err: ErrArgumentCount}
	}
	out := make([][]byte, 0, len(args)+1)
	sel := h.selector
	out = append(out, sel[:])
	for i, arg := range args {
		t, err := h.args[i].ABIType()
		if err != nil {
			return nil, &ArgumentError{Handler: h.name, Index: i, Err: err}
		}
		enc, err := t.Encode(arg)
		if err != nil {
			return nil, &ArgumentError{Handler: h.name, Index: i, Err: err}
		}
		out = append(out, enc)
	}
	return out, nil
}

// DecodeReturn decodes a method's logged return value. The log entry must
// carry the return marker prefix written by the generated epilogue.
func (h *Handler) DecodeReturn(log []byte) (interface{}, error) {
	if h.conv != MethodCall {
		return nil, ErrNotMethod
	}
	if h.ret == WireVoid {
		return nil, ErrVoidType
	}
	if len(log) < len(returnLogPrefix) || !bytes.Equal(log[:len(returnLogPrefix)], returnLogPrefix) {
		return nil, ErrReturnPrefix
	}
	t, err := h.ret.ABIType()
	if err != nil {
		return nil, err
	}
	return t.Decode(log[len(returnLogPrefix):])
}

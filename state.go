package crucible

import (
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/branched-services/go-crucible/avm"
)

// Platform allocation limits for application state, counted across both
// value kinds in each scope.
const (
	MaxGlobalSchemaEntries = 64
	MaxLocalSchemaEntries  = 16
)

// StateScope distinguishes application-wide state from per-account state.
type StateScope uint8

const (
	GlobalState StateScope = iota
	LocalState
)

func (s StateScope) String() string {
	if s == GlobalState {
		return "global"
	}
	return "local"
}

// StateKind is the storage representation of a state value.
type StateKind uint8

const (
	Uint64State StateKind = iota
	BytesState
)

func (k StateKind) String() string {
	if k == Uint64State {
		return "uint64"
	}
	return "bytes"
}

// StateValue declares one storage slot under a fixed key. Declarations are
// collected by an Application and folded into its Schema; non-static
// values (and static values with an explicit default) are written by the
// generated initialization sequence.
type StateValue struct {
	scope        StateScope
	kind         StateKind
	key          string
	defaultUint  uint64
	defaultBytes []byte
	defaultKind  StateKind
	hasDefault   bool
	static       bool
	descr        string
}

// StateOption configures a state value declaration.
type StateOption func(*StateValue)

// WithUintDefault sets the initial value written for a uint64 declaration.
func WithUintDefault(v uint64) StateOption {
	return func(sv *StateValue) {
		sv.defaultUint = v
		sv.defaultKind = Uint64State
		sv.hasDefault = true
	}
}

// WithBytesDefault sets the initial value written for a bytes declaration.
func WithBytesDefault(b []byte) StateOption {
	return func(sv *StateValue) {
		sv.defaultBytes = append([]byte(nil), b...)
		sv.defaultKind = BytesState
		sv.hasDefault = true
	}
}

// WithStatic marks the value write-once: it is set at most once (by the
// initialization sequence when a default is present) and generated code
// never clears it.
func WithStatic() StateOption {
	return func(sv *StateValue) {
		sv.static = true
	}
}

// WithStateDescription attaches a human-readable description.
func WithStateDescription(descr string) StateOption {
	return func(sv *StateValue) {
		sv.descr = descr
	}
}

func newStateValue(scope StateScope, kind StateKind, key string, opts []StateOption) *StateValue {
	sv := &StateValue{scope: scope, kind: kind, key: key}
	for _, opt := range opts {
		opt(sv)
	}
	return sv
}

// GlobalUint64 declares a uint64 value in global state.
func GlobalUint64(key string, opts ...StateOption) *StateValue {
	return newStateValue(GlobalState, Uint64State, key, opts)
}

// GlobalBytesValue declares a bytes value in global state.
func GlobalBytesValue(key string, opts ...StateOption) *StateValue {
	return newStateValue(GlobalState, BytesState, key, opts)
}

// LocalUint64 declares a uint64 value in each opted-in account's local state.
func LocalUint64(key string, opts ...StateOption) *StateValue {
	return newStateValue(LocalState, Uint64State, key, opts)
}

// LocalBytesValue declares a bytes value in each opted-in account's local state.
func LocalBytesValue(key string, opts ...StateOption) *StateValue {
	return newStateValue(LocalState, BytesState, key, opts)
}

// Scope returns the declaration's scope.
func (sv *StateValue) Scope() StateScope { return sv.scope }

// Kind returns the declaration's storage kind.
func (sv *StateValue) Kind() StateKind { return sv.kind }

// Key returns the storage key.
func (sv *StateValue) Key() string { return sv.key }

// Static reports whether the value is write-once.
func (sv *StateValue) Static() bool { return sv.static }

// Description returns the attached description, if any.
func (sv *StateValue) Description() string { return sv.descr }

func (sv *StateValue) validate() error {
	if sv.key == "" {
		return &StateValueError{Key: sv.key, Err: ErrEmptyName}
	}
	if sv.hasDefault && sv.defaultKind != sv.kind {
		return &StateValueError{Key: sv.key, Err: ErrDefaultKindMismatch}
	}
	return nil
}

// ReservedStateValue reserves schema room for a block of keys computed at
// runtime rather than fixed at declaration time. Reserved entries count
// toward the schema but are never initialized by generated code.
type ReservedStateValue struct {
	scope   StateScope
	kind    StateKind
	name    string
	maxKeys uint64
	descr   string
}

// ReservedGlobal reserves maxKeys entries of the given kind in global state.
func ReservedGlobal(name string, kind StateKind, maxKeys uint64) *ReservedStateValue {
	return &ReservedStateValue{scope: GlobalState, kind: kind, name: name, maxKeys: maxKeys}
}

// ReservedLocal reserves maxKeys entries of the given kind in local state.
func ReservedLocal(name string, kind StateKind, maxKeys uint64) *ReservedStateValue {
	return &ReservedStateValue{scope: LocalState, kind: kind, name: name, maxKeys: maxKeys}
}

// Describe attaches a description and returns the receiver.
func (r *ReservedStateValue) Describe(descr string) *ReservedStateValue {
	r.descr = descr
	return r
}

// Scope returns the reservation's scope.
func (r *ReservedStateValue) Scope() StateScope { return r.scope }

// Kind returns the reservation's storage kind.
func (r *ReservedStateValue) Kind() StateKind { return r.kind }

// Name returns the reservation's name.
func (r *ReservedStateValue) Name() string { return r.name }

// MaxKeys returns the number of schema entries reserved.
func (r *ReservedStateValue) MaxKeys() uint64 { return r.maxKeys }

// Description returns the reservation's description.
func (r *ReservedStateValue) Description() string { return r.descr }

// Schema is the number of state entries an application allocates, split by
// scope and kind. It is declared once at creation and cannot grow later,
// which is why reserved blocks are counted here.
type Schema struct {
	GlobalUints uint64 `json:"global_uints"`
	GlobalBytes uint64 `json:"global_bytes"`
	LocalUints  uint64 `json:"local_uints"`
	LocalBytes  uint64 `json:"local_bytes"`
}

// GlobalSchema returns the global allocation in the SDK's transaction form.
func (s Schema) GlobalSchema() types.StateSchema {
	return types.StateSchema{NumUint: s.GlobalUints, NumByteSlice: s.GlobalBytes}
}

// LocalSchema returns the local allocation in the SDK's transaction form.
func (s Schema) LocalSchema() types.StateSchema {
	return types.StateSchema{NumUint: s.LocalUints, NumByteSlice: s.LocalBytes}
}

func (s Schema) globalTotal() uint64 { return s.GlobalUints + s.GlobalBytes }
func (s Schema) localTotal() uint64  { return s.LocalUints + s.LocalBytes }

// NewSchema folds state declarations into a Schema. Keys are unique per
// scope, with reserved block names sharing the key namespace. The combined
// entry count per scope must fit the platform allocation.
func NewSchema(declared []*StateValue, reserved []*ReservedStateValue) (Schema, error) {
	var schema Schema
	seen := map[StateScope]map[string]bool{
		GlobalState: make(map[string]bool),
		LocalState:  make(map[string]bool),
	}

	claim := func(scope StateScope, key string) error {
		if seen[scope][key] {
			return &DuplicateStateKeyError{Scope: scope, Key: key}
		}
		seen[scope][key] = true
		return nil
	}

	add := func(scope StateScope, kind StateKind, n uint64) {
		switch {
		case scope == GlobalState && kind == Uint64State:
			schema.GlobalUints += n
		case scope == GlobalState && kind == BytesState:
			schema.GlobalBytes += n
		case scope == LocalState && kind == Uint64State:
			schema.LocalUints += n
		default:
			schema.LocalBytes += n
		}
	}

	for _, sv := range declared {
		if sv == nil {
			return Schema{}, ErrNilValue
		}
		if err := sv.validate(); err != nil {
			return Schema{}, err
		}
		if err := claim(sv.scope, sv.key); err != nil {
			return Schema{}, err
		}
		add(sv.scope, sv.kind, 1)
	}

	for _, r := range reserved {
		if r == nil {
			return Schema{}, ErrNilValue
		}
		if r.name == "" {
			return Schema{}, &StateValueError{Key: r.name, Err: ErrEmptyName}
		}
		if r.maxKeys < 1 {
			return Schema{}, &StateValueError{Key: r.name, Err: ErrReservedKeys}
		}
		if err := claim(r.scope, r.name); err != nil {
			return Schema{}, err
		}
		add(r.scope, r.kind, r.maxKeys)
	}

	if total := schema.globalTotal(); total > MaxGlobalSchemaEntries {
		return Schema{}, &SchemaOverflowError{Scope: GlobalState, Count: total, Max: MaxGlobalSchemaEntries}
	}
	if total := schema.localTotal(); total > MaxLocalSchemaEntries {
		return Schema{}, &SchemaOverflowError{Scope: LocalState, Count: total, Max: MaxLocalSchemaEntries}
	}
	return schema, nil
}

// stateInitFragment renders the writes that set declared values to their
// defaults. Static values without an explicit default are skipped so they
// stay unset until first written; everything else is initialized, to the
// kind's zero value when no default was given.
func stateInitFragment(scope StateScope, declared []*StateValue) *avm.Fragment {
	f := avm.NewFragment()
	for _, sv := range declared {
		if sv.scope != scope {
			continue
		}
		if sv.static && !sv.hasDefault {
			continue
		}
		if scope == LocalState {
			f.Txn(avm.TxnSender)
		}
		f.PushBytes([]byte(sv.key))
		if sv.kind == Uint64State {
			f.PushInt(sv.defaultUint)
		} else {
			f.PushBytes(sv.defaultBytes)
		}
		if scope == LocalState {
			f.Op(avm.OpAppLocalPut)
		} else {
			f.Op(avm.OpAppGlobalPut)
		}
	}
	return f
}

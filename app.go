package crucible

import (
	"encoding/json"

	"github.com/algorand/go-algorand-sdk/v2/abi"
)

// handlerDecl tracks one handler declaration and whether it was imported
// from a base application.
type handlerDecl struct {
	handler   *Handler
	inherited bool
}

type stateDecl struct {
	value     *StateValue
	inherited bool
}

type reservedDecl struct {
	value     *ReservedStateValue
	inherited bool
}

// Application collects state declarations and handlers, then compiles them
// into deployable programs. Declarations are validated at Compile, not at
// declaration time.
//
// Direct declarations always win over declarations imported with Extend:
// declaring a handler or state value under a name a base already used
// replaces the imported one in place. Declaring the same name directly
// twice is an error, reported by Compile.
type Application struct {
	name     string
	descr    string
	networks map[string]uint64
	handlers []handlerDecl
	state    []stateDecl
	reserved []reservedDecl
	clear    *Handler
	clearInh bool
}

// NewApplication creates an empty application with the given name.
func NewApplication(name string, opts ...Option) *Application {
	a := &Application{
		name:     name,
		networks: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the application name.
func (a *Application) Name() string {
	return a.name
}

// Description returns the application description.
func (a *Application) Description() string {
	return a.descr
}

// State declares fixed-key state values.
func (a *Application) State(values ...*StateValue) *Application {
	for _, v := range values {
		a.declareState(v)
	}
	return a
}

func (a *Application) declareState(v *StateValue) {
	if v != nil {
		for i, d := range a.state {
			if d.inherited && d.value != nil && d.value.scope == v.scope && d.value.key == v.key {
				a.state[i] = stateDecl{value: v}
				return
			}
		}
	}
	a.state = append(a.state, stateDecl{value: v})
}

// Reserve declares reserved state blocks.
func (a *Application) Reserve(values ...*ReservedStateValue) *Application {
	for _, v := range values {
		a.declareReserved(v)
	}
	return a
}

func (a *Application) declareReserved(v *ReservedStateValue) {
	if v != nil {
		for i, d := range a.reserved {
			if d.inherited && d.value != nil && d.value.scope == v.scope && d.value.name == v.name {
				a.reserved[i] = reservedDecl{value: v}
				return
			}
		}
	}
	a.reserved = append(a.reserved, reservedDecl{value: v})
}

// Add registers handlers.
func (a *Application) Add(handlers ...*Handler) *Application {
	for _, h := range handlers {
		a.declareHandler(h)
	}
	return a
}

func (a *Application) declareHandler(h *Handler) {
	if h != nil {
		for i, d := range a.handlers {
			if d.inherited && d.handler != nil && d.handler.name == h.name {
				a.handlers[i] = handlerDecl{handler: h}
				return
			}
		}
	}
	a.handlers = append(a.handlers, handlerDecl{handler: h})
}

// ClearState installs the bare handler inlined into the clear-state
// program. It replaces any handler a base application installed.
func (a *Application) ClearState(h *Handler) *Application {
	a.clear = h
	a.clearInh = false
	return a
}

// Extend imports another application's declarations: handlers, state and
// the clear-state handler. Imports keep their relative order but never
// displace the receiver's own declarations, so a direct declaration under
// the same name wins no matter whether it came before or after Extend.
// Extending twice resolves base-versus-base conflicts in favor of the
// later base.
func (a *Application) Extend(base *Application) *Application {
	if base == nil {
		return a
	}
	for _, d := range base.handlers {
		a.importHandler(d.handler)
	}
	for _, d := range base.state {
		a.importState(d.value)
	}
	for _, d := range base.reserved {
		a.importReserved(d.value)
	}
	if base.clear != nil && (a.clear == nil || a.clearInh) {
		a.clear = base.clear
		a.clearInh = true
	}
	return a
}

func (a *Application) importHandler(h *Handler) {
	if h == nil {
		return
	}
	for i, d := range a.handlers {
		if d.handler != nil && d.handler.name == h.name {
			if d.inherited {
				a.handlers[i] = handlerDecl{handler: h, inherited: true}
			}
			return
		}
	}
	a.handlers = append(a.handlers, handlerDecl{handler: h, inherited: true})
}

func (a *Application) importState(v *StateValue) {
	if v == nil {
		return
	}
	for i, d := range a.state {
		if d.value != nil && d.value.scope == v.scope && d.value.key == v.key {
			if d.inherited {
				a.state[i] = stateDecl{value: v, inherited: true}
			}
			return
		}
	}
	a.state = append(a.state, stateDecl{value: v, inherited: true})
}

func (a *Application) importReserved(v *ReservedStateValue) {
	if v == nil {
		return
	}
	for i, d := range a.reserved {
		if d.value != nil && d.value.scope == v.scope && d.value.name == v.name {
			if d.inherited {
				a.reserved[i] = reservedDecl{value: v, inherited: true}
			}
			return
		}
	}
	a.reserved = append(a.reserved, reservedDecl{value: v, inherited: true})
}

// Handlers returns the effective handler declarations in order.
func (a *Application) Handlers() []*Handler {
	out := make([]*Handler, 0, len(a.handlers))
	for _, d := range a.handlers {
		out = append(out, d.handler)
	}
	return out
}

// StateValues returns the effective state declarations in order.
func (a *Application) StateValues() []*StateValue {
	out := make([]*StateValue, 0, len(a.state))
	for _, d := range a.state {
		out = append(out, d.value)
	}
	return out
}

// ReservedValues returns the effective reserved declarations in order.
func (a *Application) ReservedValues() []*ReservedStateValue {
	out := make([]*ReservedStateValue, 0, len(a.reserved))
	for _, d := range a.reserved {
		out = append(out, d.value)
	}
	return out
}

// ClearHandler returns the installed clear-state handler, if any.
func (a *Application) ClearHandler() *Handler {
	return a.clear
}

// Compile validates all declarations and produces the deployable artifact.
func (a *Application) Compile(opts ...CompileOption) (*CompiledApplication, error) {
	cfg := defaultCompileConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if a.name == "" {
		return nil, ErrEmptyName
	}
	if cfg.extraPages > MaxExtraProgramPages {
		return nil, ErrExtraPages
	}
	if a.clear != nil && a.clear.conv != BareCall {
		return nil, ErrClearStateHandler
	}

	// Phase 1: Fold state declarations into the schema
	declared := a.StateValues()
	schema, err := NewSchema(declared, a.ReservedValues())
	if err != nil {
		return nil, err
	}

	// Phase 2: Register handlers and expand the routing table
	registry := NewRegistry()
	for _, d := range a.handlers {
		if err := registry.Add(d.handler); err != nil {
			return nil, err
		}
	}
	table, err := registry.Table()
	if err != nil {
		return nil, err
	}

	// Phase 3: Lay out both programs
	approval, err := buildApproval(table, declared, cfg.version)
	if err != nil {
		return nil, err
	}
	clear, err := buildClear(a.clear, cfg.version)
	if err != nil {
		return nil, err
	}

	// Phase 4: Assemble and enforce the size allowance
	approvalBytes, clearBytes, err := assemblePrograms(approval, clear, 1+cfg.extraPages)
	if err != nil {
		return nil, err
	}

	// Phase 5: Describe the contract for clients
	contract := abi.Contract{
		Name:     a.name,
		Desc:     a.descr,
		Networks: make(map[string]abi.ContractNetworkInfo, len(a.networks)),
	}
	for id, appID := range a.networks {
		contract.Networks[id] = abi.ContractNetworkInfo{AppID: appID}
	}
	hints := make(map[string]MethodHint)
	for _, h := range table.Entries() {
		if h.conv != MethodCall {
			continue
		}
		m := h.method
		m.Desc = h.descr
		contract.Methods = append(contract.Methods, m)
		hints[h.name] = newMethodHint(h)
	}

	return &CompiledApplication{
		ApprovalProgram: approvalBytes,
		ClearProgram:    clearBytes,
		ApprovalSource:  approval.Source(),
		ClearSource:     clear.Source(),
		Schema:          schema,
		Contract:        contract,
		Hints:           hints,
	}, nil
}

// MethodHint carries per-method metadata clients use when building calls.
type MethodHint struct {
	ReadOnly         bool     `json:"read_only,omitempty"`
	RequiresCreation bool     `json:"requires_creation,omitempty"`
	Actions          []string `json:"actions,omitempty"`
	Description      string   `json:"desc,omitempty"`
}

func newMethodHint(h *Handler) MethodHint {
	hint := MethodHint{
		ReadOnly:         h.readOnly,
		RequiresCreation: h.requiresCreation,
		Description:      h.descr,
	}
	for _, action := range h.actions.List() {
		hint.Actions = append(hint.Actions, action.String())
	}
	return hint
}

// CompiledApplication contains the output of Compile, ready to create and
// call the application on chain.
type CompiledApplication struct {
	ApprovalProgram []byte       // Assembled approval program
	ClearProgram    []byte       // Assembled clear-state program
	ApprovalSource  string       // TEAL rendering of the approval program
	ClearSource     string       // TEAL rendering of the clear-state program
	Schema          Schema       // State allocation for the creation transaction
	Contract        abi.Contract // ARC-4 contract description
	Hints           map[string]MethodHint
}

// ExtraPages returns the additional program pages the creation transaction
// must request to fit both programs.
func (c *CompiledApplication) ExtraPages() uint32 {
	return extraPagesFor(len(c.ApprovalProgram), len(c.ClearProgram))
}

// ContractJSON renders the contract description as indented JSON.
func (c *CompiledApplication) ContractJSON() ([]byte, error) {
	return json.MarshalIndent(c.Contract, "", "  ")
}

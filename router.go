package crucible

import (
	"encoding/hex"
	"fmt"

	"github.com/branched-services/go-crucible/avm"
)

// buildApproval lays out the approval program:
//
//  1. Demux on NumAppArgs: zero arguments routes to the bare section,
//     anything else to the method section.
//  2. Method section: compare ApplicationArgs[0] against each registered
//     selector, branching to that selector's action chain.
//  3. Action chains: compare OnCompletion against each action a handler
//     claimed, branching to the handler block. Chains fall through to err,
//     so an unroutable transaction can never approve.
//  4. Handler blocks: creation precondition, state initialization,
//     argument decoding, body call, return logging, approve.
//  5. Body subroutines, one per handler, labels prefixed per handler.
func buildApproval(table *RoutingTable, declared []*StateValue, version uint64) (*avm.Program, error) {
	p := avm.NewProgram(version)

	globalInit := stateInitFragment(GlobalState, declared)
	localInit := stateInitFragment(LocalState, declared)
	groups := table.selectorGroups()
	bares := table.bareEntries()
	entries := table.entries

	p.Comment("router")
	p.Txn(avm.TxnNumAppArgs)
	p.Branch(avm.OpBz, "bare_routing")

	for _, g := range groups {
		p.Txna(avm.TxnApplicationArgs, 0)
		p.PushBytes(g.selector[:])
		p.Op(avm.OpEq)
		p.Branch(avm.OpBnz, selectorLabel(g.selector))
	}
	p.Op(avm.OpErr)

	for _, g := range groups {
		p.Label(selectorLabel(g.selector))
		for _, h := range g.handlers {
			emitActionChecks(p, h, handlerLabel(entries, h))
		}
		p.Op(avm.OpErr)
	}

	p.Label("bare_routing")
	for _, h := range bares {
		emitActionChecks(p, h, handlerLabel(entries, h))
	}
	p.Op(avm.OpErr)

	for i, h := range entries {
		emitHandlerBlock(p, h, i, globalInit, localInit)
	}

	for i, h := range entries {
		p.Label(bodyLabel(h, i))
		if err := p.AppendPrefixed(h.body, fmt.Sprintf("b%d_", i)); err != nil {
			return nil, &HandlerError{Handler: h.name, Err: err}
		}
		p.Op(avm.OpRetSub)
	}
	return p, nil
}

// buildClear lays out the clear-state program. Clear-state calls bypass
// the router entirely, so the optional bare handler body is inlined and
// the program approves unconditionally afterwards: state cleanup must not
// be able to block an account from clearing.
func buildClear(clear *Handler, version uint64) (*avm.Program, error) {
	p := avm.NewProgram(version)
	if clear != nil {
		p.Comment("clear state handler " + clear.name)
		if err := p.AppendPrefixed(clear.body, "clear_"); err != nil {
			return nil, &HandlerError{Handler: clear.name, Err: err}
		}
	}
	p.PushInt(1)
	p.Op(avm.OpReturn)
	return p, nil
}

// emitActionChecks renders one OnCompletion comparison per action the
// handler claims, each branching to the handler block.
func emitActionChecks(p *avm.Program, h *Handler, target string) {
	for _, a := range h.actions.List() {
		p.Txn(avm.TxnOnCompletion)
		p.PushInt(uint64(a))
		p.Op(avm.OpEq)
		p.Branch(avm.OpBnz, target)
	}
}

// emitHandlerBlock renders the glue around one handler body.
func emitHandlerBlock(p *avm.Program, h *Handler, index int, globalInit, localInit *avm.Fragment) {
	if h.conv == MethodCall {
		p.Comment("handler " + h.Signature())
	} else {
		p.Comment("handler " + h.name)
	}
	p.Label(bodyEntryLabel(h, index))

	// Creation precondition.
	p.Txn(avm.TxnApplicationID)
	p.PushInt(0)
	if h.requiresCreation {
		p.Op(avm.OpEq)
	} else {
		p.Op(avm.OpNeq)
	}
	p.Op(avm.OpAssert)

	// Declared state defaults: global values at creation, local values
	// when the caller opts in.
	if h.requiresCreation && globalInit.Len() > 0 {
		p.Append(globalInit)
	}
	if h.actions.Has(OptIn) && localInit.Len() > 0 {
		if h.actions.Count() == 1 {
			p.Append(localInit)
		} else {
			skip := fmt.Sprintf("skip_init_%d", index)
			p.Txn(avm.TxnOnCompletion)
			p.PushInt(uint64(OptIn))
			p.Op(avm.OpEq)
			p.Branch(avm.OpBz, skip)
			p.Append(localInit)
			p.Label(skip)
		}
	}

	// Argument decoding. The count check makes a missing or extra
	// argument fail before any decode runs.
	if h.conv == MethodCall {
		p.Txn(avm.TxnNumAppArgs)
		p.PushInt(uint64(len(h.args) + 1))
		p.Op(avm.OpEq)
		p.Op(avm.OpAssert)
		for i, w := range h.args {
			p.Append(argDecodeFragment(w, uint8(i+1)))
		}
	}

	p.Branch(avm.OpCallSub, bodyLabel(h, index))
	if h.ret != WireVoid {
		p.Append(returnEncodeFragment(h.ret))
	}
	p.PushInt(1)
	p.Op(avm.OpReturn)
}

func selectorLabel(sel [4]byte) string {
	return "route_" + hex.EncodeToString(sel[:])
}

func bodyEntryLabel(h *Handler, index int) string {
	return fmt.Sprintf("handle_%s_%d", sanitizeLabel(h.name), index)
}

func bodyLabel(h *Handler, index int) string {
	return fmt.Sprintf("body_%s_%d", sanitizeLabel(h.name), index)
}

// handlerLabel resolves a handler to its block label via its position in
// the entry list.
func handlerLabel(entries []*Handler, h *Handler) string {
	for i, e := range entries {
		if e == h {
			return bodyEntryLabel(h, i)
		}
	}
	return bodyEntryLabel(h, 0)
}

func sanitizeLabel(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			out = append(out, c)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

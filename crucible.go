// Package crucible compiles declarative Algorand application definitions
// into AVM approval and clear-state programs.
//
// An application is described as data: state values with fixed keys,
// reserved state blocks, and handlers bound to method signatures or bare
// completion actions. Compile turns the description into:
//   - An approval program that routes every incoming call to exactly one
//     handler and rejects everything else
//   - A clear-state program
//   - The state schema for the creation transaction
//   - An ARC-4 contract description for clients
//
// # Basic Usage
//
// Declare state and handlers, then compile:
//
//	// Handler bodies are AVM fragments.
//	increment := avm.NewFragment().
//		PushBytes([]byte("counter")).
//		PushBytes([]byte("counter")).
//		Op(avm.OpAppGlobalGet).
//		PushInt(1).
//		Op(avm.OpPlus).
//		Op(avm.OpAppGlobalPut).
//		PushBytes([]byte("counter")).
//		Op(avm.OpAppGlobalGet)
//
//	app := crucible.NewApplication("counter")
//	app.State(crucible.GlobalUint64("counter"))
//	app.Add(
//		crucible.MustBare("create", avm.NewFragment()).CreateOnly(),
//		crucible.MustMethod("increment()uint64", increment),
//	)
//
//	compiled, err := app.Compile()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Deploy with compiled.ApprovalProgram, compiled.ClearProgram and
//	// compiled.Schema; call with handler.EncodeCall(...).
//
// # Handlers
//
// The compiler routes two kinds of entry points:
//
//   - Method handlers: bound to an ARC-4 signature such as
//     "transfer(address,uint64)bool". Calls carry the 4-byte selector as
//     the first application argument and one encoded value per declared
//     argument. The generated code decodes and validates every argument
//     before the body runs, and logs the encoded return value afterwards.
//
//   - Bare handlers: no arguments at all, routed purely on the
//     transaction's completion action. Used for lifecycle entry points
//     like creation, opt-in, and deletion.
//
// Each handler claims a set of completion actions (NoOp by default); a
// routing table maps every (convention, selector, action) key to at most
// one handler, and ambiguity is rejected at compile time.
//
// # State Management
//
// State declarations drive three things:
//
//   - Schema: the uint64/bytes entry counts per scope, validated against
//     the platform's allocation limits
//   - Initialization: declared defaults are written at creation (global)
//     and opt-in (local)
//   - Reserved blocks: schema room for key sets computed at runtime
//
// # Generated Programs
//
// The approval program is a decision structure: it demuxes on the
// argument count, matches the selector, matches the completion action,
// and falls through to rejection whenever nothing matches. Handler bodies
// become subroutines called after the decode glue. Both the assembled
// bytecode and a TEAL source rendering are part of the compiled artifact.
//
// # References
//
// For more about the conventions the generated programs follow, see:
//   - https://arc.algorand.foundation/ARCs/arc-0004 (ABI conventions)
//   - https://developer.algorand.org/docs/get-details/dapps/avm/teal/specification/
package crucible

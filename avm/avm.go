// Package avm provides a small instruction-level builder and assembler for
// Algorand Virtual Machine programs.
//
// The package is the compilation target for the crucible router: handler
// bodies are written (or generated) as Fragments, the router composes them
// with its dispatch skeleton into a Program, and Assemble produces the final
// bytecode accepted by the AVM.
//
// # Fragments
//
// A Fragment is an append-only sequence of instructions:
//
//	frag := avm.NewFragment().
//		PushBytes([]byte("counter")).
//		PushBytes([]byte("counter")).
//		Op(avm.OpAppGlobalGet).
//		PushInt(1).
//		Op(avm.OpPlus).
//		Op(avm.OpAppGlobalPut)
//
// Labels and branch targets are resolved per Program at assembly time.
// Fragment labels are fragment-scoped: a branch inside a fragment must
// target a label defined in the same fragment, so fragments can be spliced
// into larger programs (with AppendPrefixed) without name collisions.
//
// # Programs
//
// A Program is a Fragment with an AVM version. Assemble performs two-pass
// label resolution and emits the version header followed by the encoded
// instruction stream. Source renders the equivalent TEAL text, which is the
// human-readable artifact written alongside the bytecode.
//
// The opcode table covers the application-mode subset used by generated
// routers and typical handler bodies. Opcode byte values, immediate layouts
// and field indices follow the AVM reference implementation; programs are
// assembled for version 5 or later (log, extract and callsub are all
// available from there).
package avm

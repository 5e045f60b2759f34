package crucible

import (
	"bytes"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/branched-services/go-crucible/avm"
)

func mustTable(t *testing.T, handlers ...*Handler) *RoutingTable {
	t.Helper()
	r := NewRegistry()
	for _, h := range handlers {
		if err := r.Add(h); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}
	table, err := r.Table()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return table
}

func TestBuildApprovalLayout(t *testing.T) {
	create := MustBare("create", avm.NewFragment()).CreateOnly()
	get := MustMethod("get()uint64", avm.NewFragment().PushInt(7))
	table := mustTable(t, create, get)
	declared := []*StateValue{GlobalUint64("counter"), LocalUint64("visits")}

	p, err := buildApproval(table, declared, 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	src := p.Source()

	t.Run("pragma", func(t *testing.T) {
		if !strings.HasPrefix(src, "#pragma version 8\n") {
			t.Errorf("Expected version pragma, got:\n%s", src)
		}
	})

	t.Run("argument count demux", func(t *testing.T) {
		if !strings.Contains(src, "txn NumAppArgs\nbz bare_routing\n") {
			t.Errorf("Expected bare demux, got:\n%s", src)
		}
	})

	t.Run("selector comparison", func(t *testing.T) {
		sel := get.Selector()
		hexSel := hex.EncodeToString(sel[:])
		want := "txna ApplicationArgs 0\npushbytes 0x" + hexSel + "\n==\nbnz route_" + hexSel + "\n"
		if !strings.Contains(src, want) {
			t.Errorf("Expected selector comparison, got:\n%s", src)
		}
		if !strings.Contains(src, "route_"+hexSel+":\n") {
			t.Errorf("Expected selector chain label, got:\n%s", src)
		}
	})

	t.Run("action checks branch to handler blocks", func(t *testing.T) {
		if !strings.Contains(src, "txn OnCompletion\npushint 0\n==\nbnz handle_get_1\n") {
			t.Errorf("Expected NoOp check for the method, got:\n%s", src)
		}
		if !strings.Contains(src, "txn OnCompletion\npushint 0\n==\nbnz handle_create_0\n") {
			t.Errorf("Expected NoOp check for the bare handler, got:\n%s", src)
		}
	})

	t.Run("chains fall through to err", func(t *testing.T) {
		// After the selector chain, after each action chain and after
		// the bare chain.
		if got := strings.Count(src, "\nerr\n"); got != 3 {
			t.Errorf("Expected 3 err fallthroughs, got %d in:\n%s", got, src)
		}
	})

	t.Run("creation preconditions", func(t *testing.T) {
		if !strings.Contains(src, "handle_create_0:\ntxn ApplicationID\npushint 0\n==\nassert\n") {
			t.Errorf("Expected creation assert for the create handler, got:\n%s", src)
		}
		if !strings.Contains(src, "handle_get_1:\ntxn ApplicationID\npushint 0\n!=\nassert\n") {
			t.Errorf("Expected existence assert for the method, got:\n%s", src)
		}
	})

	t.Run("global defaults written at creation only", func(t *testing.T) {
		if got := strings.Count(src, "app_global_put"); got != 1 {
			t.Errorf("Expected 1 global init write, got %d in:\n%s", got, src)
		}
		if !strings.Contains(src, "pushbytes 0x636f756e746572\npushint 0\napp_global_put\n") {
			t.Errorf("Expected counter default, got:\n%s", src)
		}
	})

	t.Run("local defaults absent without OptIn", func(t *testing.T) {
		if strings.Contains(src, "app_local_put") {
			t.Errorf("Expected no local init without an opt-in route, got:\n%s", src)
		}
	})

	t.Run("argument count assert", func(t *testing.T) {
		if !strings.Contains(src, "txn NumAppArgs\npushint 1\n==\nassert\n") {
			t.Errorf("Expected method argument count assert, got:\n%s", src)
		}
	})

	t.Run("bodies run as subroutines", func(t *testing.T) {
		if !strings.Contains(src, "callsub body_create_0\n") {
			t.Errorf("Expected bare body call, got:\n%s", src)
		}
		if !strings.Contains(src, "callsub body_get_1\n") {
			t.Errorf("Expected method body call, got:\n%s", src)
		}
		if !strings.Contains(src, "body_create_0:\nretsub\n") {
			t.Errorf("Expected bare body subroutine, got:\n%s", src)
		}
		if !strings.Contains(src, "body_get_1:\npushint 7\nretsub\n") {
			t.Errorf("Expected method body subroutine, got:\n%s", src)
		}
	})

	t.Run("return value logged with the marker", func(t *testing.T) {
		if !strings.Contains(src, "callsub body_get_1\nitob\npushbytes 0x151f7c75\nswap\nconcat\nlog\n") {
			t.Errorf("Expected return epilogue, got:\n%s", src)
		}
	})

	t.Run("handlers approve", func(t *testing.T) {
		if got := strings.Count(src, "pushint 1\nreturn\n"); got != 2 {
			t.Errorf("Expected 2 approvals, got %d in:\n%s", got, src)
		}
	})

	t.Run("assembles", func(t *testing.T) {
		code, err := p.Assemble()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(code) == 0 || code[0] != 0x08 {
			t.Errorf("Expected version header 0x08, got % x", code[:1])
		}
	})
}

func TestBuildApprovalLocalInit(t *testing.T) {
	declared := []*StateValue{LocalUint64("visits")}

	t.Run("unconditional when OptIn is the only action", func(t *testing.T) {
		join := MustBare("join", avm.NewFragment()).Allow(OptIn)
		p, err := buildApproval(mustTable(t, join), declared, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		src := p.Source()
		if !strings.Contains(src, "txn Sender\npushbytes 0x766973697473\npushint 0\napp_local_put\n") {
			t.Errorf("Expected sender-addressed init write, got:\n%s", src)
		}
		if strings.Contains(src, "skip_init_") {
			t.Errorf("Expected no guard for a pure opt-in handler, got:\n%s", src)
		}
	})

	t.Run("guarded when other actions share the handler", func(t *testing.T) {
		join := MustBare("join", avm.NewFragment()).Allow(NoOp, OptIn)
		p, err := buildApproval(mustTable(t, join), declared, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		src := p.Source()
		if !strings.Contains(src, "txn OnCompletion\npushint 1\n==\nbz skip_init_0\n") {
			t.Errorf("Expected opt-in guard, got:\n%s", src)
		}
		if !strings.Contains(src, "skip_init_0:\n") {
			t.Errorf("Expected guard label, got:\n%s", src)
		}
		if !strings.Contains(src, "app_local_put") {
			t.Errorf("Expected local init write, got:\n%s", src)
		}
	})

	t.Run("absent when nothing is declared locally", func(t *testing.T) {
		join := MustBare("join", avm.NewFragment()).Allow(OptIn)
		p, err := buildApproval(mustTable(t, join), nil, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		if strings.Contains(p.Source(), "app_local_put") {
			t.Errorf("Expected no local init, got:\n%s", p.Source())
		}
	})
}

func TestBuildApprovalArgumentDecoding(t *testing.T) {
	add := MustMethod("add(uint64,uint64)uint64", addBody())
	p, err := buildApproval(mustTable(t, add), nil, 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	src := p.Source()

	if !strings.Contains(src, "txna ApplicationArgs 1\n") {
		t.Errorf("Expected first argument load, got:\n%s", src)
	}
	if !strings.Contains(src, "txna ApplicationArgs 2\n") {
		t.Errorf("Expected second argument load, got:\n%s", src)
	}
	if got := strings.Count(src, "\nbtoi\n"); got != 2 {
		t.Errorf("Expected 2 integer decodes, got %d in:\n%s", got, src)
	}
	if !strings.Contains(src, "txn NumAppArgs\npushint 3\n==\nassert\n") {
		t.Errorf("Expected count assert for selector plus two args, got:\n%s", src)
	}
}

func TestBuildApprovalSharedSelector(t *testing.T) {
	first := MustMethod("get()uint64", avm.NewFragment().PushInt(1))
	second := MustMethod("put(uint64)void", avm.NewFragment().Op(avm.OpPop)).Allow(OptIn)
	second.selector = first.selector

	p, err := buildApproval(mustTable(t, first, second), nil, 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	src := p.Source()

	sel := first.Selector()
	hexSel := hex.EncodeToString(sel[:])
	if got := strings.Count(src, "route_"+hexSel+":"); got != 1 {
		t.Errorf("Expected a single shared chain, got %d in:\n%s", got, src)
	}
	if !strings.Contains(src, "txn OnCompletion\npushint 0\n==\nbnz handle_get_0\n") {
		t.Errorf("Expected NoOp branch to the first handler, got:\n%s", src)
	}
	if !strings.Contains(src, "txn OnCompletion\npushint 1\n==\nbnz handle_put_1\n") {
		t.Errorf("Expected OptIn branch to the second handler, got:\n%s", src)
	}
}

func TestBuildApprovalLabelSanitizing(t *testing.T) {
	h := MustBare("opt-in hook", avm.NewFragment()).Allow(OptIn)

	p, err := buildApproval(mustTable(t, h), nil, 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(p.Source(), "handle_opt_in_hook_0:\n") {
		t.Errorf("Expected sanitized label, got:\n%s", p.Source())
	}
}

func TestBuildApprovalBodyLabels(t *testing.T) {
	body := avm.NewFragment()
	body.PushInt(1)
	body.Branch(avm.OpBnz, "done")
	body.Op(avm.OpErr)
	body.Label("done")

	h := MustBare("guarded", body)
	p, err := buildApproval(mustTable(t, h), nil, 8)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	src := p.Source()
	if !strings.Contains(src, "bnz b0_done\n") || !strings.Contains(src, "b0_done:\n") {
		t.Errorf("Expected body labels to be prefixed, got:\n%s", src)
	}
	if _, err := p.Assemble(); err != nil {
		t.Errorf("Expected prefixed labels to assemble, got %v", err)
	}
}

func TestBuildApprovalDeterminism(t *testing.T) {
	build := func() *avm.Program {
		create := MustBare("create", avm.NewFragment()).CreateOnly()
		add := MustMethod("add(uint64,uint64)uint64", addBody())
		get := MustMethod("get()uint64", avm.NewFragment().PushInt(7))
		p, err := buildApproval(mustTable(t, create, add, get), []*StateValue{GlobalUint64("counter")}, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		return p
	}

	first, second := build(), build()
	if first.Source() != second.Source() {
		t.Error("Expected identical source across builds")
	}

	a, err := first.Assemble()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	b, err := second.Assemble()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("Expected identical bytecode across builds")
	}
}

func TestBuildClear(t *testing.T) {
	t.Run("default approves unconditionally", func(t *testing.T) {
		p, err := buildClear(nil, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		code, err := p.Assemble()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		want := []byte{0x08, 0x81, 0x01, 0x43}
		if !bytes.Equal(code, want) {
			t.Errorf("Expected % x, got % x", want, code)
		}
	})

	t.Run("handler body is inlined before the approve", func(t *testing.T) {
		body := avm.NewFragment()
		body.PushBytes([]byte("visits"))
		body.Op(avm.OpAppGlobalGet)
		body.Op(avm.OpPop)
		cleanup := MustBare("cleanup", body)

		p, err := buildClear(cleanup, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		src := p.Source()
		if !strings.Contains(src, "// clear state handler cleanup\n") {
			t.Errorf("Expected handler comment, got:\n%s", src)
		}
		if !strings.Contains(src, "app_global_get\npop\npushint 1\nreturn\n") {
			t.Errorf("Expected body before the approve, got:\n%s", src)
		}
	})

	t.Run("body labels are prefixed", func(t *testing.T) {
		body := avm.NewFragment()
		body.PushInt(1)
		body.Branch(avm.OpBnz, "skip")
		body.Label("skip")
		cleanup := MustBare("cleanup", body)

		p, err := buildClear(cleanup, 8)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !strings.Contains(p.Source(), "clear_skip:\n") {
			t.Errorf("Expected prefixed label, got:\n%s", p.Source())
		}
	})
}

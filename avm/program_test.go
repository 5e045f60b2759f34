package avm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestAssembleBasic(t *testing.T) {
	tests := []struct {
		name    string
		version uint64
		build   func() *Program
		want    []byte
	}{
		{
			name:    "approve",
			version: 8,
			build: func() *Program {
				p := NewProgram(8)
				p.PushInt(1).Op(OpReturn)
				return p
			},
			want: []byte{0x08, 0x81, 0x01, 0x43},
		},
		{
			name:    "pushbytes",
			version: 8,
			build: func() *Program {
				p := NewProgram(8)
				p.PushBytes([]byte("hi")).Op(OpLog).PushInt(1).Op(OpReturn)
				return p
			},
			want: []byte{0x08, 0x80, 0x02, 'h', 'i', 0xb0, 0x81, 0x01, 0x43},
		},
		{
			name:    "varuint immediates",
			version: 8,
			build: func() *Program {
				p := NewProgram(8)
				p.PushInt(300).Op(OpReturn)
				return p
			},
			want: []byte{0x08, 0x81, 0xac, 0x02, 0x43},
		},
		{
			name:    "txn and global fields",
			version: 8,
			build: func() *Program {
				p := NewProgram(8)
				p.Txn(TxnOnCompletion).Txna(TxnApplicationArgs, 0).Op(OpPop).Global(GlobalGroupSize).Op(OpReturn)
				return p
			},
			want: []byte{0x08, 0x31, 0x19, 0x36, 0x1a, 0x00, 0x48, 0x32, 0x04, 0x43},
		},
		{
			name:    "fixed immediates",
			version: 8,
			build: func() *Program {
				p := NewProgram(8)
				p.Load(3).Store(7).Dig(1).Extract(2, 0).Op(OpReturn)
				return p
			},
			want: []byte{0x08, 0x34, 0x03, 0x35, 0x07, 0x4b, 0x01, 0x57, 0x02, 0x00, 0x43},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.build().Assemble()
			if err != nil {
				t.Fatalf("Assemble failed: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Expected %x, got %x", tt.want, got)
			}
		})
	}
}

func TestAssembleBranches(t *testing.T) {
	t.Run("forward", func(t *testing.T) {
		p := NewProgram(8)
		p.Branch(OpBz, "reject")
		p.PushInt(1).Op(OpReturn)
		p.Label("reject")
		p.PushInt(0).Op(OpReturn)

		got, err := p.Assemble()
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		want := []byte{0x08, 0x41, 0x00, 0x03, 0x81, 0x01, 0x43, 0x81, 0x00, 0x43}
		if !bytes.Equal(got, want) {
			t.Errorf("Expected %x, got %x", want, got)
		}
	})

	t.Run("backward", func(t *testing.T) {
		p := NewProgram(8)
		p.Label("top")
		p.PushInt(1).Op(OpPop)
		p.Branch(OpB, "top")

		got, err := p.Assemble()
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		want := []byte{0x08, 0x81, 0x01, 0x48, 0x42, 0xff, 0xfa}
		if !bytes.Equal(got, want) {
			t.Errorf("Expected %x, got %x", want, got)
		}
	})

	t.Run("callsub", func(t *testing.T) {
		p := NewProgram(8)
		p.Branch(OpCallSub, "sub")
		p.PushInt(1).Op(OpReturn)
		p.Label("sub")
		p.Op(OpRetSub)

		got, err := p.Assemble()
		if err != nil {
			t.Fatalf("Assemble failed: %v", err)
		}
		want := []byte{0x08, 0x88, 0x00, 0x03, 0x81, 0x01, 0x43, 0x89}
		if !bytes.Equal(got, want) {
			t.Errorf("Expected %x, got %x", want, got)
		}
	})
}

func TestAssembleErrors(t *testing.T) {
	t.Run("version too low", func(t *testing.T) {
		p := NewProgram(4)
		p.PushInt(1).Op(OpReturn)
		if _, err := p.Assemble(); !errors.Is(err, ErrVersionTooLow) {
			t.Errorf("Expected ErrVersionTooLow, got %v", err)
		}
	})

	t.Run("empty program", func(t *testing.T) {
		p := NewProgram(8)
		p.Label("start").Comment("nothing here")
		if _, err := p.Assemble(); !errors.Is(err, ErrEmptyProgram) {
			t.Errorf("Expected ErrEmptyProgram, got %v", err)
		}
	})

	t.Run("duplicate label", func(t *testing.T) {
		p := NewProgram(8)
		p.Label("here").PushInt(1).Label("here").Op(OpReturn)
		_, err := p.Assemble()
		var dup *DuplicateLabelError
		if !errors.As(err, &dup) {
			t.Fatalf("Expected DuplicateLabelError, got %v", err)
		}
		if dup.Label != "here" {
			t.Errorf("Expected label %q, got %q", "here", dup.Label)
		}
	})

	t.Run("undefined label", func(t *testing.T) {
		p := NewProgram(8)
		p.Branch(OpB, "nowhere").PushInt(1).Op(OpReturn)
		_, err := p.Assemble()
		var undef *UndefinedLabelError
		if !errors.As(err, &undef) {
			t.Fatalf("Expected UndefinedLabelError, got %v", err)
		}
		if undef.Label != "nowhere" {
			t.Errorf("Expected label %q, got %q", "nowhere", undef.Label)
		}
	})

	t.Run("missing immediates", func(t *testing.T) {
		p := NewProgram(8)
		p.Op(OpLoad).Op(OpReturn)
		_, err := p.Assemble()
		var imm *ImmediateError
		if !errors.As(err, &imm) {
			t.Fatalf("Expected ImmediateError, got %v", err)
		}
		if imm.Op != OpLoad {
			t.Errorf("Expected op %v, got %v", OpLoad, imm.Op)
		}
	})

	t.Run("branch opcode without label", func(t *testing.T) {
		p := NewProgram(8)
		p.Op(OpBnz).Op(OpReturn)
		var imm *ImmediateError
		if _, err := p.Assemble(); !errors.As(err, &imm) {
			t.Errorf("Expected ImmediateError, got %v", err)
		}
	})

	t.Run("label on non-branch opcode", func(t *testing.T) {
		p := NewProgram(8)
		p.Branch(OpDup, "x").Label("x").Op(OpReturn)
		var imm *ImmediateError
		if _, err := p.Assemble(); !errors.As(err, &imm) {
			t.Errorf("Expected ImmediateError, got %v", err)
		}
	})

	t.Run("unknown opcode", func(t *testing.T) {
		p := NewProgram(8)
		p.Op(Opcode(0xee)).Op(OpReturn)
		_, err := p.Assemble()
		var unk *UnknownOpcodeError
		if !errors.As(err, &unk) {
			t.Fatalf("Expected UnknownOpcodeError, got %v", err)
		}
		if unk.Op != Opcode(0xee) {
			t.Errorf("Expected op 0xee, got 0x%02x", byte(unk.Op))
		}
	})
}

func TestFragmentLen(t *testing.T) {
	f := NewFragment()
	if f.Len() != 0 {
		t.Errorf("Expected empty fragment, got %d instructions", f.Len())
	}
	f.Label("a").Comment("note").PushInt(1).Op(OpPop).Label("b")
	if f.Len() != 2 {
		t.Errorf("Expected 2 instructions, got %d", f.Len())
	}
}

func TestFragmentAppend(t *testing.T) {
	body := NewFragment().PushInt(2).Op(OpMul)
	f := NewFragment().PushInt(21)
	f.Append(body).Op(OpReturn)
	if f.Len() != 4 {
		t.Errorf("Expected 4 instructions, got %d", f.Len())
	}
}

func TestFragmentAppendPrefixed(t *testing.T) {
	t.Run("labels renamed", func(t *testing.T) {
		body := NewFragment()
		body.Branch(OpBz, "done")
		body.PushInt(1).Op(OpPop)
		body.Label("done")

		p := NewProgram(8)
		p.PushInt(1)
		if err := p.AppendPrefixed(body, "x_"); err != nil {
			t.Fatalf("AppendPrefixed failed: %v", err)
		}
		p.PushInt(1).Op(OpReturn)

		src := p.Source()
		if !strings.Contains(src, "bz x_done") {
			t.Errorf("Expected prefixed branch target in source, got:\n%s", src)
		}
		if !strings.Contains(src, "x_done:") {
			t.Errorf("Expected prefixed label in source, got:\n%s", src)
		}
		if _, err := p.Assemble(); err != nil {
			t.Errorf("Assemble failed: %v", err)
		}
	})

	t.Run("external target rejected", func(t *testing.T) {
		body := NewFragment().Branch(OpB, "elsewhere")
		p := NewProgram(8)
		if err := p.AppendPrefixed(body, "x_"); !errors.Is(err, ErrExternalTarget) {
			t.Errorf("Expected ErrExternalTarget, got %v", err)
		}
	})

	t.Run("same body twice", func(t *testing.T) {
		body := NewFragment()
		body.Label("loop").PushInt(1).Op(OpPop).Branch(OpBnz, "loop")

		p := NewProgram(8)
		if err := p.AppendPrefixed(body, "a_"); err != nil {
			t.Fatalf("AppendPrefixed failed: %v", err)
		}
		if err := p.AppendPrefixed(body, "b_"); err != nil {
			t.Fatalf("AppendPrefixed failed: %v", err)
		}
		p.PushInt(1).Op(OpReturn)
		if _, err := p.Assemble(); err != nil {
			t.Errorf("Expected distinct label namespaces to assemble, got %v", err)
		}
	})
}

func TestSource(t *testing.T) {
	p := NewProgram(8)
	p.Comment("entry")
	p.Txn(TxnNumAppArgs)
	p.Branch(OpBz, "bare")
	p.Txna(TxnApplicationArgs, 0)
	p.PushBytes([]byte{0xde, 0xad, 0xbe, 0xef})
	p.Op(OpEq)
	p.Op(OpAssert)
	p.Global(GlobalGroupSize)
	p.Op(OpPop)
	p.PushInt(1)
	p.Op(OpReturn)
	p.Label("bare")
	p.PushInt(0)
	p.Op(OpReturn)

	src := p.Source()
	for _, want := range []string{
		"#pragma version 8",
		"// entry",
		"txn NumAppArgs",
		"bz bare",
		"txna ApplicationArgs 0",
		"pushbytes 0xdeadbeef",
		"==",
		"assert",
		"global GroupSize",
		"bare:",
		"pushint 0",
		"return",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("Expected source to contain %q, got:\n%s", want, src)
		}
	}
}

func TestSourceEmptyPushBytes(t *testing.T) {
	p := NewProgram(8)
	p.PushBytes(nil).Op(OpLog).PushInt(1).Op(OpReturn)
	if !strings.Contains(p.Source(), `pushbytes ""`) {
		t.Errorf("Expected empty byte constant rendering, got:\n%s", p.Source())
	}
}

func TestFieldNames(t *testing.T) {
	if got := TxnApplicationID.String(); got != "ApplicationID" {
		t.Errorf("Expected ApplicationID, got %s", got)
	}
	if got := TxnField(200).String(); got != "txn_field_200" {
		t.Errorf("Expected fallback name, got %s", got)
	}
	if got := GlobalCreatorAddress.String(); got != "CreatorAddress" {
		t.Errorf("Expected CreatorAddress, got %s", got)
	}
	if got := GlobalField(200).String(); got != "global_field_200" {
		t.Errorf("Expected fallback name, got %s", got)
	}
}

func TestOpcodeNames(t *testing.T) {
	tests := []struct {
		op   Opcode
		want string
	}{
		{OpErr, "err"},
		{OpPlus, "+"},
		{OpEq, "=="},
		{OpBtoi, "btoi"},
		{OpAppGlobalPut, "app_global_put"},
		{OpExtractUint16, "extract_uint16"},
		{OpCallSub, "callsub"},
		{OpLog, "log"},
		{Opcode(0xee), "op_0xee"},
	}
	for _, tt := range tests {
		if got := tt.op.Name(); got != tt.want {
			t.Errorf("Expected %q for 0x%02x, got %q", tt.want, byte(tt.op), got)
		}
	}
}

func TestVaruint(t *testing.T) {
	tests := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
	}
	for _, tt := range tests {
		got := appendVaruint(nil, tt.v)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("Expected %x for %d, got %x", tt.want, tt.v, got)
		}
		if n := varuintLen(tt.v); n != len(tt.want) {
			t.Errorf("Expected length %d for %d, got %d", len(tt.want), tt.v, n)
		}
	}
}

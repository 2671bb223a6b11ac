package zmachine

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDecodeForms(t *testing.T) {
	b := newStoryBuilder()
	add := b.code(0x74, 0x01, 0x02, 0x00)
	jl := b.code(0x42, 0x13, 0x00, 0x45)
	je := b.code(0x01, 0x01, 0x01, 0xC1)
	jz := b.code(0x90, 0x00, 0x3F, 0xFE)
	call := b.code(0xE0, 0x17, 0x01, 0x40, 0x05, 0x07, 0x00)
	printStr := b.code(append([]byte{0xB2}, zstring("hi")...)...)
	sread := b.code(0xE4, 0x0F, 0x03, 0x00, 0x03, 0x40)
	end := b.code(0xBA)
	s := b.build(t)
	d := NewInstructionDecoder(s)

	for _, tc := range []struct {
		address uint32
		count   OperandCount
		number  uint8
		next    uint32
		text    string
	}{
		{add, OP2, 20, jl, "add varl1 varl2 -> varsp"},
		{jl, OP2, 2, je, fmt.Sprintf("jl varg3 0 ?!0x%04X", je+5-2)},
		{je, OP2, 1, jz, "je 1 1 ?rtrue"},
		{jz, OP1, 0, call, fmt.Sprintf("jz 0 ?!0x%04X", jz)},
		{call, VAR, 0, printStr, "call 0x0280 5 7 -> varsp"},
		{printStr, OP0, 2, sread, `print ("hi")`},
		{sread, VAR, 4, end, "sread 0x0300 0x0340"},
	} {
		in, err := d.Decode(tc.address)
		if err != nil {
			t.Fatalf("0x%X: %v", tc.address, err)
		}
		if in.Count != tc.count || in.Number != tc.number {
			t.Errorf("0x%X: decoded %s:%d, want %s:%d", tc.address, in.Count, in.Number, tc.count, tc.number)
		}
		if in.Next != tc.next {
			t.Errorf("0x%X: next 0x%X, want 0x%X", tc.address, in.Next, tc.next)
		}
		if got := in.String(); got != tc.text {
			t.Errorf("0x%X: disassembly %q, want %q", tc.address, got, tc.text)
		}
	}

	for address, form := range map[uint32]uint8{add: FORM_LONG, jz: FORM_SHORT, call: FORM_VARIABLE} {
		if in, _ := d.Decode(address); in.Form != form {
			t.Errorf("0x%X: form %d, want %d", address, in.Form, form)
		}
	}
}

func TestBranchArithmetic(t *testing.T) {
	in := &Instruction{Branch: &BranchInfo{OnTrue: true, Offset: 10}, Next: 0x600}

	a, ok := GenericBranch(in, true).(Jump)
	if !ok {
		t.Fatalf("taken branch should jump, got %T", GenericBranch(in, true))
	}
	if a.JumpTarget() != 0x600+10-2 {
		t.Fatalf("jump target: got 0x%X", a.JumpTarget())
	}
	if n, ok := GenericBranch(in, false).(NextInstruction); !ok || n.Addr != 0x600 {
		t.Fatalf("untaken branch: got %#v", GenericBranch(in, false))
	}

	in.Branch = &BranchInfo{OnTrue: false, Offset: 1}
	if r, ok := GenericBranch(in, false).(Return); !ok || r.Value != 1 {
		t.Fatalf("offset 1 returns true, got %#v", GenericBranch(in, false))
	}
	in.Branch.Offset = 0
	if r, ok := GenericBranch(in, false).(Return); !ok || r.Value != 0 {
		t.Fatalf("offset 0 returns false, got %#v", GenericBranch(in, false))
	}
}

func TestDecodeErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		version uint8
		code    []byte
		want    string
	}{
		{"extended", 3, []byte{0xBE, 0x00}, "extended"},
		{"unknown 2OP", 3, []byte{0x00, 0x01, 0x01}, "unknown opcode"},
		{"version 4 VAR", 3, []byte{0xEC, 0xFF}, "unknown opcode"},
		{"show_status in version 2", 2, []byte{0xBC}, "unknown opcode"},
		{"too few operands", 3, []byte{0xC1, 0x7F, 0x01, 0xC1}, "needs 2 operands"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := newStoryBuilder()
			b.buf[hdrVersion] = tc.version
			address := b.code(tc.code...)
			_, err := NewInstructionDecoder(b.build(t)).Decode(address)
			var ie *InstructionError
			if !errors.As(err, &ie) {
				t.Fatalf("expected InstructionError, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestOpcodeTables(t *testing.T) {
	tables := map[OperandCount][]*Opcode{
		OP0: ZFunctions_0OP[:],
		OP1: ZFunctions_1OP[:],
		OP2: ZFunctions_2OP[:],
		VAR: ZFunctions_VAR[:],
	}
	for count, table := range tables {
		for n, op := range table {
			if op == nil {
				continue
			}
			if op.handler == nil {
				t.Errorf("%s:%d %s has no handler", count, n, op.Name)
			}
			if op.MinArgs > 0 && len(op.Hints) == 0 {
				t.Errorf("%s:%d %s takes operands but declares no hints", count, n, op.Name)
			}
		}
	}
}
